package config

// DefaultLocalConfigPath is where a per-dataset config file is looked up.
const DefaultLocalConfigPath = ".posecheck/config.json"

// GetDefaults returns the default configuration values as a flat key map
// for koanf.
func GetDefaults() map[string]interface{} {
	return map[string]interface{}{
		"strict":        false,
		"max_errors":    0,
		"splits":        []string{},
		"workers":       4,
		"log_level":     "info",
		"log_format":    "text",
		"state_dir":     "~/.posecheck",
		"show_progress": true,
		"no_color":      false,
		"history_limit": 50,
	}
}
