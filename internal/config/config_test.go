package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolateHome points the home directory at a throwaway location so the
// real global config cannot leak into tests.
func isolateHome(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestLoad_Defaults(t *testing.T) {
	home := isolateHome(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.Workers)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.False(t, cfg.Strict)
	assert.Equal(t, 0, cfg.MaxErrors)
	assert.True(t, cfg.ShowProgress)
	assert.Equal(t, 50, cfg.HistoryLimit)
	assert.Equal(t, filepath.Join(home, ".posecheck"), cfg.StateDir, "tilde expanded")
}

func TestLoad_GlobalConfig(t *testing.T) {
	home := isolateHome(t)
	writeConfig(t, filepath.Join(home, ".posecheck", "config.json"), `{"workers": 2, "strict": true}`)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Workers)
	assert.True(t, cfg.Strict)
}

func TestLoad_LocalOverridesGlobal(t *testing.T) {
	home := isolateHome(t)
	writeConfig(t, filepath.Join(home, ".posecheck", "config.json"), `{"workers": 2}`)

	localPath := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, localPath, `{"workers": 8, "splits": ["Train"]}`)

	cfg, err := Load(localPath)
	require.NoError(t, err)
	assert.Equal(t, 8, cfg.Workers, "local value wins")
	assert.Equal(t, []string{"Train"}, cfg.Splits)
}

func TestLoad_EnvOverridesFiles(t *testing.T) {
	isolateHome(t)
	localPath := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, localPath, `{"max_errors": 10}`)

	t.Setenv("POSECHECK_MAX_ERRORS", "25")
	t.Setenv("POSECHECK_LOG_LEVEL", "debug")

	cfg, err := Load(localPath)
	require.NoError(t, err)
	assert.Equal(t, 25, cfg.MaxErrors, "env value wins")
	assert.Equal(t, "debug", cfg.LogLevel)
}

func TestLoad_ValidationRejectsBadValues(t *testing.T) {
	isolateHome(t)
	tests := map[string]string{
		"zero workers":      `{"workers": 0}`,
		"bad split":         `{"splits": ["Validation"]}`,
		"bad log level":     `{"log_level": "trace"}`,
		"negative budget":   `{"max_errors": -1}`,
		"too many workers":  `{"workers": 65}`,
		"unknown formatter": `{"log_format": "xml"}`,
	}
	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			localPath := filepath.Join(t.TempDir(), "config.json")
			writeConfig(t, localPath, content)
			_, err := Load(localPath)
			assert.Error(t, err, "config %s must be rejected", content)
		})
	}
}

func TestLoad_MalformedLocalConfig(t *testing.T) {
	isolateHome(t)
	localPath := filepath.Join(t.TempDir(), "config.json")
	writeConfig(t, localPath, `{"workers": `)
	_, err := Load(localPath)
	assert.Error(t, err)
}

func TestLoad_NoColorEnv(t *testing.T) {
	isolateHome(t)
	t.Setenv("NO_COLOR", "1")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.NoColor)
}

func writeConfig(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}
