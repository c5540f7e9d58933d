// Package history stores validation run records under the state directory,
// so maintainers can see what was checked, when, and with what outcome.
package history

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// FileName is the name of the history file inside the state directory.
const FileName = "history.json"

// Entry is a single validation run record.
type Entry struct {
	// ID is a unique identifier in run_YYYYMMDD_HHMMSS_xxxx format.
	ID string `json:"id"`
	// Timestamp is when the run started.
	Timestamp time.Time `json:"timestamp"`
	// Root is the dataset root that was validated.
	Root string `json:"root"`
	// Splits lists the splits validated (empty means both).
	Splits []string `json:"splits,omitempty"`
	// Findings is the total number of findings in the report.
	Findings int `json:"findings"`
	// Errors and Advisories break the findings down by severity.
	Errors     int `json:"errors"`
	Advisories int `json:"advisories"`
	// ExitCode is the process exit code the run mapped to.
	ExitCode int `json:"exit_code"`
	// Duration is the run duration in Go duration format.
	Duration string `json:"duration"`
}

// File is the on-disk history document. Newest entries are appended at the
// end.
type File struct {
	Entries []Entry `json:"entries"`
}

// GenerateID creates a unique run identifier.
func GenerateID() (string, error) {
	var suffix [2]byte
	if _, err := rand.Read(suffix[:]); err != nil {
		return "", fmt.Errorf("generating run id: %w", err)
	}
	return fmt.Sprintf("run_%s_%s", time.Now().Format("20060102_150405"), hex.EncodeToString(suffix[:])), nil
}

// Load reads the history file from the given state directory. A missing
// file yields empty history. A corrupted file is backed up and replaced so
// one bad write never wedges the tool.
func Load(stateDir string) (*File, error) {
	path := filepath.Join(stateDir, FileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &File{Entries: []Entry{}}, nil
		}
		return nil, fmt.Errorf("reading history file: %w", err)
	}

	var history File
	if err := json.Unmarshal(data, &history); err != nil {
		backupPath := path + ".backup"
		if backupErr := os.Rename(path, backupPath); backupErr != nil {
			return nil, fmt.Errorf("backing up corrupted history: %w", backupErr)
		}
		return &File{Entries: []Entry{}}, nil
	}

	return &history, nil
}

// Save writes the history file to the given state directory.
func Save(stateDir string, history *File) error {
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return fmt.Errorf("creating state directory: %w", err)
	}

	data, err := json.MarshalIndent(history, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}

	path := filepath.Join(stateDir, FileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing history file: %w", err)
	}
	return nil
}
