package history

import (
	"fmt"
	"os"
	"time"
)

// Writer appends run records with automatic pruning.
type Writer struct {
	// StateDir is the directory containing the history file.
	StateDir string
	// MaxEntries is the maximum number of entries to retain. Zero disables
	// pruning.
	MaxEntries int
}

// NewWriter creates a new history writer.
func NewWriter(stateDir string, maxEntries int) *Writer {
	return &Writer{
		StateDir:   stateDir,
		MaxEntries: maxEntries,
	}
}

// LogRun records one validation run. Errors are non-fatal: they are written
// to stderr and never cause command failures.
func (w *Writer) LogRun(entry Entry) {
	if err := w.logRun(entry); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to log history: %v\n", err)
	}
}

func (w *Writer) logRun(entry Entry) error {
	if entry.ID == "" {
		id, err := GenerateID()
		if err != nil {
			return err
		}
		entry.ID = id
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}

	history, err := Load(w.StateDir)
	if err != nil {
		return fmt.Errorf("loading history: %w", err)
	}

	history.Entries = append(history.Entries, entry)

	// Prune oldest entries if over limit
	if w.MaxEntries > 0 && len(history.Entries) > w.MaxEntries {
		excess := len(history.Entries) - w.MaxEntries
		history.Entries = history.Entries[excess:]
	}

	if err := Save(w.StateDir, history); err != nil {
		return fmt.Errorf("saving history: %w", err)
	}
	return nil
}
