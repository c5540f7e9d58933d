// Package progress renders a scan progress indicator during validation.
// On interactive terminals it animates a spinner; otherwise it degrades to
// plain line output so logs stay readable.
package progress

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"golang.org/x/term"
)

// TerminalCapabilities describes what the attached terminal supports.
type TerminalCapabilities struct {
	IsTTY           bool
	SupportsColor   bool
	SupportsUnicode bool
	Width           int
}

// Symbols is the symbol set selected for the terminal.
type Symbols struct {
	Checkmark  string
	Failure    string
	SpinnerSet int
}

// DetectTerminalCapabilities detects terminal features from stderr and the
// environment.
func DetectTerminalCapabilities() TerminalCapabilities {
	isTTY := term.IsTerminal(int(os.Stderr.Fd()))

	noColor := os.Getenv("NO_COLOR") != ""
	forceASCII := os.Getenv("POSECHECK_ASCII") == "1"

	width := 0
	if isTTY {
		if w, _, err := term.GetSize(int(os.Stderr.Fd())); err == nil {
			width = w
		}
	}

	return TerminalCapabilities{
		IsTTY:           isTTY,
		SupportsColor:   isTTY && !noColor,
		SupportsUnicode: isTTY && !forceASCII,
		Width:           width,
	}
}

// SelectSymbols returns the appropriate symbol set for the terminal.
func SelectSymbols(caps TerminalCapabilities) Symbols {
	if caps.SupportsUnicode {
		return Symbols{
			Checkmark:  "✓",
			Failure:    "✗",
			SpinnerSet: 14, // Unicode braille dots
		}
	}
	return Symbols{
		Checkmark:  "[OK]",
		Failure:    "[FAIL]",
		SpinnerSet: 9, // ASCII: | / - \
	}
}

// Display drives the spinner for one validation run.
type Display struct {
	capabilities TerminalCapabilities
	symbols      Symbols
	spinner      *spinner.Spinner
}

// NewDisplay creates a display for the given terminal capabilities.
func NewDisplay(caps TerminalCapabilities) *Display {
	return &Display{
		capabilities: caps,
		symbols:      SelectSymbols(caps),
	}
}

// Start begins the progress display with the given message.
func (d *Display) Start(msg string) {
	if d.capabilities.IsTTY {
		d.spinner = spinner.New(
			spinner.CharSets[d.symbols.SpinnerSet],
			100*time.Millisecond,
		)
		d.spinner.Writer = os.Stderr // keep stdout clean for the report
		d.spinner.Suffix = " " + msg
		d.spinner.Start()
		return
	}
	fmt.Fprintln(os.Stderr, msg)
}

// Update refreshes the session counter. Safe to call from worker callbacks.
func (d *Display) Update(done, total int) {
	if d.spinner != nil {
		d.spinner.Suffix = fmt.Sprintf(" validating sessions (%d/%d)", done, total)
	}
}

// Complete stops the spinner and prints a completion line.
func (d *Display) Complete(msg string) {
	d.stop()
	fmt.Fprintf(os.Stderr, "%s %s\n", d.symbols.Checkmark, msg)
}

// Fail stops the spinner and prints a failure line.
func (d *Display) Fail(msg string) {
	d.stop()
	fmt.Fprintf(os.Stderr, "%s %s\n", d.symbols.Failure, msg)
}

func (d *Display) stop() {
	if d.spinner != nil {
		d.spinner.Stop()
		d.spinner = nil
	}
}
