// Package engine orchestrates a full dataset validation run: one structural
// walk, then per-session label parsing and cross-referencing on a bounded
// worker pool. The report is the sole output; validation findings never
// surface as Go errors.
package engine

import (
	"context"
	"log/slog"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/poseinterface/posecheck/internal/crossref"
	"github.com/poseinterface/posecheck/internal/dataset"
	"github.com/poseinterface/posecheck/internal/label"
	"github.com/poseinterface/posecheck/internal/logging"
	"github.com/poseinterface/posecheck/internal/report"
)

// DefaultWorkers bounds session-level concurrency when Config.Workers is
// unset.
const DefaultWorkers = 4

// Config carries everything one validation run needs. All state is scoped
// to the run: repeated and parallel invocations need no reset.
type Config struct {
	// Root is the dataset root directory (required).
	Root string
	// Strict treats advisories as errors, both for the exit status and for
	// the error budget.
	Strict bool
	// MaxErrors stops scheduling new sessions once this many errors have
	// been collected. Zero means unlimited. In-flight sessions complete.
	MaxErrors int
	// Splits restricts validation to a subset of {Train, Test}.
	Splits []string
	// Workers bounds concurrent session validation.
	Workers int
	// Logger receives run diagnostics. Nil means silent.
	Logger *slog.Logger
	// OnSessionDone, if set, is called after each session finishes with the
	// number completed so far and the total scheduled.
	OnSessionDone func(done, total int)
}

// Validate walks the dataset, validates every session, and returns the
// deterministic report. The error return is reserved for environmental
// failures such as an unreadable root.
func Validate(ctx context.Context, cfg Config) (*report.Report, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	workers := cfg.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}

	inventory, structural, err := dataset.Walk(cfg.Root, dataset.WalkOptions{Splits: cfg.Splits})
	if err != nil {
		logger.Error("structural walk failed", logging.Err(err))
		return nil, err
	}
	logger.Info("structural walk complete",
		slog.Int("sessions", len(inventory.Sessions)),
		slog.Int("findings", len(structural)))

	agg := report.NewAggregator()
	agg.AddAll(structural)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	total := len(inventory.Sessions)
	var completed atomic.Int64

	scheduled := 0
	for _, rec := range inventory.Sessions {
		if ctx.Err() != nil {
			break
		}
		if agg.BudgetExceeded(cfg.MaxErrors, cfg.Strict) {
			logger.Warn("error budget reached, not scheduling further sessions",
				slog.Int("max_errors", cfg.MaxErrors),
				slog.Int("scheduled", scheduled),
				slog.Int("total", total))
			break
		}
		scheduled++
		g.Go(func() error {
			agg.AddAll(validateSession(rec, logger))
			if cfg.OnSessionDone != nil {
				cfg.OnSessionDone(int(completed.Add(1)), total)
			}
			return nil
		})
	}

	_ = g.Wait()

	return agg.Report(), nil
}

// validateSession parses and cross-references every label file of one
// session. Sessions are independent: this touches only the session's own
// files and returns its findings for fan-in.
func validateSession(rec *dataset.SessionRecord, logger *slog.Logger) []report.Finding {
	var findings []report.Finding

	for _, ref := range rec.FrameLabels {
		doc, fs := label.ParseFrameLabels(ref.Path)
		findings = append(findings, fs...)
		if doc == nil {
			// Locally fatal: schema finding recorded, cross-referencing
			// skipped for this file only.
			continue
		}
		findings = append(findings, crossref.ReconcileFrames(rec, ref, doc)...)
	}

	for _, clip := range rec.Clips {
		if clip.Label == nil {
			continue
		}
		doc, fs := label.ParseClipLabels(clip.Label.Path)
		findings = append(findings, fs...)
		if doc == nil {
			continue
		}
		findings = append(findings, crossref.ReconcileClip(rec, clip, doc)...)
	}

	logger.Debug("session validated",
		slog.String("session", rec.Path),
		slog.Int("findings", len(findings)))
	return findings
}
