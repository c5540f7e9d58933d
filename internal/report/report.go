// Package report defines the finding taxonomy and the aggregator that
// collects findings from concurrent validation workers into a single
// deterministic report.
package report

import (
	"fmt"
	"sort"
	"sync"
)

// Severity classifies how a finding affects acceptance of a dataset.
type Severity string

const (
	// SeverityError marks a conformance violation.
	SeverityError Severity = "error"
	// SeverityAdvisory marks a recommendation violation that only fails
	// validation in strict mode.
	SeverityAdvisory Severity = "advisory"
)

// Kind identifies which validation stage produced a finding.
type Kind string

const (
	// KindGrammar covers filenames that fail the key-value grammar.
	KindGrammar Kind = "grammar"
	// KindStructure covers missing, extra, or misplaced folders and files.
	KindStructure Kind = "structure"
	// KindSchema covers malformed or incomplete label JSON.
	KindSchema Kind = "schema"
	// KindCrossRef covers filename-vs-label-content mismatches.
	KindCrossRef Kind = "crossref"
)

// Finding is a single validation result tied to a dataset path.
type Finding struct {
	Severity Severity `json:"severity"`
	Kind     Kind     `json:"kind"`
	Path     string   `json:"path"`
	Message  string   `json:"message"`
}

// String formats the finding for plain-text output.
func (f Finding) String() string {
	return fmt.Sprintf("%s [%s] %s: %s", f.Severity, f.Kind, f.Path, f.Message)
}

// Report is the final, ordered listing of all findings for one run.
type Report struct {
	Findings []Finding `json:"findings"`
}

// HasErrors reports whether the run should be considered failed.
// In strict mode advisories count as errors.
func (r *Report) HasErrors(strict bool) bool {
	for _, f := range r.Findings {
		if f.Severity == SeverityError || strict {
			return true
		}
	}
	return false
}

// Count returns the number of findings of the given kind.
func (r *Report) Count(kind Kind) int {
	n := 0
	for _, f := range r.Findings {
		if f.Kind == kind {
			n++
		}
	}
	return n
}

// Counts returns finding totals keyed by kind.
func (r *Report) Counts() map[Kind]int {
	counts := make(map[Kind]int)
	for _, f := range r.Findings {
		counts[f.Kind]++
	}
	return counts
}

// Len returns the total number of findings.
func (r *Report) Len() int {
	return len(r.Findings)
}

// Aggregator collects findings from concurrent workers. It is append-only:
// findings are never dropped or rewritten, and ordering is established by
// sorting at Report time rather than by arrival order.
type Aggregator struct {
	mu       sync.Mutex
	findings []Finding
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add appends one finding.
func (a *Aggregator) Add(f Finding) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.findings = append(a.findings, f)
}

// AddAll appends a batch of findings from one worker.
func (a *Aggregator) AddAll(fs []Finding) {
	if len(fs) == 0 {
		return
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	a.findings = append(a.findings, fs...)
}

// ErrorCount returns the number of findings that count against the error
// budget. In strict mode advisories are counted too.
func (a *Aggregator) ErrorCount(strict bool) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, f := range a.findings {
		if f.Severity == SeverityError || strict {
			n++
		}
	}
	return n
}

// BudgetExceeded reports whether the error budget has been reached.
// A max of zero or less means no budget.
func (a *Aggregator) BudgetExceeded(max int, strict bool) bool {
	if max <= 0 {
		return false
	}
	return a.ErrorCount(strict) >= max
}

// Report snapshots the collected findings into a deterministically ordered
// report: by path, then severity (errors first), then kind, then message.
func (a *Aggregator) Report() *Report {
	a.mu.Lock()
	findings := make([]Finding, len(a.findings))
	copy(findings, a.findings)
	a.mu.Unlock()

	sort.SliceStable(findings, func(i, j int) bool {
		if findings[i].Path != findings[j].Path {
			return findings[i].Path < findings[j].Path
		}
		if findings[i].Severity != findings[j].Severity {
			return severityRank(findings[i].Severity) < severityRank(findings[j].Severity)
		}
		if findings[i].Kind != findings[j].Kind {
			return findings[i].Kind < findings[j].Kind
		}
		return findings[i].Message < findings[j].Message
	})

	return &Report{Findings: findings}
}

func severityRank(s Severity) int {
	if s == SeverityError {
		return 0
	}
	return 1
}
