package cli

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/poseinterface/posecheck/internal/report"
)

// Report output formats.
const (
	formatTable = "table"
	formatPlain = "plain"
	formatJSON  = "json"
)

type renderOptions struct {
	Format  string
	NoColor bool
	Quiet   bool
	Strict  bool
}

// renderReport writes the findings listing and summary line to out.
func renderReport(out io.Writer, rep *report.Report, opts renderOptions) error {
	switch opts.Format {
	case formatJSON:
		return renderJSON(out, rep, opts.Strict)
	case formatPlain:
		if !opts.Quiet {
			for _, f := range rep.Findings {
				fmt.Fprintln(out, f.String())
			}
		}
	default:
		if !opts.Quiet && rep.Len() > 0 {
			fmt.Fprintln(out, renderFindingsTable(rep, opts.NoColor))
		}
	}

	fmt.Fprintln(out, summaryLine(rep, opts.NoColor))
	return nil
}

func renderJSON(out io.Writer, rep *report.Report, strict bool) error {
	payload := struct {
		Findings  []report.Finding    `json:"findings"`
		Counts    map[report.Kind]int `json:"counts"`
		HasErrors bool                `json:"has_errors"`
	}{
		Findings:  rep.Findings,
		Counts:    rep.Counts(),
		HasErrors: rep.HasErrors(strict),
	}
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}

func renderFindingsTable(rep *report.Report, noColor bool) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"Severity", "Kind", "Path", "Message"})

	for _, f := range rep.Findings {
		tw.AppendRow(table.Row{severityCell(f.Severity, noColor), string(f.Kind), f.Path, f.Message})
	}

	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 2, Align: text.AlignLeft, AlignHeader: text.AlignLeft},
		{Number: 3, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: 60},
		{Number: 4, Align: text.AlignLeft, AlignHeader: text.AlignLeft, WidthMax: 80},
	})

	return tw.Render()
}

func severityCell(s report.Severity, noColor bool) string {
	if noColor {
		return string(s)
	}
	switch s {
	case report.SeverityError:
		return color.New(color.FgRed).Sprint(string(s))
	case report.SeverityAdvisory:
		return color.New(color.FgYellow).Sprint(string(s))
	default:
		return string(s)
	}
}

func summaryLine(rep *report.Report, noColor bool) string {
	errors, advisories := severityTotals(rep)
	if rep.Len() == 0 {
		msg := "dataset conforms: no findings"
		if noColor {
			return msg
		}
		return color.New(color.FgGreen).Sprint(msg)
	}

	counts := rep.Counts()
	return fmt.Sprintf("%d findings (%d errors, %d advisories): %d grammar, %d structure, %d schema, %d crossref",
		rep.Len(), errors, advisories,
		counts[report.KindGrammar], counts[report.KindStructure],
		counts[report.KindSchema], counts[report.KindCrossRef])
}

func severityTotals(rep *report.Report) (errors, advisories int) {
	for _, f := range rep.Findings {
		if f.Severity == report.SeverityError {
			errors++
		} else {
			advisories++
		}
	}
	return errors, advisories
}
