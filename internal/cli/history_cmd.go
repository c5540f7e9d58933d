package cli

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"github.com/poseinterface/posecheck/internal/config"
	"github.com/poseinterface/posecheck/internal/history"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recent validation runs",
		RunE:  runHistory,
	}
	cmd.Flags().IntP("limit", "n", 10, "Show at most this many runs, newest first")
	return cmd
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfgPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return NewExitError(ExitInvalidArguments)
	}

	file, err := history.Load(cfg.StateDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return NewExitError(ExitEnvironmentFailure)
	}
	if len(file.Entries) == 0 {
		fmt.Println("no validation runs recorded")
		return nil
	}

	limit, _ := cmd.Flags().GetInt("limit")
	entries := file.Entries
	if limit > 0 && len(entries) > limit {
		entries = entries[len(entries)-limit:]
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(table.Row{"When", "Root", "Splits", "Findings", "Errors", "Exit", "Duration"})
	for i := len(entries) - 1; i >= 0; i-- {
		e := entries[i]
		splits := strings.Join(e.Splits, ",")
		if splits == "" {
			splits = "all"
		}
		tw.AppendRow(table.Row{
			e.Timestamp.Format("2006-01-02 15:04:05"),
			e.Root,
			splits,
			strconv.Itoa(e.Findings),
			strconv.Itoa(e.Errors),
			strconv.Itoa(e.ExitCode),
			e.Duration,
		})
	}
	fmt.Println(tw.Render())
	return nil
}
