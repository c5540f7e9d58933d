package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/poseinterface/posecheck/internal/config"
	"github.com/poseinterface/posecheck/internal/engine"
	"github.com/poseinterface/posecheck/internal/history"
	"github.com/poseinterface/posecheck/internal/logging"
	"github.com/poseinterface/posecheck/internal/progress"
)

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate <dataset-root>",
		Short: "Validate a dataset against the benchmark conventions",
		Long: `Validate walks the dataset tree, parses every filename against the
key-value grammar, checks the label JSON schema, and cross-references
filenames against label content. All findings are collected into one
deterministic report; the walk never stops at the first violation.`,
		Args: cobra.ExactArgs(1),
		RunE: runValidate,
	}

	cmd.Flags().Bool("strict", false, "Treat advisories as errors")
	cmd.Flags().Int("max-errors", 0, "Stop scheduling sessions after this many errors (0 = unlimited)")
	cmd.Flags().StringSlice("splits", nil, "Validate only these splits (Train, Test)")
	cmd.Flags().Int("workers", 0, "Concurrent session validations (0 = config default)")
	cmd.Flags().String("format", "table", "Report format: table, plain, or json")
	cmd.Flags().BoolP("quiet", "q", false, "Print only the summary line")
	cmd.Flags().Bool("no-history", false, "Do not record this run in the history file")

	return cmd
}

func runValidate(cmd *cobra.Command, args []string) error {
	flags := cmd.Flags()
	root := args[0]

	cfgPath, _ := flags.GetString("config")
	cfg, err := config.Load(cfgPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return NewExitError(ExitInvalidArguments)
	}

	// Command-line flags override config file values when set explicitly.
	if flags.Changed("strict") {
		cfg.Strict, _ = flags.GetBool("strict")
	}
	if flags.Changed("max-errors") {
		cfg.MaxErrors, _ = flags.GetInt("max-errors")
	}
	if flags.Changed("splits") {
		cfg.Splits, _ = flags.GetStringSlice("splits")
	}
	if flags.Changed("workers") {
		cfg.Workers, _ = flags.GetInt("workers")
	}
	if noColor, _ := flags.GetBool("no-color"); noColor {
		cfg.NoColor = true
	}

	for _, split := range cfg.Splits {
		if split != "Train" && split != "Test" {
			fmt.Fprintf(os.Stderr, "Error: unknown split %q, want Train or Test\n", split)
			return NewExitError(ExitInvalidArguments)
		}
	}

	format, _ := flags.GetString("format")
	if format != formatTable && format != formatPlain && format != formatJSON {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q, want table, plain, or json\n", format)
		return NewExitError(ExitInvalidArguments)
	}
	quiet, _ := flags.GetBool("quiet")

	logLevel := cfg.LogLevel
	if verbose, _ := flags.GetBool("verbose"); verbose {
		logLevel = "debug"
	}
	logger, err := logging.New(logging.Options{Level: logLevel, Format: cfg.LogFormat})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return NewExitError(ExitInvalidArguments)
	}

	var display *progress.Display
	engineCfg := engine.Config{
		Root:      root,
		Strict:    cfg.Strict,
		MaxErrors: cfg.MaxErrors,
		Splits:    cfg.Splits,
		Workers:   cfg.Workers,
		Logger:    logging.NewComponentLogger(logger, "engine"),
	}
	if cfg.ShowProgress && !quiet && format != formatJSON {
		display = progress.NewDisplay(progress.DetectTerminalCapabilities())
		display.Start("scanning dataset " + root)
		engineCfg.OnSessionDone = display.Update
	}

	start := time.Now()
	rep, err := engine.Validate(cmd.Context(), engineCfg)
	duration := time.Since(start)
	if err != nil {
		if display != nil {
			display.Fail("validation aborted")
		}
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return NewExitError(ExitEnvironmentFailure)
	}

	hasErrors := rep.HasErrors(cfg.Strict)
	if display != nil {
		if hasErrors {
			display.Fail(fmt.Sprintf("validation finished with %d findings", rep.Len()))
		} else {
			display.Complete("validation finished")
		}
	}

	if err := renderReport(os.Stdout, rep, renderOptions{
		Format:  format,
		NoColor: cfg.NoColor,
		Quiet:   quiet,
		Strict:  cfg.Strict,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return NewExitError(ExitEnvironmentFailure)
	}

	exitCode := ExitSuccess
	if hasErrors {
		exitCode = ExitValidationFailed
	}
	if noHistory, _ := flags.GetBool("no-history"); !noHistory {
		errors, advisories := severityTotals(rep)
		history.NewWriter(cfg.StateDir, cfg.HistoryLimit).LogRun(history.Entry{
			Root:       root,
			Splits:     cfg.Splits,
			Findings:   rep.Len(),
			Errors:     errors,
			Advisories: advisories,
			ExitCode:   exitCode,
			Duration:   duration.Round(time.Millisecond).String(),
		})
	}

	if hasErrors {
		return NewExitError(ExitValidationFailed)
	}
	return nil
}
