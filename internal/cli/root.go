// Package cli provides the Cobra-based commands of the posecheck tool:
// dataset validation, run history, and version reporting.
package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/poseinterface/posecheck/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "posecheck",
	Short: "pose benchmark dataset conformance checker",
	Long: `posecheck validates that a pose-estimation benchmark dataset conforms
to the expected directory layout, filename grammar, and COCO-style keypoint
annotation schema.

It reconciles three independent sources of truth: the folder hierarchy, the
metadata encoded in filenames, and the metadata inside label JSON files.
Findings are classified and reported; nothing is ever repaired.`,
	Example: `  # Validate a dataset
  posecheck validate /data/mouse-benchmark

  # Treat advisories as errors and stop after 20 findings
  posecheck validate --strict --max-errors 20 /data/mouse-benchmark

  # Validate only the Train split, machine-readable output
  posecheck validate --splits Train --format json /data/mouse-benchmark`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command and returns the error of the invoked
// subcommand, carrying the process exit code.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", config.DefaultLocalConfigPath, "Path to config file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	rootCmd.AddCommand(newValidateCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newVersionCmd())
}
