package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build metadata, injected via -ldflags at release time.
var (
	Version = "dev"
	Commit  = "unknown"
)

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the posecheck version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("posecheck %s (%s)\n", Version, Commit)
		},
	}
}
