package commands

import (
	"runtime"

	"github.com/spf13/cobra"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, buildDate, gitCommit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			r := GetRenderer(cmd.Context())
			r.Printf("framecheck %s\n", version)
			r.Printf("  build date: %s\n", buildDate)
			r.Printf("  git commit: %s\n", gitCommit)
			r.Printf("  go version: %s\n", runtime.Version())
		},
	}
}
