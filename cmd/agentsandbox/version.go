package main

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

func newVersionCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(opts.out, "agentsandbox %s\n", Version)
			fmt.Fprintf(opts.out, "  Build Time: %s\n", BuildTime)
			fmt.Fprintf(opts.out, "  Git Commit: %s\n", GitCommit)
			fmt.Fprintf(opts.out, "  Go version: %s\n", runtime.Version())
			fmt.Fprintf(opts.out, "  Platform: %s/%s\n", runtime.GOOS, runtime.GOARCH)
		},
	}
}
