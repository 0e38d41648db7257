package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/MrSnakeDoc/jobscout/internal/app"
	"github.com/MrSnakeDoc/jobscout/internal/version"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "❌ jobscout: %v\n", err)
		os.Exit(1)
	}
}

// newRootCmd serves the API by default. Configuration comes from JOBSCOUT_*
// environment variables and an optional .env file, not flags.
func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "jobscout",
		Short:         "Job search aggregation and saved-jobs API",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(*cobra.Command, []string) error {
			return app.New().Run()
		},
	}
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "jobscout "+version.String())
		},
	})
	return root
}
