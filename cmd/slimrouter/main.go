package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "slimrouter",
		Short: "Serve files, callable routes and WebSockets from a route table",
		Long: `slimrouter serves a directory through static mounts that discover
file routes on first request, plus a JSON listing of the route table and
Prometheus metrics.

Configuration is read from SLIM_* environment variables and .env files;
flags override them.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(
		serveCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "slimrouter %s (%s)\n", version, commit)
		},
	}
}
