package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"engage/pkg/logger"
	"engage/pkg/ui"
)

var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"

	configFile    string
	logLevel      string
	noColor       bool
	notifications bool
	quiet         bool
	verbose       bool
)

var rootCmd = &cobra.Command{
	Use:   "engage",
	Short: "Collect the people engaging with a post",
	Long: `engage drives a signed-in browser to a post, opens its reactions, comments
and reposts one after another, and collects everyone it finds.

People seen in more than one list are merged into one row. The result is
written to a CSV file or posted to a webhook, with a local file as
fallback when the webhook fails.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.Version = version
		if noColor {
			ui.NoColor = true
		}
		if quiet {
			logLevel = "error"
		} else if verbose {
			logLevel = "debug"
		}
	},
}

// Execute runs the root command and exits non-zero on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		ui.PrintError("Error", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is ./.engage.yaml or ~/.config/engage/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
	rootCmd.PersistentFlags().BoolVar(&notifications, "notifications", false, "show a desktop notification when a run ends")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "only log errors")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output and tick details")

	rootCmd.SetVersionTemplate(`engage {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)
	rootCmd.CompletionOptions.DisableDefaultCmd = true
}
