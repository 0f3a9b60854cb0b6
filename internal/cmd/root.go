// Package cmd wires the update pipeline to the command line.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/skylith/updater/internal/logging"
)

var (
	// Global flags
	configPath   string
	outputFormat string
	verbose      bool
	quiet        bool
	logFile      string
	logLevel     string
)

// Execute builds the command tree and runs it.
func Execute(version, commit, date string) error {
	rootCmd := &cobra.Command{
		Use:   "updater",
		Short: "Check for, download, verify, and install application updates",
		Long: `updater drives the update pipeline: it fetches a remote manifest,
downloads and verifies the update artifact, backs up the current
installation, and installs the new version with rollback on failure.`,
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := logLevel
			if verbose {
				level = "debug"
			}
			if quiet {
				level = "error"
			}
			return logging.Init(level, logFile)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to updater configuration file")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format: text, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "Quiet mode (errors only)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "", "Log to a rotated file instead of stderr")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")

	rootCmd.AddCommand(newUpdateCmd())
	rootCmd.AddCommand(newCheckCmd())
	rootCmd.AddCommand(newDownloadCmd())
	rootCmd.AddCommand(newVerifyCmd())
	rootCmd.AddCommand(newRollbackCmd())
	rootCmd.AddCommand(newHistoryCmd())
	rootCmd.AddCommand(newBackupsCmd())
	rootCmd.AddCommand(newWatchCmd())

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json", "yaml"}, cobra.ShellCompDirectiveNoFileComp
	})

	return rootCmd.Execute()
}
