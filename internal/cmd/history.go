package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skylith/updater/internal/output"
	"github.com/skylith/updater/internal/update"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List past updates recorded in the installation directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			entries, err := update.ReadHistory(cfg.InstallDir)
			if err != nil {
				return err
			}

			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			if format != output.FormatText {
				return output.NewWriter(os.Stdout, format).Write(entries)
			}

			if len(entries) == 0 {
				fmt.Println("No updates recorded")
				return nil
			}
			for _, e := range entries {
				fmt.Printf("%s  %s -> %s  (%s)\n", e.Timestamp, e.FromVersion, e.ToVersion, e.DownloadURL)
			}
			return nil
		},
	}
}
