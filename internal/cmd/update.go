package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newUpdateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Run the full update pipeline",
		Long: `Update checks the configured manifest, and when a newer version is
available downloads, verifies, backs up, extracts, and installs it.
A failed installation is rolled back from the fresh backup.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			installed, err := newUpdater(cfg).Update(ctx)
			if err != nil {
				return err
			}
			if !installed {
				fmt.Println("Already up to date")
			}
			return nil
		},
	}
}
