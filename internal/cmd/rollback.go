package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRollbackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rollback <backup-dir>",
		Short: "Restore the installation from a backup directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			restored, err := newUpdater(cfg).Rollback(ctx, args[0])
			if err != nil {
				return err
			}
			if !restored {
				return fmt.Errorf("no files found in backup %s", args[0])
			}
			fmt.Printf("Rolled back from %s\n", args[0])
			return nil
		},
	}
}
