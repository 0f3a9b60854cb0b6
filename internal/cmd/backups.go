package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/skylith/updater/internal/backup"
	"github.com/skylith/updater/internal/output"
)

func newBackupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "Manage installation backups",
	}
	cmd.AddCommand(newBackupsListCmd())
	cmd.AddCommand(newBackupsPruneCmd())
	return cmd
}

func backupManager() (*backup.Manager, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return backup.NewManager(cfg.InstallDir, cfg.TempDir, cfg.BackupDir, cfg.NumThreads, progressPrinter()), nil
}

func newBackupsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List available backups, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := backupManager()
			if err != nil {
				return err
			}

			backups, err := mgr.List()
			if err != nil {
				return err
			}

			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			if format != output.FormatText {
				return output.NewWriter(os.Stdout, format).Write(backups)
			}

			if len(backups) == 0 {
				fmt.Println("No backups found")
				return nil
			}
			for _, b := range backups {
				fmt.Printf("%s  version %s  %s\n", b.CreatedAt.Format("2006-01-02 15:04:05"), b.Version, b.Path)
			}
			return nil
		},
	}
}

func newBackupsPruneCmd() *cobra.Command {
	var keep int

	cmd := &cobra.Command{
		Use:   "prune",
		Short: "Delete old backups, keeping the most recent ones",
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := backupManager()
			if err != nil {
				return err
			}

			result, err := mgr.Prune(keep)
			if err != nil {
				return err
			}
			fmt.Printf("Deleted %d backups, kept %d\n", len(result.Deleted), result.Kept)
			return nil
		},
	}

	cmd.Flags().IntVar(&keep, "keep", backup.DefaultKeepCount, "Number of backups to retain")
	return cmd
}
