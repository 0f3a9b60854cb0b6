package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newDownloadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Download the latest update artifact without installing it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			u := newUpdater(cfg)
			available, info, err := u.Check(ctx)
			if err != nil {
				return err
			}
			if !available {
				fmt.Println("Already up to date, nothing to download")
				return nil
			}

			path, err := u.Download(ctx, info)
			if err != nil {
				return err
			}
			fmt.Printf("Downloaded %s to %s\n", info.RemoteVersion, path)
			return nil
		},
	}
}
