package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/skylith/updater/internal/output"
)

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check whether a newer version is available",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			_, info, err := newUpdater(cfg).Check(ctx)
			if err != nil {
				return err
			}
			if info == nil {
				// Manifest carried no version; the checker already
				// reported it. Nothing to do is success.
				return nil
			}

			format, err := output.ParseFormat(outputFormat)
			if err != nil {
				return err
			}
			return output.NewWriter(os.Stdout, format).Write(info)
		},
	}
}
