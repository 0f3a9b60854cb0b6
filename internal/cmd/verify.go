package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newVerifyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "verify [artifact]",
		Short: "Verify a downloaded artifact against the manifest digest",
		Long: `Verify computes the configured digest of an update artifact and
compares it to the digest advertised by the remote manifest. Without an
argument, the conventional download path for the latest remote version
is verified.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			u := newUpdater(cfg)
			_, info, err := u.Check(ctx)
			if err != nil {
				return err
			}
			if info == nil {
				return fmt.Errorf("manifest carries no version to verify against")
			}

			path := u.ArtifactPath(info.RemoteVersion)
			if len(args) == 1 {
				path = args[0]
			}

			ok, err := u.VerifyArtifact(path, info)
			if err != nil {
				return err
			}
			if ok {
				fmt.Printf("%s verified\n", path)
			}
			return nil
		},
	}
}
