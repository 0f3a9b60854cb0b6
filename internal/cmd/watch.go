package cmd

import (
	"fmt"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// cronLogger routes the scheduler's own messages to logrus.
type cronLogger struct{}

func (cronLogger) Info(msg string, keysAndValues ...interface{}) {
	log.Debugf("cron: %s %v", msg, keysAndValues)
}

func (cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	log.Errorf("cron: %s: %v %v", msg, err, keysAndValues)
}

// newWatchCron builds the watch scheduler. A tick that fires while the
// previous job is still running is skipped: the Updater must never be
// driven by two goroutines at once.
func newWatchCron() *cron.Cron {
	return cron.New(cron.WithChain(cron.SkipIfStillRunning(cronLogger{})))
}

func newWatchCmd() *cobra.Command {
	var (
		schedule string
		apply    bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Periodically check for updates on a cron schedule",
		Long: `Watch runs the update check on a cron schedule until interrupted.
With --apply, the full pipeline runs whenever an update is available.

Examples:
  updater watch --config updater.toml --schedule "@every 1h"
  updater watch --config updater.toml --schedule "0 3 * * *" --apply`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			ctx, stop := signalContext()
			defer stop()

			u := newUpdater(cfg)

			c := newWatchCron()
			_, err = c.AddFunc(schedule, func() {
				if apply {
					installed, err := u.Update(ctx)
					if err != nil {
						log.Errorf("scheduled update failed: %v", err)
						return
					}
					if installed {
						log.Info("scheduled update installed")
					}
					return
				}

				available, info, err := u.Check(ctx)
				if err != nil {
					log.Errorf("scheduled check failed: %v", err)
					return
				}
				if available {
					log.Infof("update available: %s -> %s", info.CurrentVersion, info.RemoteVersion)
				}
			})
			if err != nil {
				return fmt.Errorf("invalid schedule %q: %w", schedule, err)
			}

			log.Infof("watching for updates on schedule %q", schedule)
			c.Start()
			<-ctx.Done()
			<-c.Stop().Done()
			return nil
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "@every 1h", "Cron schedule for update checks")
	cmd.Flags().BoolVar(&apply, "apply", false, "Install updates when available instead of only reporting")
	return cmd
}
