package cmd

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/skylith/updater/internal/config"
	"github.com/skylith/updater/internal/types"
	"github.com/skylith/updater/internal/update"
)

// loadConfig reads the configuration named by --config and ensures the
// temp and backup directories exist.
func loadConfig() (*config.Config, error) {
	if configPath == "" {
		return nil, fmt.Errorf("--config is required")
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	if err := cfg.EnsureDirs(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newUpdater builds an updater with hooks and progress printing wired
// from the configuration and global flags.
func newUpdater(cfg *config.Config) *update.Updater {
	return update.New(cfg, buildHooks(cfg), progressPrinter())
}

// buildHooks turns the configured hook commands into typed callbacks.
func buildHooks(cfg *config.Config) update.Hooks {
	var hooks update.Hooks
	if cmd := cfg.Hooks.PostDownload; cmd != "" {
		hooks.PostDownload = shellHook(cmd)
	}
	if cmd := cfg.Hooks.PostInstall; cmd != "" {
		hooks.PostInstall = shellHook(cmd)
	}
	return hooks
}

func shellHook(command string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		c := exec.CommandContext(ctx, "/bin/sh", "-c", command)
		c.Stdout = os.Stdout
		c.Stderr = os.Stderr
		return c.Run()
	}
}

// progressPrinter writes stage transitions and progress ticks to
// stdout unless --quiet is set.
func progressPrinter() types.ProgressFunc {
	if quiet {
		return types.NopProgress
	}
	return func(status types.Status, fraction float64, message string) {
		fmt.Printf("[%-16s] %3.0f%% %s\n", status, fraction*100, message)
	}
}

// signalContext returns a context cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
