// Package update implements the update orchestration pipeline:
// check → download → verify → backup → extract → install, with
// rollback on installation failure.
package update

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/skylith/updater/internal/backup"
	"github.com/skylith/updater/internal/config"
	"github.com/skylith/updater/internal/system"
	"github.com/skylith/updater/internal/types"
)

// Updater sequences the pipeline stages and guarantees cleanup. One
// Updater must not be driven concurrently by two callers.
type Updater struct {
	cfg    *config.Config
	hooks  Hooks
	report types.ProgressFunc
}

// New creates an updater. report may be nil.
func New(cfg *config.Config, hooks Hooks, report types.ProgressFunc) *Updater {
	if report == nil {
		report = types.NopProgress
	}
	return &Updater{cfg: cfg, hooks: hooks, report: report}
}

// run owns the per-pipeline resources: the HTTP sessions and the run's
// log context. It is created at the start of Update and released via
// cleanup on every exit path.
//
// Manifest requests and artifact downloads use separate clients: the
// 30-second bound applies per manifest fetch attempt, while artifact
// streaming can legitimately run for minutes and is bounded only by
// the caller's context.
type run struct {
	client   *http.Client
	download *http.Client
	log      *log.Entry
}

func (u *Updater) newRun() *run {
	return &run{
		client:   &http.Client{Timeout: checkTimeout},
		download: &http.Client{},
		log:      log.WithField("run_id", uuid.NewString()),
	}
}

func (r *run) close() {
	r.client.CloseIdleConnections()
	r.download.CloseIdleConnections()
}

// Update drives the full pipeline. It returns true only when a newer
// version was installed. On installation failure exactly one rollback
// is attempted; when the rollback itself fails, its error wraps the
// original installation error so neither is lost.
func (u *Updater) Update(ctx context.Context) (installed bool, err error) {
	if !PlatformSupported("") {
		return false, &types.UpdaterError{
			Message: fmt.Sprintf("unsupported platform %q", CurrentPlatform()),
		}
	}

	r := u.newRun()
	defer u.cleanup(r)

	u.report(types.StatusIdle, 0, "starting update pipeline")
	r.log.Info("starting update pipeline")

	available, info, err := u.check(ctx, r)
	if err != nil {
		return false, u.fail(r, err)
	}
	if !available {
		return false, nil
	}

	archive, err := u.download(ctx, r, info)
	if err != nil {
		return false, u.fail(r, err)
	}

	if _, err := u.verify(archive, info); err != nil {
		return false, u.fail(r, err)
	}

	if u.hooks.PostDownload != nil {
		r.log.Debug("running post-download hook")
		if err := u.hooks.PostDownload(ctx); err != nil {
			return false, u.fail(r, &types.UpdaterError{Message: "post-download hook failed", Err: err})
		}
	}

	mgr := backup.NewManager(u.cfg.InstallDir, u.cfg.TempDir, u.cfg.BackupDir, u.cfg.NumThreads, u.report)
	backupDir, err := mgr.Backup(ctx, u.cfg.CurrentVersion)
	if err != nil {
		return false, u.fail(r, err)
	}

	extractor := NewExtractor(u.cfg.TempDir, u.report)
	stagingDir, err := extractor.Extract(ctx, archive)
	if err != nil {
		return false, u.fail(r, err)
	}

	installer := NewInstaller(u.cfg.InstallDir, info, u.hooks.PostInstall, u.report)
	if installErr := installer.Install(ctx, stagingDir); installErr != nil {
		r.log.Errorf("installation failed, rolling back: %v", installErr)
		u.report(types.StatusFailed, 0, fmt.Sprintf("installation failed: %v", installErr))

		restored, rbErr := mgr.Rollback(ctx, backupDir)
		if rbErr != nil {
			return false, fmt.Errorf("rollback failed after install failure: %w (install error: %v)", rbErr, installErr)
		}
		if !restored {
			return false, fmt.Errorf("rollback restored nothing after install failure: %w", installErr)
		}
		return false, installErr
	}

	u.report(types.StatusFinalizing, 1, fmt.Sprintf("finalizing update to %s", info.RemoteVersion))
	u.report(types.StatusComplete, 1, fmt.Sprintf("updated %s -> %s", info.CurrentVersion, info.RemoteVersion))
	r.log.Infof("update complete: %s -> %s", info.CurrentVersion, info.RemoteVersion)
	return true, nil
}

// Check fetches the manifest and reports whether a newer version
// exists, without side effects beyond progress reporting.
func (u *Updater) Check(ctx context.Context) (bool, *UpdateInfo, error) {
	r := u.newRun()
	defer r.close()
	return u.check(ctx, r)
}

// Download runs the download stage for a previously checked update and
// returns the artifact path.
func (u *Updater) Download(ctx context.Context, info *UpdateInfo) (string, error) {
	r := u.newRun()
	defer r.close()
	return u.download(ctx, r, info)
}

// VerifyArtifact verifies an already-downloaded artifact against the
// manifest's expected digest.
func (u *Updater) VerifyArtifact(path string, info *UpdateInfo) (bool, error) {
	return u.verify(path, info)
}

// Rollback restores the given backup directory over the installation.
func (u *Updater) Rollback(ctx context.Context, backupDir string) (bool, error) {
	mgr := backup.NewManager(u.cfg.InstallDir, u.cfg.TempDir, u.cfg.BackupDir, u.cfg.NumThreads, u.report)
	return mgr.Rollback(ctx, backupDir)
}

// ArtifactPath returns the conventional destination for a version's
// downloaded artifact: <temp_dir>/update_<version>.zip.
func (u *Updater) ArtifactPath(version string) string {
	return filepath.Join(u.cfg.TempDir, fmt.Sprintf("update_%s.zip", version))
}

func (u *Updater) check(ctx context.Context, r *run) (bool, *UpdateInfo, error) {
	checker := NewChecker(r.client, u.cfg.URL, u.cfg.CurrentVersion, u.report)
	return checker.Check(ctx)
}

func (u *Updater) download(ctx context.Context, r *run, info *UpdateInfo) (string, error) {
	if info == nil || info.DownloadURL == "" {
		return "", &types.UpdaterError{Message: "no update information available, run a check first"}
	}

	// Preflight: require headroom for the artifact plus its
	// extracted copy when the manifest advertises a size.
	if info.FileSize > 0 {
		if err := system.CheckFreeSpace(u.cfg.TempDir, uint64(info.FileSize)*2); err != nil {
			return "", err
		}
	}

	dest := u.ArtifactPath(info.RemoteVersion)
	downloader := NewDownloader(r.download, u.report)
	if err := downloader.Download(ctx, info.DownloadURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}

func (u *Updater) verify(path string, info *UpdateInfo) (bool, error) {
	expected := ""
	if info != nil {
		expected = info.FileHash
	}
	verifier := NewVerifier(u.cfg.VerifyHash, u.cfg.HashAlgorithm, u.report)
	return verifier.Verify(path, expected)
}

// fail reports the terminal Failed status and passes the error through.
func (u *Updater) fail(r *run, err error) error {
	r.log.Errorf("update failed: %v", err)
	u.report(types.StatusFailed, 0, err.Error())
	return err
}

// cleanup releases the run's resources: the HTTP sessions are closed
// and the temp directory reset. Failures here are logged, never raised.
func (u *Updater) cleanup(r *run) {
	r.close()

	if err := os.RemoveAll(u.cfg.TempDir); err != nil {
		r.log.Warnf("cleanup: failed to remove temp directory: %v", err)
	}
	if err := os.MkdirAll(u.cfg.TempDir, 0o755); err != nil {
		r.log.Warnf("cleanup: failed to recreate temp directory: %v", err)
	}

	r.log.Debug("cleanup complete")
}
