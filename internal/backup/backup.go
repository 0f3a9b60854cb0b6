// Package backup snapshots the installation directory into timestamped
// backup directories and restores them on rollback.
package backup

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/skylith/updater/internal/types"
)

// timestampLayout names backup directories and manifest timestamps.
const timestampLayout = "20060102_150405"

// Manager creates and restores installation backups. File copies fan
// out across a bounded worker pool; everything else is sequential.
type Manager struct {
	installDir string
	tempDir    string
	backupDir  string
	workers    int
	report     types.ProgressFunc
}

// NewManager creates a backup manager. workers < 1 falls back to 1; a
// nil report discards progress.
func NewManager(installDir, tempDir, backupDir string, workers int, report types.ProgressFunc) *Manager {
	if workers < 1 {
		workers = 1
	}
	if report == nil {
		report = types.NopProgress
	}
	return &Manager{
		installDir: installDir,
		tempDir:    tempDir,
		backupDir:  backupDir,
		workers:    workers,
		report:     report,
	}
}

// Backup snapshots the installation directory into
// <backup_dir>/backup_<version>_<timestamp> and writes a manifest
// beside the copied tree. Files that live under the temp or backup
// directories are excluded, even when those are nested inside the
// installation directory. Zero eligible files is a valid outcome.
func (m *Manager) Backup(ctx context.Context, version string) (string, error) {
	ts := time.Now().Format(timestampLayout)
	dir := filepath.Join(m.backupDir, fmt.Sprintf("backup_%s_%s", version, ts))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &types.InstallationError{Stage: "backup", Err: err}
	}

	dirs, files, err := m.enumerateEligible()
	if err != nil {
		return "", &types.InstallationError{Stage: "backup", Err: err}
	}

	m.report(types.StatusBackingUp, 0, fmt.Sprintf("backing up %d files to %s", len(files), dir))

	// Mirror the directory structure before any file copies start so
	// workers never race on parent creation.
	for _, rel := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, rel), 0o755); err != nil {
			return "", &types.InstallationError{Stage: "backup", Err: err}
		}
	}

	if len(files) == 0 {
		m.report(types.StatusBackingUp, 1, "no files to backup")
	} else if err := m.copyConcurrent(ctx, dir, files); err != nil {
		return "", &types.InstallationError{Stage: "backup", Err: err}
	}

	manifest := Manifest{
		Timestamp:  ts,
		Version:    version,
		BackupPath: dir,
	}
	if err := WriteManifest(dir, manifest); err != nil {
		return "", &types.InstallationError{Stage: "backup", Err: err}
	}

	log.Infof("backup complete: %d files in %s", len(files), dir)
	return dir, nil
}

// copyConcurrent copies the given relative paths from the installation
// directory into dst using the bounded worker pool. Reports are gated
// on a high-water mark under a lock: workers can finish out of order,
// and a stale count delivered late would show progress decreasing.
func (m *Manager) copyConcurrent(ctx context.Context, dst string, files []string) error {
	total := int64(len(files))
	step := total / 20
	if step == 0 {
		step = 1
	}

	var done atomic.Int64
	var reportMu sync.Mutex
	var reported int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers)

	for _, rel := range files {
		rel := rel
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			if err := copyFile(filepath.Join(m.installDir, rel), filepath.Join(dst, rel)); err != nil {
				return err
			}

			n := done.Add(1)
			if n%step == 0 || n == total {
				reportMu.Lock()
				if n > reported {
					reported = n
					m.report(types.StatusBackingUp, float64(n)/float64(total),
						fmt.Sprintf("backed up %d/%d files", n, total))
				}
				reportMu.Unlock()
			}
			return nil
		})
	}

	return g.Wait()
}

// enumerateEligible walks the installation directory and returns the
// relative directory and file paths to back up, skipping anything that
// is, or is nested inside, the temp or backup directories.
func (m *Manager) enumerateEligible() (dirs, files []string, err error) {
	installRoot, err := canonicalPath(m.installDir)
	if err != nil {
		return nil, nil, err
	}
	tempRoot, err := canonicalPath(m.tempDir)
	if err != nil {
		return nil, nil, err
	}
	backupRoot, err := canonicalPath(m.backupDir)
	if err != nil {
		return nil, nil, err
	}

	err = filepath.WalkDir(m.installDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}

		canon, cerr := canonicalPath(path)
		if cerr != nil {
			return cerr
		}
		if canon == installRoot {
			return nil
		}

		if isWithin(canon, tempRoot) || isWithin(canon, backupRoot) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}

		rel, rerr := filepath.Rel(m.installDir, path)
		if rerr != nil {
			return rerr
		}
		if d.IsDir() {
			dirs = append(dirs, rel)
		} else if d.Type().IsRegular() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to enumerate installation directory: %w", err)
	}
	return dirs, files, nil
}

// canonicalPath resolves path to an absolute, symlink-free form so that
// nesting checks compare like with like. Paths that do not exist yet
// resolve against their nearest existing ancestor.
func canonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		return resolved, nil
	}
	// Not created yet: resolve the parent instead.
	if resolved, err := filepath.EvalSymlinks(filepath.Dir(abs)); err == nil {
		return filepath.Join(resolved, filepath.Base(abs)), nil
	}
	return filepath.Clean(abs), nil
}

// isWithin reports whether path is root or a descendant of root.
func isWithin(path, root string) bool {
	if path == root {
		return true
	}
	return strings.HasPrefix(path, root+string(filepath.Separator))
}

// copyFile copies src to dst preserving the source file mode.
func copyFile(src, dst string) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return err
	}

	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, srcInfo.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, f); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to copy %s: %w", src, err)
	}
	return out.Close()
}
