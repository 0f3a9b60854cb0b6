package backup

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/skylith/updater/internal/types"
)

// Rollback restores a prior backup over the installation directory.
// A missing backup directory is an error; a backup containing no files
// besides the manifest reports failure without an error. The restored
// file count determines progress, reported roughly every total/10.
func (m *Manager) Rollback(ctx context.Context, backupDir string) (bool, error) {
	if _, err := os.Stat(backupDir); err != nil {
		return false, &types.InstallationError{
			Stage: "rollback",
			Err:   fmt.Errorf("backup directory not found: %s", backupDir),
		}
	}

	version := "unknown"
	if manifest, err := ReadManifest(backupDir); err == nil && manifest.Version != "" {
		version = manifest.Version
	} else if err != nil {
		log.Warnf("backup manifest unreadable, continuing: %v", err)
	}

	m.report(types.StatusFailed, 0, fmt.Sprintf("rolling back to version %s from %s", version, backupDir))

	dirs, files, err := enumerateBackup(backupDir)
	if err != nil {
		return false, &types.InstallationError{Stage: "rollback", Err: err}
	}

	if len(files) == 0 {
		m.report(types.StatusFailed, 0, "no files found in backup")
		return false, nil
	}

	for _, rel := range dirs {
		if err := os.MkdirAll(filepath.Join(m.installDir, rel), 0o755); err != nil {
			return false, &types.InstallationError{Stage: "rollback", Err: err}
		}
	}

	total := len(files)
	step := total / 10
	if step == 0 {
		step = 1
	}

	for i, rel := range files {
		if err := ctx.Err(); err != nil {
			return false, &types.InstallationError{Stage: "rollback", Err: err}
		}

		src := filepath.Join(backupDir, rel)
		dst := filepath.Join(m.installDir, rel)
		if err := copyFile(src, dst); err != nil {
			return false, &types.InstallationError{Stage: "rollback", Err: err}
		}

		if (i+1)%step == 0 {
			m.report(types.StatusRolledBack, float64(i+1)/float64(total),
				fmt.Sprintf("restored %d/%d files", i+1, total))
		}
	}

	m.report(types.StatusRolledBack, 1,
		fmt.Sprintf("rollback to version %s complete: %d files restored", version, total))
	return true, nil
}

// enumerateBackup lists the backup's directories and files, excluding
// the manifest itself.
func enumerateBackup(backupDir string) (dirs, files []string, err error) {
	err = filepath.WalkDir(backupDir, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, rerr := filepath.Rel(backupDir, path)
		if rerr != nil {
			return rerr
		}
		if rel == "." || rel == ManifestFileName {
			return nil
		}
		if d.IsDir() {
			dirs = append(dirs, rel)
		} else if d.Type().IsRegular() {
			files = append(files, rel)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to enumerate backup: %w", err)
	}
	return dirs, files, nil
}
