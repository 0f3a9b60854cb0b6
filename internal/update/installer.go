package update

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/skylith/updater/internal/types"
)

// Installer copies staged files over the installation directory,
// invokes the optional post-install hook, and appends the update
// history record.
type Installer struct {
	installDir  string
	info        *UpdateInfo
	postInstall func(ctx context.Context) error
	report      types.ProgressFunc
}

// NewInstaller creates an installer for one update run. info supplies
// the versions recorded in the history file; postInstall may be nil.
func NewInstaller(installDir string, info *UpdateInfo, postInstall func(ctx context.Context) error, report types.ProgressFunc) *Installer {
	if report == nil {
		report = types.NopProgress
	}
	return &Installer{
		installDir:  installDir,
		info:        info,
		postInstall: postInstall,
		report:      report,
	}
}

// Install copies everything under stagingDir into the installation
// directory, creating directories first and overwriting existing files.
// Copy failures surface as *types.InstallationError; a failure to write
// the history record is logged and never propagated.
func (in *Installer) Install(ctx context.Context, stagingDir string) error {
	dirs, files, err := enumerateTree(stagingDir)
	if err != nil {
		return &types.InstallationError{Stage: "install", Err: err}
	}

	in.report(types.StatusInstalling, 0, fmt.Sprintf("installing %d files", len(files)))

	for _, rel := range dirs {
		if err := os.MkdirAll(filepath.Join(in.installDir, rel), 0o755); err != nil {
			return &types.InstallationError{Stage: "install", Err: err}
		}
	}

	total := len(files)
	step := total / 10
	if step == 0 {
		step = 1
	}

	for i, rel := range files {
		if err := ctx.Err(); err != nil {
			return &types.InstallationError{Stage: "install", Err: err}
		}

		src := filepath.Join(stagingDir, rel)
		dst := filepath.Join(in.installDir, rel)
		if err := copyFilePreserving(src, dst); err != nil {
			return &types.InstallationError{Stage: "install", Err: err}
		}

		if (i+1)%step == 0 {
			// Scale file progress into [0, 0.9]; the hook and
			// finalization own the rest.
			frac := 0.9 * float64(i+1) / float64(total)
			in.report(types.StatusInstalling, frac,
				fmt.Sprintf("installed %d/%d files", i+1, total))
		}
	}

	if total == 0 {
		in.report(types.StatusInstalling, 0.9, "no files to install")
	}

	if in.postInstall != nil {
		in.report(types.StatusInstalling, 0.9, "running post-install hook")
		if err := in.postInstall(ctx); err != nil {
			return &types.InstallationError{Stage: "install", Err: fmt.Errorf("post-install hook: %w", err)}
		}
	}

	entry := NewLogEntry(in.info.CurrentVersion, in.info.RemoteVersion, in.info.DownloadURL)
	if err := AppendHistory(in.installDir, entry); err != nil {
		log.Warnf("failed to record update history: %v", err)
	}

	in.report(types.StatusInstalling, 1, fmt.Sprintf("installed %d files", total))
	return nil
}

// enumerateTree walks root and returns the relative paths of every
// directory and regular file beneath it, directories excluding root
// itself.
func enumerateTree(root string) (dirs, files []string, err error) {
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			return relErr
		}
		if rel == "." {
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
		return nil, nil, fmt.Errorf("failed to enumerate %s: %w", root, err)
	}
	return dirs, files, nil
}

// copyFilePreserving copies src to dst, carrying over the source mode
// and modification time. Existing destination files are overwritten.
func copyFilePreserving(src, dst string) error {
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
	if err := out.Close(); err != nil {
		return err
	}

	// Refresh permissions in case dst already existed with a
	// different mode, then carry the source mtime over.
	if err := os.Chmod(dst, srcInfo.Mode().Perm()); err != nil {
		return err
	}
	return os.Chtimes(dst, srcInfo.ModTime(), srcInfo.ModTime())
}
