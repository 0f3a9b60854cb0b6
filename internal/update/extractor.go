package update

import (
	"archive/zip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/skylith/updater/internal/types"
)

// extractedDirName is the staging directory created under the temp
// directory for each extraction.
const extractedDirName = "extracted"

// Extractor unpacks a downloaded artifact into the staging directory.
type Extractor struct {
	tempDir string
	report  types.ProgressFunc
}

// NewExtractor creates an extractor staging into tempDir/extracted.
func NewExtractor(tempDir string, report types.ProgressFunc) *Extractor {
	if report == nil {
		report = types.NopProgress
	}
	return &Extractor{tempDir: tempDir, report: report}
}

// Extract resets the staging directory and unpacks archivePath into it,
// one entry at a time. A corrupt or unreadable archive surfaces as
// *types.InstallationError.
func (e *Extractor) Extract(ctx context.Context, archivePath string) (string, error) {
	stagingDir := filepath.Join(e.tempDir, extractedDirName)

	// Idempotent reset: a missing directory is fine.
	if err := os.RemoveAll(stagingDir); err != nil {
		return "", &types.InstallationError{Stage: "extract", Err: err}
	}
	if err := os.MkdirAll(stagingDir, 0o755); err != nil {
		return "", &types.InstallationError{Stage: "extract", Err: err}
	}

	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return "", &types.InstallationError{Stage: "extract", Err: fmt.Errorf("failed to open archive: %w", err)}
	}
	defer r.Close()

	total := len(r.File)
	e.report(types.StatusExtracting, 0, fmt.Sprintf("extracting %d entries", total))

	step := total / 10
	if step == 0 {
		step = 1
	}

	for i, f := range r.File {
		if err := ctx.Err(); err != nil {
			return "", &types.InstallationError{Stage: "extract", Err: err}
		}

		if err := extractEntry(f, stagingDir); err != nil {
			return "", &types.InstallationError{Stage: "extract", Err: err}
		}

		if (i+1)%step == 0 {
			frac := float64(i+1) / float64(total)
			e.report(types.StatusExtracting, frac,
				fmt.Sprintf("extracted %d/%d entries", i+1, total))
		}
	}

	e.report(types.StatusExtracting, 1, fmt.Sprintf("extraction complete: %s", stagingDir))
	return stagingDir, nil
}

// extractEntry writes a single archive entry under destDir, rejecting
// entries whose names escape the staging directory.
func extractEntry(f *zip.File, destDir string) error {
	name := filepath.FromSlash(f.Name)
	if filepath.IsAbs(name) || strings.Contains(name, ".."+string(filepath.Separator)) || name == ".." {
		return fmt.Errorf("archive entry %q escapes staging directory", f.Name)
	}

	target := filepath.Join(destDir, name)

	if f.FileInfo().IsDir() {
		return os.MkdirAll(target, f.Mode().Perm()|0o700)
	}

	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}

	rc, err := f.Open()
	if err != nil {
		return fmt.Errorf("failed to read archive entry %q: %w", f.Name, err)
	}
	defer rc.Close()

	mode := f.Mode().Perm()
	if mode == 0 {
		mode = 0o644
	}

	out, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, rc); err != nil {
		_ = out.Close()
		return fmt.Errorf("failed to extract %q: %w", f.Name, err)
	}
	return out.Close()
}
