package update

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"

	"github.com/skylith/updater/internal/types"
)

// downloadChunkSize is the fixed write granularity for artifact
// downloads.
const downloadChunkSize = 8 * 1024

// Downloader streams an update artifact to local storage, reporting
// progress at roughly 10% byte boundaries.
//
// Progress fractions require a Content-Length header; for chunked or
// length-less responses the download still works but no intra-stage
// fractions are reported.
type Downloader struct {
	client *http.Client
	report types.ProgressFunc
}

// NewDownloader creates a downloader around the given HTTP client.
func NewDownloader(client *http.Client, report types.ProgressFunc) *Downloader {
	if client == nil {
		client = &http.Client{}
	}
	if report == nil {
		report = types.NopProgress
	}
	return &Downloader{client: client, report: report}
}

// Download streams url to dest, creating parent directories first.
// Transport failures surface as *types.NetworkError; the partial file
// is removed on failure.
func (d *Downloader) Download(ctx context.Context, url, dest string) error {
	d.report(types.StatusDownloading, 0, fmt.Sprintf("downloading %s", url))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return &types.UpdaterError{Message: "invalid download URL", Err: err}
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return &types.NetworkError{Op: "download", URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &types.NetworkError{
			Op:  "download",
			URL: url,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("failed to create download directory: %w", err)
	}

	out, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("failed to create download file: %w", err)
	}

	total := resp.ContentLength
	if total <= 0 {
		log.Debugf("no Content-Length for %s, skipping download progress", url)
	}

	written, copyErr := d.copyChunks(ctx, out, resp.Body, total)
	closeErr := out.Close()

	if copyErr != nil {
		_ = os.Remove(dest)
		return copyErr
	}
	if closeErr != nil {
		_ = os.Remove(dest)
		return fmt.Errorf("failed to finalize download file: %w", closeErr)
	}

	d.report(types.StatusDownloading, 1, fmt.Sprintf("downloaded %d bytes to %s", written, dest))
	return nil
}

// copyChunks copies body to out in fixed-size chunks, reporting every
// ~10% of total bytes when the total is known.
func (d *Downloader) copyChunks(ctx context.Context, out io.Writer, body io.Reader, total int64) (int64, error) {
	buf := make([]byte, downloadChunkSize)

	var written int64
	var nextReport int64
	if total > 0 {
		nextReport = total / 10
	}

	for {
		if err := ctx.Err(); err != nil {
			return written, &types.NetworkError{Op: "download", Err: err}
		}

		n, readErr := body.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return written, fmt.Errorf("failed to write download chunk: %w", err)
			}
			written += int64(n)

			if total > 0 && written >= nextReport {
				frac := float64(written) / float64(total)
				d.report(types.StatusDownloading, frac,
					fmt.Sprintf("downloaded %d/%d bytes", written, total))
				nextReport += total / 10
			}
		}

		if readErr != nil {
			if errors.Is(readErr, io.EOF) {
				return written, nil
			}
			return written, &types.NetworkError{Op: "download", Err: readErr}
		}
	}
}
