package update

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	log "github.com/sirupsen/logrus"

	"github.com/skylith/updater/internal/types"
)

const (
	// checkTimeout bounds each manifest request attempt.
	checkTimeout = 30 * time.Second
	// checkAttempts is the total number of manifest fetch attempts.
	checkAttempts = 3
)

// Checker fetches the remote manifest and decides whether a newer
// version exists.
type Checker struct {
	client         *http.Client
	manifestURL    string
	currentVersion string
	report         types.ProgressFunc
}

// NewChecker creates a checker. A nil client gets a default one with a
// 30-second timeout; a nil report discards progress.
func NewChecker(client *http.Client, manifestURL, currentVersion string, report types.ProgressFunc) *Checker {
	if client == nil {
		client = &http.Client{Timeout: checkTimeout}
	}
	if report == nil {
		report = types.NopProgress
	}
	return &Checker{
		client:         client,
		manifestURL:    manifestURL,
		currentVersion: currentVersion,
		report:         report,
	}
}

// Check fetches the manifest and compares versions. A manifest without
// a version field is logged and treated as "no update", not an error.
func (c *Checker) Check(ctx context.Context) (bool, *UpdateInfo, error) {
	c.report(types.StatusChecking, 0, "checking for updates")

	manifest, err := c.fetchManifest(ctx)
	if err != nil {
		return false, nil, err
	}

	if manifest.Version == "" {
		log.Warnf("manifest at %s has no version field, treating as no update", c.manifestURL)
		c.report(types.StatusUpToDate, 1, "manifest has no version information")
		return false, nil, nil
	}

	info := &UpdateInfo{
		CurrentVersion: c.currentVersion,
		RemoteVersion:  manifest.Version,
		DownloadURL:    manifest.DownloadURL,
		FileHash:       manifest.FileHash,
		FileSize:       manifest.FileSize,
		ReleaseNotes:   manifest.ReleaseNotes,
		ReleaseDate:    manifest.ReleaseDate,
	}
	info.Available = CompareVersions(c.currentVersion, manifest.Version) < 0

	if info.Available {
		c.report(types.StatusUpdateAvailable, 1,
			fmt.Sprintf("update available: %s -> %s", c.currentVersion, manifest.Version))
	} else {
		c.report(types.StatusUpToDate, 1,
			fmt.Sprintf("already up to date (current %s, remote %s)", c.currentVersion, manifest.Version))
	}

	return info.Available, info, nil
}

// fetchManifest GETs and decodes the manifest, retrying transport
// failures up to checkAttempts times with a linearly increasing delay.
func (c *Checker) fetchManifest(ctx context.Context) (*Manifest, error) {
	var manifest *Manifest

	attempt := 0
	operation := func() error {
		attempt++
		m, err := c.fetchOnce(ctx)
		if err != nil {
			log.Debugf("manifest fetch attempt %d/%d failed: %v", attempt, checkAttempts, err)
			return err
		}
		manifest = m
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(newLinearBackOff(), checkAttempts-1), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return manifest, nil
}

func (c *Checker) fetchOnce(ctx context.Context) (*Manifest, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.manifestURL, nil)
	if err != nil {
		return nil, backoff.Permanent(&types.UpdaterError{Message: "invalid manifest URL", Err: err})
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, &types.NetworkError{Op: "check", URL: c.manifestURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &types.NetworkError{
			Op:  "check",
			URL: c.manifestURL,
			Err: fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &types.NetworkError{Op: "check", URL: c.manifestURL, Err: err}
	}

	var manifest Manifest
	if err := json.Unmarshal(body, &manifest); err != nil {
		// A malformed document will not get better on retry.
		return nil, backoff.Permanent(&types.UpdaterError{Message: "malformed update manifest", Err: err})
	}

	return &manifest, nil
}

// linearBackOff waits attempt+1 seconds before each retry: 1s before
// the second attempt, 2s before the third.
type linearBackOff struct {
	attempt int
}

func newLinearBackOff() *linearBackOff { return &linearBackOff{} }

func (b *linearBackOff) NextBackOff() time.Duration {
	b.attempt++
	return time.Duration(b.attempt) * time.Second
}

func (b *linearBackOff) Reset() { b.attempt = 0 }
