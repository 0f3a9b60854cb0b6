package update

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/skylith/updater/internal/types"
)

func TestCheckerUpToDate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version": "1.0.0"}`))
	}))
	defer server.Close()

	var lastStatus types.Status
	checker := NewChecker(nil, server.URL, "1.0.0", func(s types.Status, f float64, m string) {
		lastStatus = s
	})

	available, info, err := checker.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if available {
		t.Error("Check() = true, want false for equal versions")
	}
	if info == nil || info.RemoteVersion != "1.0.0" {
		t.Errorf("info = %+v, want remote version 1.0.0", info)
	}
	if lastStatus != types.StatusUpToDate {
		t.Errorf("last status = %s, want %s", lastStatus, types.StatusUpToDate)
	}
}

func TestCheckerUpdateAvailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"version": "2.0.0",
			"download_url": "http://example.com/update.zip",
			"file_hash": "abc123",
			"release_notes": "bug fixes"
		}`))
	}))
	defer server.Close()

	checker := NewChecker(nil, server.URL, "1.0.0", nil)

	available, info, err := checker.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if !available {
		t.Error("Check() = false, want true")
	}
	if info.DownloadURL != "http://example.com/update.zip" {
		t.Errorf("DownloadURL = %s", info.DownloadURL)
	}
	if info.FileHash != "abc123" {
		t.Errorf("FileHash = %s", info.FileHash)
	}
}

func TestCheckerRemoteOlder(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"version": "0.9.0"}`))
	}))
	defer server.Close()

	checker := NewChecker(nil, server.URL, "1.0.0", nil)

	available, _, err := checker.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v", err)
	}
	if available {
		t.Error("Check() = true for an older remote version, want false")
	}
}

func TestCheckerMissingVersionField(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"download_url": "http://example.com/update.zip"}`))
	}))
	defer server.Close()

	checker := NewChecker(nil, server.URL, "1.0.0", nil)

	available, info, err := checker.Check(context.Background())
	if err != nil {
		t.Errorf("Check() error = %v, missing version must not be an error", err)
	}
	if available || info != nil {
		t.Errorf("Check() = (%v, %+v), want (false, nil)", available, info)
	}
}

func TestCheckerMalformedManifest(t *testing.T) {
	attempts := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		_, _ = w.Write([]byte(`{not json`))
	}))
	defer server.Close()

	checker := NewChecker(nil, server.URL, "1.0.0", nil)

	_, _, err := checker.Check(context.Background())
	var updErr *types.UpdaterError
	if !errors.As(err, &updErr) {
		t.Fatalf("Check() error = %v, want *types.UpdaterError", err)
	}
	if n := atomic.LoadInt32(&attempts); n != 1 {
		t.Errorf("attempts = %d, malformed manifest must not be retried", n)
	}
}

func TestCheckerRetriesTransportFailures(t *testing.T) {
	if testing.Short() {
		t.Skip("retry delays are wall-clock seconds")
	}

	attempts := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte(`{"version": "2.0.0", "download_url": "u"}`))
	}))
	defer server.Close()

	checker := NewChecker(nil, server.URL, "1.0.0", nil)

	available, _, err := checker.Check(context.Background())
	if err != nil {
		t.Fatalf("Check() error = %v, want success on third attempt", err)
	}
	if !available {
		t.Error("Check() = false, want true")
	}
	if n := atomic.LoadInt32(&attempts); n != 3 {
		t.Errorf("attempts = %d, want 3", n)
	}
}

func TestCheckerExhaustedRetries(t *testing.T) {
	if testing.Short() {
		t.Skip("retry delays are wall-clock seconds")
	}

	attempts := int32(0)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&attempts, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	checker := NewChecker(nil, server.URL, "1.0.0", nil)

	_, _, err := checker.Check(context.Background())
	var netErr *types.NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("Check() error = %v, want *types.NetworkError", err)
	}
	if n := atomic.LoadInt32(&attempts); n != 3 {
		t.Errorf("attempts = %d, want 3 total attempts", n)
	}
}

func TestLinearBackOff(t *testing.T) {
	b := newLinearBackOff()
	if got := b.NextBackOff(); got.Seconds() != 1 {
		t.Errorf("first delay = %v, want 1s", got)
	}
	if got := b.NextBackOff(); got.Seconds() != 2 {
		t.Errorf("second delay = %v, want 2s", got)
	}
	b.Reset()
	if got := b.NextBackOff(); got.Seconds() != 1 {
		t.Errorf("delay after Reset = %v, want 1s", got)
	}
}
