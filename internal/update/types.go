package update

import (
	"context"
	"fmt"
	"strings"
)

// Manifest is the wire format of the remote update manifest.
type Manifest struct {
	Version      string `json:"version"`
	DownloadURL  string `json:"download_url"`
	FileHash     string `json:"file_hash,omitempty"`
	FileSize     int64  `json:"file_size,omitempty"`
	ReleaseNotes string `json:"release_notes,omitempty"`
	ReleaseDate  string `json:"release_date,omitempty"`
}

// UpdateInfo describes an available update. It is populated once by the
// checker and consumed read-only by the later stages.
type UpdateInfo struct {
	CurrentVersion string `json:"current_version"`
	RemoteVersion  string `json:"remote_version"`
	Available      bool   `json:"available"`
	DownloadURL    string `json:"download_url"`
	FileHash       string `json:"file_hash,omitempty"`
	FileSize       int64  `json:"file_size,omitempty"`
	ReleaseNotes   string `json:"release_notes,omitempty"`
	ReleaseDate    string `json:"release_date,omitempty"`
}

func (i *UpdateInfo) String() string {
	var b strings.Builder
	if i.Available {
		fmt.Fprintf(&b, "Update available: %s -> %s\n", i.CurrentVersion, i.RemoteVersion)
		fmt.Fprintf(&b, "  download: %s\n", i.DownloadURL)
		if i.FileSize > 0 {
			fmt.Fprintf(&b, "  size:     %d bytes\n", i.FileSize)
		}
		if i.ReleaseDate != "" {
			fmt.Fprintf(&b, "  released: %s\n", i.ReleaseDate)
		}
		if i.ReleaseNotes != "" {
			fmt.Fprintf(&b, "  notes:    %s\n", i.ReleaseNotes)
		}
	} else {
		fmt.Fprintf(&b, "Already up to date (current %s, remote %s)\n", i.CurrentVersion, i.RemoteVersion)
	}
	return strings.TrimRight(b.String(), "\n")
}

// Hooks carries the optional callbacks invoked at fixed points in the
// pipeline. Nil fields are skipped.
type Hooks struct {
	// PostDownload runs after the artifact has been downloaded and
	// verified, before the backup stage.
	PostDownload func(ctx context.Context) error
	// PostInstall runs once at ~90% of the install stage, before the
	// update history record is written.
	PostInstall func(ctx context.Context) error
}
