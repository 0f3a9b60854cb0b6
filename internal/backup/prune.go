package backup

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// DefaultKeepCount is the default number of backups to retain.
const DefaultKeepCount = 5

// Info summarizes one backup directory for listing.
type Info struct {
	Name      string    `json:"name"`
	Version   string    `json:"version"`
	CreatedAt time.Time `json:"created_at"`
	Path      string    `json:"path"`
}

// PruneResult contains information about what was pruned.
type PruneResult struct {
	Deleted []Info
	Kept    int
}

// List returns all backups under the backup directory, newest first.
// Directories without a readable manifest fall back to parsing the
// timestamp out of the directory name.
func (m *Manager) List() ([]Info, error) {
	entries, err := os.ReadDir(m.backupDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []Info{}, nil
		}
		return nil, fmt.Errorf("failed to read backup directory: %w", err)
	}

	var backups []Info
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), "backup_") {
			continue
		}

		path := filepath.Join(m.backupDir, entry.Name())
		info := Info{Name: entry.Name(), Path: path, Version: "unknown"}

		if manifest, err := ReadManifest(path); err == nil {
			info.Version = manifest.Version
			if ts, err := time.ParseInLocation(timestampLayout, manifest.Timestamp, time.Local); err == nil {
				info.CreatedAt = ts
			}
		}
		if info.CreatedAt.IsZero() {
			if ts, ok := timestampFromName(entry.Name()); ok {
				info.CreatedAt = ts
			}
		}

		backups = append(backups, info)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Prune removes old backups, keeping only the most recent keep entries.
func (m *Manager) Prune(keep int) (*PruneResult, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep count must be non-negative")
	}

	backups, err := m.List()
	if err != nil {
		return nil, err
	}

	result := &PruneResult{}
	if len(backups) <= keep {
		result.Kept = len(backups)
		return result, nil
	}

	result.Kept = keep
	for _, b := range backups[keep:] {
		if err := os.RemoveAll(b.Path); err != nil {
			return nil, fmt.Errorf("failed to delete backup %s: %w", b.Name, err)
		}
		result.Deleted = append(result.Deleted, b)
	}
	return result, nil
}

// timestampFromName recovers the creation time from a
// backup_<version>_<timestamp> directory name.
func timestampFromName(name string) (time.Time, bool) {
	parts := strings.Split(name, "_")
	if len(parts) < 3 {
		return time.Time{}, false
	}
	raw := parts[len(parts)-2] + "_" + parts[len(parts)-1]
	ts, err := time.ParseInLocation(timestampLayout, raw, time.Local)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}
