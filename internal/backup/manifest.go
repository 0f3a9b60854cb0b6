package backup

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ManifestFileName is the structured record written into each backup
// directory.
const ManifestFileName = "backup_manifest.json"

// Manifest describes which version and timestamp a backup corresponds
// to. It is read back best-effort during rollback.
type Manifest struct {
	Timestamp  string `json:"timestamp"`
	Version    string `json:"version"`
	BackupPath string `json:"backup_path"`
}

// WriteManifest persists m into dir.
func WriteManifest(dir string, m Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal backup manifest: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, ManifestFileName), data, 0o644); err != nil {
		return fmt.Errorf("failed to write backup manifest: %w", err)
	}
	return nil
}

// ReadManifest loads the manifest from dir.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFileName))
	if err != nil {
		return nil, fmt.Errorf("failed to read backup manifest: %w", err)
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse backup manifest: %w", err)
	}
	return &m, nil
}
