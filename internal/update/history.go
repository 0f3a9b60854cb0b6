package update

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// HistoryFileName is the persistent update history file kept inside the
// installation directory.
const HistoryFileName = "update_history.json"

// LogEntry is one record in the update history.
type LogEntry struct {
	Timestamp   string `json:"timestamp"`
	FromVersion string `json:"from_version"`
	ToVersion   string `json:"to_version"`
	DownloadURL string `json:"download_url"`
}

type historyFile struct {
	Updates []LogEntry `json:"updates"`
}

// NewLogEntry builds a history record for a completed install.
func NewLogEntry(fromVersion, toVersion, downloadURL string) LogEntry {
	return LogEntry{
		Timestamp:   time.Now().Format(time.RFC3339),
		FromVersion: fromVersion,
		ToVersion:   toVersion,
		DownloadURL: downloadURL,
	}
}

// AppendHistory appends entry to the history file in installDir,
// creating the file if absent. An unreadable existing file is replaced
// rather than failing the install.
func AppendHistory(installDir string, entry LogEntry) error {
	path := filepath.Join(installDir, HistoryFileName)

	var hist historyFile
	if data, err := os.ReadFile(path); err == nil {
		// Best-effort: a corrupt history file starts over.
		_ = json.Unmarshal(data, &hist)
	}

	hist.Updates = append(hist.Updates, entry)

	data, err := json.MarshalIndent(hist, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal update history: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write update history: %w", err)
	}
	return nil
}

// ReadHistory returns all history records from installDir, newest last.
// A missing file yields an empty slice.
func ReadHistory(installDir string) ([]LogEntry, error) {
	path := filepath.Join(installDir, HistoryFileName)

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []LogEntry{}, nil
		}
		return nil, fmt.Errorf("failed to read update history: %w", err)
	}

	var hist historyFile
	if err := json.Unmarshal(data, &hist); err != nil {
		return nil, fmt.Errorf("failed to parse update history: %w", err)
	}
	return hist.Updates, nil
}
