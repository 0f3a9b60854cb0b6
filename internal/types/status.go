// Package types provides the shared status machine, progress contract,
// and error taxonomy used by every stage of the update pipeline.
//
// Keeping these in one leaf package lets internal/update and
// internal/backup share them without an import cycle.
package types

// Status identifies the pipeline stage currently reporting progress.
//
// The machine runs Idle → Checking → {UpToDate | UpdateAvailable} →
// Downloading → Verifying → BackingUp → Extracting → Installing →
// Finalizing → Complete. Any active status may transition to Failed;
// a Failed run with a usable backup attempts RolledBack.
type Status string

const (
	StatusIdle            Status = "idle"
	StatusChecking        Status = "checking"
	StatusUpToDate        Status = "up_to_date"
	StatusUpdateAvailable Status = "update_available"
	StatusDownloading     Status = "downloading"
	StatusVerifying       Status = "verifying"
	StatusBackingUp       Status = "backing_up"
	StatusExtracting      Status = "extracting"
	StatusInstalling      Status = "installing"
	StatusFinalizing      Status = "finalizing"
	StatusComplete        Status = "complete"
	StatusFailed          Status = "failed"
	StatusRolledBack      Status = "rolled_back"
)

// Terminal reports whether no further transitions can follow s.
func (s Status) Terminal() bool {
	switch s {
	case StatusUpToDate, StatusComplete, StatusFailed, StatusRolledBack:
		return true
	}
	return false
}

// ProgressFunc receives every stage transition and intra-stage progress
// tick. It is invoked synchronously from whichever goroutine drives the
// pipeline; fraction is in [0,1].
type ProgressFunc func(status Status, fraction float64, message string)

// NopProgress discards progress reports. Components treat a nil
// callback the same way, but passing this keeps call sites explicit.
func NopProgress(Status, float64, string) {}
