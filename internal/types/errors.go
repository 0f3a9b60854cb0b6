package types

import "fmt"

// NetworkError indicates a transport failure while fetching the
// manifest or downloading an artifact.
type NetworkError struct {
	Op  string // "check" or "download"
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	if e.URL != "" {
		return fmt.Sprintf("network error during %s of %s: %v", e.Op, e.URL, e.Err)
	}
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// VerificationError indicates the downloaded artifact's digest did not
// match the digest advertised by the manifest.
type VerificationError struct {
	Path      string
	Algorithm string
	Expected  string
	Actual    string
}

func (e *VerificationError) Error() string {
	return fmt.Sprintf("%s digest mismatch for %s: expected %s, got %s",
		e.Algorithm, e.Path, e.Expected, e.Actual)
}

// InstallationError indicates a failure during backup, extraction,
// installation, or rollback.
type InstallationError struct {
	Stage string // "backup", "extract", "install", "rollback"
	Err   error
}

func (e *InstallationError) Error() string {
	return fmt.Sprintf("%s failed: %v", e.Stage, e.Err)
}

func (e *InstallationError) Unwrap() error { return e.Err }

// UpdaterError is the generic category: malformed manifests, misuse of
// the pipeline, unsupported platforms, failed preflight checks.
type UpdaterError struct {
	Message string
	Err     error
}

func (e *UpdaterError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *UpdaterError) Unwrap() error { return e.Err }
