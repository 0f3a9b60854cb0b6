package update

import (
	"crypto/md5"
	"crypto/sha256"
	"crypto/sha512"
	"encoding/hex"
	"fmt"
	"hash"
	"io"
	"os"
	"strings"

	"github.com/skylith/updater/internal/types"
)

// hashChunkSize is the read granularity for digest computation.
const hashChunkSize = 4 * 1024

// Supported hash algorithm names.
const (
	AlgoSHA256 = "sha256"
	AlgoSHA512 = "sha512"
	AlgoMD5    = "md5"
)

// Verifier computes and compares artifact digests. When verification is
// disabled, or the manifest supplied no expected digest, Verify
// unconditionally succeeds and says so through the progress callback.
type Verifier struct {
	enabled   bool
	algorithm string
	report    types.ProgressFunc
}

// NewVerifier creates a verifier for the given algorithm.
func NewVerifier(enabled bool, algorithm string, report types.ProgressFunc) *Verifier {
	if report == nil {
		report = types.NopProgress
	}
	return &Verifier{enabled: enabled, algorithm: algorithm, report: report}
}

// Verify streams path through the configured digest and compares the
// hex result to expectedHex case-insensitively. A mismatch returns
// false along with a *types.VerificationError carrying both digests.
func (v *Verifier) Verify(path, expectedHex string) (bool, error) {
	if !v.enabled {
		v.report(types.StatusVerifying, 1, "hash verification disabled, skipping")
		return true, nil
	}
	if expectedHex == "" {
		v.report(types.StatusVerifying, 1, "manifest provided no expected hash, skipping verification")
		return true, nil
	}

	v.report(types.StatusVerifying, 0, fmt.Sprintf("verifying %s digest of %s", v.algorithm, path))

	actual, err := ComputeFileHash(path, v.algorithm)
	if err != nil {
		return false, err
	}

	if !strings.EqualFold(actual, expectedHex) {
		return false, &types.VerificationError{
			Path:      path,
			Algorithm: v.algorithm,
			Expected:  strings.ToLower(expectedHex),
			Actual:    actual,
		}
	}

	v.report(types.StatusVerifying, 1, "digest verified")
	return true, nil
}

// ComputeFileHash streams the file at path through the named digest in
// fixed-size chunks and returns the lowercase hex digest.
func ComputeFileHash(path, algorithm string) (string, error) {
	h, err := newHasher(algorithm)
	if err != nil {
		return "", err
	}

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open file for hashing: %w", err)
	}
	defer f.Close()

	if _, err := io.CopyBuffer(h, f, make([]byte, hashChunkSize)); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}

	return hex.EncodeToString(h.Sum(nil)), nil
}

func newHasher(algorithm string) (hash.Hash, error) {
	switch algorithm {
	case AlgoSHA256:
		return sha256.New(), nil
	case AlgoSHA512:
		return sha512.New(), nil
	case AlgoMD5:
		return md5.New(), nil
	default:
		return nil, &types.UpdaterError{Message: fmt.Sprintf("unsupported hash algorithm %q", algorithm)}
	}
}
