package config

import (
	"fmt"
	"os"
	"strings"
)

// validHashAlgorithms is the closed set accepted by the verifier.
var validHashAlgorithms = []string{"sha256", "sha512", "md5"}

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for required fields and valid
// values. All problems are reported at once.
func Validate(c *Config) error {
	var errs []string

	if c.URL == "" {
		errs = append(errs, ValidationError{"url", "manifest URL is required"}.Error())
	}
	if c.CurrentVersion == "" {
		errs = append(errs, ValidationError{"current_version", "current version is required"}.Error())
	}

	if c.InstallDir == "" {
		errs = append(errs, ValidationError{"install_dir", "installation directory is required"}.Error())
	} else if info, err := os.Stat(c.InstallDir); err != nil {
		errs = append(errs, ValidationError{"install_dir", fmt.Sprintf("directory does not exist: %s", c.InstallDir)}.Error())
	} else if !info.IsDir() {
		errs = append(errs, ValidationError{"install_dir", fmt.Sprintf("not a directory: %s", c.InstallDir)}.Error())
	}

	if c.NumThreads < 1 {
		errs = append(errs, ValidationError{"num_threads", "must be at least 1"}.Error())
	}

	if !validAlgorithm(c.HashAlgorithm) {
		errs = append(errs, ValidationError{
			"hash_algorithm",
			fmt.Sprintf("invalid algorithm %q (must be one of %s)", c.HashAlgorithm, strings.Join(validHashAlgorithms, ", ")),
		}.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration:\n  %s", strings.Join(errs, "\n  "))
	}
	return nil
}

func validAlgorithm(algorithm string) bool {
	for _, a := range validHashAlgorithms {
		if algorithm == a {
			return true
		}
	}
	return false
}
