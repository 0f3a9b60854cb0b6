// Package config handles updater configuration parsing, defaults, and
// validation.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Format represents the file format of a configuration file.
type Format int

const (
	FormatUnknown Format = iota
	FormatTOML
	FormatYAML
	FormatJSON
)

// HookCommands are optional shell commands run at fixed pipeline
// points. The CLI layer turns them into typed hook callbacks.
type HookCommands struct {
	PostDownload string `toml:"post_download" yaml:"post_download" json:"post_download,omitempty"`
	PostInstall  string `toml:"post_install" yaml:"post_install" json:"post_install,omitempty"`
}

// Config is the validated updater configuration. The manifest URL,
// installation directory, and current version are required; everything
// else has defaults applied by Load.
type Config struct {
	URL            string       `toml:"url" yaml:"url" json:"url"`
	InstallDir     string       `toml:"install_dir" yaml:"install_dir" json:"install_dir"`
	CurrentVersion string       `toml:"current_version" yaml:"current_version" json:"current_version"`
	NumThreads     int          `toml:"num_threads" yaml:"num_threads" json:"num_threads,omitempty"`
	VerifyHash     bool         `toml:"verify_hash" yaml:"verify_hash" json:"verify_hash"`
	HashAlgorithm  string       `toml:"hash_algorithm" yaml:"hash_algorithm" json:"hash_algorithm,omitempty"`
	TempDir        string       `toml:"temp_dir" yaml:"temp_dir" json:"temp_dir,omitempty"`
	BackupDir      string       `toml:"backup_dir" yaml:"backup_dir" json:"backup_dir,omitempty"`
	Hooks          HookCommands `toml:"hooks" yaml:"hooks" json:"hooks,omitempty"`
}

// rawConfig is the parse-time representation; pointers distinguish
// "absent" from zero values so defaults apply correctly.
type rawConfig struct {
	URL            string       `toml:"url" yaml:"url" json:"url"`
	InstallDir     string       `toml:"install_dir" yaml:"install_dir" json:"install_dir"`
	CurrentVersion string       `toml:"current_version" yaml:"current_version" json:"current_version"`
	NumThreads     *int         `toml:"num_threads" yaml:"num_threads" json:"num_threads"`
	VerifyHash     *bool        `toml:"verify_hash" yaml:"verify_hash" json:"verify_hash"`
	HashAlgorithm  string       `toml:"hash_algorithm" yaml:"hash_algorithm" json:"hash_algorithm"`
	TempDir        string       `toml:"temp_dir" yaml:"temp_dir" json:"temp_dir"`
	BackupDir      string       `toml:"backup_dir" yaml:"backup_dir" json:"backup_dir"`
	Hooks          HookCommands `toml:"hooks" yaml:"hooks" json:"hooks"`
}

// Defaults applied when the configuration omits optional fields.
const (
	DefaultNumThreads    = 4
	DefaultHashAlgorithm = "sha256"
)

// Load reads, parses, defaults, and validates the configuration at
// path. The format is detected from the extension, falling back to
// content sniffing for extensionless files.
func Load(path string) (*Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var raw rawConfig
	switch detectFormat(path, content) {
	case FormatTOML:
		if err := toml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case FormatYAML:
		if err := yaml.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse YAML config: %w", err)
		}
	case FormatJSON:
		if err := json.Unmarshal(content, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unable to detect config format for %s", path)
	}

	cfg := raw.withDefaults()
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// withDefaults converts the raw form into a Config with defaults
// filled in.
func (r *rawConfig) withDefaults() *Config {
	cfg := &Config{
		URL:            r.URL,
		InstallDir:     r.InstallDir,
		CurrentVersion: r.CurrentVersion,
		NumThreads:     DefaultNumThreads,
		VerifyHash:     true,
		HashAlgorithm:  r.HashAlgorithm,
		TempDir:        r.TempDir,
		BackupDir:      r.BackupDir,
		Hooks:          r.Hooks,
	}
	if r.NumThreads != nil {
		cfg.NumThreads = *r.NumThreads
	}
	if r.VerifyHash != nil {
		cfg.VerifyHash = *r.VerifyHash
	}
	if cfg.HashAlgorithm == "" {
		cfg.HashAlgorithm = DefaultHashAlgorithm
	}
	if cfg.TempDir == "" && cfg.InstallDir != "" {
		cfg.TempDir = filepath.Join(cfg.InstallDir, "temp")
	}
	if cfg.BackupDir == "" && cfg.InstallDir != "" {
		cfg.BackupDir = filepath.Join(cfg.InstallDir, "backup")
	}
	return cfg
}

// EnsureDirs creates the temp and backup directories if absent.
func (c *Config) EnsureDirs() error {
	for _, dir := range []string{c.TempDir, c.BackupDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// detectFormat determines the file format based on extension or content.
func detectFormat(path string, content []byte) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".yaml", ".yml":
		return FormatYAML
	case ".json":
		return FormatJSON
	}
	return sniffFormat(content)
}

// sniffFormat attempts to detect format from content.
func sniffFormat(content []byte) Format {
	trimmed := strings.TrimSpace(string(content))

	if strings.HasPrefix(trimmed, "{") {
		return FormatJSON
	}

	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, " = ") || strings.HasPrefix(line, "[") {
			return FormatTOML
		}
		if strings.Contains(line, ":") {
			return FormatYAML
		}
	}
	return FormatUnknown
}
