package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadTOMLWithDefaults(t *testing.T) {
	installDir := t.TempDir()
	path := writeConfig(t, "updater.toml", fmt.Sprintf(`
url = "https://updates.example.com/manifest.json"
install_dir = %q
current_version = "1.0.0"
`, installDir))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.NumThreads != DefaultNumThreads {
		t.Errorf("NumThreads = %d, want %d", cfg.NumThreads, DefaultNumThreads)
	}
	if !cfg.VerifyHash {
		t.Error("VerifyHash = false, want true by default")
	}
	if cfg.HashAlgorithm != DefaultHashAlgorithm {
		t.Errorf("HashAlgorithm = %s, want %s", cfg.HashAlgorithm, DefaultHashAlgorithm)
	}
	if cfg.TempDir != filepath.Join(installDir, "temp") {
		t.Errorf("TempDir = %s", cfg.TempDir)
	}
	if cfg.BackupDir != filepath.Join(installDir, "backup") {
		t.Errorf("BackupDir = %s", cfg.BackupDir)
	}
}

func TestLoadYAML(t *testing.T) {
	installDir := t.TempDir()
	path := writeConfig(t, "updater.yaml", fmt.Sprintf(`
url: https://updates.example.com/manifest.json
install_dir: %s
current_version: 1.0.0
num_threads: 8
verify_hash: false
hash_algorithm: sha512
hooks:
  post_install: systemctl restart app
`, installDir))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.NumThreads != 8 {
		t.Errorf("NumThreads = %d, want 8", cfg.NumThreads)
	}
	if cfg.VerifyHash {
		t.Error("VerifyHash = true, want explicit false to survive defaulting")
	}
	if cfg.HashAlgorithm != "sha512" {
		t.Errorf("HashAlgorithm = %s", cfg.HashAlgorithm)
	}
	if cfg.Hooks.PostInstall != "systemctl restart app" {
		t.Errorf("Hooks.PostInstall = %q", cfg.Hooks.PostInstall)
	}
}

func TestLoadJSON(t *testing.T) {
	installDir := t.TempDir()
	path := writeConfig(t, "updater.json", fmt.Sprintf(`{
  "url": "https://updates.example.com/manifest.json",
  "install_dir": %q,
  "current_version": "1.0.0",
  "temp_dir": "/var/cache/updater"
}`, installDir))

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.TempDir != "/var/cache/updater" {
		t.Errorf("TempDir = %s, explicit value must win over the default", cfg.TempDir)
	}
	if cfg.BackupDir != filepath.Join(installDir, "backup") {
		t.Errorf("BackupDir = %s", cfg.BackupDir)
	}
}

func TestLoadSniffsExtensionlessFiles(t *testing.T) {
	installDir := t.TempDir()

	tests := []struct {
		name    string
		content string
	}{
		{"toml", fmt.Sprintf("url = \"https://example.com/m.json\"\ninstall_dir = %q\ncurrent_version = \"1.0.0\"\n", installDir)},
		{"yaml", fmt.Sprintf("url: https://example.com/m.json\ninstall_dir: %s\ncurrent_version: 1.0.0\n", installDir)},
		{"json", fmt.Sprintf("{\"url\": \"https://example.com/m.json\", \"install_dir\": %q, \"current_version\": \"1.0.0\"}", installDir)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeConfig(t, "updaterrc", tt.content)
			cfg, err := Load(path)
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.CurrentVersion != "1.0.0" {
				t.Errorf("CurrentVersion = %s", cfg.CurrentVersion)
			}
		})
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "updater.toml", "url = not quoted")
	if _, err := Load(path); err == nil {
		t.Fatal("Load() accepted malformed TOML")
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{
		URL:           "",
		InstallDir:    filepath.Join(os.TempDir(), "does-not-exist-updater-test"),
		NumThreads:    0,
		HashAlgorithm: "crc32",
	}

	err := Validate(cfg)
	if err == nil {
		t.Fatal("Validate() = nil, want errors")
	}
	for _, field := range []string{"url", "current_version", "install_dir", "num_threads", "hash_algorithm"} {
		if !strings.Contains(err.Error(), field) {
			t.Errorf("error does not mention %s: %v", field, err)
		}
	}
}

func TestValidateInstallDirIsFile(t *testing.T) {
	file := writeConfig(t, "not-a-dir", "contents")
	cfg := &Config{
		URL:            "https://example.com/m.json",
		CurrentVersion: "1.0.0",
		InstallDir:     file,
		NumThreads:     1,
		HashAlgorithm:  "sha256",
	}
	err := Validate(cfg)
	if err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("Validate() = %v, want not-a-directory error", err)
	}
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{
		TempDir:   filepath.Join(root, "temp"),
		BackupDir: filepath.Join(root, "backup", "nested"),
	}
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatal(err)
	}
	for _, dir := range []string{cfg.TempDir, cfg.BackupDir} {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() {
			t.Errorf("%s not created: %v", dir, err)
		}
	}
}
