package update

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/skylith/updater/internal/types"
)

// buildZip writes a zip archive containing the given name->content
// entries. A name with a trailing slash becomes a directory entry.
func buildZip(t *testing.T, entries map[string]string) string {
	t.Helper()

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	for name, content := range entries {
		if name[len(name)-1] == '/' {
			if _, err := w.Create(name); err != nil {
				t.Fatal(err)
			}
			continue
		}
		f, err := w.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := f.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "artifact.zip")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtract(t *testing.T) {
	archive := buildZip(t, map[string]string{
		"bin/":           "",
		"bin/app":        "#!/bin/sh\necho hi\n",
		"share/doc.txt":  "documentation",
		"share/nested/x": "deep",
	})

	tempDir := t.TempDir()
	e := NewExtractor(tempDir, nil)

	staging, err := e.Extract(context.Background(), archive)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if staging != filepath.Join(tempDir, "extracted") {
		t.Errorf("staging dir = %s", staging)
	}

	for rel, want := range map[string]string{
		"bin/app":        "#!/bin/sh\necho hi\n",
		"share/doc.txt":  "documentation",
		"share/nested/x": "deep",
	} {
		got, err := os.ReadFile(filepath.Join(staging, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("reading %s: %v", rel, err)
		}
		if string(got) != want {
			t.Errorf("%s = %q, want %q", rel, got, want)
		}
	}
}

func TestExtractResetsStaging(t *testing.T) {
	tempDir := t.TempDir()
	staging := filepath.Join(tempDir, "extracted")
	if err := os.MkdirAll(staging, 0o755); err != nil {
		t.Fatal(err)
	}
	stale := filepath.Join(staging, "stale.txt")
	if err := os.WriteFile(stale, []byte("from a previous run"), 0o644); err != nil {
		t.Fatal(err)
	}

	archive := buildZip(t, map[string]string{"fresh.txt": "new"})
	e := NewExtractor(tempDir, nil)
	if _, err := e.Extract(context.Background(), archive); err != nil {
		t.Fatalf("Extract() error = %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Error("stale file from previous extraction survived the reset")
	}
	if _, err := os.Stat(filepath.Join(staging, "fresh.txt")); err != nil {
		t.Errorf("fresh file missing: %v", err)
	}
}

func TestExtractCorruptArchive(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.zip")
	if err := os.WriteFile(path, []byte("this is not a zip file"), 0o644); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor(t.TempDir(), nil)
	_, err := e.Extract(context.Background(), path)

	var instErr *types.InstallationError
	if !errors.As(err, &instErr) {
		t.Fatalf("error = %v, want *types.InstallationError", err)
	}
	if instErr.Stage != "extract" {
		t.Errorf("Stage = %s, want extract", instErr.Stage)
	}
}

func TestExtractRejectsTraversal(t *testing.T) {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create("../escape.txt")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := f.Write([]byte("outside")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	archive := filepath.Join(dir, "evil.zip")
	if err := os.WriteFile(archive, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}

	tempDir := t.TempDir()
	e := NewExtractor(tempDir, nil)
	if _, err := e.Extract(context.Background(), archive); err == nil {
		t.Fatal("Extract() accepted an archive entry escaping the staging directory")
	}
	if _, err := os.Stat(filepath.Join(tempDir, "escape.txt")); !os.IsNotExist(err) {
		t.Error("traversal entry was written outside the staging directory")
	}
}

func TestExtractCancelled(t *testing.T) {
	archive := buildZip(t, map[string]string{"a.txt": "a", "b.txt": "b"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	e := NewExtractor(t.TempDir(), nil)
	_, err := e.Extract(ctx, archive)

	var instErr *types.InstallationError
	if !errors.As(err, &instErr) {
		t.Fatalf("error = %v, want *types.InstallationError", err)
	}
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want wrapped context.Canceled", err)
	}
}
