package update

import (
	"runtime"
	"testing"
)

func TestCurrentPlatform(t *testing.T) {
	got := CurrentPlatform()
	if runtime.GOOS == "darwin" {
		if got != "macos" {
			t.Errorf("CurrentPlatform() = %s, want macos", got)
		}
		return
	}
	if got != runtime.GOOS {
		t.Errorf("CurrentPlatform() = %s, want %s", got, runtime.GOOS)
	}
}

func TestPlatformSupported(t *testing.T) {
	tests := []struct {
		name string
		want bool
	}{
		{"linux", true},
		{"macos", true},
		{"windows", true},
		{"darwin", false},
		{"plan9", false},
		{"freebsd", false},
	}
	for _, tt := range tests {
		if got := PlatformSupported(tt.name); got != tt.want {
			t.Errorf("PlatformSupported(%q) = %v, want %v", tt.name, got, tt.want)
		}
	}
}
