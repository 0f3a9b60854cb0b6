package update

import "runtime"

// CurrentPlatform returns the normalized platform name: "windows",
// "linux", or "macos" (darwin reports as macos).
func CurrentPlatform() string {
	if runtime.GOOS == "darwin" {
		return "macos"
	}
	return runtime.GOOS
}

// PlatformSupported reports whether the named platform can run the
// update pipeline. An empty name checks the current platform.
func PlatformSupported(name string) bool {
	if name == "" {
		name = CurrentPlatform()
	}
	switch name {
	case "windows", "linux", "macos":
		return true
	}
	return false
}
