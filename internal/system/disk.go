// Package system provides host resource checks used by the pipeline's
// preflight stage.
package system

import (
	"fmt"

	"github.com/shirou/gopsutil/v3/disk"

	"github.com/skylith/updater/internal/types"
)

// CheckFreeSpace verifies that the filesystem holding path has at least
// required bytes free. A zero requirement always passes.
func CheckFreeSpace(path string, required uint64) error {
	if required == 0 {
		return nil
	}

	usage, err := disk.Usage(path)
	if err != nil {
		return fmt.Errorf("failed to check disk usage of %s: %w", path, err)
	}

	if usage.Free < required {
		return &types.UpdaterError{
			Message: fmt.Sprintf("insufficient disk space in %s: need %d bytes, %d free",
				path, required, usage.Free),
		}
	}
	return nil
}
