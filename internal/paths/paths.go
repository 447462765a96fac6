// Package paths resolves the per-OS directories used by dds proper, so
// toolchain lookups agree with what dds itself would use.
package paths

import (
	"os"
	"path/filepath"
)

// DDSConfigDir returns the directory searched for a default toolchain file.
func DDSConfigDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "dds"), nil
}
