package buildroot

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ScanExternal enumerates the immediate subdirectories of dir, each one an
// external package-definition set, and joins them with ":" as Buildroot's
// BR2_EXTERNAL expects. The result is sorted so repeated invocations see the
// same value regardless of directory iteration order.
func ScanExternal(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("scan packages directory: %w", err)
	}

	var dirs []string
	for _, entry := range entries {
		if entry.IsDir() {
			dirs = append(dirs, filepath.Join(dir, entry.Name()))
		}
	}
	sort.Strings(dirs)

	return strings.Join(dirs, ":"), nil
}
