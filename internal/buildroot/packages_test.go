package buildroot

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestScanExternalSortsDirectories(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{"b", "a", "c"} {
		if err := os.Mkdir(filepath.Join(dir, name), 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", name, err)
		}
	}
	// Plain files are not package sets and must be ignored.
	if err := os.WriteFile(filepath.Join(dir, "README"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	list, err := ScanExternal(dir)
	if err != nil {
		t.Fatalf("ScanExternal() error = %v", err)
	}

	want := strings.Join([]string{
		filepath.Join(dir, "a"),
		filepath.Join(dir, "b"),
		filepath.Join(dir, "c"),
	}, ":")
	if list != want {
		t.Fatalf("ScanExternal() = %q, want %q", list, want)
	}
}

func TestScanExternalEmptyDirectory(t *testing.T) {
	t.Parallel()

	list, err := ScanExternal(t.TempDir())
	if err != nil {
		t.Fatalf("ScanExternal() error = %v", err)
	}
	if list != "" {
		t.Fatalf("ScanExternal() = %q, want empty", list)
	}
}

func TestScanExternalMissingDirectory(t *testing.T) {
	t.Parallel()

	if _, err := ScanExternal(filepath.Join(t.TempDir(), "missing")); err == nil {
		t.Fatalf("expected error for missing directory")
	}
}
