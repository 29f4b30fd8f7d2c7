package settings

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	t.Parallel()

	s, err := Load(filepath.Join(t.TempDir(), "rootforge.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if s.Jobs != runtime.NumCPU() {
		t.Fatalf("Jobs = %d, want CPU count %d", s.Jobs, runtime.NumCPU())
	}
	if s.Buildroot != "" {
		t.Fatalf("unexpected buildroot default %q", s.Buildroot)
	}
}

func TestLoadParsesSettings(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rootforge.yaml")
	content := `
buildroot: /src/buildroot
board: /src/board
output: /build/output
download: /build/dl
packages: /src/packages
bench_source: /src/bench
jobs: 12
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	s, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if s.Buildroot != "/src/buildroot" || s.Board != "/src/board" {
		t.Fatalf("unexpected paths: %+v", s)
	}
	if s.Jobs != 12 {
		t.Fatalf("Jobs = %d, want 12", s.Jobs)
	}
	if s.BenchSource != "/src/bench" {
		t.Fatalf("BenchSource = %q", s.BenchSource)
	}
}

func TestLoadRejectsMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "rootforge.yaml")
	if err := os.WriteFile(path, []byte("buildroot: [unterminated"), 0o644); err != nil {
		t.Fatalf("write settings: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Fatalf("Load() error = nil, want parse error")
	}
}
