package image

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestConverterPresent(t *testing.T) {
	t.Parallel()

	c := NewConverter(nil)
	c.lookPath = func(string) (string, error) { return "/usr/bin/qemu-img", nil }
	if !c.Present() {
		t.Fatalf("Present() = false, want true")
	}

	c.lookPath = func(string) (string, error) { return "", errors.New("not found") }
	if c.Present() {
		t.Fatalf("Present() = true, want false")
	}
}

func TestConvertBuildsExpectedInvocation(t *testing.T) {
	t.Parallel()

	raw := filepath.Join(t.TempDir(), "rootfs.ext2")
	if err := os.WriteFile(raw, []byte("raw"), 0o644); err != nil {
		t.Fatalf("write raw image: %v", err)
	}

	var gotName string
	var gotArgs []string
	c := NewConverter(nil)
	c.run = func(_ context.Context, name string, args ...string) error {
		gotName = name
		gotArgs = args
		return nil
	}

	compressed, err := c.Convert(context.Background(), raw)
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}

	wantCompressed := filepath.Join(filepath.Dir(raw), "rootfs.qcow2")
	if compressed != wantCompressed {
		t.Fatalf("Convert() = %q, want %q", compressed, wantCompressed)
	}
	if gotName != "qemu-img" {
		t.Fatalf("tool = %q, want qemu-img", gotName)
	}
	wantArgs := []string{"convert", "-c", "-O", "qcow2", raw, wantCompressed}
	if !reflect.DeepEqual(gotArgs, wantArgs) {
		t.Fatalf("args = %v, want %v", gotArgs, wantArgs)
	}
}

func TestConvertSkipsMissingArtifact(t *testing.T) {
	t.Parallel()

	c := NewConverter(nil)
	c.run = func(context.Context, string, ...string) error {
		t.Fatalf("conversion ran without a raw image")
		return nil
	}

	compressed, err := c.Convert(context.Background(), filepath.Join(t.TempDir(), "missing.ext2"))
	if err != nil {
		t.Fatalf("Convert() error = %v", err)
	}
	if compressed != "" {
		t.Fatalf("Convert() = %q, want empty", compressed)
	}
}

func TestConvertSurfacesToolFailure(t *testing.T) {
	t.Parallel()

	raw := filepath.Join(t.TempDir(), "rootfs.ext2")
	if err := os.WriteFile(raw, []byte("raw"), 0o644); err != nil {
		t.Fatalf("write raw image: %v", err)
	}

	c := NewConverter(nil)
	c.run = func(context.Context, string, ...string) error {
		return errors.New("exit status 1")
	}

	if _, err := c.Convert(context.Background(), raw); err == nil {
		t.Fatalf("Convert() error = nil, want error")
	}
}
