// Package image post-processes the disk images Buildroot leaves behind:
// raw-to-compressed conversion via qemu-img and checksum manifests.
package image

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"rootforge/internal/logging"
)

const defaultTool = "qemu-img"

// A Converter wraps the external disk-image conversion tool. The conversion
// itself is delegated; this side only checks preconditions and invokes it.
type Converter struct {
	Tool   string
	Logger *slog.Logger

	lookPath func(string) (string, error)
	run      func(ctx context.Context, name string, args ...string) error
}

func NewConverter(logger *slog.Logger) *Converter {
	return &Converter{
		Tool:     defaultTool,
		Logger:   logger,
		lookPath: exec.LookPath,
		run:      runCommand,
	}
}

func (c *Converter) logger() *slog.Logger {
	return logging.Ensure(c.Logger)
}

// Present reports whether the conversion executable resolves on PATH. Its
// absence is not an error: downstream consumers such as simulation profiles
// may not need the compressed image at all.
func (c *Converter) Present() bool {
	_, err := c.lookPath(c.Tool)
	return err == nil
}

// Convert turns the raw block image at raw into a compressed qcow2 next to
// it and returns the compressed path. A missing raw image is treated as a
// precondition failure, not an error: Convert logs and returns "".
func (c *Converter) Convert(ctx context.Context, raw string) (string, error) {
	if _, err := os.Stat(raw); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.logger().Warn("raw image not found, skipping conversion", "image", raw)
			return "", nil
		}
		return "", fmt.Errorf("stat raw image: %w", err)
	}

	compressed := strings.TrimSuffix(raw, filepath.Ext(raw)) + ".qcow2"
	c.logger().Info("converting image", "raw", raw, "compressed", compressed)

	if err := c.run(ctx, c.Tool, "convert", "-c", "-O", "qcow2", raw, compressed); err != nil {
		return "", fmt.Errorf("%s convert: %w", c.Tool, err)
	}
	return compressed, nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
