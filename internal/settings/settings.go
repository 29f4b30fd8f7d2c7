// Package settings loads the durable per-host configuration for rootforge.
package settings

import (
	"errors"
	"fmt"
	"os"
	"runtime"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where Load looks when no --settings flag is given.
const DefaultPath = "rootforge.yaml"

// Settings are the per-host paths and defaults read from the settings file.
// Any CLI flag overrides the corresponding value here.
type Settings struct {
	Buildroot   string `yaml:"buildroot"`    // Buildroot source tree
	Board       string `yaml:"board"`        // auxiliary file root
	Output      string `yaml:"output"`       // build output directory
	Download    string `yaml:"download"`     // shared download cache
	Packages    string `yaml:"packages"`     // external package sets
	Overlay     string `yaml:"overlay"`      // rootfs overlay directory
	BenchSource string `yaml:"bench_source"` // benchmark source directory
	Jobs        int    `yaml:"jobs"`         // 0 selects the CPU count
}

// Load reads the settings file at path. A missing file is not an error; it
// yields the built-in defaults so the CLI flags alone can drive a build.
func Load(path string) (Settings, error) {
	var s Settings

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return s.withDefaults(), nil
		}
		return s, fmt.Errorf("read settings %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &s); err != nil {
		return s, fmt.Errorf("parse settings %s: %w", path, err)
	}
	return s.withDefaults(), nil
}

func (s Settings) withDefaults() Settings {
	if s.Jobs <= 0 {
		s.Jobs = runtime.NumCPU()
	}
	return s
}
