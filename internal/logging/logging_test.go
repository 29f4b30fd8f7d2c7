package logging

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
)

func TestNewSelectsHandlerByMode(t *testing.T) {
	t.Parallel()

	var cli bytes.Buffer
	New(ModeCLI, &cli, nil).Info("build started", "arch", "arm")
	out := cli.String()
	if !strings.Contains(out, "INFO") || !strings.Contains(out, "| build started") {
		t.Fatalf("unexpected CLI record: %q", out)
	}
	if !strings.Contains(out, "arch=arm") {
		t.Fatalf("missing attribute in CLI record: %q", out)
	}

	var structured bytes.Buffer
	New(ModeJSON, &structured, nil).Info("build started", "arch", "arm")

	var record map[string]any
	if err := json.Unmarshal(structured.Bytes(), &record); err != nil {
		t.Fatalf("JSON record does not parse: %v\n%s", err, structured.String())
	}
	if record["msg"] != "build started" || record["arch"] != "arm" {
		t.Fatalf("unexpected JSON record: %v", record)
	}
}

func TestNewJSONHonorsLevel(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewJSON(&buf, slog.LevelWarn)

	logger.Info("suppressed")
	if buf.Len() != 0 {
		t.Fatalf("info record emitted below level: %q", buf.String())
	}

	logger.Warn("emitted")
	if buf.Len() == 0 {
		t.Fatalf("warn record not emitted")
	}
}

func TestEnsureFallsBackToDefault(t *testing.T) {
	t.Parallel()

	if Ensure(nil) != slog.Default() {
		t.Fatalf("Ensure(nil) did not return the process default")
	}

	logger := NewCLI(io.Discard, nil)
	if Ensure(logger) != logger {
		t.Fatalf("Ensure() replaced a non-nil logger")
	}
}
