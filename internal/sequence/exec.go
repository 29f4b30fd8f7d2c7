package sequence

import (
	"context"
	"io"
	"os"
	"os/exec"
	"strings"
)

// An invocation describes one external command run by the sequencer.
type invocation struct {
	Dir    string
	Name   string
	Args   []string
	Env    []string  // nil inherits the process environment
	Output io.Writer // nil attaches the process stdout/stderr
}

// commandRunner is the seam between the sequencer and the host. Tests
// substitute a recording fake.
type commandRunner interface {
	Run(ctx context.Context, inv invocation) error
}

type execRunner struct{}

func (execRunner) Run(ctx context.Context, inv invocation) error {
	cmd := exec.CommandContext(ctx, inv.Name, inv.Args...)
	cmd.Dir = inv.Dir
	if inv.Env != nil {
		cmd.Env = inv.Env
	}
	if inv.Output != nil {
		cmd.Stdout = inv.Output
		cmd.Stderr = inv.Output
	} else {
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
	}
	return cmd.Run()
}

// scrubEnv returns the process environment without the named variable.
func scrubEnv(name string) []string {
	prefix := name + "="
	env := make([]string, 0, len(os.Environ()))
	for _, kv := range os.Environ() {
		if !strings.HasPrefix(kv, prefix) {
			env = append(env, kv)
		}
	}
	return env
}
