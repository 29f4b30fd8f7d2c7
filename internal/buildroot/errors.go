package buildroot

import "fmt"

// An UnsupportedArchitectureError reports an architecture with no known base
// configuration. It is raised before any external invocation.
type UnsupportedArchitectureError struct {
	Arch string
}

func (e *UnsupportedArchitectureError) Error() string {
	return fmt.Sprintf("unsupported architecture %q", e.Arch)
}

// A ToolError reports a failed external invocation. Log holds the captured
// build log path when one exists for the failing stage.
type ToolError struct {
	Stage string
	Log   string
	Err   error
}

func (e *ToolError) Error() string {
	if e.Log != "" {
		return fmt.Sprintf("stage %s failed: %v (log: %s)", e.Stage, e.Err, e.Log)
	}
	return fmt.Sprintf("stage %s failed: %v", e.Stage, e.Err)
}

func (e *ToolError) Unwrap() error { return e.Err }
