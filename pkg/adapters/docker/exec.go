package docker

import (
	"bytes"
	"context"
	"os/exec"
)

// Executor runs an external command and captures its output.
type Executor interface {
	Exec(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, name string, args ...string) ([]byte, []byte, error)

// Exec calls f.
func (f ExecutorFunc) Exec(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	return f(ctx, name, args...)
}

// ProcessExecutor runs commands as local processes.
type ProcessExecutor struct {
	// Dir is the working directory; empty means the current one.
	Dir string
	// Env is appended to the inherited environment.
	Env []string
}

// Exec runs name with args, honouring ctx cancellation.
func (p ProcessExecutor) Exec(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = p.Dir
	if len(p.Env) > 0 {
		cmd.Env = append(cmd.Environ(), p.Env...)
	}

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
