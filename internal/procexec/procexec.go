// Package procexec runs external command-line tools behind a narrow,
// mockable interface.
//
// Failures are tagged with the services markers: a binary that cannot be
// started is ErrToolNotFound, a nonzero exit or a timeout is ErrExternalTool.
// Cancellation of the caller's context is returned untagged.
package procexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"pagesmith/internal/services"
)

// Command describes one tool invocation.
type Command struct {
	Binary  string
	Args    []string
	Timeout time.Duration
	Dir     string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Binary + " " + strings.Join(c.Args, " "))
}

// Result carries what the tool reported.
type Result struct {
	ExitCode int
	Stdout   []byte
	Stderr   []byte
	Duration time.Duration
}

// Executor runs a command to completion.
type Executor interface {
	Run(ctx context.Context, cmd Command) (Result, error)
}

// Func adapts a plain function to Executor.
type Func func(ctx context.Context, cmd Command) (Result, error)

func (f Func) Run(ctx context.Context, cmd Command) (Result, error) {
	return f(ctx, cmd)
}

// OS executes commands with os/exec.
type OS struct{}

// Run starts cmd, waits for it and captures both output streams.
func (OS) Run(ctx context.Context, cmd Command) (Result, error) {
	if strings.TrimSpace(cmd.Binary) == "" {
		return Result{}, services.Wrap(services.ErrToolNotFound, "procexec", "run", "empty binary path", nil)
	}
	runCtx := ctx
	if cmd.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, cmd.Timeout)
		defer cancel()
	}

	proc := exec.CommandContext(runCtx, cmd.Binary, cmd.Args...) //nolint:gosec
	proc.Dir = cmd.Dir
	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	start := time.Now()
	err := proc.Run()
	result := Result{
		ExitCode: proc.ProcessState.ExitCode(),
		Stdout:   stdout.Bytes(),
		Stderr:   stderr.Bytes(),
		Duration: time.Since(start),
	}
	if err == nil {
		return result, nil
	}

	switch {
	case errors.Is(err, exec.ErrNotFound), isNotExist(err):
		return result, services.Wrap(services.ErrToolNotFound, "procexec", "start", cmd.Binary, err)
	case ctx.Err() != nil:
		return result, ctx.Err()
	case runCtx.Err() != nil:
		return result, services.Wrap(services.ErrExternalTool, "procexec", "run",
			fmt.Sprintf("%s timed out after %s", cmd.Binary, cmd.Timeout), runCtx.Err())
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return result, services.Wrap(services.ErrExternalTool, "procexec", "run",
			fmt.Sprintf("%s exited with status %d: %s", cmd.Binary, result.ExitCode, Tail(result.Stderr, 400)), nil)
	}
	return result, services.Wrap(services.ErrExternalTool, "procexec", "run", cmd.Binary, err)
}

// Version runs `binary --version` and returns the first non-empty output line.
func Version(ctx context.Context, executor Executor, binary string) (string, error) {
	res, err := executor.Run(ctx, Command{Binary: binary, Args: []string{"--version"}, Timeout: 10 * time.Second})
	if err != nil {
		return "", err
	}
	for _, out := range [][]byte{res.Stdout, res.Stderr} {
		for _, line := range strings.Split(string(out), "\n") {
			if line = strings.TrimSpace(line); line != "" {
				return line, nil
			}
		}
	}
	return "", nil
}

// Tail returns at most limit trailing bytes of output, trimmed.
func Tail(output []byte, limit int) string {
	text := strings.TrimSpace(string(output))
	if limit > 0 && len(text) > limit {
		text = "…" + text[len(text)-limit:]
	}
	return text
}
