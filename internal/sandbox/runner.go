package sandbox

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"time"
)

// Runner starts a host process and waits for it.
type Runner interface {
	Run(ctx context.Context, name string, args []string) (*Output, error)
}

// ExecRunner runs processes with os/exec. When ctx ends first the process
// is killed and ctx.Err() is returned.
type ExecRunner struct {
	// WaitDelay bounds how long to wait for output pipes after a kill.
	WaitDelay time.Duration
}

func (r ExecRunner) Run(ctx context.Context, name string, args []string) (*Output, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = r.WaitDelay
	if cmd.WaitDelay == 0 {
		cmd.WaitDelay = 2 * time.Second
	}

	err := cmd.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	out := &Output{Stdout: stdout.String(), Stderr: stderr.String()}
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			out.ExitCode = exitErr.ExitCode()
			return out, nil
		}
		return nil, err
	}
	return out, nil
}
