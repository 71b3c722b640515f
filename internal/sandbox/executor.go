package sandbox

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/logging"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/id"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/paths"
	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
	"go.uber.org/zap"
)

// Result statuses.
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the uniform outcome of Execute. Failures of every kind are
// reported here rather than as Go errors.
type Result struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ReturnCode int    `json:"return_code"`
	Status     string `json:"status"`
}

// Stats summarizes an executor's history.
type Stats struct {
	Backend      Kind          `json:"backend"`
	Runs         int           `json:"runs"`
	Failures     int           `json:"failures"`
	Timeouts     int           `json:"timeouts"`
	LastRun      *time.Time    `json:"last_run,omitempty"`
	LastDuration time.Duration `json:"last_duration"`
}

// Executor runs shell commands against one session's filesystem. Runs on
// the same executor are serialized because they share a mirror directory.
type Executor struct {
	sessionID string
	fs        atomic.Pointer[vfs.Filesystem]
	opts      Options
	log       *logging.Logger

	mu      sync.Mutex
	tempDir string

	statsMu sync.Mutex
	stats   Stats
}

// NewExecutor creates an executor. Without WithBackend the host backend
// is detected once per process.
func NewExecutor(sessionID string, fsys *vfs.Filesystem, opts ...Option) *Executor {
	o := buildOptions(opts)
	e := &Executor{
		sessionID: sessionID,
		opts:      o,
		log:       o.Logger.Named("sandbox").ForSession(sessionID),
		stats:     Stats{Backend: o.Backend.Kind()},
	}
	e.fs.Store(fsys)
	return e
}

// SessionID returns the owning session.
func (e *Executor) SessionID() string { return e.sessionID }

// Kind returns the selected backend variant.
func (e *Executor) Kind() Kind { return e.opts.Backend.Kind() }

// Filesystem returns the filesystem the executor mirrors.
func (e *Executor) Filesystem() *vfs.Filesystem { return e.fs.Load() }

// rebind points the executor at a new filesystem and resets its stats. A
// run already in flight finishes against the filesystem it started with.
func (e *Executor) rebind(fsys *vfs.Filesystem) {
	e.fs.Store(fsys)
	e.statsMu.Lock()
	e.stats = Stats{Backend: e.Kind()}
	e.statsMu.Unlock()
}

// TempDir returns the session's mirror directory, creating it if needed.
func (e *Executor) TempDir() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.tempDirLocked()
}

func (e *Executor) tempDirLocked() (string, error) {
	if e.tempDir == "" {
		e.tempDir = paths.SessionSandboxDir(e.opts.BaseDir, e.sessionID)
	}
	if err := os.MkdirAll(e.tempDir, 0o755); err != nil {
		return "", fmt.Errorf("create sandbox dir: %w", err)
	}
	return e.tempDir, nil
}

// Execute mirrors the filesystem to disk, runs command in the sandbox and
// mirrors the result back. A timed-out command is not synced back.
func (e *Executor) Execute(ctx context.Context, command string, timeout time.Duration, env map[string]string) Result {
	e.mu.Lock()
	defer e.mu.Unlock()

	if timeout <= 0 {
		timeout = e.opts.DefaultTimeout
	}
	execID := id.NewExecutionID()
	log := e.log.With(zap.String("execution_id", execID.String()))
	start := time.Now()

	req := Request{Command: command, Env: env, Name: "cowork-" + execID.String()}
	result, timedOut := e.executeLocked(ctx, log, req, timeout)

	duration := time.Since(start)
	e.record(result, timedOut, duration)
	if e.opts.Observer != nil {
		e.opts.Observer.ObserveExecution(string(e.Kind()), result.Status, timedOut, duration)
	}
	log.Info("Command executed",
		zap.String("backend", string(e.Kind())),
		zap.Int("return_code", result.ReturnCode),
		zap.String("status", result.Status),
		zap.Duration("duration", duration))
	return result
}

func (e *Executor) executeLocked(ctx context.Context, log *logging.Logger, req Request, timeout time.Duration) (Result, bool) {
	if e.Kind() == KindNone {
		return failure(UnavailableMessage), false
	}

	dir, err := e.tempDirLocked()
	if err != nil {
		return failure(err.Error()), false
	}

	mirror := Mirror{FS: e.Filesystem(), Dir: dir, Canvas: e.opts.CanvasDir}
	in, err := mirror.ToDisk()
	if err != nil {
		return failure(err.Error()), false
	}
	log.Debug("Mirrored to disk", zap.Int("files", in.Files), zap.Int64("bytes", in.Bytes))

	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req.Dir = dir
	out, err := e.launch(runCtx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, ErrTimeout) {
			return Result{
				Stderr:     fmt.Sprintf("Command timed out after %s seconds", formatSeconds(timeout)),
				ReturnCode: TimeoutExitCode,
				Status:     StatusError,
			}, true
		}
		log.Warn("Sandbox launch failed", zap.Error(err))
		return failure(err.Error()), false
	}

	back, err := mirror.FromDisk()
	if err != nil {
		log.Warn("Sync back failed", zap.Error(err))
		return failure(err.Error()), false
	}
	log.Debug("Mirrored from disk",
		zap.Int("files", back.Files),
		zap.Int("removed", back.Removed))

	status := StatusSuccess
	if out.ExitCode != 0 {
		status = StatusError
	}
	return Result{
		Stdout:     out.Stdout,
		Stderr:     out.Stderr,
		ReturnCode: out.ExitCode,
		Status:     status,
	}, false
}

// launch runs the backend, through the breaker when one is configured.
// Only launch failures count against the breaker.
func (e *Executor) launch(ctx context.Context, req Request) (*Output, error) {
	if e.opts.Breaker == nil {
		return e.opts.Backend.Run(ctx, req)
	}

	var out *Output
	var runErr error
	err := e.opts.Breaker.Do(func() error {
		out, runErr = e.opts.Backend.Run(ctx, req)
		if runErr != nil && ctx.Err() == nil {
			return runErr
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, runErr
}

func (e *Executor) record(r Result, timedOut bool, d time.Duration) {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()

	now := time.Now()
	e.stats.Runs++
	e.stats.LastRun = &now
	e.stats.LastDuration = d
	switch {
	case timedOut:
		e.stats.Timeouts++
	case r.Status == StatusError:
		e.stats.Failures++
	}
}

// Stats returns a snapshot of the executor's counters. It does not wait
// for a run in progress.
func (e *Executor) Stats() Stats {
	e.statsMu.Lock()
	defer e.statsMu.Unlock()
	return e.stats
}

// Cleanup removes the mirror directory. It is safe to call repeatedly.
func (e *Executor) Cleanup() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	dir := e.tempDir
	if dir == "" {
		dir = paths.SessionSandboxDir(e.opts.BaseDir, e.sessionID)
	}
	e.tempDir = ""
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("remove sandbox dir: %w", err)
	}
	return nil
}

func failure(msg string) Result {
	return Result{Stderr: msg, ReturnCode: 1, Status: StatusError}
}

func formatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', -1, 64)
}
