package sandbox

import (
	"context"
	"fmt"
	"sort"

	"github.com/dkedar7/cowork-dash/backend/internal/shared/paths"
)

// Bubblewrap runs commands in fresh Linux namespaces via bwrap(1).
type Bubblewrap struct {
	cfg BackendConfig
}

func (b *Bubblewrap) Kind() Kind { return KindNamespace }

// Args builds the bwrap argument list for req.
func (b *Bubblewrap) Args(req Request) []string {
	var args []string

	// Host system directories, read-only. Layouts differ across distros.
	for _, dir := range b.cfg.SystemDirs {
		if b.cfg.PathExists(dir) {
			args = append(args, "--ro-bind", dir, dir)
		}
	}

	args = append(args,
		"--bind", req.Dir, paths.Workspace,
		"--tmpfs", "/tmp",
		"--dev", "/dev",
		"--proc", "/proc",
		"--unshare-net",
		"--unshare-pid",
		"--die-with-parent",
		"--chdir", paths.Workspace,
		"--clearenv",
		"--setenv", "PATH", "/usr/local/bin:/usr/bin:/bin",
		"--setenv", "HOME", paths.Workspace,
		"--setenv", "TERM", "xterm-256color",
	)

	// Sort keys for deterministic output.
	keys := make([]string, 0, len(req.Env))
	for k := range req.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "--setenv", k, req.Env[k])
	}

	return append(args, "--", "/bin/bash", "-c", req.Command)
}

func (b *Bubblewrap) Run(ctx context.Context, req Request) (*Output, error) {
	if req.Dir == "" {
		return nil, fmt.Errorf("bubblewrap: workspace directory is required")
	}
	return b.cfg.Runner.Run(ctx, "bwrap", b.Args(req))
}
