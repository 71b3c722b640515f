package sandbox

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/dkedar7/cowork-dash/backend/internal/shared/id"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/paths"
)

// containerRemoveTimeout bounds the `docker rm -f` issued after a run is
// cut short.
const containerRemoveTimeout = 10 * time.Second

// Docker runs commands in a throwaway container with networking disabled.
type Docker struct {
	cfg BackendConfig
}

func (d *Docker) Kind() Kind { return KindContainer }

// Args builds the `docker run` argument list for req.
func (d *Docker) Args(req Request) []string {
	args := []string{"run", "--rm"}
	if req.Name != "" {
		args = append(args, "--name", req.Name)
	}
	args = append(args,
		"--network", "none",
		"--memory", d.cfg.Memory,
		"--cpus", d.cfg.CPUs,
		"-v", req.Dir+":"+paths.Workspace,
		"-w", paths.Workspace,
	)

	keys := make([]string, 0, len(req.Env))
	for k := range req.Env {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		args = append(args, "-e", k+"="+req.Env[k])
	}

	return append(args, d.cfg.Image, "/bin/bash", "-c", req.Command)
}

// Run starts the container and waits for it. Killing the docker client
// does not stop the container, so when ctx ends first the container is
// force-removed before Run returns; it can no longer write into the
// mirror directory afterwards.
func (d *Docker) Run(ctx context.Context, req Request) (*Output, error) {
	if req.Dir == "" {
		return nil, fmt.Errorf("docker: workspace directory is required")
	}
	if req.Name == "" {
		req.Name = "cowork-" + id.NewExecutionID().String()
	}

	out, err := d.cfg.Runner.Run(ctx, "docker", d.Args(req))
	if err != nil && ctx.Err() != nil {
		rmCtx, cancel := context.WithTimeout(context.Background(), containerRemoveTimeout)
		defer cancel()
		// The container may already be gone; the run error is what matters.
		_, _ = d.cfg.Runner.Run(rmCtx, "docker", []string{"rm", "-f", req.Name})
	}
	return out, err
}
