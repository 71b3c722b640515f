package sandbox

import (
	"context"
	"os/exec"
	"sync"
	"time"
)

// DockerProbeTimeout bounds the `docker info` liveness probe.
const DockerProbeTimeout = 5 * time.Second

// Prober answers the host questions backend detection needs.
type Prober interface {
	LookPath(name string) (string, error)
	DockerInfo(ctx context.Context) error
}

// HostProber probes the real host.
type HostProber struct{}

func (HostProber) LookPath(name string) (string, error) { return exec.LookPath(name) }

func (HostProber) DockerInfo(ctx context.Context) error {
	return exec.CommandContext(ctx, "docker", "info").Run()
}

// Detect picks the best available backend: bubblewrap, then a docker
// daemon that answers within DockerProbeTimeout, then none.
func Detect(ctx context.Context, p Prober) Kind {
	if _, err := p.LookPath("bwrap"); err == nil {
		return KindNamespace
	}
	if _, err := p.LookPath("docker"); err != nil {
		return KindNone
	}

	ctx, cancel := context.WithTimeout(ctx, DockerProbeTimeout)
	defer cancel()
	if err := p.DockerInfo(ctx); err != nil {
		return KindNone
	}
	return KindContainer
}

var (
	hostKind     Kind
	hostKindOnce sync.Once
)

// HostKind runs Detect against the host once per process and caches it.
func HostKind() Kind {
	hostKindOnce.Do(func() {
		hostKind = Detect(context.Background(), HostProber{})
	})
	return hostKind
}
