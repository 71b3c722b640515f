package sandbox

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// Kind identifies a sandbox backend variant.
type Kind string

const (
	KindNone      Kind = "none"
	KindNamespace Kind = "bubblewrap"
	KindContainer Kind = "docker"
)

// ParseKind accepts the backend names used in configuration. "auto" and
// "" map to the empty Kind, which means "detect".
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return "", nil
	case "none", "off":
		return KindNone, nil
	case "bubblewrap", "bwrap", "namespace":
		return KindNamespace, nil
	case "docker", "container":
		return KindContainer, nil
	default:
		return "", fmt.Errorf("unknown sandbox backend %q", s)
	}
}

// Request is one command invocation against a mirrored workspace directory.
// Dir is always mounted at paths.Workspace inside the sandbox, whatever the
// virtual root, since the mirror strips the root prefix.
type Request struct {
	Command string
	Dir     string
	Env     map[string]string
	// Name labels the run for backends that can address it afterwards
	// (the container name). Empty lets the backend pick one.
	Name string
}

// Output is what a backend run produced. A non-zero ExitCode is a normal
// completion, not an error.
type Output struct {
	Stdout   string
	Stderr   string
	ExitCode int
}

// Backend runs commands in isolation. Run returns an error only when the
// command could not be run to completion (launch failure, context done).
type Backend interface {
	Kind() Kind
	Run(ctx context.Context, req Request) (*Output, error)
}

// BackendConfig holds the knobs shared by the concrete backends.
type BackendConfig struct {
	// SystemDirs are bind-mounted read-only by the namespace backend when
	// they exist on the host.
	SystemDirs []string

	// Image, Memory and CPUs configure the container backend.
	Image  string
	Memory string
	CPUs   string

	// Runner launches the backend binary. Defaults to ExecRunner.
	Runner Runner

	// PathExists reports whether a host path exists. Defaults to os.Stat.
	PathExists func(string) bool
}

// DefaultBackendConfig returns the stock mounts and container limits.
func DefaultBackendConfig() BackendConfig {
	return BackendConfig{
		SystemDirs: []string{"/usr", "/lib", "/lib64", "/bin", "/sbin", "/etc"},
		Image:      "python:3.11-slim",
		Memory:     "512m",
		CPUs:       "1",
	}
}

func (c BackendConfig) withDefaults() BackendConfig {
	def := DefaultBackendConfig()
	if c.SystemDirs == nil {
		c.SystemDirs = def.SystemDirs
	}
	if c.Image == "" {
		c.Image = def.Image
	}
	if c.Memory == "" {
		c.Memory = def.Memory
	}
	if c.CPUs == "" {
		c.CPUs = def.CPUs
	}
	if c.Runner == nil {
		c.Runner = ExecRunner{}
	}
	if c.PathExists == nil {
		c.PathExists = func(p string) bool {
			_, err := os.Stat(p)
			return err == nil
		}
	}
	return c
}

// NewBackend builds the backend for kind. KindNone yields a backend that
// refuses every run.
func NewBackend(kind Kind, cfg BackendConfig) (Backend, error) {
	cfg = cfg.withDefaults()
	switch kind {
	case KindNamespace:
		return &Bubblewrap{cfg: cfg}, nil
	case KindContainer:
		return &Docker{cfg: cfg}, nil
	case KindNone:
		return None{}, nil
	default:
		return nil, fmt.Errorf("unknown sandbox backend %q", kind)
	}
}

// None is the backend used when no isolation tool is available.
type None struct{}

func (None) Kind() Kind { return KindNone }

func (None) Run(context.Context, Request) (*Output, error) {
	return nil, ErrUnavailable
}
