package sandbox

import (
	"time"

	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/logging"
	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/resilience"
)

// DefaultTimeout applies when Execute is called with a non-positive timeout.
const DefaultTimeout = 60 * time.Second

// Observer receives one call per finished execution. timedOut is set when
// the command was killed at its deadline.
type Observer interface {
	ObserveExecution(backend string, status string, timedOut bool, duration time.Duration)
}

// Options configure executors and registries.
type Options struct {
	BaseDir        string
	CanvasDir      string
	DefaultTimeout time.Duration
	Backend        Backend
	Logger         *logging.Logger
	Breaker        *resilience.Breaker
	Observer       Observer
}

// Option mutates Options.
type Option func(*Options)

// WithBaseDir sets the host directory under which per-session mirrors
// live. Empty means the OS temp dir.
func WithBaseDir(dir string) Option {
	return func(o *Options) { o.BaseDir = dir }
}

// WithCanvasDir names the workspace-relative directory that sync back
// never deletes from memory. Defaults to paths.Canvas.
func WithCanvasDir(dir string) Option {
	return func(o *Options) { o.CanvasDir = dir }
}

// WithBackend pins the backend instead of probing the host.
func WithBackend(b Backend) Option {
	return func(o *Options) { o.Backend = b }
}

// WithDefaultTimeout overrides DefaultTimeout.
func WithDefaultTimeout(d time.Duration) Option {
	return func(o *Options) { o.DefaultTimeout = d }
}

func WithLogger(log *logging.Logger) Option {
	return func(o *Options) { o.Logger = log }
}

// WithBreaker guards backend launches with a circuit breaker.
func WithBreaker(b *resilience.Breaker) Option {
	return func(o *Options) { o.Breaker = b }
}

func WithObserver(obs Observer) Option {
	return func(o *Options) { o.Observer = obs }
}

func buildOptions(opts []Option) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	if o.DefaultTimeout <= 0 {
		o.DefaultTimeout = DefaultTimeout
	}
	if o.Logger == nil {
		o.Logger = logging.NewNop()
	}
	if o.Backend == nil {
		b, _ := NewBackend(HostKind(), BackendConfig{})
		o.Backend = b
	}
	return o
}
