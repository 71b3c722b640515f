package sandbox

import (
	"sort"
	"sync"

	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/logging"
	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
	"go.uber.org/zap"
)

// Registry caches one executor per session.
type Registry struct {
	opts []Option
	base Options

	mu        sync.Mutex
	executors map[string]*Executor
}

// NewRegistry creates a registry whose executors share opts.
func NewRegistry(opts ...Option) *Registry {
	o := buildOptions(opts)
	// Resolve the backend once so every executor shares it.
	opts = append(append([]Option(nil), opts...), WithBackend(o.Backend))
	return &Registry{
		opts:      opts,
		base:      o,
		executors: make(map[string]*Executor),
	}
}

var (
	defaultRegistry *Registry
	defaultOnce     sync.Once
)

// DefaultRegistry returns the process-wide registry.
func DefaultRegistry() *Registry {
	defaultOnce.Do(func() {
		defaultRegistry = NewRegistry()
	})
	return defaultRegistry
}

// Kind returns the backend shared by the registry's executors.
func (r *Registry) Kind() Kind { return r.base.Backend.Kind() }

// GetExecutor returns the session's executor, creating it for fsys on
// first use. When the cached executor mirrors a different filesystem (the
// session was deleted and recreated) it is rebound to fsys; keeping one
// executor per id keeps runs on the shared mirror directory serialized.
func (r *Registry) GetExecutor(sessionID string, fsys *vfs.Filesystem) *Executor {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.executors[sessionID]; ok {
		if e.Filesystem() != fsys {
			e.rebind(fsys)
		}
		return e
	}
	e := NewExecutor(sessionID, fsys, r.opts...)
	r.executors[sessionID] = e
	return e
}

// Lookup returns the cached executor without creating one.
func (r *Registry) Lookup(sessionID string) (*Executor, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.executors[sessionID]
	return e, ok
}

// CleanupSession drops the session's executor and removes its mirror
// directory. Unknown sessions are ignored.
func (r *Registry) CleanupSession(sessionID string) {
	r.mu.Lock()
	e, ok := r.executors[sessionID]
	delete(r.executors, sessionID)
	r.mu.Unlock()

	if !ok {
		return
	}
	if err := e.Cleanup(); err != nil {
		r.base.Logger.Warn("Sandbox cleanup failed",
			logging.Session(sessionID),
			zap.Error(err))
	}
}

// CleanupAll cleans up every cached executor.
func (r *Registry) CleanupAll() {
	for _, sid := range r.Sessions() {
		r.CleanupSession(sid)
	}
}

// Sessions returns the ids with a cached executor, sorted.
func (r *Registry) Sessions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.executors))
	for sid := range r.executors {
		ids = append(ids, sid)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of cached executors.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.executors)
}
