package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/logging"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/id"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/paths"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
	"github.com/dkedar7/cowork-dash/backend/internal/vfs"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrSessionExists is returned by CreateSession for an id that is already active.
var ErrSessionExists = errors.New("session already exists")

// DeleteHook runs after a session has been removed from the manager.
type DeleteHook func(sessionID string)

// Option configures a Manager.
type Option func(*Manager)

// WithRoot sets the workspace root of newly created filesystems.
func WithRoot(root string) Option {
	return func(m *Manager) { m.root = root }
}

// WithLogger attaches a logger.
func WithLogger(log *logging.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithClock overrides time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

type entry struct {
	info types.Session
	fs   *vfs.Filesystem
}

// Manager owns every live workspace session. One lock guards the session
// map, so creation, touch and deletion are linearizable.
type Manager struct {
	root string
	log  *logging.Logger
	now  func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
	hooks    []DeleteHook

	created uint64
	deleted uint64
	reaped  uint64
}

// NewManager creates an empty session manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		root:     paths.Workspace,
		now:      time.Now,
		sessions: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.log == nil {
		m.log = logging.NewNop()
	}
	return m
}

var (
	defaultManager *Manager
	defaultOnce    sync.Once
)

// Default returns the process-wide manager rooted at /workspace.
func Default() *Manager {
	defaultOnce.Do(func() {
		defaultManager = NewManager()
	})
	return defaultManager
}

// Root returns the workspace root used for new filesystems.
func (m *Manager) Root() string { return m.root }

// OnDelete registers a hook that runs for every deleted or reaped session.
// Hooks run outside the manager lock.
func (m *Manager) OnDelete(hook DeleteHook) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.hooks = append(m.hooks, hook)
}

// CreateSession allocates a session with a fresh filesystem. An empty
// sessionID generates one.
func (m *Manager) CreateSession(sessionID string) (string, error) {
	if sessionID == "" {
		sessionID = id.NewSessionID().String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[sessionID]; ok {
		return "", fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
	}
	m.createLocked(sessionID)
	return sessionID, nil
}

func (m *Manager) createLocked(sessionID string) *entry {
	now := m.now()
	fs := vfs.New(m.root)

	e := &entry{
		info: types.Session{
			ID:           sessionID,
			ThreadID:     uuid.NewString(),
			CreatedAt:    now,
			LastAccessed: now,
		},
		fs: fs,
	}
	m.sessions[sessionID] = e
	m.created++

	m.log.Debug("Session created",
		logging.Session(sessionID),
		zap.String("thread_id", e.info.ThreadID),
		zap.String("root", fs.RootPath()))
	return e
}

// GetFilesystem returns the session's filesystem. It does not touch the
// session.
func (m *Manager) GetFilesystem(sessionID string) (*vfs.Filesystem, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.sessions[sessionID]
	if !ok {
		return nil, false
	}
	return e.fs, true
}

// GetSession returns session metadata and marks the session accessed.
func (m *Manager) GetSession(sessionID string) (types.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.sessions[sessionID]
	if !ok {
		return types.Session{}, false
	}
	m.touchLocked(e)
	return e.info, true
}

// touchLocked advances LastAccessed, never moving it backward.
func (m *Manager) touchLocked(e *entry) {
	if now := m.now(); now.After(e.info.LastAccessed) {
		e.info.LastAccessed = now
	}
}

// GetOrCreateSession touches an existing session or creates it, and
// returns the id either way.
func (m *Manager) GetOrCreateSession(sessionID string) string {
	if sessionID == "" {
		sessionID = id.NewSessionID().String()
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if e, ok := m.sessions[sessionID]; ok {
		m.touchLocked(e)
		return sessionID
	}
	m.createLocked(sessionID)
	return sessionID
}

// DeleteSession removes a session and its filesystem. Deleting an absent
// session is a no-op.
func (m *Manager) DeleteSession(sessionID string) {
	m.mu.Lock()
	_, ok := m.sessions[sessionID]
	if ok {
		delete(m.sessions, sessionID)
		m.deleted++
	}
	hooks := m.hooks
	m.mu.Unlock()

	if !ok {
		return
	}
	m.log.Debug("Session deleted", logging.Session(sessionID))
	m.release(hooks, sessionID)
}

func (m *Manager) release(hooks []DeleteHook, sessionID string) {
	for _, hook := range hooks {
		hook(sessionID)
	}
}

// GetThreadID returns the worker identifier assigned at creation.
func (m *Manager) GetThreadID(sessionID string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	e, ok := m.sessions[sessionID]
	if !ok {
		return "", false
	}
	return e.info.ThreadID, true
}

// Exists reports whether a session is active.
func (m *Manager) Exists(sessionID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.sessions[sessionID]
	return ok
}

// List returns every active session ordered by creation time.
func (m *Manager) List() []types.Session {
	m.mu.RLock()
	out := make([]types.Session, 0, len(m.sessions))
	for _, e := range m.sessions {
		out = append(out, e.info)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Count returns the number of active sessions.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Stats returns manager statistics
func (m *Manager) Stats() types.SessionStats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	stats := types.SessionStats{
		Active:  len(m.sessions),
		Created: m.created,
		Deleted: m.deleted,
		Reaped:  m.reaped,
	}
	for _, e := range m.sessions {
		if stats.OldestSeen == nil || e.info.LastAccessed.Before(*stats.OldestSeen) {
			t := e.info.LastAccessed
			stats.OldestSeen = &t
		}
	}
	return stats
}

// ReapIdle deletes sessions not accessed within maxIdle and returns their
// ids. A non-positive maxIdle reaps nothing.
func (m *Manager) ReapIdle(maxIdle time.Duration) []string {
	if maxIdle <= 0 {
		return nil
	}

	m.mu.Lock()
	cutoff := m.now().Add(-maxIdle)
	var reaped []string
	for sid, e := range m.sessions {
		if e.info.LastAccessed.Before(cutoff) {
			delete(m.sessions, sid)
			reaped = append(reaped, sid)
		}
	}
	m.reaped += uint64(len(reaped))
	hooks := m.hooks
	m.mu.Unlock()

	sort.Strings(reaped)
	for _, sid := range reaped {
		m.release(hooks, sid)
	}
	if len(reaped) > 0 {
		m.log.Info("Reaped idle sessions",
			zap.Int("count", len(reaped)),
			zap.Duration("max_idle", maxIdle))
	}
	return reaped
}

// RunReaper calls ReapIdle every interval until ctx is done. It returns
// immediately when either duration is non-positive.
func (m *Manager) RunReaper(ctx context.Context, interval, maxIdle time.Duration) {
	if interval <= 0 || maxIdle <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.ReapIdle(maxIdle)
		}
	}
}
