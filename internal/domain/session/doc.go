// Package session provides workspace session management.
//
// Each session owns an isolated in-memory filesystem rooted at the
// workspace path, plus a worker (thread) identifier that callers use to
// pin follow-up work to the same execution context.
//
// Lifecycle:
//
//	absent -> active (CreateSession / GetOrCreateSession)
//	active -> active (GetSession touches LastAccessed)
//	active -> absent (DeleteSession, or ReapIdle when idle eviction is on)
//
// Lookups never fail for missing sessions; they report absence with a
// boolean so callers can probe cheaply.
//
// Release hooks registered with OnDelete run after a session leaves the
// map, which is how per-session sandbox directories are cleaned up without
// this package knowing about the sandbox.
//
// Example Usage:
//
//	mgr := session.NewManager(session.WithLogger(log))
//	sid, err := mgr.CreateSession("")
//	fsys, ok := mgr.GetFilesystem(sid)
//	_ = fsys.WriteText("/workspace/notes.md", "# notes")
//	mgr.DeleteSession(sid)
package session
