package types

import "time"

// Session is the public view of a workspace session.
type Session struct {
	ID           string    `json:"id"`
	ThreadID     string    `json:"thread_id"`
	CreatedAt    time.Time `json:"created_at"`
	LastAccessed time.Time `json:"last_accessed"`
}

// SessionStats contains session manager statistics
type SessionStats struct {
	Active     int        `json:"active"`
	Created    uint64     `json:"created"`
	Deleted    uint64     `json:"deleted"`
	Reaped     uint64     `json:"reaped"`
	OldestSeen *time.Time `json:"oldest_seen,omitempty"`
}
