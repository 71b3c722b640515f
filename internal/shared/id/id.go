// Package id generates the identifiers handed out by the backend.
//
// Every ID is a ULID behind a short kind prefix:
//   - sess_*: workspace sessions
//   - req_*: HTTP requests
//   - exec_*: sandboxed command runs
//
// Entropy is monotonic within a millisecond, so IDs from one generator
// sort in creation order even when minted back to back.
package id

import (
	"crypto/rand"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// SessionID identifies a workspace session.
type SessionID string

// RequestID identifies an API request.
type RequestID string

// ExecutionID identifies one sandboxed command run.
type ExecutionID string

func (s SessionID) String() string   { return string(s) }
func (r RequestID) String() string   { return string(r) }
func (e ExecutionID) String() string { return string(e) }

// Kind prefixes.
const (
	SessionPrefix   = "sess"
	RequestPrefix   = "req"
	ExecutionPrefix = "exec"
)

// Generator mints ULIDs. It is safe for concurrent use.
type Generator struct {
	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
	now     func() time.Time
}

// NewGenerator returns a generator reading entropy from r. A nil r uses
// crypto/rand.
func NewGenerator(r io.Reader) *Generator {
	if r == nil {
		r = rand.Reader
	}
	return &Generator{entropy: ulid.Monotonic(r, 0), now: time.Now}
}

// ULID returns the next identifier.
func (g *Generator) ULID() ulid.ULID {
	g.mu.Lock()
	defer g.mu.Unlock()

	u, err := ulid.New(ulid.Timestamp(g.now()), g.entropy)
	if err != nil {
		// Monotonic overflow within one millisecond; restart the sequence
		// with fresh entropy rather than fail.
		g.entropy = ulid.Monotonic(rand.Reader, 0)
		u = ulid.MustNew(ulid.Timestamp(g.now()), g.entropy)
	}
	return u
}

// Prefixed returns "<prefix>_<ulid>".
func (g *Generator) Prefixed(prefix string) string {
	return prefix + "_" + g.ULID().String()
}

var (
	defaultGen  *Generator
	defaultOnce sync.Once
)

// Default returns the process-wide generator.
func Default() *Generator {
	defaultOnce.Do(func() { defaultGen = NewGenerator(nil) })
	return defaultGen
}

// NewSessionID mints a session ID.
func NewSessionID() SessionID { return SessionID(Default().Prefixed(SessionPrefix)) }

// NewRequestID mints a request ID.
func NewRequestID() RequestID { return RequestID(Default().Prefixed(RequestPrefix)) }

// NewExecutionID mints an execution ID.
func NewExecutionID() ExecutionID { return ExecutionID(Default().Prefixed(ExecutionPrefix)) }

// Split separates a generated ID into its kind prefix and ULID. Unprefixed
// IDs yield an empty prefix.
func Split(s string) (prefix string, u ulid.ULID, err error) {
	body := s
	if i := strings.IndexByte(s, '_'); i > 0 {
		prefix, body = s[:i], s[i+1:]
	}
	u, err = ulid.ParseStrict(body)
	if err != nil {
		return "", ulid.ULID{}, err
	}
	return prefix, u, nil
}

// Valid reports whether s is a ULID, with or without a kind prefix.
func Valid(s string) bool {
	_, _, err := Split(s)
	return err == nil
}

// Time returns the creation time encoded in a generated ID.
func Time(s string) (time.Time, error) {
	_, u, err := Split(s)
	if err != nil {
		return time.Time{}, err
	}
	return ulid.Time(u.Time()), nil
}
