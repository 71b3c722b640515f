// Package paths provides standardized filesystem paths for consistent access across the backend.
package paths

import (
	"encoding/hex"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
)

// Virtual mount points
const (
	// Workspace is the default root of every session filesystem and the
	// directory the sandbox mounts it at.
	Workspace = "/workspace"

	// Canvas is the workspace-relative directory holding canvas state. It
	// survives a sandbox sync-back even when the command deletes it.
	Canvas = ".canvas"
)

// Host-side sandbox layout
const (
	SandboxDirName   = "cowork-sandbox"
	SessionDirPrefix = "session-"
	// EncodedDirPrefix marks a directory named by the hex encoding of an
	// ID that is unsafe as a path component.
	EncodedDirPrefix = "session+"
)

// SandboxBase returns the directory that holds per-session sandbox
// directories. An empty base means the OS temp dir.
func SandboxBase(base string) string {
	if base == "" {
		base = os.TempDir()
	}
	return filepath.Join(base, SandboxDirName)
}

// SessionSandboxDir returns <base>/cowork-sandbox/session-<id>. IDs that
// fail ValidateSessionID map to session+<hex(id)>, so distinct IDs never
// share a directory.
func SessionSandboxDir(base, sessionID string) string {
	return filepath.Join(SandboxBase(base), SessionDirName(sessionID))
}

// SessionDirName returns the directory name for a session's sandbox.
func SessionDirName(sessionID string) string {
	if ValidateSessionID(sessionID) != nil {
		return EncodedDirPrefix + hex.EncodeToString([]byte(sessionID))
	}
	return SessionDirPrefix + sessionID
}

// IsCanvasPath reports whether the canonical virtual path p lies inside
// the canvas directory of root.
func IsCanvasPath(root, p string) bool {
	return InDir(path.Join(root, Canvas), p)
}

// InDir reports whether the canonical path p is dir or lies below it.
func InDir(dir, p string) bool {
	return p == dir || strings.HasPrefix(p, dir+"/")
}

// ValidateSessionID checks that a session ID is safe to embed in a host
// path component.
func ValidateSessionID(sessionID string) error {
	if sessionID == "" {
		return fmt.Errorf("session ID cannot be empty")
	}
	if strings.ContainsAny(sessionID, `/\`) || sessionID == "." || sessionID == ".." {
		return fmt.Errorf("session ID contains invalid path components: %q", sessionID)
	}
	if strings.ContainsRune(sessionID, 0) {
		return fmt.Errorf("session ID contains a NUL byte")
	}
	return nil
}
