// Package paths provides standardized filesystem paths.
//
// # Layout
//
// Virtual (inside every session filesystem and inside the sandbox):
//
//	/workspace/
//	  └── .canvas/   (canvas state, preserved across sandbox sync-back)
//
// Host (sandbox staging):
//
//	<tmp>/cowork-sandbox/
//	  └── session-<id>/
//
// # Usage
//
//	dir := paths.SessionSandboxDir("", sessionID)
//	if paths.IsCanvasPath(paths.Workspace, p) {
//	    // keep it
//	}
package paths
