// Package shell runs commands against a session workspace through the
// sandboxed executor.
//
// Each call mirrors the session's in-memory filesystem into a private
// host directory, runs the command under the detected sandbox backend
// (bubblewrap or docker) and folds file changes back into the workspace.
//
// Tools:
//   - shell.execute: Run a command (timeout in seconds, optional env)
//   - shell.backend: Report the sandbox backend in use
//   - shell.stats: Execution counters for the calling session
package shell
