// Package sandbox runs shell commands against a session's in-memory
// filesystem by mirroring it to a host directory, executing the command
// in an isolated backend, and mirroring the result back.
//
// Backends (selected once, see Detect / HostKind):
//   - Bubblewrap: Linux namespaces via bwrap, host system dirs read-only,
//     no network, private PID namespace, cleared environment
//   - Docker: throwaway container with --network none and resource limits
//   - None: every run reports UnavailableMessage
//
// Execution flow (Executor.Execute):
//  1. Mirror.ToDisk empties <base>/cowork-sandbox/session-<id> and writes
//     the whole filesystem into it
//  2. the backend runs `/bin/bash -c <command>` with that directory
//     mounted at /workspace, under the caller's timeout
//  3. Mirror.FromDisk writes every file back and removes entries that
//     disappeared, except those under /workspace/.canvas
//
// A timed-out run reports return code 124 and is not mirrored back.
// Execute never returns a Go error; callers branch on Result.Status.
//
// Example Usage:
//
//	reg := sandbox.NewRegistry(sandbox.WithLogger(log))
//	exec := reg.GetExecutor(sessionID, fsys)
//	res := exec.Execute(ctx, "python main.py", 30*time.Second, nil)
//	if res.Status != sandbox.StatusSuccess {
//	    // inspect res.Stderr / res.ReturnCode
//	}
package sandbox
