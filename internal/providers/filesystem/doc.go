// Package filesystem exposes a session's in-memory workspace to agents and
// the HTTP layer.
//
// The package is organized into specialized modules:
//   - backend: the typed surface agents call (ls, read, write, edit, grep,
//     glob, bulk upload and download)
//   - basic: core file tools built on the backend
//   - search: literal content search and doublestar globbing
//   - operations: bulk transfer, copy and move
//   - directory / tree: the file browser tree and display reads
//   - metadata: stat, sizes and MIME detection
//   - formats: JSON, YAML, TOML and CSV
//   - archives: tar, tar.gz and tar.zst export and import
//
// Tools resolve their workspace from types.Context.SessionID and report
// failures inside types.Result rather than as Go errors.
//
// Example Usage:
//
//	provider := filesystem.NewProvider(sessionManager)
//	result, err := provider.Execute(ctx, "filesystem.read", params, appCtx)
package filesystem
