// Package types provides shared data structures for the workspace backend.
//
// Core Types:
//   - Service, Tool, Parameter: service provider definitions
//   - Context: execution context (which session a tool runs against)
//   - Result: standard tool result
//   - Session, SessionStats: workspace session views
//
// Request Types:
//   - CreateSessionRequest: session creation
//   - ExecuteRequest: service tool execution
//   - ShellRequest: sandboxed command execution
//   - WriteFileRequest: file upload over HTTP
//
// Example Usage:
//
//	sid := "sess_01J..."
//	result, err := registry.Execute(ctx, "filesystem.read", params, &types.Context{SessionID: &sid})
package types
