// Package main is the entry point for the cowork workspace backend.
//
// The server hosts per-session in-memory workspaces, exposes them to agents
// as tool services, and runs shell commands against them in a sandbox
// (bubblewrap or docker) with results synced back into memory.
//
// Configuration:
//   - Environment variables (12-factor)
//   - Optional YAML or TOML file via --config
//   - CLI flags (override both)
//
// Usage:
//
//	# Production mode
//	./server --port 8050 --sandbox auto --idle-ttl 30m
//
//	# Development mode (colored logs, debug level)
//	./server --dev --sandbox none
//
// Signals:
//   - SIGINT, SIGTERM: Graceful shutdown
package main
