// Package config provides 12-factor configuration for the workspace backend.
//
// Configuration is loaded from environment variables with sensible defaults.
// An optional YAML or TOML file can be layered under the environment, and
// CLI flags in cmd/server override both.
//
// Configuration Sections:
//   - Server: HTTP listen address, CORS origins, shutdown grace period
//   - Workspace: virtual root and canvas directory
//   - Sessions: idle TTL and reaper interval
//   - Sandbox: execution backend, timeouts, container limits, breaker
//   - Logging: log level and output format
//   - RateLimit: per-IP rate limiting
//   - Metrics: Prometheus endpoint toggle
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	fmt.Printf("Server running on %s\n", cfg.Addr())
//
// Environment Variables:
//   - PORT, HOST, CORS_ORIGINS, SHUTDOWN_TIMEOUT
//   - WORKSPACE_ROOT, CANVAS_DIR
//   - SESSION_IDLE_TTL, SESSION_REAP_INTERVAL
//   - SANDBOX_BACKEND, SANDBOX_BASE_DIR, SANDBOX_DEFAULT_TIMEOUT,
//     SANDBOX_IMAGE, SANDBOX_MEMORY, SANDBOX_CPUS
//   - LOG_LEVEL, LOG_DEV
//   - RATE_LIMIT_RPS, RATE_LIMIT_BURST, RATE_LIMIT_ENABLED
package config
