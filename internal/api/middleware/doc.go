// Package middleware provides the HTTP middleware stack for the workspace
// backend.
//
// Middleware stack includes:
//   - Recovery: panic recovery with a JSON 500 and a zap log line
//   - RequestID: X-Request-ID propagation using ULIDs
//   - Logger: structured per-request logging
//   - CORS: cross-origin resource sharing with configurable origins
//   - RateLimit: per-IP token bucket rate limiting with idle client cleanup
//
// Example Usage:
//
//	router.Use(middleware.Recovery(log), middleware.RequestID(), middleware.Logger(log))
//	router.Use(middleware.CORS(middleware.CORSFromOrigins(cfg.Server.AllowedOrigins)))
//	router.Use(middleware.RateLimit(middleware.DefaultRateLimitConfig()))
package middleware
