// Package http implements the REST surface of the workspace backend on gin.
//
// Endpoints:
//   - POST/GET /sessions, GET/DELETE /sessions/:id
//   - GET /sessions/:id/tree, GET/PUT /sessions/:id/files/*path
//   - POST /sessions/:id/exec
//   - GET /services, POST /services/discover, POST /services/execute
//   - GET /health, GET /metrics, GET /metrics/json
package http
