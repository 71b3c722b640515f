// Package server assembles the workspace backend: session manager, sandbox
// executors, service providers, metrics and the gin router.
package server
