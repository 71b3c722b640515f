/*
Package monitoring provides Prometheus metrics for the workspace backend.

# Overview

Each Metrics value owns a private registry. It tracks HTTP requests, tool
calls routed through the service registry, sandboxed executions, circuit
breaker state and session counts.

# Usage

	metrics := monitoring.NewMetrics()
	metrics.TrackSessions(sessions.Stats)

	router.Use(monitoring.Middleware(metrics, "/metrics"))
	router.GET("/metrics", gin.WrapH(metrics.Handler()))

	// Metrics satisfies both observer hooks
	services.SetObserver(metrics)
	executors := sandbox.NewRegistry(sandbox.WithObserver(metrics))
*/
package monitoring
