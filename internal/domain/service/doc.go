// Package service provides the tool service registry.
//
// The registry maintains a catalog of service providers (filesystem, shell)
// and routes "<service>.<tool>" ids to them.
//
// Features:
//   - Thread-safe service registration
//   - Category-based filtering
//   - Intent-based discovery with scoring
//   - Tool execution with context passing, timing and logging
//   - Service statistics
//
// Example Usage:
//
//	registry := service.NewRegistry(logger)
//	registry.Register(filesystem.NewProvider(sessions))
//	result, err := registry.Execute(ctx, "filesystem.read", params, appCtx)
package service
