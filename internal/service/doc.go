// Package service provides the tool registry behind the benchplay commands.
//
// Each provider describes a service (console, execute, workspace) and the
// tools it exposes. A tool ID has the form "<service>.<tool>" and the
// registry routes execution by its service prefix.
//
// Example Usage:
//
//	registry := service.NewRegistry()
//	registry.Register(consoleProvider)
//	result, err := registry.Execute(ctx, "console.run", params, appCtx)
package service
