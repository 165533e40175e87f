// Package terminal runs shell sessions on pseudo-terminals owned by this process.
//
// Each session spawns a shell on a PTY. Output is kept in a bounded ring
// buffer until someone attaches, after which it streams straight to the
// attached writer.
//
// Architecture:
//   - Manager owns the PTY sessions, keyed by a ULID session ID
//   - Host adapts the Manager to the session registry, addressing sessions
//     by display name
//   - A session closes when its shell exits; closed sessions stay listed as
//     inactive until killed
//
// Example Usage:
//
//	manager := terminal.NewManager()
//	host := terminal.NewHost(manager, terminal.HostOptions{Shell: "/bin/bash"})
//	registry := session.NewRegistry(host)
//	h, err := registry.Resolve(ctx, "Bench Console", "bench console")
package terminal
