// Package session maps logical session names to live terminal sessions.
//
// A Registry owns no session state of its own. Every lookup scans the
// sessions the terminal Host currently has open and picks the first one
// whose name matches, so a session the user closed is noticed lazily on the
// next lookup.
//
// Lifecycle:
//  1. Resolve scans the host for a session with the requested name
//  2. A match is reused as is and the startup command is not resent
//  3. Otherwise a session is created, the startup delay elapses, and the
//     startup command (if any) is submitted
//
// The startup delay is a fixed heuristic meant to outlast shell init
// scripts. It does not detect readiness. The delay and the startup command
// are not interrupted by cancellation: a session left without its startup
// command would be reused as is on every later lookup.
//
// Concurrent Resolve calls for the same name share a single lookup, so two
// commands fired back to back never create two sessions under one name.
//
// Example Usage:
//
//	registry := session.NewRegistry(host, session.WithStartupDelay(1500*time.Millisecond))
//	err := registry.Deliver(ctx, "Bench Console", "bench console --autoreload",
//	    "from frappe.utils import get_url", "get_url()")
package session
