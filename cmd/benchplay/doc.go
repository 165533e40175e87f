// Package main is the benchplay command line.
//
// benchplay drives the Frappe bench console from a shell: it turns a copied
// import statement or dotted path into imports and calls in a long lived
// "Bench Console" session, and runs bench execute in a "Bench Execute"
// session. Sessions are created on first use and reused afterwards.
//
// Usage:
//
//	benchplay run "from frappe.utils import get_url, get_site"
//	benchplay import-all            # statement from the clipboard
//	benchplay execute frappe.utils.get_url --args "['x']"
//	benchplay paste --file scratch.py --select 3 --select 10-14
//
// Configuration:
//   - benchplay.yaml / benchplay.toml in the working directory, or --config
//   - BENCHPLAY_* environment variables
//   - Flags for backend, site, bench path and log level
//
// Exit status is 0 on success, on informational aborts and on cancelled
// prompts, and 1 on errors.
package main
