// Package playground implements the benchplay commands as service providers.
//
// Three services are exposed through the service registry:
//   - console: open the interactive bench console and send text or imports to it
//   - execute: run a dotted path with bench execute in a one-shot session
//   - workspace: inspect the bench (sites, symbol definitions, open sessions)
//
// Console commands obtain their import statement from, in order: the
// "statement" or "path" parameter, a "file"/"symbol" pair, a bare "symbol"
// located in the bench, and finally the clipboard (after running the
// companion copy command when one is configured). With "edit" set the
// scraped value is offered for editing before use.
//
// Results that carry Success false with a nil error are informational: the
// command was aborted and the message should be shown as is. Prompt
// cancellation surfaces as prompt.ErrCancelled and is meant to be silent.
package playground
