// Package app wires benchplay together: configuration, logging, the
// terminal backend, the session registry and the command providers.
//
// Backends:
//   - tmux: sessions live in a tmux server and outlive the process, so a
//     later invocation finds and reuses them
//   - pty: sessions are PTYs owned by this process and end with it, so
//     commands attach to the session after sending
//
// Example Usage:
//
//	a, err := app.New(cfg, app.Options{Stdin: os.Stdin, Stdout: os.Stdout})
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//	result, err := a.Execute(ctx, "console.run", params)
package app
