// Package bench renders bench command lines and inspects a bench directory.
package bench

import (
	"strings"
)

// DefaultCommand is the bench executable name.
const DefaultCommand = "bench"

// Options carries the settings that shape generated command lines.
type Options struct {
	Command      string
	SiteName     string
	AutoReload   bool
	AcceptArgs   bool
	AcceptKwargs bool
}

// prefix returns "<command> [--site <site>]". Token order matters to the bench CLI parser.
func (o Options) prefix() []string {
	command := o.Command
	if command == "" {
		command = DefaultCommand
	}

	tokens := []string{command}
	if o.SiteName != "" {
		tokens = append(tokens, "--site", o.SiteName)
	}
	return tokens
}

// ConsoleCommand builds the launch line for the interactive console session.
func ConsoleCommand(opts Options) string {
	tokens := append(opts.prefix(), "console")
	if opts.AutoReload {
		tokens = append(tokens, "--autoreload")
	}
	return strings.Join(tokens, " ")
}

// ExecuteCommand builds a one-shot "bench execute" line. args and kwargs are
// passed through as opaque text wrapped in single quotes; embedded single
// quotes are not escaped. Each is included only when non-empty and accepted
// by opts.
func ExecuteCommand(dottedPath, args, kwargs string, opts Options) string {
	tokens := append(opts.prefix(), "execute", dottedPath)

	if args = strings.TrimSpace(args); args != "" && opts.AcceptArgs {
		tokens = append(tokens, "--args", quote(args))
	}
	if kwargs = strings.TrimSpace(kwargs); kwargs != "" && opts.AcceptKwargs {
		tokens = append(tokens, "--kwargs", quote(kwargs))
	}
	return strings.Join(tokens, " ")
}

func quote(s string) string {
	return "'" + s + "'"
}
