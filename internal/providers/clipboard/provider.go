// Package clipboard reads text handed over by the system clipboard and by
// companion "copy python path" commands.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/atotto/clipboard"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/benchplay/internal/logging"
)

// ErrCompanionMissing is returned when a configured companion command cannot run.
var ErrCompanionMissing = errors.New("companion copy command failed; ensure it is installed")

// Backend reads the system clipboard.
type Backend interface {
	ReadAll() (string, error)
}

// CommandRunner runs a companion shell command line.
type CommandRunner interface {
	Run(ctx context.Context, command string) error
}

// Options configures the companion commands. Empty commands mean the user
// fills the clipboard by hand.
type Options struct {
	CopyImportCommand string
	CopyPathCommand   string
}

// Provider implements clipboard reads with optional companion commands
type Provider struct {
	backend Backend
	runner  CommandRunner
	opts    Options
	log     *logging.Logger
}

// NewProvider creates a provider over the system clipboard
func NewProvider(opts Options, log *logging.Logger) *Provider {
	return NewProviderWith(systemBackend{}, shellRunner{}, opts, log)
}

// NewProviderWith creates a provider with explicit collaborators
func NewProviderWith(backend Backend, runner CommandRunner, opts Options, log *logging.Logger) *Provider {
	if log == nil {
		log = logging.NewNop()
	}
	return &Provider{backend: backend, runner: runner, opts: opts, log: log}
}

// Paste returns the clipboard text as is.
func (c *Provider) Paste(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	text, err := c.backend.ReadAll()
	if err != nil {
		return "", fmt.Errorf("paste failed: %w", err)
	}
	return text, nil
}

// CopyImportStatement runs the import companion and returns the trimmed clipboard.
func (c *Provider) CopyImportStatement(ctx context.Context) (string, error) {
	return c.copyVia(ctx, c.opts.CopyImportCommand)
}

// CopyPythonPath runs the dotted-path companion and returns the trimmed clipboard.
func (c *Provider) CopyPythonPath(ctx context.Context) (string, error) {
	return c.copyVia(ctx, c.opts.CopyPathCommand)
}

func (c *Provider) copyVia(ctx context.Context, command string) (string, error) {
	if command != "" {
		if err := c.runner.Run(ctx, command); err != nil {
			c.log.Warn("companion command failed", zap.String("command", command), zap.Error(err))
			return "", fmt.Errorf("%w: %v", ErrCompanionMissing, err)
		}
	}

	text, err := c.Paste(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

type systemBackend struct{}

func (systemBackend) ReadAll() (string, error) {
	return clipboard.ReadAll()
}

type shellRunner struct{}

func (shellRunner) Run(ctx context.Context, command string) error {
	out, err := exec.CommandContext(ctx, "sh", "-c", command).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w (%s)", err, strings.TrimSpace(string(out)))
	}
	return nil
}
