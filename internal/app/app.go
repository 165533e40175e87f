package app

import (
	"context"
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/GriffinCanCode/benchplay/internal/config"
	"github.com/GriffinCanCode/benchplay/internal/domain/session"
	"github.com/GriffinCanCode/benchplay/internal/logging"
	"github.com/GriffinCanCode/benchplay/internal/prompt"
	"github.com/GriffinCanCode/benchplay/internal/providers/clipboard"
	"github.com/GriffinCanCode/benchplay/internal/providers/playground"
	"github.com/GriffinCanCode/benchplay/internal/providers/terminal"
	"github.com/GriffinCanCode/benchplay/internal/providers/tmux"
	"github.com/GriffinCanCode/benchplay/internal/service"
	"github.com/GriffinCanCode/benchplay/internal/types"
)

// Options carries process level collaborators. Zero values fall back to
// the real terminal, clipboard and backend.
type Options struct {
	Stdin   *os.File
	Stdout  io.Writer
	Stderr  io.Writer
	WorkDir string

	Logger    *logging.Logger
	Host      session.Host
	Clipboard playground.Clipboard
	Prompter  prompt.Prompter
}

// App is a configured benchplay instance.
type App struct {
	cfg         *config.Config
	log         *logging.Logger
	manager     *terminal.Manager
	sessions    *session.Registry
	registry    *service.Registry
	workDir     string
	interactive bool
}

// New builds an App from cfg.
func New(cfg *config.Config, opts Options) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if opts.Stdin == nil {
		opts.Stdin = os.Stdin
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.WorkDir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		opts.WorkDir = wd
	}

	log := opts.Logger
	if log == nil {
		lc := logging.DefaultConfig()
		lc.Level = cfg.Logging.Level
		lc.Development = cfg.Logging.Development

		var err error
		log, err = logging.New(lc)
		if err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}

	a := &App{
		cfg:         cfg,
		log:         log,
		workDir:     opts.WorkDir,
		interactive: term.IsTerminal(int(opts.Stdin.Fd())),
	}

	host := opts.Host
	if host == nil {
		host = a.newHost()
	}
	a.sessions = session.NewRegistry(host,
		session.WithStartupDelay(cfg.Terminal.StartupDelay),
		session.WithLineInterval(cfg.Terminal.LineInterval),
		session.WithLogger(log.Named("session")),
	)

	clip := opts.Clipboard
	if clip == nil {
		clip = clipboard.NewProvider(clipboard.Options{
			CopyImportCommand: cfg.Companion.CopyImportCommand,
			CopyPathCommand:   cfg.Companion.CopyPathCommand,
		}, log.Named("clipboard"))
	}

	// Attach reads through the terminal prompter so input it already
	// buffered reaches the session.
	var stdin io.Reader = opts.Stdin
	prompter := opts.Prompter
	if prompter == nil {
		tp := prompt.New(opts.Stdin, opts.Stderr)
		prompter, stdin = tp, tp
	}

	a.registry = service.NewRegistry()
	if err := playground.Register(a.registry, playground.Deps{
		Settings:  playground.SettingsFromConfig(cfg),
		Sessions:  a.sessions,
		Clipboard: clip,
		Prompter:  prompter,
		Stdin:     stdin,
		Stdout:    opts.Stdout,
		Logger:    log,
	}); err != nil {
		return nil, err
	}

	log.Debug("app ready",
		zap.String("backend", cfg.Terminal.Backend),
		zap.String("bench", cfg.Bench.Path),
		zap.Duration("startup_delay", cfg.Terminal.StartupDelay),
	)
	return a, nil
}

func (a *App) newHost() session.Host {
	switch a.cfg.Terminal.Backend {
	case config.BackendPTY:
		a.manager = terminal.NewManager()
		return terminal.NewHost(a.manager, terminal.HostOptions{
			Shell:      a.cfg.Terminal.Shell,
			WorkingDir: a.workDir,
		})
	default:
		return tmux.NewHost(tmux.Options{
			Socket:     a.cfg.Terminal.TmuxSocket,
			Shell:      a.cfg.Terminal.Shell,
			WorkingDir: a.workDir,
		})
	}
}

// Config returns the configuration the app runs with.
func (a *App) Config() *config.Config {
	return a.cfg
}

// Services returns the command registry.
func (a *App) Services() *service.Registry {
	return a.registry
}

// Logger returns the application logger.
func (a *App) Logger() *logging.Logger {
	return a.log
}

// AttachByDefault reports whether commands should attach after sending.
// PTY sessions end with the process, so they are only useful attached.
func (a *App) AttachByDefault() bool {
	return a.manager != nil && a.interactive
}

// Execute runs a tool with the app's working directory as context.
func (a *App) Execute(ctx context.Context, toolID string, params map[string]interface{}) (*types.Result, error) {
	if params == nil {
		params = map[string]interface{}{}
	}
	if _, set := params["attach"]; !set && a.AttachByDefault() {
		params["attach"] = true
	}

	a.log.Debug("executing", zap.String("tool", toolID))
	return a.registry.Execute(ctx, toolID, params, &types.Context{
		WorkDir:     a.workDir,
		Interactive: a.interactive,
	})
}

// Close ends sessions owned by this process and flushes the logger.
func (a *App) Close() {
	if a.manager != nil {
		a.manager.KillAll()
	}
	_ = a.log.Sync()
}
