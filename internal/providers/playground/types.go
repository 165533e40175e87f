package playground

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/benchplay/internal/bench"
	"github.com/GriffinCanCode/benchplay/internal/config"
	"github.com/GriffinCanCode/benchplay/internal/domain/session"
	"github.com/GriffinCanCode/benchplay/internal/logging"
	"github.com/GriffinCanCode/benchplay/internal/prompt"
	"github.com/GriffinCanCode/benchplay/internal/types"
)

var (
	// ErrNoStatement is informational: no usable import statement was found.
	ErrNoStatement = errors.New("no valid import statement found")
	// ErrNoPath is informational: no usable dotted python path was found.
	ErrNoPath = errors.New("no python path found")
	// ErrNothingToPaste is informational: the selection or clipboard was empty.
	ErrNothingToPaste = errors.New("nothing to paste")
	// ErrNotFound is informational: a symbol has no definition in the bench.
	ErrNotFound = errors.New("no definition found")
	// ErrCannotAttach is returned when the backend cannot hand over its sessions.
	ErrCannotAttach = errors.New("terminal backend does not support attaching")
)

// Clipboard supplies text copied by the user or by a companion command.
type Clipboard interface {
	Paste(ctx context.Context) (string, error)
	CopyImportStatement(ctx context.Context) (string, error)
	CopyPythonPath(ctx context.Context) (string, error)
}

// Settings are the resolved options the commands run with.
type Settings struct {
	Bench       bench.Options
	BenchPath   string
	ConsoleName string
	ExecuteName string
}

// SettingsFromConfig maps configuration onto Settings.
func SettingsFromConfig(cfg *config.Config) Settings {
	return Settings{
		Bench: bench.Options{
			Command:      cfg.Bench.Command,
			SiteName:     cfg.Bench.SiteName,
			AutoReload:   cfg.Bench.AutoReload,
			AcceptArgs:   cfg.Bench.AcceptArgs,
			AcceptKwargs: cfg.Bench.AcceptKwargs,
		},
		BenchPath:   cfg.Bench.Path,
		ConsoleName: cfg.Terminal.ConsoleName,
		ExecuteName: cfg.Terminal.ExecuteName,
	}
}

// Deps wires the collaborators shared by every provider.
type Deps struct {
	Settings  Settings
	Sessions  *session.Registry
	Clipboard Clipboard
	Prompter  prompt.Prompter
	// Stdin and Stdout are handed to sessions on attach.
	Stdin  io.Reader
	Stdout io.Writer
	Logger *logging.Logger
}

// base holds what the providers share.
type base struct {
	Deps
	log *logging.Logger
}

func newBase(d Deps, component string) *base {
	log := d.Logger
	if log == nil {
		log = logging.NewNop()
	}
	return &base{Deps: d, log: log.Named(component)}
}

// benchRoot resolves the bench directory against the caller's working directory.
func (b *base) benchRoot(appCtx *types.Context) string {
	return resolvePath(appCtx, b.Settings.BenchPath)
}

// deliver sends lines to the session called name and attaches to it when
// the "attach" parameter is set.
func (b *base) deliver(ctx context.Context, params map[string]interface{}, name, startup string, lines ...string) (*types.Result, error) {
	if err := b.Sessions.Deliver(ctx, name, startup, lines...); err != nil {
		return nil, err
	}
	b.log.Debug("lines sent", zap.String("session", name), zap.Strings("lines", lines))

	if boolParam(params, "attach") {
		h, err := b.Sessions.Resolve(ctx, name, startup)
		if err != nil {
			return nil, err
		}
		a, ok := h.(session.Attacher)
		if !ok {
			return nil, ErrCannotAttach
		}
		if err := a.Attach(ctx, b.Stdin, b.Stdout); err != nil {
			return nil, fmt.Errorf("%w: attach %q: %v", session.ErrHost, name, err)
		}
	}

	return Success(map[string]interface{}{
		"session": name,
		"lines":   lines,
	})
}

// Success helper
func Success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure helper
func Failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}

// outcome turns informational errors into failure results and passes
// everything else through as an error.
func outcome(err error) (*types.Result, error) {
	for _, info := range []error{ErrNoStatement, ErrNoPath, ErrNothingToPaste, ErrNotFound} {
		if errors.Is(err, info) {
			return Failure(capitalize(err.Error()) + ".")
		}
	}
	return nil, err
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

func resolvePath(appCtx *types.Context, path string) string {
	if path == "" {
		path = "."
	}
	if filepath.IsAbs(path) || appCtx == nil || appCtx.WorkDir == "" {
		return path
	}
	return filepath.Join(appCtx.WorkDir, path)
}

func stringParam(params map[string]interface{}, key string) string {
	s, _ := optionalString(params, key)
	return s
}

// optionalString reports whether key was supplied at all, so an explicit
// empty value can be told apart from a missing one.
func optionalString(params map[string]interface{}, key string) (string, bool) {
	v, ok := params[key]
	if !ok || v == nil {
		return "", false
	}
	s, ok := v.(string)
	if !ok {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func boolParam(params map[string]interface{}, key string) bool {
	switch v := params[key].(type) {
	case bool:
		return v
	case string:
		return v == "true" || v == "1"
	default:
		return false
	}
}

func stringsParam(params map[string]interface{}, key string) []string {
	switch v := params[key].(type) {
	case []string:
		return v
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	case string:
		if v == "" {
			return nil
		}
		return []string{v}
	default:
		return nil
	}
}
