package playground

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/benchplay/internal/bench"
	"github.com/GriffinCanCode/benchplay/internal/pypath"
	"github.com/GriffinCanCode/benchplay/internal/types"
)

// Workspace inspects the bench and the terminal host
type Workspace struct {
	*base
}

// NewWorkspace creates a workspace provider
func NewWorkspace(d Deps) *Workspace {
	return &Workspace{base: newBase(d, "workspace")}
}

// Definition returns service metadata
func (w *Workspace) Definition() types.Service {
	return types.Service{
		ID:          "workspace",
		Name:        "Bench Workspace",
		Description: "Inspect sites, symbol definitions and open sessions",
		Category:    types.CategoryWorkspace,
		Capabilities: []string{
			"sites",
			"locate",
			"sessions",
		},
		Tools: []types.Tool{
			{
				ID:          "workspace.sites",
				Name:        "List Sites",
				Description: "List the sites of the bench",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
			{
				ID:          "workspace.locate",
				Name:        "Locate Symbol",
				Description: "Find top level definitions of a function or class",
				Parameters: []types.Parameter{
					{Name: "symbol", Type: "string", Description: "Function or class name", Required: true},
				},
				Returns: "array",
			},
			{
				ID:          "workspace.sessions",
				Name:        "List Sessions",
				Description: "List sessions open in the terminal backend",
				Parameters:  []types.Parameter{},
				Returns:     "array",
			},
		},
	}
}

// Execute runs a workspace operation
func (w *Workspace) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "workspace.sites":
		return w.sites(ctx, appCtx)
	case "workspace.locate":
		return w.findSymbol(ctx, params, appCtx)
	case "workspace.sessions":
		return w.sessions(ctx)
	default:
		return Failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (w *Workspace) sites(ctx context.Context, appCtx *types.Context) (*types.Result, error) {
	root := w.benchRoot(appCtx)
	sites, err := bench.Sites(ctx, root)
	if err != nil {
		return nil, err
	}
	if len(sites) == 0 {
		return Failure(fmt.Sprintf("No sites found under %s.", root))
	}

	return Success(map[string]interface{}{
		"sites":   sites,
		"count":   len(sites),
		"message": strings.Join(sites, "\n"),
	})
}

func (w *Workspace) findSymbol(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	symbol := stringParam(params, "symbol")
	if symbol == "" {
		return Failure("symbol parameter required")
	}

	root := w.benchRoot(appCtx)
	refs, err := pypath.Locate(ctx, root, symbol)
	if err != nil {
		return nil, err
	}
	if len(refs) == 0 {
		return outcome(fmt.Errorf("%w for %s", ErrNotFound, symbol))
	}

	matches := make([]string, 0, len(refs))
	lines := make([]string, 0, len(refs))
	for _, ref := range refs {
		matches = append(matches, ref.Dotted())
		file := ref.File
		if rel, err := filepath.Rel(root, ref.File); err == nil {
			file = rel
		}
		lines = append(lines, fmt.Sprintf("%s\t%s:%d", ref.Dotted(), file, ref.Line))
	}

	return Success(map[string]interface{}{
		"matches": matches,
		"count":   len(matches),
		"message": strings.Join(lines, "\n"),
	})
}

func (w *Workspace) sessions(ctx context.Context) (*types.Result, error) {
	names, err := w.Sessions.Sessions(ctx)
	if err != nil {
		return nil, err
	}

	return Success(map[string]interface{}{
		"sessions": names,
		"count":    len(names),
		"message":  strings.Join(names, "\n"),
	})
}
