package playground

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/benchplay/internal/bench"
	"github.com/GriffinCanCode/benchplay/internal/prompt"
	"github.com/GriffinCanCode/benchplay/internal/types"
)

// Executor runs dotted paths through bench execute in a one-shot session
type Executor struct {
	*base
}

// NewExecutor creates an execute provider
func NewExecutor(d Deps) *Executor {
	return &Executor{base: newBase(d, "execute")}
}

// Definition returns service metadata
func (e *Executor) Definition() types.Service {
	return types.Service{
		ID:          "execute",
		Name:        "Bench Execute",
		Description: "Run a python function with bench execute",
		Category:    types.CategoryExecute,
		Capabilities: []string{
			"execute",
		},
		Tools: []types.Tool{
			{
				ID:          "execute.run",
				Name:        "Execute Path",
				Description: "Run bench execute on a dotted path with optional args and kwargs",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Dotted python path", Required: false},
					{Name: "file", Type: "string", Description: "Python source file defining symbol", Required: false},
					{Name: "symbol", Type: "string", Description: "Function name; located in the bench when file is absent", Required: false},
					{Name: "edit", Type: "boolean", Description: "Edit the scraped path before use", Required: false},
					{Name: "args", Type: "string", Description: "Python list literal; prompted when absent", Required: false},
					{Name: "kwargs", Type: "string", Description: "Python dict literal; prompted when absent", Required: false},
					{Name: "attach", Type: "boolean", Description: "Attach to the session afterwards", Required: false},
				},
				Returns: "object",
			},
		},
	}
}

// Execute runs an execute operation
func (e *Executor) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "execute.run":
		return e.run(ctx, params, appCtx)
	default:
		return Failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (e *Executor) run(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	path, err := e.dottedPath(ctx, params, appCtx)
	if err != nil {
		return outcome(err)
	}

	opts := e.Settings.Bench
	var args, kwargs string
	if opts.AcceptArgs {
		if args, err = e.argument(ctx, params, "args", prompt.Input{
			Prompt:      "Enter args as Python list or leave blank",
			Placeholder: "['a', 'b', 'c']",
		}); err != nil {
			return nil, err
		}
	}
	if opts.AcceptKwargs {
		if kwargs, err = e.argument(ctx, params, "kwargs", prompt.Input{
			Prompt:      "Enter kwargs as Python dict or leave blank",
			Placeholder: "{'key': 'val'}",
		}); err != nil {
			return nil, err
		}
	}

	command := bench.ExecuteCommand(path, args, kwargs, opts)
	result, err := e.deliver(ctx, params, e.Settings.ExecuteName, "", command)
	if err != nil {
		return nil, err
	}
	result.Data["path"] = path
	return result, nil
}

// argument returns the named parameter when supplied, even empty, and
// otherwise prompts for it.
func (e *Executor) argument(ctx context.Context, params map[string]interface{}, key string, in prompt.Input) (string, error) {
	if v, ok := optionalString(params, key); ok {
		return v, nil
	}
	return e.Prompter.Input(ctx, in)
}
