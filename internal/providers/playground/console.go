package playground

import (
	"context"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/benchplay/internal/bench"
	"github.com/GriffinCanCode/benchplay/internal/editor"
	"github.com/GriffinCanCode/benchplay/internal/prompt"
	"github.com/GriffinCanCode/benchplay/internal/statement"
	"github.com/GriffinCanCode/benchplay/internal/types"
)

// Console sends text and imports to the interactive bench console session
type Console struct {
	*base
}

// NewConsole creates a console provider
func NewConsole(d Deps) *Console {
	return &Console{base: newBase(d, "console")}
}

var sourceParams = []types.Parameter{
	{Name: "statement", Type: "string", Description: "Import statement (from module import name)", Required: false},
	{Name: "path", Type: "string", Description: "Dotted python path (module.name)", Required: false},
	{Name: "file", Type: "string", Description: "Python source file defining symbol", Required: false},
	{Name: "symbol", Type: "string", Description: "Function or class name; located in the bench when file is absent", Required: false},
	{Name: "edit", Type: "boolean", Description: "Edit the scraped value before use", Required: false},
	{Name: "attach", Type: "boolean", Description: "Attach to the session afterwards", Required: false},
}

func withSourceParams(extra ...types.Parameter) []types.Parameter {
	return append(append([]types.Parameter{}, sourceParams...), extra...)
}

// Definition returns service metadata
func (c *Console) Definition() types.Service {
	return types.Service{
		ID:          "console",
		Name:        "Bench Console",
		Description: "Send code and imports to the interactive bench console",
		Category:    types.CategoryConsole,
		Capabilities: []string{
			"open_console",
			"paste",
			"import",
			"run_function",
		},
		Tools: []types.Tool{
			{
				ID:          "console.open",
				Name:        "Open Console",
				Description: "Open the console session, starting bench console on first use",
				Parameters: []types.Parameter{
					{Name: "attach", Type: "boolean", Description: "Attach to the session", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "console.paste",
				Name:        "Paste Selection",
				Description: "Paste selected text, or the line under each cursor, into the console",
				Parameters: []types.Parameter{
					{Name: "text", Type: "array", Description: "Text chunks to paste", Required: false},
					{Name: "file", Type: "string", Description: "Source file to select from", Required: false},
					{Name: "selections", Type: "array", Description: "Selections such as 12, 12-14 or 12:5-14:8", Required: false},
					{Name: "attach", Type: "boolean", Description: "Attach to the session afterwards", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "console.paste_clipboard",
				Name:        "Paste Clipboard",
				Description: "Paste the clipboard into the console line by line",
				Parameters: []types.Parameter{
					{Name: "attach", Type: "boolean", Description: "Attach to the session afterwards", Required: false},
				},
				Returns: "object",
			},
			{
				ID:          "console.import",
				Name:        "Import Object",
				Description: "Import a single object into the console",
				Parameters:  withSourceParams(),
				Returns:     "object",
			},
			{
				ID:          "console.import_all",
				Name:        "Import All",
				Description: "Import everything from the module of a statement",
				Parameters:  withSourceParams(),
				Returns:     "object",
			},
			{
				ID:          "console.import_as",
				Name:        "Import As",
				Description: "Import an object under an alias",
				Parameters: withSourceParams(
					types.Parameter{Name: "name", Type: "string", Description: "Imported name to alias", Required: false},
					types.Parameter{Name: "alias", Type: "string", Description: "Alias; prompted when absent", Required: false},
				),
				Returns: "object",
			},
			{
				ID:          "console.run",
				Name:        "Run Function",
				Description: "Import a function and call it without arguments",
				Parameters: withSourceParams(
					types.Parameter{Name: "name", Type: "string", Description: "Imported name to call", Required: false},
					types.Parameter{Name: "pick", Type: "boolean", Description: "Choose among imported names", Required: false},
				),
				Returns: "object",
			},
		},
	}
}

// Execute runs a console operation
func (c *Console) Execute(ctx context.Context, toolID string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch toolID {
	case "console.open":
		return c.open(ctx, params)
	case "console.paste":
		return c.paste(ctx, params, appCtx)
	case "console.paste_clipboard":
		return c.pasteClipboard(ctx, params)
	case "console.import":
		return c.importObject(ctx, params, appCtx)
	case "console.import_all":
		return c.importAll(ctx, params, appCtx)
	case "console.import_as":
		return c.importAs(ctx, params, appCtx)
	case "console.run":
		return c.run(ctx, params, appCtx)
	default:
		return Failure(fmt.Sprintf("unknown tool: %s", toolID))
	}
}

func (c *Console) startup() string {
	return bench.ConsoleCommand(c.Settings.Bench)
}

// send delivers lines to the console session, bootstrapping it when needed.
func (c *Console) send(ctx context.Context, params map[string]interface{}, lines ...string) (*types.Result, error) {
	return c.deliver(ctx, params, c.Settings.ConsoleName, c.startup(), lines...)
}

func (c *Console) open(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	return c.send(ctx, params)
}

func (c *Console) paste(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	texts := stringsParam(params, "text")

	if file := stringParam(params, "file"); file != "" && len(texts) == 0 {
		selections, err := parseSelections(stringsParam(params, "selections"))
		if err != nil {
			return Failure(err.Error())
		}
		texts, err = editor.Texts(resolvePath(appCtx, file), selections)
		if err != nil {
			return nil, err
		}
	}

	lines := make([]string, 0, len(texts))
	for _, text := range texts {
		if text != "" {
			lines = append(lines, text)
		}
	}
	if len(lines) == 0 {
		return outcome(ErrNothingToPaste)
	}
	return c.send(ctx, params, lines...)
}

func parseSelections(specs []string) ([]editor.Selection, error) {
	selections := make([]editor.Selection, 0, len(specs))
	for _, spec := range specs {
		sel, err := editor.ParseSelection(spec)
		if err != nil {
			return nil, err
		}
		selections = append(selections, sel)
	}
	return selections, nil
}

func (c *Console) pasteClipboard(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	text, err := c.Clipboard.Paste(ctx)
	if err != nil {
		return nil, err
	}

	lines := splitLines(text)
	if len(lines) == 0 {
		return outcome(ErrNothingToPaste)
	}
	return c.send(ctx, params, lines...)
}

// splitLines splits on newlines keeping interior blank lines, which end
// blocks in the python console, and dropping trailing ones.
func splitLines(text string) []string {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	for len(lines) > 0 && strings.TrimSpace(lines[len(lines)-1]) == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func (c *Console) importObject(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	st, err := c.importStatement(ctx, params, appCtx)
	if err != nil {
		return outcome(err)
	}
	return c.send(ctx, params, st)
}

func (c *Console) importAll(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	st, err := c.importStatement(ctx, params, appCtx)
	if err != nil {
		return outcome(err)
	}

	wildcard, ok := statement.ToWildcard(st)
	if !ok {
		return outcome(ErrNoStatement)
	}
	return c.send(ctx, params, wildcard)
}

func (c *Console) importAs(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	st, err := c.importStatement(ctx, params, appCtx)
	if err != nil {
		return outcome(err)
	}

	if names := statement.ExtractNames(st); len(names) > 1 {
		name, err := c.chooseName(ctx, params, names, "Select name to alias")
		if err != nil {
			return outcome(err)
		}
		if st, err = statement.Select(st, name); err != nil {
			return Failure(fmt.Sprintf("%s is not imported by the statement.", name))
		}
	}

	alias, ok := optionalString(params, "alias")
	if !ok {
		if alias, err = c.Prompter.Input(ctx, prompt.Input{Prompt: "Alias", Placeholder: "gu"}); err != nil {
			return nil, err
		}
	}

	aliased, err := statement.ToAliased(st, alias)
	if err != nil {
		return Failure(fmt.Sprintf("Cannot alias %q: %v.", st, err))
	}
	return c.send(ctx, params, aliased)
}

func (c *Console) run(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	st, err := c.importStatement(ctx, params, appCtx)
	if err != nil {
		return outcome(err)
	}

	lines := []string{st}
	names := statement.ExtractNames(st)

	switch {
	case stringParam(params, "name") != "" || (boolParam(params, "pick") && len(names) > 1):
		name, err := c.chooseName(ctx, params, names, "Select function to run")
		if err != nil {
			return outcome(err)
		}
		lines = append(lines, name+"()")
	default:
		if call, ok := statement.ExtractName(st, true); ok && call != "*()" {
			lines = append(lines, call)
		}
	}

	return c.send(ctx, params, lines...)
}

// chooseName returns the "name" parameter when it is one of names, and
// otherwise asks the user to pick.
func (c *Console) chooseName(ctx context.Context, params map[string]interface{}, names []string, title string) (string, error) {
	if name := stringParam(params, "name"); name != "" {
		for _, n := range names {
			if n == name {
				return name, nil
			}
		}
		return "", fmt.Errorf("%w: %s is not imported", ErrNoStatement, name)
	}
	return c.Prompter.Pick(ctx, prompt.Pick{Title: title, Items: names})
}
