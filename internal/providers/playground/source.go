package playground

import (
	"context"
	"fmt"
	"strings"

	"github.com/GriffinCanCode/benchplay/internal/prompt"
	"github.com/GriffinCanCode/benchplay/internal/pypath"
	"github.com/GriffinCanCode/benchplay/internal/statement"
	"github.com/GriffinCanCode/benchplay/internal/types"
)

// reference resolves the "file"/"symbol" parameters. ok is false when
// neither was given.
func (b *base) reference(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (pypath.Reference, bool, error) {
	file := stringParam(params, "file")
	symbol := stringParam(params, "symbol")
	root := b.benchRoot(appCtx)

	switch {
	case file != "":
		ref, err := pypath.FromFile(root, resolvePath(appCtx, file), symbol)
		return ref, true, err
	case symbol != "":
		ref, err := b.locate(ctx, root, symbol)
		return ref, true, err
	default:
		return pypath.Reference{}, false, nil
	}
}

// locate finds symbol in the bench, asking the user to choose between
// several definitions.
func (b *base) locate(ctx context.Context, root, symbol string) (pypath.Reference, error) {
	refs, err := pypath.Locate(ctx, root, symbol)
	if err != nil {
		return pypath.Reference{}, err
	}
	switch len(refs) {
	case 0:
		return pypath.Reference{}, fmt.Errorf("%w for %s", ErrNotFound, symbol)
	case 1:
		return refs[0], nil
	}

	items := make([]string, 0, len(refs))
	for _, ref := range refs {
		items = append(items, ref.Dotted())
	}
	chosen, err := b.Prompter.Pick(ctx, prompt.Pick{Title: "Select definition", Items: items})
	if err != nil {
		return pypath.Reference{}, err
	}
	for _, ref := range refs {
		if ref.Dotted() == chosen {
			return ref, nil
		}
	}
	return pypath.Reference{}, fmt.Errorf("%w for %s", ErrNotFound, symbol)
}

// edit offers value for editing when the "edit" parameter is set.
func (b *base) edit(ctx context.Context, params map[string]interface{}, in prompt.Input) (string, error) {
	if !boolParam(params, "edit") {
		return in.Default, nil
	}
	return b.Prompter.Input(ctx, in)
}

// importStatement acquires the statement a console command works on.
func (b *base) importStatement(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (string, error) {
	scraped, err := b.scrapeStatement(ctx, params, appCtx)
	if err != nil {
		return "", err
	}

	text, err := b.edit(ctx, params, prompt.Input{
		Prompt:      "Import statement",
		Placeholder: "from frappe.utils import get_url",
		Default:     scraped,
	})
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if statement.IsValid(text) {
		return text, nil
	}
	// A copied dotted path is just as good.
	if ref, err := pypath.ParseDotted(text); err == nil {
		return ref.Statement(), nil
	}
	return "", ErrNoStatement
}

func (b *base) scrapeStatement(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (string, error) {
	if s := stringParam(params, "statement"); s != "" {
		return s, nil
	}
	if p := stringParam(params, "path"); p != "" {
		return p, nil
	}

	ref, ok, err := b.reference(ctx, params, appCtx)
	if err != nil {
		return "", err
	}
	if ok {
		return ref.Statement(), nil
	}

	return b.Clipboard.CopyImportStatement(ctx)
}

// dottedPath acquires the python path bench execute runs.
func (b *base) dottedPath(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (string, error) {
	scraped, err := b.scrapePath(ctx, params, appCtx)
	if err != nil {
		return "", err
	}

	text, err := b.edit(ctx, params, prompt.Input{
		Prompt:      "Python path",
		Placeholder: "frappe.utils.get_url",
		Default:     scraped,
	})
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(text)
	if ref, err := pypath.ParseDotted(text); err == nil {
		return ref.Dotted(), nil
	}
	// An import statement names its module and first symbol.
	if st, err := statement.Parse(text); err == nil && st.Names[0].Symbol != "*" {
		return st.Module + "." + st.Names[0].Symbol, nil
	}
	return "", ErrNoPath
}

func (b *base) scrapePath(ctx context.Context, params map[string]interface{}, appCtx *types.Context) (string, error) {
	if p := stringParam(params, "path"); p != "" {
		return p, nil
	}

	ref, ok, err := b.reference(ctx, params, appCtx)
	if err != nil {
		return "", err
	}
	if ok {
		return ref.Dotted(), nil
	}

	return b.Clipboard.CopyPythonPath(ctx)
}
