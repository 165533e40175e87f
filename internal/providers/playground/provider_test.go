package playground

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/benchplay/internal/config"
	"github.com/GriffinCanCode/benchplay/internal/domain/session"
	"github.com/GriffinCanCode/benchplay/internal/prompt"
	"github.com/GriffinCanCode/benchplay/internal/providers/clipboard"
	"github.com/GriffinCanCode/benchplay/internal/service"
	"github.com/GriffinCanCode/benchplay/internal/types"
)

type fakeHandle struct {
	name     string
	mu       sync.Mutex
	lines    []string
	attached int
}

func (h *fakeHandle) Name() string { return h.name }

func (h *fakeHandle) Submit(ctx context.Context, line string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lines = append(h.lines, line)
	return nil
}

func (h *fakeHandle) submitted() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.lines...)
}

type attachableHandle struct {
	*fakeHandle
}

func (h attachableHandle) Attach(ctx context.Context, in io.Reader, out io.Writer) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.attached++
	return nil
}

type fakeHost struct {
	mu         sync.Mutex
	sessions   []*fakeHandle
	attachable bool
	createErr  error
}

func (f *fakeHost) Sessions(ctx context.Context) ([]session.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]session.Handle, 0, len(f.sessions))
	for _, s := range f.sessions {
		out = append(out, f.wrap(s))
	}
	return out, nil
}

func (f *fakeHost) Create(ctx context.Context, name string) (session.Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	h := &fakeHandle{name: name}
	f.sessions = append(f.sessions, h)
	return f.wrap(h), nil
}

func (f *fakeHost) wrap(h *fakeHandle) session.Handle {
	if f.attachable {
		return attachableHandle{h}
	}
	return h
}

func (f *fakeHost) session(name string) *fakeHandle {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.sessions {
		if s.name == name {
			return s
		}
	}
	return nil
}

type fakeClipboard struct {
	text      string
	statement string
	path      string
	err       error
}

func (f *fakeClipboard) Paste(ctx context.Context) (string, error) {
	return f.text, f.err
}

func (f *fakeClipboard) CopyImportStatement(ctx context.Context) (string, error) {
	return f.statement, f.err
}

func (f *fakeClipboard) CopyPythonPath(ctx context.Context) (string, error) {
	return f.path, f.err
}

// fakePrompter answers from queues; an exhausted queue cancels.
type fakePrompter struct {
	inputs  []string
	picks   []string
	asked   []prompt.Input
	offered []prompt.Pick
}

func (f *fakePrompter) Input(ctx context.Context, in prompt.Input) (string, error) {
	f.asked = append(f.asked, in)
	if len(f.inputs) == 0 {
		return "", prompt.ErrCancelled
	}
	answer := f.inputs[0]
	f.inputs = f.inputs[1:]
	if answer == "" {
		return in.Default, nil
	}
	return answer, nil
}

func (f *fakePrompter) Pick(ctx context.Context, p prompt.Pick) (string, error) {
	f.offered = append(f.offered, p)
	if len(f.picks) == 0 {
		return "", prompt.ErrCancelled
	}
	answer := f.picks[0]
	f.picks = f.picks[1:]
	return answer, nil
}

type fixture struct {
	host      *fakeHost
	clipboard *fakeClipboard
	prompter  *fakePrompter
	registry  *service.Registry
	deps      Deps
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		host:      &fakeHost{},
		clipboard: &fakeClipboard{},
		prompter:  &fakePrompter{},
		registry:  service.NewRegistry(),
	}
	f.deps = Deps{
		Settings:  SettingsFromConfig(config.Default()),
		Sessions:  session.NewRegistry(f.host, session.WithStartupDelay(0)),
		Clipboard: f.clipboard,
		Prompter:  f.prompter,
		Stdin:     nil,
		Stdout:    io.Discard,
	}
	require.NoError(t, Register(f.registry, f.deps))
	return f
}

func (f *fixture) exec(t *testing.T, toolID string, params map[string]interface{}) (*types.Result, error) {
	t.Helper()
	return f.registry.Execute(context.Background(), toolID, params, &types.Context{WorkDir: t.TempDir()})
}

// openConsole makes the console session exist already, so only the
// command's own lines are submitted.
func (f *fixture) openConsole(t *testing.T) *fakeHandle {
	t.Helper()
	_, err := f.deps.Sessions.Resolve(context.Background(), "Bench Console", "")
	require.NoError(t, err)
	return f.host.session("Bench Console")
}

func TestRunFunctionEndToEnd(t *testing.T) {
	f := newFixture(t)
	console := f.openConsole(t)

	result, err := f.exec(t, "console.run", map[string]interface{}{
		"statement": "from frappe.utils import get_url, get_site",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)

	assert.Equal(t, []string{"from frappe.utils import get_url, get_site", "get_url()"}, console.submitted())
}

func TestImportAllEndToEnd(t *testing.T) {
	f := newFixture(t)
	console := f.openConsole(t)
	f.clipboard.statement = "from frappe.utils import get_url"

	result, err := f.exec(t, "console.import_all", nil)
	require.NoError(t, err)
	assert.True(t, result.Success)

	assert.Equal(t, []string{"from frappe.utils import *"}, console.submitted())
}

func TestConsoleBootstrapsOnce(t *testing.T) {
	f := newFixture(t)
	f.clipboard.statement = "from frappe.utils import get_url"

	_, err := f.exec(t, "console.import", nil)
	require.NoError(t, err)
	_, err = f.exec(t, "console.import", nil)
	require.NoError(t, err)

	require.Len(t, f.host.sessions, 1)
	assert.Equal(t, []string{
		"bench console --autoreload",
		"from frappe.utils import get_url",
		"from frappe.utils import get_url",
	}, f.host.sessions[0].submitted())
}

func TestConsoleStartupUsesSettings(t *testing.T) {
	f := newFixture(t)
	f.deps.Settings.Bench.SiteName = "erp.local"
	f.deps.Settings.Bench.AutoReload = false
	f.deps.Settings.ConsoleName = "ERP"
	console := NewConsole(f.deps)

	_, err := console.Execute(context.Background(), "console.open", map[string]interface{}{}, nil)
	require.NoError(t, err)

	h := f.host.session("ERP")
	require.NotNil(t, h)
	assert.Equal(t, []string{"bench --site erp.local console"}, h.submitted())
}

func TestImportStatementSources(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
		clip   string
		want   string
	}{
		{name: "statement param", params: map[string]interface{}{"statement": "from a.b import c"}, want: "from a.b import c"},
		{name: "dotted path param", params: map[string]interface{}{"path": "frappe.utils.get_url"}, want: "from frappe.utils import get_url"},
		{name: "clipboard statement", clip: "from frappe import _", want: "from frappe import _"},
		{name: "clipboard dotted path", clip: "frappe.client.get_list", want: "from frappe.client import get_list"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			console := f.openConsole(t)
			f.clipboard.statement = tt.clip

			result, err := f.exec(t, "console.import", tt.params)
			require.NoError(t, err)
			require.True(t, result.Success, result.Message())
			assert.Equal(t, []string{tt.want}, console.submitted())
		})
	}
}

func TestInvalidStatementIsInformational(t *testing.T) {
	for _, toolID := range []string{"console.import", "console.import_all", "console.import_as", "console.run"} {
		t.Run(toolID, func(t *testing.T) {
			f := newFixture(t)
			f.clipboard.statement = "import frappe"

			result, err := f.exec(t, toolID, nil)
			require.NoError(t, err)
			assert.False(t, result.Success)
			assert.Equal(t, "No valid import statement found.", result.Message())
			assert.Empty(t, f.host.sessions, "no session is created for invalid input")
		})
	}
}

func TestCompanionMissing(t *testing.T) {
	f := newFixture(t)
	f.clipboard.err = fmt.Errorf("%w: exit status 127", clipboard.ErrCompanionMissing)

	_, err := f.exec(t, "console.run", nil)
	assert.ErrorIs(t, err, clipboard.ErrCompanionMissing)
	assert.Empty(t, f.host.sessions)
}

func TestHostFailure(t *testing.T) {
	f := newFixture(t)
	f.host.createErr = errors.New("tmux not found")

	_, err := f.exec(t, "console.import", map[string]interface{}{"statement": "from a import b"})
	assert.ErrorIs(t, err, session.ErrHost)
}

func TestEditPrefillsScrapedStatement(t *testing.T) {
	f := newFixture(t)
	console := f.openConsole(t)
	f.clipboard.statement = "from frappe.utils import get_url"
	f.prompter.inputs = []string{"from frappe.utils import get_site"}

	_, err := f.exec(t, "console.import", map[string]interface{}{"edit": true})
	require.NoError(t, err)

	require.Len(t, f.prompter.asked, 1)
	assert.Equal(t, "from frappe.utils import get_url", f.prompter.asked[0].Default)
	assert.Equal(t, []string{"from frappe.utils import get_site"}, console.submitted())
}

func TestEditCancelled(t *testing.T) {
	f := newFixture(t)
	f.clipboard.statement = "from frappe.utils import get_url"

	_, err := f.exec(t, "console.import", map[string]interface{}{"edit": "true"})
	assert.ErrorIs(t, err, prompt.ErrCancelled)
	assert.Empty(t, f.host.sessions)
}

func TestRunPick(t *testing.T) {
	f := newFixture(t)
	console := f.openConsole(t)
	f.prompter.picks = []string{"get_site"}

	_, err := f.exec(t, "console.run", map[string]interface{}{
		"statement": "from frappe.utils import get_url, get_site",
		"pick":      true,
	})
	require.NoError(t, err)

	require.Len(t, f.prompter.offered, 1)
	assert.Equal(t, []string{"get_url", "get_site"}, f.prompter.offered[0].Items)
	assert.Equal(t, []string{"from frappe.utils import get_url, get_site", "get_site()"}, console.submitted())
}

func TestRunPickCancelledIsSilent(t *testing.T) {
	f := newFixture(t)
	console := f.openConsole(t)

	result, err := f.exec(t, "console.run", map[string]interface{}{
		"statement": "from frappe.utils import get_url, get_site",
		"pick":      true,
	})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, prompt.ErrCancelled)
	assert.Empty(t, console.submitted())
}

func TestRunNamedFunction(t *testing.T) {
	f := newFixture(t)
	console := f.openConsole(t)

	_, err := f.exec(t, "console.run", map[string]interface{}{
		"statement": "from frappe.utils import get_url, get_site as site",
		"name":      "site",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"from frappe.utils import get_url, get_site as site", "site()"}, console.submitted())

	result, err := f.exec(t, "console.run", map[string]interface{}{
		"statement": "from frappe.utils import get_url",
		"name":      "get_doc",
	})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestRunWildcardSendsOnlyImport(t *testing.T) {
	f := newFixture(t)
	console := f.openConsole(t)

	_, err := f.exec(t, "console.run", map[string]interface{}{"statement": "from frappe.utils import *"})
	require.NoError(t, err)
	assert.Equal(t, []string{"from frappe.utils import *"}, console.submitted())
}

func TestImportAs(t *testing.T) {
	tests := []struct {
		name   string
		params map[string]interface{}
		inputs []string
		picks  []string
		want   string
	}{
		{
			name:   "alias param",
			params: map[string]interface{}{"statement": "from frappe.utils import get_url", "alias": "gu"},
			want:   "from frappe.utils import get_url as gu",
		},
		{
			name:   "prompted alias",
			params: map[string]interface{}{"statement": "from frappe.utils import get_url"},
			inputs: []string{"url"},
			want:   "from frappe.utils import get_url as url",
		},
		{
			name:   "empty alias keeps statement",
			params: map[string]interface{}{"statement": "from frappe.utils import get_url", "alias": ""},
			want:   "from frappe.utils import get_url",
		},
		{
			name:   "multi name picked",
			params: map[string]interface{}{"statement": "from frappe.utils import get_url, get_site", "alias": "gs"},
			picks:  []string{"get_site"},
			want:   "from frappe.utils import get_site as gs",
		},
		{
			name:   "multi name by param",
			params: map[string]interface{}{"statement": "from frappe.utils import get_url, get_site", "name": "get_url", "alias": "gu"},
			want:   "from frappe.utils import get_url as gu",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			console := f.openConsole(t)
			f.prompter.inputs = tt.inputs
			f.prompter.picks = tt.picks

			result, err := f.exec(t, "console.import_as", tt.params)
			require.NoError(t, err)
			require.True(t, result.Success, result.Message())
			assert.Equal(t, []string{tt.want}, console.submitted())
		})
	}
}

func TestImportAsCancelled(t *testing.T) {
	f := newFixture(t)
	console := f.openConsole(t)

	_, err := f.exec(t, "console.import_as", map[string]interface{}{"statement": "from frappe.utils import get_url"})
	assert.ErrorIs(t, err, prompt.ErrCancelled)
	assert.Empty(t, console.submitted())
}

func TestPasteText(t *testing.T) {
	f := newFixture(t)
	console := f.openConsole(t)

	_, err := f.exec(t, "console.paste", map[string]interface{}{
		"text": []interface{}{"doc = frappe.get_doc('User', 'Administrator')", "", "doc.name"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"doc = frappe.get_doc('User', 'Administrator')", "doc.name"}, console.submitted())
}

func TestPasteFileSelections(t *testing.T) {
	f := newFixture(t)
	console := f.openConsole(t)

	dir := t.TempDir()
	file := filepath.Join(dir, "scratch.py")
	require.NoError(t, os.WriteFile(file, []byte("import frappe\n\nfrappe.db.commit()\n"), 0o644))

	_, err := f.exec(t, "console.paste", map[string]interface{}{
		"file":       file,
		"selections": []string{"1", "2", "3:1-3:10"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"import frappe", "frappe.db"}, console.submitted())
}

func TestPasteBadSelection(t *testing.T) {
	f := newFixture(t)
	file := filepath.Join(t.TempDir(), "scratch.py")
	require.NoError(t, os.WriteFile(file, []byte("x = 1\n"), 0o644))

	result, err := f.exec(t, "console.paste", map[string]interface{}{"file": file, "selections": "zero"})
	require.NoError(t, err)
	assert.False(t, result.Success)
}

func TestNothingToPaste(t *testing.T) {
	f := newFixture(t)

	result, err := f.exec(t, "console.paste", map[string]interface{}{"text": []string{""}})
	require.NoError(t, err)
	assert.Equal(t, "Nothing to paste.", result.Message())

	f.clipboard.text = "\n\n"
	result, err = f.exec(t, "console.paste_clipboard", nil)
	require.NoError(t, err)
	assert.Equal(t, "Nothing to paste.", result.Message())
	assert.Empty(t, f.host.sessions)
}

func TestPasteClipboardSplitsLines(t *testing.T) {
	f := newFixture(t)
	console := f.openConsole(t)
	f.clipboard.text = "for i in range(3):\r\n    print(i)\r\n\r\nprint('done')\n\n"

	_, err := f.exec(t, "console.paste_clipboard", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"for i in range(3):", "    print(i)", "", "print('done')"}, console.submitted())
}

func TestAttach(t *testing.T) {
	f := newFixture(t)
	f.host.attachable = true

	_, err := f.exec(t, "console.open", map[string]interface{}{"attach": true})
	require.NoError(t, err)

	h := f.host.session("Bench Console")
	require.NotNil(t, h)
	assert.Equal(t, 1, h.attached)
}

func TestAttachUnsupported(t *testing.T) {
	f := newFixture(t)

	_, err := f.exec(t, "console.open", map[string]interface{}{"attach": true})
	assert.ErrorIs(t, err, ErrCannotAttach)
}

func TestExecuteRun(t *testing.T) {
	f := newFixture(t)
	f.prompter.inputs = []string{"{'user': 'Administrator'}"}

	result, err := f.exec(t, "execute.run", map[string]interface{}{
		"path": "frappe.utils.get_url",
		"args": "['x']",
	})
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, "frappe.utils.get_url", result.Data["path"])

	h := f.host.session("Bench Execute")
	require.NotNil(t, h)
	assert.Equal(t, []string{
		"bench execute frappe.utils.get_url --args '['x']' --kwargs '{'user': 'Administrator'}'",
	}, h.submitted(), "execute session has no startup command")

	require.Len(t, f.prompter.asked, 1, "only kwargs is prompted")
	assert.Nil(t, f.host.session("Bench Console"))
}

func TestExecuteRespectsAcceptFlags(t *testing.T) {
	f := newFixture(t)
	f.deps.Settings.Bench.AcceptArgs = false
	f.deps.Settings.Bench.SiteName = "erp.local"
	executor := NewExecutor(f.deps)

	_, err := executor.Execute(context.Background(), "execute.run", map[string]interface{}{
		"path":   "frappe.utils.get_url",
		"args":   "['ignored']",
		"kwargs": "",
	}, nil)
	require.NoError(t, err)

	h := f.host.session("Bench Execute")
	require.NotNil(t, h)
	assert.Equal(t, []string{"bench --site erp.local execute frappe.utils.get_url"}, h.submitted())
	assert.Empty(t, f.prompter.asked)
}

func TestExecutePathSources(t *testing.T) {
	tests := []struct {
		name string
		clip string
		want string
	}{
		{name: "dotted path", clip: "frappe.utils.get_url\n", want: "frappe.utils.get_url"},
		{name: "import statement", clip: "from frappe.utils import get_url, get_site", want: "frappe.utils.get_url"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.clipboard.path = tt.clip

			result, err := f.exec(t, "execute.run", map[string]interface{}{"args": "", "kwargs": ""})
			require.NoError(t, err)
			require.True(t, result.Success, result.Message())
			assert.Equal(t, []string{"bench execute " + tt.want}, f.host.session("Bench Execute").submitted())
		})
	}
}

func TestExecuteNoPath(t *testing.T) {
	f := newFixture(t)
	f.clipboard.path = "not a path"

	result, err := f.exec(t, "execute.run", nil)
	require.NoError(t, err)
	assert.Equal(t, "No python path found.", result.Message())
	assert.Empty(t, f.host.sessions)
}

func TestExecuteArgsCancelled(t *testing.T) {
	f := newFixture(t)

	_, err := f.exec(t, "execute.run", map[string]interface{}{"path": "frappe.utils.get_url"})
	assert.ErrorIs(t, err, prompt.ErrCancelled)
	assert.Empty(t, f.host.sessions)
}

// benchTree lays out a bench with one app and one site.
func benchTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"apps/frappe/frappe/__init__.py":        "",
		"apps/frappe/frappe/utils/__init__.py":  "def get_url():\n    pass\n",
		"apps/frappe/frappe/desk/__init__.py":   "",
		"apps/frappe/frappe/desk/reportview.py": "def get_list():\n    pass\n",
		"apps/frappe/frappe/client.py":          "def get_list():\n    pass\n",
		"sites/erp.local/site_config.json":      "{}",
		"sites/common_site_config.json":         "{}",
	}
	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
	return root
}

func TestImportFromFileAndSymbol(t *testing.T) {
	f := newFixture(t)
	root := benchTree(t)
	f.deps.Settings.BenchPath = root
	console := f.openConsole(t)
	c := NewConsole(f.deps)

	_, err := c.Execute(context.Background(), "console.run", map[string]interface{}{
		"file":   filepath.Join(root, "apps/frappe/frappe/utils/__init__.py"),
		"symbol": "get_url",
	}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"from frappe.utils import get_url", "get_url()"}, console.submitted())
}

func TestImportLocatedSymbol(t *testing.T) {
	f := newFixture(t)
	root := benchTree(t)
	f.deps.Settings.BenchPath = root
	console := f.openConsole(t)
	c := NewConsole(f.deps)

	_, err := c.Execute(context.Background(), "console.import", map[string]interface{}{"symbol": "get_url"}, nil)
	require.NoError(t, err)

	f.prompter.picks = []string{"frappe.desk.reportview.get_list"}
	_, err = c.Execute(context.Background(), "console.import", map[string]interface{}{"symbol": "get_list"}, nil)
	require.NoError(t, err)

	require.Len(t, f.prompter.offered, 1)
	assert.Equal(t, []string{"frappe.client.get_list", "frappe.desk.reportview.get_list"}, f.prompter.offered[0].Items)
	assert.Equal(t, []string{
		"from frappe.utils import get_url",
		"from frappe.desk.reportview import get_list",
	}, console.submitted())

	result, err := c.Execute(context.Background(), "console.import", map[string]interface{}{"symbol": "missing"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "No definition found for missing.", result.Message())
}

func TestWorkspaceTools(t *testing.T) {
	f := newFixture(t)
	root := benchTree(t)
	f.deps.Settings.BenchPath = root
	w := NewWorkspace(f.deps)
	ctx := context.Background()

	result, err := w.Execute(ctx, "workspace.sites", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"erp.local"}, result.Data["sites"])

	result, err = w.Execute(ctx, "workspace.locate", map[string]interface{}{"symbol": "get_list"}, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"frappe.client.get_list", "frappe.desk.reportview.get_list"}, result.Data["matches"])
	assert.Contains(t, result.Message(), "frappe.client.get_list\tapps/frappe/frappe/client.py:1")

	result, err = w.Execute(ctx, "workspace.locate", map[string]interface{}{}, nil)
	require.NoError(t, err)
	assert.False(t, result.Success)

	f.openConsole(t)
	result, err = w.Execute(ctx, "workspace.sessions", nil, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Bench Console"}, result.Data["sessions"])
}

func TestNoSites(t *testing.T) {
	f := newFixture(t)

	result, err := f.exec(t, "workspace.sites", nil)
	require.NoError(t, err)
	assert.False(t, result.Success)
	assert.Contains(t, result.Message(), "No sites found")
}

func TestUnknownTool(t *testing.T) {
	f := newFixture(t)

	for _, toolID := range []string{"console.nope", "execute.nope", "workspace.nope"} {
		result, err := f.exec(t, toolID, nil)
		require.NoError(t, err)
		assert.Equal(t, "unknown tool: "+toolID, result.Message())
	}
}

func TestDefinitions(t *testing.T) {
	f := newFixture(t)

	services := f.registry.List(nil)
	require.Len(t, services, 3)

	ids := map[string]bool{}
	for _, svc := range services {
		for _, tool := range svc.Tools {
			ids[tool.ID] = true
		}
	}
	for _, id := range []string{
		"console.open", "console.paste", "console.paste_clipboard", "console.import",
		"console.import_all", "console.import_as", "console.run",
		"execute.run", "workspace.sites", "workspace.locate", "workspace.sessions",
	} {
		assert.True(t, ids[id], id)
	}
}
