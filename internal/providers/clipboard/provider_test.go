package clipboard

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockBackend struct {
	text string
	err  error
}

func (m *mockBackend) ReadAll() (string, error) {
	return m.text, m.err
}

type mockRunner struct {
	calls []string
	err   error
	// copies simulates the companion writing to the clipboard
	copies  string
	backend *mockBackend
}

func (m *mockRunner) Run(ctx context.Context, command string) error {
	m.calls = append(m.calls, command)
	if m.err != nil {
		return m.err
	}
	if m.backend != nil {
		m.backend.text = m.copies
	}
	return nil
}

func TestPaste(t *testing.T) {
	backend := &mockBackend{text: "a = 1\nb = 2\n"}
	provider := NewProviderWith(backend, &mockRunner{}, Options{}, nil)

	text, err := provider.Paste(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "a = 1\nb = 2\n", text)
}

func TestPasteBackendError(t *testing.T) {
	provider := NewProviderWith(&mockBackend{err: errors.New("no xclip")}, &mockRunner{}, Options{}, nil)

	_, err := provider.Paste(context.Background())
	require.Error(t, err)
}

func TestCopyImportStatementRunsCompanion(t *testing.T) {
	backend := &mockBackend{text: "stale"}
	runner := &mockRunner{backend: backend, copies: "  from frappe.utils import get_url\n"}
	provider := NewProviderWith(backend, runner, Options{CopyImportCommand: "copy-import --line 12"}, nil)

	text, err := provider.CopyImportStatement(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "from frappe.utils import get_url", text)
	assert.Equal(t, []string{"copy-import --line 12"}, runner.calls)
}

func TestCopyWithoutCompanionReadsClipboard(t *testing.T) {
	runner := &mockRunner{}
	provider := NewProviderWith(&mockBackend{text: "frappe.utils.get_url\n"}, runner, Options{}, nil)

	text, err := provider.CopyPythonPath(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "frappe.utils.get_url", text)
	assert.Empty(t, runner.calls)
}

func TestCompanionMissing(t *testing.T) {
	runner := &mockRunner{err: errors.New("exit status 127")}
	provider := NewProviderWith(&mockBackend{}, runner, Options{CopyPathCommand: "copy-path"}, nil)

	_, err := provider.CopyPythonPath(context.Background())
	assert.ErrorIs(t, err, ErrCompanionMissing)
}

func TestShellRunner(t *testing.T) {
	require.NoError(t, shellRunner{}.Run(context.Background(), "true"))
	assert.Error(t, shellRunner{}.Run(context.Background(), "exit 3"))
}
