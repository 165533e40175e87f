package tmux

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/benchplay/internal/domain/session"
)

type call struct {
	stdin string
	args  []string
}

// fakeRunner emulates the handful of tmux commands the host uses.
type fakeRunner struct {
	mu       sync.Mutex
	calls    []call
	sessions []string
	created  map[string]int64
	clock    int64
	buffers  map[string]string
	panes    map[string][]string
	noServer bool
	failOn   string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{
		created: map[string]int64{},
		buffers: map[string]string{},
		panes:   map[string][]string{},
	}
}

func (f *fakeRunner) Run(ctx context.Context, stdin string, args ...string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.calls = append(f.calls, call{stdin: stdin, args: args})
	if f.failOn != "" && args[0] == f.failOn {
		return "boom", errors.New("exit status 1")
	}

	switch args[0] {
	case "list-sessions":
		if f.noServer || len(f.sessions) == 0 {
			return "no server running on /tmp/tmux-1000/default\n", errors.New("exit status 1")
		}
		var b strings.Builder
		for _, name := range f.sessions {
			b.WriteString(strconv.FormatInt(f.created[name], 10) + "\t" + name)
			b.WriteString("\n")
		}
		return b.String(), nil
	case "new-session":
		name := args[3]
		f.clock++
		f.sessions = append(f.sessions, name)
		f.created[name] = f.clock
	case "load-buffer":
		f.buffers[args[2]] = stdin
	case "paste-buffer":
		buf, target := args[3], args[5]
		f.panes[target] = append(f.panes[target], f.buffers[buf])
		delete(f.buffers, buf)
	case "send-keys":
		target := args[2]
		f.panes[target] = append(f.panes[target], "<Enter>")
	}
	return "", nil
}

func TestSessionsNoServer(t *testing.T) {
	host := NewHostWithRunner(newFakeRunner(), Options{})

	sessions, err := host.Sessions(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sessions)
}

func TestSessionsOrderedByCreation(t *testing.T) {
	r := newFakeRunner()
	r.sessions = []string{"b", "a", "c"}
	r.created = map[string]int64{"a": 2, "b": 3, "c": 1}
	host := NewHostWithRunner(r, Options{})

	sessions, err := host.Sessions(context.Background())
	require.NoError(t, err)

	var names []string
	for _, s := range sessions {
		names = append(names, s.Name())
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
}

func TestSessionsError(t *testing.T) {
	r := newFakeRunner()
	r.sessions = []string{"x"}
	r.failOn = "list-sessions"
	host := NewHostWithRunner(r, Options{})

	_, err := host.Sessions(context.Background())
	assert.Error(t, err)
}

func TestCreateAndSubmit(t *testing.T) {
	r := newFakeRunner()
	host := NewHostWithRunner(r, Options{WorkingDir: "/srv/bench", Shell: "/bin/zsh"})
	ctx := context.Background()

	h, err := host.Create(ctx, "Bench Console")
	require.NoError(t, err)
	assert.Equal(t, "Bench Console", h.Name())
	assert.Equal(t, []string{"new-session", "-d", "-s", "Bench Console", "-c", "/srv/bench", "/bin/zsh"}, r.calls[0].args)

	require.NoError(t, h.Submit(ctx, "from frappe.utils import get_url"))
	require.NoError(t, h.Submit(ctx, ""))

	assert.Equal(t, []string{"from frappe.utils import get_url", "<Enter>", "<Enter>"}, r.panes["=Bench Console:"])
	assert.Empty(t, r.buffers, "paste buffers must not leak")
}

func TestSubmitPasteFailureDeletesBuffer(t *testing.T) {
	r := newFakeRunner()
	r.failOn = "paste-buffer"
	host := NewHostWithRunner(r, Options{})

	h, err := host.Create(context.Background(), "s")
	require.NoError(t, err)

	err = h.Submit(context.Background(), "x")
	require.Error(t, err)
	assert.Equal(t, "delete-buffer", r.calls[len(r.calls)-1].args[0])
}

func TestRegistryReusesNormalizedName(t *testing.T) {
	r := newFakeRunner()
	host := NewHostWithRunner(r, Options{})
	registry := session.NewRegistry(host, session.WithStartupDelay(0))
	ctx := context.Background()

	require.NoError(t, registry.Deliver(ctx, "site1.local console", "bench console", "1+1"))
	require.NoError(t, registry.Deliver(ctx, "site1.local console", "bench console", "2+2"))

	assert.Equal(t, []string{"site1_local console"}, r.sessions)
	assert.Equal(t, []string{"bench console", "<Enter>", "1+1", "<Enter>", "2+2", "<Enter>"}, r.panes["=site1_local console:"])
}

func TestAttachArgs(t *testing.T) {
	r := newFakeRunner()
	host := NewHostWithRunner(r, Options{})

	h, err := host.Create(context.Background(), "Bench Console")
	require.NoError(t, err)

	t.Setenv("TMUX", "")
	require.NoError(t, h.(session.Attacher).Attach(context.Background(), nil, nil))
	assert.Equal(t, []string{"attach-session", "-t", "=Bench Console"}, r.calls[len(r.calls)-1].args)

	t.Setenv("TMUX", "/tmp/tmux-1000/default,1,0")
	require.NoError(t, h.(session.Attacher).Attach(context.Background(), nil, nil))
	assert.Equal(t, []string{"switch-client", "-t", "=Bench Console"}, r.calls[len(r.calls)-1].args)
}
