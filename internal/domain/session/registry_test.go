package session

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeHandle struct {
	name    string
	mu      sync.Mutex
	lines   []string
	failAt  int
	created time.Time
}

func (h *fakeHandle) Name() string { return h.name }

func (h *fakeHandle) Submit(ctx context.Context, line string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.failAt > 0 && len(h.lines)+1 == h.failAt {
		return errors.New("pty closed")
	}
	h.lines = append(h.lines, line)
	return nil
}

func (h *fakeHandle) submitted() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.lines...)
}

type fakeHost struct {
	mu         sync.Mutex
	sessions   []*fakeHandle
	creates    int
	createErr  error
	listErr    error
	createHook func()
}

func (f *fakeHost) Sessions(ctx context.Context) ([]Handle, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]Handle, 0, len(f.sessions))
	for _, s := range f.sessions {
		out = append(out, s)
	}
	return out, nil
}

func (f *fakeHost) Create(ctx context.Context, name string) (Handle, error) {
	if f.createHook != nil {
		f.createHook()
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.creates++
	h := &fakeHandle{name: name, created: time.Now()}
	f.sessions = append(f.sessions, h)
	return h, nil
}

func (f *fakeHost) close(name string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.sessions[:0]
	for _, s := range f.sessions {
		if s.name != name {
			kept = append(kept, s)
		}
	}
	f.sessions = kept
}

func TestResolveCreatesThenReuses(t *testing.T) {
	host := &fakeHost{}
	r := NewRegistry(host, WithStartupDelay(0))
	ctx := context.Background()

	first, err := r.Resolve(ctx, "Console", "bench console")
	require.NoError(t, err)
	assert.Equal(t, 1, host.creates)
	assert.Equal(t, []string{"bench console"}, first.(*fakeHandle).submitted())

	second, err := r.Resolve(ctx, "Console", "bench console")
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, host.creates)
	assert.Equal(t, []string{"bench console"}, first.(*fakeHandle).submitted(), "startup must not be resent")
}

func TestResolveWithoutStartup(t *testing.T) {
	host := &fakeHost{}
	r := NewRegistry(host, WithStartupDelay(0))

	h, err := r.Resolve(context.Background(), "Bench Execute", "")
	require.NoError(t, err)
	assert.Empty(t, h.(*fakeHandle).submitted())
}

func TestResolveRecreatesClosedSession(t *testing.T) {
	host := &fakeHost{}
	r := NewRegistry(host, WithStartupDelay(0))
	ctx := context.Background()

	_, err := r.Resolve(ctx, "Console", "boot")
	require.NoError(t, err)
	host.close("Console")

	h, err := r.Resolve(ctx, "Console", "boot")
	require.NoError(t, err)
	assert.Equal(t, 2, host.creates)
	assert.Equal(t, []string{"boot"}, h.(*fakeHandle).submitted())
}

func TestResolvePicksFirstMatch(t *testing.T) {
	a := &fakeHandle{name: "Console"}
	b := &fakeHandle{name: "Console"}
	host := &fakeHost{sessions: []*fakeHandle{{name: "Other"}, a, b}}
	r := NewRegistry(host, WithStartupDelay(0))

	for i := 0; i < 3; i++ {
		h, err := r.Resolve(context.Background(), "Console", "boot")
		require.NoError(t, err)
		assert.Same(t, a, h)
	}
	assert.Zero(t, host.creates)
}

func TestResolveWaitsStartupDelay(t *testing.T) {
	host := &fakeHost{}
	delay := 40 * time.Millisecond
	r := NewRegistry(host, WithStartupDelay(delay))
	assert.Equal(t, delay, r.StartupDelay())

	start := time.Now()
	h, err := r.Resolve(context.Background(), "Console", "boot")
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), delay)
	assert.Equal(t, []string{"boot"}, h.(*fakeHandle).submitted())

	// reuse path does not wait
	start = time.Now()
	_, err = r.Resolve(context.Background(), "Console", "boot")
	require.NoError(t, err)
	assert.Less(t, time.Since(start), delay)
}

func TestResolveCancelledDuringDelayStillBootstraps(t *testing.T) {
	host := &fakeHost{}
	r := NewRegistry(host, WithStartupDelay(100*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := r.Resolve(ctx, "Console", "boot")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	h, err := r.Resolve(context.Background(), "Console", "boot")
	require.NoError(t, err)
	assert.Equal(t, 1, host.creates)
	assert.Equal(t, []string{"boot"}, h.(*fakeHandle).submitted())
}

func TestResolveCancelledBeforeLookup(t *testing.T) {
	host := &fakeHost{}
	r := NewRegistry(host, WithStartupDelay(0))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := r.Resolve(ctx, "Console", "boot")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, host.creates)
}

func TestResolveSharedLookupIgnoresOtherCallersCancellation(t *testing.T) {
	host := &fakeHost{}
	r := NewRegistry(host, WithStartupDelay(100*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	var wg sync.WaitGroup
	var errA, errB error
	var handleB Handle
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errA = r.Resolve(ctx, "Console", "boot")
	}()
	go func() {
		defer wg.Done()
		time.Sleep(5 * time.Millisecond)
		handleB, errB = r.Resolve(context.Background(), "Console", "boot")
	}()
	wg.Wait()

	assert.ErrorIs(t, errA, context.DeadlineExceeded)
	require.NoError(t, errB)
	assert.Equal(t, 1, host.creates)
	assert.Equal(t, []string{"boot"}, handleB.(*fakeHandle).submitted())
}

func TestResolveConcurrentCreatesOnce(t *testing.T) {
	release := make(chan struct{})
	host := &fakeHost{}
	host.createHook = func() { <-release }
	r := NewRegistry(host, WithStartupDelay(0))

	const callers = 8
	var wg sync.WaitGroup
	handles := make([]Handle, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			handles[i], errs[i] = r.Resolve(context.Background(), "Console", "boot")
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
	}
	// Callers that arrived after the first lookup finished reuse the session.
	assert.Equal(t, 1, host.creates)
	assert.Equal(t, []string{"boot"}, handles[0].(*fakeHandle).submitted())
}

func TestResolveHostFailures(t *testing.T) {
	r := NewRegistry(&fakeHost{createErr: errors.New("no tmux")}, WithStartupDelay(0))
	_, err := r.Resolve(context.Background(), "Console", "boot")
	assert.ErrorIs(t, err, ErrHost)

	r = NewRegistry(&fakeHost{listErr: errors.New("server exited")}, WithStartupDelay(0))
	_, err = r.Resolve(context.Background(), "Console", "boot")
	assert.ErrorIs(t, err, ErrHost)

	_, err = r.Resolve(context.Background(), "", "boot")
	assert.Error(t, err)
}

func TestDeliver(t *testing.T) {
	host := &fakeHost{}
	r := NewRegistry(host, WithStartupDelay(0))

	err := r.Deliver(context.Background(), "Console", "bench console",
		"from frappe.utils import get_url, get_site", "get_url()")
	require.NoError(t, err)

	require.Len(t, host.sessions, 1)
	assert.Equal(t, []string{
		"bench console",
		"from frappe.utils import get_url, get_site",
		"get_url()",
	}, host.sessions[0].submitted())
}

func TestDeliverPartialFailureKeepsSentLines(t *testing.T) {
	h := &fakeHandle{name: "Console", failAt: 2}
	host := &fakeHost{sessions: []*fakeHandle{h}}
	r := NewRegistry(host, WithStartupDelay(0))

	err := r.Deliver(context.Background(), "Console", "boot", "one", "two", "three")
	assert.ErrorIs(t, err, ErrHost)
	assert.Equal(t, []string{"one"}, h.submitted())
}

func TestSessions(t *testing.T) {
	host := &fakeHost{sessions: []*fakeHandle{{name: "Bench Console"}, {name: "Bench Execute"}}}
	r := NewRegistry(host, WithStartupDelay(0))

	names, err := r.Sessions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Bench Console", "Bench Execute"}, names)

	host.listErr = errors.New("server exited")
	_, err = r.Sessions(context.Background())
	assert.ErrorIs(t, err, ErrHost)
}

func TestDeliverPacesLines(t *testing.T) {
	host := &fakeHost{}
	r := NewRegistry(host, WithStartupDelay(0), WithLineInterval(20*time.Millisecond))

	start := time.Now()
	require.NoError(t, r.Deliver(context.Background(), "Console", "", "a", "b", "c"))
	assert.GreaterOrEqual(t, time.Since(start), 35*time.Millisecond)
	assert.Equal(t, []string{"a", "b", "c"}, host.sessions[0].submitted())
}

func TestDeliverPacingHonoursContext(t *testing.T) {
	h := &fakeHandle{name: "Console"}
	r := NewRegistry(&fakeHost{sessions: []*fakeHandle{h}}, WithLineInterval(time.Hour))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := r.Deliver(ctx, "Console", "", "first", "second")
	require.Error(t, err)
	assert.Equal(t, []string{"first"}, h.submitted())
}
