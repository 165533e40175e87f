package session

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"

	"github.com/GriffinCanCode/benchplay/internal/logging"
)

// DefaultStartupDelay is how long a freshly created session is given to
// finish its own initialization before the startup command is submitted.
const DefaultStartupDelay = 1500 * time.Millisecond

// ErrHost wraps every failure reported by the terminal host.
var ErrHost = errors.New("terminal host failure")

// Handle is a live session owned by the host.
type Handle interface {
	Name() string
	// Submit sends line as one submitted input.
	Submit(ctx context.Context, line string) error
}

// Attacher is implemented by handles that can hand the session over to the
// caller's terminal.
type Attacher interface {
	Attach(ctx context.Context, in io.Reader, out io.Writer) error
}

// Host is the terminal environment that owns sessions.
type Host interface {
	// Sessions lists currently open sessions in a stable order.
	Sessions(ctx context.Context) ([]Handle, error)
	Create(ctx context.Context, name string) (Handle, error)
}

// NameNormalizer is implemented by hosts that rewrite session names on
// creation, so lookups compare against the name the host actually stores.
type NameNormalizer interface {
	NormalizeName(name string) string
}

// Option configures a Registry.
type Option func(*Registry)

// WithStartupDelay overrides DefaultStartupDelay. Zero disables the wait.
func WithStartupDelay(d time.Duration) Option {
	return func(r *Registry) {
		if d >= 0 {
			r.delay = d
		}
	}
}

// WithLineInterval paces submitted lines so that consecutive lines are at
// least d apart. Zero leaves delivery unthrottled.
func WithLineInterval(d time.Duration) Option {
	return func(r *Registry) {
		if d > 0 {
			r.pace = rate.NewLimiter(rate.Every(d), 1)
		}
	}
}

// WithLogger sets the registry logger.
func WithLogger(logger *logging.Logger) Option {
	return func(r *Registry) {
		if logger != nil {
			r.log = logger
		}
	}
}

// Registry resolves session names against a Host.
type Registry struct {
	host  Host
	delay time.Duration
	log   *logging.Logger
	pace  *rate.Limiter
	group singleflight.Group
}

// NewRegistry creates a registry over host.
func NewRegistry(host Host, opts ...Option) *Registry {
	r := &Registry{
		host:  host,
		delay: DefaultStartupDelay,
		log:   logging.NewNop(),
		pace:  rate.NewLimiter(rate.Inf, 0),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// StartupDelay returns the configured delay.
func (r *Registry) StartupDelay() time.Duration {
	return r.delay
}

// Sessions lists the names of the sessions the host has open.
func (r *Registry) Sessions(ctx context.Context) ([]string, error) {
	sessions, err := r.host.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", ErrHost, err)
	}

	names := make([]string, 0, len(sessions))
	for _, h := range sessions {
		names = append(names, h.Name())
	}
	return names, nil
}

// Resolve returns the open session called name, creating it when absent.
// startup is submitted only on the creation path.
//
// Once a lookup starts it runs to completion even if ctx is cancelled, so a
// created session always receives its startup command. The cancellation is
// reported to the caller afterwards.
func (r *Registry) Resolve(ctx context.Context, name, startup string) (Handle, error) {
	if name == "" {
		return nil, fmt.Errorf("session name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Shared work must not inherit one caller's cancellation.
	work := context.WithoutCancel(ctx)
	v, err, shared := r.group.Do(name, func() (interface{}, error) {
		return r.resolve(work, name, startup)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		r.log.Debug("session lookup shared", zap.String("session", name))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return v.(Handle), nil
}

func (r *Registry) resolve(ctx context.Context, name, startup string) (Handle, error) {
	if h, err := r.find(ctx, name); err != nil || h != nil {
		return h, err
	}

	h, err := r.host.Create(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("%w: create %q: %v", ErrHost, name, err)
	}
	r.log.Info("session created", zap.String("session", name), zap.Duration("startup_delay", r.delay))

	r.wait()

	if startup != "" {
		if err := h.Submit(ctx, startup); err != nil {
			return nil, fmt.Errorf("%w: startup command for %q: %v", ErrHost, name, err)
		}
		r.log.Debug("startup command sent", zap.String("session", name), zap.String("command", startup))
	}
	return h, nil
}

// find returns the first open session called name, or nil.
func (r *Registry) find(ctx context.Context, name string) (Handle, error) {
	sessions, err := r.host.Sessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list sessions: %v", ErrHost, err)
	}

	want := name
	if n, ok := r.host.(NameNormalizer); ok {
		want = n.NormalizeName(name)
	}

	for _, h := range sessions {
		if h.Name() == want {
			r.log.Debug("session reused", zap.String("session", name))
			return h, nil
		}
	}
	return nil, nil
}

func (r *Registry) wait() {
	if r.delay > 0 {
		time.Sleep(r.delay)
	}
}

// Deliver resolves name and submits each line in order. Lines already
// submitted stay submitted if a later one fails.
func (r *Registry) Deliver(ctx context.Context, name, startup string, lines ...string) error {
	h, err := r.Resolve(ctx, name, startup)
	if err != nil {
		return err
	}

	for i, line := range lines {
		if err := r.pace.Wait(ctx); err != nil {
			return err
		}
		if err := h.Submit(ctx, line); err != nil {
			return fmt.Errorf("%w: submit line %d to %q: %v", ErrHost, i+1, name, err)
		}
	}

	r.log.Debug("lines delivered", zap.String("session", name), zap.Int("count", len(lines)))
	return nil
}
