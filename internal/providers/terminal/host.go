package terminal

import (
	"context"
	"io"

	"github.com/GriffinCanCode/benchplay/internal/domain/session"
)

// submitSuffix is what the Enter key sends on a terminal.
const submitSuffix = "\r"

// HostOptions are applied to every session the host creates.
type HostOptions struct {
	Shell      string
	WorkingDir string
	Env        map[string]string
}

// Host exposes a Manager as a session.Host. Only active sessions are listed.
type Host struct {
	manager *Manager
	opts    HostOptions
}

// NewHost creates a PTY-backed host.
func NewHost(manager *Manager, opts HostOptions) *Host {
	return &Host{manager: manager, opts: opts}
}

// Sessions lists active sessions in creation order.
func (h *Host) Sessions(ctx context.Context) ([]session.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var handles []session.Handle
	for _, info := range h.manager.ListSessions() {
		if !info.Active {
			continue
		}
		handles = append(handles, &handle{manager: h.manager, id: info.ID, name: info.Name})
	}
	return handles, nil
}

// Create starts a shell session called name.
func (h *Host) Create(ctx context.Context, name string) (session.Handle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := h.manager.CreateSession(CreateOptions{
		Name:       name,
		Shell:      h.opts.Shell,
		WorkingDir: h.opts.WorkingDir,
		Env:        h.opts.Env,
	})
	if err != nil {
		return nil, err
	}
	return &handle{manager: h.manager, id: info.ID, name: name}, nil
}

type handle struct {
	manager *Manager
	id      string
	name    string
}

func (h *handle) Name() string { return h.name }

func (h *handle) Submit(ctx context.Context, line string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return h.manager.Write(h.id, []byte(line+submitSuffix))
}

func (h *handle) Attach(ctx context.Context, in io.Reader, out io.Writer) error {
	return h.manager.Attach(ctx, h.id, in, out)
}
