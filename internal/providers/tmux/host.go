package tmux

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/benchplay/internal/domain/session"
)

// Runner executes one tmux invocation and returns its combined output.
type Runner interface {
	Run(ctx context.Context, stdin string, args ...string) (string, error)
}

// Options configures a Host.
type Options struct {
	Binary     string // defaults to "tmux"
	Socket     string // optional -S socket path
	Shell      string // optional shell command for new sessions
	WorkingDir string
}

// Host is a session.Host backed by a tmux server.
type Host struct {
	runner Runner
	opts   Options
	attach func(ctx context.Context, args []string, in io.Reader, out io.Writer) error
}

// NewHost creates a host that shells out to tmux.
func NewHost(opts Options) *Host {
	if opts.Binary == "" {
		opts.Binary = "tmux"
	}
	r := &execRunner{binary: opts.Binary, socket: opts.Socket}
	return &Host{runner: r, opts: opts, attach: r.interactive}
}

// NewHostWithRunner creates a host over a custom runner.
func NewHostWithRunner(runner Runner, opts Options) *Host {
	return &Host{
		runner: runner,
		opts:   opts,
		attach: func(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
			_, err := runner.Run(ctx, "", args...)
			return err
		},
	}
}

// NormalizeName mirrors tmux's own rewriting of session names.
func (h *Host) NormalizeName(name string) string {
	return strings.NewReplacer(".", "_", ":", "_").Replace(name)
}

// Sessions lists sessions ordered by creation time, then name.
func (h *Host) Sessions(ctx context.Context) ([]session.Handle, error) {
	out, err := h.runner.Run(ctx, "", "list-sessions", "-F", "#{session_created}\t#{session_name}")
	if err != nil {
		if isNoServerOutput(out) {
			return nil, nil
		}
		return nil, fmt.Errorf("tmux list-sessions: %w (%s)", err, strings.TrimSpace(out))
	}

	type entry struct {
		created int64
		name    string
	}
	var entries []entry
	for _, line := range strings.Split(out, "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" {
			continue
		}
		created, name, ok := strings.Cut(line, "\t")
		if !ok {
			continue
		}
		ts, _ := strconv.ParseInt(created, 10, 64)
		entries = append(entries, entry{created: ts, name: name})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		if entries[i].created != entries[j].created {
			return entries[i].created < entries[j].created
		}
		return entries[i].name < entries[j].name
	})

	handles := make([]session.Handle, 0, len(entries))
	for _, e := range entries {
		handles = append(handles, &handle{host: h, name: e.name})
	}
	return handles, nil
}

// Create starts a detached session.
func (h *Host) Create(ctx context.Context, name string) (session.Handle, error) {
	name = h.NormalizeName(name)

	args := []string{"new-session", "-d", "-s", name}
	if h.opts.WorkingDir != "" {
		args = append(args, "-c", h.opts.WorkingDir)
	}
	if h.opts.Shell != "" {
		args = append(args, h.opts.Shell)
	}

	if out, err := h.runner.Run(ctx, "", args...); err != nil {
		return nil, fmt.Errorf("tmux new-session: %w (%s)", err, strings.TrimSpace(out))
	}
	return &handle{host: h, name: name}, nil
}

type handle struct {
	host *Host
	name string
}

func (h *handle) Name() string { return h.name }

// Submit pastes line through a one-shot buffer, then presses Enter.
func (h *handle) Submit(ctx context.Context, line string) error {
	if line == "" {
		return h.enter(ctx)
	}

	buffer := "benchplay-" + uuid.NewString()

	if out, err := h.host.runner.Run(ctx, line, "load-buffer", "-b", buffer, "-"); err != nil {
		return fmt.Errorf("failed to load tmux buffer: %w (%s)", err, strings.TrimSpace(out))
	}
	if out, err := h.host.runner.Run(ctx, "", "paste-buffer", "-d", "-b", buffer, "-t", paneTarget(h.name)); err != nil {
		_, _ = h.host.runner.Run(ctx, "", "delete-buffer", "-b", buffer)
		return fmt.Errorf("failed to paste tmux buffer: %w (%s)", err, strings.TrimSpace(out))
	}
	return h.enter(ctx)
}

func (h *handle) enter(ctx context.Context) error {
	if out, err := h.host.runner.Run(ctx, "", "send-keys", "-t", paneTarget(h.name), "Enter"); err != nil {
		return fmt.Errorf("failed to send enter: %w (%s)", err, strings.TrimSpace(out))
	}
	return nil
}

// Attach switches the current tmux client to the session, or attaches
// the caller's terminal when not already inside tmux.
func (h *handle) Attach(ctx context.Context, in io.Reader, out io.Writer) error {
	args := []string{"attach-session", "-t", sessionTarget(h.name)}
	if os.Getenv("TMUX") != "" {
		args = []string{"switch-client", "-t", sessionTarget(h.name)}
	}
	return h.host.attach(ctx, args, in, out)
}

// sessionTarget matches the session name exactly instead of by prefix.
func sessionTarget(name string) string {
	return "=" + name
}

func paneTarget(name string) string {
	return "=" + name + ":"
}

func isNoServerOutput(output string) bool {
	msg := strings.ToLower(strings.TrimSpace(output))
	if msg == "" {
		return false
	}
	return strings.Contains(msg, "no server running") ||
		strings.Contains(msg, "failed to connect to server") ||
		strings.Contains(msg, "error connecting to") ||
		msg == "no sessions" ||
		strings.HasPrefix(msg, "no sessions ")
}

type execRunner struct {
	binary string
	socket string
}

func (r *execRunner) args(args []string) []string {
	if r.socket == "" {
		return args
	}
	return append([]string{"-S", r.socket}, args...)
}

func (r *execRunner) Run(ctx context.Context, stdin string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.binary, r.args(args)...)
	if stdin != "" {
		cmd.Stdin = strings.NewReader(stdin)
	}
	out, err := cmd.CombinedOutput()
	return string(out), err
}

func (r *execRunner) interactive(ctx context.Context, args []string, in io.Reader, out io.Writer) error {
	cmd := exec.CommandContext(ctx, r.binary, r.args(args)...)
	cmd.Stdin = in
	cmd.Stdout = out
	cmd.Stderr = out
	return cmd.Run()
}
