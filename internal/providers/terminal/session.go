package terminal

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sort"
	"sync"
	"time"

	"github.com/creack/pty"
	"golang.org/x/term"

	"github.com/GriffinCanCode/benchplay/internal/shared/id"
)

const (
	// outputBufferSize bounds the output kept for a session nobody is attached to.
	outputBufferSize = 1024 * 1024
	// drainTimeout caps how long an exited session waits for trailing output.
	drainTimeout = 500 * time.Millisecond
)

// Manager manages terminal sessions
type Manager struct {
	sessions sync.Map // map[string]*Session
}

// NewManager creates a new session manager
func NewManager() *Manager {
	return &Manager{}
}

// CreateSession creates a new terminal session with PTY
func (m *Manager) CreateSession(opts CreateOptions) (*SessionInfo, error) {
	shell := opts.Shell
	if shell == "" {
		shell = os.Getenv("SHELL")
		if shell == "" {
			shell = "/bin/bash"
		}
	}

	workingDir := opts.WorkingDir
	if workingDir == "" {
		if wd, err := os.Getwd(); err == nil {
			workingDir = wd
		} else {
			workingDir = os.TempDir()
		}
	}

	cols, rows := opts.Cols, opts.Rows
	if cols <= 0 {
		cols = 120
	}
	if rows <= 0 {
		rows = 40
	}

	sessionID := id.NewSessionID().String()

	cmd := exec.Command(shell)
	cmd.Dir = workingDir
	cmd.Env = append(os.Environ(), "TERM=xterm-256color")
	for key, value := range opts.Env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", key, value))
	}

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to start PTY: %w", err)
	}

	session := &Session{
		ID:         sessionID,
		Name:       opts.Name,
		Shell:      shell,
		WorkingDir: workingDir,
		Cols:       cols,
		Rows:       rows,
		StartedAt:  time.Now(),
		cmd:        cmd,
		ptmx:       ptmx,
		done:       make(chan struct{}),
		drained:    make(chan struct{}),
		outputBuf:  NewBuffer(outputBufferSize),
	}

	m.sessions.Store(sessionID, session)

	go m.readOutput(session)
	go m.monitorProcess(session)

	info := session.info()
	return &info, nil
}

// readOutput continuously reads from PTY and buffers or mirrors output
func (m *Manager) readOutput(session *Session) {
	defer close(session.drained)

	buf := make([]byte, 4096)
	for {
		n, err := session.ptmx.Read(buf)
		if n > 0 {
			session.mu.RLock()
			if session.mirror != nil {
				_, _ = session.mirror.Write(buf[:n])
			} else {
				_, _ = session.outputBuf.Write(buf[:n])
			}
			session.mu.RUnlock()
		}
		if err != nil {
			return
		}
	}
}

// monitorProcess waits for process to exit and cleans up
func (m *Manager) monitorProcess(session *Session) {
	_ = session.cmd.Wait()

	// Let the reader pick up whatever the shell wrote before exiting.
	select {
	case <-session.drained:
	case <-time.After(drainTimeout):
	}

	session.mu.Lock()
	session.closed = true
	session.mu.Unlock()

	_ = session.ptmx.Close()
	close(session.done)
}

func (m *Manager) load(sessionID string) (*Session, error) {
	value, ok := m.sessions.Load(sessionID)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", sessionID)
	}
	return value.(*Session), nil
}

// Write sends input to a session
func (m *Manager) Write(sessionID string, input []byte) error {
	session, err := m.load(sessionID)
	if err != nil {
		return err
	}

	session.mu.RLock()
	closed := session.closed
	session.mu.RUnlock()

	if closed {
		return fmt.Errorf("session is closed: %s", sessionID)
	}

	_, err = session.ptmx.Write(input)
	return err
}

// Resize changes terminal dimensions
func (m *Manager) Resize(sessionID string, cols, rows int) error {
	session, err := m.load(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	defer session.mu.Unlock()

	if session.closed {
		return fmt.Errorf("session is closed: %s", sessionID)
	}

	session.Cols = cols
	session.Rows = rows

	return pty.Setsize(session.ptmx, &pty.Winsize{
		Rows: uint16(rows),
		Cols: uint16(cols),
	})
}

// Kill terminates a session and forgets it
func (m *Manager) Kill(sessionID string) error {
	session, err := m.load(sessionID)
	if err != nil {
		return err
	}

	m.sessions.Delete(sessionID)

	session.mu.Lock()
	if session.closed {
		session.mu.Unlock()
		return nil // Already closed
	}
	session.closed = true
	session.mu.Unlock()

	if session.cmd.Process != nil {
		_ = session.cmd.Process.Kill()
	}
	<-session.done

	return nil
}

// KillAll terminates every session.
func (m *Manager) KillAll() {
	for _, info := range m.ListSessions() {
		_ = m.Kill(info.ID)
	}
}

// ListSessions returns all sessions in creation order
func (m *Manager) ListSessions() []SessionInfo {
	var sessions []SessionInfo

	m.sessions.Range(func(key, value interface{}) bool {
		sessions = append(sessions, value.(*Session).info())
		return true
	})

	sort.Slice(sessions, func(i, j int) bool {
		if !sessions[i].StartedAt.Equal(sessions[j].StartedAt) {
			return sessions[i].StartedAt.Before(sessions[j].StartedAt)
		}
		return sessions[i].ID < sessions[j].ID
	})

	return sessions
}

// Attach replays buffered output to out, streams live output there, and
// forwards in to the session until the shell exits or ctx ends. When in is
// a terminal it is switched to raw mode for the duration.
func (m *Manager) Attach(ctx context.Context, sessionID string, in io.Reader, out io.Writer) error {
	session, err := m.load(sessionID)
	if err != nil {
		return err
	}

	session.mu.Lock()
	if pending := session.outputBuf.ReadAll(); len(pending) > 0 {
		_, _ = out.Write(pending)
	}
	session.mirror = out
	session.mu.Unlock()

	defer func() {
		session.mu.Lock()
		session.mirror = nil
		session.mu.Unlock()
	}()

	if f, ok := in.(interface{ Fd() uintptr }); ok && term.IsTerminal(int(f.Fd())) {
		fd := int(f.Fd())
		if cols, rows, err := term.GetSize(fd); err == nil {
			_ = m.Resize(sessionID, cols, rows)
		}
		state, err := term.MakeRaw(fd)
		if err != nil {
			return fmt.Errorf("failed to enter raw mode: %w", err)
		}
		defer func() { _ = term.Restore(fd, state) }()
	}

	go func() {
		_, _ = io.Copy(sessionWriter{manager: m, id: sessionID}, in)
	}()

	select {
	case <-session.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type sessionWriter struct {
	manager *Manager
	id      string
}

func (w sessionWriter) Write(p []byte) (int, error) {
	if err := w.manager.Write(w.id, p); err != nil {
		return 0, err
	}
	return len(p), nil
}
