// Package prompt asks the user for input on a terminal: free text input
// boxes and numbered quick-picks.
package prompt

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/term"
)

var (
	// ErrCancelled is returned when the user dismisses a prompt. Callers abort silently.
	ErrCancelled = errors.New("prompt cancelled")
	// ErrNotInteractive is returned by Pick when stdin is not a terminal.
	ErrNotInteractive = errors.New("a choice is required but input is not a terminal")
	// ErrInvalidChoice is returned when a pick answer matches no item.
	ErrInvalidChoice = errors.New("invalid choice")
)

// Input describes an input box.
type Input struct {
	Prompt      string
	Placeholder string
	// Default is returned when the user submits an empty line.
	Default string
}

// Pick describes a quick-pick.
type Pick struct {
	Title string
	Items []string
}

// Prompter asks questions.
type Prompter interface {
	Input(ctx context.Context, in Input) (string, error)
	Pick(ctx context.Context, p Pick) (string, error)
}

// Terminal is a line based Prompter. It is also the io.Reader to hand to
// anything that reads the same input after prompting: reads return input
// the prompter already buffered, including a line still pending from a
// cancelled prompt, before reading further.
type Terminal struct {
	in          *bufio.Reader
	out         io.Writer
	file        *os.File
	interactive bool

	mu      sync.Mutex
	pending chan lineResult
	carry   []byte
}

// New creates a prompter on stdin/stdout style files. Interactivity follows
// whether in is a terminal.
func New(in *os.File, out io.Writer) *Terminal {
	return &Terminal{
		in:          bufio.NewReader(in),
		out:         out,
		file:        in,
		interactive: term.IsTerminal(int(in.Fd())),
	}
}

// NewWithReader creates an interactive prompter over arbitrary streams.
func NewWithReader(in io.Reader, out io.Writer) *Terminal {
	return &Terminal{in: bufio.NewReader(in), out: out, interactive: true}
}

// Fd returns the descriptor of the underlying file, or an invalid descriptor
// for prompters built over plain readers.
func (t *Terminal) Fd() uintptr {
	if t.file == nil {
		return ^uintptr(0)
	}
	return t.file.Fd()
}

// Read implements io.Reader over the prompter's input.
func (t *Terminal) Read(p []byte) (int, error) {
	if ch := t.takePending(); ch != nil {
		res := <-ch
		t.carry = append(t.carry, res.line...)
		if res.err != nil && len(t.carry) == 0 {
			return 0, res.err
		}
	}
	if len(t.carry) > 0 {
		n := copy(p, t.carry)
		t.carry = t.carry[n:]
		return n, nil
	}
	return t.in.Read(p)
}

func (t *Terminal) takePending() chan lineResult {
	t.mu.Lock()
	defer t.mu.Unlock()
	ch := t.pending
	t.pending = nil
	return ch
}

// Interactive reports whether answers are read from a terminal.
func (t *Terminal) Interactive() bool {
	return t.interactive
}

// Input reads one line. Without a terminal the default is returned unasked.
func (t *Terminal) Input(ctx context.Context, in Input) (string, error) {
	if !t.interactive {
		return in.Default, nil
	}

	label := in.Prompt
	switch {
	case in.Default != "":
		label += fmt.Sprintf(" [%s]", in.Default)
	case in.Placeholder != "":
		label += fmt.Sprintf(" (e.g. %s)", in.Placeholder)
	}
	fmt.Fprintf(t.out, "%s: ", label)

	line, err := t.readLine(ctx)
	if err != nil {
		return "", err
	}
	if line == "" {
		return in.Default, nil
	}
	return line, nil
}

// Pick lists items and reads a 1-based index or an exact item. An empty
// answer cancels.
func (t *Terminal) Pick(ctx context.Context, p Pick) (string, error) {
	if len(p.Items) == 0 {
		return "", ErrCancelled
	}
	if !t.interactive {
		return "", ErrNotInteractive
	}

	if p.Title != "" {
		fmt.Fprintln(t.out, p.Title)
	}
	for i, item := range p.Items {
		fmt.Fprintf(t.out, "  %d) %s\n", i+1, item)
	}
	fmt.Fprint(t.out, "> ")

	answer, err := t.readLine(ctx)
	if err != nil {
		return "", err
	}
	if answer == "" {
		return "", ErrCancelled
	}
	if n, err := strconv.Atoi(answer); err == nil {
		if n < 1 || n > len(p.Items) {
			return "", fmt.Errorf("%w: %d", ErrInvalidChoice, n)
		}
		return p.Items[n-1], nil
	}
	for _, item := range p.Items {
		if item == answer {
			return item, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidChoice, answer)
}

type lineResult struct {
	line string
	err  error
}

// readLine waits for one line. A read abandoned by cancellation stays
// pending and is consumed by the next readLine or Read, so only one reader
// ever touches the input.
func (t *Terminal) readLine(ctx context.Context) (string, error) {
	done := t.takePending()
	if done == nil {
		done = make(chan lineResult, 1)
		go func() {
			line, err := t.in.ReadString('\n')
			done <- lineResult{line: line, err: err}
		}()
	}

	select {
	case <-ctx.Done():
		t.mu.Lock()
		t.pending = done
		t.mu.Unlock()
		return "", ctx.Err()
	case res := <-done:
		if res.err != nil {
			if errors.Is(res.err, io.EOF) {
				if strings.TrimSpace(res.line) == "" {
					return "", ErrCancelled
				}
			} else {
				return "", res.err
			}
		}
		return strings.TrimSpace(res.line), nil
	}
}
