package pypath

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/charlievieth/fastwalk"
)

var (
	// ErrNotPython is returned for files without a .py extension.
	ErrNotPython = errors.New("not a python source file")
	// ErrOutsideRoot is returned when the file does not live under the root.
	ErrOutsideRoot = errors.New("file is outside the bench root")
	// ErrInvalidPath is returned for malformed dotted paths.
	ErrInvalidPath = errors.New("invalid dotted path")
)

var identifier = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// skipDirs are never descended into by Locate.
var skipDirs = map[string]bool{
	".git":         true,
	"__pycache__":  true,
	"node_modules": true,
	"env":          true,
	".venv":        true,
	"venv":         true,
	"logs":         true,
	"sites":        true,
}

// Reference names a symbol inside a Python module.
type Reference struct {
	Module string
	Symbol string
	File   string
	Line   int
}

// Dotted returns module.symbol, the form bench execute expects.
func (r Reference) Dotted() string {
	if r.Symbol == "" {
		return r.Module
	}
	return r.Module + "." + r.Symbol
}

// Statement returns the import statement for the symbol.
func (r Reference) Statement() string {
	return fmt.Sprintf("from %s import %s", r.Module, r.Symbol)
}

// ParseDotted splits a.b.c into module a.b and symbol c.
func ParseDotted(path string) (Reference, error) {
	path = strings.TrimSpace(path)
	i := strings.LastIndex(path, ".")
	if i <= 0 || i == len(path)-1 {
		return Reference{}, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	for _, part := range strings.Split(path, ".") {
		if !identifier.MatchString(part) {
			return Reference{}, fmt.Errorf("%w: %q", ErrInvalidPath, path)
		}
	}
	return Reference{Module: path[:i], Symbol: path[i+1:]}, nil
}

// ModulePath returns the dotted module path of file, climbing packages no
// higher than root.
func ModulePath(root, file string) (string, error) {
	if filepath.Ext(file) != ".py" {
		return "", fmt.Errorf("%w: %s", ErrNotPython, file)
	}

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return "", err
	}
	absFile, err := filepath.Abs(file)
	if err != nil {
		return "", err
	}
	if rel, err := filepath.Rel(absRoot, absFile); err != nil || strings.HasPrefix(rel, "..") {
		return "", fmt.Errorf("%w: %s", ErrOutsideRoot, file)
	}

	var parts []string
	if stem := strings.TrimSuffix(filepath.Base(absFile), ".py"); stem != "__init__" {
		parts = append(parts, stem)
	}

	dir := filepath.Dir(absFile)
	for dir != absRoot && strings.HasPrefix(dir, absRoot) {
		if _, err := os.Stat(filepath.Join(dir, "__init__.py")); err != nil {
			break
		}
		parts = append([]string{filepath.Base(dir)}, parts...)
		dir = filepath.Dir(dir)
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("%w: %s", ErrInvalidPath, file)
	}
	return strings.Join(parts, "."), nil
}

// FromFile builds a reference to symbol defined in file.
func FromFile(root, file, symbol string) (Reference, error) {
	if !identifier.MatchString(symbol) {
		return Reference{}, fmt.Errorf("%w: symbol %q", ErrInvalidPath, symbol)
	}
	module, err := ModulePath(root, file)
	if err != nil {
		return Reference{}, err
	}
	return Reference{Module: module, Symbol: symbol, File: file}, nil
}

// Locate finds top-level def or class definitions of symbol under root.
// Results are ordered by module path.
func Locate(ctx context.Context, root, symbol string) ([]Reference, error) {
	if !identifier.MatchString(symbol) {
		return nil, fmt.Errorf("%w: symbol %q", ErrInvalidPath, symbol)
	}
	definition := regexp.MustCompile(`^(?:async\s+def|def|class)\s+` + regexp.QuoteMeta(symbol) + `\b`)

	var (
		mu      sync.Mutex
		matches []Reference
	)
	conf := fastwalk.Config{Follow: false}

	err := fastwalk.Walk(&conf, root, func(p string, d os.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil
		}
		if d.IsDir() {
			if p != root && skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(p) != ".py" {
			return nil
		}

		line, found := scanDefinition(p, definition)
		if !found {
			return nil
		}
		module, err := ModulePath(root, p)
		if err != nil {
			return nil
		}

		mu.Lock()
		matches = append(matches, Reference{Module: module, Symbol: symbol, File: p, Line: line})
		mu.Unlock()
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("locate failed: %w", err)
	}

	sort.Slice(matches, func(i, j int) bool {
		if matches[i].Module != matches[j].Module {
			return matches[i].Module < matches[j].Module
		}
		return matches[i].Line < matches[j].Line
	})
	return matches, nil
}

func scanDefinition(path string, definition *regexp.Regexp) (int, bool) {
	f, err := os.Open(path)
	if err != nil {
		return 0, false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for n := 1; scanner.Scan(); n++ {
		if definition.MatchString(scanner.Text()) {
			return n, true
		}
	}
	return 0, false
}
