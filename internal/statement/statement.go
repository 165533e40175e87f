package statement

import (
	"errors"
	"strings"
	"unicode"
)

const (
	fromPrefix = "from "
	keyword    = "import"
	wildcard   = "*"
)

var (
	// ErrInvalid is returned for text that is not a from-import statement.
	ErrInvalid = errors.New("not a valid import statement")
	// ErrAmbiguousAlias is returned when an alias is requested for a
	// statement importing more than one name.
	ErrAmbiguousAlias = errors.New("alias requires a single imported name")
	// ErrUnknownName is returned by Select for a name the statement does not import.
	ErrUnknownName = errors.New("name is not imported by statement")
)

// Name is one entry of the imported name list.
type Name struct {
	Symbol string
	Alias  string
}

// Bound returns the identifier the import binds in the importing scope.
func (n Name) Bound() string {
	if n.Alias != "" {
		return n.Alias
	}
	return n.Symbol
}

func (n Name) String() string {
	if n.Alias != "" {
		return n.Symbol + " as " + n.Alias
	}
	return n.Symbol
}

// Statement is a tokenized from-import statement.
type Statement struct {
	Module string
	Names  []Name

	// head is the original text up to and including the import keyword.
	head string
}

// String renders the statement with its original head and normalized names.
func (s Statement) String() string {
	parts := make([]string, 0, len(s.Names))
	for _, n := range s.Names {
		parts = append(parts, n.String())
	}
	return s.head + " " + strings.Join(parts, ", ")
}

// Parse tokenizes text of the form "from <module> import <names>".
func Parse(text string) (Statement, error) {
	if !strings.HasPrefix(text, fromPrefix) {
		return Statement{}, ErrInvalid
	}

	start, end := findKeyword(text, len(fromPrefix))
	if start < 0 {
		return Statement{}, ErrInvalid
	}

	names := parseNames(text[end:])
	if len(names) == 0 {
		return Statement{}, ErrInvalid
	}

	return Statement{
		Module: strings.TrimSpace(text[len(fromPrefix):start]),
		Names:  names,
		head:   text[:end],
	}, nil
}

// IsValid reports whether text starts with "from " and imports at least one name.
func IsValid(text string) bool {
	_, err := Parse(text)
	return err == nil
}

// ExtractName returns the first imported name. Only the first entry of a
// multi-name list is ever returned. When callable is set a zero-argument
// call suffix is appended. ok is false when text has no import keyword or
// nothing follows it.
func ExtractName(text string, callable bool) (string, bool) {
	_, end := findKeyword(text, 0)
	if end < 0 {
		return "", false
	}

	names := parseNames(text[end:])
	if len(names) == 0 {
		return "", false
	}

	name := names[0].Bound()
	if callable {
		name += "()"
	}
	return name, true
}

// ExtractNames returns every name bound by the statement, in order.
func ExtractNames(text string) []string {
	_, end := findKeyword(text, 0)
	if end < 0 {
		return nil
	}

	names := parseNames(text[end:])
	bound := make([]string, 0, len(names))
	for _, n := range names {
		bound = append(bound, n.Bound())
	}
	return bound
}

// ToWildcard replaces everything after the import keyword with "*".
// Applying it to its own output returns the same text.
func ToWildcard(text string) (string, bool) {
	st, err := Parse(text)
	if err != nil {
		return "", false
	}
	return strings.TrimSpace(st.head + " " + wildcard), true
}

// ToAliased appends "as <alias>" to a single-name statement, replacing any
// alias already present. An empty alias returns text unchanged.
func ToAliased(text, alias string) (string, error) {
	st, err := Parse(text)
	if err != nil {
		return "", err
	}

	alias = strings.TrimSpace(alias)
	if alias == "" {
		return text, nil
	}
	if len(st.Names) != 1 {
		return "", ErrAmbiguousAlias
	}
	if st.Names[0].Symbol == wildcard {
		return "", ErrAmbiguousAlias
	}

	st.Names[0].Alias = alias
	return st.String(), nil
}

// Select narrows a multi-name statement to the single entry binding name.
func Select(text, name string) (string, error) {
	st, err := Parse(text)
	if err != nil {
		return "", err
	}

	for _, n := range st.Names {
		if n.Bound() == name || n.Symbol == name {
			st.Names = []Name{n}
			return st.String(), nil
		}
	}
	return "", ErrUnknownName
}

// findKeyword locates the first whole-word "import" at or after offset and
// returns its start and end byte positions, or -1, -1.
func findKeyword(text string, offset int) (int, int) {
	for i := offset; i <= len(text)-len(keyword); {
		idx := strings.Index(text[i:], keyword)
		if idx < 0 {
			return -1, -1
		}
		start := i + idx
		end := start + len(keyword)

		before := start == 0 || unicode.IsSpace(rune(text[start-1]))
		after := end == len(text) || unicode.IsSpace(rune(text[end])) || text[end] == '('
		if before && after {
			return start, end
		}
		i = end
	}
	return -1, -1
}

// parseNames splits the name list. Each entry must be a single identifier or
// "X as Y"; any other entry invalidates the whole list and nil is returned.
func parseNames(tail string) []Name {
	if i := strings.IndexByte(tail, '#'); i >= 0 {
		tail = tail[:i]
	}
	tail = strings.TrimSpace(tail)
	tail = strings.TrimPrefix(tail, "(")
	tail = strings.TrimSuffix(tail, ")")

	var names []Name
	for _, part := range strings.Split(tail, ",") {
		fields := strings.Fields(part)
		switch {
		case len(fields) == 0:
			continue
		case len(fields) == 1 && fields[0] != "as":
			names = append(names, Name{Symbol: fields[0]})
		case len(fields) == 3 && fields[1] == "as" && fields[0] != "as" && fields[2] != "as":
			names = append(names, Name{Symbol: fields[0], Alias: fields[2]})
		default:
			return nil
		}
	}
	return names
}
