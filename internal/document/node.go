// Package document reads query templates and filter parameters from YAML
// or CUE files.
//
// A template document maps clause names to nodes, in document order:
//
//	from: people
//	where:
//	  - $birth_year
//	  - $title_like
//	  - or: [$name, {eq: [kind, {value: a}]}]
//	order: [$title, $birth_year]
//
// Strings starting with "$" are placeholders ("$name" or "$name:field").
// Other strings are identifiers, or table names under from. Numbers and
// booleans are bound values. Lists are sequences. Single-key mappings
// select a node form: placeholder, value, lit, ident, query, and, or, not,
// eq, neq, gt, gte, lt, lte, in, not_in, asc, desc.
//
// A params document maps filter keys to scalars, lists or mappings.
// JSON files are read as YAML.
package document

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format is a document syntax.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatCUE  Format = "cue"
)

// FormatFor picks the format from a file extension.
func FormatFor(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json":
		return FormatYAML, nil
	case ".cue":
		return FormatCUE, nil
	}
	return "", fmt.Errorf("unsupported document type %q: want .yaml, .yml, .json or .cue", path)
}

// DecodeError reports a malformed document.
type DecodeError struct {
	Pos     string // file:line:col, if known
	Message string
}

func (e *DecodeError) Error() string {
	if e.Pos != "" {
		return fmt.Sprintf("%s: %s", e.Pos, e.Message)
	}
	return e.Message
}

func errorf(n node, format string, args ...any) *DecodeError {
	return &DecodeError{Pos: n.pos(), Message: fmt.Sprintf(format, args...)}
}

type kind int

const (
	kindNull kind = iota
	kindScalar
	kindList
	kindMap
)

func (k kind) String() string {
	switch k {
	case kindNull:
		return "null"
	case kindScalar:
		return "scalar"
	case kindList:
		return "list"
	case kindMap:
		return "mapping"
	}
	return "unknown"
}

// node is a format-neutral view of a parsed document value that keeps
// mapping order and source positions.
type node interface {
	kind() kind
	scalar() (any, error)
	items() ([]node, error)
	fields() ([]field, error)
	pos() string
}

type field struct {
	key   string
	value node
}

// plain converts n to plain Go values: []any, map[string]any and scalars.
func plain(n node) (any, error) {
	switch n.kind() {
	case kindNull:
		return nil, nil
	case kindScalar:
		return n.scalar()
	case kindList:
		items, err := n.items()
		if err != nil {
			return nil, err
		}
		out := make([]any, 0, len(items))
		for _, item := range items {
			v, err := plain(item)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case kindMap:
		fields, err := n.fields()
		if err != nil {
			return nil, err
		}
		out := make(map[string]any, len(fields))
		for _, f := range fields {
			v, err := plain(f.value)
			if err != nil {
				return nil, err
			}
			out[f.key] = v
		}
		return out, nil
	}
	return nil, errorf(n, "unsupported value")
}
