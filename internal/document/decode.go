package document

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/djellemah/philtre/internal/filter"
	"github.com/djellemah/philtre/internal/query"
)

// PlaceholderPrefix marks a string node as a placeholder.
const PlaceholderPrefix = "$"

func parse(data []byte, filename string, format Format) (node, error) {
	switch format {
	case FormatYAML:
		return parseYAML(data, filename)
	case FormatCUE:
		return parseCUE(data, filename)
	}
	return nil, fmt.Errorf("unsupported format %q", format)
}

func readFile(path string) ([]byte, Format, error) {
	format, err := FormatFor(path)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", path, err)
	}
	return data, format, nil
}

// LoadTemplate reads a template file.
func LoadTemplate(path string) (*query.Query, error) {
	data, format, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeTemplate(data, path, format)
}

// DecodeTemplate parses a template document. filename is used in
// placeholder sources and error positions.
func DecodeTemplate(data []byte, filename string, format Format) (*query.Query, error) {
	root, err := parse(data, filename, format)
	if err != nil {
		return nil, err
	}
	return decodeQuery(root)
}

// LoadParams reads a params file.
func LoadParams(path string, opts ...filter.Option) (*filter.Params, error) {
	data, format, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeParams(data, path, format, opts...)
}

// DecodeParams parses a params document, keeping key order.
func DecodeParams(data []byte, filename string, format Format, opts ...filter.Option) (*filter.Params, error) {
	root, err := parse(data, filename, format)
	if err != nil {
		return nil, err
	}
	pairs, err := decodePairs(root)
	if err != nil {
		return nil, err
	}
	return filter.FromPairs(pairs, opts...), nil
}

func decodePairs(root node) ([]filter.Pair, error) {
	if root.kind() == kindNull {
		return nil, nil
	}
	if root.kind() != kindMap {
		return nil, errorf(root, "params must be a mapping, got %s", root.kind())
	}
	fields, err := root.fields()
	if err != nil {
		return nil, err
	}
	pairs := make([]filter.Pair, 0, len(fields))
	for _, f := range fields {
		v, err := plain(f.value)
		if err != nil {
			return nil, err
		}
		pairs = append(pairs, filter.Pair{Key: f.key, Value: v})
	}
	return pairs, nil
}

// ParseSet reads a "key=value" assignment. The value is read as a YAML
// flow scalar or list, so "birth_year=[2011, 2012]" gives a list.
func ParseSet(s string) (filter.Pair, error) {
	key, raw, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return filter.Pair{}, fmt.Errorf("invalid assignment %q: want key=value", s)
	}
	if raw == "" {
		return filter.Pair{Key: key, Value: ""}, nil
	}
	var v any
	if err := yaml.Unmarshal([]byte(raw), &v); err != nil {
		return filter.Pair{}, fmt.Errorf("invalid value for %q: %w", key, err)
	}
	return filter.Pair{Key: key, Value: v}, nil
}

func decodeQuery(n node) (*query.Query, error) {
	if n.kind() != kindMap {
		return nil, errorf(n, "template must be a mapping of clauses, got %s", n.kind())
	}
	fields, err := n.fields()
	if err != nil {
		return nil, err
	}

	q := query.New()
	for _, f := range fields {
		kind := query.ClauseKind(f.key)
		if !kind.Valid() {
			return nil, errorf(f.value, "unknown clause %q", f.key)
		}
		clause, err := decodeClause(kind, f.value)
		if err != nil {
			return nil, err
		}
		q = q.WithClause(kind, clause)
	}
	return q, nil
}

func decodeClause(kind query.ClauseKind, n node) (query.Node, error) {
	if n.kind() != kindList {
		return decodeNode(kind, n)
	}
	items, err := n.items()
	if err != nil {
		return nil, err
	}
	seq := make(query.Seq, 0, len(items))
	for _, item := range items {
		x, err := decodeNode(kind, item)
		if err != nil {
			return nil, err
		}
		seq = append(seq, x)
	}
	return seq, nil
}

func decodeNode(kind query.ClauseKind, n node) (query.Node, error) {
	switch n.kind() {
	case kindNull:
		return query.Empty{}, nil
	case kindList:
		return decodeClause(kind, n)
	case kindMap:
		return decodeForm(kind, n)
	}

	v, err := n.scalar()
	if err != nil {
		return nil, err
	}
	s, ok := v.(string)
	if !ok {
		return query.Val(v), nil
	}
	if strings.HasPrefix(s, PlaceholderPrefix) {
		return decodePlaceholder(n, strings.TrimPrefix(s, PlaceholderPrefix))
	}
	if kind == query.ClauseFrom {
		return query.Table(s), nil
	}
	return query.Ident(s), nil
}

// decodePlaceholder reads "name" or "name:field".
func decodePlaceholder(n node, text string) (query.Node, error) {
	name, field, _ := strings.Cut(text, ":")
	if name == "" {
		return nil, errorf(n, "placeholder has no name")
	}
	return query.Place(name).As(field).At(n.pos()), nil
}

var binaryForms = map[string]query.Op{
	"eq":     query.OpEq,
	"neq":    query.OpNeq,
	"gt":     query.OpGt,
	"gte":    query.OpGte,
	"lt":     query.OpLt,
	"lte":    query.OpLte,
	"in":     query.OpIn,
	"not_in": query.OpNotIn,
}

// decodeForm reads a single-key mapping node, or a placeholder mapping
// with its attributes in any order.
func decodeForm(kind query.ClauseKind, n node) (query.Node, error) {
	fields, err := n.fields()
	if err != nil {
		return nil, err
	}
	if len(fields) == 0 {
		return nil, errorf(n, "empty mapping")
	}

	for _, f := range fields {
		if f.key == "placeholder" {
			return decodePlaceholderForm(n, fields)
		}
	}

	form, arg := fields[0].key, fields[0].value
	if len(fields) != 1 {
		return nil, errorf(n, "%q takes a single key, got %d", form, len(fields))
	}

	switch form {
	case "value":
		v, err := plain(arg)
		if err != nil {
			return nil, err
		}
		return query.Val(v), nil
	case "lit", "ident", "asc", "desc":
		s, err := stringOf(arg)
		if err != nil {
			return nil, err
		}
		switch form {
		case "lit":
			return query.Lit(s), nil
		case "ident":
			return query.Ident(s), nil
		case "asc":
			return query.Asc(s), nil
		}
		return query.Desc(s), nil
	case "query":
		return decodeQuery(arg)
	case "and", "or":
		operands, err := decodeOperands(kind, arg, -1)
		if err != nil {
			return nil, err
		}
		if form == "and" {
			return query.And(operands...), nil
		}
		return query.Or(operands...), nil
	case "not":
		operand, err := decodeNode(kind, arg)
		if err != nil {
			return nil, err
		}
		return query.Not(operand), nil
	}

	if op, ok := binaryForms[form]; ok {
		operands, err := decodeOperands(kind, arg, 2)
		if err != nil {
			return nil, err
		}
		return query.Compare(op, operands[0], operands[1]), nil
	}
	return nil, errorf(n, "unknown node form %q", form)
}

// decodeOperands reads a list of operand nodes; want < 0 accepts any count.
func decodeOperands(kind query.ClauseKind, n node, want int) ([]query.Node, error) {
	if n.kind() != kindList {
		return nil, errorf(n, "expected a list of operands, got %s", n.kind())
	}
	items, err := n.items()
	if err != nil {
		return nil, err
	}
	if want >= 0 && len(items) != want {
		return nil, errorf(n, "expected %d operands, got %d", want, len(items))
	}
	out := make([]query.Node, 0, len(items))
	for _, item := range items {
		x, err := decodeNode(kind, item)
		if err != nil {
			return nil, err
		}
		out = append(out, x)
	}
	return out, nil
}

// decodePlaceholderForm reads {placeholder: name, field: f}.
func decodePlaceholderForm(n node, fields []field) (query.Node, error) {
	var name, target string
	for _, f := range fields {
		s, err := stringOf(f.value)
		if err != nil {
			return nil, err
		}
		switch f.key {
		case "placeholder":
			name = s
		case "field":
			target = s
		default:
			return nil, errorf(f.value, "unknown placeholder attribute %q", f.key)
		}
	}
	if name == "" {
		return nil, errorf(n, "placeholder has no name")
	}
	return query.Place(name).As(target).At(n.pos()), nil
}

func stringOf(n node) (string, error) {
	if n.kind() != kindScalar {
		return "", errorf(n, "expected a string, got %s", n.kind())
	}
	v, err := n.scalar()
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", errorf(n, "expected a string, got %T", v)
	}
	return s, nil
}
