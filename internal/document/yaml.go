package document

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

type yamlNode struct {
	n    *yaml.Node
	file string
}

func parseYAML(data []byte, filename string) (node, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &DecodeError{Pos: filename, Message: fmt.Sprintf("parse YAML: %v", err)}
	}
	if len(doc.Content) == 0 {
		return nil, &DecodeError{Pos: filename, Message: "empty document"}
	}
	return yamlNode{n: &doc, file: filename}.resolve(), nil
}

// resolve unwraps document and alias nodes.
func (y yamlNode) resolve() yamlNode {
	for {
		switch {
		case y.n.Kind == yaml.DocumentNode && len(y.n.Content) > 0:
			y.n = y.n.Content[0]
		case y.n.Kind == yaml.AliasNode && y.n.Alias != nil:
			y.n = y.n.Alias
		default:
			return y
		}
	}
}

func (y yamlNode) wrap(n *yaml.Node) node {
	return yamlNode{n: n, file: y.file}.resolve()
}

func (y yamlNode) kind() kind {
	switch y.n.Kind {
	case yaml.SequenceNode:
		return kindList
	case yaml.MappingNode:
		return kindMap
	case yaml.ScalarNode:
		if y.n.Tag == "!!null" {
			return kindNull
		}
		return kindScalar
	}
	return kindNull
}

func (y yamlNode) scalar() (any, error) {
	var v any
	if err := y.n.Decode(&v); err != nil {
		return nil, errorf(y, "decode scalar: %v", err)
	}
	return v, nil
}

func (y yamlNode) items() ([]node, error) {
	if y.n.Kind != yaml.SequenceNode {
		return nil, errorf(y, "expected a list")
	}
	out := make([]node, len(y.n.Content))
	for i, c := range y.n.Content {
		out[i] = y.wrap(c)
	}
	return out, nil
}

func (y yamlNode) fields() ([]field, error) {
	if y.n.Kind != yaml.MappingNode {
		return nil, errorf(y, "expected a mapping")
	}
	out := make([]field, 0, len(y.n.Content)/2)
	for i := 0; i+1 < len(y.n.Content); i += 2 {
		out = append(out, field{key: y.n.Content[i].Value, value: y.wrap(y.n.Content[i+1])})
	}
	return out, nil
}

func (y yamlNode) pos() string {
	return fmt.Sprintf("%s:%d:%d", y.file, y.n.Line, y.n.Column)
}
