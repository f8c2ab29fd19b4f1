package document

import (
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
)

type cueNode struct {
	v cue.Value
}

func parseCUE(data []byte, filename string) (node, error) {
	ctx := cuecontext.New()
	v := ctx.CompileBytes(data, cue.Filename(filename))
	if err := v.Err(); err != nil {
		return nil, &DecodeError{Pos: filename, Message: fmt.Sprintf("compile CUE: %v", err)}
	}
	if err := v.Validate(cue.Concrete(true)); err != nil {
		return nil, &DecodeError{Pos: filename, Message: fmt.Sprintf("validate CUE: %v", err)}
	}
	return cueNode{v: v}, nil
}

func (c cueNode) kind() kind {
	switch c.v.IncompleteKind() {
	case cue.NullKind:
		return kindNull
	case cue.ListKind:
		return kindList
	case cue.StructKind:
		return kindMap
	}
	return kindScalar
}

func (c cueNode) scalar() (any, error) {
	switch c.v.Kind() {
	case cue.StringKind:
		return c.v.String()
	case cue.IntKind:
		i, err := c.v.Int64()
		if err != nil {
			return nil, errorf(c, "decode int: %v", err)
		}
		return int(i), nil
	case cue.FloatKind, cue.NumberKind:
		return c.v.Float64()
	case cue.BoolKind:
		return c.v.Bool()
	case cue.BytesKind:
		return c.v.Bytes()
	}
	return nil, errorf(c, "unsupported type kind: %v", c.v.Kind())
}

func (c cueNode) items() ([]node, error) {
	iter, err := c.v.List()
	if err != nil {
		return nil, errorf(c, "iterate list: %v", err)
	}
	var out []node
	for iter.Next() {
		out = append(out, cueNode{v: iter.Value()})
	}
	return out, nil
}

func (c cueNode) fields() ([]field, error) {
	iter, err := c.v.Fields()
	if err != nil {
		return nil, errorf(c, "iterate fields: %v", err)
	}
	var out []field
	for iter.Next() {
		sel := iter.Selector()
		key := sel.String()
		if sel.IsString() {
			key = sel.Unquoted()
		}
		out = append(out, field{key: key, value: cueNode{v: iter.Value()}})
	}
	return out, nil
}

func (c cueNode) pos() string {
	p := c.v.Pos()
	if !p.IsValid() {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", p.Filename(), p.Line(), p.Column())
}
