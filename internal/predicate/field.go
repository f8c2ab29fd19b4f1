package predicate

import (
	"strings"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
)

// QualifierSeparator splits "table__column" into a qualified identifier.
const QualifierSeparator = "__"

// ContainerOpen starts the subkey of a container address. A name holding
// one is always a container address, never a plain column.
const ContainerOpen = "["

// Field is a parsed field address: a plain column, a qualified column, or
// a subkey inside a map-valued container column.
type Field struct {
	Raw       string
	Qualifier string
	Name      string
	Subkey    string
	container bool
}

// ParseField parses a field address.
//
//	age                 -> "age"
//	heavens__salutation -> "heavens"."salutation"
//	store[owner]        -> ("store" -> 'owner')
//	shops__store[owner] -> ("shops"."store" -> 'owner')
//	store[a]b           -> ("store" -> 'a]b')
func ParseField(s string) Field {
	f := Field{Raw: s, Name: s}
	if box, subkey, ok := strings.Cut(s, ContainerOpen); ok {
		f.container = true
		f.Name = box
		f.Subkey = strings.TrimSuffix(subkey, "]")
	}
	if q, name, ok := strings.Cut(f.Name, QualifierSeparator); ok && q != "" && name != "" {
		f.Qualifier = q
		f.Name = name
	}
	return f
}

// IsContainer reports whether the address names a subkey of a container.
func (f Field) IsContainer() bool { return f.container }

// Column returns the dotted column name, "table.column" when qualified.
func (f Field) Column() string {
	if f.Qualifier == "" {
		return f.Name
	}
	return f.Qualifier + "." + f.Name
}

// Ident returns the column identifier. For a container address this is
// the container column itself.
func (f Field) Ident() exp.IdentifierExpression {
	return goqu.I(f.Column())
}

// Accessor returns the expression reading Subkey out of the container.
func (f Field) Accessor() exp.LiteralExpression {
	return goqu.L("(? -> ?)", f.Ident(), f.Subkey)
}

// Operand returns the expression predicates compare against.
func (f Field) Operand() Operand {
	if f.container {
		return f.Accessor()
	}
	return f.Ident()
}

// Orderable returns the expression used in an ORDER BY for this field.
func (f Field) Orderable() exp.Orderable {
	if f.container {
		return f.Accessor()
	}
	return f.Ident()
}

func (f Field) String() string { return f.Raw }
