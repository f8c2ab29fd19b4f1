// Package predicate resolves filter keys such as "age_gt" or
// "store[owner]_like" into goqu boolean expressions.
//
// A Registry maps operator suffixes to predicate functions. Default is the
// shared, frozen set of built-in predicates; Clone derives a mutable copy
// for per-filter customization so the shared set is never modified.
package predicate

import (
	"errors"
	"fmt"
	"reflect"
	"sort"

	"github.com/doug-martin/goqu/v9/exp"

	"github.com/djellemah/philtre/internal/splitter"
)

// DefaultPredicate is used when no registered suffix matches a key.
const DefaultPredicate = "eq"

// ContainerPrefix names the container-aware variant of a predicate.
const ContainerPrefix = "container_"

// Operand is the left-hand side a predicate builds on: a column identifier
// or a container subkey accessor.
type Operand interface {
	exp.Expression
	exp.Comparable
	exp.Inable
	exp.Isable
	exp.Likeable
}

// Func builds a predicate over a plain operand. It receives the registry so
// it can call other predicates by name.
type Func func(r *Registry, field Operand, value any) exp.Expression

// ContainerFunc builds a predicate over a subkey of a map-valued column.
type ContainerFunc func(r *Registry, field Field, value any) exp.Expression

// UnaryFunc is a custom predicate that ignores the field.
type UnaryFunc func(value any) exp.Expression

// BinaryFunc is a custom predicate over a field and a value.
type BinaryFunc func(field Operand, value any) exp.Expression

// ErrFrozen is returned when registering into the shared default registry.
var ErrFrozen = errors.New("predicate registry is frozen; Clone it first")

// RegistrationError reports a predicate function that cannot be registered.
type RegistrationError struct {
	Name    string
	Arity   int
	Message string
}

func (e *RegistrationError) Error() string {
	return fmt.Sprintf("register predicate %q: %s", e.Name, e.Message)
}

// IsRegistrationError checks if an error is a RegistrationError.
func IsRegistrationError(err error) bool {
	var re *RegistrationError
	return errors.As(err, &re)
}

// Registry holds named predicates and their container-aware variants.
// A Registry is not safe for concurrent mutation.
type Registry struct {
	funcs      map[string]Func
	containers map[string]ContainerFunc
	names      []string
	frozen     bool
}

// Default is the shared built-in registry. It is frozen.
var Default = newDefault()

func newRegistry() *Registry {
	return &Registry{
		funcs:      make(map[string]Func),
		containers: make(map[string]ContainerFunc),
	}
}

// Clone returns an independent, mutable copy of r.
func (r *Registry) Clone() *Registry {
	c := newRegistry()
	for name, fn := range r.funcs {
		c.funcs[name] = fn
	}
	for name, fn := range r.containers {
		c.containers[name] = fn
	}
	c.names = append([]string(nil), r.names...)
	return c
}

// Frozen reports whether r rejects registrations.
func (r *Registry) Frozen() bool { return r.frozen }

// Register adds a custom predicate. fn must be a UnaryFunc or BinaryFunc
// (or an unnamed func with one of those signatures). A container variant
// applying fn to the subkey accessor is registered alongside it.
func (r *Registry) Register(name string, fn any) error {
	if r.frozen {
		return ErrFrozen
	}
	if name == "" {
		return &RegistrationError{Name: name, Message: "empty name"}
	}

	var f Func
	switch v := fn.(type) {
	case UnaryFunc:
		f = func(_ *Registry, _ Operand, value any) exp.Expression { return v(value) }
	case func(any) exp.Expression:
		f = func(_ *Registry, _ Operand, value any) exp.Expression { return v(value) }
	case BinaryFunc:
		f = func(_ *Registry, field Operand, value any) exp.Expression { return v(field, value) }
	case func(Operand, any) exp.Expression:
		f = func(_ *Registry, field Operand, value any) exp.Expression { return v(field, value) }
	default:
		return signatureError(name, fn)
	}

	r.define(name, f)
	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(name string, fn any) *Registry {
	if err := r.Register(name, fn); err != nil {
		panic(err)
	}
	return r
}

// Alias makes alias resolve to the same predicate as name.
func (r *Registry) Alias(alias, name string) error {
	if r.frozen {
		return ErrFrozen
	}
	fn, ok := r.funcs[name]
	if !ok {
		return fmt.Errorf("alias %q: unknown predicate %q", alias, name)
	}
	r.funcs[alias] = fn
	if cf, ok := r.containers[name]; ok {
		r.containers[alias] = cf
	}
	r.sortNames()
	return nil
}

func signatureError(name string, fn any) error {
	t := reflect.TypeOf(fn)
	if t == nil || t.Kind() != reflect.Func {
		return &RegistrationError{Name: name, Message: fmt.Sprintf("%T is not a function", fn)}
	}
	if n := t.NumIn(); n != 1 && n != 2 {
		return &RegistrationError{
			Name:    name,
			Arity:   n,
			Message: fmt.Sprintf("unsupported arity %d, want 1 (value) or 2 (field, value)", n),
		}
	}
	return &RegistrationError{
		Name:    name,
		Arity:   t.NumIn(),
		Message: fmt.Sprintf("unsupported signature %s", t),
	}
}

// define installs fn and a generic container variant.
func (r *Registry) define(name string, fn Func) {
	r.funcs[name] = fn
	r.containers[name] = func(r *Registry, field Field, value any) exp.Expression {
		return r.call(name, field.Accessor(), value)
	}
	r.sortNames()
}

func (r *Registry) defineContainer(name string, fn ContainerFunc) {
	r.containers[name] = fn
}

// sortNames orders suffixes longest first so "not_like" is probed before
// "like". Ties sort alphabetically for determinism.
func (r *Registry) sortNames() {
	names := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		names = append(names, name)
	}
	sort.Slice(names, func(i, j int) bool {
		if len(names[i]) != len(names[j]) {
			return len(names[i]) > len(names[j])
		}
		return names[i] < names[j]
	})
	r.names = names
}

// Names returns the suffix vocabulary in probing order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.names...)
}

// ContainerNames returns the container-aware variant names, sorted.
func (r *Registry) ContainerNames() []string {
	names := make([]string, 0, len(r.containers))
	for name := range r.containers {
		names = append(names, ContainerPrefix+name)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is a registered suffix.
func (r *Registry) Has(name string) bool {
	_, ok := r.funcs[name]
	return ok
}

// Split decomposes key into field and predicate name, probing suffixes
// longest first and falling back to DefaultPredicate over the whole key.
func (r *Registry) Split(key string) (field, name string) {
	sp := splitter.New(key)
	for _, n := range r.names {
		if sp.Split(n) {
			return sp.Field(), n
		}
	}
	return key, DefaultPredicate
}

// Resolve builds the expression for a filter key and value. explicitField,
// when non-empty, replaces the field derived from the key.
func (r *Registry) Resolve(key string, value any, explicitField string) exp.Expression {
	field, name := r.Split(key)
	if explicitField != "" {
		field = explicitField
	}
	return r.Apply(name, ParseField(field), value)
}

// Apply runs predicate name against field, dispatching container addresses
// to the container-aware variant.
func (r *Registry) Apply(name string, field Field, value any) exp.Expression {
	if field.IsContainer() {
		if cf, ok := r.containers[name]; ok {
			return cf(r, field, value)
		}
	}
	return r.call(name, field.Operand(), value)
}

// Call runs predicate name directly against an operand.
func (r *Registry) Call(name string, field Operand, value any) (exp.Expression, error) {
	if _, ok := r.funcs[name]; !ok {
		return nil, fmt.Errorf("unknown predicate %q", name)
	}
	return r.call(name, field, value), nil
}

// call returns nil when name is not registered.
func (r *Registry) call(name string, field Operand, value any) exp.Expression {
	fn, ok := r.funcs[name]
	if !ok {
		return nil
	}
	return fn(r, field, value)
}
