// Package value holds the raw value policy shared by the filter model and
// the predicate registry: what counts as blank, how sequences are
// recognized, and how parameter keys are normalized.
package value

import (
	"fmt"
	"reflect"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Key converts a parameter key to its canonical string form.
// Strings are NFC normalized so visually identical keys compare equal.
func Key(k any) string {
	var s string
	switch v := k.(type) {
	case string:
		s = v
	case []byte:
		s = string(v)
	case fmt.Stringer:
		s = v.String()
	default:
		s = fmt.Sprint(v)
	}
	return norm.NFC.String(s)
}

// IsBlank reports whether v is nil, a whitespace-only string, or an empty
// sequence or mapping.
func IsBlank(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(val) == ""
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Map:
		return rv.IsNil() || rv.Len() == 0
	case reflect.Array:
		return rv.Len() == 0
	case reflect.Pointer, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// IsBlankScalar reports whether v is blank and not a sequence.
// Empty sequences carry "explicitly empty set" meaning and are kept.
func IsBlankScalar(v any) bool {
	if _, ok := Seq(v); ok {
		return false
	}
	return IsBlank(v)
}

// Seq returns the elements of v when v is a slice or array.
// []byte is treated as a scalar.
func Seq(v any) ([]any, bool) {
	switch val := v.(type) {
	case nil, []byte, string:
		return nil, false
	case []any:
		return val, true
	case []string:
		out := make([]any, len(val))
		for i, s := range val {
			out[i] = s
		}
		return out, true
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, false
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out, true
}

// SeqOf returns v as a sequence, wrapping a scalar in a one-element slice.
func SeqOf(v any) []any {
	if s, ok := Seq(v); ok {
		return s
	}
	return []any{v}
}

// Copy deep-copies sequences and string-keyed mappings so a holder never
// aliases caller-owned mutable structures. Other values are returned as is.
func Copy(v any) any {
	switch val := v.(type) {
	case []any:
		out := make([]any, len(val))
		for i, elem := range val {
			out[i] = Copy(elem)
		}
		return out
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, elem := range val {
			out[k] = Copy(elem)
		}
		return out
	case []byte:
		return append([]byte(nil), val...)
	}
	if s, ok := Seq(v); ok {
		return Copy(s)
	}
	return v
}

// String formats a scalar for use inside a pattern.
func String(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case []byte:
		return string(val)
	case fmt.Stringer:
		return val.String()
	}
	return fmt.Sprint(v)
}
