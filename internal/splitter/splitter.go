// Package splitter decomposes a parameter key such as "age_gt" into its
// field part and its operator suffix.
package splitter

import "strings"

// Separator joins a field name and an operator suffix in a key.
const Separator = "_"

// Split matches key against suffix. A match is either the whole key being
// exactly suffix, or key ending in Separator+suffix with a non-empty field
// in front. On a match it returns the field (the whole key for a whole-key
// match) and true; otherwise it returns the whole key and false.
//
// "blagt" does not match "gt": the separator is required.
func Split(key, suffix string) (string, bool) {
	if suffix == "" {
		return key, false
	}
	if key == suffix {
		return key, true
	}
	field, ok := strings.CutSuffix(key, Separator+suffix)
	if !ok || field == "" {
		return key, false
	}
	return field, true
}

// Splitter remembers the decomposition of one key across several probes so
// that Field and Op answer consistently with the last successful probe.
type Splitter struct {
	key     string
	field   string
	op      string
	matched bool
}

// New creates a Splitter for key. Until a probe matches, Field is the whole
// key and Op is empty.
func New(key string) *Splitter {
	return &Splitter{key: key, field: key}
}

// Split probes the key against suffix and records the result on a match.
// A failed probe leaves an earlier match in place.
func (s *Splitter) Split(suffix string) bool {
	field, ok := Split(s.key, suffix)
	if !ok {
		return false
	}
	s.field = field
	s.op = suffix
	s.matched = true
	return true
}

// Key returns the key being split.
func (s *Splitter) Key() string { return s.key }

// Field returns the field part of the key.
func (s *Splitter) Field() string { return s.field }

// Op returns the matched suffix, or "" if no probe matched.
func (s *Splitter) Op() string { return s.op }

// Matched reports whether any probe matched.
func (s *Splitter) Matched() bool { return s.matched }
