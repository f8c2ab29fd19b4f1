package expand

import (
	"errors"
	"fmt"
	"strings"

	"github.com/djellemah/philtre/internal/query"
)

// Error represents an error detected while expanding a template.
//
// Expand errors include:
//   - Unknown clause: a placeholder sits under a clause kind that has no
//     resolution rule (a template construction mistake)
//   - Unmatched values: strict mode found filter values with no placeholder
//   - Not expanded: Places or Unknown was called before Expand
type Error struct {
	// Code identifies the error category.
	Code ErrorCode

	// Message is a human-readable description.
	Message string

	// Clause is the clause kind involved (unknown clause errors).
	Clause query.ClauseKind

	// Keys are the offending filter keys (unmatched value errors).
	Keys []string

	// Predicates lists the known predicate names, for diagnostics.
	Predicates []string

	// Template is a rendering of the input template, for diagnostics.
	Template string
}

// ErrorCode categorizes expand errors.
type ErrorCode string

const (
	// ErrCodeUnknownClause indicates a placeholder under an unsupported clause.
	ErrCodeUnknownClause ErrorCode = "UNKNOWN_CLAUSE"

	// ErrCodeUnmatchedValues indicates filter values without placeholders.
	ErrCodeUnmatchedValues ErrorCode = "UNMATCHED_VALUES"

	// ErrCodeNotExpanded indicates results were read before Expand ran.
	ErrCodeNotExpanded ErrorCode = "NOT_EXPANDED"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if len(e.Keys) > 0 {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, strings.Join(e.Keys, ", "))
	}
	if e.Clause != "" {
		return fmt.Sprintf("%s: %s (clause=%s)", e.Code, e.Message, e.Clause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func hasCode(err error, code ErrorCode) bool {
	var ee *Error
	if errors.As(err, &ee) {
		return ee.Code == code
	}
	return false
}

// IsUnknownClauseError returns true if the error is an unknown clause error.
// Uses errors.As to handle wrapped errors.
func IsUnknownClauseError(err error) bool { return hasCode(err, ErrCodeUnknownClause) }

// IsUnmatchedError returns true if the error is an unmatched values error.
func IsUnmatchedError(err error) bool { return hasCode(err, ErrCodeUnmatchedValues) }

// IsNotExpandedError returns true if the error is a not expanded error.
func IsNotExpandedError(err error) bool { return hasCode(err, ErrCodeNotExpanded) }

// NewUnknownClauseError creates an Error for a placeholder under an
// unsupported clause kind.
func NewUnknownClauseError(kind query.ClauseKind, p query.PlaceHolder) *Error {
	msg := fmt.Sprintf("no resolution for placeholder %s", p)
	if p.Source != "" {
		msg += " at " + p.Source
	}
	return &Error{
		Code:    ErrCodeUnknownClause,
		Message: msg,
		Clause:  kind,
	}
}

// NewUnmatchedError creates an Error naming filter keys that had no
// placeholder.
func NewUnmatchedError(keys, predicates []string, template string) *Error {
	return &Error{
		Code:       ErrCodeUnmatchedValues,
		Message:    "filter values have no placeholder",
		Keys:       keys,
		Predicates: predicates,
		Template:   template,
	}
}

func newNotExpandedError(what string) *Error {
	return &Error{
		Code:    ErrCodeNotExpanded,
		Message: fmt.Sprintf("%s is not available until Expand has run", what),
	}
}
