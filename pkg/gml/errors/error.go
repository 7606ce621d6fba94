package errors

import (
	"fmt"
	"strings"

	"mercator-hq/ganymede/pkg/gml/ast"
)

// ErrorType categorizes a rule-file problem.
type ErrorType string

const (
	ErrorTypeSyntax     ErrorType = "syntax"     // YAML could not be parsed
	ErrorTypeStructural ErrorType = "structural" // missing or mistyped required fields
	ErrorTypeSemantic   ErrorType = "semantic"   // bad references, cycles, dead constructs
	ErrorTypeIO         ErrorType = "io"         // file access problems
)

// Error is one rule-file problem with enough context to act on it.
type Error struct {
	Type       ErrorType
	Message    string
	Location   ast.Location
	Context    string // surrounding source lines, filled by AddContext
	Suggestion string
}

// Error renders the finding with its source excerpt and suggestion.
func (e *Error) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "[%s] %s\n", e.Type, e.Message)
	if e.Location.IsValid() {
		fmt.Fprintf(&sb, "  --> %s\n", e.Location)
	}
	if e.Context != "" {
		sb.WriteString(e.Context)
	}
	if e.Suggestion != "" {
		fmt.Fprintf(&sb, "  = suggestion: %s\n", e.Suggestion)
	}
	return sb.String()
}

// ErrorList accumulates problems across a whole parse or validation pass.
type ErrorList struct {
	Errors []*Error
}

// NewErrorList returns an empty list.
func NewErrorList() *ErrorList {
	return &ErrorList{Errors: make([]*Error, 0)}
}

// Add appends an error.
func (el *ErrorList) Add(err *Error) {
	el.Errors = append(el.Errors, err)
}

// AddError builds and appends an error from its parts.
func (el *ErrorList) AddError(errType ErrorType, message string, location ast.Location) {
	el.Add(&Error{Type: errType, Message: message, Location: location})
}

// AddErrorWithSuggestion builds and appends an error carrying a
// suggested fix.
func (el *ErrorList) AddErrorWithSuggestion(errType ErrorType, message string, location ast.Location, suggestion string) {
	el.Add(&Error{Type: errType, Message: message, Location: location, Suggestion: suggestion})
}

// Merge appends every error from other.
func (el *ErrorList) Merge(other *ErrorList) {
	if other != nil {
		el.Errors = append(el.Errors, other.Errors...)
	}
}

// HasErrors reports whether the list is non-empty.
func (el *ErrorList) HasErrors() bool {
	return len(el.Errors) > 0
}

// Count returns the number of accumulated errors.
func (el *ErrorList) Count() int {
	return len(el.Errors)
}

// HasErrorType reports whether any error has the given type.
func (el *ErrorList) HasErrorType(errType ErrorType) bool {
	for _, err := range el.Errors {
		if err.Type == errType {
			return true
		}
	}
	return false
}

// ByType returns the errors of the given type.
func (el *ErrorList) ByType(errType ErrorType) []*Error {
	var out []*Error
	for _, err := range el.Errors {
		if err.Type == errType {
			out = append(out, err)
		}
	}
	return out
}

// Error implements the error interface over the whole list.
func (el *ErrorList) Error() string {
	if !el.HasErrors() {
		return ""
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "found %d problem(s) in rule file:\n\n", el.Count())
	for i, err := range el.Errors {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// ToError returns nil when the list is empty so callers can return it
// directly.
func (el *ErrorList) ToError() error {
	if !el.HasErrors() {
		return nil
	}
	return el
}
