package school

import (
	"errors"
	"strings"

	"github.com/Spok95/gestion-scolaire/internal/access"
	"github.com/Spok95/gestion-scolaire/internal/bulletin"
)

var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrNoClass         = errors.New("student has no class")

	// Re-exported so callers only branch on this package.
	ErrForbidden   = access.ErrForbidden
	ErrNoStructure = bulletin.ErrNoStructure
)

type FieldError struct {
	Field   string `json:"field"`
	Reason  string `json:"reason"`
	Message string `json:"message"`
}

// ValidationError lists every rejected input field. Conflict marks
// uniqueness failures (duplicate username, class name, ...).
type ValidationError struct {
	Fields   []FieldError
	Conflict bool
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "invalid input: " + strings.Join(parts, "; ")
}

func invalid(field, reason, message string) *ValidationError {
	return &ValidationError{Fields: []FieldError{{Field: field, Reason: reason, Message: message}}}
}

func conflict(field, message string) *ValidationError {
	e := invalid(field, "taken", message)
	e.Conflict = true
	return e
}
