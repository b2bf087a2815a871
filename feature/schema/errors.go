package schema

import "fmt"

// ValidationError reports a malformed record. The record is skipped by the
// caller; the batch continues.
type ValidationError struct {
	Kind    Kind
	Origin  string
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s at %s: %s: %s", e.Kind, e.Origin, e.Field, e.Message)
}

func invalid(kind Kind, env Envelope, field, format string, args ...any) *ValidationError {
	return &ValidationError{
		Kind:    kind,
		Origin:  env.Origin(),
		Field:   field,
		Message: fmt.Sprintf(format, args...),
	}
}
