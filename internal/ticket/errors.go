package ticket

import "fmt"

// ParseError reports that a capability returned output that does not conform
// to the requested shape. Non-fatal: the owning stage substitutes its
// deterministic fallback and records a diagnostic.
type ParseError struct {
	Stage string
	Err   error
}

func (e *ParseError) Error() string {
	if e == nil || e.Err == nil {
		return "parse error"
	}
	return fmt.Sprintf("%s: parse: %v", e.Stage, e.Err)
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ValidationError reports a value that violates a data-model invariant. The
// value is coerced to the nearest valid default and the violation is logged.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	if e == nil || e.Err == nil {
		return "validation error"
	}
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
