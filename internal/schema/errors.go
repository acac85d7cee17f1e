package schema

import (
	"errors"
	"fmt"
)

// ErrMaxDepthExceeded is returned when group nesting exceeds the configured
// limit or a group reaches itself through its children.
var ErrMaxDepthExceeded = errors.New("maximum nesting depth exceeded")

// SchemaError is a structural validation failure: the input cannot be coerced
// into a valid document with defaults. Path names the offending field.
type SchemaError struct {
	Path   string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema violation at %s: %s", e.Path, e.Reason)
}

func structural(path, format string, args ...any) error {
	return &SchemaError{Path: path, Reason: fmt.Sprintf(format, args...)}
}
