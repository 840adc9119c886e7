package executor

import (
	"fmt"
	"strings"
)

// UnresolvedVariablesError is returned when a request's placeholders
// reference variables not present in the payload/credentials bag.
// Unlike HTTP failures, this is fatal to the current attempt without
// ever issuing a request: it's a synthesis defect, fed straight back to
// the Endpoint Synthesizer as repair context.
type UnresolvedVariablesError struct {
	Names []string
}

func (e *UnresolvedVariablesError) Error() string {
	return fmt.Sprintf("unresolved variables: %s", strings.Join(e.Names, ", "))
}

// InvalidBodyError signals that the interpolated request body is not
// valid JSON.
type InvalidBodyError struct {
	Cause error
}

func (e *InvalidBodyError) Error() string {
	return fmt.Sprintf("interpolated body is not valid JSON: %v", e.Cause)
}

func (e *InvalidBodyError) Unwrap() error { return e.Cause }
