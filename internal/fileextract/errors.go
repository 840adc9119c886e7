package fileextract

import "strings"

// UnresolvedVariablesError reports template variable names that
// couldn't be bound from credentials before any request was attempted.
type UnresolvedVariablesError struct {
	Names []string
}

func (e *UnresolvedVariablesError) Error() string {
	return "fileextract: unresolved variables: " + strings.Join(e.Names, ", ")
}
