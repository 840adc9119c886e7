// Package interp implements the Variable Interpolator: substitution of
// {name} placeholders from a variable map, and detection of placeholders
// left unbound at execution time.
package interp

import (
	"fmt"
	"regexp"
	"sort"
)

var placeholderRe = regexp.MustCompile(`\{(\w+)\}`)

// ReservedVars are always considered bound: the pagination loop binds
// them on every iteration regardless of caller-supplied payload.
var ReservedVars = map[string]struct{}{
	"page":   {},
	"offset": {},
	"limit":  {},
}

// Interpolate replaces every {name} in template with vars[name]
// stringified. Placeholders with no binding are left literal.
func Interpolate(template string, vars map[string]any) string {
	return placeholderRe.ReplaceAllStringFunc(template, func(m string) string {
		name := m[1 : len(m)-1]
		v, ok := vars[name]
		if !ok {
			return m
		}
		return stringify(v)
	})
}

// stringify renders a substitution value as a string. Non-scalar values
// are rendered via fmt.Sprint per the spec's "stringify values at
// interpolation time" guidance; nothing in this package rejects
// non-scalar values.
func stringify(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case nil:
		return ""
	default:
		return fmt.Sprint(t)
	}
}

// Names returns the set of distinct placeholder names referenced in s.
func Names(s string) []string {
	matches := placeholderRe.FindAllStringSubmatch(s, -1)
	seen := map[string]struct{}{}
	var out []string
	for _, m := range matches {
		if _, ok := seen[m[1]]; !ok {
			seen[m[1]] = struct{}{}
			out = append(out, m[1])
		}
	}
	return out
}

// Fields is the set of ApiConfig/ExtractConfig string fields the
// Interpolator scans for placeholder references.
type Fields struct {
	URLPath     string
	Headers     map[string]string
	QueryParams map[string]string
	Body        string
}

// Validate returns the sorted list of placeholder names referenced across
// fields that are not present in knownVars and are not one of the
// reserved pagination variables.
func Validate(fields Fields, knownVars map[string]any) []string {
	unbound := map[string]struct{}{}

	collect := func(s string) {
		for _, name := range Names(s) {
			if _, reserved := ReservedVars[name]; reserved {
				continue
			}
			if _, known := knownVars[name]; known {
				continue
			}
			unbound[name] = struct{}{}
		}
	}

	collect(fields.URLPath)
	collect(fields.Body)
	for _, v := range fields.Headers {
		collect(v)
	}
	for _, v := range fields.QueryParams {
		collect(v)
	}

	out := make([]string, 0, len(unbound))
	for name := range unbound {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
