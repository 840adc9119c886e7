// Package synth implements the LLM-driven synthesis loops: the Endpoint
// Synthesizer, the Extract Synthesizer, the Transform Synthesizer, and
// the Schema Generator. All four share the same repair-loop shape —
// system prompt, user turn, LLM call, parse, validate, feed errors back
// — grounded on the extractor retry-loop idiom this codebase has always
// used for structured LLM output.
package synth

import (
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"github.com/jmylchreest/apiforge/internal/models"
)

var codeBlockRe = regexp.MustCompile("(?s)```(?:json|jsonata)?\\s*(.*?)\\s*```")

// stripMarkdownCodeBlock removes a surrounding ``` fence from an LLM
// completion, tolerating raw unfenced JSON too.
func stripMarkdownCodeBlock(s string) string {
	s = strings.TrimSpace(s)
	if m := codeBlockRe.FindStringSubmatch(s); m != nil {
		return strings.TrimSpace(m[1])
	}
	return s
}

// truncate bounds s to n runes, matching the extractor's truncation
// helper used to keep error-feedback turns compact.
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "…"
}

func newID() string {
	return uuid.NewString()
}

// canonicalID computes the spec's stable config id: MD5 of the
// canonicalized (identity, schemaOfPayload) pair. identity is the full
// request-defining structure (not just the instruction text), so two
// endpoints that merely share instruction wording and payload shape
// don't collide; payload is rendered as a type-only schema, not values,
// since the id must be stable across calls with different variable
// values for the same endpoint.
func canonicalID(identity any, payload map[string]any) string {
	h := md5.Sum([]byte(canonicalValue(identity) + "|" + canonicalSchema(payload)))
	return hex.EncodeToString(h[:])
}

// canonicalValue renders a stable, key-sorted textual form of v's
// actual values (as opposed to canonicalSchema's type-only shape), so
// identity structures with the same field values always hash the same
// regardless of map iteration order.
func canonicalValue(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	var generic any
	if err := json.Unmarshal(b, &generic); err != nil {
		return string(b)
	}
	return canonicalValueRender(generic)
}

func canonicalValueRender(v any) string {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(k)
			sb.WriteByte(':')
			sb.WriteString(canonicalValueRender(t[k]))
		}
		sb.WriteByte('}')
		return sb.String()
	case []any:
		var sb strings.Builder
		sb.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(canonicalValueRender(e))
		}
		sb.WriteByte(']')
		return sb.String()
	case string:
		b, _ := json.Marshal(t)
		return string(b)
	case bool:
		if t {
			return "true"
		}
		return "false"
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case nil:
		return "null"
	default:
		return fmt.Sprintf("%v", t)
	}
}

// canonicalSchema renders a stable, key-sorted description of payload's
// shape (types only, not values) so structurally-identical payloads
// always produce the same string regardless of map iteration order.
func canonicalSchema(v any) string {
	switch t := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		var sb strings.Builder
		sb.WriteByte('{')
		for i, k := range keys {
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(k)
			sb.WriteByte(':')
			sb.WriteString(canonicalSchema(t[k]))
		}
		sb.WriteByte('}')
		return sb.String()
	case []any:
		if len(t) == 0 {
			return "[]"
		}
		return "[" + canonicalSchema(t[0]) + "]"
	case string:
		return "string"
	case bool:
		return "bool"
	case float64, int:
		return "number"
	case nil:
		return "null"
	default:
		return "unknown"
	}
}

func availableVars(payload, credentials map[string]any) []string {
	seen := map[string]struct{}{}
	for k := range payload {
		seen[k] = struct{}{}
	}
	for k := range credentials {
		seen[k] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for k := range seen {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func toJSON(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return ""
	}
	return string(b)
}

// retryTemperature mirrors the spec's `min(0.1 * retryCount, 1.0)` rule,
// returning nil for reasoning models (temperature omitted entirely).
func retryTemperature(model string, retryCount int, isReasoning func(string) bool) *float64 {
	if isReasoning(model) {
		return nil
	}
	t := 0.1 * float64(retryCount)
	if t > 1.0 {
		t = 1.0
	}
	return &t
}

func sysTurn(content string) models.Turn    { return models.Turn{Role: models.SystemMsg, Content: content} }
func userTurn(content string) models.Turn   { return models.Turn{Role: models.UserMsg, Content: content} }
func assistTurn(content string) models.Turn { return models.Turn{Role: models.AssistantMsg, Content: content} }
