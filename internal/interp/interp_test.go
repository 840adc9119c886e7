package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInterpolateSubstitutesBoundVars(t *testing.T) {
	out := Interpolate("Bearer {token}", map[string]any{"token": "abc123"})
	assert.Equal(t, "Bearer abc123", out)
}

func TestInterpolateLeavesUnboundLiteral(t *testing.T) {
	out := Interpolate("Bearer {token}", map[string]any{})
	assert.Equal(t, "Bearer {token}", out)
}

func TestInterpolateIdentityWithoutBraces(t *testing.T) {
	out := Interpolate("no placeholders here", map[string]any{"token": "x"})
	assert.Equal(t, "no placeholders here", out)
}

func TestInterpolateIdentityWhenBoundToOwnName(t *testing.T) {
	out := Interpolate("{page}-{limit}", map[string]any{"page": "page", "limit": "limit"})
	assert.Equal(t, "page-limit", out)
}

func TestValidateDetectsUnbound(t *testing.T) {
	unbound := Validate(Fields{
		Headers: map[string]string{"Authorization": "Bearer {apikey}"},
	}, map[string]any{})
	assert.Equal(t, []string{"apikey"}, unbound)
}

func TestValidateTreatsReservedAsBound(t *testing.T) {
	unbound := Validate(Fields{
		QueryParams: map[string]string{"p": "{page}", "l": "{limit}", "o": "{offset}"},
	}, map[string]any{})
	assert.Empty(t, unbound)
}

func TestValidateEmptyWhenAllBound(t *testing.T) {
	unbound := Validate(Fields{
		URLPath: "/users/{id}",
		Body:    `{"name":"{name}"}`,
	}, map[string]any{"id": "1", "name": "a"})
	assert.Empty(t, unbound)
}

func TestNamesDedupes(t *testing.T) {
	names := Names("{a}/{b}/{a}")
	assert.Equal(t, []string{"a", "b"}, names)
}
