package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJobIDRoundTrip(t *testing.T) {
	ctx := WithJobID(context.Background(), "job-123")
	assert.Equal(t, "job-123", GetJobID(ctx))
	assert.Equal(t, "", GetJobID(context.Background()))
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := WithRequestID(context.Background(), "req-456")
	assert.Equal(t, "req-456", GetRequestID(ctx))
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, -4, int(parseLogLevel("debug")))
	assert.Equal(t, 4, int(parseLogLevel("warn")))
	assert.Equal(t, 8, int(parseLogLevel("error")))
	assert.Equal(t, 0, int(parseLogLevel("")))
}

func TestNewDoesNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		l := New()
		l.Info("hello")
	})
}
