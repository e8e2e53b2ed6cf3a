package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextFields(t *testing.T) {
	ctx := ContextWithRequestID(context.Background(), "req-1")
	ctx = ContextWithUserID(ctx, "user-9")

	fields := contextFields(ctx)

	assert.Equal(t, []Field{
		String("request_id", "req-1"),
		String("user_id", "user-9"),
	}, fields)
	assert.Equal(t, "req-1", RequestIDFromContext(ctx))
	assert.Equal(t, "user-9", UserIDFromContext(ctx))
}

func TestZapLogger_WithContext_NoFields(t *testing.T) {
	l := NewNop()

	assert.Same(t, l, l.WithContext(context.Background()))
	assert.NotSame(t, l, l.WithContext(ContextWithRequestID(context.Background(), "r")))
}
