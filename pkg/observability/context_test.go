package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestContextIdentifiers(t *testing.T) {
	t.Run("empty values are minted for correlation and request ids", func(t *testing.T) {
		ctx := WithCorrelationID(context.Background(), "")
		assert.NotEmpty(t, CorrelationIDFromContext(ctx))

		ctx = WithRequestID(ctx, "")
		assert.NotEmpty(t, RequestIDFromContext(ctx))
	})

	t.Run("explicit values round-trip", func(t *testing.T) {
		ctx := WithCorrelationID(context.Background(), "corr-1")
		ctx = WithOperatorID(ctx, "operator-7")
		ctx = WithOperation(ctx, "rota family confirm")

		assert.Equal(t, "corr-1", CorrelationIDFromContext(ctx))
		assert.Equal(t, "operator-7", OperatorIDFromContext(ctx))
		assert.Equal(t, "rota family confirm", OperationFromContext(ctx))
	})

	t.Run("unset values read as empty", func(t *testing.T) {
		assert.Empty(t, OperatorIDFromContext(context.Background()))
		assert.Empty(t, OperationFromContext(context.Background()))
	})
}

func TestNewDispatchContext(t *testing.T) {
	t.Run("continues the publisher's correlation id", func(t *testing.T) {
		ctx := NewDispatchContext(context.Background(), "corr-from-publisher")
		assert.Equal(t, "corr-from-publisher", CorrelationIDFromContext(ctx))
		assert.NotEmpty(t, RequestIDFromContext(ctx))
	})

	t.Run("mints a correlation id for bare deliveries", func(t *testing.T) {
		ctx := NewDispatchContext(context.Background(), "")
		assert.NotEmpty(t, CorrelationIDFromContext(ctx))
	})
}
