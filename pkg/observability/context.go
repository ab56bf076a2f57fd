package observability

import (
	"context"

	"github.com/google/uuid"
)

// Request-scoped identifiers travel through the context: the CLI seeds a
// correlation id per invocation and the worker seeds one per consumed
// delivery, so every log line of one confirmation or sweep shares an id.

type contextKey string

const (
	ctxCorrelationID contextKey = "correlation_id"
	ctxRequestID     contextKey = "request_id"
	ctxOperatorID    contextKey = "operator_id"
	ctxOperation     contextKey = "operation"
)

// Attribute keys shared between log records and metric tags.
const (
	CorrelationIDKey = "correlation_id"
	RequestIDKey     = "request_id"
	OperatorIDKey    = "operator_id"
	OperationKey     = "operation"
	DurationKey      = "duration_ms"
	ErrorKey         = "error"
	StatusKey        = "status"
)

func ctxString(ctx context.Context, key contextKey) string {
	if ctx == nil {
		return ""
	}
	v, _ := ctx.Value(key).(string)
	return v
}

// WithCorrelationID stamps the context with a correlation id, minting a
// fresh one when id is empty.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, ctxCorrelationID, id)
}

// CorrelationIDFromContext returns the correlation id, or "" when unset.
func CorrelationIDFromContext(ctx context.Context) string {
	return ctxString(ctx, ctxCorrelationID)
}

// WithRequestID stamps the context with a request id, minting a fresh one
// when id is empty.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		id = uuid.NewString()
	}
	return context.WithValue(ctx, ctxRequestID, id)
}

// RequestIDFromContext returns the request id, or "" when unset.
func RequestIDFromContext(ctx context.Context) string {
	return ctxString(ctx, ctxRequestID)
}

// WithOperatorID records the back-office operator driving the command.
func WithOperatorID(ctx context.Context, operatorID string) context.Context {
	return context.WithValue(ctx, ctxOperatorID, operatorID)
}

// OperatorIDFromContext returns the operator id, or "" when unset.
func OperatorIDFromContext(ctx context.Context) string {
	return ctxString(ctx, ctxOperatorID)
}

// WithOperation names the operation in flight, e.g. "rota family confirm".
func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, ctxOperation, operation)
}

// OperationFromContext returns the operation name, or "" when unset.
func OperationFromContext(ctx context.Context) string {
	return ctxString(ctx, ctxOperation)
}

// NewDispatchContext derives the context handed to event consumers: a
// fresh request id per delivery, continuing the publisher's correlation
// id when the delivery carried one.
func NewDispatchContext(ctx context.Context, correlationID string) context.Context {
	return WithCorrelationID(WithRequestID(ctx, ""), correlationID)
}
