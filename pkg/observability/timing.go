package observability

import (
	"context"
	"log/slog"
	"time"
)

// Timer measures one engine operation, such as an outbox batch or a sweep
// pass, and reports it when stopped.
type Timer struct {
	operation string
	start     time.Time
	logger    *slog.Logger
	metrics   Metrics
	tags      []Tag
}

// StartTimer begins timing the named operation. Attach a logger or a
// metrics collector with the With* builders before stopping.
func StartTimer(operation string) *Timer {
	return &Timer{operation: operation, start: time.Now()}
}

// WithLogger makes Stop emit a completion log line.
func (t *Timer) WithLogger(logger *slog.Logger) *Timer {
	t.logger = logger
	return t
}

// WithMetrics makes Stop record duration and count metrics.
func (t *Timer) WithMetrics(metrics Metrics) *Timer {
	t.metrics = metrics
	return t
}

// WithTags appends extra metric tags, e.g. the outbox routing key.
func (t *Timer) WithTags(tags ...Tag) *Timer {
	t.tags = append(t.tags, tags...)
	return t
}

// Stop records the elapsed time and returns it.
func (t *Timer) Stop() time.Duration {
	return t.finish(nil)
}

// StopWithError records the elapsed time, counting err against the
// operation's error metric when non-nil.
func (t *Timer) StopWithError(err error) time.Duration {
	return t.finish(err)
}

// Elapsed reports the running duration without recording anything.
func (t *Timer) Elapsed() time.Duration {
	return time.Since(t.start)
}

func (t *Timer) finish(err error) time.Duration {
	elapsed := time.Since(t.start)

	if t.logger != nil {
		if err != nil {
			t.logger.Error("operation failed",
				OperationKey, t.operation,
				DurationKey, elapsed.Milliseconds(),
				ErrorKey, err.Error(),
			)
		} else {
			t.logger.Info("operation completed",
				OperationKey, t.operation,
				DurationKey, elapsed.Milliseconds(),
			)
		}
	}

	if t.metrics != nil {
		tags := append(t.tags, T("operation", t.operation))
		t.metrics.Timing(MetricOperationDuration, elapsed, tags...)
		t.metrics.Counter(MetricOperationTotal, 1, tags...)
		if err != nil {
			t.metrics.Counter(MetricOperationErrors, 1, tags...)
		}
	}

	return elapsed
}

// TimeOperation runs fn under a timer, giving the caller per-operation
// duration and error counts for free.
func TimeOperation(ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func(ctx context.Context) error) error {
	timer := StartTimer(operation).WithLogger(logger).WithMetrics(metrics)
	err := fn(ctx)
	timer.StopWithError(err)
	return err
}

// TimeOperationResult is TimeOperation for functions that return a value.
func TimeOperationResult[T any](ctx context.Context, logger *slog.Logger, metrics Metrics, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	timer := StartTimer(operation).WithLogger(logger).WithMetrics(metrics)
	result, err := fn(ctx)
	timer.StopWithError(err)
	return result, err
}

// Span is a lightweight in-process trace span. Spans nest through the
// context; there is no exporter, they back tests and debug logging.
type Span struct {
	operation string
	start     time.Time
	parent    *Span
	attrs     map[string]any
}

type spanKey struct{}

// StartSpan opens a span for operation, nesting under any span already
// carried by the context.
func StartSpan(ctx context.Context, operation string) (*Span, context.Context) {
	s := &Span{
		operation: operation,
		start:     time.Now(),
		parent:    SpanFromContext(ctx),
	}
	return s, context.WithValue(ctx, spanKey{}, s)
}

// SpanFromContext returns the innermost open span, or nil.
func SpanFromContext(ctx context.Context) *Span {
	s, _ := ctx.Value(spanKey{}).(*Span)
	return s
}

// SetAttribute tags the span, e.g. with the family id being reconciled.
func (s *Span) SetAttribute(key string, value any) {
	if s.attrs == nil {
		s.attrs = make(map[string]any)
	}
	s.attrs[key] = value
}

// End closes the span and returns its duration.
func (s *Span) End() time.Duration {
	return time.Since(s.start)
}

// Operation returns the span's operation name.
func (s *Span) Operation() string { return s.operation }

// Parent returns the enclosing span, or nil at the root.
func (s *Span) Parent() *Span { return s.parent }

// Attributes returns the span's attributes. Nil until SetAttribute is
// first called.
func (s *Span) Attributes() map[string]any { return s.attrs }
