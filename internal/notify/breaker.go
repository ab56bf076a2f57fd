package notify

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// ErrProviderUnavailable is returned while the breaker is open and sends are
// being shed.
var ErrProviderUnavailable = errors.New("sms provider unavailable")

// BreakerConfig tunes the circuit breaker around the SMS provider.
type BreakerConfig struct {
	// MaxRequests is the maximum number of probe requests in half-open state.
	MaxRequests uint32

	// Interval is the cyclic period of the closed state.
	Interval time.Duration

	// Timeout is the period of the open state.
	Timeout time.Duration

	// FailureThreshold trips the breaker after this many consecutive failures.
	FailureThreshold uint32
}

// DefaultBreakerConfig returns a sensible default configuration.
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		MaxRequests:      3,
		Interval:         10 * time.Second,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// BreakerDispatcher wraps a Dispatcher with a circuit breaker so a dead SMS
// gateway sheds load instead of stalling the event consumer.
type BreakerDispatcher struct {
	inner   Dispatcher
	breaker *gobreaker.CircuitBreaker[struct{}]
}

// NewBreakerDispatcher wraps the given dispatcher.
func NewBreakerDispatcher(inner Dispatcher, config BreakerConfig, logger *slog.Logger) *BreakerDispatcher {
	if logger == nil {
		logger = slog.Default()
	}

	settings := gobreaker.Settings{
		Name:        "sms-provider",
		MaxRequests: config.MaxRequests,
		Interval:    config.Interval,
		Timeout:     config.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= config.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Info("circuit breaker state changed",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	}

	return &BreakerDispatcher{
		inner:   inner,
		breaker: gobreaker.NewCircuitBreaker[struct{}](settings),
	}
}

// Dispatch sends through the breaker.
func (d *BreakerDispatcher) Dispatch(ctx context.Context, msg Message) error {
	_, err := d.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, d.inner.Dispatch(ctx, msg)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return ErrProviderUnavailable
	}
	return err
}
