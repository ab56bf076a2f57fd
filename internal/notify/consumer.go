package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/domain"
	"github.com/rotahq/rota/internal/shared/infrastructure/eventbus"
	"github.com/rotahq/rota/pkg/observability"
)

// VisitEventConsumer texts clients about changes to their visits. Failures to
// resolve or format an event are logged and swallowed; only provider errors
// propagate so the broker redelivers.
type VisitEventConsumer struct {
	directory  ClientDirectory
	dispatcher Dispatcher
	logger     *slog.Logger
	metrics    observability.Metrics
}

// NewVisitEventConsumer creates a consumer over the given directory and
// dispatcher.
func NewVisitEventConsumer(directory ClientDirectory, dispatcher Dispatcher, logger *slog.Logger) *VisitEventConsumer {
	if logger == nil {
		logger = slog.Default()
	}
	return &VisitEventConsumer{
		directory:  directory,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    observability.NoopMetrics{},
	}
}

// WithMetrics replaces the consumer's metrics collector.
func (c *VisitEventConsumer) WithMetrics(metrics observability.Metrics) *VisitEventConsumer {
	c.metrics = metrics
	return c
}

// EventTypes returns the event types this consumer handles.
func (c *VisitEventConsumer) EventTypes() []string {
	return []string{
		domain.RoutingKeyInstanceConfirmed,
		domain.RoutingKeyInstanceSkipped,
		domain.RoutingKeyInstanceMoved,
	}
}

// Handle processes an event.
func (c *VisitEventConsumer) Handle(ctx context.Context, event *eventbus.ConsumedEvent) error {
	switch event.RoutingKey {
	case domain.RoutingKeyInstanceConfirmed:
		return c.handleConfirmed(ctx, event)
	case domain.RoutingKeyInstanceSkipped:
		return c.handleSkipped(ctx, event)
	case domain.RoutingKeyInstanceMoved:
		return c.handleMoved(ctx, event)
	default:
		c.logger.Warn("unknown event type", "routing_key", event.RoutingKey)
		return nil
	}
}

type confirmedPayload struct {
	ClientID uuid.UUID `json:"client_id"`
	Date     time.Time `json:"date"`
	Clock    string    `json:"clock"`
}

func (c *VisitEventConsumer) handleConfirmed(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload confirmedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		c.logger.Error("failed to unmarshal confirmed payload",
			"event_id", event.EventID, "error", err)
		return nil
	}

	body := fmt.Sprintf("Your cleaning visit is confirmed for %s at %s.",
		payload.Date.Format("Mon 2 Jan"), payload.Clock)
	return c.send(ctx, payload.ClientID, body)
}

type skippedPayload struct {
	ClientID    uuid.UUID `json:"client_id"`
	SkippedDate time.Time `json:"skipped_date"`
	NextDate    time.Time `json:"next_date"`
}

func (c *VisitEventConsumer) handleSkipped(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload skippedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		c.logger.Error("failed to unmarshal skipped payload",
			"event_id", event.EventID, "error", err)
		return nil
	}

	body := fmt.Sprintf("Your cleaning visit on %s was skipped. The next visit is planned for %s.",
		payload.SkippedDate.Format("Mon 2 Jan"), payload.NextDate.Format("Mon 2 Jan"))
	return c.send(ctx, payload.ClientID, body)
}

type movedPayload struct {
	ClientID uuid.UUID `json:"client_id"`
	NewDate  time.Time `json:"new_date"`
	NewClock string    `json:"new_clock"`
}

func (c *VisitEventConsumer) handleMoved(ctx context.Context, event *eventbus.ConsumedEvent) error {
	var payload movedPayload
	if err := json.Unmarshal(event.Payload, &payload); err != nil {
		c.logger.Error("failed to unmarshal moved payload",
			"event_id", event.EventID, "error", err)
		return nil
	}

	body := fmt.Sprintf("Your cleaning visit has moved to %s at %s.",
		payload.NewDate.Format("Mon 2 Jan"), payload.NewClock)
	return c.send(ctx, payload.ClientID, body)
}

func (c *VisitEventConsumer) send(ctx context.Context, clientID uuid.UUID, body string) error {
	phone, err := c.directory.PhoneFor(ctx, clientID)
	if err != nil {
		c.logger.Error("failed to resolve client phone",
			"client_id", clientID, "error", err)
		return nil
	}
	if phone == "" {
		c.logger.Debug("client has no phone on file, skipping sms", "client_id", clientID)
		return nil
	}

	if err := c.dispatcher.Dispatch(ctx, Message{To: phone, Body: body}); err != nil {
		c.metrics.Counter(observability.MetricSMSFailed, 1)
		return err
	}
	c.metrics.Counter(observability.MetricSMSSent, 1)
	return nil
}
