package commands

import (
	"context"

	"github.com/google/uuid"
	sharedApplication "github.com/rotahq/rota/internal/shared/application"
	sharedDomain "github.com/rotahq/rota/internal/shared/domain"
	"github.com/rotahq/rota/internal/shared/infrastructure/outbox"
)

// stageOutbox stamps events with operator metadata and saves them to the
// outbox inside the current transaction.
func stageOutbox(ctx context.Context, repo outbox.Repository, operatorID uuid.UUID, events []sharedDomain.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	sharedApplication.ApplyEventMetadata(events, sharedApplication.NewEventMetadata(operatorID))

	msgs, err := outbox.FromEvents(events)
	if err != nil {
		return err
	}
	return repo.SaveBatch(ctx, msgs)
}
