package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/application/services"
	"github.com/rotahq/rota/internal/scheduling/domain"
	sharedApplication "github.com/rotahq/rota/internal/shared/application"
	"github.com/rotahq/rota/internal/shared/infrastructure/outbox"
)

// StopFamilyCommand stops an active family by operator decision, as opposed
// to the automatic missed-confirmation stop. The pending occurrence is
// removed; confirmed visits stay on the books.
type StopFamilyCommand struct {
	FamilyID   uuid.UUID
	Reason     string
	OperatorID uuid.UUID
}

// CommandName returns the command name.
func (c StopFamilyCommand) CommandName() string { return "scheduling.stop_family" }

// StopFamilyHandler handles the StopFamilyCommand.
type StopFamilyHandler struct {
	familyRepo domain.FamilyRepository
	reconciler *services.Reconciler
	locker     services.Locker
	outboxRepo outbox.Repository
	uow        sharedApplication.UnitOfWork
}

// NewStopFamilyHandler creates a new StopFamilyHandler.
func NewStopFamilyHandler(
	familyRepo domain.FamilyRepository,
	reconciler *services.Reconciler,
	locker services.Locker,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *StopFamilyHandler {
	return &StopFamilyHandler{
		familyRepo: familyRepo,
		reconciler: reconciler,
		locker:     locker,
		outboxRepo: outboxRepo,
		uow:        uow,
	}
}

// Handle executes the StopFamilyCommand.
func (h *StopFamilyHandler) Handle(ctx context.Context, cmd StopFamilyCommand) (*domain.Family, error) {
	reason := cmd.Reason
	if reason == "" {
		reason = "stopped by operator"
	}

	var stopped *domain.Family
	err := services.WithFamilyLock(ctx, h.locker, cmd.FamilyID, func(ctx context.Context) error {
		return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
			family, err := h.familyRepo.FindByID(txCtx, cmd.FamilyID)
			if err != nil {
				return err
			}
			if family == nil {
				return domain.ErrFamilyNotFound
			}
			if err := family.Stop(reason); err != nil {
				return err
			}
			if err := h.familyRepo.Save(txCtx, family); err != nil {
				return err
			}
			if err := h.reconciler.Reconcile(txCtx, cmd.FamilyID, nil); err != nil {
				return err
			}

			if err := stageOutbox(txCtx, h.outboxRepo, cmd.OperatorID, family.DomainEvents()); err != nil {
				return err
			}
			family.ClearDomainEvents()

			stopped = family
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return stopped, nil
}
