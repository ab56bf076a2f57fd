package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/application/services"
	"github.com/rotahq/rota/internal/scheduling/domain"
	sharedApplication "github.com/rotahq/rota/internal/shared/application"
	sharedDomain "github.com/rotahq/rota/internal/shared/domain"
	"github.com/rotahq/rota/internal/shared/infrastructure/outbox"
)

// DeleteFamilyCommand removes a stopped family. Pending occurrences are
// deleted; every other visit keeps its history but loses the family
// reference.
type DeleteFamilyCommand struct {
	FamilyID   uuid.UUID
	OperatorID uuid.UUID
}

// CommandName returns the command name.
func (c DeleteFamilyCommand) CommandName() string { return "scheduling.delete_family" }

// DeleteFamilyHandler handles the DeleteFamilyCommand.
type DeleteFamilyHandler struct {
	familyRepo      domain.FamilyRepository
	appointmentRepo domain.AppointmentRepository
	reconciler      *services.Reconciler
	locker          services.Locker
	outboxRepo      outbox.Repository
	uow             sharedApplication.UnitOfWork
}

// NewDeleteFamilyHandler creates a new DeleteFamilyHandler.
func NewDeleteFamilyHandler(
	familyRepo domain.FamilyRepository,
	appointmentRepo domain.AppointmentRepository,
	reconciler *services.Reconciler,
	locker services.Locker,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *DeleteFamilyHandler {
	return &DeleteFamilyHandler{
		familyRepo:      familyRepo,
		appointmentRepo: appointmentRepo,
		reconciler:      reconciler,
		locker:          locker,
		outboxRepo:      outboxRepo,
		uow:             uow,
	}
}

// Handle executes the DeleteFamilyCommand.
func (h *DeleteFamilyHandler) Handle(ctx context.Context, cmd DeleteFamilyCommand) error {
	return services.WithFamilyLock(ctx, h.locker, cmd.FamilyID, func(ctx context.Context) error {
		return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
			family, err := h.familyRepo.FindByID(txCtx, cmd.FamilyID)
			if err != nil {
				return err
			}
			if family == nil {
				return domain.ErrFamilyNotFound
			}
			if err := family.Guard(domain.TransitionDelete); err != nil {
				return err
			}

			// Drop the pending occurrence, then orphan the history.
			if err := h.reconciler.Reconcile(txCtx, cmd.FamilyID, nil); err != nil {
				return err
			}
			instances, err := h.appointmentRepo.FindByFamily(txCtx, cmd.FamilyID)
			if err != nil {
				return err
			}
			for _, appt := range instances {
				appt.DetachFamily()
				if err := h.appointmentRepo.Save(txCtx, appt); err != nil {
					return err
				}
			}

			if err := h.familyRepo.Delete(txCtx, cmd.FamilyID); err != nil {
				return err
			}

			event := domain.NewFamilyDeleted(cmd.FamilyID)
			return stageOutbox(txCtx, h.outboxRepo, cmd.OperatorID, []sharedDomain.DomainEvent{event})
		})
	})
}
