package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/application/services"
	"github.com/rotahq/rota/internal/scheduling/domain"
	sharedApplication "github.com/rotahq/rota/internal/shared/application"
	"github.com/rotahq/rota/internal/shared/infrastructure/outbox"
)

// ConfirmInstanceCommand books a family's pending occurrence. A non-nil
// RescheduleTo overwrites the occurrence date first (confirm-and-reschedule),
// so the cadence re-anchors from the date the visit actually happens on.
type ConfirmInstanceCommand struct {
	InstanceID   uuid.UUID
	RescheduleTo *time.Time
	OperatorID   uuid.UUID
}

// CommandName returns the command name.
func (c ConfirmInstanceCommand) CommandName() string { return "scheduling.confirm_instance" }

// ConfirmInstanceHandler handles the ConfirmInstanceCommand.
type ConfirmInstanceHandler struct {
	familyRepo      domain.FamilyRepository
	appointmentRepo domain.AppointmentRepository
	reconciler      *services.Reconciler
	locker          services.Locker
	outboxRepo      outbox.Repository
	uow             sharedApplication.UnitOfWork
}

// NewConfirmInstanceHandler creates a new ConfirmInstanceHandler.
func NewConfirmInstanceHandler(
	familyRepo domain.FamilyRepository,
	appointmentRepo domain.AppointmentRepository,
	reconciler *services.Reconciler,
	locker services.Locker,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *ConfirmInstanceHandler {
	return &ConfirmInstanceHandler{
		familyRepo:      familyRepo,
		appointmentRepo: appointmentRepo,
		reconciler:      reconciler,
		locker:          locker,
		outboxRepo:      outboxRepo,
		uow:             uow,
	}
}

// Handle executes the ConfirmInstanceCommand and returns the confirmed visit.
func (h *ConfirmInstanceHandler) Handle(ctx context.Context, cmd ConfirmInstanceCommand) (*domain.Appointment, error) {
	instance, err := h.appointmentRepo.FindByID(ctx, cmd.InstanceID)
	if err != nil {
		return nil, err
	}
	if instance == nil || !instance.IsPending() || instance.FamilyID() == nil {
		return nil, domain.ErrInstanceNotFound
	}
	familyID := *instance.FamilyID()

	var confirmed *domain.Appointment
	err = services.WithFamilyLock(ctx, h.locker, familyID, func(ctx context.Context) error {
		return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
			// Reload under the lock: the instance may have been swept away or
			// confirmed by a concurrent request.
			instance, err := h.appointmentRepo.FindByID(txCtx, cmd.InstanceID)
			if err != nil {
				return err
			}
			if instance == nil || !instance.IsPending() || !instance.BelongsToFamily(familyID) {
				return domain.ErrInstanceNotFound
			}

			family, err := h.familyRepo.FindByID(txCtx, familyID)
			if err != nil {
				return err
			}
			if family == nil {
				return domain.ErrFamilyNotFound
			}
			if err := family.Guard(domain.TransitionConfirm); err != nil {
				return err
			}

			if cmd.RescheduleTo != nil {
				if err := instance.Reschedule(*cmd.RescheduleTo); err != nil {
					return err
				}
			}
			if err := instance.Confirm(); err != nil {
				return err
			}

			next := family.AdvanceFrom(instance.Date())
			family.AddDomainEvent(domain.NewInstanceConfirmed(family, instance, next))

			if err := h.appointmentRepo.Save(txCtx, instance); err != nil {
				return err
			}
			if err := h.familyRepo.Save(txCtx, family); err != nil {
				return err
			}
			if err := h.reconciler.Reconcile(txCtx, familyID, &next); err != nil {
				return err
			}

			if err := stageOutbox(txCtx, h.outboxRepo, cmd.OperatorID, family.DomainEvents()); err != nil {
				return err
			}
			family.ClearDomainEvents()

			confirmed = instance
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return confirmed, nil
}
