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

// MoveInstanceCommand slides a family's pending occurrence to a new date and
// time. The occurrence stays unconfirmed and no new instance is materialized:
// moving means the visit slides, not that it happened.
type MoveInstanceCommand struct {
	InstanceID uuid.UUID
	NewDate    time.Time
	NewClock   string
	OperatorID uuid.UUID
}

// CommandName returns the command name.
func (c MoveInstanceCommand) CommandName() string { return "scheduling.move_instance" }

// MoveInstanceHandler handles the MoveInstanceCommand.
type MoveInstanceHandler struct {
	familyRepo      domain.FamilyRepository
	appointmentRepo domain.AppointmentRepository
	locker          services.Locker
	outboxRepo      outbox.Repository
	uow             sharedApplication.UnitOfWork
}

// NewMoveInstanceHandler creates a new MoveInstanceHandler.
func NewMoveInstanceHandler(
	familyRepo domain.FamilyRepository,
	appointmentRepo domain.AppointmentRepository,
	locker services.Locker,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *MoveInstanceHandler {
	return &MoveInstanceHandler{
		familyRepo:      familyRepo,
		appointmentRepo: appointmentRepo,
		locker:          locker,
		outboxRepo:      outboxRepo,
		uow:             uow,
	}
}

// Handle executes the MoveInstanceCommand and returns the moved visit.
func (h *MoveInstanceHandler) Handle(ctx context.Context, cmd MoveInstanceCommand) (*domain.Appointment, error) {
	instance, err := h.appointmentRepo.FindByID(ctx, cmd.InstanceID)
	if err != nil {
		return nil, err
	}
	if instance == nil || !instance.IsPending() || instance.FamilyID() == nil {
		return nil, domain.ErrInstanceNotFound
	}
	familyID := *instance.FamilyID()

	var moved *domain.Appointment
	err = services.WithFamilyLock(ctx, h.locker, familyID, func(ctx context.Context) error {
		return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
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
			if err := family.Guard(domain.TransitionMove); err != nil {
				return err
			}

			if err := instance.MoveTo(cmd.NewDate, cmd.NewClock); err != nil {
				return err
			}
			family.SetNextVisitDate(instance.Date())
			family.AddDomainEvent(domain.NewInstanceMoved(family, instance))

			if err := h.appointmentRepo.Save(txCtx, instance); err != nil {
				return err
			}
			if err := h.familyRepo.Save(txCtx, family); err != nil {
				return err
			}

			if err := stageOutbox(txCtx, h.outboxRepo, cmd.OperatorID, family.DomainEvents()); err != nil {
				return err
			}
			family.ClearDomainEvents()

			moved = instance
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return moved, nil
}
