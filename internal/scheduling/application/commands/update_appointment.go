package commands

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/application/services"
	"github.com/rotahq/rota/internal/scheduling/domain"
	sharedApplication "github.com/rotahq/rota/internal/shared/application"
	sharedDomain "github.com/rotahq/rota/internal/shared/domain"
	"github.com/rotahq/rota/internal/shared/infrastructure/outbox"
)

// UpdateAppointmentCommand rebooks a visit's date, time and staffing through
// the generic edit flow. The conflict check excludes the visit itself so an
// unchanged slot does not collide with its own row.
type UpdateAppointmentCommand struct {
	AppointmentID uuid.UUID
	Date          time.Time
	Clock         string
	StaffIDs      []uuid.UUID
	OperatorID    uuid.UUID
}

// CommandName returns the command name.
func (c UpdateAppointmentCommand) CommandName() string { return "scheduling.update_appointment" }

// UpdateAppointmentHandler guards appointment updates with the slot
// conflict check.
type UpdateAppointmentHandler struct {
	appointmentRepo domain.AppointmentRepository
	checker         *services.ConflictChecker
	locker          services.Locker
	outboxRepo      outbox.Repository
	uow             sharedApplication.UnitOfWork
}

// NewUpdateAppointmentHandler creates a new UpdateAppointmentHandler.
func NewUpdateAppointmentHandler(
	appointmentRepo domain.AppointmentRepository,
	checker *services.ConflictChecker,
	locker services.Locker,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *UpdateAppointmentHandler {
	return &UpdateAppointmentHandler{
		appointmentRepo: appointmentRepo,
		checker:         checker,
		locker:          locker,
		outboxRepo:      outboxRepo,
		uow:             uow,
	}
}

// Handle executes the UpdateAppointmentCommand and returns the updated visit.
func (h *UpdateAppointmentHandler) Handle(ctx context.Context, cmd UpdateAppointmentCommand) (*domain.Appointment, error) {
	slot, err := domain.SlotOf(cmd.Clock)
	if err != nil {
		return nil, err
	}

	var updated *domain.Appointment
	err = services.WithSlotLock(ctx, h.locker, cmd.Date, slot, func(ctx context.Context) error {
		excludeID := cmd.AppointmentID
		if err := h.checker.EnsureFree(ctx, cmd.Date, cmd.Clock, cmd.StaffIDs, &excludeID); err != nil {
			return err
		}

		return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
			appt, err := h.appointmentRepo.FindByID(txCtx, cmd.AppointmentID)
			if err != nil {
				return err
			}
			if appt == nil {
				return domain.ErrInstanceNotFound
			}

			if err := appt.Rebook(cmd.Date, cmd.Clock); err != nil {
				return err
			}
			appt.AssignStaff(cmd.StaffIDs)

			if err := h.appointmentRepo.Save(txCtx, appt); err != nil {
				return err
			}

			event := domain.NewAppointmentUpdated(appt)
			if err := stageOutbox(txCtx, h.outboxRepo, cmd.OperatorID, []sharedDomain.DomainEvent{event}); err != nil {
				return err
			}

			updated = appt
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}
