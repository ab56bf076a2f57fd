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

// CreateAppointmentCommand books a standalone, conflict-checked visit.
type CreateAppointmentCommand struct {
	ClientID   uuid.UUID
	TemplateID uuid.UUID
	Date       time.Time
	Clock      string
	StaffIDs   []uuid.UUID
	Lineage    string
	OperatorID uuid.UUID
}

// CommandName returns the command name.
func (c CreateAppointmentCommand) CommandName() string { return "scheduling.create_appointment" }

// CreateAppointmentHandler guards appointment creation with the slot
// conflict check.
type CreateAppointmentHandler struct {
	appointmentRepo domain.AppointmentRepository
	templates       domain.TemplateReader
	checker         *services.ConflictChecker
	locker          services.Locker
	outboxRepo      outbox.Repository
	uow             sharedApplication.UnitOfWork
}

// NewCreateAppointmentHandler creates a new CreateAppointmentHandler.
func NewCreateAppointmentHandler(
	appointmentRepo domain.AppointmentRepository,
	templates domain.TemplateReader,
	checker *services.ConflictChecker,
	locker services.Locker,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *CreateAppointmentHandler {
	return &CreateAppointmentHandler{
		appointmentRepo: appointmentRepo,
		templates:       templates,
		checker:         checker,
		locker:          locker,
		outboxRepo:      outboxRepo,
		uow:             uow,
	}
}

// Handle executes the CreateAppointmentCommand and returns the booked visit.
func (h *CreateAppointmentHandler) Handle(ctx context.Context, cmd CreateAppointmentCommand) (*domain.Appointment, error) {
	slot, err := domain.SlotOf(cmd.Clock)
	if err != nil {
		return nil, err
	}

	tmpl, err := h.templates.FindByID(ctx, cmd.TemplateID)
	if err != nil {
		return nil, err
	}
	if tmpl == nil {
		return nil, domain.NewValidationError("templateId", "template does not exist")
	}

	var created *domain.Appointment
	err = services.WithSlotLock(ctx, h.locker, cmd.Date, slot, func(ctx context.Context) error {
		if err := h.checker.EnsureFree(ctx, cmd.Date, cmd.Clock, cmd.StaffIDs, nil); err != nil {
			return err
		}

		return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
			appt, err := domain.NewAppointment(
				cmd.ClientID, cmd.TemplateID, nil,
				cmd.Date, cmd.Clock, domain.StatusAppointed, *tmpl,
			)
			if err != nil {
				return err
			}
			if len(cmd.StaffIDs) > 0 {
				appt.AssignStaff(cmd.StaffIDs)
			}
			if cmd.Lineage != "" {
				appt.SetLineage(cmd.Lineage)
			}

			if err := h.appointmentRepo.Save(txCtx, appt); err != nil {
				return err
			}

			event := domain.NewAppointmentCreated(appt)
			if err := stageOutbox(txCtx, h.outboxRepo, cmd.OperatorID, []sharedDomain.DomainEvent{event}); err != nil {
				return err
			}

			created = appt
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}
