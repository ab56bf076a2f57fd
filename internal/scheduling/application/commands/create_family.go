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

// CreateFamilyCommand books a recurring series: an active family plus its
// first unconfirmed occurrence.
type CreateFamilyCommand struct {
	ClientID   uuid.UUID
	TemplateID uuid.UUID
	FirstDate  time.Time
	Clock      string
	Rule       domain.Rule
	StaffIDs   []uuid.UUID
	OperatorID uuid.UUID
}

// CommandName returns the command name.
func (c CreateFamilyCommand) CommandName() string { return "scheduling.create_family" }

// CreateFamilyResult carries the created aggregate pair back to the caller.
type CreateFamilyResult struct {
	Family          *domain.Family
	PendingInstance *domain.Appointment
}

// CreateFamilyHandler handles the CreateFamilyCommand.
type CreateFamilyHandler struct {
	familyRepo      domain.FamilyRepository
	appointmentRepo domain.AppointmentRepository
	templates       domain.TemplateReader
	checker         *services.ConflictChecker
	locker          services.Locker
	outboxRepo      outbox.Repository
	uow             sharedApplication.UnitOfWork
}

// NewCreateFamilyHandler creates a new CreateFamilyHandler.
func NewCreateFamilyHandler(
	familyRepo domain.FamilyRepository,
	appointmentRepo domain.AppointmentRepository,
	templates domain.TemplateReader,
	checker *services.ConflictChecker,
	locker services.Locker,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *CreateFamilyHandler {
	return &CreateFamilyHandler{
		familyRepo:      familyRepo,
		appointmentRepo: appointmentRepo,
		templates:       templates,
		checker:         checker,
		locker:          locker,
		outboxRepo:      outboxRepo,
		uow:             uow,
	}
}

// Handle executes the CreateFamilyCommand.
func (h *CreateFamilyHandler) Handle(ctx context.Context, cmd CreateFamilyCommand) (*CreateFamilyResult, error) {
	if cmd.FirstDate.IsZero() {
		return nil, domain.NewValidationError("firstDate", "date is required")
	}
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

	var result *CreateFamilyResult
	err = services.WithSlotLock(ctx, h.locker, cmd.FirstDate, slot, func(ctx context.Context) error {
		if err := h.checker.EnsureFree(ctx, cmd.FirstDate, cmd.Clock, cmd.StaffIDs, nil); err != nil {
			return err
		}

		return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
			family, err := domain.NewFamily(cmd.ClientID, cmd.TemplateID, cmd.Rule, cmd.FirstDate)
			if err != nil {
				return err
			}

			familyID := family.ID()
			pending, err := domain.NewAppointment(
				cmd.ClientID, cmd.TemplateID, &familyID,
				cmd.FirstDate, cmd.Clock, domain.StatusPendingConfirm, *tmpl,
			)
			if err != nil {
				return err
			}
			if len(cmd.StaffIDs) > 0 {
				pending.AssignStaff(cmd.StaffIDs)
			}

			if err := h.familyRepo.Save(txCtx, family); err != nil {
				return err
			}
			if err := h.appointmentRepo.Save(txCtx, pending); err != nil {
				return err
			}

			if err := stageOutbox(txCtx, h.outboxRepo, cmd.OperatorID, family.DomainEvents()); err != nil {
				return err
			}
			family.ClearDomainEvents()

			result = &CreateFamilyResult{Family: family, PendingInstance: pending}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}
