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

// RestartFamilyCommand reactivates a stopped family at a new date and time.
type RestartFamilyCommand struct {
	FamilyID   uuid.UUID
	Date       time.Time
	Clock      string
	OperatorID uuid.UUID
}

// CommandName returns the command name.
func (c RestartFamilyCommand) CommandName() string { return "scheduling.restart_family" }

// RestartFamilyResult carries the reactivated family and its fresh pending visit.
type RestartFamilyResult struct {
	Family          *domain.Family
	PendingInstance *domain.Appointment
}

// RestartFamilyHandler handles the RestartFamilyCommand.
type RestartFamilyHandler struct {
	familyRepo      domain.FamilyRepository
	appointmentRepo domain.AppointmentRepository
	locker          services.Locker
	outboxRepo      outbox.Repository
	uow             sharedApplication.UnitOfWork
}

// NewRestartFamilyHandler creates a new RestartFamilyHandler.
func NewRestartFamilyHandler(
	familyRepo domain.FamilyRepository,
	appointmentRepo domain.AppointmentRepository,
	locker services.Locker,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *RestartFamilyHandler {
	return &RestartFamilyHandler{
		familyRepo:      familyRepo,
		appointmentRepo: appointmentRepo,
		locker:          locker,
		outboxRepo:      outboxRepo,
		uow:             uow,
	}
}

// Handle executes the RestartFamilyCommand.
func (h *RestartFamilyHandler) Handle(ctx context.Context, cmd RestartFamilyCommand) (*RestartFamilyResult, error) {
	if _, err := domain.ParseClock(cmd.Clock); err != nil {
		return nil, err
	}

	var result *RestartFamilyResult
	err := services.WithFamilyLock(ctx, h.locker, cmd.FamilyID, func(ctx context.Context) error {
		return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
			family, err := h.familyRepo.FindByID(txCtx, cmd.FamilyID)
			if err != nil {
				return err
			}
			if family == nil {
				return domain.ErrFamilyNotFound
			}
			if err := family.Restart(cmd.Date); err != nil {
				return err
			}

			instances, err := h.appointmentRepo.FindByFamily(txCtx, cmd.FamilyID)
			if err != nil {
				return err
			}
			donor := mostRecent(instances)
			if donor == nil {
				return domain.ErrInstanceNotFound
			}
			pending, err := donor.CloneAsPendingAt(cmd.Date, cmd.Clock)
			if err != nil {
				return err
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

			result = &RestartFamilyResult{Family: family, PendingInstance: pending}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// mostRecent picks the latest-dated visit of any status.
func mostRecent(instances []*domain.Appointment) *domain.Appointment {
	var latest *domain.Appointment
	for _, appt := range instances {
		if latest == nil || appt.Date().After(latest.Date()) {
			latest = appt
		}
	}
	return latest
}
