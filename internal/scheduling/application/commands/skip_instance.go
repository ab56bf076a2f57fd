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

// SkipInstanceCommand drops a family's pending occurrence without
// rescheduling it. The cadence advances from the skipped date.
type SkipInstanceCommand struct {
	InstanceID uuid.UUID
	OperatorID uuid.UUID
}

// CommandName returns the command name.
func (c SkipInstanceCommand) CommandName() string { return "scheduling.skip_instance" }

// SkipInstanceResult reports where the family lands after the skip.
type SkipInstanceResult struct {
	NextDate     time.Time
	NextInstance *domain.Appointment
}

// SkipInstanceHandler handles the SkipInstanceCommand.
type SkipInstanceHandler struct {
	familyRepo      domain.FamilyRepository
	appointmentRepo domain.AppointmentRepository
	reconciler      *services.Reconciler
	locker          services.Locker
	outboxRepo      outbox.Repository
	uow             sharedApplication.UnitOfWork
}

// NewSkipInstanceHandler creates a new SkipInstanceHandler.
func NewSkipInstanceHandler(
	familyRepo domain.FamilyRepository,
	appointmentRepo domain.AppointmentRepository,
	reconciler *services.Reconciler,
	locker services.Locker,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *SkipInstanceHandler {
	return &SkipInstanceHandler{
		familyRepo:      familyRepo,
		appointmentRepo: appointmentRepo,
		reconciler:      reconciler,
		locker:          locker,
		outboxRepo:      outboxRepo,
		uow:             uow,
	}
}

// Handle executes the SkipInstanceCommand.
func (h *SkipInstanceHandler) Handle(ctx context.Context, cmd SkipInstanceCommand) (*SkipInstanceResult, error) {
	instance, err := h.appointmentRepo.FindByID(ctx, cmd.InstanceID)
	if err != nil {
		return nil, err
	}
	if instance == nil || !instance.IsPending() || instance.FamilyID() == nil {
		return nil, domain.ErrInstanceNotFound
	}
	familyID := *instance.FamilyID()

	var result *SkipInstanceResult
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
			if err := family.Guard(domain.TransitionSkip); err != nil {
				return err
			}

			skippedDate := instance.Date()
			if err := instance.Skip(); err != nil {
				return err
			}

			next := family.AdvanceFrom(skippedDate)
			family.AddDomainEvent(domain.NewInstanceSkipped(family, instance, next))

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

			fresh, err := findPending(txCtx, h.appointmentRepo, familyID)
			if err != nil {
				return err
			}

			result = &SkipInstanceResult{NextDate: next, NextInstance: fresh}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// findPending returns the family's single pending visit, or nil.
func findPending(ctx context.Context, repo domain.AppointmentRepository, familyID uuid.UUID) (*domain.Appointment, error) {
	instances, err := repo.FindByFamily(ctx, familyID)
	if err != nil {
		return nil, err
	}
	for _, appt := range instances {
		if appt.IsPending() {
			return appt, nil
		}
	}
	return nil, nil
}
