package commands

import (
	"context"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/application/services"
	"github.com/rotahq/rota/internal/scheduling/domain"
	sharedApplication "github.com/rotahq/rota/internal/shared/application"
	"github.com/rotahq/rota/internal/shared/infrastructure/outbox"
)

// ReattachRescheduledCommand repairs a family after the generic reschedule
// flow replaced one of its confirmed visits: the old visit was flipped to
// reschedule_old and a standalone replacement was created outside this
// engine. The replacement is re-attached to the family and the family's
// projection is recomputed.
type ReattachRescheduledCommand struct {
	OldInstanceID uuid.UUID
	NewInstanceID uuid.UUID
	OperatorID    uuid.UUID
}

// CommandName returns the command name.
func (c ReattachRescheduledCommand) CommandName() string {
	return "scheduling.reattach_rescheduled"
}

// ReattachRescheduledHandler handles the ReattachRescheduledCommand.
type ReattachRescheduledHandler struct {
	familyRepo      domain.FamilyRepository
	appointmentRepo domain.AppointmentRepository
	locker          services.Locker
	outboxRepo      outbox.Repository
	uow             sharedApplication.UnitOfWork
}

// NewReattachRescheduledHandler creates a new ReattachRescheduledHandler.
func NewReattachRescheduledHandler(
	familyRepo domain.FamilyRepository,
	appointmentRepo domain.AppointmentRepository,
	locker services.Locker,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
) *ReattachRescheduledHandler {
	return &ReattachRescheduledHandler{
		familyRepo:      familyRepo,
		appointmentRepo: appointmentRepo,
		locker:          locker,
		outboxRepo:      outboxRepo,
		uow:             uow,
	}
}

// Handle executes the ReattachRescheduledCommand.
func (h *ReattachRescheduledHandler) Handle(ctx context.Context, cmd ReattachRescheduledCommand) error {
	old, err := h.appointmentRepo.FindByID(ctx, cmd.OldInstanceID)
	if err != nil {
		return err
	}
	if old == nil || old.FamilyID() == nil {
		return domain.ErrInstanceNotFound
	}
	// The generic flow flips the superseded visit to reschedule_old; a
	// confirmed visit is tolerated in case repair runs before the flip.
	if old.Status() != domain.StatusRescheduleOld && old.Status() != domain.StatusAppointed {
		return domain.ErrInstanceNotRescheduled
	}
	familyID := *old.FamilyID()

	return services.WithFamilyLock(ctx, h.locker, familyID, func(ctx context.Context) error {
		return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
			replacement, err := h.appointmentRepo.FindByID(txCtx, cmd.NewInstanceID)
			if err != nil {
				return err
			}
			if replacement == nil {
				return domain.ErrInstanceNotFound
			}

			family, err := h.familyRepo.FindByID(txCtx, familyID)
			if err != nil {
				return err
			}
			if family == nil {
				return domain.ErrFamilyNotFound
			}
			// A stopped family would never materialize the projection; it
			// must be restarted before visits can be re-attached.
			if !family.IsActive() {
				return domain.ErrFamilyNotActive
			}

			replacement.AttachFamily(familyID)

			// The projection is whichever comes first: the replacement date
			// advanced by one cadence step, or a still-pending occurrence.
			next := family.Rule().NextDate(replacement.Date())
			pending, err := findPending(txCtx, h.appointmentRepo, familyID)
			if err != nil {
				return err
			}
			if pending != nil && pending.Date().Before(next) {
				next = pending.Date()
			}
			family.SetNextVisitDate(next)
			family.AddDomainEvent(domain.NewInstanceRescheduled(family, cmd.OldInstanceID, replacement.ID(), next))

			if err := h.appointmentRepo.Save(txCtx, replacement); err != nil {
				return err
			}
			if err := h.familyRepo.Save(txCtx, family); err != nil {
				return err
			}

			if err := stageOutbox(txCtx, h.outboxRepo, cmd.OperatorID, family.DomainEvents()); err != nil {
				return err
			}
			family.ClearDomainEvents()
			return nil
		})
	})
}
