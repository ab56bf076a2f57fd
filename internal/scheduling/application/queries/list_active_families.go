package queries

import (
	"context"
	"time"

	"github.com/rotahq/rota/internal/scheduling/application/services"
	"github.com/rotahq/rota/internal/scheduling/domain"
	sharedApplication "github.com/rotahq/rota/internal/shared/application"
	"github.com/rotahq/rota/internal/shared/infrastructure/outbox"
)

// SweepAndListActiveQuery lists active families after running the
// missed-confirmation sweep: any active family whose pending occurrence is
// dated strictly before today is stopped first and its stale pending visit
// removed. The sweep is read-triggered
// rather than timer-driven because family state only matters when queried,
// but it is named explicitly so it can be exercised on its own.
type SweepAndListActiveQuery struct{}

// QueryName returns the query name.
func (q SweepAndListActiveQuery) QueryName() string { return "scheduling.sweep_and_list_active" }

// SweepAndListActiveHandler handles the SweepAndListActiveQuery.
type SweepAndListActiveHandler struct {
	familyRepo      domain.FamilyRepository
	appointmentRepo domain.AppointmentRepository
	reconciler      *services.Reconciler
	outboxRepo      outbox.Repository
	uow             sharedApplication.UnitOfWork
	now             func() time.Time
}

// NewSweepAndListActiveHandler creates a new SweepAndListActiveHandler. A nil
// now falls back to time.Now.
func NewSweepAndListActiveHandler(
	familyRepo domain.FamilyRepository,
	appointmentRepo domain.AppointmentRepository,
	reconciler *services.Reconciler,
	outboxRepo outbox.Repository,
	uow sharedApplication.UnitOfWork,
	now func() time.Time,
) *SweepAndListActiveHandler {
	if now == nil {
		now = time.Now
	}
	return &SweepAndListActiveHandler{
		familyRepo:      familyRepo,
		appointmentRepo: appointmentRepo,
		reconciler:      reconciler,
		outboxRepo:      outboxRepo,
		uow:             uow,
		now:             now,
	}
}

// Handle sweeps missed confirmations and returns the families still active.
func (h *SweepAndListActiveHandler) Handle(ctx context.Context, _ SweepAndListActiveQuery) ([]*domain.Family, error) {
	families, err := h.familyRepo.FindByStatus(ctx, domain.FamilyActive)
	if err != nil {
		return nil, err
	}

	today := domain.NormalizeDate(h.now().UTC())

	var live []*domain.Family
	for _, family := range families {
		missed, err := h.hasMissedConfirmation(ctx, family, today)
		if err != nil {
			return nil, err
		}
		if !missed {
			live = append(live, family)
			continue
		}
		if err := h.stopMissed(ctx, family); err != nil {
			return nil, err
		}
	}

	return live, nil
}

// hasMissedConfirmation reports whether any pending occurrence of the family
// is dated strictly before today.
func (h *SweepAndListActiveHandler) hasMissedConfirmation(ctx context.Context, family *domain.Family, today time.Time) (bool, error) {
	instances, err := h.appointmentRepo.FindByFamily(ctx, family.ID())
	if err != nil {
		return false, err
	}
	for _, appt := range instances {
		if appt.IsPending() && appt.Date().Before(today) {
			return true, nil
		}
	}
	return false, nil
}

func (h *SweepAndListActiveHandler) stopMissed(ctx context.Context, family *domain.Family) error {
	return sharedApplication.WithUnitOfWork(ctx, h.uow, func(txCtx context.Context) error {
		if err := family.Stop("missed confirmation"); err != nil {
			return err
		}
		if err := h.familyRepo.Save(txCtx, family); err != nil {
			return err
		}
		// A stopped family keeps no pending visit on the books.
		if err := h.reconciler.Reconcile(txCtx, family.ID(), nil); err != nil {
			return err
		}

		msgs, err := outbox.FromEvents(family.DomainEvents())
		if err != nil {
			return err
		}
		if err := h.outboxRepo.SaveBatch(txCtx, msgs); err != nil {
			return err
		}
		family.ClearDomainEvents()
		return nil
	})
}
