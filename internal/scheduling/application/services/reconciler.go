package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/domain"
)

// Reconciler repairs the single-pending invariant of a recurrence family:
// exactly one unconfirmed visit exists per active family, dated at the
// family's projected next visit. It is idempotent, so re-running it after a
// partial failure converges instead of requiring a rollback.
type Reconciler struct {
	appointmentRepo domain.AppointmentRepository
	logger          *slog.Logger
}

// NewReconciler creates a new reconciler.
func NewReconciler(appointmentRepo domain.AppointmentRepository, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		appointmentRepo: appointmentRepo,
		logger:          logger,
	}
}

// Reconcile restores the invariant for one family. A nil targetDate means the
// family should have no pending visit (stopped or deleted); otherwise exactly
// one pending visit must exist dated at targetDate.
func (r *Reconciler) Reconcile(ctx context.Context, familyID uuid.UUID, targetDate *time.Time) error {
	instances, err := r.appointmentRepo.FindByFamily(ctx, familyID)
	if err != nil {
		return err
	}

	var pending []*domain.Appointment
	for _, appt := range instances {
		if appt.IsPending() {
			pending = append(pending, appt)
		}
	}

	if targetDate != nil {
		target := domain.NormalizeDate(*targetDate)
		if len(pending) == 1 && pending[0].Date().Equal(target) {
			return nil
		}
	}

	for _, appt := range pending {
		if err := r.appointmentRepo.Delete(ctx, appt.ID()); err != nil {
			return err
		}
	}

	if targetDate == nil {
		r.logger.Debug("reconciled family to no pending visit",
			"family_id", familyID,
			"removed", len(pending),
		)
		return nil
	}

	donor := pickDonor(instances)
	if donor == nil {
		// Nothing to clone from. The next family operation that materializes
		// an instance will restore the invariant.
		r.logger.Warn("family has no instances to clone a pending visit from",
			"family_id", familyID,
		)
		return nil
	}

	fresh := donor.CloneAsPending(*targetDate)
	if err := r.appointmentRepo.Save(ctx, fresh); err != nil {
		return err
	}

	r.logger.Debug("reconciled family pending visit",
		"family_id", familyID,
		"removed", len(pending),
		"pending_date", fresh.Date().Format("2006-01-02"),
	)

	return nil
}

// pickDonor chooses the visit a fresh pending instance is cloned from: the
// most recently dated appointed visit, falling back to the most recently
// dated visit of any status.
func pickDonor(instances []*domain.Appointment) *domain.Appointment {
	var appointed, any *domain.Appointment
	for _, appt := range instances {
		if any == nil || appt.Date().After(any.Date()) {
			any = appt
		}
		if appt.Status() == domain.StatusAppointed {
			if appointed == nil || appt.Date().After(appointed.Date()) {
				appointed = appt
			}
		}
	}
	if appointed != nil {
		return appointed
	}
	return any
}
