package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/domain"
	"github.com/rotahq/rota/pkg/observability"
)

// ConflictChecker detects half-day slot double-bookings: two non-cancelled
// visits sharing a staff member must not land in the same (date, slot) pair.
type ConflictChecker struct {
	appointmentRepo domain.AppointmentRepository
	logger          *slog.Logger
	metrics         observability.Metrics
}

// NewConflictChecker creates a new conflict checker.
func NewConflictChecker(appointmentRepo domain.AppointmentRepository, logger *slog.Logger) *ConflictChecker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConflictChecker{
		appointmentRepo: appointmentRepo,
		logger:          logger,
		metrics:         observability.NoopMetrics{},
	}
}

// WithMetrics replaces the checker's metrics collector.
func (c *ConflictChecker) WithMetrics(metrics observability.Metrics) *ConflictChecker {
	c.metrics = metrics
	return c
}

// CheckConflict returns the staff IDs among staffIDs that already hold a
// blocking visit in the same half-day slot on the given date. A nil exclude
// is used for creates; updates pass their own id so a visit does not
// conflict with itself.
func (c *ConflictChecker) CheckConflict(
	ctx context.Context,
	date time.Time,
	clock string,
	staffIDs []uuid.UUID,
	exclude *uuid.UUID,
) ([]uuid.UUID, error) {
	if len(staffIDs) == 0 {
		return nil, nil
	}

	slot, err := domain.SlotOf(clock)
	if err != nil {
		return nil, err
	}

	c.metrics.Counter(observability.MetricConflictChecks, 1)

	existing, err := c.appointmentRepo.FindByDate(ctx, domain.NormalizeDate(date))
	if err != nil {
		return nil, err
	}

	wanted := make(map[uuid.UUID]struct{}, len(staffIDs))
	for _, id := range staffIDs {
		wanted[id] = struct{}{}
	}

	offending := make(map[uuid.UUID]struct{})
	for _, appt := range existing {
		if exclude != nil && appt.ID() == *exclude {
			continue
		}
		if !appt.Status().BlocksSlot() {
			continue
		}
		if appt.Slot() != slot {
			continue
		}
		for _, staffID := range appt.StaffIDs() {
			if _, ok := wanted[staffID]; ok {
				offending[staffID] = struct{}{}
			}
		}
	}

	if len(offending) == 0 {
		return nil, nil
	}

	// Report in the caller's order so error messages are stable.
	result := make([]uuid.UUID, 0, len(offending))
	for _, id := range staffIDs {
		if _, ok := offending[id]; ok {
			result = append(result, id)
		}
	}

	c.metrics.Counter(observability.MetricConflictsBlocked, 1)
	c.logger.Debug("slot conflict detected",
		"date", domain.NormalizeDate(date).Format("2006-01-02"),
		"slot", slot,
		"staff_count", len(result),
	)

	return result, nil
}

// EnsureFree runs CheckConflict and converts a non-empty result into a
// ConflictError carrying the offending staff IDs.
func (c *ConflictChecker) EnsureFree(
	ctx context.Context,
	date time.Time,
	clock string,
	staffIDs []uuid.UUID,
	exclude *uuid.UUID,
) error {
	offending, err := c.CheckConflict(ctx, date, clock, staffIDs, exclude)
	if err != nil {
		return err
	}
	if len(offending) == 0 {
		return nil
	}

	slot, _ := domain.SlotOf(clock)
	return &domain.ConflictError{
		Date:     domain.NormalizeDate(date).Format("2006-01-02"),
		Slot:     slot,
		StaffIDs: offending,
	}
}
