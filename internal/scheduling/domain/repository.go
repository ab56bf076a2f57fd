package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// FamilyRepository defines persistence for recurrence families.
type FamilyRepository interface {
	// Save persists a family (create or update).
	Save(ctx context.Context, family *Family) error

	// FindByID finds a family by its ID. Returns nil, nil when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*Family, error)

	// FindByStatus returns families in the given lifecycle state.
	FindByStatus(ctx context.Context, status FamilyStatus) ([]*Family, error)

	// Delete removes a family record.
	Delete(ctx context.Context, id uuid.UUID) error
}

// AppointmentRepository defines persistence for visits.
type AppointmentRepository interface {
	// Save persists a visit (create or update).
	Save(ctx context.Context, appointment *Appointment) error

	// FindByID finds a visit by its ID. Returns nil, nil when absent.
	FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error)

	// FindByFamily returns every visit referencing the family.
	FindByFamily(ctx context.Context, familyID uuid.UUID) ([]*Appointment, error)

	// FindByDate returns all visits on a calendar day, regardless of status.
	FindByDate(ctx context.Context, date time.Time) ([]*Appointment, error)

	// Delete removes a visit row.
	Delete(ctx context.Context, id uuid.UUID) error
}

// Template carries the read-only reference data used to materialize visits
// from a job template: address, price and size/service fields.
type Template struct {
	ID          uuid.UUID
	Address     string
	PriceCents  int64
	SizeSqm     int
	ServiceType string
}

// TemplateReader looks up job templates. The engine treats templates as
// reference data and never writes them.
type TemplateReader interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Template, error)
}
