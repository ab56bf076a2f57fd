package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotahq/rota/internal/scheduling/domain"
	sharedPersistence "github.com/rotahq/rota/internal/shared/infrastructure/persistence"
)

// PostgresAppointmentRepository implements domain.AppointmentRepository on
// PostgreSQL.
type PostgresAppointmentRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresAppointmentRepository creates a new Postgres visit repository.
func NewPostgresAppointmentRepository(pool *pgxpool.Pool) *PostgresAppointmentRepository {
	return &PostgresAppointmentRepository{pool: pool}
}

const pgUpsertAppointment = `
	INSERT INTO appointments (
		id, family_id, client_id, template_id, visit_date, visit_time,
		status, staff_ids, lineage, address, price_cents, size_sqm,
		service_type, notes, created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	ON CONFLICT (id) DO UPDATE SET
		family_id = EXCLUDED.family_id,
		visit_date = EXCLUDED.visit_date,
		visit_time = EXCLUDED.visit_time,
		status = EXCLUDED.status,
		staff_ids = EXCLUDED.staff_ids,
		lineage = EXCLUDED.lineage,
		address = EXCLUDED.address,
		price_cents = EXCLUDED.price_cents,
		size_sqm = EXCLUDED.size_sqm,
		service_type = EXCLUDED.service_type,
		notes = EXCLUDED.notes,
		updated_at = EXCLUDED.updated_at
`

// Save persists a visit. Writes join the context transaction when one is
// present.
func (r *PostgresAppointmentRepository) Save(ctx context.Context, appointment *domain.Appointment) error {
	exec := sharedPersistence.Executor(ctx, r.pool)
	_, err := exec.Exec(ctx, pgUpsertAppointment,
		appointment.ID(), appointment.FamilyID(), appointment.ClientID(),
		appointment.TemplateID(), appointment.Date(), appointment.Clock(),
		string(appointment.Status()), appointment.StaffIDs(), appointment.Lineage(),
		appointment.Address(), appointment.PriceCents(), appointment.SizeSqm(),
		appointment.ServiceType(), appointment.Notes(),
		appointment.CreatedAt(), appointment.UpdatedAt(),
	)
	return err
}

const pgSelectAppointment = `
	SELECT id, family_id, client_id, template_id, visit_date, visit_time,
	       status, staff_ids, lineage, address, price_cents, size_sqm,
	       service_type, notes, created_at, updated_at
	FROM appointments
`

// FindByID finds a visit by its ID. Returns nil, nil when absent.
func (r *PostgresAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	row := exec.QueryRow(ctx, pgSelectAppointment+` WHERE id = $1`, id)

	appointment, err := scanPgAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return appointment, nil
}

// FindByFamily returns every visit referencing the family, oldest date first.
func (r *PostgresAppointmentRepository) FindByFamily(ctx context.Context, familyID uuid.UUID) ([]*domain.Appointment, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	rows, err := exec.Query(ctx, pgSelectAppointment+` WHERE family_id = $1 ORDER BY visit_date, visit_time`, familyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPgAppointments(rows)
}

// FindByDate returns all visits on a calendar day, regardless of status.
func (r *PostgresAppointmentRepository) FindByDate(ctx context.Context, date time.Time) ([]*domain.Appointment, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	rows, err := exec.Query(ctx, pgSelectAppointment+` WHERE visit_date = $1 ORDER BY visit_time`, domain.NormalizeDate(date))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectPgAppointments(rows)
}

// Delete removes a visit row.
func (r *PostgresAppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := sharedPersistence.Executor(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrInstanceNotFound
	}
	return nil
}

func collectPgAppointments(rows pgx.Rows) ([]*domain.Appointment, error) {
	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		appointment, err := scanPgAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	return appointments, rows.Err()
}

func scanPgAppointment(row pgx.Row) (*domain.Appointment, error) {
	var (
		id, clientID, templateID    uuid.UUID
		familyID                    *uuid.UUID
		date, createdAt, updatedAt  time.Time
		clock, status, lineage      string
		staffIDs                    []uuid.UUID
		address, serviceType, notes string
		priceCents                  int64
		sizeSqm                     int
	)
	if err := row.Scan(
		&id, &familyID, &clientID, &templateID, &date, &clock,
		&status, &staffIDs, &lineage, &address, &priceCents, &sizeSqm,
		&serviceType, &notes, &createdAt, &updatedAt,
	); err != nil {
		return nil, err
	}

	return domain.RehydrateAppointment(
		id, familyID, clientID, templateID,
		date, clock,
		domain.ParseAppointmentStatus(status),
		staffIDs, lineage,
		address, priceCents, sizeSqm, serviceType, notes,
		createdAt, updatedAt,
	), nil
}
