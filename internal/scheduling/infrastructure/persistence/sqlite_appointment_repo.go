package persistence

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/domain"
	sharedPersistence "github.com/rotahq/rota/internal/shared/infrastructure/persistence"
)

// SQLiteAppointmentRepository implements domain.AppointmentRepository on
// SQLite for local mode.
type SQLiteAppointmentRepository struct {
	db *sql.DB
}

// NewSQLiteAppointmentRepository creates a new SQLite visit repository.
func NewSQLiteAppointmentRepository(db *sql.DB) *SQLiteAppointmentRepository {
	return &SQLiteAppointmentRepository{db: db}
}

const sqliteUpsertAppointment = `
	INSERT INTO appointments (
		id, family_id, client_id, template_id, visit_date, visit_time,
		status, staff_ids, lineage, address, price_cents, size_sqm,
		service_type, notes, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		family_id = excluded.family_id,
		visit_date = excluded.visit_date,
		visit_time = excluded.visit_time,
		status = excluded.status,
		staff_ids = excluded.staff_ids,
		lineage = excluded.lineage,
		address = excluded.address,
		price_cents = excluded.price_cents,
		size_sqm = excluded.size_sqm,
		service_type = excluded.service_type,
		notes = excluded.notes,
		updated_at = excluded.updated_at
`

// Save persists a visit. Writes join the context transaction when one is
// present.
func (r *SQLiteAppointmentRepository) Save(ctx context.Context, appointment *domain.Appointment) error {
	var familyID *string
	if fid := appointment.FamilyID(); fid != nil {
		s := fid.String()
		familyID = &s
	}

	exec := sharedPersistence.SQLiteQuerier(ctx, r.db)
	_, err := exec.ExecContext(ctx, sqliteUpsertAppointment,
		appointment.ID().String(), familyID, appointment.ClientID().String(),
		appointment.TemplateID().String(), appointment.Date().Format(dateLayout),
		appointment.Clock(), string(appointment.Status()),
		joinStaffIDs(appointment.StaffIDs()), appointment.Lineage(),
		appointment.Address(), appointment.PriceCents(), appointment.SizeSqm(),
		appointment.ServiceType(), appointment.Notes(),
		appointment.CreatedAt().Format(time.RFC3339), appointment.UpdatedAt().Format(time.RFC3339),
	)
	return err
}

const sqliteSelectAppointment = `
	SELECT id, family_id, client_id, template_id, visit_date, visit_time,
	       status, staff_ids, lineage, address, price_cents, size_sqm,
	       service_type, notes, created_at, updated_at
	FROM appointments
`

// FindByID finds a visit by its ID. Returns nil, nil when absent.
func (r *SQLiteAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	exec := sharedPersistence.SQLiteQuerier(ctx, r.db)
	row := exec.QueryRowContext(ctx, sqliteSelectAppointment+` WHERE id = ?`, id.String())

	appointment, err := scanSQLiteAppointment(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return appointment, nil
}

// FindByFamily returns every visit referencing the family, oldest date first.
func (r *SQLiteAppointmentRepository) FindByFamily(ctx context.Context, familyID uuid.UUID) ([]*domain.Appointment, error) {
	exec := sharedPersistence.SQLiteQuerier(ctx, r.db)
	rows, err := exec.QueryContext(ctx, sqliteSelectAppointment+` WHERE family_id = ? ORDER BY visit_date, visit_time`, familyID.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSQLiteAppointments(rows)
}

// FindByDate returns all visits on a calendar day, regardless of status.
func (r *SQLiteAppointmentRepository) FindByDate(ctx context.Context, date time.Time) ([]*domain.Appointment, error) {
	exec := sharedPersistence.SQLiteQuerier(ctx, r.db)
	rows, err := exec.QueryContext(ctx, sqliteSelectAppointment+` WHERE visit_date = ? ORDER BY visit_time`, domain.NormalizeDate(date).Format(dateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSQLiteAppointments(rows)
}

// Delete removes a visit row.
func (r *SQLiteAppointmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := sharedPersistence.SQLiteQuerier(ctx, r.db)
	result, err := exec.ExecContext(ctx, `DELETE FROM appointments WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrInstanceNotFound
	}
	return nil
}

func collectSQLiteAppointments(rows *sql.Rows) ([]*domain.Appointment, error) {
	appointments := make([]*domain.Appointment, 0)
	for rows.Next() {
		appointment, err := scanSQLiteAppointment(rows)
		if err != nil {
			return nil, err
		}
		appointments = append(appointments, appointment)
	}
	return appointments, rows.Err()
}

func scanSQLiteAppointment(row rowScanner) (*domain.Appointment, error) {
	var (
		idRaw, clientRaw, templateRaw string
		familyRaw                     sql.NullString
		dateRaw, clock, status        string
		staffRaw, lineage             string
		address, serviceType, notes   string
		priceCents                    int64
		sizeSqm                       int
		createdRaw, updatedRaw        string
	)
	if err := row.Scan(
		&idRaw, &familyRaw, &clientRaw, &templateRaw, &dateRaw, &clock,
		&status, &staffRaw, &lineage, &address, &priceCents, &sizeSqm,
		&serviceType, &notes, &createdRaw, &updatedRaw,
	); err != nil {
		return nil, err
	}

	id, err := uuid.Parse(idRaw)
	if err != nil {
		return nil, err
	}
	clientID, err := uuid.Parse(clientRaw)
	if err != nil {
		return nil, err
	}
	templateID, err := uuid.Parse(templateRaw)
	if err != nil {
		return nil, err
	}

	var familyID *uuid.UUID
	if familyRaw.Valid {
		fid, err := uuid.Parse(familyRaw.String)
		if err != nil {
			return nil, err
		}
		familyID = &fid
	}

	date, err := time.ParseInLocation(dateLayout, dateRaw, time.UTC)
	if err != nil {
		return nil, err
	}
	staffIDs, err := splitStaffIDs(staffRaw)
	if err != nil {
		return nil, err
	}
	createdAt, err := time.Parse(time.RFC3339, createdRaw)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339, updatedRaw)
	if err != nil {
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

// joinStaffIDs packs staff UUIDs into a comma-separated column. SQLite has no
// array type.
func joinStaffIDs(ids []uuid.UUID) string {
	if len(ids) == 0 {
		return ""
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = id.String()
	}
	return strings.Join(parts, ",")
}

func splitStaffIDs(raw string) ([]uuid.UUID, error) {
	if raw == "" {
		return make([]uuid.UUID, 0), nil
	}
	parts := strings.Split(raw, ",")
	ids := make([]uuid.UUID, 0, len(parts))
	for _, part := range parts {
		id, err := uuid.Parse(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}
