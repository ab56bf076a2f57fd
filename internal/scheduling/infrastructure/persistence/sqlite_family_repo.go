package persistence

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/domain"
	sharedPersistence "github.com/rotahq/rota/internal/shared/infrastructure/persistence"
)

// dateLayout stores calendar-day values in SQLite. Timestamps use RFC3339.
const dateLayout = "2006-01-02"

// SQLiteFamilyRepository implements domain.FamilyRepository on SQLite for
// local mode.
type SQLiteFamilyRepository struct {
	db *sql.DB
}

// NewSQLiteFamilyRepository creates a new SQLite family repository.
func NewSQLiteFamilyRepository(db *sql.DB) *SQLiteFamilyRepository {
	return &SQLiteFamilyRepository{db: db}
}

const sqliteUpsertFamily = `
	INSERT INTO recurrence_families (
		id, client_id, template_id, rule, status, next_visit_date,
		created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT (id) DO UPDATE SET
		rule = excluded.rule,
		status = excluded.status,
		next_visit_date = excluded.next_visit_date,
		updated_at = excluded.updated_at
`

// Save persists a family. Writes join the context transaction when one is
// present.
func (r *SQLiteFamilyRepository) Save(ctx context.Context, family *domain.Family) error {
	var nextVisitDate *string
	if d := family.NextVisitDate(); d != nil {
		s := d.Format(dateLayout)
		nextVisitDate = &s
	}

	exec := sharedPersistence.SQLiteQuerier(ctx, r.db)
	_, err := exec.ExecContext(ctx, sqliteUpsertFamily,
		family.ID().String(), family.ClientID().String(), family.TemplateID().String(),
		domain.EncodeRule(family.Rule()), string(family.Status()), nextVisitDate,
		family.CreatedAt().Format(time.RFC3339), family.UpdatedAt().Format(time.RFC3339),
	)
	return err
}

const sqliteSelectFamily = `
	SELECT id, client_id, template_id, rule, status, next_visit_date,
	       created_at, updated_at
	FROM recurrence_families
`

// FindByID finds a family by its ID. Returns nil, nil when absent.
func (r *SQLiteFamilyRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Family, error) {
	exec := sharedPersistence.SQLiteQuerier(ctx, r.db)
	row := exec.QueryRowContext(ctx, sqliteSelectFamily+` WHERE id = ?`, id.String())

	family, err := scanSQLiteFamily(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return family, nil
}

// FindByStatus returns families in the given lifecycle state.
func (r *SQLiteFamilyRepository) FindByStatus(ctx context.Context, status domain.FamilyStatus) ([]*domain.Family, error) {
	exec := sharedPersistence.SQLiteQuerier(ctx, r.db)
	rows, err := exec.QueryContext(ctx, sqliteSelectFamily+` WHERE status = ? ORDER BY created_at`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	families := make([]*domain.Family, 0)
	for rows.Next() {
		family, err := scanSQLiteFamily(rows)
		if err != nil {
			return nil, err
		}
		families = append(families, family)
	}
	return families, rows.Err()
}

// Delete removes a family record.
func (r *SQLiteFamilyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := sharedPersistence.SQLiteQuerier(ctx, r.db)
	result, err := exec.ExecContext(ctx, `DELETE FROM recurrence_families WHERE id = ?`, id.String())
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrFamilyNotFound
	}
	return nil
}

// rowScanner covers both sql.Row and sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteFamily(row rowScanner) (*domain.Family, error) {
	var (
		idRaw, clientRaw, templateRaw string
		rule, status                  string
		nextVisitRaw                  sql.NullString
		createdRaw, updatedRaw        string
	)
	if err := row.Scan(
		&idRaw, &clientRaw, &templateRaw, &rule, &status, &nextVisitRaw,
		&createdRaw, &updatedRaw,
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

	var nextVisitDate *time.Time
	if nextVisitRaw.Valid {
		d, err := time.ParseInLocation(dateLayout, nextVisitRaw.String, time.UTC)
		if err != nil {
			return nil, err
		}
		nextVisitDate = &d
	}

	createdAt, err := time.Parse(time.RFC3339, createdRaw)
	if err != nil {
		return nil, err
	}
	updatedAt, err := time.Parse(time.RFC3339, updatedRaw)
	if err != nil {
		return nil, err
	}

	return domain.RehydrateFamily(
		id, clientID, templateID,
		domain.DecodeRule(rule),
		domain.ParseFamilyStatus(status),
		nextVisitDate,
		createdAt, updatedAt,
	), nil
}
