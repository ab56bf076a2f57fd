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

// PostgresFamilyRepository implements domain.FamilyRepository on PostgreSQL.
type PostgresFamilyRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresFamilyRepository creates a new Postgres family repository.
func NewPostgresFamilyRepository(pool *pgxpool.Pool) *PostgresFamilyRepository {
	return &PostgresFamilyRepository{pool: pool}
}

const pgUpsertFamily = `
	INSERT INTO recurrence_families (
		id, client_id, template_id, rule, status, next_visit_date,
		created_at, updated_at
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (id) DO UPDATE SET
		rule = EXCLUDED.rule,
		status = EXCLUDED.status,
		next_visit_date = EXCLUDED.next_visit_date,
		updated_at = EXCLUDED.updated_at
`

// Save persists a family. Writes join the context transaction when one is
// present.
func (r *PostgresFamilyRepository) Save(ctx context.Context, family *domain.Family) error {
	exec := sharedPersistence.Executor(ctx, r.pool)
	_, err := exec.Exec(ctx, pgUpsertFamily,
		family.ID(), family.ClientID(), family.TemplateID(),
		domain.EncodeRule(family.Rule()), string(family.Status()),
		family.NextVisitDate(), family.CreatedAt(), family.UpdatedAt(),
	)
	return err
}

const pgSelectFamily = `
	SELECT id, client_id, template_id, rule, status, next_visit_date,
	       created_at, updated_at
	FROM recurrence_families
`

// FindByID finds a family by its ID. Returns nil, nil when absent.
func (r *PostgresFamilyRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Family, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	row := exec.QueryRow(ctx, pgSelectFamily+` WHERE id = $1`, id)

	family, err := scanPgFamily(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return family, nil
}

// FindByStatus returns families in the given lifecycle state.
func (r *PostgresFamilyRepository) FindByStatus(ctx context.Context, status domain.FamilyStatus) ([]*domain.Family, error) {
	exec := sharedPersistence.Executor(ctx, r.pool)
	rows, err := exec.Query(ctx, pgSelectFamily+` WHERE status = $1 ORDER BY created_at`, string(status))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	families := make([]*domain.Family, 0)
	for rows.Next() {
		family, err := scanPgFamily(rows)
		if err != nil {
			return nil, err
		}
		families = append(families, family)
	}
	return families, rows.Err()
}

// Delete removes a family record.
func (r *PostgresFamilyRepository) Delete(ctx context.Context, id uuid.UUID) error {
	exec := sharedPersistence.Executor(ctx, r.pool)
	tag, err := exec.Exec(ctx, `DELETE FROM recurrence_families WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFamilyNotFound
	}
	return nil
}

func scanPgFamily(row pgx.Row) (*domain.Family, error) {
	var (
		id, clientID, templateID uuid.UUID
		rule, status             string
		nextVisitDate            *time.Time
		createdAt, updatedAt     time.Time
	)
	if err := row.Scan(
		&id, &clientID, &templateID, &rule, &status, &nextVisitDate,
		&createdAt, &updatedAt,
	); err != nil {
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
