package persistence

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotahq/rota/internal/scheduling/domain"
)

// PostgresTemplateReader implements domain.TemplateReader on PostgreSQL.
// Templates are reference data owned by another system; the engine only
// reads them.
type PostgresTemplateReader struct {
	pool *pgxpool.Pool
}

// NewPostgresTemplateReader creates a new Postgres template reader.
func NewPostgresTemplateReader(pool *pgxpool.Pool) *PostgresTemplateReader {
	return &PostgresTemplateReader{pool: pool}
}

// FindByID looks up a job template. Returns nil, nil when absent.
func (r *PostgresTemplateReader) FindByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	tmpl := domain.Template{ID: id}
	err := r.pool.QueryRow(ctx, `
		SELECT address, price_cents, size_sqm, service_type
		FROM job_templates WHERE id = $1
	`, id).Scan(&tmpl.Address, &tmpl.PriceCents, &tmpl.SizeSqm, &tmpl.ServiceType)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tmpl, nil
}

// SQLiteTemplateReader implements domain.TemplateReader on SQLite.
type SQLiteTemplateReader struct {
	db *sql.DB
}

// NewSQLiteTemplateReader creates a new SQLite template reader.
func NewSQLiteTemplateReader(db *sql.DB) *SQLiteTemplateReader {
	return &SQLiteTemplateReader{db: db}
}

// FindByID looks up a job template. Returns nil, nil when absent.
func (r *SQLiteTemplateReader) FindByID(ctx context.Context, id uuid.UUID) (*domain.Template, error) {
	tmpl := domain.Template{ID: id}
	err := r.db.QueryRowContext(ctx, `
		SELECT address, price_cents, size_sqm, service_type
		FROM job_templates WHERE id = ?
	`, id.String()).Scan(&tmpl.Address, &tmpl.PriceCents, &tmpl.SizeSqm, &tmpl.ServiceType)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &tmpl, nil
}

// SeedSQLiteTemplate inserts or refreshes a job template row. Local mode has
// no upstream system providing templates, so the CLI seeds them directly.
func SeedSQLiteTemplate(ctx context.Context, db *sql.DB, tmpl domain.Template) error {
	_, err := db.ExecContext(ctx, `
		INSERT INTO job_templates (id, address, price_cents, size_sqm, service_type)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			address = excluded.address,
			price_cents = excluded.price_cents,
			size_sqm = excluded.size_sqm,
			service_type = excluded.service_type
	`, tmpl.ID.String(), tmpl.Address, tmpl.PriceCents, tmpl.SizeSqm, tmpl.ServiceType)
	return err
}
