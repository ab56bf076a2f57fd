package persistence

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotahq/rota/internal/scheduling/domain"
	"github.com/rotahq/rota/internal/shared/infrastructure/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupPostgresTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Skipf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := pool.Ping(ctx); err != nil {
		t.Skipf("Failed to ping test database: %v", err)
	}

	require.NoError(t, migrations.RunPostgresMigrations(ctx, pool))
	_, _ = pool.Exec(ctx, "DELETE FROM appointments")
	_, _ = pool.Exec(ctx, "DELETE FROM recurrence_families")

	return pool
}

func TestPostgresFamilyRepository_SaveAndFindByID(t *testing.T) {
	pool := setupPostgresTestDB(t)
	repo := NewPostgresFamilyRepository(pool)
	ctx := context.Background()

	rule := domain.Rule{Kind: domain.KindMonthlyPattern, Weekday: time.Tuesday, WeekOfMonth: 2}
	family, err := domain.NewFamily(uuid.New(), uuid.New(), rule, testDate(2025, time.March, 1))
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, family))

	retrieved, err := repo.FindByID(ctx, family.ID())
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, family.ID(), retrieved.ID())
	assert.Equal(t, rule, retrieved.Rule())
	assert.Equal(t, domain.FamilyActive, retrieved.Status())
	require.NotNil(t, retrieved.NextVisitDate())
	assert.Equal(t, testDate(2025, time.March, 1), *retrieved.NextVisitDate())
}

func TestPostgresFamilyRepository_FindByStatusAndDelete(t *testing.T) {
	pool := setupPostgresTestDB(t)
	repo := NewPostgresFamilyRepository(pool)
	ctx := context.Background()

	family, err := domain.NewFamily(uuid.New(), uuid.New(), domain.DefaultRule(), testDate(2025, time.March, 1))
	require.NoError(t, err)
	require.NoError(t, family.Stop("seasonal break"))
	require.NoError(t, repo.Save(ctx, family))

	stopped, err := repo.FindByStatus(ctx, domain.FamilyStopped)
	require.NoError(t, err)
	require.Len(t, stopped, 1)
	assert.Nil(t, stopped[0].NextVisitDate())

	require.NoError(t, repo.Delete(ctx, family.ID()))
	assert.ErrorIs(t, repo.Delete(ctx, family.ID()), domain.ErrFamilyNotFound)
}

func TestPostgresAppointmentRepository_Roundtrip(t *testing.T) {
	pool := setupPostgresTestDB(t)
	repo := NewPostgresAppointmentRepository(pool)
	ctx := context.Background()

	tmpl := seedTemplate()
	familyID := uuid.New()
	appointment, err := domain.NewAppointment(
		uuid.New(), tmpl.ID, &familyID,
		testDate(2025, time.March, 1), "09:00",
		domain.StatusPendingConfirm, tmpl,
	)
	require.NoError(t, err)
	staff := []uuid.UUID{uuid.New()}
	appointment.AssignStaff(staff)

	require.NoError(t, repo.Save(ctx, appointment))

	retrieved, err := repo.FindByID(ctx, appointment.ID())
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	require.NotNil(t, retrieved.FamilyID())
	assert.Equal(t, familyID, *retrieved.FamilyID())
	assert.Equal(t, staff, retrieved.StaffIDs())
	assert.Equal(t, "09:00", retrieved.Clock())

	byFamily, err := repo.FindByFamily(ctx, familyID)
	require.NoError(t, err)
	require.Len(t, byFamily, 1)

	byDate, err := repo.FindByDate(ctx, testDate(2025, time.March, 1))
	require.NoError(t, err)
	require.Len(t, byDate, 1)

	require.NoError(t, repo.Delete(ctx, appointment.ID()))
	assert.ErrorIs(t, repo.Delete(ctx, appointment.ID()), domain.ErrInstanceNotFound)
}
