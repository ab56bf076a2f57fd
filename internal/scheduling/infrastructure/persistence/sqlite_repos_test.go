package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/domain"
	"github.com/rotahq/rota/internal/shared/infrastructure/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// setupTestDB creates an in-memory SQLite database with the schema applied.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	// One connection only: each :memory: connection is its own database.
	db.SetMaxOpenConns(1)

	require.NoError(t, migrations.RunSQLiteMigrations(context.Background(), db))
	return db
}

func testDate(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedTemplate() domain.Template {
	return domain.Template{
		ID:          uuid.New(),
		Address:     "12 Harbour Lane",
		PriceCents:  14500,
		SizeSqm:     90,
		ServiceType: "standard",
	}
}

func TestSQLiteFamilyRepository_SaveAndFindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteFamilyRepository(db)
	ctx := context.Background()

	rule := domain.Rule{Kind: domain.KindCustomMonths, Interval: 2}
	family, err := domain.NewFamily(uuid.New(), uuid.New(), rule, testDate(2025, time.March, 1))
	require.NoError(t, err)

	require.NoError(t, repo.Save(ctx, family))

	retrieved, err := repo.FindByID(ctx, family.ID())
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, family.ID(), retrieved.ID())
	assert.Equal(t, family.ClientID(), retrieved.ClientID())
	assert.Equal(t, rule, retrieved.Rule())
	assert.Equal(t, domain.FamilyActive, retrieved.Status())
	require.NotNil(t, retrieved.NextVisitDate())
	assert.Equal(t, testDate(2025, time.March, 1), *retrieved.NextVisitDate())
}

func TestSQLiteFamilyRepository_SaveUpdatesExistingRow(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteFamilyRepository(db)
	ctx := context.Background()

	family, err := domain.NewFamily(uuid.New(), uuid.New(), domain.DefaultRule(), testDate(2025, time.March, 1))
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, family))

	require.NoError(t, family.Stop("client paused"))
	require.NoError(t, repo.Save(ctx, family))

	retrieved, err := repo.FindByID(ctx, family.ID())
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, domain.FamilyStopped, retrieved.Status())
	assert.Nil(t, retrieved.NextVisitDate())
}

func TestSQLiteFamilyRepository_FindByIDMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteFamilyRepository(db)

	retrieved, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Nil(t, retrieved)
}

func TestSQLiteFamilyRepository_FindByStatus(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteFamilyRepository(db)
	ctx := context.Background()

	active, err := domain.NewFamily(uuid.New(), uuid.New(), domain.DefaultRule(), testDate(2025, time.March, 1))
	require.NoError(t, err)
	stopped, err := domain.NewFamily(uuid.New(), uuid.New(), domain.DefaultRule(), testDate(2025, time.April, 1))
	require.NoError(t, err)
	require.NoError(t, stopped.Stop("moved away"))

	require.NoError(t, repo.Save(ctx, active))
	require.NoError(t, repo.Save(ctx, stopped))

	actives, err := repo.FindByStatus(ctx, domain.FamilyActive)
	require.NoError(t, err)
	require.Len(t, actives, 1)
	assert.Equal(t, active.ID(), actives[0].ID())
}

func TestSQLiteFamilyRepository_DeleteMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteFamilyRepository(db)

	err := repo.Delete(context.Background(), uuid.New())
	assert.ErrorIs(t, err, domain.ErrFamilyNotFound)
}

func TestSQLiteFamilyRepository_CorruptRowsDegrade(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteFamilyRepository(db)
	ctx := context.Background()

	id := uuid.New()
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := db.ExecContext(ctx, `
		INSERT INTO recurrence_families (id, client_id, template_id, rule, status, next_visit_date, created_at, updated_at)
		VALUES (?, ?, ?, 'lunar|phases', 'archived', NULL, ?, ?)
	`, id.String(), uuid.New().String(), uuid.New().String(), now, now)
	require.NoError(t, err)

	retrieved, err := repo.FindByID(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	// Unparseable rule falls back to weekly, unknown status to stopped.
	assert.Equal(t, domain.DefaultRule(), retrieved.Rule())
	assert.Equal(t, domain.FamilyStopped, retrieved.Status())
}

func TestSQLiteAppointmentRepository_SaveAndFindByID(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteAppointmentRepository(db)
	ctx := context.Background()

	tmpl := seedTemplate()
	familyID := uuid.New()
	appointment, err := domain.NewAppointment(
		uuid.New(), tmpl.ID, &familyID,
		testDate(2025, time.March, 1), "09:00",
		domain.StatusPendingConfirm, tmpl,
	)
	require.NoError(t, err)
	staff := []uuid.UUID{uuid.New(), uuid.New()}
	appointment.AssignStaff(staff)

	require.NoError(t, repo.Save(ctx, appointment))

	retrieved, err := repo.FindByID(ctx, appointment.ID())
	require.NoError(t, err)
	require.NotNil(t, retrieved)

	assert.Equal(t, appointment.ID(), retrieved.ID())
	require.NotNil(t, retrieved.FamilyID())
	assert.Equal(t, familyID, *retrieved.FamilyID())
	assert.Equal(t, testDate(2025, time.March, 1), retrieved.Date())
	assert.Equal(t, "09:00", retrieved.Clock())
	assert.Equal(t, domain.StatusPendingConfirm, retrieved.Status())
	assert.Equal(t, staff, retrieved.StaffIDs())
	assert.Equal(t, "12 Harbour Lane", retrieved.Address())
	assert.Equal(t, int64(14500), retrieved.PriceCents())
}

func TestSQLiteAppointmentRepository_OrphanVisitHasNoFamily(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteAppointmentRepository(db)
	ctx := context.Background()

	tmpl := seedTemplate()
	appointment, err := domain.NewAppointment(
		uuid.New(), tmpl.ID, nil,
		testDate(2025, time.March, 1), "10:00",
		domain.StatusAppointed, tmpl,
	)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, appointment))

	retrieved, err := repo.FindByID(ctx, appointment.ID())
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Nil(t, retrieved.FamilyID())
	assert.Empty(t, retrieved.StaffIDs())
}

func TestSQLiteAppointmentRepository_FindByFamily(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteAppointmentRepository(db)
	ctx := context.Background()

	tmpl := seedTemplate()
	familyID := uuid.New()
	otherFamilyID := uuid.New()

	for i, spec := range []struct {
		fid  *uuid.UUID
		date time.Time
	}{
		{&familyID, testDate(2025, time.March, 8)},
		{&familyID, testDate(2025, time.March, 1)},
		{&otherFamilyID, testDate(2025, time.March, 1)},
		{nil, testDate(2025, time.March, 1)},
	} {
		appointment, err := domain.NewAppointment(
			uuid.New(), tmpl.ID, spec.fid, spec.date, "09:00",
			domain.StatusAppointed, tmpl,
		)
		require.NoError(t, err, "appointment %d", i)
		require.NoError(t, repo.Save(ctx, appointment))
	}

	visits, err := repo.FindByFamily(ctx, familyID)
	require.NoError(t, err)
	require.Len(t, visits, 2)
	assert.Equal(t, testDate(2025, time.March, 1), visits[0].Date())
	assert.Equal(t, testDate(2025, time.March, 8), visits[1].Date())
}

func TestSQLiteAppointmentRepository_FindByDate(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteAppointmentRepository(db)
	ctx := context.Background()

	tmpl := seedTemplate()
	onDay, err := domain.NewAppointment(
		uuid.New(), tmpl.ID, nil, testDate(2025, time.March, 1), "14:00",
		domain.StatusAppointed, tmpl,
	)
	require.NoError(t, err)
	offDay, err := domain.NewAppointment(
		uuid.New(), tmpl.ID, nil, testDate(2025, time.March, 2), "09:00",
		domain.StatusAppointed, tmpl,
	)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, onDay))
	require.NoError(t, repo.Save(ctx, offDay))

	// Wall-clock query times normalize to the calendar day.
	visits, err := repo.FindByDate(ctx, time.Date(2025, time.March, 1, 18, 45, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, visits, 1)
	assert.Equal(t, onDay.ID(), visits[0].ID())
}

func TestSQLiteAppointmentRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewSQLiteAppointmentRepository(db)
	ctx := context.Background()

	tmpl := seedTemplate()
	appointment, err := domain.NewAppointment(
		uuid.New(), tmpl.ID, nil, testDate(2025, time.March, 1), "09:00",
		domain.StatusAppointed, tmpl,
	)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, appointment))

	require.NoError(t, repo.Delete(ctx, appointment.ID()))

	retrieved, err := repo.FindByID(ctx, appointment.ID())
	require.NoError(t, err)
	assert.Nil(t, retrieved)

	assert.ErrorIs(t, repo.Delete(ctx, appointment.ID()), domain.ErrInstanceNotFound)
}

func TestSQLiteTemplateReader(t *testing.T) {
	db := setupTestDB(t)
	reader := NewSQLiteTemplateReader(db)
	ctx := context.Background()

	tmpl := seedTemplate()
	require.NoError(t, SeedSQLiteTemplate(ctx, db, tmpl))

	retrieved, err := reader.FindByID(ctx, tmpl.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved)
	assert.Equal(t, tmpl, *retrieved)

	missing, err := reader.FindByID(ctx, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, missing)
}
