package services

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconciler_AlreadyCorrectIsNoOp(t *testing.T) {
	repo := newFakeAppointmentRepo()
	reconciler := NewReconciler(repo, nil)

	familyID := uuid.New()
	pending := mustAppointment(&familyID, day(2025, 3, 8), "09:00", domain.StatusPendingConfirm, nil)
	require.NoError(t, repo.Save(context.Background(), pending))
	repo.saves = 0

	target := day(2025, 3, 8)
	require.NoError(t, reconciler.Reconcile(context.Background(), familyID, &target))

	assert.Zero(t, repo.saves)
	assert.Zero(t, repo.deletes)
	remaining := repo.pendingOf(familyID)
	require.Len(t, remaining, 1)
	assert.Equal(t, pending.ID(), remaining[0].ID())
}

func TestReconciler_WrongDateRematerializes(t *testing.T) {
	repo := newFakeAppointmentRepo()
	reconciler := NewReconciler(repo, nil)

	familyID := uuid.New()
	staff := uuid.New()
	confirmed := mustAppointment(&familyID, day(2025, 3, 1), "09:00", domain.StatusAppointed, []uuid.UUID{staff})
	stale := mustAppointment(&familyID, day(2025, 3, 8), "09:00", domain.StatusPendingConfirm, nil)
	require.NoError(t, repo.Save(context.Background(), confirmed))
	require.NoError(t, repo.Save(context.Background(), stale))

	target := day(2025, 3, 15)
	require.NoError(t, reconciler.Reconcile(context.Background(), familyID, &target))

	remaining := repo.pendingOf(familyID)
	require.Len(t, remaining, 1)
	fresh := remaining[0]
	assert.NotEqual(t, stale.ID(), fresh.ID())
	assert.True(t, fresh.Date().Equal(day(2025, 3, 15)))
	assert.Equal(t, confirmed.Address(), fresh.Address())
	assert.Equal(t, confirmed.PriceCents(), fresh.PriceCents())
	// A fresh pending visit starts unstaffed even when the donor was staffed.
	assert.Empty(t, fresh.StaffIDs())
}

func TestReconciler_DuplicatePendingsCollapseToOne(t *testing.T) {
	repo := newFakeAppointmentRepo()
	reconciler := NewReconciler(repo, nil)

	familyID := uuid.New()
	first := mustAppointment(&familyID, day(2025, 3, 8), "09:00", domain.StatusPendingConfirm, nil)
	second := mustAppointment(&familyID, day(2025, 3, 15), "09:00", domain.StatusPendingConfirm, nil)
	require.NoError(t, repo.Save(context.Background(), first))
	require.NoError(t, repo.Save(context.Background(), second))

	target := day(2025, 3, 8)
	require.NoError(t, reconciler.Reconcile(context.Background(), familyID, &target))

	remaining := repo.pendingOf(familyID)
	require.Len(t, remaining, 1)
	assert.True(t, remaining[0].Date().Equal(day(2025, 3, 8)))
}

func TestReconciler_NilTargetDeletesAllPendings(t *testing.T) {
	repo := newFakeAppointmentRepo()
	reconciler := NewReconciler(repo, nil)

	familyID := uuid.New()
	confirmed := mustAppointment(&familyID, day(2025, 3, 1), "09:00", domain.StatusAppointed, nil)
	pending := mustAppointment(&familyID, day(2025, 3, 8), "09:00", domain.StatusPendingConfirm, nil)
	require.NoError(t, repo.Save(context.Background(), confirmed))
	require.NoError(t, repo.Save(context.Background(), pending))

	require.NoError(t, reconciler.Reconcile(context.Background(), familyID, nil))

	assert.Empty(t, repo.pendingOf(familyID))
	kept, err := repo.FindByID(context.Background(), confirmed.ID())
	require.NoError(t, err)
	require.NotNil(t, kept)
}

func TestReconciler_DonorPrefersLatestAppointed(t *testing.T) {
	repo := newFakeAppointmentRepo()
	reconciler := NewReconciler(repo, nil)

	familyID := uuid.New()
	older := mustAppointment(&familyID, day(2025, 2, 1), "09:00", domain.StatusAppointed, nil)
	older.AppendNote("old address era")
	newer := mustAppointment(&familyID, day(2025, 3, 1), "10:00", domain.StatusAppointed, nil)
	// A cancelled visit dated later must not win over the appointed one.
	cancelled := mustAppointment(&familyID, day(2025, 3, 10), "11:00", domain.StatusCancelled, nil)
	require.NoError(t, repo.Save(context.Background(), older))
	require.NoError(t, repo.Save(context.Background(), newer))
	require.NoError(t, repo.Save(context.Background(), cancelled))

	target := day(2025, 4, 1)
	require.NoError(t, reconciler.Reconcile(context.Background(), familyID, &target))

	remaining := repo.pendingOf(familyID)
	require.Len(t, remaining, 1)
	assert.Equal(t, "10:00", remaining[0].Clock())
}

func TestReconciler_DonorFallsBackToAnyInstance(t *testing.T) {
	repo := newFakeAppointmentRepo()
	reconciler := NewReconciler(repo, nil)

	familyID := uuid.New()
	cancelled := mustAppointment(&familyID, day(2025, 3, 1), "13:00", domain.StatusCancelled, nil)
	require.NoError(t, repo.Save(context.Background(), cancelled))

	target := day(2025, 3, 15)
	require.NoError(t, reconciler.Reconcile(context.Background(), familyID, &target))

	remaining := repo.pendingOf(familyID)
	require.Len(t, remaining, 1)
	assert.Equal(t, "13:00", remaining[0].Clock())
}

func TestReconciler_NoInstancesIsTolerated(t *testing.T) {
	repo := newFakeAppointmentRepo()
	reconciler := NewReconciler(repo, nil)

	familyID := uuid.New()
	target := day(2025, 3, 15)
	require.NoError(t, reconciler.Reconcile(context.Background(), familyID, &target))
	assert.Empty(t, repo.pendingOf(familyID))
}

func TestReconciler_Idempotent(t *testing.T) {
	repo := newFakeAppointmentRepo()
	reconciler := NewReconciler(repo, nil)

	familyID := uuid.New()
	confirmed := mustAppointment(&familyID, day(2025, 3, 1), "09:00", domain.StatusAppointed, nil)
	require.NoError(t, repo.Save(context.Background(), confirmed))

	target := day(2025, 3, 15)
	require.NoError(t, reconciler.Reconcile(context.Background(), familyID, &target))
	afterFirst := repo.pendingOf(familyID)
	require.Len(t, afterFirst, 1)
	firstID := afterFirst[0].ID()

	require.NoError(t, reconciler.Reconcile(context.Background(), familyID, &target))
	afterSecond := repo.pendingOf(familyID)
	require.Len(t, afterSecond, 1)
	assert.Equal(t, firstID, afterSecond[0].ID())
}

func TestReconciler_OtherFamilyUntouched(t *testing.T) {
	repo := newFakeAppointmentRepo()
	reconciler := NewReconciler(repo, nil)

	familyID := uuid.New()
	otherID := uuid.New()
	mine := mustAppointment(&familyID, day(2025, 3, 8), "09:00", domain.StatusPendingConfirm, nil)
	other := mustAppointment(&otherID, day(2025, 3, 8), "09:00", domain.StatusPendingConfirm, nil)
	require.NoError(t, repo.Save(context.Background(), mine))
	require.NoError(t, repo.Save(context.Background(), other))

	target := day(2025, 3, 22)
	require.NoError(t, reconciler.Reconcile(context.Background(), familyID, &target))

	kept := repo.pendingOf(otherID)
	require.Len(t, kept, 1)
	assert.Equal(t, other.ID(), kept[0].ID())
}

func TestReconciler_TargetDateNormalized(t *testing.T) {
	repo := newFakeAppointmentRepo()
	reconciler := NewReconciler(repo, nil)

	familyID := uuid.New()
	confirmed := mustAppointment(&familyID, day(2025, 3, 1), "09:00", domain.StatusAppointed, nil)
	require.NoError(t, repo.Save(context.Background(), confirmed))

	target := time.Date(2025, 3, 15, 18, 30, 0, 0, time.UTC)
	require.NoError(t, reconciler.Reconcile(context.Background(), familyID, &target))

	remaining := repo.pendingOf(familyID)
	require.Len(t, remaining, 1)
	assert.True(t, remaining[0].Date().Equal(day(2025, 3, 15)))
}
