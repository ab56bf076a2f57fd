package commands

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rotahq/rota/internal/scheduling/application/services"
	"github.com/rotahq/rota/internal/scheduling/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRestartFamilyHandler_Handle(t *testing.T) {
	t.Run("reactivates a stopped family with a cloned pending instance", func(t *testing.T) {
		familyRepo := new(mockFamilyRepo)
		outboxRepo := new(mockOutboxRepo)

		family := newTestFamily(day(2025, 3, 1))
		history := newPendingInstance(family, day(2025, 3, 1), "09:00")
		require.NoError(t, history.Confirm())
		require.NoError(t, family.Stop("client paused"))
		family.ClearDomainEvents()

		apptRepo := newMemoryAppointmentRepo(history)
		handler := NewRestartFamilyHandler(
			familyRepo, apptRepo,
			services.NewInProcessLocker(),
			outboxRepo, passthroughUnitOfWork{},
		)

		familyRepo.On("FindByID", mock.Anything, family.ID()).Return(family, nil)
		familyRepo.On("Save", mock.Anything, family).Return(nil)
		outboxRepo.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

		result, err := handler.Handle(context.Background(), RestartFamilyCommand{
			FamilyID:   family.ID(),
			Date:       day(2025, 6, 1),
			Clock:      "11:00",
			OperatorID: uuid.New(),
		})

		require.NoError(t, err)
		assert.Equal(t, domain.FamilyActive, result.Family.Status())
		assert.True(t, result.Family.NextVisitDate().Equal(day(2025, 6, 1)))

		pending := result.PendingInstance
		assert.True(t, pending.IsPending())
		assert.True(t, pending.Date().Equal(day(2025, 6, 1)))
		assert.Equal(t, "11:00", pending.Clock())
		assert.Equal(t, history.Address(), pending.Address())
		assert.Empty(t, pending.StaffIDs())
	})

	t.Run("rejects restart on an active family", func(t *testing.T) {
		familyRepo := new(mockFamilyRepo)
		family := newTestFamily(day(2025, 3, 1))

		apptRepo := newMemoryAppointmentRepo()
		handler := NewRestartFamilyHandler(
			familyRepo, apptRepo,
			services.NewInProcessLocker(),
			new(mockOutboxRepo), passthroughUnitOfWork{},
		)
		familyRepo.On("FindByID", mock.Anything, family.ID()).Return(family, nil)

		_, err := handler.Handle(context.Background(), RestartFamilyCommand{
			FamilyID: family.ID(),
			Date:     day(2025, 6, 1),
			Clock:    "11:00",
		})
		assert.ErrorIs(t, err, domain.ErrFamilyNotStopped)
	})

	t.Run("returns NotFound for an unknown family", func(t *testing.T) {
		familyRepo := new(mockFamilyRepo)
		apptRepo := newMemoryAppointmentRepo()
		handler := NewRestartFamilyHandler(
			familyRepo, apptRepo,
			services.NewInProcessLocker(),
			new(mockOutboxRepo), passthroughUnitOfWork{},
		)

		id := uuid.New()
		familyRepo.On("FindByID", mock.Anything, id).Return(nil, nil)

		_, err := handler.Handle(context.Background(), RestartFamilyCommand{
			FamilyID: id,
			Date:     day(2025, 6, 1),
			Clock:    "11:00",
		})
		assert.ErrorIs(t, err, domain.ErrFamilyNotFound)
	})
}

func TestDeleteFamilyHandler_Handle(t *testing.T) {
	t.Run("deletes pendings and detaches history", func(t *testing.T) {
		familyRepo := new(mockFamilyRepo)
		outboxRepo := new(mockOutboxRepo)

		family := newTestFamily(day(2025, 3, 1))
		confirmed := newPendingInstance(family, day(2025, 3, 1), "09:00")
		require.NoError(t, confirmed.Confirm())
		pending := newPendingInstance(family, day(2025, 3, 8), "09:00")
		require.NoError(t, family.Stop("client cancelled"))
		family.ClearDomainEvents()

		apptRepo := newMemoryAppointmentRepo(confirmed, pending)
		handler := NewDeleteFamilyHandler(
			familyRepo, apptRepo,
			services.NewReconciler(apptRepo, nil),
			services.NewInProcessLocker(),
			outboxRepo, passthroughUnitOfWork{},
		)

		familyRepo.On("FindByID", mock.Anything, family.ID()).Return(family, nil)
		familyRepo.On("Delete", mock.Anything, family.ID()).Return(nil)
		outboxRepo.On("SaveBatch", mock.Anything, mock.Anything).Return(nil)

		err := handler.Handle(context.Background(), DeleteFamilyCommand{
			FamilyID:   family.ID(),
			OperatorID: uuid.New(),
		})

		require.NoError(t, err)
		// The pending occurrence is gone.
		gone, findErr := apptRepo.FindByID(context.Background(), pending.ID())
		require.NoError(t, findErr)
		assert.Nil(t, gone)
		// History survives without the family reference.
		kept, findErr := apptRepo.FindByID(context.Background(), confirmed.ID())
		require.NoError(t, findErr)
		require.NotNil(t, kept)
		assert.Nil(t, kept.FamilyID())
		familyRepo.AssertExpectations(t)
	})

	t.Run("rejects deleting an active family", func(t *testing.T) {
		familyRepo := new(mockFamilyRepo)
		family := newTestFamily(day(2025, 3, 1))

		apptRepo := newMemoryAppointmentRepo()
		handler := NewDeleteFamilyHandler(
			familyRepo, apptRepo,
			services.NewReconciler(apptRepo, nil),
			services.NewInProcessLocker(),
			new(mockOutboxRepo), passthroughUnitOfWork{},
		)
		familyRepo.On("FindByID", mock.Anything, family.ID()).Return(family, nil)

		err := handler.Handle(context.Background(), DeleteFamilyCommand{FamilyID: family.ID()})
		assert.ErrorIs(t, err, domain.ErrFamilyNotStopped)
		familyRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}
