package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTemplate() Template {
	return Template{
		ID:          uuid.New(),
		Address:     "12 Elm Street",
		PriceCents:  14500,
		SizeSqm:     85,
		ServiceType: "deep-clean",
	}
}

func newPendingAppointment(t *testing.T, familyID uuid.UUID) *Appointment {
	t.Helper()
	appt, err := NewAppointment(
		uuid.New(), uuid.New(), &familyID,
		date(2025, time.January, 15), "09:00",
		StatusPendingConfirm, testTemplate(),
	)
	require.NoError(t, err)
	return appt
}

func TestSlotOf(t *testing.T) {
	tests := []struct {
		clock string
		slot  Slot
	}{
		{"00:00", SlotMorning},
		{"09:00", SlotMorning},
		{"13:59", SlotMorning},
		{"14:00", SlotAfternoon},
		{"14:01", SlotAfternoon},
		{"23:59", SlotAfternoon},
	}
	for _, tt := range tests {
		slot, err := SlotOf(tt.clock)
		require.NoError(t, err)
		assert.Equal(t, tt.slot, slot, "clock %s", tt.clock)
	}
}

func TestParseClock_Invalid(t *testing.T) {
	for _, clock := range []string{"", "9am", "25:00", "09:60", "9", "09:0x", "-1:30"} {
		_, err := ParseClock(clock)
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr, "clock %q", clock)
	}
}

func TestNewAppointment_Validation(t *testing.T) {
	clientID, templateID := uuid.New(), uuid.New()

	t.Run("requires a date", func(t *testing.T) {
		_, err := NewAppointment(clientID, templateID, nil, time.Time{}, "09:00", StatusAppointed, testTemplate())
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("requires a parseable time", func(t *testing.T) {
		_, err := NewAppointment(clientID, templateID, nil, date(2025, time.March, 1), "morning", StatusAppointed, testTemplate())
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		_, err := NewAppointment(clientID, templateID, nil, date(2025, time.March, 1), "09:00", "tentative", testTemplate())
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})

	t.Run("normalizes the date and copies template fields", func(t *testing.T) {
		tmpl := testTemplate()
		appt, err := NewAppointment(clientID, templateID, nil,
			time.Date(2025, time.March, 1, 16, 45, 0, 0, time.UTC), "09:00", StatusAppointed, tmpl)
		require.NoError(t, err)
		assert.Equal(t, date(2025, time.March, 1), appt.Date())
		assert.Equal(t, tmpl.Address, appt.Address())
		assert.Equal(t, tmpl.PriceCents, appt.PriceCents())
		assert.Equal(t, tmpl.SizeSqm, appt.SizeSqm())
		assert.Empty(t, appt.StaffIDs())
	})
}

func TestAppointmentTransitions(t *testing.T) {
	familyID := uuid.New()

	t.Run("confirm books a pending visit", func(t *testing.T) {
		appt := newPendingAppointment(t, familyID)
		require.NoError(t, appt.Confirm())
		assert.Equal(t, StatusAppointed, appt.Status())
	})

	t.Run("confirm rejects a visit that is not pending", func(t *testing.T) {
		appt := newPendingAppointment(t, familyID)
		require.NoError(t, appt.Confirm())
		assert.ErrorIs(t, appt.Confirm(), ErrInstanceNotFound)
	})

	t.Run("skip cancels the occurrence", func(t *testing.T) {
		appt := newPendingAppointment(t, familyID)
		require.NoError(t, appt.Skip())
		assert.Equal(t, StatusCancelled, appt.Status())
		assert.False(t, appt.Status().BlocksSlot())
	})

	t.Run("move slides date and time but keeps the status", func(t *testing.T) {
		appt := newPendingAppointment(t, familyID)
		require.NoError(t, appt.MoveTo(date(2025, time.February, 5), "14:00"))
		assert.Equal(t, StatusPendingConfirm, appt.Status())
		assert.Equal(t, date(2025, time.February, 5), appt.Date())
		assert.Equal(t, "14:00", appt.Clock())
		assert.Contains(t, appt.Notes(), "moved from 2025-01-15 09:00 to 2025-02-05 14:00")
	})

	t.Run("move rejects a confirmed visit", func(t *testing.T) {
		appt := newPendingAppointment(t, familyID)
		require.NoError(t, appt.Confirm())
		assert.ErrorIs(t, appt.MoveTo(date(2025, time.February, 5), "14:00"), ErrInstanceNotFound)
	})
}

func TestAppointmentCloneAsPending(t *testing.T) {
	familyID := uuid.New()
	appt := newPendingAppointment(t, familyID)
	appt.AssignStaff([]uuid.UUID{uuid.New(), uuid.New()})
	require.NoError(t, appt.Confirm())

	clone := appt.CloneAsPending(date(2025, time.January, 22))

	assert.NotEqual(t, appt.ID(), clone.ID())
	assert.Equal(t, StatusPendingConfirm, clone.Status())
	assert.Equal(t, date(2025, time.January, 22), clone.Date())
	assert.Equal(t, appt.Clock(), clone.Clock())
	assert.Equal(t, appt.Address(), clone.Address())
	assert.Equal(t, appt.PriceCents(), clone.PriceCents())
	assert.Equal(t, appt.SizeSqm(), clone.SizeSqm())
	assert.Equal(t, appt.TemplateID(), clone.TemplateID())
	assert.True(t, clone.BelongsToFamily(familyID))
	// a fresh pending visit starts unstaffed
	assert.Empty(t, clone.StaffIDs())
}

func TestAppointmentFamilyReference(t *testing.T) {
	appt := newPendingAppointment(t, uuid.New())
	require.NoError(t, appt.Confirm())

	other := uuid.New()
	appt.AttachFamily(other)
	assert.True(t, appt.BelongsToFamily(other))

	appt.DetachFamily()
	assert.Nil(t, appt.FamilyID())
	assert.False(t, appt.BelongsToFamily(other))
}
