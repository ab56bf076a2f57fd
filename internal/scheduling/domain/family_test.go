package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newActiveFamily(t *testing.T) *Family {
	t.Helper()
	family, err := NewFamily(uuid.New(), uuid.New(), Rule{Kind: KindWeekly, Interval: 1}, date(2025, time.January, 15))
	require.NoError(t, err)
	return family
}

func TestNewFamily(t *testing.T) {
	t.Run("starts active anchored at the first date", func(t *testing.T) {
		family := newActiveFamily(t)
		assert.Equal(t, FamilyActive, family.Status())
		require.NotNil(t, family.NextVisitDate())
		assert.Equal(t, date(2025, time.January, 15), *family.NextVisitDate())

		events := family.DomainEvents()
		require.Len(t, events, 1)
		assert.IsType(t, &FamilyCreated{}, events[0])
	})

	t.Run("requires a first date", func(t *testing.T) {
		_, err := NewFamily(uuid.New(), uuid.New(), DefaultRule(), time.Time{})
		var verr *ValidationError
		assert.ErrorAs(t, err, &verr)
	})
}

func TestFamilyGuard(t *testing.T) {
	family := newActiveFamily(t)

	t.Run("active family allows confirm, skip, move, stop", func(t *testing.T) {
		for _, tr := range []Transition{TransitionConfirm, TransitionSkip, TransitionMove, TransitionStop} {
			assert.NoError(t, family.Guard(tr), "transition %s", tr)
		}
	})

	t.Run("active family rejects restart and delete", func(t *testing.T) {
		assert.ErrorIs(t, family.Guard(TransitionRestart), ErrFamilyNotStopped)
		assert.ErrorIs(t, family.Guard(TransitionDelete), ErrFamilyNotStopped)
	})

	t.Run("stopped family flips the table", func(t *testing.T) {
		require.NoError(t, family.Stop("manual"))
		assert.ErrorIs(t, family.Guard(TransitionConfirm), ErrFamilyNotActive)
		assert.NoError(t, family.Guard(TransitionRestart))
		assert.NoError(t, family.Guard(TransitionDelete))
	})
}

func TestFamilyAdvanceFrom(t *testing.T) {
	family := newActiveFamily(t)

	t.Run("advances one cadence step past the anchor", func(t *testing.T) {
		next := family.AdvanceFrom(date(2025, time.January, 15))
		assert.Equal(t, date(2025, time.January, 22), next)
		require.NotNil(t, family.NextVisitDate())
		assert.Equal(t, next, *family.NextVisitDate())
	})

	t.Run("re-anchors from a moved date, not the original schedule", func(t *testing.T) {
		next := family.AdvanceFrom(date(2025, time.February, 5))
		assert.Equal(t, date(2025, time.February, 12), next)
	})

	t.Run("is strictly later than the anchor", func(t *testing.T) {
		anchor := date(2025, time.March, 3)
		assert.True(t, family.AdvanceFrom(anchor).After(anchor))
	})
}

func TestFamilyStopRestart(t *testing.T) {
	t.Run("stop clears the projection", func(t *testing.T) {
		family := newActiveFamily(t)
		require.NoError(t, family.Stop("missed confirmation"))
		assert.Equal(t, FamilyStopped, family.Status())
		assert.Nil(t, family.NextVisitDate())
	})

	t.Run("stop requires an active family", func(t *testing.T) {
		family := newActiveFamily(t)
		require.NoError(t, family.Stop("manual"))
		assert.ErrorIs(t, family.Stop("again"), ErrFamilyNotActive)
	})

	t.Run("restart requires a stopped family", func(t *testing.T) {
		family := newActiveFamily(t)
		assert.ErrorIs(t, family.Restart(date(2025, time.June, 1)), ErrFamilyNotStopped)
	})

	t.Run("restart reactivates at the supplied date", func(t *testing.T) {
		family := newActiveFamily(t)
		require.NoError(t, family.Stop("manual"))
		require.NoError(t, family.Restart(date(2025, time.June, 1)))
		assert.Equal(t, FamilyActive, family.Status())
		require.NotNil(t, family.NextVisitDate())
		assert.Equal(t, date(2025, time.June, 1), *family.NextVisitDate())
	})

	t.Run("restart requires a date", func(t *testing.T) {
		family := newActiveFamily(t)
		require.NoError(t, family.Stop("manual"))
		var verr *ValidationError
		assert.ErrorAs(t, family.Restart(time.Time{}), &verr)
	})
}

func TestRehydrateFamily(t *testing.T) {
	id := uuid.New()
	next := date(2025, time.April, 10)
	now := time.Now().UTC()

	family := RehydrateFamily(id, uuid.New(), uuid.New(), Rule{Kind: KindMonthly}, FamilyActive, &next, now, now)

	assert.Equal(t, id, family.ID())
	assert.Equal(t, KindMonthly, family.Rule().Kind)
	require.NotNil(t, family.NextVisitDate())
	assert.Equal(t, next, *family.NextVisitDate())
	assert.Empty(t, family.DomainEvents())
}
