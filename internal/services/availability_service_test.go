package services

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

func TestSetAvailability(t *testing.T) {
	env := newTestEnv(t)
	workerID := uuid.New()
	tomorrow := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	err := env.availSvc.SetAvailability(env.ctx, workerID, tomorrow.AddDate(0, 0, -2), false, nil)
	assert.ErrorIs(t, err, utils.ErrPastDate)

	require.NoError(t, env.availSvc.SetAvailability(
		env.ctx, workerID, tomorrow, false, utils.Ptr("doctor appointment"),
	))
	slot := env.getSlot(t, workerID, tomorrow)
	require.NotNil(t, slot)
	assert.False(t, slot.IsAvailable)
	require.NotNil(t, slot.Reason)
	assert.Equal(t, "doctor appointment", *slot.Reason)

	// Toggling back on clears the day.
	require.NoError(t, env.availSvc.SetAvailability(env.ctx, workerID, tomorrow, true, nil))
	slot = env.getSlot(t, workerID, tomorrow)
	require.NotNil(t, slot)
	assert.True(t, slot.IsAvailable)
	assert.Nil(t, slot.Reason)
}

func TestSetAvailabilityRejectedOnLockedDay(t *testing.T) {
	env := newTestEnv(t)
	workerID := uuid.New()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	require.NoError(t, env.availRepo.Lock(env.ctx, workerID, day, uuid.New()))

	err := env.availSvc.SetAvailability(env.ctx, workerID, day, false, nil)
	assert.ErrorIs(t, err, utils.ErrDateLocked)
}

func TestBulkSetRejectsPastDatesBeforeWriting(t *testing.T) {
	env := newTestEnv(t)
	workerID := uuid.New()
	future := time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC)
	past := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := env.availSvc.BulkSet(env.ctx, workerID, []time.Time{future, past}, false)
	assert.ErrorIs(t, err, utils.ErrPastDate)

	// Nothing was written, not even the valid date.
	assert.Nil(t, env.getSlot(t, workerID, future))
}

func TestBulkSetSkipsLockedDays(t *testing.T) {
	env := newTestEnv(t)
	workerID := uuid.New()
	locked := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)
	free := time.Date(2026, 3, 11, 0, 0, 0, 0, time.UTC)
	require.NoError(t, env.availRepo.Lock(env.ctx, workerID, locked, uuid.New()))

	skipped, err := env.availSvc.BulkSet(env.ctx, workerID, []time.Time{locked, free}, false)
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, locked, skipped[0])

	slot := env.getSlot(t, workerID, free)
	require.NotNil(t, slot)
	assert.False(t, slot.IsAvailable)
}

func TestApplyRecurringPattern(t *testing.T) {
	env := newTestEnv(t)
	workerID := uuid.New()

	_, err := env.availSvc.ApplyRecurringPattern(env.ctx, workerID, nil, 0)
	assert.ErrorIs(t, err, utils.ErrInvalidPayload)

	// Today is Monday 2026-03-09; a 14-day horizon covers two Mondays.
	skipped, err := env.availSvc.ApplyRecurringPattern(env.ctx, workerID,
		map[time.Weekday]bool{time.Monday: false}, 14)
	require.NoError(t, err)
	assert.Empty(t, skipped)

	for _, day := range []time.Time{
		time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC),
	} {
		slot := env.getSlot(t, workerID, day)
		require.NotNil(t, slot, "expected slot for %s", day.Format(models.DateLayout))
		assert.False(t, slot.IsAvailable)
	}

	// Weekdays missing from the pattern are untouched.
	assert.Nil(t, env.getSlot(t, workerID, time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)))
}

func TestApplyRecurringPatternSkipsLockedDays(t *testing.T) {
	env := newTestEnv(t)
	workerID := uuid.New()
	secondMonday := time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC)
	require.NoError(t, env.availRepo.Lock(env.ctx, workerID, secondMonday, uuid.New()))

	skipped, err := env.availSvc.ApplyRecurringPattern(env.ctx, workerID,
		map[time.Weekday]bool{time.Monday: true}, 14)
	require.NoError(t, err)
	require.Len(t, skipped, 1)
	assert.Equal(t, secondMonday, skipped[0])
}

func TestListRange(t *testing.T) {
	env := newTestEnv(t)
	workerID := uuid.New()
	start := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	_, err := env.availSvc.ListRange(env.ctx, workerID, start, start.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, utils.ErrInvalidPayload)

	for i := 0; i < 3; i++ {
		require.NoError(t, env.availSvc.SetAvailability(env.ctx, workerID, start.AddDate(0, 0, i), false, nil))
	}
	slots, err := env.availSvc.ListRange(env.ctx, workerID, start, start.AddDate(0, 0, 1))
	require.NoError(t, err)
	require.Len(t, slots, 2)
	assert.True(t, slots[0].Date.Before(slots[1].Date))
}

func TestIsExplicitlyUnavailableDefaultsToAvailable(t *testing.T) {
	env := newTestEnv(t)
	workerID := uuid.New()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	unavailable, err := env.availSvc.IsExplicitlyUnavailable(env.ctx, workerID, day)
	require.NoError(t, err)
	assert.False(t, unavailable)

	require.NoError(t, env.availSvc.SetAvailability(env.ctx, workerID, day, false, nil))
	unavailable, err = env.availSvc.IsExplicitlyUnavailable(env.ctx, workerID, day)
	require.NoError(t, err)
	assert.True(t, unavailable)
}
