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

func TestCreateShiftRejectsBadInput(t *testing.T) {
	env := newTestEnv(t)
	venue := env.newVenue(t)
	start := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)

	_, err := env.shiftSvc.Create(env.ctx, &models.Shift{
		VenueID: venue.ID, Role: "bartender",
		StartTime: start, EndTime: start.Add(-time.Hour),
		HourlyRate: 12, WorkersNeeded: 1,
	})
	assert.ErrorIs(t, err, utils.ErrInvalidPayload)

	_, err = env.shiftSvc.Create(env.ctx, &models.Shift{
		VenueID: venue.ID, Role: "bartender",
		StartTime: start, EndTime: start.Add(5 * time.Hour),
		HourlyRate: 0, WorkersNeeded: 1,
	})
	assert.ErrorIs(t, err, utils.ErrInvalidPayload)

	_, err = env.shiftSvc.Create(env.ctx, &models.Shift{
		VenueID: uuid.New(), Role: "bartender",
		StartTime: start, EndTime: start.Add(5 * time.Hour),
		HourlyRate: 12, WorkersNeeded: 1,
	})
	assert.ErrorIs(t, err, utils.ErrNotFound)
}

func TestPublishOnlyFromDraft(t *testing.T) {
	env := newTestEnv(t)
	venue := env.newVenue(t)
	draft := env.newDraftShift(t, venue.ID, 1)
	assert.Equal(t, models.ShiftStatusDraft, draft.Status)

	live, err := env.shiftSvc.Publish(env.ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusLive, live.Status)
	assert.False(t, live.Boosted)

	_, err = env.shiftSvc.Publish(env.ctx, draft.ID)
	assert.ErrorIs(t, err, utils.ErrInvalidState)
}

func TestPublishBoostsHolidayShift(t *testing.T) {
	env := newTestEnv(t)
	venue := env.newVenue(t)
	start := time.Date(2026, 7, 4, 17, 0, 0, 0, time.UTC)
	draft := env.newDraftShiftAt(t, venue.ID, start, start.Add(6*time.Hour), 1)

	live, err := env.shiftSvc.Publish(env.ctx, draft.ID)
	require.NoError(t, err)
	assert.True(t, live.Boosted)
}

func TestBeginRequiresFilledAndStartTime(t *testing.T) {
	env := newTestEnv(t)
	venue := env.newVenue(t)
	shift := env.newLiveShift(t, venue.ID, 1)

	// LIVE shifts cannot begin; they have no confirmed crew yet.
	_, err := env.shiftSvc.Begin(env.ctx, shift.ID)
	assert.ErrorIs(t, err, utils.ErrInvalidState)

	worker := env.newWorker(t, "bartender")
	env.applyAndHire(t, worker.ID, shift.ID)
	assert.Equal(t, models.ShiftStatusFilled, env.getShift(t, shift.ID).Status)

	_, err = env.shiftSvc.Begin(env.ctx, shift.ID)
	assert.ErrorIs(t, err, utils.ErrTooEarly)

	env.setNow(shift.StartTime)
	begun, err := env.shiftSvc.Begin(env.ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusInProgress, begun.Status)
}

func TestNthHireFillsShiftInSameOperation(t *testing.T) {
	env := newTestEnv(t)
	venue := env.newVenue(t)
	shift := env.newLiveShift(t, venue.ID, 2)

	w1 := env.newWorker(t, "bartender")
	w2 := env.newWorker(t, "bartender")

	env.applyAndHire(t, w1.ID, shift.ID)
	after1 := env.getShift(t, shift.ID)
	assert.Equal(t, 1, after1.WorkersHired)
	assert.Equal(t, models.ShiftStatusLive, after1.Status)

	env.applyAndHire(t, w2.ID, shift.ID)
	after2 := env.getShift(t, shift.ID)
	assert.Equal(t, 2, after2.WorkersHired)
	assert.Equal(t, models.ShiftStatusFilled, after2.Status)

	// A filled shift no longer accepts hires.
	w3 := env.newWorker(t, "bartender")
	app, err := env.appSvc.Apply(env.ctx, w3.ID, shift.ID, nil)
	assert.ErrorIs(t, err, utils.ErrShiftNotOpen)
	assert.Nil(t, app)
}

func TestCompleteWaitsForAllAttendanceRecords(t *testing.T) {
	env := newTestEnv(t)
	venue := env.newVenue(t)
	shift := env.newLiveShift(t, venue.ID, 1)
	worker := env.newWorker(t, "bartender")
	env.applyAndHire(t, worker.ID, shift.ID)

	env.setNow(shift.StartTime)
	_, err := env.attendanceSvc.CheckIn(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusInProgress, env.getShift(t, shift.ID).Status)

	// Worker still clocked in.
	_, err = env.shiftSvc.Complete(env.ctx, shift.ID)
	assert.ErrorIs(t, err, utils.ErrInvalidState)

	env.setNow(shift.EndTime)
	_, err = env.attendanceSvc.CheckOut(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng, "")
	require.NoError(t, err)

	completed, err := env.shiftSvc.Complete(env.ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusCompleted, completed.Status)

	// The worker's day is released once the shift closes out.
	slot := env.getSlot(t, worker.ID, shift.ServiceDate())
	require.NotNil(t, slot)
	assert.Nil(t, slot.LockedBy)
}

func TestCancelClosesCommittedApplications(t *testing.T) {
	env := newTestEnv(t)
	venue := env.newVenue(t)
	shift := env.newLiveShift(t, venue.ID, 2)

	hiredWorker := env.newWorker(t, "bartender")
	hiredApp := env.applyAndHire(t, hiredWorker.ID, shift.ID)

	appliedWorker := env.newWorker(t, "bartender")
	appliedApp := env.apply(t, appliedWorker.ID, shift.ID)

	cancelled, err := env.shiftSvc.Cancel(env.ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusCancelled, cancelled.Status)

	closedApp, err := env.appRepo.GetByID(env.ctx, hiredApp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusRejected, closedApp.Status)

	slot := env.getSlot(t, hiredWorker.ID, shift.ServiceDate())
	require.NotNil(t, slot)
	assert.Nil(t, slot.LockedBy)

	// Uncommitted applications are left alone.
	stillApplied, err := env.appRepo.GetByID(env.ctx, appliedApp.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ApplicationStatusApplied, stillApplied.Status)

	_, err = env.shiftSvc.Cancel(env.ctx, shift.ID)
	assert.ErrorIs(t, err, utils.ErrInvalidState)
}

func TestListOpenNearbyFiltersAndSorts(t *testing.T) {
	env := newTestEnv(t)
	venue := env.newVenue(t)

	near := env.newLiveShift(t, venue.ID, 1)

	start := time.Date(2026, 3, 11, 18, 0, 0, 0, time.UTC)
	boostedDraft := env.newDraftShiftAt(t, venue.ID, start, start.Add(5*time.Hour), 1)
	boosted, err := env.shiftSvc.Publish(env.ctx, boostedDraft.ID)
	require.NoError(t, err)
	require.NoError(t, env.shiftRepo.SetBoosted(env.ctx, boosted.ID, true))

	// Manchester, well outside the 75-mile listing radius of Soho.
	farDraft, err := env.shiftSvc.Create(env.ctx, &models.Shift{
		VenueID: venue.ID, Role: "bartender",
		StartTime: start, EndTime: start.Add(5 * time.Hour),
		Latitude: 53.4808, Longitude: -2.2426,
		HourlyRate: 12, WorkersNeeded: 1,
	})
	require.NoError(t, err)
	_, err = env.shiftSvc.Publish(env.ctx, farDraft.ID)
	require.NoError(t, err)

	listings, err := env.shiftSvc.ListOpenNearby(env.ctx, testVenueLat, testVenueLng, 14)
	require.NoError(t, err)
	require.Len(t, listings, 2)

	assert.Equal(t, boosted.ID, listings[0].Shift.ID)
	assert.Equal(t, near.ID, listings[1].Shift.ID)
	for _, l := range listings {
		assert.LessOrEqual(t, l.DistanceMiles, 75.0)
	}
}
