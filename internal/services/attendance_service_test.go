package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

// hiredOnShift sets up a filled one-worker shift with the worker hired.
func hiredOnShift(t *testing.T, env *testEnv) (*models.Shift, *models.Worker) {
	t.Helper()
	venue := env.newVenue(t)
	shift := env.newLiveShift(t, venue.ID, 1)
	worker := env.newWorker(t, "bartender")
	env.applyAndHire(t, worker.ID, shift.ID)
	return env.getShift(t, shift.ID), worker
}

func TestCheckInRequiresHire(t *testing.T) {
	env := newTestEnv(t)
	venue := env.newVenue(t)
	shift := env.newLiveShift(t, venue.ID, 1)
	worker := env.newWorker(t, "bartender")
	env.apply(t, worker.ID, shift.ID)

	env.setNow(shift.StartTime)
	_, err := env.attendanceSvc.CheckIn(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng)
	assert.ErrorIs(t, err, utils.ErrNotHired)

	_, err = env.attendanceSvc.CheckIn(env.ctx, shift.ID, uuid.New(), testVenueLat, testVenueLng)
	assert.ErrorIs(t, err, utils.ErrNotHired)
}

func TestCheckInWindow(t *testing.T) {
	env := newTestEnv(t)
	shift, worker := hiredOnShift(t, env)

	env.setNow(shift.StartTime.Add(-16 * time.Minute))
	_, err := env.attendanceSvc.CheckIn(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng)
	assert.ErrorIs(t, err, utils.ErrTooEarly)

	env.setNow(shift.EndTime.Add(time.Minute))
	_, err = env.attendanceSvc.CheckIn(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng)
	assert.ErrorIs(t, err, utils.ErrTooLate)

	// The window opens exactly 15 minutes before start.
	env.setNow(shift.StartTime.Add(-15 * time.Minute))
	rec, err := env.attendanceSvc.CheckIn(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng)
	require.NoError(t, err)
	assert.Equal(t, worker.ID, rec.WorkerID)
}

func TestCheckInGeofence(t *testing.T) {
	env := newTestEnv(t)
	shift, worker := hiredOnShift(t, env)
	env.setNow(shift.StartTime)

	// Roughly 220m north of the venue, well past the 100m radius.
	_, err := env.attendanceSvc.CheckIn(env.ctx, shift.ID, worker.ID, testVenueLat+0.002, testVenueLng)
	require.Error(t, err)
	assert.ErrorIs(t, err, utils.ErrOutOfRange)

	var geoErr *utils.GeofenceError
	require.True(t, errors.As(err, &geoErr))
	assert.InDelta(t, 222, geoErr.DistanceMeters, 3)
	assert.Equal(t, 100.0, geoErr.RadiusMeters)

	// ~55m away is inside the fence.
	_, err = env.attendanceSvc.CheckIn(env.ctx, shift.ID, worker.ID, testVenueLat+0.0005, testVenueLng)
	require.NoError(t, err)
}

func TestCheckInIsIdempotentPerShift(t *testing.T) {
	env := newTestEnv(t)
	shift, worker := hiredOnShift(t, env)
	env.setNow(shift.StartTime)

	_, err := env.attendanceSvc.CheckIn(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng)
	require.NoError(t, err)

	_, err = env.attendanceSvc.CheckIn(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng)
	assert.ErrorIs(t, err, utils.ErrAlreadyCheckedIn)
}

func TestFirstCheckInStartsShift(t *testing.T) {
	env := newTestEnv(t)
	shift, worker := hiredOnShift(t, env)
	assert.Equal(t, models.ShiftStatusFilled, shift.Status)

	env.setNow(shift.StartTime)
	_, err := env.attendanceSvc.CheckIn(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusInProgress, env.getShift(t, shift.ID).Status)
}

func TestCheckOutComputesTimesheet(t *testing.T) {
	env := newTestEnv(t)
	shift, worker := hiredOnShift(t, env)

	env.setNow(shift.StartTime)
	_, err := env.attendanceSvc.CheckIn(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng)
	require.NoError(t, err)

	// 3h37m at £12/h.
	env.setNow(shift.StartTime.Add(3*time.Hour + 37*time.Minute))
	ts, err := env.attendanceSvc.CheckOut(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng, "smooth night")
	require.NoError(t, err)

	assert.Equal(t, 217, ts.WorkedMinutes)
	assert.Equal(t, 0, ts.BreakMinutes)
	assert.Equal(t, 12.0, ts.HourlyRate)
	assert.Equal(t, 43.40, ts.Earnings)

	assert.Equal(t, 1, env.getWorker(t, worker.ID).CompletedShiftCount)

	// A closed record cannot be closed twice.
	_, err = env.attendanceSvc.CheckOut(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng, "")
	assert.ErrorIs(t, err, utils.ErrInvalidState)
}

func TestBreaksReduceWorkedTime(t *testing.T) {
	env := newTestEnv(t)
	shift, worker := hiredOnShift(t, env)

	env.setNow(shift.StartTime)
	rec, err := env.attendanceSvc.CheckIn(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng)
	require.NoError(t, err)

	env.setNow(shift.StartTime.Add(time.Hour))
	_, err = env.attendanceSvc.StartBreak(env.ctx, rec.ID)
	require.NoError(t, err)

	_, err = env.attendanceSvc.StartBreak(env.ctx, rec.ID)
	assert.ErrorIs(t, err, utils.ErrBreakAlreadyActive)

	// No clocking out mid-break.
	_, err = env.attendanceSvc.CheckOut(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng, "")
	assert.ErrorIs(t, err, utils.ErrOnBreak)

	env.setNow(shift.StartTime.Add(time.Hour + 30*time.Minute))
	_, err = env.attendanceSvc.EndBreak(env.ctx, rec.ID)
	require.NoError(t, err)

	_, err = env.attendanceSvc.EndBreak(env.ctx, rec.ID)
	assert.ErrorIs(t, err, utils.ErrNoActiveBreak)

	env.setNow(shift.StartTime.Add(4 * time.Hour))
	ts, err := env.attendanceSvc.CheckOut(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng, "")
	require.NoError(t, err)
	assert.Equal(t, 30, ts.BreakMinutes)
	assert.Equal(t, 210, ts.WorkedMinutes)
	assert.Equal(t, 42.0, ts.Earnings)
}

func TestCheckOutRequiresCheckInAndGeofence(t *testing.T) {
	env := newTestEnv(t)
	shift, worker := hiredOnShift(t, env)
	env.setNow(shift.StartTime)

	_, err := env.attendanceSvc.CheckOut(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng, "")
	assert.ErrorIs(t, err, utils.ErrNotCheckedIn)

	_, err = env.attendanceSvc.CheckIn(env.ctx, shift.ID, worker.ID, testVenueLat, testVenueLng)
	require.NoError(t, err)

	env.setNow(shift.EndTime)
	_, err = env.attendanceSvc.CheckOut(env.ctx, shift.ID, worker.ID, testVenueLat+0.002, testVenueLng, "")
	assert.ErrorIs(t, err, utils.ErrOutOfRange)
}

func TestMarkNoShow(t *testing.T) {
	env := newTestEnv(t)
	shift, worker := hiredOnShift(t, env)

	require.NoError(t, env.attendanceSvc.MarkNoShow(env.ctx, shift.ID, worker.ID))

	rec, err := env.checkRepo.GetByShiftAndWorker(env.ctx, shift.ID, worker.ID)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.True(t, rec.NoShow)
	assert.Equal(t, 1, env.getWorker(t, worker.ID).NoShowCount)

	// A worker with any attendance record cannot be marked again.
	err = env.attendanceSvc.MarkNoShow(env.ctx, shift.ID, worker.ID)
	assert.ErrorIs(t, err, utils.ErrAlreadyCheckedIn)
}
