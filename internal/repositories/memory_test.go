package repositories

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

func newTestShift(needed int) *models.Shift {
	start := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	return &models.Shift{
		ID:            uuid.New(),
		VenueID:       uuid.New(),
		Role:          "bartender",
		StartTime:     start,
		EndTime:       start.Add(5 * time.Hour),
		HourlyRate:    12,
		WorkersNeeded: needed,
		Status:        models.ShiftStatusLive,
	}
}

func TestRecordHireAtomic(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryShiftRepository(NewMemoryStore())
	shift := newTestShift(2)
	require.NoError(t, repo.Create(ctx, shift))

	// Stale version never mutates.
	_, err := repo.RecordHireAtomic(ctx, shift.ID, shift.RowVersion+5)
	assert.ErrorIs(t, err, utils.ErrRowVersionConflict)

	first, err := repo.RecordHireAtomic(ctx, shift.ID, shift.RowVersion)
	require.NoError(t, err)
	assert.Equal(t, 1, first.WorkersHired)
	assert.Equal(t, models.ShiftStatusLive, first.Status)
	assert.Equal(t, shift.RowVersion+1, first.RowVersion)

	// The final hire flips LIVE to FILLED in the same operation.
	second, err := repo.RecordHireAtomic(ctx, shift.ID, first.RowVersion)
	require.NoError(t, err)
	assert.Equal(t, 2, second.WorkersHired)
	assert.Equal(t, models.ShiftStatusFilled, second.Status)

	_, err = repo.RecordHireAtomic(ctx, shift.ID, second.RowVersion)
	assert.ErrorIs(t, err, utils.ErrCapacityExceeded)
}

func TestRecordHireReversalAtomic(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryShiftRepository(NewMemoryStore())
	shift := newTestShift(1)
	require.NoError(t, repo.Create(ctx, shift))

	_, err := repo.RecordHireReversalAtomic(ctx, shift.ID, shift.RowVersion)
	assert.ErrorIs(t, err, utils.ErrNoRowsUpdated)

	filled, err := repo.RecordHireAtomic(ctx, shift.ID, shift.RowVersion)
	require.NoError(t, err)
	require.Equal(t, models.ShiftStatusFilled, filled.Status)

	reversed, err := repo.RecordHireReversalAtomic(ctx, shift.ID, filled.RowVersion)
	require.NoError(t, err)
	assert.Equal(t, 0, reversed.WorkersHired)
	assert.Equal(t, models.ShiftStatusLive, reversed.Status)
}

// Hammering the capacity counter from many goroutines must never hire
// past WorkersNeeded, no matter how the retries interleave.
func TestRecordHireAtomicUnderContention(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryShiftRepository(NewMemoryStore())
	shift := newTestShift(3)
	require.NoError(t, repo.Create(ctx, shift))

	var wg sync.WaitGroup
	successes := make(chan struct{}, 16)
	unexpected := make(chan error, 16)
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				current, err := repo.GetByID(ctx, shift.ID)
				if err != nil {
					unexpected <- err
					return
				}
				_, err = repo.RecordHireAtomic(ctx, shift.ID, current.RowVersion)
				switch {
				case err == nil:
					successes <- struct{}{}
					return
				case errors.Is(err, utils.ErrCapacityExceeded):
					return
				case errors.Is(err, utils.ErrRowVersionConflict):
					continue
				default:
					unexpected <- err
					return
				}
			}
		}()
	}
	wg.Wait()
	close(successes)
	close(unexpected)

	for err := range unexpected {
		t.Fatalf("unexpected hire error: %v", err)
	}
	assert.Len(t, successes, 3)
	final, err := repo.GetByID(ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, final.WorkersHired)
	assert.Equal(t, models.ShiftStatusFilled, final.Status)
}

func TestUpdateStatusAtomicVersionGuard(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryShiftRepository(NewMemoryStore())
	shift := newTestShift(1)
	require.NoError(t, repo.Create(ctx, shift))

	updated, err := repo.UpdateStatusAtomic(ctx, shift.ID, models.ShiftStatusCancelled, shift.RowVersion)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusCancelled, updated.Status)

	_, err = repo.UpdateStatusAtomic(ctx, shift.ID, models.ShiftStatusLive, shift.RowVersion)
	assert.ErrorIs(t, err, utils.ErrRowVersionConflict)
}

func TestApplicationCreateEnforcesOnePerPair(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryApplicationRepository(NewMemoryStore())
	app := &models.Application{
		ID:       uuid.New(),
		ShiftID:  uuid.New(),
		WorkerID: uuid.New(),
		Status:   models.ApplicationStatusApplied,
	}
	require.NoError(t, repo.Create(ctx, app))

	dup := &models.Application{
		ID:       uuid.New(),
		ShiftID:  app.ShiftID,
		WorkerID: app.WorkerID,
		Status:   models.ApplicationStatusApplied,
	}
	assert.ErrorIs(t, repo.Create(ctx, dup), utils.ErrDuplicateApplication)
}

func TestAvailabilityUpsertRespectsLocks(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryAvailabilityRepository(NewMemoryStore())
	workerID := uuid.New()
	shiftID := uuid.New()
	day := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Lock(ctx, workerID, day, shiftID))

	err := repo.UpsertIfUnlocked(ctx, &models.AvailabilitySlot{
		WorkerID: workerID, Date: day, IsAvailable: false,
	})
	assert.ErrorIs(t, err, utils.ErrDateLocked)

	// A second hire cannot take the same day.
	assert.ErrorIs(t, repo.Lock(ctx, workerID, day, uuid.New()), utils.ErrDateLocked)

	require.NoError(t, repo.Unlock(ctx, workerID, day))
	require.NoError(t, repo.UpsertIfUnlocked(ctx, &models.AvailabilitySlot{
		WorkerID: workerID, Date: day, IsAvailable: false,
	}))

	slot, err := repo.Get(ctx, workerID, day)
	require.NoError(t, err)
	require.NotNil(t, slot)
	assert.False(t, slot.IsAvailable)
	assert.Nil(t, slot.LockedBy)
}

func TestCheckInCreateIfNotExists(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryCheckInRepository(NewMemoryStore())
	rec := &models.CheckInRecord{
		ID:        uuid.New(),
		ShiftID:   uuid.New(),
		WorkerID:  uuid.New(),
		CheckInAt: time.Now().UTC(),
		Breaks:    []models.BreakEntry{},
	}
	require.NoError(t, repo.CreateIfNotExists(ctx, rec))

	dup := &models.CheckInRecord{
		ID:       uuid.New(),
		ShiftID:  rec.ShiftID,
		WorkerID: rec.WorkerID,
	}
	assert.ErrorIs(t, repo.CreateIfNotExists(ctx, dup), utils.ErrAlreadyCheckedIn)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryShiftRepository(NewMemoryStore())
	shift := newTestShift(1)
	require.NoError(t, repo.Create(ctx, shift))

	snapshot, err := repo.GetByID(ctx, shift.ID)
	require.NoError(t, err)
	snapshot.Status = models.ShiftStatusCancelled
	snapshot.WorkersHired = 99

	fresh, err := repo.GetByID(ctx, shift.ID)
	require.NoError(t, err)
	assert.Equal(t, models.ShiftStatusLive, fresh.Status)
	assert.Equal(t, 0, fresh.WorkersHired)
}
