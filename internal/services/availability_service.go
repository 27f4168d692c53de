package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/repositories"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

/*
   AvailabilityService owns the per-worker calendar of available/unavailable
   days. Absence of a slot means available by default. Hires lock a day;
   locked days cannot be toggled by the worker until the locking shift
   releases them.
*/
type AvailabilityService struct {
	availRepo repositories.AvailabilityRepository
	nowFn     func() time.Time
}

func NewAvailabilityService(availRepo repositories.AvailabilityRepository, nowFn func() time.Time) *AvailabilityService {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &AvailabilityService{availRepo: availRepo, nowFn: nowFn}
}

func (s *AvailabilityService) today() time.Time {
	return models.DateOnly(s.nowFn())
}

// SetAvailability upserts the worker's slot for one day. Past days are
// rejected before any write; a locked day fails with ErrDateLocked.
func (s *AvailabilityService) SetAvailability(
	ctx context.Context,
	workerID uuid.UUID,
	date time.Time,
	isAvailable bool,
	reason *string,
) error {
	day := models.DateOnly(date)
	if day.Before(s.today()) {
		return utils.ErrPastDate
	}
	slot := &models.AvailabilitySlot{
		WorkerID:    workerID,
		Date:        day,
		IsAvailable: isAvailable,
		Reason:      reason,
	}
	return s.availRepo.UpsertIfUnlocked(ctx, slot)
}

// BulkSet applies one availability value across many days. Locked days are
// skipped, not errored on; the skipped days are returned so the client can
// show which ones did not take. Past days are rejected up front, before any
// day is written.
func (s *AvailabilityService) BulkSet(
	ctx context.Context,
	workerID uuid.UUID,
	dates []time.Time,
	isAvailable bool,
) ([]time.Time, error) {
	today := s.today()
	for _, d := range dates {
		if models.DateOnly(d).Before(today) {
			return nil, utils.ErrPastDate
		}
	}

	var skipped []time.Time
	for _, d := range dates {
		day := models.DateOnly(d)
		err := s.availRepo.UpsertIfUnlocked(ctx, &models.AvailabilitySlot{
			WorkerID:    workerID,
			Date:        day,
			IsAvailable: isAvailable,
		})
		if errors.Is(err, utils.ErrDateLocked) {
			skipped = append(skipped, day)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return skipped, nil
}

// ApplyRecurringPattern projects a weekday availability map over the next
// horizonDays days starting today. Weekdays missing from the map are left
// untouched; locked days are skipped and returned.
func (s *AvailabilityService) ApplyRecurringPattern(
	ctx context.Context,
	workerID uuid.UUID,
	weekdayAvailability map[time.Weekday]bool,
	horizonDays int,
) ([]time.Time, error) {
	if horizonDays <= 0 {
		return nil, utils.ErrInvalidPayload
	}

	var skipped []time.Time
	start := s.today()
	for i := 0; i < horizonDays; i++ {
		day := start.AddDate(0, 0, i)
		isAvailable, ok := weekdayAvailability[day.Weekday()]
		if !ok {
			continue
		}
		err := s.availRepo.UpsertIfUnlocked(ctx, &models.AvailabilitySlot{
			WorkerID:    workerID,
			Date:        day,
			IsAvailable: isAvailable,
		})
		if errors.Is(err, utils.ErrDateLocked) {
			skipped = append(skipped, day)
			continue
		}
		if err != nil {
			return nil, err
		}
	}
	return skipped, nil
}

func (s *AvailabilityService) ListRange(
	ctx context.Context,
	workerID uuid.UUID,
	start, end time.Time,
) ([]*models.AvailabilitySlot, error) {
	if end.Before(start) {
		return nil, utils.ErrInvalidPayload
	}
	return s.availRepo.ListByWorkerRange(ctx, workerID, start, end)
}

// IsExplicitlyUnavailable reports whether the worker has marked the day off.
// No slot means available by default.
func (s *AvailabilityService) IsExplicitlyUnavailable(
	ctx context.Context,
	workerID uuid.UUID,
	date time.Time,
) (bool, error) {
	slot, err := s.availRepo.Get(ctx, workerID, date)
	if err != nil {
		return false, err
	}
	return slot != nil && !slot.IsAvailable, nil
}

// Lock and Unlock are invoked by the application/shift lifecycles only,
// never directly by worker-facing handlers.

func (s *AvailabilityService) Lock(ctx context.Context, workerID uuid.UUID, date time.Time, shiftID uuid.UUID) error {
	return s.availRepo.Lock(ctx, workerID, date, shiftID)
}

func (s *AvailabilityService) Unlock(ctx context.Context, workerID uuid.UUID, date time.Time) error {
	return s.availRepo.Unlock(ctx, workerID, date)
}
