package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/shiftloop/fulfillment-service/internal/config"
	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/repositories"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

/*
   AttendanceService records geofenced check-in/out events and breaks, and
   derives the Timesheet at checkout. Both check-in and checkout validate
   the reported coordinate against the shift location; the measured distance
   is surfaced in the error so the worker can self-correct.
*/
type AttendanceService struct {
	cfg        *config.Config
	checkRepo  repositories.CheckInRepository
	appRepo    repositories.ApplicationRepository
	shiftRepo  repositories.ShiftRepository
	workerRepo repositories.WorkerRepository
	dispatcher EventDispatcher
	nowFn      func() time.Time
}

func NewAttendanceService(
	cfg *config.Config,
	checkRepo repositories.CheckInRepository,
	appRepo repositories.ApplicationRepository,
	shiftRepo repositories.ShiftRepository,
	workerRepo repositories.WorkerRepository,
	dispatcher EventDispatcher,
	nowFn func() time.Time,
) *AttendanceService {
	if nowFn == nil {
		nowFn = time.Now
	}
	if dispatcher == nil {
		dispatcher = &LogEventDispatcher{}
	}
	return &AttendanceService{
		cfg:        cfg,
		checkRepo:  checkRepo,
		appRepo:    appRepo,
		shiftRepo:  shiftRepo,
		workerRepo: workerRepo,
		dispatcher: dispatcher,
		nowFn:      nowFn,
	}
}

// CheckIn validates the worker's hire, the time window and the geofence,
// then creates the attendance record. The first successful check-in moves a
// FILLED shift to IN_PROGRESS.
func (s *AttendanceService) CheckIn(
	ctx context.Context,
	shiftID, workerID uuid.UUID,
	lat, lng float64,
) (*models.CheckInRecord, error) {
	app, err := s.appRepo.GetByShiftAndWorker(ctx, shiftID, workerID)
	if err != nil {
		return nil, err
	}
	if app == nil || app.Status != models.ApplicationStatusHired {
		return nil, utils.ErrNotHired
	}

	shift, err := s.shiftRepo.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, utils.ErrNotFound
	}
	if shift.IsTerminal() || shift.Status == models.ShiftStatusDraft {
		return nil, utils.ErrInvalidState
	}

	now := s.nowFn()
	if now.Before(shift.StartTime.Add(-s.cfg.CheckInEarlyWindow)) {
		return nil, utils.ErrTooEarly
	}
	if now.After(shift.EndTime) {
		return nil, utils.ErrTooLate
	}

	if err := s.checkGeofence(lat, lng, shift); err != nil {
		return nil, err
	}

	rec := &models.CheckInRecord{
		ID:         uuid.New(),
		ShiftID:    shiftID,
		WorkerID:   workerID,
		CheckInAt:  now.UTC(),
		CheckInLat: lat,
		CheckInLng: lng,
		Breaks:     []models.BreakEntry{},
	}
	if err := s.checkRepo.CreateIfNotExists(ctx, rec); err != nil {
		return nil, err
	}

	if shift.Status == models.ShiftStatusFilled {
		s.beginShiftOnFirstCheckIn(ctx, shiftID)
	}

	s.dispatcher.Dispatch(ctx, Event{
		Type: EventShiftInProgress, ShiftID: shiftID, WorkerID: utils.Ptr(workerID), OccurredAt: now.UTC(),
	})
	return rec, nil
}

// beginShiftOnFirstCheckIn flips FILLED → IN_PROGRESS. A concurrent
// check-in racing us may win the flip; that is fine, the loser's
// InvalidState is swallowed.
func (s *AttendanceService) beginShiftOnFirstCheckIn(ctx context.Context, shiftID uuid.UUID) {
	_, err := repositories.WithRetry(ctx,
		func(ctx context.Context) (*models.Shift, error) {
			return s.shiftRepo.GetByID(ctx, shiftID)
		},
		func(ctx context.Context, shift *models.Shift, v int64) (*models.Shift, error) {
			return s.shiftRepo.UpdateStatusAtomic(ctx, shift.ID, shift.Status, v)
		},
		func(shift *models.Shift) error {
			if shift.Status != models.ShiftStatusFilled {
				return utils.ErrInvalidState
			}
			shift.Status = models.ShiftStatusInProgress
			return nil
		},
	)
	if err != nil && !errors.Is(err, utils.ErrInvalidState) {
		utils.Logger.WithError(err).Errorf("Failed to move shift %s to IN_PROGRESS on first check-in", shiftID)
	}
}

// StartBreak opens a new break entry on an open attendance record.
func (s *AttendanceService) StartBreak(ctx context.Context, recordID uuid.UUID) (*models.CheckInRecord, error) {
	now := s.nowFn().UTC()
	return s.updateRecord(ctx, recordID, func(rec *models.CheckInRecord) error {
		if rec.IsClosed() {
			return utils.ErrInvalidState
		}
		if rec.ActiveBreak() != nil {
			return utils.ErrBreakAlreadyActive
		}
		rec.Breaks = append(rec.Breaks, models.BreakEntry{StartAt: now})
		return nil
	})
}

// EndBreak closes the active break entry.
func (s *AttendanceService) EndBreak(ctx context.Context, recordID uuid.UUID) (*models.CheckInRecord, error) {
	now := s.nowFn().UTC()
	return s.updateRecord(ctx, recordID, func(rec *models.CheckInRecord) error {
		if rec.IsClosed() {
			return utils.ErrInvalidState
		}
		active := rec.ActiveBreak()
		if active == nil {
			return utils.ErrNoActiveBreak
		}
		active.EndAt = utils.Ptr(now)
		return nil
	})
}

// CheckOut validates the geofence, closes the record and computes the
// Timesheet. Worked time is wall time minus closed breaks; earnings are
// rounded half-up to two decimals.
func (s *AttendanceService) CheckOut(
	ctx context.Context,
	shiftID, workerID uuid.UUID,
	lat, lng float64,
	notes string,
) (*models.Timesheet, error) {
	rec, err := s.checkRepo.GetByShiftAndWorker(ctx, shiftID, workerID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, utils.ErrNotCheckedIn
	}
	if rec.IsClosed() {
		return nil, utils.ErrInvalidState
	}
	if rec.ActiveBreak() != nil {
		return nil, utils.ErrOnBreak
	}

	shift, err := s.shiftRepo.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, utils.ErrNotFound
	}
	if err := s.checkGeofence(lat, lng, shift); err != nil {
		return nil, err
	}

	now := s.nowFn().UTC()
	if now.Before(rec.CheckInAt) {
		return nil, utils.ErrInvalidPayload
	}

	breakMinutes := rec.BreakMinutes()
	workedMinutes := int(now.Sub(rec.CheckInAt).Minutes()) - breakMinutes
	if workedMinutes < 0 {
		workedMinutes = 0
	}
	earnings := utils.Round2(float64(workedMinutes) / 60 * shift.HourlyRate)

	updated, err := s.updateRecord(ctx, rec.ID, func(r *models.CheckInRecord) error {
		if r.IsClosed() {
			return utils.ErrInvalidState
		}
		if r.ActiveBreak() != nil {
			return utils.ErrOnBreak
		}
		r.CheckOutAt = utils.Ptr(now)
		r.CheckOutLat = utils.Ptr(lat)
		r.CheckOutLng = utils.Ptr(lng)
		r.Notes = notes
		r.WorkedMinutes = utils.Ptr(workedMinutes)
		r.Earnings = utils.Ptr(earnings)
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.workerRepo.AdjustHistoryAtomic(ctx, workerID, 1, 0, 0,
		"completed shift "+shiftID.String()); err != nil {
		utils.Logger.WithError(err).Warnf("Failed to record completion for worker %s", workerID)
	}

	timesheet := &models.Timesheet{
		ShiftID:       shiftID,
		WorkerID:      workerID,
		CheckInAt:     updated.CheckInAt,
		CheckOutAt:    *updated.CheckOutAt,
		BreakMinutes:  breakMinutes,
		WorkedMinutes: workedMinutes,
		HourlyRate:    shift.HourlyRate,
		Earnings:      earnings,
	}
	s.dispatcher.Dispatch(ctx, Event{
		Type: EventTimesheetFinalized, ShiftID: shiftID, WorkerID: utils.Ptr(workerID),
		Payload: timesheet, OccurredAt: now,
	})
	return timesheet, nil
}

// MarkNoShow records that a hired worker never arrived. Invoked by the
// maintenance sweep, never by client handlers.
func (s *AttendanceService) MarkNoShow(ctx context.Context, shiftID, workerID uuid.UUID) error {
	shift, err := s.shiftRepo.GetByID(ctx, shiftID)
	if err != nil {
		return err
	}
	if shift == nil {
		return utils.ErrNotFound
	}

	rec := &models.CheckInRecord{
		ID:         uuid.New(),
		ShiftID:    shiftID,
		WorkerID:   workerID,
		CheckInAt:  shift.StartTime.UTC(),
		CheckInLat: shift.Latitude,
		CheckInLng: shift.Longitude,
		Breaks:     []models.BreakEntry{},
		NoShow:     true,
		Notes:      "marked no-show by maintenance sweep",
	}
	if err := s.checkRepo.CreateIfNotExists(ctx, rec); err != nil {
		return err
	}

	if err := s.workerRepo.AdjustHistoryAtomic(ctx, workerID, 0, 1, 0,
		"no-show for shift "+shiftID.String()); err != nil {
		utils.Logger.WithError(err).Warnf("Failed to record no-show for worker %s", workerID)
	}

	s.dispatcher.Dispatch(ctx, Event{
		Type: EventWorkerNoShow, ShiftID: shiftID, WorkerID: utils.Ptr(workerID), OccurredAt: s.nowFn().UTC(),
	})
	return nil
}

func (s *AttendanceService) GetRecord(ctx context.Context, recordID uuid.UUID) (*models.CheckInRecord, error) {
	rec, err := s.checkRepo.GetByID(ctx, recordID)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, utils.ErrNotFound
	}
	return rec, nil
}

func (s *AttendanceService) checkGeofence(lat, lng float64, shift *models.Shift) error {
	distance := utils.DistanceMeters(lat, lng, shift.Latitude, shift.Longitude)
	if distance > s.cfg.GeofenceRadiusMeters {
		return utils.NewGeofenceError(distance, s.cfg.GeofenceRadiusMeters)
	}
	return nil
}

func (s *AttendanceService) updateRecord(
	ctx context.Context,
	recordID uuid.UUID,
	mutate func(*models.CheckInRecord) error,
) (*models.CheckInRecord, error) {
	return repositories.WithRetry(ctx,
		func(ctx context.Context) (*models.CheckInRecord, error) {
			return s.checkRepo.GetByID(ctx, recordID)
		},
		func(ctx context.Context, rec *models.CheckInRecord, v int64) (*models.CheckInRecord, error) {
			return s.checkRepo.UpdateAtomic(ctx, rec, v)
		},
		mutate,
	)
}
