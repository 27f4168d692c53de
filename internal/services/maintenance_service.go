package services

import (
	"context"
	"errors"
	"time"

	"github.com/shiftloop/fulfillment-service/internal/constants"
	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/repositories"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

/*
   MaintenanceService is the periodic sweep behind the fulfillment engine:

     * marks hired workers with no attendance record as no-shows once the
       grace period after shift start has passed,
     * auto-completes in-progress shifts whose workers have all checked out
       (or been marked no-show) after the scheduled end,
     * flags live shifts landing on a public holiday as boosted.

   Wired to a cron schedule in the app bootstrap; every sweep is also safe
   to run by hand.
*/
type MaintenanceService struct {
	shiftRepo     repositories.ShiftRepository
	appRepo       repositories.ApplicationRepository
	checkRepo     repositories.CheckInRepository
	attendanceSvc *AttendanceService
	shiftSvc      *ShiftService
	nowFn         func() time.Time
}

func NewMaintenanceService(
	shiftRepo repositories.ShiftRepository,
	appRepo repositories.ApplicationRepository,
	checkRepo repositories.CheckInRepository,
	attendanceSvc *AttendanceService,
	shiftSvc *ShiftService,
	nowFn func() time.Time,
) *MaintenanceService {
	if nowFn == nil {
		nowFn = time.Now
	}
	return &MaintenanceService{
		shiftRepo:     shiftRepo,
		appRepo:       appRepo,
		checkRepo:     checkRepo,
		attendanceSvc: attendanceSvc,
		shiftSvc:      shiftSvc,
		nowFn:         nowFn,
	}
}

// RunSweep executes all periodic checks. Failures on one shift are logged
// and never stop the sweep for the rest.
func (s *MaintenanceService) RunSweep(ctx context.Context) error {
	utils.Logger.Debug("Running fulfillment maintenance sweep...")
	if err := s.markNoShows(ctx); err != nil {
		return err
	}
	if err := s.autoCompleteFinished(ctx); err != nil {
		return err
	}
	return s.boostHolidayShifts(ctx)
}

func (s *MaintenanceService) markNoShows(ctx context.Context) error {
	shifts, err := s.shiftRepo.ListByStatus(ctx, models.ShiftStatusFilled, models.ShiftStatusInProgress)
	if err != nil {
		return err
	}

	now := s.nowFn()
	for _, shift := range shifts {
		cutoff := shift.StartTime.Add(constants.NoShowGraceAfterStart)
		if now.Before(cutoff) {
			continue
		}

		apps, err := s.appRepo.ListByShiftID(ctx, shift.ID)
		if err != nil {
			utils.Logger.WithError(err).Errorf("No-show sweep: listing applications for shift %s failed", shift.ID)
			continue
		}
		for _, app := range apps {
			if app.Status != models.ApplicationStatusHired {
				continue
			}
			rec, err := s.checkRepo.GetByShiftAndWorker(ctx, shift.ID, app.WorkerID)
			if err != nil {
				utils.Logger.WithError(err).Errorf("No-show sweep: record lookup failed for worker %s", app.WorkerID)
				continue
			}
			if rec != nil {
				continue
			}
			if err := s.attendanceSvc.MarkNoShow(ctx, shift.ID, app.WorkerID); err != nil &&
				!errors.Is(err, utils.ErrAlreadyCheckedIn) {
				utils.Logger.WithError(err).Errorf("No-show sweep: marking worker %s failed", app.WorkerID)
				continue
			}
			utils.Logger.Infof("Marked worker %s as no-show for shift %s", app.WorkerID, shift.ID)
		}
	}
	return nil
}

func (s *MaintenanceService) autoCompleteFinished(ctx context.Context) error {
	shifts, err := s.shiftRepo.ListByStatus(ctx, models.ShiftStatusInProgress)
	if err != nil {
		return err
	}

	now := s.nowFn()
	for _, shift := range shifts {
		if now.Before(shift.EndTime) {
			continue
		}
		if _, err := s.shiftSvc.Complete(ctx, shift.ID); err != nil {
			// InvalidState just means someone is still clocked in; the next
			// sweep picks the shift up again.
			if !errors.Is(err, utils.ErrInvalidState) {
				utils.Logger.WithError(err).Errorf("Auto-complete failed for shift %s", shift.ID)
			}
			continue
		}
		utils.Logger.Infof("Auto-completed shift %s", shift.ID)
	}
	return nil
}

func (s *MaintenanceService) boostHolidayShifts(ctx context.Context) error {
	shifts, err := s.shiftRepo.ListByStatus(ctx, models.ShiftStatusLive)
	if err != nil {
		return err
	}
	for _, shift := range shifts {
		if shift.Boosted || !utils.IsPublicHoliday(shift.ServiceDate()) {
			continue
		}
		if err := s.shiftRepo.SetBoosted(ctx, shift.ID, true); err != nil {
			utils.Logger.WithError(err).Errorf("Holiday boost failed for shift %s", shift.ID)
			continue
		}
		utils.Logger.Infof("Boosted holiday shift %s", shift.ID)
	}
	return nil
}
