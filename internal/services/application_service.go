package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/shiftloop/fulfillment-service/internal/constants"
	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/repositories"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

/*
   ApplicationService owns the application state machine:

       APPLIED → (COUNTERED) → ACCEPTED → HIRED
       REJECTED / WITHDRAWN reachable from any non-terminal state

   Hire is the only operation that touches shift capacity. It is written so
   that a CapacityExceeded outcome leaves the application untouched, and a
   failure after the capacity increment compensates with an explicit
   reversal rather than relying on any rollback.
*/
type ApplicationService struct {
	appRepo    repositories.ApplicationRepository
	shiftRepo  repositories.ShiftRepository
	workerRepo repositories.WorkerRepository
	availSvc   *AvailabilityService
	dispatcher EventDispatcher
	nowFn      func() time.Time
}

func NewApplicationService(
	appRepo repositories.ApplicationRepository,
	shiftRepo repositories.ShiftRepository,
	workerRepo repositories.WorkerRepository,
	availSvc *AvailabilityService,
	dispatcher EventDispatcher,
	nowFn func() time.Time,
) *ApplicationService {
	if nowFn == nil {
		nowFn = time.Now
	}
	if dispatcher == nil {
		dispatcher = &LogEventDispatcher{}
	}
	return &ApplicationService{
		appRepo:    appRepo,
		shiftRepo:  shiftRepo,
		workerRepo: workerRepo,
		availSvc:   availSvc,
		dispatcher: dispatcher,
		nowFn:      nowFn,
	}
}

func (s *ApplicationService) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.appRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app == nil {
		return nil, utils.ErrNotFound
	}
	return app, nil
}

func (s *ApplicationService) ListForShift(ctx context.Context, shiftID uuid.UUID) ([]*models.Application, error) {
	return s.appRepo.ListByShiftID(ctx, shiftID)
}

func (s *ApplicationService) ListForWorker(ctx context.Context, workerID uuid.UUID) ([]*models.Application, error) {
	return s.appRepo.ListByWorkerID(ctx, workerID)
}

// Apply creates an application for a LIVE shift. With a counter rate the
// application starts in COUNTERED awaiting venue resolution, otherwise in
// APPLIED at the shift's offered rate.
func (s *ApplicationService) Apply(
	ctx context.Context,
	workerID, shiftID uuid.UUID,
	counterRate *float64,
) (*models.Application, error) {
	shift, err := s.shiftRepo.GetByID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, utils.ErrNotFound
	}
	if shift.Status != models.ShiftStatusLive {
		return nil, utils.ErrShiftNotOpen
	}
	if counterRate != nil && *counterRate <= 0 {
		return nil, utils.ErrInvalidPayload
	}

	if worker, err := s.workerRepo.GetByID(ctx, workerID); err != nil {
		return nil, err
	} else if worker == nil {
		return nil, utils.ErrNotFound
	}

	unavailable, err := s.availSvc.IsExplicitlyUnavailable(ctx, workerID, shift.ServiceDate())
	if err != nil {
		return nil, err
	}
	if unavailable {
		return nil, utils.ErrAvailabilityConflict
	}

	status := models.ApplicationStatusApplied
	if counterRate != nil {
		status = models.ApplicationStatusCountered
	}
	app := &models.Application{
		ID:          uuid.New(),
		ShiftID:     shiftID,
		WorkerID:    workerID,
		Status:      status,
		OfferedRate: shift.HourlyRate,
		CounterRate: counterRate,
	}
	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, err
	}

	s.dispatcher.Dispatch(ctx, Event{
		Type: EventApplicationApplied, ShiftID: shiftID, WorkerID: utils.Ptr(workerID), OccurredAt: s.nowFn().UTC(),
	})
	return app, nil
}

// CounterAccept resolves a COUNTERED application back to APPLIED with the
// countered rate adopted as the offered rate.
func (s *ApplicationService) CounterAccept(ctx context.Context, applicationID uuid.UUID) (*models.Application, error) {
	return s.updateApplication(ctx, applicationID, func(app *models.Application) error {
		if app.Status != models.ApplicationStatusCountered {
			return utils.ErrInvalidState
		}
		if app.CounterRate == nil {
			return utils.ErrInvalidState
		}
		app.OfferedRate = *app.CounterRate
		app.Status = models.ApplicationStatusApplied
		return nil
	})
}

// CounterReject resolves a COUNTERED application to REJECTED.
func (s *ApplicationService) CounterReject(ctx context.Context, applicationID uuid.UUID) (*models.Application, error) {
	app, err := s.updateApplication(ctx, applicationID, func(app *models.Application) error {
		if app.Status != models.ApplicationStatusCountered {
			return utils.ErrInvalidState
		}
		app.Status = models.ApplicationStatusRejected
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.dispatcher.Dispatch(ctx, Event{
		Type: EventApplicationClosed, ShiftID: app.ShiftID, WorkerID: utils.Ptr(app.WorkerID), OccurredAt: s.nowFn().UTC(),
	})
	return app, nil
}

// Accept moves APPLIED → ACCEPTED (worker confirms interest at the offered
// rate ahead of the venue's hire decision).
func (s *ApplicationService) Accept(ctx context.Context, applicationID uuid.UUID) (*models.Application, error) {
	return s.updateApplication(ctx, applicationID, func(app *models.Application) error {
		if app.Status != models.ApplicationStatusApplied {
			return utils.ErrInvalidState
		}
		app.Status = models.ApplicationStatusAccepted
		return nil
	})
}

// Hire confirms a worker for the shift. The capacity increment and the
// LIVE→FILLED flip happen in one atomic repository operation; the worker's
// availability slot is then locked for the shift date, and only then does
// the application itself flip to HIRED. Any failure after the increment is
// compensated with an explicit reversal so a CapacityExceeded or DateLocked
// outcome leaves no partial state behind.
func (s *ApplicationService) Hire(ctx context.Context, applicationID uuid.UUID) (*models.Application, error) {
	app, err := s.GetByID(ctx, applicationID)
	if err != nil {
		return nil, err
	}
	if app.Status != models.ApplicationStatusApplied && app.Status != models.ApplicationStatusAccepted {
		return nil, utils.ErrInvalidState
	}

	shift, err := s.shiftRepo.GetByID(ctx, app.ShiftID)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, utils.ErrNotFound
	}
	if shift.Status != models.ShiftStatusLive {
		return nil, utils.ErrShiftNotOpen
	}

	unavailable, err := s.availSvc.IsExplicitlyUnavailable(ctx, app.WorkerID, shift.ServiceDate())
	if err != nil {
		return nil, err
	}
	if unavailable {
		return nil, utils.ErrAvailabilityConflict
	}

	// 1. Capacity increment, retried only on version conflicts.
	hiredShift, err := s.recordHire(ctx, app.ShiftID)
	if err != nil {
		return nil, err
	}

	// 2. Reserve the worker's day. A lock held by another shift means the
	//    worker was hired elsewhere for that date in the meantime.
	serviceDate := hiredShift.ServiceDate()
	if err := s.availSvc.Lock(ctx, app.WorkerID, serviceDate, hiredShift.ID); err != nil {
		s.compensateHire(ctx, hiredShift.ID)
		if errors.Is(err, utils.ErrDateLocked) {
			return nil, utils.ErrAvailabilityConflict
		}
		return nil, err
	}

	// 3. Flip the application itself.
	hiredRate := app.OfferedRate
	updated, err := s.updateApplication(ctx, applicationID, func(a *models.Application) error {
		if a.Status != models.ApplicationStatusApplied && a.Status != models.ApplicationStatusAccepted {
			return utils.ErrInvalidState
		}
		a.Status = models.ApplicationStatusHired
		a.HiredRate = utils.Ptr(hiredRate)
		return nil
	})
	if err != nil {
		if uErr := s.availSvc.Unlock(ctx, app.WorkerID, serviceDate); uErr != nil {
			utils.Logger.WithError(uErr).Errorf("Failed to unlock availability while compensating hire of application %s", applicationID)
		}
		s.compensateHire(ctx, hiredShift.ID)
		return nil, err
	}

	if err := s.workerRepo.RecordOfferOutcome(ctx, app.WorkerID, true, utils.Ptr(hiredRate)); err != nil {
		utils.Logger.WithError(err).Warnf("Failed to record offer outcome for worker %s", app.WorkerID)
	}

	s.dispatcher.Dispatch(ctx, Event{
		Type: EventApplicationHired, ShiftID: app.ShiftID, WorkerID: utils.Ptr(app.WorkerID), OccurredAt: s.nowFn().UTC(),
	})
	if hiredShift.Status == models.ShiftStatusFilled {
		s.dispatcher.Dispatch(ctx, Event{
			Type: EventShiftFilled, ShiftID: hiredShift.ID, OccurredAt: s.nowFn().UTC(),
		})
	}
	return updated, nil
}

// Withdraw is the worker closing their own application. Withdrawing from
// HIRED reverses the hire, releases the day and counts as a cancellation
// against the worker's reliability history.
func (s *ApplicationService) Withdraw(ctx context.Context, applicationID uuid.UUID) (*models.Application, error) {
	return s.closeApplication(ctx, applicationID, models.ApplicationStatusWithdrawn)
}

// Reject is the venue closing the application. Rejecting a HIRED worker
// reverses the hire and releases the day without a reliability penalty.
func (s *ApplicationService) Reject(ctx context.Context, applicationID uuid.UUID) (*models.Application, error) {
	return s.closeApplication(ctx, applicationID, models.ApplicationStatusRejected)
}

func (s *ApplicationService) closeApplication(
	ctx context.Context,
	applicationID uuid.UUID,
	terminal models.ApplicationStatusType,
) (*models.Application, error) {
	var wasHired bool
	updated, err := s.updateApplication(ctx, applicationID, func(app *models.Application) error {
		if app.IsTerminal() {
			return utils.ErrInvalidState
		}
		wasHired = app.Status == models.ApplicationStatusHired
		app.Status = terminal
		return nil
	})
	if err != nil {
		return nil, err
	}

	if wasHired {
		shift, sErr := s.shiftRepo.GetByID(ctx, updated.ShiftID)
		if sErr != nil {
			return nil, sErr
		}
		if shift != nil && !shift.IsTerminal() {
			s.compensateHire(ctx, shift.ID)
		}
		if shift != nil {
			if uErr := s.availSvc.Unlock(ctx, updated.WorkerID, shift.ServiceDate()); uErr != nil {
				utils.Logger.WithError(uErr).Errorf("Failed to unlock availability for worker %s on close of application %s",
					updated.WorkerID, applicationID)
			}
		}
		if terminal == models.ApplicationStatusWithdrawn {
			if hErr := s.workerRepo.AdjustHistoryAtomic(ctx, updated.WorkerID, 0, 0, 1,
				"withdrew from hired shift "+updated.ShiftID.String()); hErr != nil {
				utils.Logger.WithError(hErr).Warnf("Failed to record cancellation for worker %s", updated.WorkerID)
			}
		}
	} else if terminal == models.ApplicationStatusWithdrawn {
		if err := s.workerRepo.RecordOfferOutcome(ctx, updated.WorkerID, false, nil); err != nil {
			utils.Logger.WithError(err).Warnf("Failed to record offer outcome for worker %s", updated.WorkerID)
		}
	}

	s.dispatcher.Dispatch(ctx, Event{
		Type: EventApplicationClosed, ShiftID: updated.ShiftID, WorkerID: utils.Ptr(updated.WorkerID), OccurredAt: s.nowFn().UTC(),
	})
	return updated, nil
}

// recordHire retries the atomic capacity increment on version conflicts
// only; CapacityExceeded aborts immediately.
func (s *ApplicationService) recordHire(ctx context.Context, shiftID uuid.UUID) (*models.Shift, error) {
	for attempt := 0; attempt < constants.MaxVersionRetries; attempt++ {
		shift, err := s.shiftRepo.GetByID(ctx, shiftID)
		if err != nil {
			return nil, err
		}
		if shift == nil {
			return nil, utils.ErrNotFound
		}
		updated, err := s.shiftRepo.RecordHireAtomic(ctx, shiftID, shift.RowVersion)
		if err == nil {
			return updated, nil
		}
		if !errors.Is(err, utils.ErrRowVersionConflict) {
			return nil, err
		}
	}
	return nil, utils.ErrRowVersionConflict
}

func (s *ApplicationService) compensateHire(ctx context.Context, shiftID uuid.UUID) {
	for attempt := 0; attempt < constants.MaxVersionRetries; attempt++ {
		shift, err := s.shiftRepo.GetByID(ctx, shiftID)
		if err != nil || shift == nil {
			utils.Logger.WithError(err).Errorf("Hire reversal: shift %s not loadable", shiftID)
			return
		}
		_, err = s.shiftRepo.RecordHireReversalAtomic(ctx, shiftID, shift.RowVersion)
		if err == nil {
			return
		}
		if !errors.Is(err, utils.ErrRowVersionConflict) {
			utils.Logger.WithError(err).Errorf("Hire reversal failed for shift %s", shiftID)
			return
		}
	}
	utils.Logger.Errorf("Hire reversal for shift %s gave up after %d version conflicts", shiftID, constants.MaxVersionRetries)
}

func (s *ApplicationService) updateApplication(
	ctx context.Context,
	applicationID uuid.UUID,
	mutate func(*models.Application) error,
) (*models.Application, error) {
	return repositories.WithRetry(ctx,
		func(ctx context.Context) (*models.Application, error) {
			return s.appRepo.GetByID(ctx, applicationID)
		},
		func(ctx context.Context, app *models.Application, v int64) (*models.Application, error) {
			return s.appRepo.UpdateAtomic(ctx, app, v)
		},
		mutate,
	)
}
