package services

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/shiftloop/fulfillment-service/internal/config"
	"github.com/shiftloop/fulfillment-service/internal/constants"
	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/repositories"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

/*
   ShiftService owns the shift state machine:

       DRAFT → LIVE → FILLED → IN_PROGRESS → COMPLETED
       CANCELLED reachable from DRAFT/LIVE/FILLED (any non-terminal state)

   Capacity changes go through the repository's atomic hire operations and
   never through this service directly; see ApplicationService.Hire.
*/
type ShiftService struct {
	cfg        *config.Config
	shiftRepo  repositories.ShiftRepository
	appRepo    repositories.ApplicationRepository
	checkRepo  repositories.CheckInRepository
	venueRepo  repositories.VenueRepository
	availSvc   *AvailabilityService
	dispatcher EventDispatcher
	nowFn      func() time.Time
}

func NewShiftService(
	cfg *config.Config,
	shiftRepo repositories.ShiftRepository,
	appRepo repositories.ApplicationRepository,
	checkRepo repositories.CheckInRepository,
	venueRepo repositories.VenueRepository,
	availSvc *AvailabilityService,
	dispatcher EventDispatcher,
	nowFn func() time.Time,
) *ShiftService {
	if nowFn == nil {
		nowFn = time.Now
	}
	if dispatcher == nil {
		dispatcher = &LogEventDispatcher{}
	}
	return &ShiftService{
		cfg:        cfg,
		shiftRepo:  shiftRepo,
		appRepo:    appRepo,
		checkRepo:  checkRepo,
		venueRepo:  venueRepo,
		availSvc:   availSvc,
		dispatcher: dispatcher,
		nowFn:      nowFn,
	}
}

func (s *ShiftService) Create(ctx context.Context, shift *models.Shift) (*models.Shift, error) {
	if !shift.EndTime.After(shift.StartTime) {
		return nil, utils.ErrInvalidPayload
	}
	if shift.HourlyRate <= 0 || shift.WorkersNeeded < 1 {
		return nil, utils.ErrInvalidPayload
	}
	if venue, err := s.venueRepo.GetByID(ctx, shift.VenueID); err != nil {
		return nil, err
	} else if venue == nil {
		return nil, utils.ErrNotFound
	}

	if shift.ID == uuid.Nil {
		shift.ID = uuid.New()
	}
	shift.Status = models.ShiftStatusDraft
	shift.WorkersHired = 0
	if err := s.shiftRepo.Create(ctx, shift); err != nil {
		return nil, err
	}
	return shift, nil
}

func (s *ShiftService) GetByID(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	shift, err := s.shiftRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if shift == nil {
		return nil, utils.ErrNotFound
	}
	return shift, nil
}

func (s *ShiftService) ListForVenue(ctx context.Context, venueID uuid.UUID) ([]*models.Shift, error) {
	return s.shiftRepo.ListByVenueID(ctx, venueID)
}

// Publish moves DRAFT → LIVE and opens the shift to applications. Shifts
// starting on a public holiday are flagged boosted so listings can surface
// them more aggressively.
func (s *ShiftService) Publish(ctx context.Context, shiftID uuid.UUID) (*models.Shift, error) {
	updated, err := s.transition(ctx, shiftID, models.ShiftStatusLive, func(shift *models.Shift) error {
		if shift.Status != models.ShiftStatusDraft {
			return utils.ErrInvalidState
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if utils.IsPublicHoliday(updated.ServiceDate()) {
		if err := s.shiftRepo.SetBoosted(ctx, updated.ID, true); err != nil {
			utils.Logger.WithError(err).Warnf("Failed to boost holiday shift %s", updated.ID)
		} else {
			updated.Boosted = true
		}
	}

	s.dispatcher.Dispatch(ctx, Event{
		Type: EventShiftPublished, ShiftID: updated.ID, OccurredAt: s.nowFn().UTC(),
	})
	return updated, nil
}

// Begin moves FILLED → IN_PROGRESS, permitted only at or after the start
// time. Attendance check-in also triggers this implicitly.
func (s *ShiftService) Begin(ctx context.Context, shiftID uuid.UUID) (*models.Shift, error) {
	now := s.nowFn()
	updated, err := s.transition(ctx, shiftID, models.ShiftStatusInProgress, func(shift *models.Shift) error {
		if shift.Status != models.ShiftStatusFilled {
			return utils.ErrInvalidState
		}
		if now.Before(shift.StartTime) {
			return utils.ErrTooEarly
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.dispatcher.Dispatch(ctx, Event{
		Type: EventShiftInProgress, ShiftID: updated.ID, OccurredAt: now.UTC(),
	})
	return updated, nil
}

// Complete moves IN_PROGRESS → COMPLETED once every hired worker has either
// checked out or been marked a no-show, then releases the hired workers'
// availability locks for the day.
func (s *ShiftService) Complete(ctx context.Context, shiftID uuid.UUID) (*models.Shift, error) {
	hired, err := s.hiredApplications(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	for _, app := range hired {
		rec, err := s.checkRepo.GetByShiftAndWorker(ctx, shiftID, app.WorkerID)
		if err != nil {
			return nil, err
		}
		if rec == nil || (!rec.IsClosed() && !rec.NoShow) {
			return nil, utils.ErrInvalidState
		}
	}

	updated, err := s.transition(ctx, shiftID, models.ShiftStatusCompleted, func(shift *models.Shift) error {
		if shift.Status != models.ShiftStatusInProgress {
			return utils.ErrInvalidState
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, app := range hired {
		if err := s.availSvc.Unlock(ctx, app.WorkerID, updated.ServiceDate()); err != nil {
			utils.Logger.WithError(err).Warnf("Failed to unlock availability for worker %s after shift %s completed",
				app.WorkerID, shiftID)
		}
	}

	s.dispatcher.Dispatch(ctx, Event{
		Type: EventShiftCompleted, ShiftID: updated.ID, OccurredAt: s.nowFn().UTC(),
	})
	return updated, nil
}

// Cancel moves any non-terminal shift to CANCELLED, closes all committed
// applications and releases their availability locks. Reversing the hires
// one by one is unnecessary since the shift itself is leaving play.
func (s *ShiftService) Cancel(ctx context.Context, shiftID uuid.UUID) (*models.Shift, error) {
	updated, err := s.transition(ctx, shiftID, models.ShiftStatusCancelled, func(shift *models.Shift) error {
		if shift.IsTerminal() {
			return utils.ErrInvalidState
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	apps, err := s.appRepo.ListByShiftID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	now := s.nowFn().UTC()
	for _, app := range apps {
		if !app.IsCommitted() {
			continue
		}
		_, uErr := repositories.WithRetry(ctx,
			func(ctx context.Context) (*models.Application, error) {
				return s.appRepo.GetByID(ctx, app.ID)
			},
			func(ctx context.Context, a *models.Application, v int64) (*models.Application, error) {
				return s.appRepo.UpdateAtomic(ctx, a, v)
			},
			func(a *models.Application) error {
				if a.IsTerminal() && a.Status != models.ApplicationStatusHired {
					return nil
				}
				a.Status = models.ApplicationStatusRejected
				return nil
			},
		)
		if uErr != nil {
			utils.Logger.WithError(uErr).Errorf("Failed to close application %s on cancel of shift %s", app.ID, shiftID)
			continue
		}
		if err := s.availSvc.Unlock(ctx, app.WorkerID, updated.ServiceDate()); err != nil {
			utils.Logger.WithError(err).Warnf("Failed to unlock availability for worker %s on cancel of shift %s",
				app.WorkerID, shiftID)
		}
		s.dispatcher.Dispatch(ctx, Event{
			Type: EventShiftCancelled, ShiftID: shiftID, WorkerID: utils.Ptr(app.WorkerID), OccurredAt: now,
		})
	}

	return updated, nil
}

func (s *ShiftService) hiredApplications(ctx context.Context, shiftID uuid.UUID) ([]*models.Application, error) {
	apps, err := s.appRepo.ListByShiftID(ctx, shiftID)
	if err != nil {
		return nil, err
	}
	var hired []*models.Application
	for _, app := range apps {
		if app.Status == models.ApplicationStatusHired {
			hired = append(hired, app)
		}
	}
	return hired, nil
}

// transition runs an optimistic-lock status update. The check func rejects
// the transition with a domain error without retrying; only version
// conflicts loop.
func (s *ShiftService) transition(
	ctx context.Context,
	shiftID uuid.UUID,
	newStatus models.ShiftStatusType,
	check func(*models.Shift) error,
) (*models.Shift, error) {
	return repositories.WithRetry(ctx,
		func(ctx context.Context) (*models.Shift, error) {
			return s.shiftRepo.GetByID(ctx, shiftID)
		},
		func(ctx context.Context, shift *models.Shift, v int64) (*models.Shift, error) {
			return s.shiftRepo.UpdateStatusAtomic(ctx, shift.ID, shift.Status, v)
		},
		func(shift *models.Shift) error {
			if err := check(shift); err != nil {
				return err
			}
			shift.Status = newStatus
			return nil
		},
	)
}

// OpenShiftListing is one LIVE shift decorated with travel figures for the
// browsing worker.
type OpenShiftListing struct {
	Shift         *models.Shift `json:"shift"`
	DistanceMiles float64       `json:"distance_miles"`
	TravelMinutes *int          `json:"travel_minutes,omitempty"`
}

// ListOpenNearby returns LIVE shifts starting within the window, filtered to
// the listing radius around the worker's coordinate and decorated with a
// drive estimate. Boosted shifts sort before the rest; within each band the
// nearest shift wins.
func (s *ShiftService) ListOpenNearby(
	ctx context.Context,
	lat, lng float64,
	windowDays int,
) ([]*OpenShiftListing, error) {
	if windowDays <= 0 {
		windowDays = 14
	}
	now := s.nowFn().UTC()
	shifts, err := s.shiftRepo.ListOpenInRange(ctx, now, now.AddDate(0, 0, windowDays))
	if err != nil {
		return nil, err
	}

	var out []*OpenShiftListing
	for _, shift := range shifts {
		crowFlies := utils.DistanceMiles(lat, lng, shift.Latitude, shift.Longitude)
		if crowFlies > constants.ListingRadiusMiles {
			continue
		}
		listing := &OpenShiftListing{Shift: shift, DistanceMiles: crowFlies}
		miles, minutes, tErr := utils.ComputeTravelEstimate(lat, lng, shift.Latitude, shift.Longitude, s.cfg.GMapsRoutesAPIKey)
		if tErr == nil {
			listing.DistanceMiles = miles
			listing.TravelMinutes = utils.Ptr(minutes)
		}
		out = append(out, listing)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Shift.Boosted != b.Shift.Boosted {
			return a.Shift.Boosted
		}
		if a.DistanceMiles != b.DistanceMiles {
			return a.DistanceMiles < b.DistanceMiles
		}
		return a.Shift.StartTime.Before(b.Shift.StartTime)
	})
	return out, nil
}
