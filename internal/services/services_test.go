package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/shiftloop/fulfillment-service/internal/config"
	"github.com/shiftloop/fulfillment-service/internal/constants"
	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/repositories"
)

// Soho venue used by most fixtures.
const (
	testVenueLat = 51.5136
	testVenueLng = -0.1340
)

// testEnv wires every service against the in-memory store with a
// controllable clock.
type testEnv struct {
	ctx context.Context

	cfg   *config.Config
	store *repositories.MemoryStore

	shiftRepo  repositories.ShiftRepository
	appRepo    repositories.ApplicationRepository
	availRepo  repositories.AvailabilityRepository
	checkRepo  repositories.CheckInRepository
	workerRepo repositories.WorkerRepository
	venueRepo  repositories.VenueRepository

	availSvc      *AvailabilityService
	shiftSvc      *ShiftService
	appSvc        *ApplicationService
	matchSvc      *MatchService
	attendanceSvc *AttendanceService
	maintSvc      *MaintenanceService

	mu  sync.Mutex
	now time.Time
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		ctx:   context.Background(),
		store: repositories.NewMemoryStore(),
		cfg: &config.Config{
			AppName:              "fulfillment-service-test",
			GeofenceRadiusMeters: constants.DefaultGeofenceRadiusMeters,
			CheckInEarlyWindow:   constants.DefaultCheckInEarlyWindow,
		},
		// A plain Monday-noon anchor, nowhere near a public holiday.
		now: time.Date(2026, 3, 9, 12, 0, 0, 0, time.UTC),
	}

	env.shiftRepo = repositories.NewMemoryShiftRepository(env.store)
	env.appRepo = repositories.NewMemoryApplicationRepository(env.store)
	env.availRepo = repositories.NewMemoryAvailabilityRepository(env.store)
	env.checkRepo = repositories.NewMemoryCheckInRepository(env.store)
	env.workerRepo = repositories.NewMemoryWorkerRepository(env.store)
	env.venueRepo = repositories.NewMemoryVenueRepository(env.store)

	env.availSvc = NewAvailabilityService(env.availRepo, env.timeNow)
	env.shiftSvc = NewShiftService(
		env.cfg, env.shiftRepo, env.appRepo, env.checkRepo, env.venueRepo, env.availSvc, nil, env.timeNow,
	)
	env.appSvc = NewApplicationService(
		env.appRepo, env.shiftRepo, env.workerRepo, env.availSvc, nil, env.timeNow,
	)
	env.matchSvc = NewMatchService(env.workerRepo, env.shiftRepo, env.appRepo, env.availRepo)
	env.attendanceSvc = NewAttendanceService(
		env.cfg, env.checkRepo, env.appRepo, env.shiftRepo, env.workerRepo, nil, env.timeNow,
	)
	env.maintSvc = NewMaintenanceService(
		env.shiftRepo, env.appRepo, env.checkRepo, env.attendanceSvc, env.shiftSvc, env.timeNow,
	)
	return env
}

func (e *testEnv) timeNow() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.now
}

func (e *testEnv) setNow(t time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.now = t
}

func (e *testEnv) newVenue(t *testing.T) *models.Venue {
	t.Helper()
	venue := &models.Venue{
		ID:        uuid.New(),
		Name:      "The Gilded Lion",
		Address:   "12 Dean Street",
		City:      "London",
		Latitude:  testVenueLat,
		Longitude: testVenueLng,
		TimeZone:  "Europe/London",
	}
	require.NoError(t, e.venueRepo.Create(e.ctx, venue))
	return venue
}

func (e *testEnv) newWorker(t *testing.T, skills ...string) *models.Worker {
	t.Helper()
	worker := &models.Worker{
		ID:        uuid.New(),
		FirstName: "Test",
		LastName:  "Worker",
		Email:     "worker@example.com",
		Skills:    skills,
	}
	require.NoError(t, e.workerRepo.Create(e.ctx, worker))
	return worker
}

// newDraftShift posts a 6pm-11pm bartender shift for the next day.
func (e *testEnv) newDraftShift(t *testing.T, venueID uuid.UUID, needed int) *models.Shift {
	t.Helper()
	start := time.Date(2026, 3, 10, 18, 0, 0, 0, time.UTC)
	return e.newDraftShiftAt(t, venueID, start, start.Add(5*time.Hour), needed)
}

func (e *testEnv) newDraftShiftAt(t *testing.T, venueID uuid.UUID, start, end time.Time, needed int) *models.Shift {
	t.Helper()
	shift, err := e.shiftSvc.Create(e.ctx, &models.Shift{
		VenueID:       venueID,
		Role:          "bartender",
		StartTime:     start,
		EndTime:       end,
		Latitude:      testVenueLat,
		Longitude:     testVenueLng,
		HourlyRate:    12.0,
		WorkersNeeded: needed,
	})
	require.NoError(t, err)
	return shift
}

func (e *testEnv) newLiveShift(t *testing.T, venueID uuid.UUID, needed int) *models.Shift {
	t.Helper()
	draft := e.newDraftShift(t, venueID, needed)
	live, err := e.shiftSvc.Publish(e.ctx, draft.ID)
	require.NoError(t, err)
	return live
}

func (e *testEnv) apply(t *testing.T, workerID, shiftID uuid.UUID) *models.Application {
	t.Helper()
	app, err := e.appSvc.Apply(e.ctx, workerID, shiftID, nil)
	require.NoError(t, err)
	return app
}

func (e *testEnv) applyAndHire(t *testing.T, workerID, shiftID uuid.UUID) *models.Application {
	t.Helper()
	app := e.apply(t, workerID, shiftID)
	hired, err := e.appSvc.Hire(e.ctx, app.ID)
	require.NoError(t, err)
	return hired
}

func (e *testEnv) getShift(t *testing.T, shiftID uuid.UUID) *models.Shift {
	t.Helper()
	shift, err := e.shiftRepo.GetByID(e.ctx, shiftID)
	require.NoError(t, err)
	require.NotNil(t, shift)
	return shift
}

func (e *testEnv) getWorker(t *testing.T, workerID uuid.UUID) *models.Worker {
	t.Helper()
	worker, err := e.workerRepo.GetByID(e.ctx, workerID)
	require.NoError(t, err)
	require.NotNil(t, worker)
	return worker
}

func (e *testEnv) getSlot(t *testing.T, workerID uuid.UUID, date time.Time) *models.AvailabilitySlot {
	t.Helper()
	slot, err := e.availRepo.Get(e.ctx, workerID, date)
	require.NoError(t, err)
	return slot
}
