package repositories

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

/*
   MemoryStore backs all repositories with process memory. It is the store
   for local development (no DB_URL configured) and for service-level tests.

   It keeps the same contracts as the Postgres implementations: atomic
   operations run in a critical section keyed by the entity (per shift, per
   (worker, date) slot, per (shift, worker) attendance record), and reads
   return copies so callers always see a stable snapshot.
*/
type MemoryStore struct {
	mu sync.RWMutex

	shifts        map[uuid.UUID]*models.Shift
	applications  map[uuid.UUID]*models.Application
	appByPair     map[string]uuid.UUID
	slots         map[string]*models.AvailabilitySlot
	checkIns      map[uuid.UUID]*models.CheckInRecord
	checkInByPair map[string]uuid.UUID
	workers       map[uuid.UUID]*models.Worker
	venues        map[uuid.UUID]*models.Venue

	keyLocks sync.Map // entity key -> *sync.Mutex
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		shifts:        make(map[uuid.UUID]*models.Shift),
		applications:  make(map[uuid.UUID]*models.Application),
		appByPair:     make(map[string]uuid.UUID),
		slots:         make(map[string]*models.AvailabilitySlot),
		checkIns:      make(map[uuid.UUID]*models.CheckInRecord),
		checkInByPair: make(map[string]uuid.UUID),
		workers:       make(map[uuid.UUID]*models.Worker),
		venues:        make(map[uuid.UUID]*models.Venue),
	}
}

func (m *MemoryStore) lockKey(key string) func() {
	muAny, _ := m.keyLocks.LoadOrStore(key, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func pairKey(a, b uuid.UUID) string {
	return a.String() + "/" + b.String()
}

func slotKey(workerID uuid.UUID, date time.Time) string {
	return workerID.String() + "/" + models.DateOnly(date).Format(models.DateLayout)
}

/*──────────────────────────── copies ────────────────────────────*/

func copyShift(s *models.Shift) *models.Shift {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}

func copyApplication(a *models.Application) *models.Application {
	if a == nil {
		return nil
	}
	cp := *a
	if a.CounterRate != nil {
		cp.CounterRate = utils.Ptr(*a.CounterRate)
	}
	if a.HiredRate != nil {
		cp.HiredRate = utils.Ptr(*a.HiredRate)
	}
	return &cp
}

func copySlot(s *models.AvailabilitySlot) *models.AvailabilitySlot {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Reason != nil {
		cp.Reason = utils.Ptr(*s.Reason)
	}
	if s.LockedBy != nil {
		cp.LockedBy = utils.Ptr(*s.LockedBy)
	}
	return &cp
}

func copyCheckIn(r *models.CheckInRecord) *models.CheckInRecord {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Breaks = make([]models.BreakEntry, len(r.Breaks))
	for i, b := range r.Breaks {
		cp.Breaks[i] = models.BreakEntry{StartAt: b.StartAt}
		if b.EndAt != nil {
			cp.Breaks[i].EndAt = utils.Ptr(*b.EndAt)
		}
	}
	if r.CheckOutAt != nil {
		cp.CheckOutAt = utils.Ptr(*r.CheckOutAt)
	}
	if r.CheckOutLat != nil {
		cp.CheckOutLat = utils.Ptr(*r.CheckOutLat)
	}
	if r.CheckOutLng != nil {
		cp.CheckOutLng = utils.Ptr(*r.CheckOutLng)
	}
	if r.WorkedMinutes != nil {
		cp.WorkedMinutes = utils.Ptr(*r.WorkedMinutes)
	}
	if r.Earnings != nil {
		cp.Earnings = utils.Ptr(*r.Earnings)
	}
	return &cp
}

func copyWorker(w *models.Worker) *models.Worker {
	if w == nil {
		return nil
	}
	cp := *w
	cp.Skills = append([]string(nil), w.Skills...)
	if w.LastAcceptedRate != nil {
		cp.LastAcceptedRate = utils.Ptr(*w.LastAcceptedRate)
	}
	return &cp
}

func copyVenue(v *models.Venue) *models.Venue {
	if v == nil {
		return nil
	}
	cp := *v
	return &cp
}

/*──────────────────────────── shifts ────────────────────────────*/

type memShiftRepo struct{ store *MemoryStore }

func NewMemoryShiftRepository(store *MemoryStore) ShiftRepository {
	return &memShiftRepo{store: store}
}

func (r *memShiftRepo) Create(ctx context.Context, shift *models.Shift) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := copyShift(shift)
	cp.RowVersion = 1
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	m.shifts[cp.ID] = cp
	shift.RowVersion = cp.RowVersion
	return nil
}

func (r *memShiftRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyShift(m.shifts[id]), nil
}

func (r *memShiftRepo) ListByVenueID(ctx context.Context, venueID uuid.UUID) ([]*models.Shift, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Shift
	for _, s := range m.shifts {
		if s.VenueID == venueID {
			out = append(out, copyShift(s))
		}
	}
	sortShifts(out)
	return out, nil
}

func (r *memShiftRepo) ListByStatus(ctx context.Context, statuses ...models.ShiftStatusType) ([]*models.Shift, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Shift
	for _, s := range m.shifts {
		for _, st := range statuses {
			if s.Status == st {
				out = append(out, copyShift(s))
				break
			}
		}
	}
	sortShifts(out)
	return out, nil
}

func (r *memShiftRepo) ListOpenInRange(ctx context.Context, start, end time.Time) ([]*models.Shift, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Shift
	for _, s := range m.shifts {
		if s.Status == models.ShiftStatusLive && !s.StartTime.Before(start) && s.StartTime.Before(end) {
			out = append(out, copyShift(s))
		}
	}
	sortShifts(out)
	return out, nil
}

func sortShifts(shifts []*models.Shift) {
	sort.Slice(shifts, func(i, j int) bool {
		if shifts[i].StartTime.Equal(shifts[j].StartTime) {
			return shifts[i].ID.String() < shifts[j].ID.String()
		}
		return shifts[i].StartTime.Before(shifts[j].StartTime)
	})
}

func (r *memShiftRepo) RecordHireAtomic(ctx context.Context, shiftID uuid.UUID, expectedVersion int64) (*models.Shift, error) {
	unlock := r.store.lockKey("shift/" + shiftID.String())
	defer unlock()

	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.shifts[shiftID]
	if s == nil {
		return nil, utils.ErrNotFound
	}
	if s.RowVersion != expectedVersion {
		return copyShift(s), utils.ErrRowVersionConflict
	}
	if s.WorkersHired >= s.WorkersNeeded {
		return copyShift(s), utils.ErrCapacityExceeded
	}

	s.WorkersHired++
	if s.WorkersHired == s.WorkersNeeded && s.Status == models.ShiftStatusLive {
		s.Status = models.ShiftStatusFilled
	}
	s.RowVersion++
	s.UpdatedAt = time.Now().UTC()
	return copyShift(s), nil
}

func (r *memShiftRepo) RecordHireReversalAtomic(ctx context.Context, shiftID uuid.UUID, expectedVersion int64) (*models.Shift, error) {
	unlock := r.store.lockKey("shift/" + shiftID.String())
	defer unlock()

	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.shifts[shiftID]
	if s == nil {
		return nil, utils.ErrNotFound
	}
	if s.RowVersion != expectedVersion {
		return copyShift(s), utils.ErrRowVersionConflict
	}
	if s.WorkersHired <= 0 {
		return copyShift(s), utils.ErrNoRowsUpdated
	}

	s.WorkersHired--
	if s.Status == models.ShiftStatusFilled {
		s.Status = models.ShiftStatusLive
	}
	s.RowVersion++
	s.UpdatedAt = time.Now().UTC()
	return copyShift(s), nil
}

func (r *memShiftRepo) UpdateStatusAtomic(ctx context.Context, shiftID uuid.UUID, newStatus models.ShiftStatusType, expectedVersion int64) (*models.Shift, error) {
	unlock := r.store.lockKey("shift/" + shiftID.String())
	defer unlock()

	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.shifts[shiftID]
	if s == nil {
		return nil, utils.ErrNotFound
	}
	if s.RowVersion != expectedVersion {
		return copyShift(s), utils.ErrRowVersionConflict
	}

	s.Status = newStatus
	s.RowVersion++
	s.UpdatedAt = time.Now().UTC()
	return copyShift(s), nil
}

func (r *memShiftRepo) SetBoosted(ctx context.Context, shiftID uuid.UUID, boosted bool) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	s := m.shifts[shiftID]
	if s == nil {
		return utils.ErrNotFound
	}
	s.Boosted = boosted
	s.UpdatedAt = time.Now().UTC()
	return nil
}

/*───────────────────────── applications ─────────────────────────*/

type memApplicationRepo struct{ store *MemoryStore }

func NewMemoryApplicationRepository(store *MemoryStore) ApplicationRepository {
	return &memApplicationRepo{store: store}
}

func (r *memApplicationRepo) Create(ctx context.Context, app *models.Application) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	key := pairKey(app.ShiftID, app.WorkerID)
	if _, exists := m.appByPair[key]; exists {
		return utils.ErrDuplicateApplication
	}
	cp := copyApplication(app)
	cp.RowVersion = 1
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	m.applications[cp.ID] = cp
	m.appByPair[key] = cp.ID
	app.RowVersion = cp.RowVersion
	return nil
}

func (r *memApplicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyApplication(m.applications[id]), nil
}

func (r *memApplicationRepo) GetByShiftAndWorker(ctx context.Context, shiftID, workerID uuid.UUID) (*models.Application, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.appByPair[pairKey(shiftID, workerID)]
	if !ok {
		return nil, nil
	}
	return copyApplication(m.applications[id]), nil
}

func (r *memApplicationRepo) ListByShiftID(ctx context.Context, shiftID uuid.UUID) ([]*models.Application, error) {
	return r.list(func(a *models.Application) bool { return a.ShiftID == shiftID })
}

func (r *memApplicationRepo) ListByWorkerID(ctx context.Context, workerID uuid.UUID) ([]*models.Application, error) {
	return r.list(func(a *models.Application) bool { return a.WorkerID == workerID })
}

func (r *memApplicationRepo) ListCommittedByWorker(ctx context.Context, workerID uuid.UUID) ([]*models.Application, error) {
	return r.list(func(a *models.Application) bool {
		return a.WorkerID == workerID && a.IsCommitted()
	})
}

func (r *memApplicationRepo) list(keep func(*models.Application) bool) ([]*models.Application, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Application
	for _, a := range m.applications {
		if keep(a) {
			out = append(out, copyApplication(a))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memApplicationRepo) UpdateAtomic(ctx context.Context, app *models.Application, expectedVersion int64) (*models.Application, error) {
	unlock := r.store.lockKey("application/" + app.ID.String())
	defer unlock()

	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.applications[app.ID]
	if current == nil {
		return nil, utils.ErrNotFound
	}
	if current.RowVersion != expectedVersion {
		return copyApplication(current), utils.ErrRowVersionConflict
	}

	current.Status = app.Status
	current.OfferedRate = app.OfferedRate
	current.CounterRate = nil
	if app.CounterRate != nil {
		current.CounterRate = utils.Ptr(*app.CounterRate)
	}
	current.HiredRate = nil
	if app.HiredRate != nil {
		current.HiredRate = utils.Ptr(*app.HiredRate)
	}
	current.RowVersion++
	current.UpdatedAt = time.Now().UTC()
	return copyApplication(current), nil
}

/*───────────────────────── availability ─────────────────────────*/

type memAvailabilityRepo struct{ store *MemoryStore }

func NewMemoryAvailabilityRepository(store *MemoryStore) AvailabilityRepository {
	return &memAvailabilityRepo{store: store}
}

func (r *memAvailabilityRepo) Get(ctx context.Context, workerID uuid.UUID, date time.Time) (*models.AvailabilitySlot, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copySlot(m.slots[slotKey(workerID, date)]), nil
}

func (r *memAvailabilityRepo) ListByWorkerRange(ctx context.Context, workerID uuid.UUID, start, end time.Time) ([]*models.AvailabilitySlot, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	s0, e0 := models.DateOnly(start), models.DateOnly(end)
	var out []*models.AvailabilitySlot
	for _, s := range m.slots {
		if s.WorkerID != workerID {
			continue
		}
		if s.Date.Before(s0) || s.Date.After(e0) {
			continue
		}
		out = append(out, copySlot(s))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

func (r *memAvailabilityRepo) UpsertIfUnlocked(ctx context.Context, slot *models.AvailabilitySlot) error {
	key := slotKey(slot.WorkerID, slot.Date)
	unlock := r.store.lockKey("slot/" + key)
	defer unlock()

	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.slots[key]
	if existing != nil && existing.IsLocked() {
		return utils.ErrDateLocked
	}
	cp := copySlot(slot)
	cp.Date = models.DateOnly(slot.Date)
	cp.LockedBy = nil
	if existing != nil {
		cp.RowVersion = existing.RowVersion + 1
	} else {
		cp.RowVersion = 1
	}
	cp.UpdatedAt = time.Now().UTC()
	m.slots[key] = cp
	return nil
}

func (r *memAvailabilityRepo) Lock(ctx context.Context, workerID uuid.UUID, date time.Time, shiftID uuid.UUID) error {
	key := slotKey(workerID, date)
	unlock := r.store.lockKey("slot/" + key)
	defer unlock()

	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.slots[key]
	if existing != nil {
		if existing.IsLocked() {
			return utils.ErrDateLocked
		}
		existing.LockedBy = utils.Ptr(shiftID)
		existing.RowVersion++
		existing.UpdatedAt = time.Now().UTC()
		return nil
	}
	m.slots[key] = &models.AvailabilitySlot{
		Versioned:   models.Versioned{RowVersion: 1},
		WorkerID:    workerID,
		Date:        models.DateOnly(date),
		IsAvailable: true,
		LockedBy:    utils.Ptr(shiftID),
		UpdatedAt:   time.Now().UTC(),
	}
	return nil
}

func (r *memAvailabilityRepo) Unlock(ctx context.Context, workerID uuid.UUID, date time.Time) error {
	key := slotKey(workerID, date)
	unlock := r.store.lockKey("slot/" + key)
	defer unlock()

	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	existing := m.slots[key]
	if existing == nil {
		return nil
	}
	existing.LockedBy = nil
	existing.RowVersion++
	existing.UpdatedAt = time.Now().UTC()
	return nil
}

/*────────────────────────── check-ins ──────────────────────────*/

type memCheckInRepo struct{ store *MemoryStore }

func NewMemoryCheckInRepository(store *MemoryStore) CheckInRepository {
	return &memCheckInRepo{store: store}
}

func (r *memCheckInRepo) CreateIfNotExists(ctx context.Context, rec *models.CheckInRecord) error {
	key := pairKey(rec.ShiftID, rec.WorkerID)
	unlock := r.store.lockKey("checkin/" + key)
	defer unlock()

	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.checkInByPair[key]; exists {
		return utils.ErrAlreadyCheckedIn
	}
	cp := copyCheckIn(rec)
	cp.RowVersion = 1
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	m.checkIns[cp.ID] = cp
	m.checkInByPair[key] = cp.ID
	rec.RowVersion = cp.RowVersion
	return nil
}

func (r *memCheckInRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CheckInRecord, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyCheckIn(m.checkIns[id]), nil
}

func (r *memCheckInRepo) GetByShiftAndWorker(ctx context.Context, shiftID, workerID uuid.UUID) (*models.CheckInRecord, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.checkInByPair[pairKey(shiftID, workerID)]
	if !ok {
		return nil, nil
	}
	return copyCheckIn(m.checkIns[id]), nil
}

func (r *memCheckInRepo) ListByShiftID(ctx context.Context, shiftID uuid.UUID) ([]*models.CheckInRecord, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.CheckInRecord
	for _, rec := range m.checkIns {
		if rec.ShiftID == shiftID {
			out = append(out, copyCheckIn(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CheckInAt.Before(out[j].CheckInAt) })
	return out, nil
}

func (r *memCheckInRepo) UpdateAtomic(ctx context.Context, rec *models.CheckInRecord, expectedVersion int64) (*models.CheckInRecord, error) {
	unlock := r.store.lockKey("checkin/" + pairKey(rec.ShiftID, rec.WorkerID))
	defer unlock()

	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	current := m.checkIns[rec.ID]
	if current == nil {
		return nil, utils.ErrNotFound
	}
	if current.RowVersion != expectedVersion {
		return copyCheckIn(current), utils.ErrRowVersionConflict
	}

	updated := copyCheckIn(rec)
	updated.RowVersion = current.RowVersion + 1
	updated.CreatedAt = current.CreatedAt
	updated.UpdatedAt = time.Now().UTC()
	m.checkIns[rec.ID] = updated
	return copyCheckIn(updated), nil
}

/*──────────────────────────── workers ───────────────────────────*/

type memWorkerRepo struct{ store *MemoryStore }

func NewMemoryWorkerRepository(store *MemoryStore) WorkerRepository {
	return &memWorkerRepo{store: store}
}

func (r *memWorkerRepo) Create(ctx context.Context, worker *models.Worker) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := copyWorker(worker)
	cp.RowVersion = 1
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	m.workers[cp.ID] = cp
	worker.RowVersion = cp.RowVersion
	return nil
}

func (r *memWorkerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Worker, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyWorker(m.workers[id]), nil
}

func (r *memWorkerRepo) ListAll(ctx context.Context) ([]*models.Worker, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Worker
	for _, w := range m.workers {
		out = append(out, copyWorker(w))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *memWorkerRepo) HasCompletedAtVenue(ctx context.Context, workerID, venueID uuid.UUID) (bool, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, rec := range m.checkIns {
		if rec.WorkerID != workerID || rec.CheckOutAt == nil || rec.NoShow {
			continue
		}
		s := m.shifts[rec.ShiftID]
		if s != nil && s.VenueID == venueID && s.Status == models.ShiftStatusCompleted {
			return true, nil
		}
	}
	return false, nil
}

func (r *memWorkerRepo) AdjustHistoryAtomic(ctx context.Context, workerID uuid.UUID, completedDelta, noShowDelta, cancelDelta int, reason string) error {
	unlock := r.store.lockKey("worker/" + workerID.String())
	defer unlock()

	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.workers[workerID]
	if w == nil {
		return utils.ErrNotFound
	}
	w.CompletedShiftCount += completedDelta
	w.NoShowCount += noShowDelta
	w.CancellationCount += cancelDelta
	w.RowVersion++
	w.UpdatedAt = time.Now().UTC()
	utils.Logger.Infof("Adjusted history for worker=%s (completed %+d, no-show %+d, cancel %+d): %s",
		workerID, completedDelta, noShowDelta, cancelDelta, reason)
	return nil
}

func (r *memWorkerRepo) RecordOfferOutcome(ctx context.Context, workerID uuid.UUID, accepted bool, rate *float64) error {
	unlock := r.store.lockKey("worker/" + workerID.String())
	defer unlock()

	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()

	w := m.workers[workerID]
	if w == nil {
		return utils.ErrNotFound
	}
	w.OffersReceived++
	if accepted {
		w.OffersAccepted++
		if rate != nil {
			w.LastAcceptedRate = utils.Ptr(*rate)
		}
	}
	w.RowVersion++
	w.UpdatedAt = time.Now().UTC()
	return nil
}

/*──────────────────────────── venues ────────────────────────────*/

type memVenueRepo struct{ store *MemoryStore }

func NewMemoryVenueRepository(store *MemoryStore) VenueRepository {
	return &memVenueRepo{store: store}
}

func (r *memVenueRepo) Create(ctx context.Context, venue *models.Venue) error {
	m := r.store
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := copyVenue(venue)
	cp.RowVersion = 1
	cp.CreatedAt = time.Now().UTC()
	cp.UpdatedAt = cp.CreatedAt
	m.venues[cp.ID] = cp
	venue.RowVersion = cp.RowVersion
	return nil
}

func (r *memVenueRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	return copyVenue(m.venues[id]), nil
}

func (r *memVenueRepo) ListAll(ctx context.Context) ([]*models.Venue, error) {
	m := r.store
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*models.Venue
	for _, v := range m.venues {
		out = append(out, copyVenue(v))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}
