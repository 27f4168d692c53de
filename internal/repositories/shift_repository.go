package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

type ShiftRepository interface {
	Create(ctx context.Context, shift *models.Shift) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Shift, error)
	ListByVenueID(ctx context.Context, venueID uuid.UUID) ([]*models.Shift, error)
	ListByStatus(ctx context.Context, statuses ...models.ShiftStatusType) ([]*models.Shift, error)
	ListOpenInRange(ctx context.Context, start, end time.Time) ([]*models.Shift, error)

	// RecordHireAtomic increments WorkersHired and flips LIVE→FILLED when the
	// increment reaches WorkersNeeded, all in one critical section keyed by
	// the shift row. Returns ErrCapacityExceeded when already at capacity and
	// ErrRowVersionConflict on a concurrent update.
	RecordHireAtomic(ctx context.Context, shiftID uuid.UUID, expectedVersion int64) (*models.Shift, error)

	// RecordHireReversalAtomic decrements WorkersHired and reverts
	// FILLED→LIVE in the same critical section.
	RecordHireReversalAtomic(ctx context.Context, shiftID uuid.UUID, expectedVersion int64) (*models.Shift, error)

	UpdateStatusAtomic(ctx context.Context, shiftID uuid.UUID, newStatus models.ShiftStatusType, expectedVersion int64) (*models.Shift, error)
	SetBoosted(ctx context.Context, shiftID uuid.UUID, boosted bool) error
}

type shiftRepo struct {
	db DB
}

func NewShiftRepository(db DB) ShiftRepository {
	return &shiftRepo{db: db}
}

func baseSelectShift() string {
	return `
        SELECT
            id, venue_id, role, start_time, end_time,
            latitude, longitude, hourly_rate,
            workers_needed, workers_hired, status, boosted,
            row_version, created_at, updated_at
        FROM shifts
    `
}

func scanShift(row pgx.Row) (*models.Shift, error) {
	var s models.Shift
	err := row.Scan(
		&s.ID,
		&s.VenueID,
		&s.Role,
		&s.StartTime,
		&s.EndTime,
		&s.Latitude,
		&s.Longitude,
		&s.HourlyRate,
		&s.WorkersNeeded,
		&s.WorkersHired,
		&s.Status,
		&s.Boosted,
		&s.RowVersion,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *shiftRepo) Create(ctx context.Context, shift *models.Shift) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO shifts (
            id, venue_id, role, start_time, end_time,
            latitude, longitude, hourly_rate,
            workers_needed, workers_hired, status, boosted,
            row_version, created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,0,$10,$11,1,NOW(),NOW()
        )
    `,
		shift.ID,
		shift.VenueID,
		shift.Role,
		shift.StartTime,
		shift.EndTime,
		shift.Latitude,
		shift.Longitude,
		shift.HourlyRate,
		shift.WorkersNeeded,
		shift.Status,
		shift.Boosted,
	)
	return err
}

func (r *shiftRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Shift, error) {
	row := r.db.QueryRow(ctx, baseSelectShift()+" WHERE id=$1", id)
	return scanShift(row)
}

func (r *shiftRepo) ListByVenueID(ctx context.Context, venueID uuid.UUID) ([]*models.Shift, error) {
	rows, err := r.db.Query(ctx, baseSelectShift()+" WHERE venue_id=$1 ORDER BY start_time", venueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectShifts(rows)
}

func (r *shiftRepo) ListByStatus(ctx context.Context, statuses ...models.ShiftStatusType) ([]*models.Shift, error) {
	stStrings := make([]string, 0, len(statuses))
	for _, st := range statuses {
		stStrings = append(stStrings, string(st))
	}
	rows, err := r.db.Query(ctx, baseSelectShift()+" WHERE status = ANY($1) ORDER BY start_time", stStrings)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectShifts(rows)
}

func (r *shiftRepo) ListOpenInRange(ctx context.Context, start, end time.Time) ([]*models.Shift, error) {
	rows, err := r.db.Query(ctx, baseSelectShift()+`
        WHERE status='LIVE' AND start_time >= $1 AND start_time < $2
        ORDER BY start_time
    `, start, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectShifts(rows)
}

func collectShifts(rows pgx.Rows) ([]*models.Shift, error) {
	var out []*models.Shift
	for rows.Next() {
		s, err := scanShift(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *shiftRepo) RecordHireAtomic(
	ctx context.Context,
	shiftID uuid.UUID,
	expectedVersion int64,
) (*models.Shift, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx, baseSelectShift()+" WHERE id=$1 FOR UPDATE", shiftID)
	s, err := scanShift(row)
	if err != nil {
		return nil, err
	}
	if s == nil {
		err = utils.ErrNotFound
		return nil, err
	}
	if s.RowVersion != expectedVersion {
		err = utils.ErrRowVersionConflict
		return s, err
	}
	if s.WorkersHired >= s.WorkersNeeded {
		err = utils.ErrCapacityExceeded
		return s, err
	}

	newStatus := s.Status
	if s.WorkersHired+1 == s.WorkersNeeded && s.Status == models.ShiftStatusLive {
		newStatus = models.ShiftStatusFilled
	}

	_, err = tx.Exec(ctx, `
        UPDATE shifts
        SET workers_hired=workers_hired+1, status=$1,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$2
    `, newStatus, shiftID)
	if err != nil {
		return nil, err
	}

	newRow := tx.QueryRow(ctx, baseSelectShift()+" WHERE id=$1", shiftID)
	return scanShift(newRow)
}

func (r *shiftRepo) RecordHireReversalAtomic(
	ctx context.Context,
	shiftID uuid.UUID,
	expectedVersion int64,
) (*models.Shift, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx, baseSelectShift()+" WHERE id=$1 FOR UPDATE", shiftID)
	s, err := scanShift(row)
	if err != nil {
		return nil, err
	}
	if s == nil {
		err = utils.ErrNotFound
		return nil, err
	}
	if s.RowVersion != expectedVersion {
		err = utils.ErrRowVersionConflict
		return s, err
	}
	if s.WorkersHired <= 0 {
		err = utils.ErrNoRowsUpdated
		return s, err
	}

	newStatus := s.Status
	if s.Status == models.ShiftStatusFilled {
		newStatus = models.ShiftStatusLive
	}

	_, err = tx.Exec(ctx, `
        UPDATE shifts
        SET workers_hired=workers_hired-1, status=$1,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$2
    `, newStatus, shiftID)
	if err != nil {
		return nil, err
	}

	newRow := tx.QueryRow(ctx, baseSelectShift()+" WHERE id=$1", shiftID)
	return scanShift(newRow)
}

func (r *shiftRepo) UpdateStatusAtomic(
	ctx context.Context,
	shiftID uuid.UUID,
	newStatus models.ShiftStatusType,
	expectedVersion int64,
) (*models.Shift, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		} else {
			_ = tx.Commit(ctx)
		}
	}()

	row := tx.QueryRow(ctx, baseSelectShift()+" WHERE id=$1 FOR UPDATE", shiftID)
	s, err := scanShift(row)
	if err != nil {
		return nil, err
	}
	if s == nil {
		err = utils.ErrNotFound
		return nil, err
	}
	if s.RowVersion != expectedVersion {
		err = utils.ErrRowVersionConflict
		return s, err
	}

	_, err = tx.Exec(ctx, `
        UPDATE shifts
        SET status=$1, row_version=row_version+1, updated_at=NOW()
        WHERE id=$2
    `, newStatus, shiftID)
	if err != nil {
		return nil, err
	}

	newRow := tx.QueryRow(ctx, baseSelectShift()+" WHERE id=$1", shiftID)
	return scanShift(newRow)
}

func (r *shiftRepo) SetBoosted(ctx context.Context, shiftID uuid.UUID, boosted bool) error {
	_, err := r.db.Exec(ctx, `
        UPDATE shifts SET boosted=$1, updated_at=NOW() WHERE id=$2
    `, boosted, shiftID)
	return err
}
