package repositories

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

type AvailabilityRepository interface {
	// Get returns the slot for (worker, date), nil when absent (absent means
	// available by default).
	Get(ctx context.Context, workerID uuid.UUID, date time.Time) (*models.AvailabilitySlot, error)
	ListByWorkerRange(ctx context.Context, workerID uuid.UUID, start, end time.Time) ([]*models.AvailabilitySlot, error)

	// UpsertIfUnlocked writes the worker-requested value; ErrDateLocked when
	// the existing slot carries a lock.
	UpsertIfUnlocked(ctx context.Context, slot *models.AvailabilitySlot) error

	// Lock reserves the day for a hiring shift, creating the slot if absent.
	// ErrDateLocked when another shift already holds the lock.
	Lock(ctx context.Context, workerID uuid.UUID, date time.Time, shiftID uuid.UUID) error
	Unlock(ctx context.Context, workerID uuid.UUID, date time.Time) error
}

type availabilityRepo struct {
	db DB
}

func NewAvailabilityRepository(db DB) AvailabilityRepository {
	return &availabilityRepo{db: db}
}

func baseSelectSlot() string {
	return `
        SELECT
            worker_id, date, is_available, reason, locked_by,
            row_version, updated_at
        FROM availability_slots
    `
}

func scanSlot(row pgx.Row) (*models.AvailabilitySlot, error) {
	var s models.AvailabilitySlot
	err := row.Scan(
		&s.WorkerID,
		&s.Date,
		&s.IsAvailable,
		&s.Reason,
		&s.LockedBy,
		&s.RowVersion,
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

func (r *availabilityRepo) Get(ctx context.Context, workerID uuid.UUID, date time.Time) (*models.AvailabilitySlot, error) {
	row := r.db.QueryRow(ctx, baseSelectSlot()+" WHERE worker_id=$1 AND date=$2",
		workerID, models.DateOnly(date).Format(models.DateLayout))
	return scanSlot(row)
}

func (r *availabilityRepo) ListByWorkerRange(ctx context.Context, workerID uuid.UUID, start, end time.Time) ([]*models.AvailabilitySlot, error) {
	rows, err := r.db.Query(ctx, baseSelectSlot()+`
        WHERE worker_id=$1 AND date >= $2 AND date <= $3
        ORDER BY date
    `, workerID, models.DateOnly(start).Format(models.DateLayout), models.DateOnly(end).Format(models.DateLayout))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.AvailabilitySlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *availabilityRepo) UpsertIfUnlocked(ctx context.Context, slot *models.AvailabilitySlot) error {
	tag, err := r.db.Exec(ctx, `
        INSERT INTO availability_slots (
            worker_id, date, is_available, reason, locked_by,
            row_version, updated_at
        ) VALUES ($1,$2,$3,$4,NULL,1,NOW())
        ON CONFLICT (worker_id, date) DO UPDATE
        SET is_available=EXCLUDED.is_available,
            reason=EXCLUDED.reason,
            row_version=availability_slots.row_version+1,
            updated_at=NOW()
        WHERE availability_slots.locked_by IS NULL
    `,
		slot.WorkerID,
		models.DateOnly(slot.Date).Format(models.DateLayout),
		slot.IsAvailable,
		slot.Reason,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrDateLocked
	}
	return nil
}

func (r *availabilityRepo) Lock(ctx context.Context, workerID uuid.UUID, date time.Time, shiftID uuid.UUID) error {
	tag, err := r.db.Exec(ctx, `
        INSERT INTO availability_slots (
            worker_id, date, is_available, reason, locked_by,
            row_version, updated_at
        ) VALUES ($1,$2,TRUE,NULL,$3,1,NOW())
        ON CONFLICT (worker_id, date) DO UPDATE
        SET locked_by=EXCLUDED.locked_by,
            row_version=availability_slots.row_version+1,
            updated_at=NOW()
        WHERE availability_slots.locked_by IS NULL
    `, workerID, models.DateOnly(date).Format(models.DateLayout), shiftID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrDateLocked
	}
	return nil
}

func (r *availabilityRepo) Unlock(ctx context.Context, workerID uuid.UUID, date time.Time) error {
	_, err := r.db.Exec(ctx, `
        UPDATE availability_slots
        SET locked_by=NULL, row_version=row_version+1, updated_at=NOW()
        WHERE worker_id=$1 AND date=$2
    `, workerID, models.DateOnly(date).Format(models.DateLayout))
	return err
}
