package repositories

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

type CheckInRepository interface {
	// CreateIfNotExists inserts the record; ErrAlreadyCheckedIn when one
	// already exists for the (shift, worker) pair, so retried client
	// requests cannot double-check-in.
	CreateIfNotExists(ctx context.Context, rec *models.CheckInRecord) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.CheckInRecord, error)
	GetByShiftAndWorker(ctx context.Context, shiftID, workerID uuid.UUID) (*models.CheckInRecord, error)
	ListByShiftID(ctx context.Context, shiftID uuid.UUID) ([]*models.CheckInRecord, error)

	// UpdateAtomic writes break/checkout mutations guarded by the row version.
	UpdateAtomic(ctx context.Context, rec *models.CheckInRecord, expectedVersion int64) (*models.CheckInRecord, error)
}

type checkInRepo struct {
	db DB
}

func NewCheckInRepository(db DB) CheckInRepository {
	return &checkInRepo{db: db}
}

func baseSelectCheckIn() string {
	return `
        SELECT
            id, shift_id, worker_id,
            check_in_at, check_in_lat, check_in_lng,
            check_out_at, check_out_lat, check_out_lng,
            breaks, notes, no_show, worked_minutes, earnings,
            row_version, created_at, updated_at
        FROM check_in_records
    `
}

func scanCheckIn(row pgx.Row) (*models.CheckInRecord, error) {
	var rec models.CheckInRecord
	var breaksJSON []byte
	err := row.Scan(
		&rec.ID,
		&rec.ShiftID,
		&rec.WorkerID,
		&rec.CheckInAt,
		&rec.CheckInLat,
		&rec.CheckInLng,
		&rec.CheckOutAt,
		&rec.CheckOutLat,
		&rec.CheckOutLng,
		&breaksJSON,
		&rec.Notes,
		&rec.NoShow,
		&rec.WorkedMinutes,
		&rec.Earnings,
		&rec.RowVersion,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(breaksJSON) > 0 {
		if err := json.Unmarshal(breaksJSON, &rec.Breaks); err != nil {
			return nil, err
		}
	}
	if rec.Breaks == nil {
		rec.Breaks = []models.BreakEntry{}
	}
	return &rec, nil
}

func (r *checkInRepo) CreateIfNotExists(ctx context.Context, rec *models.CheckInRecord) error {
	breaksJSON, err := json.Marshal(rec.Breaks)
	if err != nil {
		return err
	}
	tag, err := r.db.Exec(ctx, `
        INSERT INTO check_in_records (
            id, shift_id, worker_id,
            check_in_at, check_in_lat, check_in_lng,
            breaks, notes, no_show,
            row_version, created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,1,NOW(),NOW()
        )
        ON CONFLICT (shift_id, worker_id) DO NOTHING
    `,
		rec.ID,
		rec.ShiftID,
		rec.WorkerID,
		rec.CheckInAt,
		rec.CheckInLat,
		rec.CheckInLng,
		breaksJSON,
		rec.Notes,
		rec.NoShow,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrAlreadyCheckedIn
	}
	return nil
}

func (r *checkInRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.CheckInRecord, error) {
	row := r.db.QueryRow(ctx, baseSelectCheckIn()+" WHERE id=$1", id)
	return scanCheckIn(row)
}

func (r *checkInRepo) GetByShiftAndWorker(ctx context.Context, shiftID, workerID uuid.UUID) (*models.CheckInRecord, error) {
	row := r.db.QueryRow(ctx, baseSelectCheckIn()+" WHERE shift_id=$1 AND worker_id=$2", shiftID, workerID)
	return scanCheckIn(row)
}

func (r *checkInRepo) ListByShiftID(ctx context.Context, shiftID uuid.UUID) ([]*models.CheckInRecord, error) {
	rows, err := r.db.Query(ctx, baseSelectCheckIn()+" WHERE shift_id=$1 ORDER BY check_in_at", shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.CheckInRecord
	for rows.Next() {
		rec, err := scanCheckIn(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *checkInRepo) UpdateAtomic(
	ctx context.Context,
	rec *models.CheckInRecord,
	expectedVersion int64,
) (*models.CheckInRecord, error) {
	breaksJSON, err := json.Marshal(rec.Breaks)
	if err != nil {
		return nil, err
	}

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

	row := tx.QueryRow(ctx, baseSelectCheckIn()+" WHERE id=$1 FOR UPDATE", rec.ID)
	current, err := scanCheckIn(row)
	if err != nil {
		return nil, err
	}
	if current == nil {
		err = utils.ErrNotFound
		return nil, err
	}
	if current.RowVersion != expectedVersion {
		err = utils.ErrRowVersionConflict
		return current, err
	}

	_, err = tx.Exec(ctx, `
        UPDATE check_in_records
        SET check_out_at=$1, check_out_lat=$2, check_out_lng=$3,
            breaks=$4, notes=$5, no_show=$6,
            worked_minutes=$7, earnings=$8,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$9
    `,
		rec.CheckOutAt,
		rec.CheckOutLat,
		rec.CheckOutLng,
		breaksJSON,
		rec.Notes,
		rec.NoShow,
		rec.WorkedMinutes,
		rec.Earnings,
		rec.ID,
	)
	if err != nil {
		return nil, err
	}

	newRow := tx.QueryRow(ctx, baseSelectCheckIn()+" WHERE id=$1", rec.ID)
	return scanCheckIn(newRow)
}
