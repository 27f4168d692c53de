package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

type ApplicationRepository interface {
	// Create inserts a new application; ErrDuplicateApplication when one
	// already exists for the (shift, worker) pair.
	Create(ctx context.Context, app *models.Application) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	GetByShiftAndWorker(ctx context.Context, shiftID, workerID uuid.UUID) (*models.Application, error)
	ListByShiftID(ctx context.Context, shiftID uuid.UUID) ([]*models.Application, error)
	ListByWorkerID(ctx context.Context, workerID uuid.UUID) ([]*models.Application, error)

	// ListCommittedByWorker returns the worker's HIRED and ACCEPTED
	// applications, used for overlap-based candidate exclusion.
	ListCommittedByWorker(ctx context.Context, workerID uuid.UUID) ([]*models.Application, error)

	// UpdateAtomic writes status/rate changes guarded by the row version.
	UpdateAtomic(ctx context.Context, app *models.Application, expectedVersion int64) (*models.Application, error)
}

type applicationRepo struct {
	db DB
}

func NewApplicationRepository(db DB) ApplicationRepository {
	return &applicationRepo{db: db}
}

func baseSelectApplication() string {
	return `
        SELECT
            id, shift_id, worker_id, status,
            offered_rate, counter_rate, hired_rate,
            row_version, created_at, updated_at
        FROM applications
    `
}

func scanApplication(row pgx.Row) (*models.Application, error) {
	var a models.Application
	err := row.Scan(
		&a.ID,
		&a.ShiftID,
		&a.WorkerID,
		&a.Status,
		&a.OfferedRate,
		&a.CounterRate,
		&a.HiredRate,
		&a.RowVersion,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

func (r *applicationRepo) Create(ctx context.Context, app *models.Application) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO applications (
            id, shift_id, worker_id, status,
            offered_rate, counter_rate, hired_rate,
            row_version, created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,1,NOW(),NOW()
        )
    `,
		app.ID,
		app.ShiftID,
		app.WorkerID,
		app.Status,
		app.OfferedRate,
		app.CounterRate,
		app.HiredRate,
	)
	if err != nil && isUniqueViolation(err) {
		return utils.ErrDuplicateApplication
	}
	return err
}

func (r *applicationRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	row := r.db.QueryRow(ctx, baseSelectApplication()+" WHERE id=$1", id)
	return scanApplication(row)
}

func (r *applicationRepo) GetByShiftAndWorker(ctx context.Context, shiftID, workerID uuid.UUID) (*models.Application, error) {
	row := r.db.QueryRow(ctx, baseSelectApplication()+" WHERE shift_id=$1 AND worker_id=$2", shiftID, workerID)
	return scanApplication(row)
}

func (r *applicationRepo) ListByShiftID(ctx context.Context, shiftID uuid.UUID) ([]*models.Application, error) {
	rows, err := r.db.Query(ctx, baseSelectApplication()+" WHERE shift_id=$1 ORDER BY created_at", shiftID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplications(rows)
}

func (r *applicationRepo) ListByWorkerID(ctx context.Context, workerID uuid.UUID) ([]*models.Application, error) {
	rows, err := r.db.Query(ctx, baseSelectApplication()+" WHERE worker_id=$1 ORDER BY created_at", workerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplications(rows)
}

func (r *applicationRepo) ListCommittedByWorker(ctx context.Context, workerID uuid.UUID) ([]*models.Application, error) {
	rows, err := r.db.Query(ctx, baseSelectApplication()+`
        WHERE worker_id=$1 AND status = ANY($2)
        ORDER BY created_at
    `, workerID, []string{string(models.ApplicationStatusHired), string(models.ApplicationStatusAccepted)})
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectApplications(rows)
}

func collectApplications(rows pgx.Rows) ([]*models.Application, error) {
	var out []*models.Application
	for rows.Next() {
		a, err := scanApplication(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *applicationRepo) UpdateAtomic(
	ctx context.Context,
	app *models.Application,
	expectedVersion int64,
) (*models.Application, error) {
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

	row := tx.QueryRow(ctx, baseSelectApplication()+" WHERE id=$1 FOR UPDATE", app.ID)
	current, err := scanApplication(row)
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
        UPDATE applications
        SET status=$1, offered_rate=$2, counter_rate=$3, hired_rate=$4,
            row_version=row_version+1, updated_at=NOW()
        WHERE id=$5
    `, app.Status, app.OfferedRate, app.CounterRate, app.HiredRate, app.ID)
	if err != nil {
		return nil, err
	}

	newRow := tx.QueryRow(ctx, baseSelectApplication()+" WHERE id=$1", app.ID)
	return scanApplication(newRow)
}
