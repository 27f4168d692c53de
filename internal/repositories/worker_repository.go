package repositories

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

type WorkerRepository interface {
	Create(ctx context.Context, worker *models.Worker) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Worker, error)
	ListAll(ctx context.Context) ([]*models.Worker, error)

	// HasCompletedAtVenue reports whether the worker has a closed, non
	// no-show attendance record at any completed shift of the venue.
	HasCompletedAtVenue(ctx context.Context, workerID, venueID uuid.UUID) (bool, error)

	// AdjustHistoryAtomic bumps the reliability counters in one statement;
	// reason is logged for audit.
	AdjustHistoryAtomic(ctx context.Context, workerID uuid.UUID, completedDelta, noShowDelta, cancelDelta int, reason string) error

	// RecordOfferOutcome updates the offer counters (and last accepted rate
	// when the offer was accepted).
	RecordOfferOutcome(ctx context.Context, workerID uuid.UUID, accepted bool, rate *float64) error
}

type workerRepo struct {
	db DB
}

func NewWorkerRepository(db DB) WorkerRepository {
	return &workerRepo{db: db}
}

func baseSelectWorker() string {
	return `
        SELECT
            id, first_name, last_name, email, phone_number, skills,
            completed_shift_count, no_show_count, cancellation_count,
            offers_received, offers_accepted, last_accepted_rate,
            row_version, created_at, updated_at
        FROM workers
    `
}

func scanWorker(row pgx.Row) (*models.Worker, error) {
	var w models.Worker
	var skillsJSON []byte
	err := row.Scan(
		&w.ID,
		&w.FirstName,
		&w.LastName,
		&w.Email,
		&w.PhoneNumber,
		&skillsJSON,
		&w.CompletedShiftCount,
		&w.NoShowCount,
		&w.CancellationCount,
		&w.OffersReceived,
		&w.OffersAccepted,
		&w.LastAcceptedRate,
		&w.RowVersion,
		&w.CreatedAt,
		&w.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	if len(skillsJSON) > 0 {
		if err := json.Unmarshal(skillsJSON, &w.Skills); err != nil {
			return nil, err
		}
	}
	if w.Skills == nil {
		w.Skills = []string{}
	}
	return &w, nil
}

func (r *workerRepo) Create(ctx context.Context, worker *models.Worker) error {
	skillsJSON, err := json.Marshal(worker.Skills)
	if err != nil {
		return err
	}
	_, err = r.db.Exec(ctx, `
        INSERT INTO workers (
            id, first_name, last_name, email, phone_number, skills,
            completed_shift_count, no_show_count, cancellation_count,
            offers_received, offers_accepted, last_accepted_rate,
            row_version, created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,1,NOW(),NOW()
        )
    `,
		worker.ID,
		worker.FirstName,
		worker.LastName,
		worker.Email,
		worker.PhoneNumber,
		skillsJSON,
		worker.CompletedShiftCount,
		worker.NoShowCount,
		worker.CancellationCount,
		worker.OffersReceived,
		worker.OffersAccepted,
		worker.LastAcceptedRate,
	)
	return err
}

func (r *workerRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Worker, error) {
	row := r.db.QueryRow(ctx, baseSelectWorker()+" WHERE id=$1", id)
	return scanWorker(row)
}

func (r *workerRepo) ListAll(ctx context.Context) ([]*models.Worker, error) {
	rows, err := r.db.Query(ctx, baseSelectWorker()+" ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Worker
	for rows.Next() {
		w, err := scanWorker(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, w)
	}
	return out, rows.Err()
}

func (r *workerRepo) HasCompletedAtVenue(ctx context.Context, workerID, venueID uuid.UUID) (bool, error) {
	var count int
	err := r.db.QueryRow(ctx, `
        SELECT COUNT(1)
        FROM check_in_records c
        JOIN shifts s ON s.id = c.shift_id
        WHERE c.worker_id=$1
          AND s.venue_id=$2
          AND c.check_out_at IS NOT NULL
          AND c.no_show = FALSE
          AND s.status='COMPLETED'
    `, workerID, venueID).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (r *workerRepo) AdjustHistoryAtomic(
	ctx context.Context,
	workerID uuid.UUID,
	completedDelta, noShowDelta, cancelDelta int,
	reason string,
) error {
	tag, err := r.db.Exec(ctx, `
        UPDATE workers
        SET completed_shift_count = completed_shift_count + $1,
            no_show_count = no_show_count + $2,
            cancellation_count = cancellation_count + $3,
            row_version = row_version + 1,
            updated_at = NOW()
        WHERE id=$4
    `, completedDelta, noShowDelta, cancelDelta, workerID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return utils.ErrNotFound
	}
	utils.Logger.Infof("Adjusted history for worker=%s (completed %+d, no-show %+d, cancel %+d): %s",
		workerID, completedDelta, noShowDelta, cancelDelta, reason)
	return nil
}

func (r *workerRepo) RecordOfferOutcome(ctx context.Context, workerID uuid.UUID, accepted bool, rate *float64) error {
	acceptedDelta := 0
	if accepted {
		acceptedDelta = 1
	}
	_, err := r.db.Exec(ctx, `
        UPDATE workers
        SET offers_received = offers_received + 1,
            offers_accepted = offers_accepted + $1,
            last_accepted_rate = CASE WHEN $2::boolean THEN COALESCE($3, last_accepted_rate) ELSE last_accepted_rate END,
            row_version = row_version + 1,
            updated_at = NOW()
        WHERE id=$4
    `, acceptedDelta, accepted, rate, workerID)
	return err
}
