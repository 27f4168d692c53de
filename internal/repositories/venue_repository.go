package repositories

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"

	"github.com/shiftloop/fulfillment-service/internal/models"
)

type VenueRepository interface {
	Create(ctx context.Context, venue *models.Venue) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Venue, error)
	ListAll(ctx context.Context) ([]*models.Venue, error)
}

type venueRepo struct {
	db DB
}

func NewVenueRepository(db DB) VenueRepository {
	return &venueRepo{db: db}
}

func baseSelectVenue() string {
	return `
        SELECT
            id, name, address, city, latitude, longitude, time_zone,
            contact_email, contact_phone,
            row_version, created_at, updated_at
        FROM venues
    `
}

func scanVenue(row pgx.Row) (*models.Venue, error) {
	var v models.Venue
	err := row.Scan(
		&v.ID,
		&v.Name,
		&v.Address,
		&v.City,
		&v.Latitude,
		&v.Longitude,
		&v.TimeZone,
		&v.ContactEmail,
		&v.ContactPhone,
		&v.RowVersion,
		&v.CreatedAt,
		&v.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &v, nil
}

func (r *venueRepo) Create(ctx context.Context, venue *models.Venue) error {
	_, err := r.db.Exec(ctx, `
        INSERT INTO venues (
            id, name, address, city, latitude, longitude, time_zone,
            contact_email, contact_phone,
            row_version, created_at, updated_at
        ) VALUES (
            $1,$2,$3,$4,$5,$6,$7,$8,$9,1,NOW(),NOW()
        )
    `,
		venue.ID,
		venue.Name,
		venue.Address,
		venue.City,
		venue.Latitude,
		venue.Longitude,
		venue.TimeZone,
		venue.ContactEmail,
		venue.ContactPhone,
	)
	return err
}

func (r *venueRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Venue, error) {
	row := r.db.QueryRow(ctx, baseSelectVenue()+" WHERE id=$1", id)
	return scanVenue(row)
}

func (r *venueRepo) ListAll(ctx context.Context) ([]*models.Venue, error) {
	rows, err := r.db.Query(ctx, baseSelectVenue()+" ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Venue
	for rows.Next() {
		v, err := scanVenue(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, rows.Err()
}
