package models

import (
	"time"

	"github.com/google/uuid"
)

// Venue owns shifts. Coordinates are supplied at creation and are the
// authoritative geofence anchor for every shift posted at the venue.
type Venue struct {
	Versioned

	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`

	Address string `json:"address"`
	City    string `json:"city"`

	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// IANA zone name, derived from the coordinates when not supplied.
	TimeZone string `json:"time_zone"`

	ContactEmail string `json:"contact_email"`
	ContactPhone string `json:"contact_phone"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (v *Venue) GetID() string {
	return v.ID.String()
}
