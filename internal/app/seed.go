package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shiftloop/fulfillment-service/internal/models"
	"github.com/shiftloop/fulfillment-service/internal/utils"
)

/*
SeedTestData loads a small London-centric demo data set: two venues, three
workers with varied skill and reliability profiles, and a pair of shifts
(one published, one draft). Gated behind the seed_db_with_test_data flag;
errors on existing rows are returned so the flag is not left on against a
populated database.
*/
func SeedTestData(ctx context.Context, repos *Repositories) error {
	venueSoho := &models.Venue{
		ID:           uuid.MustParse("7b54f3f0-0001-4d0b-9f5d-8a42c76a0001"),
		Name:         "The Gilded Lion",
		Address:      "12 Dean Street",
		City:         "London",
		Latitude:     51.5136,
		Longitude:    -0.1340,
		ContactEmail: "manager@gildedlion.example",
		ContactPhone: "+442070000001",
	}
	venueShoreditch := &models.Venue{
		ID:           uuid.MustParse("7b54f3f0-0002-4d0b-9f5d-8a42c76a0002"),
		Name:         "Brick Lane Social",
		Address:      "91 Brick Lane",
		City:         "London",
		Latitude:     51.5200,
		Longitude:    -0.0715,
		ContactEmail: "events@bricklanesocial.example",
		ContactPhone: "+442070000002",
	}
	for _, v := range []*models.Venue{venueSoho, venueShoreditch} {
		if v.TimeZone == "" {
			v.TimeZone = utils.TimeZoneFor(v.Latitude, v.Longitude)
		}
		if err := repos.Venues.Create(ctx, v); err != nil {
			return err
		}
	}

	workers := []*models.Worker{
		{
			ID:                  uuid.MustParse("9c11aa00-0001-4cc0-8f31-55de9a2b0001"),
			FirstName:           "Amara",
			LastName:            "Osei",
			Email:               "amara@example.com",
			PhoneNumber:         "+447700900001",
			Skills:              []string{"bartender", "mixology", "cocktails"},
			CompletedShiftCount: 42,
			NoShowCount:         1,
			CancellationCount:   2,
			OffersReceived:      30,
			OffersAccepted:      24,
			LastAcceptedRate:    utils.Ptr(14.50),
		},
		{
			ID:          uuid.MustParse("9c11aa00-0002-4cc0-8f31-55de9a2b0002"),
			FirstName:   "Tom",
			LastName:    "Whitfield",
			Email:       "tom@example.com",
			PhoneNumber: "+447700900002",
			Skills:      []string{"waiter", "barista"},
		},
		{
			ID:                  uuid.MustParse("9c11aa00-0003-4cc0-8f31-55de9a2b0003"),
			FirstName:           "Priya",
			LastName:            "Natarajan",
			Email:               "priya@example.com",
			PhoneNumber:         "+447700900003",
			Skills:              []string{"kitchen porter", "chef de partie"},
			CompletedShiftCount: 8,
			NoShowCount:         2,
			CancellationCount:   0,
			OffersReceived:      12,
			OffersAccepted:      7,
			LastAcceptedRate:    utils.Ptr(12.00),
		},
	}
	for _, w := range workers {
		if err := repos.Workers.Create(ctx, w); err != nil {
			return err
		}
	}

	nextFriday := nextWeekday(time.Now().UTC(), time.Friday)
	published := &models.Shift{
		ID:            uuid.MustParse("5d20cc00-0001-4e11-a7c2-33ab18ef0001"),
		VenueID:       venueSoho.ID,
		Role:          "bartender",
		StartTime:     time.Date(nextFriday.Year(), nextFriday.Month(), nextFriday.Day(), 18, 0, 0, 0, time.UTC),
		EndTime:       time.Date(nextFriday.Year(), nextFriday.Month(), nextFriday.Day(), 23, 30, 0, 0, time.UTC),
		Latitude:      venueSoho.Latitude,
		Longitude:     venueSoho.Longitude,
		HourlyRate:    13.75,
		WorkersNeeded: 2,
		Status:        models.ShiftStatusLive,
	}
	draft := &models.Shift{
		ID:            uuid.MustParse("5d20cc00-0002-4e11-a7c2-33ab18ef0002"),
		VenueID:       venueShoreditch.ID,
		Role:          "waiter",
		StartTime:     time.Date(nextFriday.Year(), nextFriday.Month(), nextFriday.Day(), 11, 0, 0, 0, time.UTC).AddDate(0, 0, 1),
		EndTime:       time.Date(nextFriday.Year(), nextFriday.Month(), nextFriday.Day(), 16, 0, 0, 0, time.UTC).AddDate(0, 0, 1),
		Latitude:      venueShoreditch.Latitude,
		Longitude:     venueShoreditch.Longitude,
		HourlyRate:    12.00,
		WorkersNeeded: 3,
		Status:        models.ShiftStatusDraft,
	}
	for _, s := range []*models.Shift{published, draft} {
		if err := repos.Shifts.Create(ctx, s); err != nil {
			return err
		}
	}

	utils.Logger.Infof("Seeded %d venues, %d workers, 2 shifts", 2, len(workers))
	return nil
}

func nextWeekday(from time.Time, day time.Weekday) time.Time {
	days := (int(day) - int(from.Weekday()) + 7) % 7
	if days == 0 {
		days = 7
	}
	return models.DateOnly(from.AddDate(0, 0, days))
}
