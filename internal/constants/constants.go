package constants

import (
	"time"
)

// General fulfillment settings
const (
	// Default geofence: maximum allowed distance between a worker's reported
	// coordinate and the venue coordinate for check-in/out. Overridable via
	// config (GEOFENCE_RADIUS_METERS).
	DefaultGeofenceRadiusMeters = 100

	// Default check-in window: a worker may check in from this long before
	// the shift start through the shift end. Overridable via config
	// (CHECKIN_EARLY_WINDOW_MINUTES).
	DefaultCheckInEarlyWindow = 15 * time.Minute

	// Open-shift listing radius for workers browsing nearby shifts.
	ListingRadiusMiles = 75

	// Bounded retry count for optimistic-lock loops.
	MaxVersionRetries = 3
)

// Match scorer weights. The four weights sum to 1.
const (
	WeightSkillMatch       = 0.35
	WeightReliability      = 0.25
	WeightVenueFamiliarity = 0.20
	WeightAvailability     = 0.20
)

// Match scorer sub-score anchors.
const (
	SkillScoreFloor              = 20.0
	ReliabilityScoreDefault      = 70.0
	VenueFamiliarityKnownScore   = 100.0
	VenueFamiliarityNovelScore   = 50.0
	AvailabilityExplicitScore    = 100.0
	AvailabilityUnconfirmedScore = 60.0
)

// Accept-likelihood anchors: the estimate starts from the worker's
// offer-acceptance ratio and is discounted when the shift pays materially
// below the worker's last accepted rate.
const (
	AcceptLikelihoodDefault = 60.0
	RateGapPenaltyPerPct    = 1.5 // likelihood points lost per % below last accepted rate
	MaxRateGapPenalty       = 40.0
)

// No-show handling: a hired worker with no check-in this long after shift
// start is marked a no-show by daily/periodic maintenance.
const (
	NoShowGraceAfterStart = 30 * time.Minute
)

// Common concurrency conflict messages
const (
	ErrMsgRowVersionConflictRefresh = "The shift has changed, please refresh"
)
