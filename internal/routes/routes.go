package routes

const (
	// Health
	Health = "/health"

	// Venue endpoints
	ShiftsBase     = "/api/v1/shifts"
	ShiftByID      = "/api/v1/shifts/{id}"
	ShiftPublish   = "/api/v1/shifts/{id}/publish"
	ShiftBegin     = "/api/v1/shifts/{id}/begin"
	ShiftComplete  = "/api/v1/shifts/{id}/complete"
	ShiftCancel    = "/api/v1/shifts/{id}/cancel"
	ShiftMatches   = "/api/v1/shifts/{id}/matches"
	ShiftsForVenue = "/api/v1/shifts/venue/{venueId}"

	// Worker-facing shift endpoints
	ShiftsOpen    = "/api/v1/shifts/open"
	ShiftCheckIn  = "/api/v1/shifts/{id}/checkin"
	ShiftCheckOut = "/api/v1/shifts/{id}/checkout"

	// Application endpoints
	ApplicationsBase          = "/api/v1/applications"
	ApplicationsMy            = "/api/v1/applications/my"
	ApplicationsForShift      = "/api/v1/applications/shift/{id}"
	ApplicationAccept         = "/api/v1/applications/{id}/accept"
	ApplicationCounterAccept  = "/api/v1/applications/{id}/counter-accept"
	ApplicationCounterReject  = "/api/v1/applications/{id}/counter-reject"
	ApplicationHire           = "/api/v1/applications/{id}/hire"
	ApplicationWithdraw       = "/api/v1/applications/{id}/withdraw"
	ApplicationReject         = "/api/v1/applications/{id}/reject"

	// Availability ledger endpoints
	WorkerAvailability          = "/api/v1/worker/availability"
	WorkerAvailabilityBulk      = "/api/v1/worker/availability/bulk"
	WorkerAvailabilityRecurring = "/api/v1/worker/availability/recurring"

	// Break tracking
	AttendanceBreakStart = "/api/v1/attendance/{id}/break/start"
	AttendanceBreakEnd   = "/api/v1/attendance/{id}/break/end"
)
