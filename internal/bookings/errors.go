package bookings

import "seatengine/pkg/apperrors"

var (
	ErrBookingNotFound = apperrors.NotFound("BOOKING_NOT_FOUND", "booking not found")
	ErrMixedEvents     = apperrors.Validation("MIXED_EVENTS", "all seats must belong to the same event")
)
