package holds

import "seatengine/pkg/apperrors"

var (
	ErrHoldNotFound      = apperrors.NotFound("HOLD_NOT_FOUND", "hold not found")
	ErrHoldExpired       = apperrors.Contention("HOLD_EXPIRED", "hold has expired")
	ErrHoldReleased      = apperrors.Contention("HOLD_RELEASED", "hold was released")
	ErrHoldConverted     = apperrors.Contention("HOLD_ALREADY_CONVERTED", "hold was already converted to a booking")
	ErrLifetimeExceeded  = apperrors.Validation("HOLD_LIFETIME_EXCEEDED", "hold cannot be extended any further")
	ErrNoSeatsSelected   = apperrors.Validation("NO_SEATS_SELECTED", "at least one seat is required")
	ErrTooManySeats      = apperrors.Validation("TOO_MANY_SEATS", "too many seats requested")
	ErrTierNotAllowed    = apperrors.Validation("TIER_NOT_ALLOWED", "one or more seats are outside the allowed tiers")
	ErrFloorPlanMismatch = apperrors.Validation("SEATS_NOT_ON_FLOOR_PLAN", "one or more seats belong to another floor plan")
	ErrMissingBuyer      = apperrors.Unauthorized("buyer session is required")
)

// errForStatus maps a hold that is no longer ACTIVE to the error its callers report
func errForStatus(status Status) error {
	switch status {
	case StatusExpired:
		return ErrHoldExpired
	case StatusConverted:
		return ErrHoldConverted
	case StatusReleased:
		return ErrHoldReleased
	}
	return nil
}
