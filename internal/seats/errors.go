package seats

import (
	"errors"

	"seatengine/pkg/apperrors"

	"github.com/google/uuid"
)

var (
	ErrSeatNotFound      = apperrors.NotFound("SEAT_NOT_FOUND", "seat not found")
	ErrSeatsUnavailable  = apperrors.Contention("SEATS_UNAVAILABLE", "one or more seats are no longer available")
	ErrInvalidTransition = apperrors.Validation("INVALID_TRANSITION", "seat transition is not allowed")

	// errVersionMismatch is returned by SaveSeatState when the row moved on
	// since it was read. The Resolver reports it as contention.
	errVersionMismatch = errors.New("seat version mismatch")
)

const detailSeatIDs = "seat_ids"

func seatIDStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}

// NewUnavailableError reports the exact seats that blocked a transition
func NewUnavailableError(ids []uuid.UUID) error {
	return ErrSeatsUnavailable.WithDetails(map[string]any{detailSeatIDs: seatIDStrings(ids)})
}

// NewNotFoundError reports seat ids that do not exist
func NewNotFoundError(ids []uuid.UUID) error {
	return ErrSeatNotFound.WithDetails(map[string]any{detailSeatIDs: seatIDStrings(ids)})
}

// SeatIDsFrom returns the seat ids attached to a seats error
func SeatIDsFrom(err error) []uuid.UUID {
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Details == nil {
		return nil
	}
	raw, _ := appErr.Details[detailSeatIDs].([]string)
	ids := make([]uuid.UUID, 0, len(raw))
	for _, s := range raw {
		if id, err := uuid.Parse(s); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}
