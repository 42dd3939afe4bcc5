package promos

import "seatengine/pkg/apperrors"

// Reason explains why a promo code cannot be applied
type Reason string

const (
	ReasonNotFound      Reason = "NOT_FOUND"
	ReasonInactive      Reason = "INACTIVE"
	ReasonNotYetActive  Reason = "NOT_YET_ACTIVE"
	ReasonExpired       Reason = "EXPIRED"
	ReasonUsageExceeded Reason = "USAGE_EXCEEDED"
	ReasonBelowMinimum  Reason = "BELOW_MINIMUM"
)

var (
	ErrPromoInvalid  = apperrors.Validation("PROMO_INVALID", "promo code cannot be applied")
	ErrPromoNotFound = apperrors.NotFound("PROMO_NOT_FOUND", "promo code not found")
	ErrPromoExists   = apperrors.Validation("PROMO_CODE_EXISTS", "promo code already exists in this scope")
	ErrInvalidPromo  = apperrors.Validation("INVALID_PROMO_DEFINITION", "promo definition is invalid")
)

var reasonMessages = map[Reason]string{
	ReasonNotFound:      "promo code does not exist",
	ReasonInactive:      "promo code is no longer active",
	ReasonNotYetActive:  "promo code is not active yet",
	ReasonExpired:       "promo code has expired",
	ReasonUsageExceeded: "promo code has reached its usage limit",
	ReasonBelowMinimum:  "order is below the promo minimum",
}

// NewInvalidError is PROMO_INVALID carrying the code and the reason
func NewInvalidError(code string, reason Reason) error {
	return ErrPromoInvalid.
		WithMessage(reasonMessages[reason]).
		WithDetails(map[string]any{"code": code, "reason": string(reason)})
}

// ReasonFrom extracts the invalidity reason from a PROMO_INVALID error
func ReasonFrom(err error) Reason {
	appErr, ok := apperrors.As(err)
	if !ok || appErr.Code != ErrPromoInvalid.Code {
		return ""
	}
	reason, _ := appErr.Details["reason"].(string)
	return Reason(reason)
}
