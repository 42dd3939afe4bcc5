package holds

import (
	"seatengine/internal/pricing"
	"seatengine/internal/seats"
	"seatengine/pkg/apperrors"

	"github.com/google/uuid"
)

// CreateHoldRequest is the body of POST /holds
type CreateHoldRequest struct {
	FloorPlanID  uuid.UUID   `json:"floor_plan_id" binding:"required"`
	SeatIDs      []uuid.UUID `json:"seat_ids" binding:"required,min=1,max=100"`
	AllowedTiers []string    `json:"allowed_tiers" binding:"omitempty,dive,seattier"`
	PromoCode    string      `json:"promo_code" binding:"omitempty,max=50"`
}

func (r CreateHoldRequest) Input(buyer string) CreateHoldInput {
	tiers := make([]seats.Tier, len(r.AllowedTiers))
	for i, t := range r.AllowedTiers {
		tiers[i] = seats.Tier(t)
	}
	return CreateHoldInput{
		FloorPlanID:    r.FloorPlanID,
		SeatIDs:        r.SeatIDs,
		BuyerSessionID: buyer,
		AllowedTiers:   tiers,
	}
}

// ApplyPromoRequest is the body of POST /holds/:holdId/promo
type ApplyPromoRequest struct {
	PromoCode string `json:"promo_code" binding:"required,max=50"`
}

// HoldResponse is a hold with its live price. PromoError explains why a
// promo sent with the hold was left out of the price.
type HoldResponse struct {
	Hold       *Hold              `json:"hold"`
	Price      *pricing.Breakdown `json:"price,omitempty"`
	PromoError *apperrors.Error   `json:"promo_error,omitempty"`
}

// SweepResponse reports an on-demand sweep
type SweepResponse struct {
	Expired int `json:"expired"`
}
