package bookings

import "github.com/google/uuid"

// FinalizeRequest is the optional body of POST /holds/:holdId/finalize
type FinalizeRequest struct {
	PromoCode string `json:"promo_code" binding:"omitempty,max=50"`
}

// QuoteRequest is the body of POST /quotes
type QuoteRequest struct {
	SeatIDs   []uuid.UUID `json:"seat_ids" binding:"required,min=1,max=100"`
	PromoCode string      `json:"promo_code" binding:"omitempty,max=50"`
}

// BookingListQuery pages GET /bookings
type BookingListQuery struct {
	Limit  int `form:"limit" binding:"omitempty,min=1,max=100"`
	Offset int `form:"offset" binding:"omitempty,min=0"`
}

// BookingListResponse is one page of bookings
type BookingListResponse struct {
	Bookings []Booking `json:"bookings"`
	Total    int64     `json:"total"`
	Limit    int       `json:"limit"`
	Offset   int       `json:"offset"`
}
