package seats

import "github.com/google/uuid"

// ListSeatsQuery filters GET /floor-plans/:floorPlanId/seats
type ListSeatsQuery struct {
	Section string `form:"section" binding:"omitempty,max=100"`
	Tier    string `form:"tier" binding:"omitempty,seattier"`
	Status  string `form:"status" binding:"omitempty,seatstatus"`
}

func (q ListSeatsQuery) Filter() SeatFilter {
	return SeatFilter{
		Section: q.Section,
		Tier:    Tier(q.Tier),
		Status:  Status(q.Status),
	}
}

// SeatIDsRequest is the body of the admin block and unblock endpoints
type SeatIDsRequest struct {
	SeatIDs []uuid.UUID `json:"seat_ids" binding:"required,min=1,max=500"`
}

// SeatListResponse wraps a floor plan listing
type SeatListResponse struct {
	FloorPlanID uuid.UUID `json:"floor_plan_id"`
	Seats       []Seat    `json:"seats"`
	Count       int       `json:"count"`
}
