package seats

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Seat is one placed seat of a floor plan. Placement and commercial
// attributes come from floor-plan authoring; Status, HoldID, BookingID and
// Version are written only by the Resolver.
type Seat struct {
	ID          uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	FloorPlanID uuid.UUID `gorm:"type:uuid;index;not null;uniqueIndex:idx_floor_plan_seat" json:"floor_plan_id"`
	EventID     uuid.UUID `gorm:"type:uuid;index;not null" json:"event_id"`

	// Placement
	Section    string   `gorm:"type:varchar(100);not null;uniqueIndex:idx_floor_plan_seat" json:"section"`
	RowNumber  string   `gorm:"type:varchar(20);not null;uniqueIndex:idx_floor_plan_seat" json:"row_number"`
	SeatNumber int      `gorm:"not null;uniqueIndex:idx_floor_plan_seat" json:"seat_number"`
	Label      string   `gorm:"type:varchar(50)" json:"label"`
	SeatType   SeatType `gorm:"type:varchar(20);not null;default:'CHAIR'" json:"seat_type"`
	X          float64  `json:"x"`
	Y          float64  `json:"y"`
	Rotation   float64  `json:"rotation"`

	// Commercial
	Tier      Tier  `gorm:"type:varchar(20);index;not null" json:"tier"`
	BasePrice int64 `gorm:"not null;check:base_price >= 0" json:"base_price"`

	// Lifecycle
	Status    Status     `gorm:"type:varchar(20);index;not null;default:'AVAILABLE'" json:"status"`
	HoldID    *uuid.UUID `gorm:"type:uuid;index" json:"hold_id,omitempty"`
	BookingID *uuid.UUID `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	Version   int64      `gorm:"not null;default:0" json:"version"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName sets the table name for Seat
func (Seat) TableName() string {
	return "seats"
}

// IsAvailable reports whether the seat can be claimed by a new hold
func (s *Seat) IsAvailable() bool {
	return s.Status == StatusAvailable
}

// IsHeldBy reports whether the seat is held by the given hold
func (s *Seat) IsHeldBy(holdID uuid.UUID) bool {
	return s.Status == StatusHeld && s.HoldID != nil && *s.HoldID == holdID
}

// IsConsistent checks that the references agree with the status
func (s *Seat) IsConsistent() bool {
	switch s.Status {
	case StatusAvailable, StatusBlocked:
		return s.HoldID == nil && s.BookingID == nil
	case StatusHeld:
		return s.HoldID != nil && s.BookingID == nil
	case StatusBooked:
		return s.BookingID != nil && s.HoldID == nil
	}
	return false
}

// DisplayLabel falls back to section-row-number when no label was authored
func (s *Seat) DisplayLabel() string {
	if s.Label != "" {
		return s.Label
	}
	return fmt.Sprintf("%s-%s-%d", s.Section, s.RowNumber, s.SeatNumber)
}

// SeatFilter narrows a floor-plan seat listing
type SeatFilter struct {
	Section string
	Tier    Tier
	Status  Status
}

// Matches reports whether the seat passes the filter
func (f SeatFilter) Matches(s *Seat) bool {
	if f.Section != "" && s.Section != f.Section {
		return false
	}
	if f.Tier != "" && s.Tier != f.Tier {
		return false
	}
	if f.Status != "" && s.Status != f.Status {
		return false
	}
	return true
}

// AvailabilitySummary counts seats per status for a floor plan
type AvailabilitySummary struct {
	FloorPlanID uuid.UUID      `json:"floor_plan_id"`
	Total       int            `json:"total"`
	ByStatus    map[Status]int `json:"by_status"`
	ByTier      map[Tier]int   `json:"available_by_tier"`
}
