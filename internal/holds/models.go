package holds

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Status is a hold's lifecycle state. Every state but ACTIVE is terminal.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusExpired   Status = "EXPIRED"
	StatusConverted Status = "CONVERTED"
	StatusReleased  Status = "RELEASED"
)

func (s Status) IsValid() bool {
	switch s {
	case StatusActive, StatusExpired, StatusConverted, StatusReleased:
		return true
	}
	return false
}

func (s Status) IsTerminal() bool {
	return s != StatusActive
}

// Hold is a time-bounded exclusive claim on seats for one buyer session.
// SeatIDs keeps the order the buyer selected and never changes.
type Hold struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	BuyerSessionID string         `gorm:"type:varchar(255);index;not null" json:"buyer_session_id"`
	FloorPlanID    uuid.UUID      `gorm:"type:uuid;index;not null" json:"floor_plan_id"`
	EventID        uuid.UUID      `gorm:"type:uuid;index;not null" json:"event_id"`
	SeatIDs        pq.StringArray `gorm:"type:text[];not null" json:"seat_ids"`
	Status         Status         `gorm:"type:varchar(20);index;not null;default:'ACTIVE'" json:"status"`
	ExpiresAt      time.Time      `gorm:"not null" json:"expires_at"`
	RenewCount     int            `gorm:"not null;default:0" json:"renew_count"`
	BookingID      *uuid.UUID     `gorm:"type:uuid" json:"booking_id,omitempty"`
	EndedAt        *time.Time     `json:"ended_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// TableName sets the table name for Hold
func (Hold) TableName() string {
	return "holds"
}

// SeatUUIDs returns the held seat ids in selection order
func (h *Hold) SeatUUIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(h.SeatIDs))
	for _, raw := range h.SeatIDs {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsPastExpiry reports whether an ACTIVE hold has reached its expiry at now.
// The boundary is inclusive: a hold expiring at t is expired at t.
func (h *Hold) IsPastExpiry(now time.Time) bool {
	return h.Status == StatusActive && !now.Before(h.ExpiresAt)
}

// OwnedBy reports whether buyer may act on the hold. An empty buyer is an
// internal caller.
func (h *Hold) OwnedBy(buyer string) bool {
	return buyer == "" || h.BuyerSessionID == buyer
}

func toStringArray(ids []uuid.UUID) pq.StringArray {
	out := make(pq.StringArray, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
