package bookings

import (
	"time"

	"seatengine/internal/pricing"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Booking is the immutable record of a converted hold. Price is the
// breakdown captured at finalization and is never recomputed.
type Booking struct {
	ID             uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Reference      string         `gorm:"type:varchar(20);uniqueIndex;not null" json:"reference"`
	HoldID         uuid.UUID      `gorm:"type:uuid;uniqueIndex;not null" json:"hold_id"`
	BuyerSessionID string         `gorm:"type:varchar(128);index;not null" json:"buyer_session_id"`
	EventID        uuid.UUID      `gorm:"type:uuid;index;not null" json:"event_id"`
	FloorPlanID    uuid.UUID      `gorm:"type:uuid;index;not null" json:"floor_plan_id"`
	SeatIDs        pq.StringArray `gorm:"type:text[];not null" json:"seat_ids"`
	Status         Status         `gorm:"type:varchar(20);not null;default:'CONFIRMED'" json:"status"`

	Currency  string `gorm:"type:varchar(3);not null" json:"currency"`
	Subtotal  int64  `gorm:"not null" json:"subtotal"`
	FeeTotal  int64  `gorm:"not null" json:"fee_total"`
	TaxTotal  int64  `gorm:"not null" json:"tax_total"`
	Discount  int64  `gorm:"not null;default:0" json:"discount"`
	Total     int64  `gorm:"not null;check:total >= 0" json:"total"`
	PromoCode string `gorm:"type:varchar(50)" json:"promo_code,omitempty"`

	Price pricing.Breakdown `gorm:"type:jsonb;serializer:json;not null" json:"price"`

	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// SeatUUIDs parses the stored seat ids
func (b *Booking) SeatUUIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(b.SeatIDs))
	for _, raw := range b.SeatIDs {
		if id, err := uuid.Parse(raw); err == nil {
			ids = append(ids, id)
		}
	}
	return ids
}

// OwnedBy reports whether buyer may read the booking. An empty buyer is an
// administrator or internal caller.
func (b *Booking) OwnedBy(buyer string) bool {
	return buyer == "" || b.BuyerSessionID == buyer
}
