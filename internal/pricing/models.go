package pricing

import (
	"time"

	"github.com/google/uuid"
)

// EventRates overrides the configured fee and tax rates for one event
type EventRates struct {
	EventID    uuid.UUID `gorm:"type:uuid;primaryKey" json:"event_id"`
	FeeRateBps int64     `gorm:"not null;check:fee_rate_bps >= 0 AND fee_rate_bps <= 10000" json:"fee_rate_bps"`
	TaxRateBps int64     `gorm:"not null;check:tax_rate_bps >= 0 AND tax_rate_bps <= 10000" json:"tax_rate_bps"`
	Currency   string    `gorm:"type:varchar(3);not null" json:"currency"`
	UpdatedBy  string    `gorm:"type:varchar(255)" json:"updated_by"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName sets the table name for EventRates
func (EventRates) TableName() string {
	return "event_rates"
}

func (r *EventRates) Rates() Rates {
	return Rates{
		FeeRateBps: r.FeeRateBps,
		TaxRateBps: r.TaxRateBps,
		Currency:   r.Currency,
	}
}

// SetRatesRequest is the body of PUT /admin/events/:eventId/rates
type SetRatesRequest struct {
	FeeRateBps *int64 `json:"fee_rate_bps" binding:"required,min=0,max=10000"`
	TaxRateBps *int64 `json:"tax_rate_bps" binding:"required,min=0,max=10000"`
	Currency   string `json:"currency" binding:"omitempty,len=3,alpha"`
}
