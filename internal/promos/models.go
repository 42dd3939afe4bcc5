package promos

import (
	"strings"
	"time"

	"seatengine/internal/pricing"

	"github.com/google/uuid"
)

// PromoCode is a named discount rule. Codes are stored upper case and are
// unique within a scope; an empty scope applies to every event.
type PromoCode struct {
	ID             uuid.UUID            `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Code           string               `gorm:"type:varchar(50);not null;uniqueIndex:idx_promo_scope_code" json:"code"`
	Scope          string               `gorm:"type:varchar(64);not null;default:'';uniqueIndex:idx_promo_scope_code" json:"scope"`
	Description    string               `gorm:"type:text" json:"description,omitempty"`
	Kind           pricing.DiscountKind `gorm:"type:varchar(20);not null" json:"kind"`
	Value          int64                `gorm:"not null;check:value > 0" json:"value"`
	Active         bool                 `gorm:"not null;default:true" json:"active"`
	StartsAt       *time.Time           `json:"starts_at,omitempty"`
	ExpiresAt      *time.Time           `json:"expires_at,omitempty"`
	UsageCap       *int64               `json:"usage_cap,omitempty"`
	UsageCount     int64                `gorm:"not null;default:0" json:"usage_count"`
	MinOrderAmount int64                `gorm:"not null;default:0" json:"min_order_amount"`
	CreatedBy      string               `gorm:"type:varchar(255)" json:"created_by,omitempty"`
	CreatedAt      time.Time            `json:"created_at"`
	UpdatedAt      time.Time            `json:"updated_at"`
}

// TableName sets the table name for PromoCode
func (PromoCode) TableName() string {
	return "promo_codes"
}

// NormalizeCode is the case-insensitive lookup form of a code
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// PromoRedemption records one use of a promo by one booking. The unique
// booking id is what makes usage increments idempotent.
type PromoRedemption struct {
	ID        uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	PromoID   uuid.UUID `gorm:"type:uuid;index;not null" json:"promo_id"`
	BookingID uuid.UUID `gorm:"type:uuid;uniqueIndex;not null" json:"booking_id"`
	Code      string    `gorm:"type:varchar(50);not null" json:"code"`
	Amount    int64     `gorm:"not null" json:"amount"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName sets the table name for PromoRedemption
func (PromoRedemption) TableName() string {
	return "promo_redemptions"
}

// DiscountRule is a promo that passed validation
type DiscountRule struct {
	PromoID        uuid.UUID            `json:"promo_id"`
	Code           string               `json:"code"`
	Kind           pricing.DiscountKind `json:"kind"`
	Value          int64                `json:"value"`
	MinOrderAmount int64                `json:"min_order_amount,omitempty"`
}

// Discount converts the rule for the pricing engine
func (r *DiscountRule) Discount() *pricing.Discount {
	if r == nil {
		return nil
	}
	return &pricing.Discount{Code: r.Code, Kind: r.Kind, Value: r.Value}
}

// CheckOrder rejects subtotals below the rule's minimum order amount
func (r *DiscountRule) CheckOrder(subtotal int64) error {
	if r == nil || subtotal >= r.MinOrderAmount {
		return nil
	}
	return NewInvalidError(r.Code, ReasonBelowMinimum)
}

// CreatePromoRequest is the body of POST /admin/promos
type CreatePromoRequest struct {
	Code           string               `json:"code" binding:"required,min=3,max=50,alphanum"`
	Scope          string               `json:"scope" binding:"omitempty,max=64"`
	Description    string               `json:"description" binding:"omitempty,max=500"`
	Kind           pricing.DiscountKind `json:"kind" binding:"required,oneof=PERCENTAGE FIXED"`
	Value          int64                `json:"value" binding:"required,min=1"`
	StartsAt       *time.Time           `json:"starts_at"`
	ExpiresAt      *time.Time           `json:"expires_at"`
	UsageCap       *int64               `json:"usage_cap" binding:"omitempty,min=1"`
	MinOrderAmount int64                `json:"min_order_amount" binding:"omitempty,min=0"`
}

// ValidatePromoRequest is the body of POST /promos/validate
type ValidatePromoRequest struct {
	Code  string `json:"code" binding:"required,max=50"`
	Scope string `json:"scope" binding:"omitempty,max=64"`
}
