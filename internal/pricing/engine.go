// Package pricing computes seat price breakdowns in integer minor units.
//
// Rates and percentage discounts are expressed in basis points (1/100 of a
// percent). Every multiplication by a rate is rounded half-up with
// RoundHalfUp, which is the only rounding function in the package, so a
// preview and a booking snapshot computed from the same inputs are identical.
package pricing

import "github.com/google/uuid"

// BasisPoints is the denominator of every rate: 10000 bps = 100%
const BasisPoints int64 = 10000

// DiscountKind is how a promo reduces the subtotal
type DiscountKind string

const (
	DiscountPercentage DiscountKind = "PERCENTAGE"
	DiscountFixed      DiscountKind = "FIXED"
)

func (k DiscountKind) IsValid() bool {
	return k == DiscountPercentage || k == DiscountFixed
}

// Discount is a validated promo rule. Value is basis points for PERCENTAGE
// and minor units for FIXED.
type Discount struct {
	Code  string       `json:"code"`
	Kind  DiscountKind `json:"kind"`
	Value int64        `json:"value"`
}

// Rates are the fee and tax rates applied to every seat
type Rates struct {
	FeeRateBps int64  `json:"fee_rate_bps"`
	TaxRateBps int64  `json:"tax_rate_bps"`
	Currency   string `json:"currency"`
}

// Line is one seat to be priced
type Line struct {
	SeatID uuid.UUID
	Label  string
	Tier   string
	Base   int64
}

// SeatPrice is the per-seat part of a breakdown
type SeatPrice struct {
	SeatID uuid.UUID `json:"seat_id"`
	Label  string    `json:"label"`
	Tier   string    `json:"tier"`
	Base   int64     `json:"base"`
	Fee    int64     `json:"fee"`
	Tax    int64     `json:"tax"`
}

// Breakdown is the full price of a seat set
type Breakdown struct {
	Currency   string      `json:"currency"`
	FeeRateBps int64       `json:"fee_rate_bps"`
	TaxRateBps int64       `json:"tax_rate_bps"`
	Seats      []SeatPrice `json:"seats"`
	Subtotal   int64       `json:"subtotal"`
	FeeTotal   int64       `json:"fee_total"`
	TaxTotal   int64       `json:"tax_total"`
	Discount   int64       `json:"discount"`
	PromoCode  string      `json:"promo_code,omitempty"`
	Total      int64       `json:"total"`
}

// RoundHalfUp returns n/d rounded to the nearest integer, halves rounding up.
// n must be non-negative and d positive.
func RoundHalfUp(n, d int64) int64 {
	return (2*n + d) / (2 * d)
}

// ApplyRate returns amount * bps / 10000, rounded half-up
func ApplyRate(amount, bps int64) int64 {
	return RoundHalfUp(amount*bps, BasisPoints)
}

// Price computes the breakdown for lines. Fee is charged on base, tax on
// base+fee, both per seat. The discount is taken once from the aggregate
// subtotal and the total never goes below zero.
func Price(lines []Line, rates Rates, discount *Discount) Breakdown {
	b := Breakdown{
		Currency:   rates.Currency,
		FeeRateBps: rates.FeeRateBps,
		TaxRateBps: rates.TaxRateBps,
		Seats:      make([]SeatPrice, 0, len(lines)),
	}

	for _, line := range lines {
		fee := ApplyRate(line.Base, rates.FeeRateBps)
		tax := ApplyRate(line.Base+fee, rates.TaxRateBps)

		b.Seats = append(b.Seats, SeatPrice{
			SeatID: line.SeatID,
			Label:  line.Label,
			Tier:   line.Tier,
			Base:   line.Base,
			Fee:    fee,
			Tax:    tax,
		})
		b.Subtotal += line.Base
		b.FeeTotal += fee
		b.TaxTotal += tax
	}

	if discount != nil {
		b.Discount = discountAmount(b.Subtotal, discount)
		b.PromoCode = discount.Code
	}

	b.Total = b.Subtotal + b.FeeTotal + b.TaxTotal - b.Discount
	if b.Total < 0 {
		b.Total = 0
	}
	return b
}

func discountAmount(subtotal int64, d *Discount) int64 {
	switch d.Kind {
	case DiscountPercentage:
		return ApplyRate(subtotal, d.Value)
	case DiscountFixed:
		return min(d.Value, subtotal)
	}
	return 0
}
