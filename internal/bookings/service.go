package bookings

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"seatengine/internal/holds"
	"seatengine/internal/pricing"
	"seatengine/internal/promos"
	"seatengine/internal/seatevents"
	"seatengine/internal/seats"
	"seatengine/internal/shared/database"
	"seatengine/pkg/apperrors"
	"seatengine/pkg/logger"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// HoldManager is the part of the hold lifecycle the finalizer drives
type HoldManager interface {
	GetHold(ctx context.Context, id uuid.UUID, buyer string) (*holds.Hold, error)
	ExpireHold(ctx context.Context, id uuid.UUID) (*holds.Hold, error)
	ConvertHold(ctx context.Context, hold *holds.Hold, bookingID uuid.UUID) error
	Now() time.Time
}

// Service is the Booking Finalizer plus price quotes and booking queries
type Service interface {
	holds.Quoter

	Quote(ctx context.Context, seatIDs []uuid.UUID, promoCode string) (*pricing.Breakdown, error)
	Finalize(ctx context.Context, in FinalizeInput) (*FinalizeResult, error)
	GetBooking(ctx context.Context, id uuid.UUID, buyer string) (*Booking, error)
	ListBuyerBookings(ctx context.Context, buyer string, limit, offset int) ([]Booking, int64, error)
}

// FinalizeInput asks to convert a hold, optionally with a promo code
type FinalizeInput struct {
	HoldID         uuid.UUID
	BuyerSessionID string
	PromoCode      string
}

// FinalizeResult carries the booking. Replayed is set when the hold had
// already been converted and the existing booking is returned.
type FinalizeResult struct {
	Booking  *Booking
	Replayed bool
}

// Dependencies wires the finalizer to the other engine components
type Dependencies struct {
	Repo        Repository
	Holds       HoldManager
	Seats       seats.Service
	Resolver    *seats.Resolver
	Rates       pricing.RateProvider
	Promos      promos.Validator
	Tx          database.Transactor
	Broadcaster *seats.Broadcaster
	Publisher   seatevents.Publisher
}

type service struct {
	Dependencies
	logger *logger.Logger
}

func NewService(deps Dependencies) Service {
	if deps.Publisher == nil {
		deps.Publisher = seatevents.NoopPublisher{}
	}
	return &service{
		Dependencies: deps,
		logger:       logger.GetDefault(),
	}
}

// quote is a priced seat selection and the promo rule applied to it
type quote struct {
	rates     pricing.Rates
	rule      *promos.DiscountRule
	breakdown pricing.Breakdown
}

// Quote prices an arbitrary seat selection without touching seat state
func (s *service) Quote(ctx context.Context, seatIDs []uuid.UUID, promoCode string) (*pricing.Breakdown, error) {
	selected, err := s.Seats.GetSeatsByIDs(ctx, seatIDs)
	if err != nil {
		return nil, err
	}
	if len(selected) == 0 {
		return nil, holds.ErrNoSeatsSelected
	}
	eventID := selected[0].EventID
	for _, seat := range selected[1:] {
		if seat.EventID != eventID {
			return nil, ErrMixedEvents
		}
	}

	q, err := s.quote(ctx, eventID, selected, promoCode)
	if err != nil {
		return nil, err
	}
	return &q.breakdown, nil
}

// QuoteHold prices the seats of a hold. It is the live preview shown while
// the hold is open and uses the same rules as finalization.
func (s *service) QuoteHold(ctx context.Context, hold *holds.Hold, promoCode string) (*pricing.Breakdown, error) {
	q, err := s.quoteHold(ctx, hold, promoCode)
	if err != nil {
		return nil, err
	}
	return &q.breakdown, nil
}

func (s *service) quote(ctx context.Context, eventID uuid.UUID, selected []seats.Seat, promoCode string) (*quote, error) {
	rates, err := s.Rates.RatesFor(ctx, eventID)
	if err != nil {
		return nil, err
	}

	lines := linesFor(selected)
	var rule *promos.DiscountRule
	if code := strings.TrimSpace(promoCode); code != "" {
		rule, err = s.Promos.Validate(ctx, code, eventID.String())
		if err != nil {
			return nil, err
		}
	}

	breakdown := pricing.Price(lines, rates, rule.Discount())
	if err := rule.CheckOrder(breakdown.Subtotal); err != nil {
		return nil, err
	}
	return &quote{rates: rates, rule: rule, breakdown: breakdown}, nil
}

// linesFor orders seats by id so a selection always prices identically
func linesFor(selected []seats.Seat) []pricing.Line {
	sorted := append([]seats.Seat(nil), selected...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID.String() < sorted[j].ID.String() })

	lines := make([]pricing.Line, len(sorted))
	for i := range sorted {
		lines[i] = pricing.Line{
			SeatID: sorted[i].ID,
			Label:  sorted[i].DisplayLabel(),
			Tier:   string(sorted[i].Tier),
			Base:   sorted[i].BasePrice,
		}
	}
	return lines
}

// Finalize converts an ACTIVE hold into a booking exactly once. The seat
// transition, promo redemption, hold conversion and booking insert commit
// together or not at all. Finalizing an already converted hold returns the
// existing booking.
func (s *service) Finalize(ctx context.Context, in FinalizeInput) (*FinalizeResult, error) {
	hold, err := s.Holds.GetHold(ctx, in.HoldID, in.BuyerSessionID)
	if err != nil {
		return nil, err
	}

	switch hold.Status {
	case holds.StatusConverted:
		return s.replay(ctx, hold.ID)
	case holds.StatusExpired:
		return nil, holds.ErrHoldExpired
	case holds.StatusReleased:
		return nil, holds.ErrHoldReleased
	}

	// Promo and rates are resolved before any seat is touched
	preview, err := s.quoteHold(ctx, hold, in.PromoCode)
	if err != nil {
		return nil, err
	}

	bookingID := uuid.New()
	actor := "buyer:" + hold.BuyerSessionID
	var (
		booking *Booking
		booked  []seats.Seat
	)

	err = s.Tx.WithinTransaction(ctx, func(ctx context.Context) error {
		updated, err := s.Resolver.TryTransition(ctx, seats.Transition{
			SeatIDs:   hold.SeatUUIDs(),
			From:      []seats.Source{seats.HeldBy(hold.ID)},
			To:        seats.StatusBooked,
			BookingID: &bookingID,
			Actor:     actor,
		})
		if err != nil {
			return err
		}

		breakdown := pricing.Price(linesFor(updated), preview.rates, preview.rule.Discount())
		if err := preview.rule.CheckOrder(breakdown.Subtotal); err != nil {
			return err
		}
		if err := s.Promos.Redeem(ctx, preview.rule, bookingID, breakdown.Discount); err != nil {
			return err
		}
		if err := s.Holds.ConvertHold(ctx, hold, bookingID); err != nil {
			return err
		}

		reference, err := generateBookingReference(s.Holds.Now())
		if err != nil {
			return apperrors.Fatal(err, "failed to generate booking reference")
		}
		booking = newBooking(bookingID, reference, hold, breakdown, s.Holds.Now())
		if err := s.Repo.CreateBooking(ctx, booking); err != nil {
			if errors.Is(err, errDuplicate) {
				return err
			}
			return apperrors.Fatal(err, "failed to persist booking")
		}
		booked = updated
		return nil
	})
	if err != nil {
		return s.finalizeFailed(ctx, hold, err)
	}

	s.Broadcaster.SeatsChanged(ctx, seats.Change{
		Type:      seatevents.EventSeatsBooked,
		Seats:     booked,
		HoldID:    &hold.ID,
		BookingID: &bookingID,
		Actor:     actor,
	})
	s.publish(ctx, booking)
	s.logger.LogBookingCreated(ctx, booking.ID.String(), hold.ID.String(), booking.BuyerSessionID, booking.Total)

	return &FinalizeResult{Booking: booking}, nil
}

// quoteHold resolves rates and promo for a hold without touching seat state
func (s *service) quoteHold(ctx context.Context, hold *holds.Hold, promoCode string) (*quote, error) {
	selected, err := s.Seats.GetSeatsByIDs(ctx, hold.SeatUUIDs())
	if err != nil {
		return nil, err
	}
	return s.quote(ctx, hold.EventID, selected, promoCode)
}

// finalizeFailed maps a rolled back finalization. A concurrent finalize of
// the same hold that won the race is reported as its booking; an expiry that
// raced the request releases the seats before reporting HOLD_EXPIRED.
func (s *service) finalizeFailed(ctx context.Context, hold *holds.Hold, err error) (*FinalizeResult, error) {
	if errors.Is(err, errDuplicate) || errors.Is(err, holds.ErrHoldConverted) || apperrors.IsContention(err) {
		if existing, lookupErr := s.Repo.GetBookingByHoldID(ctx, hold.ID); lookupErr == nil {
			return &FinalizeResult{Booking: existing, Replayed: true}, nil
		}
	}
	if errors.Is(err, errDuplicate) {
		return nil, apperrors.Fatal(err, "failed to persist booking")
	}

	if errors.Is(err, holds.ErrHoldExpired) {
		if _, expireErr := s.Holds.ExpireHold(ctx, hold.ID); expireErr != nil {
			s.logger.ErrorWithContext(ctx, "Failed to expire hold after late finalize", expireErr, map[string]interface{}{
				"hold_id": hold.ID.String(),
			})
		}
	}
	return nil, err
}

func (s *service) replay(ctx context.Context, holdID uuid.UUID) (*FinalizeResult, error) {
	existing, err := s.Repo.GetBookingByHoldID(ctx, holdID)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, holds.ErrHoldConverted
		}
		return nil, apperrors.Fatal(err, "failed to load booking")
	}
	return &FinalizeResult{Booking: existing, Replayed: true}, nil
}

func (s *service) publish(ctx context.Context, booking *Booking) {
	event := &seatevents.BookingEvent{
		ID:         uuid.New(),
		Type:       seatevents.EventBookingConfirmed,
		BookingID:  booking.ID,
		Reference:  booking.Reference,
		HoldID:     booking.HoldID,
		BuyerID:    booking.BuyerSessionID,
		EventID:    booking.EventID,
		SeatIDs:    booking.SeatUUIDs(),
		Total:      booking.Total,
		Currency:   booking.Currency,
		PromoCode:  booking.PromoCode,
		OccurredAt: booking.CreatedAt,
	}
	if err := s.Publisher.PublishBookingEvent(ctx, event); err != nil {
		s.logger.ErrorWithContext(ctx, "Failed to publish booking event", err, map[string]interface{}{
			"booking_id": booking.ID.String(),
		})
	}
}

// newBooking keeps the hold's seat order; the price lines stay in id order.
func newBooking(id uuid.UUID, reference string, hold *holds.Hold, breakdown pricing.Breakdown, now time.Time) *Booking {
	seatIDs := append(pq.StringArray(nil), hold.SeatIDs...)
	return &Booking{
		ID:             id,
		Reference:      reference,
		HoldID:         hold.ID,
		BuyerSessionID: hold.BuyerSessionID,
		EventID:        hold.EventID,
		FloorPlanID:    hold.FloorPlanID,
		SeatIDs:        seatIDs,
		Status:         StatusConfirmed,
		Currency:       breakdown.Currency,
		Subtotal:       breakdown.Subtotal,
		FeeTotal:       breakdown.FeeTotal,
		TaxTotal:       breakdown.TaxTotal,
		Discount:       breakdown.Discount,
		Total:          breakdown.Total,
		PromoCode:      breakdown.PromoCode,
		Price:          breakdown,
		CreatedAt:      now,
	}
}

// GetBooking returns a booking the buyer owns. An empty buyer reads any booking.
func (s *service) GetBooking(ctx context.Context, id uuid.UUID, buyer string) (*Booking, error) {
	booking, err := s.Repo.GetBookingByID(ctx, id)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, ErrBookingNotFound
		}
		return nil, apperrors.Fatal(err, "failed to load booking")
	}
	if !booking.OwnedBy(buyer) {
		return nil, ErrBookingNotFound
	}
	return booking, nil
}

// ListBuyerBookings returns one page of the buyer's bookings, newest first
func (s *service) ListBuyerBookings(ctx context.Context, buyer string, limit, offset int) ([]Booking, int64, error) {
	if limit <= 0 {
		limit = 10
	}
	if offset < 0 {
		offset = 0
	}
	bookings, total, err := s.Repo.ListBuyerBookings(ctx, buyer, limit, offset)
	if err != nil {
		return nil, 0, apperrors.Fatal(err, "failed to list bookings")
	}
	return bookings, total, nil
}

// generateBookingReference generates a booking reference BK-YYYYMMDD-XXXXXX
func generateBookingReference(now time.Time) (string, error) {
	const letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	randomPart := make([]byte, 6)

	for i := range randomPart {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		randomPart[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("BK-%s-%s", now.UTC().Format("20060102"), string(randomPart)), nil
}
