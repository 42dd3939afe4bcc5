package bookings

import (
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"seatengine/internal/holds"
	"seatengine/internal/pricing"
	"seatengine/internal/promos"
	"seatengine/internal/seatevents"
	"seatengine/internal/seats"
	"seatengine/pkg/apperrors"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFinalize_BooksHeldSeats(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()
	hold := env.hold(t, "buyer-1", env.seatIDs[0])

	result, err := env.service.Finalize(ctx, FinalizeInput{HoldID: hold.ID, BuyerSessionID: "buyer-1"})
	require.NoError(t, err)
	assert.False(t, result.Replayed)

	booking := result.Booking
	assert.Equal(t, int64(1000), booking.Subtotal)
	assert.Equal(t, int64(50), booking.FeeTotal)
	assert.Equal(t, int64(189), booking.TaxTotal)
	assert.Equal(t, int64(1239), booking.Total)
	assert.Equal(t, "INR", booking.Currency)
	assert.Equal(t, hold.ID, booking.HoldID)
	assert.Regexp(t, `^BK-20260502-[A-Z2-9]{6}$`, booking.Reference)

	seat := env.seatsByID(t, env.seatIDs[0])[env.seatIDs[0]]
	assert.Equal(t, seats.StatusBooked, seat.Status)
	require.NotNil(t, seat.BookingID)
	assert.Equal(t, booking.ID, *seat.BookingID)
	assert.Nil(t, seat.HoldID)

	converted, err := env.holds.GetHold(ctx, hold.ID, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, holds.StatusConverted, converted.Status)
	require.NotNil(t, converted.BookingID)
	assert.Equal(t, booking.ID, *converted.BookingID)

	require.Len(t, env.publisher.bookings, 1)
	assert.Equal(t, seatevents.EventBookingConfirmed, env.publisher.bookings[0].Type)
	assert.Equal(t, booking.Reference, env.publisher.bookings[0].Reference)
	assert.Equal(t, seatevents.EventSeatsBooked, env.publisher.seats[len(env.publisher.seats)-1].Type)
}

func TestFinalize_KeepsHoldSeatOrder(t *testing.T) {
	env := newTestEnv(t, 3)
	ids := append([]uuid.UUID(nil), env.seatIDs...)
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() > ids[j].String() })
	hold := env.hold(t, "buyer-1", ids...)

	result, err := env.service.Finalize(context.Background(), FinalizeInput{HoldID: hold.ID, BuyerSessionID: "buyer-1"})
	require.NoError(t, err)

	assert.Equal(t, []string(hold.SeatIDs), []string(result.Booking.SeatIDs))
	assert.Equal(t, ids, result.Booking.SeatUUIDs())

	lines := result.Booking.Price.Seats
	require.Len(t, lines, 3)
	for i := 1; i < len(lines); i++ {
		assert.Less(t, lines[i-1].SeatID.String(), lines[i].SeatID.String(), "price lines stay in id order")
	}
}

func TestFinalize_WithPercentagePromo(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()
	promo := env.promo(t, "SAVE10", pricing.DiscountPercentage, 1000, nil)
	hold := env.hold(t, "buyer-1", env.seatIDs[0])

	preview, err := env.service.QuoteHold(ctx, hold, "save10")
	require.NoError(t, err)
	assert.Equal(t, int64(0), env.usageCount(t, promo.ID), "previews never count usage")

	result, err := env.service.Finalize(ctx, FinalizeInput{HoldID: hold.ID, BuyerSessionID: "buyer-1", PromoCode: "Save10"})
	require.NoError(t, err)

	assert.Equal(t, int64(100), result.Booking.Discount)
	assert.Equal(t, int64(1139), result.Booking.Total)
	assert.Equal(t, "SAVE10", result.Booking.PromoCode)
	assert.Equal(t, *preview, result.Booking.Price, "preview and snapshot agree for the same inputs")
	assert.Equal(t, int64(1), env.usageCount(t, promo.ID))
}

func TestFinalize_RetryReturnsExistingBooking(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()
	promo := env.promo(t, "ONCE", pricing.DiscountFixed, 200, nil)
	hold := env.hold(t, "buyer-1", env.seatIDs[0])
	in := FinalizeInput{HoldID: hold.ID, BuyerSessionID: "buyer-1", PromoCode: "ONCE"}

	first, err := env.service.Finalize(ctx, in)
	require.NoError(t, err)
	second, err := env.service.Finalize(ctx, in)
	require.NoError(t, err)

	assert.True(t, second.Replayed)
	assert.Equal(t, first.Booking.ID, second.Booking.ID)
	assert.Equal(t, int64(1), env.usageCount(t, promo.ID))
	assert.Len(t, env.publisher.bookings, 1)
}

func TestFinalize_ConcurrentRetriesBookOnce(t *testing.T) {
	env := newTestEnv(t, 2)
	promo := env.promo(t, "RACE", pricing.DiscountPercentage, 500, nil)
	hold := env.hold(t, "buyer-1", env.seatIDs...)

	const attempts = 8
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		ids = make(map[uuid.UUID]int)
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result, err := env.service.Finalize(context.Background(), FinalizeInput{HoldID: hold.ID, BuyerSessionID: "buyer-1", PromoCode: "RACE"})
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			defer mu.Unlock()
			ids[result.Booking.ID]++
		}()
	}
	wg.Wait()

	assert.Len(t, ids, 1, "every attempt sees the same booking")
	assert.Equal(t, int64(1), env.usageCount(t, promo.ID))
}

func TestFinalize_ExpiredHold(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()
	hold := env.hold(t, "buyer-1", env.seatIDs...)

	env.clock.Advance(130 * time.Second)
	_, err := env.service.Finalize(ctx, FinalizeInput{HoldID: hold.ID, BuyerSessionID: "buyer-1"})

	assert.ErrorIs(t, err, holds.ErrHoldExpired)
	for _, seat := range env.seatsByID(t, env.seatIDs...) {
		assert.Equal(t, seats.StatusAvailable, seat.Status)
	}
	_, err = env.repo.GetBookingByHoldID(ctx, hold.ID)
	assert.ErrorIs(t, err, errNotFound)
}

func TestFinalize_PromoAtUsageCap(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()
	promo := env.promo(t, "LIMITED", pricing.DiscountFixed, 300, int64Ptr(1))

	first := env.hold(t, "buyer-1", env.seatIDs[0])
	_, err := env.service.Finalize(ctx, FinalizeInput{HoldID: first.ID, BuyerSessionID: "buyer-1", PromoCode: "LIMITED"})
	require.NoError(t, err)

	second := env.hold(t, "buyer-2", env.seatIDs[1])
	_, err = env.service.Finalize(ctx, FinalizeInput{HoldID: second.ID, BuyerSessionID: "buyer-2", PromoCode: "LIMITED"})

	require.Error(t, err)
	assert.ErrorIs(t, err, promos.ErrPromoInvalid)
	assert.Equal(t, promos.ReasonUsageExceeded, promos.ReasonFrom(err))
	assert.Equal(t, int64(1), env.usageCount(t, promo.ID))

	stillHeld, err := env.holds.GetHold(ctx, second.ID, "buyer-2")
	require.NoError(t, err)
	assert.Equal(t, holds.StatusActive, stillHeld.Status)
	assert.Equal(t, seats.StatusHeld, env.seatsByID(t, env.seatIDs[1])[env.seatIDs[1]].Status)
}

func TestFinalize_BlockedSeatLeavesNoPartialState(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()
	promo := env.promo(t, "BLOCKED", pricing.DiscountFixed, 100, nil)
	hold := env.hold(t, "buyer-1", env.seatIDs...)

	_, err := env.seats.BlockSeats(ctx, []uuid.UUID{env.seatIDs[1]}, "ADMIN:ops")
	require.NoError(t, err)

	_, err = env.service.Finalize(ctx, FinalizeInput{HoldID: hold.ID, BuyerSessionID: "buyer-1", PromoCode: "BLOCKED"})

	require.Error(t, err)
	assert.True(t, apperrors.IsContention(err))
	assert.ErrorIs(t, err, seats.ErrSeatsUnavailable)
	assert.Equal(t, []uuid.UUID{env.seatIDs[1]}, seats.SeatIDsFrom(err))

	assert.Equal(t, int64(0), env.usageCount(t, promo.ID))
	_, err = env.repo.GetBookingByHoldID(ctx, hold.ID)
	assert.ErrorIs(t, err, errNotFound)

	current := env.seatsByID(t, env.seatIDs...)
	assert.Equal(t, seats.StatusHeld, current[env.seatIDs[0]].Status)
	assert.Equal(t, seats.StatusBlocked, current[env.seatIDs[1]].Status)
}

func TestFinalize_UnknownOrForeignHold(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()
	hold := env.hold(t, "buyer-1", env.seatIDs[0])

	_, err := env.service.Finalize(ctx, FinalizeInput{HoldID: uuid.New(), BuyerSessionID: "buyer-1"})
	assert.ErrorIs(t, err, holds.ErrHoldNotFound)

	_, err = env.service.Finalize(ctx, FinalizeInput{HoldID: hold.ID, BuyerSessionID: "buyer-2"})
	assert.ErrorIs(t, err, holds.ErrHoldNotFound)
}

func TestFinalize_ReleasedHold(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()
	hold := env.hold(t, "buyer-1", env.seatIDs[0])

	_, err := env.holds.ReleaseHold(ctx, hold.ID, "buyer-1")
	require.NoError(t, err)

	_, err = env.service.Finalize(ctx, FinalizeInput{HoldID: hold.ID, BuyerSessionID: "buyer-1"})
	assert.ErrorIs(t, err, holds.ErrHoldReleased)
}

func TestFinalize_UnknownPromoMutatesNothing(t *testing.T) {
	env := newTestEnv(t, 1)
	ctx := context.Background()
	hold := env.hold(t, "buyer-1", env.seatIDs[0])

	_, err := env.service.Finalize(ctx, FinalizeInput{HoldID: hold.ID, BuyerSessionID: "buyer-1", PromoCode: "NOPE"})

	assert.Equal(t, promos.ReasonNotFound, promos.ReasonFrom(err))
	assert.Equal(t, seats.StatusHeld, env.seatsByID(t, env.seatIDs[0])[env.seatIDs[0]].Status)
}

func TestQuote(t *testing.T) {
	env := newTestEnv(t, 3)
	ctx := context.Background()

	first, err := env.service.Quote(ctx, env.seatIDs, "")
	require.NoError(t, err)
	second, err := env.service.Quote(ctx, []uuid.UUID{env.seatIDs[2], env.seatIDs[0], env.seatIDs[1]}, "")
	require.NoError(t, err)

	assert.Equal(t, int64(3*1239), first.Total)
	assert.Equal(t, first, second, "seat order does not change the breakdown")

	_, err = env.service.Quote(ctx, []uuid.UUID{uuid.New()}, "")
	assert.ErrorIs(t, err, seats.ErrSeatNotFound)
}

func TestGetBookingAndList(t *testing.T) {
	env := newTestEnv(t, 2)
	ctx := context.Background()

	var booked []uuid.UUID
	for _, id := range env.seatIDs {
		hold := env.hold(t, "buyer-1", id)
		result, err := env.service.Finalize(ctx, FinalizeInput{HoldID: hold.ID, BuyerSessionID: "buyer-1"})
		require.NoError(t, err)
		booked = append(booked, result.Booking.ID)
		env.clock.Advance(time.Second)
	}

	got, err := env.service.GetBooking(ctx, booked[0], "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, booked[0], got.ID)

	_, err = env.service.GetBooking(ctx, booked[0], "buyer-2")
	assert.ErrorIs(t, err, ErrBookingNotFound)

	_, err = env.service.GetBooking(ctx, booked[0], "")
	assert.NoError(t, err, "administrators read any booking")

	page, total, err := env.service.ListBuyerBookings(ctx, "buyer-1", 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
	require.Len(t, page, 1)
	assert.Equal(t, booked[1], page[0].ID, "newest first")
}
