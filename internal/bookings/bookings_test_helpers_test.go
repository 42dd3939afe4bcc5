package bookings

import (
	"context"
	"sync"
	"testing"
	"time"

	"seatengine/internal/holds"
	"seatengine/internal/pricing"
	"seatengine/internal/promos"
	"seatengine/internal/seatevents"
	"seatengine/internal/seats"
	"seatengine/internal/shared/memstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	testFloorPlan = uuid.MustParse("5a0d9b10-1111-4b8e-9f00-000000000001")
	testEvent     = uuid.MustParse("5a0d9b10-2222-4b8e-9f00-000000000002")
	testStart     = time.Date(2026, 5, 2, 19, 30, 0, 0, time.UTC)
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type recordingPublisher struct {
	seatevents.NoopPublisher
	mu       sync.Mutex
	bookings []*seatevents.BookingEvent
	seats    []*seatevents.SeatEvent
}

func (p *recordingPublisher) PublishSeatEvent(_ context.Context, e *seatevents.SeatEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.seats = append(p.seats, e)
	return nil
}

func (p *recordingPublisher) PublishBookingEvent(_ context.Context, e *seatevents.BookingEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.bookings = append(p.bookings, e)
	return nil
}

type testEnv struct {
	service   Service
	repo      Repository
	holds     *holds.Manager
	seats     seats.Service
	seatRepo  seats.Repository
	promos    promos.Service
	publisher *recordingPublisher
	clock     *testClock
	seatIDs   []uuid.UUID
}

// newTestEnv wires the engine over in-memory stores with n seats priced at 1000
func newTestEnv(t *testing.T, n int) *testEnv {
	t.Helper()

	all := make([]seats.Seat, n)
	ids := make([]uuid.UUID, n)
	for i := range all {
		all[i] = seats.Seat{
			ID:          uuid.New(),
			FloorPlanID: testFloorPlan,
			EventID:     testEvent,
			Section:     "Floor",
			RowNumber:   "A",
			SeatNumber:  i + 1,
			SeatType:    seats.SeatTypeChair,
			Tier:        seats.TierGeneral,
			BasePrice:   1000,
			Status:      seats.StatusAvailable,
		}
		ids[i] = all[i].ID
	}

	seatRepo := seats.NewMemoryRepository()
	require.NoError(t, seatRepo.CreateSeats(context.Background(), all))

	clock := &testClock{now: testStart}
	publisher := &recordingPublisher{}
	tx := memstore.NewTransactor()
	resolver := seats.NewResolver(seatRepo, tx)
	broadcaster := seats.NewBroadcaster(nil, publisher)
	seatService := seats.NewService(seatRepo, resolver, broadcaster, nil, 0)

	manager := holds.NewManager(holds.NewMemoryRepository(), seatService, resolver, tx, broadcaster, holds.Policy{
		TTL:         120 * time.Second,
		MaxLifetime: 10 * time.Minute,
		MaxSeats:    10,
	}, holds.WithClock(clock.Now))

	promoService := promos.NewService(promos.NewMemoryRepository(), promos.WithClock(clock.Now))
	rates := pricing.NewService(pricing.NewMemoryRateRepository(), pricing.Rates{
		FeeRateBps: 500,
		TaxRateBps: 1800,
		Currency:   "INR",
	})

	repo := NewMemoryRepository()
	service := NewService(Dependencies{
		Repo:        repo,
		Holds:       manager,
		Seats:       seatService,
		Resolver:    resolver,
		Rates:       rates,
		Promos:      promoService,
		Tx:          tx,
		Broadcaster: broadcaster,
		Publisher:   publisher,
	})

	return &testEnv{
		service:   service,
		repo:      repo,
		holds:     manager,
		seats:     seatService,
		seatRepo:  seatRepo,
		promos:    promoService,
		publisher: publisher,
		clock:     clock,
		seatIDs:   ids,
	}
}

func (e *testEnv) hold(t *testing.T, buyer string, ids ...uuid.UUID) *holds.Hold {
	t.Helper()
	hold, err := e.holds.CreateHold(context.Background(), holds.CreateHoldInput{
		FloorPlanID:    testFloorPlan,
		SeatIDs:        ids,
		BuyerSessionID: buyer,
	})
	require.NoError(t, err)
	return hold
}

func (e *testEnv) promo(t *testing.T, code string, kind pricing.DiscountKind, value int64, usageCap *int64) *promos.PromoCode {
	t.Helper()
	promo, err := e.promos.CreatePromo(context.Background(), promos.CreatePromoRequest{
		Code:     code,
		Kind:     kind,
		Value:    value,
		UsageCap: usageCap,
	}, "ADMIN:test")
	require.NoError(t, err)
	return promo
}

func (e *testEnv) usageCount(t *testing.T, id uuid.UUID) int64 {
	t.Helper()
	promo, err := e.promos.GetPromo(context.Background(), id)
	require.NoError(t, err)
	return promo.UsageCount
}

func (e *testEnv) seatsByID(t *testing.T, ids ...uuid.UUID) map[uuid.UUID]seats.Seat {
	t.Helper()
	got, err := e.seatRepo.GetSeatsByIDs(context.Background(), ids)
	require.NoError(t, err)
	out := make(map[uuid.UUID]seats.Seat, len(got))
	for _, s := range got {
		out[s.ID] = s
	}
	return out
}

func int64Ptr(v int64) *int64 {
	return &v
}
