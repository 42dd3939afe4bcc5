package holds

import (
	"context"
	"sync"
	"testing"
	"time"

	"seatengine/internal/seats"
	"seatengine/internal/shared/memstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var (
	testFloorPlan = uuid.MustParse("0b7e3c52-1111-4f0a-8c1e-000000000001")
	testEvent     = uuid.MustParse("0b7e3c52-2222-4f0a-8c1e-000000000002")
	testStart     = time.Date(2026, 3, 14, 18, 0, 0, 0, time.UTC)
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

type testEnv struct {
	manager  *Manager
	holds    Repository
	seats    seats.Repository
	seatIDs  []uuid.UUID
	clock    *testClock
	resolver *seats.Resolver
}

func testPolicy() Policy {
	return Policy{
		TTL:         120 * time.Second,
		MaxLifetime: 5 * time.Minute,
		MaxSeats:    6,
		SweepBatch:  2,
	}
}

// newTestEnv builds a manager over in-memory stores with n GENERAL seats
// followed by one VIP seat
func newTestEnv(t *testing.T, policy Policy, n int) *testEnv {
	t.Helper()

	var all []seats.Seat
	for i := 0; i < n; i++ {
		all = append(all, newSeat("A", i+1, seats.TierGeneral))
	}
	all = append(all, newSeat("VIP", 1, seats.TierVIP))

	seatRepo := seats.NewMemoryRepository()
	require.NoError(t, seatRepo.CreateSeats(context.Background(), all))

	tx := memstore.NewTransactor()
	resolver := seats.NewResolver(seatRepo, tx)
	broadcaster := seats.NewBroadcaster(nil, nil)
	seatService := seats.NewService(seatRepo, resolver, broadcaster, nil, 0)

	clock := &testClock{now: testStart}
	holdRepo := NewMemoryRepository()
	manager := NewManager(holdRepo, seatService, resolver, tx, broadcaster, policy, WithClock(clock.Now))

	ids := make([]uuid.UUID, len(all))
	for i := range all {
		ids[i] = all[i].ID
	}
	return &testEnv{
		manager:  manager,
		holds:    holdRepo,
		seats:    seatRepo,
		seatIDs:  ids,
		clock:    clock,
		resolver: resolver,
	}
}

func newSeat(section string, number int, tier seats.Tier) seats.Seat {
	return seats.Seat{
		ID:          uuid.New(),
		FloorPlanID: testFloorPlan,
		EventID:     testEvent,
		Section:     section,
		RowNumber:   "1",
		SeatNumber:  number,
		SeatType:    seats.SeatTypeChair,
		Tier:        tier,
		BasePrice:   1000,
		Status:      seats.StatusAvailable,
	}
}

func (e *testEnv) vipSeat() uuid.UUID {
	return e.seatIDs[len(e.seatIDs)-1]
}

func (e *testEnv) hold(t *testing.T, buyer string, ids ...uuid.UUID) *Hold {
	t.Helper()
	hold, err := e.manager.CreateHold(context.Background(), CreateHoldInput{
		FloorPlanID:    testFloorPlan,
		SeatIDs:        ids,
		BuyerSessionID: buyer,
	})
	require.NoError(t, err)
	return hold
}

func (e *testEnv) seatStatuses(t *testing.T, ids ...uuid.UUID) []seats.Status {
	t.Helper()
	got, err := e.seats.GetSeatsByIDs(context.Background(), ids)
	require.NoError(t, err)

	byID := make(map[uuid.UUID]seats.Status, len(got))
	for _, s := range got {
		byID[s.ID] = s.Status
	}
	out := make([]seats.Status, len(ids))
	for i, id := range ids {
		out[i] = byID[id]
	}
	return out
}

func repeat(status seats.Status, n int) []seats.Status {
	out := make([]seats.Status, n)
	for i := range out {
		out[i] = status
	}
	return out
}
