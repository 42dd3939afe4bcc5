package seats

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"seatengine/internal/shared/memstore"

	"github.com/google/uuid"
)

// memoryRepository keeps seats in process. Row locks come from a per-seat
// LockTable, so transitions over disjoint seats never wait on each other.
type memoryRepository struct {
	mu    sync.RWMutex
	seats map[uuid.UUID]Seat
	locks *memstore.LockTable
}

// NewMemoryRepository returns an in-process Seat Store
func NewMemoryRepository() Repository {
	return &memoryRepository{
		seats: make(map[uuid.UUID]Seat),
		locks: memstore.NewLockTable(),
	}
}

func (r *memoryRepository) CreateSeats(ctx context.Context, seats []Seat) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	for i := range seats {
		if seats[i].ID == uuid.Nil {
			seats[i].ID = uuid.New()
		}
		if seats[i].Status == "" {
			seats[i].Status = StatusAvailable
		}
		seats[i].CreatedAt = now
		seats[i].UpdatedAt = now
		r.seats[seats[i].ID] = seats[i]
	}
	return nil
}

func (r *memoryRepository) GetSeatByID(ctx context.Context, id uuid.UUID) (*Seat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	seat, ok := r.seats[id]
	if !ok {
		return nil, ErrSeatNotFound
	}
	return &seat, nil
}

func (r *memoryRepository) GetSeatsByFloorPlan(ctx context.Context, floorPlanID uuid.UUID, filter SeatFilter) ([]Seat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []Seat
	for _, seat := range r.seats {
		if seat.FloorPlanID == floorPlanID && filter.Matches(&seat) {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Section != out[j].Section {
			return out[i].Section < out[j].Section
		}
		if out[i].RowNumber != out[j].RowNumber {
			return out[i].RowNumber < out[j].RowNumber
		}
		return out[i].SeatNumber < out[j].SeatNumber
	})
	return out, nil
}

func (r *memoryRepository) GetSeatsByIDs(ctx context.Context, ids []uuid.UUID) ([]Seat, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.collect(ids), nil
}

func (r *memoryRepository) LockSeatsForUpdate(ctx context.Context, ids []uuid.UUID) ([]Seat, error) {
	if !memstore.InTransaction(ctx) {
		return nil, errors.New("LockSeatsForUpdate requires a transaction")
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}
	r.locks.Acquire(ctx, keys)

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.collect(ids), nil
}

func (r *memoryRepository) SaveSeatState(ctx context.Context, seat *Seat, expectedVersion int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.seats[seat.ID]
	if !ok || current.Version != expectedVersion {
		return errVersionMismatch
	}

	next := current
	next.Status = seat.Status
	next.HoldID = seat.HoldID
	next.BookingID = seat.BookingID
	next.Version = seat.Version
	next.UpdatedAt = time.Now().UTC()
	r.seats[seat.ID] = next

	memstore.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.seats[current.ID] = current
	})
	return nil
}

// collect returns the existing seats among ids in id order. Caller holds mu.
func (r *memoryRepository) collect(ids []uuid.UUID) []Seat {
	out := make([]Seat, 0, len(ids))
	for _, id := range ids {
		if seat, ok := r.seats[id]; ok {
			out = append(out, seat)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out
}
