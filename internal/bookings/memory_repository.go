package bookings

import (
	"context"
	"sort"
	"sync"

	"seatengine/internal/shared/memstore"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type memoryRepository struct {
	mu          sync.Mutex
	bookings    map[uuid.UUID]Booking
	byHold      map[uuid.UUID]uuid.UUID
	byReference map[string]uuid.UUID
}

// NewMemoryRepository returns an in-process booking Repository
func NewMemoryRepository() Repository {
	return &memoryRepository{
		bookings:    make(map[uuid.UUID]Booking),
		byHold:      make(map[uuid.UUID]uuid.UUID),
		byReference: make(map[string]uuid.UUID),
	}
}

func clone(b Booking) Booking {
	b.SeatIDs = append(pq.StringArray(nil), b.SeatIDs...)
	return b
}

func (r *memoryRepository) CreateBooking(ctx context.Context, booking *Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if booking.ID == uuid.Nil {
		booking.ID = uuid.New()
	}
	if _, dup := r.byHold[booking.HoldID]; dup {
		return errDuplicate
	}
	if _, dup := r.byReference[booking.Reference]; dup {
		return errDuplicate
	}
	if _, dup := r.bookings[booking.ID]; dup {
		return errDuplicate
	}

	r.bookings[booking.ID] = clone(*booking)
	r.byHold[booking.HoldID] = booking.ID
	r.byReference[booking.Reference] = booking.ID

	id, holdID, ref := booking.ID, booking.HoldID, booking.Reference
	memstore.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.bookings, id)
		delete(r.byHold, holdID)
		delete(r.byReference, ref)
	})
	return nil
}

func (r *memoryRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	booking, ok := r.bookings[id]
	if !ok {
		return nil, errNotFound
	}
	out := clone(booking)
	return &out, nil
}

func (r *memoryRepository) GetBookingByHoldID(ctx context.Context, holdID uuid.UUID) (*Booking, error) {
	r.mu.Lock()
	id, ok := r.byHold[holdID]
	r.mu.Unlock()
	if !ok {
		return nil, errNotFound
	}
	return r.GetBookingByID(ctx, id)
}

func (r *memoryRepository) ListBuyerBookings(ctx context.Context, buyer string, limit, offset int) ([]Booking, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var all []Booking
	for _, b := range r.bookings {
		if b.BuyerSessionID == buyer {
			all = append(all, clone(b))
		}
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	total := int64(len(all))
	if offset >= len(all) {
		return []Booking{}, total, nil
	}
	all = all[offset:]
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, total, nil
}
