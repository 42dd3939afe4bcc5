package holds

import (
	"context"
	"sort"
	"sync"
	"time"

	"seatengine/internal/shared/memstore"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type memoryRepository struct {
	mu     sync.Mutex
	holds  map[uuid.UUID]Hold
	buyers *memstore.LockTable
}

// NewMemoryRepository returns an in-process hold Repository
func NewMemoryRepository() Repository {
	return &memoryRepository{
		holds:  make(map[uuid.UUID]Hold),
		buyers: memstore.NewLockTable(),
	}
}

func clone(h Hold) Hold {
	h.SeatIDs = append(pq.StringArray(nil), h.SeatIDs...)
	return h
}

func (r *memoryRepository) CreateHold(ctx context.Context, hold *Hold) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	hold.UpdatedAt = hold.CreatedAt
	r.holds[hold.ID] = clone(*hold)

	id := hold.ID
	memstore.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.holds, id)
	})
	return nil
}

func (r *memoryRepository) LockBuyer(ctx context.Context, buyer string) error {
	if !memstore.InTransaction(ctx) {
		return errNoTransaction
	}
	r.buyers.Acquire(ctx, []string{buyer})
	return nil
}

func (r *memoryRepository) GetHoldByID(ctx context.Context, id uuid.UUID) (*Hold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	hold, ok := r.holds[id]
	if !ok {
		return nil, errNotFound
	}
	out := clone(hold)
	return &out, nil
}

func (r *memoryRepository) ListHoldsByBuyer(ctx context.Context, buyer string, status Status) ([]Hold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Hold
	for _, hold := range r.holds {
		if hold.BuyerSessionID == buyer && (status == "" || hold.Status == status) {
			out = append(out, clone(hold))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) ListExpiredActive(ctx context.Context, now time.Time, limit int) ([]Hold, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []Hold
	for _, hold := range r.holds {
		if hold.IsPastExpiry(now) {
			out = append(out, clone(hold))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ExpiresAt.Before(out[j].ExpiresAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *memoryRepository) ExtendHold(ctx context.Context, id uuid.UUID, now, expiresAt time.Time) (bool, error) {
	return r.update(ctx, id, func(h *Hold) bool {
		if h.Status != StatusActive || h.IsPastExpiry(now) {
			return false
		}
		h.ExpiresAt = expiresAt
		h.RenewCount++
		h.UpdatedAt = now
		return true
	})
}

func (r *memoryRepository) FinishHold(ctx context.Context, id uuid.UUID, to Status, now time.Time, bookingID *uuid.UUID) (bool, error) {
	return r.update(ctx, id, func(h *Hold) bool {
		if h.Status != StatusActive {
			return false
		}
		if to == StatusExpired && !h.IsPastExpiry(now) {
			return false
		}
		if to == StatusConverted && h.IsPastExpiry(now) {
			return false
		}
		ended := now
		h.Status = to
		h.BookingID = bookingID
		h.EndedAt = &ended
		h.UpdatedAt = now
		return true
	})
}

// update applies fn to the stored hold and journals the previous version
func (r *memoryRepository) update(ctx context.Context, id uuid.UUID, fn func(h *Hold) bool) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, ok := r.holds[id]
	if !ok {
		return false, nil
	}
	next := clone(previous)
	if !fn(&next) {
		return false, nil
	}
	r.holds[id] = next

	memstore.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.holds[id] = previous
	})
	return true, nil
}
