package promos

import (
	"context"
	"sort"
	"sync"
	"time"

	"seatengine/internal/shared/memstore"

	"github.com/google/uuid"
)

type memoryRepository struct {
	mu          sync.Mutex
	promos      map[uuid.UUID]PromoCode
	redemptions map[uuid.UUID]PromoRedemption // by booking id
}

// NewMemoryRepository returns an in-process promo Repository
func NewMemoryRepository() Repository {
	return &memoryRepository{
		promos:      make(map[uuid.UUID]PromoCode),
		redemptions: make(map[uuid.UUID]PromoRedemption),
	}
}

func (r *memoryRepository) CreatePromo(ctx context.Context, promo *PromoCode) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.promos {
		if existing.Code == promo.Code && existing.Scope == promo.Scope {
			return errDuplicateCode
		}
	}
	if promo.ID == uuid.Nil {
		promo.ID = uuid.New()
	}
	now := time.Now().UTC()
	promo.CreatedAt = now
	promo.UpdatedAt = now
	r.promos[promo.ID] = *promo

	id := promo.ID
	memstore.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.promos, id)
	})
	return nil
}

func (r *memoryRepository) GetPromoByID(ctx context.Context, id uuid.UUID) (*PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	promo, ok := r.promos[id]
	if !ok {
		return nil, errNotFound
	}
	return &promo, nil
}

func (r *memoryRepository) FindPromo(ctx context.Context, code, scope string) (*PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	code = NormalizeCode(code)
	var global *PromoCode
	for _, promo := range r.promos {
		if promo.Code != code {
			continue
		}
		if promo.Scope == scope {
			p := promo
			return &p, nil
		}
		if promo.Scope == "" {
			p := promo
			global = &p
		}
	}
	if global == nil {
		return nil, errNotFound
	}
	return global, nil
}

func (r *memoryRepository) ListPromos(ctx context.Context, scope string) ([]PromoCode, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []PromoCode
	for _, promo := range r.promos {
		if scope == "" || promo.Scope == scope {
			out = append(out, promo)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *memoryRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	return r.update(ctx, id, func(p *PromoCode) bool {
		p.Active = false
		return true
	})
}

func (r *memoryRepository) IncrementUsage(ctx context.Context, id uuid.UUID) (bool, error) {
	incremented := false
	err := r.update(ctx, id, func(p *PromoCode) bool {
		if !p.Active || (p.UsageCap != nil && p.UsageCount >= *p.UsageCap) {
			return false
		}
		p.UsageCount++
		incremented = true
		return true
	})
	if err == errNotFound {
		return false, nil
	}
	return incremented, err
}

// update applies fn under the lock and journals the previous row
func (r *memoryRepository) update(ctx context.Context, id uuid.UUID, fn func(p *PromoCode) bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	previous, ok := r.promos[id]
	if !ok {
		return errNotFound
	}
	next := previous
	if !fn(&next) {
		return nil
	}
	next.UpdatedAt = time.Now().UTC()
	r.promos[id] = next

	memstore.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.promos[id] = previous
	})
	return nil
}

func (r *memoryRepository) GetRedemptionByBooking(ctx context.Context, bookingID uuid.UUID) (*PromoRedemption, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	redemption, ok := r.redemptions[bookingID]
	if !ok {
		return nil, errRedemptionNotFound
	}
	return &redemption, nil
}

func (r *memoryRepository) CreateRedemption(ctx context.Context, redemption *PromoRedemption) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.redemptions[redemption.BookingID]; exists {
		return errDuplicateRedemption
	}
	if redemption.ID == uuid.Nil {
		redemption.ID = uuid.New()
	}
	redemption.CreatedAt = time.Now().UTC()
	r.redemptions[redemption.BookingID] = *redemption

	bookingID := redemption.BookingID
	memstore.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		delete(r.redemptions, bookingID)
	})
	return nil
}
