package pricing

import (
	"context"
	"errors"
	"sync"
	"time"

	"seatengine/internal/shared/database"
	"seatengine/internal/shared/memstore"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var errRatesNotFound = errors.New("event rates not found")

// RateRepository stores per-event rate overrides
type RateRepository interface {
	GetEventRates(ctx context.Context, eventID uuid.UUID) (*EventRates, error)
	UpsertEventRates(ctx context.Context, rates *EventRates) error
}

type rateRepository struct {
	db *gorm.DB
}

func NewRateRepository(db *gorm.DB) RateRepository {
	return &rateRepository{db: db}
}

func (r *rateRepository) GetEventRates(ctx context.Context, eventID uuid.UUID) (*EventRates, error) {
	var rates EventRates
	err := database.Conn(ctx, r.db).First(&rates, "event_id = ?", eventID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errRatesNotFound
		}
		return nil, err
	}
	return &rates, nil
}

func (r *rateRepository) UpsertEventRates(ctx context.Context, rates *EventRates) error {
	return database.Conn(ctx, r.db).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "event_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"fee_rate_bps", "tax_rate_bps", "currency", "updated_by", "updated_at"}),
		}).
		Create(rates).Error
}

type memoryRateRepository struct {
	mu    sync.RWMutex
	rates map[uuid.UUID]EventRates
}

// NewMemoryRateRepository returns an in-process RateRepository
func NewMemoryRateRepository() RateRepository {
	return &memoryRateRepository{rates: make(map[uuid.UUID]EventRates)}
}

func (r *memoryRateRepository) GetEventRates(ctx context.Context, eventID uuid.UUID) (*EventRates, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rates, ok := r.rates[eventID]
	if !ok {
		return nil, errRatesNotFound
	}
	return &rates, nil
}

func (r *memoryRateRepository) UpsertEventRates(ctx context.Context, rates *EventRates) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now().UTC()
	previous, existed := r.rates[rates.EventID]
	if existed {
		rates.CreatedAt = previous.CreatedAt
	} else {
		rates.CreatedAt = now
	}
	rates.UpdatedAt = now
	r.rates[rates.EventID] = *rates

	memstore.OnRollback(ctx, func() {
		r.mu.Lock()
		defer r.mu.Unlock()
		if existed {
			r.rates[rates.EventID] = previous
		} else {
			delete(r.rates, rates.EventID)
		}
	})
	return nil
}
