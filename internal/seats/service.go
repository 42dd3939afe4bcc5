package seats

import (
	"context"
	"errors"
	"time"

	"seatengine/internal/seatevents"
	"seatengine/internal/shared/constants"
	"seatengine/pkg/apperrors"
	"seatengine/pkg/cache"
	"seatengine/pkg/logger"

	"github.com/google/uuid"
)

// Service exposes seat reads and the administrative block override
type Service interface {
	ListSeats(ctx context.Context, floorPlanID uuid.UUID, filter SeatFilter) ([]Seat, error)
	GetSeat(ctx context.Context, id uuid.UUID) (*Seat, error)
	GetSeatsByIDs(ctx context.Context, ids []uuid.UUID) ([]Seat, error)
	GetAvailabilitySummary(ctx context.Context, floorPlanID uuid.UUID) (*AvailabilitySummary, error)

	BlockSeats(ctx context.Context, seatIDs []uuid.UUID, actor string) ([]Seat, error)
	UnblockSeats(ctx context.Context, seatIDs []uuid.UUID, actor string) ([]Seat, error)
}

type service struct {
	repo        Repository
	resolver    *Resolver
	broadcaster *Broadcaster
	cache       cache.Service
	listTTL     time.Duration
	logger      *logger.Logger
}

// NewService wires the seat service. cacheService may be nil.
func NewService(repo Repository, resolver *Resolver, broadcaster *Broadcaster, cacheService cache.Service, listTTL time.Duration) Service {
	if listTTL <= 0 {
		listTTL = constants.TTL_SEAT_LIST
	}
	return &service{
		repo:        repo,
		resolver:    resolver,
		broadcaster: broadcaster,
		cache:       cacheService,
		listTTL:     listTTL,
		logger:      logger.GetDefault(),
	}
}

func (s *service) ListSeats(ctx context.Context, floorPlanID uuid.UUID, filter SeatFilter) ([]Seat, error) {
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, apperrors.Validation("INVALID_FILTER", "unknown seat status filter")
	}
	if filter.Tier != "" && !filter.Tier.IsValid() {
		return nil, apperrors.Validation("INVALID_FILTER", "unknown tier filter")
	}

	key, cacheable := s.listKey(ctx, floorPlanID, filter)
	if cacheable {
		var cached []Seat
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return cached, nil
		} else if !errors.Is(err, cache.ErrCacheMiss) {
			s.logger.ErrorWithContext(ctx, "Seat list cache read failed", err, nil)
		}
	}

	seats, err := s.repo.GetSeatsByFloorPlan(ctx, floorPlanID, filter)
	if err != nil {
		return nil, apperrors.Fatal(err, "failed to list seats")
	}

	if cacheable {
		if err := s.cache.Set(ctx, key, seats, s.listTTL); err != nil {
			s.logger.ErrorWithContext(ctx, "Seat list cache write failed", err, nil)
		}
	}
	return seats, nil
}

// listKey resolves the generation-scoped cache key for a listing. A listing
// computed before a transition is stored under the old generation and is
// never read after the bump.
func (s *service) listKey(ctx context.Context, floorPlanID uuid.UUID, filter SeatFilter) (string, bool) {
	if s.cache == nil {
		return "", false
	}
	gen, err := s.cache.Generation(ctx, constants.BuildSeatListGenerationKey(floorPlanID.String()))
	if err != nil {
		s.logger.ErrorWithContext(ctx, "Seat list generation read failed", err, nil)
		return "", false
	}
	return constants.BuildSeatListKey(floorPlanID.String(), gen, filter.Section, string(filter.Tier), string(filter.Status)), true
}

func (s *service) GetSeat(ctx context.Context, id uuid.UUID) (*Seat, error) {
	seat, err := s.repo.GetSeatByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrSeatNotFound) {
			return nil, NewNotFoundError([]uuid.UUID{id})
		}
		return nil, apperrors.Fatal(err, "failed to get seat")
	}
	return seat, nil
}

// GetSeatsByIDs returns every requested seat in one read, or SEAT_NOT_FOUND
// listing the unknown ids
func (s *service) GetSeatsByIDs(ctx context.Context, ids []uuid.UUID) ([]Seat, error) {
	ids = canonicalIDs(ids)
	seats, err := s.repo.GetSeatsByIDs(ctx, ids)
	if err != nil {
		return nil, apperrors.Fatal(err, "failed to read seats")
	}
	if missing := missingIDs(ids, seats); len(missing) > 0 {
		return nil, NewNotFoundError(missing)
	}
	return seats, nil
}

func (s *service) GetAvailabilitySummary(ctx context.Context, floorPlanID uuid.UUID) (*AvailabilitySummary, error) {
	seats, err := s.ListSeats(ctx, floorPlanID, SeatFilter{})
	if err != nil {
		return nil, err
	}

	summary := &AvailabilitySummary{
		FloorPlanID: floorPlanID,
		Total:       len(seats),
		ByStatus:    make(map[Status]int),
		ByTier:      make(map[Tier]int),
	}
	for _, seat := range seats {
		summary.ByStatus[seat.Status]++
		if seat.IsAvailable() {
			summary.ByTier[seat.Tier]++
		}
	}
	return summary, nil
}

// BlockSeats takes seats out of sale. Held seats may be blocked; the hold then
// fails to finalize with SEATS_UNAVAILABLE.
func (s *service) BlockSeats(ctx context.Context, seatIDs []uuid.UUID, actor string) ([]Seat, error) {
	updated, err := s.resolver.TryTransition(ctx, Transition{
		SeatIDs: seatIDs,
		From:    []Source{From(StatusAvailable), From(StatusHeld)},
		To:      StatusBlocked,
		Actor:   actor,
	})
	if err != nil {
		return nil, err
	}

	s.broadcaster.SeatsChanged(ctx, Change{Type: seatevents.EventSeatsBlocked, Seats: updated, Actor: actor})
	return updated, nil
}

// UnblockSeats puts blocked seats back on sale
func (s *service) UnblockSeats(ctx context.Context, seatIDs []uuid.UUID, actor string) ([]Seat, error) {
	updated, err := s.resolver.TryTransition(ctx, Transition{
		SeatIDs: seatIDs,
		From:    []Source{From(StatusBlocked)},
		To:      StatusAvailable,
		Actor:   actor,
	})
	if err != nil {
		return nil, err
	}

	s.broadcaster.SeatsChanged(ctx, Change{Type: seatevents.EventSeatsUnblocked, Seats: updated, Actor: actor})
	return updated, nil
}
