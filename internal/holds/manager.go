package holds

import (
	"context"
	"errors"
	"fmt"
	"time"

	"seatengine/internal/seatevents"
	"seatengine/internal/seats"
	"seatengine/internal/shared/config"
	"seatengine/internal/shared/database"
	"seatengine/pkg/apperrors"
	"seatengine/pkg/logger"

	"github.com/google/uuid"
)

// Policy bounds hold size and duration
type Policy struct {
	TTL         time.Duration
	MaxLifetime time.Duration // zero allows unbounded renewals
	MaxSeats    int
	SweepBatch  int
}

// PolicyFromConfig reads the hold policy from configuration
func PolicyFromConfig(cfg config.HoldConfig) Policy {
	return Policy{
		TTL:         cfg.TTL,
		MaxLifetime: cfg.MaxLifetime,
		MaxSeats:    cfg.MaxSeats,
		SweepBatch:  cfg.SweepBatchSize,
	}
}

// CreateHoldInput is a buyer's seat selection
type CreateHoldInput struct {
	FloorPlanID    uuid.UUID
	SeatIDs        []uuid.UUID
	BuyerSessionID string
	AllowedTiers   []seats.Tier // empty allows every tier
}

type Option func(*Manager)

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// Manager owns the hold lifecycle. It is the only writer of holds and the
// only component that expires them.
type Manager struct {
	repo        Repository
	seats       seats.Service
	resolver    *seats.Resolver
	tx          database.Transactor
	broadcaster *seats.Broadcaster
	policy      Policy
	now         func() time.Time
	logger      *logger.Logger
}

func NewManager(repo Repository, seatService seats.Service, resolver *seats.Resolver, tx database.Transactor, broadcaster *seats.Broadcaster, policy Policy, opts ...Option) *Manager {
	if policy.SweepBatch <= 0 {
		policy.SweepBatch = 100
	}
	m := &Manager{
		repo:        repo,
		seats:       seatService,
		resolver:    resolver,
		tx:          tx,
		broadcaster: broadcaster,
		policy:      policy,
		now:         time.Now,
		logger:      logger.GetDefault(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Now is the manager's clock
func (m *Manager) Now() time.Time {
	return m.now().UTC()
}

// CreateHold claims every requested seat for the buyer or none of them
func (m *Manager) CreateHold(ctx context.Context, in CreateHoldInput) (*Hold, error) {
	if in.BuyerSessionID == "" {
		return nil, ErrMissingBuyer
	}
	ids := dedupe(in.SeatIDs)
	if len(ids) == 0 {
		return nil, ErrNoSeatsSelected
	}

	selected, err := m.seats.GetSeatsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if err := checkSelection(selected, in.FloorPlanID, in.AllowedTiers); err != nil {
		return nil, err
	}

	now := m.Now()
	hold := &Hold{
		ID:             uuid.New(),
		BuyerSessionID: in.BuyerSessionID,
		FloorPlanID:    in.FloorPlanID,
		EventID:        selected[0].EventID,
		SeatIDs:        toStringArray(ids),
		Status:         StatusActive,
		ExpiresAt:      now.Add(m.policy.TTL),
		CreatedAt:      now,
	}

	var held []seats.Seat
	err = m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		// Buyer lock before seat locks; nothing else takes it.
		if err := m.repo.LockBuyer(ctx, in.BuyerSessionID); err != nil {
			return apperrors.Fatal(err, "failed to lock buyer holds")
		}
		if err := m.checkSeatAllowance(ctx, in.BuyerSessionID, in.FloorPlanID, len(ids)); err != nil {
			return err
		}

		updated, err := m.resolver.TryTransition(ctx, seats.Transition{
			SeatIDs: ids,
			From:    []seats.Source{seats.From(seats.StatusAvailable)},
			To:      seats.StatusHeld,
			HoldID:  &hold.ID,
			Actor:   "buyer:" + in.BuyerSessionID,
		})
		if err != nil {
			return err
		}
		if err := m.repo.CreateHold(ctx, hold); err != nil {
			return apperrors.Fatal(err, "failed to persist hold")
		}
		held = updated
		return nil
	})
	if err != nil {
		return nil, err
	}

	m.broadcaster.SeatsChanged(ctx, seats.Change{Type: seatevents.EventSeatsHeld, Seats: held, HoldID: &hold.ID, Actor: "buyer:" + in.BuyerSessionID})
	m.logger.LogHoldCreated(ctx, hold.ID.String(), hold.FloorPlanID.String(), hold.BuyerSessionID, len(ids), hold.ExpiresAt)
	return hold, nil
}

// checkSeatAllowance applies MaxSeats across the buyer's live holds on the
// floor plan. Callers hold the buyer lock.
func (m *Manager) checkSeatAllowance(ctx context.Context, buyer string, floorPlanID uuid.UUID, requested int) error {
	if m.policy.MaxSeats <= 0 {
		return nil
	}

	active, err := m.repo.ListHoldsByBuyer(ctx, buyer, StatusActive)
	if err != nil {
		return apperrors.Fatal(err, "failed to list buyer holds")
	}
	now := m.Now()
	alreadyHeld := 0
	for _, h := range active {
		if h.FloorPlanID == floorPlanID && !h.IsPastExpiry(now) {
			alreadyHeld += len(h.SeatIDs)
		}
	}

	if alreadyHeld+requested > m.policy.MaxSeats {
		return ErrTooManySeats.
			WithMessage(fmt.Sprintf("at most %d seats may be held at once", m.policy.MaxSeats)).
			WithDetails(map[string]any{
				"max_seats":    m.policy.MaxSeats,
				"requested":    requested,
				"already_held": alreadyHeld,
			})
	}
	return nil
}

func checkSelection(selected []seats.Seat, floorPlanID uuid.UUID, allowed []seats.Tier) error {
	var foreign, disallowed []string
	for _, seat := range selected {
		if seat.FloorPlanID != floorPlanID {
			foreign = append(foreign, seat.ID.String())
		}
		if !tierAllowed(seat.Tier, allowed) {
			disallowed = append(disallowed, seat.ID.String())
		}
	}
	if len(foreign) > 0 {
		return ErrFloorPlanMismatch.WithDetails(map[string]any{"seat_ids": foreign})
	}
	if len(disallowed) > 0 {
		return ErrTierNotAllowed.WithDetails(map[string]any{"seat_ids": disallowed, "allowed_tiers": allowed})
	}
	return nil
}

func tierAllowed(tier seats.Tier, allowed []seats.Tier) bool {
	if len(allowed) == 0 {
		return true
	}
	for _, t := range allowed {
		if t == tier {
			return true
		}
	}
	return false
}

// GetHold returns the hold, expiring it first when it is past expiry
func (m *Manager) GetHold(ctx context.Context, id uuid.UUID, buyer string) (*Hold, error) {
	hold, err := m.load(ctx, id, buyer)
	if err != nil {
		return nil, err
	}
	if hold.IsPastExpiry(m.Now()) {
		return m.expire(ctx, hold)
	}
	return hold, nil
}

// ListBuyerHolds lists a buyer's holds, newest first
func (m *Manager) ListBuyerHolds(ctx context.Context, buyer string, status Status) ([]Hold, error) {
	if status != "" && !status.IsValid() {
		return nil, apperrors.Validation("INVALID_FILTER", "unknown hold status filter")
	}
	holds, err := m.repo.ListHoldsByBuyer(ctx, buyer, status)
	if err != nil {
		return nil, apperrors.Fatal(err, "failed to list holds")
	}

	now := m.Now()
	for i := range holds {
		if holds[i].IsPastExpiry(now) {
			expired, err := m.expire(ctx, &holds[i])
			if err != nil {
				return nil, err
			}
			holds[i] = *expired
		}
	}
	if status == "" {
		return holds, nil
	}
	filtered := holds[:0]
	for _, h := range holds {
		if h.Status == status {
			filtered = append(filtered, h)
		}
	}
	return filtered, nil
}

// RenewHold pushes the expiry of an ACTIVE hold to now+TTL, clamped to the
// maximum cumulative lifetime
func (m *Manager) RenewHold(ctx context.Context, id uuid.UUID, buyer string) (*Hold, error) {
	hold, err := m.load(ctx, id, buyer)
	if err != nil {
		return nil, err
	}
	if err := errForStatus(hold.Status); err != nil {
		return nil, err
	}

	now := m.Now()
	if hold.IsPastExpiry(now) {
		if _, err := m.expire(ctx, hold); err != nil {
			return nil, err
		}
		return nil, ErrHoldExpired
	}

	expiresAt := now.Add(m.policy.TTL)
	if m.policy.MaxLifetime > 0 {
		if limit := hold.CreatedAt.Add(m.policy.MaxLifetime); expiresAt.After(limit) {
			expiresAt = limit
		}
	}
	if !expiresAt.After(hold.ExpiresAt) {
		return nil, ErrLifetimeExceeded.WithDetails(map[string]any{"expires_at": hold.ExpiresAt})
	}

	ok, err := m.repo.ExtendHold(ctx, id, now, expiresAt)
	if err != nil {
		return nil, apperrors.Fatal(err, "failed to renew hold")
	}
	if !ok {
		return nil, m.staleHoldError(ctx, id)
	}

	hold.ExpiresAt = expiresAt
	hold.RenewCount++
	hold.UpdatedAt = now
	return hold, nil
}

// ReleaseHold gives the hold's seats back. Releasing an EXPIRED or RELEASED
// hold is a no-op; a CONVERTED hold cannot be released.
func (m *Manager) ReleaseHold(ctx context.Context, id uuid.UUID, buyer string) (*Hold, error) {
	hold, err := m.load(ctx, id, buyer)
	if err != nil {
		return nil, err
	}

	switch hold.Status {
	case StatusConverted:
		return nil, ErrHoldConverted
	case StatusExpired, StatusReleased:
		return hold, nil
	}

	if hold.IsPastExpiry(m.Now()) {
		return m.expire(ctx, hold)
	}
	return m.finish(ctx, hold, StatusReleased, seatevents.EventSeatsReleased)
}

// ExpireHold expires an ACTIVE hold that is past expiry. Any other hold is
// returned unchanged.
func (m *Manager) ExpireHold(ctx context.Context, id uuid.UUID) (*Hold, error) {
	hold, err := m.load(ctx, id, "")
	if err != nil {
		return nil, err
	}
	if !hold.IsPastExpiry(m.Now()) {
		return hold, nil
	}
	return m.expire(ctx, hold)
}

// SweepExpired expires every ACTIVE hold whose expiry is at or before now
// and returns how many holds it expired
func (m *Manager) SweepExpired(ctx context.Context, now time.Time) (int, error) {
	start := time.Now()
	expired := 0
	seen := make(map[uuid.UUID]struct{})
	var firstErr error

	for {
		batch, err := m.repo.ListExpiredActive(ctx, now, m.policy.SweepBatch)
		if err != nil {
			return expired, apperrors.Fatal(err, "failed to list expired holds")
		}

		progressed := false
		for i := range batch {
			if _, done := seen[batch[i].ID]; done {
				continue
			}
			seen[batch[i].ID] = struct{}{}
			progressed = true

			result, err := m.finishAt(ctx, &batch[i], StatusExpired, seatevents.EventSeatsExpired, now)
			if err != nil {
				m.logger.ErrorWithContext(ctx, "Failed to expire hold", err, map[string]interface{}{
					"hold_id": batch[i].ID.String(),
				})
				if firstErr == nil {
					firstErr = err
				}
				continue
			}
			if result.Status == StatusExpired {
				expired++
			}
		}

		if len(batch) < m.policy.SweepBatch || !progressed {
			break
		}
	}

	m.logger.LogSweep(ctx, expired, time.Since(start))
	return expired, firstErr
}

// ConvertHold marks the hold CONVERTED inside the caller's transaction. It
// fails with the hold's current state when the hold is no longer ACTIVE or
// has expired.
func (m *Manager) ConvertHold(ctx context.Context, hold *Hold, bookingID uuid.UUID) error {
	now := m.Now()
	ok, err := m.repo.FinishHold(ctx, hold.ID, StatusConverted, now, &bookingID)
	if err != nil {
		return apperrors.Fatal(err, "failed to convert hold")
	}
	if !ok {
		if hold.IsPastExpiry(now) {
			return ErrHoldExpired
		}
		return m.staleHoldError(ctx, hold.ID)
	}
	return nil
}

func (m *Manager) expire(ctx context.Context, hold *Hold) (*Hold, error) {
	return m.finish(ctx, hold, StatusExpired, seatevents.EventSeatsExpired)
}

func (m *Manager) finish(ctx context.Context, hold *Hold, to Status, eventType seatevents.EventType) (*Hold, error) {
	return m.finishAt(ctx, hold, to, eventType, m.Now())
}

// finishAt returns the hold's seats to AVAILABLE and moves it to a terminal
// status in one transaction. Seats an administrator blocked in the meantime
// stay blocked. When the hold already left ACTIVE the current hold is
// returned instead.
func (m *Manager) finishAt(ctx context.Context, hold *Hold, to Status, eventType seatevents.EventType, now time.Time) (*Hold, error) {
	var released []seats.Seat
	errMoved := errors.New("hold moved on")

	err := m.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		updated, err := m.resolver.TryTransition(ctx, seats.Transition{
			SeatIDs: hold.SeatUUIDs(),
			From:    []seats.Source{seats.HeldBy(hold.ID)},
			To:      seats.StatusAvailable,
			Actor:   "hold:" + hold.ID.String(),
			Lenient: true,
		})
		if err != nil {
			return err
		}

		ok, err := m.repo.FinishHold(ctx, hold.ID, to, now, nil)
		if err != nil {
			return apperrors.Fatal(err, "failed to update hold status")
		}
		if !ok {
			return errMoved
		}
		released = updated
		return nil
	})
	if errors.Is(err, errMoved) {
		return m.load(ctx, hold.ID, "")
	}
	if err != nil {
		return nil, err
	}

	m.broadcaster.SeatsChanged(ctx, seats.Change{Type: eventType, Seats: released, HoldID: &hold.ID, Actor: "hold:" + hold.ID.String()})
	m.logger.LogHoldReleased(ctx, hold.ID.String(), string(to))

	ended := now
	hold.Status = to
	hold.EndedAt = &ended
	hold.UpdatedAt = now
	return hold, nil
}

// staleHoldError re-reads a hold whose compare-and-set failed and reports
// the state it moved to
func (m *Manager) staleHoldError(ctx context.Context, id uuid.UUID) error {
	current, err := m.load(ctx, id, "")
	if err != nil {
		return err
	}
	if statusErr := errForStatus(current.Status); statusErr != nil {
		return statusErr
	}
	return ErrHoldExpired
}

func (m *Manager) load(ctx context.Context, id uuid.UUID, buyer string) (*Hold, error) {
	hold, err := m.repo.GetHoldByID(ctx, id)
	if err != nil {
		if errors.Is(err, errNotFound) {
			return nil, ErrHoldNotFound
		}
		return nil, apperrors.Fatal(err, "failed to load hold")
	}
	if !hold.OwnedBy(buyer) {
		return nil, ErrHoldNotFound
	}
	return hold, nil
}

func dedupe(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup || id == uuid.Nil {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
