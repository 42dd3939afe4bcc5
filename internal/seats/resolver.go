package seats

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"seatengine/internal/shared/database"
	"seatengine/pkg/apperrors"
	"seatengine/pkg/logger"

	"github.com/google/uuid"
)

// Source is a state a seat may be in for a transition to apply to it.
// With HoldID set the seat must be HELD by exactly that hold.
type Source struct {
	Status Status
	HoldID *uuid.UUID
}

// From allows any seat currently in status
func From(status Status) Source {
	return Source{Status: status}
}

// HeldBy allows only seats held by holdID
func HeldBy(holdID uuid.UUID) Source {
	return Source{Status: StatusHeld, HoldID: &holdID}
}

func (s Source) matches(seat *Seat) bool {
	if seat.Status != s.Status {
		return false
	}
	if s.HoldID != nil {
		return seat.IsHeldBy(*s.HoldID)
	}
	return true
}

// Transition asks for every seat in SeatIDs to move from one of From to To
type Transition struct {
	SeatIDs   []uuid.UUID
	From      []Source
	To        Status
	HoldID    *uuid.UUID // required when To is HELD
	BookingID *uuid.UUID // required when To is BOOKED
	Actor     string

	// Lenient skips seats matching no source instead of failing the batch.
	// Releases use it to give back whatever a hold still holds after an
	// administrative block took some of its seats.
	Lenient bool
}

func (t Transition) validate() error {
	if len(t.SeatIDs) == 0 {
		return ErrInvalidTransition.WithMessage("at least one seat is required")
	}
	if !t.To.IsValid() {
		return ErrInvalidTransition.WithMessage(fmt.Sprintf("unknown target status %q", t.To))
	}
	if len(t.From) == 0 {
		return ErrInvalidTransition.WithMessage("at least one source status is required")
	}
	for _, src := range t.From {
		if !src.Status.CanTransitionTo(t.To) {
			return ErrInvalidTransition.WithMessage(fmt.Sprintf("%s -> %s is not a seat transition", src.Status, t.To))
		}
	}
	if (t.To == StatusHeld) != (t.HoldID != nil) {
		return ErrInvalidTransition.WithMessage("a hold reference is required exactly when seats become HELD")
	}
	if (t.To == StatusBooked) != (t.BookingID != nil) {
		return ErrInvalidTransition.WithMessage("a booking reference is required exactly when seats become BOOKED")
	}
	return nil
}

// Resolver is the only writer of seat lifecycle state. Every transition is
// all-or-nothing: the seats are locked in canonical id order, re-validated,
// and either all written or none.
type Resolver struct {
	repo   Repository
	tx     database.Transactor
	logger *logger.Logger
}

func NewResolver(repo Repository, tx database.Transactor) *Resolver {
	return &Resolver{
		repo:   repo,
		tx:     tx,
		logger: logger.GetDefault(),
	}
}

// TryTransition applies t atomically. It returns the updated seats in id
// order, a SEATS_UNAVAILABLE contention error listing exactly the seats that
// blocked the request, SEAT_NOT_FOUND for unknown ids, or a fatal error when
// storage failed and the outcome is unknown.
//
// When ctx already carries a transaction the transition joins it, so a
// caller's later failure rolls the seat writes back too.
func (r *Resolver) TryTransition(ctx context.Context, t Transition) ([]Seat, error) {
	if err := t.validate(); err != nil {
		return nil, err
	}
	ids := canonicalIDs(t.SeatIDs)

	var updated []Seat
	err := r.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		locked, err := r.repo.LockSeatsForUpdate(ctx, ids)
		if err != nil {
			return apperrors.Fatal(err, "failed to lock seats")
		}

		if missing := missingIDs(ids, locked); len(missing) > 0 {
			return NewNotFoundError(missing)
		}

		var blocked []uuid.UUID
		matched := make([]Seat, 0, len(locked))
		for i := range locked {
			if t.accepts(&locked[i]) {
				matched = append(matched, locked[i])
			} else {
				blocked = append(blocked, locked[i].ID)
			}
		}
		if len(blocked) > 0 && !t.Lenient {
			return NewUnavailableError(blocked)
		}

		updated = make([]Seat, 0, len(matched))
		for _, seat := range matched {
			expected := seat.Version
			next := t.apply(seat)
			if err := r.repo.SaveSeatState(ctx, &next, expected); err != nil {
				if errors.Is(err, errVersionMismatch) {
					return NewUnavailableError([]uuid.UUID{seat.ID})
				}
				return apperrors.Fatal(err, "failed to write seat state")
			}
			updated = append(updated, next)
		}
		return nil
	})
	if err != nil {
		if apperrors.IsContention(err) {
			r.logger.WithFields(t.logFields()).LogSeatConflict(ctx, t.Actor, seatIDStrings(SeatIDsFrom(err)))
		}
		if _, typed := apperrors.As(err); !typed {
			err = apperrors.Fatal(err, "seat transition failed")
		}
		return nil, err
	}
	return updated, nil
}

func (t Transition) logFields() map[string]interface{} {
	fields := map[string]interface{}{"to": string(t.To), "requested": len(t.SeatIDs)}
	if t.HoldID != nil {
		fields["hold_id"] = t.HoldID.String()
	}
	if t.BookingID != nil {
		fields["booking_id"] = t.BookingID.String()
	}
	return fields
}

func (t Transition) accepts(seat *Seat) bool {
	for _, src := range t.From {
		if src.matches(seat) {
			return true
		}
	}
	return false
}

func (t Transition) apply(seat Seat) Seat {
	seat.Status = t.To
	seat.HoldID = nil
	seat.BookingID = nil
	switch t.To {
	case StatusHeld:
		id := *t.HoldID
		seat.HoldID = &id
	case StatusBooked:
		id := *t.BookingID
		seat.BookingID = &id
	}
	seat.Version++
	return seat
}

// canonicalIDs dedupes ids and sorts them into lock order
func canonicalIDs(ids []uuid.UUID) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{}, len(ids))
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func missingIDs(want []uuid.UUID, got []Seat) []uuid.UUID {
	found := make(map[uuid.UUID]struct{}, len(got))
	for _, s := range got {
		found[s.ID] = struct{}{}
	}
	var missing []uuid.UUID
	for _, id := range want {
		if _, ok := found[id]; !ok {
			missing = append(missing, id)
		}
	}
	return missing
}
