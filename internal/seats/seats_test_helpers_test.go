package seats

import (
	"context"
	"testing"

	"seatengine/internal/shared/memstore"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

var testFloorPlan = uuid.MustParse("6f1c1a6e-1111-4c4e-9d55-000000000001")

func newTestSeat(section, row string, number int, tier Tier, base int64) Seat {
	return Seat{
		ID:          uuid.New(),
		FloorPlanID: testFloorPlan,
		EventID:     uuid.MustParse("6f1c1a6e-2222-4c4e-9d55-000000000002"),
		Section:     section,
		RowNumber:   row,
		SeatNumber:  number,
		SeatType:    SeatTypeChair,
		Tier:        tier,
		BasePrice:   base,
		Status:      StatusAvailable,
	}
}

func newMemoryResolver(t *testing.T, seats ...Seat) (*Resolver, Repository) {
	t.Helper()
	repo := NewMemoryRepository()
	require.NoError(t, repo.CreateSeats(context.Background(), seats))
	return NewResolver(repo, memstore.NewTransactor()), repo
}

func holdTransition(holdID uuid.UUID, ids ...uuid.UUID) Transition {
	return Transition{
		SeatIDs: ids,
		From:    []Source{From(StatusAvailable)},
		To:      StatusHeld,
		HoldID:  &holdID,
		Actor:   "buyer:" + holdID.String(),
	}
}
