package seats

import (
	"bytes"
	"context"
	"errors"
	"math/rand"
	"sync"
	"testing"

	"seatengine/internal/shared/database"
	"seatengine/internal/shared/database/dbtest"
	"seatengine/internal/shared/memstore"
	"seatengine/pkg/apperrors"
	"seatengine/pkg/logger"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTryTransition_ConcurrentHoldsOnOneSeat(t *testing.T) {
	seat := newTestSeat("A", "1", 1, TierGeneral, 1000)
	resolver, repo := newMemoryResolver(t, seat)

	const buyers = 16
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		winners   []uuid.UUID
		conflicts int
	)
	start := make(chan struct{})
	for i := 0; i < buyers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			holdID := uuid.New()
			<-start
			_, err := resolver.TryTransition(context.Background(), holdTransition(holdID, seat.ID))

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				winners = append(winners, holdID)
				return
			}
			assert.True(t, apperrors.IsContention(err))
			assert.Equal(t, []uuid.UUID{seat.ID}, SeatIDsFrom(err))
			conflicts++
		}()
	}
	close(start)
	wg.Wait()

	require.Len(t, winners, 1)
	assert.Equal(t, buyers-1, conflicts)

	stored, err := repo.GetSeatByID(context.Background(), seat.ID)
	require.NoError(t, err)
	assert.True(t, stored.IsHeldBy(winners[0]))
	assert.True(t, stored.IsConsistent())
}

func TestTryTransition_RandomOverlapsNeverDoubleAllocate(t *testing.T) {
	var pool []Seat
	for i := 0; i < 12; i++ {
		pool = append(pool, newTestSeat("B", "1", i+1, TierGeneral, 500))
	}
	resolver, repo := newMemoryResolver(t, pool...)

	rng := rand.New(rand.NewSource(42))
	requests := make([][]uuid.UUID, 64)
	for i := range requests {
		n := 1 + rng.Intn(4)
		for j := 0; j < n; j++ {
			requests[i] = append(requests[i], pool[rng.Intn(len(pool))].ID)
		}
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		won = make(map[uuid.UUID][]uuid.UUID)
	)
	for _, ids := range requests {
		wg.Add(1)
		go func(ids []uuid.UUID) {
			defer wg.Done()
			holdID := uuid.New()
			if _, err := resolver.TryTransition(context.Background(), holdTransition(holdID, ids...)); err == nil {
				mu.Lock()
				won[holdID] = ids
				mu.Unlock()
			} else {
				assert.True(t, apperrors.IsContention(err), "unexpected error: %v", err)
			}
		}(ids)
	}
	wg.Wait()

	owner := make(map[uuid.UUID]uuid.UUID)
	for holdID, ids := range won {
		for _, id := range ids {
			if prev, taken := owner[id]; taken && prev != holdID {
				t.Fatalf("seat %s allocated to %s and %s", id, prev, holdID)
			}
			owner[id] = holdID

			seat, err := repo.GetSeatByID(context.Background(), id)
			require.NoError(t, err)
			assert.True(t, seat.IsHeldBy(holdID))
		}
	}
}

func TestTryTransition_AllOrNothing(t *testing.T) {
	free := newTestSeat("C", "1", 1, TierVIP, 2000)
	blocked := newTestSeat("C", "1", 2, TierVIP, 2000)
	blocked.Status = StatusBlocked
	resolver, repo := newMemoryResolver(t, free, blocked)

	_, err := resolver.TryTransition(context.Background(), holdTransition(uuid.New(), free.ID, blocked.ID))

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrSeatsUnavailable))
	assert.Equal(t, []uuid.UUID{blocked.ID}, SeatIDsFrom(err))

	stored, err := repo.GetSeatByID(context.Background(), free.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, stored.Status)
	assert.Nil(t, stored.HoldID)
	assert.Equal(t, int64(0), stored.Version)
}

func TestTryTransition_LogsConflictWithTransitionFields(t *testing.T) {
	seat := newTestSeat("C", "2", 1, TierGeneral, 100)
	seat.Status = StatusBlocked
	resolver, _ := newMemoryResolver(t, seat)
	var buf bytes.Buffer
	resolver.logger = logger.NewWithWriter(&buf, "info")
	holdID := uuid.New()

	_, err := resolver.TryTransition(context.Background(), holdTransition(holdID, seat.ID))

	require.True(t, apperrors.IsContention(err))
	out := buf.String()
	assert.Contains(t, out, `"msg":"Seat Conflict"`)
	assert.Contains(t, out, `"hold_id":"`+holdID.String()+`"`)
	assert.Contains(t, out, `"to":"HELD"`)
	assert.Contains(t, out, seat.ID.String())
}

func TestTryTransition_RollsBackWithCallerTransaction(t *testing.T) {
	seat := newTestSeat("D", "1", 1, TierGeneral, 100)
	repo := NewMemoryRepository()
	require.NoError(t, repo.CreateSeats(context.Background(), []Seat{seat}))
	tx := memstore.NewTransactor()
	resolver := NewResolver(repo, tx)
	boom := errors.New("hold insert failed")

	err := tx.WithinTransaction(context.Background(), func(ctx context.Context) error {
		if _, err := resolver.TryTransition(ctx, holdTransition(uuid.New(), seat.ID)); err != nil {
			return err
		}
		return boom
	})

	assert.ErrorIs(t, err, boom)
	stored, err := repo.GetSeatByID(context.Background(), seat.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusAvailable, stored.Status)
}

func TestTryTransition_HeldBySource(t *testing.T) {
	seat := newTestSeat("E", "1", 1, TierGeneral, 100)
	resolver, _ := newMemoryResolver(t, seat)
	ctx := context.Background()

	holdID := uuid.New()
	_, err := resolver.TryTransition(ctx, holdTransition(holdID, seat.ID))
	require.NoError(t, err)

	bookingID := uuid.New()
	_, err = resolver.TryTransition(ctx, Transition{
		SeatIDs:   []uuid.UUID{seat.ID},
		From:      []Source{HeldBy(uuid.New())},
		To:        StatusBooked,
		BookingID: &bookingID,
	})
	assert.True(t, apperrors.IsContention(err), "another hold cannot book the seat")

	updated, err := resolver.TryTransition(ctx, Transition{
		SeatIDs:   []uuid.UUID{seat.ID},
		From:      []Source{HeldBy(holdID)},
		To:        StatusBooked,
		BookingID: &bookingID,
	})
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, StatusBooked, updated[0].Status)
	assert.Nil(t, updated[0].HoldID)
	assert.Equal(t, bookingID, *updated[0].BookingID)
	assert.True(t, updated[0].IsConsistent())
}

func TestTryTransition_LenientSkipsMismatchedSeats(t *testing.T) {
	a := newTestSeat("F", "1", 1, TierGeneral, 100)
	b := newTestSeat("F", "1", 2, TierGeneral, 100)
	resolver, repo := newMemoryResolver(t, a, b)
	ctx := context.Background()

	holdID := uuid.New()
	_, err := resolver.TryTransition(ctx, holdTransition(holdID, a.ID, b.ID))
	require.NoError(t, err)
	_, err = resolver.TryTransition(ctx, Transition{
		SeatIDs: []uuid.UUID{b.ID},
		From:    []Source{From(StatusHeld)},
		To:      StatusBlocked,
	})
	require.NoError(t, err)

	released, err := resolver.TryTransition(ctx, Transition{
		SeatIDs: []uuid.UUID{a.ID, b.ID},
		From:    []Source{HeldBy(holdID)},
		To:      StatusAvailable,
		Lenient: true,
	})
	require.NoError(t, err)
	require.Len(t, released, 1)
	assert.Equal(t, a.ID, released[0].ID)

	stored, err := repo.GetSeatByID(ctx, b.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusBlocked, stored.Status)
}

func TestTryTransition_Rejections(t *testing.T) {
	booked := newTestSeat("G", "1", 1, TierGeneral, 100)
	bookingID := uuid.New()
	booked.Status = StatusBooked
	booked.BookingID = &bookingID
	resolver, _ := newMemoryResolver(t, booked)
	ctx := context.Background()

	t.Run("unknown seat", func(t *testing.T) {
		missing := uuid.New()
		_, err := resolver.TryTransition(ctx, holdTransition(uuid.New(), missing))
		assert.True(t, errors.Is(err, ErrSeatNotFound))
		assert.Equal(t, apperrors.KindNotFound, apperrors.KindOf(err))
		assert.Equal(t, []uuid.UUID{missing}, SeatIDsFrom(err))
	})

	t.Run("booked is terminal", func(t *testing.T) {
		_, err := resolver.TryTransition(ctx, Transition{
			SeatIDs: []uuid.UUID{booked.ID},
			From:    []Source{From(StatusBooked)},
			To:      StatusAvailable,
		})
		assert.True(t, errors.Is(err, ErrInvalidTransition))
	})

	t.Run("hold reference required", func(t *testing.T) {
		_, err := resolver.TryTransition(ctx, Transition{
			SeatIDs: []uuid.UUID{booked.ID},
			From:    []Source{From(StatusAvailable)},
			To:      StatusHeld,
		})
		assert.True(t, errors.Is(err, ErrInvalidTransition))
	})

	t.Run("empty set", func(t *testing.T) {
		_, err := resolver.TryTransition(ctx, holdTransition(uuid.New()))
		assert.True(t, errors.Is(err, ErrInvalidTransition))
	})
}

type failingRepository struct {
	Repository
	err error
}

func (r failingRepository) LockSeatsForUpdate(context.Context, []uuid.UUID) ([]Seat, error) {
	return nil, r.err
}

func TestTryTransition_StorageFailureIsFatal(t *testing.T) {
	repo := failingRepository{Repository: NewMemoryRepository(), err: errors.New("connection reset")}
	resolver := NewResolver(repo, memstore.NewTransactor())

	_, err := resolver.TryTransition(context.Background(), holdTransition(uuid.New(), uuid.New()))

	require.Error(t, err)
	assert.True(t, apperrors.IsFatal(err))
	assert.False(t, apperrors.IsContention(err))
}

func TestTryTransition_Postgres(t *testing.T) {
	db, mock := dbtest.New(t)
	resolver := NewResolver(NewRepository(db), database.NewTransactor(db))

	a := newTestSeat("H", "1", 1, TierGeneral, 100)
	b := newTestSeat("H", "1", 2, TierGeneral, 100)
	holdID := uuid.New()

	rows := sqlmock.NewRows([]string{"id", "floor_plan_id", "status", "version"})
	for _, id := range canonicalIDs([]uuid.UUID{a.ID, b.ID}) {
		rows.AddRow(id.String(), testFloorPlan.String(), string(StatusAvailable), 3)
	}

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT \* FROM "seats" WHERE id IN .* ORDER BY id ASC FOR UPDATE`).WillReturnRows(rows)
	mock.ExpectExec(`UPDATE "seats" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "seats" SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	updated, err := resolver.TryTransition(context.Background(), holdTransition(holdID, b.ID, a.ID))

	require.NoError(t, err)
	require.Len(t, updated, 2)
	for _, seat := range updated {
		assert.True(t, seat.IsHeldBy(holdID))
		assert.Equal(t, int64(4), seat.Version)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTryTransition_PostgresVersionMismatchIsContention(t *testing.T) {
	db, mock := dbtest.New(t)
	resolver := NewResolver(NewRepository(db), database.NewTransactor(db))
	seat := newTestSeat("H", "2", 1, TierGeneral, 100)

	mock.ExpectBegin()
	mock.ExpectQuery(`FOR UPDATE`).WillReturnRows(
		sqlmock.NewRows([]string{"id", "status", "version"}).AddRow(seat.ID.String(), string(StatusAvailable), 0))
	mock.ExpectExec(`UPDATE "seats" SET`).WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := resolver.TryTransition(context.Background(), holdTransition(uuid.New(), seat.ID))

	assert.True(t, apperrors.IsContention(err))
	assert.Equal(t, []uuid.UUID{seat.ID}, SeatIDsFrom(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCanonicalIDs(t *testing.T) {
	a := uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	b := uuid.MustParse("00000000-0000-0000-0000-00000000000b")

	assert.Equal(t, []uuid.UUID{a, b}, canonicalIDs([]uuid.UUID{b, a, b}))
}
