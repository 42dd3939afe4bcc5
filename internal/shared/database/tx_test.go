package database

import (
	"context"
	"errors"
	"testing"

	"seatengine/internal/shared/database/dbtest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithinTransaction_CommitsAndJoinsNestedCalls(t *testing.T) {
	db, mock := dbtest.New(t)
	tr := NewTransactor(db)

	mock.ExpectBegin()
	mock.ExpectExec(`UPDATE seats SET version = version \+ 1`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tr.WithinTransaction(context.Background(), func(ctx context.Context) error {
		assert.True(t, InTransaction(ctx))
		return tr.WithinTransaction(ctx, func(inner context.Context) error {
			return Conn(inner, db).Exec(`UPDATE seats SET version = version + 1`).Error
		})
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestWithinTransaction_RollsBackOnError(t *testing.T) {
	db, mock := dbtest.New(t)
	tr := NewTransactor(db)
	boom := errors.New("seat conflict")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := tr.WithinTransaction(context.Background(), func(ctx context.Context) error {
		return boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConn_WithoutTransaction(t *testing.T) {
	db, _ := dbtest.New(t)

	assert.False(t, InTransaction(context.Background()))
	assert.NotNil(t, Conn(context.Background(), db))
}
