package db

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"fairweather/internal/types"
)

func TestStarRepository_Get(t *testing.T) {
	db := new(mockDBTX)
	db.On("QueryRow", mock.Anything, mock.AnythingOfType("string"), []any{"alice"}).
		Return(&mockRow{values: []any{[]string{"running", "custom_1"}}})

	ids, found, err := NewStarRepository(db).Get(context.Background(), "alice")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, []string{"running", "custom_1"}, ids)
}

func TestStarRepository_Get_NeverSet(t *testing.T) {
	db := new(mockDBTX)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(&mockRow{scanErr: pgx.ErrNoRows})

	ids, found, err := NewStarRepository(db).Get(context.Background(), "bob")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, ids)
}

func TestStarRepository_Get_Error(t *testing.T) {
	db := new(mockDBTX)
	db.On("QueryRow", mock.Anything, mock.Anything, mock.Anything).Return(&mockRow{scanErr: errors.New("down")})

	_, _, err := NewStarRepository(db).Get(context.Background(), "bob")
	assert.Equal(t, types.ErrCodeInternalDB, appCode(t, err))
}

func TestStarRepository_Put(t *testing.T) {
	db := new(mockDBTX)
	db.On("Exec", mock.Anything, mock.Anything, []any{"alice", []string{}}).
		Return(pgconn.NewCommandTag("INSERT 0 1"), nil)
	require.NoError(t, NewStarRepository(db).Put(context.Background(), "alice", nil))
	db.AssertExpectations(t)

	db = new(mockDBTX)
	db.On("Exec", mock.Anything, mock.Anything, mock.Anything).Return(pgconn.CommandTag{}, errors.New("boom"))
	err := NewStarRepository(db).Put(context.Background(), "alice", []string{"moto"})
	assert.Equal(t, types.ErrCodeInternalDB, appCode(t, err))
}
