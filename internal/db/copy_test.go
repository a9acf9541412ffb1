package db

import (
	"context"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCopySlice_Empty(t *testing.T) {
	n, err := CopySlice(context.Background(), nil, "irs990", "grants", []string{"a"}, 0, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestCopySlice_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCopyFrom(pgx.Identifier{"irs990", "grants"}, []string{"name"}).WillReturnResult(2)
	mock.ExpectCommit()

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	names := []string{"Food Bank", "Shelter"}
	n, err := CopySlice(ctx, tx, "irs990", "grants", []string{"name"}, len(names), func(i int) ([]any, error) {
		return []any{names[i]}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
	require.NoError(t, tx.Commit(ctx))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopySlice_Unqualified(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCopyFrom(pgx.Identifier{"scratch"}, []string{"name"}).WillReturnResult(1)

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	n, err := CopySlice(ctx, tx, "", "scratch", []string{"name"}, 1, func(int) ([]any, error) {
		return []any{"x"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCopySlice_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCopyFrom(pgx.Identifier{"irs990", "grants"}, []string{"name"}).WillReturnError(fmt.Errorf("disk full"))

	ctx := context.Background()
	tx, err := mock.Begin(ctx)
	require.NoError(t, err)

	_, err = CopySlice(ctx, tx, "irs990", "grants", []string{"name"}, 1, func(int) ([]any, error) {
		return []any{"x"}, nil
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO irs990.grants")
}
