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

var partitions = Table{Schema: "irs990", Name: "partitions"}

func TestBulkUpsert_EmptyRows(t *testing.T) {
	n, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:        partitions,
		Columns:      []string{"year", "part"},
		ConflictKeys: []string{"year", "part"},
	}, nil)
	assert.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestBulkUpsert_NoColumns(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:        partitions,
		ConflictKeys: []string{"year"},
	}, [][]any{{2020, 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no columns specified")
}

func TestBulkUpsert_NoConflictKeys(t *testing.T) {
	_, err := BulkUpsert(context.Background(), nil, UpsertConfig{
		Table:   partitions,
		Columns: []string{"year", "part"},
	}, [][]any{{2020, 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no conflict keys specified")
}

func TestBulkUpsert_Success(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	cols := []string{"year", "part", "url"}
	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_stage_irs990_partitions" \(LIKE "irs990"."partitions" INCLUDING DEFAULTS\) ON COMMIT DROP`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_irs990_partitions"}, cols).WillReturnResult(1)
	mock.ExpectExec(`INSERT INTO "irs990"."partitions" .* ON CONFLICT \("year", "part"\) DO UPDATE SET "url" = EXCLUDED."url"`).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	n, err := BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        partitions,
		Columns:      cols,
		ConflictKeys: []string{"year", "part"},
	}, [][]any{{2020, 1, "https://example.test/a.zip"}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkUpsert_CopyError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE`).WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_stage_irs990_partitions"}, []string{"year", "part"}).
		WillReturnError(fmt.Errorf("connection reset"))
	mock.ExpectRollback()

	_, err = BulkUpsert(context.Background(), mock, UpsertConfig{
		Table:        partitions,
		Columns:      []string{"year", "part"},
		ConflictKeys: []string{"year", "part"},
		UpdateCols:   []string{},
	}, [][]any{{2020, 1}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upsert: stage irs990.partitions")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSQL(t *testing.T) {
	tests := []struct {
		name string
		cfg  UpsertConfig
		want string
	}{
		{
			name: "update non-key columns",
			cfg:  UpsertConfig{Table: partitions, Columns: []string{"year", "part", "url"}, ConflictKeys: []string{"year", "part"}},
			want: `INSERT INTO "irs990"."partitions" ("year", "part", "url") SELECT "year", "part", "url" FROM "_stage_irs990_partitions" ON CONFLICT ("year", "part") DO UPDATE SET "url" = EXCLUDED."url"`,
		},
		{
			name: "keep existing",
			cfg:  UpsertConfig{Table: partitions, Columns: []string{"year", "part"}, ConflictKeys: []string{"year", "part"}, UpdateCols: []string{}},
			want: `INSERT INTO "irs990"."partitions" ("year", "part") SELECT "year", "part" FROM "_stage_irs990_partitions" ON CONFLICT ("year", "part") DO NOTHING`,
		},
		{
			name: "unqualified",
			cfg:  UpsertConfig{Table: Table{Name: "partitions"}, Columns: []string{"year", "part"}, ConflictKeys: []string{"year", "part"}},
			want: `INSERT INTO "partitions" ("year", "part") SELECT "year", "part" FROM "_stage_partitions" ON CONFLICT ("year", "part") DO NOTHING`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.upsertSQL())
		})
	}
}

func TestTableString(t *testing.T) {
	assert.Equal(t, "irs990.partitions", partitions.String())
	assert.Equal(t, "partitions", Table{Name: "partitions"}.String())
}
