package db

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// CopySlice streams n rows built by row into a schema-qualified table
// inside tx, without materializing them first. An empty schema copies into
// an unqualified (e.g. temporary) table.
func CopySlice(ctx context.Context, tx pgx.Tx, schema, table string, columns []string, n int, row func(i int) ([]any, error)) (int64, error) {
	if n == 0 {
		return 0, nil
	}

	copied, err := tx.CopyFrom(ctx, Table{Schema: schema, Name: table}.identifier(), columns, pgx.CopyFromSlice(n, row))
	if err != nil {
		return 0, eris.Wrapf(err, "db: COPY INTO %s", Table{Schema: schema, Name: table})
	}

	return copied, nil
}
