package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/sells-group/irs990-lake/internal/db"
	"github.com/sells-group/irs990-lake/internal/irs990"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(4)
	minConns := int32(1)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Migrate applies pending migrations under the migration advisory lock.
func (s *PostgresStore) Migrate(ctx context.Context) error {
	return MigratePostgres(ctx, s.pool)
}

// Close closes the connection pool.
func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

// LoadBatch replaces every row of partition p with t in one transaction.
func (s *PostgresStore) LoadBatch(ctx context.Context, p irs990.Partition, t irs990.Tables) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return eris.Wrap(err, "postgres: load batch: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	for _, name := range tableNames {
		if _, err := tx.Exec(ctx,
			fmt.Sprintf("DELETE FROM %s.%s WHERE year = $1 AND part = $2", Schema, name),
			p.Year, p.Part,
		); err != nil {
			return eris.Wrapf(err, "postgres: clear %s for %s", name, p)
		}
	}

	for _, tbl := range layout(p, t) {
		row := tbl.row
		if _, err := db.CopySlice(ctx, tx, Schema, tbl.name, tbl.columns, tbl.n, func(i int) ([]any, error) {
			return row(i), nil
		}); err != nil {
			return eris.Wrapf(err, "postgres: load %s for %s", tbl.name, p)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return eris.Wrap(err, "postgres: load batch: commit tx")
	}
	return nil
}

// RecordPartition upserts one entry of the partition catalog.
func (s *PostgresStore) RecordPartition(ctx context.Context, info PartitionInfo) error {
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        db.Table{Schema: Schema, Name: "partitions"},
		Columns:      []string{"year", "part", "url", "bytes", "fetched_at"},
		ConflictKeys: []string{"year", "part"},
	}, [][]any{{info.Year, info.Part, info.URL, info.Bytes, info.FetchedAt}})
	if err != nil {
		return eris.Wrapf(err, "postgres: record partition %s", info.Partition)
	}
	return nil
}

// StartRun records the beginning of a partition run and returns its ID.
func (s *PostgresStore) StartRun(ctx context.Context, p irs990.Partition) (string, error) {
	id := uuid.New().String()
	if _, err := s.pool.Exec(ctx,
		`INSERT INTO irs990.sync_log (id, year, part, status, started_at) VALUES ($1, $2, $3, $4, now())`,
		id, p.Year, p.Part, string(RunStatusRunning),
	); err != nil {
		return "", eris.Wrapf(err, "postgres: start run for %s", p)
	}
	return id, nil
}

// CompleteRun marks a run as successfully completed.
func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, result RunResult) error {
	skipped, err := marshalSkipped(result.Skipped)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE irs990.sync_log
		 SET status = $1, completed_at = now(), returns = $2, officers = $3, grants = $4, skipped = $5
		 WHERE id = $6`,
		string(RunStatusComplete), result.Returns, result.Officers, result.Grants, skipped, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run not found: %s", runID)
	}
	return nil
}

// FailRun marks a run as failed with an error message.
func (s *PostgresStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE irs990.sync_log
		 SET status = $1, completed_at = now(), error = $2
		 WHERE id = $3`,
		string(RunStatusFailed), errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("postgres: run not found: %s", runID)
	}
	return nil
}

// ListRuns returns sync log entries, most recent first.
func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, year, part, status, started_at, completed_at, returns, officers, grants, skipped, error
		FROM irs990.sync_log WHERE 1=1`
	var args []any
	if filter.Year > 0 {
		args = append(args, filter.Year)
		query += fmt.Sprintf(" AND year = $%d", len(args))
	}
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	args = append(args, limit)
	query += fmt.Sprintf(" ORDER BY started_at DESC LIMIT $%d", len(args))

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			status  string
			skipped []byte
			errStr  *string
		)
		if err := rows.Scan(&r.ID, &r.Year, &r.Part, &status, &r.StartedAt, &r.CompletedAt,
			&r.Returns, &r.Officers, &r.Grants, &skipped, &errStr); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		r.Status = RunStatus(status)
		if errStr != nil {
			r.Error = *errStr
		}
		if err := unmarshalSkipped(skipped, &r.Skipped); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func marshalSkipped(skipped []string) ([]byte, error) {
	if len(skipped) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(skipped)
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal skipped members")
	}
	return b, nil
}

func unmarshalSkipped(b []byte, out *[]string) error {
	if len(b) == 0 {
		return nil
	}
	return eris.Wrap(json.Unmarshal(b, out), "store: unmarshal skipped members")
}
