package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/irs990-lake/internal/irs990"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

// Migrate applies pending embedded migrations, each in its own transaction
// together with its schema_migrations row.
func (s *SQLiteStore) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteDialect.trackingTableSQL()); err != nil {
		return eris.Wrap(err, "sqlite: ensure migration table")
	}

	rows, err := s.db.QueryContext(ctx, "SELECT filename FROM schema_migrations")
	if err != nil {
		return eris.Wrap(err, "sqlite: query applied migrations")
	}
	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close() //nolint:errcheck
			return eris.Wrap(err, "sqlite: scan migration row")
		}
		applied[name] = true
	}
	rows.Close() //nolint:errcheck
	if err := rows.Err(); err != nil {
		return eris.Wrap(err, "sqlite: iterate migrations")
	}

	return applyPending(ctx, sqliteDialect, applied, func(ctx context.Context, m migration) error {
		tx, err := s.db.BeginTx(ctx, nil)
		if err != nil {
			return eris.Wrapf(err, "sqlite: begin migration %s", m.name)
		}
		defer tx.Rollback() //nolint:errcheck

		if _, err := tx.ExecContext(ctx, m.sql); err != nil {
			return eris.Wrapf(err, "sqlite: apply migration %s", m.name)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO schema_migrations (filename, applied_at) VALUES (?, ?)", m.name, time.Now().UTC(),
		); err != nil {
			return eris.Wrapf(err, "sqlite: record migration %s", m.name)
		}
		return eris.Wrapf(tx.Commit(), "sqlite: commit migration %s", m.name)
	})
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) LoadBatch(ctx context.Context, p irs990.Partition, t irs990.Tables) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: load batch: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	for _, name := range tableNames {
		if _, err := tx.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE year = ? AND part = ?", name),
			p.Year, p.Part,
		); err != nil {
			return eris.Wrapf(err, "sqlite: clear %s for %s", name, p)
		}
	}

	for _, tbl := range layout(p, t) {
		if err := insertTable(ctx, tx, tbl); err != nil {
			return eris.Wrapf(err, "sqlite: load %s for %s", tbl.name, p)
		}
	}

	return eris.Wrap(tx.Commit(), "sqlite: load batch: commit tx")
}

func insertTable(ctx context.Context, tx *sql.Tx, tbl table) error {
	if tbl.n == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(tbl.columns)), ", ")
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
		"INSERT INTO %s (%s) VALUES (%s)", tbl.name, strings.Join(tbl.columns, ", "), placeholders,
	))
	if err != nil {
		return eris.Wrap(err, "prepare insert")
	}
	defer stmt.Close() //nolint:errcheck

	for i := 0; i < tbl.n; i++ {
		if _, err := stmt.ExecContext(ctx, tbl.row(i)...); err != nil {
			return eris.Wrapf(err, "insert row %d", i)
		}
	}
	return nil
}

// RecordPartition upserts one entry of the partition catalog.
func (s *SQLiteStore) RecordPartition(ctx context.Context, info PartitionInfo) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO partitions (year, part, url, bytes, fetched_at) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (year, part) DO UPDATE SET url = excluded.url, bytes = excluded.bytes, fetched_at = excluded.fetched_at`,
		info.Year, info.Part, info.URL, info.Bytes, info.FetchedAt.UTC(),
	)
	return eris.Wrapf(err, "sqlite: record partition %s", info.Partition)
}

// StartRun inserts a running sync_log row for p and returns its ID.
func (s *SQLiteStore) StartRun(ctx context.Context, p irs990.Partition) (string, error) {
	id := uuid.New().String()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sync_log (id, year, part, status, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, p.Year, p.Part, string(RunStatusRunning), time.Now().UTC(),
	)
	if err != nil {
		return "", eris.Wrapf(err, "sqlite: start run for %s", p)
	}
	return id, nil
}

// CompleteRun marks a run complete and stores its row counts and skipped files.
func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, result RunResult) error {
	skipped, err := marshalSkipped(result.Skipped)
	if err != nil {
		return err
	}
	var skippedArg any
	if skipped != nil {
		skippedArg = string(skipped)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_log SET status = ?, completed_at = ?, returns = ?, officers = ?, grants = ?, skipped = ? WHERE id = ?`,
		string(RunStatusComplete), time.Now().UTC(), result.Returns, result.Officers, result.Grants, skippedArg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

// FailRun marks a run failed with an error message.
func (s *SQLiteStore) FailRun(ctx context.Context, runID string, errMsg string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE sync_log SET status = ?, completed_at = ?, error = ? WHERE id = ?`,
		string(RunStatusFailed), time.Now().UTC(), errMsg, runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

// ListRuns returns sync log entries, most recent first.
func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]Run, error) {
	query := `SELECT id, year, part, status, started_at, completed_at, returns, officers, grants, skipped, error
		FROM sync_log WHERE 1=1`
	var args []any

	if filter.Year > 0 {
		query += ` AND year = ?`
		args = append(args, filter.Year)
	}
	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	query += ` ORDER BY started_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []Run
	for rows.Next() {
		var (
			r           Run
			status      string
			completedAt sql.NullTime
			skipped     sql.NullString
			errStr      sql.NullString
		)
		if err := rows.Scan(&r.ID, &r.Year, &r.Part, &status, &r.StartedAt, &completedAt,
			&r.Returns, &r.Officers, &r.Grants, &skipped, &errStr); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		r.Status = RunStatus(status)
		if completedAt.Valid {
			t := completedAt.Time
			r.CompletedAt = &t
		}
		r.Error = errStr.String
		if err := unmarshalSkipped([]byte(skipped.String), &r.Skipped); err != nil {
			return nil, err
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
