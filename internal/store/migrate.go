package store

import (
	"context"
	"embed"
	"io/fs"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/irs990-lake/internal/db"
)

// Both backends apply the same embedded files, rendered per dialect.
//
//go:embed migrations/*.sql
var migrationFS embed.FS

// Schema is the Postgres schema holding every lake table.
const Schema = "irs990"

const migrationLockKey = 990990

// dialect fills the placeholders of the migration files.
type dialect struct {
	name      string
	prefix    string // table qualifier, including the trailing dot
	timestamp string
	json      string
}

var (
	postgresDialect = dialect{name: "postgres", prefix: Schema + ".", timestamp: "TIMESTAMPTZ", json: "JSONB"}
	sqliteDialect   = dialect{name: "sqlite", timestamp: "DATETIME", json: "TEXT"}
)

func (d dialect) render(sql string) string {
	return strings.NewReplacer(
		"{{schema}}", d.prefix,
		"{{timestamp}}", d.timestamp,
		"{{json}}", d.json,
	).Replace(sql)
}

// trackingTableSQL creates the table recording applied migration files.
func (d dialect) trackingTableSQL() string {
	return d.render(`CREATE TABLE IF NOT EXISTS {{schema}}schema_migrations (
	filename   TEXT PRIMARY KEY,
	applied_at {{timestamp}} NOT NULL
)`)
}

type migration struct {
	name string
	sql  string
}

// migrations returns every embedded file rendered for d, in name order.
// Names are zero-padded so lexical order is numeric order.
func (d dialect) migrations() ([]migration, error) {
	entries, err := fs.ReadDir(migrationFS, "migrations")
	if err != nil {
		return nil, eris.Wrap(err, "store: read migration dir")
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})

	out := make([]migration, 0, len(entries))
	for _, e := range entries {
		data, err := migrationFS.ReadFile("migrations/" + e.Name())
		if err != nil {
			return nil, eris.Wrapf(err, "store: read migration %s", e.Name())
		}
		out = append(out, migration{name: e.Name(), sql: d.render(string(data))})
	}
	return out, nil
}

// applyPending hands every migration not yet in applied to apply, in order.
func applyPending(ctx context.Context, d dialect, applied map[string]bool, apply func(context.Context, migration) error) error {
	ms, err := d.migrations()
	if err != nil {
		return err
	}
	for _, m := range ms {
		if applied[m.name] {
			continue
		}
		zap.L().Info("applying migration", zap.String("dialect", d.name), zap.String("file", m.name))
		if err := apply(ctx, m); err != nil {
			return err
		}
	}
	return nil
}

// MigratePostgres creates the irs990 schema and applies pending migrations
// while holding an advisory lock, so concurrent invocations serialize.
func MigratePostgres(ctx context.Context, pool db.Pool) error {
	if _, err := pool.Exec(ctx, "SELECT pg_advisory_lock($1)", migrationLockKey); err != nil {
		return eris.Wrap(err, "postgres: acquire migration advisory lock")
	}
	defer func() {
		if _, err := pool.Exec(ctx, "SELECT pg_advisory_unlock($1)", migrationLockKey); err != nil {
			zap.L().Warn("postgres: release migration advisory lock", zap.Error(err))
		}
	}()

	if _, err := pool.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+Schema+";\n"+postgresDialect.trackingTableSQL()); err != nil {
		return eris.Wrap(err, "postgres: ensure migration table")
	}

	applied, err := appliedMigrations(ctx, pool)
	if err != nil {
		return err
	}

	return applyPending(ctx, postgresDialect, applied, func(ctx context.Context, m migration) error {
		if _, err := pool.Exec(ctx, m.sql); err != nil {
			return eris.Wrapf(err, "postgres: apply migration %s", m.name)
		}
		if _, err := pool.Exec(ctx,
			"INSERT INTO "+Schema+".schema_migrations (filename, applied_at) VALUES ($1, now())", m.name,
		); err != nil {
			return eris.Wrapf(err, "postgres: record migration %s", m.name)
		}
		return nil
	})
}

func appliedMigrations(ctx context.Context, pool db.Pool) (map[string]bool, error) {
	rows, err := pool.Query(ctx, "SELECT filename FROM "+Schema+".schema_migrations")
	if err != nil {
		return nil, eris.Wrap(err, "postgres: query applied migrations")
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, eris.Wrap(err, "postgres: scan migration row")
		}
		applied[name] = true
	}
	return applied, eris.Wrap(rows.Err(), "postgres: iterate migrations")
}
