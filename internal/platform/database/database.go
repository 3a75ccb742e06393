// Package database opens the ledger's SQL backend and applies migrations.
// Postgres (lib/pq) and SQLite (modernc) share one schema and one set of
// stores; Dialect papers over placeholder and locking syntax.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"bondline/internal/platform/database/migrations"
	"bondline/pkg/platform/tx"
)

// Dialect identifies the SQL flavour.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB is a *sql.DB tagged with its dialect.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Querier is satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the configured backend and runs migrations.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	switch Dialect(driver) {
	case Postgres:
		return open(ctx, Postgres, "postgres", dsn)
	case SQLite:
		if strings.TrimSpace(dsn) == "" {
			return nil, fmt.Errorf("sqlite path is required")
		}
		path := dsn
		if path != ":memory:" {
			path = filepath.Clean(path)
		}
		return open(ctx, SQLite, "sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=foreign_keys(1)")
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
}

func open(ctx context.Context, dialect Dialect, driverName, dsn string) (*DB, error) {
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s db: %w", dialect, err)
	}
	if dialect == SQLite {
		// One writer; the tx runner already serializes per identity.
		sqlDB.SetMaxOpenConns(1)
	} else {
		sqlDB.SetMaxOpenConns(25)
		sqlDB.SetMaxIdleConns(5)
		sqlDB.SetConnMaxLifetime(30 * time.Minute)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping %s db: %w", dialect, err)
	}
	db := &DB{DB: sqlDB, Dialect: dialect}
	if err := db.Migrate(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return db, nil
}

// Conn returns the transaction carried in ctx, or the pool.
func (d *DB) Conn(ctx context.Context) Querier {
	if sqlTx, ok := tx.From(ctx); ok {
		return sqlTx
	}
	return d.DB
}

// Rebind rewrites ? placeholders to $n for Postgres.
func (d *DB) Rebind(query string) string {
	if d.Dialect != Postgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ForUpdate is the row-lock suffix for SELECTs inside a transaction. SQLite
// locks the database on write and has no row locks.
func (d *DB) ForUpdate() string {
	if d.Dialect == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// Migrate applies embedded migrations at most once each.
func (d *DB) Migrate(ctx context.Context) error {
	if _, err := d.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at BIGINT NOT NULL
	)`); err != nil {
		return fmt.Errorf("ensure migration table: %w", err)
	}
	files, err := migrations.Files()
	if err != nil {
		return err
	}
	for _, name := range files {
		var exists int
		err := d.QueryRowContext(ctx, d.Rebind(`SELECT COUNT(1) FROM schema_migrations WHERE name = ?`), name).Scan(&exists)
		if err != nil {
			return fmt.Errorf("check migration %s: %w", name, err)
		}
		if exists > 0 {
			continue
		}
		body, err := migrations.Read(name)
		if err != nil {
			return err
		}
		sqlTx, err := d.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin migration %s: %w", name, err)
		}
		for _, stmt := range splitStatements(body) {
			if _, err := sqlTx.ExecContext(ctx, stmt); err != nil {
				_ = sqlTx.Rollback()
				return fmt.Errorf("exec migration %s: %w", name, err)
			}
		}
		if _, err := sqlTx.ExecContext(ctx, d.Rebind(`INSERT INTO schema_migrations (name, applied_at) VALUES (?, ?)`),
			name, time.Now().UTC().UnixMilli()); err != nil {
			_ = sqlTx.Rollback()
			return fmt.Errorf("record migration %s: %w", name, err)
		}
		if err := sqlTx.Commit(); err != nil {
			return fmt.Errorf("commit migration %s: %w", name, err)
		}
	}
	return nil
}

func splitStatements(body string) []string {
	var out []string
	for _, stmt := range strings.Split(body, ";") {
		if s := strings.TrimSpace(stmt); s != "" {
			out = append(out, s)
		}
	}
	return out
}
