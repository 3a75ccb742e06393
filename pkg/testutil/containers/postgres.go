//go:build integration

package containers

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"bondline/internal/platform/database"
)

const postgresImage = "postgres:16-alpine"

// PostgresContainer wraps a testcontainers Postgres instance with the ledger
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *database.DB
}

// NewPostgresContainer starts Postgres and runs the ledger migrations.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()

	container, err := tcpostgres.Run(ctx, postgresImage,
		tcpostgres.WithDatabase("bondline"),
		tcpostgres.WithUsername("bondline"),
		tcpostgres.WithPassword("bondline"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := database.Open(ctx, string(database.Postgres), dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres: %v", err)
	}

	return &PostgresContainer{
		Container: container,
		DSN:       dsn,
		DB:        db,
	}
}

// TruncateTables empties the given tables and resets the singleton totals
// rows to their migrated state.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) > 0 {
		query := fmt.Sprintf("TRUNCATE TABLE %s RESTART IDENTITY CASCADE", strings.Join(tables, ", "))
		if _, err := p.DB.ExecContext(ctx, query); err != nil {
			return fmt.Errorf("truncate tables: %w", err)
		}
	}
	return p.resetTotals(ctx)
}

func (p *PostgresContainer) resetTotals(ctx context.Context) error {
	if _, err := p.DB.ExecContext(ctx, `UPDATE ledger_totals SET total_staked = 0, total_slashed = 0 WHERE id = 1`); err != nil {
		return fmt.Errorf("reset stake totals: %w", err)
	}
	_, err := p.DB.ExecContext(ctx, `UPDATE claim_totals
		SET next_sequence = 1, total_slashed = 0, total_fees = 0, total_payouts = 0, approved = 0, rejected = 0
		WHERE id = 1`)
	if err != nil {
		return fmt.Errorf("reset claim totals: %w", err)
	}
	return nil
}
