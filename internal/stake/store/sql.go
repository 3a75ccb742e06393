package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"bondline/internal/platform/database"
	"bondline/internal/stake/models"
	"bondline/pkg/domain"
	"bondline/pkg/platform/sentinel"
)

// SQLStakeStore persists stake records in Postgres or SQLite. Reads made
// inside a transaction lock the row on Postgres.
type SQLStakeStore struct {
	db *database.DB
}

func NewSQLStakeStore(db *database.DB) *SQLStakeStore {
	return &SQLStakeStore{db: db}
}

func (s *SQLStakeStore) FindByIdentity(ctx context.Context, id domain.IdentityID) (*models.StakeRecord, error) {
	query := s.db.Rebind(`
		SELECT identity_id, amount, staked_at, verified, unstake_requested_at, updated_at
		FROM stake_records
		WHERE identity_id = ?` + s.db.ForUpdate())

	var (
		rec         models.StakeRecord
		requestedAt sql.NullTime
	)
	err := s.db.Conn(ctx).QueryRowContext(ctx, query, uint64(id)).Scan(
		&rec.IdentityID, &rec.Amount, &rec.StakedAt, &rec.Verified, &requestedAt, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("stake record %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find stake record: %w", err)
	}
	rec.StakedAt = rec.StakedAt.UTC()
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	if requestedAt.Valid {
		t := requestedAt.Time.UTC()
		rec.UnstakeRequestedAt = &t
	}
	return &rec, nil
}

func (s *SQLStakeStore) Save(ctx context.Context, rec *models.StakeRecord) error {
	query := s.db.Rebind(`
		INSERT INTO stake_records (identity_id, amount, staked_at, verified, unstake_requested_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (identity_id) DO UPDATE SET
			amount = EXCLUDED.amount,
			verified = EXCLUDED.verified,
			unstake_requested_at = EXCLUDED.unstake_requested_at,
			updated_at = EXCLUDED.updated_at`)

	var requestedAt sql.NullTime
	if rec.UnstakeRequestedAt != nil {
		requestedAt = sql.NullTime{Time: rec.UnstakeRequestedAt.UTC(), Valid: true}
	}
	_, err := s.db.Conn(ctx).ExecContext(ctx, query,
		uint64(rec.IdentityID), uint64(rec.Amount), rec.StakedAt.UTC(), rec.Verified, requestedAt, rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save stake record: %w", err)
	}
	return nil
}

func (s *SQLStakeStore) Totals(ctx context.Context) (models.Totals, error) {
	var t models.Totals
	query := `SELECT total_staked, total_slashed FROM ledger_totals WHERE id = 1` + s.db.ForUpdate()
	if err := s.db.Conn(ctx).QueryRowContext(ctx, query).Scan(&t.TotalStaked, &t.TotalSlashed); err != nil {
		return models.Totals{}, fmt.Errorf("read ledger totals: %w", err)
	}
	return t, nil
}

// UpdateTotals reads the totals row with a lock, applies change and writes it
// back. Callers run it inside the ledger transaction.
func (s *SQLStakeStore) UpdateTotals(ctx context.Context, change func(*models.Totals) error) error {
	t, err := s.Totals(ctx)
	if err != nil {
		return err
	}
	if err := change(&t); err != nil {
		return err
	}
	query := s.db.Rebind(`UPDATE ledger_totals SET total_staked = ?, total_slashed = ? WHERE id = 1`)
	if _, err := s.db.Conn(ctx).ExecContext(ctx, query, uint64(t.TotalStaked), uint64(t.TotalSlashed)); err != nil {
		return fmt.Errorf("save ledger totals: %w", err)
	}
	return nil
}

func (s *SQLStakeStore) Sum(ctx context.Context) (domain.Amount, int, error) {
	rows, err := s.db.Conn(ctx).QueryContext(ctx, `SELECT amount FROM stake_records`)
	if err != nil {
		return 0, 0, fmt.Errorf("sum stake records: %w", err)
	}
	defer rows.Close()

	var (
		sum   domain.Amount
		count int
	)
	for rows.Next() {
		var amt domain.Amount
		if err := rows.Scan(&amt); err != nil {
			return 0, 0, fmt.Errorf("scan stake amount: %w", err)
		}
		if sum, err = sum.Add(amt); err != nil {
			return 0, 0, err
		}
		count++
	}
	return sum, count, rows.Err()
}
