package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"bondline/internal/claims/models"
	"bondline/internal/platform/database"
	"bondline/pkg/domain"
	"bondline/pkg/platform/sentinel"
)

const claimColumns = `id, sequence, target_identity, claimant, amount_requested, reason, submitted_at,
	status, challenge_deadline, challenged_at, resolved_at, resolved_by, slashed_amount, fee, payout`

// SQLClaimStore persists claims in Postgres or SQLite.
type SQLClaimStore struct {
	db *database.DB
}

func NewSQLClaimStore(db *database.DB) *SQLClaimStore {
	return &SQLClaimStore{db: db}
}

func (s *SQLClaimStore) NextSequence(ctx context.Context) (uint64, error) {
	conn := s.db.Conn(ctx)
	var next uint64
	query := `SELECT next_sequence FROM claim_totals WHERE id = 1` + s.db.ForUpdate()
	if err := conn.QueryRowContext(ctx, query).Scan(&next); err != nil {
		return 0, fmt.Errorf("read claim sequence: %w", err)
	}
	if _, err := conn.ExecContext(ctx, s.db.Rebind(`UPDATE claim_totals SET next_sequence = ? WHERE id = 1`), next+1); err != nil {
		return 0, fmt.Errorf("advance claim sequence: %w", err)
	}
	return next, nil
}

func (s *SQLClaimStore) Create(ctx context.Context, c *models.Claim) error {
	query := s.db.Rebind(`INSERT INTO claims (` + claimColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.Conn(ctx).ExecContext(ctx, query, claimArgs(c)...)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("claim %s: %w", c.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert claim: %w", err)
	}
	return nil
}

func (s *SQLClaimStore) FindByID(ctx context.Context, id domain.ClaimID) (*models.Claim, error) {
	query := s.db.Rebind(`SELECT ` + claimColumns + ` FROM claims WHERE id = ?` + s.db.ForUpdate())
	c, err := scanClaim(s.db.Conn(ctx).QueryRowContext(ctx, query, string(id)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("claim %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find claim: %w", err)
	}
	return c, nil
}

func (s *SQLClaimStore) Update(ctx context.Context, c *models.Claim) error {
	query := s.db.Rebind(`UPDATE claims SET
			status = ?, challenged_at = ?, resolved_at = ?, resolved_by = ?,
			slashed_amount = ?, fee = ?, payout = ?
		WHERE id = ?`)
	res, err := s.db.Conn(ctx).ExecContext(ctx, query,
		string(c.Status), nullTime(c.ChallengedAt), nullTime(c.ResolvedAt), database.NullString(string(c.ResolvedBy)),
		uint64(c.SlashedAmount), uint64(c.Fee), uint64(c.Payout), string(c.ID),
	)
	if err != nil {
		return fmt.Errorf("update claim: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("claim %s: %w", c.ID, sentinel.ErrNotFound)
	}
	return nil
}

func (s *SQLClaimStore) ListByTarget(ctx context.Context, target domain.IdentityID) ([]*models.Claim, error) {
	query := s.db.Rebind(`SELECT ` + claimColumns + ` FROM claims WHERE target_identity = ? ORDER BY sequence`)
	rows, err := s.db.Conn(ctx).QueryContext(ctx, query, uint64(target))
	if err != nil {
		return nil, fmt.Errorf("list claims: %w", err)
	}
	defer rows.Close()

	var out []*models.Claim
	for rows.Next() {
		c, err := scanClaim(rows)
		if err != nil {
			return nil, fmt.Errorf("scan claim: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *SQLClaimStore) Totals(ctx context.Context) (models.Totals, error) {
	var t models.Totals
	query := `SELECT total_slashed, total_fees, total_payouts, approved, rejected FROM claim_totals WHERE id = 1` + s.db.ForUpdate()
	err := s.db.Conn(ctx).QueryRowContext(ctx, query).Scan(&t.TotalSlashed, &t.TotalFees, &t.TotalPayouts, &t.Approved, &t.Rejected)
	if err != nil {
		return models.Totals{}, fmt.Errorf("read claim totals: %w", err)
	}
	return t, nil
}

// UpdateTotals reads the totals row with a lock, applies change and writes it
// back. Callers run it inside the ledger transaction.
func (s *SQLClaimStore) UpdateTotals(ctx context.Context, change func(*models.Totals) error) error {
	t, err := s.Totals(ctx)
	if err != nil {
		return err
	}
	if err := change(&t); err != nil {
		return err
	}
	query := s.db.Rebind(`UPDATE claim_totals
		SET total_slashed = ?, total_fees = ?, total_payouts = ?, approved = ?, rejected = ?
		WHERE id = 1`)
	_, err = s.db.Conn(ctx).ExecContext(ctx, query,
		uint64(t.TotalSlashed), uint64(t.TotalFees), uint64(t.TotalPayouts), t.Approved, t.Rejected)
	if err != nil {
		return fmt.Errorf("save claim totals: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanClaim(row scanner) (*models.Claim, error) {
	var (
		c            models.Claim
		id, status   string
		challengedAt sql.NullTime
		resolvedAt   sql.NullTime
		resolvedBy   sql.NullString
	)
	err := row.Scan(&id, &c.Sequence, &c.Target, &c.Claimant, &c.AmountRequested, &c.Reason, &c.SubmittedAt,
		&status, &c.ChallengeDeadline, &challengedAt, &resolvedAt, &resolvedBy, &c.SlashedAmount, &c.Fee, &c.Payout)
	if err != nil {
		return nil, err
	}
	c.ID = domain.ClaimID(id)
	c.Status = models.Status(status)
	c.SubmittedAt = c.SubmittedAt.UTC()
	c.ChallengeDeadline = c.ChallengeDeadline.UTC()
	if challengedAt.Valid {
		t := challengedAt.Time.UTC()
		c.ChallengedAt = &t
	}
	if resolvedAt.Valid {
		t := resolvedAt.Time.UTC()
		c.ResolvedAt = &t
	}
	c.ResolvedBy = domain.Address(resolvedBy.String)
	return &c, nil
}

func claimArgs(c *models.Claim) []any {
	return []any{
		string(c.ID), c.Sequence, uint64(c.Target), string(c.Claimant), uint64(c.AmountRequested), c.Reason,
		c.SubmittedAt.UTC(), string(c.Status), c.ChallengeDeadline.UTC(), nullTime(c.ChallengedAt),
		nullTime(c.ResolvedAt), database.NullString(string(c.ResolvedBy)), uint64(c.SlashedAmount), uint64(c.Fee), uint64(c.Payout),
	}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}
