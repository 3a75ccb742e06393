package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"bondline/internal/platform/database"
	"bondline/internal/reputation/models"
	"bondline/pkg/domain"
	"bondline/pkg/platform/sentinel"
)

// SQLReputationStore persists reputation records. Badges are stored as a
// comma-separated sorted list.
type SQLReputationStore struct {
	db *database.DB
}

func NewSQLReputationStore(db *database.DB) *SQLReputationStore {
	return &SQLReputationStore{db: db}
}

func (s *SQLReputationStore) FindByIdentity(ctx context.Context, id domain.IdentityID) (*models.Record, error) {
	query := s.db.Rebind(`
		SELECT identity_id, score, tier, verified_proof_count, badges, updated_at
		FROM reputation_records
		WHERE identity_id = ?` + s.db.ForUpdate())

	var (
		rec    models.Record
		tier   int
		badges string
	)
	err := s.db.Conn(ctx).QueryRowContext(ctx, query, uint64(id)).Scan(
		&rec.IdentityID, &rec.Score, &tier, &rec.VerifiedProofCount, &badges, &rec.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("reputation record %s: %w", id, sentinel.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find reputation record: %w", err)
	}
	rec.Tier = models.Tier(tier)
	rec.UpdatedAt = rec.UpdatedAt.UTC()
	rec.Badges = []string{}
	if badges != "" {
		rec.Badges = strings.Split(badges, ",")
	}
	return &rec, nil
}

func (s *SQLReputationStore) Save(ctx context.Context, rec *models.Record) error {
	query := s.db.Rebind(`
		INSERT INTO reputation_records (identity_id, score, tier, verified_proof_count, badges, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (identity_id) DO UPDATE SET
			score = EXCLUDED.score,
			tier = EXCLUDED.tier,
			verified_proof_count = EXCLUDED.verified_proof_count,
			badges = EXCLUDED.badges,
			updated_at = EXCLUDED.updated_at`)
	_, err := s.db.Conn(ctx).ExecContext(ctx, query,
		uint64(rec.IdentityID), rec.Score, int(rec.Tier), rec.VerifiedProofCount,
		strings.Join(rec.Badges, ","), rec.UpdatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("save reputation record: %w", err)
	}
	return nil
}

// SQLProofStore records applied fingerprints. The primary key is the replay
// guard.
type SQLProofStore struct {
	db *database.DB
}

func NewSQLProofStore(db *database.DB) *SQLProofStore {
	return &SQLProofStore{db: db}
}

func (s *SQLProofStore) Insert(ctx context.Context, p *models.ProofRecord) error {
	query := s.db.Rebind(`
		INSERT INTO proof_records (fingerprint, identity_id, proof_type, prover, metadata, score_delta, applied_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	_, err := s.db.Conn(ctx).ExecContext(ctx, query,
		string(p.Fingerprint), uint64(p.IdentityID), p.ProofType, string(p.Prover),
		p.Metadata, p.ScoreDelta, p.AppliedAt.UTC(),
	)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return fmt.Errorf("proof %s: %w", p.Fingerprint, sentinel.ErrConflict)
		}
		return fmt.Errorf("insert proof record: %w", err)
	}
	return nil
}

func (s *SQLProofStore) Exists(ctx context.Context, fp models.Fingerprint) (bool, error) {
	query := s.db.Rebind(`SELECT 1 FROM proof_records WHERE fingerprint = ?`)
	var one int
	err := s.db.Conn(ctx).QueryRowContext(ctx, query, string(fp)).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check proof record: %w", err)
	}
	return true, nil
}
