// Package service implements the reputation ledger: replay-safe proof
// application, monotonic score and tier, and badge awards.
package service

import (
	"context"
	"errors"
	"log/slog"
	"strconv"
	"time"

	"github.com/benbjohnson/clock"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"bondline/internal/authz"
	"bondline/internal/events"
	"bondline/internal/identity"
	"bondline/internal/ledger"
	"bondline/internal/platform/metrics"
	"bondline/internal/reputation/models"
	"bondline/pkg/domain"
	dErrors "bondline/pkg/domain-errors"
	"bondline/pkg/platform/sentinel"
	"bondline/pkg/platform/tx"
	"bondline/pkg/requestcontext"
)

// RecordStore persists per-identity reputation.
type RecordStore interface {
	FindByIdentity(ctx context.Context, id domain.IdentityID) (*models.Record, error)
	Save(ctx context.Context, rec *models.Record) error
}

// ProofStore is the set of applied fingerprints. Insert fails with
// sentinel.ErrConflict when the fingerprint is already present.
type ProofStore interface {
	Insert(ctx context.Context, p *models.ProofRecord) error
	Exists(ctx context.Context, fp models.Fingerprint) (bool, error)
}

// Service is the reputation ledger.
type Service struct {
	records    RecordStore
	proofs     ProofStore
	registry   identity.Registry
	authorizer authz.Authorizer
	runner     tx.Runner
	cfg        ledger.Config
	clock      clock.Clock
	logger     *slog.Logger
	publisher  events.Publisher
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithPublisher(p events.Publisher) Option {
	return func(s *Service) {
		s.publisher = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithClock(c clock.Clock) Option {
	return func(s *Service) {
		s.clock = c
	}
}

func New(
	records RecordStore,
	proofs ProofStore,
	registry identity.Registry,
	authorizer authz.Authorizer,
	runner tx.Runner,
	cfg ledger.Config,
	opts ...Option,
) *Service {
	s := &Service{
		records:    records,
		proofs:     proofs,
		registry:   registry,
		authorizer: authorizer,
		runner:     runner,
		cfg:        cfg,
		clock:      clock.New(),
		tracer:     otel.Tracer("bondline/reputation"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ApplyProof credits a prover-attested proof to id. Each (identity, type,
// payload) triple applies at most once.
func (s *Service) ApplyProof(ctx context.Context, id domain.IdentityID, proofType string, payload []byte, metadata string) (_ *models.ProofResult, err error) {
	ctx, span := s.tracer.Start(ctx, "reputation.ApplyProof",
		trace.WithAttributes(ledger.IdentityAttr(id), attribute.String("ledger.proof_type", proofType)))
	defer func(start time.Time) {
		ledger.EndSpan(span, err)
		s.metrics.ObserveOperation("apply_proof", start, err)
	}(time.Now())

	if err := authz.Require(ctx, s.authorizer, authz.RoleProver); err != nil {
		return nil, err
	}

	var result *models.ProofResult
	err = s.runner.RunInTx(ctx, ledger.IdentityKey(id), func(ctx context.Context) error {
		ident, err := identity.Resolve(ctx, s.registry, id)
		if err != nil {
			return err
		}
		if err := identity.RequireActive(ident); err != nil {
			return err
		}
		pt, ok := s.cfg.ProofTypes[proofType]
		if !ok || pt.Increment == 0 {
			return ledger.Reject(ledger.ErrInvalidProofType, "proof type "+strconv.Quote(proofType)+" is not configured")
		}
		if len(payload) == 0 {
			return dErrors.New(dErrors.CodeValidation, "proof payload is required")
		}

		now := s.clock.Now().UTC()
		fp := models.DeriveFingerprint(id, proofType, payload)
		err = s.proofs.Insert(ctx, &models.ProofRecord{
			Fingerprint: fp,
			IdentityID:  id,
			ProofType:   proofType,
			Prover:      requestcontext.Caller(ctx),
			Metadata:    metadata,
			ScoreDelta:  pt.Increment,
			AppliedAt:   now,
		})
		if errors.Is(err, sentinel.ErrConflict) {
			return ledger.Reject(ledger.ErrProofAlreadyVerified, "proof has already been applied")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to record proof")
		}

		rec, err := s.find(ctx, id)
		if err != nil {
			return err
		}
		prev, err := rec.Credit(pt.Increment, s.cfg.TierThresholds, now)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInvariantViolation, "reputation score overflow")
		}
		result = &models.ProofResult{
			Fingerprint:        fp,
			ScoreDelta:         pt.Increment,
			Score:              rec.Score,
			Tier:               rec.Tier,
			PreviousTier:       prev,
			VerifiedProofCount: rec.VerifiedProofCount,
		}
		if rec.AwardBadge(pt.Badge) {
			result.BadgeAwarded = pt.Badge
		}
		if err := s.records.Save(ctx, rec); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save reputation record")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	ledger.LogAudit(ctx, s.logger, string(events.ProofApplied),
		"identity_id", id, "proof_type", proofType, "score", result.Score, "tier", result.Tier.String())
	s.emit(ctx, id, proofType, result)
	s.metrics.IncrementProofApplied(proofType)
	if result.TierChanged() {
		s.metrics.IncrementTierTransition(result.Tier.String())
	}
	return result, nil
}

// GetTier maps score onto the configured tier thresholds.
func (s *Service) GetTier(score uint64) models.Tier {
	return models.GetTier(s.cfg.TierThresholds, score)
}

// Get returns id's reputation. Known identities without proofs report a
// zero record.
func (s *Service) Get(ctx context.Context, id domain.IdentityID) (*models.Record, error) {
	if _, err := identity.Resolve(ctx, s.registry, id); err != nil {
		return nil, err
	}
	return s.find(ctx, id)
}

// IsProofApplied reports whether the (identity, type, payload) triple has
// been applied.
func (s *Service) IsProofApplied(ctx context.Context, id domain.IdentityID, proofType string, payload []byte) (bool, error) {
	ok, err := s.proofs.Exists(ctx, models.DeriveFingerprint(id, proofType, payload))
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check proof")
	}
	return ok, nil
}

func (s *Service) find(ctx context.Context, id domain.IdentityID) (*models.Record, error) {
	rec, err := s.records.FindByIdentity(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return models.NewRecord(id), nil
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load reputation record")
	}
	return rec, nil
}

func (s *Service) emit(ctx context.Context, id domain.IdentityID, proofType string, r *models.ProofResult) {
	ev := events.New(events.ProofApplied, id, s.clock.Now()).
		With("proof_type", proofType).
		With("fingerprint", string(r.Fingerprint)).
		With("score_delta", strconv.FormatUint(r.ScoreDelta, 10)).
		With("score", strconv.FormatUint(r.Score, 10)).
		With("tier", r.Tier.String())
	if r.TierChanged() {
		ev = ev.With("previous_tier", r.PreviousTier.String())
	}
	if r.BadgeAwarded != "" {
		ev = ev.With("badge", r.BadgeAwarded)
	}
	ledger.Emit(ctx, s.logger, s.publisher, ev)
}
