package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"bondline/internal/authz"
	"bondline/internal/events"
	"bondline/internal/identity"
	"bondline/internal/ledger"
	"bondline/internal/platform/metrics"
	"bondline/internal/reputation/models"
	"bondline/internal/reputation/store"
	"bondline/pkg/domain"
	dErrors "bondline/pkg/domain-errors"
	"bondline/pkg/platform/tx"
	"bondline/pkg/requestcontext"
)

var (
	owner    = domain.MustAddress("0x000000000000000000000000000000000000a11c")
	oracle   = domain.MustAddress("0x00000000000000000000000000000000000000aa")
	stranger = domain.MustAddress("0x0000000000000000000000000000000000000bad")
)

// =============================================================================
// Reputation Ledger Test Suite
// =============================================================================
// Justification for unit tests: replay safety and monotonic reputation are
// pure bookkeeping rules over the proof set and the record. In-memory stores
// with the real transaction runner cover both the happy path and rollback.

type ReputationServiceSuite struct {
	suite.Suite
	clock    *clock.Mock
	registry *identity.MemoryRegistry
	records  *store.InMemoryReputationStore
	proofs   *store.InMemoryProofStore
	sink     *events.MemorySink
	metrics  *metrics.Metrics
	cfg      ledger.Config
	service  *Service
	id       domain.IdentityID
}

func TestReputationServiceSuite(t *testing.T) {
	suite.Run(t, new(ReputationServiceSuite))
}

func (s *ReputationServiceSuite) SetupTest() {
	s.clock = clock.NewMock()
	s.clock.Set(time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC))
	s.registry = identity.NewMemoryRegistry(s.clock)
	s.records = store.NewInMemoryReputationStore()
	s.proofs = store.NewInMemoryProofStore()
	s.sink = events.NewMemorySink()
	s.metrics = metrics.New(prometheus.NewRegistry())

	s.cfg = ledger.DefaultConfig()
	s.cfg.ProofTypes = map[string]ledger.ProofType{
		"A":      {Increment: 50},
		"kyc":    {Increment: 200, Badge: "kyc_verified"},
		"github": {Increment: 50, Badge: "developer"},
	}
	s.service = s.build(s.records)

	ident, err := s.registry.Register(context.Background(), owner)
	s.Require().NoError(err)
	s.id = ident.ID
}

func (s *ReputationServiceSuite) build(records RecordStore) *Service {
	authorizer := authz.NewStatic(map[authz.Role][]domain.Address{authz.RoleProver: {oracle}})
	return New(records, s.proofs, s.registry, authorizer, tx.NewRunner(), s.cfg,
		WithClock(s.clock),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithPublisher(s.sink),
		WithMetrics(s.metrics),
	)
}

func (s *ReputationServiceSuite) prover() context.Context {
	return requestcontext.WithCaller(context.Background(), oracle)
}

func (s *ReputationServiceSuite) apply(proofType, payload string) *models.ProofResult {
	res, err := s.service.ApplyProof(s.prover(), s.id, proofType, []byte(payload), "")
	s.Require().NoError(err)
	return res
}

// =============================================================================
// ApplyProof
// =============================================================================

func (s *ReputationServiceSuite) TestReplayedProofIsRejected() {
	first := s.apply("A", "payload-1")
	s.EqualValues(50, first.ScoreDelta)

	_, err := s.service.ApplyProof(s.prover(), s.id, "A", []byte("payload-1"), "")
	s.ErrorIs(err, ledger.ErrProofAlreadyVerified)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))

	rec, err := s.service.Get(context.Background(), s.id)
	s.Require().NoError(err)
	s.EqualValues(50, rec.Score, "score ends at 50, not 100")
	s.EqualValues(1, rec.VerifiedProofCount)
	s.Len(s.sink.OfType(events.ProofApplied), 1)
}

func (s *ReputationServiceSuite) TestDifferentPayloadsBothApply() {
	s.apply("A", "payload-1")
	second := s.apply("A", "payload-2")
	s.EqualValues(100, second.Score)
	s.EqualValues(2, second.VerifiedProofCount)

	applied, err := s.service.IsProofApplied(context.Background(), s.id, "A", []byte("payload-2"))
	s.Require().NoError(err)
	s.True(applied)
	applied, err = s.service.IsProofApplied(context.Background(), s.id, "A", []byte("payload-3"))
	s.Require().NoError(err)
	s.False(applied)
}

func (s *ReputationServiceSuite) TestSamePayloadOnAnotherIdentityApplies() {
	other, err := s.registry.Register(context.Background(), stranger)
	s.Require().NoError(err)

	s.apply("A", "shared")
	_, err = s.service.ApplyProof(s.prover(), other.ID, "A", []byte("shared"), "")
	s.NoError(err)
}

func (s *ReputationServiceSuite) TestCrossingBronzeThreshold() {
	first := s.apply("A", "one")
	s.Equal(models.TierNone, first.Tier)
	s.False(first.TierChanged())

	second := s.apply("A", "two")
	s.EqualValues(100, second.Score)
	s.Equal(models.TierNone, second.PreviousTier)
	s.Equal(models.TierBronze, second.Tier, "tier moves in the call that crosses the threshold")

	applied := s.sink.OfType(events.ProofApplied)
	s.Require().Len(applied, 2)
	s.Equal("bronze", applied[1].Attributes["tier"])
	s.Equal("none", applied[1].Attributes["previous_tier"])
	s.Equal(oracle, applied[1].Actor)
	s.Equal(1.0, testutil.ToFloat64(s.metrics.TierTransitions.WithLabelValues("bronze")))
	s.Equal(2.0, testutil.ToFloat64(s.metrics.ProofsApplied.WithLabelValues("A")))
}

func (s *ReputationServiceSuite) TestBadgeAwardedOnce() {
	first := s.apply("github", "octocat")
	s.Equal("developer", first.BadgeAwarded)

	second := s.apply("github", "hubot")
	s.Empty(second.BadgeAwarded, "held badge is a no-op")

	rec, err := s.service.Get(context.Background(), s.id)
	s.Require().NoError(err)
	s.Equal([]string{"developer"}, rec.Badges)
	s.EqualValues(100, rec.Score)
}

func (s *ReputationServiceSuite) TestMetadataIsRecorded() {
	res, err := s.service.ApplyProof(s.prover(), s.id, "kyc", []byte("passport"), `{"issuer":"acme"}`)
	s.Require().NoError(err)
	s.Equal(models.DeriveFingerprint(s.id, "kyc", []byte("passport")), res.Fingerprint)
	s.Equal(models.TierBronze, res.Tier)
	s.Equal("kyc_verified", res.BadgeAwarded)
}

func (s *ReputationServiceSuite) TestApplyProofRejections() {
	s.Run("caller without prover role", func() {
		ctx := requestcontext.WithCaller(context.Background(), stranger)
		_, err := s.service.ApplyProof(ctx, s.id, "A", []byte("x"), "")
		s.ErrorIs(err, ledger.ErrUnauthorized)
	})

	s.Run("anonymous caller", func() {
		_, err := s.service.ApplyProof(context.Background(), s.id, "A", []byte("x"), "")
		s.ErrorIs(err, ledger.ErrUnauthorized)
	})

	s.Run("unknown identity", func() {
		_, err := s.service.ApplyProof(s.prover(), 404, "A", []byte("x"), "")
		s.ErrorIs(err, ledger.ErrIdentityNotFound)
	})

	s.Run("unknown proof type", func() {
		_, err := s.service.ApplyProof(s.prover(), s.id, "carrier_pigeon", []byte("x"), "")
		s.ErrorIs(err, ledger.ErrInvalidProofType)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("empty payload", func() {
		_, err := s.service.ApplyProof(s.prover(), s.id, "A", nil, "")
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("suspended identity", func() {
		_, err := s.registry.SetStatus(context.Background(), s.id, identity.StatusSuspended)
		s.Require().NoError(err)
		_, err = s.service.ApplyProof(s.prover(), s.id, "A", []byte("x"), "")
		s.ErrorIs(err, ledger.ErrIdentityInactive)
		_, err = s.registry.SetStatus(context.Background(), s.id, identity.StatusActive)
		s.Require().NoError(err)
	})

	rec, err := s.service.Get(context.Background(), s.id)
	s.Require().NoError(err)
	s.Zero(rec.Score)
	s.Empty(s.sink.Events())
}

func (s *ReputationServiceSuite) TestFailedRecordWriteReleasesFingerprint() {
	failing := &failingRecordStore{RecordStore: s.records, err: errors.New("disk full")}
	svc := s.build(failing)

	_, err := svc.ApplyProof(s.prover(), s.id, "A", []byte("payload"), "")
	s.Require().Error(err)
	s.True(dErrors.HasCode(err, dErrors.CodeInternal))

	applied, err := s.service.IsProofApplied(context.Background(), s.id, "A", []byte("payload"))
	s.Require().NoError(err)
	s.False(applied, "fingerprint insert rolled back")

	s.apply("A", "payload")
}

// =============================================================================
// Properties
// =============================================================================

func (s *ReputationServiceSuite) TestReputationIsMonotonic() {
	rng := rand.New(rand.NewSource(7))
	types := []string{"A", "kyc", "github"}

	var last models.Record
	for i := range 200 {
		proofType := types[rng.Intn(len(types))]
		payload := fmt.Sprintf("p-%d", rng.Intn(60))
		_, err := s.service.ApplyProof(s.prover(), s.id, proofType, []byte(payload), "")
		if err != nil {
			s.Require().ErrorIs(err, ledger.ErrProofAlreadyVerified, "step %d", i)
		}

		rec, err := s.service.Get(context.Background(), s.id)
		s.Require().NoError(err)
		s.GreaterOrEqual(rec.Score, last.Score)
		s.GreaterOrEqual(int(rec.Tier), int(last.Tier))
		s.GreaterOrEqual(rec.VerifiedProofCount, last.VerifiedProofCount)
		s.Equal(s.service.GetTier(rec.Score), rec.Tier)
		last = *rec
	}
}

func (s *ReputationServiceSuite) TestGetTier() {
	s.Equal(models.TierNone, s.service.GetTier(99))
	s.Equal(models.TierBronze, s.service.GetTier(100))
	s.Equal(models.TierWhale, s.service.GetTier(10_000))
}

type failingRecordStore struct {
	RecordStore
	err error
}

func (f *failingRecordStore) Save(context.Context, *models.Record) error {
	return f.err
}
