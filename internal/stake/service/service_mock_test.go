package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	custodymocks "bondline/internal/custody/mocks"
	"bondline/internal/events"
	eventmocks "bondline/internal/events/mocks"
	"bondline/internal/identity"
	"bondline/internal/ledger"
	"bondline/internal/stake/store"
	"bondline/pkg/domain"
	"bondline/pkg/platform/tx"
	"bondline/pkg/requestcontext"
)

// =============================================================================
// Effect Ordering Test Suite
// =============================================================================
// Justification for unit tests: the mutate-then-effect ordering is only
// observable at the custody boundary. Mocks let the test inspect ledger state
// at the moment the transfer is issued and inject transfer and sink failures.

type StakeEffectsSuite struct {
	suite.Suite
	ctrl      *gomock.Controller
	vault     *custodymocks.MockVault
	publisher *eventmocks.MockPublisher
	records   *store.InMemoryStakeStore
	service   *Service
	ctx       context.Context
	id        domain.IdentityID
}

func TestStakeEffectsSuite(t *testing.T) {
	suite.Run(t, new(StakeEffectsSuite))
}

func (s *StakeEffectsSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.vault = custodymocks.NewMockVault(s.ctrl)
	s.publisher = eventmocks.NewMockPublisher(s.ctrl)
	s.records = store.NewInMemoryStakeStore()

	clk := clock.NewMock()
	clk.Set(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
	registry := identity.NewMemoryRegistry(clk)
	ident, err := registry.Register(context.Background(), alice)
	s.Require().NoError(err)
	s.id = ident.ID
	s.ctx = requestcontext.WithCaller(context.Background(), alice)

	cfg := ledger.DefaultConfig()
	cfg.MinimumStake = minimumStake
	cfg.FeeSink = feeSink
	s.service = New(s.records, registry, s.vault, tx.NewRunner(), cfg,
		WithClock(clk),
		WithPublisher(s.publisher),
	)
}

func (s *StakeEffectsSuite) TearDownTest() {
	s.ctrl.Finish()
}

func (s *StakeEffectsSuite) TestCollectRunsAfterStateIsWritten() {
	s.vault.EXPECT().Collect(gomock.Any(), alice, domain.Amount(1000)).
		DoAndReturn(func(ctx context.Context, _ domain.Address, _ domain.Amount) error {
			rec, err := s.records.FindByIdentity(ctx, s.id)
			s.Require().NoError(err, "record must be written before collateral moves")
			s.Equal(domain.Amount(1000), rec.Amount)
			totals, _ := s.records.Totals(ctx)
			s.Equal(domain.Amount(1000), totals.TotalStaked)
			return nil
		})
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, evs ...events.Event) error {
			s.Require().Len(evs, 1)
			s.Equal(events.StakeCredited, evs[0].Type)
			s.Equal(alice, evs[0].Actor)
			s.Equal("true", evs[0].Attributes["verified"])
			return nil
		})

	_, err := s.service.Stake(s.ctx, s.id, 1000)
	s.Require().NoError(err)
}

func (s *StakeEffectsSuite) TestFailedCollectLeavesNoTrace() {
	s.vault.EXPECT().Collect(gomock.Any(), alice, domain.Amount(1000)).Return(errors.New("allowance too low"))

	_, err := s.service.Stake(s.ctx, s.id, 1000)
	s.Require().Error(err)

	_, err = s.records.FindByIdentity(context.Background(), s.id)
	s.Error(err, "lazily created record must be rolled back")
	totals, _ := s.records.Totals(context.Background())
	s.Zero(totals.TotalStaked)
}

func (s *StakeEffectsSuite) TestPublishFailureDoesNotFailTheOperation() {
	s.vault.EXPECT().Collect(gomock.Any(), alice, domain.Amount(10)).Return(nil)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(errors.New("broker unavailable"))

	rec, err := s.service.Stake(s.ctx, s.id, 10)
	s.Require().NoError(err)
	s.Equal(domain.Amount(10), rec.Amount)
}

func (s *StakeEffectsSuite) TestReconcileReportsVaultDrift() {
	s.vault.EXPECT().Collect(gomock.Any(), alice, domain.Amount(10)).Return(nil)
	s.publisher.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(nil)
	_, err := s.service.Stake(s.ctx, s.id, 10)
	s.Require().NoError(err)

	s.vault.EXPECT().Balance(gomock.Any()).Return(domain.Amount(9), nil)
	rec, err := s.service.Reconcile(context.Background())
	s.Require().NoError(err)
	s.False(rec.Balanced)
	s.Len(rec.Discrepancies, 1)
	s.Equal(domain.Amount(10), rec.SumOfRecords)
}
