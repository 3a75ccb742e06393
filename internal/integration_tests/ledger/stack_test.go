package ledger_test

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"bondline/internal/admin"
	"bondline/internal/authz"
	claimshandler "bondline/internal/claims/handler"
	claimsservice "bondline/internal/claims/service"
	claimsstore "bondline/internal/claims/store"
	"bondline/internal/custody"
	"bondline/internal/events"
	"bondline/internal/identity"
	jwttoken "bondline/internal/jwt_token"
	"bondline/internal/ledger"
	reputationhandler "bondline/internal/reputation/handler"
	reputationservice "bondline/internal/reputation/service"
	reputationstore "bondline/internal/reputation/store"
	stakehandler "bondline/internal/stake/handler"
	stakeservice "bondline/internal/stake/service"
	stakestore "bondline/internal/stake/store"
	httptransport "bondline/internal/transport/http"
	"bondline/pkg/domain"
	"bondline/pkg/platform/tx"
	"bondline/pkg/testutil"
)

var (
	alice       = domain.MustAddress("0x000000000000000000000000000000000000a11c")
	bob         = domain.MustAddress("0x0000000000000000000000000000000000000b0b")
	oracle      = domain.MustAddress("0x00000000000000000000000000000000000000aa")
	judge       = domain.MustAddress("0x00000000000000000000000000000000000000cc")
	operator    = domain.MustAddress("0x00000000000000000000000000000000000000ad")
	treasury    = domain.MustAddress("0x00000000000000000000000000000000000000fe")
	startOfTest = time.Date(2026, 6, 1, 9, 0, 0, 0, time.UTC)
)

// backend is the set of stores a stack runs on.
type backend struct {
	stake   stakeservice.Store
	claims  claimsservice.Store
	records reputationservice.RecordStore
	proofs  reputationservice.ProofStore
	runner  tx.Runner
}

func memoryBackend() backend {
	return backend{
		stake:   stakestore.NewInMemoryStakeStore(),
		claims:  claimsstore.NewInMemoryClaimStore(),
		records: reputationstore.NewInMemoryReputationStore(),
		proofs:  reputationstore.NewInMemoryProofStore(),
		runner:  tx.NewRunner(),
	}
}

// stack is the full HTTP surface over one backend, with token-carried roles.
type stack struct {
	router   http.Handler
	clock    *clock.Mock
	vault    *custody.MemoryVault
	sink     *events.MemorySink
	stake    *stakeservice.Service
	claims   *claimsservice.Service
	tokens   *jwttoken.JWTService
	cfg      ledger.Config
	registry *identity.MemoryRegistry
}

func scenarioConfig() ledger.Config {
	cfg := ledger.DefaultConfig()
	cfg.MinimumStake = 1000
	cfg.FeeBPS = 1000
	cfg.FeeSink = treasury
	cfg.CooldownPeriod = 7 * 24 * time.Hour
	cfg.ChallengePeriod = 72 * time.Hour
	proofs, err := ledger.ParseProofTypes("A:50,kyc:200:kyc_verified,github:50:developer")
	if err != nil {
		panic(err)
	}
	cfg.ProofTypes = proofs
	return cfg
}

func newStack(t *testing.T, b backend, vaultOpts ...custody.MemoryOption) *stack {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clk := clock.NewMock()
	clk.Set(startOfTest)

	s := &stack{
		clock:    clk,
		vault:    custody.NewMemoryVault(vaultOpts...),
		sink:     events.NewMemorySink(),
		tokens:   jwttoken.NewJWTService("scenario-key", "bondline"),
		cfg:      scenarioConfig(),
		registry: identity.NewMemoryRegistry(clk),
	}
	require.NoError(t, s.cfg.Validate())
	for _, addr := range []domain.Address{alice, bob} {
		require.NoError(t, s.vault.Fund(addr, 10_000))
	}

	authorizer := authz.Token{}
	s.stake = stakeservice.New(b.stake, s.registry, s.vault, b.runner, s.cfg,
		stakeservice.WithLogger(logger),
		stakeservice.WithPublisher(s.sink),
		stakeservice.WithClock(clk),
	)
	s.claims = claimsservice.New(b.claims, s.stake, s.registry, authorizer, s.vault, b.runner, s.cfg,
		claimsservice.WithLogger(logger),
		claimsservice.WithPublisher(s.sink),
		claimsservice.WithClock(clk),
	)
	reputation := reputationservice.New(b.records, b.proofs, s.registry, authorizer, b.runner, s.cfg,
		reputationservice.WithLogger(logger),
		reputationservice.WithPublisher(s.sink),
		reputationservice.WithClock(clk),
	)

	s.router = httptransport.NewRouter(httptransport.Options{
		Logger:     logger,
		Validator:  jwttoken.NewJWTServiceAdapter(s.tokens),
		Authorizer: authorizer,
		Modules: []httptransport.Registrar{
			stakehandler.New(s.stake, logger),
			claimshandler.New(s.claims, logger),
			reputationhandler.New(reputation, logger),
		},
		Admin: admin.New(s.registry, s.stake, s.claims, logger),
	})
	return s
}

func (s *stack) token(t *testing.T, addr domain.Address, roles ...authz.Role) string {
	t.Helper()
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	tok, err := s.tokens.GenerateAccessToken(addr, names, time.Hour)
	require.NoError(t, err)
	return tok
}

func (s *stack) call(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	req := testutil.WithBearer(testutil.NewJSONRequest(t, method, path, body), token)
	return testutil.DoRequest(s.router, req)
}

// registerIdentity issues an identity through the admin API.
func (s *stack) registerIdentity(t *testing.T, owner domain.Address) domain.IdentityID {
	t.Helper()
	rr := s.call(t, http.MethodPost, "/admin/identities", s.token(t, operator, authz.RoleAdmin),
		map[string]string{"owner": owner.String()})
	testutil.AssertStatus(t, rr, http.StatusCreated)
	resp := testutil.UnmarshalResponse[admin.IdentityResponse](t, rr)
	return domain.IdentityID(resp.ID)
}

func identityPath(id domain.IdentityID, suffix string) string {
	return fmt.Sprintf("/v1/identities/%d%s", id, suffix)
}
