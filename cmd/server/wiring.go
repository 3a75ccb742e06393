package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"bondline/internal/authz"
	claimsservice "bondline/internal/claims/service"
	claimsstore "bondline/internal/claims/store"
	"bondline/internal/custody"
	"bondline/internal/events"
	"bondline/internal/identity"
	jwttoken "bondline/internal/jwt_token"
	"bondline/internal/platform/config"
	"bondline/internal/platform/database"
	"bondline/internal/platform/kafka"
	"bondline/internal/platform/redis"
	reputationservice "bondline/internal/reputation/service"
	reputationstore "bondline/internal/reputation/store"
	stakeservice "bondline/internal/stake/service"
	stakestore "bondline/internal/stake/store"
	httptransport "bondline/internal/transport/http"
	"bondline/pkg/domain"
	"bondline/pkg/platform/circuit"
	"bondline/pkg/platform/tx"
)

const devTokenTTL = 24 * time.Hour

// infra holds the stores and external clients selected by configuration.
type infra struct {
	db    *database.DB
	redis *redis.Client
	kafka *kgo.Client

	stake   stakeservice.Store
	claims  claimsservice.Store
	records reputationservice.RecordStore
	proofs  reputationservice.ProofStore
	sink    events.Publisher

	healthChecks map[string]httptransport.HealthCheck
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (*infra, error) {
	in := &infra{healthChecks: make(map[string]httptransport.HealthCheck)}

	if cfg.Database.Driver == "memory" {
		in.stake = stakestore.NewInMemoryStakeStore()
		in.claims = claimsstore.NewInMemoryClaimStore()
		in.records = reputationstore.NewInMemoryReputationStore()
		in.proofs = reputationstore.NewInMemoryProofStore()
	} else {
		db, err := database.Open(ctx, cfg.Database.Driver, cfg.Database.DSN)
		if err != nil {
			return nil, fmt.Errorf("open database: %w", err)
		}
		in.db = db
		in.stake = stakestore.NewSQLStakeStore(db)
		in.claims = claimsstore.NewSQLClaimStore(db)
		in.records = reputationstore.NewSQLReputationStore(db)
		in.proofs = reputationstore.NewSQLProofStore(db)
		in.healthChecks["database"] = db.PingContext
	}

	rc, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	if rc != nil {
		in.redis = rc
		in.proofs = reputationstore.NewRedisProofStore(rc.Client)
		in.healthChecks["redis"] = rc.Health
		log.Info("proof replay guard backed by redis")
	}

	kc, err := kafka.New(ctx, cfg.Kafka, log)
	if err != nil {
		in.Close()
		return nil, fmt.Errorf("connect kafka: %w", err)
	}
	if kc != nil {
		in.kafka = kc
		breaker := circuit.New("kafka",
			circuit.WithFailureThreshold(cfg.Kafka.FailureThreshold),
			circuit.WithSuccessThreshold(cfg.Kafka.SuccessThreshold),
		)
		in.sink = events.NewFailover(events.NewKafkaPublisher(kc, cfg.Kafka.Topic), events.NewLogSink(log), breaker, log)
		in.healthChecks["kafka"] = kc.Ping
	} else {
		in.sink = events.NewMemorySink()
	}
	return in, nil
}

// runner returns a transaction runner bound to the SQL backend when there is
// one. Memory stores rely on the runner's rollback journal alone.
func (in *infra) runner() tx.Runner {
	if in.db != nil {
		return tx.NewRunner(tx.WithDB(in.db.DB))
	}
	return tx.NewRunner()
}

func (in *infra) Close() {
	if in.kafka != nil {
		in.kafka.Close()
	}
	if in.redis != nil {
		_ = in.redis.Close()
	}
	if in.db != nil {
		_ = in.db.Close()
	}
}

func buildAuthorizer(cfg config.Auth) (authz.Authorizer, error) {
	if cfg.Mode == "token" {
		return authz.Token{}, nil
	}
	grants := make(map[authz.Role][]domain.Address, 3)
	for role, raw := range map[authz.Role][]string{
		authz.RoleProver:      cfg.Provers,
		authz.RoleAdjudicator: cfg.Adjudicators,
		authz.RoleAdmin:       cfg.Admins,
	} {
		addrs, err := config.Addresses(raw)
		if err != nil {
			return nil, fmt.Errorf("%s addresses: %w", role, err)
		}
		grants[role] = addrs
	}
	return authz.NewStatic(grants), nil
}

// seedDevWallets funds each dev wallet, registers an identity it controls and
// logs a bearer token carrying the roles configured for it.
func seedDevWallets(
	ctx context.Context,
	cfg config.Config,
	log *slog.Logger,
	registry *identity.MemoryRegistry,
	vault *custody.MemoryVault,
	tokens *jwttoken.JWTService,
) error {
	wallets, err := config.Addresses(cfg.Server.DevWallets)
	if err != nil {
		return fmt.Errorf("dev wallets: %w", err)
	}
	for _, addr := range wallets {
		if err := vault.Fund(addr, domain.Amount(cfg.Server.DevWalletFunding)); err != nil {
			return fmt.Errorf("fund %s: %w", addr, err)
		}
		ident, err := registry.Register(ctx, addr)
		if err != nil {
			return fmt.Errorf("register %s: %w", addr, err)
		}
		roles := devRoles(cfg.Auth, addr)
		token, err := tokens.GenerateAccessToken(addr, roles, devTokenTTL)
		if err != nil {
			return fmt.Errorf("token for %s: %w", addr, err)
		}
		log.Info("dev wallet ready",
			"wallet", addr,
			"identity_id", ident.ID,
			"funded", cfg.Server.DevWalletFunding,
			"roles", roles,
			"token", token,
		)
	}
	return nil
}

func devRoles(cfg config.Auth, addr domain.Address) []string {
	var roles []string
	for _, grant := range []struct {
		role authz.Role
		raw  []string
	}{
		{authz.RoleProver, cfg.Provers},
		{authz.RoleAdjudicator, cfg.Adjudicators},
		{authz.RoleAdmin, cfg.Admins},
	} {
		members, err := config.Addresses(grant.raw)
		if err != nil {
			continue
		}
		for _, m := range members {
			if m == addr {
				roles = append(roles, string(grant.role))
				break
			}
		}
	}
	return roles
}
