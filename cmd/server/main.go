package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"bondline/internal/admin"
	claimshandler "bondline/internal/claims/handler"
	claimsservice "bondline/internal/claims/service"
	"bondline/internal/custody"
	"bondline/internal/events"
	"bondline/internal/identity"
	jwttoken "bondline/internal/jwt_token"
	"bondline/internal/platform/config"
	"bondline/internal/platform/httpserver"
	"bondline/internal/platform/logger"
	"bondline/internal/platform/metrics"
	"bondline/internal/platform/tracing"
	reputationhandler "bondline/internal/reputation/handler"
	reputationservice "bondline/internal/reputation/service"
	stakehandler "bondline/internal/stake/handler"
	stakeservice "bondline/internal/stake/service"
	httptransport "bondline/internal/transport/http"
)

// main wires the ledger modules, their backing stores and the HTTP surface,
// then runs the server and the event forwarder until a signal arrives.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "bondline: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("bondline stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracing shutdown failed", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	infra, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer infra.Close()

	publisher := events.NewBuffered(infra.sink, cfg.Kafka.BufferSize, log)
	authorizer, err := buildAuthorizer(cfg.Auth)
	if err != nil {
		return err
	}
	registry := identity.NewMemoryRegistry(nil)
	vault := custody.NewMemoryVault()
	runner := infra.runner()

	stakeSvc := stakeservice.New(infra.stake, registry, vault, runner, cfg.Ledger,
		stakeservice.WithLogger(log),
		stakeservice.WithPublisher(publisher),
		stakeservice.WithMetrics(m),
	)
	claimsSvc := claimsservice.New(infra.claims, stakeSvc, registry, authorizer, vault, runner, cfg.Ledger,
		claimsservice.WithLogger(log),
		claimsservice.WithPublisher(publisher),
		claimsservice.WithMetrics(m),
	)
	reputationSvc := reputationservice.New(infra.records, infra.proofs, registry, authorizer, runner, cfg.Ledger,
		reputationservice.WithLogger(log),
		reputationservice.WithPublisher(publisher),
		reputationservice.WithMetrics(m),
	)

	jwtService := jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer)
	if cfg.Server.DevMode {
		if err := seedDevWallets(ctx, cfg, log, registry, vault, jwtService); err != nil {
			return err
		}
	}

	router := httptransport.NewRouter(httptransport.Options{
		Logger:     log,
		Validator:  jwttoken.NewJWTServiceAdapter(jwtService),
		Authorizer: authorizer,
		Modules: []httptransport.Registrar{
			stakehandler.New(stakeSvc, log),
			claimshandler.New(claimsSvc, log),
			reputationhandler.New(reputationSvc, log),
		},
		Admin:        admin.New(registry, stakeSvc, claimsSvc, log),
		Metrics:      promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
		HealthChecks: infra.healthChecks,
	})
	srv := httpserver.New(cfg.Server.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return publisher.Run(gctx)
	})
	g.Go(func() error {
		log.Info("starting bondline",
			"addr", cfg.Server.Addr,
			"db_driver", cfg.Database.Driver,
			"authz_mode", cfg.Auth.Mode,
			"dev_mode", cfg.Server.DevMode,
		)
		return httpserver.Run(gctx, srv, cfg.Server.ShutdownTimeout)
	})
	err = g.Wait()
	if dropped := publisher.Dropped(); dropped > 0 {
		log.Warn("events dropped during run", "count", dropped)
	}
	return err
}
