// Package config loads process configuration from the environment.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"bondline/internal/ledger"
	"bondline/pkg/domain"
	pstrings "bondline/pkg/platform/strings"
)

// Config is the full process configuration.
type Config struct {
	Server   Server
	Database Database
	Redis    RedisConfig
	Kafka    KafkaConfig
	Auth     Auth
	Tracing  Tracing
	Ledger   ledger.Config
}

// Server captures HTTP server level configuration.
type Server struct {
	Addr            string        `env:"BONDLINE_ADDR"             envDefault:":8080"`
	ShutdownTimeout time.Duration `env:"BONDLINE_SHUTDOWN_TIMEOUT" envDefault:"10s"`
	LogLevel        string        `env:"BONDLINE_LOG_LEVEL"        envDefault:"info"`
	DevMode         bool          `env:"BONDLINE_DEV_MODE"`

	// DevWallets are funded in the in-memory vault and issued tokens in dev mode.
	DevWallets       []string `env:"BONDLINE_DEV_WALLETS"        envSeparator:","`
	DevWalletFunding uint64   `env:"BONDLINE_DEV_WALLET_FUNDING" envDefault:"1000000"`
}

// Database selects the ledger store backend.
type Database struct {
	Driver string `env:"DB_DRIVER" envDefault:"memory"`
	DSN    string `env:"DB_DSN"`
}

// RedisConfig holds the proof replay cache connection settings. An empty URL
// disables Redis.
type RedisConfig struct {
	URL          string        `env:"REDIS_URL"`
	PoolSize     int           `env:"REDIS_POOL_SIZE"      envDefault:"10"`
	MinIdleConns int           `env:"REDIS_MIN_IDLE_CONNS" envDefault:"2"`
	DialTimeout  time.Duration `env:"REDIS_DIAL_TIMEOUT"   envDefault:"5s"`
	ReadTimeout  time.Duration `env:"REDIS_READ_TIMEOUT"   envDefault:"3s"`
	WriteTimeout time.Duration `env:"REDIS_WRITE_TIMEOUT"  envDefault:"3s"`
}

// KafkaConfig configures the event stream. No brokers means the in-memory sink.
type KafkaConfig struct {
	Brokers          []string `env:"KAFKA_BROKERS"             envSeparator:","`
	Topic            string   `env:"KAFKA_TOPIC"               envDefault:"bondline.ledger"`
	Partitions       int32    `env:"KAFKA_PARTITIONS"          envDefault:"3"`
	BufferSize       int      `env:"EVENT_BUFFER_SIZE"         envDefault:"1024"`
	FailureThreshold int      `env:"KAFKA_FAILURE_THRESHOLD"   envDefault:"5"`
	SuccessThreshold int      `env:"KAFKA_RECOVERY_THRESHOLD"  envDefault:"3"`
}

// Auth configures token validation and the role model.
type Auth struct {
	JWTSigningKey string   `env:"JWT_SIGNING_KEY"      envDefault:"dev-secret-key-change-in-production"`
	JWTIssuer     string   `env:"JWT_ISSUER"           envDefault:"bondline"`
	Mode          string   `env:"AUTHZ_MODE"           envDefault:"static"`
	Provers       []string `env:"AUTHZ_PROVERS"        envSeparator:","`
	Adjudicators  []string `env:"AUTHZ_ADJUDICATORS"   envSeparator:","`
	Admins        []string `env:"AUTHZ_ADMINS"         envSeparator:","`
}

// Tracing enables the OTLP exporter when an endpoint is configured.
type Tracing struct {
	Endpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName string `env:"OTEL_SERVICE_NAME"           envDefault:"bondline"`
}

type ledgerEnv struct {
	MinimumStake         uint64        `env:"LEDGER_MINIMUM_STAKE"          envDefault:"1000"`
	CooldownPeriod       time.Duration `env:"LEDGER_COOLDOWN_PERIOD"        envDefault:"168h"`
	CooldownReference    string        `env:"LEDGER_COOLDOWN_REFERENCE"     envDefault:"stake"`
	ChallengePeriod      time.Duration `env:"CLAIMS_CHALLENGE_PERIOD"       envDefault:"72h"`
	WaiveChallengeWindow bool          `env:"CLAIMS_WAIVE_CHALLENGE_WINDOW"`
	FeeBPS               uint32        `env:"CLAIMS_FEE_BPS"                envDefault:"500"`
	FeeSink              string        `env:"CLAIMS_FEE_SINK,required"`
	MaxReasonLength      int           `env:"CLAIMS_MAX_REASON_LENGTH"      envDefault:"1024"`
	TierThresholds       []uint64      `env:"REPUTATION_TIER_THRESHOLDS"    envDefault:"0,100,500,1000,5000,10000" envSeparator:","`
	ProofTypes           string        `env:"REPUTATION_PROOF_TYPES"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load reads and validates the whole configuration.
func Load() (Config, error) {
	var cfg Config
	for _, target := range []any{&cfg.Server, &cfg.Database, &cfg.Redis, &cfg.Kafka, &cfg.Auth, &cfg.Tracing} {
		if err := ParseEnv(target); err != nil {
			return Config{}, err
		}
	}
	var raw ledgerEnv
	if err := ParseEnv(&raw); err != nil {
		return Config{}, err
	}
	lc, err := raw.toLedger()
	if err != nil {
		return Config{}, err
	}
	cfg.Ledger = lc
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks cross-field constraints.
func (c Config) Validate() error {
	switch c.Database.Driver {
	case "memory":
	case "postgres", "sqlite":
		if c.Database.DSN == "" {
			return fmt.Errorf("DB_DSN is required for driver %q", c.Database.Driver)
		}
	default:
		return fmt.Errorf("unsupported DB_DRIVER %q", c.Database.Driver)
	}
	switch c.Auth.Mode {
	case "static", "token":
	default:
		return fmt.Errorf("unsupported AUTHZ_MODE %q", c.Auth.Mode)
	}
	if c.Kafka.BufferSize <= 0 {
		return fmt.Errorf("EVENT_BUFFER_SIZE must be positive")
	}
	if err := c.Ledger.Validate(); err != nil {
		return fmt.Errorf("ledger config: %w", err)
	}
	return nil
}

// Addresses parses a configured address list. Blank and repeated entries are
// dropped, comparing case-insensitively.
func Addresses(raw []string) ([]domain.Address, error) {
	cleaned := pstrings.DedupeAndTrimLower(raw)
	out := make([]domain.Address, 0, len(cleaned))
	for _, s := range cleaned {
		addr, err := domain.ParseAddress(s)
		if err != nil {
			return nil, fmt.Errorf("address %q: %w", s, err)
		}
		out = append(out, addr)
	}
	return out, nil
}

func (r ledgerEnv) toLedger() (ledger.Config, error) {
	cfg := ledger.DefaultConfig()
	cfg.MinimumStake = domain.Amount(r.MinimumStake)
	cfg.CooldownPeriod = r.CooldownPeriod
	cfg.CooldownReference = ledger.CooldownReference(strings.ToLower(r.CooldownReference))
	cfg.ChallengePeriod = r.ChallengePeriod
	cfg.WaiveChallengeWindow = r.WaiveChallengeWindow
	cfg.FeeBPS = r.FeeBPS
	cfg.MaxReasonLength = r.MaxReasonLength
	cfg.TierThresholds = r.TierThresholds

	sink, err := domain.ParseAddress(r.FeeSink)
	if err != nil {
		return ledger.Config{}, fmt.Errorf("CLAIMS_FEE_SINK: %w", err)
	}
	cfg.FeeSink = sink

	if r.ProofTypes != "" {
		pts, err := ledger.ParseProofTypes(r.ProofTypes)
		if err != nil {
			return ledger.Config{}, fmt.Errorf("REPUTATION_PROOF_TYPES: %w", err)
		}
		cfg.ProofTypes = pts
	}
	return cfg, nil
}
