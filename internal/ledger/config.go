package ledger

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"bondline/pkg/domain"
	dErrors "bondline/pkg/domain-errors"
)

// MaxFeeBPS caps the protocol fee on slashed collateral at 10%.
const MaxFeeBPS = 1000

// TierCount is the number of reputation tiers, None included.
const TierCount = 6

// CooldownReference selects the timestamp the unstake cooldown is measured from.
type CooldownReference string

const (
	CooldownFromStake   CooldownReference = "stake"
	CooldownFromRequest CooldownReference = "request"
)

// ProofType is the score increment and optional badge a proof type awards.
type ProofType struct {
	Increment uint64
	Badge     string
}

// Config is the immutable ledger configuration handed to every service at
// construction.
type Config struct {
	MinimumStake         domain.Amount
	CooldownPeriod       time.Duration
	CooldownReference    CooldownReference
	ChallengePeriod      time.Duration
	WaiveChallengeWindow bool
	FeeBPS               uint32
	FeeSink              domain.Address
	TierThresholds       []uint64
	ProofTypes           map[string]ProofType
	MaxReasonLength      int
}

// DefaultTierThresholds are the score floors for None through Whale.
var DefaultTierThresholds = []uint64{0, 100, 500, 1000, 5000, 10000}

// DefaultProofTypes is the proof catalogue used when none is configured.
const DefaultProofTypes = "kyc:200:kyc_verified,github:50:developer,twitter:25,onchain_history:100:veteran,zk_humanity:300:human"

// DefaultConfig returns development defaults. FeeSink is left empty and must
// be configured.
func DefaultConfig() Config {
	proofs, _ := ParseProofTypes(DefaultProofTypes)
	return Config{
		MinimumStake:      1000,
		CooldownPeriod:    7 * 24 * time.Hour,
		CooldownReference: CooldownFromStake,
		ChallengePeriod:   3 * 24 * time.Hour,
		FeeBPS:            500,
		TierThresholds:    append([]uint64(nil), DefaultTierThresholds...),
		ProofTypes:        proofs,
		MaxReasonLength:   1024,
	}
}

// Validate rejects configurations that would break ledger invariants.
func (c Config) Validate() error {
	if c.MinimumStake.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "minimum stake must be positive")
	}
	if c.CooldownPeriod < 0 || c.ChallengePeriod < 0 {
		return dErrors.New(dErrors.CodeValidation, "cooldown and challenge periods must not be negative")
	}
	switch c.CooldownReference {
	case CooldownFromStake, CooldownFromRequest:
	default:
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("unknown cooldown reference %q", c.CooldownReference))
	}
	if c.FeeBPS > MaxFeeBPS {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("fee bps %d exceeds cap of %d", c.FeeBPS, MaxFeeBPS))
	}
	if c.FeeSink.IsZero() {
		return dErrors.New(dErrors.CodeValidation, "fee sink address is required")
	}
	if len(c.TierThresholds) != TierCount {
		return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("expected %d tier thresholds, got %d", TierCount, len(c.TierThresholds)))
	}
	if c.TierThresholds[0] != 0 {
		return dErrors.New(dErrors.CodeValidation, "lowest tier threshold must be zero")
	}
	for i := 1; i < len(c.TierThresholds); i++ {
		if c.TierThresholds[i] <= c.TierThresholds[i-1] {
			return dErrors.New(dErrors.CodeValidation, "tier thresholds must be strictly ascending")
		}
	}
	if len(c.ProofTypes) == 0 {
		return dErrors.New(dErrors.CodeValidation, "at least one proof type must be configured")
	}
	for name, pt := range c.ProofTypes {
		if pt.Increment == 0 {
			return dErrors.New(dErrors.CodeValidation, fmt.Sprintf("proof type %q has zero score increment", name))
		}
	}
	if c.MaxReasonLength <= 0 {
		return dErrors.New(dErrors.CodeValidation, "max reason length must be positive")
	}
	return nil
}

// ParseProofTypes parses "name:increment[:badge]" entries separated by commas.
func ParseProofTypes(raw string) (map[string]ProofType, error) {
	out := make(map[string]ProofType)
	for _, entry := range strings.Split(raw, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		parts := strings.Split(entry, ":")
		if len(parts) < 2 || len(parts) > 3 {
			return nil, fmt.Errorf("proof type %q: want name:increment[:badge]", entry)
		}
		name := strings.TrimSpace(parts[0])
		if name == "" {
			return nil, fmt.Errorf("proof type %q: empty name", entry)
		}
		if _, dup := out[name]; dup {
			return nil, fmt.Errorf("proof type %q declared twice", name)
		}
		inc, err := strconv.ParseUint(strings.TrimSpace(parts[1]), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("proof type %q: increment: %w", name, err)
		}
		pt := ProofType{Increment: inc}
		if len(parts) == 3 {
			pt.Badge = strings.TrimSpace(parts[2])
		}
		out[name] = pt
	}
	return out, nil
}

// ProofTypeNames lists configured proof types in sorted order.
func (c Config) ProofTypeNames() []string {
	names := make([]string, 0, len(c.ProofTypes))
	for name := range c.ProofTypes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
