package ledger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bondline/pkg/domain"
	dErrors "bondline/pkg/domain-errors"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.FeeSink = domain.MustAddress("0x00000000000000000000000000000000000000fe")
	return cfg
}

func TestConfig_Validate(t *testing.T) {
	t.Run("defaults with fee sink are valid", func(t *testing.T) {
		require.NoError(t, validConfig().Validate())
	})

	t.Run("fee above cap is rejected at configuration time", func(t *testing.T) {
		cfg := validConfig()
		cfg.FeeBPS = MaxFeeBPS + 1
		err := cfg.Validate()
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})

	t.Run("fee exactly at cap is accepted", func(t *testing.T) {
		cfg := validConfig()
		cfg.FeeBPS = MaxFeeBPS
		assert.NoError(t, cfg.Validate())
	})

	t.Run("thresholds must ascend strictly", func(t *testing.T) {
		cfg := validConfig()
		cfg.TierThresholds = []uint64{0, 100, 100, 1000, 5000, 10000}
		assert.Error(t, cfg.Validate())
	})

	t.Run("thresholds must start at zero", func(t *testing.T) {
		cfg := validConfig()
		cfg.TierThresholds = []uint64{1, 100, 500, 1000, 5000, 10000}
		assert.Error(t, cfg.Validate())
	})

	t.Run("unknown cooldown reference", func(t *testing.T) {
		cfg := validConfig()
		cfg.CooldownReference = "whenever"
		assert.Error(t, cfg.Validate())
	})

	t.Run("missing fee sink", func(t *testing.T) {
		cfg := DefaultConfig()
		assert.Error(t, cfg.Validate())
	})

	t.Run("zero minimum stake", func(t *testing.T) {
		cfg := validConfig()
		cfg.MinimumStake = 0
		assert.Error(t, cfg.Validate())
	})
}

func TestParseProofTypes(t *testing.T) {
	t.Run("parses defaults", func(t *testing.T) {
		pts, err := ParseProofTypes(DefaultProofTypes)
		require.NoError(t, err)
		assert.Equal(t, ProofType{Increment: 200, Badge: "kyc_verified"}, pts["kyc"])
		assert.Equal(t, ProofType{Increment: 25}, pts["twitter"])
		assert.Len(t, pts, 5)
	})

	t.Run("rejects malformed entries", func(t *testing.T) {
		for _, raw := range []string{"kyc", "kyc:abc", ":10", "a:1:b:c", "a:1,a:2"} {
			_, err := ParseProofTypes(raw)
			assert.Error(t, err, raw)
		}
	})

	t.Run("ignores blank entries", func(t *testing.T) {
		pts, err := ParseProofTypes(" a:1 , ,b:2:badge ")
		require.NoError(t, err)
		assert.Equal(t, []string{"a", "b"}, Config{ProofTypes: pts}.ProofTypeNames())
	})
}
