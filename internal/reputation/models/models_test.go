package models

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var thresholds = []uint64{0, 100, 500, 1000, 5000, 10000}

func TestGetTier(t *testing.T) {
	cases := []struct {
		score uint64
		want  Tier
	}{
		{0, TierNone},
		{99, TierNone},
		{100, TierBronze},
		{499, TierBronze},
		{500, TierSilver},
		{1000, TierGold},
		{4999, TierGold},
		{5000, TierPlatinum},
		{10000, TierWhale},
		{math.MaxUint64, TierWhale},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, GetTier(thresholds, tc.score), "score %d", tc.score)
	}
}

func TestTierText(t *testing.T) {
	raw, err := json.Marshal(map[string]Tier{"tier": TierPlatinum})
	require.NoError(t, err)
	assert.JSONEq(t, `{"tier":"platinum"}`, string(raw))

	var decoded struct{ Tier Tier }
	require.NoError(t, json.Unmarshal([]byte(`{"Tier":"Gold"}`), &decoded))
	assert.Equal(t, TierGold, decoded.Tier)

	_, err = ParseTier("diamond")
	assert.Error(t, err)
}

func TestDeriveFingerprint(t *testing.T) {
	base := DeriveFingerprint(1, "github", []byte("octocat"))
	assert.Equal(t, base, DeriveFingerprint(1, "github", []byte("octocat")), "deterministic")
	assert.Len(t, string(base), 66)

	assert.NotEqual(t, base, DeriveFingerprint(2, "github", []byte("octocat")))
	assert.NotEqual(t, base, DeriveFingerprint(1, "twitter", []byte("octocat")))
	assert.NotEqual(t, base, DeriveFingerprint(1, "github", []byte("octocat2")))

	// Shifting bytes between fields must not collide.
	assert.NotEqual(t,
		DeriveFingerprint(1, "gith", []byte("ubocto")),
		DeriveFingerprint(1, "github", []byte("octo")),
	)
}

func TestRecord(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	t.Run("credit crosses the bronze threshold in one call", func(t *testing.T) {
		rec := NewRecord(1)
		prev, err := rec.Credit(50, thresholds, now)
		require.NoError(t, err)
		assert.Equal(t, TierNone, prev)
		assert.Equal(t, TierNone, rec.Tier)

		prev, err = rec.Credit(50, thresholds, now)
		require.NoError(t, err)
		assert.Equal(t, TierNone, prev)
		assert.Equal(t, TierBronze, rec.Tier)
		assert.EqualValues(t, 100, rec.Score)
		assert.EqualValues(t, 2, rec.VerifiedProofCount)
	})

	t.Run("tier never drops when thresholds rise", func(t *testing.T) {
		rec := NewRecord(1)
		_, err := rec.Credit(600, thresholds, now)
		require.NoError(t, err)
		require.Equal(t, TierSilver, rec.Tier)

		stricter := []uint64{0, 1000, 2000, 3000, 4000, 5000}
		_, err = rec.Credit(1, stricter, now)
		require.NoError(t, err)
		assert.Equal(t, TierSilver, rec.Tier)
	})

	t.Run("overflow leaves the record untouched", func(t *testing.T) {
		rec := NewRecord(1)
		rec.Score = math.MaxUint64 - 1
		_, err := rec.Credit(2, thresholds, now)
		assert.Error(t, err)
		assert.EqualValues(t, uint64(math.MaxUint64-1), rec.Score)
		assert.Zero(t, rec.VerifiedProofCount)
	})

	t.Run("badges are a sorted set", func(t *testing.T) {
		rec := NewRecord(1)
		assert.True(t, rec.AwardBadge("veteran"))
		assert.True(t, rec.AwardBadge("developer"))
		assert.False(t, rec.AwardBadge("veteran"))
		assert.False(t, rec.AwardBadge(""))
		assert.Equal(t, []string{"developer", "veteran"}, rec.Badges)
		assert.True(t, rec.HasBadge("developer"))
		assert.False(t, rec.HasBadge("human"))
	})

	t.Run("clone is deep", func(t *testing.T) {
		rec := NewRecord(1)
		rec.AwardBadge("human")
		cp := rec.Clone()
		cp.AwardBadge("veteran")
		assert.Equal(t, []string{"human"}, rec.Badges)
	})
}
