// Package models holds reputation records, tiers and proof fingerprints.
package models

import (
	"encoding/binary"
	"encoding/hex"
	"fmt"
	"math"
	"slices"
	"strings"
	"time"

	"golang.org/x/crypto/sha3"

	"bondline/pkg/domain"
)

// Tier is an ordinal reputation bracket.
type Tier int

const (
	TierNone Tier = iota
	TierBronze
	TierSilver
	TierGold
	TierPlatinum
	TierWhale
)

var tierNames = [...]string{"none", "bronze", "silver", "gold", "platinum", "whale"}

func (t Tier) String() string {
	if t < TierNone || t > TierWhale {
		return fmt.Sprintf("tier(%d)", int(t))
	}
	return tierNames[t]
}

// ParseTier accepts the lowercase tier name.
func ParseTier(s string) (Tier, error) {
	for i, name := range tierNames {
		if strings.EqualFold(s, name) {
			return Tier(i), nil
		}
	}
	return TierNone, fmt.Errorf("unknown tier %q", s)
}

func (t Tier) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *Tier) UnmarshalText(b []byte) error {
	parsed, err := ParseTier(string(b))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// GetTier maps score onto the highest threshold it reaches. thresholds must
// be ascending, one per tier, starting at zero.
func GetTier(thresholds []uint64, score uint64) Tier {
	tier := TierNone
	for i, threshold := range thresholds {
		if i > int(TierWhale) || score < threshold {
			break
		}
		tier = Tier(i)
	}
	return tier
}

// Fingerprint identifies one applied attestation.
type Fingerprint string

// DeriveFingerprint hashes (identity, proof type, payload) with keccak-256.
// Each variable-length field is length-prefixed so distinct inputs never
// share an encoding.
func DeriveFingerprint(id domain.IdentityID, proofType string, payload []byte) Fingerprint {
	h := sha3.NewLegacyKeccak256()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], uint64(id))
	h.Write(buf[:])
	writeField(h, []byte(proofType))
	writeField(h, payload)
	return Fingerprint("0x" + hex.EncodeToString(h.Sum(nil)))
}

func writeField(w interface{ Write([]byte) (int, error) }, field []byte) {
	var n [4]byte
	binary.BigEndian.PutUint32(n[:], uint32(len(field)))
	_, _ = w.Write(n[:])
	_, _ = w.Write(field)
}

// Record is an identity's reputation. Score, tier and proof count only grow.
type Record struct {
	IdentityID         domain.IdentityID `json:"identity_id"`
	Score              uint64            `json:"score"`
	Tier               Tier              `json:"tier"`
	VerifiedProofCount uint64            `json:"verified_proof_count"`
	Badges             []string          `json:"badges"`
	UpdatedAt          time.Time         `json:"updated_at,omitzero"`
}

func NewRecord(id domain.IdentityID) *Record {
	return &Record{IdentityID: id, Badges: []string{}}
}

func (r *Record) Clone() *Record {
	cp := *r
	cp.Badges = slices.Clone(r.Badges)
	if cp.Badges == nil {
		cp.Badges = []string{}
	}
	return &cp
}

func (r *Record) HasBadge(badge string) bool {
	_, found := slices.BinarySearch(r.Badges, badge)
	return found
}

// Credit adds delta to the score, counts the proof and raises the tier if
// the new score reaches a higher threshold. It returns the tier held before.
func (r *Record) Credit(delta uint64, thresholds []uint64, now time.Time) (Tier, error) {
	if delta > math.MaxUint64-r.Score {
		return r.Tier, fmt.Errorf("score overflow")
	}
	prev := r.Tier
	r.Score += delta
	r.VerifiedProofCount++
	r.Tier = max(r.Tier, GetTier(thresholds, r.Score))
	r.UpdatedAt = now
	return prev, nil
}

// AwardBadge adds badge to the set and reports whether it was new.
func (r *Record) AwardBadge(badge string) bool {
	if badge == "" {
		return false
	}
	i, found := slices.BinarySearch(r.Badges, badge)
	if found {
		return false
	}
	r.Badges = slices.Insert(r.Badges, i, badge)
	return true
}

// ProofRecord is the durable trace of an applied attestation.
type ProofRecord struct {
	Fingerprint Fingerprint       `json:"fingerprint"`
	IdentityID  domain.IdentityID `json:"identity_id"`
	ProofType   string            `json:"proof_type"`
	Prover      domain.Address    `json:"prover"`
	Metadata    string            `json:"metadata,omitempty"`
	ScoreDelta  uint64            `json:"score_delta"`
	AppliedAt   time.Time         `json:"applied_at"`
}

// ProofResult reports the effect of applying one proof.
type ProofResult struct {
	Fingerprint        Fingerprint `json:"fingerprint"`
	ScoreDelta         uint64      `json:"score_delta"`
	Score              uint64      `json:"score"`
	Tier               Tier        `json:"tier"`
	PreviousTier       Tier        `json:"previous_tier"`
	VerifiedProofCount uint64      `json:"verified_proof_count"`
	BadgeAwarded       string      `json:"badge_awarded,omitempty"`
}

// TierChanged reports whether the proof moved the identity up a tier.
func (r ProofResult) TierChanged() bool {
	return r.Tier != r.PreviousTier
}
