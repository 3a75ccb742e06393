package models

import (
	"encoding/binary"
	"time"

	"golang.org/x/crypto/sha3"

	"bondline/pkg/domain"
)

// Status is a claim's lifecycle state.
type Status string

const (
	StatusPending    Status = "pending"
	StatusChallenged Status = "challenged"
	StatusApproved   Status = "approved"
	StatusRejected   Status = "rejected"
)

// IsTerminal reports whether the claim has been resolved.
func (s Status) IsTerminal() bool {
	return s == StatusApproved || s == StatusRejected
}

// Claim is a request to slash a target identity's stake.
type Claim struct {
	ID                domain.ClaimID    `json:"id"`
	Sequence          uint64            `json:"sequence"`
	Target            domain.IdentityID `json:"target_identity"`
	Claimant          domain.Address    `json:"claimant"`
	AmountRequested   domain.Amount     `json:"amount_requested"`
	Reason            string            `json:"reason"`
	SubmittedAt       time.Time         `json:"submitted_at"`
	Status            Status            `json:"status"`
	ChallengeDeadline time.Time         `json:"challenge_deadline"`
	ChallengedAt      *time.Time        `json:"challenged_at,omitempty"`
	ResolvedAt        *time.Time        `json:"resolved_at,omitempty"`
	ResolvedBy        domain.Address    `json:"resolved_by,omitempty"`
	SlashedAmount     domain.Amount     `json:"slashed_amount"`
	Fee               domain.Amount     `json:"fee"`
	Payout            domain.Amount     `json:"payout"`
}

// Clone returns a deep copy.
func (c *Claim) Clone() *Claim {
	cp := *c
	if c.ChallengedAt != nil {
		t := *c.ChallengedAt
		cp.ChallengedAt = &t
	}
	if c.ResolvedAt != nil {
		t := *c.ResolvedAt
		cp.ResolvedAt = &t
	}
	return &cp
}

// WindowOpen reports whether now is still inside the challenge window.
func (c *Claim) WindowOpen(now time.Time) bool {
	return now.Before(c.ChallengeDeadline)
}

// DeriveID hashes the submission coordinates into a claim ID. The sequence
// makes IDs unique even for identical submissions in the same instant.
func DeriveID(sequence uint64, target domain.IdentityID, claimant domain.Address, submittedAt time.Time) domain.ClaimID {
	h := sha3.NewLegacyKeccak256()
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], sequence)
	h.Write(buf[:])
	binary.BigEndian.PutUint64(buf[:], uint64(target))
	h.Write(buf[:])
	h.Write([]byte(claimant))
	binary.BigEndian.PutUint64(buf[:], uint64(submittedAt.UnixNano()))
	h.Write(buf[:])

	var digest [32]byte
	copy(digest[:], h.Sum(nil))
	return domain.NewClaimID(digest)
}

// Settlement splits a slash between claimant and fee sink.
type Settlement struct {
	Slashed domain.Amount
	Fee     domain.Amount
	Payout  domain.Amount
}

// Settle computes the fee on the amount actually slashed. feeBPS is clamped
// to maxFeeBPS.
func Settle(slashed domain.Amount, feeBPS, maxFeeBPS uint32) Settlement {
	fee := slashed.MulBPS(min(feeBPS, maxFeeBPS))
	return Settlement{Slashed: slashed, Fee: fee, Payout: slashed - fee}
}

// Totals aggregate the outcome of every approved claim.
type Totals struct {
	TotalSlashed domain.Amount `json:"total_slashed"`
	TotalFees    domain.Amount `json:"total_fees"`
	TotalPayouts domain.Amount `json:"total_payouts"`
	Approved     uint64        `json:"approved"`
	Rejected     uint64        `json:"rejected"`
}
