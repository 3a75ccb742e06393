package models

import (
	"time"

	"bondline/internal/ledger"
	"bondline/pkg/domain"
)

// StakeRecord is one identity's collateral position. Records are created on
// first stake and never deleted.
type StakeRecord struct {
	IdentityID         domain.IdentityID `json:"identity_id"`
	Amount             domain.Amount     `json:"amount"`
	StakedAt           time.Time         `json:"staked_at"`
	Verified           bool              `json:"verified"`
	UnstakeRequestedAt *time.Time        `json:"unstake_requested_at,omitempty"`
	UpdatedAt          time.Time         `json:"updated_at"`
}

// NewStakeRecord opens a position at now.
func NewStakeRecord(id domain.IdentityID, now time.Time) *StakeRecord {
	return &StakeRecord{IdentityID: id, StakedAt: now, UpdatedAt: now}
}

// Clone returns a deep copy.
func (r *StakeRecord) Clone() *StakeRecord {
	cp := *r
	if r.UnstakeRequestedAt != nil {
		t := *r.UnstakeRequestedAt
		cp.UnstakeRequestedAt = &t
	}
	return &cp
}

// Credit adds amount and recomputes verification.
func (r *StakeRecord) Credit(amount, minimum domain.Amount, now time.Time) error {
	next, err := r.Amount.Add(amount)
	if err != nil {
		return ledger.Reject(ledger.ErrInvalidAmount, "stake would overflow balance")
	}
	r.Amount = next
	r.touch(minimum, now)
	return nil
}

// Debit removes amount and recomputes verification. A pending unstake
// request is consumed.
func (r *StakeRecord) Debit(amount, minimum domain.Amount, now time.Time) error {
	next, err := r.Amount.Sub(amount)
	if err != nil {
		return ledger.Reject(ledger.ErrInsufficientBalance, "amount exceeds staked balance")
	}
	r.Amount = next
	r.UnstakeRequestedAt = nil
	r.touch(minimum, now)
	return nil
}

// Slash removes up to amount and returns what was actually taken.
func (r *StakeRecord) Slash(amount, minimum domain.Amount, now time.Time) domain.Amount {
	taken := r.Amount.Min(amount)
	r.Amount -= taken
	r.touch(minimum, now)
	return taken
}

// CooldownEndsAt reports when a verified position may be withdrawn. ok is
// false when the request reference is configured and no request exists.
func (r *StakeRecord) CooldownEndsAt(ref ledger.CooldownReference, period time.Duration) (time.Time, bool) {
	switch ref {
	case ledger.CooldownFromRequest:
		if r.UnstakeRequestedAt == nil {
			return time.Time{}, false
		}
		return r.UnstakeRequestedAt.Add(period), true
	default:
		return r.StakedAt.Add(period), true
	}
}

func (r *StakeRecord) touch(minimum domain.Amount, now time.Time) {
	r.Verified = r.Amount >= minimum
	r.UpdatedAt = now
}

// Totals are the aggregate counters kept in step with every record change.
type Totals struct {
	TotalStaked  domain.Amount `json:"total_staked"`
	TotalSlashed domain.Amount `json:"total_slashed"`
}

// Reconciliation compares the three views of custody.
type Reconciliation struct {
	SumOfRecords  domain.Amount `json:"sum_of_records"`
	TotalStaked   domain.Amount `json:"total_staked"`
	TotalSlashed  domain.Amount `json:"total_slashed"`
	VaultBalance  domain.Amount `json:"vault_balance"`
	RecordCount   int           `json:"record_count"`
	Balanced      bool          `json:"balanced"`
	Discrepancies []string      `json:"discrepancies,omitempty"`
}
