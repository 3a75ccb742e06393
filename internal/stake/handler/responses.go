package handler

import (
	"time"

	"bondline/internal/stake/models"
	"bondline/pkg/domain"
)

// StakeResponse is the HTTP view of a stake record.
type StakeResponse struct {
	IdentityID         domain.IdentityID `json:"identity_id"`
	Amount             domain.Amount     `json:"amount"`
	Verified           bool              `json:"verified"`
	StakedAt           *time.Time        `json:"staked_at,omitempty"`
	UnstakeRequestedAt *time.Time        `json:"unstake_requested_at,omitempty"`
}

func FromRecord(rec *models.StakeRecord) *StakeResponse {
	resp := &StakeResponse{
		IdentityID:         rec.IdentityID,
		Amount:             rec.Amount,
		Verified:           rec.Verified,
		UnstakeRequestedAt: rec.UnstakeRequestedAt,
	}
	if !rec.StakedAt.IsZero() {
		stakedAt := rec.StakedAt
		resp.StakedAt = &stakedAt
	}
	return resp
}
