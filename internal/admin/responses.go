package admin

import (
	"time"

	claimsmodels "bondline/internal/claims/models"
	"bondline/internal/identity"
	stakemodels "bondline/internal/stake/models"
)

// IdentityResponse is the HTTP response DTO for a registry entry.
type IdentityResponse struct {
	ID        uint64    `json:"id"`
	Owner     string    `json:"owner"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
	Active    bool      `json:"active"`
}

func toIdentityResponse(ident *identity.Identity) *IdentityResponse {
	return &IdentityResponse{
		ID:        uint64(ident.ID),
		Owner:     ident.Owner.String(),
		Status:    string(ident.Status),
		CreatedAt: ident.CreatedAt,
		Active:    ident.IsActive(),
	}
}

// ReconcileResponse wraps the stake reconciliation and claim counters.
type ReconcileResponse struct {
	Stake  *stakemodels.Reconciliation `json:"stake"`
	Claims claimsmodels.Totals         `json:"claims"`
}
