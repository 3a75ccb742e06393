package handler

import (
	"bondline/internal/claims/models"
	"bondline/pkg/domain"
	dErrors "bondline/pkg/domain-errors"
)

// SubmitRequest is the body of POST /v1/claims.
type SubmitRequest struct {
	TargetIdentity domain.IdentityID `json:"target_identity"`
	Amount         domain.Amount     `json:"amount"`
	Reason         string            `json:"reason"`
}

// Validate implements httputil.Validatable. Amount and reason rules belong to
// the resolver.
func (r *SubmitRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.TargetIdentity == 0 {
		return dErrors.New(dErrors.CodeValidation, "target_identity is required")
	}
	return nil
}

// ResolveRequest is the body of POST /v1/claims/{claimID}/resolve.
type ResolveRequest struct {
	Approved *bool `json:"approved"`
}

func (r *ResolveRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if r.Approved == nil {
		return dErrors.New(dErrors.CodeValidation, "approved is required")
	}
	return nil
}

// ClaimListResponse wraps the claims filed against one identity.
type ClaimListResponse struct {
	Claims []*models.Claim `json:"claims"`
	Total  int             `json:"total"`
}
