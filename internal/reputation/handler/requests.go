package handler

import (
	"strings"

	"bondline/internal/reputation/models"
	dErrors "bondline/pkg/domain-errors"
)

const (
	maxPayloadLength  = 64 << 10
	maxMetadataLength = 4 << 10
)

// ApplyProofRequest is the body of POST /v1/identities/{id}/proofs. Payload
// is the attestation exactly as the prover received it.
type ApplyProofRequest struct {
	ProofType string `json:"proof_type"`
	Payload   string `json:"payload"`
	Metadata  string `json:"metadata"`
}

// Validate implements httputil.Validatable.
func (r *ApplyProofRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if len(r.Payload) > maxPayloadLength {
		return dErrors.New(dErrors.CodeValidation, "payload is too large")
	}
	if len(r.Metadata) > maxMetadataLength {
		return dErrors.New(dErrors.CodeValidation, "metadata is too large")
	}
	r.ProofType = strings.TrimSpace(r.ProofType)
	if r.ProofType == "" {
		return dErrors.New(dErrors.CodeValidation, "proof_type is required")
	}
	return nil
}

// TierResponse is the body of GET /v1/tiers/{score}.
type TierResponse struct {
	Score uint64      `json:"score"`
	Tier  models.Tier `json:"tier"`
}
