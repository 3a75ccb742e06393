package handler

import (
	"bondline/pkg/domain"
	dErrors "bondline/pkg/domain-errors"
)

// AmountRequest is the body of stake and unstake calls.
type AmountRequest struct {
	Amount domain.Amount `json:"amount"`
}

// Validate implements httputil.Validatable. Zero amounts are left to the
// ledger, which rejects them with a ledger error kind.
func (r *AmountRequest) Validate() error {
	if r == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	return nil
}
