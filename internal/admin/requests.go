package admin

import (
	"bondline/internal/identity"
	"bondline/pkg/domain"
	dErrors "bondline/pkg/domain-errors"
)

// OwnerRequest names the wallet that will control an identity.
type OwnerRequest struct {
	Owner string `json:"owner"`

	owner domain.Address
}

func (r *OwnerRequest) Validate() error {
	if r == nil || r.Owner == "" {
		return dErrors.New(dErrors.CodeValidation, "owner is required")
	}
	addr, err := domain.ParseAddress(r.Owner)
	if err != nil {
		return err
	}
	r.owner = addr
	return nil
}

// StatusRequest moves an identity through its lifecycle.
type StatusRequest struct {
	Status string `json:"status"`

	status identity.Status
}

func (r *StatusRequest) Validate() error {
	if r == nil || r.Status == "" {
		return dErrors.New(dErrors.CodeValidation, "status is required")
	}
	st, err := identity.ParseStatus(r.Status)
	if err != nil {
		return err
	}
	r.status = st
	return nil
}
