// Package authz answers role-membership questions for ledger callers.
package authz

import (
	"context"
	"fmt"
	"slices"

	"bondline/internal/ledger"
	"bondline/pkg/domain"
	"bondline/pkg/requestcontext"
)

// Role is a capability granted to external callers.
type Role string

const (
	RoleProver      Role = "prover"
	RoleAdjudicator Role = "adjudicator"
	RoleAdmin       Role = "admin"
)

// Authorizer reports whether caller holds role.
type Authorizer interface {
	HasRole(ctx context.Context, caller domain.Address, role Role) bool
}

// Require fails with ErrUnauthorized unless the context caller holds role.
func Require(ctx context.Context, a Authorizer, role Role) error {
	caller := requestcontext.Caller(ctx)
	if caller.IsZero() || a == nil || !a.HasRole(ctx, caller, role) {
		return ledger.Reject(ledger.ErrUnauthorized, fmt.Sprintf("caller lacks %s role", role))
	}
	return nil
}

// Static grants roles to fixed address sets loaded from configuration.
type Static struct {
	members map[Role]map[domain.Address]struct{}
}

// NewStatic builds a Static authorizer.
func NewStatic(grants map[Role][]domain.Address) *Static {
	s := &Static{members: make(map[Role]map[domain.Address]struct{}, len(grants))}
	for role, addrs := range grants {
		set := make(map[domain.Address]struct{}, len(addrs))
		for _, a := range addrs {
			set[a] = struct{}{}
		}
		s.members[role] = set
	}
	return s
}

func (s *Static) HasRole(_ context.Context, caller domain.Address, role Role) bool {
	_, ok := s.members[role][caller]
	return ok
}

// Token trusts the roles carried by the caller's verified bearer token.
type Token struct{}

func (Token) HasRole(ctx context.Context, caller domain.Address, role Role) bool {
	if caller != requestcontext.Caller(ctx) {
		return false
	}
	return slices.Contains(requestcontext.Roles(ctx), string(role))
}
