// Package identity is the ledger's view of the external identity registry:
// existence, controlling wallet, creation time and lifecycle status.
package identity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bondline/internal/ledger"
	"bondline/pkg/domain"
	dErrors "bondline/pkg/domain-errors"
	"bondline/pkg/platform/sentinel"
)

// Status is an identity's lifecycle state.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusRevoked   Status = "revoked"
)

// ParseStatus validates a status string.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusActive, StatusSuspended, StatusRevoked:
		return st, nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "status must be one of active, suspended, revoked")
	}
}

// Identity is a bonded identity as reported by the registry.
type Identity struct {
	ID        domain.IdentityID `json:"id"`
	Owner     domain.Address    `json:"owner"`
	CreatedAt time.Time         `json:"created_at"`
	Status    Status            `json:"status"`
}

// IsActive reports whether the identity may stake and receive proofs.
func (i *Identity) IsActive() bool {
	return i.Status == StatusActive
}

// Registry resolves identities. Lookup returns sentinel.ErrNotFound for
// unknown IDs.
type Registry interface {
	Lookup(ctx context.Context, id domain.IdentityID) (*Identity, error)
}

// Resolve looks up id and maps a missing identity to ErrIdentityNotFound.
func Resolve(ctx context.Context, reg Registry, id domain.IdentityID) (*Identity, error) {
	ident, err := reg.Lookup(ctx, id)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, ledger.Reject(ledger.ErrIdentityNotFound, fmt.Sprintf("identity %s", id))
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up identity")
	}
	return ident, nil
}

// RequireOwner fails with ErrUnauthorized unless caller controls ident.
func RequireOwner(ident *Identity, caller domain.Address) error {
	if caller.IsZero() || caller != ident.Owner {
		return ledger.Reject(ledger.ErrUnauthorized, "caller does not control identity")
	}
	return nil
}

// RequireActive fails with ErrIdentityInactive unless ident is active.
func RequireActive(ident *Identity) error {
	if !ident.IsActive() {
		return ledger.Reject(ledger.ErrIdentityInactive, fmt.Sprintf("identity is %s", ident.Status))
	}
	return nil
}
