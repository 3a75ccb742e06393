// Package ledger holds what the stake, claims and reputation modules share:
// the ledger configuration, the error taxonomy and the audit and span helpers.
package ledger

import (
	"strings"

	dErrors "bondline/pkg/domain-errors"
)

// Kind is a ledger rejection. Kinds are comparable, so errors.Is works
// through any wrapping.
type Kind string

const (
	ErrIdentityNotFound      Kind = "identity_not_found"
	ErrIdentityInactive      Kind = "identity_inactive"
	ErrInvalidAmount         Kind = "invalid_amount"
	ErrInsufficientBalance   Kind = "insufficient_balance"
	ErrCooldownActive        Kind = "cooldown_active"
	ErrNotVerified           Kind = "not_verified"
	ErrProofAlreadyVerified  Kind = "proof_already_verified"
	ErrInvalidProofType      Kind = "invalid_proof_type"
	ErrClaimNotFound         Kind = "claim_not_found"
	ErrClaimNotPending       Kind = "claim_not_pending"
	ErrClaimAlreadyResolved  Kind = "claim_already_resolved"
	ErrChallengeWindowOpen   Kind = "challenge_window_open"
	ErrChallengeWindowClosed Kind = "challenge_window_closed"
	ErrUnauthorized          Kind = "unauthorized"
)

func (k Kind) Error() string { return strings.ReplaceAll(string(k), "_", " ") }

// ErrorKind exposes the stable machine-readable kind to transports.
func (k Kind) ErrorKind() string { return string(k) }

// Code maps the kind onto a transport code.
func (k Kind) Code() dErrors.Code {
	switch k {
	case ErrIdentityNotFound, ErrClaimNotFound:
		return dErrors.CodeNotFound
	case ErrInvalidAmount, ErrInvalidProofType:
		return dErrors.CodeValidation
	case ErrUnauthorized:
		return dErrors.CodeForbidden
	default:
		return dErrors.CodeConflict
	}
}

// Reject wraps kind in a coded domain error with operation context.
func Reject(kind Kind, msg string) error {
	return dErrors.Wrap(kind, kind.Code(), msg)
}
