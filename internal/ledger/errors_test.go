package ledger

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	dErrors "bondline/pkg/domain-errors"
)

func TestReject_PreservesKindAndCode(t *testing.T) {
	err := Reject(ErrCooldownActive, "unstake before cooldown")
	wrapped := fmt.Errorf("handler: %w", err)

	assert.ErrorIs(t, wrapped, ErrCooldownActive)
	assert.False(t, errors.Is(wrapped, ErrInsufficientBalance))
	assert.True(t, dErrors.HasCode(wrapped, dErrors.CodeConflict))
	assert.Contains(t, err.Error(), "cooldown active")
}

func TestKind_Code(t *testing.T) {
	cases := map[Kind]dErrors.Code{
		ErrIdentityNotFound:     dErrors.CodeNotFound,
		ErrClaimNotFound:        dErrors.CodeNotFound,
		ErrInvalidAmount:        dErrors.CodeValidation,
		ErrInvalidProofType:     dErrors.CodeValidation,
		ErrUnauthorized:         dErrors.CodeForbidden,
		ErrClaimAlreadyResolved: dErrors.CodeConflict,
		ErrProofAlreadyVerified: dErrors.CodeConflict,
	}
	for kind, code := range cases {
		assert.Equal(t, code, kind.Code(), string(kind))
	}
}
