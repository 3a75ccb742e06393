// Package domain holds the typed identifiers and value types shared by every
// ledger module. Parsing happens at trust boundaries (HTTP, config, stores);
// past that point values are assumed valid.
package domain

import (
	"encoding/hex"
	"strconv"
	"strings"

	"github.com/mr-tron/base58"

	dErrors "bondline/pkg/domain-errors"
)

// IdentityID references a bonded identity owned by the external registry.
type IdentityID uint64

// ParseIdentityID parses a decimal identity id. Zero is reserved.
func ParseIdentityID(s string) (IdentityID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "identity id is required")
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "identity id must be a positive integer")
	}
	if v == 0 {
		return 0, dErrors.New(dErrors.CodeInvalidInput, "identity id must be non-zero")
	}
	return IdentityID(v), nil
}

func (id IdentityID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// Address is a wallet address, normalized to lowercase 0x-prefixed hex.
type Address string

const addressHexLen = 40

// ParseAddress validates and normalizes a 20-byte hex wallet address.
func ParseAddress(s string) (Address, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	raw, ok := strings.CutPrefix(s, "0x")
	if !ok || len(raw) != addressHexLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be 0x followed by 40 hex characters")
	}
	if _, err := hex.DecodeString(raw); err != nil {
		return "", dErrors.New(dErrors.CodeInvalidInput, "address must be hex encoded")
	}
	return Address(s), nil
}

// MustAddress panics on an invalid address. For tests and static config only.
func MustAddress(s string) Address {
	a, err := ParseAddress(s)
	if err != nil {
		panic(err)
	}
	return a
}

func (a Address) String() string { return string(a) }

func (a Address) IsZero() bool { return a == "" }

// ClaimID is the base58 form of a 32-byte claim digest.
type ClaimID string

const claimDigestLen = 32

// NewClaimID encodes a claim digest.
func NewClaimID(digest [claimDigestLen]byte) ClaimID {
	return ClaimID(base58.Encode(digest[:]))
}

// ParseClaimID validates that s decodes to a 32-byte digest.
func ParseClaimID(s string) (ClaimID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "claim id is required")
	}
	raw, err := base58.Decode(s)
	if err != nil || len(raw) != claimDigestLen {
		return "", dErrors.New(dErrors.CodeInvalidInput, "claim id is malformed")
	}
	return ClaimID(s), nil
}

func (c ClaimID) String() string { return string(c) }
