package sentinel

import "errors"

// Sentinel errors for infrastructure facts. Stores return these (optionally
// wrapped) so services can translate them into ledger errors.
//
//   - ErrNotFound: record does not exist in the store
//   - ErrConflict: a uniqueness guard rejected the write (e.g. fingerprint present)
//   - ErrUnavailable: backing service temporarily unavailable
var (
	ErrNotFound    = errors.New("not found")
	ErrConflict    = errors.New("conflict")
	ErrUnavailable = errors.New("unavailable")
)
