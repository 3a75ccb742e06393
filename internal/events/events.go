// Package events defines the notifications the ledger emits after each
// committed mutation and the sinks that carry them.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"

	"bondline/pkg/domain"
)

// Type names a ledger event.
type Type string

const (
	StakeCredited         Type = "stake.credited"
	StakeUnstakeRequested Type = "stake.unstake_requested"
	StakeDebited          Type = "stake.debited"
	StakeSlashed          Type = "stake.slashed"
	ClaimSubmitted        Type = "claim.submitted"
	ClaimChallenged       Type = "claim.challenged"
	ClaimResolved         Type = "claim.resolved"
	ProofApplied          Type = "proof.applied"
)

// Event is transport-agnostic; sinks serialize it as JSON.
type Event struct {
	ID         uuid.UUID         `json:"id"`
	Type       Type              `json:"type"`
	IdentityID domain.IdentityID `json:"identity_id,omitempty"`
	ClaimID    domain.ClaimID    `json:"claim_id,omitempty"`
	Actor      domain.Address    `json:"actor,omitempty"`
	Amount     domain.Amount     `json:"amount,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	RequestID  string            `json:"request_id,omitempty"`
	OccurredAt time.Time         `json:"occurred_at"`
}

// New creates an event with a fresh ID.
func New(t Type, identity domain.IdentityID, occurredAt time.Time) Event {
	return Event{
		ID:         uuid.New(),
		Type:       t,
		IdentityID: identity,
		OccurredAt: occurredAt.UTC(),
	}
}

// With sets an attribute and returns the event for chaining.
func (e Event) With(key, value string) Event {
	if e.Attributes == nil {
		e.Attributes = make(map[string]string)
	}
	e.Attributes[key] = value
	return e
}

// Key is the partitioning key: events for one identity stay ordered.
func (e Event) Key() string {
	if e.IdentityID != 0 {
		return e.IdentityID.String()
	}
	return string(e.ClaimID)
}

//go:generate mockgen -source=events.go -destination=mocks/mocks.go -package=mocks Publisher

// Publisher delivers events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, evs ...Event) error
}
