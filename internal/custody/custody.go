// Package custody moves collateral between wallets and the ledger's vault.
// Ledger services describe transfers as Effects and apply them only after
// every state write of the enclosing transaction has been made.
package custody

import (
	"context"
	"fmt"

	"bondline/pkg/domain"
)

//go:generate mockgen -source=custody.go -destination=mocks/mocks.go -package=mocks Vault

// Vault holds collateral on behalf of the ledger.
type Vault interface {
	// Collect pulls amount from the wallet into custody.
	Collect(ctx context.Context, from domain.Address, amount domain.Amount) error
	// Disburse pays amount out of custody to the wallet.
	Disburse(ctx context.Context, to domain.Address, amount domain.Amount) error
	// Balance is the collateral currently in custody.
	Balance(ctx context.Context) (domain.Amount, error)
}

// Direction is the way an effect moves funds relative to custody.
type Direction string

const (
	DirectionCollect  Direction = "collect"
	DirectionDisburse Direction = "disburse"
)

// Effect is a pending external transfer.
type Effect struct {
	Direction Direction
	Party     domain.Address
	Amount    domain.Amount
}

// Collect builds an inbound effect.
func Collect(from domain.Address, amount domain.Amount) Effect {
	return Effect{Direction: DirectionCollect, Party: from, Amount: amount}
}

// Disburse builds an outbound effect.
func Disburse(to domain.Address, amount domain.Amount) Effect {
	return Effect{Direction: DirectionDisburse, Party: to, Amount: amount}
}

func (e Effect) String() string {
	return fmt.Sprintf("%s %s %s", e.Direction, e.Amount, e.Party)
}

// Apply executes effects in order, skipping zero amounts. The first failure
// stops execution and is returned so the caller's transaction rolls back.
func Apply(ctx context.Context, v Vault, effects ...Effect) error {
	for _, e := range effects {
		if e.Amount.IsZero() {
			continue
		}
		var err error
		switch e.Direction {
		case DirectionCollect:
			err = v.Collect(ctx, e.Party, e.Amount)
		case DirectionDisburse:
			err = v.Disburse(ctx, e.Party, e.Amount)
		default:
			err = fmt.Errorf("unknown effect direction %q", e.Direction)
		}
		if err != nil {
			return fmt.Errorf("apply %s: %w", e, err)
		}
	}
	return nil
}
