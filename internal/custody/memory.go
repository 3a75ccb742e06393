package custody

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"bondline/pkg/domain"
	"bondline/pkg/platform/tx"
)

// ErrInsufficientFunds is returned when a wallet or the vault cannot cover a
// transfer.
var ErrInsufficientFunds = errors.New("insufficient funds")

// Hook runs before a transfer settles. Returning an error fails the transfer.
type Hook func(ctx context.Context, e Effect) error

// MemoryVault is an in-process token vault with wallet balances. Transfers
// made inside a transaction are undone if it rolls back.
type MemoryVault struct {
	mu      sync.Mutex
	custody domain.Amount
	wallets map[domain.Address]domain.Amount
	hook    Hook
}

// MemoryOption configures a MemoryVault.
type MemoryOption func(*MemoryVault)

// WithHook installs a hook invoked on every transfer.
func WithHook(h Hook) MemoryOption {
	return func(v *MemoryVault) {
		v.hook = h
	}
}

// NewMemoryVault creates an empty vault.
func NewMemoryVault(opts ...MemoryOption) *MemoryVault {
	v := &MemoryVault{wallets: make(map[domain.Address]domain.Amount)}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Fund mints amount into a wallet.
func (v *MemoryVault) Fund(addr domain.Address, amount domain.Amount) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	next, err := v.wallets[addr].Add(amount)
	if err != nil {
		return err
	}
	v.wallets[addr] = next
	return nil
}

// WalletBalance returns a wallet's token balance.
func (v *MemoryVault) WalletBalance(addr domain.Address) domain.Amount {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.wallets[addr]
}

func (v *MemoryVault) Balance(context.Context) (domain.Amount, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.custody, nil
}

func (v *MemoryVault) Collect(ctx context.Context, from domain.Address, amount domain.Amount) error {
	if err := v.runHook(ctx, Collect(from, amount)); err != nil {
		return err
	}
	return v.move(ctx, from, amount, true)
}

func (v *MemoryVault) Disburse(ctx context.Context, to domain.Address, amount domain.Amount) error {
	if err := v.runHook(ctx, Disburse(to, amount)); err != nil {
		return err
	}
	return v.move(ctx, to, amount, false)
}

func (v *MemoryVault) runHook(ctx context.Context, e Effect) error {
	if v.hook == nil {
		return nil
	}
	return v.hook(ctx, e)
}

// move transfers between a wallet and custody. inbound moves wallet to custody.
func (v *MemoryVault) move(ctx context.Context, party domain.Address, amount domain.Amount, inbound bool) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	prevCustody, prevWallet := v.custody, v.wallets[party]
	custody, wallet := prevCustody, prevWallet
	var err error
	if inbound {
		if wallet, err = wallet.Sub(amount); err != nil {
			return fmt.Errorf("wallet %s: %w", party, ErrInsufficientFunds)
		}
		if custody, err = custody.Add(amount); err != nil {
			return err
		}
	} else {
		if custody, err = custody.Sub(amount); err != nil {
			return fmt.Errorf("vault: %w", ErrInsufficientFunds)
		}
		if wallet, err = wallet.Add(amount); err != nil {
			return err
		}
	}
	v.custody, v.wallets[party] = custody, wallet

	// Other transactions move custody and wallets concurrently, so rollback
	// reverses this transfer instead of restoring the old balances.
	tx.OnRollback(ctx, func() {
		v.mu.Lock()
		defer v.mu.Unlock()
		v.custody = v.custody.Revert(prevCustody, custody)
		v.wallets[party] = v.wallets[party].Revert(prevWallet, wallet)
	})
	return nil
}
