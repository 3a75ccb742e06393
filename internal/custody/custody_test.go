package custody

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bondline/pkg/domain"
	"bondline/pkg/platform/tx"
)

var (
	owner     = domain.MustAddress("0x000000000000000000000000000000000000a11c")
	claimant  = domain.MustAddress("0x0000000000000000000000000000000000000b0b")
	feeSink   = domain.MustAddress("0x00000000000000000000000000000000000000fe")
	errRemote = errors.New("remote transfer failed")
)

func TestApply(t *testing.T) {
	ctx := context.Background()

	t.Run("moves funds in order and skips zero amounts", func(t *testing.T) {
		v := NewMemoryVault()
		require.NoError(t, v.Fund(owner, 1000))

		err := Apply(ctx, v,
			Collect(owner, 1000),
			Disburse(claimant, 900),
			Disburse(feeSink, 100),
			Disburse(feeSink, 0),
		)
		require.NoError(t, err)

		bal, _ := v.Balance(ctx)
		assert.Equal(t, domain.Amount(0), bal)
		assert.Equal(t, domain.Amount(0), v.WalletBalance(owner))
		assert.Equal(t, domain.Amount(900), v.WalletBalance(claimant))
		assert.Equal(t, domain.Amount(100), v.WalletBalance(feeSink))
	})

	t.Run("insufficient wallet funds fails collect", func(t *testing.T) {
		v := NewMemoryVault()
		require.NoError(t, v.Fund(owner, 10))

		err := Apply(ctx, v, Collect(owner, 11))
		assert.ErrorIs(t, err, ErrInsufficientFunds)
		assert.Equal(t, domain.Amount(10), v.WalletBalance(owner))
	})

	t.Run("vault cannot disburse more than it holds", func(t *testing.T) {
		v := NewMemoryVault()
		err := Apply(ctx, v, Disburse(claimant, 1))
		assert.ErrorIs(t, err, ErrInsufficientFunds)
	})
}

func TestMemoryVault_RollsBackWithTransaction(t *testing.T) {
	failDisburse := WithHook(func(_ context.Context, e Effect) error {
		if e.Direction == DirectionDisburse {
			return errRemote
		}
		return nil
	})
	v := NewMemoryVault(failDisburse)
	require.NoError(t, v.Fund(owner, 500))

	runner := tx.NewRunner()
	err := runner.RunInTx(context.Background(), "identity:1", func(ctx context.Context) error {
		return Apply(ctx, v, Collect(owner, 500), Disburse(claimant, 500))
	})
	require.ErrorIs(t, err, errRemote)

	bal, _ := v.Balance(context.Background())
	assert.Equal(t, domain.Amount(0), bal, "collected funds must be returned on rollback")
	assert.Equal(t, domain.Amount(500), v.WalletBalance(owner))
}

func TestMemoryVault_RollbackKeepsConcurrentTransfers(t *testing.T) {
	ctx := context.Background()
	runner := tx.NewRunner()
	v := NewMemoryVault()
	require.NoError(t, v.Fund(owner, 1000))
	require.NoError(t, v.Fund(claimant, 1000))

	collected := make(chan struct{})
	otherCommitted := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- runner.RunInTx(ctx, "identity:1", func(ctx context.Context) error {
			if err := v.Collect(ctx, owner, 300); err != nil {
				return err
			}
			close(collected)
			<-otherCommitted
			return errRemote
		})
	}()

	<-collected
	require.NoError(t, runner.RunInTx(ctx, "identity:2", func(ctx context.Context) error {
		return v.Collect(ctx, claimant, 500)
	}))
	require.NoError(t, v.Fund(owner, 50))
	close(otherCommitted)
	require.ErrorIs(t, <-done, errRemote)

	bal, err := v.Balance(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(500), bal)
	assert.Equal(t, domain.Amount(1050), v.WalletBalance(owner))
	assert.Equal(t, domain.Amount(500), v.WalletBalance(claimant))
}
