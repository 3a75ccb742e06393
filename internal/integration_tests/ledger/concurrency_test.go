package ledger_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"bondline/internal/authz"
	"bondline/internal/custody"
	"bondline/pkg/domain"
	"bondline/pkg/requestcontext"
)

func TestConcurrentStakeConservation(t *testing.T) {
	runConcurrentStake(t, memoryBackend)
}

func TestConcurrentIdentitiesConservation(t *testing.T) {
	runConcurrentIdentities(t, memoryBackend)
}

func TestFailedTransferKeepsOtherIdentityCommit(t *testing.T) {
	runFailedTransferBesideCommit(t, memoryBackend)
}

// runConcurrentStake races credits and debits on one identity and checks
// that record, aggregate and custody still agree.
func runConcurrentStake(t *testing.T, newBackend func() backend) {
	s := newStack(t, newBackend())
	id := s.registerIdentity(t, alice)
	ctx := requestcontext.WithCaller(context.Background(), alice)

	const workers = 20
	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			_, err := s.stake.Stake(ctx, id, 100)
			return err
		})
	}
	require.NoError(t, g.Wait())

	rec, err := s.stake.Get(ctx, id)
	require.NoError(t, err)
	assert.EqualValues(t, workers*100, rec.Amount)
	assert.True(t, rec.Verified)

	s.clock.Add(s.cfg.CooldownPeriod)
	var withdrawals errgroup.Group
	for range workers {
		withdrawals.Go(func() error {
			_, err := s.stake.Unstake(ctx, id, 50)
			return err
		})
	}
	require.NoError(t, withdrawals.Wait())

	recon, err := s.stake.Reconcile(ctx)
	require.NoError(t, err)
	assert.True(t, recon.Balanced, "discrepancies: %v", recon.Discrepancies)
	assert.EqualValues(t, workers*50, recon.TotalStaked)
	assert.EqualValues(t, 10_000-workers*50, s.vault.WalletBalance(alice))
}

// runConcurrentIdentities stakes, slashes and withdraws on many identities at
// once. Every operation touches the shared totals and custody balance.
func runConcurrentIdentities(t *testing.T, newBackend func() backend) {
	s := newStack(t, newBackend())
	background := context.Background()

	const (
		identities = 16
		deposits   = 5
		deposit    = 400
		claimed    = 500
		withdrawal = 300
	)
	owners := make([]domain.Address, identities)
	ids := make([]domain.IdentityID, identities)
	for i := range identities {
		owners[i] = domain.MustAddress(fmt.Sprintf("0x%040x", 0x1000+i))
		require.NoError(t, s.vault.Fund(owners[i], 10_000))
		ids[i] = s.registerIdentity(t, owners[i])
	}

	var stakes errgroup.Group
	for i := range identities {
		ctx := requestcontext.WithCaller(background, owners[i])
		for range deposits {
			stakes.Go(func() error {
				_, err := s.stake.Stake(ctx, ids[i], deposit)
				return err
			})
		}
	}
	require.NoError(t, stakes.Wait())

	claimant := requestcontext.WithCaller(background, bob)
	claimIDs := make([]domain.ClaimID, identities)
	for i := range identities {
		c, err := s.claims.Submit(claimant, ids[i], claimed, "missed attestation")
		require.NoError(t, err)
		claimIDs[i] = c.ID
	}

	s.clock.Add(s.cfg.CooldownPeriod)
	adjudicator := requestcontext.WithRoles(requestcontext.WithCaller(background, judge),
		[]string{string(authz.RoleAdjudicator)})
	var settle errgroup.Group
	for i := range identities {
		settle.Go(func() error {
			_, err := s.claims.Resolve(adjudicator, claimIDs[i], true)
			return err
		})
		ctx := requestcontext.WithCaller(background, owners[i])
		for range 2 {
			settle.Go(func() error {
				_, err := s.stake.Unstake(ctx, ids[i], withdrawal)
				return err
			})
		}
	}
	require.NoError(t, settle.Wait())

	remaining := deposits*deposit - claimed - 2*withdrawal
	for i := range identities {
		rec, err := s.stake.Get(background, ids[i])
		require.NoError(t, err)
		assert.EqualValues(t, remaining, rec.Amount, "identity %d", ids[i])
	}

	totals, err := s.stake.Totals(background)
	require.NoError(t, err)
	assert.EqualValues(t, identities*remaining, totals.TotalStaked)
	assert.EqualValues(t, identities*claimed, totals.TotalSlashed)

	claimTotals, err := s.claims.Totals(background)
	require.NoError(t, err)
	assert.EqualValues(t, identities*claimed, claimTotals.TotalSlashed)
	assert.EqualValues(t, identities, claimTotals.Approved)

	recon, err := s.stake.Reconcile(background)
	require.NoError(t, err)
	assert.True(t, recon.Balanced, "discrepancies: %v", recon.Discrepancies)
	assert.EqualValues(t, identities*remaining, recon.VaultBalance)
}

// runFailedTransferBesideCommit fails alice's custody transfer only after bob
// has committed a stake on another identity. Alice's rollback must not take
// bob's contribution to the shared totals with it.
func runFailedTransferBesideCommit(t *testing.T, newBackend func() backend) {
	reached := make(chan struct{})
	release := make(chan struct{})
	hook := custody.WithHook(func(_ context.Context, e custody.Effect) error {
		if e.Direction != custody.DirectionCollect || e.Party != alice {
			return nil
		}
		close(reached)
		select {
		case <-release:
		case <-time.After(5 * time.Second):
		}
		return errors.New("token transfer reverted")
	})
	s := newStack(t, newBackend(), hook)
	background := context.Background()
	aliceID := s.registerIdentity(t, alice)
	bobID := s.registerIdentity(t, bob)

	failed := make(chan error, 1)
	go func() {
		_, err := s.stake.Stake(requestcontext.WithCaller(background, alice), aliceID, 1000)
		failed <- err
	}()

	<-reached
	_, err := s.stake.Stake(requestcontext.WithCaller(background, bob), bobID, 700)
	require.NoError(t, err)
	close(release)
	require.Error(t, <-failed)

	rec, err := s.stake.Get(background, aliceID)
	require.NoError(t, err)
	assert.Zero(t, rec.Amount, "alice's credit must not survive the failed transfer")

	totals, err := s.stake.Totals(background)
	require.NoError(t, err)
	assert.EqualValues(t, 700, totals.TotalStaked)

	recon, err := s.stake.Reconcile(background)
	require.NoError(t, err)
	assert.True(t, recon.Balanced, "discrepancies: %v", recon.Discrepancies)
	assert.EqualValues(t, 700, recon.VaultBalance)
	assert.EqualValues(t, 10_000, s.vault.WalletBalance(alice))
	assert.EqualValues(t, 10_000-700, s.vault.WalletBalance(bob))
}
