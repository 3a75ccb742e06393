package store

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"bondline/internal/platform/database"
	"bondline/internal/stake/models"
	"bondline/pkg/domain"
	"bondline/pkg/platform/sentinel"
	"bondline/pkg/platform/tx"
)

type stakeStore interface {
	FindByIdentity(ctx context.Context, id domain.IdentityID) (*models.StakeRecord, error)
	Save(ctx context.Context, rec *models.StakeRecord) error
	Totals(ctx context.Context) (models.Totals, error)
	UpdateTotals(ctx context.Context, change func(*models.Totals) error) error
	Sum(ctx context.Context) (domain.Amount, int, error)
}

var errAbort = errors.New("abort")

func addStaked(amount domain.Amount) func(*models.Totals) error {
	return func(t *models.Totals) error {
		next, err := t.TotalStaked.Add(amount)
		t.TotalStaked = next
		return err
	}
}

func openSQLite(t *testing.T) *database.DB {
	t.Helper()
	db, err := database.Open(context.Background(), "sqlite", filepath.Join(t.TempDir(), "stake.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestStakeStores(t *testing.T) {
	db := openSQLite(t)
	cases := []struct {
		name   string
		store  stakeStore
		runner tx.Runner
	}{
		{"memory", NewInMemoryStakeStore(), tx.NewRunner()},
		{"sqlite", NewSQLStakeStore(db), tx.NewRunner(tx.WithDB(db.DB))},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := context.Background()
			now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

			_, err := tc.store.FindByIdentity(ctx, 1)
			require.ErrorIs(t, err, sentinel.ErrNotFound)

			rec := models.NewStakeRecord(1, now)
			require.NoError(t, rec.Credit(1500, 1000, now))
			requested := now.Add(time.Hour)
			rec.UnstakeRequestedAt = &requested
			require.NoError(t, tc.store.Save(ctx, rec))
			require.NoError(t, tc.store.UpdateTotals(ctx, addStaked(1500)))

			got, err := tc.store.FindByIdentity(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, domain.Amount(1500), got.Amount)
			assert.True(t, got.Verified)
			assert.True(t, now.Equal(got.StakedAt))
			require.NotNil(t, got.UnstakeRequestedAt)
			assert.True(t, requested.Equal(*got.UnstakeRequestedAt))

			err = tc.runner.RunInTx(ctx, "identity:1", func(ctx context.Context) error {
				inner, err := tc.store.FindByIdentity(ctx, 1)
				if err != nil {
					return err
				}
				if err := inner.Debit(1500, 1000, now); err != nil {
					return err
				}
				if err := tc.store.Save(ctx, inner); err != nil {
					return err
				}
				if err := tc.store.UpdateTotals(ctx, func(t *models.Totals) error {
					t.TotalStaked = 0
					return nil
				}); err != nil {
					return err
				}
				if err := tc.store.Save(ctx, models.NewStakeRecord(2, now)); err != nil {
					return err
				}
				return errAbort
			})
			require.ErrorIs(t, err, errAbort)

			got, err = tc.store.FindByIdentity(ctx, 1)
			require.NoError(t, err)
			assert.Equal(t, domain.Amount(1500), got.Amount, "rolled back")
			_, err = tc.store.FindByIdentity(ctx, 2)
			assert.ErrorIs(t, err, sentinel.ErrNotFound, "insert rolled back")
			totals, err := tc.store.Totals(ctx)
			require.NoError(t, err)
			assert.Equal(t, domain.Amount(1500), totals.TotalStaked)

			sum, count, err := tc.store.Sum(ctx)
			require.NoError(t, err)
			assert.Equal(t, domain.Amount(1500), sum)
			assert.Equal(t, 1, count)
		})
	}
}

func TestInMemoryStakeStore_ConcurrentTotalsAcrossIdentities(t *testing.T) {
	store := NewInMemoryStakeStore()
	runner := tx.NewRunner()
	ctx := context.Background()

	var g errgroup.Group
	for id := range 64 {
		for range 20 {
			g.Go(func() error {
				return runner.RunInTx(ctx, fmt.Sprintf("identity:%d", id), func(ctx context.Context) error {
					return store.UpdateTotals(ctx, addStaked(10))
				})
			})
		}
	}
	require.NoError(t, g.Wait())

	totals, err := store.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(64*20*10), totals.TotalStaked)
}

func TestInMemoryStakeStore_RollbackKeepsOtherIdentitiesTotals(t *testing.T) {
	store := NewInMemoryStakeStore()
	runner := tx.NewRunner()
	ctx := context.Background()

	credited := make(chan struct{})
	otherCommitted := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- runner.RunInTx(ctx, "identity:1", func(ctx context.Context) error {
			if err := store.UpdateTotals(ctx, addStaked(100)); err != nil {
				return err
			}
			close(credited)
			<-otherCommitted
			return errAbort
		})
	}()

	<-credited
	require.NoError(t, runner.RunInTx(ctx, "identity:2", func(ctx context.Context) error {
		return store.UpdateTotals(ctx, addStaked(700))
	}))
	close(otherCommitted)
	require.ErrorIs(t, <-done, errAbort)

	totals, err := store.Totals(ctx)
	require.NoError(t, err)
	assert.Equal(t, domain.Amount(700), totals.TotalStaked)
}
