package store

import (
	"context"
	"fmt"
	"sync"

	"bondline/internal/stake/models"
	"bondline/pkg/domain"
	"bondline/pkg/platform/sentinel"
	"bondline/pkg/platform/tx"
)

// InMemoryStakeStore keeps stake records in process. Writes made inside a
// transaction are journaled and reverted if it rolls back.
type InMemoryStakeStore struct {
	mu      sync.RWMutex
	records map[domain.IdentityID]*models.StakeRecord
	totals  models.Totals
}

func NewInMemoryStakeStore() *InMemoryStakeStore {
	return &InMemoryStakeStore{records: make(map[domain.IdentityID]*models.StakeRecord)}
}

func (s *InMemoryStakeStore) FindByIdentity(_ context.Context, id domain.IdentityID) (*models.StakeRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("stake record %s: %w", id, sentinel.ErrNotFound)
	}
	return rec.Clone(), nil
}

func (s *InMemoryStakeStore) Save(ctx context.Context, rec *models.StakeRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, existed := s.records[rec.IdentityID]
	s.records[rec.IdentityID] = rec.Clone()
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if existed {
			s.records[rec.IdentityID] = prev
		} else {
			delete(s.records, rec.IdentityID)
		}
	})
	return nil
}

func (s *InMemoryStakeStore) Totals(context.Context) (models.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals, nil
}

// UpdateTotals applies change to the totals under the store lock. Rollback
// subtracts only this change, so totals moved by transactions on other
// identities in the meantime survive.
func (s *InMemoryStakeStore) UpdateTotals(ctx context.Context, change func(*models.Totals) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	before := s.totals
	after := before
	if err := change(&after); err != nil {
		return err
	}
	s.totals = after
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.totals.TotalStaked = s.totals.TotalStaked.Revert(before.TotalStaked, after.TotalStaked)
		s.totals.TotalSlashed = s.totals.TotalSlashed.Revert(before.TotalSlashed, after.TotalSlashed)
	})
	return nil
}

func (s *InMemoryStakeStore) Sum(context.Context) (domain.Amount, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var sum domain.Amount
	for _, rec := range s.records {
		next, err := sum.Add(rec.Amount)
		if err != nil {
			return 0, 0, err
		}
		sum = next
	}
	return sum, len(s.records), nil
}
