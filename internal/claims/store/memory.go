package store

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"bondline/internal/claims/models"
	"bondline/pkg/domain"
	"bondline/pkg/platform/sentinel"
	"bondline/pkg/platform/tx"
)

// InMemoryClaimStore is an append-only claim table with journaled writes.
type InMemoryClaimStore struct {
	mu       sync.RWMutex
	claims   map[domain.ClaimID]*models.Claim
	byTarget map[domain.IdentityID][]domain.ClaimID
	sequence uint64
	totals   models.Totals
}

func NewInMemoryClaimStore() *InMemoryClaimStore {
	return &InMemoryClaimStore{
		claims:   make(map[domain.ClaimID]*models.Claim),
		byTarget: make(map[domain.IdentityID][]domain.ClaimID),
	}
}

// NextSequence reserves the next claim number. Sequences consumed by a
// rolled-back transaction are not reused.
func (s *InMemoryClaimStore) NextSequence(context.Context) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sequence++
	return s.sequence, nil
}

func (s *InMemoryClaimStore) Create(ctx context.Context, c *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.claims[c.ID]; exists {
		return fmt.Errorf("claim %s: %w", c.ID, sentinel.ErrConflict)
	}
	s.claims[c.ID] = c.Clone()
	s.byTarget[c.Target] = append(s.byTarget[c.Target], c.ID)
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.claims, c.ID)
		ids := s.byTarget[c.Target]
		if n := len(ids); n > 0 && ids[n-1] == c.ID {
			s.byTarget[c.Target] = ids[:n-1]
		}
	})
	return nil
}

func (s *InMemoryClaimStore) FindByID(_ context.Context, id domain.ClaimID) (*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.claims[id]
	if !ok {
		return nil, fmt.Errorf("claim %s: %w", id, sentinel.ErrNotFound)
	}
	return c.Clone(), nil
}

func (s *InMemoryClaimStore) Update(ctx context.Context, c *models.Claim) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, ok := s.claims[c.ID]
	if !ok {
		return fmt.Errorf("claim %s: %w", c.ID, sentinel.ErrNotFound)
	}
	s.claims[c.ID] = c.Clone()
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		s.claims[c.ID] = prev
	})
	return nil
}

func (s *InMemoryClaimStore) ListByTarget(_ context.Context, target domain.IdentityID) ([]*models.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.byTarget[target]
	out := make([]*models.Claim, 0, len(ids))
	for _, id := range ids {
		out = append(out, s.claims[id].Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (s *InMemoryClaimStore) Totals(context.Context) (models.Totals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.totals, nil
}

// UpdateTotals applies change to the totals under the store lock. Rollback
// subtracts only this change.
func (s *InMemoryClaimStore) UpdateTotals(ctx context.Context, change func(*models.Totals) error) error {
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
		t := &s.totals
		t.TotalSlashed = t.TotalSlashed.Revert(before.TotalSlashed, after.TotalSlashed)
		t.TotalFees = t.TotalFees.Revert(before.TotalFees, after.TotalFees)
		t.TotalPayouts = t.TotalPayouts.Revert(before.TotalPayouts, after.TotalPayouts)
		t.Approved = t.Approved + before.Approved - after.Approved
		t.Rejected = t.Rejected + before.Rejected - after.Rejected
	})
	return nil
}
