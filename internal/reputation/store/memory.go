package store

import (
	"context"
	"fmt"
	"sync"

	"bondline/internal/reputation/models"
	"bondline/pkg/domain"
	"bondline/pkg/platform/sentinel"
	"bondline/pkg/platform/tx"
)

// InMemoryReputationStore keeps reputation records in process with
// transaction-journaled writes.
type InMemoryReputationStore struct {
	mu      sync.RWMutex
	records map[domain.IdentityID]*models.Record
}

func NewInMemoryReputationStore() *InMemoryReputationStore {
	return &InMemoryReputationStore{records: make(map[domain.IdentityID]*models.Record)}
}

func (s *InMemoryReputationStore) FindByIdentity(_ context.Context, id domain.IdentityID) (*models.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("reputation record %s: %w", id, sentinel.ErrNotFound)
	}
	return rec.Clone(), nil
}

func (s *InMemoryReputationStore) Save(ctx context.Context, rec *models.Record) error {
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

// InMemoryProofStore is the process-local set of applied fingerprints.
type InMemoryProofStore struct {
	mu     sync.RWMutex
	proofs map[models.Fingerprint]models.ProofRecord
}

func NewInMemoryProofStore() *InMemoryProofStore {
	return &InMemoryProofStore{proofs: make(map[models.Fingerprint]models.ProofRecord)}
}

func (s *InMemoryProofStore) Insert(ctx context.Context, p *models.ProofRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.proofs[p.Fingerprint]; ok {
		return fmt.Errorf("proof %s: %w", p.Fingerprint, sentinel.ErrConflict)
	}
	s.proofs[p.Fingerprint] = *p
	tx.OnRollback(ctx, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.proofs, p.Fingerprint)
	})
	return nil
}

func (s *InMemoryProofStore) Exists(_ context.Context, fp models.Fingerprint) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.proofs[fp]
	return ok, nil
}
