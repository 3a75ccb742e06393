package identity

import (
	"context"
	"fmt"
	"sync"

	"github.com/benbjohnson/clock"

	"bondline/pkg/domain"
	"bondline/pkg/platform/sentinel"
)

// MemoryRegistry is an in-process registry used in dev mode and tests. It
// also carries the admin mutations the external registry would own.
type MemoryRegistry struct {
	mu     sync.RWMutex
	clock  clock.Clock
	nextID domain.IdentityID
	byID   map[domain.IdentityID]*Identity
}

// NewMemoryRegistry creates an empty registry. A nil clock uses wall time.
func NewMemoryRegistry(clk clock.Clock) *MemoryRegistry {
	if clk == nil {
		clk = clock.New()
	}
	return &MemoryRegistry{
		clock:  clk,
		nextID: 1,
		byID:   make(map[domain.IdentityID]*Identity),
	}
}

func (r *MemoryRegistry) Lookup(_ context.Context, id domain.IdentityID) (*Identity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ident, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("identity %s: %w", id, sentinel.ErrNotFound)
	}
	cp := *ident
	return &cp, nil
}

// Register issues a new active identity controlled by owner.
func (r *MemoryRegistry) Register(_ context.Context, owner domain.Address) (*Identity, error) {
	if owner.IsZero() {
		return nil, fmt.Errorf("owner is required: %w", sentinel.ErrConflict)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	ident := &Identity{
		ID:        r.nextID,
		Owner:     owner,
		CreatedAt: r.clock.Now().UTC(),
		Status:    StatusActive,
	}
	r.byID[ident.ID] = ident
	r.nextID++
	cp := *ident
	return &cp, nil
}

// Transfer moves control of id to a new wallet.
func (r *MemoryRegistry) Transfer(_ context.Context, id domain.IdentityID, owner domain.Address) (*Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("identity %s: %w", id, sentinel.ErrNotFound)
	}
	ident.Owner = owner
	cp := *ident
	return &cp, nil
}

// SetStatus changes the lifecycle status of id.
func (r *MemoryRegistry) SetStatus(_ context.Context, id domain.IdentityID, status Status) (*Identity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ident, ok := r.byID[id]
	if !ok {
		return nil, fmt.Errorf("identity %s: %w", id, sentinel.ErrNotFound)
	}
	ident.Status = status
	cp := *ident
	return &cp, nil
}
