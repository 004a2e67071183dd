// Package registry is the in-memory store of record for crises. Every
// mutation of a crisis runs inside that crisis's own critical section, so
// concurrent responders negotiate against a serialized view.
package registry

import (
	"sort"
	"sync"

	"crisisnet_backend/internal/crisis/domain"
	"crisisnet_backend/platform/apperr"

	"github.com/google/uuid"
)

type entry struct {
	mu     sync.Mutex
	crisis *domain.Crisis
}

// Registry owns the crisis map. The registry lock guards only the map;
// per-crisis entry locks serialize mutation so two crises never block
// each other.
type Registry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*entry
}

// New creates an empty registry.
func New() *Registry {
	return &Registry{entries: make(map[uuid.UUID]*entry)}
}

// Insert stores a new crisis. The registry takes ownership of the value.
func (r *Registry) Insert(crisis *domain.Crisis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.entries[crisis.ID]; exists {
		return apperr.New(apperr.KindConflict, "crisis already registered")
	}
	r.entries[crisis.ID] = &entry{crisis: crisis}
	return nil
}

// Get returns a deep copy of the crisis, safe to read without locks.
func (r *Registry) Get(id uuid.UUID) (domain.Crisis, error) {
	e, err := r.lookup(id)
	if err != nil {
		return domain.Crisis{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.crisis.Clone(), nil
}

// Update runs fn against the crisis inside its critical section. The
// returned snapshot is a deep copy taken after fn completes, so callers can
// broadcast it outside the lock. When fn errors the mutation is taken to
// have been abandoned by fn itself; partial writes are fn's responsibility
// to avoid.
func (r *Registry) Update(id uuid.UUID, fn func(*domain.Crisis) error) (domain.Crisis, error) {
	e, err := r.lookup(id)
	if err != nil {
		return domain.Crisis{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := fn(e.crisis); err != nil {
		return domain.Crisis{}, err
	}
	return e.crisis.Clone(), nil
}

// List returns copies of every crisis, newest first.
func (r *Registry) List() []domain.Crisis {
	r.mu.RLock()
	entries := make([]*entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	r.mu.RUnlock()

	crises := make([]domain.Crisis, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		crises = append(crises, e.crisis.Clone())
		e.mu.Unlock()
	}
	sort.Slice(crises, func(i, j int) bool {
		if !crises[i].CreatedAt.Equal(crises[j].CreatedAt) {
			return crises[i].CreatedAt.After(crises[j].CreatedAt)
		}
		return crises[i].ID.String() < crises[j].ID.String()
	})
	return crises
}

// ListActive returns copies of every crisis that is not closed.
func (r *Registry) ListActive() []domain.Crisis {
	all := r.List()
	active := all[:0]
	for _, crisis := range all {
		if crisis.Status != domain.StatusClosed {
			active = append(active, crisis)
		}
	}
	return active
}

// Count returns the number of stored crises, closed included.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

func (r *Registry) lookup(id uuid.UUID) (*entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[id]
	if !ok {
		return nil, apperr.New(apperr.KindNotFound, "crisis not found")
	}
	return e, nil
}
