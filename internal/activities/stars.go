package activities

import (
	"context"
	"slices"
	"sync"

	"fairweather/internal/types"
)

// MaxStarred is how many activities an owner may star.
const MaxStarred = 3

// DefaultStarred is what an owner who never changed their stars sees.
var DefaultStarred = []string{"moto", "running", "laundry"}

// StarStore persists each owner's ordered list of starred activity IDs.
type StarStore interface {
	// Get returns found=false when the owner never stored a list.
	Get(ctx context.Context, owner string) (ids []string, found bool, err error)
	Put(ctx context.Context, owner string, ids []string) error
}

// CatalogOption configures a Catalog.
type CatalogOption func(*Catalog)

// WithStarStore sets where starred activities are kept. Without it the
// catalog keeps them in memory.
func WithStarStore(s StarStore) CatalogOption {
	return func(c *Catalog) {
		if s != nil {
			c.stars = s
		}
	}
}

// Starred returns the owner's starred activity IDs in the order they were
// starred. An empty owner gets the defaults.
func (c *Catalog) Starred(ctx context.Context, owner string) ([]string, error) {
	if owner == "" {
		return slices.Clone(DefaultStarred), nil
	}
	ids, found, err := c.stars.Get(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !found {
		return slices.Clone(DefaultStarred), nil
	}
	return ids, nil
}

// Star adds id to the owner's stars. Starring an already starred activity is
// a no-op; a fourth star is rejected.
func (c *Catalog) Star(ctx context.Context, owner, id string) ([]string, error) {
	if _, err := c.Get(ctx, owner, id); err != nil {
		return nil, err
	}
	ids, err := c.Starred(ctx, owner)
	if err != nil {
		return nil, err
	}
	if slices.Contains(ids, id) {
		return ids, nil
	}
	if len(ids) >= MaxStarred {
		return nil, types.NewAppErrorWithDetails(types.ErrCodeConflictStarLimit,
			"at most 3 activities can be starred", nil, map[string]any{"starred": ids})
	}
	ids = append(ids, id)
	if err := c.stars.Put(ctx, owner, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// Unstar removes id from the owner's stars. Removing an unstarred ID is a
// no-op.
func (c *Catalog) Unstar(ctx context.Context, owner, id string) ([]string, error) {
	ids, err := c.Starred(ctx, owner)
	if err != nil {
		return nil, err
	}
	if !slices.Contains(ids, id) {
		return ids, nil
	}
	ids = slices.DeleteFunc(ids, func(s string) bool { return s == id })
	if err := c.stars.Put(ctx, owner, ids); err != nil {
		return nil, err
	}
	return ids, nil
}

// MemoryStarStore is a process-local StarStore.
type MemoryStarStore struct {
	mu    sync.Mutex
	stars map[string][]string
}

func NewMemoryStarStore() *MemoryStarStore {
	return &MemoryStarStore{stars: map[string][]string{}}
}

func (m *MemoryStarStore) Get(_ context.Context, owner string) ([]string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ids, ok := m.stars[owner]
	return slices.Clone(ids), ok, nil
}

func (m *MemoryStarStore) Put(_ context.Context, owner string, ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stars[owner] = slices.Clone(ids)
	return nil
}
