package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
)

// Directory answers structural questions about the org tree. Every call
// reflects the current state; implementations must not serve stale answers
// after a structural change.
type Directory interface {
	Lookup(ctx context.Context, id uuid.UUID) (orgunit.Unit, error)
	AncestorsOf(ctx context.Context, id uuid.UUID) ([]orgunit.Unit, error)
	SubtreeOf(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	AllUnitIDs(ctx context.Context) ([]uuid.UUID, error)
}

// TreeDirectory is an in-memory Directory backed by a Tree.
type TreeDirectory struct {
	mu   sync.RWMutex
	tree *Tree
}

func NewTreeDirectory(tree *Tree) *TreeDirectory {
	if tree == nil {
		tree = NewTree()
	}
	return &TreeDirectory{tree: tree}
}

func (d *TreeDirectory) AddUnit(u orgunit.Unit) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.tree.Add(u)
}

func (d *TreeDirectory) Lookup(ctx context.Context, id uuid.UUID) (orgunit.Unit, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	u, ok := d.tree.Lookup(id)
	if !ok {
		return orgunit.Unit{}, unitNotFound(id)
	}
	return u, nil
}

func (d *TreeDirectory) AncestorsOf(ctx context.Context, id uuid.UUID) ([]orgunit.Unit, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tree.AncestorsOf(id)
}

func (d *TreeDirectory) SubtreeOf(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tree.SubtreeOf(id)
}

func (d *TreeDirectory) AllUnitIDs(ctx context.Context) ([]uuid.UUID, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.tree.All(), nil
}
