package services

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

const noParent = -1

// Tree is an arena of org units with a parent index. Units are only accepted
// after their parent, so the structure is acyclic by construction.
type Tree struct {
	units    []orgunit.Unit
	parent   []int
	children [][]int
	byID     map[uuid.UUID]int
	byCode   map[string]int
	root     int
}

func NewTree() *Tree {
	return &Tree{
		byID:   make(map[uuid.UUID]int),
		byCode: make(map[string]int),
		root:   noParent,
	}
}

// BuildTree inserts units in dependency order regardless of input order.
// Units whose parent never appears are reported as an error.
func BuildTree(units []orgunit.Unit) (*Tree, error) {
	t := NewTree()
	pending := append([]orgunit.Unit(nil), units...)
	for len(pending) > 0 {
		next := pending[:0]
		progressed := false
		for _, u := range pending {
			if u.ParentID != nil {
				if _, ok := t.byID[*u.ParentID]; !ok {
					next = append(next, u)
					continue
				}
			}
			if err := t.Add(u); err != nil {
				return nil, err
			}
			progressed = true
		}
		if !progressed {
			return nil, invalidUnit(next[0], "parent does not exist or forms a cycle")
		}
		pending = next
	}
	return t, nil
}

// Add validates and appends a unit.
func (t *Tree) Add(u orgunit.Unit) error {
	if u.ID == uuid.Nil {
		return invalidUnit(u, "id is required")
	}
	if !u.Layer.Valid() {
		return invalidUnit(u, "unknown layer")
	}
	if _, dup := t.byID[u.ID]; dup {
		return invalidUnit(u, "duplicate id")
	}
	if _, dup := t.byCode[u.Code]; dup {
		return invalidUnit(u, "duplicate code")
	}

	parentIdx := noParent
	if u.ParentID == nil {
		if u.Layer != orgunit.LayerExecutive {
			return invalidUnit(u, "root unit must be executive")
		}
		if t.root != noParent {
			return invalidUnit(u, "root already exists")
		}
	} else {
		idx, ok := t.byID[*u.ParentID]
		if !ok {
			return invalidUnit(u, "parent does not exist")
		}
		want, ok := t.units[idx].Layer.Below()
		if !ok || want != u.Layer {
			return invalidUnit(u, fmt.Sprintf("layer %s cannot sit under %s", u.Layer, t.units[idx].Layer))
		}
		parentIdx = idx
	}

	idx := len(t.units)
	t.units = append(t.units, u)
	t.parent = append(t.parent, parentIdx)
	t.children = append(t.children, nil)
	t.byID[u.ID] = idx
	t.byCode[u.Code] = idx
	if parentIdx == noParent {
		t.root = idx
	} else {
		t.children[parentIdx] = append(t.children[parentIdx], idx)
	}
	return nil
}

func (t *Tree) Len() int {
	return len(t.units)
}

func (t *Tree) Lookup(id uuid.UUID) (orgunit.Unit, bool) {
	idx, ok := t.byID[id]
	if !ok {
		return orgunit.Unit{}, false
	}
	return t.units[idx], true
}

func (t *Tree) LookupCode(code string) (orgunit.Unit, bool) {
	idx, ok := t.byCode[code]
	if !ok {
		return orgunit.Unit{}, false
	}
	return t.units[idx], true
}

// AncestorsOf returns the chain from the root down to the unit's parent.
func (t *Tree) AncestorsOf(id uuid.UUID) ([]orgunit.Unit, error) {
	idx, ok := t.byID[id]
	if !ok {
		return nil, unitNotFound(id)
	}
	var chain []orgunit.Unit
	for p := t.parent[idx]; p != noParent; p = t.parent[p] {
		chain = append(chain, t.units[p])
	}
	for i, j := 0, len(chain)-1; i < j; i, j = i+1, j-1 {
		chain[i], chain[j] = chain[j], chain[i]
	}
	return chain, nil
}

// SubtreeOf returns the unit and all of its descendants, breadth first.
func (t *Tree) SubtreeOf(id uuid.UUID) ([]uuid.UUID, error) {
	idx, ok := t.byID[id]
	if !ok {
		return nil, unitNotFound(id)
	}
	out := make([]uuid.UUID, 0, 8)
	queue := []int{idx}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		out = append(out, t.units[cur].ID)
		queue = append(queue, t.children[cur]...)
	}
	return out, nil
}

func (t *Tree) All() []uuid.UUID {
	out := make([]uuid.UUID, len(t.units))
	for i, u := range t.units {
		out[i] = u.ID
	}
	return out
}

// Walk visits units depth first from the root with their depth.
func (t *Tree) Walk(fn func(u orgunit.Unit, depth int)) {
	if t.root == noParent {
		return
	}
	var visit func(idx, depth int)
	visit = func(idx, depth int) {
		fn(t.units[idx], depth)
		for _, c := range t.children[idx] {
			visit(c, depth+1)
		}
	}
	visit(t.root, 0)
}

func invalidUnit(u orgunit.Unit, reason string) error {
	return serrors.Validation(fmt.Sprintf("org unit %q: %s", u.Code, reason), nil)
}

func unitNotFound(id uuid.UUID) error {
	return serrors.NotFound(fmt.Sprintf("org unit %s", id), nil)
}
