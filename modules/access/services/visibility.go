package services

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	orgservices "github.com/jacksonlee411/branch-crm/modules/org/services"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

// UnitSet is a set of visible org units. An unbounded set contains every
// unit, including ones created later.
type UnitSet struct {
	all bool
	ids map[uuid.UUID]struct{}
}

func EveryUnit() UnitSet {
	return UnitSet{all: true}
}

func UnitsOf(ids ...uuid.UUID) UnitSet {
	s := UnitSet{ids: make(map[uuid.UUID]struct{}, len(ids))}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
	return s
}

func (s UnitSet) Unbounded() bool {
	return s.all
}

func (s UnitSet) Contains(id uuid.UUID) bool {
	if s.all {
		return true
	}
	_, ok := s.ids[id]
	return ok
}

func (s UnitSet) Len() int {
	return len(s.ids)
}

// IDs returns the members in a stable order. It is empty for an unbounded set.
func (s UnitSet) IDs() []uuid.UUID {
	out := make([]uuid.UUID, 0, len(s.ids))
	for id := range s.ids {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].String() < out[j].String() })
	return out
}

func (s *UnitSet) add(ids ...uuid.UUID) {
	if s.all {
		return
	}
	if s.ids == nil {
		s.ids = make(map[uuid.UUID]struct{}, len(ids))
	}
	for _, id := range ids {
		s.ids[id] = struct{}{}
	}
}

type visibilityRule func(ctx context.Context, dir orgservices.Directory, unit orgunit.Unit) (UnitSet, error)

var visibilityRules = map[orgunit.Layer]visibilityRule{
	orgunit.LayerExecutive:  everything,
	orgunit.LayerRegional:   ownSubtree,
	orgunit.LayerBranch:     ownSubtree,
	orgunit.LayerIndividual: ownUnit,
}

func everything(context.Context, orgservices.Directory, orgunit.Unit) (UnitSet, error) {
	return EveryUnit(), nil
}

func ownSubtree(ctx context.Context, dir orgservices.Directory, unit orgunit.Unit) (UnitSet, error) {
	ids, err := dir.SubtreeOf(ctx, unit.ID)
	if err != nil {
		return UnitSet{}, err
	}
	return UnitsOf(ids...), nil
}

func ownUnit(_ context.Context, _ orgservices.Directory, unit orgunit.Unit) (UnitSet, error) {
	return UnitsOf(unit.ID), nil
}

// VisibleUnits computes the set of units whose records the user may see.
// Inactive users see nothing. The user's layer must match the layer of the
// unit they are assigned to.
func VisibleUnits(ctx context.Context, dir orgservices.Directory, user *staff.User) (UnitSet, error) {
	if user == nil || !user.Active {
		return UnitsOf(), nil
	}
	unit, err := dir.Lookup(ctx, user.UnitID)
	if err != nil {
		return UnitSet{}, err
	}
	if unit.Layer != user.Layer {
		return UnitSet{}, serrors.Validation("user layer does not match assigned unit", nil)
	}
	rule, ok := visibilityRules[unit.Layer]
	if !ok {
		return UnitSet{}, serrors.Validation("no visibility rule for layer "+unit.Layer.String(), nil)
	}

	set, err := rule(ctx, dir, unit)
	if err != nil {
		return UnitSet{}, err
	}
	if set.Unbounded() {
		return set, nil
	}
	for _, g := range user.Grants {
		if g.Delegate {
			ids, err := dir.SubtreeOf(ctx, g.UnitID)
			if err != nil {
				return UnitSet{}, err
			}
			set.add(ids...)
			continue
		}
		if _, err := dir.Lookup(ctx, g.UnitID); err != nil {
			return UnitSet{}, err
		}
		set.add(g.UnitID)
	}
	return set, nil
}
