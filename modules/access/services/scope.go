package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	orgservices "github.com/jacksonlee411/branch-crm/modules/org/services"
)

// Predicate is the visible-unit set of one actor, computed once per Scope
// call. It satisfies repo.UnitScope.
type Predicate struct {
	resourceType ResourceType
	units        UnitSet
}

func (p *Predicate) ResourceType() ResourceType {
	return p.resourceType
}

func (p *Predicate) Contains(unitID uuid.UUID) bool {
	return p.units.Contains(unitID)
}

func (p *Predicate) Unbounded() bool {
	return p.units.Unbounded()
}

// Units returns the visible units; empty when the predicate is unbounded.
func (p *Predicate) Units() []uuid.UUID {
	return p.units.IDs()
}

// Clause renders the predicate as SQL over column using placeholder argPos.
// An unbounded predicate renders no clause; an empty one matches nothing.
func (p *Predicate) Clause(column string, argPos int) (string, []any) {
	if p.units.Unbounded() {
		return "", nil
	}
	if p.units.Len() == 0 {
		return "FALSE", nil
	}
	return fmt.Sprintf("%s = ANY($%d)", column, argPos), []any{p.units.IDs()}
}

type Scoper struct {
	directory orgservices.Directory
}

func NewScoper(directory orgservices.Directory) *Scoper {
	return &Scoper{directory: directory}
}

// Scope returns the filter that list queries for resourceType must apply for
// actor. It uses the same visibility rules as Evaluator.
func (s *Scoper) Scope(ctx context.Context, actor *staff.User, resourceType ResourceType) (*Predicate, error) {
	ctx, span := tracer.Start(ctx, "access.Scope")
	defer span.End()

	units, err := VisibleUnits(ctx, s.directory, actor)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return &Predicate{resourceType: resourceType, units: units}, nil
}
