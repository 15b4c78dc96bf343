package services

import (
	"context"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/target"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/activity"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/task"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
)

// Access bundles the checks every CRM operation runs: the capability gate,
// then scoping for lists or per-record evaluation.
type Access struct {
	Evaluator    *accessservices.Evaluator
	Scoper       *accessservices.Scoper
	Capabilities *accessservices.Capabilities
}

// scope gates object for viewing and returns the actor's list filter.
func (a Access) scope(ctx context.Context, actor *staff.User, object string, rt accessservices.ResourceType) (*accessservices.Predicate, error) {
	if err := a.Capabilities.Require(ctx, actor, object, accessservices.ActionView); err != nil {
		return nil, err
	}
	return a.Scoper.Scope(ctx, actor, rt)
}

// release evaluates every scoped row and keeps the ones not denied. A scoped
// query and evaluation share the visibility rules, so drops only happen when
// the directory changed in between.
func release[T any](ctx context.Context, a Access, actor *staff.User, items []T, resource func(T) accessservices.Resource) ([]accessservices.Visible[T], error) {
	out := make([]accessservices.Visible[T], 0, len(items))
	for _, item := range items {
		decision, err := a.Evaluator.Evaluate(ctx, actor, accessservices.ActionView, resource(item))
		if err != nil {
			return nil, err
		}
		if decision == accessservices.Deny {
			continue
		}
		out = append(out, accessservices.Visible[T]{Item: item, Decision: decision})
	}
	return out, nil
}

func customerResource(c *customer.Customer) accessservices.Resource {
	return accessservices.Resource{
		Type:         accessservices.ResourceCustomer,
		ID:           c.ID.String(),
		OwningUnitID: c.OwningUnitID,
		Sensitive:    c.HighNetWorth,
	}
}

func opportunityResource(o *opportunity.Opportunity) accessservices.Resource {
	return accessservices.Resource{
		Type:         accessservices.ResourceOpportunity,
		ID:           o.ID.String(),
		OwningUnitID: o.OwningUnitID,
		Sensitive:    o.Sensitive,
	}
}

func activityResource(a *activity.Activity) accessservices.Resource {
	return accessservices.Resource{
		Type:         accessservices.ResourceActivity,
		ID:           a.ID.String(),
		OwningUnitID: a.OwningUnitID,
		Sensitive:    a.Sensitive,
	}
}

func targetResource(t *target.Target) accessservices.Resource {
	return accessservices.Resource{
		Type:         accessservices.ResourceTarget,
		ID:           t.ID.String(),
		OwningUnitID: t.OwningUnitID,
	}
}

func taskResource(t *task.Task) accessservices.Resource {
	return accessservices.Resource{
		Type:         accessservices.ResourceTask,
		ID:           t.ID.String(),
		OwningUnitID: t.OwningUnitID,
		Sensitive:    t.Sensitive,
	}
}
