package activity

import (
	"context"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/pkg/repo"
)

type FindParams struct {
	// Scope is mandatory; repositories refuse to list without it.
	Scope         repo.UnitScope
	CustomerID    *uuid.UUID
	OpportunityID *uuid.UUID
	Type          Type
	Limit         int
	Offset        int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Activity, error)
	List(ctx context.Context, params *FindParams) ([]*Activity, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, a *Activity) error
}
