package target

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jacksonlee411/branch-crm/pkg/repo"
)

type FindParams struct {
	// Scope is mandatory; repositories refuse to list without it.
	Scope      repo.UnitScope
	AssigneeID *uuid.UUID
	Type       Type
	ActiveAt   *time.Time
	Limit      int
	Offset     int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Target, error)
	List(ctx context.Context, params *FindParams) ([]*Target, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, t *Target) error
	// RecordAchievement stores a and adds a.Value to the target's achieved
	// value in one atomic increment. It returns the new achieved value.
	RecordAchievement(ctx context.Context, a *Achievement) (decimal.Decimal, error)
	Achievements(ctx context.Context, targetID uuid.UUID) ([]*Achievement, error)
	// ActiveFor returns targets of assigneeID of type typ covering at.
	ActiveFor(ctx context.Context, assigneeID uuid.UUID, typ Type, at time.Time) ([]*Target, error)
}
