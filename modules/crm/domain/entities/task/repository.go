package task

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/pkg/repo"
)

type FindParams struct {
	// Scope is mandatory; repositories refuse to list without it.
	Scope      repo.UnitScope
	AssigneeID *uuid.UUID
	CustomerID *uuid.UUID
	Status     Status
	Priority   Priority
	// OverdueAt keeps open tasks due before it. Status overdue is
	// translated into it by the service.
	OverdueAt *time.Time
	Limit     int
	Offset    int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Task, error)
	List(ctx context.Context, params *FindParams) ([]*Task, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, t *Task) error
	// Update writes t when the stored version equals t.Version and bumps it.
	Update(ctx context.Context, t *Task) error
}
