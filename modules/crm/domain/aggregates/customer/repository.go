package customer

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/pkg/repo"
)

type FindParams struct {
	// Scope is mandatory; repositories refuse to list without it.
	Scope   repo.UnitScope
	Stage   Stage
	Segment Segment
	OwnerID *uuid.UUID
	Query   string
	Limit   int
	Offset  int
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Customer, error)
	List(ctx context.Context, params *FindParams) ([]*Customer, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, c *Customer) error
	// Update writes c when the stored version equals c.Version and bumps
	// c.Version. A stale version is ConcurrentModification.
	Update(ctx context.Context, c *Customer) error
	TouchLastContact(ctx context.Context, id uuid.UUID, at time.Time) error
	CountByStage(ctx context.Context, scope repo.UnitScope) (map[Stage]int64, error)
}
