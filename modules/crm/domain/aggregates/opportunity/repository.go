package opportunity

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
	Stage      Stage
	CustomerID *uuid.UUID
	OwnerID    *uuid.UUID
	OpenOnly   bool
	Limit      int
	Offset     int
}

// StageTotal aggregates open opportunities at one stage. Withheld counts
// sensitive opportunities included in Count but left out of the sums.
type StageTotal struct {
	Stage           Stage
	Count           int64
	Withheld        int64
	Amount          decimal.Decimal
	ExpectedRevenue decimal.Decimal
}

type Repository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*Opportunity, error)
	List(ctx context.Context, params *FindParams) ([]*Opportunity, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
	Create(ctx context.Context, o *Opportunity) error
	// Update follows the same version rule as customer.Repository.Update.
	Update(ctx context.Context, o *Opportunity) error
	// PipelineByStage totals open opportunities per stage. With
	// withholdSensitive set, sensitive rows only contribute to the counts.
	PipelineByStage(ctx context.Context, scope repo.UnitScope, withholdSensitive bool) ([]StageTotal, error)
	// ClosedSince counts opportunities won and lost at or after since.
	ClosedSince(ctx context.Context, scope repo.UnitScope, since time.Time) (won, lost int64, err error)
}
