package services

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
)

type FunnelStage struct {
	Stage customer.Stage
	Count int64
}

type WinRate struct {
	Since time.Time
	Won   int64
	Lost  int64
	// Percent is won over closed, two decimals; zero when nothing closed.
	Percent decimal.Decimal
}

// AnalyticsService computes aggregates over the actor's scope only.
type AnalyticsService struct {
	customers     customer.Repository
	opportunities opportunity.Repository
	access        Access
}

func NewAnalyticsService(customers customer.Repository, opportunities opportunity.Repository, access Access) *AnalyticsService {
	return &AnalyticsService{
		customers:     customers,
		opportunities: opportunities,
		access:        access,
	}
}

func (s *AnalyticsService) scope(ctx context.Context, actor *staff.User, rt accessservices.ResourceType) (*accessservices.Predicate, error) {
	return s.access.scope(ctx, actor, accessservices.ObjectAnalytics, rt)
}

// Funnel counts customers per stage, in funnel order.
func (s *AnalyticsService) Funnel(ctx context.Context, actor *staff.User) ([]FunnelStage, error) {
	scope, err := s.scope(ctx, actor, accessservices.ResourceCustomer)
	if err != nil {
		return nil, err
	}
	counts, err := s.customers.CountByStage(ctx, scope)
	if err != nil {
		return nil, err
	}
	out := make([]FunnelStage, 0, len(customer.Stages))
	for _, st := range customer.Stages {
		out = append(out, FunnelStage{Stage: st, Count: counts[st]})
	}
	return out, nil
}

// Pipeline totals open opportunities per stage, in pipeline order. Stages
// without opportunities are reported as zero. Actors who read sensitive
// records masked get those records counted but not summed.
func (s *AnalyticsService) Pipeline(ctx context.Context, actor *staff.User) ([]opportunity.StageTotal, error) {
	scope, err := s.scope(ctx, actor, accessservices.ResourceOpportunity)
	if err != nil {
		return nil, err
	}
	totals, err := s.opportunities.PipelineByStage(ctx, scope, s.access.Evaluator.MasksFor(actor))
	if err != nil {
		return nil, err
	}
	byStage := make(map[opportunity.Stage]opportunity.StageTotal, len(totals))
	for _, t := range totals {
		byStage[t.Stage] = t
	}
	out := make([]opportunity.StageTotal, 0, len(opportunity.OpenStages))
	for _, st := range opportunity.OpenStages {
		t, ok := byStage[st]
		if !ok {
			t = opportunity.StageTotal{Stage: st, Amount: decimal.Zero, ExpectedRevenue: decimal.Zero}
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *AnalyticsService) WinRate(ctx context.Context, actor *staff.User, since time.Time) (*WinRate, error) {
	scope, err := s.scope(ctx, actor, accessservices.ResourceOpportunity)
	if err != nil {
		return nil, err
	}
	won, lost, err := s.opportunities.ClosedSince(ctx, scope, since)
	if err != nil {
		return nil, err
	}
	rate := &WinRate{Since: since, Won: won, Lost: lost, Percent: decimal.Zero}
	if closed := won + lost; closed > 0 {
		rate.Percent = decimal.NewFromInt(won).Mul(decimal.NewFromInt(100)).Div(decimal.NewFromInt(closed)).Round(2)
	}
	return rate, nil
}
