package testkit

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/target"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/activity"
	"github.com/jacksonlee411/branch-crm/pkg/repo"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

// inScope applies scope the way its SQL clause would. A nil scope is an
// error, as in the PostgreSQL repositories.
func inScope(scope repo.UnitScope, unitID uuid.UUID) (bool, error) {
	if scope == nil {
		return false, repo.ErrMissingScope
	}
	if f, ok := scope.(unitFilter); ok && !f.Unbounded() {
		return f.Contains(unitID), nil
	}
	return true, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

// CustomerRepository keeps customers in memory and hands out copies, so
// changes only land through Create and Update.
type CustomerRepository struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*customer.Customer
	seq  []uuid.UUID
}

func NewCustomerRepository() *CustomerRepository {
	return &CustomerRepository{rows: make(map[uuid.UUID]*customer.Customer)}
}

func (r *CustomerRepository) GetByID(_ context.Context, id uuid.UUID) (*customer.Customer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return nil, serrors.NotFound("customer", nil)
	}
	copied := *c
	return &copied, nil
}

func (r *CustomerRepository) List(_ context.Context, params *customer.FindParams) ([]*customer.Customer, error) {
	all, err := r.filter(params)
	if err != nil {
		return nil, err
	}
	return page(all, params.Limit, params.Offset), nil
}

func (r *CustomerRepository) Count(_ context.Context, params *customer.FindParams) (int64, error) {
	all, err := r.filter(params)
	return int64(len(all)), err
}

func (r *CustomerRepository) filter(params *customer.FindParams) ([]*customer.Customer, error) {
	if params == nil {
		return nil, repo.ErrMissingScope
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*customer.Customer
	for _, id := range r.seq {
		c := r.rows[id]
		ok, err := inScope(params.Scope, c.OwningUnitID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if params.Stage != "" && c.Stage != params.Stage {
			continue
		}
		if params.Segment != "" && c.Segment != params.Segment {
			continue
		}
		if params.OwnerID != nil && c.OwnerID != *params.OwnerID {
			continue
		}
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

func (r *CustomerRepository) Create(_ context.Context, c *customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.Version == 0 {
		c.Version = 1
	}
	copied := *c
	r.rows[c.ID] = &copied
	r.seq = append(r.seq, c.ID)
	return nil
}

func (r *CustomerRepository) Update(_ context.Context, c *customer.Customer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rows[c.ID]
	if !ok {
		return serrors.NotFound("customer", nil)
	}
	if stored.Version != c.Version {
		return serrors.ConcurrentModification("customer")
	}
	c.Version++
	copied := *c
	r.rows[c.ID] = &copied
	return nil
}

func (r *CustomerRepository) TouchLastContact(_ context.Context, id uuid.UUID, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.rows[id]
	if !ok {
		return serrors.NotFound("customer", nil)
	}
	if c.LastContactAt == nil || at.After(*c.LastContactAt) {
		c.LastContactAt = &at
	}
	return nil
}

func (r *CustomerRepository) CountByStage(_ context.Context, scope repo.UnitScope) (map[customer.Stage]int64, error) {
	all, err := r.filter(&customer.FindParams{Scope: scope})
	if err != nil {
		return nil, err
	}
	out := make(map[customer.Stage]int64)
	for _, c := range all {
		out[c.Stage]++
	}
	return out, nil
}

type OpportunityRepository struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*opportunity.Opportunity
	seq  []uuid.UUID
}

func NewOpportunityRepository() *OpportunityRepository {
	return &OpportunityRepository{rows: make(map[uuid.UUID]*opportunity.Opportunity)}
}

func (r *OpportunityRepository) GetByID(_ context.Context, id uuid.UUID) (*opportunity.Opportunity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.rows[id]
	if !ok {
		return nil, serrors.NotFound("opportunity", nil)
	}
	copied := *o
	return &copied, nil
}

func (r *OpportunityRepository) List(_ context.Context, params *opportunity.FindParams) ([]*opportunity.Opportunity, error) {
	all, err := r.filter(params)
	if err != nil {
		return nil, err
	}
	return page(all, params.Limit, params.Offset), nil
}

func (r *OpportunityRepository) Count(_ context.Context, params *opportunity.FindParams) (int64, error) {
	all, err := r.filter(params)
	return int64(len(all)), err
}

func (r *OpportunityRepository) filter(params *opportunity.FindParams) ([]*opportunity.Opportunity, error) {
	if params == nil {
		return nil, repo.ErrMissingScope
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*opportunity.Opportunity
	for _, id := range r.seq {
		o := r.rows[id]
		ok, err := inScope(params.Scope, o.OwningUnitID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if params.Stage != "" && o.Stage != params.Stage {
			continue
		}
		if params.OpenOnly && !o.Stage.IsOpen() {
			continue
		}
		if params.CustomerID != nil && o.CustomerID != *params.CustomerID {
			continue
		}
		if params.OwnerID != nil && o.OwnerID != *params.OwnerID {
			continue
		}
		copied := *o
		out = append(out, &copied)
	}
	return out, nil
}

func (r *OpportunityRepository) Create(_ context.Context, o *opportunity.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if o.Version == 0 {
		o.Version = 1
	}
	copied := *o
	r.rows[o.ID] = &copied
	r.seq = append(r.seq, o.ID)
	return nil
}

func (r *OpportunityRepository) Update(_ context.Context, o *opportunity.Opportunity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rows[o.ID]
	if !ok {
		return serrors.NotFound("opportunity", nil)
	}
	if stored.Version != o.Version {
		return serrors.ConcurrentModification("opportunity")
	}
	o.Version++
	copied := *o
	r.rows[o.ID] = &copied
	return nil
}

func (r *OpportunityRepository) PipelineByStage(_ context.Context, scope repo.UnitScope, withholdSensitive bool) ([]opportunity.StageTotal, error) {
	all, err := r.filter(&opportunity.FindParams{Scope: scope, OpenOnly: true})
	if err != nil {
		return nil, err
	}
	totals := make(map[opportunity.Stage]*opportunity.StageTotal)
	for _, o := range all {
		t, ok := totals[o.Stage]
		if !ok {
			t = &opportunity.StageTotal{Stage: o.Stage, Amount: decimal.Zero, ExpectedRevenue: decimal.Zero}
			totals[o.Stage] = t
		}
		t.Count++
		if withholdSensitive && o.Sensitive {
			t.Withheld++
			continue
		}
		t.Amount = t.Amount.Add(o.Amount)
		t.ExpectedRevenue = t.ExpectedRevenue.Add(o.ExpectedRevenue())
	}
	out := make([]opportunity.StageTotal, 0, len(totals))
	for _, t := range totals {
		out = append(out, *t)
	}
	return out, nil
}

func (r *OpportunityRepository) ClosedSince(_ context.Context, scope repo.UnitScope, since time.Time) (int64, int64, error) {
	all, err := r.filter(&opportunity.FindParams{Scope: scope})
	if err != nil {
		return 0, 0, err
	}
	var won, lost int64
	for _, o := range all {
		if o.WonAt != nil && !o.WonAt.Before(since) {
			won++
		}
		if o.LostAt != nil && !o.LostAt.Before(since) {
			lost++
		}
	}
	return won, lost, nil
}

type ActivityRepository struct {
	mu   sync.Mutex
	rows []*activity.Activity
}

func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{}
}

func (r *ActivityRepository) GetByID(_ context.Context, id uuid.UUID) (*activity.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.rows {
		if a.ID == id {
			copied := *a
			return &copied, nil
		}
	}
	return nil, serrors.NotFound("activity", nil)
}

func (r *ActivityRepository) List(_ context.Context, params *activity.FindParams) ([]*activity.Activity, error) {
	all, err := r.filter(params)
	if err != nil {
		return nil, err
	}
	return page(all, params.Limit, params.Offset), nil
}

func (r *ActivityRepository) Count(_ context.Context, params *activity.FindParams) (int64, error) {
	all, err := r.filter(params)
	return int64(len(all)), err
}

func (r *ActivityRepository) filter(params *activity.FindParams) ([]*activity.Activity, error) {
	if params == nil {
		return nil, repo.ErrMissingScope
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*activity.Activity
	for _, a := range r.rows {
		ok, err := inScope(params.Scope, a.OwningUnitID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if params.CustomerID != nil && a.CustomerID != *params.CustomerID {
			continue
		}
		if params.Type != "" && a.Type != params.Type {
			continue
		}
		copied := *a
		out = append(out, &copied)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.After(out[j].OccurredAt) })
	return out, nil
}

func (r *ActivityRepository) Create(_ context.Context, a *activity.Activity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *a
	r.rows = append(r.rows, &copied)
	return nil
}

// TargetRepository applies achievements under one lock, the in-memory
// equivalent of the SQL increment.
type TargetRepository struct {
	mu           sync.Mutex
	rows         map[uuid.UUID]*target.Target
	seq          []uuid.UUID
	achievements []*target.Achievement
}

func NewTargetRepository() *TargetRepository {
	return &TargetRepository{rows: make(map[uuid.UUID]*target.Target)}
}

func (r *TargetRepository) GetByID(_ context.Context, id uuid.UUID) (*target.Target, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return nil, serrors.NotFound("target", nil)
	}
	copied := *t
	return &copied, nil
}

func (r *TargetRepository) List(_ context.Context, params *target.FindParams) ([]*target.Target, error) {
	all, err := r.filter(params)
	if err != nil {
		return nil, err
	}
	return page(all, params.Limit, params.Offset), nil
}

func (r *TargetRepository) Count(_ context.Context, params *target.FindParams) (int64, error) {
	all, err := r.filter(params)
	return int64(len(all)), err
}

func (r *TargetRepository) filter(params *target.FindParams) ([]*target.Target, error) {
	if params == nil {
		return nil, repo.ErrMissingScope
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*target.Target
	for _, id := range r.seq {
		t := r.rows[id]
		ok, err := inScope(params.Scope, t.OwningUnitID)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		if params.AssigneeID != nil && t.AssigneeID != *params.AssigneeID {
			continue
		}
		if params.Type != "" && t.Type != params.Type {
			continue
		}
		if params.ActiveAt != nil && !t.Covers(*params.ActiveAt) {
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	return out, nil
}

func (r *TargetRepository) Create(_ context.Context, t *target.Target) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *t
	r.rows[t.ID] = &copied
	r.seq = append(r.seq, t.ID)
	return nil
}

func (r *TargetRepository) RecordAchievement(_ context.Context, a *target.Achievement) (decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[a.TargetID]
	if !ok {
		return decimal.Zero, serrors.NotFound("target", nil)
	}
	t.AchievedValue = t.AchievedValue.Add(a.Value)
	copied := *a
	r.achievements = append(r.achievements, &copied)
	return t.AchievedValue, nil
}

func (r *TargetRepository) Achievements(_ context.Context, targetID uuid.UUID) ([]*target.Achievement, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*target.Achievement
	for _, a := range r.achievements {
		if a.TargetID == targetID {
			copied := *a
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *TargetRepository) ActiveFor(_ context.Context, assigneeID uuid.UUID, typ target.Type, at time.Time) ([]*target.Target, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*target.Target
	for _, id := range r.seq {
		t := r.rows[id]
		if t.AssigneeID == assigneeID && t.Type == typ && t.Covers(at) {
			copied := *t
			out = append(out, &copied)
		}
	}
	return out, nil
}
