package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/eventbus"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

type OpportunityService struct {
	repo      opportunity.Repository
	customers customer.Repository
	access    Access
	publisher eventbus.EventBus
	logger    *logrus.Entry
	now       func() time.Time
}

func NewOpportunityService(
	repo opportunity.Repository,
	customers customer.Repository,
	access Access,
	publisher eventbus.EventBus,
	logger *logrus.Logger,
) *OpportunityService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &OpportunityService{
		repo:      repo,
		customers: customers,
		access:    access,
		publisher: publisher,
		logger:    logger.WithField("component", "crm.opportunities"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *OpportunityService) GetByID(ctx context.Context, actor *staff.User, id uuid.UUID) (accessservices.Visible[*opportunity.Opportunity], error) {
	var out accessservices.Visible[*opportunity.Opportunity]
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectOpportunities, accessservices.ActionView); err != nil {
		return out, err
	}
	o, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return out, err
	}
	decision, err := s.access.Evaluator.Authorize(ctx, actor, accessservices.ActionView, opportunityResource(o))
	if err != nil {
		return out, err
	}
	return accessservices.Visible[*opportunity.Opportunity]{Item: o, Decision: decision}, nil
}

func (s *OpportunityService) List(ctx context.Context, actor *staff.User, params *opportunity.FindParams) ([]accessservices.Visible[*opportunity.Opportunity], int64, error) {
	scope, err := s.access.scope(ctx, actor, accessservices.ObjectOpportunities, accessservices.ResourceOpportunity)
	if err != nil {
		return nil, 0, err
	}
	if params == nil {
		params = &opportunity.FindParams{}
	}
	params.Scope = scope

	items, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	visible, err := release(ctx, s.access, actor, items, opportunityResource)
	if err != nil {
		return nil, 0, err
	}
	return visible, total, nil
}

// Create opens an opportunity on a customer actor can see. It inherits the
// customer's sensitivity.
func (s *OpportunityService) Create(ctx context.Context, actor *staff.User, dto *opportunity.CreateDTO) (*opportunity.Opportunity, error) {
	if errs, ok := dto.Ok(); !ok {
		return nil, serrors.InvalidInput(errs)
	}
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectOpportunities, accessservices.ActionCreate); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*opportunity.Opportunity, error) {
		c, err := s.customers.GetByID(txCtx, dto.CustomerID)
		if err != nil {
			return nil, err
		}
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionView, customerResource(c)); err != nil {
			return nil, err
		}
		o := opportunity.New(c.ID, actor.ID, actor.UnitID, s.now())
		o.Name = dto.Name
		o.ProductLine = dto.ProductLine
		o.Amount = dto.Amount
		o.ExpectedCloseDate = dto.ExpectedCloseDate
		o.Sensitive = c.HighNetWorth
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionCreate, opportunityResource(o)); err != nil {
			return nil, err
		}
		if err := s.repo.Create(txCtx, o); err != nil {
			return nil, err
		}
		s.entry(txCtx, actor, o.ID).Info("opportunity created")
		return o, nil
	})
}

// Update edits the deal terms. Masked readers are refused by the evaluator
// before the version is compared.
func (s *OpportunityService) Update(ctx context.Context, actor *staff.User, id uuid.UUID, dto *opportunity.UpdateDTO) (*opportunity.Opportunity, error) {
	if errs, ok := dto.Ok(); !ok {
		return nil, serrors.InvalidInput(errs)
	}
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectOpportunities, accessservices.ActionEdit); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*opportunity.Opportunity, error) {
		o, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionEdit, opportunityResource(o)); err != nil {
			return nil, err
		}
		if o.Version != dto.Version {
			return nil, serrors.ConcurrentModification("opportunity")
		}
		if err := o.Edit(dto.Name, dto.ProductLine, dto.Amount, dto.Probability, dto.ExpectedCloseDate, s.now()); err != nil {
			return nil, err
		}
		if err := s.repo.Update(txCtx, o); err != nil {
			return nil, err
		}
		s.entry(txCtx, actor, o.ID).Info("opportunity updated")
		return o, nil
	})
}

// Move advances the opportunity. Moving to won publishes opportunity.WonEvent
// in the same transaction.
func (s *OpportunityService) Move(ctx context.Context, actor *staff.User, id uuid.UUID, dto *opportunity.MoveDTO) (*opportunity.Opportunity, error) {
	if errs, ok := dto.Ok(); !ok {
		return nil, serrors.InvalidInput(errs)
	}
	return s.transition(ctx, actor, id, dto.Stage, dto.Version, func(o *opportunity.Opportunity, at time.Time) error {
		return o.MoveTo(dto.Stage, at)
	})
}

func (s *OpportunityService) MarkLost(ctx context.Context, actor *staff.User, id uuid.UUID, dto *opportunity.LoseDTO) (*opportunity.Opportunity, error) {
	if errs, ok := dto.Ok(); !ok {
		return nil, serrors.InvalidInput(errs)
	}
	return s.transition(ctx, actor, id, opportunity.StageLost, dto.Version, func(o *opportunity.Opportunity, at time.Time) error {
		return o.MarkLost(dto.Reason, dto.Competitor, at)
	})
}

func (s *OpportunityService) transition(
	ctx context.Context,
	actor *staff.User,
	id uuid.UUID,
	to opportunity.Stage,
	version int,
	apply func(o *opportunity.Opportunity, at time.Time) error,
) (*opportunity.Opportunity, error) {
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectOpportunities, accessservices.ActionAdvanceStage); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*opportunity.Opportunity, error) {
		o, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		guard := accessservices.WithGuard(func(accessservices.Decision) error {
			return o.CanMoveTo(to)
		})
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionAdvanceStage, opportunityResource(o), guard); err != nil {
			return nil, err
		}
		if o.Version != version {
			return nil, serrors.ConcurrentModification("opportunity")
		}
		from := o.Stage
		at := s.now()
		if err := apply(o, at); err != nil {
			return nil, err
		}
		if err := s.repo.Update(txCtx, o); err != nil {
			return nil, err
		}
		if o.Stage == opportunity.StageWon {
			if err := s.publishWon(txCtx, actor, o, at); err != nil {
				return nil, err
			}
		}
		s.entry(txCtx, actor, o.ID).WithFields(logrus.Fields{"from": from, "to": o.Stage}).Info("opportunity stage changed")
		return o, nil
	})
}

func (s *OpportunityService) publishWon(ctx context.Context, actor *staff.User, o *opportunity.Opportunity, at time.Time) error {
	if s.publisher == nil {
		return nil
	}
	err := s.publisher.PublishE(ctx, &opportunity.WonEvent{Opportunity: o, Actor: actor, At: at})
	if err == nil || errors.Is(err, eventbus.ErrNoSubscribers) {
		return nil
	}
	return err
}

func (s *OpportunityService) entry(ctx context.Context, actor *staff.User, id uuid.UUID) *logrus.Entry {
	return s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"actor_id":       actor.ID,
		"opportunity_id": id,
	})
}
