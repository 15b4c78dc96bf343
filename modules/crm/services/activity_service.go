package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/activity"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

type ActivityService struct {
	repo          activity.Repository
	customers     customer.Repository
	opportunities opportunity.Repository
	access        Access
	logger        *logrus.Entry
	now           func() time.Time
}

func NewActivityService(
	repo activity.Repository,
	customers customer.Repository,
	opportunities opportunity.Repository,
	access Access,
	logger *logrus.Logger,
) *ActivityService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &ActivityService{
		repo:          repo,
		customers:     customers,
		opportunities: opportunities,
		access:        access,
		logger:        logger.WithField("component", "crm.activities"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *ActivityService) GetByID(ctx context.Context, actor *staff.User, id uuid.UUID) (accessservices.Visible[*activity.Activity], error) {
	var out accessservices.Visible[*activity.Activity]
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectActivities, accessservices.ActionView); err != nil {
		return out, err
	}
	a, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return out, err
	}
	decision, err := s.access.Evaluator.Authorize(ctx, actor, accessservices.ActionView, activityResource(a))
	if err != nil {
		return out, err
	}
	return accessservices.Visible[*activity.Activity]{Item: a, Decision: decision}, nil
}

func (s *ActivityService) List(ctx context.Context, actor *staff.User, params *activity.FindParams) ([]accessservices.Visible[*activity.Activity], int64, error) {
	scope, err := s.access.scope(ctx, actor, accessservices.ObjectActivities, accessservices.ResourceActivity)
	if err != nil {
		return nil, 0, err
	}
	if params == nil {
		params = &activity.FindParams{}
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
	visible, err := release(ctx, s.access, actor, items, activityResource)
	if err != nil {
		return nil, 0, err
	}
	return visible, total, nil
}

// Log records an interaction with a visible customer and moves the
// customer's last-contact date.
func (s *ActivityService) Log(ctx context.Context, actor *staff.User, dto *activity.CreateDTO) (*activity.Activity, error) {
	if errs, ok := dto.Ok(); !ok {
		return nil, serrors.InvalidInput(errs)
	}
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectActivities, accessservices.ActionCreate); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*activity.Activity, error) {
		c, err := s.customers.GetByID(txCtx, dto.CustomerID)
		if err != nil {
			return nil, err
		}
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionView, customerResource(c)); err != nil {
			return nil, err
		}
		if dto.OpportunityID != nil {
			o, err := s.opportunities.GetByID(txCtx, *dto.OpportunityID)
			if err != nil {
				return nil, err
			}
			if o.CustomerID != c.ID {
				return nil, serrors.Validation("opportunity belongs to another customer", nil)
			}
		}

		now := s.now()
		a := &activity.Activity{
			ID:            uuid.New(),
			Type:          dto.Type,
			Subject:       dto.Subject,
			Description:   dto.Description,
			CustomerID:    c.ID,
			OpportunityID: dto.OpportunityID,
			OccurredAt:    now,
			Outcome:       dto.Outcome,
			OwnerID:       actor.ID,
			OwningUnitID:  actor.UnitID,
			Sensitive:     c.HighNetWorth,
			CreatedAt:     now,
		}
		if dto.OccurredAt != nil {
			a.OccurredAt = dto.OccurredAt.UTC()
		}
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionCreate, activityResource(a)); err != nil {
			return nil, err
		}
		if err := s.repo.Create(txCtx, a); err != nil {
			return nil, err
		}
		if err := s.customers.TouchLastContact(txCtx, c.ID, a.OccurredAt); err != nil {
			return nil, err
		}
		s.logger.WithContext(txCtx).WithFields(logrus.Fields{
			"actor_id":    actor.ID,
			"activity_id": a.ID,
			"customer_id": c.ID,
		}).Info("activity logged")
		return a, nil
	})
}
