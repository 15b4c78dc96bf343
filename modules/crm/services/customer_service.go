package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

type CustomerService struct {
	repo          customer.Repository
	opportunities opportunity.Repository
	users         staff.Repository
	access        Access
	logger        *logrus.Entry
	now           func() time.Time
}

func NewCustomerService(
	repo customer.Repository,
	opportunities opportunity.Repository,
	users staff.Repository,
	access Access,
	logger *logrus.Logger,
) *CustomerService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &CustomerService{
		repo:          repo,
		opportunities: opportunities,
		users:         users,
		access:        access,
		logger:        logger.WithField("component", "crm.customers"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *CustomerService) GetByID(ctx context.Context, actor *staff.User, id uuid.UUID) (accessservices.Visible[*customer.Customer], error) {
	var out accessservices.Visible[*customer.Customer]
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectCustomers, accessservices.ActionView); err != nil {
		return out, err
	}
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return out, err
	}
	decision, err := s.access.Evaluator.Authorize(ctx, actor, accessservices.ActionView, customerResource(c))
	if err != nil {
		return out, err
	}
	return accessservices.Visible[*customer.Customer]{Item: c, Decision: decision}, nil
}

func (s *CustomerService) List(ctx context.Context, actor *staff.User, params *customer.FindParams) ([]accessservices.Visible[*customer.Customer], int64, error) {
	scope, err := s.access.scope(ctx, actor, accessservices.ObjectCustomers, accessservices.ResourceCustomer)
	if err != nil {
		return nil, 0, err
	}
	if params == nil {
		params = &customer.FindParams{}
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
	visible, err := release(ctx, s.access, actor, items, customerResource)
	if err != nil {
		return nil, 0, err
	}
	return visible, total, nil
}

// Create registers a suspect owned by actor and actor's unit.
func (s *CustomerService) Create(ctx context.Context, actor *staff.User, dto *customer.CreateDTO) (*customer.Customer, error) {
	if errs, ok := dto.Ok(); !ok {
		return nil, serrors.InvalidInput(errs)
	}
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectCustomers, accessservices.ActionCreate); err != nil {
		return nil, err
	}
	c := customer.New(actor.ID, actor.UnitID, s.now())
	dto.Apply(c)

	return composables.InTxResult(ctx, func(txCtx context.Context) (*customer.Customer, error) {
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionCreate, customerResource(c)); err != nil {
			return nil, err
		}
		if err := s.repo.Create(txCtx, c); err != nil {
			return nil, err
		}
		s.entry(txCtx, actor, c.ID).Info("customer created")
		return c, nil
	})
}

// Update edits contact details. Flagging a customer high-net-worth counts
// as a sensitive write.
func (s *CustomerService) Update(ctx context.Context, actor *staff.User, id uuid.UUID, dto *customer.UpdateDTO) (*customer.Customer, error) {
	if errs, ok := dto.Ok(); !ok {
		return nil, serrors.InvalidInput(errs)
	}
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectCustomers, accessservices.ActionEdit); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*customer.Customer, error) {
		c, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		res := customerResource(c)
		res.Sensitive = c.HighNetWorth || dto.HighNetWorth
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionEdit, res); err != nil {
			return nil, err
		}
		if c.Version != dto.Version {
			return nil, serrors.ConcurrentModification("customer")
		}
		dto.CreateDTO.Apply(c)
		c.UpdatedAt = s.now()
		if err := s.repo.Update(txCtx, c); err != nil {
			return nil, err
		}
		s.entry(txCtx, actor, c.ID).Info("customer updated")
		return c, nil
	})
}

// Requalify recomputes the qualification score. Only open opportunities
// inside actor's scope count towards it.
func (s *CustomerService) Requalify(ctx context.Context, actor *staff.User, id uuid.UUID) (*customer.Customer, error) {
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectCustomers, accessservices.ActionEdit); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*customer.Customer, error) {
		c, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionEdit, customerResource(c)); err != nil {
			return nil, err
		}
		scope, err := s.access.Scoper.Scope(txCtx, actor, accessservices.ResourceOpportunity)
		if err != nil {
			return nil, err
		}
		open, err := s.opportunities.Count(txCtx, &opportunity.FindParams{Scope: scope, CustomerID: &c.ID, OpenOnly: true})
		if err != nil {
			return nil, err
		}
		before := c.QualificationScore
		now := s.now()
		c.Qualify(now, open)
		c.UpdatedAt = now
		if err := s.repo.Update(txCtx, c); err != nil {
			return nil, err
		}
		s.entry(txCtx, actor, c.ID).WithFields(logrus.Fields{"from": before, "to": c.QualificationScore}).Info("customer requalified")
		return c, nil
	})
}

// AdvanceStage moves the customer forward in the funnel. version is the
// version the caller last read.
func (s *CustomerService) AdvanceStage(ctx context.Context, actor *staff.User, id uuid.UUID, to customer.Stage, version int) (*customer.Customer, error) {
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectCustomers, accessservices.ActionAdvanceStage); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*customer.Customer, error) {
		c, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		guard := accessservices.WithGuard(func(accessservices.Decision) error {
			return c.CanAdvance(to)
		})
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionAdvanceStage, customerResource(c), guard); err != nil {
			return nil, err
		}
		if c.Version != version {
			return nil, serrors.ConcurrentModification("customer")
		}
		from := c.Stage
		if err := c.Advance(to, s.now()); err != nil {
			return nil, err
		}
		if err := s.repo.Update(txCtx, c); err != nil {
			return nil, err
		}
		s.entry(txCtx, actor, c.ID).WithFields(logrus.Fields{"from": from, "to": to}).Info("customer stage advanced")
		return c, nil
	})
}

// Reassign hands the customer to another staff member. Both the current
// record and the new owner's unit must be visible to actor.
func (s *CustomerService) Reassign(ctx context.Context, actor *staff.User, id, ownerID uuid.UUID) (*customer.Customer, error) {
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectCustomers, accessservices.ActionReassign); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*customer.Customer, error) {
		c, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionReassign, customerResource(c)); err != nil {
			return nil, err
		}
		owner, err := s.users.GetByID(txCtx, ownerID)
		if err != nil {
			return nil, err
		}
		if !owner.Active {
			return nil, serrors.Validation("cannot assign to a disabled user", nil)
		}
		moved := customerResource(c)
		moved.OwningUnitID = owner.UnitID
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionReassign, moved); err != nil {
			return nil, err
		}
		c.OwnerID = owner.ID
		c.OwningUnitID = owner.UnitID
		c.UpdatedAt = s.now()
		if err := s.repo.Update(txCtx, c); err != nil {
			return nil, err
		}
		s.entry(txCtx, actor, c.ID).WithField("owner_id", owner.ID).Info("customer reassigned")
		return c, nil
	})
}

func (s *CustomerService) entry(ctx context.Context, actor *staff.User, id uuid.UUID) *logrus.Entry {
	return s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"actor_id":    actor.ID,
		"customer_id": id,
	})
}
