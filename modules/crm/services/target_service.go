package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/target"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

type TargetService struct {
	repo   target.Repository
	users  staff.Repository
	access Access
	logger *logrus.Entry
	now    func() time.Time
}

func NewTargetService(repo target.Repository, users staff.Repository, access Access, logger *logrus.Logger) *TargetService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TargetService{
		repo:   repo,
		users:  users,
		access: access,
		logger: logger.WithField("component", "crm.targets"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (s *TargetService) GetByID(ctx context.Context, actor *staff.User, id uuid.UUID) (*target.Target, error) {
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectTargets, accessservices.ActionView); err != nil {
		return nil, err
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.access.Evaluator.Authorize(ctx, actor, accessservices.ActionView, targetResource(t)); err != nil {
		return nil, err
	}
	return t, nil
}

func (s *TargetService) List(ctx context.Context, actor *staff.User, params *target.FindParams) ([]*target.Target, int64, error) {
	scope, err := s.access.scope(ctx, actor, accessservices.ObjectTargets, accessservices.ResourceTarget)
	if err != nil {
		return nil, 0, err
	}
	if params == nil {
		params = &target.FindParams{}
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
	visible, err := release(ctx, s.access, actor, items, targetResource)
	if err != nil {
		return nil, 0, err
	}
	out := make([]*target.Target, 0, len(visible))
	for _, v := range visible {
		out = append(out, v.Item)
	}
	return out, total, nil
}

// Achievements returns the achievement history of a visible target.
func (s *TargetService) Achievements(ctx context.Context, actor *staff.User, id uuid.UUID) ([]*target.Achievement, error) {
	if _, err := s.GetByID(ctx, actor, id); err != nil {
		return nil, err
	}
	return s.repo.Achievements(ctx, id)
}

// Create sets a target for a staff member inside actor's scope. The target
// is owned by the assignee's unit.
func (s *TargetService) Create(ctx context.Context, actor *staff.User, dto *target.CreateDTO) (*target.Target, error) {
	if errs, ok := dto.Ok(); !ok {
		return nil, serrors.InvalidInput(errs)
	}
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectTargets, accessservices.ActionCreate); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*target.Target, error) {
		assignee, err := s.users.GetByID(txCtx, dto.AssigneeID)
		if err != nil {
			return nil, err
		}
		if !assignee.Active {
			return nil, serrors.Validation("cannot assign a target to a disabled user", nil)
		}
		now := s.now()
		t := &target.Target{
			ID:            uuid.New(),
			Name:          dto.Name,
			Type:          dto.Type,
			Period:        dto.Period,
			StartDate:     dto.StartDate.UTC(),
			EndDate:       dto.EndDate.UTC(),
			TargetValue:   dto.TargetValue,
			AchievedValue: decimal.Zero,
			AssigneeID:    assignee.ID,
			OwningUnitID:  assignee.UnitID,
			CreatedBy:     actor.ID,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionCreate, targetResource(t)); err != nil {
			return nil, err
		}
		if err := s.repo.Create(txCtx, t); err != nil {
			return nil, err
		}
		s.entry(txCtx, actor, t.ID).WithField("assignee_id", assignee.ID).Info("target created")
		return t, nil
	})
}

// RecordAchievement adds a strictly positive value to the target. The
// increment is applied atomically by the repository.
func (s *TargetService) RecordAchievement(ctx context.Context, actor *staff.User, id uuid.UUID, dto *target.AchievementDTO) (*target.Target, error) {
	if errs, ok := dto.Ok(); !ok {
		return nil, serrors.InvalidInput(errs)
	}
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectTargets, accessservices.ActionRecordAchievement); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*target.Target, error) {
		t, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionRecordAchievement, targetResource(t)); err != nil {
			return nil, err
		}
		at := s.now()
		if dto.AchievedAt != nil {
			at = dto.AchievedAt.UTC()
		}
		if err := s.record(txCtx, actor, t, &target.Achievement{
			ID:            uuid.New(),
			TargetID:      t.ID,
			Value:         dto.Value,
			AchievedAt:    at,
			OpportunityID: dto.OpportunityID,
			Notes:         dto.Notes,
			RecordedBy:    actor.ID,
		}); err != nil {
			return nil, err
		}
		return t, nil
	})
}

// HandleOpportunityWon credits a won opportunity's amount to the owner's
// active revenue targets. Targets the closing actor cannot write are
// skipped; an audit failure aborts the win.
func (s *TargetService) HandleOpportunityWon(ctx context.Context, e *opportunity.WonEvent) error {
	o := e.Opportunity
	targets, err := s.repo.ActiveFor(ctx, o.OwnerID, target.TypeRevenue, e.At)
	if err != nil {
		return err
	}
	for _, t := range targets {
		decision, err := s.access.Evaluator.Evaluate(ctx, e.Actor, accessservices.ActionRecordAchievement, targetResource(t))
		if err != nil {
			return err
		}
		if decision != accessservices.Allow {
			s.entry(ctx, e.Actor, t.ID).WithField("opportunity_id", o.ID).Warn("won opportunity not credited to target")
			continue
		}
		oppID := o.ID
		if err := s.record(ctx, e.Actor, t, &target.Achievement{
			ID:            uuid.New(),
			TargetID:      t.ID,
			Value:         o.Amount,
			AchievedAt:    e.At,
			OpportunityID: &oppID,
			Notes:         "won opportunity",
			RecordedBy:    e.Actor.ID,
		}); err != nil {
			return err
		}
	}
	return nil
}

func (s *TargetService) record(ctx context.Context, actor *staff.User, t *target.Target, a *target.Achievement) error {
	achieved, err := s.repo.RecordAchievement(ctx, a)
	if err != nil {
		return err
	}
	t.AchievedValue = achieved
	s.entry(ctx, actor, t.ID).WithField("achievement_id", a.ID).Info("target achievement recorded")
	return nil
}

func (s *TargetService) entry(ctx context.Context, actor *staff.User, id uuid.UUID) *logrus.Entry {
	return s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"actor_id":  actor.ID,
		"target_id": id,
	})
}
