package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/task"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

// TaskService manages follow-up tasks. A task is owned by its assignee's
// unit, so assigning work is limited to staff inside the actor's scope.
type TaskService struct {
	repo          task.Repository
	customers     customer.Repository
	opportunities opportunity.Repository
	users         staff.Repository
	access        Access
	logger        *logrus.Entry
	now           func() time.Time
}

func NewTaskService(
	repo task.Repository,
	customers customer.Repository,
	opportunities opportunity.Repository,
	users staff.Repository,
	access Access,
	logger *logrus.Logger,
) *TaskService {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &TaskService{
		repo:          repo,
		customers:     customers,
		opportunities: opportunities,
		users:         users,
		access:        access,
		logger:        logger.WithField("component", "crm.tasks"),
		now:           func() time.Time { return time.Now().UTC() },
	}
}

func (s *TaskService) GetByID(ctx context.Context, actor *staff.User, id uuid.UUID) (accessservices.Visible[*task.Task], error) {
	var out accessservices.Visible[*task.Task]
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectTasks, accessservices.ActionView); err != nil {
		return out, err
	}
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return out, err
	}
	decision, err := s.access.Evaluator.Authorize(ctx, actor, accessservices.ActionView, taskResource(t))
	if err != nil {
		return out, err
	}
	return accessservices.Visible[*task.Task]{Item: t, Decision: decision}, nil
}

// List returns visible tasks. Status overdue selects open tasks already
// past their due date.
func (s *TaskService) List(ctx context.Context, actor *staff.User, params *task.FindParams) ([]accessservices.Visible[*task.Task], int64, error) {
	scope, err := s.access.scope(ctx, actor, accessservices.ObjectTasks, accessservices.ResourceTask)
	if err != nil {
		return nil, 0, err
	}
	if params == nil {
		params = &task.FindParams{}
	}
	params.Scope = scope
	if params.Status == task.StatusOverdue {
		now := s.now()
		params.Status = ""
		params.OverdueAt = &now
	}

	items, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.repo.Count(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	visible, err := release(ctx, s.access, actor, items, taskResource)
	if err != nil {
		return nil, 0, err
	}
	return visible, total, nil
}

// Create assigns a task. Linked records must be visible to actor and the
// task inherits their sensitivity.
func (s *TaskService) Create(ctx context.Context, actor *staff.User, dto *task.CreateDTO) (*task.Task, error) {
	if errs, ok := dto.Ok(); !ok {
		return nil, serrors.InvalidInput(errs)
	}
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectTasks, accessservices.ActionCreate); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*task.Task, error) {
		assignee := actor
		if dto.AssigneeID != nil && *dto.AssigneeID != actor.ID {
			u, err := s.users.GetByID(txCtx, *dto.AssigneeID)
			if err != nil {
				return nil, err
			}
			assignee = u
		}
		if !assignee.Active {
			return nil, serrors.Validation("cannot assign to a disabled user", nil)
		}

		now := s.now()
		t := &task.Task{
			ID:            uuid.New(),
			Title:         dto.Title,
			Description:   dto.Description,
			Kind:          dto.Kind,
			Priority:      dto.Priority,
			Status:        task.StatusPending,
			CustomerID:    dto.CustomerID,
			OpportunityID: dto.OpportunityID,
			AssigneeID:    assignee.ID,
			AssignedByID:  actor.ID,
			DueAt:         dto.DueAt.UTC(),
			OwningUnitID:  assignee.UnitID,
			Version:       1,
			CreatedAt:     now,
			UpdatedAt:     now,
		}
		if err := s.link(txCtx, actor, t); err != nil {
			return nil, err
		}
		if dto.SLAHours != nil {
			deadline := now.Add(time.Duration(*dto.SLAHours) * time.Hour)
			t.SLADeadline = &deadline
		}
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionCreate, taskResource(t)); err != nil {
			return nil, err
		}
		if err := s.repo.Create(txCtx, t); err != nil {
			return nil, err
		}
		s.entry(txCtx, actor, t.ID).WithField("assignee_id", assignee.ID).Info("task created")
		return t, nil
	})
}

func (s *TaskService) link(ctx context.Context, actor *staff.User, t *task.Task) error {
	if t.OpportunityID != nil {
		o, err := s.opportunities.GetByID(ctx, *t.OpportunityID)
		if err != nil {
			return err
		}
		if _, err := s.access.Evaluator.Authorize(ctx, actor, accessservices.ActionView, opportunityResource(o)); err != nil {
			return err
		}
		if t.CustomerID != nil && *t.CustomerID != o.CustomerID {
			return serrors.Validation("opportunity belongs to another customer", nil)
		}
		t.CustomerID = &o.CustomerID
		t.Sensitive = t.Sensitive || o.Sensitive
	}
	if t.CustomerID != nil {
		c, err := s.customers.GetByID(ctx, *t.CustomerID)
		if err != nil {
			return err
		}
		if _, err := s.access.Evaluator.Authorize(ctx, actor, accessservices.ActionView, customerResource(c)); err != nil {
			return err
		}
		t.Sensitive = t.Sensitive || c.HighNetWorth
	}
	return nil
}

// Complete closes an open task. Only the assignee, the assigner or the
// current escalation owner may complete it.
func (s *TaskService) Complete(ctx context.Context, actor *staff.User, id uuid.UUID, dto *task.CompleteDTO) (*task.Task, error) {
	if errs, ok := dto.Ok(); !ok {
		return nil, serrors.InvalidInput(errs)
	}
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectTasks, accessservices.ActionEdit); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*task.Task, error) {
		t, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		guard := accessservices.WithGuard(func(accessservices.Decision) error {
			if !involved(t, actor.ID) {
				return serrors.AccessDenied("only the assignee can complete this task")
			}
			return t.CanComplete()
		})
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionEdit, taskResource(t), guard); err != nil {
			return nil, err
		}
		if t.Version != dto.Version {
			return nil, serrors.ConcurrentModification("task")
		}
		if err := t.Complete(s.now()); err != nil {
			return nil, err
		}
		if err := s.repo.Update(txCtx, t); err != nil {
			return nil, err
		}
		s.entry(txCtx, actor, t.ID).Info("task completed")
		return t, nil
	})
}

func involved(t *task.Task, userID uuid.UUID) bool {
	if t.AssigneeID == userID || t.AssignedByID == userID {
		return true
	}
	return t.EscalatedToID != nil && *t.EscalatedToID == userID
}

// Escalate hands oversight of an open task to a more senior colleague who
// can see it. The assignee keeps the work.
func (s *TaskService) Escalate(ctx context.Context, actor *staff.User, id uuid.UUID, dto *task.EscalateDTO) (*task.Task, error) {
	if errs, ok := dto.Ok(); !ok {
		return nil, serrors.InvalidInput(errs)
	}
	if err := s.access.Capabilities.Require(ctx, actor, accessservices.ObjectTasks, accessservices.ActionEscalate); err != nil {
		return nil, err
	}
	return composables.InTxResult(ctx, func(txCtx context.Context) (*task.Task, error) {
		t, err := s.repo.GetByID(txCtx, id)
		if err != nil {
			return nil, err
		}
		guard := accessservices.WithGuard(func(accessservices.Decision) error {
			return t.CanEscalate()
		})
		if _, err := s.access.Evaluator.Authorize(txCtx, actor, accessservices.ActionEscalate, taskResource(t), guard); err != nil {
			return nil, err
		}
		if t.Version != dto.Version {
			return nil, serrors.ConcurrentModification("task")
		}

		assignee, err := s.users.GetByID(txCtx, t.AssigneeID)
		if err != nil {
			return nil, err
		}
		to, err := s.users.GetByID(txCtx, dto.EscalateToID)
		if err != nil {
			return nil, err
		}
		if !to.Active {
			return nil, serrors.Validation("cannot escalate to a disabled user", nil)
		}
		if to.Layer >= assignee.Layer {
			return nil, serrors.Validation("escalation must go to a more senior layer", nil)
		}
		scope, err := s.access.Scoper.Scope(txCtx, to, accessservices.ResourceTask)
		if err != nil {
			return nil, err
		}
		if !scope.Contains(t.OwningUnitID) {
			return nil, serrors.Validation("escalation target cannot see this task", nil)
		}

		if err := t.Escalate(to.ID, s.now()); err != nil {
			return nil, err
		}
		if err := s.repo.Update(txCtx, t); err != nil {
			return nil, err
		}
		s.entry(txCtx, actor, t.ID).WithFields(logrus.Fields{
			"escalated_to": to.ID,
			"level":        t.EscalationLevel,
		}).Warn("task escalated")
		return t, nil
	})
}

func (s *TaskService) entry(ctx context.Context, actor *staff.User, id uuid.UUID) *logrus.Entry {
	return s.logger.WithContext(ctx).WithFields(logrus.Fields{
		"actor_id": actor.ID,
		"task_id":  id,
	})
}
