package testkit

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/task"
	"github.com/jacksonlee411/branch-crm/pkg/repo"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

type TaskRepository struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*task.Task
}

func NewTaskRepository() *TaskRepository {
	return &TaskRepository{rows: make(map[uuid.UUID]*task.Task)}
}

func (r *TaskRepository) GetByID(_ context.Context, id uuid.UUID) (*task.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.rows[id]
	if !ok {
		return nil, serrors.NotFound("task", nil)
	}
	copied := *t
	return &copied, nil
}

func (r *TaskRepository) List(_ context.Context, params *task.FindParams) ([]*task.Task, error) {
	all, err := r.filter(params)
	if err != nil {
		return nil, err
	}
	return page(all, params.Limit, params.Offset), nil
}

func (r *TaskRepository) Count(_ context.Context, params *task.FindParams) (int64, error) {
	all, err := r.filter(params)
	return int64(len(all)), err
}

func (r *TaskRepository) filter(params *task.FindParams) ([]*task.Task, error) {
	if params == nil {
		return nil, repo.ErrMissingScope
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*task.Task
	for _, t := range r.rows {
		ok, err := inScope(params.Scope, t.OwningUnitID)
		if err != nil {
			return nil, err
		}
		switch {
		case !ok:
			continue
		case params.AssigneeID != nil && t.AssigneeID != *params.AssigneeID:
			continue
		case params.CustomerID != nil && (t.CustomerID == nil || *t.CustomerID != *params.CustomerID):
			continue
		case params.Status != "" && t.Status != params.Status:
			continue
		case params.Priority != "" && t.Priority != params.Priority:
			continue
		case params.OverdueAt != nil && !(t.Status.IsOpen() && t.DueAt.Before(*params.OverdueAt)):
			continue
		}
		copied := *t
		out = append(out, &copied)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DueAt.Equal(out[j].DueAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].DueAt.Before(out[j].DueAt)
	})
	return out, nil
}

func (r *TaskRepository) Create(_ context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *t
	r.rows[t.ID] = &copied
	return nil
}

func (r *TaskRepository) Update(_ context.Context, t *task.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	stored, ok := r.rows[t.ID]
	if !ok {
		return serrors.NotFound("task", nil)
	}
	if stored.Version != t.Version {
		return serrors.ConcurrentModification("task")
	}
	t.Version++
	copied := *t
	r.rows[t.ID] = &copied
	return nil
}
