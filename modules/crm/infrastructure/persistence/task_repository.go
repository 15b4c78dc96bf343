package persistence

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/task"
	"github.com/jacksonlee411/branch-crm/modules/crm/infrastructure/persistence/models"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/repo"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

const taskColumns = `id, title, description, kind, priority, status, customer_id, opportunity_id,
	assignee_id, assigned_by_id, due_at, sla_deadline, completed_at, escalation_level,
	escalated_to_id, escalated_at, owning_unit_id, sensitive, version, created_at, updated_at`

type TaskRepository struct{}

func NewTaskRepository() task.Repository {
	return &TaskRepository{}
}

func scanTask(s scanner, row *models.Task) error {
	return s.Scan(
		&row.ID, &row.Title, &row.Description, &row.Kind, &row.Priority, &row.Status,
		&row.CustomerID, &row.OpportunityID, &row.AssigneeID, &row.AssignedByID, &row.DueAt,
		&row.SLADeadline, &row.CompletedAt, &row.EscalationLevel, &row.EscalatedToID, &row.EscalatedAt,
		&row.OwningUnitID, &row.Sensitive, &row.Version, &row.CreatedAt, &row.UpdatedAt,
	)
}

func (r *TaskRepository) GetByID(ctx context.Context, id uuid.UUID) (*task.Task, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	var row models.Task
	if err := scanTask(tx.QueryRow(ctx, `SELECT `+taskColumns+` FROM tasks WHERE id = $1`, pgUUID(id)), &row); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, serrors.NotFound("task", err)
		}
		return nil, errors.Wrap(err, "get task")
	}
	return toDomainTask(&row), nil
}

func buildTaskFilters(params *task.FindParams) ([]string, []any, error) {
	if params == nil {
		return nil, nil, repo.ErrMissingScope
	}
	where, args, err := repo.AppendScope(nil, nil, params.Scope, "owning_unit_id")
	if err != nil {
		return nil, nil, err
	}
	if params.AssigneeID != nil {
		args = append(args, pgUUID(*params.AssigneeID))
		where = append(where, fmt.Sprintf("assignee_id = $%d", len(args)))
	}
	if params.CustomerID != nil {
		args = append(args, pgUUID(*params.CustomerID))
		where = append(where, fmt.Sprintf("customer_id = $%d", len(args)))
	}
	if params.Status != "" {
		args = append(args, string(params.Status))
		where = append(where, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.Priority != "" {
		args = append(args, string(params.Priority))
		where = append(where, fmt.Sprintf("priority = $%d", len(args)))
	}
	if params.OverdueAt != nil {
		args = append(args, *params.OverdueAt)
		where = append(where, fmt.Sprintf("status IN ('pending', 'in_progress') AND due_at < $%d", len(args)))
	}
	return where, args, nil
}

func (r *TaskRepository) List(ctx context.Context, params *task.FindParams) ([]*task.Task, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return nil, err
	}
	where, args, err := buildTaskFilters(params)
	if err != nil {
		return nil, err
	}
	query := `SELECT ` + taskColumns + ` FROM tasks` + whereClause(where) +
		` ORDER BY due_at, id ` + repo.FormatLimitOffset(params.Limit, params.Offset)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query tasks")
	}
	defer rows.Close()

	var out []*task.Task
	for rows.Next() {
		var row models.Task
		if err := scanTask(rows, &row); err != nil {
			return nil, errors.Wrap(err, "scan task")
		}
		out = append(out, toDomainTask(&row))
	}
	return out, rows.Err()
}

func (r *TaskRepository) Count(ctx context.Context, params *task.FindParams) (int64, error) {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return 0, err
	}
	where, args, err := buildTaskFilters(params)
	if err != nil {
		return 0, err
	}
	var count int64
	if err := tx.QueryRow(ctx, `SELECT COUNT(*) FROM tasks`+whereClause(where), args...).Scan(&count); err != nil {
		return 0, errors.Wrap(err, "count tasks")
	}
	return count, nil
}

func (r *TaskRepository) Create(ctx context.Context, t *task.Task) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	row := toDBTask(t)
	if _, err := tx.Exec(
		ctx,
		`INSERT INTO tasks (`+taskColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`,
		row.ID, row.Title, row.Description, row.Kind, row.Priority, row.Status,
		row.CustomerID, row.OpportunityID, row.AssigneeID, row.AssignedByID, row.DueAt,
		row.SLADeadline, row.CompletedAt, row.EscalationLevel, row.EscalatedToID, row.EscalatedAt,
		row.OwningUnitID, row.Sensitive, row.Version, row.CreatedAt, row.UpdatedAt,
	); err != nil {
		return errors.Wrap(err, "insert task")
	}
	return nil
}

func (r *TaskRepository) Update(ctx context.Context, t *task.Task) error {
	tx, err := composables.UseTx(ctx)
	if err != nil {
		return err
	}
	row := toDBTask(t)
	tag, err := tx.Exec(
		ctx,
		`UPDATE tasks SET
			title = $3, description = $4, priority = $5, status = $6, due_at = $7,
			completed_at = $8, escalation_level = $9, escalated_to_id = $10, escalated_at = $11,
			updated_at = $12, version = version + 1
		 WHERE id = $1 AND version = $2`,
		row.ID, row.Version, row.Title, row.Description, row.Priority, row.Status, row.DueAt,
		row.CompletedAt, row.EscalationLevel, row.EscalatedToID, row.EscalatedAt, row.UpdatedAt,
	)
	if err != nil {
		return errors.Wrap(err, "update task")
	}
	if tag.RowsAffected() == 0 {
		return serrors.ConcurrentModification("task")
	}
	t.Version++
	return nil
}
