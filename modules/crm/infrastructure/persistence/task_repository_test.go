package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/internal/pgxstub"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/task"
	"github.com/jacksonlee411/branch-crm/pkg/repo"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

func taskRow(t *task.Task) []any {
	row := toDBTask(t)
	return []any{
		row.ID, row.Title, row.Description, row.Kind, row.Priority, row.Status,
		row.CustomerID, row.OpportunityID, row.AssigneeID, row.AssignedByID, row.DueAt,
		row.SLADeadline, row.CompletedAt, row.EscalationLevel, row.EscalatedToID, row.EscalatedAt,
		row.OwningUnitID, row.Sensitive, row.Version, row.CreatedAt, row.UpdatedAt,
	}
}

func sampleTask() *task.Task {
	now := time.Unix(1_700_000_000, 0).UTC()
	sla := now.Add(24 * time.Hour)
	customerID := uuid.New()
	return &task.Task{
		ID:           uuid.New(),
		Title:        "Call back about mortgage",
		Priority:     task.PriorityHigh,
		Status:       task.StatusPending,
		CustomerID:   &customerID,
		AssigneeID:   uuid.New(),
		AssignedByID: uuid.New(),
		DueAt:        now.Add(48 * time.Hour),
		SLADeadline:  &sla,
		OwningUnitID: uuid.New(),
		Sensitive:    true,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func TestTaskRepository_ListRequiresScope(t *testing.T) {
	tx := &pgxstub.Tx{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			t.Fatal("query must not run without a scope")
			return nil, nil
		},
	}
	_, err := NewTaskRepository().List(withTx(tx), &task.FindParams{})
	require.ErrorIs(t, err, repo.ErrMissingScope)
}

func TestTaskRepository_ListOverdueForAssignee(t *testing.T) {
	stored := sampleTask()
	now := time.Now().UTC()
	tx := &pgxstub.Tx{
		QueryFunc: func(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
			require.Contains(t, sql, "WHERE owning_unit_id = ANY($1) AND assignee_id = $2 AND priority = $3")
			require.Contains(t, sql, "status IN ('pending', 'in_progress') AND due_at < $4")
			require.Contains(t, sql, "ORDER BY due_at")
			require.Equal(t, "high", args[2])
			require.Equal(t, now, args[3])
			return &pgxstub.Rows{Data: [][]any{taskRow(stored)}}, nil
		},
	}
	items, err := NewTaskRepository().List(withTx(tx), &task.FindParams{
		Scope:      unitScope{stored.OwningUnitID},
		AssigneeID: &stored.AssigneeID,
		Priority:   task.PriorityHigh,
		OverdueAt:  &now,
	})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, stored.ID, items[0].ID)
	require.Equal(t, *stored.CustomerID, *items[0].CustomerID)
	require.Nil(t, items[0].OpportunityID)
	require.Nil(t, items[0].CompletedAt)
	require.Equal(t, stored.SLADeadline.Unix(), items[0].SLADeadline.Unix())
	require.True(t, items[0].Sensitive)
}

func TestTaskRepository_UpdateChecksVersion(t *testing.T) {
	tk := sampleTask()
	require.NoError(t, tk.Complete(time.Now().UTC()))
	affected := 0
	tx := &pgxstub.Tx{
		ExecFunc: func(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
			require.Contains(t, sql, "WHERE id = $1 AND version = $2")
			require.Equal(t, int32(1), args[1])
			require.Equal(t, "completed", args[5])
			return pgxstub.Tag("UPDATE", affected), nil
		},
	}
	r := NewTaskRepository()
	require.ErrorIs(t, r.Update(withTx(tx), tk), serrors.ErrConcurrentModification)

	affected = 1
	require.NoError(t, r.Update(withTx(tx), tk))
	require.Equal(t, 2, tk.Version)
}

func TestTaskRepository_GetByIDNotFound(t *testing.T) {
	tx := &pgxstub.Tx{
		QueryRowFunc: func(ctx context.Context, sql string, args ...any) pgx.Row {
			return pgxstub.Row{Err: pgx.ErrNoRows}
		},
	}
	_, err := NewTaskRepository().GetByID(withTx(tx), uuid.New())
	require.ErrorIs(t, err, serrors.ErrNotFound)
}
