package task_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/task"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

func TestTask_StatusAt(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	sla := now.Add(-time.Minute)
	tk := &task.Task{Status: task.StatusPending, DueAt: now.Add(time.Hour), SLADeadline: &sla}

	assert.Equal(t, task.StatusPending, tk.StatusAt(now))
	assert.True(t, tk.SLABreached(now))
	assert.False(t, tk.IsOverdue(now))
	assert.Equal(t, task.StatusOverdue, tk.StatusAt(now.Add(2*time.Hour)))

	require.NoError(t, tk.Complete(now))
	assert.Equal(t, task.StatusCompleted, tk.StatusAt(now.Add(2*time.Hour)))
	assert.False(t, tk.SLABreached(now))
}

func TestTask_CompleteAndEscalate(t *testing.T) {
	now := time.Now().UTC()
	assignee := uuid.New()
	manager := uuid.New()
	tk := &task.Task{Status: task.StatusInProgress, AssigneeID: assignee}

	require.ErrorIs(t, tk.Escalate(assignee, now), serrors.ErrValidation)
	require.NoError(t, tk.Escalate(manager, now))
	require.NoError(t, tk.Escalate(manager, now))
	assert.Equal(t, 2, tk.EscalationLevel)
	assert.Equal(t, manager, *tk.EscalatedToID)

	require.NoError(t, tk.Complete(now))
	require.NotNil(t, tk.CompletedAt)
	require.ErrorIs(t, tk.Complete(now), serrors.ErrInvalidTransition)
	require.ErrorIs(t, tk.Escalate(manager, now), serrors.ErrInvalidTransition)

	cancelled := &task.Task{Status: task.StatusCancelled}
	require.ErrorIs(t, cancelled.CanComplete(), serrors.ErrInvalidTransition)
}

func TestCreateDTO_Ok(t *testing.T) {
	dto := &task.CreateDTO{Title: "  Review  ", Kind: " KYC ", DueAt: time.Now()}
	_, ok := dto.Ok()
	require.True(t, ok)
	assert.Equal(t, "Review", dto.Title)
	assert.Equal(t, "kyc", dto.Kind)
	assert.Equal(t, task.PriorityMedium, dto.Priority)

	hours := 0
	bad := &task.CreateDTO{Title: "x", Priority: "critical", DueAt: time.Now(), SLAHours: &hours}
	errs, ok := bad.Ok()
	require.False(t, ok)
	assert.Contains(t, errs, "Priority")
	assert.Contains(t, errs, "SLAHours")

	_, ok = (&task.CreateDTO{Title: "no due date"}).Ok()
	assert.False(t, ok)
}

func TestParseStatus(t *testing.T) {
	s, err := task.ParseStatus(" Overdue ")
	require.NoError(t, err)
	assert.Equal(t, task.StatusOverdue, s)

	_, err = task.ParseStatus("stalled")
	require.ErrorIs(t, err, serrors.ErrValidation)
}
