package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
	// StatusOverdue is never stored. It is reported for open tasks past
	// their due date.
	StatusOverdue Status = "overdue"
)

func (s Status) IsOpen() bool {
	return s == StatusPending || s == StatusInProgress
}

func ParseStatus(v string) (Status, error) {
	s := Status(strings.ToLower(strings.TrimSpace(v)))
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted, StatusCancelled, StatusOverdue:
		return s, nil
	}
	return "", serrors.Validation(fmt.Sprintf("unknown task status %q", v), nil)
}

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func ParsePriority(v string) (Priority, error) {
	p := Priority(strings.ToLower(strings.TrimSpace(v)))
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return p, nil
	}
	return "", serrors.Validation(fmt.Sprintf("unknown task priority %q", v), nil)
}

// Task is follow-up work assigned to a staff member. It is owned by the
// assignee's unit and inherits sensitivity from the linked customer.
type Task struct {
	ID            uuid.UUID
	Title         string
	Description   string
	Kind          string
	Priority      Priority
	Status        Status
	CustomerID    *uuid.UUID
	OpportunityID *uuid.UUID
	AssigneeID    uuid.UUID
	AssignedByID  uuid.UUID
	DueAt         time.Time
	// SLADeadline is set when the task was created with an SLA in hours.
	SLADeadline     *time.Time
	CompletedAt     *time.Time
	EscalationLevel int
	EscalatedToID   *uuid.UUID
	EscalatedAt     *time.Time
	OwningUnitID    uuid.UUID
	Sensitive       bool
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (t *Task) IsOverdue(now time.Time) bool {
	return t.Status.IsOpen() && now.After(t.DueAt)
}

// SLABreached reports an open task past its SLA deadline.
func (t *Task) SLABreached(now time.Time) bool {
	return t.Status.IsOpen() && t.SLADeadline != nil && now.After(*t.SLADeadline)
}

// StatusAt is the status reported to readers at now.
func (t *Task) StatusAt(now time.Time) Status {
	if t.IsOverdue(now) {
		return StatusOverdue
	}
	return t.Status
}

func (t *Task) CanComplete() error {
	if !t.Status.IsOpen() {
		return serrors.InvalidTransition(string(t.Status), string(StatusCompleted))
	}
	return nil
}

func (t *Task) Complete(at time.Time) error {
	if err := t.CanComplete(); err != nil {
		return err
	}
	t.Status = StatusCompleted
	t.CompletedAt = &at
	t.UpdatedAt = at
	return nil
}

func (t *Task) CanEscalate() error {
	if !t.Status.IsOpen() {
		return serrors.InvalidTransition(string(t.Status), "escalated")
	}
	return nil
}

// Escalate raises the escalation level and records who now watches the
// task. The assignee stays the same.
func (t *Task) Escalate(to uuid.UUID, at time.Time) error {
	if err := t.CanEscalate(); err != nil {
		return err
	}
	if to == t.AssigneeID {
		return serrors.Validation("cannot escalate a task to its assignee", nil)
	}
	t.EscalationLevel++
	t.EscalatedToID = &to
	t.EscalatedAt = &at
	t.UpdatedAt = at
	return nil
}
