package task

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/pkg/constants"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

type CreateDTO struct {
	Title         string     `json:"title" validate:"required,max=200"`
	Description   string     `json:"description" validate:"max=4000"`
	Kind          string     `json:"kind" validate:"max=50"`
	Priority      Priority   `json:"priority" validate:"omitempty,oneof=low medium high urgent"`
	CustomerID    *uuid.UUID `json:"customer_id"`
	OpportunityID *uuid.UUID `json:"opportunity_id"`
	// AssigneeID defaults to the creating user.
	AssigneeID *uuid.UUID `json:"assignee_id"`
	DueAt      time.Time  `json:"due_at" validate:"required"`
	SLAHours   *int       `json:"sla_hours" validate:"omitempty,gte=1,lte=2160"`
}

func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Title = strings.TrimSpace(d.Title)
	d.Description = strings.TrimSpace(d.Description)
	d.Kind = strings.ToLower(strings.TrimSpace(d.Kind))
	d.Priority = Priority(strings.ToLower(strings.TrimSpace(string(d.Priority))))
	if d.Priority == "" {
		d.Priority = PriorityMedium
	}
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err), false
	}
	return nil, true
}

type CompleteDTO struct {
	Version int `json:"version" validate:"required,gte=1"`
}

func (d *CompleteDTO) Ok() (serrors.ValidationErrors, bool) {
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err), false
	}
	return nil, true
}

type EscalateDTO struct {
	EscalateToID uuid.UUID `json:"escalate_to_id" validate:"required"`
	Version      int       `json:"version" validate:"required,gte=1"`
}

func (d *EscalateDTO) Ok() (serrors.ValidationErrors, bool) {
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err), false
	}
	return nil, true
}
