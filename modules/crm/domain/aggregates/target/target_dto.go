package target

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jacksonlee411/branch-crm/pkg/constants"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

type CreateDTO struct {
	Name        string          `json:"name" validate:"required,max=200"`
	Type        Type            `json:"type" validate:"required,oneof=revenue new_customers product_sales portfolio_growth cross_sell"`
	Period      Period          `json:"period" validate:"required,oneof=monthly quarterly annually"`
	StartDate   time.Time       `json:"start_date" validate:"required"`
	EndDate     time.Time       `json:"end_date" validate:"required"`
	TargetValue decimal.Decimal `json:"target_value"`
	AssigneeID  uuid.UUID       `json:"assignee_id" validate:"required"`
}

func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Name = strings.TrimSpace(d.Name)
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err), false
	}
	if !d.TargetValue.IsPositive() {
		return serrors.ValidationErrors{"TargetValue": "must be positive"}, false
	}
	if d.EndDate.Before(d.StartDate) {
		return serrors.ValidationErrors{"EndDate": "must not precede StartDate"}, false
	}
	return nil, true
}

type AchievementDTO struct {
	Value         decimal.Decimal `json:"value"`
	AchievedAt    *time.Time      `json:"achieved_at"`
	OpportunityID *uuid.UUID      `json:"opportunity_id"`
	Notes         string          `json:"notes" validate:"max=1000"`
}

// Ok requires a strictly positive value.
func (d *AchievementDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Notes = strings.TrimSpace(d.Notes)
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err), false
	}
	if !d.Value.IsPositive() {
		return serrors.ValidationErrors{"Value": "must be positive"}, false
	}
	return nil, true
}
