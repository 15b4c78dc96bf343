package activity

import (
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/pkg/constants"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

type CreateDTO struct {
	Type          Type       `json:"type" validate:"required,oneof=call email meeting note task sms whatsapp"`
	Subject       string     `json:"subject" validate:"required,max=200"`
	Description   string     `json:"description" validate:"max=4000"`
	CustomerID    uuid.UUID  `json:"customer_id" validate:"required"`
	OpportunityID *uuid.UUID `json:"opportunity_id"`
	OccurredAt    *time.Time `json:"occurred_at"`
	Outcome       string     `json:"outcome" validate:"max=200"`
}

func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Subject = strings.TrimSpace(d.Subject)
	d.Description = strings.TrimSpace(d.Description)
	d.Outcome = strings.TrimSpace(d.Outcome)
	d.Type = Type(strings.ToLower(strings.TrimSpace(string(d.Type))))
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err), false
	}
	return nil, true
}
