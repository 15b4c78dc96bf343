package customer

import (
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jacksonlee411/branch-crm/pkg/constants"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

type CreateDTO struct {
	FirstName          string          `json:"first_name" validate:"required_without=CompanyName,max=100"`
	LastName           string          `json:"last_name" validate:"required_without=CompanyName,max=100"`
	CompanyName        string          `json:"company_name" validate:"max=200"`
	Email              string          `json:"email" validate:"omitempty,email"`
	Phone              string          `json:"phone" validate:"max=30"`
	City               string          `json:"city" validate:"max=100"`
	Segment            Segment         `json:"segment" validate:"omitempty,oneof=retail sme corporate private_banking"`
	AccountNumber      string          `json:"account_number" validate:"max=50"`
	EstimatedAssets    decimal.Decimal `json:"estimated_assets"`
	HighNetWorth       bool            `json:"high_net_worth"`
	QualificationScore int             `json:"qualification_score" validate:"gte=0,lte=100"`
}

func (d *CreateDTO) Normalize() {
	d.FirstName = strings.TrimSpace(d.FirstName)
	d.LastName = strings.TrimSpace(d.LastName)
	d.CompanyName = strings.TrimSpace(d.CompanyName)
	d.Email = strings.ToLower(strings.TrimSpace(d.Email))
	d.Phone = strings.TrimSpace(d.Phone)
	d.City = strings.TrimSpace(d.City)
	d.AccountNumber = strings.TrimSpace(d.AccountNumber)
	if d.Segment == "" {
		d.Segment = SegmentRetail
	}
}

func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Normalize()
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err), false
	}
	if d.EstimatedAssets.IsNegative() {
		return serrors.ValidationErrors{"EstimatedAssets": "must not be negative"}, false
	}
	return nil, true
}

// Apply copies the DTO onto c.
func (d *CreateDTO) Apply(c *Customer) {
	c.FirstName = d.FirstName
	c.LastName = d.LastName
	c.CompanyName = d.CompanyName
	c.Email = d.Email
	c.Phone = d.Phone
	c.City = d.City
	c.Segment = d.Segment
	c.AccountNumber = d.AccountNumber
	c.EstimatedAssets = d.EstimatedAssets
	c.HighNetWorth = d.HighNetWorth
	c.QualificationScore = d.QualificationScore
}

// UpdateDTO edits contact details. Stage and ownership change through
// their own operations.
type UpdateDTO struct {
	CreateDTO
	Version int `json:"version" validate:"required,gte=1"`
}

func (d *UpdateDTO) Ok() (serrors.ValidationErrors, bool) {
	if errs, ok := d.CreateDTO.Ok(); !ok {
		return errs, false
	}
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err), false
	}
	return nil, true
}
