package opportunity

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jacksonlee411/branch-crm/pkg/constants"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

type CreateDTO struct {
	Name              string          `json:"name" validate:"required,max=200"`
	CustomerID        uuid.UUID       `json:"customer_id" validate:"required"`
	ProductLine       ProductLine     `json:"product_line" validate:"required,oneof=retail_loan mortgage credit_card savings_account current_account investment insurance sme_loan corporate_finance trade_finance"`
	Amount            decimal.Decimal `json:"amount"`
	ExpectedCloseDate *time.Time      `json:"expected_close_date"`
}

func (d *CreateDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Name = strings.TrimSpace(d.Name)
	d.ProductLine = ProductLine(strings.ToLower(strings.TrimSpace(string(d.ProductLine))))
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err), false
	}
	if !d.Amount.IsPositive() {
		return serrors.ValidationErrors{"Amount": "must be positive"}, false
	}
	return nil, true
}

// UpdateDTO edits the deal terms. Probability is optional and keeps the
// current value when omitted.
type UpdateDTO struct {
	CreateDTO
	Probability *int `json:"probability" validate:"omitempty,gte=0,lte=100"`
	Version     int  `json:"version" validate:"required,gte=1"`
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

type MoveDTO struct {
	Stage   Stage `json:"stage" validate:"required"`
	Version int   `json:"version" validate:"required,gte=1"`
}

func (d *MoveDTO) Ok() (serrors.ValidationErrors, bool) {
	d.Stage = Stage(strings.ToLower(strings.TrimSpace(string(d.Stage))))
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err), false
	}
	if d.Stage == StageLost {
		return serrors.ValidationErrors{"Stage": "closing as lost needs a reason; use the lose operation"}, false
	}
	return nil, true
}

type LoseDTO struct {
	Reason     LostReason `json:"reason" validate:"required,oneof=price competitor no_response timing no_need credit_rejected other"`
	Competitor string     `json:"competitor" validate:"max=200"`
	Version    int        `json:"version" validate:"required,gte=1"`
}

func (d *LoseDTO) Ok() (serrors.ValidationErrors, bool) {
	if err := constants.Validate.Struct(d); err != nil {
		return serrors.ProcessValidatorErrors(err), false
	}
	return nil, true
}
