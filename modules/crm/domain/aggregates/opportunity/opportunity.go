package opportunity

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

type Stage string

const (
	StageIdentification Stage = "identification"
	StageQualification  Stage = "qualification"
	StageProposal       Stage = "proposal"
	StageNegotiation    Stage = "negotiation"
	StageClosing        Stage = "closing"
	StageWon            Stage = "won"
	StageLost           Stage = "lost"
)

// OpenStages lists the pipeline stages in order.
var OpenStages = []Stage{StageIdentification, StageQualification, StageProposal, StageNegotiation, StageClosing}

var defaultProbability = map[Stage]int{
	StageIdentification: 10,
	StageQualification:  20,
	StageProposal:       40,
	StageNegotiation:    60,
	StageClosing:        80,
	StageWon:            100,
	StageLost:           0,
}

func (s Stage) rank() int {
	for i, st := range OpenStages {
		if st == s {
			return i + 1
		}
	}
	return 0
}

func (s Stage) Valid() bool {
	_, ok := defaultProbability[s]
	return ok
}

func (s Stage) IsOpen() bool {
	return s.rank() > 0
}

func (s Stage) IsTerminal() bool {
	return s == StageWon || s == StageLost
}

// DefaultProbability is the win probability in percent assumed at s.
func (s Stage) DefaultProbability() int {
	return defaultProbability[s]
}

func ParseStage(v string) (Stage, error) {
	s := Stage(strings.ToLower(strings.TrimSpace(v)))
	if !s.Valid() {
		return "", serrors.Validation(fmt.Sprintf("unknown opportunity stage %q", v), nil)
	}
	return s, nil
}

type ProductLine string

const (
	ProductRetailLoan       ProductLine = "retail_loan"
	ProductMortgage         ProductLine = "mortgage"
	ProductCreditCard       ProductLine = "credit_card"
	ProductSavingsAccount   ProductLine = "savings_account"
	ProductCurrentAccount   ProductLine = "current_account"
	ProductInvestment       ProductLine = "investment"
	ProductInsurance        ProductLine = "insurance"
	ProductSMELoan          ProductLine = "sme_loan"
	ProductCorporateFinance ProductLine = "corporate_finance"
	ProductTradeFinance     ProductLine = "trade_finance"
)

type LostReason string

const (
	LostPrice          LostReason = "price"
	LostCompetitor     LostReason = "competitor"
	LostNoResponse     LostReason = "no_response"
	LostTiming         LostReason = "timing"
	LostNoNeed         LostReason = "no_need"
	LostCreditRejected LostReason = "credit_rejected"
	LostOther          LostReason = "other"
)

func (r LostReason) Valid() bool {
	switch r {
	case LostPrice, LostCompetitor, LostNoResponse, LostTiming, LostNoNeed, LostCreditRejected, LostOther:
		return true
	}
	return false
}

type Opportunity struct {
	ID                uuid.UUID
	Name              string
	CustomerID        uuid.UUID
	ProductLine       ProductLine
	Stage             Stage
	Amount            decimal.Decimal
	Probability       int
	ExpectedCloseDate *time.Time
	WonAt             *time.Time
	LostAt            *time.Time
	LostReason        LostReason
	Competitor        string
	OwnerID           uuid.UUID
	OwningUnitID      uuid.UUID
	// Sensitive is inherited from the customer's high-net-worth flag.
	Sensitive bool
	Version   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

func New(customerID, ownerID, unitID uuid.UUID, at time.Time) *Opportunity {
	return &Opportunity{
		ID:           uuid.New(),
		CustomerID:   customerID,
		Stage:        StageIdentification,
		Probability:  StageIdentification.DefaultProbability(),
		OwnerID:      ownerID,
		OwningUnitID: unitID,
		Version:      1,
		CreatedAt:    at,
		UpdatedAt:    at,
	}
}

// ExpectedRevenue is amount weighted by probability.
func (o *Opportunity) ExpectedRevenue() decimal.Decimal {
	return o.Amount.Mul(decimal.NewFromInt(int64(o.Probability))).Div(decimal.NewFromInt(100))
}

// CanMoveTo allows forward moves between open stages and closing as won or
// lost from any open stage. Won and lost are final.
func (o *Opportunity) CanMoveTo(to Stage) error {
	if !to.Valid() || o.Stage.IsTerminal() {
		return serrors.InvalidTransition(string(o.Stage), string(to))
	}
	if to.IsTerminal() {
		return nil
	}
	if to.rank() <= o.Stage.rank() {
		return serrors.InvalidTransition(string(o.Stage), string(to))
	}
	return nil
}

func (o *Opportunity) MoveTo(to Stage, at time.Time) error {
	if err := o.CanMoveTo(to); err != nil {
		return err
	}
	o.Stage = to
	o.Probability = to.DefaultProbability()
	switch to {
	case StageWon:
		o.WonAt = &at
	case StageLost:
		o.LostAt = &at
	}
	o.UpdatedAt = at
	return nil
}

// Edit replaces the deal terms of an open opportunity. Stage changes go
// through MoveTo and MarkLost.
func (o *Opportunity) Edit(name string, product ProductLine, amount decimal.Decimal, probability *int, closeDate *time.Time, at time.Time) error {
	if o.Stage.IsTerminal() {
		return serrors.Validation(fmt.Sprintf("opportunity is %s and can no longer be edited", o.Stage), nil)
	}
	o.Name = name
	o.ProductLine = product
	o.Amount = amount
	o.ExpectedCloseDate = closeDate
	if probability != nil {
		o.Probability = *probability
	}
	o.UpdatedAt = at
	return nil
}

func (o *Opportunity) MarkLost(reason LostReason, competitor string, at time.Time) error {
	if !reason.Valid() {
		return serrors.Validation(fmt.Sprintf("unknown lost reason %q", reason), nil)
	}
	if err := o.MoveTo(StageLost, at); err != nil {
		return err
	}
	o.LostReason = reason
	o.Competitor = strings.TrimSpace(competitor)
	return nil
}
