package target

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type Type string

const (
	TypeRevenue         Type = "revenue"
	TypeNewCustomers    Type = "new_customers"
	TypeProductSales    Type = "product_sales"
	TypePortfolioGrowth Type = "portfolio_growth"
	TypeCrossSell       Type = "cross_sell"
)

type Period string

const (
	PeriodMonthly   Period = "monthly"
	PeriodQuarterly Period = "quarterly"
	PeriodAnnually  Period = "annually"
)

var hundred = decimal.NewFromInt(100)

// Target is a goal for one staff member over a date range. AchievedValue
// only grows, through recorded achievements.
type Target struct {
	ID            uuid.UUID
	Name          string
	Type          Type
	Period        Period
	StartDate     time.Time
	EndDate       time.Time
	TargetValue   decimal.Decimal
	AchievedValue decimal.Decimal
	AssigneeID    uuid.UUID
	OwningUnitID  uuid.UUID
	CreatedBy     uuid.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type Achievement struct {
	ID            uuid.UUID
	TargetID      uuid.UUID
	Value         decimal.Decimal
	AchievedAt    time.Time
	OpportunityID *uuid.UUID
	Notes         string
	RecordedBy    uuid.UUID
}

// AchievementPercent is achieved over target in percent, two decimals.
func (t *Target) AchievementPercent() decimal.Decimal {
	if !t.TargetValue.IsPositive() {
		return decimal.Zero
	}
	return t.AchievedValue.Mul(hundred).Div(t.TargetValue).Round(2)
}

// Covers reports whether at falls inside the target's date range.
func (t *Target) Covers(at time.Time) bool {
	return !at.Before(t.StartDate) && !at.After(t.EndDate)
}

// OnTrack compares achievement against elapsed time. active is false
// outside the date range, where no judgement is made.
func (t *Target) OnTrack(now time.Time) (onTrack, active bool) {
	if !t.Covers(now) {
		return false, false
	}
	total := t.EndDate.Sub(t.StartDate)
	if total <= 0 {
		return true, true
	}
	elapsed := decimal.NewFromInt(int64(now.Sub(t.StartDate))).Mul(hundred).Div(decimal.NewFromInt(int64(total)))
	return t.AchievementPercent().GreaterThanOrEqual(elapsed.Round(2)), true
}
