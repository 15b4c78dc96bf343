package services_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/logging/domain/entities/auditrecord"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

func TestOpportunityService_Create(t *testing.T) {
	f := newFixture(t)
	rmA := f.bank.User("rm-a")
	plain := f.customer(t, "rm-a", customer.StageLead, false)

	o, err := f.opportunitySvc.Create(f.ctx, rmA, &opportunity.CreateDTO{
		Name:        "Home loan",
		CustomerID:  plain.ID,
		ProductLine: opportunity.ProductMortgage,
		Amount:      decimal.NewFromInt(120000),
	})
	require.NoError(t, err)
	assert.Equal(t, opportunity.StageIdentification, o.Stage)
	assert.Equal(t, 10, o.Probability)
	assert.False(t, o.Sensitive)
	assert.Equal(t, f.bank.UnitID("RM-A"), o.OwningUnitID)

	other := f.customer(t, "rm-b", customer.StageLead, false)
	_, err = f.opportunitySvc.Create(f.ctx, rmA, &opportunity.CreateDTO{
		Name:        "Card",
		CustomerID:  other.ID,
		ProductLine: opportunity.ProductCreditCard,
		Amount:      decimal.NewFromInt(1000),
	})
	require.ErrorIs(t, err, serrors.ErrAccessDenied)

	_, err = f.opportunitySvc.Create(f.ctx, rmA, &opportunity.CreateDTO{
		Name:        "Zero",
		CustomerID:  plain.ID,
		ProductLine: opportunity.ProductCreditCard,
		Amount:      decimal.Zero,
	})
	require.ErrorIs(t, err, serrors.ErrValidation)
}

func TestOpportunityService_CreateInheritsSensitivity(t *testing.T) {
	f := newFixture(t)
	hnw := f.customer(t, "rm-a", customer.StageCustomer, true)

	o, err := f.opportunitySvc.Create(f.ctx, f.bank.User("north"), &opportunity.CreateDTO{
		Name:        "Portfolio",
		CustomerID:  hnw.ID,
		ProductLine: opportunity.ProductInvestment,
		Amount:      decimal.NewFromInt(5000000),
	})
	require.NoError(t, err)
	assert.True(t, o.Sensitive)

	v, err := f.opportunitySvc.GetByID(f.ctx, f.bank.User("mgr-a"), o.ID)
	require.NoError(t, err)
	assert.True(t, v.Masked())
}

func TestOpportunityService_WonCreditsRevenueTarget(t *testing.T) {
	f := newFixture(t)
	rmA := f.bank.User("rm-a")
	c := f.customer(t, "rm-a", customer.StageCustomer, false)
	o := f.opportunity(t, c, opportunity.StageNegotiation, 250)
	tg := f.revenueTarget(t, "rm-a", 1000)

	won, err := f.opportunitySvc.Move(f.ctx, rmA, o.ID, &opportunity.MoveDTO{Stage: opportunity.StageWon, Version: o.Version})
	require.NoError(t, err)
	assert.Equal(t, opportunity.StageWon, won.Stage)
	assert.Equal(t, 100, won.Probability)
	require.NotNil(t, won.WonAt)

	stored, err := f.targets.GetByID(f.ctx, tg.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(250).Equal(stored.AchievedValue))
	assert.True(t, decimal.NewFromInt(25).Equal(stored.AchievementPercent()))

	achievements, err := f.targets.Achievements(f.ctx, tg.ID)
	require.NoError(t, err)
	require.Len(t, achievements, 1)
	require.NotNil(t, achievements[0].OpportunityID)
	assert.Equal(t, o.ID, *achievements[0].OpportunityID)

	_, err = f.opportunitySvc.Move(f.ctx, rmA, o.ID, &opportunity.MoveDTO{Stage: opportunity.StageClosing, Version: won.Version})
	require.ErrorIs(t, err, serrors.ErrInvalidTransition)
	assert.Equal(t, "invalid_transition", f.sink.Last().Reason)
}

func TestOpportunityService_WonByExecutiveCreditsOwnerTarget(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "rm-a", customer.StageCustomer, false)
	o := f.opportunity(t, c, opportunity.StageClosing, 400)
	tg := f.revenueTarget(t, "rm-a", 1000)

	_, err := f.opportunitySvc.Move(f.ctx, f.bank.User("exec"), o.ID, &opportunity.MoveDTO{Stage: opportunity.StageWon, Version: o.Version})
	require.NoError(t, err)

	stored, err := f.targets.GetByID(f.ctx, tg.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(400).Equal(stored.AchievedValue))
}

func TestOpportunityService_WonSkipsTargetsOutsideActorScope(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "rm-a", customer.StageCustomer, false)
	o := f.opportunity(t, c, opportunity.StageClosing, 400)
	tg := f.revenueTarget(t, "rm-a", 1000, withUnit(f.bank.UnitID("BR-C")))

	_, err := f.opportunitySvc.Move(f.ctx, f.bank.User("rm-a"), o.ID, &opportunity.MoveDTO{Stage: opportunity.StageWon, Version: o.Version})
	require.NoError(t, err)

	stored, err := f.targets.GetByID(f.ctx, tg.ID)
	require.NoError(t, err)
	assert.True(t, stored.AchievedValue.IsZero())

	var warned bool
	for _, e := range f.logs.AllEntries() {
		if e.Message == "won opportunity not credited to target" {
			warned = true
		}
	}
	assert.True(t, warned)
}

func TestOpportunityService_MoveForwardOnly(t *testing.T) {
	f := newFixture(t)
	rmA := f.bank.User("rm-a")
	c := f.customer(t, "rm-a", customer.StageLead, false)
	o := f.opportunity(t, c, opportunity.StageQualification, 1000)

	moved, err := f.opportunitySvc.Move(f.ctx, rmA, o.ID, &opportunity.MoveDTO{Stage: opportunity.StageProposal, Version: 1})
	require.NoError(t, err)
	assert.Equal(t, 40, moved.Probability)
	assert.True(t, decimal.NewFromInt(400).Equal(moved.ExpectedRevenue()))

	_, err = f.opportunitySvc.Move(f.ctx, rmA, o.ID, &opportunity.MoveDTO{Stage: opportunity.StageIdentification, Version: moved.Version})
	require.ErrorIs(t, err, serrors.ErrInvalidTransition)

	_, err = f.opportunitySvc.Move(f.ctx, rmA, o.ID, &opportunity.MoveDTO{Stage: opportunity.StageNegotiation, Version: 1})
	require.ErrorIs(t, err, serrors.ErrConcurrentModification)
}

func TestOpportunityService_MarkLost(t *testing.T) {
	f := newFixture(t)
	rmA := f.bank.User("rm-a")
	c := f.customer(t, "rm-a", customer.StageLead, false)
	o := f.opportunity(t, c, opportunity.StageProposal, 1000)

	_, err := f.opportunitySvc.MarkLost(f.ctx, f.bank.User("rm-b"), o.ID, &opportunity.LoseDTO{Reason: opportunity.LostPrice, Version: 1})
	require.ErrorIs(t, err, serrors.ErrAccessDenied)
	assert.Equal(t, accessservices.Deny, f.sink.Last().Decision)

	lost, err := f.opportunitySvc.MarkLost(f.ctx, rmA, o.ID, &opportunity.LoseDTO{Reason: opportunity.LostCompetitor, Competitor: " Other Bank ", Version: 1})
	require.NoError(t, err)
	assert.Equal(t, opportunity.StageLost, lost.Stage)
	assert.Equal(t, 0, lost.Probability)
	assert.Equal(t, "Other Bank", lost.Competitor)
	require.NotNil(t, lost.LostAt)

	_, err = f.opportunitySvc.MarkLost(f.ctx, rmA, o.ID, &opportunity.LoseDTO{Reason: "bored", Version: lost.Version})
	require.ErrorIs(t, err, serrors.ErrValidation)
}

func TestOpportunityService_MoveRefusesLost(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "rm-a", customer.StageLead, false)
	o := f.opportunity(t, c, opportunity.StageProposal, 1000)

	_, err := f.opportunitySvc.Move(f.ctx, f.bank.User("rm-a"), o.ID, &opportunity.MoveDTO{Stage: opportunity.StageLost, Version: 1})
	require.ErrorIs(t, err, serrors.ErrValidation)

	stored, err := f.opps.GetByID(f.ctx, o.ID)
	require.NoError(t, err)
	assert.Equal(t, opportunity.StageProposal, stored.Stage)
	assert.Nil(t, stored.LostAt)
}

func TestOpportunityService_Update(t *testing.T) {
	f := newFixture(t)
	rmA := f.bank.User("rm-a")
	c := f.customer(t, "rm-a", customer.StageLead, false)
	o := f.opportunity(t, c, opportunity.StageProposal, 1000)
	prob := 55
	dto := func(version int) *opportunity.UpdateDTO {
		return &opportunity.UpdateDTO{
			CreateDTO: opportunity.CreateDTO{
				Name:        " Refinance ",
				CustomerID:  c.ID,
				ProductLine: opportunity.ProductRetailLoan,
				Amount:      decimal.NewFromInt(2000),
			},
			Probability: &prob,
			Version:     version,
		}
	}

	_, err := f.opportunitySvc.Update(f.ctx, f.bank.User("rm-b"), o.ID, dto(1))
	require.ErrorIs(t, err, serrors.ErrAccessDenied)

	updated, err := f.opportunitySvc.Update(f.ctx, rmA, o.ID, dto(1))
	require.NoError(t, err)
	assert.Equal(t, "Refinance", updated.Name)
	assert.Equal(t, opportunity.StageProposal, updated.Stage)
	assert.True(t, decimal.NewFromInt(1100).Equal(updated.ExpectedRevenue()))
	assert.Equal(t, 2, updated.Version)

	_, err = f.opportunitySvc.Update(f.ctx, rmA, o.ID, dto(1))
	require.ErrorIs(t, err, serrors.ErrConcurrentModification)
}

func TestOpportunityService_UpdateMaskedIsReadOnly(t *testing.T) {
	f := newFixture(t)
	c := f.customer(t, "rm-a", customer.StageCustomer, true)
	o := f.opportunity(t, c, opportunity.StageProposal, 1000)

	_, err := f.opportunitySvc.Update(f.ctx, f.bank.User("mgr-a"), o.ID, &opportunity.UpdateDTO{
		CreateDTO: opportunity.CreateDTO{
			Name:        "Private banking",
			CustomerID:  c.ID,
			ProductLine: opportunity.ProductInvestment,
			Amount:      decimal.NewFromInt(1),
		},
		Version: 1,
	})
	require.ErrorIs(t, err, serrors.ErrAccessDenied)
	assert.Equal(t, auditrecord.ReasonMaskedReadOnly, f.sink.Last().Reason)

	stored, err := f.opps.GetByID(f.ctx, o.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(1000).Equal(stored.Amount))
}

func TestOpportunityService_ListIsScoped(t *testing.T) {
	f := newFixture(t)
	for _, owner := range []string{"rm-a", "rm-b", "rm-c"} {
		c := f.customer(t, owner, customer.StageLead, false)
		f.opportunity(t, c, opportunity.StageIdentification, 100)
	}

	items, total, err := f.opportunitySvc.List(f.ctx, f.bank.User("north"), &opportunity.FindParams{})
	require.NoError(t, err)
	assert.Len(t, items, 2)
	assert.EqualValues(t, 2, total)

	items, _, err = f.opportunitySvc.List(f.ctx, f.bank.User("rm-c"), nil)
	require.NoError(t, err)
	assert.Len(t, items, 1)
}
