package seed_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/jacksonlee411/branch-crm/internal/testkit"
	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/target"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/task"
	"github.com/jacksonlee411/branch-crm/modules/crm/seed"
)

func TestSample_SeedsOnce(t *testing.T) {
	bank := testkit.NewBank()
	customers := testkit.NewCustomerRepository()
	opportunities := testkit.NewOpportunityRepository()
	targets := testkit.NewTargetRepository()
	tasks := testkit.NewTaskRepository()
	scoper := accessservices.NewScoper(bank.Directory)
	s := &seed.Sample{
		Customers:     customers,
		Opportunities: opportunities,
		Targets:       targets,
		Tasks:         tasks,
		Users:         bank.UserRepository(),
		Scoper:        scoper,
	}
	ctx := testkit.Context()

	require.NoError(t, s.Seed(ctx, "rm-a", "mgr-a"))
	require.NoError(t, s.Seed(ctx, "rm-a", "mgr-a"))

	rm := bank.User("rm-a")
	scope, err := scoper.Scope(ctx, rm, accessservices.ResourceCustomer)
	require.NoError(t, err)
	n, err := customers.Count(ctx, &customer.FindParams{Scope: scope})
	require.NoError(t, err)
	require.EqualValues(t, 4, n)

	leads, err := customers.List(ctx, &customer.FindParams{Scope: scope, Stage: customer.StageLead})
	require.NoError(t, err)
	require.Len(t, leads, 1)
	require.NotNil(t, leads[0].StageDates.LeadAt)

	oppScope, err := scoper.Scope(ctx, rm, accessservices.ResourceOpportunity)
	require.NoError(t, err)
	opps, err := opportunities.List(ctx, &opportunity.FindParams{Scope: oppScope})
	require.NoError(t, err)
	require.Len(t, opps, 2)

	targetScope, err := scoper.Scope(ctx, rm, accessservices.ResourceTarget)
	require.NoError(t, err)
	ts, err := targets.List(ctx, &target.FindParams{Scope: targetScope})
	require.NoError(t, err)
	require.Len(t, ts, 1)
	require.True(t, ts[0].AchievedValue.Equal(decimal.NewFromInt(150000)))
	require.True(t, ts[0].AchievementPercent().Equal(decimal.NewFromInt(30)))

	taskScope, err := scoper.Scope(ctx, rm, accessservices.ResourceTask)
	require.NoError(t, err)
	assigned, err := tasks.List(ctx, &task.FindParams{Scope: taskScope, AssigneeID: &rm.ID})
	require.NoError(t, err)
	require.Len(t, assigned, 1)
	require.Equal(t, bank.User("mgr-a").ID, assigned[0].AssignedByID)
	require.Equal(t, leads[0].ID, *assigned[0].CustomerID)
}

func TestSample_UnknownOwner(t *testing.T) {
	bank := testkit.NewBank()
	s := &seed.Sample{
		Customers:     testkit.NewCustomerRepository(),
		Opportunities: testkit.NewOpportunityRepository(),
		Targets:       testkit.NewTargetRepository(),
		Tasks:         testkit.NewTaskRepository(),
		Users:         bank.UserRepository(),
		Scoper:        accessservices.NewScoper(bank.Directory),
	}
	require.ErrorContains(t, s.Seed(testkit.Context(), "nobody", "mgr-a"), "sample owner nobody")
}
