package services_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	logrustest "github.com/sirupsen/logrus/hooks/test"

	"github.com/jacksonlee411/branch-crm/internal/testkit"
	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/target"
	"github.com/jacksonlee411/branch-crm/modules/crm/services"
	"github.com/jacksonlee411/branch-crm/pkg/eventbus"
)

type fixture struct {
	ctx        context.Context
	bank       *testkit.Bank
	sink       *testkit.AuditSink
	logs       *logrustest.Hook
	customers  *testkit.CustomerRepository
	opps       *testkit.OpportunityRepository
	activities *testkit.ActivityRepository
	targets    *testkit.TargetRepository
	tasks      *testkit.TaskRepository
	users      *testkit.UserRepository

	customerSvc    *services.CustomerService
	opportunitySvc *services.OpportunityService
	activitySvc    *services.ActivityService
	targetSvc      *services.TargetService
	analyticsSvc   *services.AnalyticsService
	taskSvc        *services.TaskService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	bank := testkit.NewBank()
	sink := testkit.NewAuditSink()
	logger, hook := logrustest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	access := services.Access{
		Evaluator:    accessservices.NewEvaluator(bank.Directory, sink, accessservices.WithLogger(logger)),
		Scoper:       accessservices.NewScoper(bank.Directory),
		Capabilities: accessservices.NewCapabilities(testkit.Authorizer(), accessservices.WithDenialAudit(sink)),
	}
	users := bank.UserRepository()
	f := &fixture{
		ctx:        testkit.Context(),
		bank:       bank,
		sink:       sink,
		logs:       hook,
		customers:  testkit.NewCustomerRepository(),
		opps:       testkit.NewOpportunityRepository(),
		activities: testkit.NewActivityRepository(),
		targets:    testkit.NewTargetRepository(),
		tasks:      testkit.NewTaskRepository(),
		users:      users,
	}
	bus := eventbus.NewEventPublisher(logger)
	f.customerSvc = services.NewCustomerService(f.customers, f.opps, users, access, logger)
	f.opportunitySvc = services.NewOpportunityService(f.opps, f.customers, access, bus, logger)
	f.activitySvc = services.NewActivityService(f.activities, f.customers, f.opps, access, logger)
	f.targetSvc = services.NewTargetService(f.targets, users, access, logger)
	f.analyticsSvc = services.NewAnalyticsService(f.customers, f.opps, access)
	f.taskSvc = services.NewTaskService(f.tasks, f.customers, f.opps, users, access, logger)
	bus.Subscribe(f.targetSvc.HandleOpportunityWon)
	return f
}

// customer stores a customer owned by user, bypassing the service.
func (f *fixture) customer(t *testing.T, owner string, stage customer.Stage, hnw bool) *customer.Customer {
	t.Helper()
	u := f.bank.User(owner)
	c := customer.New(u.ID, u.UnitID, time.Now().UTC())
	c.FirstName = "Client"
	c.LastName = owner
	c.Stage = stage
	c.HighNetWorth = hnw
	c.AccountNumber = "HR1210010051863000160"
	c.EstimatedAssets = decimal.NewFromInt(2500000)
	if err := f.customers.Create(f.ctx, c); err != nil {
		t.Fatal(err)
	}
	return c
}

func (f *fixture) opportunity(t *testing.T, c *customer.Customer, stage opportunity.Stage, amount int64) *opportunity.Opportunity {
	t.Helper()
	o := opportunity.New(c.ID, c.OwnerID, c.OwningUnitID, time.Now().UTC())
	o.Name = "Deal"
	o.ProductLine = opportunity.ProductMortgage
	o.Stage = stage
	o.Probability = stage.DefaultProbability()
	o.Amount = decimal.NewFromInt(amount)
	o.Sensitive = c.HighNetWorth
	if err := f.opps.Create(f.ctx, o); err != nil {
		t.Fatal(err)
	}
	return o
}

func withUnit(id uuid.UUID) func(*target.Target) {
	return func(tg *target.Target) {
		tg.OwningUnitID = id
	}
}

// revenueTarget stores an active revenue target for assignee.
func (f *fixture) revenueTarget(t *testing.T, assignee string, value int64, opts ...func(*target.Target)) *target.Target {
	t.Helper()
	u := f.bank.User(assignee)
	now := time.Now().UTC()
	tg := &target.Target{
		ID:            uuid.New(),
		Name:          "Revenue",
		Type:          target.TypeRevenue,
		Period:        target.PeriodMonthly,
		StartDate:     now.Add(-24 * time.Hour),
		EndDate:       now.Add(24 * time.Hour),
		TargetValue:   decimal.NewFromInt(value),
		AchievedValue: decimal.Zero,
		AssigneeID:    u.ID,
		OwningUnitID:  u.UnitID,
	}
	for _, opt := range opts {
		opt(tg)
	}
	if err := f.targets.Create(f.ctx, tg); err != nil {
		t.Fatal(err)
	}
	return tg
}
