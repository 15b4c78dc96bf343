package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/target"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/task"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
)

// Sample loads a handful of customers, two open opportunities, a follow-up
// task and a monthly revenue target for one relationship manager. It does nothing when the
// manager already owns customers.
type Sample struct {
	Customers     customer.Repository
	Opportunities opportunity.Repository
	Targets       target.Repository
	Tasks         task.Repository
	Users         staff.Repository
	Scoper        *accessservices.Scoper
	Logger        *logrus.Logger
	Now           func() time.Time
}

type sampleCustomer struct {
	first, last, company string
	stage                customer.Stage
	segment              customer.Segment
}

var sampleCustomers = []sampleCustomer{
	{first: "Emir", last: "Bašić", stage: customer.StageCustomer, segment: customer.SegmentRetail},
	{first: "Ana", last: "Marić", stage: customer.StageLead, segment: customer.SegmentRetail},
	{first: "Dino", last: "Hadžiahmetović", stage: customer.StageProspect, segment: customer.SegmentSME},
	{company: "Tech Solutions d.o.o.", stage: customer.StageSuspect, segment: customer.SegmentCorporate},
}

func (s *Sample) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

func (s *Sample) Seed(ctx context.Context, ownerUsername, managerUsername string) error {
	log := logrus.StandardLogger().WithField("component", "seed")
	if s.Logger != nil {
		log = s.Logger.WithField("component", "seed")
	}
	owner, err := s.Users.GetByUsername(ctx, ownerUsername)
	if err != nil {
		return fmt.Errorf("sample owner %s: %w", ownerUsername, err)
	}
	manager, err := s.Users.GetByUsername(ctx, managerUsername)
	if err != nil {
		return fmt.Errorf("sample manager %s: %w", managerUsername, err)
	}

	scope, err := s.Scoper.Scope(ctx, owner, accessservices.ResourceCustomer)
	if err != nil {
		return err
	}
	existing, err := s.Customers.Count(ctx, &customer.FindParams{Scope: scope, OwnerID: &owner.ID})
	if err != nil {
		return err
	}
	if existing > 0 {
		log.WithField("owner", ownerUsername).Info("sample data already present")
		return nil
	}

	now := s.now()
	created := make([]*customer.Customer, 0, len(sampleCustomers))
	for _, sc := range sampleCustomers {
		c := customer.New(owner.ID, owner.UnitID, now.AddDate(0, 0, -30))
		c.FirstName, c.LastName, c.CompanyName = sc.first, sc.last, sc.company
		c.Segment = sc.segment
		c.Phone = "+387 33 123 456"
		c.City = "Sarajevo"
		c.QualificationScore = 50
		if sc.first != "" {
			c.Email = fmt.Sprintf("%s@email.ba", sc.first)
		}
		if sc.stage != customer.StageSuspect {
			if err := c.Advance(sc.stage, now.AddDate(0, 0, -10)); err != nil {
				return err
			}
		}
		if err := s.Customers.Create(ctx, c); err != nil {
			return fmt.Errorf("create sample customer: %w", err)
		}
		created = append(created, c)
	}

	opps := []struct {
		name    string
		product opportunity.ProductLine
		stage   opportunity.Stage
		amount  int64
		prob    int
		closeIn int
	}{
		{"Stambeni kredit", opportunity.ProductMortgage, opportunity.StageProposal, 150000, 60, 30},
		{"Kreditna kartica", opportunity.ProductCreditCard, opportunity.StageNegotiation, 5000, 75, 15},
	}
	for i, spec := range opps {
		o := opportunity.New(created[i].ID, owner.ID, owner.UnitID, now)
		o.Name = spec.name
		o.ProductLine = spec.product
		o.Amount = decimal.NewFromInt(spec.amount)
		if err := o.MoveTo(spec.stage, now); err != nil {
			return err
		}
		o.Probability = spec.prob
		closeDate := now.AddDate(0, 0, spec.closeIn)
		o.ExpectedCloseDate = &closeDate
		if err := s.Opportunities.Create(ctx, o); err != nil {
			return fmt.Errorf("create sample opportunity: %w", err)
		}
	}

	deadline := now.Add(48 * time.Hour)
	followUp := &task.Task{
		ID:           uuid.New(),
		Title:        "Poslati ponudu za stambeni kredit",
		Kind:         "follow_up",
		Priority:     task.PriorityHigh,
		Status:       task.StatusPending,
		CustomerID:   &created[1].ID,
		AssigneeID:   owner.ID,
		AssignedByID: manager.ID,
		DueAt:        now.AddDate(0, 0, 2),
		SLADeadline:  &deadline,
		OwningUnitID: owner.UnitID,
		Version:      1,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Tasks.Create(ctx, followUp); err != nil {
		return fmt.Errorf("create sample task: %w", err)
	}

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	t := &target.Target{
		ID:            uuid.New(),
		Name:          "Mjesečni cilj - Krediti",
		Type:          target.TypeRevenue,
		Period:        target.PeriodMonthly,
		StartDate:     start,
		EndDate:       start.AddDate(0, 1, 0).Add(-time.Second),
		TargetValue:   decimal.NewFromInt(500000),
		AchievedValue: decimal.Zero,
		AssigneeID:    owner.ID,
		OwningUnitID:  owner.UnitID,
		CreatedBy:     manager.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.Targets.Create(ctx, t); err != nil {
		return fmt.Errorf("create sample target: %w", err)
	}
	if _, err := s.Targets.RecordAchievement(ctx, &target.Achievement{
		ID:         uuid.New(),
		TargetID:   t.ID,
		Value:      decimal.NewFromInt(150000),
		AchievedAt: now,
		Notes:      "opening balance",
		RecordedBy: manager.ID,
	}); err != nil {
		return fmt.Errorf("record sample achievement: %w", err)
	}

	log.WithFields(logrus.Fields{
		"owner":         ownerUsername,
		"customers":     len(created),
		"opportunities": len(opps),
	}).Info("seeded sample data")
	return nil
}
