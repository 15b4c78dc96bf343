package persistence

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/target"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/activity"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/task"
	"github.com/jacksonlee411/branch-crm/modules/crm/infrastructure/persistence/models"
)

func pgUUID(id uuid.UUID) pgtype.UUID {
	return pgtype.UUID{Bytes: id, Valid: id != uuid.Nil}
}

func pgUUIDPtr(id *uuid.UUID) pgtype.UUID {
	if id == nil {
		return pgtype.UUID{}
	}
	return pgUUID(*id)
}

func fromPgUUID(id pgtype.UUID) uuid.UUID {
	return uuid.UUID(id.Bytes)
}

func fromPgUUIDPtr(id pgtype.UUID) *uuid.UUID {
	if !id.Valid {
		return nil
	}
	v := uuid.UUID(id.Bytes)
	return &v
}

func toDBCustomer(c *customer.Customer) *models.Customer {
	return &models.Customer{
		ID:                 pgUUID(c.ID),
		FirstName:          c.FirstName,
		LastName:           c.LastName,
		CompanyName:        c.CompanyName,
		Email:              c.Email,
		Phone:              c.Phone,
		City:               c.City,
		Segment:            string(c.Segment),
		Stage:              string(c.Stage),
		SuspectAt:          c.StageDates.SuspectAt,
		ProspectAt:         c.StageDates.ProspectAt,
		LeadAt:             c.StageDates.LeadAt,
		CustomerAt:         c.StageDates.CustomerAt,
		AccountNumber:      c.AccountNumber,
		EstimatedAssets:    c.EstimatedAssets,
		HighNetWorth:       c.HighNetWorth,
		QualificationScore: int32(c.QualificationScore),
		OwnerID:            pgUUID(c.OwnerID),
		OwningUnitID:       pgUUID(c.OwningUnitID),
		LastContactAt:      c.LastContactAt,
		Version:            int32(c.Version),
		CreatedAt:          c.CreatedAt,
		UpdatedAt:          c.UpdatedAt,
	}
}

func toDomainCustomer(row *models.Customer) *customer.Customer {
	return &customer.Customer{
		ID:          fromPgUUID(row.ID),
		FirstName:   row.FirstName,
		LastName:    row.LastName,
		CompanyName: row.CompanyName,
		Email:       row.Email,
		Phone:       row.Phone,
		City:        row.City,
		Segment:     customer.Segment(row.Segment),
		Stage:       customer.Stage(row.Stage),
		StageDates: customer.StageDates{
			SuspectAt:  row.SuspectAt,
			ProspectAt: row.ProspectAt,
			LeadAt:     row.LeadAt,
			CustomerAt: row.CustomerAt,
		},
		AccountNumber:      row.AccountNumber,
		EstimatedAssets:    row.EstimatedAssets,
		HighNetWorth:       row.HighNetWorth,
		QualificationScore: int(row.QualificationScore),
		OwnerID:            fromPgUUID(row.OwnerID),
		OwningUnitID:       fromPgUUID(row.OwningUnitID),
		LastContactAt:      row.LastContactAt,
		Version:            int(row.Version),
		CreatedAt:          row.CreatedAt,
		UpdatedAt:          row.UpdatedAt,
	}
}

func toDBOpportunity(o *opportunity.Opportunity) *models.Opportunity {
	return &models.Opportunity{
		ID:                pgUUID(o.ID),
		Name:              o.Name,
		CustomerID:        pgUUID(o.CustomerID),
		ProductLine:       string(o.ProductLine),
		Stage:             string(o.Stage),
		Amount:            o.Amount,
		Probability:       int32(o.Probability),
		ExpectedCloseDate: o.ExpectedCloseDate,
		WonAt:             o.WonAt,
		LostAt:            o.LostAt,
		LostReason:        string(o.LostReason),
		Competitor:        o.Competitor,
		OwnerID:           pgUUID(o.OwnerID),
		OwningUnitID:      pgUUID(o.OwningUnitID),
		Sensitive:         o.Sensitive,
		Version:           int32(o.Version),
		CreatedAt:         o.CreatedAt,
		UpdatedAt:         o.UpdatedAt,
	}
}

func toDomainOpportunity(row *models.Opportunity) *opportunity.Opportunity {
	return &opportunity.Opportunity{
		ID:                fromPgUUID(row.ID),
		Name:              row.Name,
		CustomerID:        fromPgUUID(row.CustomerID),
		ProductLine:       opportunity.ProductLine(row.ProductLine),
		Stage:             opportunity.Stage(row.Stage),
		Amount:            row.Amount,
		Probability:       int(row.Probability),
		ExpectedCloseDate: row.ExpectedCloseDate,
		WonAt:             row.WonAt,
		LostAt:            row.LostAt,
		LostReason:        opportunity.LostReason(row.LostReason),
		Competitor:        row.Competitor,
		OwnerID:           fromPgUUID(row.OwnerID),
		OwningUnitID:      fromPgUUID(row.OwningUnitID),
		Sensitive:         row.Sensitive,
		Version:           int(row.Version),
		CreatedAt:         row.CreatedAt,
		UpdatedAt:         row.UpdatedAt,
	}
}

func toDBActivity(a *activity.Activity) *models.Activity {
	return &models.Activity{
		ID:            pgUUID(a.ID),
		Type:          string(a.Type),
		Subject:       a.Subject,
		Description:   a.Description,
		CustomerID:    pgUUID(a.CustomerID),
		OpportunityID: pgUUIDPtr(a.OpportunityID),
		OccurredAt:    a.OccurredAt,
		Outcome:       a.Outcome,
		OwnerID:       pgUUID(a.OwnerID),
		OwningUnitID:  pgUUID(a.OwningUnitID),
		Sensitive:     a.Sensitive,
		CreatedAt:     a.CreatedAt,
	}
}

func toDomainActivity(row *models.Activity) *activity.Activity {
	return &activity.Activity{
		ID:            fromPgUUID(row.ID),
		Type:          activity.Type(row.Type),
		Subject:       row.Subject,
		Description:   row.Description,
		CustomerID:    fromPgUUID(row.CustomerID),
		OpportunityID: fromPgUUIDPtr(row.OpportunityID),
		OccurredAt:    row.OccurredAt,
		Outcome:       row.Outcome,
		OwnerID:       fromPgUUID(row.OwnerID),
		OwningUnitID:  fromPgUUID(row.OwningUnitID),
		Sensitive:     row.Sensitive,
		CreatedAt:     row.CreatedAt,
	}
}

func toDBTarget(t *target.Target) *models.Target {
	return &models.Target{
		ID:            pgUUID(t.ID),
		Name:          t.Name,
		Type:          string(t.Type),
		Period:        string(t.Period),
		StartDate:     t.StartDate,
		EndDate:       t.EndDate,
		TargetValue:   t.TargetValue,
		AchievedValue: t.AchievedValue,
		AssigneeID:    pgUUID(t.AssigneeID),
		OwningUnitID:  pgUUID(t.OwningUnitID),
		CreatedBy:     pgUUID(t.CreatedBy),
		CreatedAt:     t.CreatedAt,
		UpdatedAt:     t.UpdatedAt,
	}
}

func toDomainTarget(row *models.Target) *target.Target {
	return &target.Target{
		ID:            fromPgUUID(row.ID),
		Name:          row.Name,
		Type:          target.Type(row.Type),
		Period:        target.Period(row.Period),
		StartDate:     row.StartDate,
		EndDate:       row.EndDate,
		TargetValue:   row.TargetValue,
		AchievedValue: row.AchievedValue,
		AssigneeID:    fromPgUUID(row.AssigneeID),
		OwningUnitID:  fromPgUUID(row.OwningUnitID),
		CreatedBy:     fromPgUUID(row.CreatedBy),
		CreatedAt:     row.CreatedAt,
		UpdatedAt:     row.UpdatedAt,
	}
}

func toDomainAchievement(row *models.TargetAchievement) *target.Achievement {
	return &target.Achievement{
		ID:            fromPgUUID(row.ID),
		TargetID:      fromPgUUID(row.TargetID),
		Value:         row.Value,
		AchievedAt:    row.AchievedAt,
		OpportunityID: fromPgUUIDPtr(row.OpportunityID),
		Notes:         row.Notes,
		RecordedBy:    fromPgUUID(row.RecordedBy),
	}
}

func toDBTask(t *task.Task) *models.Task {
	return &models.Task{
		ID:              pgUUID(t.ID),
		Title:           t.Title,
		Description:     t.Description,
		Kind:            t.Kind,
		Priority:        string(t.Priority),
		Status:          string(t.Status),
		CustomerID:      pgUUIDPtr(t.CustomerID),
		OpportunityID:   pgUUIDPtr(t.OpportunityID),
		AssigneeID:      pgUUID(t.AssigneeID),
		AssignedByID:    pgUUID(t.AssignedByID),
		DueAt:           t.DueAt,
		SLADeadline:     t.SLADeadline,
		CompletedAt:     t.CompletedAt,
		EscalationLevel: int32(t.EscalationLevel),
		EscalatedToID:   pgUUIDPtr(t.EscalatedToID),
		EscalatedAt:     t.EscalatedAt,
		OwningUnitID:    pgUUID(t.OwningUnitID),
		Sensitive:       t.Sensitive,
		Version:         int32(t.Version),
		CreatedAt:       t.CreatedAt,
		UpdatedAt:       t.UpdatedAt,
	}
}

func toDomainTask(row *models.Task) *task.Task {
	return &task.Task{
		ID:              fromPgUUID(row.ID),
		Title:           row.Title,
		Description:     row.Description,
		Kind:            row.Kind,
		Priority:        task.Priority(row.Priority),
		Status:          task.Status(row.Status),
		CustomerID:      fromPgUUIDPtr(row.CustomerID),
		OpportunityID:   fromPgUUIDPtr(row.OpportunityID),
		AssigneeID:      fromPgUUID(row.AssigneeID),
		AssignedByID:    fromPgUUID(row.AssignedByID),
		DueAt:           row.DueAt,
		SLADeadline:     row.SLADeadline,
		CompletedAt:     row.CompletedAt,
		EscalationLevel: int(row.EscalationLevel),
		EscalatedToID:   fromPgUUIDPtr(row.EscalatedToID),
		EscalatedAt:     row.EscalatedAt,
		OwningUnitID:    fromPgUUID(row.OwningUnitID),
		Sensitive:       row.Sensitive,
		Version:         int(row.Version),
		CreatedAt:       row.CreatedAt,
		UpdatedAt:       row.UpdatedAt,
	}
}
