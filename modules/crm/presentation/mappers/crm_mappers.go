package mappers

import (
	"time"

	"github.com/google/uuid"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/customer"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/opportunity"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/aggregates/target"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/activity"
	"github.com/jacksonlee411/branch-crm/modules/crm/domain/entities/task"
	"github.com/jacksonlee411/branch-crm/modules/crm/presentation/viewmodels"
	"github.com/jacksonlee411/branch-crm/modules/crm/services"
)

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := formatTime(*t)
	return &s
}

func formatUUIDPtr(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}

// CustomerToViewModel renders v. A masked decision rewrites the tagged
// fields before the view model is returned.
func CustomerToViewModel(v accessservices.Visible[*customer.Customer]) viewmodels.Customer {
	c := v.Item
	vm := viewmodels.Customer{
		ID:          c.ID.String(),
		DisplayName: c.DisplayName(),
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		CompanyName: c.CompanyName,
		Email:       c.Email,
		Phone:       c.Phone,
		City:        c.City,
		Segment:     string(c.Segment),
		Stage:       string(c.Stage),
		StageDates: viewmodels.Stages{
			SuspectAt:  formatTimePtr(c.StageDates.SuspectAt),
			ProspectAt: formatTimePtr(c.StageDates.ProspectAt),
			LeadAt:     formatTimePtr(c.StageDates.LeadAt),
			CustomerAt: formatTimePtr(c.StageDates.CustomerAt),
		},
		AccountNumber:      c.AccountNumber,
		EstimatedAssets:    c.EstimatedAssets.StringFixed(2),
		HighNetWorth:       c.HighNetWorth,
		QualificationScore: c.QualificationScore,
		OwnerID:            c.OwnerID.String(),
		OwningUnitID:       c.OwningUnitID.String(),
		LastContactAt:      formatTimePtr(c.LastContactAt),
		Version:            c.Version,
		Masked:             v.Masked(),
		CreatedAt:          formatTime(c.CreatedAt),
		UpdatedAt:          formatTime(c.UpdatedAt),
	}
	if vm.Masked {
		accessservices.Mask(&vm)
	}
	return vm
}

func OpportunityToViewModel(v accessservices.Visible[*opportunity.Opportunity]) viewmodels.Opportunity {
	o := v.Item
	vm := viewmodels.Opportunity{
		ID:                o.ID.String(),
		Name:              o.Name,
		CustomerID:        o.CustomerID.String(),
		ProductLine:       string(o.ProductLine),
		Stage:             string(o.Stage),
		Amount:            o.Amount.StringFixed(2),
		Probability:       o.Probability,
		ExpectedRevenue:   o.ExpectedRevenue().StringFixed(2),
		ExpectedCloseDate: formatTimePtr(o.ExpectedCloseDate),
		WonAt:             formatTimePtr(o.WonAt),
		LostAt:            formatTimePtr(o.LostAt),
		LostReason:        string(o.LostReason),
		Competitor:        o.Competitor,
		OwnerID:           o.OwnerID.String(),
		OwningUnitID:      o.OwningUnitID.String(),
		Version:           o.Version,
		Masked:            v.Masked(),
		CreatedAt:         formatTime(o.CreatedAt),
	}
	if vm.Masked {
		accessservices.Mask(&vm)
	}
	return vm
}

func ActivityToViewModel(v accessservices.Visible[*activity.Activity]) viewmodels.Activity {
	a := v.Item
	vm := viewmodels.Activity{
		ID:            a.ID.String(),
		Type:          string(a.Type),
		Subject:       a.Subject,
		Description:   a.Description,
		CustomerID:    a.CustomerID.String(),
		OpportunityID: formatUUIDPtr(a.OpportunityID),
		OccurredAt:    formatTime(a.OccurredAt),
		Outcome:       a.Outcome,
		OwnerID:       a.OwnerID.String(),
		OwningUnitID:  a.OwningUnitID.String(),
		Masked:        v.Masked(),
	}
	if vm.Masked {
		accessservices.Mask(&vm)
	}
	return vm
}

// TaskToViewModel reports open tasks past their due date as overdue.
func TaskToViewModel(v accessservices.Visible[*task.Task], now time.Time) viewmodels.Task {
	t := v.Item
	vm := viewmodels.Task{
		ID:              t.ID.String(),
		Title:           t.Title,
		Description:     t.Description,
		Kind:            t.Kind,
		Priority:        string(t.Priority),
		Status:          string(t.StatusAt(now)),
		CustomerID:      formatUUIDPtr(t.CustomerID),
		OpportunityID:   formatUUIDPtr(t.OpportunityID),
		AssigneeID:      t.AssigneeID.String(),
		AssignedByID:    t.AssignedByID.String(),
		DueAt:           formatTime(t.DueAt),
		SLADeadline:     formatTimePtr(t.SLADeadline),
		SLABreached:     t.SLABreached(now),
		CompletedAt:     formatTimePtr(t.CompletedAt),
		EscalationLevel: t.EscalationLevel,
		EscalatedToID:   formatUUIDPtr(t.EscalatedToID),
		OwningUnitID:    t.OwningUnitID.String(),
		Version:         t.Version,
		Masked:          v.Masked(),
	}
	if vm.Masked {
		accessservices.Mask(&vm)
	}
	return vm
}

// TargetToViewModel reports on-track status only while the target is
// active at now.
func TargetToViewModel(t *target.Target, now time.Time) viewmodels.Target {
	vm := viewmodels.Target{
		ID:                 t.ID.String(),
		Name:               t.Name,
		Type:               string(t.Type),
		Period:             string(t.Period),
		StartDate:          formatTime(t.StartDate),
		EndDate:            formatTime(t.EndDate),
		TargetValue:        t.TargetValue.StringFixed(2),
		AchievedValue:      t.AchievedValue.StringFixed(2),
		AchievementPercent: t.AchievementPercent().StringFixed(2),
		AssigneeID:         t.AssigneeID.String(),
		OwningUnitID:       t.OwningUnitID.String(),
	}
	if onTrack, active := t.OnTrack(now); active {
		vm.OnTrack = &onTrack
	}
	return vm
}

func AchievementToViewModel(a *target.Achievement) viewmodels.Achievement {
	return viewmodels.Achievement{
		ID:            a.ID.String(),
		Value:         a.Value.StringFixed(2),
		AchievedAt:    formatTime(a.AchievedAt),
		OpportunityID: formatUUIDPtr(a.OpportunityID),
		Notes:         a.Notes,
		RecordedBy:    a.RecordedBy.String(),
	}
}

func FunnelToViewModel(stages []services.FunnelStage) []viewmodels.FunnelStage {
	out := make([]viewmodels.FunnelStage, 0, len(stages))
	for _, s := range stages {
		out = append(out, viewmodels.FunnelStage{Stage: string(s.Stage), Count: s.Count})
	}
	return out
}

func PipelineToViewModel(totals []opportunity.StageTotal) []viewmodels.PipelineStage {
	out := make([]viewmodels.PipelineStage, 0, len(totals))
	for _, t := range totals {
		out = append(out, viewmodels.PipelineStage{
			Stage:           string(t.Stage),
			Count:           t.Count,
			Withheld:        t.Withheld,
			Amount:          t.Amount.StringFixed(2),
			ExpectedRevenue: t.ExpectedRevenue.StringFixed(2),
		})
	}
	return out
}

func WinRateToViewModel(w *services.WinRate) viewmodels.WinRate {
	return viewmodels.WinRate{
		Since:   formatTime(w.Since),
		Won:     w.Won,
		Lost:    w.Lost,
		Percent: w.Percent.StringFixed(2),
	}
}
