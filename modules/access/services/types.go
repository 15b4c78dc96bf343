package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/modules/logging/domain/entities/auditrecord"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
)

type ResourceType string

const (
	ResourceCustomer    ResourceType = "customer"
	ResourceOpportunity ResourceType = "opportunity"
	ResourceActivity    ResourceType = "activity"
	ResourceTarget      ResourceType = "target"
	ResourceTask        ResourceType = "task"
	ResourceAuditRecord ResourceType = "audit_record"
)

type Action string

const (
	ActionView              Action = "view"
	ActionCreate            Action = "create"
	ActionEdit              Action = "edit"
	ActionAdvanceStage      Action = "advance_stage"
	ActionRecordAchievement Action = "record_achievement"
	ActionReassign          Action = "reassign"
	ActionEscalate          Action = "escalate"
)

// IsMutation reports whether the action changes state. Mutations need a
// plain ALLOW.
func (a Action) IsMutation() bool {
	return a != ActionView
}

type Decision = auditrecord.Decision

const (
	Allow       = auditrecord.DecisionAllow
	AllowMasked = auditrecord.DecisionAllowMasked
	Deny        = auditrecord.DecisionDeny
)

// Resource is the access-relevant view of a business record.
type Resource struct {
	Type         ResourceType
	ID           string
	OwningUnitID uuid.UUID
	Sensitive    bool
}

// ParseMaskThreshold maps a configuration value to a layer. "none" disables
// masking and yields the zero layer.
func ParseMaskThreshold(s string) (orgunit.Layer, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "none" || s == "" {
		return 0, nil
	}
	l, err := orgunit.ParseLayer(s)
	if err != nil {
		return 0, fmt.Errorf("mask threshold: %w", err)
	}
	return l, nil
}
