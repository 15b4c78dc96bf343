package auditrecord

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/pkg/repo"
)

// Decision is the outcome of an access evaluation.
type Decision string

const (
	DecisionAllow       Decision = "allow"
	DecisionAllowMasked Decision = "allow_masked"
	DecisionDeny        Decision = "deny"
)

func (d Decision) Valid() bool {
	switch d {
	case DecisionAllow, DecisionAllowMasked, DecisionDeny:
		return true
	}
	return false
}

// Reasons recorded alongside a decision.
const (
	ReasonVisible           = "visible"
	ReasonSensitiveMasked   = "sensitive_masked"
	ReasonOutsideScope      = "outside_scope"
	ReasonInactiveUser      = "inactive_user"
	ReasonMaskedReadOnly    = "masked_read_only"
	ReasonInvalidTransition = "invalid_transition"
	ReasonRejected          = "rejected"
	ReasonDirectoryChange   = "directory_change"
	ReasonMissingCapability = "missing_capability"
)

// AuditRecord is immutable once appended.
type AuditRecord struct {
	ID            int64
	ActorID       uuid.UUID
	ActorUsername string
	Action        string
	ResourceType  string
	ResourceID    string
	OwningUnitID  *uuid.UUID
	Decision      Decision
	Reason        string
	RequestID     string
	CreatedAt     time.Time
}

type FindParams struct {
	ActorID      *uuid.UUID
	ResourceType string
	ResourceID   string
	Decision     Decision
	From         *time.Time
	To           *time.Time
	// Scope limits results to records about units the reader may see.
	Scope  repo.UnitScope
	Limit  int
	Offset int
}

// Sink is the durable append-only destination for audit records.
type Sink interface {
	Append(ctx context.Context, record *AuditRecord) error
}

type Repository interface {
	Sink
	List(ctx context.Context, params *FindParams) ([]*AuditRecord, error)
	Count(ctx context.Context, params *FindParams) (int64, error)
}
