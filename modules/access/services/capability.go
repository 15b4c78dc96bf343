package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/jacksonlee411/branch-crm/modules/logging/domain/entities/auditrecord"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	"github.com/jacksonlee411/branch-crm/pkg/authz"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

// Capability objects checked before record-level evaluation.
var (
	ObjectCustomers     = authz.ObjectName("crm", "customers")
	ObjectOpportunities = authz.ObjectName("crm", "opportunities")
	ObjectActivities    = authz.ObjectName("crm", "activities")
	ObjectTargets       = authz.ObjectName("crm", "targets")
	ObjectTasks         = authz.ObjectName("crm", "tasks")
	ObjectAnalytics     = authz.ObjectName("crm", "analytics")
	ObjectAudit         = authz.ObjectName("logging", "audit")
)

// Capabilities gates operation kinds by the actor's layer role.
type Capabilities struct {
	authorizer authz.Authorizer
	sink       auditrecord.Sink
}

type CapabilityOption func(*Capabilities)

// WithDenialAudit appends a deny record for every refused capability.
func WithDenialAudit(sink auditrecord.Sink) CapabilityOption {
	return func(c *Capabilities) {
		c.sink = sink
	}
}

func NewCapabilities(authorizer authz.Authorizer, opts ...CapabilityOption) *Capabilities {
	c := &Capabilities{authorizer: authorizer}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Capabilities) Require(ctx context.Context, actor *staff.User, object string, action Action) error {
	if actor == nil || !actor.Active {
		return serrors.AccessDenied("inactive or unknown user")
	}
	err := c.authorizer.Authorize(ctx, authz.NewRequest(authz.SubjectForRole(actor.Layer.String()), object, string(action)))
	if !errors.Is(err, authz.ErrForbidden) {
		return err
	}
	if c.sink != nil {
		record := &auditrecord.AuditRecord{
			ActorID:       actor.ID,
			ActorUsername: actor.Username,
			Action:        string(action),
			ResourceType:  object,
			Decision:      auditrecord.DecisionDeny,
			Reason:        auditrecord.ReasonMissingCapability,
			RequestID:     composables.UseRequestID(ctx),
			CreatedAt:     time.Now().UTC(),
		}
		if aErr := c.sink.Append(ctx, record); aErr != nil {
			return serrors.AuditWriteFailure(aErr)
		}
	}
	msg := fmt.Sprintf("%s layer may not %s %s", actor.Layer, action, object)
	return serrors.NewServiceError(http.StatusForbidden, serrors.CodeAccessDenied, msg, err)
}
