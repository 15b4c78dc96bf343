package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/jacksonlee411/branch-crm/modules/logging/domain/entities/auditrecord"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/orgunit"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
	orgservices "github.com/jacksonlee411/branch-crm/modules/org/services"
	"github.com/jacksonlee411/branch-crm/pkg/composables"
	"github.com/jacksonlee411/branch-crm/pkg/serrors"
)

const reasonEvaluationError = "evaluation_error"

var tracer = otel.Tracer("branch-crm/access")

// Guard runs after a non-DENY decision and before the audit write. A guard
// error is recorded on the same audit record and returned to the caller.
type Guard func(decision Decision) error

type evaluateOptions struct {
	guard Guard
}

type EvaluateOption func(*evaluateOptions)

func WithGuard(g Guard) EvaluateOption {
	return func(o *evaluateOptions) {
		o.guard = g
	}
}

type Evaluator struct {
	directory     orgservices.Directory
	sink          auditrecord.Sink
	maskThreshold orgunit.Layer
	logger        *logrus.Entry
	now           func() time.Time
}

type EvaluatorOption func(*Evaluator)

// WithMaskThreshold sets the highest layer that reads sensitive data masked.
// The zero layer disables masking.
func WithMaskThreshold(l orgunit.Layer) EvaluatorOption {
	return func(e *Evaluator) {
		e.maskThreshold = l
	}
}

func WithLogger(l *logrus.Logger) EvaluatorOption {
	return func(e *Evaluator) {
		e.logger = l.WithField("component", "access")
	}
}

func WithClock(now func() time.Time) EvaluatorOption {
	return func(e *Evaluator) {
		e.now = now
	}
}

func NewEvaluator(directory orgservices.Directory, sink auditrecord.Sink, opts ...EvaluatorOption) *Evaluator {
	e := &Evaluator{
		directory:     directory,
		sink:          sink,
		maskThreshold: orgunit.LayerBranch,
		logger:        logrus.WithField("component", "access"),
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate decides whether actor may perform action on res and appends
// exactly one audit record before returning. If the audit append fails the
// decision is DENY and the error is AuditWriteFailure.
func (e *Evaluator) Evaluate(ctx context.Context, actor *staff.User, action Action, res Resource, opts ...EvaluateOption) (Decision, error) {
	o := evaluateOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, span := tracer.Start(ctx, "access.Evaluate", trace.WithAttributes(
		attribute.String("access.resource_type", string(res.Type)),
		attribute.String("access.action", string(action)),
	))
	defer span.End()
	start := e.now()

	decision, reason, evalErr := e.decide(ctx, actor, action, res)
	var guardErr error
	if evalErr == nil && decision != Deny && o.guard != nil {
		if guardErr = o.guard(decision); guardErr != nil {
			reason = guardReason(guardErr)
		}
	}

	record := e.auditRecord(ctx, actor, action, res, decision, reason)
	if err := e.sink.Append(ctx, record); err != nil {
		recordAuditFailure(res.Type)
		span.RecordError(err)
		span.SetStatus(codes.Error, "audit append failed")
		e.entry(ctx, actor, action, res).WithError(err).Error("audit append failed, aborting")
		return Deny, serrors.AuditWriteFailure(err)
	}

	recordDecision(res.Type, action, decision, e.now().Sub(start))
	span.SetAttributes(
		attribute.String("access.decision", string(decision)),
		attribute.String("access.reason", reason),
	)

	if evalErr != nil {
		span.RecordError(evalErr)
		return Deny, evalErr
	}
	if decision == Deny {
		e.entry(ctx, actor, action, res).WithField("reason", reason).Info("access denied")
	}
	if guardErr != nil {
		return decision, guardErr
	}
	return decision, nil
}

// Authorize is Evaluate with DENY reported as AccessDenied.
func (e *Evaluator) Authorize(ctx context.Context, actor *staff.User, action Action, res Resource, opts ...EvaluateOption) (Decision, error) {
	decision, err := e.Evaluate(ctx, actor, action, res, opts...)
	if err != nil {
		return decision, err
	}
	if decision == Deny {
		return decision, serrors.AccessDenied(fmt.Sprintf("%s on %s is not permitted", action, res.Type))
	}
	return decision, nil
}

func (e *Evaluator) decide(ctx context.Context, actor *staff.User, action Action, res Resource) (Decision, string, error) {
	if actor == nil || !actor.Active {
		return Deny, auditrecord.ReasonInactiveUser, nil
	}
	visible, err := VisibleUnits(ctx, e.directory, actor)
	if err != nil {
		return Deny, reasonEvaluationError, err
	}
	if !visible.Contains(res.OwningUnitID) {
		return Deny, auditrecord.ReasonOutsideScope, nil
	}
	if res.Sensitive && e.masks(actor.Layer) {
		if action.IsMutation() {
			return Deny, auditrecord.ReasonMaskedReadOnly, nil
		}
		return AllowMasked, auditrecord.ReasonSensitiveMasked, nil
	}
	return Allow, auditrecord.ReasonVisible, nil
}

// MasksFor reports whether actor reads sensitive records masked.
func (e *Evaluator) MasksFor(actor *staff.User) bool {
	return actor != nil && e.masks(actor.Layer)
}

func (e *Evaluator) masks(layer orgunit.Layer) bool {
	return e.maskThreshold != 0 && layer.AtOrBelow(e.maskThreshold)
}

func (e *Evaluator) auditRecord(ctx context.Context, actor *staff.User, action Action, res Resource, decision Decision, reason string) *auditrecord.AuditRecord {
	owning := res.OwningUnitID
	record := &auditrecord.AuditRecord{
		Action:       string(action),
		ResourceType: string(res.Type),
		ResourceID:   res.ID,
		OwningUnitID: &owning,
		Decision:     decision,
		Reason:       reason,
		RequestID:    composables.UseRequestID(ctx),
		CreatedAt:    e.now().UTC(),
	}
	if owning == uuid.Nil {
		record.OwningUnitID = nil
	}
	if actor != nil {
		record.ActorID = actor.ID
		record.ActorUsername = actor.Username
	}
	return record
}

func (e *Evaluator) entry(ctx context.Context, actor *staff.User, action Action, res Resource) *logrus.Entry {
	fields := logrus.Fields{
		"action":        action,
		"resource_type": res.Type,
		"resource_id":   res.ID,
	}
	if actor != nil {
		fields["actor_id"] = actor.ID
	}
	return e.logger.WithContext(ctx).WithFields(fields)
}

func guardReason(err error) string {
	switch {
	case errors.Is(err, serrors.ErrInvalidTransition):
		return auditrecord.ReasonInvalidTransition
	default:
		return auditrecord.ReasonRejected
	}
}
