package services

import (
	"context"

	"github.com/go-faster/errors"

	accessservices "github.com/jacksonlee411/branch-crm/modules/access/services"
	"github.com/jacksonlee411/branch-crm/modules/logging/domain/entities/auditrecord"
	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
)

// AuditService is the audit sink for the rest of the application and the
// scoped reader behind the audit log endpoint.
type AuditService struct {
	repo         auditrecord.Repository
	scoper       *accessservices.Scoper
	capabilities *accessservices.Capabilities
}

func NewAuditService(
	repo auditrecord.Repository,
	scoper *accessservices.Scoper,
	capabilities *accessservices.Capabilities,
) *AuditService {
	return &AuditService{
		repo:         repo,
		scoper:       scoper,
		capabilities: capabilities,
	}
}

func (s *AuditService) Append(ctx context.Context, record *auditrecord.AuditRecord) error {
	if record == nil {
		return errors.New("audit record payload is required")
	}
	if !record.Decision.Valid() {
		return errors.Errorf("invalid audit decision %q", record.Decision)
	}
	return s.repo.Append(ctx, record)
}

// ListAuditRecords returns records about units the reader may see. Records
// without an owning unit are only visible to readers with unbounded scope.
func (s *AuditService) ListAuditRecords(
	ctx context.Context,
	actor *staff.User,
	params *auditrecord.FindParams,
) ([]*auditrecord.AuditRecord, int64, error) {
	if err := s.capabilities.Require(ctx, actor, accessservices.ObjectAudit, accessservices.ActionView); err != nil {
		return nil, 0, err
	}
	scope, err := s.scoper.Scope(ctx, actor, accessservices.ResourceAuditRecord)
	if err != nil {
		return nil, 0, err
	}
	if params == nil {
		params = &auditrecord.FindParams{}
	}
	params.Scope = scope

	records, err := s.repo.List(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	count, err := s.repo.Count(ctx, params)
	if err != nil {
		return nil, 0, err
	}
	return records, count, nil
}
