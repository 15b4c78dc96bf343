package testkit

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/jacksonlee411/branch-crm/modules/logging/domain/entities/auditrecord"
)

var ErrSinkUnavailable = errors.New("audit sink unavailable")

// AuditSink records appended audit records in memory. Setting Fail makes
// every append return ErrSinkUnavailable.
type AuditSink struct {
	mu      sync.Mutex
	records []*auditrecord.AuditRecord
	Fail    bool
}

func NewAuditSink() *AuditSink {
	return &AuditSink{}
}

func (s *AuditSink) Append(ctx context.Context, record *auditrecord.AuditRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Fail {
		return ErrSinkUnavailable
	}
	copied := *record
	copied.ID = int64(len(s.records) + 1)
	record.ID = copied.ID
	s.records = append(s.records, &copied)
	return nil
}

func (s *AuditSink) SetFail(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Fail = fail
}

func (s *AuditSink) Records() []*auditrecord.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*auditrecord.AuditRecord(nil), s.records...)
}

func (s *AuditSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

func (s *AuditSink) Last() *auditrecord.AuditRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.records) == 0 {
		return nil
	}
	return s.records[len(s.records)-1]
}

type unitFilter interface {
	Unbounded() bool
	Contains(id uuid.UUID) bool
}

// List filters by the fields tests use. A Scope that can answer Contains is
// applied the way the SQL clause would be.
func (s *AuditSink) List(_ context.Context, params *auditrecord.FindParams) ([]*auditrecord.AuditRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*auditrecord.AuditRecord
	for i := len(s.records) - 1; i >= 0; i-- {
		r := s.records[i]
		if params != nil {
			if f, ok := params.Scope.(unitFilter); ok && !f.Unbounded() {
				if r.OwningUnitID == nil || !f.Contains(*r.OwningUnitID) {
					continue
				}
			}
			if params.ResourceType != "" && r.ResourceType != params.ResourceType {
				continue
			}
			if params.Decision != "" && r.Decision != params.Decision {
				continue
			}
			if params.ActorID != nil && r.ActorID != *params.ActorID {
				continue
			}
		}
		copied := *r
		out = append(out, &copied)
	}
	return out, nil
}

func (s *AuditSink) Count(ctx context.Context, params *auditrecord.FindParams) (int64, error) {
	records, err := s.List(ctx, params)
	return int64(len(records)), err
}
