package mappers

import (
	"time"

	"github.com/jacksonlee411/branch-crm/modules/logging/domain/entities/auditrecord"
	"github.com/jacksonlee411/branch-crm/modules/logging/presentation/viewmodels"
)

func AuditRecordToViewModel(r *auditrecord.AuditRecord) *viewmodels.AuditRecord {
	vm := &viewmodels.AuditRecord{
		ID:            r.ID,
		ActorID:       r.ActorID.String(),
		ActorUsername: r.ActorUsername,
		Action:        r.Action,
		ResourceType:  r.ResourceType,
		ResourceID:    r.ResourceID,
		Decision:      string(r.Decision),
		Reason:        r.Reason,
		RequestID:     r.RequestID,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.OwningUnitID != nil {
		vm.OwningUnitID = r.OwningUnitID.String()
	}
	return vm
}
