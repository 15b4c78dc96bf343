package persistence

import (
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/jacksonlee411/branch-crm/modules/logging/domain/entities/auditrecord"
	"github.com/jacksonlee411/branch-crm/modules/logging/infrastructure/persistence/models"
)

func toDBAuditRecord(r *auditrecord.AuditRecord) *models.AuditRecord {
	row := &models.AuditRecord{
		ID:            r.ID,
		ActorID:       r.ActorID.String(),
		ActorUsername: r.ActorUsername,
		Action:        r.Action,
		ResourceType:  r.ResourceType,
		ResourceID:    r.ResourceID,
		Decision:      string(r.Decision),
		Reason:        r.Reason,
		RequestID:     r.RequestID,
		CreatedAt:     r.CreatedAt,
	}
	if r.OwningUnitID != nil {
		row.OwningUnitID = pgtype.UUID{Bytes: *r.OwningUnitID, Valid: true}
	}
	return row
}

func toDomainAuditRecord(row *models.AuditRecord) *auditrecord.AuditRecord {
	actorID, err := uuid.Parse(row.ActorID)
	if err != nil {
		actorID = uuid.Nil
	}
	r := &auditrecord.AuditRecord{
		ID:            row.ID,
		ActorID:       actorID,
		ActorUsername: row.ActorUsername,
		Action:        row.Action,
		ResourceType:  row.ResourceType,
		ResourceID:    row.ResourceID,
		Decision:      auditrecord.Decision(row.Decision),
		Reason:        row.Reason,
		RequestID:     row.RequestID,
		CreatedAt:     row.CreatedAt,
	}
	if row.OwningUnitID.Valid {
		id := uuid.UUID(row.OwningUnitID.Bytes)
		r.OwningUnitID = &id
	}
	return r
}
