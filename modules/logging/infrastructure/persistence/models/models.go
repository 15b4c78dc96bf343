package models

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
)

type AuditRecord struct {
	ID            int64
	ActorID       string
	ActorUsername string
	Action        string
	ResourceType  string
	ResourceID    string
	OwningUnitID  pgtype.UUID
	Decision      string
	Reason        string
	RequestID     string
	CreatedAt     time.Time
}
