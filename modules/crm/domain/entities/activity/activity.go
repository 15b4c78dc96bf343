package activity

import (
	"time"

	"github.com/google/uuid"
)

type Type string

const (
	TypeCall     Type = "call"
	TypeEmail    Type = "email"
	TypeMeeting  Type = "meeting"
	TypeNote     Type = "note"
	TypeTask     Type = "task"
	TypeSMS      Type = "sms"
	TypeWhatsApp Type = "whatsapp"
)

// Activity is an interaction logged against a customer, optionally tied to
// one of its opportunities. It is owned by the logging user's unit.
type Activity struct {
	ID            uuid.UUID
	Type          Type
	Subject       string
	Description   string
	CustomerID    uuid.UUID
	OpportunityID *uuid.UUID
	OccurredAt    time.Time
	Outcome       string
	OwnerID       uuid.UUID
	OwningUnitID  uuid.UUID
	Sensitive     bool
	CreatedAt     time.Time
}
