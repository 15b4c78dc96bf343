package models

import (
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/shopspring/decimal"
)

type Customer struct {
	ID                 pgtype.UUID
	FirstName          string
	LastName           string
	CompanyName        string
	Email              string
	Phone              string
	City               string
	Segment            string
	Stage              string
	SuspectAt          *time.Time
	ProspectAt         *time.Time
	LeadAt             *time.Time
	CustomerAt         *time.Time
	AccountNumber      string
	EstimatedAssets    decimal.Decimal
	HighNetWorth       bool
	QualificationScore int32
	OwnerID            pgtype.UUID
	OwningUnitID       pgtype.UUID
	LastContactAt      *time.Time
	Version            int32
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Opportunity struct {
	ID                pgtype.UUID
	Name              string
	CustomerID        pgtype.UUID
	ProductLine       string
	Stage             string
	Amount            decimal.Decimal
	Probability       int32
	ExpectedCloseDate *time.Time
	WonAt             *time.Time
	LostAt            *time.Time
	LostReason        string
	Competitor        string
	OwnerID           pgtype.UUID
	OwningUnitID      pgtype.UUID
	Sensitive         bool
	Version           int32
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

type Activity struct {
	ID            pgtype.UUID
	Type          string
	Subject       string
	Description   string
	CustomerID    pgtype.UUID
	OpportunityID pgtype.UUID
	OccurredAt    time.Time
	Outcome       string
	OwnerID       pgtype.UUID
	OwningUnitID  pgtype.UUID
	Sensitive     bool
	CreatedAt     time.Time
}

type Target struct {
	ID            pgtype.UUID
	Name          string
	Type          string
	Period        string
	StartDate     time.Time
	EndDate       time.Time
	TargetValue   decimal.Decimal
	AchievedValue decimal.Decimal
	AssigneeID    pgtype.UUID
	OwningUnitID  pgtype.UUID
	CreatedBy     pgtype.UUID
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

type TargetAchievement struct {
	ID            pgtype.UUID
	TargetID      pgtype.UUID
	Value         decimal.Decimal
	AchievedAt    time.Time
	OpportunityID pgtype.UUID
	Notes         string
	RecordedBy    pgtype.UUID
}

type Task struct {
	ID              pgtype.UUID
	Title           string
	Description     string
	Kind            string
	Priority        string
	Status          string
	CustomerID      pgtype.UUID
	OpportunityID   pgtype.UUID
	AssigneeID      pgtype.UUID
	AssignedByID    pgtype.UUID
	DueAt           time.Time
	SLADeadline     *time.Time
	CompletedAt     *time.Time
	EscalationLevel int32
	EscalatedToID   pgtype.UUID
	EscalatedAt     *time.Time
	OwningUnitID    pgtype.UUID
	Sensitive       bool
	Version         int32
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
