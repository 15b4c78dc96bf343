package viewmodels

// Fields tagged mask are rewritten before a masked record leaves the
// server.

type Customer struct {
	ID                 string  `json:"id"`
	DisplayName        string  `json:"display_name"`
	FirstName          string  `json:"first_name"`
	LastName           string  `json:"last_name"`
	CompanyName        string  `json:"company_name"`
	Email              string  `json:"email" mask:"redact"`
	Phone              string  `json:"phone" mask:"account"`
	City               string  `json:"city"`
	Segment            string  `json:"segment"`
	Stage              string  `json:"stage"`
	StageDates         Stages  `json:"stage_dates"`
	AccountNumber      string  `json:"account_number" mask:"account"`
	EstimatedAssets    string  `json:"estimated_assets" mask:"redact"`
	HighNetWorth       bool    `json:"high_net_worth"`
	QualificationScore int     `json:"qualification_score"`
	OwnerID            string  `json:"owner_id"`
	OwningUnitID       string  `json:"owning_unit_id"`
	LastContactAt      *string `json:"last_contact_at,omitempty"`
	Version            int     `json:"version"`
	Masked             bool    `json:"masked"`
	CreatedAt          string  `json:"created_at"`
	UpdatedAt          string  `json:"updated_at"`
}

type Stages struct {
	SuspectAt  *string `json:"suspect_at,omitempty"`
	ProspectAt *string `json:"prospect_at,omitempty"`
	LeadAt     *string `json:"lead_at,omitempty"`
	CustomerAt *string `json:"customer_at,omitempty"`
}

type Opportunity struct {
	ID                string  `json:"id"`
	Name              string  `json:"name"`
	CustomerID        string  `json:"customer_id"`
	ProductLine       string  `json:"product_line"`
	Stage             string  `json:"stage"`
	Amount            string  `json:"amount" mask:"redact"`
	Probability       int     `json:"probability"`
	ExpectedRevenue   string  `json:"expected_revenue" mask:"redact"`
	ExpectedCloseDate *string `json:"expected_close_date,omitempty"`
	WonAt             *string `json:"won_at,omitempty"`
	LostAt            *string `json:"lost_at,omitempty"`
	LostReason        string  `json:"lost_reason,omitempty"`
	Competitor        string  `json:"competitor,omitempty"`
	OwnerID           string  `json:"owner_id"`
	OwningUnitID      string  `json:"owning_unit_id"`
	Version           int     `json:"version"`
	Masked            bool    `json:"masked"`
	CreatedAt         string  `json:"created_at"`
}

type Activity struct {
	ID            string  `json:"id"`
	Type          string  `json:"type"`
	Subject       string  `json:"subject"`
	Description   string  `json:"description" mask:"redact"`
	CustomerID    string  `json:"customer_id"`
	OpportunityID *string `json:"opportunity_id,omitempty"`
	OccurredAt    string  `json:"occurred_at"`
	Outcome       string  `json:"outcome" mask:"redact"`
	OwnerID       string  `json:"owner_id"`
	OwningUnitID  string  `json:"owning_unit_id"`
	Masked        bool    `json:"masked"`
}

type Task struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description" mask:"redact"`
	Kind            string  `json:"kind,omitempty"`
	Priority        string  `json:"priority"`
	Status          string  `json:"status"`
	CustomerID      *string `json:"customer_id,omitempty"`
	OpportunityID   *string `json:"opportunity_id,omitempty"`
	AssigneeID      string  `json:"assignee_id"`
	AssignedByID    string  `json:"assigned_by_id"`
	DueAt           string  `json:"due_at"`
	SLADeadline     *string `json:"sla_deadline,omitempty"`
	SLABreached     bool    `json:"sla_breached"`
	CompletedAt     *string `json:"completed_at,omitempty"`
	EscalationLevel int     `json:"escalation_level"`
	EscalatedToID   *string `json:"escalated_to_id,omitempty"`
	OwningUnitID    string  `json:"owning_unit_id"`
	Version         int     `json:"version"`
	Masked          bool    `json:"masked"`
}

type Target struct {
	ID                 string `json:"id"`
	Name               string `json:"name"`
	Type               string `json:"type"`
	Period             string `json:"period"`
	StartDate          string `json:"start_date"`
	EndDate            string `json:"end_date"`
	TargetValue        string `json:"target_value"`
	AchievedValue      string `json:"achieved_value"`
	AchievementPercent string `json:"achievement_percent"`
	OnTrack            *bool  `json:"on_track,omitempty"`
	AssigneeID         string `json:"assignee_id"`
	OwningUnitID       string `json:"owning_unit_id"`
}

type Achievement struct {
	ID            string  `json:"id"`
	Value         string  `json:"value"`
	AchievedAt    string  `json:"achieved_at"`
	OpportunityID *string `json:"opportunity_id,omitempty"`
	Notes         string  `json:"notes,omitempty"`
	RecordedBy    string  `json:"recorded_by"`
}

type FunnelStage struct {
	Stage string `json:"stage"`
	Count int64  `json:"count"`
}

type PipelineStage struct {
	Stage           string `json:"stage"`
	Count           int64  `json:"count"`
	Withheld        int64  `json:"withheld,omitempty"`
	Amount          string `json:"amount"`
	ExpectedRevenue string `json:"expected_revenue"`
}

type WinRate struct {
	Since   string `json:"since"`
	Won     int64  `json:"won"`
	Lost    int64  `json:"lost"`
	Percent string `json:"percent"`
}

type Page[T any] struct {
	Items  []T   `json:"items"`
	Total  int64 `json:"total"`
	Limit  int   `json:"limit"`
	Offset int   `json:"offset"`
}
