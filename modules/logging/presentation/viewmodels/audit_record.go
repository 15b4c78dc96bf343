package viewmodels

type AuditRecord struct {
	ID            int64  `json:"id"`
	ActorID       string `json:"actor_id"`
	ActorUsername string `json:"actor_username"`
	Action        string `json:"action"`
	ResourceType  string `json:"resource_type"`
	ResourceID    string `json:"resource_id"`
	OwningUnitID  string `json:"owning_unit_id,omitempty"`
	Decision      string `json:"decision"`
	Reason        string `json:"reason"`
	RequestID     string `json:"request_id,omitempty"`
	CreatedAt     string `json:"created_at"`
}

type AuditRecordPage struct {
	Items []*AuditRecord `json:"items"`
	Total int64          `json:"total"`
	Limit int            `json:"limit"`
	Page  int            `json:"page"`
}
