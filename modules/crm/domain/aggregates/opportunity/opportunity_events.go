package opportunity

import (
	"time"

	"github.com/jacksonlee411/branch-crm/modules/org/domain/staff"
)

// WonEvent is published inside the transaction that moved an opportunity
// to won. Subscribers run in that transaction.
type WonEvent struct {
	Opportunity *Opportunity
	Actor       *staff.User
	At          time.Time
}
