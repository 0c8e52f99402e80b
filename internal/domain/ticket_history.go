package domain

import "time"

// TicketStateHistory is an immutable audit record of one status change.
// OldStatus is nil only for the creation record, whose NewStatus is always
// open. Entries form a total order per ticket by ChangedAt.
type TicketStateHistory struct {
	ID        string
	TicketID  string
	OldStatus *TicketStatus
	NewStatus TicketStatus
	ChangedAt time.Time
}
