package domain

import "time"

// TicketComment is an append-only note on a ticket. Comments are never edited
// or deleted. Internal comments are hidden from external callers by the
// hosting layer.
type TicketComment struct {
	ID         string
	TicketID   string
	Comment    string
	IsInternal bool
	CreatedAt  time.Time
}
