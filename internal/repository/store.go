package repository

import (
	"context"

	"github.com/spec-kit/alert-ticket-service/internal/domain"
)

// TicketListFilter captures listing parameters.
type TicketListFilter struct {
	Status         *domain.TicketStatus
	Severity       *domain.Severity
	CameraID       *string
	OrganizationID *string
	AssigneeID     *string
	Limit          int
	Offset         int
}

// Store is the persistence contract consumed by the lifecycle engine and the
// service façade. Implementations must serialize mutations per ticket and
// report concurrent modification as a conflict rather than silently
// overwriting. Atomic composes the four write operations into one unit:
// either every write inside fn commits, or none do. Errors returned by fn
// pass through unchanged; failures of the unit itself surface as
// store-unavailable.
type Store interface {
	CreateTicket(ctx context.Context, ticket *domain.Ticket) error
	GetTicket(ctx context.Context, id string) (*domain.Ticket, error)
	UpdateTicket(ctx context.Context, ticket *domain.Ticket) error
	AppendComment(ctx context.Context, comment *domain.TicketComment) error
	AppendHistory(ctx context.Context, entry *domain.TicketStateHistory) error
	ListComments(ctx context.Context, ticketID string) ([]domain.TicketComment, error)
	ListHistory(ctx context.Context, ticketID string) ([]domain.TicketStateHistory, error)
	ListTickets(ctx context.Context, filter TicketListFilter) ([]domain.Ticket, error)
	ListActiveTicketIDs(ctx context.Context) ([]string, error)
	Atomic(ctx context.Context, fn func(Store) error) error
}
