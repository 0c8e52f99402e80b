package events

import (
	"time"

	"github.com/spec-kit/alert-ticket-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketCreated       EventType = "ticket_created"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketCommentAdded  EventType = "ticket_comment_added"
	EventTicketSLABreached   EventType = "ticket_sla_breached"
)

// Event represents a domain event emitted by the service layer.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  string      `json:"ticket_id"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// TicketCreatedPayload payload.
type TicketCreatedPayload struct {
	TicketNumber string          `json:"ticket_number"`
	Severity     domain.Severity `json:"severity"`
	CameraID     string          `json:"camera_id"`
	ProviderID   string          `json:"provider_id"`
	Title        string          `json:"title"`
}

// TicketStatusChangedPayload payload.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	SLABreach bool                `json:"sla_breach"`
}

// TicketCommentAddedPayload payload.
type TicketCommentAddedPayload struct {
	CommentID  string `json:"comment_id"`
	IsInternal bool   `json:"is_internal"`
	Preview    string `json:"preview"`
}

// TicketSLABreachedPayload payload.
type TicketSLABreachedPayload struct {
	Severity domain.Severity `json:"severity"`
	Reason   string          `json:"reason"`
}
