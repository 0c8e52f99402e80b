package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/alert-ticket-service/internal/domain"
	"github.com/spec-kit/alert-ticket-service/internal/events"
	"github.com/spec-kit/alert-ticket-service/internal/lifecycle"
	"github.com/spec-kit/alert-ticket-service/internal/repository"
)

// TicketService is the façade the hosting layer talks to. It orchestrates the
// lifecycle engine and the store and publishes domain events; it adds no
// lifecycle rules of its own.
type TicketService struct {
	engine     *lifecycle.Engine
	store      repository.Store
	dispatcher events.Dispatcher
}

// TicketDependencies bundles collaborators for the ticket service.
type TicketDependencies struct {
	Engine     *lifecycle.Engine
	Store      repository.Store
	Dispatcher events.Dispatcher
}

// TicketDetail is the full read model: the ticket plus its ordered comment
// and history lists.
type TicketDetail struct {
	Ticket   *domain.Ticket
	Comments []domain.TicketComment
	History  []domain.TicketStateHistory
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	return &TicketService{
		engine:     deps.Engine,
		store:      deps.Store,
		dispatcher: deps.Dispatcher,
	}
}

// CreateTicket converts an analytics alert into an open ticket.
func (s *TicketService) CreateTicket(ctx context.Context, input lifecycle.CreateInput) (*domain.Ticket, error) {
	ticket, err := s.engine.Create(ctx, input)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCreated,
		TicketID: ticket.ID,
		Payload: events.TicketCreatedPayload{
			TicketNumber: ticket.TicketNumber,
			Severity:     ticket.Severity,
			CameraID:     ticket.CameraID,
			ProviderID:   ticket.ProviderID,
			Title:        ticket.Title,
		},
	})
	return ticket, nil
}

// UpdateStatus transitions a ticket and reports the result.
func (s *TicketService) UpdateStatus(ctx context.Context, ticketID string, input lifecycle.TransitionInput) (*domain.Ticket, error) {
	result, err := s.engine.Transition(ctx, ticketID, input)
	if err != nil {
		return nil, err
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketStatusChanged,
		TicketID: result.Ticket.ID,
		Payload: events.TicketStatusChangedPayload{
			OldStatus: result.OldStatus,
			NewStatus: result.Ticket.Status,
			SLABreach: result.Ticket.SLABreach,
		},
	})
	if result.Comment != nil {
		s.publishCommentEvent(ctx, result.Comment)
	}
	return result.Ticket, nil
}

// AddComment appends a comment without touching ticket state.
func (s *TicketService) AddComment(ctx context.Context, ticketID, text string, internal bool) (*domain.TicketComment, error) {
	comment, err := s.engine.AddComment(ctx, ticketID, text, internal)
	if err != nil {
		return nil, err
	}
	s.publishCommentEvent(ctx, comment)
	return comment, nil
}

// GetTicket returns a ticket with its ordered comments and history.
func (s *TicketService) GetTicket(ctx context.Context, ticketID string) (*TicketDetail, error) {
	ticket, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	history, err := s.store.ListHistory(ctx, ticketID)
	if err != nil {
		return nil, err
	}
	return &TicketDetail{Ticket: ticket, Comments: comments, History: history}, nil
}

// ListTickets returns tickets matching the filter, newest first.
func (s *TicketService) ListTickets(ctx context.Context, filter repository.TicketListFilter) ([]domain.Ticket, error) {
	return s.store.ListTickets(ctx, filter)
}

// RecheckSLA re-evaluates every active ticket and returns how many newly
// breached. Conflicts with concurrent transitions are skipped; the next sweep
// picks those tickets up again.
func (s *TicketService) RecheckSLA(ctx context.Context) (int, error) {
	ids, err := s.store.ListActiveTicketIDs(ctx)
	if err != nil {
		return 0, err
	}
	breached := 0
	for _, id := range ids {
		ticket, changed, err := s.engine.RecheckSLA(ctx, id)
		if err != nil {
			continue
		}
		if !changed || !ticket.SLABreach {
			continue
		}
		breached++
		reason := ""
		if ticket.SLABreachReason != nil {
			reason = *ticket.SLABreachReason
		}
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketSLABreached,
			TicketID: ticket.ID,
			Payload: events.TicketSLABreachedPayload{
				Severity: ticket.Severity,
				Reason:   reason,
			},
		})
	}
	return breached, nil
}

func (s *TicketService) publishCommentEvent(ctx context.Context, comment *domain.TicketComment) {
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketCommentAdded,
		TicketID: comment.TicketID,
		Payload: events.TicketCommentAddedPayload{
			CommentID:  comment.ID,
			IsInternal: comment.IsInternal,
			Preview:    stringPreview(comment.Comment, 120),
		},
	})
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	if len(body) <= max {
		return body
	}
	if max <= 3 {
		return body[:max]
	}
	return body[:max-3] + "..."
}
