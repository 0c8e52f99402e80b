package repository

import (
	"context"
	"sort"
	"sync"

	"github.com/spec-kit/alert-ticket-service/internal/domain"
	apperrors "github.com/spec-kit/alert-ticket-service/pkg/util"
)

// MemoryStore is an in-memory Store with the same contract as the Postgres
// implementation: version checks on update, ordered comments and history, and
// atomic units that roll back on error. It backs the engine tests and serves
// as the fallback store when no database is configured.
type MemoryStore struct {
	mu       sync.Mutex
	tickets  map[string]domain.Ticket
	comments map[string][]domain.TicketComment
	history  map[string][]domain.TicketStateHistory
	inTx     bool
}

// NewMemoryStore builds an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tickets:  make(map[string]domain.Ticket),
		comments: make(map[string][]domain.TicketComment),
		history:  make(map[string][]domain.TicketStateHistory),
	}
}

func (s *MemoryStore) lock() func() {
	if s.inTx {
		return func() {}
	}
	s.mu.Lock()
	return s.mu.Unlock
}

func (s *MemoryStore) CreateTicket(_ context.Context, ticket *domain.Ticket) error {
	defer s.lock()()
	if _, exists := s.tickets[ticket.ID]; exists {
		return apperrors.NewConflict("ticket already exists",
			map[string]any{"ticket_id": ticket.ID})
	}
	ticket.Version = 1
	s.tickets[ticket.ID] = *ticket
	return nil
}

func (s *MemoryStore) GetTicket(_ context.Context, id string) (*domain.Ticket, error) {
	defer s.lock()()
	ticket, exists := s.tickets[id]
	if !exists {
		return nil, apperrors.NewNotFound("ticket", map[string]any{"ticket_id": id})
	}
	// copy so caller mutations only land via UpdateTicket
	return &ticket, nil
}

func (s *MemoryStore) UpdateTicket(_ context.Context, ticket *domain.Ticket) error {
	defer s.lock()()
	current, exists := s.tickets[ticket.ID]
	if !exists {
		return apperrors.NewNotFound("ticket", map[string]any{"ticket_id": ticket.ID})
	}
	if current.Version != ticket.Version {
		return apperrors.NewConflict("ticket modified concurrently",
			map[string]any{"ticket_id": ticket.ID})
	}
	ticket.Version++
	s.tickets[ticket.ID] = *ticket
	return nil
}

func (s *MemoryStore) AppendComment(_ context.Context, comment *domain.TicketComment) error {
	defer s.lock()()
	s.comments[comment.TicketID] = append(s.comments[comment.TicketID], *comment)
	return nil
}

func (s *MemoryStore) AppendHistory(_ context.Context, entry *domain.TicketStateHistory) error {
	defer s.lock()()
	s.history[entry.TicketID] = append(s.history[entry.TicketID], *entry)
	return nil
}

func (s *MemoryStore) ListComments(_ context.Context, ticketID string) ([]domain.TicketComment, error) {
	defer s.lock()()
	return append([]domain.TicketComment(nil), s.comments[ticketID]...), nil
}

func (s *MemoryStore) ListHistory(_ context.Context, ticketID string) ([]domain.TicketStateHistory, error) {
	defer s.lock()()
	return append([]domain.TicketStateHistory(nil), s.history[ticketID]...), nil
}

func (s *MemoryStore) ListTickets(_ context.Context, filter TicketListFilter) ([]domain.Ticket, error) {
	defer s.lock()()
	var result []domain.Ticket
	for _, ticket := range s.tickets {
		if filter.Status != nil && ticket.Status != *filter.Status {
			continue
		}
		if filter.Severity != nil && ticket.Severity != *filter.Severity {
			continue
		}
		if filter.CameraID != nil && ticket.CameraID != *filter.CameraID {
			continue
		}
		if filter.OrganizationID != nil && (ticket.OrganizationID == nil || *ticket.OrganizationID != *filter.OrganizationID) {
			continue
		}
		if filter.AssigneeID != nil && (ticket.AssigneeID == nil || *ticket.AssigneeID != *filter.AssigneeID) {
			continue
		}
		result = append(result, ticket)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (s *MemoryStore) ListActiveTicketIDs(_ context.Context) ([]string, error) {
	defer s.lock()()
	var ids []string
	for id, ticket := range s.tickets {
		if ticket.Status == domain.TicketStatusResolved || ticket.Status.Terminal() {
			continue
		}
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

// Atomic serializes the unit against all other operations and restores the
// pre-unit state when fn fails.
func (s *MemoryStore) Atomic(ctx context.Context, fn func(Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.clone()
	tx := &MemoryStore{
		tickets:  s.tickets,
		comments: s.comments,
		history:  s.history,
		inTx:     true,
	}
	if err := fn(tx); err != nil {
		s.tickets = snapshot.tickets
		s.comments = snapshot.comments
		s.history = snapshot.history
		return err
	}
	return nil
}

func (s *MemoryStore) clone() *MemoryStore {
	tickets := make(map[string]domain.Ticket, len(s.tickets))
	for id, ticket := range s.tickets {
		tickets[id] = ticket
	}
	comments := make(map[string][]domain.TicketComment, len(s.comments))
	for id, list := range s.comments {
		comments[id] = append([]domain.TicketComment(nil), list...)
	}
	history := make(map[string][]domain.TicketStateHistory, len(s.history))
	for id, list := range s.history {
		history[id] = append([]domain.TicketStateHistory(nil), list...)
	}
	return &MemoryStore{tickets: tickets, comments: comments, history: history}
}
