package lifecycle

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/alert-ticket-service/internal/domain"
	"github.com/spec-kit/alert-ticket-service/internal/repository"
	"github.com/spec-kit/alert-ticket-service/internal/sla"
	apperrors "github.com/spec-kit/alert-ticket-service/pkg/util"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

func newTestEngine(t *testing.T) (*Engine, *repository.MemoryStore, *fakeClock) {
	t.Helper()
	store := repository.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	policy := sla.NewPolicy(sla.Thresholds{
		domain.SeverityCritical: 15 * time.Minute,
		domain.SeverityHigh:     time.Hour,
	})
	return NewEngine(store, policy, clock), store, clock
}

func validInput() CreateInput {
	return CreateInput{
		Title:      "Person detected in restricted zone",
		Severity:   domain.SeverityCritical,
		CameraID:   "cam-42",
		ProviderID: "provider-7",
	}
}

func TestCreate_OpensTicketWithInitialHistory(t *testing.T) {
	engine, store, clock := newTestEngine(t)
	ctx := context.Background()

	ticket, err := engine.Create(ctx, validInput())
	require.NoError(t, err)

	assert.Equal(t, domain.TicketStatusOpen, ticket.Status)
	assert.NotEmpty(t, ticket.ID)
	assert.True(t, strings.HasPrefix(ticket.TicketNumber, "TKT-"))
	assert.Equal(t, clock.now, ticket.CreatedAt)
	assert.Equal(t, clock.now, ticket.UpdatedAt)
	assert.False(t, ticket.SLABreach)
	assert.Nil(t, ticket.FirstResponseSeconds)
	assert.Nil(t, ticket.ResolutionSeconds)

	history, err := store.ListHistory(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Nil(t, history[0].OldStatus)
	assert.Equal(t, domain.TicketStatusOpen, history[0].NewStatus)
}

func TestCreate_MissingRequiredFields(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	tests := []struct {
		field  string
		mutate func(*CreateInput)
	}{
		{"title", func(in *CreateInput) { in.Title = "" }},
		{"severity", func(in *CreateInput) { in.Severity = "" }},
		{"camera_id", func(in *CreateInput) { in.CameraID = "  " }},
		{"provider_id", func(in *CreateInput) { in.ProviderID = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.field, func(t *testing.T) {
			input := validInput()
			tt.mutate(&input)
			_, err := engine.Create(ctx, input)
			require.Error(t, err)
			assert.True(t, apperrors.IsValidation(err))
			assert.Contains(t, err.Error(), tt.field)
		})
	}

	tickets, err := store.ListTickets(ctx, repository.TicketListFilter{})
	require.NoError(t, err)
	assert.Empty(t, tickets, "failed creates must not persist tickets")
}

func TestCreate_RejectsBadSeverityAndCount(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	input := validInput()
	input.Severity = "catastrophic"
	_, err := engine.Create(ctx, input)
	assert.True(t, apperrors.IsValidation(err))

	input = validInput()
	input.DetectionCount = -1
	_, err = engine.Create(ctx, input)
	assert.True(t, apperrors.IsValidation(err))
}

func TestTransition_TerminalStatesRefuseChanges(t *testing.T) {
	for _, terminal := range []domain.TicketStatus{domain.TicketStatusClosed, domain.TicketStatusFalsePositive} {
		t.Run(string(terminal), func(t *testing.T) {
			engine, store, _ := newTestEngine(t)
			ctx := context.Background()

			ticket, err := engine.Create(ctx, validInput())
			require.NoError(t, err)
			_, err = engine.Transition(ctx, ticket.ID, TransitionInput{Status: terminal})
			require.NoError(t, err)

			for _, next := range domain.TicketStatuses {
				_, err := engine.Transition(ctx, ticket.ID, TransitionInput{Status: next})
				require.Error(t, err)
				assert.True(t, apperrors.IsInvalidTransition(err))
			}

			current, err := store.GetTicket(ctx, ticket.ID)
			require.NoError(t, err)
			assert.Equal(t, terminal, current.Status)

			history, err := store.ListHistory(ctx, ticket.ID)
			require.NoError(t, err)
			assert.Len(t, history, 2, "refused transitions must not append history")
		})
	}
}

func TestTransition_UnknownStatus(t *testing.T) {
	engine, _, _ := newTestEngine(t)
	ctx := context.Background()

	ticket, err := engine.Create(ctx, validInput())
	require.NoError(t, err)

	_, err = engine.Transition(ctx, ticket.ID, TransitionInput{Status: "reopened"})
	assert.True(t, apperrors.IsValidation(err))
}

func TestTransition_MissingTicket(t *testing.T) {
	engine, _, _ := newTestEngine(t)

	_, err := engine.Transition(context.Background(), "nope", TransitionInput{Status: domain.TicketStatusAssigned})
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTransition_FirstResponseSetOnce(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	ticket, err := engine.Create(ctx, validInput())
	require.NoError(t, err)

	// assignment alone is not a response
	clock.Advance(5 * time.Minute)
	result, err := engine.Transition(ctx, ticket.ID, TransitionInput{Status: domain.TicketStatusAssigned})
	require.NoError(t, err)
	assert.Nil(t, result.Ticket.FirstResponseSeconds)

	clock.Advance(5 * time.Minute)
	result, err = engine.Transition(ctx, ticket.ID, TransitionInput{Status: domain.TicketStatusInProgress})
	require.NoError(t, err)
	require.NotNil(t, result.Ticket.FirstResponseSeconds)
	assert.Equal(t, int64(600), *result.Ticket.FirstResponseSeconds)

	clock.Advance(10 * time.Minute)
	result, err = engine.Transition(ctx, ticket.ID, TransitionInput{Status: domain.TicketStatusResolved})
	require.NoError(t, err)
	assert.Equal(t, int64(600), *result.Ticket.FirstResponseSeconds, "first response never updates")
	require.NotNil(t, result.Ticket.ResolutionSeconds)
	assert.Equal(t, int64(1200), *result.Ticket.ResolutionSeconds)
}

func TestTransition_ResolutionSetOnce(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	ticket, err := engine.Create(ctx, validInput())
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	result, err := engine.Transition(ctx, ticket.ID, TransitionInput{Status: domain.TicketStatusResolved})
	require.NoError(t, err)
	require.NotNil(t, result.Ticket.ResolutionSeconds)
	assert.Equal(t, int64(600), *result.Ticket.ResolutionSeconds)

	// permissive adjacency allows reopening; the timer must not move
	clock.Advance(10 * time.Minute)
	_, err = engine.Transition(ctx, ticket.ID, TransitionInput{Status: domain.TicketStatusInProgress})
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	result, err = engine.Transition(ctx, ticket.ID, TransitionInput{Status: domain.TicketStatusClosed})
	require.NoError(t, err)
	assert.Equal(t, int64(600), *result.Ticket.ResolutionSeconds)
}

func TestTransition_DirectCloseSetsBothTimers(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	ticket, err := engine.Create(ctx, validInput())
	require.NoError(t, err)

	clock.Advance(3 * time.Minute)
	result, err := engine.Transition(ctx, ticket.ID, TransitionInput{Status: domain.TicketStatusClosed})
	require.NoError(t, err)
	require.NotNil(t, result.Ticket.FirstResponseSeconds)
	require.NotNil(t, result.Ticket.ResolutionSeconds)
	assert.Equal(t, int64(180), *result.Ticket.FirstResponseSeconds)
	assert.Equal(t, int64(180), *result.Ticket.ResolutionSeconds)
}

func TestTransition_StampsAssignee(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	ticket, err := engine.Create(ctx, validInput())
	require.NoError(t, err)

	operator := "operator-5"
	clock.Advance(2 * time.Minute)
	result, err := engine.Transition(ctx, ticket.ID, TransitionInput{
		Status:     domain.TicketStatusAssigned,
		AssigneeID: &operator,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Ticket.AssigneeID)
	assert.Equal(t, operator, *result.Ticket.AssigneeID)
	require.NotNil(t, result.Ticket.AssignedAt)
	assert.Equal(t, clock.now, *result.Ticket.AssignedAt)

	// later transitions without an assignee leave the stamp alone
	clock.Advance(2 * time.Minute)
	result, err = engine.Transition(ctx, ticket.ID, TransitionInput{Status: domain.TicketStatusInProgress})
	require.NoError(t, err)
	require.NotNil(t, result.Ticket.AssigneeID)
	assert.Equal(t, operator, *result.Ticket.AssigneeID)
}

func TestTransition_HistoryChains(t *testing.T) {
	engine, store, clock := newTestEngine(t)
	ctx := context.Background()

	ticket, err := engine.Create(ctx, validInput())
	require.NoError(t, err)

	sequence := []domain.TicketStatus{
		domain.TicketStatusAssigned,
		domain.TicketStatusInProgress,
		domain.TicketStatusResolved,
		domain.TicketStatusClosed,
	}
	for _, status := range sequence {
		clock.Advance(time.Minute)
		_, err := engine.Transition(ctx, ticket.ID, TransitionInput{Status: status})
		require.NoError(t, err)
	}

	history, err := store.ListHistory(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, history, len(sequence)+1)
	assert.Nil(t, history[0].OldStatus)
	for i := 1; i < len(history); i++ {
		require.NotNil(t, history[i].OldStatus)
		assert.Equal(t, history[i-1].NewStatus, *history[i].OldStatus)
	}
	assert.Equal(t, domain.TicketStatusClosed, history[len(history)-1].NewStatus)
}

func TestTransition_AppendsComment(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	ticket, err := engine.Create(ctx, validInput())
	require.NoError(t, err)

	result, err := engine.Transition(ctx, ticket.ID, TransitionInput{
		Status:   domain.TicketStatusFalsePositive,
		Comment:  "shadow from a passing truck",
		Internal: true,
	})
	require.NoError(t, err)
	require.NotNil(t, result.Comment)
	assert.True(t, result.Comment.IsInternal)

	comments, err := store.ListComments(ctx, ticket.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "shadow from a passing truck", comments[0].Comment)
}

func TestTransition_SLABreachThenFreeze(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	ticket, err := engine.Create(ctx, validInput())
	require.NoError(t, err)

	// 16 minutes in, still open: the critical 15m threshold has passed
	clock.Advance(16 * time.Minute)
	result, err := engine.Transition(ctx, ticket.ID, TransitionInput{Status: domain.TicketStatusAssigned})
	require.NoError(t, err)
	assert.True(t, result.Ticket.SLABreach)
	require.NotNil(t, result.Ticket.SLABreachReason)
	assert.Equal(t, "No response within 15m0s for critical severity", *result.Ticket.SLABreachReason)

	// resolving at 20 minutes computes the flag one last time and freezes it
	clock.Advance(4 * time.Minute)
	result, err = engine.Transition(ctx, ticket.ID, TransitionInput{Status: domain.TicketStatusResolved})
	require.NoError(t, err)
	assert.True(t, result.Ticket.SLABreach)

	// a later sweep must not touch the frozen flag
	clock.Advance(10 * time.Minute)
	swept, changed, err := engine.RecheckSLA(ctx, ticket.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.True(t, swept.SLABreach)
}

func TestTransition_ResolvedInTimeNeverBreaches(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	ticket, err := engine.Create(ctx, validInput())
	require.NoError(t, err)

	clock.Advance(10 * time.Minute)
	result, err := engine.Transition(ctx, ticket.ID, TransitionInput{Status: domain.TicketStatusResolved})
	require.NoError(t, err)
	assert.False(t, result.Ticket.SLABreach)

	clock.Advance(time.Hour)
	swept, changed, err := engine.RecheckSLA(ctx, ticket.ID)
	require.NoError(t, err)
	assert.False(t, changed)
	assert.False(t, swept.SLABreach, "resolved tickets stop accruing breach time")
}

func TestRecheckSLA_FlagsOverdueOpenTicket(t *testing.T) {
	engine, _, clock := newTestEngine(t)
	ctx := context.Background()

	ticket, err := engine.Create(ctx, validInput())
	require.NoError(t, err)

	clock.Advance(16 * time.Minute)
	swept, changed, err := engine.RecheckSLA(ctx, ticket.ID)
	require.NoError(t, err)
	assert.True(t, changed)
	assert.True(t, swept.SLABreach)

	// idempotent: a second sweep reports no change
	_, changed, err = engine.RecheckSLA(ctx, ticket.ID)
	require.NoError(t, err)
	assert.False(t, changed)
}

func TestAddComment_Validation(t *testing.T) {
	engine, store, _ := newTestEngine(t)
	ctx := context.Background()

	_, err := engine.AddComment(ctx, "missing", "hello", false)
	assert.True(t, apperrors.IsNotFound(err))

	ticket, err := engine.Create(ctx, validInput())
	require.NoError(t, err)

	_, err = engine.AddComment(ctx, ticket.ID, "   ", false)
	assert.True(t, apperrors.IsValidation(err))

	comments, err := store.ListComments(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}

func TestAddComment_DoesNotTouchTicket(t *testing.T) {
	engine, store, clock := newTestEngine(t)
	ctx := context.Background()

	ticket, err := engine.Create(ctx, validInput())
	require.NoError(t, err)

	clock.Advance(time.Hour)
	comment, err := engine.AddComment(ctx, ticket.ID, "checking the clip now", false)
	require.NoError(t, err)
	assert.Equal(t, clock.now, comment.CreatedAt)

	current, err := store.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, ticket.UpdatedAt, current.UpdatedAt, "comments never bump updated_at")
	assert.False(t, current.SLABreach, "comments never recompute SLA")
	assert.Equal(t, domain.TicketStatusOpen, current.Status)
}

// flakyStore injects a failure into history appends to prove transitions are
// all-or-nothing.
type flakyStore struct {
	repository.Store
	failHistory bool
}

func (s *flakyStore) AppendHistory(ctx context.Context, entry *domain.TicketStateHistory) error {
	if s.failHistory {
		return errors.New("history write failed")
	}
	return s.Store.AppendHistory(ctx, entry)
}

func (s *flakyStore) Atomic(ctx context.Context, fn func(repository.Store) error) error {
	return s.Store.Atomic(ctx, func(tx repository.Store) error {
		return fn(&flakyStore{Store: tx, failHistory: s.failHistory})
	})
}

func TestTransition_RollsBackOnPartialFailure(t *testing.T) {
	memory := repository.NewMemoryStore()
	clock := &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
	store := &flakyStore{Store: memory}
	engine := NewEngine(store, sla.NewPolicy(nil), clock)
	ctx := context.Background()

	ticket, err := engine.Create(ctx, validInput())
	require.NoError(t, err)

	store.failHistory = true
	clock.Advance(time.Minute)
	_, err = engine.Transition(ctx, ticket.ID, TransitionInput{Status: domain.TicketStatusInProgress, Comment: "wont survive"})
	require.Error(t, err)

	current, err := memory.GetTicket(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TicketStatusOpen, current.Status, "status update must roll back")
	assert.Nil(t, current.FirstResponseSeconds)

	history, err := memory.ListHistory(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Len(t, history, 1)

	comments, err := memory.ListComments(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Empty(t, comments, "comment append must roll back with the unit")
}
