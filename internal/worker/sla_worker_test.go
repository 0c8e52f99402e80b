package worker

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/spec-kit/alert-ticket-service/internal/domain"
	"github.com/spec-kit/alert-ticket-service/internal/lifecycle"
	"github.com/spec-kit/alert-ticket-service/internal/repository"
	"github.com/spec-kit/alert-ticket-service/internal/service"
	"github.com/spec-kit/alert-ticket-service/internal/sla"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func TestSLAWorker_FlagsOverdueTickets(t *testing.T) {
	store := repository.NewMemoryStore()
	clock := &fakeClock{now: time.Now().Add(-20 * time.Minute)}
	engine := lifecycle.NewEngine(store, sla.NewPolicy(nil), clock)
	tickets := service.NewTicketService(service.TicketDependencies{Engine: engine, Store: store})

	ticket, err := engine.Create(context.Background(), lifecycle.CreateInput{
		Title:      "Tailgating at main entrance",
		Severity:   domain.SeverityCritical,
		CameraID:   "cam-1",
		ProviderID: "vendor-1",
	})
	require.NoError(t, err)

	// created 20 minutes ago against the critical 15m default
	clock.now = clock.now.Add(20 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	StartSLAWorker(ctx, tickets, 5*time.Millisecond, zap.NewNop())

	require.Eventually(t, func() bool {
		current, err := store.GetTicket(context.Background(), ticket.ID)
		return err == nil && current.SLABreach
	}, 2*time.Second, 5*time.Millisecond)
}

func TestSLAWorker_IgnoresBadConfig(t *testing.T) {
	// a nil service or non-positive interval must not start a goroutine
	StartSLAWorker(context.Background(), nil, time.Second, zap.NewNop())

	store := repository.NewMemoryStore()
	engine := lifecycle.NewEngine(store, sla.NewPolicy(nil), nil)
	tickets := service.NewTicketService(service.TicketDependencies{Engine: engine, Store: store})
	StartSLAWorker(context.Background(), tickets, 0, zap.NewNop())
}
