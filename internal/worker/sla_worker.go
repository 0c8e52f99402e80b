package worker

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/alert-ticket-service/internal/service"
)

// StartSLAWorker periodically re-evaluates SLA breach for active tickets.
// The engine itself only recomputes on transitions; continuous monitoring
// lives here, outside the core. Stops when ctx is cancelled.
func StartSLAWorker(ctx context.Context, tickets *service.TicketService, interval time.Duration, logger *zap.Logger) {
	if tickets == nil || interval <= 0 {
		return
	}
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				breached, err := tickets.RecheckSLA(ctx)
				if err != nil {
					logger.Warn("sla sweep failed", zap.Error(err))
					continue
				}
				if breached > 0 {
					logger.Info("sla sweep", zap.Int("newly_breached", breached))
				}
			}
		}
	}()
}
