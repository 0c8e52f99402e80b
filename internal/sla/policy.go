// Package sla derives breach status from severity response thresholds.
// Evaluation is pure: callers supply the clock reading, so results are
// deterministic and testable.
package sla

import (
	"fmt"
	"time"

	"github.com/spec-kit/alert-ticket-service/internal/domain"
)

// Thresholds maps severity to its maximum response time. A missing or zero
// entry means the severity carries no SLA (info tickets never breach).
type Thresholds map[domain.Severity]time.Duration

// DefaultThresholds returns the stock response-time table.
func DefaultThresholds() Thresholds {
	return Thresholds{
		domain.SeverityCritical: 15 * time.Minute,
		domain.SeverityHigh:     time.Hour,
		domain.SeverityMedium:   4 * time.Hour,
		domain.SeverityLow:      24 * time.Hour,
	}
}

// Outcome is the result of one SLA evaluation. When Frozen is set the ticket
// is in a state where breach status no longer changes and callers must keep
// whatever flag and reason were last persisted.
type Outcome struct {
	Breached bool
	Reason   string
	Frozen   bool
}

// Policy evaluates SLA breach against an injectable threshold table.
type Policy struct {
	thresholds Thresholds
}

// NewPolicy builds a policy. A nil table falls back to the defaults.
func NewPolicy(thresholds Thresholds) Policy {
	if thresholds == nil {
		thresholds = DefaultThresholds()
	}
	return Policy{thresholds: thresholds}
}

// Evaluate reports breach status for a ticket of the given severity created at
// createdAt, observed at now while in status. Resolved and terminal statuses
// freeze the flag: recomputation stops the instant a ticket reaches them.
func (p Policy) Evaluate(severity domain.Severity, createdAt time.Time, status domain.TicketStatus, now time.Time) Outcome {
	if status == domain.TicketStatusResolved || status.Terminal() {
		return Outcome{Frozen: true}
	}
	threshold, ok := p.thresholds[severity]
	if !ok || threshold <= 0 {
		return Outcome{}
	}
	if now.Sub(createdAt) > threshold {
		return Outcome{
			Breached: true,
			Reason:   fmt.Sprintf("No response within %s for %s severity", threshold, severity),
		}
	}
	return Outcome{}
}

// Threshold returns the configured response window for a severity, if any.
func (p Policy) Threshold(severity domain.Severity) (time.Duration, bool) {
	threshold, ok := p.thresholds[severity]
	if !ok || threshold <= 0 {
		return 0, false
	}
	return threshold, true
}
