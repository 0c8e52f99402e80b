// Package lifecycle owns the ticket state machine: it validates transitions,
// stamps first-response and resolution timers, appends history, and recomputes
// SLA breach. Every mutating operation is one atomic store unit; partial
// application is never observable.
package lifecycle

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/spec-kit/alert-ticket-service/internal/domain"
	"github.com/spec-kit/alert-ticket-service/internal/repository"
	"github.com/spec-kit/alert-ticket-service/internal/sla"
	apperrors "github.com/spec-kit/alert-ticket-service/pkg/util"
)

// Engine drives ticket lifecycle operations against an injected store, SLA
// policy and clock.
type Engine struct {
	store  repository.Store
	policy sla.Policy
	clock  Clock
}

// NewEngine constructs the engine. A nil clock falls back to the system clock.
func NewEngine(store repository.Store, policy sla.Policy, clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{store: store, policy: policy, clock: clock}
}

// CreateInput describes ticket creation fields, already parsed by the hosting
// layer.
type CreateInput struct {
	Title          string
	Description    string
	Severity       domain.Severity
	CameraID       string
	OrganizationID *string
	ProviderID     string
	VendorAlertID  *string
	AlertData      json.RawMessage
	ThumbnailURL   *string
	VideoClipURL   *string
	DetectionCount int
}

func (in CreateInput) validate() error {
	required := []struct {
		field string
		value string
	}{
		{"title", in.Title},
		{"severity", string(in.Severity)},
		{"camera_id", in.CameraID},
		{"provider_id", in.ProviderID},
	}
	for _, req := range required {
		if strings.TrimSpace(req.value) == "" {
			return apperrors.NewValidationError(
				fmt.Sprintf("missing required field: %s", req.field),
				map[string]any{"field": req.field})
		}
	}
	if !in.Severity.Valid() {
		return apperrors.NewValidationError(
			fmt.Sprintf("invalid severity: %s", in.Severity),
			map[string]any{"field": "severity"})
	}
	if in.DetectionCount < 0 {
		return apperrors.NewValidationError("detection_count must be non-negative",
			map[string]any{"field": "detection_count"})
	}
	return nil
}

// Create validates the alert fields, persists a new open ticket and its
// initial history record in one atomic unit, and returns the persisted ticket.
func (e *Engine) Create(ctx context.Context, input CreateInput) (*domain.Ticket, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	now := e.clock.Now()
	ticket := &domain.Ticket{
		ID:             uuid.NewString(),
		TicketNumber:   generateTicketNumber(now),
		Title:          strings.TrimSpace(input.Title),
		Description:    strings.TrimSpace(input.Description),
		Severity:       input.Severity,
		Status:         domain.TicketStatusOpen,
		CameraID:       input.CameraID,
		OrganizationID: input.OrganizationID,
		ProviderID:     input.ProviderID,
		VendorAlertID:  input.VendorAlertID,
		AlertData:      input.AlertData,
		ThumbnailURL:   input.ThumbnailURL,
		VideoClipURL:   input.VideoClipURL,
		DetectionCount: input.DetectionCount,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	err := e.store.Atomic(ctx, func(tx repository.Store) error {
		if err := tx.CreateTicket(ctx, ticket); err != nil {
			return err
		}
		return tx.AppendHistory(ctx, &domain.TicketStateHistory{
			ID:        uuid.NewString(),
			TicketID:  ticket.ID,
			OldStatus: nil,
			NewStatus: domain.TicketStatusOpen,
			ChangedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}
	return ticket, nil
}

// TransitionInput describes one status change request. AssigneeID, when set,
// records who the ticket is handed to alongside the change.
type TransitionInput struct {
	Status     domain.TicketStatus
	Comment    string
	Internal   bool
	AssigneeID *string
}

// TransitionResult reports what one transition did.
type TransitionResult struct {
	Ticket    *domain.Ticket
	OldStatus domain.TicketStatus
	Comment   *domain.TicketComment
}

// Transition moves a ticket to input.Status. Terminal tickets refuse any
// further transition and are left untouched. The status update, history
// append, optional comment, timer bookkeeping and SLA recompute commit
// together or not at all.
func (e *Engine) Transition(ctx context.Context, ticketID string, input TransitionInput) (*TransitionResult, error) {
	newStatus := input.Status
	if !newStatus.Valid() {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("invalid status: %s", newStatus),
			map[string]any{"field": "status", "valid": domain.TicketStatuses})
	}

	result := &TransitionResult{}
	err := e.store.Atomic(ctx, func(tx repository.Store) error {
		ticket, err := tx.GetTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		if ticket.Status.Terminal() {
			return apperrors.NewInvalidTransition(
				fmt.Sprintf("ticket is %s and cannot change status", ticket.Status),
				map[string]any{"status": ticket.Status})
		}

		now := e.clock.Now()
		oldStatus := ticket.Status
		ticket.Status = newStatus
		ticket.UpdatedAt = now

		if input.AssigneeID != nil && strings.TrimSpace(*input.AssigneeID) != "" {
			ticket.AssigneeID = input.AssigneeID
			ticket.AssignedAt = &now
		}

		elapsed := int64(now.Sub(ticket.CreatedAt).Seconds())
		if ticket.FirstResponseSeconds == nil && marksFirstResponse(newStatus) {
			ticket.FirstResponseSeconds = &elapsed
		}
		if ticket.ResolutionSeconds == nil && marksResolution(newStatus) {
			ticket.ResolutionSeconds = &elapsed
		}

		// Evaluated against the pre-transition status: resolving a ticket
		// computes breach with the elapsed time at this instant, then the
		// flag freezes.
		outcome := e.policy.Evaluate(ticket.Severity, ticket.CreatedAt, oldStatus, now)
		if !outcome.Frozen {
			ticket.SLABreach = outcome.Breached
			ticket.SLABreachReason = nil
			if outcome.Breached {
				reason := outcome.Reason
				ticket.SLABreachReason = &reason
			}
		}

		if err := tx.UpdateTicket(ctx, ticket); err != nil {
			return err
		}
		if err := tx.AppendHistory(ctx, &domain.TicketStateHistory{
			ID:        uuid.NewString(),
			TicketID:  ticket.ID,
			OldStatus: &oldStatus,
			NewStatus: newStatus,
			ChangedAt: now,
		}); err != nil {
			return err
		}
		if strings.TrimSpace(input.Comment) != "" {
			appended := &domain.TicketComment{
				ID:         uuid.NewString(),
				TicketID:   ticket.ID,
				Comment:    strings.TrimSpace(input.Comment),
				IsInternal: input.Internal,
				CreatedAt:  now,
			}
			if err := tx.AppendComment(ctx, appended); err != nil {
				return err
			}
			result.Comment = appended
		}
		result.Ticket = ticket
		result.OldStatus = oldStatus
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// AddComment appends a comment to an existing ticket. The ticket itself is
// untouched: no status change, no timestamp bump, no SLA recompute.
func (e *Engine) AddComment(ctx context.Context, ticketID, text string, internal bool) (*domain.TicketComment, error) {
	if strings.TrimSpace(text) == "" {
		return nil, apperrors.NewValidationError("missing required field: comment",
			map[string]any{"field": "comment"})
	}
	if _, err := e.store.GetTicket(ctx, ticketID); err != nil {
		return nil, err
	}
	comment := &domain.TicketComment{
		ID:         uuid.NewString(),
		TicketID:   ticketID,
		Comment:    strings.TrimSpace(text),
		IsInternal: internal,
		CreatedAt:  e.clock.Now(),
	}
	if err := e.store.AppendComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// RecheckSLA re-evaluates breach status for one active ticket and persists the
// result when it changed. Used by the periodic sweep; frozen tickets are left
// alone.
func (e *Engine) RecheckSLA(ctx context.Context, ticketID string) (*domain.Ticket, bool, error) {
	var updated *domain.Ticket
	var changed bool
	err := e.store.Atomic(ctx, func(tx repository.Store) error {
		ticket, err := tx.GetTicket(ctx, ticketID)
		if err != nil {
			return err
		}
		outcome := e.policy.Evaluate(ticket.Severity, ticket.CreatedAt, ticket.Status, e.clock.Now())
		updated = ticket
		if outcome.Frozen || outcome.Breached == ticket.SLABreach {
			return nil
		}
		ticket.SLABreach = outcome.Breached
		ticket.SLABreachReason = nil
		if outcome.Breached {
			reason := outcome.Reason
			ticket.SLABreachReason = &reason
		}
		ticket.UpdatedAt = e.clock.Now()
		changed = true
		return tx.UpdateTicket(ctx, ticket)
	})
	if err != nil {
		return nil, false, err
	}
	return updated, changed, nil
}

// marksFirstResponse reports whether entering status counts as the first
// human response. Assignment alone does not.
func marksFirstResponse(status domain.TicketStatus) bool {
	switch status {
	case domain.TicketStatusInProgress, domain.TicketStatusResolved,
		domain.TicketStatusClosed, domain.TicketStatusFalsePositive:
		return true
	}
	return false
}

func marksResolution(status domain.TicketStatus) bool {
	return status == domain.TicketStatusResolved || status == domain.TicketStatusClosed
}

// generateTicketNumber derives a human-readable number from the creation
// time. The uuid suffix keeps sub-second creates unique in practice.
func generateTicketNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:4])
	return fmt.Sprintf("TKT-%d-%s", now.Unix(), suffix)
}
