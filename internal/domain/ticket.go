package domain

import (
	"encoding/json"
	"time"
)

// TicketStatus enumerates lifecycle states for tickets.
type TicketStatus string

const (
	TicketStatusOpen          TicketStatus = "open"
	TicketStatusAssigned      TicketStatus = "assigned"
	TicketStatusInProgress    TicketStatus = "in_progress"
	TicketStatusResolved      TicketStatus = "resolved"
	TicketStatusClosed        TicketStatus = "closed"
	TicketStatusFalsePositive TicketStatus = "false_positive"
)

// TicketStatuses lists every valid status in lifecycle order.
var TicketStatuses = []TicketStatus{
	TicketStatusOpen,
	TicketStatusAssigned,
	TicketStatusInProgress,
	TicketStatusResolved,
	TicketStatusClosed,
	TicketStatusFalsePositive,
}

// Valid reports whether the status is a member of the enumeration.
func (s TicketStatus) Valid() bool {
	for _, candidate := range TicketStatuses {
		if s == candidate {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transitions are permitted.
func (s TicketStatus) Terminal() bool {
	return s == TicketStatusClosed || s == TicketStatusFalsePositive
}

// Severity enumerates alert urgency levels.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
	SeverityInfo     Severity = "info"
)

// Severities lists every valid severity from most to least urgent.
var Severities = []Severity{
	SeverityCritical,
	SeverityHigh,
	SeverityMedium,
	SeverityLow,
	SeverityInfo,
}

// Valid reports whether the severity is a member of the enumeration.
func (s Severity) Valid() bool {
	for _, candidate := range Severities {
		if s == candidate {
			return true
		}
	}
	return false
}

// Ticket is the aggregate created from an analytics alert. Camera, provider,
// organization and assignee are references into external systems and are never
// mutated here. AlertData is held verbatim so upstream payloads round-trip
// byte-for-byte.
type Ticket struct {
	ID                   string
	TicketNumber         string
	Title                string
	Description          string
	Severity             Severity
	Status               TicketStatus
	CameraID             string
	OrganizationID       *string
	ProviderID           string
	VendorAlertID        *string
	AlertData            json.RawMessage
	ThumbnailURL         *string
	VideoClipURL         *string
	DetectionCount       int
	AssigneeID           *string
	AssignedAt           *time.Time
	SLABreach            bool
	SLABreachReason      *string
	FirstResponseSeconds *int64
	ResolutionSeconds    *int64
	Version              int64
	CreatedAt            time.Time
	UpdatedAt            time.Time
}
