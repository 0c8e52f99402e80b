package dto

import (
	"encoding/json"
	"time"

	"github.com/spec-kit/alert-ticket-service/internal/domain"
)

// CreateTicketRequest is the alert-to-ticket payload providers post.
type CreateTicketRequest struct {
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Severity       domain.Severity `json:"severity"`
	CameraID       string          `json:"camera_id"`
	OrganizationID *string         `json:"organization_id"`
	ProviderID     string          `json:"provider_id"`
	VendorAlertID  *string         `json:"vendor_alert_id"`
	AlertData      json.RawMessage `json:"alert_data"`
	ThumbnailURL   *string         `json:"thumbnail_url"`
	VideoClipURL   *string         `json:"video_clip_url"`
	DetectionCount int             `json:"detection_count"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status     domain.TicketStatus `json:"status"`
	Comment    string              `json:"comment"`
	IsInternal bool                `json:"is_internal"`
	AssignedTo *string             `json:"assigned_to"`
}

// CreateCommentRequest payload.
type CreateCommentRequest struct {
	Comment    string `json:"comment"`
	IsInternal bool   `json:"is_internal"`
}

// TokenRequest exchanges an API key for a JWT.
type TokenRequest struct {
	SubjectID string `json:"subject_id"`
	APIKey    string `json:"api_key"`
}

// TokenResponse carries an issued JWT.
type TokenResponse struct {
	Token     string    `json:"token"`
	Role      string    `json:"role"`
	ExpiresAt time.Time `json:"expires_at"`
}

// TicketSummary response.
type TicketSummary struct {
	ID             string              `json:"id"`
	TicketNumber   string              `json:"ticket_number"`
	Title          string              `json:"title"`
	Severity       domain.Severity     `json:"severity"`
	Status         domain.TicketStatus `json:"status"`
	CameraID       string              `json:"camera_id"`
	OrganizationID *string             `json:"organization_id,omitempty"`
	ProviderID     string              `json:"provider_id"`
	AssigneeID     *string             `json:"assignee_id,omitempty"`
	ThumbnailURL   *string             `json:"thumbnail_url,omitempty"`
	SLABreach      bool                `json:"sla_breach"`
	CreatedAt      time.Time           `json:"created_at"`
	UpdatedAt      time.Time           `json:"updated_at"`
}

// TicketDetailResponse provides full ticket info including ordered comments
// and state history.
type TicketDetailResponse struct {
	ID                   string                 `json:"id"`
	TicketNumber         string                 `json:"ticket_number"`
	Title                string                 `json:"title"`
	Description          string                 `json:"description"`
	Severity             domain.Severity        `json:"severity"`
	Status               domain.TicketStatus    `json:"status"`
	CameraID             string                 `json:"camera_id"`
	OrganizationID       *string                `json:"organization_id,omitempty"`
	ProviderID           string                 `json:"provider_id"`
	VendorAlertID        *string                `json:"vendor_alert_id,omitempty"`
	AlertData            json.RawMessage        `json:"alert_data,omitempty"`
	ThumbnailURL         *string                `json:"thumbnail_url,omitempty"`
	VideoClipURL         *string                `json:"video_clip_url,omitempty"`
	DetectionCount       int                    `json:"detection_count"`
	AssigneeID           *string                `json:"assignee_id,omitempty"`
	AssignedAt           *time.Time             `json:"assigned_at,omitempty"`
	SLABreach            bool                   `json:"sla_breach"`
	SLABreachReason      *string                `json:"sla_breach_reason,omitempty"`
	FirstResponseSeconds *int64                 `json:"first_response_time_seconds,omitempty"`
	ResolutionSeconds    *int64                 `json:"resolution_time_seconds,omitempty"`
	CreatedAt            time.Time              `json:"created_at"`
	UpdatedAt            time.Time              `json:"updated_at"`
	Comments             []CommentResponse      `json:"comments"`
	StateHistory         []StateHistoryResponse `json:"state_history"`
}

// CommentResponse represents one ticket comment.
type CommentResponse struct {
	ID         string    `json:"id"`
	Comment    string    `json:"comment"`
	IsInternal bool      `json:"is_internal"`
	CreatedAt  time.Time `json:"created_at"`
}

// StateHistoryResponse represents one audit entry.
type StateHistoryResponse struct {
	ID        string               `json:"id"`
	OldStatus *domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus  `json:"new_status"`
	ChangedAt time.Time            `json:"changed_at"`
}
