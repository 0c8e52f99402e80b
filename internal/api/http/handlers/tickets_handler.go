package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/alert-ticket-service/internal/api/dto"
	"github.com/spec-kit/alert-ticket-service/internal/domain"
	"github.com/spec-kit/alert-ticket-service/internal/lifecycle"
	"github.com/spec-kit/alert-ticket-service/internal/repository"
	"github.com/spec-kit/alert-ticket-service/internal/service"
	apperrors "github.com/spec-kit/alert-ticket-service/pkg/util"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /api/tickets. Called by providers when they generate
// alerts.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := lifecycle.CreateInput{
		Title:          req.Title,
		Description:    req.Description,
		Severity:       req.Severity,
		CameraID:       req.CameraID,
		OrganizationID: req.OrganizationID,
		ProviderID:     req.ProviderID,
		VendorAlertID:  req.VendorAlertID,
		AlertData:      req.AlertData,
		ThumbnailURL:   req.ThumbnailURL,
		VideoClipURL:   req.VideoClipURL,
		DetectionCount: req.DetectionCount,
	}
	ticket, err := h.service.CreateTicket(c.UserContext(), input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// ListTickets GET /api/tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	filter := parseTicketListQuery(c)
	tickets, err := h.service.ListTickets(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketSummary, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketSummary(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /api/tickets/:id. Includes ordered comments and history.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	detail, err := h.service.GetTicket(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketDetail(detail)})
}

// UpdateStatus PATCH /api/tickets/:id/status.
func (h *TicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Status == "" {
		return apperrors.NewValidationError("missing required field: status",
			map[string]any{"field": "status"})
	}
	ticket, err := h.service.UpdateStatus(c.UserContext(), c.Params("id"), lifecycle.TransitionInput{
		Status:     req.Status,
		Comment:    req.Comment,
		Internal:   req.IsInternal,
		AssigneeID: req.AssignedTo,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketSummary(ticket)})
}

// AddComment POST /api/tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	comment, err := h.service.AddComment(c.UserContext(), c.Params("id"), req.Comment, req.IsInternal)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(*comment)})
}

func parseTicketListQuery(c *fiber.Ctx) repository.TicketListFilter {
	filter := repository.TicketListFilter{}
	if status := c.Query("status"); status != "" {
		s := domain.TicketStatus(status)
		filter.Status = &s
	}
	if severity := c.Query("severity"); severity != "" {
		s := domain.Severity(severity)
		filter.Severity = &s
	}
	if cameraID := c.Query("camera_id"); cameraID != "" {
		filter.CameraID = &cameraID
	}
	if orgID := c.Query("organization_id"); orgID != "" {
		filter.OrganizationID = &orgID
	}
	if assigneeID := c.Query("assigned_to"); assigneeID != "" {
		filter.AssigneeID = &assigneeID
	}
	filter.Limit = parseInt(c.Query("limit"), 100)
	if filter.Limit > 500 {
		filter.Limit = 500
	}
	filter.Offset = parseInt(c.Query("offset"), 0)
	return filter
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed < 0 {
		return def
	}
	return parsed
}

func ticketSummary(ticket *domain.Ticket) dto.TicketSummary {
	return dto.TicketSummary{
		ID:             ticket.ID,
		TicketNumber:   ticket.TicketNumber,
		Title:          ticket.Title,
		Severity:       ticket.Severity,
		Status:         ticket.Status,
		CameraID:       ticket.CameraID,
		OrganizationID: ticket.OrganizationID,
		ProviderID:     ticket.ProviderID,
		AssigneeID:     ticket.AssigneeID,
		ThumbnailURL:   ticket.ThumbnailURL,
		SLABreach:      ticket.SLABreach,
		CreatedAt:      ticket.CreatedAt,
		UpdatedAt:      ticket.UpdatedAt,
	}
}

func ticketDetail(detail *service.TicketDetail) dto.TicketDetailResponse {
	ticket := detail.Ticket
	comments := make([]dto.CommentResponse, 0, len(detail.Comments))
	for _, comment := range detail.Comments {
		comments = append(comments, commentResponse(comment))
	}
	history := make([]dto.StateHistoryResponse, 0, len(detail.History))
	for _, entry := range detail.History {
		history = append(history, dto.StateHistoryResponse{
			ID:        entry.ID,
			OldStatus: entry.OldStatus,
			NewStatus: entry.NewStatus,
			ChangedAt: entry.ChangedAt,
		})
	}
	return dto.TicketDetailResponse{
		ID:                   ticket.ID,
		TicketNumber:         ticket.TicketNumber,
		Title:                ticket.Title,
		Description:          ticket.Description,
		Severity:             ticket.Severity,
		Status:               ticket.Status,
		CameraID:             ticket.CameraID,
		OrganizationID:       ticket.OrganizationID,
		ProviderID:           ticket.ProviderID,
		VendorAlertID:        ticket.VendorAlertID,
		AlertData:            ticket.AlertData,
		ThumbnailURL:         ticket.ThumbnailURL,
		VideoClipURL:         ticket.VideoClipURL,
		DetectionCount:       ticket.DetectionCount,
		AssigneeID:           ticket.AssigneeID,
		AssignedAt:           ticket.AssignedAt,
		SLABreach:            ticket.SLABreach,
		SLABreachReason:      ticket.SLABreachReason,
		FirstResponseSeconds: ticket.FirstResponseSeconds,
		ResolutionSeconds:    ticket.ResolutionSeconds,
		CreatedAt:            ticket.CreatedAt,
		UpdatedAt:            ticket.UpdatedAt,
		Comments:             comments,
		StateHistory:         history,
	}
}

func commentResponse(comment domain.TicketComment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:         comment.ID,
		Comment:    comment.Comment,
		IsInternal: comment.IsInternal,
		CreatedAt:  comment.CreatedAt,
	}
}
