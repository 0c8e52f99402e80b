package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/alert-ticket-service/internal/api/dto"
	"github.com/spec-kit/alert-ticket-service/internal/auth"
	apperrors "github.com/spec-kit/alert-ticket-service/pkg/util"
)

// AuthHandler exchanges API keys for JWTs.
type AuthHandler struct {
	service *auth.Service
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *auth.Service) *AuthHandler {
	return &AuthHandler{service: authService}
}

// Token POST /auth/token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var req dto.TokenRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(req.SubjectID) == "" || strings.TrimSpace(req.APIKey) == "" {
		return apperrors.NewValidationError("subject_id and api_key required", nil)
	}
	token, expiresAt, role, err := h.service.ExchangeAPIKey(req.SubjectID, req.APIKey)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.TokenResponse{
		Token:     token,
		Role:      string(role),
		ExpiresAt: expiresAt,
	}})
}
