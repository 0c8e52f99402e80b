package auth

import (
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/alert-ticket-service/internal/config"
	apperrors "github.com/spec-kit/alert-ticket-service/pkg/util"
)

// Service exchanges shared API keys for short-lived JWTs. Provider and
// operator keys are configured as bcrypt digests so plaintext secrets never
// live in the environment.
type Service struct {
	cfg    config.AuthConfig
	tokens *TokenManager
}

// NewService builds the auth service.
func NewService(cfg config.AuthConfig) *Service {
	return &Service{
		cfg:    cfg,
		tokens: NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
	}
}

// TokenManager exposes the manager for middleware wiring.
func (s *Service) TokenManager() *TokenManager {
	return s.tokens
}

// ExchangeAPIKey verifies an API key against the configured role hashes and
// issues a JWT for the matching role.
func (s *Service) ExchangeAPIKey(subjectID, apiKey string) (string, time.Time, Role, error) {
	role, ok := s.matchRole(apiKey)
	if !ok {
		return "", time.Time{}, "", apperrors.NewUnauthorized("invalid api key")
	}
	token, expiresAt, err := s.tokens.GenerateToken(subjectID, role)
	if err != nil {
		return "", time.Time{}, "", apperrors.NewInternalError(err)
	}
	return token, expiresAt, role, nil
}

func (s *Service) matchRole(apiKey string) (Role, bool) {
	candidates := []struct {
		hash string
		role Role
	}{
		{s.cfg.ProviderAPIKeyHash, RoleProvider},
		{s.cfg.OperatorAPIKeyHash, RoleOperator},
	}
	for _, candidate := range candidates {
		if candidate.hash == "" {
			continue
		}
		if bcrypt.CompareHashAndPassword([]byte(candidate.hash), []byte(apiKey)) == nil {
			return candidate.role, true
		}
	}
	return "", false
}

// HashAPIKey hashes a plaintext key with the configured cost. Used by
// operators generating new credentials.
func HashAPIKey(key string, cost int) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(key), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}
