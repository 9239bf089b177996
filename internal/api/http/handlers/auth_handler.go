package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-onboarding/internal/api/dto"
	"github.com/spec-kit/employee-onboarding/internal/service"
	apperrors "github.com/spec-kit/employee-onboarding/pkg/util/errorutil"
)

// ServiceAPIKeyHeader carries the static key of a calling service.
const ServiceAPIKeyHeader = "X-Service-API-Key"

// AuthHandler exposes login and the service token exchange.
type AuthHandler struct {
	auth *service.AuthService
}

// NewAuthHandler constructs handler.
func NewAuthHandler(authService *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: authService}
}

// Token handles POST /token.
func (h *AuthHandler) Token(c *fiber.Ctx) error {
	var form dto.LoginForm
	if err := c.BodyParser(&form); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if strings.TrimSpace(form.Username) == "" || form.Password == "" {
		return apperrors.NewValidationError("username and password required", nil)
	}

	token, err := h.auth.Login(c.UserContext(), form.Username, form.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.TokenResponse{AccessToken: token.Value, TokenType: "bearer"})
}

// ServiceToken handles POST /services/token.
func (h *AuthHandler) ServiceToken(c *fiber.Ctx) error {
	token, err := h.auth.IssueServiceToken(c.UserContext(), c.Get(ServiceAPIKeyHeader), c.IP())
	if err != nil {
		return err
	}
	return c.JSON(dto.ServiceTokenResponse{
		AccessToken: token.Value,
		TokenType:   "bearer",
		ExpiresIn:   token.ExpiresIn(),
		Service:     token.Subject,
	})
}

// ServiceVerify handles GET /services/verify.
func (h *AuthHandler) ServiceVerify(c *fiber.Ctx) error {
	claims, err := h.auth.VerifyServiceToken(c.UserContext(), c.Get(ServiceAPIKeyHeader), c.IP(), c.Get(fiber.HeaderAuthorization))
	if err != nil {
		return err
	}
	return c.JSON(dto.ServiceVerifyResponse{
		Valid:     true,
		Service:   claims.Subject,
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	})
}
