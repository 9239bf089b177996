package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-onboarding/internal/auth"
	"github.com/spec-kit/employee-onboarding/internal/domain"
	"github.com/spec-kit/employee-onboarding/internal/service"
	apperrors "github.com/spec-kit/employee-onboarding/pkg/util/errorutil"
)

// MCPHandler serves the agent query protocol.
type MCPHandler struct {
	mcp *service.MCPService
}

// NewMCPHandler constructs handler.
func NewMCPHandler(mcp *service.MCPService) *MCPHandler {
	return &MCPHandler{mcp: mcp}
}

// Handle handles POST /employees/api/mcp.
func (h *MCPHandler) Handle(c *fiber.Ctx) error {
	var req domain.MCPRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Action == "" {
		return apperrors.NewValidationError("action is required", nil)
	}

	caller := service.MCPCaller{}
	if principal, ok := auth.PrincipalFromContext(c); ok {
		caller.Name = principal.Caller()
		caller.Identity = principal.Identity
	}

	resp, err := h.mcp.Execute(c.UserContext(), caller, req)
	if err != nil {
		return err
	}
	return c.JSON(resp)
}
