package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/employee-onboarding/internal/api/dto"
	"github.com/spec-kit/employee-onboarding/internal/auth"
	"github.com/spec-kit/employee-onboarding/internal/service"
	apperrors "github.com/spec-kit/employee-onboarding/pkg/util/errorutil"
)

// EmployeesHandler exposes the employee record routes.
type EmployeesHandler struct {
	employees *service.EmployeeService
}

// NewEmployeesHandler constructs handler.
func NewEmployeesHandler(employees *service.EmployeeService) *EmployeesHandler {
	return &EmployeesHandler{employees: employees}
}

// Create handles POST /employees.
func (h *EmployeesHandler) Create(c *fiber.Ctx) error {
	var req dto.EmployeeCreateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	employee, err := h.employees.Create(c.UserContext(), auth.IdentityFromContext(c), req.ToInput())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(employee.View(false))
}

// Me handles GET /employees/me.
func (h *EmployeesHandler) Me(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.Employee == nil {
		return apperrors.NewUnauthorized("Not authenticated")
	}
	return c.JSON(principal.Employee.View(false))
}

// UpdateMe handles PUT /employees/me. Role and salary cannot be changed here.
func (h *EmployeesHandler) UpdateMe(c *fiber.Ctx) error {
	identity := auth.IdentityFromContext(c)
	if identity == nil {
		return apperrors.NewUnauthorized("Not authenticated")
	}
	var req dto.EmployeeUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	employee, err := h.employees.UpdateProfile(c.UserContext(), identity, identity.ID, req.ToPatch(false))
	if err != nil {
		return err
	}
	return c.JSON(employee.View(false))
}

// Get handles GET /employees/:id.
func (h *EmployeesHandler) Get(c *fiber.Ctx) error {
	identity := auth.IdentityFromContext(c)
	employee, err := h.employees.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(employee.View(auth.CanViewConfidential(identity, employee.ID)))
}

// Update handles PUT /employees/:id.
func (h *EmployeesHandler) Update(c *fiber.Ctx) error {
	identity := auth.IdentityFromContext(c)
	var req dto.EmployeeUpdateRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	employee, err := h.employees.UpdateProfile(c.UserContext(), identity, c.Params("id"), req.ToPatch(true))
	if err != nil {
		return err
	}
	return c.JSON(employee.View(auth.CanViewConfidential(identity, employee.ID)))
}

// UpdateSalary handles PUT /employees/:id/salary?salary=.
func (h *EmployeesHandler) UpdateSalary(c *fiber.Ctx) error {
	raw := c.Query("salary")
	if raw == "" {
		return apperrors.NewValidationError("salary query parameter is required", nil)
	}
	salary, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return apperrors.NewValidationError("salary must be a number", map[string]any{"salary": raw})
	}

	employee, err := h.employees.UpdateSalary(c.UserContext(), auth.IdentityFromContext(c), c.Params("id"), salary)
	if err != nil {
		return err
	}
	return c.JSON(employee.View(true))
}

// Lookup handles GET /employees/api/employee?employee_id=|name=.
func (h *EmployeesHandler) Lookup(c *fiber.Ctx) error {
	employee, err := h.employees.Lookup(c.UserContext(), c.Query("employee_id"), c.Query("name"))
	if err != nil {
		return err
	}
	return c.JSON(employee.View(false))
}
