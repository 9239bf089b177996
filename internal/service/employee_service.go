package service

import (
	"context"
	"errors"
	"math"
	"sort"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-onboarding/internal/auth"
	"github.com/spec-kit/employee-onboarding/internal/domain"
	"github.com/spec-kit/employee-onboarding/internal/events"
	"github.com/spec-kit/employee-onboarding/internal/repository"
	apperrors "github.com/spec-kit/employee-onboarding/pkg/util/errorutil"
)

const (
	msgUsernameTaken    = "Username already exists"
	msgNotEnoughPerms   = "Not enough permissions"
	msgLookupParamsNeed = "Either employee_id or name must be provided"
)

// CreateEmployeeInput carries a self-registration or HR-created account.
type CreateEmployeeInput struct {
	Username   string
	Password   string
	FirstName  string
	LastName   string
	JobTitle   string
	Department string
	Email      string
	Phone      *string
	Role       domain.Role
}

// EmployeeService implements the employee record workflows.
type EmployeeService struct {
	employees  repository.EmployeeRepository
	hasher     *auth.PasswordHasher
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewEmployeeService wires dependencies.
func NewEmployeeService(employees repository.EmployeeRepository, hasher *auth.PasswordHasher, dispatcher events.Dispatcher, logger *zap.Logger) *EmployeeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EmployeeService{employees: employees, hasher: hasher, dispatcher: dispatcher, logger: logger}
}

// Create registers a new employee. actor is nil for anonymous self-registration.
func (s *EmployeeService) Create(ctx context.Context, actor *domain.Identity, in CreateEmployeeInput) (*domain.Employee, error) {
	if in.Role == "" {
		in.Role = domain.DefaultRole
	}
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	if !auth.CanAssignRole(actor, in.Role) {
		return nil, apperrors.NewForbidden("Not enough permissions to assign role " + string(in.Role))
	}

	if _, err := s.employees.GetByUsername(ctx, in.Username); err == nil {
		return nil, apperrors.NewValidationError(msgUsernameTaken, nil)
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, auth.ErrPasswordTooLong) {
			return nil, apperrors.NewValidationError("password is too long", map[string]any{"max_bytes": 72})
		}
		return nil, apperrors.NewInternalError(err)
	}

	employee := &domain.Employee{
		ID:           uuid.NewString(),
		Username:     in.Username,
		PasswordHash: hash,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		JobTitle:     in.JobTitle,
		Department:   in.Department,
		Email:        in.Email,
		Phone:        in.Phone,
		Role:         in.Role,
	}
	if err := s.employees.Create(ctx, employee); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, apperrors.NewValidationError(msgUsernameTaken, nil)
		}
		return nil, apperrors.NewInternalError(err)
	}

	s.publish(ctx, events.New(events.EventEmployeeCreated, employee.ID, actorOf(actor), events.EmployeeCreatedPayload{
		Username:   employee.Username,
		Role:       string(employee.Role),
		Department: employee.Department,
	}))
	return employee, nil
}

// Get loads one employee by id.
func (s *EmployeeService) Get(ctx context.Context, id string) (*domain.Employee, error) {
	employee, err := s.employees.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err)
	}
	return employee, nil
}

// UpdateProfile applies patch to targetID. Editing someone else needs can_edit_other;
// changing a role needs can_assign_role for both the new and the current role.
func (s *EmployeeService) UpdateProfile(ctx context.Context, actor *domain.Identity, targetID string, patch domain.EmployeePatch) (*domain.Employee, error) {
	if actor == nil {
		return nil, apperrors.NewUnauthorized("Not authenticated")
	}
	if actor.ID != targetID && !auth.CanEditOther(actor) {
		return nil, apperrors.NewForbidden(msgNotEnoughPerms)
	}
	if patch.Role != nil {
		if !patch.Role.Valid() {
			return nil, apperrors.NewValidationError("invalid role", map[string]any{"role": string(*patch.Role)})
		}
		if !auth.CanAssignRole(actor, *patch.Role) {
			return nil, apperrors.NewForbidden("Not enough permissions to assign role " + string(*patch.Role))
		}
		current, err := s.employees.GetByID(ctx, targetID)
		if err != nil {
			return nil, storeError(err)
		}
		// Demoting is gated by the role being taken away.
		if current.Role != *patch.Role && !auth.CanAssignRole(actor, current.Role) {
			return nil, apperrors.NewForbidden("Not enough permissions to change role " + string(current.Role))
		}
	}
	if patch.Empty() {
		return s.Get(ctx, targetID)
	}

	row := patchRow(patch)
	updated, err := s.employees.Update(ctx, targetID, row)
	if err != nil {
		return nil, storeError(err)
	}

	s.publish(ctx, events.New(events.EventEmployeeUpdated, targetID, actorOf(actor), events.EmployeeUpdatedPayload{
		Fields: sortedColumns(row),
	}))
	return updated, nil
}

// UpdateSalary sets the salary of employeeID. Only privileged roles may call it.
func (s *EmployeeService) UpdateSalary(ctx context.Context, actor *domain.Identity, employeeID string, salary float64) (*domain.Employee, error) {
	if !auth.CanSetSalary(actor) {
		return nil, apperrors.NewForbidden(msgNotEnoughPerms)
	}
	if math.IsNaN(salary) || math.IsInf(salary, 0) || salary < 0 {
		return nil, apperrors.NewValidationError("salary must be a non-negative number", nil)
	}

	current, err := s.employees.GetByID(ctx, employeeID)
	if err != nil {
		return nil, storeError(err)
	}
	updated, err := s.employees.Update(ctx, employeeID, repository.Row{"salary": salary})
	if err != nil {
		return nil, storeError(err)
	}

	s.publish(ctx, events.New(events.EventSalaryUpdated, employeeID, actorOf(actor), events.SalaryUpdatedPayload{
		HadPrevious: current.Salary != nil,
	}))
	return updated, nil
}

// Lookup finds one employee by id, or else by name. A name with spaces is split
// into first name and the rest as last name; a single word matches either.
func (s *EmployeeService) Lookup(ctx context.Context, employeeID, name string) (*domain.Employee, error) {
	employeeID = strings.TrimSpace(employeeID)
	name = strings.TrimSpace(name)
	if employeeID != "" {
		return s.Get(ctx, employeeID)
	}
	if name == "" {
		return nil, apperrors.NewValidationError(msgLookupParamsNeed, nil)
	}

	found, err := s.FindByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if len(found) == 0 {
		return nil, apperrors.NewNotFound("Employee", nil)
	}
	return &found[0], nil
}

// FindByName returns every employee matching name.
func (s *EmployeeService) FindByName(ctx context.Context, name string) ([]domain.Employee, error) {
	var (
		found []domain.Employee
		err   error
	)
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return nil, apperrors.NewValidationError("name must not be empty", nil)
	case 1:
		found, err = s.employees.FindByAnyName(ctx, parts[0])
	default:
		found, err = s.employees.FindByName(ctx, parts[0], strings.Join(parts[1:], " "))
	}
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return found, nil
}

// ListByDepartment lists employees, optionally restricted to one department.
func (s *EmployeeService) ListByDepartment(ctx context.Context, department string, limit int) ([]domain.Employee, error) {
	found, err := s.employees.ListByDepartment(ctx, department, limit)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return found, nil
}

func (s *EmployeeService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.Publish(ctx, event); err != nil {
		s.logger.Warn("event handler failed", zap.String("event_type", string(event.Type)), zap.Error(err))
	}
}

func validateCreate(in CreateEmployeeInput) error {
	missing := []string{}
	for field, value := range map[string]string{
		"username":   in.Username,
		"password":   in.Password,
		"first_name": in.FirstName,
		"last_name":  in.LastName,
		"job_title":  in.JobTitle,
		"department": in.Department,
		"email":      in.Email,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return apperrors.NewValidationError("missing required fields", map[string]any{"fields": missing})
	}
	if !in.Role.Valid() {
		return apperrors.NewValidationError("invalid role", map[string]any{"role": string(in.Role)})
	}
	return nil
}

func patchRow(p domain.EmployeePatch) repository.Row {
	row := repository.Row{}
	set := func(col string, v *string) {
		if v != nil {
			row[col] = *v
		}
	}
	set("first_name", p.FirstName)
	set("last_name", p.LastName)
	set("job_title", p.JobTitle)
	set("department", p.Department)
	set("email", p.Email)
	set("phone", p.Phone)
	if p.Role != nil {
		row["role"] = string(*p.Role)
	}
	return row
}

func sortedColumns(row repository.Row) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func storeError(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound("Employee", nil)
	}
	return apperrors.NewInternalError(err)
}

func actorOf(identity *domain.Identity) events.Actor {
	if identity == nil {
		return events.Actor{}
	}
	return events.Actor{Username: identity.Username}
}
