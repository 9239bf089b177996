package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/spec-kit/employee-onboarding/internal/auth"
	"github.com/spec-kit/employee-onboarding/internal/domain"
	apperrors "github.com/spec-kit/employee-onboarding/pkg/util/errorutil"
)

// MCP actions understood by Execute.
const (
	MCPActionGetEmployee   = "get_employee"
	MCPActionFindEmployee  = "find_employee"
	MCPActionListEmployees = "list_employees"
)

const defaultMCPListLimit = 50

// MCPCaller describes who sent an MCP request. Identity is nil for service callers.
type MCPCaller struct {
	Name     string
	Identity *domain.Identity
}

// MCPService answers agent queries over the employee records.
type MCPService struct {
	employees *EmployeeService
	logger    *zap.Logger
	now       func() time.Time
}

// NewMCPService builds the service.
func NewMCPService(employees *EmployeeService, logger *zap.Logger) *MCPService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MCPService{employees: employees, logger: logger, now: time.Now}
}

// Execute runs one action. Failures are reported inside the envelope; the
// returned error is reserved for store faults.
func (s *MCPService) Execute(ctx context.Context, caller MCPCaller, req domain.MCPRequest) (domain.MCPResponse, error) {
	resp := domain.MCPResponse{Context: s.replyContext(caller, req.Context)}
	s.logger.Debug("mcp request", zap.String("action", req.Action), zap.String("caller", caller.Name), zap.Stringp("request_id", resp.Context.RequestID))

	data, err := s.dispatch(ctx, caller, req)
	if err != nil {
		de := apperrors.ToDomainError(err)
		if de.HTTPStatus >= 500 {
			return domain.MCPResponse{}, err
		}
		resp.Status = domain.MCPStatusError
		resp.Error = &domain.MCPError{Code: de.Code, Message: de.Message}
		return resp, nil
	}

	resp.Status = domain.MCPStatusSuccess
	resp.Data = data
	return resp, nil
}

func (s *MCPService) dispatch(ctx context.Context, caller MCPCaller, req domain.MCPRequest) (any, error) {
	switch req.Action {
	case MCPActionGetEmployee:
		id, err := stringParam(req.Parameters, "employee_id")
		if err != nil {
			return nil, err
		}
		employee, err := s.employees.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		return employee.View(auth.CanViewConfidential(caller.Identity, employee.ID)), nil

	case MCPActionFindEmployee:
		name, err := stringParam(req.Parameters, "name")
		if err != nil {
			return nil, err
		}
		found, err := s.employees.FindByName(ctx, name)
		if err != nil {
			return nil, err
		}
		if len(found) == 0 {
			return nil, apperrors.NewNotFound("Employee", nil)
		}
		return views(caller, found), nil

	case MCPActionListEmployees:
		department, _ := req.Parameters["department"].(string)
		limit, err := intParam(req.Parameters, "limit", defaultMCPListLimit)
		if err != nil {
			return nil, err
		}
		found, err := s.employees.ListByDepartment(ctx, department, limit)
		if err != nil {
			return nil, err
		}
		return views(caller, found), nil
	}

	return nil, apperrors.NewDomainError("UNKNOWN_ACTION", fmt.Sprintf("unknown action %q", req.Action), http.StatusBadRequest, nil)
}

func (s *MCPService) replyContext(caller MCPCaller, in *domain.MCPContext) domain.MCPContext {
	out := domain.MCPContext{Service: domain.MCPServiceName, Timestamp: s.now().UTC()}
	if in != nil && in.RequestID != nil && *in.RequestID != "" {
		id := *in.RequestID
		out.RequestID = &id
	} else {
		id := uuid.NewString()
		out.RequestID = &id
	}
	if caller.Name != "" {
		name := caller.Name
		out.Caller = &name
	}
	return out
}

func views(caller MCPCaller, employees []domain.Employee) []domain.EmployeeView {
	out := make([]domain.EmployeeView, 0, len(employees))
	for i := range employees {
		out = append(out, employees[i].View(auth.CanViewConfidential(caller.Identity, employees[i].ID)))
	}
	return out
}

func stringParam(params map[string]any, key string) (string, error) {
	raw, ok := params[key]
	if !ok {
		return "", missingParam(key)
	}
	value, ok := raw.(string)
	if !ok || strings.TrimSpace(value) == "" {
		return "", missingParam(key)
	}
	return strings.TrimSpace(value), nil
}

func intParam(params map[string]any, key string, fallback int) (int, error) {
	raw, ok := params[key]
	if !ok || raw == nil {
		return fallback, nil
	}
	var n int
	switch v := raw.(type) {
	case float64:
		n = int(v)
	case int:
		n = v
	case string:
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return 0, invalidParam(key, errors.New("not an integer"))
		}
		n = parsed
	default:
		return 0, invalidParam(key, errors.New("not an integer"))
	}
	if n <= 0 {
		return 0, invalidParam(key, errors.New("must be positive"))
	}
	return n, nil
}

func missingParam(key string) error {
	return apperrors.NewDomainError("INVALID_PARAMETERS", fmt.Sprintf("parameter %s is required", key), http.StatusBadRequest, nil)
}

func invalidParam(key string, err error) error {
	return apperrors.NewDomainError("INVALID_PARAMETERS", fmt.Sprintf("parameter %s: %v", key, err), http.StatusBadRequest, nil)
}
