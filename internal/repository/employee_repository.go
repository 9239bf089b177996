package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/spec-kit/employee-onboarding/internal/domain"
)

// EmployeesTable is the only table the API touches.
const EmployeesTable = "employees"

// EmployeeRepository defines persistence access for employee records.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByUsername(ctx context.Context, username string) (*domain.Employee, error)
	FindByName(ctx context.Context, first, last string) ([]domain.Employee, error)
	FindByAnyName(ctx context.Context, name string) ([]domain.Employee, error)
	ListByDepartment(ctx context.Context, department string, limit int) ([]domain.Employee, error)
	Update(ctx context.Context, id string, patch Row) (*domain.Employee, error)
}

type employeeRepository struct {
	store RecordStore
}

// NewEmployeeRepository returns an implementation over any RecordStore.
func NewEmployeeRepository(store RecordStore) EmployeeRepository {
	return &employeeRepository{store: store}
}

func (r *employeeRepository) Create(ctx context.Context, employee *domain.Employee) error {
	if employee.CreatedAt.IsZero() {
		employee.CreatedAt = time.Now().UTC()
	}
	row, err := r.store.Insert(ctx, EmployeesTable, employeeToRow(employee))
	if err != nil {
		return err
	}
	created, err := rowToEmployee(row)
	if err != nil {
		return err
	}
	*employee = *created
	return nil
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	return r.findOne(ctx, Where("id", id))
}

func (r *employeeRepository) GetByUsername(ctx context.Context, username string) (*domain.Employee, error) {
	return r.findOne(ctx, Where("username", username))
}

func (r *employeeRepository) FindByName(ctx context.Context, first, last string) ([]domain.Employee, error) {
	return r.findMany(ctx, Where("first_name", first).And("last_name", last))
}

func (r *employeeRepository) FindByAnyName(ctx context.Context, name string) ([]domain.Employee, error) {
	return r.findMany(ctx, Filter{AnyOf: map[string]any{"first_name": name, "last_name": name}})
}

func (r *employeeRepository) ListByDepartment(ctx context.Context, department string, limit int) ([]domain.Employee, error) {
	filter := Filter{Limit: limit}
	if department != "" {
		filter = Where("department", department)
		filter.Limit = limit
	}
	return r.findMany(ctx, filter)
}

// Update applies patch to the record and returns the new state, or ErrNotFound.
func (r *employeeRepository) Update(ctx context.Context, id string, patch Row) (*domain.Employee, error) {
	rows, err := r.store.Update(ctx, EmployeesTable, Where("id", id), patch)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rowToEmployee(rows[0])
}

func (r *employeeRepository) findOne(ctx context.Context, filter Filter) (*domain.Employee, error) {
	filter.Limit = 1
	rows, err := r.store.Find(ctx, EmployeesTable, filter)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return rowToEmployee(rows[0])
}

func (r *employeeRepository) findMany(ctx context.Context, filter Filter) ([]domain.Employee, error) {
	filter.OrderBy = "created_at"
	rows, err := r.store.Find(ctx, EmployeesTable, filter)
	if err != nil {
		return nil, err
	}
	result := make([]domain.Employee, 0, len(rows))
	for _, row := range rows {
		employee, err := rowToEmployee(row)
		if err != nil {
			return nil, err
		}
		result = append(result, *employee)
	}
	return result, nil
}

func employeeToRow(e *domain.Employee) Row {
	row := Row{
		"id":            e.ID,
		"username":      e.Username,
		"password_hash": e.PasswordHash,
		"first_name":    e.FirstName,
		"last_name":     e.LastName,
		"job_title":     e.JobTitle,
		"department":    e.Department,
		"email":         e.Email,
		"role":          string(e.Role),
		"phone":         nil,
		"salary":        nil,
		"created_at":    e.CreatedAt,
	}
	if e.Phone != nil {
		row["phone"] = *e.Phone
	}
	if e.Salary != nil {
		row["salary"] = *e.Salary
	}
	return row
}

func rowToEmployee(row Row) (*domain.Employee, error) {
	e := &domain.Employee{}
	var err error
	if e.ID, err = stringCol(row, "id"); err != nil {
		return nil, err
	}
	if e.Username, err = stringCol(row, "username"); err != nil {
		return nil, err
	}
	e.PasswordHash, _ = row["password_hash"].(string)
	e.FirstName, _ = row["first_name"].(string)
	e.LastName, _ = row["last_name"].(string)
	e.JobTitle, _ = row["job_title"].(string)
	e.Department, _ = row["department"].(string)
	e.Email, _ = row["email"].(string)

	role, _ := row["role"].(string)
	e.Role = domain.Role(role)
	if e.Role == "" {
		e.Role = domain.DefaultRole
	}

	if phone, ok := deref(row["phone"]).(string); ok {
		e.Phone = &phone
	}
	if salary, ok := floatCol(row["salary"]); ok {
		e.Salary = &salary
	}
	if created, ok := row["created_at"].(time.Time); ok {
		e.CreatedAt = created
	}
	return e, nil
}

func stringCol(row Row, col string) (string, error) {
	val, ok := row[col].(string)
	if !ok || val == "" {
		return "", fmt.Errorf("employee row: column %s missing", col)
	}
	return val, nil
}

func floatCol(v any) (float64, bool) {
	switch n := deref(v).(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int64:
		return float64(n), true
	case int32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}
