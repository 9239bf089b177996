package service

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/employee-onboarding/internal/domain"
	"github.com/spec-kit/employee-onboarding/internal/events"
)

func TestEmployeeService_CreateAnonymous(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.employees.Create(ctx, nil, input("newbie"))
	require.NoError(t, err)
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, domain.RoleEmployee, created.Role)
	assert.NotEqual(t, "Password123!", created.PasswordHash)
	assert.True(t, f.hasher.Verify("Password123!", created.PasswordHash))

	require.Len(t, *f.published, 1)
	assert.Equal(t, events.EventEmployeeCreated, (*f.published)[0].Type)
	assert.Equal(t, created.ID, (*f.published)[0].SubjectID)
}

func TestEmployeeService_CreateRejectsDuplicateUsername(t *testing.T) {
	f := newFixture(t)
	f.seed(t, "ada", domain.RoleEmployee)

	_, err := f.employees.Create(context.Background(), nil, input("ada"))
	de := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "Username already exists", de.Message)
}

func TestEmployeeService_CreateRoleAssignment(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hr := f.seed(t, "hr", domain.RoleHR).Identity()
	manager := f.seed(t, "boss", domain.RoleManager).Identity()

	in := input("promoted")
	in.Role = domain.RoleManager

	_, err := f.employees.Create(ctx, nil, in)
	requireStatus(t, err, http.StatusForbidden)

	_, err = f.employees.Create(ctx, manager, in)
	requireStatus(t, err, http.StatusForbidden)

	created, err := f.employees.Create(ctx, hr, in)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleManager, created.Role)
}

func TestEmployeeService_CreateValidation(t *testing.T) {
	f := newFixture(t)

	in := input("x")
	in.Email = ""
	in.JobTitle = " "
	_, err := f.employees.Create(context.Background(), nil, in)
	de := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, []string{"email", "job_title"}, de.Details["fields"])

	in = input("y")
	in.Role = "ceo"
	_, err = f.employees.Create(context.Background(), nil, in)
	requireStatus(t, err, http.StatusBadRequest)
}

func TestEmployeeService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.seed(t, "ada", domain.RoleEmployee)
	alan := f.seed(t, "alan", domain.RoleEmployee)
	hr := f.seed(t, "hr", domain.RoleHR)

	title := "Principal Engineer"
	updated, err := f.employees.UpdateProfile(ctx, ada.Identity(), ada.ID, domain.EmployeePatch{JobTitle: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.JobTitle)
	assert.Equal(t, "ada", updated.Username)

	_, err = f.employees.UpdateProfile(ctx, ada.Identity(), alan.ID, domain.EmployeePatch{JobTitle: &title})
	requireStatus(t, err, http.StatusForbidden)

	updated, err = f.employees.UpdateProfile(ctx, hr.Identity(), alan.ID, domain.EmployeePatch{JobTitle: &title})
	require.NoError(t, err)
	assert.Equal(t, title, updated.JobTitle)

	admin := domain.RoleAdmin
	_, err = f.employees.UpdateProfile(ctx, ada.Identity(), ada.ID, domain.EmployeePatch{Role: &admin})
	requireStatus(t, err, http.StatusForbidden)

	_, err = f.employees.UpdateProfile(ctx, hr.Identity(), "missing", domain.EmployeePatch{JobTitle: &title})
	requireStatus(t, err, http.StatusNotFound)

	last := (*f.published)[len(*f.published)-1]
	assert.Equal(t, events.EventEmployeeUpdated, last.Type)
	assert.Equal(t, events.EmployeeUpdatedPayload{Fields: []string{"job_title"}}, last.Payload)
}

func TestEmployeeService_UpdateProfileRoleChanges(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	hr := f.seed(t, "hr", domain.RoleHR)
	manager := f.seed(t, "boss", domain.RoleManager)
	admin := f.seed(t, "root", domain.RoleAdmin)

	demote := domain.RoleEmployee
	_, err := f.employees.UpdateProfile(ctx, manager.Identity(), hr.ID, domain.EmployeePatch{Role: &demote})
	requireStatus(t, err, http.StatusForbidden)
	_, err = f.employees.UpdateProfile(ctx, manager.Identity(), admin.ID, domain.EmployeePatch{Role: &demote})
	requireStatus(t, err, http.StatusForbidden)

	stored, err := f.repo.GetByID(ctx, hr.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleHR, stored.Role)

	updated, err := f.employees.UpdateProfile(ctx, hr.Identity(), manager.ID, domain.EmployeePatch{Role: &demote})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleEmployee, updated.Role)

	_, err = f.employees.UpdateProfile(ctx, hr.Identity(), "missing", domain.EmployeePatch{Role: &demote})
	requireStatus(t, err, http.StatusNotFound)
}

func TestEmployeeService_UpdateSalary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.seed(t, "ada", domain.RoleEmployee)
	manager := f.seed(t, "boss", domain.RoleManager)

	_, err := f.employees.UpdateSalary(ctx, ada.Identity(), ada.ID, 1_000_000)
	requireStatus(t, err, http.StatusForbidden)

	updated, err := f.employees.UpdateSalary(ctx, manager.Identity(), ada.ID, 85000)
	require.NoError(t, err)
	require.NotNil(t, updated.Salary)
	assert.InDelta(t, 85000, *updated.Salary, 0.001)

	_, err = f.employees.UpdateSalary(ctx, manager.Identity(), "missing", 1)
	requireStatus(t, err, http.StatusNotFound)

	_, err = f.employees.UpdateSalary(ctx, manager.Identity(), ada.ID, -5)
	requireStatus(t, err, http.StatusBadRequest)

	last := (*f.published)[len(*f.published)-1]
	assert.Equal(t, events.EventSalaryUpdated, last.Type)
	assert.Equal(t, events.SalaryUpdatedPayload{HadPrevious: false}, last.Payload)
}

func TestEmployeeService_Lookup(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	ada := f.seed(t, "ada", domain.RoleEmployee)

	got, err := f.employees.Lookup(ctx, ada.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "ada", got.Username)

	got, err = f.employees.Lookup(ctx, "", "Firstada Last")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, got.ID)

	got, err = f.employees.Lookup(ctx, "", "Last")
	require.NoError(t, err)
	assert.Equal(t, ada.ID, got.ID)

	_, err = f.employees.Lookup(ctx, "", "Nobody")
	requireStatus(t, err, http.StatusNotFound)

	_, err = f.employees.Lookup(ctx, "", "")
	de := requireStatus(t, err, http.StatusBadRequest)
	assert.Equal(t, "Either employee_id or name must be provided", de.Message)
}
