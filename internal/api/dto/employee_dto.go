package dto

import (
	"github.com/spec-kit/employee-onboarding/internal/domain"
	"github.com/spec-kit/employee-onboarding/internal/service"
)

// EmployeeCreateRequest payload for POST /employees.
type EmployeeCreateRequest struct {
	Username   string  `json:"username"`
	Password   string  `json:"password"`
	FirstName  string  `json:"first_name"`
	LastName   string  `json:"last_name"`
	JobTitle   string  `json:"job_title"`
	Department string  `json:"department"`
	Email      string  `json:"email"`
	Phone      *string `json:"phone"`
	Role       string  `json:"role"`
}

// ToInput converts the payload for the employee service.
func (r EmployeeCreateRequest) ToInput() service.CreateEmployeeInput {
	return service.CreateEmployeeInput{
		Username:   r.Username,
		Password:   r.Password,
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		JobTitle:   r.JobTitle,
		Department: r.Department,
		Email:      r.Email,
		Phone:      r.Phone,
		Role:       domain.Role(r.Role),
	}
}

// EmployeeUpdateRequest payload for profile edits. Absent fields are left unchanged.
type EmployeeUpdateRequest struct {
	FirstName  *string `json:"first_name"`
	LastName   *string `json:"last_name"`
	JobTitle   *string `json:"job_title"`
	Department *string `json:"department"`
	Email      *string `json:"email"`
	Phone      *string `json:"phone"`
	Role       *string `json:"role"`
}

// ToPatch converts the payload. Role is dropped unless allowRole is set.
func (r EmployeeUpdateRequest) ToPatch(allowRole bool) domain.EmployeePatch {
	patch := domain.EmployeePatch{
		FirstName:  r.FirstName,
		LastName:   r.LastName,
		JobTitle:   r.JobTitle,
		Department: r.Department,
		Email:      r.Email,
		Phone:      r.Phone,
	}
	if allowRole && r.Role != nil {
		role := domain.Role(*r.Role)
		patch.Role = &role
	}
	return patch
}
