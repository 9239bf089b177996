package domain

import "time"

// Employee is the onboarding record stored in the employees table.
type Employee struct {
	ID           string
	Username     string
	PasswordHash string
	FirstName    string
	LastName     string
	JobTitle     string
	Department   string
	Email        string
	Phone        *string
	Role         Role
	Salary       *float64
	CreatedAt    time.Time
}

// Identity projects the record onto the fields authorization needs.
func (e *Employee) Identity() *Identity {
	return &Identity{ID: e.ID, Username: e.Username, Role: e.Role}
}

// EmployeePatch lists profile fields a caller may change. Nil fields are left untouched.
type EmployeePatch struct {
	FirstName  *string
	LastName   *string
	JobTitle   *string
	Department *string
	Email      *string
	Phone      *string
	Role       *Role
}

// Empty reports whether the patch changes nothing.
func (p EmployeePatch) Empty() bool {
	return p.FirstName == nil && p.LastName == nil && p.JobTitle == nil &&
		p.Department == nil && p.Email == nil && p.Phone == nil && p.Role == nil
}

// EmployeeView is the client-facing shape of an employee. Salary is only set
// on confidential views; the password hash never leaves the service.
type EmployeeView struct {
	ID         string    `json:"id"`
	Username   string    `json:"username"`
	FirstName  string    `json:"first_name"`
	LastName   string    `json:"last_name"`
	JobTitle   string    `json:"job_title"`
	Department string    `json:"department"`
	Email      string    `json:"email"`
	Phone      *string   `json:"phone"`
	Role       Role      `json:"role"`
	CreatedAt  time.Time `json:"created_at"`
	Salary     *float64  `json:"salary,omitempty"`
}

// View projects the record. confidential controls whether salary is included.
func (e *Employee) View(confidential bool) EmployeeView {
	v := EmployeeView{
		ID:         e.ID,
		Username:   e.Username,
		FirstName:  e.FirstName,
		LastName:   e.LastName,
		JobTitle:   e.JobTitle,
		Department: e.Department,
		Email:      e.Email,
		Phone:      e.Phone,
		Role:       e.Role,
		CreatedAt:  e.CreatedAt,
	}
	if confidential {
		v.Salary = e.Salary
	}
	return v
}
