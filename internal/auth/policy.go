package auth

import "github.com/spec-kit/employee-onboarding/internal/domain"

// privilegedRoles may see and change other employees' confidential data.
var privilegedRoles = []domain.Role{domain.RoleHR, domain.RoleManager, domain.RoleAdmin}

// roleAssigners may create or promote accounts above the default role.
var roleAssigners = []domain.Role{domain.RoleHR, domain.RoleAdmin}

// CanAssignRole reports whether actor may give an account target. A nil actor is anonymous.
func CanAssignRole(actor *domain.Identity, target domain.Role) bool {
	if target == domain.DefaultRole {
		return true
	}
	return actor != nil && actor.Role.In(roleAssigners...)
}

// CanEditOther reports whether actor may change another employee's record.
func CanEditOther(actor *domain.Identity) bool {
	return actor != nil && actor.Role.In(privilegedRoles...)
}

// CanViewConfidential reports whether actor may read targetID's salary.
func CanViewConfidential(actor *domain.Identity, targetID string) bool {
	if actor == nil {
		return false
	}
	return actor.Role.In(privilegedRoles...) || (actor.ID != "" && actor.ID == targetID)
}

// CanSetSalary reports whether actor may change salaries.
func CanSetSalary(actor *domain.Identity) bool {
	return actor != nil && actor.Role.In(privilegedRoles...)
}
