package access

import (
	"caseflow/internal/domain"
)

// Actions checked against the permission layer.
const (
	ActionTransition = "transition"
	ActionManageTask = "manage_task"
	ActionView       = "view"
)

// Checker implements department-scoped authorization: superusers can act
// anywhere, everyone else only on resources owned by their own department.
// Viewing is open to any authenticated user.
type Checker struct{}

func NewChecker() *Checker {
	return &Checker{}
}

func (c *Checker) CanAct(actor *domain.User, action string, resource domain.DepartmentScoped) bool {
	if actor == nil || !actor.IsActive {
		return false
	}
	if actor.Role == domain.RoleSuperuser {
		return true
	}
	if action == ActionView {
		return true
	}
	return actor.DepartmentID != nil && *actor.DepartmentID == resource.OwningDepartment()
}
