package access

import (
	"testing"

	"caseflow/internal/domain"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanAct(t *testing.T) {
	checker := NewChecker()
	deptA, deptB := uuid.New(), uuid.New()
	resource := &domain.Task{ID: uuid.New(), DepartmentID: deptA}

	superuser := &domain.User{ID: uuid.New(), Role: domain.RoleSuperuser, IsActive: true}
	sameDept := &domain.User{ID: uuid.New(), Role: domain.RoleAnalyst, DepartmentID: &deptA, IsActive: true}
	otherDept := &domain.User{ID: uuid.New(), Role: domain.RoleAnalyst, DepartmentID: &deptB, IsActive: true}
	inactive := &domain.User{ID: uuid.New(), Role: domain.RoleSuperuser, IsActive: false}

	assert.True(t, checker.CanAct(superuser, ActionManageTask, resource))
	assert.True(t, checker.CanAct(sameDept, ActionManageTask, resource))
	assert.False(t, checker.CanAct(otherDept, ActionManageTask, resource))
	assert.True(t, checker.CanAct(otherDept, ActionView, resource), "viewing is open to any active user")
	assert.False(t, checker.CanAct(inactive, ActionView, resource))
	assert.False(t, checker.CanAct(nil, ActionView, resource))
}
