package domain

import "errors"

// Engine error taxonomy. All failures are synchronous and returned to the
// caller; handlers map them to HTTP status codes with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidTransition   = errors.New("invalid transition")
	ErrValidation          = errors.New("validation failed")
	ErrSelfDependency      = errors.New("task cannot depend on itself")
	ErrCrossCaseDependency = errors.New("tasks belong to different expedientes")
	ErrCircularDependency  = errors.New("dependency would create a cycle")
	ErrDuplicateDependency = errors.New("dependency already exists")
	ErrDepartmentMismatch  = errors.New("user does not belong to the task department")
	ErrConcurrentUpdate    = errors.New("concurrent update detected")
)
