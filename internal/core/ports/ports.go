package ports

import (
	"context"

	"caseflow/internal/domain"

	"github.com/google/uuid"
)

// ExpedienteFilter narrows expediente listings.
type ExpedienteFilter struct {
	Status       domain.CaseStatus
	DepartmentID *uuid.UUID
	StateID      *uuid.UUID
	OwnerCedula  string
	Limit        int
	Offset       int
}

// TaskFilter narrows task listings within an expediente.
type TaskFilter struct {
	Status       domain.TaskStatus
	DepartmentID *uuid.UUID
	AssigneeID   *uuid.UUID
}

// CompletionResult is what a task completion observed inside its transaction:
// the direct dependents that became startable while still pending, and how
// many open tasks remain for the owning expediente.
type CompletionResult struct {
	ReadyDependents []domain.Task
	OpenRemaining   int64
}

// ExpedienteRepository persists expedientes and their transition log.
// ApplyTransition is the single write path for state/department pointers: it
// appends the transition row, conditionally creates an auto task, and updates
// the expediente guarded by the expected version, all in one transaction.
type ExpedienteRepository interface {
	Create(ctx context.Context, exp *domain.Expediente) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Expediente, error)
	GetByCaseNumber(ctx context.Context, caseNumber string) (*domain.Expediente, error)
	List(ctx context.Context, filter ExpedienteFilter) ([]domain.Expediente, int64, error)
	SoftDelete(ctx context.Context, id uuid.UUID) error

	ApplyTransition(ctx context.Context, exp *domain.Expediente, tr *domain.Transition, autoTask *domain.Task, expectedVersion int) error
	ListTransitions(ctx context.Context, expedienteID uuid.UUID, limit, offset int) ([]domain.Transition, error)

	CountsByStatus(ctx context.Context, departmentID *uuid.UUID) (map[string]int64, error)
	CountsByDepartment(ctx context.Context) (map[string]int64, error)
	Count(ctx context.Context) (int64, error)
}

// TaskRepository persists tasks and their dependency edges. Complete and
// AddDependency own the multi-step atomic units described in the concurrency
// model: version-guarded updates detect concurrent writers, and dependency
// inserts serialize per expediente by bumping the owning case's version.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)
	ListByExpediente(ctx context.Context, expedienteID uuid.UUID, filter TaskFilter) ([]domain.Task, error)
	ListOpenByAssignee(ctx context.Context, userID uuid.UUID) ([]domain.Task, error)
	CountOpen(ctx context.Context, expedienteID uuid.UUID) (int64, error)
	CountsByStatus(ctx context.Context, departmentID *uuid.UUID) (map[string]int64, error)

	UpdateStatus(ctx context.Context, task *domain.Task, status domain.TaskStatus, clearAssignee bool, expectedVersion int) error
	Assign(ctx context.Context, task *domain.Task, userID uuid.UUID, expectedVersion int) error
	Complete(ctx context.Context, task *domain.Task, actorID uuid.UUID, result string, expectedVersion int) (*CompletionResult, error)

	AddDependency(ctx context.Context, edge *domain.TaskDependency, expedienteID uuid.UUID, expectedCaseVersion int) error
	CountOpenDependencies(ctx context.Context, taskID uuid.UUID) (int64, error)
	ListDependencies(ctx context.Context, taskID uuid.UUID) ([]domain.Task, error)
	ListDependents(ctx context.Context, taskID uuid.UUID) ([]domain.Task, error)
}

// ReferenceRepository reads workflow reference data (states, departments).
type ReferenceRepository interface {
	GetState(ctx context.Context, id uuid.UUID) (*domain.WorkflowState, error)
	GetDepartment(ctx context.Context, id uuid.UUID) (*domain.Department, error)
	FirstState(ctx context.Context) (*domain.WorkflowState, error)
	FirstActiveDepartment(ctx context.Context) (*domain.Department, error)
	NextState(ctx context.Context, afterOrder int) (*domain.WorkflowState, error)
	NextStates(ctx context.Context, afterOrder, limit int) ([]domain.WorkflowState, error)
	NextDepartments(ctx context.Context, afterOrder, limit int) ([]domain.Department, error)
	ListStates(ctx context.Context) ([]domain.WorkflowState, error)
	ListDepartments(ctx context.Context) ([]domain.Department, error)
}

// UserRepository reads identity records owned by the excluded auth service.
type UserRepository interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListActiveByDepartment(ctx context.Context, departmentID uuid.UUID) ([]domain.User, error)
	CountActiveByDepartment(ctx context.Context, departmentID uuid.UUID) (int64, error)
}

// NotificationRepository is the inbox store written by the dispatcher.
type NotificationRepository interface {
	Save(ctx context.Context, n *domain.Notification) error
	ListByUser(ctx context.Context, userID uuid.UUID, unreadOnly bool) ([]domain.Notification, error)
	MarkRead(ctx context.Context, id, userID uuid.UUID) error
}

// Notifier is the fire-and-forget notification sink. Notify must never be
// treated as part of the caller's transaction; failures are logged and
// dropped. Subscribe feeds the dispatcher.
type Notifier interface {
	Notify(ctx context.Context, n *domain.Notification) error
	Subscribe(ctx context.Context) (<-chan domain.Notification, error)
}

// PermissionChecker is consulted by the API layer before invoking engine
// operations. The engine itself enforces only data invariants.
type PermissionChecker interface {
	CanAct(actor *domain.User, action string, resource domain.DepartmentScoped) bool
}
