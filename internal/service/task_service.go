package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"caseflow/internal/core/ports"
	"caseflow/internal/domain"
	"caseflow/internal/metrics"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// TaskService manages tasks and their dependency graph within expedientes,
// and triggers automatic workflow advancement when the last open task of a
// case completes.
type TaskService struct {
	tasks       ports.TaskRepository
	expedientes ports.ExpedienteRepository
	refs        ports.ReferenceRepository
	users       ports.UserRepository
	workflow    *WorkflowService
	notifier    ports.Notifier
	log         *zap.Logger
}

func NewTaskService(
	tasks ports.TaskRepository,
	expedientes ports.ExpedienteRepository,
	refs ports.ReferenceRepository,
	users ports.UserRepository,
	workflow *WorkflowService,
	notifier ports.Notifier,
	log *zap.Logger,
) *TaskService {
	return &TaskService{
		tasks:       tasks,
		expedientes: expedientes,
		refs:        refs,
		users:       users,
		workflow:    workflow,
		notifier:    notifier,
		log:         log,
	}
}

// CreateTaskRequest carries the fields for a new task. DepartmentID defaults
// to the expediente's current department when zero.
type CreateTaskRequest struct {
	ExpedienteID   uuid.UUID
	DepartmentID   uuid.UUID
	Title          string
	Description    string
	Type           domain.TaskType
	Priority       domain.TaskPriority
	AssignedUserID *uuid.UUID
	DueAt          *time.Time
}

func (s *TaskService) CreateTask(ctx context.Context, req CreateTaskRequest) (*domain.Task, error) {
	if strings.TrimSpace(req.Title) == "" {
		return nil, fmt.Errorf("%w: title is required", domain.ErrValidation)
	}
	if req.DueAt != nil && req.DueAt.Before(time.Now()) {
		return nil, fmt.Errorf("%w: due date cannot be in the past", domain.ErrValidation)
	}

	exp, err := s.expedientes.GetByID(ctx, req.ExpedienteID)
	if err != nil {
		return nil, err
	}

	departmentID := req.DepartmentID
	if departmentID == uuid.Nil {
		departmentID = exp.CurrentDepartmentID
	}
	if _, err := s.refs.GetDepartment(ctx, departmentID); err != nil {
		return nil, err
	}

	task := domain.NewTask(exp.ID, departmentID, strings.TrimSpace(req.Title))
	task.Description = req.Description
	if req.Type != "" {
		task.Type = req.Type
	}
	if req.Priority != "" {
		task.Priority = req.Priority
	}
	task.DueAt = req.DueAt

	if req.AssignedUserID != nil {
		assignee, err := s.users.GetByID(ctx, *req.AssignedUserID)
		if err != nil {
			return nil, err
		}
		if err := s.checkAssignable(assignee, departmentID); err != nil {
			return nil, err
		}
		task.AssignedUserID = req.AssignedUserID
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}

	if task.AssignedUserID != nil {
		s.publish(ctx, domain.NewNotification(*task.AssignedUserID, &task.ExpedienteID,
			domain.NotificationTaskAssigned, "Task assigned",
			fmt.Sprintf("You have been assigned task %q on expediente %s", task.Title, exp.CaseNumber)))
	}
	return task, nil
}

func (s *TaskService) GetTask(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	return s.tasks.GetByID(ctx, id)
}

func (s *TaskService) ListByExpediente(ctx context.Context, expedienteID uuid.UUID, filter ports.TaskFilter) ([]domain.Task, error) {
	if _, err := s.expedientes.GetByID(ctx, expedienteID); err != nil {
		return nil, err
	}
	return s.tasks.ListByExpediente(ctx, expedienteID, filter)
}

// MyTasks returns the caller's open tasks across all expedientes.
func (s *TaskService) MyTasks(ctx context.Context, userID uuid.UUID) ([]domain.Task, error) {
	return s.tasks.ListOpenByAssignee(ctx, userID)
}

// AddDependency records that task must wait for dependsOn. Both tasks must
// belong to the same expediente and the edge must not close a cycle. The
// insert is serialized per case through the owning expediente's version, so
// two concurrent inserts cannot jointly form a cycle.
func (s *TaskService) AddDependency(ctx context.Context, taskID, dependsOnID uuid.UUID, depType domain.DependencyType) (*domain.TaskDependency, error) {
	if taskID == dependsOnID {
		return nil, fmt.Errorf("%w: a task cannot depend on itself", domain.ErrSelfDependency)
	}

	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	dependsOn, err := s.tasks.GetByID(ctx, dependsOnID)
	if err != nil {
		return nil, err
	}
	if task.ExpedienteID != dependsOn.ExpedienteID {
		return nil, fmt.Errorf("%w: tasks belong to different expedientes", domain.ErrCrossCaseDependency)
	}

	exp, err := s.expedientes.GetByID(ctx, task.ExpedienteID)
	if err != nil {
		return nil, err
	}

	edge := domain.NewTaskDependency(taskID, dependsOnID, depType)
	if err := s.tasks.AddDependency(ctx, edge, exp.ID, exp.Version); err != nil {
		return nil, err
	}
	return edge, nil
}

// CanStart reports whether the task has no open blocking dependencies.
func (s *TaskService) CanStart(ctx context.Context, taskID uuid.UUID) (bool, error) {
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return false, err
	}
	open, err := s.tasks.CountOpenDependencies(ctx, taskID)
	if err != nil {
		return false, err
	}
	return open == 0, nil
}

func (s *TaskService) Dependencies(ctx context.Context, taskID uuid.UUID) ([]domain.Task, error) {
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.tasks.ListDependencies(ctx, taskID)
}

func (s *TaskService) Dependents(ctx context.Context, taskID uuid.UUID) ([]domain.Task, error) {
	if _, err := s.tasks.GetByID(ctx, taskID); err != nil {
		return nil, err
	}
	return s.tasks.ListDependents(ctx, taskID)
}

// Start moves a pending task to in_progress. Starting is allowed regardless
// of open dependencies; CanStart is advisory.
func (s *TaskService) Start(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if task.Status != domain.TaskPending {
		return nil, fmt.Errorf("%w: only pending tasks can be started", domain.ErrValidation)
	}
	if err := s.tasks.UpdateStatus(ctx, task, domain.TaskInProgress, false, task.Version); err != nil {
		return nil, err
	}
	return task, nil
}

// Cancel closes an open task without completing it and clears its assignment.
func (s *TaskService) Cancel(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsOpen() {
		return nil, fmt.Errorf("%w: only pending or in-progress tasks can be cancelled", domain.ErrValidation)
	}
	if err := s.tasks.UpdateStatus(ctx, task, domain.TaskCancelled, true, task.Version); err != nil {
		return nil, err
	}
	return task, nil
}

// Assign sets the task's assignee. The user must be active and belong to the
// task's department.
func (s *TaskService) Assign(ctx context.Context, taskID, userID uuid.UUID) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	assignee, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.checkAssignable(assignee, task.DepartmentID); err != nil {
		return nil, err
	}
	if err := s.tasks.Assign(ctx, task, userID, task.Version); err != nil {
		return nil, err
	}

	s.publish(ctx, domain.NewNotification(userID, &task.ExpedienteID,
		domain.NotificationTaskAssigned, "Task assigned",
		fmt.Sprintf("You have been assigned task %q", task.Title)))
	return task, nil
}

// Complete marks the task completed and runs the cascade: dependents whose
// last open dependency this was get a task_ready notification, and when the
// expediente has no open tasks left the workflow advances one state
// automatically. Completion is permissive: open dependencies do not block it.
func (s *TaskService) Complete(ctx context.Context, taskID, actorID uuid.UUID, result string) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	if !task.IsOpen() {
		return nil, fmt.Errorf("%w: task is already closed", domain.ErrValidation)
	}
	if strings.TrimSpace(result) == "" {
		result = "Completed without additional details"
	}

	outcome, err := s.tasks.Complete(ctx, task, actorID, result, task.Version)
	if err != nil {
		return nil, err
	}
	metrics.TasksCompleted.Inc()

	for _, dependent := range outcome.ReadyDependents {
		if dependent.AssignedUserID == nil {
			continue
		}
		s.publish(ctx, domain.NewNotification(*dependent.AssignedUserID, &dependent.ExpedienteID,
			domain.NotificationTaskReady, "Task ready",
			fmt.Sprintf("Task %q is no longer blocked and can be started", dependent.Title)))
	}

	if outcome.OpenRemaining == 0 {
		if err := s.workflow.AdvanceIfAllTasksDone(ctx, task.ExpedienteID); err != nil {
			s.log.Error("automatic workflow advance failed",
				zap.String("expediente_id", task.ExpedienteID.String()),
				zap.Error(err))
		}
	}
	return task, nil
}

func (s *TaskService) checkAssignable(assignee *domain.User, departmentID uuid.UUID) error {
	if !assignee.IsActive {
		return fmt.Errorf("%w: assignee is inactive", domain.ErrValidation)
	}
	if assignee.DepartmentID == nil || *assignee.DepartmentID != departmentID {
		return fmt.Errorf("%w: assignee belongs to a different department", domain.ErrDepartmentMismatch)
	}
	return nil
}

func (s *TaskService) publish(ctx context.Context, n *domain.Notification) {
	if err := s.notifier.Notify(ctx, n); err != nil {
		s.log.Warn("failed to publish notification",
			zap.String("kind", string(n.Kind)),
			zap.Error(err))
	}
}
