package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"caseflow/internal/core/ports"
	"caseflow/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

var openStatuses = []domain.TaskStatus{domain.TaskPending, domain.TaskInProgress}

type taskRepository struct {
	db *gorm.DB
}

// NewTaskRepository creates a gorm-backed TaskRepository.
func NewTaskRepository(db *gorm.DB) ports.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	return r.db.WithContext(ctx).Create(task).Error
}

func (r *taskRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&task).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("task %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &task, nil
}

func (r *taskRepository) ListByExpediente(ctx context.Context, expedienteID uuid.UUID, filter ports.TaskFilter) ([]domain.Task, error) {
	query := r.db.WithContext(ctx).Where("expediente_id = ?", expedienteID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.DepartmentID != nil {
		query = query.Where("department_id = ?", *filter.DepartmentID)
	}
	if filter.AssigneeID != nil {
		query = query.Where("assigned_user_id = ?", *filter.AssigneeID)
	}

	var tasks []domain.Task
	err := query.Order("priority, due_at, created_at").Find(&tasks).Error
	return tasks, err
}

func (r *taskRepository) ListOpenByAssignee(ctx context.Context, userID uuid.UUID) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).
		Where("assigned_user_id = ? AND status IN ?", userID, openStatuses).
		Order("priority, due_at, created_at").
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepository) CountOpen(ctx context.Context, expedienteID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("expediente_id = ? AND status IN ?", expedienteID, openStatuses).
		Count(&count).Error
	return count, err
}

func (r *taskRepository) CountsByStatus(ctx context.Context, departmentID *uuid.UUID) (map[string]int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Task{})
	if departmentID != nil {
		query = query.Where("department_id = ?", *departmentID)
	}

	var rows []struct {
		Status string
		Count  int64
	}
	if err := query.Select("status, COUNT(*) as count").Group("status").Scan(&rows).Error; err != nil {
		return nil, err
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (r *taskRepository) UpdateStatus(ctx context.Context, task *domain.Task, status domain.TaskStatus, clearAssignee bool, expectedVersion int) error {
	updates := map[string]interface{}{
		"status":  status,
		"version": expectedVersion + 1,
	}
	if clearAssignee {
		updates["assigned_user_id"] = nil
	}

	result := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("id = ? AND version = ?", task.ID, expectedVersion).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConcurrentUpdate
	}

	task.Status = status
	if clearAssignee {
		task.AssignedUserID = nil
	}
	task.Version = expectedVersion + 1
	return nil
}

func (r *taskRepository) Assign(ctx context.Context, task *domain.Task, userID uuid.UUID, expectedVersion int) error {
	result := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Where("id = ? AND version = ?", task.ID, expectedVersion).
		Updates(map[string]interface{}{
			"assigned_user_id": userID,
			"version":          expectedVersion + 1,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return domain.ErrConcurrentUpdate
	}

	task.AssignedUserID = &userID
	task.Version = expectedVersion + 1
	return nil
}

// Complete marks the task done and, in the same transaction, collects the
// direct dependents that just became startable and the number of open tasks
// remaining for the expediente. The version predicate rejects a concurrent
// writer on the same task.
func (r *taskRepository) Complete(ctx context.Context, task *domain.Task, actorID uuid.UUID, result string, expectedVersion int) (*ports.CompletionResult, error) {
	now := time.Now()
	out := &ports.CompletionResult{}

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		update := tx.Model(&domain.Task{}).
			Where("id = ? AND version = ?", task.ID, expectedVersion).
			Updates(map[string]interface{}{
				"status":           domain.TaskCompleted,
				"completed_at":     now,
				"result":           result,
				"assigned_user_id": actorID,
				"version":          expectedVersion + 1,
			})
		if update.Error != nil {
			return update.Error
		}
		if update.RowsAffected == 0 {
			return domain.ErrConcurrentUpdate
		}

		// Direct dependents still pending; ready ones have no open
		// dependencies left after this completion.
		var dependents []domain.Task
		err := tx.
			Joins("JOIN task_dependencies d ON d.task_id = tasks.id").
			Where("d.depends_on_id = ? AND tasks.status = ?", task.ID, domain.TaskPending).
			Find(&dependents).Error
		if err != nil {
			return err
		}
		for _, dep := range dependents {
			var open int64
			err := tx.Model(&domain.Task{}).
				Joins("JOIN task_dependencies d ON d.depends_on_id = tasks.id").
				Where("d.task_id = ? AND tasks.status IN ?", dep.ID, openStatuses).
				Count(&open).Error
			if err != nil {
				return err
			}
			if open == 0 {
				out.ReadyDependents = append(out.ReadyDependents, dep)
			}
		}

		return tx.Model(&domain.Task{}).
			Where("expediente_id = ? AND status IN ?", task.ExpedienteID, openStatuses).
			Count(&out.OpenRemaining).Error
	})
	if err != nil {
		return nil, err
	}

	task.Status = domain.TaskCompleted
	task.CompletedAt = &now
	task.Result = result
	task.AssignedUserID = &actorID
	task.Version = expectedVersion + 1
	return out, nil
}

// AddDependency inserts the edge after checking for duplicates and cycles
// against a snapshot of the case's dependency graph taken in the same
// transaction. Bumping the owning expediente's version first serializes
// concurrent dependency edits on the same case, so the cycle check cannot
// race a competing insert.
func (r *taskRepository) AddDependency(ctx context.Context, edge *domain.TaskDependency, expedienteID uuid.UUID, expectedCaseVersion int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		guard := tx.Model(&domain.Expediente{}).
			Where("id = ? AND version = ?", expedienteID, expectedCaseVersion).
			Update("version", expectedCaseVersion+1)
		if guard.Error != nil {
			return guard.Error
		}
		if guard.RowsAffected == 0 {
			return domain.ErrConcurrentUpdate
		}

		var count int64
		err := tx.Model(&domain.TaskDependency{}).
			Where("task_id = ? AND depends_on_id = ?", edge.TaskID, edge.DependsOnID).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return domain.ErrDuplicateDependency
		}

		var edges []domain.TaskDependency
		err = tx.
			Joins("JOIN tasks t ON t.id = task_dependencies.task_id").
			Where("t.expediente_id = ?", expedienteID).
			Find(&edges).Error
		if err != nil {
			return err
		}
		if domain.WouldCreateCycle(edges, edge.TaskID, edge.DependsOnID) {
			return domain.ErrCircularDependency
		}

		return tx.Create(edge).Error
	})
}

func (r *taskRepository) CountOpenDependencies(ctx context.Context, taskID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Task{}).
		Joins("JOIN task_dependencies d ON d.depends_on_id = tasks.id").
		Where("d.task_id = ? AND tasks.status IN ?", taskID, openStatuses).
		Count(&count).Error
	return count, err
}

func (r *taskRepository) ListDependencies(ctx context.Context, taskID uuid.UUID) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).
		Joins("JOIN task_dependencies d ON d.depends_on_id = tasks.id").
		Where("d.task_id = ?", taskID).
		Find(&tasks).Error
	return tasks, err
}

func (r *taskRepository) ListDependents(ctx context.Context, taskID uuid.UUID) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.WithContext(ctx).
		Joins("JOIN task_dependencies d ON d.task_id = tasks.id").
		Where("d.depends_on_id = ?", taskID).
		Find(&tasks).Error
	return tasks, err
}
