package domain

import (
	"time"

	"github.com/google/uuid"
)

type TaskStatus string

const (
	TaskPending    TaskStatus = "pending"
	TaskInProgress TaskStatus = "in_progress"
	TaskCompleted  TaskStatus = "completed"
	TaskCancelled  TaskStatus = "cancelled"
	TaskBlocked    TaskStatus = "blocked"
)

type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
	PriorityUrgent TaskPriority = "urgent"
)

type TaskType string

const (
	TypeReview        TaskType = "review"
	TypeApproval      TaskType = "approval"
	TypeCoordination  TaskType = "coordination"
	TypeVerification  TaskType = "verification"
	TypeNotification  TaskType = "notification"
	TypeDocumentation TaskType = "documentation"
)

// Task is a unit of work scoped to one expediente and one department,
// optionally assigned to a user. Dependencies on other tasks of the same
// expediente are recorded as TaskDependency edges and must stay acyclic.
type Task struct {
	ID             uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	ExpedienteID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"expediente_id"`
	DepartmentID   uuid.UUID  `gorm:"type:uuid;index;not null" json:"department_id"`
	AssignedUserID *uuid.UUID `gorm:"type:uuid;index" json:"assigned_user_id"`

	Department   *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`
	AssignedUser *User       `gorm:"foreignKey:AssignedUserID" json:"assigned_user,omitempty"`

	Title       string       `gorm:"type:varchar(255);not null" json:"title"`
	Description string       `gorm:"type:text" json:"description"`
	Type        TaskType     `gorm:"type:varchar(50);default:'review'" json:"type"`
	Priority    TaskPriority `gorm:"type:varchar(20);index;default:'medium'" json:"priority"`
	Status      TaskStatus   `gorm:"type:varchar(20);index;default:'pending'" json:"status"`

	DueAt       *time.Time `gorm:"index" json:"due_at"`
	CompletedAt *time.Time `json:"completed_at"`
	Result      string     `gorm:"type:text" json:"result"`

	Version int `gorm:"default:1" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewTask(expedienteID, departmentID uuid.UUID, title string) *Task {
	return &Task{
		ID:           uuid.New(),
		ExpedienteID: expedienteID,
		DepartmentID: departmentID,
		Title:        title,
		Type:         TypeReview,
		Priority:     PriorityMedium,
		Status:       TaskPending,
		Version:      1,
	}
}

// OwningDepartment implements DepartmentScoped for permission checks.
func (t *Task) OwningDepartment() uuid.UUID {
	return t.DepartmentID
}

// IsOpen reports whether the task still counts against expediente completion.
func (t *Task) IsOpen() bool {
	return t.Status == TaskPending || t.Status == TaskInProgress
}

func (t *Task) IsOverdue(now time.Time) bool {
	return t.DueAt != nil && t.DueAt.Before(now) && t.Status != TaskCompleted
}

type DependencyType string

const (
	FinishToStart DependencyType = "finish_to_start"
	StartToStart  DependencyType = "start_to_start"
)

// TaskDependency is a directed "must finish before" edge between two tasks of
// the same expediente. Unique per (task, depends_on) pair; the edge is visible
// from both endpoints.
type TaskDependency struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key" json:"id"`
	TaskID      uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_task_depends_on;not null" json:"task_id"`
	DependsOnID uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_task_depends_on;index;not null" json:"depends_on_id"`
	Type        DependencyType `gorm:"type:varchar(50);default:'finish_to_start'" json:"type"`

	Task      *Task `gorm:"foreignKey:TaskID" json:"task,omitempty"`
	DependsOn *Task `gorm:"foreignKey:DependsOnID" json:"depends_on,omitempty"`

	CreatedAt time.Time `json:"created_at"`
}

func (TaskDependency) TableName() string {
	return "task_dependencies"
}

func NewTaskDependency(taskID, dependsOnID uuid.UUID, depType DependencyType) *TaskDependency {
	if depType == "" {
		depType = FinishToStart
	}
	return &TaskDependency{
		ID:          uuid.New(),
		TaskID:      taskID,
		DependsOnID: dependsOnID,
		Type:        depType,
	}
}
