package domain

import (
	"time"

	"github.com/google/uuid"
)

// Department is an organizational unit in the fixed processing pipeline.
// Reference data: the engine reads departments but never mutates them.
type Department struct {
	ID                 uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	Name               string    `gorm:"type:varchar(100);not null" json:"name"`
	Code               string    `gorm:"type:varchar(20);uniqueIndex;not null" json:"code"`
	Description        string    `gorm:"type:text" json:"description"`
	WorkflowOrder      int       `gorm:"index;not null" json:"workflow_order"`
	CanProcessParallel bool      `gorm:"default:false" json:"can_process_parallel"`
	ResponseTimeHours  int       `gorm:"default:48" json:"response_time_hours"`
	AutoCreateTasks    bool      `gorm:"default:false" json:"auto_create_tasks"`
	IsActive           bool      `gorm:"default:true" json:"is_active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ResponseDeadline returns the due timestamp for work entering this
// department at the given time.
func (d *Department) ResponseDeadline(from time.Time) time.Time {
	return from.Add(time.Duration(d.ResponseTimeHours) * time.Hour)
}

// WorkflowState is an ordered, named milestone in the expediente lifecycle.
// CaseStatus is the explicit mapping from workflow state to the expediente's
// coarse status, keyed by state identity rather than display name.
type WorkflowState struct {
	ID          uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	Name        string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"name"`
	Description string     `gorm:"type:text" json:"description"`
	IsFinal     bool       `gorm:"default:false" json:"is_final"`
	Color       string     `gorm:"type:varchar(7);default:'#6B7280'" json:"color"`
	Order       int        `gorm:"column:sort_order;index;not null" json:"order"`
	CaseStatus  CaseStatus `gorm:"type:varchar(20);default:'approved'" json:"case_status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (WorkflowState) TableName() string {
	return "workflow_states"
}
