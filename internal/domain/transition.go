package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// Transition is an immutable audit record of an expediente moving between
// workflow states and departments. From-fields are null only for the case's
// first transition. Rows are appended inside the same transaction that
// mutates the expediente and are never updated afterwards.
type Transition struct {
	ID           uuid.UUID `gorm:"type:uuid;primary_key" json:"id"`
	ExpedienteID uuid.UUID `gorm:"type:uuid;index;not null" json:"expediente_id"`

	FromStateID      *uuid.UUID `gorm:"type:uuid" json:"from_state_id"`
	ToStateID        uuid.UUID  `gorm:"type:uuid;not null" json:"to_state_id"`
	FromDepartmentID *uuid.UUID `gorm:"type:uuid" json:"from_department_id"`
	ToDepartmentID   uuid.UUID  `gorm:"type:uuid;not null" json:"to_department_id"`

	FromState      *WorkflowState `gorm:"foreignKey:FromStateID" json:"from_state,omitempty"`
	ToState        *WorkflowState `gorm:"foreignKey:ToStateID" json:"to_state,omitempty"`
	FromDepartment *Department    `gorm:"foreignKey:FromDepartmentID" json:"from_department,omitempty"`
	ToDepartment   *Department    `gorm:"foreignKey:ToDepartmentID" json:"to_department,omitempty"`

	ActorID         uuid.UUID      `gorm:"type:uuid;index;not null" json:"actor_id"`
	Comments        string         `gorm:"type:text" json:"comments"`
	RejectionReason string         `gorm:"type:text" json:"rejection_reason"`
	Metadata        datatypes.JSON `gorm:"type:json" json:"metadata"`
	Automatic       bool           `gorm:"default:false" json:"automatic"`

	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (Transition) TableName() string {
	return "workflow_transitions"
}
