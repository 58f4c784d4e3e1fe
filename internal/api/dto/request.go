package dto

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CreateExpedienteRequest struct {
	CaseNumber       string         `json:"case_number" binding:"required"`
	OwnerName        string         `json:"owner_name" binding:"required"`
	OwnerCedula      string         `json:"owner_cedula" binding:"required"`
	Address          string         `json:"address"`
	Municipality     string         `json:"municipality"`
	Province         string         `json:"province"`
	LandArea         float64        `json:"land_area"`
	ConstructionArea float64        `json:"construction_area"`
	AppraisalValue   float64        `json:"appraisal_value"`
	Metadata         datatypes.JSON `json:"metadata"`
}

type TransitionRequest struct {
	ToStateID       uuid.UUID      `json:"to_state_id" binding:"required"`
	ToDepartmentID  *uuid.UUID     `json:"to_department_id"`
	Comments        string         `json:"comments"`
	RejectionReason string         `json:"rejection_reason"`
	Metadata        datatypes.JSON `json:"metadata"`
}

type CreateTaskRequest struct {
	ExpedienteID   uuid.UUID  `json:"expediente_id" binding:"required"`
	DepartmentID   *uuid.UUID `json:"department_id"`
	Title          string     `json:"title" binding:"required"`
	Description    string     `json:"description"`
	Type           string     `json:"type"`
	Priority       string     `json:"priority"`
	AssignedUserID *uuid.UUID `json:"assigned_user_id"`
	DueAt          *time.Time `json:"due_at"`
}

type AddDependencyRequest struct {
	DependsOnID uuid.UUID `json:"depends_on_id" binding:"required"`
	Type        string    `json:"type"`
}

type AssignTaskRequest struct {
	UserID uuid.UUID `json:"user_id" binding:"required"`
}

type CompleteTaskRequest struct {
	Result string `json:"result"`
}
