package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type CaseStatus string

const (
	StatusInitiated CaseStatus = "initiated"
	StatusInReview  CaseStatus = "in_review"
	StatusApproved  CaseStatus = "approved"
	StatusRejected  CaseStatus = "rejected"
	StatusCompleted CaseStatus = "completed"
	StatusInAppeal  CaseStatus = "in_appeal"
)

// Expediente is a tracked expropriation case moving through departments and
// workflow states. CurrentStateID and CurrentDepartmentID are non-null after
// creation and mutate only through a validated transition. Expedientes are
// never hard-deleted.
type Expediente struct {
	ID         uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	CaseNumber string     `gorm:"type:varchar(50);uniqueIndex;not null" json:"case_number"`
	Status     CaseStatus `gorm:"type:varchar(20);index;default:'initiated'" json:"status"`

	CurrentStateID      uuid.UUID `gorm:"type:uuid;index;not null" json:"current_state_id"`
	CurrentDepartmentID uuid.UUID `gorm:"type:uuid;index;not null" json:"current_department_id"`

	CurrentState      *WorkflowState `gorm:"foreignKey:CurrentStateID" json:"current_state,omitempty"`
	CurrentDepartment *Department    `gorm:"foreignKey:CurrentDepartmentID" json:"current_department,omitempty"`

	// Property information
	OwnerName        string  `gorm:"type:varchar(255);not null" json:"owner_name"`
	OwnerCedula      string  `gorm:"type:varchar(20);index;not null" json:"owner_cedula"`
	Address          string  `gorm:"type:text" json:"address"`
	Municipality     string  `gorm:"type:varchar(100)" json:"municipality"`
	Province         string  `gorm:"type:varchar(100)" json:"province"`
	LandArea         float64 `gorm:"default:0" json:"land_area"`
	ConstructionArea float64 `gorm:"default:0" json:"construction_area"`
	AppraisalValue   float64 `gorm:"default:0" json:"appraisal_value"`

	CreatedByID uuid.UUID      `gorm:"type:uuid;not null" json:"created_by_id"`
	Metadata    datatypes.JSON `gorm:"type:json" json:"metadata"`

	StartedAt   *time.Time `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at"`

	IsDeleted bool       `gorm:"default:false;index" json:"-"`
	DeletedAt *time.Time `json:"-"`

	Version int `gorm:"default:1" json:"-"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewExpediente(caseNumber string, createdBy uuid.UUID, state *WorkflowState, department *Department) *Expediente {
	now := time.Now()
	return &Expediente{
		ID:                  uuid.New(),
		CaseNumber:          caseNumber,
		Status:              StatusInitiated,
		CurrentStateID:      state.ID,
		CurrentDepartmentID: department.ID,
		CreatedByID:         createdBy,
		StartedAt:           &now,
		Version:             1,
	}
}

// OwningDepartment implements DepartmentScoped for permission checks.
func (e *Expediente) OwningDepartment() uuid.UUID {
	return e.CurrentDepartmentID
}

// DaysInProcess reports how long the expediente has been active.
func (e *Expediente) DaysInProcess(now time.Time) int {
	start := e.CreatedAt
	if e.StartedAt != nil {
		start = *e.StartedAt
	}
	return int(now.Sub(start).Hours() / 24)
}

// DepartmentScoped is the single capability interface used by permission
// checks: every resource the engine guards exposes its owning department
// through it.
type DepartmentScoped interface {
	OwningDepartment() uuid.UUID
}
