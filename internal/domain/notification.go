package domain

import (
	"time"

	"github.com/google/uuid"
)

type NotificationKind string

const (
	NotificationTaskAssigned   NotificationKind = "task_assigned"
	NotificationTaskReady      NotificationKind = "task_ready"
	NotificationWorkflowUpdate NotificationKind = "workflow_update"
	NotificationDeadline       NotificationKind = "deadline_approaching"
	NotificationSystemAlert    NotificationKind = "system_alert"
)

// Notification is both the event published to the sink and the persisted
// inbox row the dispatcher writes. Delivery is fire-and-forget: a publish
// failure never rolls back the operation that produced it.
type Notification struct {
	ID           uuid.UUID        `gorm:"type:uuid;primary_key" json:"id"`
	UserID       uuid.UUID        `gorm:"type:uuid;index;not null" json:"user_id"`
	ExpedienteID *uuid.UUID       `gorm:"type:uuid;index" json:"expediente_id"`
	Kind         NotificationKind `gorm:"type:varchar(50);not null" json:"kind"`
	Title        string           `gorm:"type:varchar(255);not null" json:"title"`
	Message      string           `gorm:"type:text" json:"message"`
	IsRead       bool             `gorm:"default:false;index" json:"is_read"`
	ReadAt       *time.Time       `json:"read_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func NewNotification(userID uuid.UUID, expedienteID *uuid.UUID, kind NotificationKind, title, message string) *Notification {
	return &Notification{
		ID:           uuid.New(),
		UserID:       userID,
		ExpedienteID: expedienteID,
		Kind:         kind,
		Title:        title,
		Message:      message,
	}
}
