package domain

import (
	"time"

	"github.com/google/uuid"
)

// Roles granting department-wide access.
const (
	RoleSuperuser      = "superuser"
	RoleAdmin          = "admin"
	RoleDepartmentHead = "department_head"
	RoleSupervisor     = "supervisor"
	RoleAnalyst        = "analyst"
)

// User is an opaque identity reference. Authentication and identity
// management live outside this service; the engine only reads users as
// actors and notification targets.
type User struct {
	ID           uuid.UUID  `gorm:"type:uuid;primary_key" json:"id"`
	FirstName    string     `gorm:"type:varchar(100)" json:"first_name"`
	LastName     string     `gorm:"type:varchar(100)" json:"last_name"`
	Email        string     `gorm:"type:varchar(255);uniqueIndex;not null" json:"email"`
	Cedula       string     `gorm:"type:varchar(20);uniqueIndex" json:"cedula"`
	Role         string     `gorm:"type:varchar(50)" json:"role"`
	DepartmentID *uuid.UUID `gorm:"type:uuid;index" json:"department_id"`
	IsActive     bool       `gorm:"default:true" json:"is_active"`

	Department *Department `gorm:"foreignKey:DepartmentID" json:"department,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (u *User) FullName() string {
	if u.FirstName == "" {
		return u.LastName
	}
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// IsPrivileged reports whether the user holds a role with department-wide
// authority.
func (u *User) IsPrivileged() bool {
	switch u.Role {
	case RoleAdmin, RoleDepartmentHead, RoleSupervisor:
		return true
	}
	return false
}
