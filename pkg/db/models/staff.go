package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	dbtypes "github.com/angelmondragon/stockpos-backend/pkg/db/types"
)

// Role is a named permission set. System roles are seeded and cannot be removed.
type Role struct {
	ID          uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	Name        string                `gorm:"column:name;not null;uniqueIndex:idx_roles_name"`
	Description *string               `gorm:"column:description"`
	Permissions dbtypes.PermissionSet `gorm:"column:permissions;not null"`
	IsSystem    bool                  `gorm:"column:is_system;not null;default:false"`
	CreatedAt   time.Time             `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}

func (r *Role) BeforeCreate(*gorm.DB) error {
	ensureID(&r.ID)
	return nil
}

// Employee is a register operator who authenticates with username and password.
type Employee struct {
	ID           uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Username     string     `gorm:"column:username;not null;uniqueIndex:idx_employees_username"`
	PasswordHash string     `gorm:"column:password_hash;not null"`
	FirstName    string     `gorm:"column:first_name;not null"`
	LastName     string     `gorm:"column:last_name;not null"`
	Email        *string    `gorm:"column:email"`
	Phone        *string    `gorm:"column:phone"`
	RoleID       uuid.UUID  `gorm:"column:role_id;type:uuid;not null;index:idx_employees_role_id"`
	Role         *Role      `gorm:"foreignKey:RoleID"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true"`
	HiredAt      *time.Time `gorm:"column:hired_at"`
	LastLoginAt  *time.Time `gorm:"column:last_login_at"`
	CreatedAt    time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (e *Employee) BeforeCreate(*gorm.DB) error {
	ensureID(&e.ID)
	return nil
}

// FullName joins first and last name.
func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}
