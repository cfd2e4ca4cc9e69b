package employees

import (
	"time"

	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
)

// RoleDTO is the transport shape of a role.
type RoleDTO struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description *string   `json:"description,omitempty"`
	Permissions []string  `json:"permissions"`
	IsSystem    bool      `json:"is_system"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func NewRoleDTO(r *models.Role) *RoleDTO {
	if r == nil {
		return nil
	}
	return &RoleDTO{
		ID:          r.ID,
		Name:        r.Name,
		Description: r.Description,
		Permissions: r.Permissions.Strings(),
		IsSystem:    r.IsSystem,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

// EmployeeDTO omits the password hash.
type EmployeeDTO struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	FirstName   string     `json:"first_name"`
	LastName    string     `json:"last_name"`
	Email       *string    `json:"email,omitempty"`
	Phone       *string    `json:"phone,omitempty"`
	RoleID      uuid.UUID  `json:"role_id"`
	Role        *RoleDTO   `json:"role,omitempty"`
	IsActive    bool       `json:"is_active"`
	HiredAt     *time.Time `json:"hired_at,omitempty"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

func NewEmployeeDTO(e *models.Employee) *EmployeeDTO {
	if e == nil {
		return nil
	}
	return &EmployeeDTO{
		ID:          e.ID,
		Username:    e.Username,
		FirstName:   e.FirstName,
		LastName:    e.LastName,
		Email:       e.Email,
		Phone:       e.Phone,
		RoleID:      e.RoleID,
		Role:        NewRoleDTO(e.Role),
		IsActive:    e.IsActive,
		HiredAt:     e.HiredAt,
		LastLoginAt: e.LastLoginAt,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
}
