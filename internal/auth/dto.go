package auth

import (
	"time"

	"github.com/angelmondragon/stockpos-backend/internal/employees"
)

// LoginRequest captures the register credentials sent to the login endpoint.
type LoginRequest struct {
	Username string `json:"username" validate:"required,max=64"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse contains the access token and the authenticated employee.
type LoginResponse struct {
	AccessToken string                 `json:"access_token"`
	TokenType   string                 `json:"token_type"`
	ExpiresAt   time.Time              `json:"expires_at"`
	Employee    *employees.EmployeeDTO `json:"employee"`
}
