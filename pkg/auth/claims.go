package auth

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/angelmondragon/stockpos-backend/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	EmployeeID  uuid.UUID
	RoleID      uuid.UUID
	RoleName    string
	Permissions []enums.Permission
	JTI         string
}

// AccessTokenClaims represents the typed JWT issued to register operators.
type AccessTokenClaims struct {
	EmployeeID  uuid.UUID          `json:"employee_id"`
	RoleID      uuid.UUID          `json:"role_id"`
	RoleName    string             `json:"role_name,omitempty"`
	Permissions []enums.Permission `json:"permissions"`
	jwt.RegisteredClaims
}

// HasPermission reports whether the token grants p.
func (c *AccessTokenClaims) HasPermission(p enums.Permission) bool {
	if c == nil {
		return false
	}
	for _, granted := range c.Permissions {
		if granted == p {
			return true
		}
	}
	return false
}
