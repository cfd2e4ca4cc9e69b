package middleware

import (
	"context"

	"github.com/google/uuid"

	pkgAuth "github.com/angelmondragon/stockpos-backend/pkg/auth"
)

type contextKey string

const (
	ctxEmployeeID contextKey = "employee_id"
	ctxRoleID     contextKey = "role_id"
	ctxClaims     contextKey = "claims"
)

func EmployeeIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(ctxEmployeeID).(string); ok {
		return v
	}
	return ""
}

// EmployeeUUIDFromContext parses the authenticated employee id; ok is false when absent or malformed.
func EmployeeUUIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	raw := EmployeeIDFromContext(ctx)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// RoleIDFromContext returns the authenticated employee's role. Tokens minted
// without a role yield false.
func RoleIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	if ctx == nil {
		return uuid.Nil, false
	}
	raw, _ := ctx.Value(ctxRoleID).(string)
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

func ClaimsFromContext(ctx context.Context) *pkgAuth.AccessTokenClaims {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxClaims).(*pkgAuth.AccessTokenClaims); ok {
		return v
	}
	return nil
}

// WithClaims seeds the context the same way Auth does. Used by tests and internal callers.
func WithClaims(ctx context.Context, claims *pkgAuth.AccessTokenClaims) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if claims == nil {
		return ctx
	}
	ctx = context.WithValue(ctx, ctxEmployeeID, claims.EmployeeID.String())
	ctx = context.WithValue(ctx, ctxRoleID, claims.RoleID.String())
	return context.WithValue(ctx, ctxClaims, claims)
}
