package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/internal/employees"
	pkgAuth "github.com/angelmondragon/stockpos-backend/pkg/auth"
	"github.com/angelmondragon/stockpos-backend/pkg/config"
	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
	"github.com/angelmondragon/stockpos-backend/pkg/logger"
	"github.com/angelmondragon/stockpos-backend/pkg/security"
)

const invalidCredentialsMessage = "invalid credentials"

// Service defines the behavior needed by the auth controller.
type Service interface {
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
}

type employeeRepository interface {
	FindByUsername(ctx context.Context, username string) (*models.Employee, error)
	UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
	UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error
}

type service struct {
	employees employeeRepository
	jwtCfg    config.JWTConfig
	password  config.PasswordConfig
	logg      *logger.Logger
	now       func() time.Time
}

// ServiceParams bundles the dependencies required to build an auth service.
type ServiceParams struct {
	Employees      employeeRepository
	JWTConfig      config.JWTConfig
	PasswordConfig config.PasswordConfig
	Logger         *logger.Logger
}

// NewService constructs a login service with the provided dependencies.
func NewService(params ServiceParams) (Service, error) {
	if params.Employees == nil {
		return nil, fmt.Errorf("employee repository is required")
	}
	logg := params.Logger
	if logg == nil {
		logg = logger.Nop()
	}
	return &service{
		employees: params.Employees,
		jwtCfg:    params.JWTConfig,
		password:  params.PasswordConfig,
		logg:      logg,
		now:       time.Now,
	}, nil
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	employee, err := s.authenticate(ctx, req.Username, req.Password)
	if err != nil {
		return nil, err
	}
	if employee.Role == nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}

	now := s.now().UTC()
	if err := s.employees.UpdateLastLogin(ctx, employee.ID, now); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "update last login")
	}
	employee.LastLoginAt = &now
	s.maybeRehash(ctx, employee, req.Password)

	token, err := pkgAuth.MintAccessToken(s.jwtCfg, now, pkgAuth.AccessTokenPayload{
		EmployeeID:  employee.ID,
		RoleID:      employee.RoleID,
		RoleName:    employee.Role.Name,
		Permissions: employee.Role.Permissions,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "mint jwt")
	}

	return &LoginResponse{
		AccessToken: token,
		TokenType:   "Bearer",
		ExpiresAt:   now.Add(time.Duration(s.jwtCfg.ExpirationMinutes) * time.Minute),
		Employee:    employees.NewEmployeeDTO(employee),
	}, nil
}

func (s *service) authenticate(ctx context.Context, username, password string) (*models.Employee, error) {
	input := strings.ToLower(strings.TrimSpace(username))
	if input == "" || password == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	employee, err := s.employees.FindByUsername(ctx, input)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "lookup employee")
	}

	valid, err := security.VerifyPassword(password, employee.PasswordHash)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "verify password")
	}
	if !valid || !employee.IsActive {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, invalidCredentialsMessage)
	}
	return employee, nil
}

// maybeRehash upgrades hashes created with weaker argon2 parameters. Failures
// are logged; login still succeeds.
func (s *service) maybeRehash(ctx context.Context, employee *models.Employee, password string) {
	if !security.NeedsRehash(employee.PasswordHash, s.password) {
		return
	}
	hash, err := security.HashPassword(password, s.password)
	if err == nil {
		err = s.employees.UpdatePasswordHash(ctx, employee.ID, hash)
	}
	if err != nil {
		s.logg.Error(s.logg.WithEmployeeID(ctx, employee.ID.String()), "password rehash failed", err)
		return
	}
	employee.PasswordHash = hash
}
