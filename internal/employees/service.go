package employees

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/pkg/config"
	"github.com/angelmondragon/stockpos-backend/pkg/db"
	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/stockpos-backend/pkg/db/types"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
	"github.com/angelmondragon/stockpos-backend/pkg/security"
)

// Service manages register staff and their roles.
type Service interface {
	CreateEmployee(ctx context.Context, input CreateEmployeeInput) (*EmployeeDTO, error)
	GetEmployee(ctx context.Context, id uuid.UUID) (*EmployeeDTO, error)
	ListEmployees(ctx context.Context, includeInactive bool) ([]EmployeeDTO, error)
	DeactivateEmployee(ctx context.Context, id uuid.UUID) error
	EmployeeName(ctx context.Context, id uuid.UUID) (string, error)

	CreateRole(ctx context.Context, input RoleInput) (*RoleDTO, error)
	UpdateRole(ctx context.Context, id uuid.UUID, input RoleInput) (*RoleDTO, error)
	GetRole(ctx context.Context, id uuid.UUID) (*RoleDTO, error)
	ListRoles(ctx context.Context) ([]RoleDTO, error)
	DeleteRole(ctx context.Context, id uuid.UUID) error
}

// CreateEmployeeInput carries a new employee's profile and initial password.
type CreateEmployeeInput struct {
	Username  string
	Password  string
	FirstName string
	LastName  string
	Email     *string
	Phone     *string
	RoleID    uuid.UUID
	HiredAt   *time.Time
}

// RoleInput is used for both role creation and full replacement.
type RoleInput struct {
	Name        string
	Description *string
	Permissions []string
}

type service struct {
	repo     *Repository
	password config.PasswordConfig
}

func NewService(repo *Repository, password config.PasswordConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("employees repository required")
	}
	return &service{repo: repo, password: password}, nil
}

func (s *service) CreateEmployee(ctx context.Context, input CreateEmployeeInput) (*EmployeeDTO, error) {
	username := strings.ToLower(strings.TrimSpace(input.Username))
	first := strings.TrimSpace(input.FirstName)
	var errs error
	if username == "" {
		errs = multierr.Append(errs, errors.New("username is required"))
	}
	if first == "" {
		errs = multierr.Append(errs, errors.New("first name is required"))
	}
	if input.RoleID == uuid.Nil {
		errs = multierr.Append(errs, errors.New("role id is required"))
	}
	if len([]rune(input.Password)) < security.MinPasswordLength {
		errs = multierr.Append(errs, security.ErrPasswordTooShort)
	}
	if errs != nil {
		return nil, validationError(errs)
	}

	role, err := s.repo.FindRoleByID(ctx, input.RoleID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "role does not exist")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load role")
	}

	hash, err := security.HashPassword(input.Password, s.password)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "hash password")
	}

	employee := &models.Employee{
		Username:     username,
		PasswordHash: hash,
		FirstName:    first,
		LastName:     strings.TrimSpace(input.LastName),
		Email:        input.Email,
		Phone:        input.Phone,
		RoleID:       role.ID,
		IsActive:     true,
		HiredAt:      input.HiredAt,
	}
	if err := s.repo.CreateEmployee(ctx, employee); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "username already taken")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create employee")
	}
	employee.Role = role
	return NewEmployeeDTO(employee), nil
}

func (s *service) GetEmployee(ctx context.Context, id uuid.UUID) (*EmployeeDTO, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "employee not found")
	}
	return NewEmployeeDTO(employee), nil
}

func (s *service) ListEmployees(ctx context.Context, includeInactive bool) ([]EmployeeDTO, error) {
	rows, err := s.repo.ListEmployees(ctx, includeInactive)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list employees")
	}
	out := make([]EmployeeDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewEmployeeDTO(&rows[i]))
	}
	return out, nil
}

// DeactivateEmployee keeps the row so historical sales still resolve the cashier.
func (s *service) DeactivateEmployee(ctx context.Context, id uuid.UUID) error {
	found, err := s.repo.SetActive(ctx, id, false)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "deactivate employee")
	}
	if !found {
		return pkgerrors.New(pkgerrors.CodeNotFound, "employee not found")
	}
	return nil
}

// EmployeeName resolves the display name printed on receipts.
func (s *service) EmployeeName(ctx context.Context, id uuid.UUID) (string, error) {
	employee, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return "", lookupErr(err, "employee not found")
	}
	return employee.FullName(), nil
}

func (s *service) CreateRole(ctx context.Context, input RoleInput) (*RoleDTO, error) {
	name, perms, err := validateRole(input)
	if err != nil {
		return nil, err
	}
	role := &models.Role{Name: name, Description: trimPtr(input.Description), Permissions: perms}
	if err := s.repo.CreateRole(ctx, role); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "role name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create role")
	}
	return NewRoleDTO(role), nil
}

// UpdateRole replaces a custom role. System roles only accept a new description.
func (s *service) UpdateRole(ctx context.Context, id uuid.UUID, input RoleInput) (*RoleDTO, error) {
	role, err := s.repo.FindRoleByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "role not found")
	}
	name, perms, err := validateRole(input)
	if err != nil {
		return nil, err
	}
	if role.IsSystem && (name != role.Name || !samePermissions(perms, role.Permissions)) {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "system roles cannot be renamed or re-permissioned")
	}
	role.Name = name
	role.Description = trimPtr(input.Description)
	role.Permissions = perms
	if err := s.repo.SaveRole(ctx, role); err != nil {
		if db.IsUniqueViolation(err, "") {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "role name already exists")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update role")
	}
	return NewRoleDTO(role), nil
}

func (s *service) GetRole(ctx context.Context, id uuid.UUID) (*RoleDTO, error) {
	role, err := s.repo.FindRoleByID(ctx, id)
	if err != nil {
		return nil, lookupErr(err, "role not found")
	}
	return NewRoleDTO(role), nil
}

func (s *service) ListRoles(ctx context.Context) ([]RoleDTO, error) {
	rows, err := s.repo.ListRoles(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list roles")
	}
	out := make([]RoleDTO, 0, len(rows))
	for i := range rows {
		out = append(out, *NewRoleDTO(&rows[i]))
	}
	return out, nil
}

func (s *service) DeleteRole(ctx context.Context, id uuid.UUID) error {
	role, err := s.repo.FindRoleByID(ctx, id)
	if err != nil {
		return lookupErr(err, "role not found")
	}
	if role.IsSystem {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "system roles cannot be deleted")
	}
	inUse, err := s.repo.CountEmployeesWithRole(ctx, id)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count role members")
	}
	if inUse > 0 {
		return pkgerrors.New(pkgerrors.CodeConflict, "role is assigned to employees").
			WithDetails(map[string]any{"employees": inUse})
	}
	if _, err := s.repo.DeleteRole(ctx, id); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete role")
	}
	return nil
}

func validateRole(input RoleInput) (string, dbtypes.PermissionSet, error) {
	name := strings.TrimSpace(input.Name)
	var errs error
	if name == "" {
		errs = multierr.Append(errs, errors.New("name is required"))
	}
	if len(input.Permissions) == 0 {
		errs = multierr.Append(errs, errors.New("at least one permission is required"))
	}
	valid := make([]string, 0, len(input.Permissions))
	for _, raw := range input.Permissions {
		if _, err := dbtypes.NewPermissionSet(raw); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		valid = append(valid, raw)
	}
	if errs != nil {
		return "", nil, validationError(errs)
	}
	perms, err := dbtypes.NewPermissionSet(valid...)
	if err != nil {
		return "", nil, validationError(err)
	}
	return name, perms, nil
}

func validationError(errs error) error {
	messages := make([]string, 0)
	for _, err := range multierr.Errors(errs) {
		messages = append(messages, err.Error())
	}
	return pkgerrors.New(pkgerrors.CodeValidation, "invalid input").
		WithDetails(map[string]any{"errors": messages})
}

func lookupErr(err error, notFound string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return pkgerrors.New(pkgerrors.CodeNotFound, notFound)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup")
}

func samePermissions(a, b dbtypes.PermissionSet) bool {
	if len(a) != len(b) {
		return false
	}
	for _, p := range a {
		if !b.Has(p) {
			return false
		}
	}
	return true
}

func trimPtr(v *string) *string {
	if v == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*v)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
