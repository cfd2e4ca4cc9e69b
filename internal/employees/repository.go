package employees

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
)

// Repository exposes employee and role persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an employees repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CreateEmployee inserts a new employee.
func (r *Repository) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	return r.db.WithContext(ctx).Create(employee).Error
}

// FindByUsername retrieves the employee with its role preloaded.
func (r *Repository) FindByUsername(ctx context.Context, username string) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.WithContext(ctx).
		Preload("Role").
		Where("username = ?", username).
		First(&employee).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// FindByID loads an employee by UUID with its role preloaded.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Employee, error) {
	var employee models.Employee
	if err := r.db.WithContext(ctx).
		Preload("Role").
		First(&employee, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &employee, nil
}

// ListEmployees returns employees ordered by name.
func (r *Repository) ListEmployees(ctx context.Context, includeInactive bool) ([]models.Employee, error) {
	var rows []models.Employee
	q := r.db.WithContext(ctx).Preload("Role").Order("first_name ASC").Order("last_name ASC")
	if !includeInactive {
		q = q.Where("is_active = ?", true)
	}
	if err := q.Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// SetActive toggles the employee's active flag. It reports whether a row matched.
func (r *Repository) SetActive(ctx context.Context, id uuid.UUID, active bool) (bool, error) {
	res := r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("id = ?", id).
		Updates(map[string]any{"is_active": active, "updated_at": time.Now().UTC()})
	return res.RowsAffected > 0, res.Error
}

// UpdateLastLogin refreshes the employee's last_login_at timestamp.
func (r *Repository) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	return r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("id = ?", id).
		UpdateColumn("last_login_at", at).Error
}

// UpdatePasswordHash stores a new hash, used when login upgrades argon2 params.
func (r *Repository) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return r.db.WithContext(ctx).
		Model(&models.Employee{}).
		Where("id = ?", id).
		UpdateColumn("password_hash", hash).Error
}

// CreateRole inserts a role.
func (r *Repository) CreateRole(ctx context.Context, role *models.Role) error {
	return r.db.WithContext(ctx).Create(role).Error
}

// SaveRole persists every column of an existing role.
func (r *Repository) SaveRole(ctx context.Context, role *models.Role) error {
	return r.db.WithContext(ctx).Save(role).Error
}

// FindRoleByID loads a role by UUID.
func (r *Repository) FindRoleByID(ctx context.Context, id uuid.UUID) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).First(&role, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// FindRoleByName loads a role by its unique name.
func (r *Repository) FindRoleByName(ctx context.Context, name string) (*models.Role, error) {
	var role models.Role
	if err := r.db.WithContext(ctx).Where("name = ?", name).First(&role).Error; err != nil {
		return nil, err
	}
	return &role, nil
}

// ListRoles returns every role, system roles first.
func (r *Repository) ListRoles(ctx context.Context) ([]models.Role, error) {
	var rows []models.Role
	if err := r.db.WithContext(ctx).
		Order("is_system DESC").
		Order("name ASC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CountEmployeesWithRole counts employees assigned to the role.
func (r *Repository) CountEmployeesWithRole(ctx context.Context, roleID uuid.UUID) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&models.Employee{}).Where("role_id = ?", roleID).Count(&n).Error
	return n, err
}

// DeleteRole removes a role. It reports whether a row was removed.
func (r *Repository) DeleteRole(ctx context.Context, id uuid.UUID) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.Role{}, "id = ?", id)
	return res.RowsAffected > 0, res.Error
}
