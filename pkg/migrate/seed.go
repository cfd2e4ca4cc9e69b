package migrate

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/pkg/db/models"
	dbtypes "github.com/angelmondragon/stockpos-backend/pkg/db/types"
	"github.com/angelmondragon/stockpos-backend/pkg/enums"
)

const (
	RoleAdministrator = "Administrator"
	RoleManager       = "Manager"
	RoleCashier       = "Cashier"
	RoleStockClerk    = "Stock Clerk"
)

// SystemRole describes a role that ships with every installation.
type SystemRole struct {
	Name        string
	Description string
	Permissions []enums.Permission
}

// SystemRoles returns the built-in roles in seeding order.
func SystemRoles() []SystemRole {
	return []SystemRole{
		{
			Name:        RoleAdministrator,
			Description: "Full access to all features",
			Permissions: enums.AllPermissions(),
		},
		{
			Name:        RoleManager,
			Description: "Store management without employee and role administration",
			Permissions: []enums.Permission{
				enums.PermissionManageInventory,
				enums.PermissionViewInventory,
				enums.PermissionManagePOS,
				enums.PermissionViewEmployees,
				enums.PermissionManageSuppliers,
				enums.PermissionViewSuppliers,
				enums.PermissionManageCategories,
				enums.PermissionViewCategories,
				enums.PermissionManageReports,
				enums.PermissionViewReports,
				enums.PermissionProcessRefunds,
				enums.PermissionViewDashboard,
			},
		},
		{
			Name:        RoleCashier,
			Description: "Point of sale operations",
			Permissions: []enums.Permission{
				enums.PermissionViewInventory,
				enums.PermissionManagePOS,
				enums.PermissionViewDashboard,
			},
		},
		{
			Name:        RoleStockClerk,
			Description: "Inventory management",
			Permissions: []enums.Permission{
				enums.PermissionManageInventory,
				enums.PermissionViewInventory,
				enums.PermissionViewSuppliers,
				enums.PermissionViewCategories,
				enums.PermissionViewDashboard,
			},
		},
	}
}

// SeedSystemRoles inserts any missing system role. Existing rows are left
// untouched so operator edits to descriptions survive restarts.
func SeedSystemRoles(ctx context.Context, db *gorm.DB) (int, error) {
	created := 0
	for _, def := range SystemRoles() {
		var existing models.Role
		err := db.WithContext(ctx).Where("name = ?", def.Name).Take(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return created, fmt.Errorf("lookup role %q: %w", def.Name, err)
		}

		desc := def.Description
		role := models.Role{
			Name:        def.Name,
			Description: &desc,
			Permissions: dbtypes.PermissionSet(def.Permissions),
			IsSystem:    true,
		}
		if err := db.WithContext(ctx).Create(&role).Error; err != nil {
			return created, fmt.Errorf("create role %q: %w", def.Name, err)
		}
		created++
	}
	return created, nil
}

// AutoMigrateSQLite builds the schema from the models. It backs the embedded
// sqlite store used for local runs and tests, where the postgres DDL does not apply.
func AutoMigrateSQLite(ctx context.Context, db *gorm.DB) error {
	if err := db.WithContext(ctx).AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("automigrate: %w", err)
	}
	return nil
}
