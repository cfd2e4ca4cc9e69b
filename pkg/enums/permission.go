package enums

import "fmt"

// Permission is a single capability granted through a role.
type Permission string

const (
	PermissionManageInventory  Permission = "manage_inventory"
	PermissionViewInventory    Permission = "view_inventory"
	PermissionManagePOS        Permission = "manage_pos"
	PermissionManageEmployees  Permission = "manage_employees"
	PermissionViewEmployees    Permission = "view_employees"
	PermissionManageSuppliers  Permission = "manage_suppliers"
	PermissionViewSuppliers    Permission = "view_suppliers"
	PermissionManageCategories Permission = "manage_categories"
	PermissionViewCategories   Permission = "view_categories"
	PermissionManageReports    Permission = "manage_reports"
	PermissionViewReports      Permission = "view_reports"
	PermissionManageRoles      Permission = "manage_roles"
	PermissionManageSettings   Permission = "manage_settings"
	PermissionProcessRefunds   Permission = "process_refunds"
	PermissionViewDashboard    Permission = "view_dashboard"
)

var validPermissions = []Permission{
	PermissionManageInventory,
	PermissionViewInventory,
	PermissionManagePOS,
	PermissionManageEmployees,
	PermissionViewEmployees,
	PermissionManageSuppliers,
	PermissionViewSuppliers,
	PermissionManageCategories,
	PermissionViewCategories,
	PermissionManageReports,
	PermissionViewReports,
	PermissionManageRoles,
	PermissionManageSettings,
	PermissionProcessRefunds,
	PermissionViewDashboard,
}

// AllPermissions returns a copy of every known permission in declaration order.
func AllPermissions() []Permission {
	out := make([]Permission, len(validPermissions))
	copy(out, validPermissions)
	return out
}

func (p Permission) String() string {
	return string(p)
}

func (p Permission) IsValid() bool {
	for _, candidate := range validPermissions {
		if candidate == p {
			return true
		}
	}
	return false
}

func ParsePermission(value string) (Permission, error) {
	for _, candidate := range validPermissions {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid permission %q", value)
}
