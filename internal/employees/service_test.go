package employees

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/stockpos-backend/pkg/config"
	"github.com/angelmondragon/stockpos-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/stockpos-backend/pkg/errors"
	"github.com/angelmondragon/stockpos-backend/pkg/migrate"
	"github.com/angelmondragon/stockpos-backend/pkg/security"
)

var cheapArgon = config.PasswordConfig{ArgonMemoryKB: 8, ArgonTime: 1, ArgonParallelism: 1, ArgonSaltLen: 8, ArgonKeyLen: 16}

func newTestService(t *testing.T) (Service, *Repository) {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := conn.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	ctx := context.Background()
	require.NoError(t, migrate.AutoMigrateSQLite(ctx, conn))
	_, err = migrate.SeedSystemRoles(ctx, conn)
	require.NoError(t, err)

	repo := NewRepository(conn)
	svc, err := NewService(repo, cheapArgon)
	require.NoError(t, err)
	return svc, repo
}

func systemRoleID(t *testing.T, repo *Repository, name string) uuid.UUID {
	t.Helper()
	role, err := repo.FindRoleByName(context.Background(), name)
	require.NoError(t, err)
	return role.ID
}

func TestCreateEmployeeHashesPassword(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	cashier := systemRoleID(t, repo, migrate.RoleCashier)

	dto, err := svc.CreateEmployee(ctx, CreateEmployeeInput{
		Username:  "  Alice ",
		Password:  "correct-horse",
		FirstName: "Alice",
		LastName:  "Doe",
		RoleID:    cashier,
	})
	require.NoError(t, err)
	assert.Equal(t, "alice", dto.Username)
	require.NotNil(t, dto.Role)
	assert.Equal(t, migrate.RoleCashier, dto.Role.Name)

	stored, err := repo.FindByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.NotEqual(t, "correct-horse", stored.PasswordHash)
	ok, err := security.VerifyPassword("correct-horse", stored.PasswordHash)
	require.NoError(t, err)
	assert.True(t, ok)

	_, err = svc.CreateEmployee(ctx, CreateEmployeeInput{Username: "alice", Password: "another-pass", FirstName: "A", RoleID: cashier})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	name, err := svc.EmployeeName(ctx, dto.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice Doe", name)
}

func TestCreateEmployeeCollectsValidationErrors(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateEmployee(context.Background(), CreateEmployeeInput{Password: "short"})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]any)
	assert.Len(t, details["errors"], 4)

	_, err = svc.CreateEmployee(context.Background(), CreateEmployeeInput{
		Username: "bob", Password: "long-enough", FirstName: "Bob", RoleID: uuid.New(),
	})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
}

func TestDeactivateEmployeeHidesFromDefaultList(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()
	dto, err := svc.CreateEmployee(ctx, CreateEmployeeInput{
		Username: "carol", Password: "long-enough", FirstName: "Carol", RoleID: systemRoleID(t, repo, migrate.RoleManager),
	})
	require.NoError(t, err)

	require.NoError(t, svc.DeactivateEmployee(ctx, dto.ID))
	active, err := svc.ListEmployees(ctx, false)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := svc.ListEmployees(ctx, true)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].IsActive)

	err = svc.DeactivateEmployee(ctx, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
	_, err = svc.GetEmployee(ctx, uuid.New())
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))
}

func TestRoleLifecycle(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	role, err := svc.CreateRole(ctx, RoleInput{
		Name:        "Auditor",
		Permissions: []string{"view_reports", "view_inventory", "view_reports"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"view_inventory", "view_reports"}, role.Permissions)
	assert.False(t, role.IsSystem)

	_, err = svc.CreateRole(ctx, RoleInput{Name: "Auditor", Permissions: []string{"view_reports"}})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	updated, err := svc.UpdateRole(ctx, role.ID, RoleInput{Name: "Auditor", Permissions: []string{string(enums.PermissionViewDashboard)}})
	require.NoError(t, err)
	assert.Equal(t, []string{"view_dashboard"}, updated.Permissions)

	roles, err := svc.ListRoles(ctx)
	require.NoError(t, err)
	assert.Len(t, roles, len(migrate.SystemRoles())+1)
	assert.True(t, roles[0].IsSystem)

	_, err = svc.CreateEmployee(ctx, CreateEmployeeInput{Username: "dan", Password: "long-enough", FirstName: "Dan", RoleID: role.ID})
	require.NoError(t, err)
	err = svc.DeleteRole(ctx, role.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeConflict))

	spare, err := svc.CreateRole(ctx, RoleInput{Name: "Spare", Permissions: []string{"view_reports"}})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteRole(ctx, spare.ID))
	_, err = svc.GetRole(ctx, spare.ID)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeNotFound))

	admin := systemRoleID(t, repo, migrate.RoleAdministrator)
	err = svc.DeleteRole(ctx, admin)
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
	_, err = svc.UpdateRole(ctx, admin, RoleInput{Name: "Root", Permissions: []string{"view_reports"}})
	assert.True(t, pkgerrors.Is(err, pkgerrors.CodeStateConflict))
}

func TestRoleValidationReportsEveryProblem(t *testing.T) {
	svc, _ := newTestService(t)
	_, err := svc.CreateRole(context.Background(), RoleInput{Permissions: []string{"fly", "teleport"}})
	require.True(t, pkgerrors.Is(err, pkgerrors.CodeValidation))
	details := pkgerrors.As(err).Details().(map[string]any)
	assert.Len(t, details["errors"], 3)
}
