package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/angelmondragon/stockpos-backend/internal/employees"
	"github.com/angelmondragon/stockpos-backend/pkg/config"
	"github.com/angelmondragon/stockpos-backend/pkg/db"
	"github.com/angelmondragon/stockpos-backend/pkg/logger"
	"github.com/angelmondragon/stockpos-backend/pkg/migrate"
	"github.com/angelmondragon/stockpos-backend/pkg/security"
)

const tempPasswordLength = 16

func main() {
	ctx := context.Background()
	// bootstrap logger early (then re-init after config load)
	logg := logger.New(logger.Options{ServiceName: "migrate"})

	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "migration command: up|down|status|version|validate|seed-roles|seed-admin")
	version := flag.String("version", "", "target version (YYYYMMDDHHMMSS) for -cmd=version")
	username := flag.String("username", "admin", "administrator username for -cmd=seed-admin")
	firstName := flag.String("first-name", "Store", "administrator first name for -cmd=seed-admin")
	lastName := flag.String("last-name", "Admin", "administrator last name for -cmd=seed-admin")

	flag.Parse()

	if *cmd == "validate" {
		if err := migrate.Validate(migrate.FS()); err != nil {
			fmt.Fprintf(os.Stderr, "migration validation failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("migration validation passed")
		return
	}

	cfg, err := config.Load()
	requireResource(ctx, logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "migrate",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx = logg.WithFields(context.Background(), map[string]any{
		"env":    cfg.App.Env,
		"cmd":    *cmd,
		"driver": cfg.DB.Driver,
	})

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)
	defer dbClient.Close()

	switch *cmd {
	case "seed-roles":
		created, err := migrate.SeedSystemRoles(ctx, dbClient.DB())
		if err != nil {
			fmt.Fprintf(os.Stderr, "seeding roles failed: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("system roles seeded (%d created)\n", created)
		return

	case "seed-admin":
		if err := seedAdmin(ctx, cfg, dbClient, *username, *firstName, *lastName); err != nil {
			fmt.Fprintf(os.Stderr, "seeding administrator failed: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if cfg.DB.IsSQLite() {
		fmt.Fprintln(os.Stderr, "goose commands require postgres; sqlite is bootstrapped by the api on start")
		os.Exit(1)
	}

	sqlDB, err := dbClient.DB().DB()
	requireResource(ctx, logg, "sql database", err)

	logg.Info(ctx, "migrate ready")

	switch *cmd {
	case "up", "down", "status":
		if err := migrate.Run(ctx, sqlDB, *cmd); err != nil {
			fmt.Fprintf(os.Stderr, "goose %s failed: %v\n", *cmd, err)
			os.Exit(1)
		}

	case "version":
		if *version == "" {
			fmt.Fprintln(os.Stderr, "missing -version for version command")
			os.Exit(1)
		}
		if err := migrate.MigrateToVersion(ctx, sqlDB, *version); err != nil {
			fmt.Fprintf(os.Stderr, "goose version migrate failed: %v\n", err)
			os.Exit(1)
		}

	default:
		fmt.Fprintln(os.Stderr, "unknown -cmd value:", *cmd)
		os.Exit(1)
	}
}

// seedAdmin creates the first administrator with a generated password that is
// printed once.
func seedAdmin(ctx context.Context, cfg *config.Config, client *db.Client, username, firstName, lastName string) error {
	if _, err := migrate.SeedSystemRoles(ctx, client.DB()); err != nil {
		return fmt.Errorf("seeding roles: %w", err)
	}

	repo := employees.NewRepository(client.DB())
	role, err := repo.FindRoleByName(ctx, migrate.RoleAdministrator)
	if err != nil {
		return fmt.Errorf("loading administrator role: %w", err)
	}

	svc, err := employees.NewService(repo, cfg.Password)
	if err != nil {
		return err
	}

	password, err := security.GenerateTempPassword(tempPasswordLength)
	if err != nil {
		return fmt.Errorf("generating password: %w", err)
	}

	employee, err := svc.CreateEmployee(ctx, employees.CreateEmployeeInput{
		Username:  username,
		Password:  password,
		FirstName: firstName,
		LastName:  lastName,
		RoleID:    role.ID,
	})
	if err != nil {
		return err
	}

	fmt.Printf("administrator %s created (id %s)\ntemporary password: %s\n", employee.Username, employee.ID, password)
	return nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
