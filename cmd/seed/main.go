// Package main provides a CLI tool for seeding the database with initial data.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"sessionhub/internal/config"
	"sessionhub/internal/domain/auth"
	"sessionhub/internal/infrastructure/storage/postgres"
	"sessionhub/internal/infrastructure/storage/postgres/auth_repo"
	"sessionhub/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       "info",
		Development: true,
	})
	if err != nil {
		fmt.Printf("failed to create logger: %v\n", err)
		os.Exit(1)
	}
	logger.SetDefault(log)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL environment variable is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	pool, err := postgres.NewPool(ctx, postgres.DefaultPoolConfig(cfg.DatabaseURL))
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()

	log.Info("connected to database")

	if err := postgres.ApplySchema(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	txManager := postgres.NewTxManager(pool)
	seeder := auth.NewSeeder(
		auth_repo.NewAccountRepo(txManager),
		auth_repo.NewRoleRepo(txManager),
		auth_repo.NewPermissionRepo(txManager),
		txManager,
		auth.NewPasswordHasher(auth.DefaultArgon2Params()),
	)

	if err := seeder.Seed(ctx, seedConfig(cfg)); err != nil {
		log.Fatalw("seed failed", "error", err)
	}

	log.Info("seed done")
}

// seedConfig lists the dev users when SEED_DEV_USERS is set. The admin comes first
// and is recorded as the assigner of every seeded role.
func seedConfig(cfg *config.Config) auth.SeedConfig {
	if !cfg.Seed.DevUsers {
		return auth.SeedConfig{}
	}
	return auth.SeedConfig{DevUsers: []auth.DevUser{
		{Username: cfg.Seed.AdminUsername, Password: cfg.Seed.AdminPassword, Role: auth.RoleAdmin},
		{Username: cfg.Seed.UserUsername, Password: cfg.Seed.UserPassword, Role: auth.RoleUser},
		{Username: cfg.Seed.DeletedUsername, Password: cfg.Seed.DeletedPassword, Role: auth.RoleUser, Deleted: true},
	}}
}
