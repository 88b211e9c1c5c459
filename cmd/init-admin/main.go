package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/opsboard/opsboard/internal/config"
	"github.com/opsboard/opsboard/internal/core/auth"
	"github.com/opsboard/opsboard/internal/storage/postgres"
)

// Seeds the first admin user with a tenant and the default role set. Safe to
// re-run: exits cleanly when the user already exists.
func main() {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")
	tenantName := os.Getenv("ADMIN_TENANT_NAME")
	tenantSlug := os.Getenv("ADMIN_TENANT_SLUG")

	if adminEmail == "" || adminPassword == "" {
		log.Fatal("ADMIN_EMAIL and ADMIN_PASSWORD environment variables are required")
	}
	if tenantName == "" {
		tenantName = "Default"
	}
	if tenantSlug == "" {
		tenantSlug = "default"
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := postgres.NewClient(cfg.Database.Postgres)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	ctx := context.Background()
	repo := auth.NewRepository(db)

	existing, err := repo.GetUserByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("Failed to check for existing user: %v", err)
	}
	if existing != nil {
		fmt.Printf("Admin user '%s' already exists\n", adminEmail)
		os.Exit(0)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(adminPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	user := &auth.User{
		ID:           uuid.New(),
		Email:        adminEmail,
		PasswordHash: string(hash),
		Name:         "Admin",
		Status:       "active",
	}
	if err := repo.CreateUser(ctx, user); err != nil {
		log.Fatalf("Failed to create admin user: %v", err)
	}

	// CreateTenant seeds the default roles and the creator's admin membership.
	service := auth.NewService(repo, nil, &cfg.JWT)
	tenant, err := service.CreateTenant(ctx, user.ID, &auth.CreateTenantRequest{
		Name: tenantName,
		Slug: tenantSlug,
	})
	if err != nil {
		log.Fatalf("Failed to create tenant: %v", err)
	}

	fmt.Printf("Created admin user %s in tenant %s (%s)\n", adminEmail, tenant.Name, tenant.ID)
}
