// Command createsuperuser creates an admin account non-interactively.
//
// Usage:
//
//	createsuperuser --username=boss --email=boss@example.com --password=secret
//
// Flags left empty fall back to the bootstrap section of the config file.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"

	"pawhub/internal/core/config"
	"pawhub/internal/core/database"
	"pawhub/internal/domain"
	"pawhub/internal/repo"
	"pawhub/pkg/utils"
)

func main() {
	username := flag.String("username", "", "login name for the new admin")
	email := flag.String("email", "", "email address (optional)")
	password := flag.String("password", "", "initial password")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))

	if *username == "" {
		*username = cfg.Bootstrap.Username
	}
	if *email == "" {
		*email = cfg.Bootstrap.Email
	}
	if *password == "" {
		*password = cfg.Bootstrap.Password
	}
	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "Usage: createsuperuser --username=NAME --password=PASS [--email=ADDR]")
		os.Exit(1)
	}

	db, err := database.NewGorm(database.Opts{
		Driver:   cfg.DB.Driver,
		DSN:      cfg.DB.DSN,
		LogLevel: "silent",
	})
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	users := repo.NewUserRepo(db)
	existing, err := users.FindByUsername(ctx, *username)
	if err != nil {
		log.Fatalf("lookup user: %v", err)
	}
	if existing != nil {
		fmt.Printf("User %q already exists (role %s), nothing to do.\n", *username, existing.Role)
		return
	}

	u := &domain.User{
		ID:           utils.NewID(),
		Username:     *username,
		Email:        *email,
		PasswordHash: utils.HashPassword(*password),
		Role:         domain.RoleAdmin,
		IsActive:     true,
	}
	if err := users.Create(ctx, u); err != nil {
		log.Fatalf("create user: %v", err)
	}
	fmt.Printf("Superuser %q created.\n", u.Username)
}
