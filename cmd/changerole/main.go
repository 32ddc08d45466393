// Command changerole switches an existing account between the moderator
// and user roles. Admin accounts are out of scope: it refuses to touch
// them and cannot grant the admin role.
//
// Usage:
//
//	changerole --username=alice --role=moderator
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
)

func main() {
	username := flag.String("username", "", "account to change")
	role := flag.String("role", "", "target role: moderator or user")
	flag.Parse()

	target := domain.Role(*role)
	if *username == "" || (target != domain.RoleModerator && target != domain.RoleUser) {
		fmt.Fprintln(os.Stderr, "Usage: changerole --username=NAME --role=moderator|user")
		os.Exit(1)
	}

	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))

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
	u, err := users.FindByUsername(ctx, *username)
	if err != nil {
		log.Fatalf("lookup user: %v", err)
	}
	if u == nil {
		fmt.Printf("No user named %q.\n", *username)
		os.Exit(1)
	}
	if u.Role.IsAdmin() {
		fmt.Printf("Refusing to change role of admin account %q.\n", u.Username)
		os.Exit(1)
	}
	if u.Role == target {
		fmt.Printf("User %q is already %s.\n", u.Username, target)
		return
	}

	u.Role = target
	if err := users.Update(ctx, u); err != nil {
		log.Fatalf("update role: %v", err)
	}
	fmt.Printf("User %q is now %s.\n", u.Username, target)
}
