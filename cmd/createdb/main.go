// Command createdb provisions the postgres database and application role.
// It connects to the maintenance database and is idempotent: existing
// objects are left alone. Credentials come from config or environment,
// never from flags visible in the process list.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"pawhub/internal/core/config"
	"pawhub/internal/core/database"
)

func main() {
	dbName := flag.String("database", "", "database to create (default from config)")
	user := flag.String("user", "", "role to create (default from config)")
	flag.Parse()

	_ = godotenv.Load()
	cfg := config.Load(os.Getenv("CONFIG_PATH"))

	opts := database.ProvisionOpts{
		MaintenanceDSN: cfg.Provision.MaintenanceDSN,
		Database:       cfg.Provision.Database,
		User:           cfg.Provision.User,
		Password:       cfg.Provision.Password,
	}
	if *dbName != "" {
		opts.Database = *dbName
	}
	if *user != "" {
		opts.User = *user
	}
	if opts.MaintenanceDSN == "" || opts.Database == "" || opts.User == "" || opts.Password == "" {
		fmt.Fprintln(os.Stderr, "createdb: provision.maintenance_dsn, database, user and password must be configured")
		os.Exit(1)
	}

	if err := database.Provision(opts, func(format string, args ...any) {
		fmt.Printf(format+"\n", args...)
	}); err != nil {
		log.Fatalf("provision: %v", err)
	}
	fmt.Println("Provisioning complete.")
}
