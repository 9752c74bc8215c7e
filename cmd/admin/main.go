// Command admin runs database migrations and bootstraps administrator accounts.
package main

import (
	"context"
	"errors"
	"log"
	"os"

	"github.com/noah-isme/school-admin-api/internal/repository"
	"github.com/noah-isme/school-admin-api/pkg/config"
	"github.com/noah-isme/school-admin-api/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatalf("database connection failed: %v", err)
	}
	defer db.Close() //nolint:errcheck

	cli := &commandLine{
		users: repository.NewUserRepository(db),
		migrate: func(command string, args ...string) error {
			return database.Migrate(db.DB, command, args...)
		},
		out: os.Stdout,
	}
	if err := cli.run(context.Background(), os.Args); err != nil {
		if errors.Is(err, errHelp) {
			os.Exit(2)
		}
		log.Printf("admin: %v", err)
		os.Exit(1)
	}
}
