// Command create-user provisions a portal account. There is no sign-up
// flow; accounts are created by an operator.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"placement-portal/internal/auth"
	"placement-portal/internal/config"
	"placement-portal/internal/db"
	"placement-portal/internal/logger"
)

func main() {
	email := flag.String("email", "", "account email")
	password := flag.String("password", "", "account password (min 8 characters)")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger.Init(cfg.Logging.Level, cfg.Logging.Format)
	log := logger.Get()

	database, err := db.NewConnection(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer database.Close()

	ctx := context.Background()
	if cfg.Database.MigrateOnStart {
		if err := db.Migrate(ctx, database, cfg.Database.Driver, cfg.Listings.Collection); err != nil {
			log.Fatal().Err(err).Msg("Failed to migrate database")
		}
	}

	repo := db.NewRepository(database, cfg.Listings.Collection)

	// sessions are never opened here
	svc := auth.NewService(cfg, repo, nil)
	if err := svc.CreateUser(ctx, *email, *password); err != nil {
		log.Fatal().Err(err).Str("email", *email).Msg("Failed to create user")
	}

	fmt.Printf("created %s\n", auth.NormalizeEmail(*email))
}
