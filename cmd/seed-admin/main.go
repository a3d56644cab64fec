package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/adsjeddah/ads-sub002/internal/admins"
	"github.com/adsjeddah/ads-sub002/pkg/config"
	"github.com/adsjeddah/ads-sub002/pkg/db"
	"github.com/adsjeddah/ads-sub002/pkg/logger"
)

// seed-admin creates a back-office account. Admin registration is not
// exposed over HTTP.
func main() {
	logg := logger.New(logger.Options{ServiceName: "seed-admin"})

	_ = godotenv.Load()

	email := flag.String("email", "", "admin email")
	name := flag.String("name", "", "admin display name")
	password := flag.String("password", "", "admin password")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "both -email and -password are required")
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	svc := admins.NewService(admins.NewRepository(dbClient.DB()), cfg.JWT, cfg.Password, logg)

	admin, err := svc.Register(context.Background(), *email, *name, *password)
	if err != nil {
		logg.Error(context.Background(), "failed to create admin", err)
		os.Exit(1)
	}

	fmt.Println("created admin:", admin.ID, admin.Email)
}
