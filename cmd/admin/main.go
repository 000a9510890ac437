package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/angelmondragon/vidrobox-backend/internal/auth"
	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	"github.com/angelmondragon/vidrobox-backend/pkg/db"
	"github.com/angelmondragon/vidrobox-backend/pkg/env"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
)

const passwordEnv = "VIDROBOX_ADMIN_PASSWORD"

var errNoSessions = errors.New("sessions are not available in the admin cli")

// offlineSessions satisfies the auth service without redis; the CLI never logs in.
type offlineSessions struct{}

func (offlineSessions) Open(context.Context, string, uuid.UUID) error { return errNoSessions }
func (offlineSessions) Revoke(context.Context, string) error         { return errNoSessions }

func main() {
	email := flag.String("email", "", "admin email (required)")
	name := flag.String("name", "", "display name")
	password := flag.String("password", "", "password; falls back to "+passwordEnv)
	flag.Parse()

	ctx := context.Background()
	logg := logger.New(logger.Options{ServiceName: "admin-cli"})
	_ = godotenv.Load()

	if *password == "" {
		*password = env.Get(passwordEnv, "")
	}
	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: admin -email=<email> [-name=<name>] [-password=<password>]")
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(ctx, "failed to load config", err)
		os.Exit(1)
	}

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	svc, err := auth.NewService(auth.ServiceParams{
		AdminRepo:      auth.NewRepository(dbClient.DB()),
		SessionManager: offlineSessions{},
		JWTConfig:      cfg.JWT,
		PasswordConfig: cfg.Password,
		Logger:         logg,
	})
	if err != nil {
		logg.Error(ctx, "failed to create auth service", err)
		os.Exit(1)
	}

	admin, created, err := svc.Seed(ctx, auth.SeedRequest{Email: *email, Name: *name, Password: *password})
	if err != nil {
		logg.Error(ctx, "failed to seed admin", err)
		os.Exit(1)
	}

	action := "password reset for"
	if created {
		action = "created"
	}
	fmt.Printf("admin %s %s (%s)\n", action, admin.Email, admin.ID)
}
