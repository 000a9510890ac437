package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	"github.com/angelmondragon/vidrobox-backend/pkg/db"
	"github.com/angelmondragon/vidrobox-backend/pkg/logger"
	"github.com/angelmondragon/vidrobox-backend/pkg/migrate"
	"github.com/joho/godotenv"
)

type options struct {
	dir     string
	name    string
	version string
}

// offline commands only touch the migrations directory.
var offline = map[string]func(options) error{
	"create": func(o options) error {
		if o.name == "" {
			return errors.New("-name is required")
		}
		path, err := migrate.CreateSQLMigration(o.dir, o.name)
		if err != nil {
			return err
		}
		fmt.Println("created", path)
		return nil
	},
	"validate": func(o options) error {
		if err := migrate.ValidateDir(o.dir); err != nil {
			return err
		}
		fmt.Println("migrations ok")
		return nil
	},
	"list": func(o options) error {
		files, err := migrate.ListFiles(os.DirFS(o.dir), ".")
		if err != nil {
			return err
		}
		for _, f := range files {
			fmt.Printf("%d  %s\n", f.Version, f.Name)
		}
		return nil
	},
}

// online commands run against the configured Postgres database.
var online = map[string]func(context.Context, *migrate.Migrator, options) error{
	"up": func(ctx context.Context, m *migrate.Migrator, _ options) error {
		done, err := m.Up(ctx)
		printApplied("applied", done)
		return err
	},
	"down": func(ctx context.Context, m *migrate.Migrator, _ options) error {
		done, err := m.Down(ctx)
		printApplied("rolled back", done)
		return err
	},
	"status": func(ctx context.Context, m *migrate.Migrator, _ options) error {
		states, err := m.Status(ctx)
		if err != nil {
			return err
		}
		for _, s := range states {
			when := "pending"
			if s.Applied {
				when = s.AppliedAt.Format(time.RFC3339)
			}
			fmt.Printf("%d  %-25s  %s\n", s.Version, when, filepath.Base(s.Path))
		}
		return nil
	},
	"version": func(ctx context.Context, m *migrate.Migrator, o options) error {
		if o.version == "" {
			return errors.New("-version is required")
		}
		target, err := strconv.ParseInt(o.version, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid -version %q (want YYYYMMDDHHMMSS): %w", o.version, err)
		}
		done, err := m.To(ctx, target)
		printApplied("moved", done)
		return err
	},
}

func printApplied(verb string, done []migrate.Applied) {
	for _, a := range done {
		fmt.Printf("%s %d %s (%s)\n", verb, a.Version, filepath.Base(a.Path), a.Duration.Round(time.Millisecond))
	}
}

func main() {
	_ = godotenv.Load()

	cmd := flag.String("cmd", "up", "one of: "+commandNames())
	var o options
	flag.StringVar(&o.dir, "dir", migrate.DefaultDir, "migrations directory; empty uses the files embedded in the binary")
	flag.StringVar(&o.name, "name", "", "migration name for -cmd=create")
	flag.StringVar(&o.version, "version", "", "target YYYYMMDDHHMMSS for -cmd=version")
	flag.Parse()

	if run, ok := offline[*cmd]; ok {
		if err := run(o); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", *cmd, err)
			os.Exit(1)
		}
		return
	}
	run, ok := online[*cmd]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown -cmd %q (want %s)\n", *cmd, commandNames())
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logg := logger.New(logger.Options{
		ServiceName: "migrate",
		Env:         cfg.App.Env,
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})
	ctx := logg.WithFields(context.Background(), map[string]any{"cmd": *cmd})

	dbClient, err := db.New(ctx, cfg.DB, cfg.FeatureFlags.UseSQLite, logg)
	if err != nil {
		logg.Error(ctx, "database unavailable", err)
		os.Exit(1)
	}
	defer dbClient.Close()

	if cfg.FeatureFlags.UseSQLite {
		// the SQL files target Postgres; SQLite gets its schema from the models
		if *cmd != "up" {
			logg.Warn(ctx, "sqlite mode only supports -cmd=up")
			os.Exit(1)
		}
		if err := migrate.AutoMigrateModels(dbClient.DB()); err != nil {
			logg.Error(ctx, "sqlite schema migration failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "sqlite schema migrated")
		return
	}

	sqlDB, err := dbClient.SQL()
	if err != nil {
		logg.Error(ctx, "sql handle unavailable", err)
		os.Exit(1)
	}
	migrator, err := migrate.NewMigrator(sqlDB, o.dir)
	if err != nil {
		logg.Error(ctx, "migrator unavailable", err)
		os.Exit(1)
	}
	if err := run(ctx, migrator, o); err != nil {
		logg.Error(ctx, "migration command failed", err)
		os.Exit(1)
	}
	logg.Info(ctx, "migration command finished")
}

func commandNames() string {
	names := make([]string, 0, len(offline)+len(online))
	for name := range offline {
		names = append(names, name)
	}
	for name := range online {
		names = append(names, name)
	}
	sort.Strings(names)
	return strings.Join(names, "|")
}
