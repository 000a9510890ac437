package migrate

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/pressly/goose/v3"
	"github.com/pressly/goose/v3/lock"
)

// DefaultDir is where create, validate and list look on disk.
const DefaultDir = "pkg/migrate/migrations"

const embeddedDir = "migrations"

// Migrations are compiled into every binary so images need no source tree.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// Applied describes one migration run by Up or Down.
type Applied struct {
	Version  int64
	Path     string
	Duration time.Duration
}

// Status is the state of one known migration.
type Status struct {
	Version   int64
	Path      string
	Applied   bool
	AppliedAt time.Time
}

// Migrator applies the SQL migrations to Postgres. Concurrent migrators
// serialize on a Postgres advisory lock.
type Migrator struct {
	provider *goose.Provider
}

func source(dir string) (fs.FS, error) {
	if dir == "" {
		return fs.Sub(Migrations, embeddedDir)
	}
	return os.DirFS(dir), nil
}

// NewMigrator reads migrations from dir, or from the embedded set when dir
// is empty.
func NewMigrator(db *sql.DB, dir string) (*Migrator, error) {
	if db == nil {
		return nil, errors.New("migrate: db is required")
	}
	fsys, err := source(dir)
	if err != nil {
		return nil, fmt.Errorf("migrate: open source: %w", err)
	}
	locker, err := lock.NewPostgresSessionLocker()
	if err != nil {
		return nil, fmt.Errorf("migrate: session locker: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectPostgres, db, fsys, goose.WithSessionLocker(locker))
	if err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &Migrator{provider: provider}, nil
}

func applied(results ...*goose.MigrationResult) []Applied {
	out := make([]Applied, 0, len(results))
	for _, r := range results {
		if r == nil || r.Source == nil {
			continue
		}
		out = append(out, Applied{Version: r.Source.Version, Path: r.Source.Path, Duration: r.Duration})
	}
	return out
}

// Up applies every pending migration.
func (m *Migrator) Up(ctx context.Context) ([]Applied, error) {
	results, err := m.provider.Up(ctx)
	if err != nil {
		return applied(results...), fmt.Errorf("migrate up: %w", err)
	}
	return applied(results...), nil
}

// Down rolls back the newest applied migration.
func (m *Migrator) Down(ctx context.Context) ([]Applied, error) {
	result, err := m.provider.Down(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate down: %w", err)
	}
	return applied(result), nil
}

// To moves the schema up or down until target is the newest applied version.
func (m *Migrator) To(ctx context.Context, target int64) ([]Applied, error) {
	current, err := m.provider.GetDBVersion(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate: current version: %w", err)
	}
	var results []*goose.MigrationResult
	switch {
	case target > current:
		results, err = m.provider.UpTo(ctx, target)
	case target < current:
		results, err = m.provider.DownTo(ctx, target)
	}
	if err != nil {
		return applied(results...), fmt.Errorf("migrate to %d: %w", target, err)
	}
	return applied(results...), nil
}

func (m *Migrator) Status(ctx context.Context) ([]Status, error) {
	states, err := m.provider.Status(ctx)
	if err != nil {
		return nil, fmt.Errorf("migrate status: %w", err)
	}
	out := make([]Status, 0, len(states))
	for _, s := range states {
		out = append(out, Status{
			Version:   s.Source.Version,
			Path:      s.Source.Path,
			Applied:   s.State == goose.StateApplied,
			AppliedAt: s.AppliedAt,
		})
	}
	return out, nil
}

// Up is the one-shot form used by boot-time auto-migration and test harnesses.
func Up(ctx context.Context, db *sql.DB) error {
	m, err := NewMigrator(db, "")
	if err != nil {
		return err
	}
	_, err = m.Up(ctx)
	return err
}
