//go:build integration_tests
// +build integration_tests

package dbtest

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/angelmondragon/vidrobox-backend/pkg/config"
	"github.com/angelmondragon/vidrobox-backend/pkg/db"
	"github.com/angelmondragon/vidrobox-backend/pkg/migrate"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/ory/dockertest"
)

const (
	postgresImage = "postgres"
	postgresTag   = "16-alpine"
	postgresUser  = "vidrobox"
	postgresPass  = "vidrobox"
	postgresName  = "vidrobox_test"
)

// RunPostgres starts a throwaway Postgres container, applies the embedded
// migrations and returns a client bound to it. The returned func removes the
// container.
func RunPostgres(ctx context.Context) (*db.Client, func(), error) {
	pool, err := dockertest.NewPool("")
	if err != nil {
		return nil, nil, fmt.Errorf("connect to docker: %w", err)
	}
	pool.MaxWait = 90 * time.Second

	resource, err := pool.RunWithOptions(&dockertest.RunOptions{
		Repository: postgresImage,
		Tag:        postgresTag,
		Env: []string{
			"POSTGRES_USER=" + postgresUser,
			"POSTGRES_PASSWORD=" + postgresPass,
			"POSTGRES_DB=" + postgresName,
		},
	})
	if err != nil {
		return nil, nil, fmt.Errorf("start postgres: %w", err)
	}
	purge := func() { _ = pool.Purge(resource) }

	dsn := fmt.Sprintf("postgres://%s:%s@localhost:%s/%s?sslmode=disable",
		postgresUser, postgresPass, resource.GetPort("5432/tcp"), postgresName)

	var sqlDB *sql.DB
	if err := pool.Retry(func() error {
		conn, err := sql.Open("pgx", dsn)
		if err != nil {
			return err
		}
		if err := conn.PingContext(ctx); err != nil {
			_ = conn.Close()
			return err
		}
		sqlDB = conn
		return nil
	}); err != nil {
		purge()
		return nil, nil, fmt.Errorf("wait for postgres: %w", err)
	}
	defer sqlDB.Close()

	if err := migrate.Up(ctx, sqlDB); err != nil {
		purge()
		return nil, nil, err
	}

	client, err := db.New(ctx, config.DBConfig{
		DSN:          dsn,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		TxTimeout:    10 * time.Second,
	}, false, nil)
	if err != nil {
		purge()
		return nil, nil, err
	}

	return client, func() {
		_ = client.Close()
		purge()
	}, nil
}
