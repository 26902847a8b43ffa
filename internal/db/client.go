// Package db provides PostgreSQL connectivity and queries for recipebox.
package db

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/raphaelgruber/recipebox/internal/metrics"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Config holds PostgreSQL connection configuration.
type Config struct {
	URL      string
	MaxConns int32
}

// Client wraps a pgx connection pool.
type Client struct {
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics *metrics.Collector
}

// NewClient opens a connection pool and verifies connectivity.
// mc may be nil.
func NewClient(ctx context.Context, cfg Config, log *slog.Logger, mc *metrics.Collector) (*Client, error) {
	if log == nil {
		log = slog.Default()
	}
	log = log.With("component", "db")

	poolCfg, err := pgxpool.ParseConfig(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolCfg.MaxConns = cfg.MaxConns
	}

	log.Info("connecting to PostgreSQL", "host", poolCfg.ConnConfig.Host, "database", poolCfg.ConnConfig.Database)
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}

	log.Info("PostgreSQL connection established")
	return &Client{pool: pool, logger: log, metrics: mc}, nil
}

// Close releases all pooled connections.
func (c *Client) Close() {
	c.logger.Info("closing PostgreSQL pool")
	c.pool.Close()
}

// Pool returns the underlying pool for ad-hoc queries.
func (c *Client) Pool() *pgxpool.Pool {
	return c.pool
}

// Ping checks connectivity (used by the health endpoint).
func (c *Client) Ping(ctx context.Context) error {
	return c.pool.Ping(ctx)
}

// Migrate applies all embedded migrations.
func (c *Client) Migrate(ctx context.Context) error {
	c.logger.Info("applying database migrations")

	sqlDB := stdlib.OpenDBFromPool(c.pool)
	driver, err := postgres.WithInstance(sqlDB, &postgres.Config{
		MigrationsTable: "schema_migrations",
	})
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("create migrate driver: %w", err)
	}

	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("open migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		_ = sqlDB.Close()
		return fmt.Errorf("create migrator: %w", err)
	}
	defer m.Close()
	m.LockTimeout = 30 * time.Second

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", err)
	}

	version, dirty, err := m.Version()
	if err == nil {
		c.logger.Info("schema up to date", "version", version, "dirty", dirty)
	}
	return nil
}

// WipeData deletes all users and recipes while keeping schema and metadata.
// Use for testing only.
func (c *Client) WipeData(ctx context.Context) error {
	c.logger.Warn("wiping all data from database")
	if _, err := c.pool.Exec(ctx, `TRUNCATE recipe_steps, recipe_ingredients, recipes, users`); err != nil {
		return fmt.Errorf("truncate: %w", err)
	}
	c.logger.Info("database wipe complete")
	return nil
}

// inTx runs fn inside a transaction, committing on success.
func (c *Client) inTx(ctx context.Context, fn func(tx pgx.Tx) error) (err error) {
	defer c.metrics.Track(metrics.OpDBTx)(&err)

	tx, err := c.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(ctx); rbErr != nil && !errors.Is(rbErr, pgx.ErrTxClosed) {
				c.logger.Error("rollback failed", "error", rbErr)
			}
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
