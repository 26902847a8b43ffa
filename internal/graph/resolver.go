// This file serves as dependency injection for the app.

package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/raphaelgruber/recipebox/internal/config"
	"github.com/raphaelgruber/recipebox/internal/db"
	"github.com/raphaelgruber/recipebox/internal/metrics"
	"github.com/raphaelgruber/recipebox/internal/service"
	"github.com/redis/go-redis/v9"
)

// Services bundles what the resolver needs. Metrics and Hub may be nil.
type Services struct {
	Recipes  *service.RecipeService
	Metadata *service.MetadataService
	Users    *service.UserService
	Hub      *service.Hub
	Metrics  *metrics.Collector
}

// Resolver is the root resolver with all dependencies.
type Resolver struct {
	recipeSvc *service.RecipeService
	metaSvc   *service.MetadataService
	userSvc   *service.UserService
	hub       *service.Hub
	stats     *metrics.Collector
	logger    *slog.Logger

	db    *db.Client
	redis *redis.Client
}

// New creates a resolver over already constructed services.
func New(s Services, log *slog.Logger) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		recipeSvc: s.Recipes,
		metaSvc:   s.Metadata,
		userSvc:   s.Users,
		hub:       s.Hub,
		stats:     s.Metrics,
		logger:    log.With("component", "graphql"),
	}
}

// NewResolver connects to PostgreSQL (and Redis when configured), applies
// migrations and wires every service.
func NewResolver(ctx context.Context, cfg config.Config, log *slog.Logger) (*Resolver, error) {
	if log == nil {
		log = slog.Default()
	}
	mc := metrics.NewCollector()

	dbClient, err := db.NewClient(ctx, db.Config{URL: cfg.DatabaseURL}, log, mc)
	if err != nil {
		return nil, err
	}
	if err := dbClient.Migrate(ctx); err != nil {
		dbClient.Close()
		return nil, err
	}

	var (
		rdb    *redis.Client
		resets service.ResetTokenStore = service.NewMemoryResetStore()
	)
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			dbClient.Close()
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			dbClient.Close()
			return nil, fmt.Errorf("ping redis: %w", err)
		}
		resets = service.NewRedisResetStore(rdb)
		log.Info("password reset tokens stored in Redis", "addr", opts.Addr)
	} else {
		log.Warn("RECIPEBOX_REDIS_URL not set, reset tokens are kept in memory")
	}

	users, err := service.NewUserService(dbClient, service.UserConfig{
		Tokens:   service.NewTokenIssuer(cfg.JWTSecret, cfg.TokenTTL),
		Resets:   resets,
		ResetTTL: cfg.ResetTTL,
		Metrics:  mc,
		Logger:   log,
	})
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		dbClient.Close()
		return nil, err
	}

	hub := service.NewHub(service.DefaultSubscriberBuffer, log)
	meta := service.NewMetadataService(dbClient, service.DefaultMetadataTTL, log)

	r := New(Services{
		Recipes:  service.NewRecipeService(dbClient, meta, hub, log),
		Metadata: meta,
		Users:    users,
		Hub:      hub,
		Metrics:  mc,
	}, log)
	r.db = dbClient
	r.redis = rdb
	return r, nil
}

// Users exposes the account service (bearer token checks in the HTTP layer).
func (r *Resolver) Users() *service.UserService { return r.userSvc }

// MetadataService exposes the reference data service for admin commands.
func (r *Resolver) MetadataService() *service.MetadataService { return r.metaSvc }

// Collector returns the metrics collector; nil when metrics are disabled.
func (r *Resolver) Collector() *metrics.Collector { return r.stats }

// Ping checks the database connection. Resolvers built with New always succeed.
func (r *Resolver) Ping(ctx context.Context) error {
	if r.db == nil {
		return nil
	}
	return r.db.Ping(ctx)
}

// Close closes all connections.
func (r *Resolver) Close() error {
	var err error
	if r.redis != nil {
		err = r.redis.Close()
	}
	if r.db != nil {
		r.db.Close()
	}
	return err
}
