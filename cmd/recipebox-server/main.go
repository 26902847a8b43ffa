// Package main provides the GraphQL server for recipebox.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raphaelgruber/recipebox/internal/config"
	"github.com/raphaelgruber/recipebox/internal/graph"
	"github.com/raphaelgruber/recipebox/internal/models"
	"github.com/raphaelgruber/recipebox/internal/server"
	"github.com/raphaelgruber/recipebox/internal/service"
	"gopkg.in/yaml.v3"
)

func main() {
	// Parse flags
	seedFile := flag.String("seed", "", "upsert metadata options from a YAML file on startup")
	flag.Parse()

	// Load configuration
	cfg := config.Load()

	logger, closeLog := config.SetupLogger(cfg)
	defer closeLog()
	slog.SetDefault(logger)

	if err := run(cfg, *seedFile, logger); err != nil {
		logger.Error("server failed", "error", err)
		closeLog()
		os.Exit(1)
	}
}

func run(cfg config.Config, seedFile string, logger *slog.Logger) error {
	logger.Info("starting recipebox-server", "port", cfg.ServerPort)

	// Create resolver with all dependencies
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	resolver, err := graph.NewResolver(ctx, cfg, logger)
	cancel()
	if err != nil {
		return fmt.Errorf("create resolver: %w", err)
	}
	defer func() {
		if err := resolver.Close(); err != nil {
			logger.Error("failed to close resolver", "error", err)
		}
	}()

	if seedFile != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		err := seedMetadata(ctx, resolver.MetadataService(), seedFile)
		cancel()
		if err != nil {
			return err
		}
		logger.Info("metadata seeded", "file", seedFile)
	}

	schema, err := graph.NewExecutableSchema(graph.Config{
		Resolvers: resolver,
	})
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}

	srv, err := server.New(server.Config{
		Addr:    ":" + cfg.ServerPort,
		Schema:  schema,
		Auth:    resolver.Users(),
		Health:  resolver,
		Metrics: resolver.Collector(),
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	// Stop on interrupt signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("GraphQL playground available", "url", fmt.Sprintf("http://localhost:%s/playground", cfg.ServerPort))
	logger.Info("GraphQL endpoint available", "url", fmt.Sprintf("http://localhost:%s/query", cfg.ServerPort))

	if err := srv.Run(ctx); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}

// seedOptions lists metadata options per kind in display order.
type seedOptions struct {
	Categories []models.Option `yaml:"categories"`
	Levels     []models.Option `yaml:"levels"`
	Labels     []models.Option `yaml:"labels"`
	Units      []models.Option `yaml:"units"`
}

func seedMetadata(ctx context.Context, svc *service.MetadataService, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read seed file: %w", err)
	}
	var seed seedOptions
	if err := yaml.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("parse seed file: %w", err)
	}

	lists := map[models.OptionKind][]models.Option{
		models.KindCategory: seed.Categories,
		models.KindLevel:    seed.Levels,
		models.KindLabel:    seed.Labels,
		models.KindUnit:     seed.Units,
	}
	for _, kind := range models.AllKinds {
		for i, opt := range lists[kind] {
			if err := svc.UpsertOption(ctx, kind, opt, i); err != nil {
				return fmt.Errorf("seed %s %q: %w", kind, opt.Key, err)
			}
		}
	}
	return nil
}
