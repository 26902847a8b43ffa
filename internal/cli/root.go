// Package cli provides the command-line interface for recipebox.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/raphaelgruber/recipebox/internal/client"
	"github.com/raphaelgruber/recipebox/internal/config"
	"github.com/raphaelgruber/recipebox/internal/draft"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var (
	// Version is set at build time.
	Version = "0.1.0"

	// Global flags
	verbose   bool
	serverURL string

	// Global config, logger and API client
	cfg       config.Config
	logger    *slog.Logger
	closeLog  func() error
	gqlClient *client.Client
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "recipebox",
	Short: "Write and publish recipes",
	Long: `Recipebox is a recipe composer backed by a GraphQL server.

Drafts are kept locally (or in Redis) and autosaved while you edit.
Publish them once every section is complete.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Name() == "version" || cmd.Name() == "help" {
			return nil
		}

		cfg = config.Load()
		if verbose {
			cfg.LogLevel = slog.LevelDebug
		}
		// Terminal output is reserved for command results.
		logger, closeLog = config.SetupFileLogger(cfg)

		endpoint := cfg.ServerURL
		if serverURL != "" {
			endpoint = serverURL
		}
		gqlClient = client.New(endpoint)

		token, err := readToken(cfg.TokenFile)
		if err != nil {
			return err
		}
		gqlClient.SetToken(token)

		logger.Debug("cli started", "command", cmd.CommandPath(), "endpoint", endpoint, "authenticated", token != "")
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if closeLog != nil {
			if err := closeLog(); err != nil {
				fmt.Fprintf(os.Stderr, "Warning: failed to close log file: %v\n", err)
			}
			closeLog = nil
		}
	},
}

// draftStore opens the configured draft backend. watchPath is the file to
// watch for external changes; it is empty for backends without a file.
func draftStore(ctx context.Context) (store draft.Store, watchPath string, cleanup func(), err error) {
	switch cfg.DraftBackend {
	case "", "file":
		fs := draft.NewFileStore(cfg.DraftDir, draft.DefaultKey)
		return fs, fs.Path(), func() {}, nil

	case "redis":
		if cfg.RedisURL == "" {
			return nil, "", nil, fmt.Errorf("draft backend redis requires RECIPEBOX_REDIS_URL")
		}
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, "", nil, fmt.Errorf("parse redis url: %w", err)
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, "", nil, fmt.Errorf("connect to redis: %w", err)
		}
		cleanup := func() {
			if err := rdb.Close(); err != nil {
				logger.Warn("close redis", "error", err)
			}
		}
		return draft.NewRedisStore(rdb, draft.DefaultKey, 0), "", cleanup, nil

	default:
		return nil, "", nil, fmt.Errorf("unknown draft backend %q (want file or redis)", cfg.DraftBackend)
	}
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", "", "GraphQL endpoint (default $RECIPEBOX_SERVER_URL)")

	// Add subcommands
	rootCmd.AddCommand(registerCmd)
	rootCmd.AddCommand(loginCmd)
	rootCmd.AddCommand(logoutCmd)
	rootCmd.AddCommand(whoamiCmd)
	rootCmd.AddCommand(profileCmd)
	rootCmd.AddCommand(passwordCmd)
	rootCmd.AddCommand(recipesCmd)
	rootCmd.AddCommand(metadataCmd)
	rootCmd.AddCommand(composeCmd)
	rootCmd.AddCommand(statsCmd)
}
