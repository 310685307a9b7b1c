package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/cobra"

	"github.com/gridorganize/gridorganize/pkg/api"
	"github.com/gridorganize/gridorganize/pkg/cache"
	"github.com/gridorganize/gridorganize/pkg/pipeline"
)

// =============================================================================
// Configuration
// =============================================================================

// ServeConfig is the serve command's TOML configuration file shape.
type ServeConfig struct {
	Addr  string      `toml:"addr"`
	TTL   string      `toml:"ttl"` // Go duration, e.g. "24h"
	Cache CacheConfig `toml:"cache"`
}

// CacheConfig selects and configures the result cache backend.
type CacheConfig struct {
	Backend string `toml:"backend"` // file, redis, mongo, or none

	// file backend
	Dir string `toml:"dir"` // defaults to the XDG cache directory

	// redis backend
	RedisAddr     string `toml:"redis_addr"`
	RedisPassword string `toml:"redis_password"`
	RedisDB       int    `toml:"redis_db"`

	// mongo backend
	MongoURI        string `toml:"mongo_uri"`
	MongoDatabase   string `toml:"mongo_database"`
	MongoCollection string `toml:"mongo_collection"`
}

// defaultServeConfig returns the configuration used when no file is given.
func defaultServeConfig() ServeConfig {
	return ServeConfig{
		Addr:  "127.0.0.1:8188",
		Cache: CacheConfig{Backend: "file"},
	}
}

// loadServeConfig reads a TOML config file, applying defaults for missing keys.
func loadServeConfig(path string) (ServeConfig, error) {
	cfg := defaultServeConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// buildCache constructs the cache backend named by the configuration.
func buildCache(ctx context.Context, cfg CacheConfig) (cache.Cache, error) {
	switch cfg.Backend {
	case "", "file":
		dir := cfg.Dir
		if dir == "" {
			var err error
			dir, err = cacheDir()
			if err != nil {
				return nil, fmt.Errorf("resolve cache directory: %w", err)
			}
		}
		return cache.NewFileCache(dir)
	case "redis":
		return cache.NewRedisCache(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	case "mongo":
		return cache.NewMongoCache(ctx, cache.MongoConfig{
			URI:        cfg.MongoURI,
			Database:   cfg.MongoDatabase,
			Collection: cfg.MongoCollection,
		})
	case "none":
		return cache.NewNullCache(), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q (want file, redis, mongo, or none)", cfg.Backend)
	}
}

// =============================================================================
// Command
// =============================================================================

// serveCommand creates the serve command for running the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		configPath string
		addr       string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the layout HTTP API",
		Long: `Run the layout HTTP API.

The server exposes one action endpoint, POST /v1/action, accepting organize,
reroute, and log requests, plus GET /healthz for probes. Results are cached
per graph snapshot in the configured backend.

Configuration is TOML; flags override the file:

  addr = "127.0.0.1:8188"
  ttl  = "24h"

  [cache]
  backend = "redis"        # file, redis, mongo, or none
  redis_addr = "localhost:6379"`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), configPath, addr, noCache)
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "path to a TOML config file")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching (overrides config)")

	return cmd
}

// runServe builds the cache, runner, and server, then blocks until shutdown.
func (c *CLI) runServe(ctx context.Context, configPath, addr string, noCache bool) error {
	cfg, err := loadServeConfig(configPath)
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.Addr = addr
	}
	if noCache {
		cfg.Cache.Backend = "none"
	}

	store, err := buildCache(ctx, cfg.Cache)
	if err != nil {
		return fmt.Errorf("initialize cache: %w", err)
	}
	defer store.Close()

	runner := pipeline.NewRunner(store, nil, c.Logger)
	if cfg.TTL != "" {
		ttl, err := time.ParseDuration(cfg.TTL)
		if err != nil {
			return fmt.Errorf("invalid ttl %q: %w", cfg.TTL, err)
		}
		runner.TTL = ttl
	}

	backend := cfg.Cache.Backend
	if backend == "" {
		backend = "file"
	}
	printKeyValue("address", cfg.Addr)
	printKeyValue("cache", backend)
	printNewline()

	srv := api.NewServer(runner, c.Logger)
	if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
