package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/evidentia/internal/analysis"
	"github.com/dshills/evidentia/internal/cache"
	"github.com/dshills/evidentia/internal/config"
	"github.com/dshills/evidentia/internal/extract"
	"github.com/dshills/evidentia/internal/llm"
	"github.com/dshills/evidentia/internal/observability"
	"github.com/dshills/evidentia/internal/server"
)

type serveFlags struct {
	port     int
	cache    string
	redisURL string
}

func newServeCmd() *cobra.Command {
	f := &serveFlags{}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long:  "Run the HTTP API. Settings come from environment variables; flags override them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			if cmd.Flags().Changed("port") {
				cfg.HTTPPort = f.port
			}
			if cmd.Flags().Changed("cache") {
				cfg.CacheBackend = f.cache
			}
			if cmd.Flags().Changed("redis-url") {
				cfg.RedisURL = f.redisURL
			}
			return runServe(cfg)
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&f.port, "port", 8080, "Listen port (overrides HTTP_PORT)")
	flags.StringVar(&f.cache, "cache", "memory", "Cache backend: memory, redis, or none (overrides CACHE_BACKEND)")
	flags.StringVar(&f.redisURL, "redis-url", "", "Redis URL (overrides REDIS_URL)")

	return cmd
}

func runServe(cfg config.Config) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.Validate(); err != nil {
		return exitError(exitInput, "invalid configuration: %v", err)
	}

	logger := observability.InitLogger(observability.LogConfig{
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
		Service: "evidentia",
	})

	reg, err := loadRegistry(cfg.Taxonomy)
	if err != nil {
		return exitError(exitInput, "failed to load taxonomy: %v", err)
	}

	provider, err := llm.ResolveProvider(cfg.Model)
	if err != nil {
		return exitError(exitProvider, "model provider error: %v", err)
	}

	c, err := cache.New(cache.Config{
		Backend:  cfg.CacheBackend,
		TTL:      cfg.CacheTTL,
		RedisURL: cfg.RedisURL,
	})
	if err != nil {
		return exitError(exitInput, "failed to configure cache: %v", err)
	}
	if rc, ok := c.(*cache.Redis); ok {
		defer rc.Close()
		pingCtx, pingCancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rc.Ping(pingCtx); err != nil {
			// Cache errors degrade to misses, so keep serving.
			logger.Warn("redis unreachable at startup", "error", err)
		}
		pingCancel()
	}

	metrics := observability.NewMetrics()
	svc := analysis.New(analysis.Config{
		Registry: reg,
		Extractor: &extract.Extractor{
			Provider:  provider,
			Registry:  reg,
			Settings:  llm.Settings{Model: cfg.Model},
			Redact:    true,
			Strict:    cfg.StrictGrounding,
			Logger:    logger,
			OnDropped: metrics.ObserveDropped,
		},
		Cache:            c,
		Metrics:          metrics,
		Logger:           logger,
		Model:            modelLabel(provider, cfg.Model),
		CompleteFindings: cfg.CompleteFindings,
		LoadTimeout:      cfg.RequestTimeout,
	})

	logger.Info("starting evidentia",
		"port", cfg.HTTPPort,
		"taxonomy", reg.Name(),
		"provider", provider.Name(),
		"cache", cfg.CacheBackend,
	)

	srv := server.New(svc, metrics, logger, server.Options{
		RequestTimeout: cfg.RequestTimeout,
		MaxBodyBytes:   cfg.MaxBodyBytes,
	})
	if err := srv.Run(ctx, fmt.Sprintf(":%d", cfg.HTTPPort), 15*time.Second); err != nil {
		logger.Error("server error", "error", err)
		return err
	}
	return nil
}
