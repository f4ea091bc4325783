// Package server exposes the analysis service over HTTP.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/dshills/evidentia/internal/analysis"
	"github.com/dshills/evidentia/internal/observability"
)

// Options tunes request handling. Zero values select defaults.
type Options struct {
	RequestTimeout time.Duration
	MaxBodyBytes   int64
}

// Server routes HTTP requests to an analysis.Service.
type Server struct {
	svc     *analysis.Service
	metrics *observability.Metrics
	logger  *slog.Logger
	timeout time.Duration
	maxBody int64
	engine  *gin.Engine
}

// New builds the router. metrics may be nil, in which case /metrics is not
// mounted.
func New(svc *analysis.Service, metrics *observability.Metrics, logger *slog.Logger, opts Options) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		svc:     svc,
		metrics: metrics,
		logger:  logger,
		timeout: opts.RequestTimeout,
		maxBody: opts.MaxBodyBytes,
	}
	if s.timeout <= 0 {
		s.timeout = 2 * time.Minute
	}
	if s.maxBody <= 0 {
		s.maxBody = 2 << 20
	}

	r := gin.New()
	r.Use(recovery(logger), requestID(), logging(logger), instrument(metrics))

	api := r.Group("/api")
	{
		api.GET("/health", s.health)
		api.GET("/flags", s.flags)
		api.POST("/analyze", s.analyze)
		api.POST("/compare", s.compare)
	}
	if metrics != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler()))
	}
	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorBody{Error: "not found"})
	})

	s.engine = r
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves on addr until ctx is cancelled, then drains in-flight requests
// for up to shutdownTimeout.
func (s *Server) Run(ctx context.Context, addr string, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("server listening", "addr", addr)

	select {
	case <-ctx.Done():
		s.logger.Info("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("server stopped")
	return nil
}
