// Package server assembles the long-running service: data source, optional
// KPI history, metrics, refresh cache and the HTTP API.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/trialscope/trialscope/internal/api"
	"github.com/trialscope/trialscope/internal/history"
	"github.com/trialscope/trialscope/internal/metrics"
	"github.com/trialscope/trialscope/internal/platform"
	"github.com/trialscope/trialscope/internal/refresh"
	"github.com/trialscope/trialscope/internal/source"
	"github.com/trialscope/trialscope/pkg/config"
	"github.com/trialscope/trialscope/pkg/dashboard"
	"github.com/trialscope/trialscope/pkg/logger"
	"github.com/trialscope/trialscope/pkg/snapshot"
)

// ShutdownTimeout bounds graceful shutdown.
const ShutdownTimeout = 15 * time.Second

// Server is the assembled service.
type Server struct {
	cfg   *config.Config
	log   *zap.Logger
	db    *sql.DB
	cache *refresh.Cache
	http  *http.Server
}

// New wires every component from cfg. The database is only opened when
// history.database_url is set.
func New(ctx context.Context, cfg *config.Config, log *zap.Logger) (*Server, error) {
	log = logger.OrNop(log)

	opts, err := cfg.DashboardOptions()
	if err != nil {
		return nil, err
	}

	src, err := source.Open(ctx, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("open snapshot source: %w", err)
	}

	s := &Server{cfg: cfg, log: log}

	var hist refresh.History
	if cfg.History.DatabaseURL != "" {
		db, err := platform.OpenDB(ctx, cfg.History.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := platform.AutoMigrate(db, log); err != nil {
			db.Close()
			return nil, err
		}
		s.db = db
		hist = history.NewStore(db)
	}

	collector := metrics.NewCollector()
	s.cache = refresh.New(refresh.Options{
		Engine:   dashboard.NewEngine(opts),
		Fetcher:  src,
		Baseline: snapshot.Baseline,
		History:  hist,
		Observer: collector,
		Logger:   log.Named("refresh"),
	})

	mux := http.NewServeMux()
	api.NewHandler(api.Options{
		Cache:     s.cache,
		Publisher: src,
		Metrics:   collector.Handler(),
		APIKey:    cfg.Server.APIKey,
		Logger:    log.Named("api"),
	}).RegisterRoutes(mux)

	s.http = &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           api.CORS(api.AccessLog(log.Named("http"), collector)(mux)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("service configured",
		zap.String("source", src.Location()),
		zap.String("profile", opts.Profile.Name),
		zap.String("ladder", opts.Ladder.Name),
		zap.Bool("history", hist != nil),
	)
	return s, nil
}

// Cache exposes the refresh cache.
func (s *Server) Cache() *refresh.Cache {
	return s.cache
}

// Run warms the cache, serves until ctx is cancelled, then shuts down
// gracefully and releases the database.
func (s *Server) Run(ctx context.Context) error {
	defer s.close()

	if _, err := s.cache.Refresh(ctx); err != nil {
		s.log.Warn("initial refresh failed", zap.Error(err))
	}

	errc := make(chan error, 1)
	go func() {
		s.log.Info("listening", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	s.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
	defer cancel()
	if err := s.http.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

func (s *Server) close() {
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.log.Warn("closing database", zap.Error(err))
		}
	}
}
