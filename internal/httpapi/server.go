package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"drivetrain.fyi/forecourt/internal/db"
	"drivetrain.fyi/forecourt/internal/syncer"
)

const (
	defaultPageSize = 25
	maxPageSize     = 200

	defaultSyncLimit = 100
	maxSyncLimit     = 1000
)

type Options struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
}

// SyncRunner runs one sync batch. *syncer.Service satisfies it.
type SyncRunner interface {
	SyncPending(ctx context.Context, limit int) (syncer.Result, error)
}

type Server struct {
	pool   *db.Pool
	runner SyncRunner
	logger zerolog.Logger
	opts   Options
}

func NewServer(pool *db.Pool, runner SyncRunner, logger zerolog.Logger, opts Options) *Server {
	host := strings.TrimSpace(opts.Host)
	if host == "" {
		host = "0.0.0.0"
	}
	port := opts.Port
	if port <= 0 {
		port = 8092
	}
	readTimeout := opts.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = 10 * time.Second
	}
	writeTimeout := opts.WriteTimeout
	if writeTimeout <= 0 {
		// Sync batches run inside the request; allow for slow stores.
		writeTimeout = 120 * time.Second
	}
	shutdownTimeout := opts.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}

	return &Server{
		pool:   pool,
		runner: runner,
		logger: logger,
		opts: Options{
			Host:            host,
			Port:            port,
			ReadTimeout:     readTimeout,
			WriteTimeout:    writeTimeout,
			ShutdownTimeout: shutdownTimeout,
		},
	}
}

// Start runs the HTTP server until ctx is canceled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context) error {
	e := s.buildEcho()

	errCh := make(chan error, 1)
	go func() {
		address := fmt.Sprintf("%s:%d", s.opts.Host, s.opts.Port)
		s.logger.Info().Str("address", address).Msg("http server starting")
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
			return
		}
		errCh <- nil
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.opts.ShutdownTimeout)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return <-errCh
}

func (s *Server) buildEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Server.ReadTimeout = s.opts.ReadTimeout
	e.Server.WriteTimeout = s.opts.WriteTimeout

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())

	e.GET("/healthz", s.handleHealthz)
	e.GET("/api/stats", s.handleStats)
	e.GET("/api/candidates", s.handleListCandidates)
	e.GET("/api/sync-events", s.handleListSyncEvents)
	e.POST("/api/sync", s.handleRunSync)

	return e
}

func (s *Server) handleHealthz(c echo.Context) error {
	if s.pool == nil || s.pool.DB() == nil {
		return internalError(c, "database pool is not initialized")
	}
	if err := s.pool.DB().PingContext(c.Request().Context()); err != nil {
		s.logger.Error().Err(err).Msg("health check ping failed")
		return internalError(c, "database unreachable")
	}
	return success(c, map[string]string{"status": "ok"})
}

func (s *Server) handleStats(c echo.Context) error {
	stats, err := s.pool.QueryPipelineStats(c.Request().Context())
	if err != nil {
		s.logger.Error().Err(err).Msg("query pipeline stats failed")
		return internalError(c, "failed to query stats")
	}
	return success(c, stats)
}

func (s *Server) handleListCandidates(c echo.Context) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error(), nil)
	}

	status := strings.TrimSpace(c.QueryParam("status"))
	switch status {
	case "", db.CandidateStatusPending, db.CandidateStatusSynced, db.CandidateStatusError:
	default:
		return fail(c, http.StatusBadRequest, "status must be pending, synced or error", nil)
	}

	candidates, err := s.pool.ListCandidates(c.Request().Context(), status, pageSize, (page-1)*pageSize)
	if err != nil {
		s.logger.Error().Err(err).Msg("list candidates failed")
		return internalError(c, "failed to list candidates")
	}

	return success(c, map[string]any{
		"candidates": candidates,
		"page":       page,
		"page_size":  pageSize,
	})
}

func (s *Server) handleListSyncEvents(c echo.Context) error {
	page, pageSize, err := parsePagination(c)
	if err != nil {
		return fail(c, http.StatusBadRequest, err.Error(), nil)
	}

	events, err := s.pool.ListSyncEvents(c.Request().Context(), pageSize, (page-1)*pageSize)
	if err != nil {
		s.logger.Error().Err(err).Msg("list sync events failed")
		return internalError(c, "failed to list sync events")
	}

	return success(c, map[string]any{
		"sync_events": events,
		"page":        page,
		"page_size":   pageSize,
	})
}

type runSyncRequest struct {
	Limit int `json:"limit"`
}

func (s *Server) handleRunSync(c echo.Context) error {
	if s.runner == nil {
		return internalError(c, "sync is not configured")
	}

	var req runSyncRequest
	if err := c.Bind(&req); err != nil {
		return fail(c, http.StatusBadRequest, "invalid request body", nil)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = defaultSyncLimit
	}
	if limit > maxSyncLimit {
		return fail(c, http.StatusBadRequest, fmt.Sprintf("limit must be <= %d", maxSyncLimit), nil)
	}

	result, err := s.runner.SyncPending(c.Request().Context(), limit)
	if err != nil {
		s.logger.Error().Err(err).Msg("sync batch failed")
		return internalError(c, "sync batch failed")
	}

	return successWithStatus(c, http.StatusOK, map[string]any{
		"processed": result.Processed,
		"created":   result.Created,
		"updated":   result.Updated,
		"skipped":   result.Skipped,
		"errors":    result.Errors,
	})
}

func parsePagination(c echo.Context) (page int, pageSize int, err error) {
	page = 1
	if raw := strings.TrimSpace(c.QueryParam("page")); raw != "" {
		page, err = strconv.Atoi(raw)
		if err != nil || page < 1 {
			return 0, 0, fmt.Errorf("page must be a positive integer")
		}
	}

	pageSize = defaultPageSize
	if raw := strings.TrimSpace(c.QueryParam("page_size")); raw != "" {
		pageSize, err = strconv.Atoi(raw)
		if err != nil || pageSize < 1 {
			return 0, 0, fmt.Errorf("page_size must be a positive integer")
		}
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}

	return page, pageSize, nil
}
