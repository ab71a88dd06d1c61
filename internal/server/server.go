/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package server wires configuration, storage, services, and the HTTP
// router into one process.
package server

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fieldworks/crewcal/internal/api"
	"github.com/fieldworks/crewcal/internal/audit"
	"github.com/fieldworks/crewcal/internal/config"
	"github.com/fieldworks/crewcal/internal/db"
	"github.com/fieldworks/crewcal/internal/engine"
	"github.com/fieldworks/crewcal/internal/events"
	"github.com/fieldworks/crewcal/internal/locking"
	"github.com/fieldworks/crewcal/internal/scheduling"
	"github.com/fieldworks/crewcal/internal/telemetry"
)

// Server bundles HTTP and supporting services.
type Server struct {
	cfg        *config.Config
	logger     zerolog.Logger
	router     chi.Router
	httpServer *http.Server
	closers    []func() error

	db        *gorm.DB
	bus       *events.Bus
	locker    locking.Locker
	scheduler *scheduling.Service
	auditSvc  *audit.Service
	api       *api.API

	bgCancel context.CancelFunc
	bgWG     sync.WaitGroup
}

// New constructs the server and wires dependencies.
func New(cfg *config.Config, logger zerolog.Logger) (*Server, error) {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(middleware.Logger)
	router.Use(middleware.Recoverer)
	router.Use(telemetry.TracingMiddleware("crewcal-api"))
	router.Use(telemetry.MetricsMiddleware)
	router.Use(middleware.Timeout(60 * time.Second))

	srv := &Server{
		cfg:    cfg,
		logger: logger,
		router: router,
		bus:    events.NewBus(),
	}

	if err := srv.initDependencies(); err != nil {
		return nil, err
	}

	srv.configureRoutes()
	srv.startBackgroundWorkers()

	srv.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.HTTPBind, cfg.HTTPPort),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return srv, nil
}

func (s *Server) initDependencies() error {
	database, err := db.Connect(s.cfg)
	if err != nil {
		return err
	}
	if err := db.Migrate(database); err != nil {
		return err
	}
	if err := db.RegisterCallbacks(database); err != nil {
		return err
	}
	s.db = database
	s.DeferClose(func() error { return db.Close(database) })

	if s.cfg.BookingLockRedis {
		redisLocker, err := locking.NewRedisLocker(s.cfg.RedisAddr, s.cfg.RedisPassword, s.cfg.RedisDB, s.logger)
		if err != nil {
			return fmt.Errorf("create redis locker: %w", err)
		}
		s.locker = redisLocker
		s.DeferClose(redisLocker.Close)
		s.logger.Info().Str("redis_addr", s.cfg.RedisAddr).Msg("redis booking locks enabled")
	} else {
		s.locker = locking.NewMemoryLocker()
	}

	defaults := engine.Config{
		CoreStartHour:      s.cfg.CoreStartHour,
		CoreEndHour:        s.cfg.CoreEndHour,
		DriveOutMinutes:    s.cfg.DriveOutMinutes,
		DriveReturnMinutes: s.cfg.DriveReturnMinutes,
		DailyCapHours:      s.cfg.DailyCapHours,
		WeekendSpillover:   s.cfg.WeekendSpillover,
	}
	s.scheduler = scheduling.NewService(database, engine.New(s.logger), defaults, s.locker, s.bus, s.logger)

	s.auditSvc = audit.NewService(database, s.bus, s.logger)

	s.api = api.New(database, []byte(s.cfg.JWTSigningKey), s.scheduler, s.auditSvc, s.bus, s.logger)

	return nil
}

func (s *Server) configureRoutes() {
	s.api.Routes(s.router)
	s.router.Handle("/metrics", telemetry.Handler())
}

// HTTPServer exposes the underlying net/http server.
func (s *Server) HTTPServer() *http.Server {
	return s.httpServer
}

// Close releases owned resources in reverse order.
func (s *Server) Close() error {
	s.stopBackgroundWorkers()
	var firstErr error
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// DeferClose registers a cleanup hook.
func (s *Server) DeferClose(fn func() error) {
	s.closers = append(s.closers, fn)
}

func (s *Server) startBackgroundWorkers() {
	ctx, cancel := context.WithCancel(context.Background())
	s.bgCancel = cancel

	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		s.auditSvc.Start(ctx)
	}()

	// Keep the DB pool gauge fresh.
	s.bgWG.Add(1)
	go func() {
		defer s.bgWG.Done()
		ticker := time.NewTicker(30 * time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				db.UpdateConnectionMetrics(s.db)
			}
		}
	}()
}

func (s *Server) stopBackgroundWorkers() {
	if s.bgCancel != nil {
		s.bgCancel()
	}
	s.bgWG.Wait()
}
