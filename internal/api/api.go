/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package api exposes the HTTP surface: booking, calendar, workforce,
// and audit endpoints.
package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fieldworks/crewcal/internal/audit"
	"github.com/fieldworks/crewcal/internal/auth"
	"github.com/fieldworks/crewcal/internal/events"
	"github.com/fieldworks/crewcal/internal/models"
	"github.com/fieldworks/crewcal/internal/scheduling"
)

// API exposes HTTP handlers.
type API struct {
	db        *gorm.DB
	jwtSecret []byte
	scheduler *scheduling.Service
	auditSvc  *audit.Service
	bus       *events.Bus
	logger    zerolog.Logger
}

// New creates the API router wrapper.
func New(db *gorm.DB, jwtSecret []byte, scheduler *scheduling.Service, auditSvc *audit.Service, bus *events.Bus, logger zerolog.Logger) *API {
	return &API{
		db:        db,
		jwtSecret: jwtSecret,
		scheduler: scheduler,
		auditSvc:  auditSvc,
		bus:       bus,
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// Routes mounts API routes on provided router.
func (a *API) Routes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", a.handleHealth)
		r.Post("/auth/login", a.handleLogin)

		r.Group(func(pr chi.Router) {
			pr.Use(a.authMiddleware())

			pr.Route("/jobs", func(r chi.Router) {
				r.Get("/", a.handleJobsList)
				r.With(a.requireDispatcher()).Post("/", a.handleJobsCreate)
				r.Route("/{jobID}", func(r chi.Router) {
					r.Get("/", a.handleJobsGet)
					r.With(a.requireDispatcher()).Patch("/", a.handleJobsUpdate)
					r.With(a.requireDispatcher()).Post("/schedule", a.handleJobSchedule)
					r.With(a.requireDispatcher()).Post("/preview", a.handleJobPreview)
					r.With(a.requireDispatcher()).Delete("/schedule", a.handleJobUnschedule)
					r.Get("/slices", a.handleJobSlices)
				})
			})

			pr.Route("/installers", func(r chi.Router) {
				r.Get("/", a.handleInstallersList)
				r.With(a.requireDispatcher()).Post("/", a.handleInstallersCreate)
				r.Route("/{installerID}", func(r chi.Router) {
					r.Get("/", a.handleInstallersGet)
					r.With(a.requireDispatcher()).Patch("/", a.handleInstallersUpdate)
					r.Get("/calendar", a.handleInstallerCalendar)
					r.Route("/exceptions", func(er chi.Router) {
						er.Get("/", a.handleExceptionsList)
						er.With(a.requireDispatcher()).Post("/", a.handleExceptionsCreate)
						er.With(a.requireDispatcher()).Delete("/{exceptionID}", a.handleExceptionsDelete)
					})
				})
			})

			pr.Route("/holidays", func(r chi.Router) {
				r.Get("/", a.handleHolidaysList)
				r.With(a.requireAdmin()).Post("/", a.handleHolidaysCreate)
				r.With(a.requireAdmin()).Delete("/{holidayID}", a.handleHolidaysDelete)
			})

			// Audit log routes (admin only)
			pr.Route("/audit", func(r chi.Router) {
				r.Use(a.requireAdmin())
				r.Get("/", a.handleAuditList)
			})
		})
	})
}

func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (a *API) authMiddleware() func(http.Handler) http.Handler {
	return auth.Middleware(a.jwtSecret)
}

func (a *API) requireDispatcher() func(http.Handler) http.Handler {
	return auth.RequireRoles(string(models.RoleAdmin), string(models.RoleDispatcher))
}

func (a *API) requireAdmin() func(http.Handler) http.Handler {
	return auth.RequireRoles(string(models.RoleAdmin))
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code string) {
	writeJSON(w, status, map[string]string{"error": code})
}

// auditContext extracts user and request info for audit logging.
func (a *API) auditContext(r *http.Request) events.Payload {
	payload := events.Payload{
		"ip_address": r.RemoteAddr,
	}

	if claims, ok := auth.ClaimsFromContext(r.Context()); ok && claims != nil {
		payload["actor_id"] = claims.UserID
		payload["actor_email"] = claims.Email
	}

	return payload
}

// publishAuditEvent publishes an audit event with user and request context.
func (a *API) publishAuditEvent(r *http.Request, eventType events.EventType, data events.Payload) {
	payload := a.auditContext(r)
	for k, v := range data {
		payload[k] = v
	}
	a.bus.Publish(eventType, payload)
}
