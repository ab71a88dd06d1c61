/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fieldworks/crewcal/internal/audit"
	"github.com/fieldworks/crewcal/internal/models"
)

func (a *API) handleAuditList(w http.ResponseWriter, r *http.Request) {
	filters := audit.QueryFilters{Limit: 100}

	if v := r.URL.Query().Get("user_id"); v != "" {
		filters.UserID = &v
	}
	if v := r.URL.Query().Get("resource_id"); v != "" {
		filters.ResourceID = &v
	}
	if v := r.URL.Query().Get("action"); v != "" {
		action := models.AuditAction(v)
		filters.Action = &action
	}
	if v := r.URL.Query().Get("start"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_start")
			return
		}
		filters.StartTime = &parsed
	}
	if v := r.URL.Query().Get("end"); v != "" {
		parsed, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_end")
			return
		}
		filters.EndTime = &parsed
	}
	if v := r.URL.Query().Get("limit"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 && parsed <= 500 {
			filters.Limit = parsed
		}
	}
	if v := r.URL.Query().Get("offset"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil && parsed > 0 {
			filters.Offset = parsed
		}
	}

	logs, total, err := a.auditSvc.Query(r.Context(), filters)
	if err != nil {
		a.logger.Error().Err(err).Msg("audit query failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"logs":   logs,
		"total":  total,
		"limit":  filters.Limit,
		"offset": filters.Offset,
	})
}
