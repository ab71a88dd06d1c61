/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/fieldworks/crewcal/internal/events"
	"github.com/fieldworks/crewcal/internal/models"
)

type holidayRequest struct {
	Date string `json:"date"`
	Name string `json:"name"`
}

func (a *API) handleHolidaysList(w http.ResponseWriter, r *http.Request) {
	query := a.db.WithContext(r.Context())
	if v := r.URL.Query().Get("year"); v != "" {
		yearStart, err := time.Parse("2006", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_year")
			return
		}
		query = query.Where("date >= ? AND date < ?", yearStart, yearStart.AddDate(1, 0, 0))
	}

	var holidays []models.Holiday
	if err := query.Order("date ASC").Find(&holidays).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, holidays)
}

func (a *API) handleHolidaysCreate(w http.ResponseWriter, r *http.Request) {
	var req holidayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name_required")
		return
	}

	holiday := models.Holiday{
		ID:   uuid.NewString(),
		Date: date,
		Name: req.Name,
	}
	if err := a.db.WithContext(r.Context()).Create(&holiday).Error; err != nil {
		a.logger.Error().Err(err).Msg("create holiday failed")
		writeError(w, http.StatusConflict, "duplicate_or_db_error")
		return
	}

	a.publishAuditEvent(r, events.EventHolidayCreated, events.Payload{
		"holiday_id": holiday.ID,
		"date":       req.Date,
		"name":       req.Name,
	})

	writeJSON(w, http.StatusCreated, holiday)
}

func (a *API) handleHolidaysDelete(w http.ResponseWriter, r *http.Request) {
	holidayID := chi.URLParam(r, "holidayID")
	if holidayID == "" {
		writeError(w, http.StatusBadRequest, "holiday_id_required")
		return
	}

	result := a.db.WithContext(r.Context()).Where("id = ?", holidayID).Delete(&models.Holiday{})
	if result.Error != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if result.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	a.publishAuditEvent(r, events.EventHolidayDeleted, events.Payload{
		"holiday_id": holidayID,
	})

	w.WriteHeader(http.StatusNoContent)
}
