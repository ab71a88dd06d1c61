/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fieldworks/crewcal/internal/events"
	"github.com/fieldworks/crewcal/internal/models"
)

type installerRequest struct {
	Name   string `json:"name"`
	Email  string `json:"email"`
	Phone  string `json:"phone"`
	Active *bool  `json:"active"`
}

type exceptionRequest struct {
	Date      string `json:"date"`
	OutAllDay bool   `json:"out_all_day"`
	OutHours  []int  `json:"out_hours"`
	Note      string `json:"note"`
}

func (a *API) handleInstallersList(w http.ResponseWriter, r *http.Request) {
	query := a.db.WithContext(r.Context())
	if r.URL.Query().Get("active") == "true" {
		query = query.Where("active = ?", true)
	}

	var installers []models.Installer
	if err := query.Order("name ASC").Find(&installers).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, installers)
}

func (a *API) handleInstallersCreate(w http.ResponseWriter, r *http.Request) {
	var req installerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Name == "" || req.Email == "" {
		writeError(w, http.StatusBadRequest, "name_and_email_required")
		return
	}

	installer := models.Installer{
		ID:     uuid.NewString(),
		Name:   req.Name,
		Email:  req.Email,
		Phone:  req.Phone,
		Active: true,
	}
	if req.Active != nil {
		installer.Active = *req.Active
	}
	if err := a.db.WithContext(r.Context()).Create(&installer).Error; err != nil {
		a.logger.Error().Err(err).Msg("create installer failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusCreated, installer)
}

func (a *API) handleInstallersGet(w http.ResponseWriter, r *http.Request) {
	installer, ok := a.loadInstaller(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, installer)
}

func (a *API) handleInstallersUpdate(w http.ResponseWriter, r *http.Request) {
	installer, ok := a.loadInstaller(w, r)
	if !ok {
		return
	}

	var req installerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	updates := map[string]any{}
	if req.Name != "" {
		updates["name"] = req.Name
	}
	if req.Email != "" {
		updates["email"] = req.Email
	}
	if req.Phone != "" {
		updates["phone"] = req.Phone
	}
	if req.Active != nil {
		updates["active"] = *req.Active
	}
	if len(updates) == 0 {
		writeJSON(w, http.StatusOK, installer)
		return
	}

	if err := a.db.WithContext(r.Context()).Model(installer).Updates(updates).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, installer)
}

// handleInstallerCalendar returns an installer's booked slices in a
// date range, joined through job assignments.
func (a *API) handleInstallerCalendar(w http.ResponseWriter, r *http.Request) {
	installer, ok := a.loadInstaller(w, r)
	if !ok {
		return
	}

	from := time.Now().AddDate(0, 0, -7)
	to := time.Now().AddDate(0, 0, 30)
	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_from")
			return
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_to")
			return
		}
		to = parsed
	}

	type calendarRow struct {
		JobID      string    `json:"job_id"`
		Customer   string    `json:"customer"`
		StartsAt   time.Time `json:"starts_at"`
		Hours      float64   `json:"hours"`
		PartIndex  int       `json:"part_index"`
		PartsTotal int       `json:"parts_total"`
	}

	var rows []calendarRow
	if err := a.db.WithContext(r.Context()).
		Table("slices").
		Select("slices.job_id, jobs.customer, slices.starts_at, slices.hours, slices.part_index, slices.parts_total").
		Joins("JOIN job_assignments ON job_assignments.job_id = slices.job_id").
		Joins("JOIN jobs ON jobs.id = slices.job_id").
		Where("job_assignments.installer_id = ?", installer.ID).
		Where("jobs.status <> ?", models.JobStatusCancelled).
		Where("slices.starts_at >= ? AND slices.starts_at < ?", from, to).
		Order("slices.starts_at ASC").
		Scan(&rows).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"installer_id": installer.ID,
		"from":         from,
		"to":           to,
		"slices":       rows,
	})
}

func (a *API) handleExceptionsList(w http.ResponseWriter, r *http.Request) {
	installer, ok := a.loadInstaller(w, r)
	if !ok {
		return
	}

	var exceptions []models.AvailabilityException
	if err := a.db.WithContext(r.Context()).
		Where("installer_id = ?", installer.ID).
		Order("date ASC").
		Find(&exceptions).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, exceptions)
}

func (a *API) handleExceptionsCreate(w http.ResponseWriter, r *http.Request) {
	installer, ok := a.loadInstaller(w, r)
	if !ok {
		return
	}

	var req exceptionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_date")
		return
	}
	if !req.OutAllDay && len(req.OutHours) == 0 {
		writeError(w, http.StatusBadRequest, "out_all_day_or_out_hours_required")
		return
	}
	for _, hour := range req.OutHours {
		if hour < 0 || hour > 23 {
			writeError(w, http.StatusBadRequest, "invalid_out_hour")
			return
		}
	}

	exception := models.AvailabilityException{
		ID:          uuid.NewString(),
		InstallerID: installer.ID,
		Date:        date,
		OutAllDay:   req.OutAllDay,
		OutHours:    req.OutHours,
		Note:        req.Note,
	}
	if err := a.db.WithContext(r.Context()).Create(&exception).Error; err != nil {
		a.logger.Error().Err(err).Msg("create exception failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	a.publishAuditEvent(r, events.EventAvailabilityBlocked, events.Payload{
		"installer_id": installer.ID,
		"exception_id": exception.ID,
		"date":         req.Date,
		"out_all_day":  req.OutAllDay,
		"out_hours":    req.OutHours,
	})

	writeJSON(w, http.StatusCreated, exception)
}

func (a *API) handleExceptionsDelete(w http.ResponseWriter, r *http.Request) {
	installer, ok := a.loadInstaller(w, r)
	if !ok {
		return
	}
	exceptionID := chi.URLParam(r, "exceptionID")
	if exceptionID == "" {
		writeError(w, http.StatusBadRequest, "exception_id_required")
		return
	}

	result := a.db.WithContext(r.Context()).
		Where("id = ? AND installer_id = ?", exceptionID, installer.ID).
		Delete(&models.AvailabilityException{})
	if result.Error != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	if result.RowsAffected == 0 {
		writeError(w, http.StatusNotFound, "not_found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (a *API) loadInstaller(w http.ResponseWriter, r *http.Request) (*models.Installer, bool) {
	installerID := chi.URLParam(r, "installerID")
	if installerID == "" {
		writeError(w, http.StatusBadRequest, "installer_id_required")
		return nil, false
	}

	var installer models.Installer
	result := a.db.WithContext(r.Context()).First(&installer, "id = ?", installerID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	if result.Error != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return nil, false
	}
	return &installer, true
}
