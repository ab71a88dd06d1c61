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

	"github.com/fieldworks/crewcal/internal/auth"
	"github.com/fieldworks/crewcal/internal/engine"
	"github.com/fieldworks/crewcal/internal/models"
	"github.com/fieldworks/crewcal/internal/scheduling"
)

type jobRequest struct {
	Customer       string  `json:"customer"`
	SiteAddress    string  `json:"site_address"`
	Description    string  `json:"description"`
	RequestedStart string  `json:"requested_start"`
	TotalManHours  float64 `json:"total_man_hours"`

	OverrideCoreHours    *bool `json:"override_core_hours"`
	OverrideDailyLimit   *bool `json:"override_daily_limit"`
	OverrideAvailability *bool `json:"override_availability"`
}

type scheduleRequest struct {
	InstallerIDs []string `json:"installer_ids"`
}

func (a *API) handleJobsList(w http.ResponseWriter, r *http.Request) {
	query := a.db.WithContext(r.Context())
	if status := r.URL.Query().Get("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var jobs []models.Job
	if err := query.Order("requested_start ASC").Find(&jobs).Error; err != nil {
		a.logger.Error().Err(err).Msg("list jobs failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, jobs)
}

func (a *API) handleJobsCreate(w http.ResponseWriter, r *http.Request) {
	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if req.Customer == "" {
		writeError(w, http.StatusBadRequest, "customer_required")
		return
	}
	if req.TotalManHours <= 0 {
		writeError(w, http.StatusBadRequest, "total_man_hours_required")
		return
	}
	requestedStart, err := time.Parse(time.RFC3339, req.RequestedStart)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_requested_start")
		return
	}

	job := models.Job{
		ID:                   uuid.NewString(),
		Customer:             req.Customer,
		SiteAddress:          req.SiteAddress,
		Description:          req.Description,
		RequestedStart:       requestedStart,
		TotalManHours:        req.TotalManHours,
		Status:               models.JobStatusDraft,
		OverrideCoreHours:    boolValue(req.OverrideCoreHours),
		OverrideDailyLimit:   boolValue(req.OverrideDailyLimit),
		OverrideAvailability: boolValue(req.OverrideAvailability),
	}
	if err := a.db.WithContext(r.Context()).Create(&job).Error; err != nil {
		a.logger.Error().Err(err).Msg("create job failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusCreated, job)
}

func (a *API) handleJobsGet(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, job)
}

func (a *API) handleJobsUpdate(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}

	var req jobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}

	updates := map[string]any{}
	if req.Customer != "" {
		updates["customer"] = req.Customer
	}
	if req.SiteAddress != "" {
		updates["site_address"] = req.SiteAddress
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.RequestedStart != "" {
		requestedStart, err := time.Parse(time.RFC3339, req.RequestedStart)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_requested_start")
			return
		}
		updates["requested_start"] = requestedStart
	}
	if req.TotalManHours > 0 {
		updates["total_man_hours"] = req.TotalManHours
	}
	if req.OverrideCoreHours != nil {
		updates["override_core_hours"] = *req.OverrideCoreHours
	}
	if req.OverrideDailyLimit != nil {
		updates["override_daily_limit"] = *req.OverrideDailyLimit
	}
	if req.OverrideAvailability != nil {
		updates["override_availability"] = *req.OverrideAvailability
	}

	if err := a.db.WithContext(r.Context()).Model(job).Updates(updates).Error; err != nil {
		a.logger.Error().Err(err).Msg("update job failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, job)
}

// handleJobSchedule runs a full scheduling pass and persists the slice
// set. Edits to an already scheduled job go through here too; the old
// slices are discarded and regenerated.
func (a *API) handleJobSchedule(w http.ResponseWriter, r *http.Request) {
	a.runSchedulingPass(w, r, false)
}

// handleJobPreview runs the same pass without persisting.
func (a *API) handleJobPreview(w http.ResponseWriter, r *http.Request) {
	a.runSchedulingPass(w, r, true)
}

func (a *API) runSchedulingPass(w http.ResponseWriter, r *http.Request, dryRun bool) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}

	var req scheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json")
		return
	}
	if len(req.InstallerIDs) == 0 {
		writeError(w, http.StatusBadRequest, "installer_ids_required")
		return
	}
	if !a.installersExist(w, r, req.InstallerIDs) {
		return
	}

	actorID := ""
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		actorID = claims.UserID
	}
	pass := scheduling.Request{
		Job:          job,
		InstallerIDs: req.InstallerIDs,
		ActorID:      actorID,
	}

	var result *engine.Result
	var err error
	if dryRun {
		result, err = a.scheduler.Preview(r.Context(), pass)
	} else {
		result, err = a.scheduler.Schedule(r.Context(), pass)
	}
	if err != nil {
		a.writeSchedulingError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"job_id":    job.ID,
		"dry_run":   dryRun,
		"slices":    result.Slices,
		"shift":     result.Shift,
		"overrides": result.Overrides,
	})
}

// writeSchedulingError maps engine conflicts onto HTTP statuses.
// Recoverable conflicts are 409 so callers can retry with overrides;
// structural configuration errors are 422.
func (a *API) writeSchedulingError(w http.ResponseWriter, err error) {
	conflict, ok := engine.AsConflict(err)
	if !ok {
		a.logger.Error().Err(err).Msg("scheduling pass failed")
		writeError(w, http.StatusInternalServerError, "scheduling_failed")
		return
	}

	status := http.StatusConflict
	if !conflict.Recoverable() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, map[string]any{
		"error":        string(conflict.Kind),
		"installer_id": conflict.InstallerID,
		"day":          conflict.Day,
		"message":      conflict.Message,
	})
}

func (a *API) handleJobUnschedule(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}

	actorID := ""
	if claims, ok := auth.ClaimsFromContext(r.Context()); ok {
		actorID = claims.UserID
	}
	if err := a.scheduler.Unschedule(r.Context(), job, actorID); err != nil {
		a.logger.Error().Err(err).Msg("unschedule failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cancelled"})
}

func (a *API) handleJobSlices(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}

	var slices []models.Slice
	if err := a.db.WithContext(r.Context()).
		Where("job_id = ?", job.ID).
		Order("slice_index ASC").
		Find(&slices).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return
	}
	writeJSON(w, http.StatusOK, slices)
}

func (a *API) loadJob(w http.ResponseWriter, r *http.Request) (*models.Job, bool) {
	jobID := chi.URLParam(r, "jobID")
	if jobID == "" {
		writeError(w, http.StatusBadRequest, "job_id_required")
		return nil, false
	}

	var job models.Job
	result := a.db.WithContext(r.Context()).First(&job, "id = ?", jobID)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		writeError(w, http.StatusNotFound, "not_found")
		return nil, false
	}
	if result.Error != nil {
		a.logger.Error().Err(result.Error).Msg("load job failed")
		writeError(w, http.StatusInternalServerError, "db_error")
		return nil, false
	}
	return &job, true
}

func (a *API) installersExist(w http.ResponseWriter, r *http.Request, installerIDs []string) bool {
	var count int64
	if err := a.db.WithContext(r.Context()).
		Model(&models.Installer{}).
		Where("id IN ? AND active = ?", installerIDs, true).
		Count(&count).Error; err != nil {
		writeError(w, http.StatusInternalServerError, "db_error")
		return false
	}
	if count != int64(len(installerIDs)) {
		writeError(w, http.StatusBadRequest, "unknown_or_inactive_installer")
		return false
	}
	return true
}

func boolValue(b *bool) bool {
	return b != nil && *b
}
