/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package scheduling bridges the pure placement engine and the store.
// It snapshots calendar and booking state, runs the engine, and persists
// the resulting slice set as one atomic unit under per-installer-day
// locks, honoring the engine's check-then-act contract.
package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fieldworks/crewcal/internal/engine"
	"github.com/fieldworks/crewcal/internal/events"
	"github.com/fieldworks/crewcal/internal/locking"
	"github.com/fieldworks/crewcal/internal/models"
	"github.com/fieldworks/crewcal/internal/telemetry"
)

// snapshotWindowDays bounds how far ahead holidays and availability
// exceptions are loaded; generation itself never walks further than the
// engine's own placement ceiling.
const snapshotWindowDays = 120

// Service orchestrates scheduling passes against the store.
type Service struct {
	db       *gorm.DB
	engine   *engine.Engine
	defaults engine.Config
	locks    locking.Locker
	bus      *events.Bus
	logger   zerolog.Logger
}

// NewService constructs the scheduling service. defaults carries the
// process-wide core window, travel reservations, cap, and spillover
// policy; calendar data is loaded per call.
func NewService(db *gorm.DB, eng *engine.Engine, defaults engine.Config, locks locking.Locker, bus *events.Bus, logger zerolog.Logger) *Service {
	return &Service{
		db:       db,
		engine:   eng,
		defaults: defaults,
		locks:    locks,
		bus:      bus,
		logger:   logger.With().Str("component", "scheduling").Logger(),
	}
}

// Request bundles one booking pass.
type Request struct {
	Job          *models.Job
	InstallerIDs []string
	ActorID      string // user driving the change, for event payloads
}

// Preview runs the engine without persisting anything.
func (s *Service) Preview(ctx context.Context, req Request) (*engine.Result, error) {
	cfg, err := s.snapshot(ctx, req.Job.RequestedStart)
	if err != nil {
		return nil, err
	}

	existing, err := s.assignments(ctx, req.InstallerIDs, req.Job.ID)
	if err != nil {
		return nil, err
	}

	return s.plan(cfg, req, existing)
}

// Schedule runs a full pass and persists the outcome. The slice set is
// always regenerated from scratch; validate and persist happen under
// locks covering every touched installer-day so concurrent submissions
// cannot jointly exceed the daily cap.
func (s *Service) Schedule(ctx context.Context, req Request) (*engine.Result, error) {
	// A preliminary pass determines which installer-days to lock.
	preliminary, err := s.Preview(ctx, req)
	if err != nil {
		return nil, err
	}

	release, err := s.locks.AcquireAll(ctx, lockKeys(req.InstallerIDs, preliminary.Slices))
	if err != nil {
		return nil, fmt.Errorf("acquire booking locks: %w", err)
	}
	defer release()

	// Re-snapshot under the locks; another pass may have landed
	// between the preliminary run and lock acquisition.
	cfg, err := s.snapshot(ctx, req.Job.RequestedStart)
	if err != nil {
		return nil, err
	}
	existing, err := s.assignments(ctx, req.InstallerIDs, req.Job.ID)
	if err != nil {
		return nil, err
	}

	result, err := s.plan(cfg, req, existing)
	if err != nil {
		return nil, err
	}

	rescheduled := req.Job.Status == models.JobStatusScheduled
	if err := s.persist(ctx, req, result); err != nil {
		return nil, err
	}

	s.publish(req, result, rescheduled)
	return result, nil
}

// Unschedule discards a job's slice set and assignments.
func (s *Service) Unschedule(ctx context.Context, job *models.Job, actorID string) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", job.ID).Delete(&models.Slice{}).Error; err != nil {
			return err
		}
		if err := tx.Where("job_id = ?", job.ID).Delete(&models.JobAssignment{}).Error; err != nil {
			return err
		}
		job.Status = models.JobStatusCancelled
		return tx.Model(job).Update("status", models.JobStatusCancelled).Error
	})
	if err != nil {
		return err
	}

	s.bus.Publish(events.EventJobCancelled, events.Payload{
		"job_id":   job.ID,
		"actor_id": actorID,
	})
	return nil
}

// plan runs the engine and records run metrics.
func (s *Service) plan(cfg engine.Config, req Request, existing engine.Assignments) (*engine.Result, error) {
	result, err := s.engine.Plan(cfg, engineRequest(req), existing)
	if err != nil {
		telemetry.ScheduleRunsTotal.WithLabelValues("conflict").Inc()
		if conflict, ok := engine.AsConflict(err); ok {
			telemetry.ScheduleConflictsTotal.WithLabelValues(string(conflict.Kind)).Inc()
		}
		return nil, err
	}
	telemetry.ScheduleRunsTotal.WithLabelValues("success").Inc()
	return result, nil
}

func engineRequest(req Request) engine.Request {
	return engine.Request{
		ScheduleID:     req.Job.ID,
		RequestedStart: req.Job.RequestedStart,
		TotalManHours:  req.Job.TotalManHours,
		InstallerIDs:   req.InstallerIDs,
		Overrides: engine.OverrideSet{
			CoreHours:    req.Job.OverrideCoreHours,
			DailyLimit:   req.Job.OverrideDailyLimit,
			Availability: req.Job.OverrideAvailability,
		},
	}
}

// snapshot loads holidays and availability exceptions around the
// requested start into an explicit engine config. This is deliberately
// a value snapshot; the engine never reads shared mutable state.
func (s *Service) snapshot(ctx context.Context, from time.Time) (engine.Config, error) {
	cfg := s.defaults
	cfg.Holidays = make(map[string]struct{})
	cfg.Availability = make(map[string]map[string]engine.DayAvailability)

	windowStart := from.AddDate(0, 0, -1)
	windowEnd := from.AddDate(0, 0, snapshotWindowDays)

	var holidays []models.Holiday
	if err := s.db.WithContext(ctx).
		Where("date >= ? AND date < ?", windowStart, windowEnd).
		Find(&holidays).Error; err != nil {
		return engine.Config{}, fmt.Errorf("load holidays: %w", err)
	}
	for _, h := range holidays {
		cfg.Holidays[engine.DateKey(h.Date)] = struct{}{}
	}

	var exceptions []models.AvailabilityException
	if err := s.db.WithContext(ctx).
		Where("date >= ? AND date < ?", windowStart, windowEnd).
		Find(&exceptions).Error; err != nil {
		return engine.Config{}, fmt.Errorf("load availability: %w", err)
	}
	for _, ex := range exceptions {
		day := engine.DateKey(ex.Date)
		if cfg.Availability[day] == nil {
			cfg.Availability[day] = make(map[string]engine.DayAvailability)
		}
		cfg.Availability[day][ex.InstallerID] = engine.DayAvailability{
			OutAllDay: ex.OutAllDay,
			OutHours:  ex.OutHours,
		}
	}

	return cfg, nil
}

// assignments loads every booked slice of the given installers across
// other jobs, keyed by installer.
func (s *Service) assignments(ctx context.Context, installerIDs []string, excludeJobID string) (engine.Assignments, error) {
	existing := make(engine.Assignments, len(installerIDs))
	for _, installerID := range installerIDs {
		var rows []struct {
			JobID    string
			StartsAt time.Time
			Hours    float64
		}
		err := s.db.WithContext(ctx).
			Table("slices").
			Select("slices.job_id, slices.starts_at, slices.hours").
			Joins("JOIN job_assignments ON job_assignments.job_id = slices.job_id").
			Joins("JOIN jobs ON jobs.id = slices.job_id").
			Where("job_assignments.installer_id = ?", installerID).
			Where("slices.job_id <> ?", excludeJobID).
			Where("jobs.status <> ?", models.JobStatusCancelled).
			Scan(&rows).Error
		if err != nil {
			return nil, fmt.Errorf("load assignments for %s: %w", installerID, err)
		}

		booked := make([]engine.ExistingSlice, 0, len(rows))
		for _, row := range rows {
			booked = append(booked, engine.ExistingSlice{
				ScheduleID: row.JobID,
				StartsAt:   row.StartsAt,
				Hours:      row.Hours,
			})
		}
		existing[installerID] = booked
	}
	return existing, nil
}

// persist replaces the job's slice set and assignments in one transaction.
func (s *Service) persist(ctx context.Context, req Request, result *engine.Result) error {
	job := req.Job

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("job_id = ?", job.ID).Delete(&models.Slice{}).Error; err != nil {
			return fmt.Errorf("discard old slices: %w", err)
		}
		if err := tx.Where("job_id = ?", job.ID).Delete(&models.JobAssignment{}).Error; err != nil {
			return fmt.Errorf("discard old assignments: %w", err)
		}

		for _, installerID := range req.InstallerIDs {
			assignment := models.JobAssignment{JobID: job.ID, InstallerID: installerID}
			if err := tx.Create(&assignment).Error; err != nil {
				return fmt.Errorf("persist assignment: %w", err)
			}
		}

		for _, slice := range result.Slices {
			row := models.Slice{
				ID:                uuid.NewString(),
				JobID:             job.ID,
				SliceIndex:        slice.Index,
				StartsAt:          slice.StartsAt,
				Hours:             slice.Hours,
				PartIndex:         slice.PartIndex,
				PartsTotal:        slice.PartsTotal,
				RemainingManHours: slice.RemainingManHours,
			}
			if err := tx.Create(&row).Error; err != nil {
				return fmt.Errorf("persist slice %d: %w", slice.Index, err)
			}
		}

		job.Status = models.JobStatusScheduled
		job.Shifted = result.Shift.Shifted
		job.ShiftReason = string(result.Shift.Reason)
		job.EffectiveStart = result.Shift.EffectiveDate
		return tx.Save(job).Error
	})
}

// publish emits scheduling events; the audit service turns them into
// audit log rows.
func (s *Service) publish(req Request, result *engine.Result, rescheduled bool) {
	payload := events.Payload{
		"job_id":       req.Job.ID,
		"actor_id":     req.ActorID,
		"installers":   req.InstallerIDs,
		"slices":       len(result.Slices),
		"shifted":      result.Shift.Shifted,
		"shift_reason": string(result.Shift.Reason),
	}
	eventType := events.EventJobScheduled
	if rescheduled {
		eventType = events.EventJobRescheduled
	}
	s.bus.Publish(eventType, payload)

	if len(result.Overrides) > 0 {
		for _, tag := range result.Overrides {
			telemetry.OverrideUsesTotal.WithLabelValues(tag).Inc()
		}
		s.bus.Publish(events.EventOverrideUsed, events.Payload{
			"job_id":    req.Job.ID,
			"actor_id":  req.ActorID,
			"overrides": result.Overrides,
		})
	}

	s.logger.Info().
		Str("job", req.Job.ID).
		Int("slices", len(result.Slices)).
		Strs("overrides", result.Overrides).
		Msg("job scheduled")
}

// lockKeys derives the installer-day lock set a plan touches.
func lockKeys(installerIDs []string, slices []engine.Slice) []string {
	keys := make([]string, 0, len(installerIDs)*len(slices))
	for _, slice := range slices {
		day := engine.DateKey(slice.StartsAt)
		for _, installerID := range installerIDs {
			keys = append(keys, locking.Key(installerID, day))
		}
	}
	return keys
}
