/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package scheduling

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fieldworks/crewcal/internal/db"
	"github.com/fieldworks/crewcal/internal/engine"
	"github.com/fieldworks/crewcal/internal/events"
	"github.com/fieldworks/crewcal/internal/locking"
	"github.com/fieldworks/crewcal/internal/models"
)

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	database, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if err := db.Migrate(database); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return database
}

func testService(t *testing.T) (*Service, *gorm.DB, *events.Bus) {
	t.Helper()
	database := testDB(t)
	bus := events.NewBus()
	defaults := engine.Config{
		CoreStartHour:      8,
		CoreEndHour:        16,
		DriveOutMinutes:    0,
		DriveReturnMinutes: 0,
	}
	svc := NewService(database, engine.New(zerolog.Nop()), defaults, locking.NewMemoryLocker(), bus, zerolog.Nop())
	return svc, database, bus
}

func seedInstaller(t *testing.T, database *gorm.DB, name string) string {
	t.Helper()
	installer := models.Installer{
		ID:     uuid.NewString(),
		Name:   name,
		Email:  name + "@crew.test",
		Active: true,
	}
	if err := database.Create(&installer).Error; err != nil {
		t.Fatalf("seed installer: %v", err)
	}
	return installer.ID
}

func seedJob(t *testing.T, database *gorm.DB, start time.Time, manHours float64) *models.Job {
	t.Helper()
	job := models.Job{
		ID:             uuid.NewString(),
		Customer:       "Acme Kitchens",
		RequestedStart: start,
		TotalManHours:  manHours,
		Status:         models.JobStatusDraft,
	}
	if err := database.Create(&job).Error; err != nil {
		t.Fatalf("seed job: %v", err)
	}
	return &job
}

// friday 2026-08-28 is a plain working day.
var svcFriday = time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)

func TestSchedulePersistsSliceSet(t *testing.T) {
	svc, database, _ := testService(t)
	installerID := seedInstaller(t, database, "ada")
	job := seedJob(t, database, svcFriday, 20)

	result, err := svc.Schedule(context.Background(), Request{Job: job, InstallerIDs: []string{installerID}})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if len(result.Slices) != 3 {
		t.Fatalf("Schedule() produced %d slices, want 3", len(result.Slices))
	}

	var rows []models.Slice
	if err := database.Where("job_id = ?", job.ID).Order("slice_index").Find(&rows).Error; err != nil {
		t.Fatalf("load slices: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("persisted %d slices, want 3", len(rows))
	}
	for i, row := range rows {
		if row.PartIndex != i+1 || row.PartsTotal != 3 {
			t.Errorf("slice %d part numbering = %d/%d, want %d/3", i, row.PartIndex, row.PartsTotal, i+1)
		}
	}

	var stored models.Job
	if err := database.First(&stored, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if stored.Status != models.JobStatusScheduled {
		t.Errorf("job status = %q, want %q", stored.Status, models.JobStatusScheduled)
	}

	var count int64
	if err := database.Model(&models.JobAssignment{}).Where("job_id = ?", job.ID).Count(&count).Error; err != nil {
		t.Fatalf("count assignments: %v", err)
	}
	if count != 1 {
		t.Errorf("persisted %d assignments, want 1", count)
	}
}

func TestRescheduleDiscardsOldSlices(t *testing.T) {
	svc, database, _ := testService(t)
	installerID := seedInstaller(t, database, "ada")
	job := seedJob(t, database, svcFriday, 20)

	if _, err := svc.Schedule(context.Background(), Request{Job: job, InstallerIDs: []string{installerID}}); err != nil {
		t.Fatalf("first Schedule() error = %v", err)
	}

	job.TotalManHours = 6
	if err := database.Save(job).Error; err != nil {
		t.Fatalf("update job: %v", err)
	}
	result, err := svc.Schedule(context.Background(), Request{Job: job, InstallerIDs: []string{installerID}})
	if err != nil {
		t.Fatalf("second Schedule() error = %v", err)
	}
	if len(result.Slices) != 1 {
		t.Fatalf("reschedule produced %d slices, want 1", len(result.Slices))
	}

	var count int64
	if err := database.Model(&models.Slice{}).Where("job_id = ?", job.ID).Count(&count).Error; err != nil {
		t.Fatalf("count slices: %v", err)
	}
	if count != 1 {
		t.Errorf("%d slices remain after reschedule, want 1", count)
	}
}

func TestScheduleShiftsWeekendStart(t *testing.T) {
	svc, database, _ := testService(t)
	installerID := seedInstaller(t, database, "ada")
	saturday := time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	job := seedJob(t, database, saturday, 4)

	result, err := svc.Schedule(context.Background(), Request{Job: job, InstallerIDs: []string{installerID}})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if !result.Shift.Shifted || result.Shift.Reason != engine.ShiftReasonWeekend {
		t.Fatalf("shift report = %+v, want weekend shift", result.Shift)
	}

	var stored models.Job
	if err := database.First(&stored, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if !stored.Shifted || stored.ShiftReason != "weekend" {
		t.Errorf("persisted shift = %v/%q, want true/weekend", stored.Shifted, stored.ShiftReason)
	}
	monday := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	if !stored.EffectiveStart.Truncate(24 * time.Hour).Equal(monday) {
		t.Errorf("effective start = %v, want Monday %v", stored.EffectiveStart, monday)
	}
}

func TestScheduleUsesHolidayTable(t *testing.T) {
	svc, database, _ := testService(t)
	installerID := seedInstaller(t, database, "ada")
	if err := database.Create(&models.Holiday{
		ID:   uuid.NewString(),
		Date: time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		Name: "Company day",
	}).Error; err != nil {
		t.Fatalf("seed holiday: %v", err)
	}
	job := seedJob(t, database, svcFriday, 4)

	result, err := svc.Schedule(context.Background(), Request{Job: job, InstallerIDs: []string{installerID}})
	if err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}
	if result.Shift.Reason != engine.ShiftReasonHoliday {
		t.Fatalf("shift reason = %q, want holiday", result.Shift.Reason)
	}
}

func TestScheduleRejectsDailyCapConflict(t *testing.T) {
	svc, database, _ := testService(t)
	installerID := seedInstaller(t, database, "ada")

	first := seedJob(t, database, svcFriday, 8)
	if _, err := svc.Schedule(context.Background(), Request{Job: first, InstallerIDs: []string{installerID}}); err != nil {
		t.Fatalf("seed Schedule() error = %v", err)
	}

	second := seedJob(t, database, svcFriday, 4)
	_, err := svc.Schedule(context.Background(), Request{Job: second, InstallerIDs: []string{installerID}})
	conflict, ok := engine.AsConflict(err)
	if !ok {
		t.Fatalf("Schedule() error = %v, want conflict", err)
	}
	if conflict.Kind != engine.KindDailyCap {
		t.Errorf("conflict kind = %q, want %q", conflict.Kind, engine.KindDailyCap)
	}

	// A rejected pass must leave no slice rows behind.
	var count int64
	if err := database.Model(&models.Slice{}).Where("job_id = ?", second.ID).Count(&count).Error; err != nil {
		t.Fatalf("count slices: %v", err)
	}
	if count != 0 {
		t.Errorf("%d slices persisted for rejected job, want 0", count)
	}
}

func TestScheduleHonorsAvailabilityException(t *testing.T) {
	svc, database, _ := testService(t)
	installerID := seedInstaller(t, database, "ada")
	if err := database.Create(&models.AvailabilityException{
		ID:          uuid.NewString(),
		InstallerID: installerID,
		Date:        time.Date(2026, 8, 28, 0, 0, 0, 0, time.UTC),
		OutAllDay:   true,
	}).Error; err != nil {
		t.Fatalf("seed exception: %v", err)
	}
	job := seedJob(t, database, svcFriday, 4)

	_, err := svc.Schedule(context.Background(), Request{Job: job, InstallerIDs: []string{installerID}})
	conflict, ok := engine.AsConflict(err)
	if !ok || conflict.Kind != engine.KindAvailability {
		t.Fatalf("Schedule() error = %v, want availability conflict", err)
	}

	// Same pass with the override requested goes through.
	job.OverrideAvailability = true
	result, err := svc.Schedule(context.Background(), Request{Job: job, InstallerIDs: []string{installerID}})
	if err != nil {
		t.Fatalf("override Schedule() error = %v", err)
	}
	if len(result.Overrides) != 1 || result.Overrides[0] != "availability" {
		t.Errorf("override report = %v, want [availability]", result.Overrides)
	}
}

func TestPreviewPersistsNothing(t *testing.T) {
	svc, database, _ := testService(t)
	installerID := seedInstaller(t, database, "ada")
	job := seedJob(t, database, svcFriday, 12)

	result, err := svc.Preview(context.Background(), Request{Job: job, InstallerIDs: []string{installerID}})
	if err != nil {
		t.Fatalf("Preview() error = %v", err)
	}
	if len(result.Slices) != 2 {
		t.Fatalf("Preview() produced %d slices, want 2", len(result.Slices))
	}

	var count int64
	if err := database.Model(&models.Slice{}).Count(&count).Error; err != nil {
		t.Fatalf("count slices: %v", err)
	}
	if count != 0 {
		t.Errorf("Preview() persisted %d slices, want 0", count)
	}
	var stored models.Job
	if err := database.First(&stored, "id = ?", job.ID).Error; err != nil {
		t.Fatalf("reload job: %v", err)
	}
	if stored.Status != models.JobStatusDraft {
		t.Errorf("Preview() changed job status to %q", stored.Status)
	}
}

func TestUnscheduleRemovesSlicesAndEmitsEvent(t *testing.T) {
	svc, database, bus := testService(t)
	installerID := seedInstaller(t, database, "ada")
	job := seedJob(t, database, svcFriday, 8)

	if _, err := svc.Schedule(context.Background(), Request{Job: job, InstallerIDs: []string{installerID}}); err != nil {
		t.Fatalf("Schedule() error = %v", err)
	}

	sub := bus.Subscribe(events.EventJobCancelled)
	defer bus.Unsubscribe(events.EventJobCancelled, sub)

	if err := svc.Unschedule(context.Background(), job, "tester"); err != nil {
		t.Fatalf("Unschedule() error = %v", err)
	}

	var count int64
	if err := database.Model(&models.Slice{}).Where("job_id = ?", job.ID).Count(&count).Error; err != nil {
		t.Fatalf("count slices: %v", err)
	}
	if count != 0 {
		t.Errorf("%d slices remain after cancel, want 0", count)
	}

	select {
	case payload := <-sub:
		if payload["job_id"] != job.ID {
			t.Errorf("cancel event for job %v, want %v", payload["job_id"], job.ID)
		}
	case <-time.After(time.Second):
		t.Fatal("no cancel event received")
	}
}
