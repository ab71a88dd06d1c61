/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package engine

import (
	"testing"
	"time"
)

func sliceAt(scheduleID string, start time.Time, hours float64) Slice {
	return Slice{ScheduleID: scheduleID, StartsAt: start, Hours: hours}
}

func TestValidateSlicesAvailabilityOutHours(t *testing.T) {
	cfg := baseConfig()
	cfg.Availability = map[string]map[string]DayAvailability{
		"2026-08-28": {"inst-a": {OutHours: []int{8, 9}}},
	}

	req := Request{ScheduleID: "job-1", InstallerIDs: []string{"inst-a"}}
	slices := []Slice{sliceAt("job-1", friday, 4)} // spans hours 8-12

	err := cfg.ValidateSlices(req, slices, nil)
	conflict, ok := AsConflict(err)
	if !ok || conflict.Kind != KindAvailability {
		t.Fatalf("expected availability conflict, got %v", err)
	}
	if conflict.InstallerID != "inst-a" || conflict.Day != "2026-08-28" {
		t.Fatalf("conflict context wrong: %+v", conflict)
	}

	req.Overrides = OverrideSet{Availability: true}
	if err := cfg.ValidateSlices(req, slices, nil); err != nil {
		t.Fatalf("availability override should pass, got %v", err)
	}
}

func TestValidateSlicesFractionalStartHourSpan(t *testing.T) {
	cfg := baseConfig()
	cfg.Availability = map[string]map[string]DayAvailability{
		"2026-08-28": {"inst-a": {OutHours: []int{12}}},
	}

	req := Request{ScheduleID: "job-1", InstallerIDs: []string{"inst-a"}}

	// 08:30 + 3.5h ends exactly at 12:00, so hour 12 is never touched.
	start := time.Date(2026, 8, 28, 8, 30, 0, 0, time.UTC)
	slices := []Slice{sliceAt("job-1", start, 3.5)}
	if err := cfg.ValidateSlices(req, slices, nil); err != nil {
		t.Fatalf("slice ending on the out-hour boundary should pass, got %v", err)
	}

	// A half hour more spills into hour 12 and must conflict.
	slices = []Slice{sliceAt("job-1", start, 4)}
	conflict, ok := AsConflict(cfg.ValidateSlices(req, slices, nil))
	if !ok || conflict.Kind != KindAvailability {
		t.Fatalf("expected availability conflict, got %v", conflict)
	}
}

func TestValidateSlicesAvailabilityDisjointHoursPass(t *testing.T) {
	cfg := baseConfig()
	cfg.Availability = map[string]map[string]DayAvailability{
		"2026-08-28": {"inst-a": {OutHours: []int{14, 15}}},
	}

	req := Request{ScheduleID: "job-1", InstallerIDs: []string{"inst-a"}}
	slices := []Slice{sliceAt("job-1", friday, 4)} // spans hours 8-12

	if err := cfg.ValidateSlices(req, slices, nil); err != nil {
		t.Fatalf("disjoint out-hours should pass, got %v", err)
	}
}

func TestValidateSlicesAvailabilityOutAllDay(t *testing.T) {
	cfg := baseConfig()
	cfg.Availability = map[string]map[string]DayAvailability{
		"2026-08-28": {"inst-a": {OutAllDay: true}},
	}

	req := Request{ScheduleID: "job-1", InstallerIDs: []string{"inst-a", "inst-b"}}
	slices := []Slice{sliceAt("job-1", friday, 2)}

	err := cfg.ValidateSlices(req, slices, nil)
	conflict, ok := AsConflict(err)
	if !ok || conflict.Kind != KindAvailability {
		t.Fatalf("expected availability conflict, got %v", err)
	}
}

func TestValidateSlicesDailyCapBoundary(t *testing.T) {
	cfg := baseConfig()
	req := Request{ScheduleID: "job-2", InstallerIDs: []string{"inst-a"}}

	// 13:00 booking leaves no overlap with an 08:00-12:00 slice.
	afternoon := time.Date(2026, 8, 28, 13, 0, 0, 0, time.UTC)

	tests := []struct {
		name        string
		bookedHours float64
		wantFail    bool
	}{
		{"exactly at cap", 4.0, false},
		{"just over cap", 4.001, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			existing := Assignments{
				"inst-a": {{ScheduleID: "job-1", StartsAt: afternoon, Hours: tt.bookedHours}},
			}
			slices := []Slice{sliceAt("job-2", friday, 4)}

			err := cfg.ValidateSlices(req, slices, existing)
			if tt.wantFail {
				conflict, ok := AsConflict(err)
				if !ok || conflict.Kind != KindDailyCap {
					t.Fatalf("expected daily cap conflict, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("expected pass at cap boundary, got %v", err)
			}
		})
	}
}

func TestValidateSlicesDailyCapExcludesEditedSchedule(t *testing.T) {
	cfg := baseConfig()
	req := Request{ScheduleID: "job-1", InstallerIDs: []string{"inst-a"}}

	// The job's own persisted slices must not count against its rebooking.
	existing := Assignments{
		"inst-a": {{ScheduleID: "job-1", StartsAt: friday, Hours: 8}},
	}
	slices := []Slice{sliceAt("job-1", friday, 8)}

	if err := cfg.ValidateSlices(req, slices, existing); err != nil {
		t.Fatalf("own slices should be excluded, got %v", err)
	}
}

func TestValidateSlicesOverlap(t *testing.T) {
	cfg := baseConfig()
	req := Request{ScheduleID: "job-2", InstallerIDs: []string{"inst-a"}}

	existing := Assignments{
		"inst-a": {{ScheduleID: "job-1", StartsAt: time.Date(2026, 8, 28, 10, 0, 0, 0, time.UTC), Hours: 4}},
	}
	slices := []Slice{sliceAt("job-2", friday, 4)} // 08:00-12:00 vs 10:00-14:00

	err := cfg.ValidateSlices(req, slices, existing)
	conflict, ok := AsConflict(err)
	if !ok || conflict.Kind != KindOverlap {
		t.Fatalf("expected overlap conflict, got %v", err)
	}

	req.Overrides = OverrideSet{DailyLimit: true}
	if err := cfg.ValidateSlices(req, slices, existing); err != nil {
		t.Fatalf("daily-limit override should bypass overlap, got %v", err)
	}
}

func TestValidateSlicesAdjacentBookingsPass(t *testing.T) {
	cfg := baseConfig()
	req := Request{ScheduleID: "job-2", InstallerIDs: []string{"inst-a"}}

	existing := Assignments{
		"inst-a": {{ScheduleID: "job-1", StartsAt: time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC), Hours: 4}},
	}
	slices := []Slice{sliceAt("job-2", friday, 4)} // ends exactly when the other begins

	if err := cfg.ValidateSlices(req, slices, existing); err != nil {
		t.Fatalf("touching bookings must not conflict, got %v", err)
	}
}

func TestValidateSlicesRequiresInstallers(t *testing.T) {
	cfg := baseConfig()
	req := Request{ScheduleID: "job-1"}

	err := cfg.ValidateSlices(req, []Slice{sliceAt("job-1", friday, 1)}, nil)
	conflict, ok := AsConflict(err)
	if !ok || conflict.Kind != KindConfiguration {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestOverrideSetReport(t *testing.T) {
	tests := []struct {
		name string
		set  OverrideSet
		want []string
	}{
		{"none", OverrideSet{}, nil},
		{"core hours", OverrideSet{CoreHours: true}, []string{"core_hours"}},
		{"daily limit", OverrideSet{DailyLimit: true}, []string{"hours_or_overlap"}},
		{"all", OverrideSet{CoreHours: true, DailyLimit: true, Availability: true},
			[]string{"core_hours", "hours_or_overlap", "availability"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.set.Report()
			if len(got) != len(tt.want) {
				t.Fatalf("Report() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Fatalf("Report() = %v, want %v", got, tt.want)
				}
			}
		})
	}
}
