/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package engine

import (
	"testing"
	"time"
)

// 2026-08-28 is a Friday; 29/30 are the weekend.
var (
	friday   = time.Date(2026, 8, 28, 8, 0, 0, 0, time.UTC)
	saturday = time.Date(2026, 8, 29, 8, 0, 0, 0, time.UTC)
	monday   = time.Date(2026, 8, 31, 8, 0, 0, 0, time.UTC)
)

func TestShiftStartWeekend(t *testing.T) {
	cfg := Config{CoreStartHour: 8, CoreEndHour: 16}

	effective, report := cfg.ShiftStart(saturday, OverrideSet{})
	if !effective.Equal(monday) {
		t.Fatalf("effective start = %v, want %v", effective, monday)
	}
	if !report.Shifted {
		t.Fatal("expected shift to be reported")
	}
	if report.Reason != ShiftReasonWeekend {
		t.Fatalf("shift reason = %q, want %q", report.Reason, ShiftReasonWeekend)
	}
	if !report.OriginalDate.Equal(saturday) || !report.EffectiveDate.Equal(monday) {
		t.Fatalf("report dates = %v -> %v", report.OriginalDate, report.EffectiveDate)
	}
}

func TestShiftStartPreservesTimeOfDay(t *testing.T) {
	cfg := Config{CoreStartHour: 8, CoreEndHour: 16}
	requested := time.Date(2026, 8, 29, 13, 30, 0, 0, time.UTC)

	effective, _ := cfg.ShiftStart(requested, OverrideSet{})
	if effective.Hour() != 13 || effective.Minute() != 30 {
		t.Fatalf("time of day not preserved: %v", effective)
	}
	if effective.Weekday() != time.Monday {
		t.Fatalf("expected Monday, got %v", effective.Weekday())
	}
}

func TestShiftStartHoliday(t *testing.T) {
	cfg := Config{
		CoreStartHour: 8,
		CoreEndHour:   16,
		Holidays:      map[string]struct{}{"2026-08-28": {}},
	}

	effective, report := cfg.ShiftStart(friday, OverrideSet{})
	if report.Reason != ShiftReasonHoliday {
		t.Fatalf("shift reason = %q, want %q", report.Reason, ShiftReasonHoliday)
	}
	// Friday holiday rolls through the weekend to Monday.
	if !effective.Equal(monday) {
		t.Fatalf("effective start = %v, want %v", effective, monday)
	}
}

func TestShiftStartWorkingDayUnchanged(t *testing.T) {
	cfg := Config{CoreStartHour: 8, CoreEndHour: 16}

	effective, report := cfg.ShiftStart(friday, OverrideSet{})
	if !effective.Equal(friday) {
		t.Fatalf("effective start = %v, want %v", effective, friday)
	}
	if report.Shifted {
		t.Fatal("no shift expected on a working day")
	}
}

func TestShiftStartCoreHoursOverrideSkipsNormalization(t *testing.T) {
	cfg := Config{CoreStartHour: 8, CoreEndHour: 16}

	effective, report := cfg.ShiftStart(saturday, OverrideSet{CoreHours: true})
	if !effective.Equal(saturday) {
		t.Fatalf("override should keep the requested start, got %v", effective)
	}
	if report.Shifted {
		t.Fatal("override must not report a shift")
	}
}

func TestIsNonWorkingDay(t *testing.T) {
	cfg := Config{Holidays: map[string]struct{}{"2026-12-25": {}}}

	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"weekday", friday, false},
		{"saturday", saturday, true},
		{"sunday", time.Date(2026, 8, 30, 0, 0, 0, 0, time.UTC), true},
		{"holiday", time.Date(2026, 12, 25, 9, 0, 0, 0, time.UTC), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := cfg.IsNonWorkingDay(tt.date); got != tt.want {
				t.Fatalf("IsNonWorkingDay(%v) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}
