/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package engine

import "time"

// DateKeyFormat is the canonical calendar-day key used across snapshots.
const DateKeyFormat = "2006-01-02"

// DateKey reduces a timestamp to its calendar-day key.
func DateKey(t time.Time) string {
	return t.Format(DateKeyFormat)
}

// DayAvailability describes one installer's exception record for one day.
type DayAvailability struct {
	OutAllDay bool  `json:"out_all_day"`
	OutHours  []int `json:"out_hours,omitempty"` // clock hours 0-23 the installer is out
}

// Config is the scheduling snapshot passed into every engine call.
// It is plain data; the engine never reads configuration from ambient state.
type Config struct {
	CoreStartHour      int `json:"core_start_hour"` // 0-23
	CoreEndHour        int `json:"core_end_hour"`   // 0-23, must exceed CoreStartHour
	DriveOutMinutes    int `json:"drive_out_minutes"`
	DriveReturnMinutes int `json:"drive_return_minutes"`

	// DailyCapHours is the per-installer booked-hours ceiling per calendar day.
	DailyCapHours float64 `json:"daily_cap_hours"`

	// WeekendSpillover lets a job that is already underway continue on
	// non-working days using the full day as its window. When false those
	// days are skipped entirely.
	WeekendSpillover bool `json:"weekend_spillover"`

	// Holidays is keyed by DateKey.
	Holidays map[string]struct{} `json:"-"`

	// Availability maps DateKey -> installer ID -> exception record.
	Availability map[string]map[string]DayAvailability `json:"-"`
}

// DefaultDailyCapHours applies when the snapshot leaves the cap unset.
const DefaultDailyCapHours = 8.0

// dailyCap returns the effective per-day ceiling.
func (c Config) dailyCap() float64 {
	if c.DailyCapHours > 0 {
		return c.DailyCapHours
	}
	return DefaultDailyCapHours
}

// Request is one transient scheduling request. Whenever the start, labor
// total, installer set, or overrides change, callers discard the persisted
// slices and regenerate; the engine never patches a slice set incrementally.
type Request struct {
	ScheduleID     string      `json:"schedule_id"`
	RequestedStart time.Time   `json:"requested_start"`
	TotalManHours  float64     `json:"total_man_hours"` // work content summed across installers
	InstallerIDs   []string    `json:"installer_ids"`
	Overrides      OverrideSet `json:"overrides"`
}

// PerInstallerHours converts aggregate man-hours into the elapsed clock
// hours each assigned installer spends on site.
func (r Request) PerInstallerHours() float64 {
	if len(r.InstallerIDs) == 0 {
		return r.TotalManHours
	}
	return r.TotalManHours / float64(len(r.InstallerIDs))
}

// Slice is one contiguous single-day block of working time. The same slice
// applies to every installer assigned to the schedule.
type Slice struct {
	ScheduleID string    `json:"schedule_id"`
	Index      int       `json:"index"` // ordering within the schedule, 0-based
	StartsAt   time.Time `json:"starts_at"`
	Hours      float64   `json:"hours"` // elapsed clock hours

	// Display fields derived after placement.
	PartIndex         int     `json:"part_index"`  // 1-based
	PartsTotal        int     `json:"parts_total"`
	RemainingManHours float64 `json:"remaining_man_hours"` // man-hours still unplaced after this slice
}

// EndsAt returns the slice end timestamp.
func (s Slice) EndsAt() time.Time {
	return s.StartsAt.Add(time.Duration(s.Hours * float64(time.Hour)))
}

// ExistingSlice is a read-only booked block belonging to some schedule,
// used only for conflict checks.
type ExistingSlice struct {
	ScheduleID string    `json:"schedule_id"`
	StartsAt   time.Time `json:"starts_at"`
	Hours      float64   `json:"hours"`
}

// EndsAt returns the booked block end timestamp.
func (s ExistingSlice) EndsAt() time.Time {
	return s.StartsAt.Add(time.Duration(s.Hours * float64(time.Hour)))
}

// Assignments maps installer ID to that installer's booked slices across
// all other schedules.
type Assignments map[string][]ExistingSlice

// ShiftReason explains why a requested start moved.
type ShiftReason string

const (
	ShiftReasonWeekend ShiftReason = "weekend"
	ShiftReasonHoliday ShiftReason = "holiday"
)

// ShiftReport records the start normalization for caller reporting.
type ShiftReport struct {
	Shifted       bool        `json:"shifted"`
	Reason        ShiftReason `json:"reason,omitempty"`
	OriginalDate  time.Time   `json:"original_date"`
	EffectiveDate time.Time   `json:"effective_date"`
}

// Result is the complete outcome of one engine invocation. An invocation
// either yields a Result or exactly one typed failure, never both.
type Result struct {
	Slices    []Slice     `json:"slices"`
	Shift     ShiftReport `json:"shift"`
	Overrides []string    `json:"overrides,omitempty"`
}
