/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package engine

import (
	"math"
	"time"
)

const (
	// maxPlacementDays bounds day-by-day placement so generation
	// terminates under any snapshot.
	maxPlacementDays = 100

	// hoursEpsilon absorbs float drift when draining remaining hours.
	hoursEpsilon = 1e-9
)

// GenerateSlices converts an effective start and aggregate labor estimate
// into ordered per-day working-time blocks.
//
// With the core-hours override a single unclamped slice is emitted. The
// normal path walks forward one day at a time inside the travel-reserved
// core window, skipping non-working days, until the per-installer clock
// hours are fully placed.
func (c Config) GenerateSlices(req Request) ([]Slice, error) {
	perInstaller := req.PerInstallerHours()

	if req.Overrides.Has(OverrideCoreHours) {
		slices := []Slice{{
			ScheduleID: req.ScheduleID,
			Index:      0,
			StartsAt:   req.RequestedStart,
			Hours:      perInstaller,
		}}
		finalizeSlices(slices, req)
		return slices, nil
	}

	usable := float64(c.CoreEndHour-c.CoreStartHour) -
		float64(c.DriveOutMinutes)/60 -
		float64(c.DriveReturnMinutes)/60
	if usable <= 0 {
		return nil, configurationError(
			"core window %02d:00-%02d:00 leaves no workable time once %d+%d minutes of travel are reserved",
			c.CoreStartHour, c.CoreEndHour, c.DriveOutMinutes, c.DriveReturnMinutes)
	}

	cursor := req.RequestedStart
	if coreStart := c.dayCoreStart(cursor); cursor.Before(coreStart) {
		cursor = coreStart
	}

	remaining := perInstaller
	var slices []Slice
	firstDay := true

	for day := 0; day < maxPlacementDays && remaining > hoursEpsilon; day++ {
		workStart, workEndCap, workable := c.dayWindow(cursor, len(slices) == 0)
		if !workable {
			cursor = c.dayCoreStart(cursor).AddDate(0, 0, 1)
			firstDay = false
			continue
		}

		// Honor a later user-chosen start on the first placed day,
		// never extending past the cap.
		if firstDay && cursor.After(workStart) && cursor.Before(workEndCap) {
			workStart = cursor
		}
		firstDay = false

		window := workEndCap.Sub(workStart).Hours()
		hours := math.Min(remaining, window)
		slices = append(slices, Slice{
			ScheduleID: req.ScheduleID,
			Index:      len(slices),
			StartsAt:   workStart,
			Hours:      hours,
		})
		remaining -= hours

		cursor = c.dayCoreStart(cursor).AddDate(0, 0, 1)
	}

	if remaining > hoursEpsilon {
		return nil, configurationError(
			"unable to place %.2f remaining hours within %d days", remaining, maxPlacementDays)
	}

	finalizeSlices(slices, req)
	return slices, nil
}

// dayCoreStart returns the core-window opening instant on cursor's day.
func (c Config) dayCoreStart(cursor time.Time) time.Time {
	y, m, d := cursor.Date()
	return time.Date(y, m, d, c.CoreStartHour, 0, 0, 0, cursor.Location())
}

// dayWindow resolves the workable window on cursor's day. Non-working days
// yield no window unless spillover is enabled for a job already underway,
// in which case the entire day is open with no travel reservation.
func (c Config) dayWindow(cursor time.Time, notStarted bool) (start, end time.Time, ok bool) {
	y, m, d := cursor.Date()
	loc := cursor.Location()

	if c.IsNonWorkingDay(cursor) {
		if !c.WeekendSpillover || notStarted {
			return time.Time{}, time.Time{}, false
		}
		start = time.Date(y, m, d, 0, 0, 0, 0, loc)
		return start, start.AddDate(0, 0, 1), true
	}

	start = time.Date(y, m, d, c.CoreStartHour, 0, 0, 0, loc).
		Add(time.Duration(c.DriveOutMinutes) * time.Minute)
	end = time.Date(y, m, d, c.CoreEndHour, 0, 0, 0, loc).
		Add(-time.Duration(c.DriveReturnMinutes) * time.Minute)
	if !end.After(start) {
		return time.Time{}, time.Time{}, false
	}
	return start, end, true
}

// finalizeSlices derives the 1-based part numbering and the running
// man-hours countdown used for progress display.
func finalizeSlices(slices []Slice, req Request) {
	installers := len(req.InstallerIDs)
	if installers == 0 {
		installers = 1
	}

	var placed float64
	for i := range slices {
		placed += slices[i].Hours
		slices[i].PartIndex = i + 1
		slices[i].PartsTotal = len(slices)
		remaining := req.TotalManHours - placed*float64(installers)
		if remaining < 0 {
			remaining = 0
		}
		slices[i].RemainingManHours = remaining
	}
}
