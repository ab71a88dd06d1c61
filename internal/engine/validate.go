/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package engine

import (
	"fmt"
	"math"
	"time"
)

// capTolerance keeps a day booked to exactly the cap passing while
// anything beyond it fails.
const capTolerance = 1e-4

// ValidateSlices checks generated slices against existing bookings, per
// slice and per assigned installer: availability exceptions, the daily
// hour cap, and overlap with other schedules. Checks short-circuit on the
// first failure; the caller retries after adjusting inputs or setting the
// corresponding override.
func (c Config) ValidateSlices(req Request, slices []Slice, existing Assignments) error {
	if len(req.InstallerIDs) == 0 {
		return configurationError("at least one installer must be assigned")
	}

	for _, slice := range slices {
		for _, installerID := range req.InstallerIDs {
			if err := c.validateSliceFor(req, slice, installerID, existing[installerID]); err != nil {
				return err
			}
		}
	}
	return nil
}

func (c Config) validateSliceFor(req Request, slice Slice, installerID string, booked []ExistingSlice) error {
	day := DateKey(slice.StartsAt)

	if !req.Overrides.Has(OverrideAvailability) {
		if err := c.checkAvailability(slice, installerID, day); err != nil {
			return err
		}
	}

	if req.Overrides.Has(OverrideDailyLimit) {
		return nil
	}

	if err := c.checkDailyCap(req, slice, installerID, day, booked); err != nil {
		return err
	}
	return checkOverlap(req, slice, installerID, day, booked)
}

// checkAvailability fails when the installer is out all day or any
// blocked clock hour intersects the slice's span on its first day.
func (c Config) checkAvailability(slice Slice, installerID, day string) error {
	record, ok := c.Availability[day][installerID]
	if !ok {
		return nil
	}

	if record.OutAllDay {
		return &ConflictError{
			Kind:        KindAvailability,
			InstallerID: installerID,
			Day:         day,
			Message:     "installer is out all day",
		}
	}

	if len(record.OutHours) == 0 {
		return nil
	}

	startHour := slice.StartsAt.Hour()
	endHour := spanEndHour(slice)
	for _, out := range record.OutHours {
		if out >= startHour && out < endHour {
			return &ConflictError{
				Kind:        KindAvailability,
				InstallerID: installerID,
				Day:         day,
				Message:     fmt.Sprintf("installer is out during hour %02d:00", out),
			}
		}
	}
	return nil
}

// spanEndHour returns the exclusive integer hour where the slice stops
// touching its first calendar day. An end landing exactly on an hour
// boundary leaves that hour untouched.
func spanEndHour(slice Slice) int {
	offset := float64(slice.StartsAt.Minute()*60+slice.StartsAt.Second()) / 3600
	end := slice.StartsAt.Hour() + int(math.Ceil(offset+slice.Hours))
	if end > 24 {
		end = 24
	}
	return end
}

// checkDailyCap sums the installer's hours already booked on the slice's
// day, excluding the schedule being edited, plus this slice.
func (c Config) checkDailyCap(req Request, slice Slice, installerID, day string, booked []ExistingSlice) error {
	total := slice.Hours
	for _, other := range booked {
		if other.ScheduleID == req.ScheduleID {
			continue
		}
		if DateKey(other.StartsAt) != day {
			continue
		}
		total += other.Hours
	}

	limit := c.dailyCap()
	if total > limit+capTolerance {
		return &ConflictError{
			Kind:        KindDailyCap,
			InstallerID: installerID,
			Day:         day,
			Message:     fmt.Sprintf("%.2f booked hours exceed the %.1f hour daily limit", total, limit),
		}
	}
	return nil
}

// checkOverlap fails when the slice collides with any other schedule's
// booking for the installer on the same day.
func checkOverlap(req Request, slice Slice, installerID, day string, booked []ExistingSlice) error {
	newStart := slice.StartsAt
	newEnd := slice.EndsAt()

	for _, other := range booked {
		if other.ScheduleID == req.ScheduleID {
			continue
		}
		if DateKey(other.StartsAt) != day {
			continue
		}
		if other.StartsAt.Before(newEnd) && newStart.Before(other.EndsAt()) {
			return &ConflictError{
				Kind:        KindOverlap,
				InstallerID: installerID,
				Day:         day,
				Message: fmt.Sprintf("conflicts with an existing booking from %s to %s",
					other.StartsAt.Format(time.RFC3339), other.EndsAt().Format(time.RFC3339)),
			}
		}
	}
	return nil
}
