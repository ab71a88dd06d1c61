/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package engine

import "time"

// IsWeekend reports whether the date falls on Saturday or Sunday.
func IsWeekend(t time.Time) bool {
	wd := t.Weekday()
	return wd == time.Saturday || wd == time.Sunday
}

// IsHoliday reports whether the date is in the snapshot's holiday set.
func (c Config) IsHoliday(t time.Time) bool {
	if len(c.Holidays) == 0 {
		return false
	}
	_, ok := c.Holidays[DateKey(t)]
	return ok
}

// IsNonWorkingDay reports whether no on-site work is normally booked on
// the date: weekends and configured holidays.
func (c Config) IsNonWorkingDay(t time.Time) bool {
	return IsWeekend(t) || c.IsHoliday(t)
}
