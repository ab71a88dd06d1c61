/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package engine

import "time"

// ShiftStart normalizes a requested start past non-working days. The
// time of day is preserved while the date advances. With the core-hours
// override the start is returned untouched; work on a weekend or holiday
// is then explicitly permitted.
//
// A weekend or holiday start is never an error, only a silent shift
// reported back to the caller.
func (c Config) ShiftStart(requested time.Time, overrides OverrideSet) (time.Time, ShiftReport) {
	report := ShiftReport{
		OriginalDate:  requested,
		EffectiveDate: requested,
	}

	if overrides.Has(OverrideCoreHours) {
		return requested, report
	}

	candidate := requested
	for c.IsNonWorkingDay(candidate) {
		if !report.Shifted {
			report.Shifted = true
			if IsWeekend(candidate) {
				report.Reason = ShiftReasonWeekend
			} else {
				report.Reason = ShiftReasonHoliday
			}
		}
		candidate = candidate.AddDate(0, 0, 1)
	}

	report.EffectiveDate = candidate
	return candidate, report
}
