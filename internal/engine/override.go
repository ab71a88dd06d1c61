/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package engine

// Override identifies one category of automatic validation that a request
// explicitly bypasses.
type Override string

const (
	// OverrideCoreHours permits work outside the core window and on
	// non-working days; slicing collapses to a single block.
	OverrideCoreHours Override = "core_hours"

	// OverrideDailyLimit bypasses both the daily hour cap and the
	// overlap check against other bookings.
	OverrideDailyLimit Override = "daily_limit"

	// OverrideAvailability bypasses installer out-of-office records.
	OverrideAvailability Override = "availability"
)

// OverrideSet is the tagged set of overrides active on a request.
type OverrideSet struct {
	CoreHours    bool `json:"core_hours"`
	DailyLimit   bool `json:"daily_limit"`
	Availability bool `json:"availability"`
}

// Has reports whether the given override is active.
func (o OverrideSet) Has(kind Override) bool {
	switch kind {
	case OverrideCoreHours:
		return o.CoreHours
	case OverrideDailyLimit:
		return o.DailyLimit
	case OverrideAvailability:
		return o.Availability
	default:
		return false
	}
}

// Any reports whether at least one override is active.
func (o OverrideSet) Any() bool {
	return o.CoreHours || o.DailyLimit || o.Availability
}

// Report lists the bypassed-rule tags for audit and messaging. The tags are
// fixed strings consumed by the audit trail; order is stable.
func (o OverrideSet) Report() []string {
	var tags []string
	if o.CoreHours {
		tags = append(tags, "core_hours")
	}
	if o.DailyLimit {
		tags = append(tags, "hours_or_overlap")
	}
	if o.Availability {
		tags = append(tags, "availability")
	}
	return tags
}
