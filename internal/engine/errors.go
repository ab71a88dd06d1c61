/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package engine

import (
	"errors"
	"fmt"
)

// ConflictKind classifies engine failures.
type ConflictKind string

const (
	// KindConfiguration marks failures that no retry with the same
	// inputs can fix; the core window structurally has no room.
	KindConfiguration ConflictKind = "configuration_error"

	// KindAvailability marks a collision with an installer's
	// out-of-office record. Recoverable via the availability override.
	KindAvailability ConflictKind = "availability_conflict"

	// KindDailyCap marks a breach of the per-day hour ceiling.
	// Recoverable via the daily-limit override.
	KindDailyCap ConflictKind = "daily_cap_exceeded"

	// KindOverlap marks a collision with another schedule's booking.
	// Recoverable via the daily-limit override.
	KindOverlap ConflictKind = "overlap_conflict"
)

// ConflictError is the single typed failure an engine invocation can yield.
type ConflictError struct {
	Kind        ConflictKind `json:"kind"`
	InstallerID string       `json:"installer_id,omitempty"`
	Day         string       `json:"day,omitempty"` // DateKey of the conflicting day
	Message     string       `json:"message"`
}

// Error implements the error interface.
func (e *ConflictError) Error() string {
	if e.InstallerID != "" && e.Day != "" {
		return fmt.Sprintf("%s: %s (installer %s, %s)", e.Kind, e.Message, e.InstallerID, e.Day)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Recoverable reports whether setting an override and retrying can succeed.
func (e *ConflictError) Recoverable() bool {
	return e.Kind != KindConfiguration
}

// AsConflict unwraps err into a ConflictError if it is one.
func AsConflict(err error) (*ConflictError, bool) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		return conflict, true
	}
	return nil, false
}

func configurationError(format string, args ...any) *ConflictError {
	return &ConflictError{Kind: KindConfiguration, Message: fmt.Sprintf(format, args...)}
}
