/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package engine turns a job's requested start and aggregate labor
// estimate into per-day working-time slices, enforcing business-hours
// boundaries, weekend and holiday policy, travel-time reservations, the
// daily hour cap, and installer availability exceptions.
//
// The engine is a synchronous computation over plain-data snapshots. It
// performs no I/O and holds no state between invocations; callers own
// persistence and must treat validate-plus-persist as one atomic unit.
package engine

import "github.com/rs/zerolog"

// Engine runs the shift, generate, validate pipeline.
type Engine struct {
	logger zerolog.Logger
}

// New constructs an engine.
func New(logger zerolog.Logger) *Engine {
	return &Engine{logger: logger.With().Str("component", "engine").Logger()}
}

// Plan executes one full scheduling pass: start normalization, slice
// generation, and conflict validation against existing assignments.
// It yields either a complete Result or exactly one typed failure.
func (e *Engine) Plan(cfg Config, req Request, existing Assignments) (*Result, error) {
	effective, shift := cfg.ShiftStart(req.RequestedStart, req.Overrides)

	placed := req
	placed.RequestedStart = effective

	slices, err := cfg.GenerateSlices(placed)
	if err != nil {
		return nil, err
	}

	if err := cfg.ValidateSlices(placed, slices, existing); err != nil {
		return nil, err
	}

	if shift.Shifted {
		e.logger.Debug().
			Str("schedule", req.ScheduleID).
			Str("reason", string(shift.Reason)).
			Time("from", shift.OriginalDate).
			Time("to", shift.EffectiveDate).
			Msg("start shifted past non-working days")
	}

	return &Result{
		Slices:    slices,
		Shift:     shift,
		Overrides: req.Overrides.Report(),
	}, nil
}
