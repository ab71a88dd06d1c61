/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/fieldworks/crewcal/internal/events"
	"github.com/fieldworks/crewcal/internal/models"
)

// Service handles audit logging by subscribing to events and storing audit entries.
type Service struct {
	db     *gorm.DB
	bus    *events.Bus
	logger zerolog.Logger
}

// NewService creates a new audit service.
func NewService(db *gorm.DB, bus *events.Bus, logger zerolog.Logger) *Service {
	return &Service{
		db:     db,
		bus:    bus,
		logger: logger.With().Str("component", "audit").Logger(),
	}
}

// Start subscribes to relevant events and logs them as audit entries.
func (s *Service) Start(ctx context.Context) {
	s.logger.Info().Msg("audit service starting")

	jobScheduled := s.bus.Subscribe(events.EventJobScheduled)
	jobRescheduled := s.bus.Subscribe(events.EventJobRescheduled)
	jobCancelled := s.bus.Subscribe(events.EventJobCancelled)
	overrideUsed := s.bus.Subscribe(events.EventOverrideUsed)

	holidayCreated := s.bus.Subscribe(events.EventHolidayCreated)
	holidayDeleted := s.bus.Subscribe(events.EventHolidayDeleted)
	holidayImported := s.bus.Subscribe(events.EventHolidayImported)

	availabilityBlocked := s.bus.Subscribe(events.EventAvailabilityBlocked)

	defer func() {
		s.bus.Unsubscribe(events.EventJobScheduled, jobScheduled)
		s.bus.Unsubscribe(events.EventJobRescheduled, jobRescheduled)
		s.bus.Unsubscribe(events.EventJobCancelled, jobCancelled)
		s.bus.Unsubscribe(events.EventOverrideUsed, overrideUsed)
		s.bus.Unsubscribe(events.EventHolidayCreated, holidayCreated)
		s.bus.Unsubscribe(events.EventHolidayDeleted, holidayDeleted)
		s.bus.Unsubscribe(events.EventHolidayImported, holidayImported)
		s.bus.Unsubscribe(events.EventAvailabilityBlocked, availabilityBlocked)
	}()

	s.logger.Info().Msg("audit service started")

	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("audit service stopping")
			return

		case payload := <-jobScheduled:
			s.logAuditEntry(ctx, models.AuditActionJobSchedule, payload)

		case payload := <-jobRescheduled:
			s.logAuditEntry(ctx, models.AuditActionJobReschedule, payload)

		case payload := <-jobCancelled:
			s.logAuditEntry(ctx, models.AuditActionJobCancel, payload)

		case payload := <-overrideUsed:
			s.logAuditEntry(ctx, models.AuditActionOverrideUsed, payload)

		case payload := <-holidayCreated:
			s.logAuditEntry(ctx, models.AuditActionHolidayCreate, payload)

		case payload := <-holidayDeleted:
			s.logAuditEntry(ctx, models.AuditActionHolidayDelete, payload)

		case payload := <-holidayImported:
			s.logAuditEntry(ctx, models.AuditActionHolidayImport, payload)

		case payload := <-availabilityBlocked:
			s.logAuditEntry(ctx, models.AuditActionInstallerBlock, payload)
		}
	}
}

// logAuditEntry creates an audit log entry from an event payload.
func (s *Service) logAuditEntry(ctx context.Context, action models.AuditAction, payload events.Payload) {
	entry := &models.AuditLog{
		ID:        uuid.NewString(),
		Timestamp: time.Now(),
		Action:    action,
		Details:   make(map[string]any),
		CreatedAt: time.Now(),
	}

	if actorID, ok := payload["actor_id"].(string); ok && actorID != "" {
		entry.UserID = &actorID
	}
	if actorEmail, ok := payload["actor_email"].(string); ok {
		entry.UserEmail = actorEmail
	}

	switch {
	case payload["job_id"] != nil:
		entry.ResourceType = "job"
		entry.ResourceID, _ = payload["job_id"].(string)
	case payload["holiday_id"] != nil:
		entry.ResourceType = "holiday"
		entry.ResourceID, _ = payload["holiday_id"].(string)
	case payload["installer_id"] != nil:
		entry.ResourceType = "installer"
		entry.ResourceID, _ = payload["installer_id"].(string)
	}

	if ipAddress, ok := payload["ip_address"].(string); ok {
		entry.IPAddress = ipAddress
	}

	for k, v := range payload {
		switch k {
		case "actor_id", "actor_email", "ip_address":
			// Already extracted
		default:
			entry.Details[k] = v
		}
	}

	if err := s.Log(ctx, entry); err != nil {
		s.logger.Error().Err(err).
			Str("action", string(action)).
			Msg("failed to log audit entry")
	}
}

// Log records an audit entry directly (for non-event-bus actions).
func (s *Service) Log(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now()
	}
	if entry.Details == nil {
		entry.Details = make(map[string]any)
	}

	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return err
	}

	s.logger.Debug().
		Str("action", string(entry.Action)).
		Str("id", entry.ID).
		Msg("audit entry logged")

	return nil
}

// QueryFilters defines filters for querying audit logs.
type QueryFilters struct {
	UserID     *string
	ResourceID *string
	Action     *models.AuditAction
	StartTime  *time.Time
	EndTime    *time.Time
	Limit      int
	Offset     int
}

// Query retrieves audit logs with filters, most recent first.
func (s *Service) Query(ctx context.Context, filters QueryFilters) ([]models.AuditLog, int64, error) {
	var logs []models.AuditLog
	var total int64

	query := s.db.WithContext(ctx).Model(&models.AuditLog{})

	if filters.UserID != nil {
		query = query.Where("user_id = ?", *filters.UserID)
	}
	if filters.ResourceID != nil {
		query = query.Where("resource_id = ?", *filters.ResourceID)
	}
	if filters.Action != nil {
		query = query.Where("action = ?", *filters.Action)
	}
	if filters.StartTime != nil {
		query = query.Where("timestamp >= ?", *filters.StartTime)
	}
	if filters.EndTime != nil {
		query = query.Where("timestamp <= ?", *filters.EndTime)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filters.Limit > 0 {
		query = query.Limit(filters.Limit)
	} else {
		query = query.Limit(100)
	}
	if filters.Offset > 0 {
		query = query.Offset(filters.Offset)
	}

	if err := query.Order("timestamp DESC").Find(&logs).Error; err != nil {
		return nil, 0, err
	}

	return logs, total, nil
}
