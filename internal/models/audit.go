/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// AuditAction defines the type of audited action.
type AuditAction string

// Audit action constants for all sensitive operations.
const (
	AuditActionJobSchedule    AuditAction = "job.schedule"
	AuditActionJobReschedule  AuditAction = "job.reschedule"
	AuditActionJobCancel      AuditAction = "job.cancel"
	AuditActionOverrideUsed   AuditAction = "job.override_used"
	AuditActionHolidayCreate  AuditAction = "holiday.create"
	AuditActionHolidayDelete  AuditAction = "holiday.delete"
	AuditActionHolidayImport  AuditAction = "holiday.import"
	AuditActionInstallerBlock AuditAction = "installer.availability_block"
)

// AuditLog records sensitive operations for review and compliance.
// Override escape hatches land here so every bypassed safety rule is
// attributable.
type AuditLog struct {
	ID           string         `gorm:"type:uuid;primaryKey"`
	Timestamp    time.Time      `gorm:"index:idx_audit_timestamp;not null"`
	UserID       *string        `gorm:"type:uuid;index:idx_audit_user"` // NULL for system actions
	UserEmail    string         `gorm:"type:varchar(255)"`              // Denormalized for readability
	Action       AuditAction    `gorm:"type:varchar(64);index:idx_audit_action;not null"`
	ResourceType string         `gorm:"type:varchar(64)"` // "job", "holiday", "installer"
	ResourceID   string         `gorm:"type:uuid"`
	Details      map[string]any `gorm:"type:jsonb;serializer:json"`
	IPAddress    string         `gorm:"type:varchar(45)"`
	CreatedAt    time.Time
}

// TableName returns the table name for GORM.
func (AuditLog) TableName() string {
	return "audit_logs"
}
