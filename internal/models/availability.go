/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package models

import "time"

// Holiday marks one calendar date as non-working for the whole workforce.
type Holiday struct {
	ID        string    `gorm:"type:uuid;primaryKey" json:"id"`
	Date      time.Time `gorm:"type:date;uniqueIndex:idx_holidays_date" json:"date"`
	Name      string    `gorm:"type:varchar(128)" json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the table name for GORM.
func (Holiday) TableName() string {
	return "holidays"
}

// AvailabilityException blocks part or all of one installer's day.
type AvailabilityException struct {
	ID          string    `gorm:"type:uuid;primaryKey" json:"id"`
	InstallerID string    `gorm:"type:uuid;index:idx_availability_installer;not null" json:"installer_id"`
	Date        time.Time `gorm:"type:date;index:idx_availability_date;not null" json:"date"`

	// OutAllDay blocks the whole day; otherwise OutHours lists the
	// blocked clock hours (0-23).
	OutAllDay bool  `gorm:"not null;default:false" json:"out_all_day"`
	OutHours  []int `gorm:"type:jsonb;serializer:json" json:"out_hours,omitempty"`

	Note string `gorm:"type:text" json:"note,omitempty"`

	Installer *Installer `gorm:"foreignKey:InstallerID" json:"installer,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName returns the table name for GORM.
func (AvailabilityException) TableName() string {
	return "availability_exceptions"
}
