/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"gorm.io/gorm"

	"github.com/fieldworks/crewcal/internal/models"
)

// Migrate applies database schema migrations using GORM auto-migrate.
func Migrate(database *gorm.DB) error {
	return database.AutoMigrate(
		&models.User{},
		&models.AuditLog{},

		&models.Installer{},
		&models.Holiday{},
		&models.AvailabilityException{},

		&models.Job{},
		&models.JobAssignment{},
		&models.Slice{},
	)
}
