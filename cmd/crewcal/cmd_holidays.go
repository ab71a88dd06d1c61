/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
	"gorm.io/gorm"

	"github.com/fieldworks/crewcal/internal/audit"
	"github.com/fieldworks/crewcal/internal/db"
	"github.com/fieldworks/crewcal/internal/events"
	"github.com/fieldworks/crewcal/internal/models"
)

var importHolidaysCmd = &cobra.Command{
	Use:   "import-holidays <file>",
	Short: "Import a holiday calendar from a YAML file",
	Long: `Import holidays from a YAML calendar file.

The file lists dates the whole workforce is off:

  holidays:
    - date: 2026-12-25
      name: Christmas Day
    - date: 2026-12-26
      name: Boxing Day

Dates already present are skipped.`,
	Args: cobra.ExactArgs(1),
	RunE: runImportHolidays,
}

func init() {
	rootCmd.AddCommand(importHolidaysCmd)
}

type holidayFile struct {
	Holidays []struct {
		Date string `yaml:"date"`
		Name string `yaml:"name"`
	} `yaml:"holidays"`
}

func runImportHolidays(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read calendar file: %w", err)
	}

	var calendar holidayFile
	if err := yaml.Unmarshal(raw, &calendar); err != nil {
		return fmt.Errorf("parse calendar file: %w", err)
	}
	if len(calendar.Holidays) == 0 {
		return fmt.Errorf("calendar file lists no holidays")
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	imported := 0
	skipped := 0
	for _, entry := range calendar.Holidays {
		date, err := time.Parse("2006-01-02", entry.Date)
		if err != nil {
			return fmt.Errorf("invalid date %q: %w", entry.Date, err)
		}
		if entry.Name == "" {
			return fmt.Errorf("holiday %s has no name", entry.Date)
		}

		var existing models.Holiday
		result := database.Where("date = ?", date).First(&existing)
		if result.Error == nil {
			skipped++
			continue
		}
		if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return fmt.Errorf("check holiday %s: %w", entry.Date, result.Error)
		}

		holiday := models.Holiday{
			ID:   uuid.NewString(),
			Date: date,
			Name: entry.Name,
		}
		if err := database.Create(&holiday).Error; err != nil {
			return fmt.Errorf("create holiday %s: %w", entry.Date, err)
		}
		imported++
	}

	auditSvc := audit.NewService(database, events.NewBus(), logger)
	if err := auditSvc.Log(context.Background(), &models.AuditLog{
		Action:       models.AuditActionHolidayImport,
		ResourceType: "holiday",
		Details: map[string]any{
			"file":     args[0],
			"imported": imported,
			"skipped":  skipped,
		},
	}); err != nil {
		logger.Warn().Err(err).Msg("failed to record import audit entry")
	}

	logger.Info().
		Int("imported", imported).
		Int("skipped", skipped).
		Msg("holiday calendar imported")
	return nil
}
