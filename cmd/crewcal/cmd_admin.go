/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package main

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/fieldworks/crewcal/internal/auth"
	"github.com/fieldworks/crewcal/internal/db"
	"github.com/fieldworks/crewcal/internal/models"
)

var (
	adminEmail    string
	adminPassword string
	adminRole     string
)

var createUserCmd = &cobra.Command{
	Use:   "create-user",
	Short: "Create a user account",
	Long: `Create a user account with the given role.

Examples:
  crewcal create-user --email admin@example.com --password s3cret --role admin
  crewcal create-user --email dispatch@example.com --password s3cret --role dispatcher`,
	RunE: runCreateUser,
}

func init() {
	createUserCmd.Flags().StringVar(&adminEmail, "email", "", "Account email (required)")
	createUserCmd.Flags().StringVar(&adminPassword, "password", "", "Account password (required)")
	createUserCmd.Flags().StringVar(&adminRole, "role", string(models.RoleAdmin), "Account role: admin, dispatcher, or viewer")
	rootCmd.AddCommand(createUserCmd)
}

func runCreateUser(cmd *cobra.Command, args []string) error {
	if err := loadConfig(); err != nil {
		return err
	}

	if adminEmail == "" || adminPassword == "" {
		return fmt.Errorf("--email and --password are required")
	}
	role := models.RoleName(adminRole)
	if role != models.RoleAdmin && role != models.RoleDispatcher && role != models.RoleViewer {
		return fmt.Errorf("unknown role %q", adminRole)
	}

	database, err := initDatabase()
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer func() { _ = db.Close(database) }()

	var existing models.User
	result := database.Where("email = ?", adminEmail).First(&existing)
	if result.Error == nil {
		return fmt.Errorf("user %s already exists", adminEmail)
	}
	if !errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return fmt.Errorf("check user: %w", result.Error)
	}

	hash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		ID:       uuid.NewString(),
		Email:    adminEmail,
		Password: hash,
		Role:     role,
	}
	if err := database.Create(&user).Error; err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	logger.Info().
		Str("email", user.Email).
		Str("role", string(user.Role)).
		Msg("user created")
	return nil
}
