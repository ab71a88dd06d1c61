/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Database backend selection.
type DatabaseBackend string

const (
	DatabasePostgres DatabaseBackend = "postgres"
	DatabaseMySQL    DatabaseBackend = "mysql"
	DatabaseSQLite   DatabaseBackend = "sqlite"
)

// Config covers process level configuration read from environment variables.
type Config struct {
	Environment   string
	HTTPBind      string
	HTTPPort      int
	DBBackend     DatabaseBackend
	DBDSN         string
	JWTSigningKey string
	MetricsBind   string

	// Scheduling defaults; every engine call receives these as part of
	// an explicit snapshot, never as ambient state.
	CoreStartHour      int     // CREWCAL_CORE_START_HOUR (default: 8)
	CoreEndHour        int     // CREWCAL_CORE_END_HOUR (default: 16)
	DriveOutMinutes    int     // CREWCAL_DRIVE_OUT_MINUTES (default: 0)
	DriveReturnMinutes int     // CREWCAL_DRIVE_RETURN_MINUTES (default: 0)
	DailyCapHours      float64 // CREWCAL_DAILY_CAP_HOURS (default: 8)
	WeekendSpillover   bool    // CREWCAL_WEEKEND_SPILLOVER (default: false)

	// Booking lock configuration. Redis serializes validate+persist
	// across instances; without Redis an in-process lock is used.
	BookingLockRedis bool   // CREWCAL_BOOKING_LOCK_REDIS (default: false)
	RedisAddr        string // CREWCAL_REDIS_ADDR (default: "localhost:6379")
	RedisPassword    string // CREWCAL_REDIS_PASSWORD
	RedisDB          int    // CREWCAL_REDIS_DB (default: 0)

	// Tracing configuration
	TracingEnabled    bool
	OTLPEndpoint      string
	TracingSampleRate float64
}

// Load reads environment variables, applies defaults, and validates the result.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:   getEnv("CREWCAL_ENV", "development"),
		HTTPBind:      getEnv("CREWCAL_HTTP_BIND", "0.0.0.0"),
		HTTPPort:      getEnvInt("CREWCAL_HTTP_PORT", 8080),
		DBBackend:     DatabaseBackend(getEnv("CREWCAL_DB_BACKEND", string(DatabasePostgres))),
		DBDSN:         getEnv("CREWCAL_DB_DSN", ""),
		JWTSigningKey: getEnv("CREWCAL_JWT_SIGNING_KEY", ""),
		MetricsBind:   getEnv("CREWCAL_METRICS_BIND", "127.0.0.1:9000"),

		CoreStartHour:      getEnvInt("CREWCAL_CORE_START_HOUR", 8),
		CoreEndHour:        getEnvInt("CREWCAL_CORE_END_HOUR", 16),
		DriveOutMinutes:    getEnvInt("CREWCAL_DRIVE_OUT_MINUTES", 0),
		DriveReturnMinutes: getEnvInt("CREWCAL_DRIVE_RETURN_MINUTES", 0),
		DailyCapHours:      getEnvFloat("CREWCAL_DAILY_CAP_HOURS", 8),
		WeekendSpillover:   getEnvBool("CREWCAL_WEEKEND_SPILLOVER", false),

		BookingLockRedis: getEnvBool("CREWCAL_BOOKING_LOCK_REDIS", false),
		RedisAddr:        getEnv("CREWCAL_REDIS_ADDR", "localhost:6379"),
		RedisPassword:    getEnv("CREWCAL_REDIS_PASSWORD", ""),
		RedisDB:          getEnvInt("CREWCAL_REDIS_DB", 0),

		TracingEnabled:    getEnvBool("CREWCAL_TRACING_ENABLED", false),
		OTLPEndpoint:      getEnv("CREWCAL_OTLP_ENDPOINT", "localhost:4317"),
		TracingSampleRate: getEnvFloat("CREWCAL_TRACING_SAMPLE_RATE", 1.0),
	}

	if cfg.DBBackend != DatabasePostgres && cfg.DBBackend != DatabaseMySQL && cfg.DBBackend != DatabaseSQLite {
		return nil, fmt.Errorf("unsupported database backend %q", cfg.DBBackend)
	}

	if cfg.DBDSN == "" {
		return nil, fmt.Errorf("CREWCAL_DB_DSN must be provided")
	}

	if cfg.JWTSigningKey == "" {
		return nil, fmt.Errorf("CREWCAL_JWT_SIGNING_KEY must be provided")
	}

	if cfg.CoreStartHour < 0 || cfg.CoreStartHour > 23 || cfg.CoreEndHour < 0 || cfg.CoreEndHour > 23 {
		return nil, fmt.Errorf("core hours must be within 0-23, got %d-%d", cfg.CoreStartHour, cfg.CoreEndHour)
	}

	if cfg.CoreEndHour <= cfg.CoreStartHour {
		return nil, fmt.Errorf("CREWCAL_CORE_END_HOUR (%d) must exceed CREWCAL_CORE_START_HOUR (%d)",
			cfg.CoreEndHour, cfg.CoreStartHour)
	}

	if cfg.DriveOutMinutes < 0 || cfg.DriveReturnMinutes < 0 {
		return nil, fmt.Errorf("drive minutes must not be negative")
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getEnvInt(key string, def int) int {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if val := os.Getenv(key); val != "" {
		val = strings.ToLower(strings.TrimSpace(val))
		if val == "true" || val == "1" || val == "yes" {
			return true
		}
		if val == "false" || val == "0" || val == "no" {
			return false
		}
	}
	return def
}

func getEnvFloat(key string, def float64) float64 {
	if val := os.Getenv(key); val != "" {
		if parsed, err := strconv.ParseFloat(val, 64); err == nil {
			return parsed
		}
	}
	return def
}
