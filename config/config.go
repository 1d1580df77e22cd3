// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"github.com/warp/leave-engine/generic"
)

type Config struct {
	Port        int
	DBPath      string
	LogLevel    slog.Level
	CORSOrigins []string
	Leave       LeaveConfig
}

// LeaveConfig holds calculator defaults.
type LeaveConfig struct {
	DefaultAnnualLeaves  int
	DefaultMonthlyLeaves int
	CycleBasis           generic.PeriodType
}

// Load reads a .env file when present, then the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function, so tests don't have to
// touch the process environment.
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(key, def string) string {
		if v := strings.TrimSpace(getenv(key)); v != "" {
			return v
		}
		return def
	}

	port, err := strconv.Atoi(get("PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	var level slog.Level
	if err := level.UnmarshalText([]byte(get("LOG_LEVEL", "info"))); err != nil {
		return nil, fmt.Errorf("invalid LOG_LEVEL: %w", err)
	}

	annual, err := strconv.Atoi(get("DEFAULT_ANNUAL_LEAVES", "14"))
	if err != nil || annual <= 0 {
		return nil, fmt.Errorf("invalid DEFAULT_ANNUAL_LEAVES: %q", getenv("DEFAULT_ANNUAL_LEAVES"))
	}

	monthly, err := strconv.Atoi(get("DEFAULT_MONTHLY_LEAVES", "0"))
	if err != nil || monthly < 0 {
		return nil, fmt.Errorf("invalid DEFAULT_MONTHLY_LEAVES: %q", getenv("DEFAULT_MONTHLY_LEAVES"))
	}

	basis, ok := generic.ParsePeriodType(get("LEAVE_CYCLE", string(generic.PeriodAnniversary)))
	if !ok {
		return nil, fmt.Errorf("invalid LEAVE_CYCLE: %q (use anniversary or calendar_year)", getenv("LEAVE_CYCLE"))
	}

	return &Config{
		Port:        port,
		DBPath:      get("DB_PATH", "leave.db"),
		LogLevel:    level,
		CORSOrigins: splitList(get("CORS_ORIGINS", "http://localhost:5173,http://localhost:8080")),
		Leave: LeaveConfig{
			DefaultAnnualLeaves:  annual,
			DefaultMonthlyLeaves: monthly,
			CycleBasis:           basis,
		},
	}, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
