// Package config loads server settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// HTTP Server
	Port               string
	CORSAllowedOrigins []string
	ShutdownTimeout    time.Duration

	// Logging
	LogLevel string

	// Worksheets
	DefaultParticipants int
	MaxParticipants     int

	// Idle sweeper; a zero TTL disables it
	WorksheetTTL  time.Duration
	SweepInterval time.Duration
}

// Load reads the configuration from the environment. Call godotenv.Load
// first to pick up a local .env file.
func Load() *Config {
	return &Config{
		Port:                getEnv("PORT", "8080"),
		CORSAllowedOrigins:  getEnvList("CORS_ALLOWED_ORIGINS", []string{"*"}),
		ShutdownTimeout:     getEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second),
		LogLevel:            getEnv("LOG_LEVEL", "info"),
		DefaultParticipants: getEnvInt("DEFAULT_PARTICIPANTS", 2),
		MaxParticipants:     getEnvInt("MAX_PARTICIPANTS", 64),
		WorksheetTTL:        getEnvDuration("WORKSHEET_TTL", 24*time.Hour),
		SweepInterval:       getEnvDuration("SWEEP_INTERVAL", 10*time.Minute),
	}
}

// Addr returns the listen address for Port.
func (c *Config) Addr() string {
	return ":" + c.Port
}

// Validate validates the configuration and reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	// Zero disables the limit.
	if c.MaxParticipants < 0 {
		errors = append(errors, fmt.Sprintf("invalid max participants %d: must not be negative", c.MaxParticipants))
	}
	if c.DefaultParticipants < 1 {
		errors = append(errors, fmt.Sprintf("invalid default participants %d: must be at least 1", c.DefaultParticipants))
	} else if c.MaxParticipants >= 1 && c.DefaultParticipants > c.MaxParticipants {
		errors = append(errors, fmt.Sprintf("default participants %d exceeds max participants %d", c.DefaultParticipants, c.MaxParticipants))
	}

	if c.ShutdownTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid shutdown timeout %v: must be at least 1 second", c.ShutdownTimeout))
	}

	if c.WorksheetTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid worksheet TTL %v: must not be negative", c.WorksheetTTL))
	} else if c.WorksheetTTL > 0 && c.SweepInterval < time.Second {
		errors = append(errors, fmt.Sprintf("invalid sweep interval %v: must be at least 1 second", c.SweepInterval))
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
