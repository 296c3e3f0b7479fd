package config

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/dom/card-chess/internal/game"
	"gopkg.in/yaml.v3"
)

type Config struct {
	// Server
	Port           string   `yaml:"port"`
	Environment    string   `yaml:"environment"`
	AllowedOrigins []string `yaml:"allowed_origins"`

	// Logging
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`

	// Session tokens
	SessionSecret   string `yaml:"session_secret"`
	SessionTTLHours int    `yaml:"session_ttl_hours"`

	// Match archive
	DatabaseURL   string `yaml:"database_url"`
	RedisURL      string `yaml:"redis_url"`
	MatchTTLHours int    `yaml:"match_ttl_hours"`

	// Game
	GracePeriodSeconds   int `yaml:"grace_period_seconds"`
	ClockWarmupSeconds   int `yaml:"clock_warmup_seconds"`
	TimedSeconds         int `yaml:"timed_seconds"`
	SweepIntervalSeconds int `yaml:"sweep_interval_seconds"`
}

func defaults() *Config {
	return &Config{
		Port:                 "8080",
		Environment:          "development",
		AllowedOrigins:       []string{"*"},
		LogLevel:             "info",
		LogFormat:            "console",
		SessionTTLHours:      24,
		MatchTTLHours:        72,
		GracePeriodSeconds:   15,
		ClockWarmupSeconds:   2,
		TimedSeconds:         600,
		SweepIntervalSeconds: 30,
	}
}

// Load reads the optional CONFIG_FILE and then applies environment
// overrides.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	cfg.Port = getEnv("PORT", cfg.Port)
	cfg.Environment = getEnv("ENVIRONMENT", cfg.Environment)
	cfg.AllowedOrigins = getEnvList("ALLOWED_ORIGINS", cfg.AllowedOrigins)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	cfg.SessionSecret = getEnv("SESSION_SECRET", cfg.SessionSecret)
	cfg.SessionTTLHours = getEnvInt("SESSION_TTL_HOURS", cfg.SessionTTLHours)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.RedisURL = getEnv("REDIS_URL", cfg.RedisURL)
	cfg.MatchTTLHours = getEnvInt("MATCH_TTL_HOURS", cfg.MatchTTLHours)
	cfg.GracePeriodSeconds = getEnvInt("GRACE_PERIOD_SECONDS", cfg.GracePeriodSeconds)
	cfg.ClockWarmupSeconds = getEnvInt("CLOCK_WARMUP_SECONDS", cfg.ClockWarmupSeconds)
	cfg.TimedSeconds = getEnvInt("TIMED_SECONDS", cfg.TimedSeconds)
	cfg.SweepIntervalSeconds = getEnvInt("SWEEP_INTERVAL_SECONDS", cfg.SweepIntervalSeconds)

	if cfg.SessionSecret == "" {
		if !cfg.IsDevelopment() {
			return nil, fmt.Errorf("SESSION_SECRET environment variable is required")
		}
		cfg.SessionSecret = randomSecret()
	}

	return cfg, nil
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) GracePeriod() time.Duration {
	return time.Duration(c.GracePeriodSeconds) * time.Second
}

func (c *Config) ClockWarmup() time.Duration {
	return time.Duration(c.ClockWarmupSeconds) * time.Second
}

func (c *Config) SweepInterval() time.Duration {
	return time.Duration(c.SweepIntervalSeconds) * time.Second
}

// GameConfig derives the session timings.
func (c *Config) GameConfig() game.Config {
	gc := game.DefaultConfig()
	gc.GracePeriod = c.GracePeriod()
	gc.ClockWarmup = c.ClockWarmup()
	gc.SweepInterval = c.SweepInterval()
	gc.TimedSeconds = c.TimedSeconds
	return gc
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) MatchTTL() time.Duration {
	return time.Duration(c.MatchTTLHours) * time.Hour
}

// randomSecret keeps development tokens valid only for this process.
func randomSecret() string {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return hex.EncodeToString(b)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return fallback
}

func getEnvList(key string, fallback []string) []string {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
