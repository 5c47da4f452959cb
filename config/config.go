package config

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ListenAddr string

	// Database configuration
	DatabaseURL string

	// Combat Resolver / Moderation Service configuration
	ResolverURL     string
	ResolverAPIKey  string
	ResolverTimeout time.Duration
	ResolverRetries int

	// Match cycle configuration
	BetWindowSeconds    int     // how long the market stays open
	SkipCountdownTo     int     // what Skip clamps the countdown to
	TeamMatchChance     float64 // weighted coin flip for a 2v2 card
	ModerationBatchMin  int     // minimum pending submissions before a moderation flush
	HighVolatilityAbove int     // volatility scalar above which popularity drift widens

	// Economy configuration
	SubmissionCost     int64
	SubmissionCooldown time.Duration

	// Environment
	Environment string // "development", "production" or "test"
}

var (
	instance *Config
	once     sync.Once
)

// Get returns the global configuration instance
func Get() *Config {
	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			panic(fmt.Sprintf("failed to load config: %v", err))
		}
	})
	return instance
}

// load loads configuration from environment variables
func load() (*Config, error) {
	config := &Config{
		ListenAddr:  envOr("LISTEN_ADDR", ":5000"),
		DatabaseURL: os.Getenv("DATABASE_URL"),

		ResolverURL:     os.Getenv("RESOLVER_URL"),
		ResolverAPIKey:  os.Getenv("RESOLVER_API_KEY"),
		ResolverTimeout: 60 * time.Second,
		ResolverRetries: 3,

		BetWindowSeconds:    180,
		SkipCountdownTo:     5,
		TeamMatchChance:     0.10,
		ModerationBatchMin:  3,
		HighVolatilityAbove: 85,

		SubmissionCost:     10,
		SubmissionCooldown: 5 * time.Minute,

		Environment: envOr("ENVIRONMENT", "development"),
	}

	if v := os.Getenv("BATTLE_TIMER"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.BetWindowSeconds = parsed
		}
	}
	if v := os.Getenv("SUBMISSION_COST"); v != "" {
		if parsed, err := strconv.ParseInt(v, 10, 64); err == nil {
			config.SubmissionCost = parsed
		}
	}
	if v := os.Getenv("TEAM_MATCH_CHANCE"); v != "" {
		if parsed, err := strconv.ParseFloat(v, 64); err == nil {
			config.TeamMatchChance = parsed
		}
	}
	if v := os.Getenv("RESOLVER_RETRIES"); v != "" {
		if parsed, err := strconv.Atoi(v); err == nil {
			config.ResolverRetries = parsed
		}
	}

	if config.Environment != "test" {
		if config.DatabaseURL == "" {
			return nil, fmt.Errorf("DATABASE_URL is required")
		}
		if config.ResolverURL == "" {
			return nil, fmt.Errorf("RESOLVER_URL is required")
		}
	}

	return config, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
