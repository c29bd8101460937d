package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// DefaultJWTSecret is only acceptable outside release mode.
const DefaultJWTSecret = "default-secret-key-change-me"

type Config struct {
	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	// DBDSN overrides the individual DB_* settings when present.
	DBDSN string

	RedisURL string

	JWTSecret string
	JWTTTL    time.Duration

	GoogleClientID     string
	GoogleClientSecret string

	SecurityControlsEnabled bool
	CORSOrigins             []string

	GinMode string
	Port    string

	AdminEmail    string
	AdminPassword string

	RecomputeFollowCounters bool
}

func Load() *Config {
	return &Config{
		DBDriver:                getEnv("DB_DRIVER", "mysql"),
		DBHost:                  getEnv("DB_HOST", "localhost"),
		DBPort:                  getEnv("DB_PORT", "3306"),
		DBUser:                  getEnv("DB_USER", "proposte"),
		DBPassword:              getEnv("DB_PASSWORD", "proposte"),
		DBName:                  getEnv("DB_NAME", "proposte"),
		DBDSN:                   getEnv("DB_DSN", ""),
		RedisURL:                getEnv("REDIS_URL", ""),
		JWTSecret:               getEnv("JWT_SECRET", DefaultJWTSecret),
		JWTTTL:                  getDuration("JWT_TTL", 24*time.Hour),
		GoogleClientID:          getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:      getEnv("GOOGLE_CLIENT_SECRET", ""),
		SecurityControlsEnabled: getBool("SECURITY_CONTROLS_ENABLED", true),
		CORSOrigins:             getList("CORS_ORIGINS", []string{"http://localhost:3000"}),
		GinMode:                 getEnv("GIN_MODE", "debug"),
		Port:                    getEnv("PORT", "8080"),
		AdminEmail:              getEnv("ADMIN_EMAIL", ""),
		AdminPassword:           getEnv("ADMIN_PASSWORD", ""),
		RecomputeFollowCounters: getBool("RECOMPUTE_FOLLOW_COUNTERS", false),
	}
}

// IsProduction reports whether gin runs in release mode.
func (c *Config) IsProduction() bool {
	return c.GinMode == "release"
}

// Validate rejects settings that must not reach production.
func (c *Config) Validate() error {
	if c.IsProduction() && c.JWTSecret == DefaultJWTSecret {
		return errors.New("JWT_SECRET must be set in release mode")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(getEnv(key, strconv.FormatBool(defaultValue)))
	if err != nil {
		return defaultValue
	}
	return value
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	value, err := time.ParseDuration(getEnv(key, defaultValue.String()))
	if err != nil || value <= 0 {
		return defaultValue
	}
	return value
}

func getList(key string, defaultValue []string) []string {
	raw := getEnv(key, "")
	if raw == "" {
		return defaultValue
	}

	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
