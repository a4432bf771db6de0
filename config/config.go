package config

import (
	"log"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration values.
type Config struct {
	AppPort           string `mapstructure:"APP_PORT"`
	DatabaseURL       string `mapstructure:"DATABASE_URL"`
	DatabaseName      string `mapstructure:"DATABASE_NAME"`
	Env               string `mapstructure:"ENV"`
	LogLevel          string `mapstructure:"LOG_LEVEL"`
	MaxRequestsPerMin int    `mapstructure:"MAX_REQUESTS_PER_MIN"`

	// Redis configuration.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisCacheDB  int    `mapstructure:"REDIS_CACHE_DB"`
	RedisHoldDB   int    `mapstructure:"REDIS_HOLD_DB"`
	RedisQueueDB  int    `mapstructure:"REDIS_QUEUE_DB"`

	// Scheduling engine knobs.
	HoldTTLMin        int `mapstructure:"HOLD_TTL_MIN"`         // waitlist offer hold, minutes
	SweepIntervalSec  int `mapstructure:"SWEEP_INTERVAL_SEC"`   // hold-expiry sweep cadence
	SearchHorizonDays int `mapstructure:"SEARCH_HORIZON_DAYS"`  // alternative-slot lookahead
	MaxCandidates     int `mapstructure:"MAX_CANDIDATES"`       // candidates returned per booking
	MaxNotifyPerEntry int `mapstructure:"MAX_NOTIFY_PER_ENTRY"` // offers per waitlist entry
	NotifyCooldownMin int `mapstructure:"NOTIFY_COOLDOWN_MIN"`  // per-entry re-offer cooldown
	SettingsCacheSec  int `mapstructure:"SETTINGS_CACHE_SEC"`   // owner settings snapshot TTL

	// Waitlist priority weights (see services/scheduling/priority.go).
	PriorityAgeWeight         float64 `mapstructure:"PRIORITY_AGE_WEIGHT"`
	PrioritySpecificityWeight float64 `mapstructure:"PRIORITY_SPECIFICITY_WEIGHT"`
	PriorityTierWeight        float64 `mapstructure:"PRIORITY_TIER_WEIGHT"`
}

var AppConfig Config

func LoadConfig() {
	// Look for a config file named "config.yaml" in the current and "config" directory.
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	// Automatically use environment variables where available.
	viper.AutomaticEnv()

	// Set default values.
	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("LOG_LEVEL", "info")
	viper.SetDefault("MAX_REQUESTS_PER_MIN", 100)
	viper.SetDefault("DATABASE_URL", "mongodb://localhost:27017")
	viper.SetDefault("DATABASE_NAME", "bookline")
	viper.SetDefault("REDIS_ADDR", "localhost:6379")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_CACHE_DB", 0)
	viper.SetDefault("REDIS_HOLD_DB", 1)
	viper.SetDefault("REDIS_QUEUE_DB", 2)
	viper.SetDefault("HOLD_TTL_MIN", 10)
	viper.SetDefault("SWEEP_INTERVAL_SEC", 60)
	viper.SetDefault("SEARCH_HORIZON_DAYS", 7)
	viper.SetDefault("MAX_CANDIDATES", 5)
	viper.SetDefault("MAX_NOTIFY_PER_ENTRY", 3)
	viper.SetDefault("NOTIFY_COOLDOWN_MIN", 120)
	viper.SetDefault("SETTINGS_CACHE_SEC", 300)
	viper.SetDefault("PRIORITY_AGE_WEIGHT", 1.0)
	viper.SetDefault("PRIORITY_SPECIFICITY_WEIGHT", 0.5)
	viper.SetDefault("PRIORITY_TIER_WEIGHT", 2.0)

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func GetEnv() string {
	return AppConfig.Env
}

func IsProduction() bool {
	return GetEnv() == "production"
}

// HoldTTL returns the waitlist hold lifetime.
func HoldTTL() time.Duration {
	return time.Duration(AppConfig.HoldTTLMin) * time.Minute
}

// SweepInterval returns the hold-expiry sweep cadence.
func SweepInterval() time.Duration {
	return time.Duration(AppConfig.SweepIntervalSec) * time.Second
}

// SettingsCacheTTL returns how long an owner settings snapshot may be
// served from cache.
func SettingsCacheTTL() time.Duration {
	return time.Duration(AppConfig.SettingsCacheSec) * time.Second
}
