package config

import (
	"log"

	"github.com/spf13/viper"
)

// Config holds all service configuration values.
type Config struct {
	AppPort string `mapstructure:"APP_PORT"`
	Env     string `mapstructure:"ENV"`

	SQLitePath string `mapstructure:"SQLITE_PATH"`

	// Redis snapshot cache; leave REDIS_ADDR empty to run without it.
	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Gemini key for the compatibility scorer; empty selects the heuristic fallback.
	GeminiAPIKey string `mapstructure:"GEMINI_API_KEY"`

	ToleranceFraction  float64 `mapstructure:"TOLERANCE_FRACTION"`
	CombineTieBreak    string  `mapstructure:"COMBINE_TIE_BREAK"`
	SnapshotTTLSeconds int     `mapstructure:"SNAPSHOT_TTL_SECONDS"`

	ConformityConfigPath string `mapstructure:"CONFORMITY_CONFIG_PATH"`
	SourceRegistryPath   string `mapstructure:"SOURCE_REGISTRY_PATH"`
}

var AppConfig Config

// Load reads config.yaml (current dir or ./config) plus environment variables.
func Load() {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	viper.AutomaticEnv()

	viper.SetDefault("APP_PORT", "8080")
	viper.SetDefault("ENV", "development")
	viper.SetDefault("SQLITE_PATH", "data/searchroom.db")
	viper.SetDefault("REDIS_ADDR", "")
	viper.SetDefault("REDIS_PASSWORD", "")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("GEMINI_API_KEY", "")
	viper.SetDefault("TOLERANCE_FRACTION", 0.10)
	viper.SetDefault("COMBINE_TIE_BREAK", "first")
	viper.SetDefault("SNAPSHOT_TTL_SECONDS", 300)
	viper.SetDefault("CONFORMITY_CONFIG_PATH", "configs/conformity.json")
	viper.SetDefault("SOURCE_REGISTRY_PATH", "configs/sources.json")

	if err := viper.ReadInConfig(); err != nil {
		log.Println("No config file found, using environment variables only")
	}

	if err := viper.Unmarshal(&AppConfig); err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
}

func IsProduction() bool {
	return AppConfig.Env == "production"
}
