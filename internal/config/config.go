package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
	DriverRedis    = "redis"
)

type Config struct {
	Port          string
	AllowedOrigin string

	StorageDriver  string
	DatabaseURL    string
	SQLitePath     string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int
	RedisKeyPrefix string
	SeedDemoData   bool

	AuthSecret            string
	AccessTokenTTLMinutes int
	AdminUsername         string
	AdminPassword         string

	GeminiAPIKey           string
	GeminiModel            string
	InsightTimeoutSeconds  int
	InsightCacheTTLSeconds int

	BusinessName string
	Currency     string
}

// Load reads configuration from the environment, optionally layered over a
// YAML file named by CONFIG_FILE. Keys in the file use the lower-case
// environment names (port, auth_secret, ...). Secrets have no defaults.
func Load() (Config, error) {
	v := viper.New()

	v.SetDefault("config_file", "")
	v.SetDefault("port", "8080")
	v.SetDefault("allowed_origin", "http://127.0.0.1:3000")
	v.SetDefault("storage_driver", "")
	v.SetDefault("database_url", "")
	v.SetDefault("sqlite_path", "")
	v.SetDefault("redis_addr", "")
	v.SetDefault("redis_password", "")
	v.SetDefault("redis_db", 0)
	v.SetDefault("redis_key_prefix", "eb_")
	v.SetDefault("seed_demo_data", true)
	v.SetDefault("auth_secret", "")
	v.SetDefault("access_token_ttl_minutes", 480)
	v.SetDefault("admin_username", "owner")
	v.SetDefault("admin_password", "")
	v.SetDefault("gemini_api_key", "")
	v.SetDefault("gemini_model", "gemini-2.5-flash")
	v.SetDefault("insight_timeout_seconds", 20)
	v.SetDefault("insight_cache_ttl_seconds", 600)
	v.SetDefault("business_name", "Elegance Boutique")
	v.SetDefault("currency", "MK")

	v.AutomaticEnv()

	if path := strings.TrimSpace(v.GetString("config_file")); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := Config{
		Port:          v.GetString("port"),
		AllowedOrigin: v.GetString("allowed_origin"),

		StorageDriver:  strings.ToLower(strings.TrimSpace(v.GetString("storage_driver"))),
		DatabaseURL:    strings.TrimSpace(v.GetString("database_url")),
		SQLitePath:     strings.TrimSpace(v.GetString("sqlite_path")),
		RedisAddr:      strings.TrimSpace(v.GetString("redis_addr")),
		RedisPassword:  v.GetString("redis_password"),
		RedisDB:        v.GetInt("redis_db"),
		RedisKeyPrefix: v.GetString("redis_key_prefix"),
		SeedDemoData:   v.GetBool("seed_demo_data"),

		AuthSecret:            strings.TrimSpace(v.GetString("auth_secret")),
		AccessTokenTTLMinutes: positive(v.GetInt("access_token_ttl_minutes"), 480),
		AdminUsername:         strings.TrimSpace(v.GetString("admin_username")),
		AdminPassword:         v.GetString("admin_password"),

		GeminiAPIKey:           strings.TrimSpace(v.GetString("gemini_api_key")),
		GeminiModel:            strings.TrimSpace(v.GetString("gemini_model")),
		InsightTimeoutSeconds:  positive(v.GetInt("insight_timeout_seconds"), 20),
		InsightCacheTTLSeconds: positive(v.GetInt("insight_cache_ttl_seconds"), 600),

		BusinessName: v.GetString("business_name"),
		Currency:     v.GetString("currency"),
	}
	if cfg.AdminUsername == "" {
		cfg.AdminUsername = "owner"
	}

	return cfg, nil
}

func (c Config) Address() string {
	return fmt.Sprintf(":%s", c.Port)
}

// Driver picks the storage backend. An explicit STORAGE_DRIVER wins; otherwise
// the first configured location decides, falling back to memory.
func (c Config) Driver() string {
	if c.StorageDriver != "" {
		return c.StorageDriver
	}
	switch {
	case c.DatabaseURL != "":
		return DriverPostgres
	case c.SQLitePath != "":
		return DriverSQLite
	default:
		return DriverMemory
	}
}

func positive(value int, fallback int) int {
	if value < 1 {
		return fallback
	}
	return value
}
