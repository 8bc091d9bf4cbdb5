package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Redis     RedisConfig
	Auth      AuthConfig
	CORS      CORSConfig
	Log       LogConfig
	Upstream  UpstreamConfig
	Listing   ListingConfig
	Sessions  SessionConfig
	ViewState ViewStateConfig
	Exports   ExportsConfig
	Reconcile ReconcileConfig
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// AuthConfig validates the access tokens the school API issues to admins.
type AuthConfig struct {
	Secret       string
	Issuer       string
	AllowedRoles []string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UpstreamConfig points at the school REST API.
type UpstreamConfig struct {
	BaseURL       string
	Timeout       time.Duration
	TokenSecret   string
	TokenSubject  string
	TokenTTL      time.Duration
	MaxBodyBytes  int64
	UserAgent     string
	DetailTimeout time.Duration
}

// ListingConfig tunes list derivation.
type ListingConfig struct {
	SearchDebounce   time.Duration
	DefaultPageSize  int
	RowCacheCapacity int
	Locale           string
}

// SessionConfig bounds per-admin page state held in memory.
type SessionConfig struct {
	Capacity int
	IdleTTL  time.Duration
	Header   string
	ToastCap int
}

// ViewStateConfig persists query parameters between visits.
type ViewStateConfig struct {
	Enabled bool
	TTL     time.Duration
	Prefix  string
}

// ExportsConfig controls rendered export files.
type ExportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupSchedule string
	MaxRows         int
}

// ReconcileConfig sizes the background refetch queue.
type ReconcileConfig struct {
	Workers    int
	BufferSize int
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !isMissingFile(err) {
			return nil, err
		}
	}

	return fromViper(v), nil
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.Auth = AuthConfig{
		Secret:       v.GetString("JWT_SECRET"),
		Issuer:       v.GetString("JWT_ISSUER"),
		AllowedRoles: splitAndTrim(v.GetString("CONSOLE_ROLES")),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Upstream = UpstreamConfig{
		BaseURL:       strings.TrimRight(v.GetString("UPSTREAM_BASE_URL"), "/"),
		Timeout:       parseDuration(v.GetString("UPSTREAM_TIMEOUT"), 20*time.Second),
		TokenSecret:   v.GetString("UPSTREAM_TOKEN_SECRET"),
		TokenSubject:  v.GetString("UPSTREAM_TOKEN_SUBJECT"),
		TokenTTL:      parseDuration(v.GetString("UPSTREAM_TOKEN_TTL"), 5*time.Minute),
		MaxBodyBytes:  v.GetInt64("UPSTREAM_MAX_BODY_BYTES"),
		UserAgent:     v.GetString("UPSTREAM_USER_AGENT"),
		DetailTimeout: parseDuration(v.GetString("UPSTREAM_DETAIL_TIMEOUT"), 15*time.Second),
	}

	cfg.Listing = ListingConfig{
		SearchDebounce:   parseDuration(v.GetString("SEARCH_DEBOUNCE"), 300*time.Millisecond),
		DefaultPageSize:  v.GetInt("DEFAULT_PAGE_SIZE"),
		RowCacheCapacity: v.GetInt("ROW_CACHE_CAPACITY"),
		Locale:           v.GetString("LISTING_LOCALE"),
	}

	cfg.Sessions = SessionConfig{
		Capacity: v.GetInt("SESSION_CAPACITY"),
		IdleTTL:  parseDuration(v.GetString("SESSION_TTL"), 2*time.Hour),
		Header:   v.GetString("SESSION_HEADER"),
		ToastCap: v.GetInt("SESSION_TOAST_CAPACITY"),
	}

	cfg.ViewState = ViewStateConfig{
		Enabled: v.GetBool("ENABLE_VIEW_STATE"),
		TTL:     parseDuration(v.GetString("VIEW_STATE_TTL"), 7*24*time.Hour),
		Prefix:  v.GetString("VIEW_STATE_PREFIX"),
	}

	cfg.Exports = ExportsConfig{
		StorageDir:      v.GetString("EXPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), time.Hour),
		CleanupSchedule: v.GetString("EXPORTS_CLEANUP_SCHEDULE"),
		MaxRows:         v.GetInt("EXPORTS_MAX_ROWS"),
	}

	cfg.Reconcile = ReconcileConfig{
		Workers:    v.GetInt("RECONCILE_WORKERS"),
		BufferSize: v.GetInt("RECONCILE_BUFFER"),
	}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_ISSUER", "")
	v.SetDefault("CONSOLE_ROLES", "SUPERADMIN,ADMIN")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPSTREAM_BASE_URL", "http://localhost:3000/api")
	v.SetDefault("UPSTREAM_TIMEOUT", "20s")
	v.SetDefault("UPSTREAM_TOKEN_SECRET", "")
	v.SetDefault("UPSTREAM_TOKEN_SUBJECT", "attendance-console")
	v.SetDefault("UPSTREAM_TOKEN_TTL", "5m")
	v.SetDefault("UPSTREAM_MAX_BODY_BYTES", 16*1024*1024)
	v.SetDefault("UPSTREAM_USER_AGENT", "sma-adp-console")
	v.SetDefault("UPSTREAM_DETAIL_TIMEOUT", "15s")

	v.SetDefault("SEARCH_DEBOUNCE", "300ms")
	v.SetDefault("DEFAULT_PAGE_SIZE", 10)
	v.SetDefault("ROW_CACHE_CAPACITY", 256)
	v.SetDefault("LISTING_LOCALE", "en")

	v.SetDefault("SESSION_CAPACITY", 500)
	v.SetDefault("SESSION_TTL", "2h")
	v.SetDefault("SESSION_HEADER", "X-Session-ID")
	v.SetDefault("SESSION_TOAST_CAPACITY", 50)

	v.SetDefault("ENABLE_VIEW_STATE", false)
	v.SetDefault("VIEW_STATE_TTL", "168h")
	v.SetDefault("VIEW_STATE_PREFIX", "console:view")

	v.SetDefault("EXPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "1h")
	v.SetDefault("EXPORTS_CLEANUP_SCHEDULE", "@every 1h")
	v.SetDefault("EXPORTS_MAX_ROWS", 10000)

	v.SetDefault("RECONCILE_WORKERS", 2)
	v.SetDefault("RECONCILE_BUFFER", 64)
}

func isMissingFile(err error) bool {
	return strings.Contains(err.Error(), "no such file")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
