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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	External ExternalConfig
	Stats    StatsConfig
	Sync     SyncConfig
	Debug    DebugConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// JWTConfig holds token verification settings. This service never issues
// tokens; it only validates access tokens minted by the auth service.
type JWTConfig struct {
	Secret string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// ExternalConfig locates the sibling auth and course services.
type ExternalConfig struct {
	AuthServiceURL   string
	CourseServiceURL string
	Timeout          time.Duration
	// CountSyncMethod is PUT or PATCH depending on the course service
	// deployment. The endpoint shape itself is pinned.
	CountSyncMethod string
}

// StatsConfig governs the course stats endpoint and its aggregate cache.
type StatsConfig struct {
	Enabled  bool
	CacheTTL time.Duration
}

// SyncConfig tunes the background count-reconciliation workers.
type SyncConfig struct {
	Workers    int
	BufferSize int
	MaxRetries int
	RetryDelay time.Duration
}

// DebugConfig gates the admin-only diagnostic endpoints.
type DebugConfig struct {
	Enabled bool
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
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{Secret: v.GetString("JWT_SECRET")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	method := strings.ToUpper(v.GetString("COURSE_COUNT_SYNC_METHOD"))
	if method != "PATCH" {
		method = "PUT"
	}
	cfg.External = ExternalConfig{
		AuthServiceURL:   strings.TrimRight(v.GetString("AUTH_SERVICE_URL"), "/"),
		CourseServiceURL: strings.TrimRight(v.GetString("COURSE_SERVICE_URL"), "/"),
		Timeout:          parseDuration(v.GetString("EXTERNAL_HTTP_TIMEOUT"), 5*time.Second),
		CountSyncMethod:  method,
	}

	cfg.Stats = StatsConfig{
		Enabled:  v.GetBool("ENABLE_STATS"),
		CacheTTL: parseDuration(v.GetString("STATS_CACHE_TTL"), 2*time.Minute),
	}

	cfg.Sync = SyncConfig{
		Workers:    v.GetInt("SYNC_WORKER_CONCURRENCY"),
		BufferSize: v.GetInt("SYNC_WORKER_BUFFER"),
		MaxRetries: v.GetInt("SYNC_WORKER_RETRIES"),
		RetryDelay: parseDuration(v.GetString("SYNC_WORKER_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Debug = DebugConfig{Enabled: v.GetBool("ENABLE_DEBUG_ENDPOINTS")}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "enrollment_service")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("AUTH_SERVICE_URL", "http://localhost:5000")
	v.SetDefault("COURSE_SERVICE_URL", "http://localhost:5001")
	v.SetDefault("EXTERNAL_HTTP_TIMEOUT", "5s")
	v.SetDefault("COURSE_COUNT_SYNC_METHOD", "PUT")

	v.SetDefault("ENABLE_STATS", true)
	v.SetDefault("STATS_CACHE_TTL", "2m")

	v.SetDefault("SYNC_WORKER_CONCURRENCY", 1)
	v.SetDefault("SYNC_WORKER_BUFFER", 16)
	v.SetDefault("SYNC_WORKER_RETRIES", 3)
	v.SetDefault("SYNC_WORKER_RETRY_DELAY", "5s")

	v.SetDefault("ENABLE_DEBUG_ENDPOINTS", false)
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
