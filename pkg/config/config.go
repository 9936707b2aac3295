package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Supported record store drivers.
const (
	StoreDriverMemory   = "memory"
	StoreDriverBolt     = "bolt"
	StoreDriverRedis    = "redis"
	StoreDriverPostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Store    StoreConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Session  SessionConfig
	Courses  CourseConfig
	CORS     CORSConfig
	Log      LogConfig
	Metrics  MetricsConfig
}

// StoreConfig selects the blob store backing the record collections.
type StoreConfig struct {
	Driver    string
	KeyPrefix string
	SeedDir   string
	BoltPath  string
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

// SessionConfig governs session tokens and the browser cookie carrying them.
type SessionConfig struct {
	Secret       string
	TTL          time.Duration
	Issuer       string
	CookieName   string
	CookieSecure bool
}

// CourseConfig toggles catalog behaviour still under product review.
type CourseConfig struct {
	EnforceOwnership bool
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// MetricsConfig toggles the Prometheus endpoint.
type MetricsConfig struct {
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
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

	cfg.Store = StoreConfig{
		Driver:    strings.ToLower(v.GetString("STORE_DRIVER")),
		KeyPrefix: v.GetString("STORE_KEY_PREFIX"),
		SeedDir:   v.GetString("SEED_DIR"),
		BoltPath:  v.GetString("BOLT_PATH"),
	}

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

	cfg.Session = SessionConfig{
		Secret:       v.GetString("SESSION_SECRET"),
		TTL:          parseDuration(v.GetString("SESSION_TTL"), 24*time.Hour),
		Issuer:       v.GetString("SESSION_ISSUER"),
		CookieName:   v.GetString("SESSION_COOKIE_NAME"),
		CookieSecure: v.GetBool("SESSION_COOKIE_SECURE"),
	}

	cfg.Courses = CourseConfig{EnforceOwnership: v.GetBool("COURSE_ENFORCE_OWNERSHIP")}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Metrics = MetricsConfig{Enabled: v.GetBool("ENABLE_METRICS")}

	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("STORE_DRIVER", StoreDriverMemory)
	v.SetDefault("STORE_KEY_PREFIX", "lms_")
	v.SetDefault("SEED_DIR", "./data")
	v.SetDefault("BOLT_PATH", "./var/lms.db")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "lms")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("SESSION_SECRET", "dev_session_secret")
	v.SetDefault("SESSION_TTL", "24h")
	v.SetDefault("SESSION_ISSUER", "lms-api")
	v.SetDefault("SESSION_COOKIE_NAME", "lms-session")
	v.SetDefault("SESSION_COOKIE_SECURE", false)

	v.SetDefault("COURSE_ENFORCE_OWNERSHIP", false)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("ENABLE_METRICS", true)
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
