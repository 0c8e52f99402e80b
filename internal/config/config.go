package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/spec-kit/alert-ticket-service/internal/domain"
	"github.com/spec-kit/alert-ticket-service/internal/sla"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App          AppConfig
	Postgres     PostgresConfig
	Redis        RedisConfig
	Logger       LoggerConfig
	Auth         AuthConfig
	Notification NotificationConfig
	SLA          SLAConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines authentication parameters. API key hashes are bcrypt
// digests of the shared secrets providers and operators exchange for JWTs.
type AuthConfig struct {
	JWTSecret             string
	AccessTokenTTLMinutes int
	ProviderAPIKeyHash    string
	OperatorAPIKeyHash    string
	BcryptCost            int
}

// NotificationConfig holds notification fan-out targets.
type NotificationConfig struct {
	RedisChannel string
	WebhookURL   string
}

// SLAConfig holds per-severity response thresholds in minutes. Zero disables
// the SLA for that severity.
type SLAConfig struct {
	CriticalMinutes      int
	HighMinutes          int
	MediumMinutes        int
	LowMinutes           int
	InfoMinutes          int
	SweepIntervalSeconds int
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "alert-ticket-service"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:             getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AccessTokenTTLMinutes: getEnvAsInt("AUTH_ACCESS_TOKEN_TTL_MINUTES", 60),
			ProviderAPIKeyHash:    os.Getenv("AUTH_PROVIDER_API_KEY_HASH"),
			OperatorAPIKeyHash:    os.Getenv("AUTH_OPERATOR_API_KEY_HASH"),
			BcryptCost:            getEnvAsInt("AUTH_BCRYPT_COST", 12),
		},
		Notification: NotificationConfig{
			RedisChannel: getEnv("NOTIFY_REDIS_CHANNEL", "ticket-events"),
			WebhookURL:   getEnv("NOTIFY_WEBHOOK_URL", ""),
		},
		SLA: SLAConfig{
			CriticalMinutes:      getEnvAsInt("SLA_CRITICAL_MINUTES", 15),
			HighMinutes:          getEnvAsInt("SLA_HIGH_MINUTES", 60),
			MediumMinutes:        getEnvAsInt("SLA_MEDIUM_MINUTES", 240),
			LowMinutes:           getEnvAsInt("SLA_LOW_MINUTES", 1440),
			InfoMinutes:          getEnvAsInt("SLA_INFO_MINUTES", 0),
			SweepIntervalSeconds: getEnvAsInt("SLA_SWEEP_INTERVAL_SECONDS", 60),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Thresholds converts the configured minutes into an SLA threshold table.
func (s SLAConfig) Thresholds() sla.Thresholds {
	thresholds := sla.Thresholds{}
	set := func(severity domain.Severity, minutes int) {
		if minutes > 0 {
			thresholds[severity] = time.Duration(minutes) * time.Minute
		}
	}
	set(domain.SeverityCritical, s.CriticalMinutes)
	set(domain.SeverityHigh, s.HighMinutes)
	set(domain.SeverityMedium, s.MediumMinutes)
	set(domain.SeverityLow, s.LowMinutes)
	set(domain.SeverityInfo, s.InfoMinutes)
	return thresholds
}

// SweepInterval returns how often the SLA worker re-evaluates active tickets.
func (s SLAConfig) SweepInterval() time.Duration {
	if s.SweepIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(s.SweepIntervalSeconds) * time.Second
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}
