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

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Attendance    AttendanceConfig
	Notifications NotificationsConfig
	Push          PushConfig
	Reports       ReportsConfig
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

type JWTConfig struct {
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// AttendanceConfig tunes the attendance metrics engine.
type AttendanceConfig struct {
	LateCutoff       string
	TimeWindowDays   int
	CacheEnabled     bool
	CacheTTL         time.Duration
	CohortMaxWorkers int
}

// NotificationsConfig bounds notification center queries and fan-out.
type NotificationsConfig struct {
	UnreadLimit   int
	FanoutWorkers int
}

// PushConfig carries Web Push (VAPID) delivery settings.
type PushConfig struct {
	Enabled         bool
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
	TTL             int
	Workers         int
	QueueSize       int
	MaxRetries      int
	RetryDelay      time.Duration
}

// ReportsConfig tunes the archived-report store and its signed links.
type ReportsConfig struct {
	Dir        string
	LinkSecret string
	LinkTTL    time.Duration
	Retention  time.Duration
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

	cfg.JWT = JWTConfig{
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Attendance = AttendanceConfig{
		LateCutoff:       v.GetString("ATTENDANCE_LATE_CUTOFF"),
		TimeWindowDays:   v.GetInt("ATTENDANCE_TIME_WINDOW_DAYS"),
		CacheEnabled:     v.GetBool("ATTENDANCE_CACHE_ENABLED"),
		CacheTTL:         parseDuration(v.GetString("ATTENDANCE_CACHE_TTL"), 5*time.Minute),
		CohortMaxWorkers: v.GetInt("ATTENDANCE_COHORT_MAX_WORKERS"),
	}

	cfg.Notifications = NotificationsConfig{
		UnreadLimit:   v.GetInt("NOTIFICATIONS_UNREAD_LIMIT"),
		FanoutWorkers: v.GetInt("NOTIFICATIONS_FANOUT_WORKERS"),
	}

	cfg.Push = PushConfig{
		Enabled:         v.GetBool("PUSH_ENABLED"),
		VAPIDPublicKey:  v.GetString("PUSH_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: v.GetString("PUSH_VAPID_PRIVATE_KEY"),
		Subscriber:      v.GetString("PUSH_SUBSCRIBER"),
		TTL:             v.GetInt("PUSH_TTL"),
		Workers:         v.GetInt("PUSH_WORKERS"),
		QueueSize:       v.GetInt("PUSH_QUEUE_SIZE"),
		MaxRetries:      v.GetInt("PUSH_MAX_RETRIES"),
		RetryDelay:      parseDuration(v.GetString("PUSH_RETRY_DELAY"), 5*time.Second),
	}

	cfg.Reports = ReportsConfig{
		Dir:        v.GetString("REPORTS_DIR"),
		LinkSecret: v.GetString("REPORTS_LINK_SECRET"),
		LinkTTL:    parseDuration(v.GetString("REPORTS_LINK_TTL"), 24*time.Hour),
		Retention:  parseDuration(v.GetString("REPORTS_RETENTION"), 7*24*time.Hour),
	}
	if cfg.Reports.LinkSecret == "" {
		cfg.Reports.LinkSecret = cfg.JWT.Secret
	}

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
	v.SetDefault("DB_NAME", "keyon_parent")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "keyon-parent-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("ATTENDANCE_LATE_CUTOFF", "07:15")
	v.SetDefault("ATTENDANCE_TIME_WINDOW_DAYS", 7)
	v.SetDefault("ATTENDANCE_CACHE_ENABLED", false)
	v.SetDefault("ATTENDANCE_CACHE_TTL", "5m")
	v.SetDefault("ATTENDANCE_COHORT_MAX_WORKERS", 8)

	v.SetDefault("NOTIFICATIONS_UNREAD_LIMIT", 20)
	v.SetDefault("NOTIFICATIONS_FANOUT_WORKERS", 4)

	v.SetDefault("PUSH_ENABLED", false)
	v.SetDefault("PUSH_VAPID_PUBLIC_KEY", "")
	v.SetDefault("PUSH_VAPID_PRIVATE_KEY", "")
	v.SetDefault("PUSH_SUBSCRIBER", "mailto:soporte@keyon.example")
	v.SetDefault("PUSH_TTL", 60)
	v.SetDefault("PUSH_WORKERS", 2)
	v.SetDefault("PUSH_QUEUE_SIZE", 64)
	v.SetDefault("PUSH_MAX_RETRIES", 3)
	v.SetDefault("PUSH_RETRY_DELAY", "5s")

	v.SetDefault("REPORTS_DIR", "./reports")
	v.SetDefault("REPORTS_LINK_SECRET", "")
	v.SetDefault("REPORTS_LINK_TTL", "24h")
	v.SetDefault("REPORTS_RETENTION", "168h")
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
