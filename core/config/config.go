package config

import (
	"os"
	"path/filepath"
	"strings"
)

// Config holds all application configuration in a structured way.
type Config struct {
	App        AppConfig
	Paths      PathsConfig
	Database   DatabaseConfig
	Push       PushConfig
	Scheduler  SchedulerConfig
	Laundry    LaundryConfig
	WorkerPool WorkerPoolConfig
	Security   SecurityConfig
}

type AppConfig struct {
	Version            string
	Port               string
	Debug              bool
	Environment        string
	BasePath           string
	TrustedProxies     []string
	CorsAllowedOrigins []string
}

type PathsConfig struct {
	BaseDir  string
	Storages string
}

type DatabaseConfig struct {
	Driver   string
	Host     string
	Port     int
	User     string
	Password string
	Name     string // File path for SQLite, DB name for Postgres
}

type PushConfig struct {
	Enabled         bool
	CredentialsFile string
	BatchSize       int
	MaxRetries      int
	RetryBaseMs     int
	CallTimeoutMs   int
}

type SchedulerConfig struct {
	SyncIntervalSeconds int
}

type LaundryConfig struct {
	// DefaultCycleMinutes is the per-reservation wait estimate used when a
	// room's queue length is folded into the estimated wait.
	DefaultCycleMinutes int
}

type WorkerPoolConfig struct {
	Size      int
	QueueSize int
}

type SecurityConfig struct {
	SecretKey string
	DeviceKey string
}

// Global provides access to the loaded configuration globally.
var Global *Config

// LoadConfig loads configuration from environment variables or defaults.
func LoadConfig() (*Config, error) {
	baseDir := getEnv("APP_BASE_DIR", "storages")

	debug := false
	if v := os.Getenv("APP_DEBUG"); v == "true" || v == "1" || v == "on" {
		debug = true
	}

	corsOrigins := []string{"http://localhost:3000", "http://localhost:5173"}
	if v := os.Getenv("APP_CORS_ALLOWED_ORIGINS"); v != "" {
		corsOrigins = strings.Split(v, ",")
	}

	appCfg := AppConfig{
		Version:            "v1.2.0",
		Port:               getEnv("APP_PORT", "3000"),
		Debug:              debug,
		Environment:        getEnv("APP_ENV", "development"),
		BasePath:           getEnv("APP_BASE_PATH", ""),
		CorsAllowedOrigins: corsOrigins,
	}
	if v := os.Getenv("APP_TRUSTED_PROXIES"); v != "" {
		appCfg.TrustedProxies = strings.Split(v, ",")
	}

	pathsCfg := PathsConfig{
		BaseDir:  baseDir,
		Storages: baseDir,
	}

	dbCfg := DatabaseConfig{
		Driver:   getEnv("DB_DRIVER", "sqlite"),
		Name:     getEnv("DB_NAME", filepath.Join(pathsCfg.Storages, "washday.db")),
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnvInt("DB_PORT", 5432),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
	}

	pushCfg := PushConfig{
		Enabled:         getEnvBool("PUSH_ENABLED", true),
		CredentialsFile: getEnv("PUSH_CREDENTIALS_FILE", ""),
		BatchSize:       getEnvInt("PUSH_BATCH_SIZE", 500),
		MaxRetries:      getEnvInt("PUSH_MAX_RETRIES", 3),
		RetryBaseMs:     getEnvInt("PUSH_RETRY_BASE_MS", 1000),
		CallTimeoutMs:   getEnvInt("PUSH_CALL_TIMEOUT_MS", 10000),
	}

	cfg := &Config{
		App:       appCfg,
		Paths:     pathsCfg,
		Database:  dbCfg,
		Push:      pushCfg,
		Scheduler: SchedulerConfig{SyncIntervalSeconds: getEnvInt("SYNC_INTERVAL_SECONDS", 60)},
		Laundry:   LaundryConfig{DefaultCycleMinutes: getEnvInt("LAUNDRY_DEFAULT_CYCLE_MINUTES", 50)},
		WorkerPool: WorkerPoolConfig{
			Size:      getEnvInt("EVENT_WORKER_POOL_SIZE", 8),
			QueueSize: getEnvInt("EVENT_WORKER_QUEUE_SIZE", 256),
		},
		Security: SecurityConfig{
			SecretKey: getEnv("APP_SECRET_KEY", "changeme_please_change_me_in_prod_12345"),
			DeviceKey: getEnv("DEVICE_KEY", ""),
		},
	}

	Global = cfg
	return cfg, nil
}
