// Package config loads runtime settings and opens the shared infrastructure
// (database, log output, SMTP) the API and commands depend on.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"relief-claims-api/models"
)

type Config struct {
	Environment string
	Server      ServerConfig
	Database    DatabaseConfig
	JWT         JWTConfig
	Storage     StorageConfig
	SMTP        SMTPConfig
	Workflow    WorkflowConfig
	Log         LogConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AllowedOrigins []string
	MonitorToken   string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	Username string
	Password string
	DebugSQL bool
}

// DSN returns the go-sql-driver/mysql data source name.
func (c DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.Username, c.Password, c.Host, c.Port, c.Name)
}

type JWTConfig struct {
	Secret string
	Expire time.Duration
}

type StorageConfig struct {
	Backend        string // mysql or memory
	Driver         string // local or s3
	UploadPath     string
	MaxUploadBytes int64
	S3Endpoint     string
	S3Region       string
	S3Bucket       string
	S3AccessKey    string
	S3SecretKey    string
	S3UseSSL       bool
}

type SMTPConfig struct {
	Host          string
	Port          int
	User          string
	Pass          string
	From          string
	SkipTLSVerify bool
	Workers       int
}

// Enabled reports whether officer notifications can be sent.
func (c SMTPConfig) Enabled() bool {
	return c.Host != "" && c.From != ""
}

type WorkflowConfig struct {
	MaxRetries           uint64
	RetryInitialInterval time.Duration
	RequiredDocuments    []models.DocumentCategory
}

type LogConfig struct {
	Level string
	File  string
}

// Load reads .env when present, then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv()
}

// FromEnv builds a Config from the process environment only.
func FromEnv() (*Config, error) {
	var errs []string
	fail := func(key string, err error) {
		errs = append(errs, fmt.Sprintf("%s: %v", key, err))
	}

	cfg := &Config{
		Environment: strings.ToLower(envString("ENVIRONMENT", "development")),
		Server: ServerConfig{
			Port:           envString("PORT", "8080"),
			GinMode:        envString("GIN_MODE", "debug"),
			AllowedOrigins: envList("ALLOWED_ORIGINS", []string{"http://localhost:3000"}),
			MonitorToken:   os.Getenv("MONITOR_TOKEN"),
		},
		Database: DatabaseConfig{
			Host:     envString("DB_HOST", "127.0.0.1"),
			Port:     envString("DB_PORT", "3306"),
			Name:     envString("DB_DATABASE", "relief_claims"),
			Username: envString("DB_USERNAME", "root"),
			Password: os.Getenv("DB_PASSWORD"),
		},
		JWT: JWTConfig{
			Secret: os.Getenv("JWT_SECRET"),
		},
		Storage: StorageConfig{
			Backend:     strings.ToLower(envString("STORAGE_BACKEND", "mysql")),
			Driver:      strings.ToLower(envString("STORAGE_DRIVER", "local")),
			UploadPath:  envString("UPLOAD_PATH", "./uploads"),
			S3Endpoint:  os.Getenv("S3_ENDPOINT"),
			S3Region:    envString("S3_REGION", "us-east-1"),
			S3Bucket:    os.Getenv("S3_BUCKET"),
			S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
			S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		},
		SMTP: SMTPConfig{
			Host:          os.Getenv("SMTP_HOST"),
			User:          os.Getenv("SMTP_USER"),
			Pass:          os.Getenv("SMTP_PASS"),
			From:          os.Getenv("SMTP_FROM"),
			SkipTLSVerify: os.Getenv("SMTP_SKIP_TLS_VERIFY") == "1",
		},
		Log: LogConfig{
			Level: envString("LOG_LEVEL", "info"),
			File:  envString("LOG_FILE", "logs/relief-api.log"),
		},
	}

	var err error
	if cfg.Database.DebugSQL, err = envBool("DEBUG_SQL", false); err != nil {
		fail("DEBUG_SQL", err)
	}
	if cfg.Storage.S3UseSSL, err = envBool("S3_USE_SSL", true); err != nil {
		fail("S3_USE_SSL", err)
	}
	if cfg.JWT.Expire, err = envHours("JWT_EXPIRE_HOURS", 24); err != nil {
		fail("JWT_EXPIRE_HOURS", err)
	}
	if cfg.Storage.MaxUploadBytes, err = envInt64("MAX_UPLOAD_BYTES", 10*1024*1024); err != nil {
		fail("MAX_UPLOAD_BYTES", err)
	}
	if cfg.SMTP.Port, err = envInt("SMTP_PORT", 587); err != nil {
		fail("SMTP_PORT", err)
	}
	if cfg.SMTP.Workers, err = envInt("NOTIFY_WORKERS", 2); err != nil {
		fail("NOTIFY_WORKERS", err)
	}

	retries, err := envInt("WORKFLOW_MAX_RETRIES", 5)
	if err != nil || retries < 0 {
		fail("WORKFLOW_MAX_RETRIES", fmt.Errorf("must be a non-negative integer"))
	}
	cfg.Workflow.MaxRetries = uint64(retries)

	if cfg.Workflow.RetryInitialInterval, err = time.ParseDuration(envString("WORKFLOW_RETRY_INTERVAL", "20ms")); err != nil {
		fail("WORKFLOW_RETRY_INTERVAL", err)
	}

	for _, name := range envList("REQUIRED_DOCUMENTS", nil) {
		category := models.DocumentCategory(name)
		if !category.Valid() {
			fail("REQUIRED_DOCUMENTS", fmt.Errorf("unknown document category %q", name))
			continue
		}
		cfg.Workflow.RequiredDocuments = append(cfg.Workflow.RequiredDocuments, category)
	}

	switch cfg.Storage.Driver {
	case "local":
	case "s3":
		if cfg.Storage.S3Bucket == "" {
			fail("S3_BUCKET", fmt.Errorf("required when STORAGE_DRIVER=s3"))
		}
	default:
		fail("STORAGE_DRIVER", fmt.Errorf("unsupported driver %q", cfg.Storage.Driver))
	}

	switch cfg.Storage.Backend {
	case "mysql":
	case "memory":
		if cfg.Environment == "production" {
			fail("STORAGE_BACKEND", fmt.Errorf("memory backend is not allowed in production"))
		}
	default:
		fail("STORAGE_BACKEND", fmt.Errorf("unsupported backend %q", cfg.Storage.Backend))
	}

	if cfg.Environment == "production" && cfg.JWT.Secret == "" {
		fail("JWT_SECRET", fmt.Errorf("required in production"))
	}

	if len(errs) > 0 {
		return nil, fmt.Errorf("invalid configuration: %s", strings.Join(errs, "; "))
	}
	return cfg, nil
}

func envString(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func envList(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func envInt(key string, fallback int) (int, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	return strconv.Atoi(raw)
}

func envInt64(key string, fallback int64) (int64, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func envBool(key string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback, nil
	}
	return strconv.ParseBool(raw)
}

func envHours(key string, fallback int) (time.Duration, error) {
	h, err := envInt(key, fallback)
	if err != nil {
		return 0, err
	}
	return time.Duration(h) * time.Hour, nil
}
