// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Environments.
const (
	EnvDevelopment = "development"
	EnvTest        = "test"
	EnvProduction  = "production"
)

// Rate limit backends.
const (
	RateLimitRedis  = "redis"
	RateLimitMemory = "memory"
	RateLimitOff    = "off"
)

// MinSecretLength is the minimum length of each signing secret.
const MinSecretLength = 32

// Config is the full service configuration.
type Config struct {
	Env      string
	Port     int
	LogLevel string

	DatabaseURL string

	Redis RedisConfig
	MinIO MinIOConfig
	JWT   JWTConfig

	RevocationTimeout time.Duration
	HealthTimeout     time.Duration
	RateLimitBackend  string
	CORSOrigins       string

	Seed SeedConfig
}

// RedisConfig holds Redis connection settings.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// MinIOConfig holds object storage settings.
type MinIOConfig struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// JWTConfig holds token signing settings.
type JWTConfig struct {
	AccessSecret  string
	AccessTTL     time.Duration
	RefreshSecret string
	RefreshTTL    time.Duration
}

// SeedConfig holds development seed settings.
type SeedConfig struct {
	DevUsers        bool
	AdminUsername   string
	AdminPassword   string
	UserUsername    string
	UserPassword    string
	DeletedUsername string
	DeletedPassword string
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// Load reads configuration from environment variables. It does not validate.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		Env:         strings.ToLower(v.GetString("app_env")),
		Port:        v.GetInt("app_port"),
		LogLevel:    v.GetString("log_level"),
		DatabaseURL: v.GetString("database_url"),
		Redis: RedisConfig{
			Addr:     v.GetString("redis_addr"),
			Password: v.GetString("redis_password"),
			DB:       v.GetInt("redis_db"),
		},
		MinIO: MinIOConfig{
			Endpoint:  v.GetString("minio_endpoint"),
			AccessKey: v.GetString("minio_access_key"),
			SecretKey: v.GetString("minio_secret_key"),
			Bucket:    v.GetString("minio_bucket"),
			UseSSL:    v.GetBool("minio_use_ssl"),
		},
		JWT: JWTConfig{
			AccessSecret:  v.GetString("jwt_secret"),
			AccessTTL:     time.Duration(v.GetInt64("jwt_expires_in")) * time.Second,
			RefreshSecret: v.GetString("jwt_refresh_secret"),
			RefreshTTL:    time.Duration(v.GetInt64("jwt_refresh_expires_in")) * time.Second,
		},
		RevocationTimeout: v.GetDuration("revocation_timeout"),
		HealthTimeout:     v.GetDuration("health_timeout"),
		RateLimitBackend:  strings.ToLower(v.GetString("rate_limit_backend")),
		CORSOrigins:       v.GetString("cors_origin"),
		Seed: SeedConfig{
			DevUsers:        v.GetBool("seed_dev_users"),
			AdminUsername:   v.GetString("seed_admin_username"),
			AdminPassword:   v.GetString("seed_admin_password"),
			UserUsername:    v.GetString("seed_user_username"),
			UserPassword:    v.GetString("seed_user_password"),
			DeletedUsername: v.GetString("seed_deleted_username"),
			DeletedPassword: v.GetString("seed_deleted_password"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app_env", EnvDevelopment)
	v.SetDefault("app_port", 3000)
	v.SetDefault("log_level", "info")
	v.SetDefault("redis_addr", "localhost:6379")
	v.SetDefault("redis_db", 0)
	v.SetDefault("minio_use_ssl", false)
	v.SetDefault("jwt_expires_in", 900)
	v.SetDefault("jwt_refresh_expires_in", 2592000)
	v.SetDefault("revocation_timeout", 500*time.Millisecond)
	v.SetDefault("health_timeout", 2*time.Second)
	v.SetDefault("rate_limit_backend", RateLimitRedis)
	v.SetDefault("cors_origin", "http://localhost:5173")

	v.SetDefault("seed_dev_users", false)
	v.SetDefault("seed_admin_username", "admin")
	v.SetDefault("seed_admin_password", "admin12345")
	v.SetDefault("seed_user_username", "user")
	v.SetDefault("seed_user_password", "user12345")
	v.SetDefault("seed_deleted_username", "deleted")
	v.SetDefault("seed_deleted_password", "deleted12345")
}

// Validate checks the settings the API server cannot run without.
func (c *Config) Validate() error {
	var errs []error

	switch c.Env {
	case EnvDevelopment, EnvTest, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("APP_ENV: unknown environment %q", c.Env))
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("APP_PORT: %d out of range", c.Port))
	}
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.Redis.Addr == "" {
		errs = append(errs, errors.New("REDIS_ADDR is required"))
	}
	if c.MinIO.Endpoint == "" || c.MinIO.Bucket == "" {
		errs = append(errs, errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required"))
	}

	if len(c.JWT.AccessSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_SECRET must be at least %d characters", MinSecretLength))
	}
	if len(c.JWT.RefreshSecret) < MinSecretLength {
		errs = append(errs, fmt.Errorf("JWT_REFRESH_SECRET must be at least %d characters", MinSecretLength))
	}
	if c.JWT.AccessSecret != "" && c.JWT.AccessSecret == c.JWT.RefreshSecret {
		errs = append(errs, errors.New("JWT_REFRESH_SECRET must differ from JWT_SECRET"))
	}
	if c.JWT.AccessTTL <= 0 || c.JWT.RefreshTTL <= 0 {
		errs = append(errs, errors.New("JWT_EXPIRES_IN and JWT_REFRESH_EXPIRES_IN must be positive"))
	}
	if c.RevocationTimeout <= 0 {
		errs = append(errs, errors.New("REVOCATION_TIMEOUT must be positive"))
	}

	switch c.RateLimitBackend {
	case RateLimitRedis, RateLimitMemory, RateLimitOff:
	default:
		errs = append(errs, fmt.Errorf("RATE_LIMIT_BACKEND: unknown backend %q", c.RateLimitBackend))
	}

	return errors.Join(errs...)
}
