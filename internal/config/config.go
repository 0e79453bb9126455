package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

// Config is built once at startup and passed by value or pointer to every
// component that needs it. Nothing below cmd/ reads the environment.
type Config struct {
	Env         string
	Port        string
	LogLevel    string
	CORSOrigins []string
	DB          DBConfig
	Auth        AuthConfig
	Upload      UploadConfig
}

type DBConfig struct {
	URL             string
	Host            string
	Port            string
	User            string
	Password        string
	Name            string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	Secret     string
	TokenTTL   time.Duration
	BcryptCost int
}

type UploadConfig struct {
	Dir          string
	BaseURL      string
	MaxBytes     int64
	MaxFiles     int
	AllowedTypes []string

	GCSBucket          string
	GCSCredentialsFile string
	GCSPublicBaseURL   string
}

// UseRemote reports whether uploads go to the remote asset host.
func (u UploadConfig) UseRemote() bool {
	return u.GCSBucket != ""
}

const devSecret = "dev-jwt-secret-change-me"

func Load() (Config, error) {
	port := envString("PORT", "8080")

	cfg := Config{
		Env:         strings.ToLower(envString("APP_ENV", EnvDevelopment)),
		Port:        port,
		LogLevel:    envString("LOG_LEVEL", "info"),
		CORSOrigins: envList("CORS_ORIGINS", []string{"*"}),
		DB: DBConfig{
			URL:             envString("DATABASE_URL", ""),
			Host:            envString("DB_HOST", "localhost"),
			Port:            envString("DB_PORT", "5432"),
			User:            envString("DB_USER", "postgres"),
			Password:        envString("DB_PASSWORD", ""),
			Name:            envString("DB_NAME", "blog"),
			SSLMode:         envString("DB_SSLMODE", "disable"),
			MaxOpenConns:    envInt("DB_MAX_OPEN_CONNS", 100),
			MaxIdleConns:    envInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetime: envDuration("DB_CONN_MAX_LIFETIME", time.Hour),
		},
		Auth: AuthConfig{
			Secret:     envString("JWT_SECRET", ""),
			TokenTTL:   envDuration("JWT_TTL", 7*24*time.Hour),
			BcryptCost: envInt("BCRYPT_COST", 10),
		},
		Upload: UploadConfig{
			Dir:                envString("UPLOAD_DIR", "uploads"),
			BaseURL:            strings.TrimRight(envString("UPLOAD_BASE_URL", "http://localhost:"+port+"/uploads"), "/"),
			MaxBytes:           envInt64("UPLOAD_MAX_BYTES", 5<<20),
			MaxFiles:           envInt("UPLOAD_MAX_FILES", 5),
			AllowedTypes:       []string{"image/jpeg", "image/png", "image/gif", "image/webp"},
			GCSBucket:          envString("GCS_BUCKET", ""),
			GCSCredentialsFile: envString("GCS_CREDENTIALS_FILE", ""),
			GCSPublicBaseURL:   envString("GCS_PUBLIC_BASE_URL", ""),
		},
	}

	if cfg.Upload.UseRemote() && cfg.Upload.GCSPublicBaseURL == "" {
		cfg.Upload.GCSPublicBaseURL = "https://storage.googleapis.com/" + cfg.Upload.GCSBucket
	}
	cfg.Upload.GCSPublicBaseURL = strings.TrimRight(cfg.Upload.GCSPublicBaseURL, "/")

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.Auth.Secret == "" {
		if c.IsProduction() {
			return errors.New("JWT_SECRET must be set in production")
		}
		c.Auth.Secret = devSecret
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("JWT_TTL must be positive, got %s", c.Auth.TokenTTL)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("UPLOAD_MAX_BYTES must be positive, got %d", c.Upload.MaxBytes)
	}
	if c.Upload.MaxFiles <= 0 {
		return fmt.Errorf("UPLOAD_MAX_FILES must be positive, got %d", c.Upload.MaxFiles)
	}
	return nil
}

func (c Config) IsProduction() bool {
	return c.Env == EnvProduction
}

// DSN returns DATABASE_URL when set, otherwise a key/value DSN built from the
// individual DB_* settings.
func (d DBConfig) DSN() string {
	if d.URL != "" {
		return d.URL
	}
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=UTC",
		d.Host, d.User, d.Password, d.Name, d.Port, d.SSLMode,
	)
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func envInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			return n
		}
	}
	return def
}

func envDuration(key string, def time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func envList(key string, def []string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
