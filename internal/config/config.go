package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds runtime configuration values for the API service.
type Config struct {
	AppName                string
	AppEnv                 string
	AppPort                string
	CORSAllowOrigins       string
	DatabaseURL            string
	RedisURL               string
	JWTSecret              string
	TokenTTL               time.Duration
	CloudinaryCloudName    string
	CloudinaryAPIKey       string
	CloudinaryAPISecret    string
	CloudinaryUploadFolder string
	StorageDriver          string
	StorageLocalDir        string
	DashboardCacheTTL      time.Duration
	AuditRetention         int
	LoginRateLimit         int
	LoginRateWindow        time.Duration
	BootstrapAdminName     string
	BootstrapAdminEmail    string
	BootstrapAdminPassword string
}

// HTTPAddress returns the address the HTTP server should listen on.
func (c Config) HTTPAddress() string {
	if strings.HasPrefix(c.AppPort, ":") {
		return c.AppPort
	}

	return fmt.Sprintf(":%s", c.AppPort)
}

// Load reads configuration values from environment variables and optional .env file.
func Load() (Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("QPFLOW")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("app.name", "QPFlow API")
	v.SetDefault("app.env", "development")
	v.SetDefault("app.port", "8080")
	v.SetDefault("cors.allow_origins", "*")
	v.SetDefault("token.ttl", "24h")
	v.SetDefault("storage.driver", "local")
	v.SetDefault("storage.local_dir", "./uploads")
	v.SetDefault("cloudinary.folder", "qpflow/documents")
	v.SetDefault("dashboard.cache_ttl", "2m")
	v.SetDefault("audit.retention", 10000)
	v.SetDefault("login.rate_limit", 10)
	v.SetDefault("login.rate_window", "1m")

	tokenTTL, err := time.ParseDuration(v.GetString("token.ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid token ttl: %w", err)
	}

	cacheTTL, err := time.ParseDuration(v.GetString("dashboard.cache_ttl"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid dashboard cache ttl: %w", err)
	}

	rateWindow, err := time.ParseDuration(v.GetString("login.rate_window"))
	if err != nil {
		return Config{}, fmt.Errorf("invalid login rate window: %w", err)
	}

	cfg := Config{
		AppName:                v.GetString("app.name"),
		AppEnv:                 v.GetString("app.env"),
		AppPort:                v.GetString("app.port"),
		CORSAllowOrigins:       v.GetString("cors.allow_origins"),
		DatabaseURL:            v.GetString("database.url"),
		RedisURL:               v.GetString("redis.url"),
		JWTSecret:              v.GetString("jwt.secret"),
		TokenTTL:               tokenTTL,
		CloudinaryCloudName:    v.GetString("cloudinary.cloud_name"),
		CloudinaryAPIKey:       v.GetString("cloudinary.api_key"),
		CloudinaryAPISecret:    v.GetString("cloudinary.api_secret"),
		CloudinaryUploadFolder: v.GetString("cloudinary.folder"),
		StorageDriver:          strings.ToLower(v.GetString("storage.driver")),
		StorageLocalDir:        v.GetString("storage.local_dir"),
		DashboardCacheTTL:      cacheTTL,
		AuditRetention:         v.GetInt("audit.retention"),
		LoginRateLimit:         v.GetInt("login.rate_limit"),
		LoginRateWindow:        rateWindow,
		BootstrapAdminName:     v.GetString("bootstrap.admin_name"),
		BootstrapAdminEmail:    v.GetString("bootstrap.admin_email"),
		BootstrapAdminPassword: v.GetString("bootstrap.admin_password"),
	}

	if cfg.JWTSecret == "" {
		return Config{}, fmt.Errorf("jwt secret must be provided")
	}

	if cfg.AuditRetention <= 0 {
		cfg.AuditRetention = 10000
	}

	return cfg, nil
}
