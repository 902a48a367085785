package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Host string
	Port int
}

type DBConfig struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

type AuthConfig struct {
	AccessSecret string
}

type AIConfig struct {
	BaseURL      string
	Timeout      time.Duration
	MaxRetries   int
	MockFallback bool
}

type GeofenceConfig struct {
	RadiusMeters float64
	Enforced     bool
}

type GeocodeConfig struct {
	Enabled    bool
	BaseURL    string
	UserAgent  string
	MaxRetries int
}

type MediaConfig struct {
	Dir          string
	MaxImageSize int64
}

type CleanupConfig struct {
	// Time of day, "HH:MM", at which unsubmitted drafts are purged.
	At string
}

type Config struct {
	Environment string
	HTTP        HTTPConfig
	DB          DBConfig
	Auth        AuthConfig
	AI          AIConfig
	Geofence    GeofenceConfig
	Geocode     GeocodeConfig
	Media       MediaConfig
	Cleanup     CleanupConfig
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AddConfigPath("./internal/config")

	v.AutomaticEnv()

	_ = v.ReadInConfig()

	cfg := &Config{
		Environment: v.GetString("APP_ENV"),
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DSN:             v.GetString("DB_DSN"),
			MaxOpenConns:    v.GetInt("DB_MAX_OPEN_CONNS"),
			MaxIdleConns:    v.GetInt("DB_MAX_IDLE_CONNS"),
			ConnMaxLifetime: v.GetDuration("DB_CONN_MAX_LIFETIME"),
		},
		Auth: AuthConfig{
			AccessSecret: v.GetString("JWT_ACCESS_SECRET"),
		},
		AI: AIConfig{
			BaseURL:      v.GetString("AI_BASE_URL"),
			Timeout:      v.GetDuration("AI_TIMEOUT"),
			MaxRetries:   v.GetInt("AI_MAX_RETRIES"),
			MockFallback: v.GetBool("AI_MOCK_FALLBACK"),
		},
		Geofence: GeofenceConfig{
			RadiusMeters: v.GetFloat64("GEOFENCE_RADIUS_M"),
			Enforced:     v.GetBool("GEOFENCE_ENFORCED"),
		},
		Geocode: GeocodeConfig{
			Enabled:    v.GetBool("GEOCODE_ENABLED"),
			BaseURL:    v.GetString("GEOCODE_BASE_URL"),
			UserAgent:  v.GetString("GEOCODE_USER_AGENT"),
			MaxRetries: v.GetInt("GEOCODE_MAX_RETRIES"),
		},
		Media: MediaConfig{
			Dir:          v.GetString("MEDIA_DIR"),
			MaxImageSize: v.GetInt64("MEDIA_MAX_IMAGE_BYTES"),
		},
		Cleanup: CleanupConfig{
			At: v.GetString("CLEANUP_TIME"),
		},
	}

	if cfg.HTTP.Host == "" {
		cfg.HTTP.Host = "0.0.0.0"
	}
	if cfg.HTTP.Port == 0 {
		cfg.HTTP.Port = 8086
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.AI.Timeout <= 0 {
		cfg.AI.Timeout = 60 * time.Second
	}
	if cfg.AI.MaxRetries <= 0 {
		cfg.AI.MaxRetries = 3
	}
	if cfg.Geofence.RadiusMeters <= 0 {
		cfg.Geofence.RadiusMeters = 50
	}
	if cfg.Media.Dir == "" {
		cfg.Media.Dir = "./media"
	}
	if cfg.Media.MaxImageSize <= 0 {
		cfg.Media.MaxImageSize = 5 << 20
	}
	if cfg.Cleanup.At == "" {
		cfg.Cleanup.At = "23:55"
	}

	if err := validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

func validate(cfg *Config) error {
	if cfg.DB.DSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	if cfg.Auth.AccessSecret == "" {
		return fmt.Errorf("JWT_ACCESS_SECRET is required")
	}
	if cfg.AI.BaseURL == "" && !cfg.AI.MockFallback {
		return fmt.Errorf("AI_BASE_URL is required unless AI_MOCK_FALLBACK is enabled")
	}
	if _, err := time.Parse("15:04", cfg.Cleanup.At); err != nil {
		return fmt.Errorf("CLEANUP_TIME must be HH:MM: %w", err)
	}
	return nil
}
