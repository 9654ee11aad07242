package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

type Config struct {
	// Database
	DBHost     string `env:"DB_HOST" envDefault:"localhost"`
	DBPort     string `env:"DB_PORT" envDefault:"5432"`
	DBUser     string `env:"DB_USER" envDefault:"postgres"`
	DBPassword string `env:"DB_PASSWORD"`
	DBName     string `env:"DB_NAME" envDefault:"ablelink_db"`
	DBSSLMode  string `env:"DB_SSLMODE" envDefault:"disable"`

	// JWT (tokens are issued by the auth service, verified here)
	JWTSecret string `env:"JWT_SECRET"`

	// Server
	Port        string `env:"PORT" envDefault:"8080"`
	CORSOrigins string `env:"CORS_ORIGINS" envDefault:"*"`
	AppEnv      string `env:"APP_ENV" envDefault:"development"`
	SentryDSN   string `env:"SENTRY_DSN"`

	// Narration
	TTSCommand     string        `env:"TTS_COMMAND"`
	NarrationRate  float64       `env:"NARRATION_RATE" envDefault:"0.8"`
	NarrationPitch float64       `env:"NARRATION_PITCH" envDefault:"1"`
	NarrationPause time.Duration `env:"NARRATION_PAUSE" envDefault:"300ms"`

	// Progress aggregation
	ProgressWindowDays   int     `env:"PROGRESS_WINDOW_DAYS" envDefault:"7"`
	ProgressTaskWeight   float64 `env:"PROGRESS_TASK_WEIGHT" envDefault:"0.5"`
	AggregateConcurrency int     `env:"AGGREGATE_CONCURRENCY" envDefault:"8"`

	// Client sessions
	SessionIdleTimeout time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	SessionMax         int           `env:"SESSION_MAX" envDefault:"1000"`

	// Host-level ambient preferences, used when a client sends no hints
	AmbientHighContrast  bool `env:"AMBIENT_HIGH_CONTRAST" envDefault:"false"`
	AmbientReducedMotion bool `env:"AMBIENT_REDUCED_MOTION" envDefault:"false"`
}

func Load() (*Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.ProgressWindowDays < 1 {
		return fmt.Errorf("PROGRESS_WINDOW_DAYS must be at least 1, got %d", c.ProgressWindowDays)
	}
	if c.ProgressTaskWeight < 0 || c.ProgressTaskWeight > 1 {
		return fmt.Errorf("PROGRESS_TASK_WEIGHT must be within [0,1], got %v", c.ProgressTaskWeight)
	}
	if c.NarrationPause < 0 {
		return fmt.Errorf("NARRATION_PAUSE must not be negative")
	}
	if c.SessionIdleTimeout <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.SessionMax < 1 {
		return fmt.Errorf("SESSION_MAX must be at least 1, got %d", c.SessionMax)
	}
	if c.AggregateConcurrency < 1 {
		c.AggregateConcurrency = 1
	}
	return nil
}

func (c *Config) DSN() string {
	return "host=" + c.DBHost +
		" user=" + c.DBUser +
		" password=" + c.DBPassword +
		" dbname=" + c.DBName +
		" port=" + c.DBPort +
		" sslmode=" + c.DBSSLMode +
		" TimeZone=UTC"
}
