// Package daemon manages the clickquest daemon lifecycle and configuration.
package daemon

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/clickquest/clickquest/internal/app/engagement"
)

// EnvPrefix prefixes every environment override, e.g. CLICKQUEST_API_PORT.
const EnvPrefix = "CLICKQUEST_"

// Config holds all daemon configuration.
type Config struct {
	API        APIConfig        `toml:"api" envPrefix:"API_"`
	Storage    StorageConfig    `toml:"storage" envPrefix:"STORAGE_"`
	Decay      DecayConfig      `toml:"decay" envPrefix:"DECAY_"`
	Engagement EngagementConfig `toml:"engagement" envPrefix:"ENGAGEMENT_"`
	Logging    LoggingConfig    `toml:"logging" envPrefix:"LOG_"`
	Telemetry  TelemetryConfig  `toml:"telemetry" envPrefix:"TELEMETRY_"`
}

// APIConfig controls the HTTP API server.
type APIConfig struct {
	Host        string   `toml:"host" env:"HOST" validate:"required"`
	Port        int      `toml:"port" env:"PORT" validate:"min=1,max=65535"`
	CORSOrigins []string `toml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
}

// StorageConfig controls where the SQLite database lives.
type StorageConfig struct {
	Dir string `toml:"dir" env:"DIR" validate:"required"`
}

// DecayConfig controls inactivity decay.
type DecayConfig struct {
	GraceWeeks    int           `toml:"grace_weeks" env:"GRACE_WEEKS" validate:"gte=0"`
	PointsPerDay  int64         `toml:"points_per_day" env:"POINTS_PER_DAY" validate:"gte=0"`
	SweepInterval time.Duration `toml:"sweep_interval" env:"SWEEP_INTERVAL" validate:"gte=1s"`
}

// EngagementConfig controls calendar and time-of-day rules.
type EngagementConfig struct {
	Timezone          string `toml:"timezone" env:"TIMEZONE" validate:"required"`
	EarlyMorningHour  int    `toml:"early_morning_hour" env:"EARLY_MORNING_HOUR" validate:"gte=0,lte=24"`
	LateNightHour     int    `toml:"late_night_hour" env:"LATE_NIGHT_HOUR" validate:"gte=0,lte=24"`
	MorningCutoffHour int    `toml:"morning_cutoff_hour" env:"MORNING_CUTOFF_HOUR" validate:"gte=1,lte=24"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `toml:"level" env:"LEVEL" validate:"oneof=debug info warn error"`
	Format string `toml:"format" env:"FORMAT" validate:"oneof=json console"`
}

// TelemetryConfig controls the metrics endpoint.
type TelemetryConfig struct {
	Prometheus bool `toml:"prometheus" env:"PROMETHEUS"`
}

// DefaultConfig returns a sensible default configuration.
func DefaultConfig() Config {
	return defaultConfigIn(clickquestHome())
}

func defaultConfigIn(home string) Config {
	decay := engagement.DefaultDecayPolicy()
	settings := engagement.DefaultSettings()
	return Config{
		API: APIConfig{
			Host:        "127.0.0.1",
			Port:        8420,
			CORSOrigins: []string{"*"},
		},
		Storage: StorageConfig{
			Dir: home,
		},
		Decay: DecayConfig{
			GraceWeeks:    decay.GraceWeeks,
			PointsPerDay:  decay.PointsPerDay,
			SweepInterval: time.Hour,
		},
		Engagement: EngagementConfig{
			Timezone:          "Local",
			EarlyMorningHour:  settings.EarlyMorningHour,
			LateNightHour:     settings.LateNightHour,
			MorningCutoffHour: settings.MorningCutoffHour,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Telemetry: TelemetryConfig{
			Prometheus: true,
		},
	}
}

// LoadConfig reads config from ~/.clickquest, falling back to defaults.
func LoadConfig() (Config, error) {
	return LoadConfigFrom(clickquestHome())
}

// LoadConfigFrom builds the config for home: defaults, then
// home/config.toml if present, then CLICKQUEST_* environment variables
// (including any set by home/.env). The result is validated.
func LoadConfigFrom(home string) (Config, error) {
	cfg := defaultConfigIn(home)

	if err := godotenv.Load(filepath.Join(home, ".env")); err != nil && !errors.Is(err, os.ErrNotExist) {
		return cfg, fmt.Errorf("load .env: %w", err)
	}

	path := filepath.Join(home, "config.toml")
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return cfg, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// Validate checks field ranges and that the timezone resolves.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid config: timezone %q: %w", c.Engagement.Timezone, err)
	}
	return nil
}

// Location resolves the configured timezone.
func (c Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Engagement.Timezone)
}

// Settings converts the config into engagement settings.
func (c Config) Settings() (engagement.Settings, error) {
	loc, err := c.Location()
	if err != nil {
		return engagement.Settings{}, err
	}
	return engagement.Settings{
		Location: loc,
		Decay: engagement.DecayPolicy{
			GraceWeeks:   c.Decay.GraceWeeks,
			PointsPerDay: c.Decay.PointsPerDay,
		},
		EarlyMorningHour:  c.Engagement.EarlyMorningHour,
		LateNightHour:     c.Engagement.LateNightHour,
		MorningCutoffHour: c.Engagement.MorningCutoffHour,
	}, nil
}

// SaveConfig writes the config to <storage dir>/config.toml.
func SaveConfig(cfg Config) error {
	path := filepath.Join(cfg.Storage.Dir, "config.toml")
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	encoder := toml.NewEncoder(f)
	return encoder.Encode(cfg)
}

// clickquestHome returns the clickquest data directory.
func clickquestHome() string {
	if dir := os.Getenv("CLICKQUEST_HOME"); dir != "" {
		return dir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".clickquest")
}

// Home is exported for use by other packages.
func Home() string {
	return clickquestHome()
}
