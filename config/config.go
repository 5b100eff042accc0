package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"workforce-scheduler/forecaster"
	"workforce-scheduler/models"
)

// EnvPrefix is prepended to every environment variable name.
const EnvPrefix = "WFM_"

// Config holds all configuration for the application
type Config struct {
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat   string `env:"LOG_FORMAT" envDefault:"console" validate:"oneof=console json"`
	Timezone    string `env:"TIMEZONE" envDefault:"UTC" validate:"required"`
	DBPath      string `env:"DB_PATH" envDefault:"workforce.db"`
	Workers     int    `env:"WORKERS" envDefault:"0" validate:"gte=0"`
	MetricsAddr string `env:"METRICS_ADDR"`
	PushURL     string `env:"PUSH_URL" validate:"omitempty,url"`

	Forecast struct {
		GranularityMinutes    int     `env:"GRANULARITY_MINUTES" envDefault:"30" validate:"gt=0,lte=1440"`
		LookbackWeeks         int     `env:"LOOKBACK_WEEKS" envDefault:"4" validate:"gt=0"`
		ServiceLevel          float64 `env:"SERVICE_LEVEL" envDefault:"0.80" validate:"gte=0,lte=1"`
		AnswerTimeSeconds     int     `env:"ANSWER_TIME_SECONDS" envDefault:"20" validate:"gte=0"`
		Shrinkage             float64 `env:"SHRINKAGE" envDefault:"0.25" validate:"gte=0,lt=1"`
		Occupancy             float64 `env:"OCCUPANCY" envDefault:"0.85" validate:"gt=0,lte=1"`
		ConfidenceIntervalPct float64 `env:"CONFIDENCE_PCT" envDefault:"0.15" validate:"gte=0,lte=1"`
	} `envPrefix:"FORECAST_"`

	Constraints struct {
		MaxHoursPerDay      float64 `env:"MAX_HOURS_PER_DAY" envDefault:"8" validate:"gt=0"`
		MaxConsecutiveHours float64 `env:"MAX_CONSECUTIVE_HOURS" envDefault:"6" validate:"gt=0"`
		EfficiencyWeight    float64 `env:"EFFICIENCY_WEIGHT" envDefault:"3.0" validate:"gt=0"`
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load loads configuration from the environment, reading .env if present.
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.ParseWithOptions(cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		aggErr := env.AggregateError{}
		if errors.As(err, &aggErr) && len(aggErr.Errors) > 0 {
			// the first error is enough to act on
			return nil, fmt.Errorf("invalid configuration: %w", aggErr.Errors[0])
		}
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges and that the timezone exists.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if _, err := c.Location(); err != nil {
		return fmt.Errorf("invalid configuration: timezone %q: %w", c.Timezone, err)
	}
	return nil
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// ForecastParams returns the forecasting defaults as forecaster parameters.
func (c *Config) ForecastParams() forecaster.Params {
	return forecaster.Params{
		GranularityMinutes:      c.Forecast.GranularityMinutes,
		LookbackWeeks:           c.Forecast.LookbackWeeks,
		TargetServiceLevel:      c.Forecast.ServiceLevel,
		TargetAnswerTimeSeconds: c.Forecast.AnswerTimeSeconds,
		ShrinkageFactor:         c.Forecast.Shrinkage,
		TargetOccupancy:         c.Forecast.Occupancy,
		ConfidenceIntervalPct:   c.Forecast.ConfidenceIntervalPct,
	}
}

// SchedulingConstraints returns the configured optimizer constraints.
func (c *Config) SchedulingConstraints() models.Constraints {
	return models.Constraints{
		MaxHoursPerDay:      c.Constraints.MaxHoursPerDay,
		MaxConsecutiveHours: c.Constraints.MaxConsecutiveHours,
		EfficiencyWeight:    c.Constraints.EfficiencyWeight,
	}
}
