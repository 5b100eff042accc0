package config_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce-scheduler/config"
	wfmerrors "workforce-scheduler/errors"
	"workforce-scheduler/forecaster"
	"workforce-scheduler/models"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "console", cfg.LogFormat)
	assert.Equal(t, "UTC", cfg.Timezone)
	assert.Equal(t, "workforce.db", cfg.DBPath)
	assert.Zero(t, cfg.Workers)
	assert.Empty(t, cfg.MetricsAddr)
	assert.Equal(t, forecaster.DefaultParams(), cfg.ForecastParams())
	assert.Equal(t, models.DefaultConstraints(), cfg.SchedulingConstraints())
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("WFM_LOG_FORMAT", "json")
	t.Setenv("WFM_TIMEZONE", "America/New_York")
	t.Setenv("WFM_WORKERS", "4")
	t.Setenv("WFM_FORECAST_SHRINKAGE", "0.3")
	t.Setenv("WFM_FORECAST_GRANULARITY_MINUTES", "15")
	t.Setenv("WFM_MAX_HOURS_PER_DAY", "6")
	t.Setenv("WFM_EFFICIENCY_WEIGHT", "2.5")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 4, cfg.Workers)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "America/New_York", loc.String())

	params := cfg.ForecastParams()
	assert.Equal(t, 0.3, params.ShrinkageFactor)
	assert.Equal(t, 15, params.GranularityMinutes)
	assert.Equal(t, 4, params.LookbackWeeks)

	constraints := cfg.SchedulingConstraints()
	assert.Equal(t, 6.0, constraints.MaxHoursPerDay)
	assert.Equal(t, models.DefaultMaxConsecutiveHours, constraints.MaxConsecutiveHours)
	assert.Equal(t, 2.5, constraints.EfficiencyWeight)
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]struct {
		key   string
		value string
	}{
		"ShrinkageTooHigh": {key: "WFM_FORECAST_SHRINKAGE", value: "1.5"},
		"ZeroOccupancy":    {key: "WFM_FORECAST_OCCUPANCY", value: "0"},
		"UnknownLogFormat": {key: "WFM_LOG_FORMAT", value: "xml"},
		"UnknownTimezone":  {key: "WFM_TIMEZONE", value: "Mars/Olympus_Mons"},
		"NotANumber":       {key: "WFM_WORKERS", value: "many"},
		"NegativeCap":      {key: "WFM_MAX_CONSECUTIVE_HOURS", value: "-1"},
		"BadPushURL":       {key: "WFM_PUSH_URL", value: "not a url"},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			cfg, err := config.Load()
			assert.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), "invalid configuration")
		})
	}
}

func TestLoadConstraints(t *testing.T) {
	base := models.DefaultConstraints()

	tests := map[string]struct {
		input         string
		expected      models.Constraints
		expectedError error
		wantErr       bool
	}{
		"Empty": {
			input:    "",
			expected: base,
		},
		"Partial": {
			input:    "max_hours_per_day: 6\n",
			expected: models.Constraints{MaxHoursPerDay: 6, MaxConsecutiveHours: 6, EfficiencyWeight: 3},
		},
		"AllKeys": {
			input: `
max_hours_per_day: 10
max_consecutive_hours: 4
efficiency_weight: 2.5
`,
			expected: models.Constraints{MaxHoursPerDay: 10, MaxConsecutiveHours: 4, EfficiencyWeight: 2.5},
		},
		"UnknownKey": {
			input:         "max_hours_per_day: 6\novertime_allowed: true\n",
			expectedError: wfmerrors.ErrUnknownConstraint,
			wantErr:       true,
		},
		"NegativeValue": {
			input:   "max_consecutive_hours: -2\n",
			wantErr: true,
		},
		"WrongType": {
			input:   "efficiency_weight: high\n",
			wantErr: true,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := config.LoadConstraints(strings.NewReader(tt.input), base)

			if tt.wantErr {
				require.Error(t, err)
				if tt.expectedError != nil {
					assert.ErrorIs(t, err, tt.expectedError)
				}
				assert.Equal(t, base, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, got)
		})
	}
}

func TestLoadConstraints_ListsUnknownKeys(t *testing.T) {
	_, err := config.LoadConstraints(strings.NewReader("shift_length: 8\nbreaks: 2\n"), models.DefaultConstraints())

	require.ErrorIs(t, err, wfmerrors.ErrUnknownConstraint)
	assert.Contains(t, err.Error(), "[breaks shift_length]")
}
