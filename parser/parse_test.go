package parser_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	customerrors "workforce-scheduler/errors"
	"workforce-scheduler/models"
	"workforce-scheduler/parser"
)

func mustLoadLocation(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		panic(err)
	}
	return loc
}

func TestParseSamples(t *testing.T) {
	ny := mustLoadLocation("America/New_York")

	tests := map[string]struct {
		input         string
		expectedData  []models.HistoricalSample
		expectedError error
	}{
		"ValidInput_SingleLine": {
			input: `
sales, 2025-11-24T10:00, 50, 300
`,
			expectedData: []models.HistoricalSample{
				{Queue: "sales", Timestamp: time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC), CallCount: 50, AverageHandleTimeSeconds: 300},
			},
		},
		"ValidInput_WithComments": {
			input: `
# Queue, Timestamp, Calls, AHT
sales, 2025-11-24 10:00, 50, 300

support, 2025-11-24 10:30:00, 12, 245.5
`,
			expectedData: []models.HistoricalSample{
				{Queue: "sales", Timestamp: time.Date(2025, 11, 24, 10, 0, 0, 0, time.UTC), CallCount: 50, AverageHandleTimeSeconds: 300},
				{Queue: "support", Timestamp: time.Date(2025, 11, 24, 10, 30, 0, 0, time.UTC), CallCount: 12, AverageHandleTimeSeconds: 245.5},
			},
		},
		"ValidInput_HeaderTimezone": {
			input: `
# Queue, TimestampET, Calls, AHT
sales, 2025-11-24T10:00, 50, 300
`,
			expectedData: []models.HistoricalSample{
				{Queue: "sales", Timestamp: time.Date(2025, 11, 24, 10, 0, 0, 0, ny), CallCount: 50, AverageHandleTimeSeconds: 300},
			},
		},
		"ValidInput_ExplicitOffset": {
			input: `
sales, 2025-11-24T10:00:00+01:00, 0, 0
`,
			expectedData: []models.HistoricalSample{
				{Queue: "sales", Timestamp: time.Date(2025, 11, 24, 9, 0, 0, 0, time.UTC), CallCount: 0, AverageHandleTimeSeconds: 0},
			},
		},
		"Error_InvalidFieldCount": {
			input: `
sales, 2025-11-24T10:00, 50
`,
			expectedError: customerrors.ErrInvalidFieldCount,
		},
		"Error_EmptyQueue": {
			input: `
 , 2025-11-24T10:00, 50, 300
`,
			expectedError: customerrors.ErrEmptyQueueName,
		},
		"Error_InvalidTimestamp": {
			input: `
sales, 24/11/2025 10AM, 50, 300
`,
			expectedError: customerrors.ErrInvalidTimestamp,
		},
		"Error_InvalidCallCount": {
			input: `
sales, 2025-11-24T10:00, many, 300
`,
			expectedError: customerrors.ErrInvalidCallCount,
		},
		"Error_NegativeCallCount": {
			input: `
sales, 2025-11-24T10:00, -3, 300
`,
			expectedError: customerrors.ErrInvalidCallCount,
		},
		"Error_InvalidHandleTime": {
			input: `
sales, 2025-11-24T10:00, 50, 5min
`,
			expectedError: customerrors.ErrInvalidHandleTime,
		},
		"Error_NegativeHandleTime": {
			input: `
sales, 2025-11-24T10:00, 50, -1
`,
			expectedError: customerrors.ErrInvalidHandleTime,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			data, err := parser.ParseSamples(strings.NewReader(tt.input), time.UTC)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, data)
				return
			}
			require.NoError(t, err)
			require.Len(t, data, len(tt.expectedData))
			for i, expected := range tt.expectedData {
				assert.Equal(t, expected.Queue, data[i].Queue)
				assert.True(t, expected.Timestamp.Equal(data[i].Timestamp), "expected %s, got %s", expected.Timestamp, data[i].Timestamp)
				assert.Equal(t, expected.CallCount, data[i].CallCount)
				assert.Equal(t, expected.AverageHandleTimeSeconds, data[i].AverageHandleTimeSeconds)
			}
		})
	}
}

func TestParseSamples_DefaultLocation(t *testing.T) {
	warsaw := mustLoadLocation("Europe/Warsaw")

	data, err := parser.ParseSamples(strings.NewReader("sales, 2025-11-24T10:00, 1, 1\n"), warsaw)
	require.NoError(t, err)
	require.Len(t, data, 1)
	assert.Equal(t, warsaw, data[0].Timestamp.Location())
	assert.Equal(t, 10, data[0].Hour())
	assert.Equal(t, 1, data[0].DayOfWeek())
}

func TestParseSamples_ErrorLine(t *testing.T) {
	input := `# Queue, Timestamp, Calls, AHT
sales, 2025-11-24T10:00, 50, 300

sales, 2025-11-24T10:30, x, 300
`
	_, err := parser.ParseSamples(strings.NewReader(input), time.UTC)

	var parseErr *customerrors.ParseError
	require.True(t, errors.As(err, &parseErr))
	assert.Equal(t, 4, parseErr.Line)
	assert.Equal(t, "x", parseErr.Record[2])
	assert.Contains(t, err.Error(), "line 4")
}

func TestParseAvailability(t *testing.T) {
	tests := map[string]struct {
		input         string
		expectedData  []models.AgentAvailability
		expectedError error
	}{
		"ValidInput": {
			input: `
# AgentID, Start, End, Available
1, 2025-12-01T08:00, 2025-12-01T12:00, yes
1, 2025-12-01 12:00, 2025-12-01 13:00, false
2, 2025-12-01T08:00, 2025-12-01T18:00, Y
`,
			expectedData: []models.AgentAvailability{
				{AgentID: 1, Start: time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC), End: time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC), IsAvailable: true},
				{AgentID: 1, Start: time.Date(2025, 12, 1, 12, 0, 0, 0, time.UTC), End: time.Date(2025, 12, 1, 13, 0, 0, 0, time.UTC), IsAvailable: false},
				{AgentID: 2, Start: time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC), End: time.Date(2025, 12, 1, 18, 0, 0, 0, time.UTC), IsAvailable: true},
			},
		},
		"Error_InvalidAgentID": {
			input:         "abc, 2025-12-01T08:00, 2025-12-01T12:00, yes\n",
			expectedError: customerrors.ErrInvalidAgentID,
		},
		"Error_NonPositiveAgentID": {
			input:         "0, 2025-12-01T08:00, 2025-12-01T12:00, yes\n",
			expectedError: customerrors.ErrInvalidAgentID,
		},
		"Error_InvalidStart": {
			input:         "1, tomorrow, 2025-12-01T12:00, yes\n",
			expectedError: customerrors.ErrInvalidTimestamp,
		},
		"Error_EndBeforeStart": {
			input:         "1, 2025-12-01T12:00, 2025-12-01T08:00, yes\n",
			expectedError: customerrors.ErrInvalidInterval,
		},
		"Error_EmptyInterval": {
			input:         "1, 2025-12-01T12:00, 2025-12-01T12:00, yes\n",
			expectedError: customerrors.ErrInvalidInterval,
		},
		"Error_InvalidFlag": {
			input:         "1, 2025-12-01T08:00, 2025-12-01T12:00, maybe\n",
			expectedError: customerrors.ErrInvalidFlag,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			data, err := parser.ParseAvailability(strings.NewReader(tt.input), time.UTC)

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, data)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedData, data)
		})
	}
}

func TestParseSkills(t *testing.T) {
	tests := map[string]struct {
		input         string
		expectedData  []models.AgentSkill
		expectedError error
	}{
		"ValidInput": {
			input: `
# AgentID, Queue, Efficiency, Level, Primary
1, sales, 1.2, 3, true
1, support, 0.8, 1, no
`,
			expectedData: []models.AgentSkill{
				{AgentID: 1, Queue: "sales", EfficiencyCoefficient: 1.2, SkillLevel: 3, IsPrimary: true},
				{AgentID: 1, Queue: "support", EfficiencyCoefficient: 0.8, SkillLevel: 1, IsPrimary: false},
			},
		},
		"Error_InvalidFieldCount": {
			input:         "1, sales, 1.2, 3\n",
			expectedError: customerrors.ErrInvalidFieldCount,
		},
		"Error_EmptyQueue": {
			input:         "1, , 1.2, 3, true\n",
			expectedError: customerrors.ErrEmptyQueueName,
		},
		"Error_ZeroEfficiency": {
			input:         "1, sales, 0, 3, true\n",
			expectedError: customerrors.ErrInvalidEfficiency,
		},
		"Error_InvalidEfficiency": {
			input:         "1, sales, fast, 3, true\n",
			expectedError: customerrors.ErrInvalidEfficiency,
		},
		"Error_LevelOutOfRange": {
			input:         "1, sales, 1.0, 4, true\n",
			expectedError: customerrors.ErrInvalidSkillLevel,
		},
		"Error_InvalidPrimary": {
			input:         "1, sales, 1.0, 2, sometimes\n",
			expectedError: customerrors.ErrInvalidFlag,
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			data, err := parser.ParseSkills(strings.NewReader(tt.input))

			if tt.expectedError != nil {
				assert.ErrorIs(t, err, tt.expectedError)
				assert.Nil(t, data)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedData, data)
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	tests := map[string]struct {
		input    string
		expected time.Time
		wantErr  bool
	}{
		"RFC3339":     {input: "2025-12-01T08:00:00Z", expected: time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)},
		"ShortT":      {input: "2025-12-01T08:00", expected: time.Date(2025, 12, 1, 8, 0, 0, 0, time.UTC)},
		"SpaceSecond": {input: " 2025-12-01 08:00:30 ", expected: time.Date(2025, 12, 1, 8, 0, 30, 0, time.UTC)},
		"DateOnly":    {input: "2025-12-01", wantErr: true},
		"Garbage":     {input: "8am", wantErr: true},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			got, err := parser.ParseTimestamp(tt.input, nil)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.expected.Equal(got))
		})
	}
}
