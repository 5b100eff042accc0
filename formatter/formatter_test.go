package formatter_test

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"workforce-scheduler/formatter"
	"workforce-scheduler/models"
	"workforce-scheduler/store"
)

func at(hour, minute int) time.Time {
	return time.Date(2025, 12, 1, hour, minute, 0, 0, time.UTC)
}

func sampleOutput() *models.ScheduleOutput {
	return &models.ScheduleOutput{
		Assignments: []models.ScheduleAssignment{
			{AgentID: 2, Queue: "support", Start: at(9, 0), End: at(11, 0), EfficiencyScore: 0.9, Type: models.AssignmentSecondary},
			{AgentID: 1, Queue: "sales", Start: at(8, 0), End: at(14, 0), EfficiencyScore: 1.2, Type: models.AssignmentPrimary},
		},
		QualityMetrics: models.QualityMetrics{
			TotalAssignments:   2,
			TotalAgentHours:    8,
			AverageEfficiency:  1.05,
			UnderstaffingSlots: 2,
			CoveragePercentage: 90,
			FairnessIndex:      0.8,
		},
		Coverage: models.Coverage{
			"sales":   {"2025-12-01 08:00": 1.2},
			"support": {"2025-12-01 09:00": 0.9},
		},
		IsFeasible: false,
		Warnings: []models.Warning{
			{Severity: models.SeverityCritical, Message: `Severe understaffing in queue "sales" at 2025-12-01 17:00 (1.0 FTE required, 0.0 assigned)`},
		},
	}
}

func TestFormatText(t *testing.T) {
	tests := map[string]struct {
		output   *models.ScheduleOutput
		contains []string
		excludes []string
	}{
		"EmptySchedule": {
			output: &models.ScheduleOutput{IsFeasible: true, Warnings: []models.Warning{}},
			contains: []string{
				"none",
				"total_assignments",
				"Feasible: yes",
			},
			excludes: []string{"⚠️"},
		},
		"InfeasibleSchedule": {
			output: sampleOutput(),
			contains: []string{
				"2025-12-01 08:00",
				"2025-12-01 14:00",
				"sales",
				"primary",
				"secondary",
				"6.0",
				"coverage_percentage",
				"90.0",
				"fairness_index",
				"0.800",
				"Feasible: NO",
				`⚠️  CRITICAL: Severe understaffing in queue "sales"`,
			},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			output := formatter.FormatText(tt.output)
			for _, s := range tt.contains {
				assert.Contains(t, output, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, output, s)
			}
		})
	}
}

func TestFormatText_SortsAssignments(t *testing.T) {
	output := formatter.FormatText(sampleOutput())

	sales := strings.Index(output, "sales")
	support := strings.Index(output, "support")
	require.NotEqual(t, -1, sales)
	require.NotEqual(t, -1, support)
	assert.Less(t, sales, support, "08:00 shift should be listed before the 09:00 one")
}

func TestFormatJSON(t *testing.T) {
	output := formatter.FormatJSON(sampleOutput())

	var decoded map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &decoded))

	assert.Equal(t, false, decoded["is_feasible"])
	assert.Len(t, decoded["assignments"], 2)

	warnings := decoded["warnings"].([]any)
	require.Len(t, warnings, 1)
	assert.Equal(t, "CRITICAL", warnings[0].(map[string]any)["severity"])

	metrics := decoded["quality_metrics"].(map[string]any)
	assert.Equal(t, 90.0, metrics["coverage_percentage"])

	coverage := decoded["coverage_by_queue_and_hour"].(map[string]any)
	assert.Contains(t, coverage, "sales")
}

func TestFormatCSV(t *testing.T) {
	output := formatter.FormatCSV(sampleOutput())
	lines := strings.Split(strings.TrimSpace(output), "\n")

	expected := []string{
		"AgentID,Queue,Start,End,Hours,Efficiency,Type",
		"1,sales,2025-12-01T08:00:00Z,2025-12-01T14:00:00Z,6.00,1.20,primary",
		"2,support,2025-12-01T09:00:00Z,2025-12-01T11:00:00Z,2.00,0.90,secondary",
	}
	assert.Equal(t, expected, lines)
}

func TestFormatForecast(t *testing.T) {
	results := []models.ForecastResult{
		{
			Queue:              "sales",
			SlotStart:          at(10, 0),
			SlotEnd:            at(10, 30),
			ForecastedCalls:    49,
			AvgHandleTimeSecs:  300,
			RequiredFTE:        12.81,
			ConfidenceLowerFTE: 11.9,
			ConfidenceUpperFTE: 13.7,
			SampleCountUsed:    4,
			StandardDeviation:  2.236,
		},
		{
			Queue:     "sales",
			SlotStart: at(10, 30),
			SlotEnd:   at(11, 0),
		},
	}

	t.Run("Text", func(t *testing.T) {
		output := formatter.FormatForecastText(results)
		assert.Contains(t, output, "2025-12-01 10:00-10:30")
		assert.Contains(t, output, "49.0")
		assert.Contains(t, output, "12.81")
		assert.Contains(t, output, "11.90-13.70")
		assert.Contains(t, output, "2025-12-01 10:30-11:00")
	})

	t.Run("CSV", func(t *testing.T) {
		lines := strings.Split(strings.TrimSpace(formatter.FormatForecastCSV(results)), "\n")
		require.Len(t, lines, 3)
		assert.True(t, strings.HasPrefix(lines[0], "Queue,SlotStart,SlotEnd,ForecastedCalls"))
		assert.Equal(t, "sales,2025-12-01T10:00:00Z,2025-12-01T10:30:00Z,49.00,300.0,12.810,11.900,13.700,4,2.236", lines[1])
		assert.Equal(t, "sales,2025-12-01T10:30:00Z,2025-12-01T11:00:00Z,0.00,0.0,0.000,0.000,0.000,0,0.000", lines[2])
	})
}

func TestFormatProfileText(t *testing.T) {
	output := formatter.FormatProfileText("sales volume by hour", "Hour", []store.VolumeProfile{
		{Bucket: 9, AverageCalls: 42.5, TotalCalls: 170, Samples: 4},
		{Bucket: 10, AverageCalls: 49, TotalCalls: 196, Samples: 4},
	})

	assert.Contains(t, output, "sales volume by hour")
	assert.Contains(t, output, "42.5")
	assert.Contains(t, output, "196")
}
