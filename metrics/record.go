package metrics

import (
	"errors"
	"strconv"
	"time"

	wfmerrors "workforce-scheduler/errors"
	"workforce-scheduler/models"
)

// RecordForecasts publishes a forecast batch.
func RecordForecasts(results []models.ForecastResult, elapsed time.Duration) {
	ForecastDurationSeconds.Observe(elapsed.Seconds())
	RequiredFTE.Reset()
	for _, r := range results {
		q := string(r.Queue)
		ForecastSlotsTotal.WithLabelValues(q).Inc()
		if !r.HasData() {
			ForecastEmptySlotsTotal.WithLabelValues(q).Inc()
		}
		RequiredFTE.WithLabelValues(q).Add(r.RequiredFTE)
	}
}

// RecordSchedule publishes the outcome of an optimizer run.
func RecordSchedule(out *models.ScheduleOutput, elapsed time.Duration) {
	SchedulerDurationSeconds.Observe(elapsed.Seconds())
	SchedulerRunsTotal.WithLabelValues(strconv.FormatBool(out.IsFeasible)).Inc()

	if out.IsFeasible {
		ScheduleFeasible.Set(1)
	} else {
		ScheduleFeasible.Set(0)
	}
	q := out.QualityMetrics
	CoveragePercentage.Set(q.CoveragePercentage)
	UnderstaffingSlots.Set(float64(q.UnderstaffingSlots))
	OverstaffingSlots.Set(float64(q.OverstaffingSlots))
	AssignmentsTotal.Set(float64(q.TotalAssignments))
	AgentHoursTotal.Set(q.TotalAgentHours)
	FairnessIndex.Set(q.FairnessIndex)

	WarningsBySeverity.Reset()
	WarningsBySeverity.WithLabelValues(models.SeverityCritical.String()).Set(0)
	WarningsBySeverity.WithLabelValues(models.SeverityWarning.String()).Set(0)
	for _, w := range out.Warnings {
		WarningsBySeverity.WithLabelValues(w.Severity.String()).Inc()
	}
}

// RecordParse publishes the outcome of reading one input file.
func RecordParse(kind string, records int, err error, elapsed time.Duration) {
	ParserDurationSeconds.Observe(elapsed.Seconds())
	if err != nil {
		ParserErrorsTotal.WithLabelValues(ParseErrorType(err)).Inc()
		return
	}
	ParserRecordsTotal.WithLabelValues(kind).Add(float64(records))
}

// ParseErrorType maps a parse error to a low-cardinality label.
func ParseErrorType(err error) string {
	kinds := []struct {
		target error
		label  string
	}{
		{wfmerrors.ErrInvalidFieldCount, "field_count"},
		{wfmerrors.ErrInvalidTimestamp, "timestamp"},
		{wfmerrors.ErrInvalidCallCount, "call_count"},
		{wfmerrors.ErrInvalidHandleTime, "handle_time"},
		{wfmerrors.ErrInvalidAgentID, "agent_id"},
		{wfmerrors.ErrInvalidInterval, "interval"},
		{wfmerrors.ErrInvalidFlag, "flag"},
		{wfmerrors.ErrInvalidEfficiency, "efficiency"},
		{wfmerrors.ErrInvalidSkillLevel, "skill_level"},
		{wfmerrors.ErrEmptyQueueName, "queue_name"},
	}
	for _, k := range kinds {
		if errors.Is(err, k.target) {
			return k.label
		}
	}
	return "other"
}
