// Package metrics provides Prometheus observability metrics for the workforce scheduler.
// It includes Critical and Important metrics for business and operational visibility.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry is the custom prometheus registry for our application
var Registry = prometheus.NewRegistry()

// factory allows us to register metrics to our custom Registry directly
var factory = promauto.With(Registry)

// =============================================================================
// CRITICAL METRICS - Business Impact Visibility
// =============================================================================

// ScheduleFeasible is 1 when the last schedule had no critical warning.
var ScheduleFeasible = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "scheduler",
	Name:      "feasible",
	Help:      "1 if the last generated schedule is feasible, 0 otherwise",
})

// CoveragePercentage tracks the share of demand slots covered to at least 90%.
var CoveragePercentage = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "scheduler",
	Name:      "coverage_percentage",
	Help:      "Percentage of demand slots whose coverage reached 90% of required FTE",
})

// UnderstaffingSlots tracks demand slots with less coverage than required.
var UnderstaffingSlots = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "scheduler",
	Name:      "understaffing_slots",
	Help:      "Number of demand slots covered below required FTE",
})

// OverstaffingSlots tracks demand slots covered beyond the overstaffing threshold.
var OverstaffingSlots = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "scheduler",
	Name:      "overstaffing_slots",
	Help:      "Number of demand slots covered above 1.2x required FTE",
})

// WarningsBySeverity tracks schedule warnings of the last run.
var WarningsBySeverity = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "scheduler",
	Name:      "warnings",
	Help:      "Schedule warnings of the last run by severity",
}, []string{"severity"})

// RequiredFTE tracks the summed forecasted FTE over the window per queue.
var RequiredFTE = factory.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "forecaster",
	Name:      "required_fte_sum",
	Help:      "Sum of required FTE over all forecasted slots of the last run",
}, []string{"queue"})

// =============================================================================
// IMPORTANT METRICS - Operational Health
// =============================================================================

// AssignmentsTotal tracks merged assignments in the last schedule.
var AssignmentsTotal = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "scheduler",
	Name:      "assignments_total",
	Help:      "Number of merged shift assignments in the last schedule",
})

// AgentHoursTotal tracks assigned agent hours in the last schedule.
var AgentHoursTotal = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "scheduler",
	Name:      "agent_hours_total",
	Help:      "Total assigned agent hours in the last schedule",
})

// FairnessIndex tracks Jain's fairness index of the last schedule.
var FairnessIndex = factory.NewGauge(prometheus.GaugeOpts{
	Namespace: "scheduler",
	Name:      "fairness_index",
	Help:      "Jain's fairness index over per-agent hours",
})

// SchedulerRunsTotal counts optimizer runs by outcome.
var SchedulerRunsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "scheduler",
	Name:      "runs_total",
	Help:      "Schedule generations by feasibility",
}, []string{"feasible"})

// SchedulerDurationSeconds tracks time to generate schedule.
var SchedulerDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "scheduler",
	Name:      "duration_seconds",
	Help:      "Time taken to generate the schedule",
	Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
})

// ForecastSlotsTotal counts forecasted slots per queue.
var ForecastSlotsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "forecaster",
	Name:      "slots_total",
	Help:      "Forecasted queue slots",
}, []string{"queue"})

// ForecastEmptySlotsTotal counts slots forecasted without matching history.
var ForecastEmptySlotsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "forecaster",
	Name:      "empty_slots_total",
	Help:      "Forecasted queue slots without matching historical data",
}, []string{"queue"})

// ForecastDurationSeconds tracks time to forecast a full window.
var ForecastDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "forecaster",
	Name:      "duration_seconds",
	Help:      "Time taken to forecast all slots of a window",
	Buckets:   []float64{0.0001, 0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 1},
})

// ParserErrorsTotal tracks parse errors by error type.
var ParserErrorsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "errors_total",
	Help:      "Total parse errors by error type",
}, []string{"error_type"})

// ParserRecordsTotal tracks total records successfully parsed.
var ParserRecordsTotal = factory.NewCounterVec(prometheus.CounterOpts{
	Namespace: "parser",
	Name:      "records_total",
	Help:      "Total CSV records successfully parsed by input kind",
}, []string{"kind"})

// ParserDurationSeconds tracks time to parse input files.
var ParserDurationSeconds = factory.NewHistogram(prometheus.HistogramOpts{
	Namespace: "parser",
	Name:      "duration_seconds",
	Help:      "Time taken to parse CSV input file",
	Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0},
})

// =============================================================================
// Helper Functions
// =============================================================================

// ResetSchedulerGauges resets all scheduler gauges before a new scheduling run.
func ResetSchedulerGauges() {
	ScheduleFeasible.Set(0)
	CoveragePercentage.Set(0)
	UnderstaffingSlots.Set(0)
	OverstaffingSlots.Set(0)
	AssignmentsTotal.Set(0)
	AgentHoursTotal.Set(0)
	FairnessIndex.Set(0)
	WarningsBySeverity.Reset()
	RequiredFTE.Reset()
}
