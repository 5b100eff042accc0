package models

import "time"

// ForecastRequest asks for the staffing need of one queue at one slot.
type ForecastRequest struct {
	Queue                   QueueName
	SlotStart               time.Time
	Samples                 []HistoricalSample
	GranularityMinutes      int
	LookbackWeeks           int
	TargetServiceLevel      float64
	TargetAnswerTimeSeconds int
	ShrinkageFactor         float64
	TargetOccupancy         float64
	ConfidenceIntervalPct   float64
}

// SlotEnd is SlotStart plus one granularity step.
func (r ForecastRequest) SlotEnd() time.Time {
	return r.SlotStart.Add(time.Duration(r.GranularityMinutes) * time.Minute)
}

// ForecastMetadata describes how a forecast was produced.
type ForecastMetadata struct {
	Algorithm       string `json:"algorithm"`
	LookbackWeeks   int    `json:"lookback_weeks,omitempty"`
	HistoricalCalls []int  `json:"historical_calls,omitempty"`
	Warning         string `json:"warning,omitempty"`
}

// ForecastResult is the staffing estimate for one queue slot.
// SampleCountUsed == 0 marks a forecast made without matching history.
type ForecastResult struct {
	Queue              QueueName        `json:"queue"`
	SlotStart          time.Time        `json:"slot_start"`
	SlotEnd            time.Time        `json:"slot_end"`
	ForecastedCalls    float64          `json:"forecasted_calls"`
	AvgHandleTimeSecs  float64          `json:"avg_handle_time_seconds"`
	RequiredFTE        float64          `json:"required_fte"`
	ConfidenceLowerFTE float64          `json:"confidence_lower_fte"`
	ConfidenceUpperFTE float64          `json:"confidence_upper_fte"`
	SampleCountUsed    int              `json:"sample_count_used"`
	StandardDeviation  float64          `json:"standard_deviation"`
	Metadata           ForecastMetadata `json:"metadata"`
}

// HasData reports whether any historical sample backed the forecast.
func (r ForecastResult) HasData() bool {
	return r.SampleCountUsed > 0
}

// Demand converts the result into the optimizer's input shape.
func (r ForecastResult) Demand() DemandForecast {
	return DemandForecast{
		Queue:           r.Queue,
		SlotStart:       r.SlotStart,
		SlotEnd:         r.SlotEnd,
		ForecastedCalls: r.ForecastedCalls,
		RequiredFTE:     r.RequiredFTE,
		ConfidenceLower: r.ConfidenceLowerFTE,
		ConfidenceUpper: r.ConfidenceUpperFTE,
	}
}
