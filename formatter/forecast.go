package formatter

import (
	"encoding/csv"
	"fmt"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"workforce-scheduler/models"
	"workforce-scheduler/store"
)

// FormatForecastText renders forecasts as a table, one row per slot.
func FormatForecastText(results []models.ForecastResult) string {
	t := table.NewWriter()
	t.SetTitle("Forecast")
	t.AppendHeader(table.Row{"Queue", "Slot", "Calls", "AHT (s)", "FTE", "FTE range", "Samples"})
	for _, r := range results {
		slot := r.SlotStart.Format(timeLayout) + "-" + r.SlotEnd.Format("15:04")
		if !r.HasData() {
			t.AppendRow(table.Row{r.Queue, slot, "-", "-", "0.00", "-", 0})
			continue
		}
		t.AppendRow(table.Row{
			r.Queue, slot,
			fmt.Sprintf("%.1f", r.ForecastedCalls),
			fmt.Sprintf("%.0f", r.AvgHandleTimeSecs),
			fmt.Sprintf("%.2f", r.RequiredFTE),
			fmt.Sprintf("%.2f-%.2f", r.ConfidenceLowerFTE, r.ConfidenceUpperFTE),
			r.SampleCountUsed,
		})
	}
	return t.Render() + "\n"
}

// FormatForecastCSV renders forecasts as CSV.
func FormatForecastCSV(results []models.ForecastResult) string {
	var sb strings.Builder
	writer := csv.NewWriter(&sb)
	writer.Write([]string{
		"Queue", "SlotStart", "SlotEnd", "ForecastedCalls", "AvgHandleTimeSeconds",
		"RequiredFTE", "ConfidenceLowerFTE", "ConfidenceUpperFTE", "SampleCount", "StdDev",
	})
	for _, r := range results {
		writer.Write([]string{
			string(r.Queue),
			r.SlotStart.Format(time.RFC3339),
			r.SlotEnd.Format(time.RFC3339),
			fmt.Sprintf("%.2f", r.ForecastedCalls),
			fmt.Sprintf("%.1f", r.AvgHandleTimeSecs),
			fmt.Sprintf("%.3f", r.RequiredFTE),
			fmt.Sprintf("%.3f", r.ConfidenceLowerFTE),
			fmt.Sprintf("%.3f", r.ConfidenceUpperFTE),
			fmt.Sprintf("%d", r.SampleCountUsed),
			fmt.Sprintf("%.3f", r.StandardDeviation),
		})
	}
	writer.Flush()
	return sb.String()
}

// FormatProfileText renders a volume profile; label names the bucket column.
func FormatProfileText(title, label string, profile []store.VolumeProfile) string {
	t := table.NewWriter()
	t.SetTitle(title)
	t.AppendHeader(table.Row{label, "Avg calls", "Total calls", "Samples"})
	for _, p := range profile {
		t.AppendRow(table.Row{p.Bucket, fmt.Sprintf("%.1f", p.AverageCalls), p.TotalCalls, p.Samples})
	}
	return t.Render() + "\n"
}
