package formatter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"

	"workforce-scheduler/models"
)

const timeLayout = "2006-01-02 15:04"

// ScheduleData holds prepared schedule data used by all formatters
type ScheduleData struct {
	Assignments []models.ScheduleAssignment
	Coverage    []CoverageRow
}

// CoverageRow is one queue/hour bucket of supplied staffing.
type CoverageRow struct {
	Queue    models.QueueName `json:"queue"`
	Hour     string           `json:"hour"`
	Coverage float64          `json:"coverage"`
}

// prepareScheduleData orders assignments and coverage for stable output
func prepareScheduleData(out *models.ScheduleOutput) *ScheduleData {
	assignments := make([]models.ScheduleAssignment, len(out.Assignments))
	copy(assignments, out.Assignments)
	sort.SliceStable(assignments, func(i, j int) bool {
		a, b := assignments[i], assignments[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.AgentID != b.AgentID {
			return a.AgentID < b.AgentID
		}
		return a.Queue < b.Queue
	})

	var rows []CoverageRow
	for queue, hours := range out.Coverage {
		for hour, value := range hours {
			rows = append(rows, CoverageRow{Queue: queue, Hour: hour, Coverage: value})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Queue != rows[j].Queue {
			return rows[i].Queue < rows[j].Queue
		}
		return rows[i].Hour < rows[j].Hour
	})

	return &ScheduleData{Assignments: assignments, Coverage: rows}
}

// FormatText returns the text representation of the schedule
func FormatText(out *models.ScheduleOutput) string {
	data := prepareScheduleData(out)
	var sb strings.Builder

	assignments := table.NewWriter()
	assignments.SetTitle("Assignments")
	assignments.AppendHeader(table.Row{"Agent", "Queue", "Start", "End", "Hours", "Efficiency", "Type"})
	for _, a := range data.Assignments {
		assignments.AppendRow(table.Row{
			a.AgentID, a.Queue,
			a.Start.Format(timeLayout), a.End.Format(timeLayout),
			fmt.Sprintf("%.1f", a.DurationHours()),
			fmt.Sprintf("%.2f", a.EfficiencyScore),
			a.Type,
		})
	}
	if len(data.Assignments) == 0 {
		assignments.AppendRow(table.Row{"none", "", "", "", "", "", ""})
	}
	sb.WriteString(assignments.Render())
	sb.WriteString("\n\n")

	sb.WriteString(metricsTable(out.QualityMetrics).Render())
	sb.WriteString("\n\n")

	if len(data.Coverage) > 0 {
		coverage := table.NewWriter()
		coverage.SetTitle("Coverage")
		coverage.AppendHeader(table.Row{"Queue", "Hour", "FTE"})
		for _, row := range data.Coverage {
			coverage.AppendRow(table.Row{row.Queue, row.Hour, fmt.Sprintf("%.2f", row.Coverage)})
		}
		sb.WriteString(coverage.Render())
		sb.WriteString("\n\n")
	}

	if out.IsFeasible {
		sb.WriteString("Feasible: yes\n")
	} else {
		sb.WriteString("Feasible: NO\n")
	}
	for _, w := range out.Warnings {
		sb.WriteString(fmt.Sprintf("  ⚠️  %s\n", w.String()))
	}
	return sb.String()
}

func metricsTable(m models.QualityMetrics) table.Writer {
	t := table.NewWriter()
	t.SetTitle("Quality")
	t.AppendHeader(table.Row{"Metric", "Value"})
	t.AppendRows([]table.Row{
		{"total_assignments", m.TotalAssignments},
		{"total_agent_hours", fmt.Sprintf("%.1f", m.TotalAgentHours)},
		{"average_efficiency", fmt.Sprintf("%.2f", m.AverageEfficiency)},
		{"fairness_index", fmt.Sprintf("%.3f", m.FairnessIndex)},
		{"coverage_percentage", fmt.Sprintf("%.1f", m.CoveragePercentage)},
		{"understaffing_slots", m.UnderstaffingSlots},
		{"overstaffing_slots", m.OverstaffingSlots},
	})
	return t
}

// FormatJSON returns the indented JSON representation of v
func FormatJSON(v any) string {
	jsonBytes, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": %q}`, err.Error())
	}
	return string(jsonBytes) + "\n"
}

// FormatCSV returns the CSV representation of the schedule's assignments
func FormatCSV(out *models.ScheduleOutput) string {
	data := prepareScheduleData(out)
	var sb strings.Builder
	writer := csv.NewWriter(&sb)

	// Write header
	writer.Write([]string{"AgentID", "Queue", "Start", "End", "Hours", "Efficiency", "Type"})
	for _, a := range data.Assignments {
		writer.Write([]string{
			fmt.Sprintf("%d", a.AgentID),
			string(a.Queue),
			a.Start.Format(time.RFC3339),
			a.End.Format(time.RFC3339),
			fmt.Sprintf("%.2f", a.DurationHours()),
			fmt.Sprintf("%.2f", a.EfficiencyScore),
			string(a.Type),
		})
	}

	writer.Flush()
	return sb.String()
}
