package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"workforce-scheduler/errors"
	"workforce-scheduler/models"
)

// timestampLayouts are tried in order for every time column.
var timestampLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// rowFunc converts one data record; loc is the timezone currently in effect.
type rowFunc func(record []string, loc *time.Location) error

// readRecords drives a CSV reader over r. Lines starting with '#' are
// headers/comments. A header column named like "TimestampET" or
// "StartAsia/Tokyo" switches the timezone for all following rows.
func readRecords(r io.Reader, fields int, loc *time.Location, fn rowFunc) error {
	if loc == nil {
		loc = time.UTC
	}
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	for {
		record, err := reader.Read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("error reading CSV: %w", err)
		}
		lineNum, _ := reader.FieldPos(0)

		if len(record) > 0 && strings.HasPrefix(strings.TrimSpace(record[0]), "#") {
			if newLoc, ok := headerLocation(record); ok {
				loc = newLoc
			}
			continue
		}
		if isBlank(record) {
			continue
		}

		if len(record) != fields {
			return &errors.ParseError{Line: lineNum, Record: record, Err: errors.ErrInvalidFieldCount}
		}
		if err := fn(record, loc); err != nil {
			return &errors.ParseError{Line: lineNum, Record: record, Err: err}
		}
	}
}

// ParseSamples reads historical samples in the form
//
//	queue, timestamp, call_count, average_handle_time_seconds
//
// Timestamps without an explicit offset are read in loc.
func ParseSamples(r io.Reader, loc *time.Location) ([]models.HistoricalSample, error) {
	var samples []models.HistoricalSample
	err := readRecords(r, 4, loc, func(record []string, loc *time.Location) error {
		queue := strings.TrimSpace(record[0])
		if queue == "" {
			return errors.ErrEmptyQueueName
		}

		ts, err := parseTimestamp(record[1], loc)
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrInvalidTimestamp, err)
		}

		calls, err := strconv.Atoi(strings.TrimSpace(record[2]))
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrInvalidCallCount, err)
		}
		if calls < 0 {
			return fmt.Errorf("%w: negative value %d", errors.ErrInvalidCallCount, calls)
		}

		aht, err := strconv.ParseFloat(strings.TrimSpace(record[3]), 64)
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrInvalidHandleTime, err)
		}
		if aht < 0 {
			return fmt.Errorf("%w: negative value %v", errors.ErrInvalidHandleTime, aht)
		}

		samples = append(samples, models.HistoricalSample{
			Queue:                    models.QueueName(queue),
			Timestamp:                ts,
			CallCount:                calls,
			AverageHandleTimeSeconds: aht,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return samples, nil
}

// ParseTimestamp reads a timestamp in any of the accepted layouts.
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.UTC
	}
	return parseTimestamp(value, loc)
}

func parseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	var lastErr error
	for _, layout := range timestampLayouts {
		t, err := time.ParseInLocation(layout, value, loc)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func parseFlag(value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "yes", "y":
		return true, nil
	case "no", "n":
		return false, nil
	}
	return strconv.ParseBool(strings.TrimSpace(value))
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}

// headerLocation looks for a time column carrying a timezone suffix.
func headerLocation(record []string) (*time.Location, bool) {
	for _, field := range record {
		name := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(field), "#"))
		for _, prefix := range []string{"Timestamp", "Start"} {
			if !strings.HasPrefix(name, prefix) {
				continue
			}
			code := strings.TrimPrefix(name, prefix)
			if code == "" {
				continue
			}
			if loc, err := timezoneLocation(code); err == nil {
				return loc, true
			}
		}
	}
	return nil, false
}

func timezoneLocation(code string) (*time.Location, error) {
	code = strings.TrimSpace(code)

	// First, try common US timezone abbreviations
	switch code {
	case "PT":
		return time.LoadLocation("America/Los_Angeles")
	case "ET":
		return time.LoadLocation("America/New_York")
	case "CT":
		return time.LoadLocation("America/Chicago")
	case "MT":
		return time.LoadLocation("America/Denver")
	case "UTC":
		return time.UTC, nil
	default:
		// Otherwise it has to be a full IANA name such as "Europe/Warsaw"
		return time.LoadLocation(code)
	}
}
