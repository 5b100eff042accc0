package parser

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"workforce-scheduler/errors"
	"workforce-scheduler/models"
)

// ParseAvailability reads availability intervals in the form
//
//	agent_id, start, end, is_available
func ParseAvailability(r io.Reader, loc *time.Location) ([]models.AgentAvailability, error) {
	var out []models.AgentAvailability
	err := readRecords(r, 4, loc, func(record []string, loc *time.Location) error {
		agent, err := parseAgentID(record[0])
		if err != nil {
			return err
		}

		start, err := parseTimestamp(record[1], loc)
		if err != nil {
			return fmt.Errorf("%w: start: %v", errors.ErrInvalidTimestamp, err)
		}
		end, err := parseTimestamp(record[2], loc)
		if err != nil {
			return fmt.Errorf("%w: end: %v", errors.ErrInvalidTimestamp, err)
		}
		if !end.After(start) {
			return fmt.Errorf("%w: end %s is not after start %s", errors.ErrInvalidInterval,
				end.Format(time.RFC3339), start.Format(time.RFC3339))
		}

		available, err := parseFlag(record[3])
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrInvalidFlag, err)
		}

		out = append(out, models.AgentAvailability{
			AgentID:     agent,
			Start:       start,
			End:         end,
			IsAvailable: available,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// ParseSkills reads agent skills in the form
//
//	agent_id, queue, efficiency_coefficient, skill_level, is_primary
func ParseSkills(r io.Reader) ([]models.AgentSkill, error) {
	var out []models.AgentSkill
	err := readRecords(r, 5, time.UTC, func(record []string, _ *time.Location) error {
		agent, err := parseAgentID(record[0])
		if err != nil {
			return err
		}

		queue := strings.TrimSpace(record[1])
		if queue == "" {
			return errors.ErrEmptyQueueName
		}

		efficiency, err := strconv.ParseFloat(strings.TrimSpace(record[2]), 64)
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrInvalidEfficiency, err)
		}
		if efficiency <= 0 {
			return fmt.Errorf("%w: must be positive, got %v", errors.ErrInvalidEfficiency, efficiency)
		}

		level, err := strconv.Atoi(strings.TrimSpace(record[3]))
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrInvalidSkillLevel, err)
		}
		if level < 1 || level > 3 {
			return fmt.Errorf("%w: must be 1-3, got %d", errors.ErrInvalidSkillLevel, level)
		}

		primary, err := parseFlag(record[4])
		if err != nil {
			return fmt.Errorf("%w: %v", errors.ErrInvalidFlag, err)
		}

		out = append(out, models.AgentSkill{
			AgentID:               agent,
			Queue:                 models.QueueName(queue),
			EfficiencyCoefficient: efficiency,
			SkillLevel:            level,
			IsPrimary:             primary,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func parseAgentID(value string) (models.AgentID, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", errors.ErrInvalidAgentID, err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("%w: must be positive, got %d", errors.ErrInvalidAgentID, id)
	}
	return models.AgentID(id), nil
}
