package config

import (
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"

	wfmerrors "workforce-scheduler/errors"
	"workforce-scheduler/models"
)

// constraintKeys lists every key a constraint file may set.
var constraintKeys = map[string]bool{
	"max_hours_per_day":     true,
	"max_consecutive_hours": true,
	"efficiency_weight":     true,
}

// LoadConstraints reads a YAML constraint file on top of base. Keys that are
// absent keep their base value; unknown keys are rejected.
//
//	max_hours_per_day: 6
//	max_consecutive_hours: 4
//	efficiency_weight: 2.5
func LoadConstraints(r io.Reader, base models.Constraints) (models.Constraints, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return base, fmt.Errorf("read constraints: %w", err)
	}

	var raw map[string]yaml.Node
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return base, fmt.Errorf("parse constraints: %w", err)
	}
	var unknown []string
	for key := range raw {
		if !constraintKeys[key] {
			unknown = append(unknown, key)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return base, fmt.Errorf("%w: %v", wfmerrors.ErrUnknownConstraint, unknown)
	}

	out := base
	if err := yaml.Unmarshal(data, &out); err != nil {
		return base, fmt.Errorf("parse constraints: %w", err)
	}
	if err := validate.Struct(out); err != nil {
		return base, fmt.Errorf("invalid constraints: %w", err)
	}
	return out, nil
}
