package batch

import (
	"fmt"

	"github.com/hochfrequenz/wizard-workbench/internal/config"
)

// Validate checks a schedule entry
func Validate(c config.ScheduleConfig) error {
	if c.Name == "" {
		return fmt.Errorf("schedule name is required")
	}
	if c.Cron == "" {
		return fmt.Errorf("cron expression is required")
	}
	if _, err := ParseCron(c.Cron); err != nil {
		return fmt.Errorf("invalid cron expression: %w", err)
	}
	return nil
}

// ValidateAll checks every entry and rejects duplicate names
func ValidateAll(schedules []config.ScheduleConfig) error {
	seen := make(map[string]bool)
	for i, s := range schedules {
		if err := Validate(s); err != nil {
			return fmt.Errorf("schedule %d: %w", i, err)
		}
		if seen[s.Name] {
			return fmt.Errorf("schedule %d: duplicate name %q", i, s.Name)
		}
		seen[s.Name] = true
	}
	return nil
}
