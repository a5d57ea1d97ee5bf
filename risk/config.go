package risk

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/patchplan-ai/engine/record"
)

// Config carries the scoring weights and tier thresholds.
// The defaults implement the standard policy; embedders can override any
// value, so the numbers are configuration, not hard law.
type Config struct {
	// PriorityBonus maps vendor-declared priorities to additive score
	// bonuses, applied only when a note exists.
	PriorityBonus map[record.Priority]float64 `yaml:"priority_bonus"`

	// ExploitationBonus is the fixed escalation added when active
	// exploitation is signalled by the vendor note or the external
	// context signal.
	ExploitationBonus float64 `yaml:"exploitation_bonus"`

	// CriticalThreshold is the minimum score for the critical tier.
	CriticalThreshold float64 `yaml:"critical_threshold"`

	// HighThreshold is the minimum score for the high tier.
	HighThreshold float64 `yaml:"high_threshold"`

	// MediumThreshold is the minimum score for the medium tier.
	MediumThreshold float64 `yaml:"medium_threshold"`

	// Concurrency is the number of goroutines Assess fans scoring out to.
	// Values below 1 mean sequential scoring.
	Concurrency int `yaml:"concurrency,omitempty"`
}

// DefaultConfig returns the standard scoring configuration:
// priority bonuses critical +0.3, high +0.2, medium +0.1, low +0.0;
// exploitation bonus +0.25; tier thresholds 0.8 / 0.6 / 0.3.
func DefaultConfig() Config {
	return Config{
		PriorityBonus: map[record.Priority]float64{
			record.PriorityCritical: 0.3,
			record.PriorityHigh:     0.2,
			record.PriorityMedium:   0.1,
			record.PriorityLow:      0.0,
		},
		ExploitationBonus: 0.25,
		CriticalThreshold: 0.8,
		HighThreshold:     0.6,
		MediumThreshold:   0.3,
	}
}

// Validate checks that the thresholds are ordered and the bonuses are
// non-negative.
func (c *Config) Validate() error {
	if !(c.CriticalThreshold >= c.HighThreshold && c.HighThreshold >= c.MediumThreshold) {
		return fmt.Errorf("tier thresholds must be non-increasing: critical %.2f, high %.2f, medium %.2f",
			c.CriticalThreshold, c.HighThreshold, c.MediumThreshold)
	}
	if c.ExploitationBonus < 0 {
		return fmt.Errorf("exploitation bonus cannot be negative: %.2f", c.ExploitationBonus)
	}
	for p, bonus := range c.PriorityBonus {
		if !p.IsValid() {
			return fmt.Errorf("priority bonus declared for unknown priority %q", p)
		}
		if bonus < 0 {
			return fmt.Errorf("priority bonus for %s cannot be negative: %.2f", p, bonus)
		}
	}
	return nil
}

// LoadConfig reads a scoring configuration from a YAML file.
// Fields absent from the file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read scoring config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse scoring config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid scoring config: %w", err)
	}
	return cfg, nil
}
