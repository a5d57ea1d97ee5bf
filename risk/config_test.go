package risk

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/patchplan-ai/engine/record"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("DefaultConfig().Validate() = %v, want nil", err)
	}

	if got := cfg.PriorityBonus[record.PriorityCritical]; got != 0.3 {
		t.Errorf("critical bonus = %v, want 0.3", got)
	}
	if got := cfg.PriorityBonus[record.PriorityLow]; got != 0.0 {
		t.Errorf("low bonus = %v, want 0.0", got)
	}
	if cfg.ExploitationBonus != 0.25 {
		t.Errorf("exploitation bonus = %v, want 0.25", cfg.ExploitationBonus)
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name: "unordered thresholds",
			mutate: func(c *Config) {
				c.HighThreshold = 0.9
			},
			wantErr: true,
		},
		{
			name: "negative exploitation bonus",
			mutate: func(c *Config) {
				c.ExploitationBonus = -0.1
			},
			wantErr: true,
		},
		{
			name: "negative priority bonus",
			mutate: func(c *Config) {
				c.PriorityBonus[record.PriorityHigh] = -0.2
			},
			wantErr: true,
		},
		{
			name: "unknown priority in bonus map",
			mutate: func(c *Config) {
				c.PriorityBonus[record.Priority("urgent")] = 0.5
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()

	t.Run("overrides merge with defaults", func(t *testing.T) {
		path := filepath.Join(dir, "scoring.yaml")
		content := []byte("exploitation_bonus: 0.4\nhigh_threshold: 0.55\n")
		if err := os.WriteFile(path, content, 0o644); err != nil {
			t.Fatal(err)
		}

		cfg, err := LoadConfig(path)
		if err != nil {
			t.Fatalf("LoadConfig() error = %v", err)
		}
		if cfg.ExploitationBonus != 0.4 {
			t.Errorf("exploitation bonus = %v, want 0.4", cfg.ExploitationBonus)
		}
		if cfg.HighThreshold != 0.55 {
			t.Errorf("high threshold = %v, want 0.55", cfg.HighThreshold)
		}
		if cfg.CriticalThreshold != 0.8 {
			t.Errorf("critical threshold = %v, want default 0.8", cfg.CriticalThreshold)
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(dir, "absent.yaml")); err == nil {
			t.Error("LoadConfig() should fail for a missing file")
		}
	})

	t.Run("invalid thresholds rejected", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		if err := os.WriteFile(path, []byte("critical_threshold: 0.1\n"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := LoadConfig(path); err == nil {
			t.Error("LoadConfig() should reject unordered thresholds")
		}
	})
}
