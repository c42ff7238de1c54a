package lifeback

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfigValid(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
	if cfg.UndoLimit() != 99 {
		t.Fatalf("expected 99 undo steps for 100 slots, got %d", cfg.UndoLimit())
	}
}

func TestInvalidConfig(t *testing.T) {
	cases := map[string]func(*Config){
		"zero capacity": func(c *Config) { c.HistoryCapacity = 0 },
		"bad rule":      func(c *Config) { c.Rule = "B9/S1" },
		"bad edges":     func(c *Config) { c.Edges = "mirror" },
		"density":       func(c *Config) { c.Density = 1.5 },
		"nan density":   func(c *Config) { c.Density = math.NaN() },
		"interval":      func(c *Config) { c.StepInterval = time.Millisecond },
		"width":         func(c *Config) { c.Width = 0 },
	}
	for name, mutate := range cases {
		cfg := DefaultConfig()
		mutate(&cfg)
		if err := cfg.Validate(); err == nil {
			t.Fatalf("%s: expected validation error", name)
		}
	}
}

func TestCapacityOneIsAllowed(t *testing.T) {
	cfg := DefaultConfig()
	cfg.HistoryCapacity = 1
	if err := cfg.Validate(); err != nil {
		t.Fatalf("capacity 1 should be accepted: %v", err)
	}
	if cfg.UndoLimit() != 0 {
		t.Fatalf("expected no undo steps, got %d", cfg.UndoLimit())
	}
}

func TestLoadConfigOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lifeback.yaml")
	body := "width: 20\nheight: 10\nhistoryCapacity: 8\nstepInterval: 250ms\nedges: wrap\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	if cfg.Width != 20 || cfg.Height != 10 || cfg.HistoryCapacity != 8 {
		t.Fatalf("unexpected board/history values: %+v", cfg)
	}
	if cfg.StepInterval != 250*time.Millisecond {
		t.Fatalf("expected 250ms interval, got %v", cfg.StepInterval)
	}
	if cfg.Edges != "wrap" {
		t.Fatalf("expected wrap edges, got %q", cfg.Edges)
	}
	if cfg.Rule != "B3/S23" || cfg.EventBuffer != 2000 {
		t.Fatalf("omitted keys should keep defaults: %+v", cfg)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("historyCapacity: 0\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadConfig(path); err == nil {
		t.Fatalf("expected invalid capacity to fail")
	}
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("expected missing file to fail")
	}
}
