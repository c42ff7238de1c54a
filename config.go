package lifeback

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/suyash-sneo/lifeback/life"
)

// Config controls the board, the history and the run loop of a session.
type Config struct {
	// Board
	Width   int     `json:"width" yaml:"width"`
	Height  int     `json:"height" yaml:"height"`
	Rule    string  `json:"rule" yaml:"rule"`
	Edges   string  `json:"edges" yaml:"edges"`
	Seed    int64   `json:"seed" yaml:"seed"`
	Density float64 `json:"density" yaml:"density"`
	Pattern string  `json:"pattern,omitempty" yaml:"pattern,omitempty"`

	// History
	HistoryCapacity int `json:"historyCapacity" yaml:"historyCapacity"`

	// Run loop
	StepInterval time.Duration `json:"stepInterval" yaml:"stepInterval"`
	MinInterval  time.Duration `json:"minInterval" yaml:"minInterval"`
	StopOnCycle  bool          `json:"stopOnCycle" yaml:"stopOnCycle"`
	AutoRun      bool          `json:"autoRun" yaml:"autoRun"`

	// Session
	EventBuffer int    `json:"eventBuffer" yaml:"eventBuffer"`
	Script      string `json:"script,omitempty" yaml:"script,omitempty"`
}

// DefaultConfig returns the viewer defaults: 100 history slots and a 100ms
// run loop.
func DefaultConfig() Config {
	return Config{
		Width:   64,
		Height:  32,
		Rule:    "B3/S23",
		Edges:   string(life.EdgesDead),
		Seed:    1,
		Density: 0.25,

		HistoryCapacity: 100,

		StepInterval: 100 * time.Millisecond,
		MinInterval:  10 * time.Millisecond,
		StopOnCycle:  false,

		EventBuffer: 2000,
	}
}

// Validate ensures config values are safe.
func (c Config) Validate() error {
	if c.Width <= 0 {
		return fmt.Errorf("Width must be >0")
	}
	if c.Height <= 0 {
		return fmt.Errorf("Height must be >0")
	}
	if c.Width > 4096 || c.Height > 4096 {
		return fmt.Errorf("board cannot exceed 4096x4096")
	}
	if _, err := life.ParseRule(c.Rule); err != nil {
		return fmt.Errorf("Rule invalid: %w", err)
	}
	if _, err := life.ParseEdges(c.Edges); err != nil {
		return fmt.Errorf("Edges invalid: %w", err)
	}
	if !(c.Density >= 0 && c.Density <= 1) {
		return fmt.Errorf("Density must be between 0 and 1")
	}
	if c.HistoryCapacity < 1 {
		return fmt.Errorf("HistoryCapacity must be >=1")
	}
	if c.MinInterval <= 0 {
		return fmt.Errorf("MinInterval must be >0")
	}
	if c.StepInterval < c.MinInterval {
		return fmt.Errorf("StepInterval must be >= MinInterval")
	}
	if c.EventBuffer <= 0 {
		return fmt.Errorf("EventBuffer must be >0")
	}
	return nil
}

// UndoLimit is the number of backward steps the history can hold.
func (c Config) UndoLimit() int {
	if c.HistoryCapacity < 1 {
		return 0
	}
	return c.HistoryCapacity - 1
}

// LoadConfig reads a YAML (or JSON, being a YAML subset) file over
// DefaultConfig, so omitted keys keep their defaults.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}
