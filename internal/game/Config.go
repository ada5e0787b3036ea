package game

import (
	"fmt"
	"time"
)

const (
	DefaultBoardWidth  = 18
	DefaultBoardHeight = 20
	DefaultTimeBudget  = 100 * time.Millisecond
)

// Config holds the tunable parts of the engine. The weights only shape the
// heuristic; the aggregation itself is always a plain weighted sum where
// higher is better.
type Config struct {
	WeightAccessible float64 `yaml:"weight_accessible"`
	WeightSafety     float64 `yaml:"weight_safety"`
	WeightTerritory  float64 `yaml:"weight_territory"`
	WeightPath       float64 `yaml:"weight_path"`
	WeightBlock      float64 `yaml:"weight_block"`
	WeightCorner     float64 `yaml:"weight_corner"`

	TimeBudgetMS  int         `yaml:"time_budget_ms"`
	TieBreakOrder []Direction `yaml:"tie_break_order"`

	HistorySize      int     `yaml:"history_size"`
	OpeningThreshold float64 `yaml:"opening_threshold"`
	CornerRadius     int     `yaml:"corner_radius"`
	// CellCostNS is the estimated cost of visiting one cell in any of the
	// graph searches, used to decide ahead of time whether full scoring fits
	// in the budget.
	CellCostNS int `yaml:"cell_cost_ns"`
}

func DefaultConfig() Config {
	return Config{
		WeightAccessible: 1.0,
		WeightSafety:     0.3,
		WeightTerritory:  0.5,
		WeightPath:       0.2,
		WeightBlock:      0.4,
		WeightCorner:     0.3,
		TimeBudgetMS:     int(DefaultTimeBudget / time.Millisecond),
		TieBreakOrder:    []Direction{Up, Right, Down, Left},
		HistorySize:      8,
		OpeningThreshold: 0.7,
		CornerRadius:     2,
		CellCostNS:       50,
	}
}

func (c Config) TimeBudget() time.Duration {
	return time.Duration(c.TimeBudgetMS) * time.Millisecond
}

// ApplyDefaults fills zero values with the defaults. Weights are left alone
// since zero is a meaningful weight.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.TimeBudgetMS == 0 {
		c.TimeBudgetMS = defaults.TimeBudgetMS
	}
	if len(c.TieBreakOrder) == 0 {
		c.TieBreakOrder = defaults.TieBreakOrder
	}
	if c.HistorySize == 0 {
		c.HistorySize = defaults.HistorySize
	}
	if c.OpeningThreshold == 0 {
		c.OpeningThreshold = defaults.OpeningThreshold
	}
	if c.CornerRadius == 0 {
		c.CornerRadius = defaults.CornerRadius
	}
	if c.CellCostNS == 0 {
		c.CellCostNS = defaults.CellCostNS
	}
}

func (c Config) Validate() error {
	if c.TimeBudgetMS <= 0 {
		return fmt.Errorf("time_budget_ms must be positive, got %d", c.TimeBudgetMS)
	}
	if len(c.TieBreakOrder) != len(Directions) {
		return fmt.Errorf("tie_break_order must list all %d directions, got %v", len(Directions), c.TieBreakOrder)
	}
	seen := make(map[Direction]bool, len(Directions))
	for _, dir := range c.TieBreakOrder {
		if !dir.Valid() {
			return fmt.Errorf("tie_break_order contains unknown direction %s", dir)
		}
		if seen[dir] {
			return fmt.Errorf("tie_break_order lists %s twice", dir)
		}
		seen[dir] = true
	}
	if c.HistorySize < 1 {
		return fmt.Errorf("history_size must be at least 1, got %d", c.HistorySize)
	}
	if c.OpeningThreshold < 0 || c.OpeningThreshold > 1 {
		return fmt.Errorf("opening_threshold must be within [0, 1], got %v", c.OpeningThreshold)
	}
	if c.CornerRadius < 0 {
		return fmt.Errorf("corner_radius must not be negative, got %d", c.CornerRadius)
	}
	if c.CellCostNS <= 0 {
		return fmt.Errorf("cell_cost_ns must be positive, got %d", c.CellCostNS)
	}
	return nil
}
