package game

import (
	"math"
	"testing"
)

func weightSum(hints []PredictionHint) float64 {
	total := 0.0
	for _, hint := range hints {
		total += hint.Weight
	}
	return total
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestPredictOpponentFavoursHeading(t *testing.T) {
	opponent := Position{2, 2}
	grid := NewGrid(5, 5).WithOccupied(opponent)
	heading := Right

	hints := PredictOpponent(grid, opponent, &heading, nil)
	if len(hints) != 4 {
		t.Fatalf("expected 4 hints, got %v", hints)
	}
	if hints[0].Direction != Right || hints[0].Position != (Position{3, 2}) || !almostEqual(hints[0].Weight, 0.8) {
		t.Errorf("straight hint: %+v", hints[0])
	}

	order := []Direction{Up, Down, Left}
	for i, dir := range order {
		hint := hints[i+1]
		if hint.Direction != dir || !almostEqual(hint.Weight, 0.2/3) {
			t.Errorf("hint %d: expected %s with %.3f, got %+v", i+1, dir, 0.2/3, hint)
		}
	}
	if !almostEqual(weightSum(hints), 1) {
		t.Errorf("weights sum to %v", weightSum(hints))
	}
}

func TestPredictOpponentUsesHistory(t *testing.T) {
	opponent := Position{2, 2}
	grid := NewGrid(5, 5).WithOccupied(opponent)
	history := NewHistory(4)
	for range 3 {
		history.Record(Down)
	}

	hints := PredictOpponent(grid, opponent, nil, history)
	if hints[0].Direction != Down || !almostEqual(hints[0].Weight, 0.9) {
		t.Fatalf("expected down with 0.9, got %+v", hints[0])
	}
	if !almostEqual(weightSum(hints), 1) {
		t.Errorf("weights sum to %v", weightSum(hints))
	}
}

func TestPredictOpponentWithoutHeading(t *testing.T) {
	// Up leads into a one-cell pocket, right into the open.
	grid := mustGrid(t,
		".#...",
		"O....",
		"#####",
	)
	opponent := Position{0, 1}
	grid = grid.WithOccupied(opponent)

	hints := PredictOpponent(grid, opponent, nil, nil)
	if len(hints) != 2 {
		t.Fatalf("expected 2 hints, got %v", hints)
	}
	up, right := hints[0], hints[1]
	if up.Direction != Up || right.Direction != Right {
		t.Fatalf("unexpected order %v", hints)
	}
	if !almostEqual(up.Weight, 1.0/8) || !almostEqual(right.Weight, 7.0/8) {
		t.Errorf("weights should follow the space left: up=%v right=%v", up.Weight, right.Weight)
	}
}

func TestPredictOpponentEdgeCases(t *testing.T) {
	t.Run("boxed in", func(t *testing.T) {
		grid := mustGrid(t, "#.#").WithOccupied(Position{1, 0})
		if hints := PredictOpponent(grid, Position{1, 0}, nil, nil); hints != nil {
			t.Errorf("expected no hints, got %v", hints)
		}
	})

	t.Run("only the heading is open", func(t *testing.T) {
		heading := Right
		grid := NewGrid(3, 1).WithOccupied(Position{0, 0})
		hints := PredictOpponent(grid, Position{0, 0}, &heading, nil)
		if len(hints) != 1 || !almostEqual(hints[0].Weight, 1) {
			t.Errorf("expected a certain straight move, got %v", hints)
		}
	})

	t.Run("heading blocked", func(t *testing.T) {
		heading := Up
		grid := NewGrid(2, 2).WithOccupied(Position{0, 0})
		hints := PredictOpponent(grid, Position{0, 0}, &heading, nil)
		if len(hints) != 2 {
			t.Fatalf("expected 2 hints, got %v", hints)
		}
		for _, hint := range hints {
			if !almostEqual(hint.Weight, 0.5) {
				t.Errorf("expected an even split, got %+v", hint)
			}
		}
	})
}
