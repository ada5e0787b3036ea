package game

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestParseTurnState(t *testing.T) {
	input := `{
		"selfPosition": [1, 0],
		"opponentPosition": {"x": 2, "y": 2},
		"grid": [[0, 0, 0], [0, 1, 0], [0, 0, 0]],
		"opponentLastDirection": "left",
		"turnsRemaining": 40
	}`

	ts, err := ParseTurnState([]byte(input))
	if err != nil {
		t.Fatal(err)
	}
	if ts.Self != (Position{1, 0}) || ts.Opponent != (Position{2, 2}) {
		t.Errorf("positions: self=%s opponent=%s", ts.Self, ts.Opponent)
	}
	if ts.OpponentLastDirection == nil || *ts.OpponentLastDirection != Left {
		t.Errorf("opponent direction: %v", ts.OpponentLastDirection)
	}
	if ts.TurnsRemaining == nil || *ts.TurnsRemaining != 40 {
		t.Errorf("turns remaining: %v", ts.TurnsRemaining)
	}
	if !ts.Grid.IsOccupied(Position{1, 1}) {
		t.Error("center cell should be blocked")
	}
	if err := ts.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParseTurnStateErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"not json", `{`},
		{"missing self", `{"opponentPosition": [0, 0], "grid": [[0]]}`},
		{"short position", `{"selfPosition": [0], "opponentPosition": [1, 0], "grid": [[0, 0]]}`},
		{"empty grid", `{"selfPosition": [0, 0], "opponentPosition": [1, 0], "grid": []}`},
		{"bad direction", `{"selfPosition": [0, 0], "opponentPosition": [1, 0], "grid": [[0, 0]], "opponentLastDirection": "back"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseTurnState([]byte(tt.input)); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestTurnStateJSONRoundTrip(t *testing.T) {
	dir := Down
	ts := TurnState{
		Self:                  Position{0, 0},
		Opponent:              Position{2, 1},
		Grid:                  mustGrid(t, "..#", "..."),
		OpponentLastDirection: &dir,
	}

	data, err := json.Marshal(ts)
	if err != nil {
		t.Fatal(err)
	}
	var decoded TurnState
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatal(err)
	}
	if decoded.Self != ts.Self || decoded.Opponent != ts.Opponent || decoded.Grid.String() != ts.Grid.String() {
		t.Fatalf("round trip changed the snapshot: %s", data)
	}
	if decoded.OpponentLastDirection == nil || *decoded.OpponentLastDirection != Down {
		t.Fatalf("direction lost: %s", data)
	}
}

func TestTurnStateValidate(t *testing.T) {
	grid := mustGrid(t,
		"...",
		".#.",
	)
	bogus := Direction(7)

	tests := []struct {
		name string
		ts   TurnState
	}{
		{"no grid", TurnState{Self: Position{0, 0}, Opponent: Position{1, 0}}},
		{"self out of bounds", TurnState{Self: Position{3, 0}, Opponent: Position{1, 0}, Grid: grid}},
		{"opponent out of bounds", TurnState{Self: Position{0, 0}, Opponent: Position{0, -1}, Grid: grid}},
		{"same cell", TurnState{Self: Position{0, 0}, Opponent: Position{0, 0}, Grid: grid}},
		{"self blocked", TurnState{Self: Position{1, 1}, Opponent: Position{0, 0}, Grid: grid}},
		{"opponent blocked", TurnState{Self: Position{0, 0}, Opponent: Position{1, 1}, Grid: grid}},
		{"unknown direction", TurnState{Self: Position{0, 0}, Opponent: Position{2, 0}, Grid: grid, OpponentLastDirection: &bogus}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.ts.Validate(); !errors.Is(err, ErrInvalidInput) {
				t.Fatalf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}
