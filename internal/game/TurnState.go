package game

import (
	"encoding/json"
	"fmt"
)

// TurnState is the read-only snapshot handed to the engine once per turn.
type TurnState struct {
	Self                  Position
	Opponent              Position
	Grid                  *Grid
	OpponentLastDirection *Direction
	TurnsRemaining        *int
}

type turnStateWire struct {
	SelfPosition          *Position  `json:"selfPosition"`
	OpponentPosition      *Position  `json:"opponentPosition"`
	Grid                  [][]int    `json:"grid"`
	OpponentLastDirection *Direction `json:"opponentLastDirection,omitempty"`
	TurnsRemaining        *int       `json:"turnsRemaining,omitempty"`
}

// ParseTurnState decodes the judge's JSON snapshot. The result is not
// validated beyond its shape; Validate does the bounds and occupancy checks.
func ParseTurnState(data []byte) (TurnState, error) {
	var wire turnStateWire
	if err := json.Unmarshal(data, &wire); err != nil {
		return TurnState{}, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	if wire.SelfPosition == nil || wire.OpponentPosition == nil {
		return TurnState{}, fmt.Errorf("%w: selfPosition and opponentPosition are required", ErrInvalidInput)
	}

	grid, err := GridFromRows(wire.Grid)
	if err != nil {
		return TurnState{}, err
	}

	return TurnState{
		Self:                  *wire.SelfPosition,
		Opponent:              *wire.OpponentPosition,
		Grid:                  grid,
		OpponentLastDirection: wire.OpponentLastDirection,
		TurnsRemaining:        wire.TurnsRemaining,
	}, nil
}

func (ts TurnState) MarshalJSON() ([]byte, error) {
	wire := turnStateWire{
		SelfPosition:          &ts.Self,
		OpponentPosition:      &ts.Opponent,
		OpponentLastDirection: ts.OpponentLastDirection,
		TurnsRemaining:        ts.TurnsRemaining,
	}
	if ts.Grid != nil {
		wire.Grid = ts.Grid.Rows()
	}
	return json.Marshal(wire)
}

func (ts *TurnState) UnmarshalJSON(data []byte) error {
	parsed, err := ParseTurnState(data)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

func (ts TurnState) Validate() error {
	if ts.Grid == nil || ts.Grid.Width() <= 0 || ts.Grid.Height() <= 0 {
		return fmt.Errorf("%w: missing grid", ErrInvalidInput)
	}
	if !ts.Grid.InBounds(ts.Self) {
		return fmt.Errorf("%w: self position %s is out of bounds", ErrInvalidInput, ts.Self)
	}
	if !ts.Grid.InBounds(ts.Opponent) {
		return fmt.Errorf("%w: opponent position %s is out of bounds", ErrInvalidInput, ts.Opponent)
	}
	if ts.Self == ts.Opponent {
		return fmt.Errorf("%w: both players at %s", ErrInvalidInput, ts.Self)
	}
	if ts.Grid.IsOccupied(ts.Self) {
		return fmt.Errorf("%w: self position %s is blocked", ErrInvalidInput, ts.Self)
	}
	if ts.Grid.IsOccupied(ts.Opponent) {
		return fmt.Errorf("%w: opponent position %s is blocked", ErrInvalidInput, ts.Opponent)
	}
	if ts.OpponentLastDirection != nil && !ts.OpponentLastDirection.Valid() {
		return fmt.Errorf("%w: opponent direction %s", ErrInvalidInput, *ts.OpponentLastDirection)
	}
	return nil
}
