package game

import (
	"fmt"
	"strings"
)

type Direction int

const (
	Up Direction = iota
	Down
	Left
	Right
)

// Directions lists every move in the order neighbours are visited.
var Directions = []Direction{Up, Down, Left, Right}

var directionNames = map[Direction]string{
	Up:    "up",
	Down:  "down",
	Left:  "left",
	Right: "right",
}

func (d Direction) Offset() (dx, dy int) {
	switch d {
	case Up:
		return 0, -1
	case Down:
		return 0, 1
	case Left:
		return -1, 0
	case Right:
		return 1, 0
	}
	return 0, 0
}

func (d Direction) Opposite() Direction {
	switch d {
	case Up:
		return Down
	case Down:
		return Up
	case Left:
		return Right
	default:
		return Left
	}
}

func (d Direction) Valid() bool {
	_, ok := directionNames[d]
	return ok
}

func (d Direction) String() string {
	if name, ok := directionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("Direction(%d)", int(d))
}

func ParseDirection(token string) (Direction, error) {
	normalized := strings.ToLower(strings.TrimSpace(token))
	for dir, name := range directionNames {
		if name == normalized {
			return dir, nil
		}
	}
	return Up, fmt.Errorf("%w: unknown direction %q", ErrInvalidInput, token)
}

// DirectionBetween returns the move that takes from to to, if they are adjacent.
func DirectionBetween(from, to Position) (Direction, bool) {
	for _, dir := range Directions {
		if from.Add(dir) == to {
			return dir, true
		}
	}
	return Up, false
}

func (d Direction) MarshalText() ([]byte, error) {
	if !d.Valid() {
		return nil, fmt.Errorf("%w: cannot encode %s", ErrInvalidInput, d)
	}
	return []byte(d.String()), nil
}

func (d *Direction) UnmarshalText(text []byte) error {
	parsed, err := ParseDirection(string(text))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

