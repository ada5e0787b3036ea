package game

import (
	"encoding/json"
	"fmt"
	"strings"
)

type Position struct {
	X int `json:"x"`
	Y int `json:"y"`
}

// UnmarshalJSON accepts both [x, y] pairs and {"x": .., "y": ..} objects.
func (p *Position) UnmarshalJSON(data []byte) error {
	var pair []int
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("%w: position needs 2 coordinates, got %d", ErrInvalidInput, len(pair))
		}
		p.X, p.Y = pair[0], pair[1]
		return nil
	}

	var obj struct {
		X *int `json:"x"`
		Y *int `json:"y"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("%w: malformed position: %v", ErrInvalidInput, err)
	}
	if obj.X == nil || obj.Y == nil {
		return fmt.Errorf("%w: position is missing x or y", ErrInvalidInput)
	}
	p.X, p.Y = *obj.X, *obj.Y
	return nil
}

func (p Position) Add(dir Direction) Position {
	dx, dy := dir.Offset()
	return Position{X: p.X + dx, Y: p.Y + dy}
}

func (p Position) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

func GetManhattanDistance(a, b Position) int {
	return abs(a.X-b.X) + abs(a.Y-b.Y)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

// Step is one cardinal move out of a cell.
type Step struct {
	Direction Direction
	Position  Position
}

// Grid is a width x height occupancy field. The cell storage is never
// mutated once built; WithOccupied layers extra blocked cells on top of it
// so hypothetical moves share the base grid.
type Grid struct {
	width   int
	height  int
	blocked []bool
	overlay []Position
}

func NewGrid(width, height int) *Grid {
	return &Grid{
		width:   width,
		height:  height,
		blocked: make([]bool, width*height),
	}
}

// GridFromRows builds a grid from row-major occupancy rows where 0 is empty
// and anything else is blocked.
func GridFromRows(rows [][]int) (*Grid, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, fmt.Errorf("%w: empty grid", ErrInvalidInput)
	}

	width := len(rows[0])
	grid := NewGrid(width, len(rows))
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidInput, y, len(row), width)
		}
		for x, cell := range row {
			if cell != 0 {
				grid.blocked[y*width+x] = true
			}
		}
	}

	return grid, nil
}

// GridFromCells copies a row-major blocked mask into a new grid.
func GridFromCells(width, height int, blocked []bool) (*Grid, error) {
	if width <= 0 || height <= 0 || len(blocked) != width*height {
		return nil, fmt.Errorf("%w: %d cells for a %dx%d grid", ErrInvalidInput, len(blocked), width, height)
	}

	grid := NewGrid(width, height)
	copy(grid.blocked, blocked)
	return grid, nil
}

func (g *Grid) Width() int  { return g.width }
func (g *Grid) Height() int { return g.height }

func (g *Grid) InBounds(pos Position) bool {
	return pos.X >= 0 && pos.X < g.width && pos.Y >= 0 && pos.Y < g.height
}

// IsOccupied reports whether pos is blocked. Out of bounds counts as blocked.
func (g *Grid) IsOccupied(pos Position) bool {
	if !g.InBounds(pos) {
		return true
	}
	if g.blocked[pos.Y*g.width+pos.X] {
		return true
	}
	return containsPosition(g.overlay, pos)
}

func (g *Grid) IsFree(pos Position) bool {
	return !g.IsOccupied(pos)
}

// Neighbors returns the in-bounds cardinal neighbours of pos in Up, Down,
// Left, Right order. Occupancy is left to the caller.
func (g *Grid) Neighbors(pos Position) []Step {
	steps := make([]Step, 0, len(Directions))
	for _, dir := range Directions {
		next := pos.Add(dir)
		if g.InBounds(next) {
			steps = append(steps, Step{Direction: dir, Position: next})
		}
	}
	return steps
}

// WithOccupied returns a successor grid with pos blocked. The receiver is
// left untouched.
func (g *Grid) WithOccupied(pos Position) *Grid {
	overlay := make([]Position, len(g.overlay), len(g.overlay)+1)
	copy(overlay, g.overlay)

	return &Grid{
		width:   g.width,
		height:  g.height,
		blocked: g.blocked,
		overlay: append(overlay, pos),
	}
}

func (g *Grid) FreeCells() int {
	free := 0
	for _, blocked := range g.blocked {
		if !blocked {
			free++
		}
	}
	for i, extra := range g.overlay {
		if !g.InBounds(extra) || g.blocked[extra.Y*g.width+extra.X] || containsPosition(g.overlay[:i], extra) {
			continue
		}
		free--
	}
	return free
}

func containsPosition(positions []Position, pos Position) bool {
	for _, p := range positions {
		if p == pos {
			return true
		}
	}
	return false
}

// Rows converts the grid back to the 0/1 wire representation.
func (g *Grid) Rows() [][]int {
	rows := make([][]int, g.height)
	for y := range rows {
		rows[y] = make([]int, g.width)
		for x := range rows[y] {
			if g.IsOccupied(Position{X: x, Y: y}) {
				rows[y][x] = 1
			}
		}
	}
	return rows
}

func (g *Grid) String() string {
	var sb strings.Builder
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			if g.IsOccupied(Position{X: x, Y: y}) {
				sb.WriteByte('#')
			} else {
				sb.WriteByte('.')
			}
		}
		sb.WriteByte('\n')
	}
	return sb.String()
}
