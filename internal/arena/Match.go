package arena

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/Mshel/lightcycle/internal/game"
	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const DefaultMaxTurns = 1000

var ErrMatchOver = errors.New("match is over")

type Outcome int

const (
	OutcomeOngoing Outcome = iota
	OutcomePlayerOne
	OutcomePlayerTwo
	OutcomeDraw
)

var outcomeNames = map[Outcome]string{
	OutcomeOngoing:   "ongoing",
	OutcomePlayerOne: "player_one",
	OutcomePlayerTwo: "player_two",
	OutcomeDraw:      "draw",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

func ParseOutcome(name string) (Outcome, error) {
	for outcome, candidate := range outcomeNames {
		if candidate == name {
			return outcome, nil
		}
	}
	return OutcomeOngoing, fmt.Errorf("unknown outcome %q", name)
}

type Player struct {
	Strategy Strategy
	Position game.Position
	LastMove *game.Direction
	Trail    []game.Position
	Crashed  bool
}

// TurnMsg is published after every simulated turn.
type TurnMsg struct {
	Turn    int
	Moves   [2]game.Direction
	Outcome Outcome
}

// Result is the persisted summary of a finished match.
type Result struct {
	ID        uuid.UUID
	PlayerOne string
	PlayerTwo string
	Outcome   Outcome
	Turns     int
	Width     int
	Height    int
	CreatedAt time.Time
}

// Match is the authoritative board for one game between two strategies.
// Both players move at the same time; every cell a player has ever stood
// on, including its current head, stays blocked for the rest of the match.
type Match struct {
	ID       uuid.UUID
	width    int
	height   int
	maxTurns int

	mu      sync.RWMutex
	blocked []bool
	players [2]*Player
	turn    int
	outcome Outcome
	logger  *log.Logger
}

func NewMatch(width, height, maxTurns int, one, two Strategy, startOne, startTwo game.Position) (*Match, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: board %dx%d", game.ErrInvalidInput, width, height)
	}
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}

	m := &Match{
		ID:       uuid.New(),
		width:    width,
		height:   height,
		maxTurns: maxTurns,
		blocked:  make([]bool, width*height),
	}
	for i, start := range []game.Position{startOne, startTwo} {
		if start.X < 0 || start.X >= width || start.Y < 0 || start.Y >= height {
			return nil, fmt.Errorf("%w: start %s is off the %dx%d board", game.ErrInvalidInput, start, width, height)
		}
		m.players[i] = &Player{Position: start, Trail: []game.Position{start}}
		m.blocked[m.index(start)] = true
	}
	if startOne == startTwo {
		return nil, fmt.Errorf("%w: both players start at %s", game.ErrInvalidInput, startOne)
	}
	m.players[0].Strategy = one
	m.players[1].Strategy = two
	m.logger = log.WithPrefix("match").With("id", m.ID.String()[:8])

	for _, player := range m.players {
		if resetter, ok := player.Strategy.(Resetter); ok {
			resetter.Reset()
		}
	}
	return m, nil
}

func (m *Match) index(pos game.Position) int {
	return pos.Y*m.width + pos.X
}

func (m *Match) isFree(pos game.Position) bool {
	if pos.X < 0 || pos.X >= m.width || pos.Y < 0 || pos.Y >= m.height {
		return false
	}
	return !m.blocked[m.index(pos)]
}

func (m *Match) Width() int  { return m.width }
func (m *Match) Height() int { return m.height }

func (m *Match) Turn() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.turn
}

func (m *Match) Outcome() Outcome {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.outcome
}

// Player returns a copy of player i (0 or 1).
func (m *Match) Player(i int) Player {
	m.mu.RLock()
	defer m.mu.RUnlock()
	player := *m.players[i]
	player.Trail = append([]game.Position(nil), player.Trail...)
	return player
}

// Snapshot is the view player i gets: trails blocked, both heads empty.
func (m *Match) Snapshot(i int) game.TurnState {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snapshot(i)
}

func (m *Match) snapshot(i int) game.TurnState {
	self, opponent := m.players[i], m.players[1-i]

	cells := make([]bool, len(m.blocked))
	copy(cells, m.blocked)
	cells[m.index(self.Position)] = false
	cells[m.index(opponent.Position)] = false
	grid, _ := game.GridFromCells(m.width, m.height, cells)

	remaining := m.maxTurns - m.turn
	ts := game.TurnState{
		Self:           self.Position,
		Opponent:       opponent.Position,
		Grid:           grid,
		TurnsRemaining: &remaining,
	}
	if opponent.LastMove != nil {
		last := *opponent.LastMove
		ts.OpponentLastDirection = &last
	}
	return ts
}

// collectMoves asks both strategies for a move at the same time. A
// strategy that fails forfeits its move and crashes.
func (m *Match) collectMoves(ctx context.Context) ([2]game.Direction, [2]error) {
	var moves [2]game.Direction
	var errs [2]error
	snapshots := [2]game.TurnState{m.snapshot(0), m.snapshot(1)}

	var wg sync.WaitGroup
	for i, player := range m.players {
		wg.Add(1)
		go func(i int, strategy Strategy) {
			defer wg.Done()
			moves[i], errs[i] = strategy.NextMove(ctx, snapshots[i])
		}(i, player.Strategy)
	}
	wg.Wait()
	return moves, errs
}

// Step plays one simultaneous turn and returns the outcome so far.
func (m *Match) Step(ctx context.Context) (TurnMsg, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.outcome != OutcomeOngoing {
		return TurnMsg{Turn: m.turn, Outcome: m.outcome}, ErrMatchOver
	}
	if err := ctx.Err(); err != nil {
		return TurnMsg{Turn: m.turn, Outcome: m.outcome}, err
	}

	moves, errs := m.collectMoves(ctx)
	m.turn++

	var next [2]game.Position
	var crashed [2]bool
	for i, player := range m.players {
		if errs[i] != nil {
			m.logger.Warn("Strategy failed, forfeiting move", "player", player.Strategy.Name(), "error", errs[i])
			crashed[i] = true
			next[i] = player.Position
			continue
		}
		move := moves[i]
		player.LastMove = &move
		next[i] = player.Position.Add(move)
		crashed[i] = !m.isFree(next[i])
	}

	one, two := m.players[0], m.players[1]
	switch {
	case errs[0] == nil && errs[1] == nil && next[0] == next[1]:
		m.outcome = OutcomeDraw
		crashed = [2]bool{true, true}
	case errs[0] == nil && errs[1] == nil && next[0] == two.Position && next[1] == one.Position:
		m.outcome = OutcomeDraw
		crashed = [2]bool{true, true}
	case crashed[0] && crashed[1]:
		m.outcome = OutcomeDraw
	case crashed[0]:
		m.outcome = OutcomePlayerTwo
	case crashed[1]:
		m.outcome = OutcomePlayerOne
	default:
		for i, player := range m.players {
			player.Position = next[i]
			player.Trail = append(player.Trail, next[i])
			m.blocked[m.index(next[i])] = true
		}
		if m.turn >= m.maxTurns {
			m.outcome = OutcomeDraw
		}
	}

	for i, player := range m.players {
		player.Crashed = crashed[i]
	}
	if m.outcome != OutcomeOngoing {
		m.logger.Debug("Match over", "outcome", m.outcome, "turns", m.turn)
	}
	return TurnMsg{Turn: m.turn, Moves: moves, Outcome: m.outcome}, nil
}

// Play runs the match to the end.
func (m *Match) Play(ctx context.Context) (Result, error) {
	for m.Outcome() == OutcomeOngoing {
		if _, err := m.Step(ctx); err != nil {
			return Result{}, err
		}
	}
	return m.Result(), nil
}

// Run steps the match on every tick and publishes each turn on updates. It
// returns once the match is over or ctx is done; updates is closed on exit.
func (m *Match) Run(ctx context.Context, tick time.Duration, updates chan<- TurnMsg) error {
	defer close(updates)

	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			msg, err := m.Step(ctx)
			if err != nil {
				return err
			}
			select {
			case updates <- msg:
			case <-ctx.Done():
				return ctx.Err()
			}
			if msg.Outcome != OutcomeOngoing {
				return nil
			}
		}
	}
}

func (m *Match) Result() Result {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Result{
		ID:        m.ID,
		PlayerOne: m.players[0].Strategy.Name(),
		PlayerTwo: m.players[1].Strategy.Name(),
		Outcome:   m.outcome,
		Turns:     m.turn,
		Width:     m.width,
		Height:    m.height,
		CreatedAt: time.Now().UTC(),
	}
}

// Board renders the match with A and B for the heads and # for trails.
func (m *Match) Board() string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var sb strings.Builder
	rule := strings.Repeat("=", m.width*2+1)
	sb.WriteString(rule + "\n")
	for y := 0; y < m.height; y++ {
		sb.WriteByte('|')
		for x := 0; x < m.width; x++ {
			pos := game.Position{X: x, Y: y}
			switch {
			case pos == m.players[0].Position:
				sb.WriteByte('A')
			case pos == m.players[1].Position:
				sb.WriteByte('B')
			case m.blocked[m.index(pos)]:
				sb.WriteByte('#')
			default:
				sb.WriteByte(' ')
			}
			sb.WriteByte('|')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(rule + "\n")
	return sb.String()
}

// Cell describes one board cell for renderers.
type Cell int

const (
	CellEmpty Cell = iota
	CellTrailOne
	CellTrailTwo
	CellHeadOne
	CellHeadTwo
)

// Cells returns the board row by row, telling the two trails apart.
func (m *Match) Cells() [][]Cell {
	m.mu.RLock()
	defer m.mu.RUnlock()

	cells := make([][]Cell, m.height)
	for y := range cells {
		cells[y] = make([]Cell, m.width)
	}
	for i, player := range m.players {
		trail, head := CellTrailOne, CellHeadOne
		if i == 1 {
			trail, head = CellTrailTwo, CellHeadTwo
		}
		for _, pos := range player.Trail {
			cells[pos.Y][pos.X] = trail
		}
		cells[player.Position.Y][player.Position.X] = head
	}
	return cells
}
