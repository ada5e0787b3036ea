package arena

import (
	"context"
	"fmt"
	"maps"
	"math/rand"
	"slices"
	"strings"
	"sync"

	"github.com/Mshel/lightcycle/internal/game"
)

// Strategy picks a move for one player. Each player in a match needs its
// own Strategy value since the two are asked for moves concurrently.
type Strategy interface {
	Name() string
	NextMove(ctx context.Context, ts game.TurnState) (game.Direction, error)
}

// Resetter is implemented by strategies that keep state across turns. It is
// called when a new match starts.
type Resetter interface {
	Reset()
}

// EngineStrategy plays the move engine.
type EngineStrategy struct {
	name       string
	controller *game.Controller

	mu   sync.Mutex
	last game.Decision
}

func NewEngineStrategy(name string, controller *game.Controller) *EngineStrategy {
	if name == "" {
		name = "engine"
	}
	return &EngineStrategy{name: name, controller: controller}
}

func (s *EngineStrategy) Name() string { return s.name }

func (s *EngineStrategy) NextMove(_ context.Context, ts game.TurnState) (game.Direction, error) {
	decision := s.controller.Decide(ts)

	s.mu.Lock()
	s.last = decision
	s.mu.Unlock()

	return decision.Direction, nil
}

// LastDecision is the engine's reasoning for its most recent move.
func (s *EngineStrategy) LastDecision() game.Decision {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

func (s *EngineStrategy) Reset() {
	s.controller.Reset()
	s.mu.Lock()
	s.last = game.Decision{}
	s.mu.Unlock()
}

// RandomStrategy picks uniformly among the moves that do not crash
// immediately, or up when there are none.
type RandomStrategy struct {
	mu  sync.Mutex
	rng *rand.Rand
}

func NewRandomStrategy(seed int64) *RandomStrategy {
	return &RandomStrategy{rng: rand.New(rand.NewSource(seed))}
}

func (s *RandomStrategy) Name() string { return "random" }

func (s *RandomStrategy) NextMove(_ context.Context, ts game.TurnState) (game.Direction, error) {
	blocked := ts.Grid.WithOccupied(ts.Opponent)

	var open []game.Direction
	for _, dir := range game.Directions {
		if blocked.IsFree(ts.Self.Add(dir)) {
			open = append(open, dir)
		}
	}
	if len(open) == 0 {
		return game.Up, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return open[s.rng.Intn(len(open))], nil
}

// Opponents lists the names NewOpponent understands besides lua file paths.
func Opponents() []string {
	names := []string{"random", "engine"}
	for _, name := range slices.Sorted(maps.Keys(BuiltinScripts)) {
		names = append(names, "lua:"+name)
	}
	return names
}

// NewOpponent builds a strategy by name: "random", "engine" (a second engine
// built from engine), "lua:<builtin>" or a path to a .lua script.
func NewOpponent(name string, seed int64, engine game.Config) (Strategy, error) {
	switch {
	case name == "random":
		return NewRandomStrategy(seed), nil
	case name == "engine":
		return NewEngineStrategy("engine-b", game.NewController(engine)), nil
	case strings.HasPrefix(name, "lua:"):
		return LoadLuaStrategy(strings.TrimPrefix(name, "lua:"))
	case strings.HasSuffix(name, ".lua"):
		return LoadLuaStrategy(name)
	}
	return nil, fmt.Errorf("unknown opponent %q", name)
}
