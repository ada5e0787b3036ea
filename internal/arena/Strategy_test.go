package arena

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/Mshel/lightcycle/internal/game"
)

func corridorState(t *testing.T) game.TurnState {
	t.Helper()
	grid, err := game.GridFromRows([][]int{
		{1, 0, 1, 1},
		{0, 0, 0, 0},
		{1, 1, 1, 0},
	})
	if err != nil {
		t.Fatal(err)
	}
	return game.TurnState{Self: game.Position{X: 1, Y: 1}, Opponent: game.Position{X: 3, Y: 2}, Grid: grid}
}

func TestRandomStrategyOnlyPicksOpenMoves(t *testing.T) {
	strategy := NewRandomStrategy(3)
	ts := corridorState(t)

	for range 50 {
		dir, err := strategy.NextMove(context.Background(), ts)
		if err != nil {
			t.Fatal(err)
		}
		if !ts.Grid.IsFree(ts.Self.Add(dir)) {
			t.Fatalf("picked blocked move %s", dir)
		}
	}
}

func TestEngineStrategyKeepsDecision(t *testing.T) {
	strategy := NewEngineStrategy("", game.NewController(game.DefaultConfig()))
	if strategy.Name() != "engine" {
		t.Errorf("default name: %s", strategy.Name())
	}

	dir, err := strategy.NextMove(context.Background(), corridorState(t))
	if err != nil {
		t.Fatal(err)
	}
	decision := strategy.LastDecision()
	if decision.Direction != dir || decision.Mode != game.ModeFull {
		t.Fatalf("last decision %+v does not match %s", decision, dir)
	}

	strategy.Reset()
	if len(strategy.LastDecision().Candidates) != 0 {
		t.Error("reset kept the last decision")
	}
}

func TestLuaStrategyBuiltins(t *testing.T) {
	tests := []struct {
		script string
		want   game.Direction
	}{
		{"north", game.Up},
		// From (1,1) only right leads on to another open cell.
		{"greedy", game.Right},
	}

	for _, tt := range tests {
		t.Run(tt.script, func(t *testing.T) {
			strategy, err := LoadLuaStrategy(tt.script)
			if err != nil {
				t.Fatal(err)
			}
			if strategy.Name() != "lua:"+tt.script {
				t.Errorf("name: %s", strategy.Name())
			}
			dir, err := strategy.NextMove(context.Background(), corridorState(t))
			if err != nil {
				t.Fatal(err)
			}
			if dir != tt.want {
				t.Errorf("expected %s, got %s", tt.want, dir)
			}
		})
	}
}

func TestLuaStrategyFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chaser.lua")
	source := `
		function getNextDirection(state)
			if state.opponent.x > state.self.x then
				return "RIGHT"
			end
			return "left"
		end
	`
	if err := os.WriteFile(path, []byte(source), 0o644); err != nil {
		t.Fatal(err)
	}

	strategy, err := LoadLuaStrategy(path)
	if err != nil {
		t.Fatal(err)
	}
	if strategy.Name() != "lua:chaser" {
		t.Errorf("name: %s", strategy.Name())
	}
	dir, err := strategy.NextMove(context.Background(), corridorState(t))
	if err != nil || dir != game.Right {
		t.Fatalf("expected right, got %s: %v", dir, err)
	}

	if _, err := LoadLuaStrategy(filepath.Join(t.TempDir(), "missing.lua")); err == nil {
		t.Error("expected an error for a missing script")
	}
}

func TestLuaStrategyErrors(t *testing.T) {
	tests := []struct {
		name    string
		source  string
		invalid bool
	}{
		{"syntax", `function getNextDirection(`, false},
		{"missing entry point", `x = 1`, false},
		{"runtime error", `function getNextDirection(state) error("nope") end`, false},
		{"number", `function getNextDirection(state) return 4 end`, true},
		{"diagonal", `function getNextDirection(state) return {Dx=1, Dy=1} end`, true},
		{"unknown name", `function getNextDirection(state) return "north" end`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewLuaStrategy("test", tt.source).NextMove(context.Background(), corridorState(t))
			if err == nil {
				t.Fatal("expected an error")
			}
			if tt.invalid && !errors.Is(err, game.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestNewOpponent(t *testing.T) {
	for _, name := range Opponents() {
		strategy, err := NewOpponent(name, 1, game.DefaultConfig())
		if err != nil {
			t.Errorf("%s: %v", name, err)
			continue
		}
		if _, err := strategy.NextMove(context.Background(), corridorState(t)); err != nil {
			t.Errorf("%s: NextMove: %v", name, err)
		}
	}

	if strategy, _ := NewOpponent("engine", 1, game.DefaultConfig()); strategy.Name() != "engine-b" {
		t.Errorf("self-play opponent named %q", strategy.Name())
	}
	if _, err := NewOpponent("minimax", 1, game.DefaultConfig()); err == nil {
		t.Error("expected an error for an unknown opponent")
	}
	if _, err := NewOpponent("lua:nope", 1, game.DefaultConfig()); err == nil {
		t.Error("expected an error for a missing lua script")
	}
}
