package arena

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/Mshel/lightcycle/internal/game"
	lua "github.com/yuin/gopher-lua"
)

const luaEntryPoint = "getNextDirection"

// BuiltinScripts are the scripted opponents that ship with the binary.
var BuiltinScripts = map[string]string{
	"north": `
		function getNextDirection(state)
			return {Dx=0, Dy=-1}
		end
	`,
	"greedy": `
		-- steps to the open neighbour with the most open neighbours of its own
		local moves = {{"up", 0, -1}, {"right", 1, 0}, {"down", 0, 1}, {"left", -1, 0}}

		local function exits(x, y)
			local n = 0
			for _, m in ipairs(moves) do
				if isFree(x + m[2], y + m[3]) then
					n = n + 1
				end
			end
			return n
		end

		function getNextDirection(state)
			local best, bestExits = "up", -1
			for _, m in ipairs(moves) do
				local x, y = state.self.x + m[2], state.self.y + m[3]
				if isFree(x, y) then
					local e = exits(x, y)
					if e > bestExits then
						best, bestExits = m[1], e
					end
				end
			end
			return best
		end
	`,
}

// LuaStrategy runs a Lua script that defines getNextDirection(state). The
// state table carries self, opponent, width, height, turnsRemaining and
// opponentLastDirection; isFree(x, y) is available as a global. The script
// returns either a direction name or a {Dx=.., Dy=..} table.
type LuaStrategy struct {
	name   string
	source string
}

func NewLuaStrategy(name, source string) *LuaStrategy {
	return &LuaStrategy{name: name, source: source}
}

// LoadLuaStrategy resolves a builtin script name or a path to a .lua file.
func LoadLuaStrategy(nameOrPath string) (*LuaStrategy, error) {
	if source, ok := BuiltinScripts[nameOrPath]; ok {
		return NewLuaStrategy("lua:"+nameOrPath, source), nil
	}

	source, err := os.ReadFile(nameOrPath)
	if err != nil {
		return nil, fmt.Errorf("could not read lua strategy %s: %w", nameOrPath, err)
	}
	name := strings.TrimSuffix(filepath.Base(nameOrPath), filepath.Ext(nameOrPath))
	return NewLuaStrategy("lua:"+name, string(source)), nil
}

func (s *LuaStrategy) Name() string { return s.name }

func (s *LuaStrategy) NextMove(ctx context.Context, ts game.TurnState) (game.Direction, error) {
	luaState := lua.NewState()
	defer luaState.Close()
	luaState.SetContext(ctx)

	blocked := ts.Grid.WithOccupied(ts.Opponent)
	luaState.SetGlobal("isFree", luaState.NewFunction(func(L *lua.LState) int {
		pos := game.Position{X: L.CheckInt(1), Y: L.CheckInt(2)}
		L.Push(lua.LBool(pos != ts.Self && blocked.IsFree(pos)))
		return 1
	}))

	if err := luaState.DoString(s.source); err != nil {
		return game.Up, fmt.Errorf("could not parse lua strategy %s: %w", s.name, err)
	}

	entry := luaState.GetGlobal(luaEntryPoint)
	if entry.Type() != lua.LTFunction {
		return game.Up, fmt.Errorf("lua strategy %s does not define %s", s.name, luaEntryPoint)
	}

	if err := luaState.CallByParam(lua.P{Fn: entry, NRet: 1, Protect: true}, turnStateTable(luaState, ts)); err != nil {
		return game.Up, fmt.Errorf("could not execute lua strategy %s: %w", s.name, err)
	}

	ret := luaState.Get(-1)
	luaState.Pop(1)
	return convertLuaDirection(ret)
}

func positionTable(L *lua.LState, pos game.Position) *lua.LTable {
	tbl := L.NewTable()
	tbl.RawSetString("x", lua.LNumber(pos.X))
	tbl.RawSetString("y", lua.LNumber(pos.Y))
	return tbl
}

func turnStateTable(L *lua.LState, ts game.TurnState) *lua.LTable {
	state := L.NewTable()
	state.RawSetString("self", positionTable(L, ts.Self))
	state.RawSetString("opponent", positionTable(L, ts.Opponent))
	state.RawSetString("width", lua.LNumber(ts.Grid.Width()))
	state.RawSetString("height", lua.LNumber(ts.Grid.Height()))
	if ts.TurnsRemaining != nil {
		state.RawSetString("turnsRemaining", lua.LNumber(*ts.TurnsRemaining))
	}
	if ts.OpponentLastDirection != nil {
		state.RawSetString("opponentLastDirection", lua.LString(ts.OpponentLastDirection.String()))
	}
	return state
}

func convertLuaDirection(value lua.LValue) (game.Direction, error) {
	switch v := value.(type) {
	case lua.LString:
		return game.ParseDirection(string(v))
	case *lua.LTable:
		var offset game.Position
		v.ForEach(func(key, value lua.LValue) {
			if key.Type() != lua.LTString {
				return
			}
			switch lua.LVAsString(key) {
			case "Dx":
				offset.X = int(lua.LVAsNumber(value))
			case "Dy":
				offset.Y = int(lua.LVAsNumber(value))
			}
		})
		dir, ok := game.DirectionBetween(game.Position{}, offset)
		if !ok {
			return game.Up, fmt.Errorf("%w: lua offset %s is not a single step", game.ErrInvalidInput, offset)
		}
		return dir, nil
	}
	return game.Up, fmt.Errorf("%w: lua returned %s, expected a string or table", game.ErrInvalidInput, value.Type())
}
