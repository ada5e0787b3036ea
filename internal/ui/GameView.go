package ui

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/Mshel/lightcycle/internal/arena"
	"github.com/Mshel/lightcycle/internal/game"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

type MatchState int

const (
	StatePlaying MatchState = iota
	StateOver
	StateStandings
)

var (
	voidColor    = "233"
	playerColors = [2]string{"39", "205"}

	mapViewStyle = lipgloss.NewStyle().
			Border(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(0, 0)

	statusPanelStyle = lipgloss.NewStyle().
				Border(lipgloss.RoundedBorder()).
				BorderForeground(lipgloss.Color("8")).
				Padding(1, 2)

	voidStyle = lipgloss.NewStyle().Background(lipgloss.Color(voidColor))

	headRunes = map[game.Direction]rune{
		game.Up:    '▲',
		game.Down:  '▼',
		game.Left:  '◀',
		game.Right: '▶',
	}
)

const (
	mapViewPercentage  = 0.70
	statusPanelPadding = 4
)

type matchTickMsg struct{ gen int }

type turnMsg struct {
	gen  int
	turn arena.TurnMsg
	err  error
}

type resultSavedMsg struct{ err error }

type standingsMsg struct {
	standings []arena.Standing
	total     int
	err       error
}

type keyMap struct {
	Pause     key.Binding
	NewMatch  key.Binding
	Standings key.Binding
	Back      key.Binding
	Quit      key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Pause, k.NewMatch, k.Standings, k.Back, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultKeys = keyMap{
	Pause:     key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "pause")),
	NewMatch:  key.NewBinding(key.WithKeys("n"), key.WithHelp("n", "new match")),
	Standings: key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "standings")),
	Back:      key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
	Quit:      key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
}

// MatchViewModel plays one engine-vs-opponent match at a time, one turn per
// tick. Player one is always the engine.
type MatchViewModel struct {
	ScreenWidth  int
	ScreenHeight int

	deps     Deps
	opponent string
	rng      *rand.Rand

	// gen tells ticks of the current match apart from those of replaced ones.
	gen      int
	match    *arena.Match
	engine   *arena.EngineStrategy
	last     arena.TurnMsg
	paused   bool
	stepping bool
	err      error

	state         MatchState
	gameOverState GameOverState
	keys          keyMap
	help          help.Model
}

func NewMatchModel(deps Deps, opponent string, seed int64, screenWidth int, screenHeight int) MatchViewModel {
	m := MatchViewModel{
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
		deps:         deps.withDefaults(),
		opponent:     opponent,
		rng:          rand.New(rand.NewSource(seed)),
		keys:         defaultKeys,
		help:         help.New(),
		gameOverState: GameOverState{
			ScreenWidth:  screenWidth,
			ScreenHeight: screenHeight,
		},
	}
	m.startMatch()
	return m
}

// NewStandingsOnlyModel shows the standings without a match behind them.
func NewStandingsOnlyModel(deps Deps, screenWidth int, screenHeight int) MatchViewModel {
	return MatchViewModel{
		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
		deps:         deps.withDefaults(),
		state:        StateStandings,
		keys:         defaultKeys,
		help:         help.New(),
		gameOverState: GameOverState{
			ScreenWidth:  screenWidth,
			ScreenHeight: screenHeight,
		},
	}
}

func (m *MatchViewModel) startMatch() {
	m.gen++
	m.state = StatePlaying
	m.paused, m.stepping = false, false
	m.last = arena.TurnMsg{}
	m.err = nil

	engineConfig := m.deps.Engine()
	opponent, err := arena.NewOpponent(m.opponent, m.rng.Int63(), engineConfig)
	if err != nil {
		m.match, m.err = nil, err
		return
	}
	m.engine = arena.NewEngineStrategy("engine", game.NewController(engineConfig))

	board := m.deps.Board
	startOne, startTwo := arena.RandomStarts(m.rng, board.Width, board.Height, board.MinDistance)
	m.match, m.err = arena.NewMatch(board.Width, board.Height, board.MaxTurns, m.engine, opponent, startOne, startTwo)
	if m.err == nil {
		log.Debug("Spectator match started", "id", m.match.ID, "opponent", m.opponent)
	}
}

func (m MatchViewModel) Init() tea.Cmd {
	if m.state != StatePlaying {
		return nil
	}
	return m.tick()
}

func (m MatchViewModel) tick() tea.Cmd {
	gen := m.gen
	return tea.Tick(m.deps.Tick, func(time.Time) tea.Msg {
		return matchTickMsg{gen: gen}
	})
}

func stepMatch(match *arena.Match, gen int) tea.Cmd {
	return func() tea.Msg {
		turn, err := match.Step(context.Background())
		return turnMsg{gen: gen, turn: turn, err: err}
	}
}

func saveResult(store *arena.ResultStore, result arena.Result) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		return resultSavedMsg{err: store.Save(context.Background(), result)}
	}
}

func loadStandings(store *arena.ResultStore) tea.Cmd {
	return func() tea.Msg {
		if store == nil {
			return standingsMsg{}
		}
		ctx := context.Background()
		standings, err := store.Standings(ctx)
		if err != nil {
			return standingsMsg{err: err}
		}
		total, err := store.Count(ctx)
		return standingsMsg{standings: standings, total: total, err: err}
	}
}

func (m MatchViewModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ScreenWidth, m.ScreenHeight = msg.Width, msg.Height
		m.gameOverState.ScreenWidth, m.gameOverState.ScreenHeight = msg.Width, msg.Height
		return m, nil

	case ShowStandingsMsg:
		m.state = StateStandings
		return m, loadStandings(m.deps.Store)

	case standingsMsg:
		m.gameOverState.Standings = msg.standings
		m.gameOverState.TotalMatches = msg.total
		m.gameOverState.StandingsErr = msg.err
		return m, nil

	case resultSavedMsg:
		m.gameOverState.SaveErr = msg.err
		if msg.err != nil {
			log.Error("Failed to save match result", "error", msg.err)
		}
		return m, nil

	case matchTickMsg:
		if msg.gen != m.gen || m.state != StatePlaying || m.match == nil {
			return m, nil
		}
		if m.paused || m.stepping {
			return m, m.tick()
		}
		m.stepping = true
		return m, stepMatch(m.match, m.gen)

	case turnMsg:
		if msg.gen != m.gen {
			return m, nil
		}
		m.stepping = false
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.last = msg.turn
		if msg.turn.Outcome == arena.OutcomeOngoing {
			return m, m.tick()
		}

		result := m.match.Result()
		m.gameOverState.Result = result
		m.gameOverState.SaveErr = nil
		if m.state == StatePlaying {
			m.state = StateOver
		}
		return m, saveResult(m.deps.Store, result)

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit

		case key.Matches(msg, m.keys.Pause):
			if m.state == StatePlaying {
				m.paused = !m.paused
			}
			return m, nil

		case key.Matches(msg, m.keys.NewMatch):
			if m.opponent == "" {
				return m, nil
			}
			m.startMatch()
			return m, m.tick()

		case key.Matches(msg, m.keys.Standings):
			m.state = StateStandings
			return m, loadStandings(m.deps.Store)

		case key.Matches(msg, m.keys.Back):
			if m.state != StateStandings || m.match == nil {
				return m, func() tea.Msg { return QuitMatchMsg{} }
			}
			if m.match.Outcome() != arena.OutcomeOngoing {
				m.state = StateOver
				return m, nil
			}
			m.state = StatePlaying
			return m, m.tick()
		}
	}

	return m, nil
}

func (m MatchViewModel) View() string {
	helpView := m.help.View(m.keys)

	switch m.state {
	case StateOver:
		return m.gameOverState.RenderMatchOverScreen(helpView)
	case StateStandings:
		return m.gameOverState.RenderStandingsScreen(helpView)
	}

	if m.match == nil {
		message := "Preparing match..."
		if m.err != nil {
			message = errorStyle.Render(fmt.Sprintf("Could not start a match against %s: %v", m.opponent, m.err))
		}
		return lipgloss.Place(m.ScreenWidth, m.ScreenHeight, lipgloss.Center, lipgloss.Center,
			lipgloss.JoinVertical(lipgloss.Center, message, "", helpView))
	}

	mapWidth := int(float64(m.ScreenWidth) * mapViewPercentage)
	statusPanelWidth := m.ScreenWidth - mapWidth - statusPanelPadding

	board := lipgloss.Place(mapWidth, m.ScreenHeight, lipgloss.Center, lipgloss.Center, RenderBoard(m.match))
	return lipgloss.JoinHorizontal(lipgloss.Top,
		mapViewStyle.Width(mapWidth).Height(m.ScreenHeight).Render(board),
		statusPanelStyle.Width(statusPanelWidth).Height(m.ScreenHeight).Render(m.renderStatusPanel(helpView)),
	)
}

// Trail connection bits.
const (
	linkUp = 1 << iota
	linkDown
	linkLeft
	linkRight
)

var linkBits = map[game.Direction]int{
	game.Up:    linkUp,
	game.Down:  linkDown,
	game.Left:  linkLeft,
	game.Right: linkRight,
}

func trailRune(links int) string {
	hasUp, hasDown := links&linkUp != 0, links&linkDown != 0
	hasLeft, hasRight := links&linkLeft != 0, links&linkRight != 0

	switch {
	case (hasUp && hasDown) || (hasUp && !hasLeft && !hasRight && !hasDown) || (hasDown && !hasLeft && !hasRight && !hasUp):
		return "│"
	case (hasLeft && hasRight) || (hasLeft && !hasUp && !hasDown && !hasRight) || (hasRight && !hasUp && !hasDown && !hasLeft):
		return "─"
	case hasUp && hasRight:
		return "└"
	case hasUp && hasLeft:
		return "┘"
	case hasDown && hasRight:
		return "┌"
	case hasDown && hasLeft:
		return "┐"
	default:
		return "•"
	}
}

// RenderBoard draws every cell two columns wide. Trails are drawn as
// connected lines following the order they were laid, heads as arrows.
func RenderBoard(match *arena.Match) string {
	width, height := match.Width(), match.Height()

	links := make([][]int, height)
	owner := make([][]int, height)
	for y := range links {
		links[y] = make([]int, width)
		owner[y] = make([]int, width)
	}

	var headPos [2]game.Position
	var headDir [2]*game.Direction
	for i := range 2 {
		player := match.Player(i)
		headPos[i], headDir[i] = player.Position, player.LastMove
		for k, pos := range player.Trail {
			owner[pos.Y][pos.X] = i + 1
			if k+1 < len(player.Trail) {
				if dir, ok := game.DirectionBetween(pos, player.Trail[k+1]); ok {
					links[pos.Y][pos.X] |= linkBits[dir]
					next := player.Trail[k+1]
					links[next.Y][next.X] |= linkBits[dir.Opposite()]
				}
			}
		}
	}

	var sb strings.Builder
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			pos := game.Position{X: x, Y: y}
			who := owner[y][x]
			if who == 0 {
				sb.WriteString(voidStyle.Render("  "))
				continue
			}

			style := voidStyle.Foreground(lipgloss.Color(playerColors[who-1]))
			filler := " "
			if links[y][x]&linkRight != 0 {
				filler = "─"
			}

			if pos == headPos[who-1] {
				head := '●'
				if dir := headDir[who-1]; dir != nil {
					head = headRunes[*dir]
				}
				sb.WriteString(style.Bold(true).Render(string(head) + filler))
				continue
			}
			sb.WriteString(style.Render(trailRune(links[y][x]) + filler))
		}
		sb.WriteString("\n")
	}
	return strings.TrimSuffix(sb.String(), "\n")
}

func (m MatchViewModel) renderStatusPanel(helpView string) string {
	var status strings.Builder
	bold := lipgloss.NewStyle().Bold(true)

	status.WriteString(bold.Render("--- Match ---") + "\n")
	for i := range 2 {
		player := m.match.Player(i)
		dot := lipgloss.NewStyle().Foreground(lipgloss.Color(playerColors[i])).Render("● ")
		status.WriteString(fmt.Sprintf("%s%s at %s\n", dot, player.Strategy.Name(), player.Position))
	}
	status.WriteString(fmt.Sprintf("Turn: %d\n", m.last.Turn))
	if m.paused {
		status.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Render("PAUSED") + "\n")
	}
	if m.err != nil {
		status.WriteString(errorStyle.Render(m.err.Error()) + "\n")
	}

	decision := m.engine.LastDecision()
	status.WriteString("\n" + bold.Render("--- Engine ---") + "\n")
	if decision.Elapsed > 0 {
		status.WriteString(fmt.Sprintf("Move: %s (%s, %s)\n", decision.Direction, decision.Mode, decision.Elapsed.Round(time.Microsecond)))
		if decision.Err != nil {
			status.WriteString(lipgloss.NewStyle().Faint(true).Render(decision.Err.Error()) + "\n")
		}
		for _, candidate := range decision.Candidates {
			line := fmt.Sprintf("%-5s %7.2f space %3.0f terr %3.0f", candidate.Direction, candidate.Score,
				candidate.Terms.Accessible, candidate.Terms.Territory)
			if candidate.DeadEnd {
				line += " dead end"
			}
			status.WriteString(line + "\n")
		}
	} else {
		status.WriteString("Waiting for the first move\n")
	}

	status.WriteString("\n" + bold.Render("--- Controls ---") + "\n")
	status.WriteString(helpView)
	return status.String()
}
