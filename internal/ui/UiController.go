package ui

import (
	"time"

	"github.com/Mshel/lightcycle/internal/arena"
	"github.com/Mshel/lightcycle/internal/game"
	tea "github.com/charmbracelet/bubbletea"
)

type Screen int

const (
	IntroScreen Screen = iota
	SetupScreen
	MatchScreen
)

// Messages for state transitions
type IntroSubmitMsg int // 0 for Watch, 1 for Standings
type SetupSubmitMsg struct {
	Opponent string
	Seed     int64
}

type ShowStandingsMsg struct{}

// QuitMatchMsg sends the controller back to the intro screen.
type QuitMatchMsg struct{}

// Deps is what the spectator needs from the rest of the program. Store may
// be nil, in which case results are not saved and standings are empty.
type Deps struct {
	Engine    func() game.Config
	Store     *arena.ResultStore
	Opponents []string
	Tick      time.Duration
	Board     arena.SeriesConfig
}

func (d Deps) withDefaults() Deps {
	if d.Engine == nil {
		d.Engine = game.DefaultConfig
	}
	if len(d.Opponents) == 0 {
		d.Opponents = arena.Opponents()
	}
	if d.Tick <= 0 {
		d.Tick = 120 * time.Millisecond
	}
	if d.Board.Width == 0 || d.Board.Height == 0 {
		d.Board = arena.DefaultSeriesConfig()
	}
	return d
}

type ControllerModel struct {
	CurrentScreen Screen
	deps          Deps

	IntroModel tea.Model
	SetupModel tea.Model
	MatchModel tea.Model

	ScreenWidth  int
	ScreenHeight int
}

func NewControllerModel(deps Deps, screenWidth int, screenHeight int) ControllerModel {
	deps = deps.withDefaults()
	return ControllerModel{
		deps:          deps,
		CurrentScreen: IntroScreen,

		IntroModel: NewIntroModel(screenWidth, screenHeight),
		SetupModel: NewInitialSetupModel(deps.Opponents, screenWidth, screenHeight),

		ScreenWidth:  screenWidth,
		ScreenHeight: screenHeight,
	}
}

func (m ControllerModel) Init() tea.Cmd {
	return m.IntroModel.Init()
}

func (m ControllerModel) View() string {
	switch m.CurrentScreen {
	case IntroScreen:
		return m.IntroModel.View()
	case SetupScreen:
		return m.SetupModel.View()
	case MatchScreen:
		if m.MatchModel != nil {
			return m.MatchModel.View()
		}
		return "Match Loading..."
	default:
		return "Unknown Screen"
	}
}

func (m ControllerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	var cmds []tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && (msg.String() == "ctrl+c" || msg.String() == "q") {
		return m, tea.Quit
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ScreenWidth, m.ScreenHeight = msg.Width, msg.Height
		m.IntroModel, _ = m.IntroModel.Update(msg)
		m.SetupModel, _ = m.SetupModel.Update(msg)
		if m.MatchModel != nil {
			m.MatchModel, cmd = m.MatchModel.Update(msg)
		}
		return m, cmd

	case IntroSubmitMsg:
		if msg == 0 {
			m.CurrentScreen = SetupScreen
			return m, m.SetupModel.Init()
		}
		m.CurrentScreen = MatchScreen
		m.MatchModel = NewStandingsOnlyModel(m.deps, m.ScreenWidth, m.ScreenHeight)
		return m, tea.Sequence(m.MatchModel.Init(), func() tea.Msg { return ShowStandingsMsg{} })

	case SetupSubmitMsg:
		m.CurrentScreen = MatchScreen
		m.MatchModel = NewMatchModel(m.deps, msg.Opponent, msg.Seed, m.ScreenWidth, m.ScreenHeight)
		return m, m.MatchModel.Init()

	case QuitMatchMsg:
		m.CurrentScreen = IntroScreen
		m.MatchModel = nil
		return m, m.IntroModel.Init()

	default:
		switch m.CurrentScreen {
		case IntroScreen:
			m.IntroModel, cmd = m.IntroModel.Update(msg)
			cmds = append(cmds, cmd)
		case SetupScreen:
			m.SetupModel, cmd = m.SetupModel.Update(msg)
			cmds = append(cmds, cmd)
		case MatchScreen:
			if m.MatchModel != nil {
				m.MatchModel, cmd = m.MatchModel.Update(msg)
				cmds = append(cmds, cmd)
			}
		}
	}

	return m, tea.Batch(cmds...)
}
