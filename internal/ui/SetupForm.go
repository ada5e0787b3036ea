package ui

import (
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	focusedColor = lipgloss.Color("205")
	blurredColor = lipgloss.Color("240")
	focusedStyle = lipgloss.NewStyle().Foreground(focusedColor)
	blurredStyle = lipgloss.NewStyle().Foreground(blurredColor)
	helpStyle    = blurredStyle
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))

	optionStyle         = lipgloss.NewStyle().Padding(0, 1)
	selectedOptionStyle = optionStyle.
				Background(focusedColor).
				Foreground(lipgloss.Color("15"))

	buttonStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder())

	submitButtonStyle = buttonStyle.
				BorderForeground(focusedColor).
				Padding(0, 1)

	blurredButtonStyle = buttonStyle.
				BorderForeground(blurredColor).
				Padding(0, 1)
)

// SetupModel picks the opponent and the seed for the start positions.
type SetupModel struct {
	seedInput     textinput.Model
	opponents     []string
	opponentIndex int
	focusIndex    int // 0: Seed, 1: Opponent, 2: Submit
	err           string
	width         int
	height        int
}

func NewInitialSetupModel(opponents []string, w, h int) SetupModel {
	ti := textinput.New()
	ti.Placeholder = "seed (blank for random)"
	ti.Focus()
	ti.CharLimit = 18
	ti.PromptStyle = focusedStyle
	ti.TextStyle = focusedStyle
	ti.Validate = func(s string) error {
		if s == "" {
			return nil
		}
		_, err := strconv.ParseInt(s, 10, 64)
		return err
	}

	return SetupModel{
		seedInput: ti,
		opponents: opponents,
		width:     w,
		height:    h,
	}
}

func (m SetupModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m SetupModel) seed() (int64, error) {
	value := strings.TrimSpace(m.seedInput.Value())
	if value == "" {
		return time.Now().UnixNano(), nil
	}
	return strconv.ParseInt(value, 10, 64)
}

func (m SetupModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		s := msg.String()

		if s == "enter" || s == "tab" || s == "shift+tab" {
			switch m.focusIndex {
			case 0:
				switch s {
				case "enter", "tab":
					m.focusIndex = 1
					m.seedInput.Blur()
				case "shift+tab":
					m.focusIndex = 2
					m.seedInput.Blur()
				}

			case 1:
				switch s {
				case "enter", "tab":
					m.focusIndex = 2
				case "shift+tab":
					m.focusIndex = 0
					m.seedInput.Focus()
				}

			case 2:
				switch s {
				case "enter":
					seed, err := m.seed()
					if err != nil || len(m.opponents) == 0 {
						m.err = "seed must be a whole number"
						m.focusIndex = 0
						m.seedInput.Focus()
						return m, nil
					}
					opponent := m.opponents[m.opponentIndex]
					return m, func() tea.Msg {
						return SetupSubmitMsg{Opponent: opponent, Seed: seed}
					}
				case "tab":
					m.focusIndex = 0
					m.seedInput.Focus()
				case "shift+tab":
					m.focusIndex = 1
				}
			}
			return m, nil
		}

		if m.focusIndex == 1 && len(m.opponents) > 0 {
			switch s {
			case "left", "up":
				m.opponentIndex = (m.opponentIndex - 1 + len(m.opponents)) % len(m.opponents)
				return m, nil
			case "right", "down":
				m.opponentIndex = (m.opponentIndex + 1) % len(m.opponents)
				return m, nil
			}
		}

		if m.focusIndex == 0 {
			var cmd tea.Cmd
			m.err = ""
			m.seedInput, cmd = m.seedInput.Update(msg)
			return m, cmd
		}
	}

	return m, nil
}

func (m SetupModel) View() string {
	center := func(s string) string {
		return lipgloss.NewStyle().Width(m.width).Align(lipgloss.Center).Render(s)
	}

	var b strings.Builder

	b.WriteString(center(m.seedInput.View()))
	b.WriteString("\n")
	if m.err != "" {
		b.WriteString(center(errorStyle.Render(m.err)))
	}
	b.WriteString("\n")

	prompt := "Pick the engine's opponent (use arrows)"
	if m.focusIndex == 1 {
		b.WriteString(center(focusedStyle.Render(prompt)))
	} else {
		b.WriteString(center(blurredStyle.Render(prompt)))
	}
	b.WriteString("\n")

	options := make([]string, len(m.opponents))
	for i, name := range m.opponents {
		if i == m.opponentIndex {
			options[i] = selectedOptionStyle.Render(name)
		} else {
			options[i] = optionStyle.Render(name)
		}
	}
	b.WriteString(center(lipgloss.JoinHorizontal(lipgloss.Center, options...)))
	b.WriteString("\n\n")

	if m.focusIndex == 2 {
		b.WriteString(center(submitButtonStyle.Render("Start")))
	} else {
		b.WriteString(center(blurredButtonStyle.Render("Start")))
	}
	b.WriteString("\n\n")

	b.WriteString(center(helpStyle.Render("(arrows to pick, tab/shift+tab to navigate, enter to confirm, ctrl+c to quit)")))

	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, b.String())
}
