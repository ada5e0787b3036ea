package ui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/Mshel/lightcycle/internal/arena"
	"github.com/charmbracelet/lipgloss"
)

// GameOverState holds what the match-over and standings screens show.
type GameOverState struct {
	Result       arena.Result
	SaveErr      error
	Standings    []arena.Standing
	TotalMatches int
	StandingsErr error
	ScreenWidth  int
	ScreenHeight int
}

var (
	leaderboardHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("15")).
				Background(lipgloss.Color("236")).
				Padding(0, 1).
				Align(lipgloss.Center)

	leaderboardRowStyle = lipgloss.NewStyle().
				Padding(0, 1)

	leaderboardBorderStyle = lipgloss.NewStyle().
				Border(lipgloss.NormalBorder(), false, false, true, false).
				BorderForeground(lipgloss.Color("8"))
)

func (g *GameOverState) headline() (string, lipgloss.Color) {
	switch g.Result.Outcome {
	case arena.OutcomePlayerOne:
		return fmt.Sprintf("%s WINS", strings.ToUpper(g.Result.PlayerOne)), lipgloss.Color(playerColors[0])
	case arena.OutcomePlayerTwo:
		return fmt.Sprintf("%s WINS", strings.ToUpper(g.Result.PlayerTwo)), lipgloss.Color(playerColors[1])
	}
	return "DRAW", lipgloss.Color("11")
}

// RenderMatchOverScreen draws the outcome of the finished match.
func (g *GameOverState) RenderMatchOverScreen(helpView string) string {
	text, color := g.headline()
	title := lipgloss.NewStyle().
		Bold(true).
		Foreground(color).
		Padding(1, 5).
		Align(lipgloss.Center).
		Render(text)

	stats := fmt.Sprintf("\n%s vs %s\nTurns played: %d\nBoard: %dx%d\n",
		g.Result.PlayerOne, g.Result.PlayerTwo, g.Result.Turns, g.Result.Width, g.Result.Height)
	if g.SaveErr != nil {
		stats += errorStyle.Render("Result not saved: "+g.SaveErr.Error()) + "\n"
	}

	content := lipgloss.JoinVertical(lipgloss.Center, title, stats, helpView)

	return lipgloss.Place(g.ScreenWidth, g.ScreenHeight,
		lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Border(lipgloss.ThickBorder()).Padding(0, 2).Render(content),
	)
}

// RenderStandingsScreen draws every stored strategy's record.
func (g *GameOverState) RenderStandingsScreen(helpView string) string {
	var tableContent strings.Builder

	nameWidth := 18
	countWidth := 8

	header := lipgloss.JoinHorizontal(lipgloss.Top,
		leaderboardHeaderStyle.Width(4).Render("#"),
		leaderboardHeaderStyle.Width(nameWidth).Render("Strategy"),
		leaderboardHeaderStyle.Width(countWidth).Render("Wins"),
		leaderboardHeaderStyle.Width(countWidth).Render("Losses"),
		leaderboardHeaderStyle.Width(countWidth).Render("Draws"),
	)
	tableContent.WriteString(header + "\n")

	for i, standing := range g.Standings {
		nameStyle := leaderboardRowStyle
		switch standing.Name {
		case g.Result.PlayerOne:
			nameStyle = nameStyle.Foreground(lipgloss.Color(playerColors[0]))
		case g.Result.PlayerTwo:
			nameStyle = nameStyle.Foreground(lipgloss.Color(playerColors[1]))
		}

		row := lipgloss.JoinHorizontal(lipgloss.Top,
			leaderboardRowStyle.Width(4).Render(strconv.Itoa(i+1)),
			nameStyle.Width(nameWidth).Render(standing.Name),
			leaderboardRowStyle.Width(countWidth).Render(strconv.Itoa(standing.Wins)),
			leaderboardRowStyle.Width(countWidth).Render(strconv.Itoa(standing.Losses)),
			leaderboardRowStyle.Width(countWidth).Render(strconv.Itoa(standing.Draws)),
		)
		tableContent.WriteString(leaderboardBorderStyle.Render(row) + "\n")
	}

	footer := fmt.Sprintf("%d matches recorded", g.TotalMatches)
	switch {
	case g.StandingsErr != nil:
		footer = errorStyle.Render("Could not load standings: " + g.StandingsErr.Error())
	case len(g.Standings) == 0:
		footer = "No matches recorded yet."
	}

	title := lipgloss.NewStyle().Bold(true).Padding(1, 0).Render("STANDINGS")
	instruction := lipgloss.NewStyle().Faint(true).Margin(1, 0).Render(footer)

	finalContent := lipgloss.JoinVertical(lipgloss.Center,
		title,
		tableContent.String(),
		instruction,
		helpView,
	)

	return lipgloss.Place(g.ScreenWidth, g.ScreenHeight,
		lipgloss.Center, lipgloss.Center,
		lipgloss.NewStyle().Border(lipgloss.ThickBorder()).Render(finalContent),
	)
}
