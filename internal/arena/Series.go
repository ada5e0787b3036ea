package arena

import (
	"context"
	"fmt"
	"math/rand"

	"github.com/Mshel/lightcycle/internal/game"
	"github.com/charmbracelet/log"
)

// maxStartAttempts caps the search for far-enough random starts before
// falling back to opposite corners.
const maxStartAttempts = 100

type SeriesConfig struct {
	Games       int   `yaml:"games"`
	Width       int   `yaml:"width"`
	Height      int   `yaml:"height"`
	MaxTurns    int   `yaml:"max_turns"`
	MinDistance int   `yaml:"min_distance"`
	Seed        int64 `yaml:"seed"`
}

func DefaultSeriesConfig() SeriesConfig {
	return SeriesConfig{
		Games:       20,
		Width:       game.DefaultBoardWidth,
		Height:      game.DefaultBoardHeight,
		MaxTurns:    DefaultMaxTurns,
		MinDistance: 5,
		Seed:        1,
	}
}

// SeriesResult counts outcomes from player one's point of view.
type SeriesResult struct {
	Wins    int
	Losses  int
	Draws   int
	Results []Result
}

func (r SeriesResult) Games() int {
	return r.Wins + r.Losses + r.Draws
}

// WinRate is the share of decided games player one won.
func (r SeriesResult) WinRate() float64 {
	decided := r.Wins + r.Losses
	if decided == 0 {
		return 0
	}
	return float64(r.Wins) / float64(decided)
}

func (r SeriesResult) String() string {
	return fmt.Sprintf("%d games: %d wins, %d losses, %d draws, %.1f%% win rate excluding draws",
		r.Games(), r.Wins, r.Losses, r.Draws, r.WinRate()*100)
}

// RandomStarts picks two start cells in the middle half of the board at
// least minDistance apart.
func RandomStarts(rng *rand.Rand, width, height, minDistance int) (game.Position, game.Position) {
	pick := func() game.Position {
		return game.Position{
			X: width/4 + rng.Intn(max(1, width/2)),
			Y: height/4 + rng.Intn(max(1, height/2)),
		}
	}

	one := pick()
	for range maxStartAttempts {
		two := pick()
		if two != one && game.GetManhattanDistance(one, two) >= minDistance {
			return one, two
		}
	}
	return game.Position{X: 0, Y: 0}, game.Position{X: width - 1, Y: height - 1}
}

// Series plays cfg.Games matches between the same two strategies. onResult,
// if set, is called after every match with the finished board.
func Series(ctx context.Context, cfg SeriesConfig, one, two Strategy, onResult func(*Match, Result)) (SeriesResult, error) {
	rng := rand.New(rand.NewSource(cfg.Seed))
	summary := SeriesResult{}

	for i := 0; i < cfg.Games; i++ {
		startOne, startTwo := RandomStarts(rng, cfg.Width, cfg.Height, cfg.MinDistance)
		match, err := NewMatch(cfg.Width, cfg.Height, cfg.MaxTurns, one, two, startOne, startTwo)
		if err != nil {
			return summary, err
		}

		result, err := match.Play(ctx)
		if err != nil {
			return summary, fmt.Errorf("game %d: %w", i+1, err)
		}

		switch result.Outcome {
		case OutcomePlayerOne:
			summary.Wins++
		case OutcomePlayerTwo:
			summary.Losses++
		default:
			summary.Draws++
		}
		summary.Results = append(summary.Results, result)
		if onResult != nil {
			onResult(match, result)
		}

		if (i+1)%5 == 0 {
			log.Info("Series progress", "played", i+1, "of", cfg.Games,
				"wins", summary.Wins, "losses", summary.Losses, "draws", summary.Draws)
		}
	}

	return summary, nil
}
