package game

const (
	straightConfidence     = 0.8
	minStraightConfidence  = 0.5
	historyConfidenceRange = 0.4
)

// PredictionHint is one cell the opponent may move into next turn.
type PredictionHint struct {
	Direction Direction
	Position  Position
	Weight    float64
}

// PredictOpponent guesses the opponent's next move. A known heading that is
// still open is predicted with high confidence; the rest of the weight is
// spread over the other open moves in proportion to the space each leaves
// the opponent. last may be nil, in which case the latest history entry is
// used. Weights sum to 1 unless the opponent has no open move.
func PredictOpponent(g *Grid, opponent Position, last *Direction, history *History) []PredictionHint {
	type option struct {
		step  Step
		space int
	}

	var options []option
	for _, step := range g.Neighbors(opponent) {
		if g.IsOccupied(step.Position) {
			continue
		}
		space := FloodFillFrom(g.WithOccupied(step.Position), step.Position).Count
		options = append(options, option{step: step, space: space})
	}
	if len(options) == 0 {
		return nil
	}

	heading, known := Up, false
	if last != nil {
		heading, known = *last, true
	} else if previous, ok := history.Last(); ok {
		heading, known = previous, true
	}

	straightIdx := -1
	if known {
		for i, opt := range options {
			if opt.step.Direction == heading {
				straightIdx = i
			}
		}
	}

	hints := make([]PredictionHint, 0, len(options))
	remaining := 1.0
	if straightIdx >= 0 {
		confidence := straightConfidence
		if ratio, ok := history.StraightRatio(); ok {
			confidence = minStraightConfidence + historyConfidenceRange*ratio
		}
		if len(options) == 1 {
			confidence = 1
		}
		remaining = 1 - confidence
		hints = append(hints, PredictionHint{
			Direction: heading,
			Position:  options[straightIdx].step.Position,
			Weight:    confidence,
		})
	}

	totalSpace := 0
	others := 0
	for i, opt := range options {
		if i == straightIdx {
			continue
		}
		totalSpace += opt.space
		others++
	}

	for i, opt := range options {
		if i == straightIdx {
			continue
		}
		weight := remaining / float64(others)
		if totalSpace > 0 {
			weight = remaining * float64(opt.space) / float64(totalSpace)
		}
		hints = append(hints, PredictionHint{
			Direction: opt.step.Direction,
			Position:  opt.step.Position,
			Weight:    weight,
		})
	}

	return hints
}
