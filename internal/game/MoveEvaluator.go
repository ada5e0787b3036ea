package game

import (
	"fmt"
	"sort"
)

const (
	// collisionPenalty scales the block term for moving straight into a cell
	// the opponent is predicted to take.
	collisionPenalty = 3.0
	// fullScoringPasses approximates how many whole-grid traversals a full
	// decision costs: region labelling and prediction once, plus four
	// searches per candidate.
	fullScoringPasses = 20
	candidatePasses   = 4
	analyzePasses     = fullScoringPasses - 4*candidatePasses
)

type ScoreBreakdown struct {
	Accessible float64
	Safety     float64
	Territory  float64
	Path       float64
	Block      float64
	Corner     float64
}

type MoveCandidate struct {
	Direction Direction
	Position  Position
	Legal     bool

	Terms ScoreBreakdown
	Score float64

	// OpponentSpace is what the opponent can still reach after this move.
	OpponentSpace int
	DeadEnd       bool
}

func (mc MoveCandidate) String() string {
	return fmt.Sprintf("%s->%s score=%.2f space=%.0f safety=%.0f territory=%.0f path=%.0f block=%.2f corner=%.0f",
		mc.Direction, mc.Position, mc.Score, mc.Terms.Accessible, mc.Terms.Safety, mc.Terms.Territory,
		mc.Terms.Path, mc.Terms.Block, mc.Terms.Corner)
}

// turnAnalysis is the per-turn work shared by every candidate.
type turnAnalysis struct {
	grid     *Grid
	self     Position
	opponent Position
	region   Region
	hints    []PredictionHint
	early    bool
}

type Evaluator struct {
	config   Config
	tieBreak map[Direction]int
}

func NewEvaluator(config Config) *Evaluator {
	tieBreak := make(map[Direction]int, len(Directions))
	for rank, dir := range config.TieBreakOrder {
		tieBreak[dir] = rank
	}
	for _, dir := range Directions {
		if _, ok := tieBreak[dir]; !ok {
			tieBreak[dir] = len(tieBreak)
		}
	}

	return &Evaluator{config: config, tieBreak: tieBreak}
}

// Enumerate lists all four moves from pos. A move is legal only when its
// cell is in bounds and empty on g.
func (e *Evaluator) Enumerate(g *Grid, pos Position) []MoveCandidate {
	candidates := make([]MoveCandidate, 0, len(Directions))
	for _, dir := range Directions {
		next := pos.Add(dir)
		candidates = append(candidates, MoveCandidate{
			Direction: dir,
			Position:  next,
			Legal:     g.IsFree(next),
		})
	}
	return candidates
}

// analyze runs the candidate independent searches. g must already have both
// head cells blocked.
func (e *Evaluator) analyze(g *Grid, self, opponent Position, last *Direction, history *History) turnAnalysis {
	total := g.Width() * g.Height()
	return turnAnalysis{
		grid:     g,
		self:     self,
		opponent: opponent,
		region:   LargestRegion(g),
		hints:    PredictOpponent(g, opponent, last, history),
		early:    float64(g.FreeCells()) >= e.config.OpeningThreshold*float64(total),
	}
}

func (e *Evaluator) score(ta turnAnalysis, candidate *MoveCandidate) {
	successor := ta.grid.WithOccupied(candidate.Position)
	reach := FloodFillFrom(successor, candidate.Position)
	candidate.OpponentSpace = FloodFillFrom(successor, ta.opponent).Count
	candidate.DeadEnd = reach.DeadEnd

	terms := ScoreBreakdown{Accessible: float64(reach.Count)}

	safety := min(edgeDistance(ta.grid, candidate.Position), GetManhattanDistance(candidate.Position, ta.opponent))
	if reach.DeadEnd && reach.Count < candidate.OpponentSpace {
		safety = 0
	}
	terms.Safety = float64(safety)

	terms.Territory = float64(PartitionTerritory(successor, candidate.Position, ta.opponent).Advantage())

	if ta.region.Size > 0 {
		if length, ok := FindPath(successor, candidate.Position, ta.region.Target); ok {
			terms.Path = -float64(length)
		} else {
			terms.Path = -float64(ta.grid.Width() + ta.grid.Height())
		}
	}

	for _, hint := range ta.hints {
		if hint.Position == candidate.Position {
			terms.Block -= collisionPenalty * hint.Weight
			continue
		}
		closer := GetManhattanDistance(ta.self, hint.Position) - GetManhattanDistance(candidate.Position, hint.Position)
		terms.Block += hint.Weight * float64(closer)
	}

	if ta.early {
		if d := cornerDistance(ta.grid, candidate.Position); d <= e.config.CornerRadius {
			terms.Corner = -float64(e.config.CornerRadius + 1 - d)
		}
	}

	candidate.Terms = terms
	candidate.Score = e.aggregate(terms)
}

func (e *Evaluator) aggregate(terms ScoreBreakdown) float64 {
	return e.config.WeightAccessible*terms.Accessible +
		e.config.WeightSafety*terms.Safety +
		e.config.WeightTerritory*terms.Territory +
		e.config.WeightPath*terms.Path +
		e.config.WeightBlock*terms.Block +
		e.config.WeightCorner*terms.Corner
}

// scoreAccessibleOnly is the cheap heuristic: a bounded flood fill per
// candidate and nothing else.
func (e *Evaluator) scoreAccessibleOnly(g *Grid, candidate *MoveCandidate, limit int) {
	reach := FloodFillBounded(g.WithOccupied(candidate.Position), candidate.Position, limit)
	candidate.Terms = ScoreBreakdown{Accessible: float64(reach.Count)}
	candidate.DeadEnd = reach.DeadEnd
	candidate.Score = float64(reach.Count)
}

// Rank returns the legal candidates best first. Equal scores keep the
// configured tie-break order.
func (e *Evaluator) Rank(candidates []MoveCandidate) []MoveCandidate {
	ranked := make([]MoveCandidate, 0, len(candidates))
	for _, candidate := range candidates {
		if candidate.Legal {
			ranked = append(ranked, candidate)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return e.tieBreak[ranked[i].Direction] < e.tieBreak[ranked[j].Direction]
	})
	return ranked
}

// Evaluate scores every legal move for the snapshot without any time
// budgeting and returns them ranked. ErrNoLegalMove is returned when the
// player is boxed in.
func (e *Evaluator) Evaluate(ts TurnState, history *History) ([]MoveCandidate, error) {
	analysis := ts.Grid.WithOccupied(ts.Self).WithOccupied(ts.Opponent)
	candidates := e.Enumerate(analysis, ts.Self)

	ta := e.analyze(analysis, ts.Self, ts.Opponent, ts.OpponentLastDirection, history)
	for i := range candidates {
		if candidates[i].Legal {
			e.score(ta, &candidates[i])
		}
	}

	ranked := e.Rank(candidates)
	if len(ranked) == 0 {
		return nil, ErrNoLegalMove
	}
	return ranked, nil
}

func edgeDistance(g *Grid, pos Position) int {
	return min(pos.X, pos.Y, g.Width()-1-pos.X, g.Height()-1-pos.Y)
}

func cornerDistance(g *Grid, pos Position) int {
	right, bottom := g.Width()-1, g.Height()-1
	return min(
		GetManhattanDistance(pos, Position{X: 0, Y: 0}),
		GetManhattanDistance(pos, Position{X: right, Y: 0}),
		GetManhattanDistance(pos, Position{X: 0, Y: bottom}),
		GetManhattanDistance(pos, Position{X: right, Y: bottom}),
	)
}
