package game

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
)

// budgetMargin is the share of the time budget full scoring may plan to use.
const budgetMargin = 0.8

// cheapShare is the share of the remaining time handed to the bounded
// accessible-space fallback.
const cheapShare = 0.25

type Mode int

const (
	// ModeFull scored every legal move with all terms.
	ModeFull Mode = iota
	// ModeDegraded compared bounded accessible space only, to stay in budget.
	ModeDegraded
	// ModeFallback returned a safe default because the input was unusable.
	ModeFallback
	// ModeTrapped had no legal move and returned an arbitrary direction.
	ModeTrapped
)

func (m Mode) String() string {
	switch m {
	case ModeFull:
		return "full"
	case ModeDegraded:
		return "degraded"
	case ModeFallback:
		return "fallback"
	case ModeTrapped:
		return "trapped"
	}
	return "unknown"
}

type ControllerState int32

const (
	StateIdle ControllerState = iota
	StateDeciding
)

func (s ControllerState) String() string {
	if s == StateDeciding {
		return "deciding"
	}
	return "idle"
}

// Decision is the outcome of one turn. Err explains non-full modes and is
// informational only: Direction is always usable.
type Decision struct {
	Direction  Direction
	Mode       Mode
	Candidates []MoveCandidate
	Err        error
	Elapsed    time.Duration
}

// Controller turns snapshots into moves for one player over one match. It
// owns the opponent history, so use one Controller per match and call
// Decide sequentially.
type Controller struct {
	config    Config
	evaluator *Evaluator
	history   *History
	metrics   *Metrics
	logger    *log.Logger

	lastOpponent *Position
	state        atomic.Int32
}

type ControllerOption func(*Controller)

func WithMetrics(metrics *Metrics) ControllerOption {
	return func(c *Controller) {
		c.metrics = metrics
	}
}

func WithLogger(logger *log.Logger) ControllerOption {
	return func(c *Controller) {
		c.logger = logger
	}
}

// NewController builds a controller. A config that fails validation is
// swapped for the defaults, since a move must always be produced.
func NewController(config Config, opts ...ControllerOption) *Controller {
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		log.Warn("Engine config rejected, using defaults", "error", err)
		config = DefaultConfig()
	}

	c := &Controller{
		config:    config,
		evaluator: NewEvaluator(config),
		history:   NewHistory(config.HistorySize),
		logger:    log.WithPrefix("engine"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Controller) Config() Config {
	return c.config
}

func (c *Controller) State() ControllerState {
	return ControllerState(c.state.Load())
}

func (c *Controller) History() *History {
	return c.history
}

// Reset forgets everything learned about the current opponent. Call it at
// the end of a match.
func (c *Controller) Reset() {
	c.history.Reset()
	c.lastOpponent = nil
}

// Move is Decide reduced to the wire token.
func (c *Controller) Move(ts TurnState) string {
	return c.Decide(ts).Direction.String()
}

// Decide picks a move for ts. It never fails and never runs past the time
// budget by more than one bounded search.
func (c *Controller) Decide(ts TurnState) Decision {
	start := time.Now()
	if !c.state.CompareAndSwap(int32(StateIdle), int32(StateDeciding)) {
		decision := Decision{Direction: c.safeDefault(ts), Mode: ModeFallback, Err: ErrBusy}
		c.logger.Warn("Decide called while deciding", "direction", decision.Direction)
		return decision
	}
	defer c.state.Store(int32(StateIdle))

	last := ts.OpponentLastDirection
	invalid := ts.Validate()
	if invalid == nil && last == nil {
		last = c.inferOpponentDirection(ts.Opponent)
	}

	decision := c.decide(ts, last, start, invalid)
	decision.Elapsed = time.Since(start)

	if invalid == nil {
		if last != nil {
			c.history.Record(*last)
		}
		opponent := ts.Opponent
		c.lastOpponent = &opponent
	}

	c.metrics.Observe(decision)
	c.logDecision(decision)
	return decision
}

func (c *Controller) decide(ts TurnState, last *Direction, start time.Time, invalid error) Decision {
	if invalid != nil {
		return Decision{Direction: c.safeDefault(ts), Mode: ModeFallback, Err: invalid}
	}

	analysis := ts.Grid.WithOccupied(ts.Self).WithOccupied(ts.Opponent)
	candidates := c.evaluator.Enumerate(analysis, ts.Self)
	legal := c.evaluator.Rank(candidates)
	if len(legal) == 0 {
		return Decision{
			Direction: c.config.TieBreakOrder[0],
			Mode:      ModeTrapped,
			Err:       fmt.Errorf("%w: boxed in at %s", ErrNoLegalMove, ts.Self),
		}
	}

	budget := c.config.TimeBudget()
	deadline := start.Add(budget)
	margin := start.Add(time.Duration(float64(budget) * budgetMargin))
	cells := ts.Grid.Width() * ts.Grid.Height()
	cellCost := time.Duration(c.config.CellCostNS)

	fullCost := time.Duration(fullScoringPasses*cells) * cellCost
	if time.Now().Add(fullCost).After(margin) {
		return c.degrade(analysis, legal, deadline,
			fmt.Errorf("%w: full scoring of %d cells needs about %s", ErrBudgetExceeded, cells, fullCost))
	}

	analyzeStart := time.Now()
	ta := c.evaluator.analyze(analysis, ts.Self, ts.Opponent, last, c.history)
	scoreStart := time.Now()

	// Grow the candidate estimate when analysis or earlier candidates ran
	// slower than CellCostNS predicts.
	candidateCost := time.Duration(candidatePasses*cells) * cellCost
	candidateCost = calibrateCost(candidateCost, time.Duration(analyzePasses*cells)*cellCost, scoreStart.Sub(analyzeStart))
	for i := range legal {
		now := time.Now()
		if i > 0 {
			candidateCost = calibrateCost(candidateCost, candidateCost*time.Duration(i), now.Sub(scoreStart))
		}
		if now.Add(candidateCost).After(margin) {
			return c.degrade(analysis, legal, deadline,
				fmt.Errorf("%w: ran out of time after %d of %d candidates", ErrBudgetExceeded, i, len(legal)))
		}
		c.evaluator.score(ta, &legal[i])
	}

	ranked := c.evaluator.Rank(legal)
	return Decision{Direction: ranked[0].Direction, Mode: ModeFull, Candidates: ranked}
}

// calibrateCost scales estimate by how far a measured phase overran the
// time it was expected to take. It never shrinks the estimate.
func calibrateCost(estimate, expected, observed time.Duration) time.Duration {
	if expected <= 0 || observed <= expected {
		return estimate
	}
	return time.Duration(float64(estimate) * float64(observed) / float64(expected))
}

// degrade compares bounded accessible space only. The bound is sized so all
// candidates together use a fraction of whatever time is left.
func (c *Controller) degrade(analysis *Grid, legal []MoveCandidate, deadline time.Time, reason error) Decision {
	remaining := time.Until(deadline)
	limit := 1
	if remaining > 0 {
		perCandidate := time.Duration(float64(remaining)*cheapShare) / time.Duration(len(legal))
		limit = max(1, int(perCandidate/time.Duration(c.config.CellCostNS)))
	}

	for i := range legal {
		c.evaluator.scoreAccessibleOnly(analysis, &legal[i], limit)
	}

	ranked := c.evaluator.Rank(legal)
	return Decision{Direction: ranked[0].Direction, Mode: ModeDegraded, Candidates: ranked, Err: reason}
}

// safeDefault is the first move in tie-break order that does not hit a
// wall or trail, or the first in tie-break order when the input is too
// broken to tell.
func (c *Controller) safeDefault(ts TurnState) Direction {
	if ts.Grid != nil && ts.Grid.InBounds(ts.Self) {
		grid := ts.Grid
		if grid.InBounds(ts.Opponent) {
			grid = grid.WithOccupied(ts.Opponent)
		}
		for _, dir := range c.config.TieBreakOrder {
			if grid.IsFree(ts.Self.Add(dir)) {
				return dir
			}
		}
	}
	return c.config.TieBreakOrder[0]
}

func (c *Controller) inferOpponentDirection(current Position) *Direction {
	if c.lastOpponent == nil {
		return nil
	}
	dir, ok := DirectionBetween(*c.lastOpponent, current)
	if !ok {
		return nil
	}
	return &dir
}

func (c *Controller) logDecision(decision Decision) {
	switch decision.Mode {
	case ModeFull:
		c.logger.Debug("Move chosen", "direction", decision.Direction, "elapsed", decision.Elapsed,
			"candidates", len(decision.Candidates))
		for _, candidate := range decision.Candidates {
			c.logger.Debug("Candidate", "detail", candidate.String())
		}
	case ModeDegraded:
		c.logger.Info("Budget fallback", "direction", decision.Direction, "elapsed", decision.Elapsed, "reason", decision.Err)
	case ModeFallback:
		c.logger.Warn("Invalid turn input, using safe default", "direction", decision.Direction, "error", decision.Err)
	case ModeTrapped:
		c.logger.Info("No legal move", "direction", decision.Direction)
	}
}
