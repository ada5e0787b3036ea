package game

import "errors"

var (
	// ErrInvalidInput covers malformed grids and positions that are out of
	// bounds, blocked or shared by both players.
	ErrInvalidInput = errors.New("invalid turn input")

	// ErrNoLegalMove means every neighbour of the player is blocked. The
	// harness treats it as elimination.
	ErrNoLegalMove = errors.New("no legal move")

	// ErrBudgetExceeded marks decisions that were downgraded to the
	// accessible-space heuristic to stay inside the time budget.
	ErrBudgetExceeded = errors.New("turn budget exceeded")

	// ErrBusy is recorded when Decide is entered while another decision on
	// the same controller is still running.
	ErrBusy = errors.New("decision already in progress")
)
