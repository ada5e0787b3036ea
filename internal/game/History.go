package game

// History is a bounded record of the opponent's most recent moves. It
// belongs to one Controller and is not safe for concurrent use.
type History struct {
	moves []Direction
	start int
	size  int
}

func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{moves: make([]Direction, capacity)}
}

func (h *History) Record(dir Direction) {
	if h.size < len(h.moves) {
		h.moves[(h.start+h.size)%len(h.moves)] = dir
		h.size++
		return
	}
	h.moves[h.start] = dir
	h.start = (h.start + 1) % len(h.moves)
}

func (h *History) Len() int {
	if h == nil {
		return 0
	}
	return h.size
}

func (h *History) Capacity() int {
	return len(h.moves)
}

// Last returns the most recent move.
func (h *History) Last() (Direction, bool) {
	if h.Len() == 0 {
		return Up, false
	}
	return h.moves[(h.start+h.size-1)%len(h.moves)], true
}

// Moves returns the recorded moves oldest first.
func (h *History) Moves() []Direction {
	out := make([]Direction, 0, h.Len())
	for i := 0; i < h.Len(); i++ {
		out = append(out, h.moves[(h.start+i)%len(h.moves)])
	}
	return out
}

// StraightRatio is the share of consecutive move pairs where the opponent
// kept its heading. The second result is false when there are fewer than
// two moves.
func (h *History) StraightRatio() (float64, bool) {
	moves := h.Moves()
	if len(moves) < 2 {
		return 0, false
	}

	straight := 0
	for i := 1; i < len(moves); i++ {
		if moves[i] == moves[i-1] {
			straight++
		}
	}
	return float64(straight) / float64(len(moves)-1), true
}

func (h *History) Reset() {
	h.start = 0
	h.size = 0
}
