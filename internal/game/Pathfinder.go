package game

import "container/heap"

// Unreachable is the path length reported when no route exists.
const Unreachable = -1

type pathNode struct {
	pos       Position
	cost      int
	estimate  int
	insertion int
}

// openSet orders nodes by f = cost + estimate, then by the lower estimate,
// then by insertion order, so equal inputs always expand the same way.
type openSet []pathNode

func (s openSet) Len() int { return len(s) }

func (s openSet) Less(i, j int) bool {
	fi, fj := s[i].cost+s[i].estimate, s[j].cost+s[j].estimate
	if fi != fj {
		return fi < fj
	}
	if s[i].estimate != s[j].estimate {
		return s[i].estimate < s[j].estimate
	}
	return s[i].insertion < s[j].insertion
}

func (s openSet) Swap(i, j int) { s[i], s[j] = s[j], s[i] }

func (s *openSet) Push(x any) { *s = append(*s, x.(pathNode)) }

func (s *openSet) Pop() any {
	old := *s
	node := old[len(old)-1]
	*s = old[:len(old)-1]
	return node
}

// FindPath runs A* from start to target over empty cells with unit steps and
// the Manhattan heuristic. start may be blocked since it is where the search
// begins. Unreachable targets are an expected outcome, not an error.
func FindPath(g *Grid, start, target Position) (int, bool) {
	if start == target {
		return 0, true
	}
	if !g.InBounds(start) || g.IsOccupied(target) {
		return Unreachable, false
	}

	win := fullWindow(g)
	best := make([]int, win.size())
	for i := range best {
		best[i] = -1
	}
	closed := make([]bool, win.size())

	open := &openSet{}
	insertion := 0
	heap.Push(open, pathNode{pos: start, estimate: GetManhattanDistance(start, target), insertion: insertion})
	best[win.index(start)] = 0

	for open.Len() > 0 {
		current := heap.Pop(open).(pathNode)
		idx := win.index(current.pos)
		if closed[idx] {
			continue
		}
		closed[idx] = true

		if current.pos == target {
			return current.cost, true
		}

		for _, dir := range Directions {
			neighbor := current.pos.Add(dir)
			if g.IsOccupied(neighbor) {
				continue
			}
			nIdx := win.index(neighbor)
			cost := current.cost + 1
			if closed[nIdx] || (best[nIdx] >= 0 && best[nIdx] <= cost) {
				continue
			}

			best[nIdx] = cost
			insertion++
			heap.Push(open, pathNode{
				pos:       neighbor,
				cost:      cost,
				estimate:  GetManhattanDistance(neighbor, target),
				insertion: insertion,
			})
		}
	}

	return Unreachable, false
}
