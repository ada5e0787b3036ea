package game

import "math"

// deadEndLayers is how many consecutive single-cell layers a closed region
// needs before it is reported as a dead end.
const deadEndLayers = 3

type Reachability struct {
	// Count is the number of cells reachable from the origin, origin included.
	Count  int
	Layers int
	// DeadEnd is set when the region closed after the frontier stopped
	// growing, i.e. the origin leads into a tunnel or pocket.
	DeadEnd      bool
	EnclosedSize int
	// Truncated is set when a bounded fill hit its limit.
	Truncated bool
}

// FloodFill counts the empty cells reachable from start. A blocked or out of
// bounds start reaches nothing.
func FloodFill(g *Grid, start Position) Reachability {
	if g.IsOccupied(start) {
		return Reachability{}
	}
	return floodFill(g, start, fullWindow(g), math.MaxInt)
}

// FloodFillFrom treats origin as the frontier origin even when it is
// blocked, which is the case for a player's own head cell.
func FloodFillFrom(g *Grid, origin Position) Reachability {
	if !g.InBounds(origin) {
		return Reachability{}
	}
	return floodFill(g, origin, fullWindow(g), math.MaxInt)
}

// FloodFillBounded stops after limit cells. Only a square window around the
// origin large enough to hold limit cells is allocated, so the cost does not
// depend on the grid size.
func FloodFillBounded(g *Grid, origin Position, limit int) Reachability {
	if !g.InBounds(origin) || limit <= 0 {
		return Reachability{}
	}

	radius := int(math.Ceil(math.Sqrt(float64(limit))))
	win := window{
		minX: max(0, origin.X-radius),
		minY: max(0, origin.Y-radius),
		maxX: min(g.width-1, origin.X+radius),
		maxY: min(g.height-1, origin.Y+radius),
	}
	return floodFill(g, origin, win, limit)
}

type window struct {
	minX, minY, maxX, maxY int
}

func fullWindow(g *Grid) window {
	return window{maxX: g.width - 1, maxY: g.height - 1}
}

func (w window) contains(pos Position) bool {
	return pos.X >= w.minX && pos.X <= w.maxX && pos.Y >= w.minY && pos.Y <= w.maxY
}

func (w window) index(pos Position) int {
	return (pos.Y-w.minY)*(w.maxX-w.minX+1) + (pos.X - w.minX)
}

func (w window) size() int {
	return (w.maxX - w.minX + 1) * (w.maxY - w.minY + 1)
}

func floodFill(g *Grid, origin Position, win window, limit int) Reachability {
	visited := make([]bool, win.size())
	visited[win.index(origin)] = true

	result := Reachability{Count: 1, Layers: 1}
	frontier := []Position{origin}
	narrowStreak := 1
	alwaysNarrow := true

	for len(frontier) > 0 {
		next := make([]Position, 0, len(frontier)*2)
		for _, current := range frontier {
			for _, dir := range Directions {
				neighbor := current.Add(dir)
				if !win.contains(neighbor) || visited[win.index(neighbor)] || g.IsOccupied(neighbor) {
					continue
				}
				if result.Count >= limit {
					result.Truncated = true
					return result
				}

				visited[win.index(neighbor)] = true
				result.Count++
				next = append(next, neighbor)
			}
		}

		if len(next) == 0 {
			break
		}

		result.Layers++
		if len(next) <= 1 {
			narrowStreak++
		} else {
			narrowStreak = 0
			alwaysNarrow = false
		}
		frontier = next
	}

	if alwaysNarrow || narrowStreak >= deadEndLayers {
		result.DeadEnd = true
		result.EnclosedSize = result.Count
	}

	return result
}

// Region is a connected component of empty cells.
type Region struct {
	Size     int
	Centroid Position
	// Target is the region cell closest to the centroid.
	Target Position
}

// LargestRegion labels the empty components of g and returns the biggest.
// Ties go to the component found first in row-major order. Size is zero
// when the grid is full.
func LargestRegion(g *Grid) Region {
	win := fullWindow(g)
	seen := make([]bool, win.size())
	var best []Position

	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			start := Position{X: x, Y: y}
			if seen[win.index(start)] || g.IsOccupied(start) {
				continue
			}

			component := []Position{start}
			seen[win.index(start)] = true
			for i := 0; i < len(component); i++ {
				for _, dir := range Directions {
					neighbor := component[i].Add(dir)
					if !g.InBounds(neighbor) || seen[win.index(neighbor)] || g.IsOccupied(neighbor) {
						continue
					}
					seen[win.index(neighbor)] = true
					component = append(component, neighbor)
				}
			}

			if len(component) > len(best) {
				best = component
			}
		}
	}

	if len(best) == 0 {
		return Region{}
	}

	sumX, sumY := 0, 0
	for _, pos := range best {
		sumX += pos.X
		sumY += pos.Y
	}
	centroid := Position{
		X: int(math.Round(float64(sumX) / float64(len(best)))),
		Y: int(math.Round(float64(sumY) / float64(len(best)))),
	}

	target := best[0]
	bestDistance := math.MaxInt
	for _, pos := range best {
		distance := GetManhattanDistance(pos, centroid)
		if distance < bestDistance || (distance == bestDistance && rowMajorLess(pos, target)) {
			bestDistance = distance
			target = pos
		}
	}

	return Region{Size: len(best), Centroid: centroid, Target: target}
}

func rowMajorLess(a, b Position) bool {
	if a.Y != b.Y {
		return a.Y < b.Y
	}
	return a.X < b.X
}
