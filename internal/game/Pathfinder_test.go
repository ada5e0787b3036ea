package game

import "testing"

func TestFindPath(t *testing.T) {
	tests := []struct {
		name   string
		rows   []string
		start  Position
		target Position
		want   int
		found  bool
	}{
		{"same cell", []string{"..."}, Position{1, 0}, Position{1, 0}, 0, true},
		{"open grid", []string{".....", ".....", ".....", ".....", "....."}, Position{0, 0}, Position{4, 4}, 8, true},
		{"detour", []string{".....", "####.", "....."}, Position{0, 0}, Position{0, 2}, 10, true},
		{"blocked target", []string{"..#"}, Position{0, 0}, Position{2, 0}, Unreachable, false},
		{"walled off", []string{".#."}, Position{0, 0}, Position{2, 0}, Unreachable, false},
		{"target outside", []string{"..."}, Position{0, 0}, Position{5, 0}, Unreachable, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := FindPath(mustGrid(t, tt.rows...), tt.start, tt.target)
			if got != tt.want || found != tt.found {
				t.Fatalf("expected %d/%v, got %d/%v", tt.want, tt.found, got, found)
			}
		})
	}
}

func TestFindPathFromBlockedStart(t *testing.T) {
	grid := NewGrid(4, 4).WithOccupied(Position{0, 0})
	if got, ok := FindPath(grid, Position{0, 0}, Position{3, 3}); !ok || got != 6 {
		t.Fatalf("expected 6, got %d/%v", got, ok)
	}
}

func TestFindPathMatchesBreadthFirstDistance(t *testing.T) {
	grid := mustGrid(t,
		"....#.....",
		".##.#.###.",
		".#..#...#.",
		".#.####.#.",
		"...#......",
	)
	start := Position{0, 0}

	// Breadth-first distances are the reference for unit step costs.
	distance := map[Position]int{start: 0}
	queue := []Position{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		for _, step := range grid.Neighbors(current) {
			if _, seen := distance[step.Position]; seen || grid.IsOccupied(step.Position) {
				continue
			}
			distance[step.Position] = distance[current] + 1
			queue = append(queue, step.Position)
		}
	}

	for y := 0; y < grid.Height(); y++ {
		for x := 0; x < grid.Width(); x++ {
			target := Position{x, y}
			if grid.IsOccupied(target) {
				continue
			}
			want, reachable := distance[target]
			got, ok := FindPath(grid, start, target)
			if ok != reachable || (ok && got != want) {
				t.Errorf("%s: expected %d/%v, got %d/%v", target, want, reachable, got, ok)
			}
		}
	}
}
