package game

type Territory struct {
	Self     int
	Opponent int
	Neutral  int
}

func (t Territory) Advantage() int {
	return t.Self - t.Opponent
}

const (
	unclaimed uint8 = iota
	claimedBySelf
	claimedByOpponent
	claimedByBoth
)

// PartitionTerritory races two flood fills ring by ring. Each empty cell goes
// to the side whose front reaches it first; cells both fronts reach on the
// same ring are neutral and stop both fronts. The two sources are origins
// and are not counted.
func PartitionTerritory(g *Grid, self, opponent Position) Territory {
	win := fullWindow(g)
	owner := make([]uint8, win.size())
	result := Territory{}

	var selfFront, opponentFront []Position
	if g.InBounds(self) {
		owner[win.index(self)] = claimedBySelf
		selfFront = []Position{self}
	}
	if g.InBounds(opponent) && opponent != self {
		owner[win.index(opponent)] = claimedByOpponent
		opponentFront = []Position{opponent}
	}

	for len(selfFront) > 0 || len(opponentFront) > 0 {
		ring := make(map[int]uint8)
		var ringOrder []Position

		claim := func(front []Position, side uint8) {
			for _, current := range front {
				for _, dir := range Directions {
					neighbor := current.Add(dir)
					if g.IsOccupied(neighbor) {
						continue
					}
					idx := win.index(neighbor)
					if owner[idx] != unclaimed {
						continue
					}
					previous, seen := ring[idx]
					switch {
					case !seen:
						ring[idx] = side
						ringOrder = append(ringOrder, neighbor)
					case previous != side:
						ring[idx] = claimedByBoth
					}
				}
			}
		}
		claim(selfFront, claimedBySelf)
		claim(opponentFront, claimedByOpponent)

		selfFront, opponentFront = nil, nil
		for _, pos := range ringOrder {
			idx := win.index(pos)
			side := ring[idx]
			owner[idx] = side
			switch side {
			case claimedBySelf:
				result.Self++
				selfFront = append(selfFront, pos)
			case claimedByOpponent:
				result.Opponent++
				opponentFront = append(opponentFront, pos)
			default:
				result.Neutral++
			}
		}
	}

	return result
}
