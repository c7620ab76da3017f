package main

import "github.com/wricardo/grid-battle/game/engine"

// Cell is a coordinate on the opponent's board.
type Cell struct {
	H int
	V int
}

// HuntTargetStrategy picks shots against a board it cannot see. While
// hunting it sweeps the board on a checkerboard so every ship of size two
// or more is found; after a hit it works through the neighbours of the
// hit cells until the ship sinks.
type HuntTargetStrategy struct {
	horizSize int
	vertSize  int

	tried   map[Cell]bool
	hits    map[Cell]bool // hit cells of ships that are still afloat
	targets []Cell        // neighbours of hits, most recent last
	hunt    []Cell        // sweep order
	next    int           // index into hunt
}

// NewHuntTargetStrategy prepares a strategy for a horizSize x vertSize board.
func NewHuntTargetStrategy(horizSize, vertSize int) *HuntTargetStrategy {
	s := &HuntTargetStrategy{
		horizSize: horizSize,
		vertSize:  vertSize,
		tried:     make(map[Cell]bool),
		hits:      make(map[Cell]bool),
	}

	// Even parity first, then the cells left over
	for parity := 0; parity < 2; parity++ {
		for v := 0; v < vertSize; v++ {
			for h := 0; h < horizSize; h++ {
				if (h+v)%2 == parity {
					s.hunt = append(s.hunt, Cell{H: h, V: v})
				}
			}
		}
	}
	return s
}

// NextShot returns the next cell to fire at, or false once every cell of
// the board has been tried.
func (s *HuntTargetStrategy) NextShot() (Cell, bool) {
	for len(s.targets) > 0 {
		cell := s.targets[len(s.targets)-1]
		s.targets = s.targets[:len(s.targets)-1]
		if !s.tried[cell] {
			return cell, true
		}
	}

	for s.next < len(s.hunt) {
		cell := s.hunt[s.next]
		s.next++
		if !s.tried[cell] {
			return cell, true
		}
	}
	return Cell{}, false
}

// Record feeds the outcome of a shot back into the strategy. sunk is the
// ship that went down, if any.
func (s *HuntTargetStrategy) Record(cell Cell, outcome string, sunk *engine.ShipState) {
	s.tried[cell] = true

	switch outcome {
	case "new_hit":
		s.hits[cell] = true
		s.queueNeighbours(cell)
	case "sunk":
		s.hits[cell] = true
		if sunk != nil {
			for _, c := range shipCells(sunk) {
				delete(s.hits, c)
			}
		}
		// Leftover hits belong to another ship next to this one
		if len(s.hits) == 0 {
			s.targets = s.targets[:0]
		}
	}
}

func shipCells(ship *engine.ShipState) []Cell {
	cells := make([]Cell, 0, ship.Size)
	for i := 0; i < ship.Size; i++ {
		if ship.Orientation == "V" {
			cells = append(cells, Cell{H: ship.Left, V: ship.Top + i})
		} else {
			cells = append(cells, Cell{H: ship.Left + i, V: ship.Top})
		}
	}
	return cells
}

func (s *HuntTargetStrategy) queueNeighbours(cell Cell) {
	for _, d := range []Cell{{0, -1}, {-1, 0}, {0, 1}, {1, 0}} {
		n := Cell{H: cell.H + d.H, V: cell.V + d.V}
		if n.H < 0 || n.V < 0 || n.H >= s.horizSize || n.V >= s.vertSize {
			continue
		}
		if !s.tried[n] {
			s.targets = append(s.targets, n)
		}
	}
}

// Remaining returns how many cells have not been fired at yet.
func (s *HuntTargetStrategy) Remaining() int {
	return s.horizSize*s.vertSize - len(s.tried)
}
