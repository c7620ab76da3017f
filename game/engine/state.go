package engine

import (
	"fmt"
	"strings"
)

// GameState is the serializable image of an engine, used for persistence
// and for the REST state endpoint.
type GameState struct {
	Phase  string        `json:"phase"`
	Boards []*BoardState `json:"boards"` // indexed by player id, nil when not allocated
}

// BoardState is one player's board: raw grid rows plus the fleet.
type BoardState struct {
	Player    int         `json:"player"`
	HorizSize int         `json:"horiz_size"`
	VertSize  int         `json:"vert_size"`
	Rows      []string    `json:"rows"`
	Ships     []ShipState `json:"ships"`
	GameOver  bool        `json:"game_over"`
}

// ShipState describes a ship and its segment health ("+" healthy, "!" busted).
type ShipState struct {
	Name        string `json:"name"`
	Left        int    `json:"left"`
	Top         int    `json:"top"`
	Size        int    `json:"size"`
	Orientation string `json:"orientation"`
	Health      string `json:"health"`
	Sunk        bool   `json:"sunk"`
}

// NewShipState captures a ship.
func NewShipState(ship *Ship) ShipState {
	var health strings.Builder
	for _, healthy := range ship.Health() {
		if healthy {
			health.WriteByte(healthySegment)
		} else {
			health.WriteByte(bustedSegment)
		}
	}
	return ShipState{
		Name:        ship.Name().String(),
		Left:        ship.Left(),
		Top:         ship.Top(),
		Size:        ship.Size(),
		Orientation: ship.Orientation().String(),
		Health:      health.String(),
		Sunk:        ship.IsSunk(),
	}
}

// Snapshot captures the current engine state.
func (e *GameEngine) Snapshot() *GameState {
	state := &GameState{
		Phase:  e.phase.String(),
		Boards: make([]*BoardState, PlayerCount),
	}

	for i, player := range e.players {
		if !player.HasBoard() {
			continue
		}
		board := player.Board()
		bs := &BoardState{
			Player:    i,
			HorizSize: board.HorizSize(),
			VertSize:  board.VertSize(),
			Rows:      board.Rows(),
			Ships:     make([]ShipState, 0, board.fleet.Len()),
			GameOver:  board.IsGameOver(),
		}
		for _, ship := range board.Ships() {
			bs.Ships = append(bs.Ships, NewShipState(ship))
		}
		state.Boards[i] = bs
	}

	return state
}

// Restore replaces the engine state with a snapshot. The snapshot is fully
// validated first; on error the engine is left as it was.
func (e *GameEngine) Restore(state *GameState) error {
	if state == nil {
		return fmt.Errorf("state cannot be nil")
	}
	phase, err := ParsePhase(state.Phase)
	if err != nil {
		return err
	}
	if len(state.Boards) > PlayerCount {
		return fmt.Errorf("%w: %d boards in state", ErrInvalidInput, len(state.Boards))
	}

	var boards [PlayerCount]*Board
	for i, bs := range state.Boards {
		if bs == nil {
			continue
		}
		board, err := restoreBoard(bs)
		if err != nil {
			return fmt.Errorf("restore board of player %d: %w", i, err)
		}
		boards[i] = board
	}

	for i, player := range e.players {
		player.board = boards[i]
	}
	e.phase = phase
	e.fault = nil
	return nil
}

func restoreBoard(bs *BoardState) (*Board, error) {
	board, err := NewBoard(bs.HorizSize, bs.VertSize)
	if err != nil {
		return nil, err
	}
	if len(bs.Rows) != bs.VertSize {
		return nil, fmt.Errorf("%w: expected %d rows, got %d", ErrInvalidInput, bs.VertSize, len(bs.Rows))
	}

	for _, ss := range bs.Ships {
		ship, err := restoreShip(ss)
		if err != nil {
			return nil, err
		}
		result, err := board.Deploy(ship)
		if err != nil {
			return nil, err
		}
		if result.Outcome != DeploySuccess {
			return nil, fmt.Errorf("%w: %s overlaps %s", ErrInvalidInput, ship, result.Ship)
		}
	}

	for v, row := range bs.Rows {
		if len(row) != bs.HorizSize {
			return nil, fmt.Errorf("%w: row %d has %d cells, expected %d", ErrInvalidInput, v, len(row), bs.HorizSize)
		}
		for h := 0; h < len(row); h++ {
			ix := board.gridIndex(h, v)
			switch want := row[h]; {
			case want == cellHit:
				if board.grid[ix] != cellOpen {
					return nil, fmt.Errorf("%w: fired-upon cell %d,%d overlaps ship %c", ErrInvalidInput, h, v, board.grid[ix])
				}
				board.grid[ix] = cellHit
			case board.grid[ix] != want:
				return nil, fmt.Errorf("%w: cell %d,%d is %q, fleet implies %q", ErrInvalidInput, h, v, want, board.grid[ix])
			}
		}
	}

	return board, nil
}

func restoreShip(ss ShipState) (*Ship, error) {
	name, err := ParseShipName(ss.Name)
	if err != nil {
		return nil, err
	}
	orientation, err := ParseOrientation(ss.Orientation)
	if err != nil {
		return nil, err
	}
	ship, err := NewShip(name, ss.Left, ss.Top, ss.Size, orientation)
	if err != nil {
		return nil, err
	}

	if ss.Health == "" {
		return ship, nil
	}
	if len(ss.Health) != ship.Size() {
		return nil, fmt.Errorf("%w: health %q does not match size %d of %s", ErrInvalidInput, ss.Health, ship.Size(), name)
	}
	for i := 0; i < len(ss.Health); i++ {
		switch ss.Health[i] {
		case healthySegment:
		case bustedSegment:
			ship.health[i] = false
		default:
			return nil, fmt.Errorf("%w: health %q of %s", ErrInvalidInput, ss.Health, name)
		}
	}
	return ship, nil
}
