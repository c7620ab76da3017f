package engine

import (
	"errors"
	"fmt"
)

// Engine provides the main interface for game operations
type Engine interface {
	// Setup
	Allocate(horizSize, vertSize int) error
	Deploy(player PlayerID, name ShipName, left, top int, orientation Orientation, size int) (DeployResult, error)
	Undeploy(player PlayerID, name ShipName) (*Ship, error)

	// Play
	Shoot(player PlayerID, h, v int) (ShotReport, error)

	// Queries
	Phase() Phase
	Allocated() bool
	Board(player PlayerID) (*Board, error)
	Ships(player PlayerID) ([]*Ship, error)
	IsGameOver(player PlayerID) bool
	FinishedPlayers() []PlayerID

	// Persistence
	Snapshot() *GameState
	Restore(state *GameState) error
}

// Player owns at most one board. Allocation replaces the board wholesale.
type Player struct {
	ID    PlayerID
	board *Board
}

func (p *Player) allocate(horizSize, vertSize int) error {
	board, err := NewBoard(horizSize, vertSize)
	if err != nil {
		return err
	}
	p.board = board
	return nil
}

func (p *Player) HasBoard() bool {
	return p.board != nil
}

func (p *Player) Board() *Board {
	return p.board
}

func (p *Player) String() string {
	return p.ID.String()
}

// GameEngine implements the Engine interface
type GameEngine struct {
	players [PlayerCount]*Player
	phase   Phase
	fault   error
}

var _ Engine = (*GameEngine)(nil)

// NewEngine creates an engine with two players and no boards.
func NewEngine() *GameEngine {
	return &GameEngine{
		players: [PlayerCount]*Player{{ID: PlayerOne}, {ID: PlayerTwo}},
		phase:   PhaseInit,
	}
}

// Fault returns the consistency fault that poisoned this engine, if any.
func (e *GameEngine) Fault() error {
	return e.fault
}

// observe poisons the engine when err is a consistency fault.
func (e *GameEngine) observe(err error) error {
	var fault *FaultError
	if errors.As(err, &fault) {
		e.fault = fault
	}
	return err
}

// guard converts a FaultError panic raised deep inside a board operation into
// a returned error and poisons the engine.
func (e *GameEngine) guard(errp *error) {
	if r := recover(); r != nil {
		fault, ok := r.(*FaultError)
		if !ok {
			panic(r)
		}
		e.fault = fault
		*errp = fault
	}
}

// Allocate gives both players a fresh board and returns the game to PhaseInit.
func (e *GameEngine) Allocate(horizSize, vertSize int) error {
	if e.fault != nil {
		return e.fault
	}
	if err := ValidateDimensions(horizSize, vertSize); err != nil {
		return err
	}

	for _, player := range e.players {
		if err := player.allocate(horizSize, vertSize); err != nil {
			return err
		}
	}
	e.phase = PhaseInit
	return nil
}

// Deploy places a new ship on the player's own board.
func (e *GameEngine) Deploy(player PlayerID, name ShipName, left, top int, orientation Orientation, size int) (result DeployResult, err error) {
	board, err := e.setupBoard(player)
	if err != nil {
		return DeployResult{}, err
	}
	if !name.Valid() {
		return DeployResult{}, fmt.Errorf("%w: illegal name for a ship: %q", ErrInvalidShipName, byte(name))
	}
	if left < 0 || left >= board.HorizSize() {
		return DeployResult{}, fmt.Errorf("%w: invalid left %d on a board %d wide", ErrOutOfBounds, left, board.HorizSize())
	}
	if top < 0 || top >= board.VertSize() {
		return DeployResult{}, fmt.Errorf("%w: invalid top %d on a board %d high", ErrOutOfBounds, top, board.VertSize())
	}

	ship, err := NewShip(name, left, top, size, orientation)
	if err != nil {
		return DeployResult{}, err
	}

	defer e.guard(&err)
	result, err = board.Deploy(ship)
	return result, e.observe(err)
}

// Undeploy removes a ship from the player's own board.
func (e *GameEngine) Undeploy(player PlayerID, name ShipName) (ship *Ship, err error) {
	board, err := e.setupBoard(player)
	if err != nil {
		return nil, err
	}
	if !name.Valid() {
		return nil, fmt.Errorf("%w: illegal name for a ship: %q", ErrInvalidShipName, byte(name))
	}

	defer e.guard(&err)
	ship, err = board.Undeploy(name)
	return ship, e.observe(err)
}

// setupBoard resolves the acting player's board for deploy and undeploy.
func (e *GameEngine) setupBoard(player PlayerID) (*Board, error) {
	if e.fault != nil {
		return nil, e.fault
	}
	if e.phase != PhaseInit {
		return nil, ErrIllegalPhase
	}
	return e.Board(player)
}

// Shoot fires at the opponent's board. The first accepted shot starts the
// game; from then on the fleets are fixed until the next allocation.
func (e *GameEngine) Shoot(player PlayerID, h, v int) (report ShotReport, err error) {
	if e.fault != nil {
		return ShotReport{}, e.fault
	}
	if !player.Valid() {
		return ShotReport{}, fmt.Errorf("%w: %d", ErrInvalidPlayer, int(player))
	}

	target := player.Opponent()
	board, err := e.Board(target)
	if err != nil {
		return ShotReport{}, err
	}
	if !board.Contains(h, v) {
		return ShotReport{}, fmt.Errorf("%w: coordinate %d,%d is invalid on a %dx%d board",
			ErrOutOfBounds, h, v, board.HorizSize(), board.VertSize())
	}

	e.phase = PhaseStarted

	defer e.guard(&err)
	result, err := board.Shoot(h, v)
	if err != nil {
		return ShotReport{}, e.observe(err)
	}

	return ShotReport{
		ShootResult: result,
		Target:      target,
		GameOver:    board.IsGameOver(),
	}, nil
}

// Phase returns the current game phase
func (e *GameEngine) Phase() Phase {
	return e.phase
}

// Allocated reports whether both players have boards.
func (e *GameEngine) Allocated() bool {
	for _, player := range e.players {
		if !player.HasBoard() {
			return false
		}
	}
	return true
}

// Player returns the player with the given id.
func (e *GameEngine) Player(id PlayerID) (*Player, error) {
	if !id.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPlayer, int(id))
	}
	return e.players[id], nil
}

// Board returns the player's own board.
func (e *GameEngine) Board(id PlayerID) (*Board, error) {
	player, err := e.Player(id)
	if err != nil {
		return nil, err
	}
	if !player.HasBoard() {
		return nil, ErrNoBoards
	}
	return player.Board(), nil
}

// Ships lists the fleet deployed on the player's board.
func (e *GameEngine) Ships(id PlayerID) ([]*Ship, error) {
	board, err := e.Board(id)
	if err != nil {
		return nil, err
	}
	return board.Ships(), nil
}

// IsGameOver reports whether every ship on the player's board is sunk. It
// never mutates state; deciding what to do about it is up to the caller.
func (e *GameEngine) IsGameOver(id PlayerID) bool {
	board, err := e.Board(id)
	if err != nil {
		return false
	}
	return board.IsGameOver()
}

// FinishedPlayers lists every player whose board is game over.
func (e *GameEngine) FinishedPlayers() []PlayerID {
	var finished []PlayerID
	for _, player := range e.players {
		if e.IsGameOver(player.ID) {
			finished = append(finished, player.ID)
		}
	}
	return finished
}
