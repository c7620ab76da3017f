package engine

import (
	"fmt"
	"strings"
)

const (
	// ShipNames is the closed alphabet of ship names. Fleet storage relies on
	// the first symbol being the lowest and the last the highest.
	ShipNames = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	firstShipName byte = 'A'
	lastShipName  byte = 'Z'
	fleetCapacity = int(lastShipName-firstShipName) + 1

	// Validation constants
	MinBoardSize = 2
	MaxBoardSize = 50
	MinShipSize  = 1
	PlayerCount  = 2
)

// Grid cell contents besides ship names
const (
	cellOpen byte = '.'
	cellHit  byte = '*'
)

func isShipCell(cell byte) bool {
	return cell != cellOpen && cell != cellHit
}

// ShipName is a single symbol from ShipNames.
type ShipName byte

// ParseShipName accepts a one-letter name, case-insensitive.
func ParseShipName(s string) (ShipName, error) {
	if len(s) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidShipName, s)
	}
	name := ShipName(strings.ToUpper(s)[0])
	if !name.Valid() {
		return 0, fmt.Errorf("%w: %q", ErrInvalidShipName, s)
	}
	return name, nil
}

// Valid reports whether the name belongs to the ship alphabet.
func (n ShipName) Valid() bool {
	return byte(n) >= firstShipName && byte(n) <= lastShipName
}

func (n ShipName) String() string {
	return string(rune(n))
}

func (n ShipName) offset() int {
	return int(byte(n) - firstShipName)
}

// Orientation is the axis along which a ship's segments extend from its origin.
type Orientation int

const (
	Horizontal Orientation = iota
	Vertical
)

// ParseOrientation accepts "H"/"V" or any word starting with those letters.
func ParseOrientation(s string) (Orientation, error) {
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidOrientation)
	}
	switch strings.ToUpper(s)[0] {
	case 'H':
		return Horizontal, nil
	case 'V':
		return Vertical, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidOrientation, s)
}

func (o Orientation) String() string {
	switch o {
	case Horizontal:
		return "H"
	case Vertical:
		return "V"
	}
	return fmt.Sprintf("Orientation(%d)", int(o))
}

// PlayerID identifies one of the two players.
type PlayerID int

const (
	PlayerOne PlayerID = 0
	PlayerTwo PlayerID = 1
)

func (p PlayerID) Valid() bool {
	return p == PlayerOne || p == PlayerTwo
}

// Opponent returns the other player.
func (p PlayerID) Opponent() PlayerID {
	return 1 - p
}

func (p PlayerID) String() string {
	return fmt.Sprintf("Player{%d}", int(p))
}

// Phase gates which operations are legal.
type Phase int

const (
	// PhaseInit allows deploy and undeploy.
	PhaseInit Phase = iota
	// PhaseStarted is entered on the first shot; only shooting is allowed.
	PhaseStarted
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseStarted:
		return "started"
	}
	return fmt.Sprintf("Phase(%d)", int(p))
}

// ParsePhase is the inverse of Phase.String.
func ParsePhase(s string) (Phase, error) {
	switch s {
	case "init", "":
		return PhaseInit, nil
	case "started":
		return PhaseStarted, nil
	}
	return 0, fmt.Errorf("%w: phase %q", ErrInvalidInput, s)
}

// DeployOutcome tags a DeployResult.
type DeployOutcome int

const (
	DeploySuccess DeployOutcome = iota
	DeployOccupied
)

func (o DeployOutcome) String() string {
	switch o {
	case DeploySuccess:
		return "success"
	case DeployOccupied:
		return "occupied"
	}
	return fmt.Sprintf("DeployOutcome(%d)", int(o))
}

// DeployResult carries the deployed ship on success, or the ship already
// sitting on one of the target cells when the outcome is DeployOccupied.
type DeployResult struct {
	Outcome DeployOutcome
	Ship    *Ship
}

// ShotOutcome tags a ShootResult.
type ShotOutcome int

const (
	ShotBlank ShotOutcome = iota
	ShotNewHit
	ShotDupeHit
	ShotSunk
)

func (o ShotOutcome) String() string {
	switch o {
	case ShotBlank:
		return "blank"
	case ShotNewHit:
		return "new_hit"
	case ShotDupeHit:
		return "dupe_hit"
	case ShotSunk:
		return "sunk"
	}
	return fmt.Sprintf("ShotOutcome(%d)", int(o))
}

// ShootResult carries the ship that was hit; Ship is nil for ShotBlank.
type ShootResult struct {
	Outcome ShotOutcome
	Ship    *Ship
}

// ShotReport is what the engine returns for a shot: the board's result plus
// whether the board that was shot at is now game over.
type ShotReport struct {
	ShootResult
	Target   PlayerID
	GameOver bool
}

// RenderContext receives one callback per cell during Board.Render. It is
// implemented by presentation code.
type RenderContext interface {
	ShipSegment(h, v int, ship *Ship, segment int)
	HitCell(h, v int)
	UnhitCell(h, v int)
}
