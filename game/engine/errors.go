package engine

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the root of every validation failure. Operations that
// return it have not mutated any state.
var ErrInvalidInput = errors.New("invalid input")

var (
	ErrInvalidDimensions  = fmt.Errorf("%w: board dimensions", ErrInvalidInput)
	ErrInvalidShipName    = fmt.Errorf("%w: ship name", ErrInvalidInput)
	ErrInvalidShipSize    = fmt.Errorf("%w: ship size", ErrInvalidInput)
	ErrInvalidOrientation = fmt.Errorf("%w: orientation", ErrInvalidInput)
	ErrInvalidPlayer      = fmt.Errorf("%w: player", ErrInvalidInput)
	ErrOutOfBounds        = fmt.Errorf("%w: out of bounds", ErrInvalidInput)
	ErrAlreadyDeployed    = fmt.Errorf("%w: ship already deployed", ErrInvalidInput)
	ErrNotDeployed        = fmt.Errorf("%w: ship not deployed", ErrInvalidInput)
)

var (
	// ErrIllegalPhase is returned for deploy/undeploy once shooting has started.
	ErrIllegalPhase = errors.New("operation is only allowed before the game starts")
	ErrNoBoards     = errors.New("boards are not allocated")
)

// FaultError reports a broken internal invariant, e.g. a grid cell that no
// longer carries the name of the ship that should occupy it. It is not
// recoverable: the engine that produced it refuses all further operations.
type FaultError struct {
	Msg string
}

func (e *FaultError) Error() string {
	return "internal consistency fault: " + e.Msg
}

func faultf(format string, args ...any) *FaultError {
	return &FaultError{Msg: fmt.Sprintf(format, args...)}
}

// IsFault reports whether err carries a *FaultError.
func IsFault(err error) bool {
	var fault *FaultError
	return errors.As(err, &fault)
}
