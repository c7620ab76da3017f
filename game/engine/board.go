package engine

import (
	"bytes"
	"fmt"
	"strings"
)

// Board is a fixed-size grid plus the fleet deployed on it. Cells are stored
// row-major in a single slice; each holds open water, fired-upon water, or the
// name of the ship occupying it.
type Board struct {
	horizSize int
	vertSize  int
	grid      []byte
	fleet     Fleet
}

// NewBoard creates an empty board. Both dimensions must be within
// [MinBoardSize, MaxBoardSize].
func NewBoard(horizSize, vertSize int) (*Board, error) {
	if err := ValidateDimensions(horizSize, vertSize); err != nil {
		return nil, err
	}

	return &Board{
		horizSize: horizSize,
		vertSize:  vertSize,
		grid:      bytes.Repeat([]byte{cellOpen}, horizSize*vertSize),
	}, nil
}

// ValidateDimensions checks a board size request.
func ValidateDimensions(horizSize, vertSize int) error {
	if horizSize < MinBoardSize || horizSize > MaxBoardSize ||
		vertSize < MinBoardSize || vertSize > MaxBoardSize {
		return fmt.Errorf("%w: nonsensical dimensions of %dx%d, each must be between %d and %d",
			ErrInvalidDimensions, horizSize, vertSize, MinBoardSize, MaxBoardSize)
	}
	return nil
}

func (b *Board) HorizSize() int { return b.horizSize }
func (b *Board) VertSize() int { return b.vertSize }

// Contains reports whether (h, v) is on the board.
func (b *Board) Contains(h, v int) bool {
	return h >= 0 && h < b.horizSize && v >= 0 && v < b.vertSize
}

func (b *Board) gridIndex(h, v int) int {
	return v*b.horizSize + h
}

// cellIndex maps a ship segment to its grid offset.
func (b *Board) cellIndex(ship *Ship, segment int) (int, error) {
	if !b.Contains(ship.Left(), ship.Top()) {
		return 0, fmt.Errorf("%w: origin %d,%d of %s is off the %dx%d board",
			ErrOutOfBounds, ship.Left(), ship.Top(), ship, b.horizSize, b.vertSize)
	}

	switch ship.Orientation() {
	case Horizontal:
		if ship.Left()+segment >= b.horizSize {
			return 0, fmt.Errorf("%w: segment %d of %s, horizontal size overflow", ErrOutOfBounds, segment, ship)
		}
		return b.gridIndex(ship.Left()+segment, ship.Top()), nil
	case Vertical:
		if ship.Top()+segment >= b.vertSize {
			return 0, fmt.Errorf("%w: segment %d of %s, vertical size overflow", ErrOutOfBounds, segment, ship)
		}
		return b.gridIndex(ship.Left(), ship.Top()+segment), nil
	}
	return 0, fmt.Errorf("%w: %d", ErrInvalidOrientation, int(ship.Orientation()))
}

// segmentIndex maps a grid coordinate to a segment of the ship. The caller
// must already know the cell belongs to the ship.
func (b *Board) segmentIndex(ship *Ship, h, v int) int {
	switch ship.Orientation() {
	case Horizontal:
		return h - ship.Left()
	case Vertical:
		return v - ship.Top()
	}
	panic(faultf("ship %s has no orientation", ship))
}

// footprint returns the grid offsets of every segment, or an error if any
// segment falls off the board.
func (b *Board) footprint(ship *Ship) ([]int, error) {
	cells := make([]int, ship.Size())
	for segment := range cells {
		ix, err := b.cellIndex(ship, segment)
		if err != nil {
			return nil, err
		}
		cells[segment] = ix
	}
	return cells, nil
}

// Deploy places the ship on the board. It either writes every cell or none:
// if any target cell already holds a ship the result is DeployOccupied and the
// grid is left untouched.
func (b *Board) Deploy(ship *Ship) (DeployResult, error) {
	if existing := b.fleet.Get(ship.Name()); existing != nil {
		return DeployResult{}, fmt.Errorf("%w: ship with the name %s is already deployed as %s",
			ErrAlreadyDeployed, ship.Name(), existing)
	}

	cells, err := b.footprint(ship)
	if err != nil {
		return DeployResult{}, err
	}

	for _, ix := range cells {
		if cell := b.grid[ix]; isShipCell(cell) {
			blocker := b.fleet.Get(ShipName(cell))
			if blocker == nil {
				return DeployResult{}, faultf("cell %d carries %c but the fleet has no such ship", ix, cell)
			}
			return DeployResult{Outcome: DeployOccupied, Ship: blocker}, nil
		}
	}

	for _, ix := range cells {
		b.grid[ix] = byte(ship.Name())
	}
	if err := b.fleet.Add(ship); err != nil {
		return DeployResult{}, err
	}

	return DeployResult{Outcome: DeploySuccess, Ship: ship}, nil
}

// Undeploy removes the named ship and clears its cells back to open water.
func (b *Board) Undeploy(name ShipName) (*Ship, error) {
	ship := b.fleet.Get(name)
	if ship == nil {
		return nil, fmt.Errorf("%w: ship with the name %s is not deployed", ErrNotDeployed, name)
	}

	cells, err := b.footprint(ship)
	if err != nil {
		return nil, faultf("deployed ship %s no longer fits the board: %v", ship, err)
	}
	for _, ix := range cells {
		if b.grid[ix] != byte(name) {
			return nil, faultf("ship %s: cell %d holds %q, invalid board image:\n%s", ship, ix, b.grid[ix], b)
		}
	}

	for _, ix := range cells {
		b.grid[ix] = cellOpen
	}
	b.fleet.Remove(name)

	return ship, nil
}

// Shoot fires at (h, v). Shooting water marks the cell as fired upon.
// Shooting an already busted segment is reported as ShotDupeHit and changes
// nothing.
func (b *Board) Shoot(h, v int) (ShootResult, error) {
	if !b.Contains(h, v) {
		return ShootResult{}, fmt.Errorf("%w: coordinate %d,%d on a %dx%d board",
			ErrOutOfBounds, h, v, b.horizSize, b.vertSize)
	}

	ix := b.gridIndex(h, v)
	cell := b.grid[ix]
	if !isShipCell(cell) {
		b.grid[ix] = cellHit
		return ShootResult{Outcome: ShotBlank}, nil
	}

	ship := b.fleet.Get(ShipName(cell))
	if ship == nil {
		return ShootResult{}, faultf("cell %d,%d carries %c but the fleet has no such ship", h, v, cell)
	}

	segment := b.segmentIndex(ship, h, v)
	if segment < 0 || segment >= ship.Size() {
		return ShootResult{}, faultf("cell %d,%d maps to segment %d of %s", h, v, segment, ship)
	}
	if !ship.IsHealthy(segment) {
		return ShootResult{Outcome: ShotDupeHit, Ship: ship}, nil
	}

	ship.hit(segment)
	if ship.IsSunk() {
		return ShootResult{Outcome: ShotSunk, Ship: ship}, nil
	}
	return ShootResult{Outcome: ShotNewHit, Ship: ship}, nil
}

// IsGameOver reports whether at least one ship is deployed and all of them
// are sunk.
func (b *Board) IsGameOver() bool {
	if b.fleet.Len() == 0 {
		return false
	}
	for _, ship := range b.fleet.Ships() {
		if !ship.IsSunk() {
			return false
		}
	}
	return true
}

// Render walks the grid row by row and reports every cell to ctx exactly once.
func (b *Board) Render(ctx RenderContext) {
	for v := 0; v < b.vertSize; v++ {
		for h := 0; h < b.horizSize; h++ {
			b.renderCell(ctx, h, v)
		}
	}
}

func (b *Board) renderCell(ctx RenderContext, h, v int) {
	cell := b.grid[b.gridIndex(h, v)]
	switch {
	case cell == cellHit:
		ctx.HitCell(h, v)
	case cell == cellOpen:
		ctx.UnhitCell(h, v)
	default:
		ship := b.fleet.Get(ShipName(cell))
		if ship == nil {
			panic(faultf("missing ship %c at %d:%d on\n%s", cell, h, v, b))
		}
		ctx.ShipSegment(h, v, ship, b.segmentIndex(ship, h, v))
	}
}

// Ship returns the named ship if deployed.
func (b *Board) Ship(name ShipName) (*Ship, bool) {
	ship := b.fleet.Get(name)
	return ship, ship != nil
}

func (b *Board) HasShip(name ShipName) bool {
	return b.fleet.Has(name)
}

// Ships lists the fleet ordered by name.
func (b *Board) Ships() []*Ship {
	return b.fleet.Ships()
}

// Rows returns the raw grid, one string per row.
func (b *Board) Rows() []string {
	rows := make([]string, b.vertSize)
	for v := range rows {
		start := b.gridIndex(0, v)
		rows[v] = string(b.grid[start : start+b.horizSize])
	}
	return rows
}

func (b *Board) String() string {
	ships := b.fleet.Ships()
	names := make([]string, len(ships))
	for i, ship := range ships {
		names[i] = ship.String()
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Size: h%dxv%d, fleet: [%s]", b.horizSize, b.vertSize, strings.Join(names, ", "))
	for _, row := range b.Rows() {
		sb.WriteByte('\n')
		sb.WriteString(row)
	}
	return sb.String()
}
