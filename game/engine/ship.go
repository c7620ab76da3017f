package engine

import (
	"fmt"
	"strings"
)

const (
	healthySegment = '+'
	bustedSegment  = '!'
)

// Ship is a deployed or about-to-be-deployed ship. Its geometry is fixed at
// construction; only segment health changes.
type Ship struct {
	name        ShipName
	left, top   int
	size        int
	orientation Orientation
	health      []bool
}

// NewShip creates a healthy ship. Zero-length ships and names outside the
// alphabet are rejected.
func NewShip(name ShipName, left, top, size int, orientation Orientation) (*Ship, error) {
	if !name.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidShipName, byte(name))
	}
	if size < MinShipSize {
		return nil, fmt.Errorf("%w: phantom ships are not allowed, got size %d", ErrInvalidShipSize, size)
	}
	if orientation != Horizontal && orientation != Vertical {
		return nil, fmt.Errorf("%w: %d", ErrInvalidOrientation, int(orientation))
	}

	health := make([]bool, size)
	for i := range health {
		health[i] = true
	}

	return &Ship{
		name:        name,
		left:        left,
		top:         top,
		size:        size,
		orientation: orientation,
		health:      health,
	}, nil
}

func (s *Ship) Name() ShipName { return s.name }
func (s *Ship) Left() int { return s.left }
func (s *Ship) Top() int { return s.top }
func (s *Ship) Size() int { return s.size }
func (s *Ship) Orientation() Orientation { return s.orientation }

// IsHealthy reports whether the segment has not been hit. Segments outside
// [0, Size) are never healthy.
func (s *Ship) IsHealthy(segment int) bool {
	if segment < 0 || segment >= s.size {
		return false
	}
	return s.health[segment]
}

// IsSunk reports whether every segment has been hit.
func (s *Ship) IsSunk() bool {
	for _, healthy := range s.health {
		if healthy {
			return false
		}
	}
	return true
}

// Health returns a copy of the per-segment health flags.
func (s *Ship) Health() []bool {
	out := make([]bool, len(s.health))
	copy(out, s.health)
	return out
}

// Hits counts the unhealthy segments.
func (s *Ship) Hits() int {
	hits := 0
	for _, healthy := range s.health {
		if !healthy {
			hits++
		}
	}
	return hits
}

// hit marks a healthy segment as busted. Board routes repeated hits to
// ShotDupeHit, so reaching this with a busted segment means the grid and the
// fleet disagree.
func (s *Ship) hit(segment int) {
	if !s.IsHealthy(segment) {
		panic(faultf("repetitive hit on %s, segment #%d", s, segment))
	}
	s.health[segment] = false
}

func (s *Ship) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s/%d@%d,%d-%s[", s.name, s.size, s.left, s.top, s.orientation)
	for _, healthy := range s.health {
		if healthy {
			b.WriteByte(healthySegment)
		} else {
			b.WriteByte(bustedSegment)
		}
	}
	b.WriteByte(']')
	return b.String()
}
