package engine

import "fmt"

// Fleet holds the ships deployed on one board, keyed by name. Storage is a
// fixed array indexed by the name's offset in the alphabet.
type Fleet struct {
	ships [fleetCapacity]*Ship
	count int
}

// Add inserts the ship, failing if its name is already taken.
func (f *Fleet) Add(ship *Ship) error {
	ix := ship.Name().offset()
	if existing := f.ships[ix]; existing != nil {
		return fmt.Errorf("%w: %s is already in the fleet as %s", ErrAlreadyDeployed, ship.Name(), existing)
	}
	f.ships[ix] = ship
	f.count++
	return nil
}

// Remove deletes the named ship. Callers check Has first.
func (f *Fleet) Remove(name ShipName) {
	ix := name.offset()
	if f.ships[ix] != nil {
		f.ships[ix] = nil
		f.count--
	}
}

// Get returns the named ship or nil.
func (f *Fleet) Get(name ShipName) *Ship {
	if !name.Valid() {
		return nil
	}
	return f.ships[name.offset()]
}

func (f *Fleet) Has(name ShipName) bool {
	return f.Get(name) != nil
}

func (f *Fleet) Len() int {
	return f.count
}

// Ships returns the deployed ships ordered by name.
func (f *Fleet) Ships() []*Ship {
	result := make([]*Ship, 0, f.count)
	for _, ship := range f.ships {
		if ship != nil {
			result = append(result, ship)
		}
	}
	return result
}
