package engine

import (
	"encoding/json"
	"fmt"
	"os"
)

// GameConfig is a named board preset: board dimensions and, optionally, the
// fleets each player starts with.
type GameConfig struct {
	Name        string        `json:"name"`
	Description string        `json:"description"`
	HorizSize   int           `json:"horiz_size"`
	VertSize    int           `json:"vert_size"`
	Fleets      []FleetConfig `json:"fleets,omitempty"`
}

// FleetConfig lists the ships pre-deployed for one player.
type FleetConfig struct {
	Player int             `json:"player"`
	Ships  []ShipPlacement `json:"ships"`
}

// ShipPlacement is one deploy request inside a preset.
type ShipPlacement struct {
	Name        string `json:"name"`
	Left        int    `json:"left"`
	Top         int    `json:"top"`
	Orientation string `json:"orientation"`
	Size        int    `json:"size"`
}

// ShipCount returns the number of ships the preset deploys for all players.
func (c *GameConfig) ShipCount() int {
	count := 0
	for _, fleet := range c.Fleets {
		count += len(fleet.Ships)
	}
	return count
}

// ValidateGameConfig validates a game configuration for correctness and
// playability: every fleet must deploy cleanly on an empty board.
func ValidateGameConfig(config *GameConfig) error {
	if config == nil {
		return fmt.Errorf("config validation: config is nil")
	}
	if config.Name == "" {
		return fmt.Errorf("config validation: name is required")
	}
	if config.Description == "" {
		return fmt.Errorf("config validation: description is required")
	}
	if err := ValidateDimensions(config.HorizSize, config.VertSize); err != nil {
		return fmt.Errorf("config validation: %w", err)
	}

	seen := make(map[int]bool, PlayerCount)
	for _, fleet := range config.Fleets {
		player := PlayerID(fleet.Player)
		if !player.Valid() {
			return fmt.Errorf("config validation: %w: fleet for player %d", ErrInvalidPlayer, fleet.Player)
		}
		if seen[fleet.Player] {
			return fmt.Errorf("config validation: duplicate fleet for player %d", fleet.Player)
		}
		seen[fleet.Player] = true

		// A scratch board catches overlaps and overflow exactly the way play would.
		board, err := NewBoard(config.HorizSize, config.VertSize)
		if err != nil {
			return fmt.Errorf("config validation: %w", err)
		}
		for i, placement := range fleet.Ships {
			if err := deployPlacement(board, placement); err != nil {
				return fmt.Errorf("config validation: player %d ship #%d: %w", fleet.Player, i+1, err)
			}
		}
	}

	return nil
}

func deployPlacement(board *Board, placement ShipPlacement) error {
	name, err := ParseShipName(placement.Name)
	if err != nil {
		return err
	}
	orientation, err := ParseOrientation(placement.Orientation)
	if err != nil {
		return err
	}
	ship, err := NewShip(name, placement.Left, placement.Top, placement.Size, orientation)
	if err != nil {
		return err
	}
	result, err := board.Deploy(ship)
	if err != nil {
		return err
	}
	if result.Outcome == DeployOccupied {
		return fmt.Errorf("%w: %s overlaps %s", ErrInvalidInput, ship, result.Ship)
	}
	return nil
}

// NewEngineFromConfig allocates the preset's boards and deploys its fleets.
func NewEngineFromConfig(config *GameConfig) (*GameEngine, error) {
	if err := ValidateGameConfig(config); err != nil {
		return nil, err
	}

	e := NewEngine()
	if err := e.Allocate(config.HorizSize, config.VertSize); err != nil {
		return nil, err
	}
	for _, fleet := range config.Fleets {
		board, err := e.Board(PlayerID(fleet.Player))
		if err != nil {
			return nil, err
		}
		for _, placement := range fleet.Ships {
			if err := deployPlacement(board, placement); err != nil {
				return nil, err
			}
		}
	}

	return e, nil
}

// LoadGameConfig loads and validates a game configuration from a JSON file
func LoadGameConfig(filename string) (*GameConfig, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}

	var config GameConfig
	if err := json.Unmarshal(data, &config); err != nil {
		return nil, err
	}

	if err := ValidateGameConfig(&config); err != nil {
		return nil, err
	}

	return &config, nil
}

// DefaultConfig is the built-in preset used when no configuration files are
// available: a 10x10 board and no ships.
func DefaultConfig() *GameConfig {
	return &GameConfig{
		Name:        "default",
		Description: "Empty 10x10 boards, deploy your own fleet",
		HorizSize:   10,
		VertSize:    10,
	}
}
