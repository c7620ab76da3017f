package service

import (
	"time"

	"github.com/wricardo/grid-battle/game/engine"
)

// Event types carried by GameEvent.Type
const (
	EventAllocated  = "allocated"
	EventDeployed   = "deployed"
	EventUndeployed = "undeployed"
	EventShot       = "shot"
	EventGameOver   = "game_over"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string             `json:"id"`
	ConfigName     string             `json:"config_name"`
	CreatedAt      time.Time          `json:"created_at"`
	LastAccessedAt time.Time          `json:"last_accessed_at"`
	GameState      *engine.GameState  `json:"game_state"`
	GameConfig     *engine.GameConfig `json:"game_config"`
}

// AllocateResult is returned after both boards were (re)allocated
type AllocateResult struct {
	HorizSize int         `json:"horiz_size"`
	VertSize  int         `json:"vert_size"`
	Phase     string      `json:"phase"`
	Message   string      `json:"message"`
	Events    []GameEvent `json:"events"`
}

// DeployRequest describes a ship to place on the acting player's board
type DeployRequest struct {
	Ship        string `json:"ship"`
	Left        int    `json:"left"`
	Top         int    `json:"top"`
	Orientation string `json:"orientation"`
	Size        int    `json:"size"`
}

// DeployResult contains the outcome of a deploy. A collision is not an error:
// Outcome is "occupied" and BlockedBy names the ship in the way.
type DeployResult struct {
	Player    int               `json:"player"`
	Outcome   string            `json:"outcome"` // "success" or "occupied"
	Ship      *engine.ShipState `json:"ship,omitempty"`
	BlockedBy *engine.ShipState `json:"blocked_by,omitempty"`
	Message   string            `json:"message"`
	Events    []GameEvent       `json:"events,omitempty"`
}

// UndeployResult contains the ship that was taken off the board
type UndeployResult struct {
	Player  int              `json:"player"`
	Ship    engine.ShipState `json:"ship"`
	Message string           `json:"message"`
	Events  []GameEvent      `json:"events,omitempty"`
}

// ShotResult contains the outcome of a shot at the opponent's board. The
// target ship is only described in full once it is sunk.
type ShotResult struct {
	Player          int               `json:"player"`
	Target          int               `json:"target"`
	H               int               `json:"h"`
	V               int               `json:"v"`
	Outcome         string            `json:"outcome"` // "blank", "new_hit", "dupe_hit", "sunk"
	ShipName        string            `json:"ship_name,omitempty"`
	SunkShip        *engine.ShipState `json:"sunk_ship,omitempty"`
	Message         string            `json:"message"`
	GameOver        bool              `json:"game_over"` // target's fleet is gone
	FinishedPlayers []int             `json:"finished_players"`
	Events          []GameEvent       `json:"events"`
}

// BoardsView is what one player sees: their own board and the opponent's,
// rendered as text rows and as the side-by-side console layout.
type BoardsView struct {
	Player          int      `json:"player"`
	Phase           string   `json:"phase"`
	Ego             []string `json:"ego"`
	Enemy           []string `json:"enemy"`
	Text            string   `json:"text"`
	FinishedPlayers []int    `json:"finished_players"`
}

// FleetView lists the ships on a player's own board
type FleetView struct {
	Player int                `json:"player"`
	Ships  []engine.ShipState `json:"ships"`
	Text   string             `json:"text"`
}

// GameEvent represents an event that occurred during gameplay
type GameEvent struct {
	Type      string    `json:"type"` // "allocated", "deployed", "undeployed", "shot", "game_over"
	Player    int       `json:"player"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ConfigInfo provides information about a game configuration
type ConfigInfo struct {
	Filename    string `json:"filename"`
	ConfigID    string `json:"config_id"` // The identifier to use for session creation
	Name        string `json:"name"`      // Display name
	Description string `json:"description"`
	HorizSize   int    `json:"horiz_size"`
	VertSize    int    `json:"vert_size"`
	Ships       int    `json:"ships"`
}

func newEvent(eventType string, player engine.PlayerID, message string) GameEvent {
	return GameEvent{
		Type:      eventType,
		Player:    int(player),
		Message:   message,
		Timestamp: time.Now(),
	}
}

func playerInts(ids []engine.PlayerID) []int {
	out := make([]int, len(ids))
	for i, id := range ids {
		out[i] = int(id)
	}
	return out
}
