package service

import (
	"context"
	"errors"
	"time"

	"github.com/wricardo/grid-battle/game/engine"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrConfigNotFound  = errors.New("configuration not found")
)

// GameService defines all game-related operations
type GameService interface {
	// Session Management
	CreateSession(ctx context.Context, configName string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game Operations
	Allocate(ctx context.Context, sessionID string, horizSize, vertSize int) (*AllocateResult, error)
	Deploy(ctx context.Context, sessionID string, player engine.PlayerID, req DeployRequest) (*DeployResult, error)
	Undeploy(ctx context.Context, sessionID string, player engine.PlayerID, ship string) (*UndeployResult, error)
	Shoot(ctx context.Context, sessionID string, player engine.PlayerID, h, v int) (*ShotResult, error)

	// Game State
	GetBoards(ctx context.Context, sessionID string, player engine.PlayerID) (*BoardsView, error)
	GetFleet(ctx context.Context, sessionID string, player engine.PlayerID) (*FleetView, error)
	GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Configuration
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
	LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configName string, config *engine.GameConfig) (*Session, error)
	Get(id string) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
	Save(id string) error
}

// ConfigManager handles game configuration loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.GameConfig, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.GameConfig
	SaveConfig(name string, config *engine.GameConfig) error
}

// Session represents an active game session
type Session struct {
	ID             string
	ConfigName     string // config id the session was created from
	Engine         *engine.GameEngine
	Config         *engine.GameConfig
	CreatedAt      time.Time
	LastAccessedAt time.Time
}
