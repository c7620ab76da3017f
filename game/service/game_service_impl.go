package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/wricardo/grid-battle/game/engine"
	"github.com/wricardo/grid-battle/game/render"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	mu       sync.Mutex // held for every operation, reads included
}

// getConfigID returns the config_id for a given config name, used for consistent API responses
func (s *gameServiceImpl) getConfigID(configName string) string {
	availableConfigs, err := s.configs.ListConfigs()
	if err == nil {
		for _, cfg := range availableConfigs {
			if cfg.Name == configName {
				return cfg.ConfigID
			}
		}
	}
	// Fallback: return as-is or "default"
	if configName == "" {
		return "default"
	}
	return configName
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager) GameService {
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
	}
}

// CreateSession creates a new game session
func (s *gameServiceImpl) CreateSession(ctx context.Context, configName string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Load configuration
	var config *engine.GameConfig
	var err error
	if configName != "" {
		config, err = s.configs.LoadConfig(configName)
		if err != nil {
			// Provide helpful error message with available options
			if errors.Is(err, ErrConfigNotFound) {
				availableConfigs, listErr := s.configs.ListConfigs()
				if listErr == nil && len(availableConfigs) > 0 {
					var configIDs []string
					for _, cfg := range availableConfigs {
						configIDs = append(configIDs, cfg.ConfigID)
					}
					return nil, fmt.Errorf("%w: '%s', available configs: %v", ErrConfigNotFound, configName, configIDs)
				}
				return nil, fmt.Errorf("%w: '%s', use /api/configs to list available configurations", ErrConfigNotFound, configName)
			}
			return nil, fmt.Errorf("failed to load config %s: %w", configName, err)
		}
	} else {
		config = s.configs.GetDefault()
		configName = s.getConfigID(config.Name)
	}

	// Let session manager generate the ID
	session, err := s.sessions.Create("", configName, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return sessionInfo(session), nil
}

func sessionInfo(session *Session) *SessionInfo {
	return &SessionInfo{
		ID:             session.ID,
		ConfigName:     session.ConfigName,
		CreatedAt:      session.CreatedAt,
		LastAccessedAt: session.LastAccessedAt,
		GameState:      session.Engine.Snapshot(),
		GameConfig:     session.Config,
	}
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	return sessionInfo(session), nil
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))
	for _, sess := range sessions {
		result = append(result, sessionInfo(sess))
	}

	return result, nil
}

// DeleteSession removes a session
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.sessions.Delete(sessionID)
}

// touch looks up a session and bumps its last access time.
func (s *gameServiceImpl) touch(sessionID string) (*Session, error) {
	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, fmt.Errorf("session not found: %w", err)
	}
	s.sessions.UpdateLastAccessed(sessionID)
	return sess, nil
}

// persist saves a session after a mutation. Failures are logged, the game
// goes on in memory.
func (s *gameServiceImpl) persist(sessionID, op string) {
	if err := s.sessions.Save(sessionID); err != nil {
		log.Printf("Warning: Failed to persist session %s after %s: %v", sessionID, op, err)
	}
}

// engineError discards a session whose engine reported a consistency fault;
// such a game cannot be trusted any more. Other errors pass through.
func (s *gameServiceImpl) engineError(sessionID string, err error) error {
	if !engine.IsFault(err) {
		return err
	}
	log.Printf("Session %s discarded: %v", sessionID, err)
	if delErr := s.sessions.Delete(sessionID); delErr != nil {
		log.Printf("Warning: Failed to delete faulted session %s: %v", sessionID, delErr)
	}
	return fmt.Errorf("session %s was discarded: %w", sessionID, err)
}

// Allocate gives both players fresh boards and returns the game to setup
func (s *gameServiceImpl) Allocate(ctx context.Context, sessionID string, horizSize, vertSize int) (*AllocateResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	if err := sess.Engine.Allocate(horizSize, vertSize); err != nil {
		return nil, s.engineError(sessionID, err)
	}
	s.persist(sessionID, "allocate")

	message := fmt.Sprintf("Allocated boards of %dx%d", horizSize, vertSize)
	return &AllocateResult{
		HorizSize: horizSize,
		VertSize:  vertSize,
		Phase:     sess.Engine.Phase().String(),
		Message:   message,
		Events:    []GameEvent{newEvent(EventAllocated, engine.PlayerOne, message)},
	}, nil
}

// Deploy places a ship on the player's own board
func (s *gameServiceImpl) Deploy(ctx context.Context, sessionID string, player engine.PlayerID, req DeployRequest) (*DeployResult, error) {
	name, err := engine.ParseShipName(req.Ship)
	if err != nil {
		return nil, err
	}
	orientation, err := engine.ParseOrientation(req.Orientation)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	deployed, err := sess.Engine.Deploy(player, name, req.Left, req.Top, orientation, req.Size)
	if err != nil {
		return nil, s.engineError(sessionID, err)
	}

	ship := engine.NewShipState(deployed.Ship)
	result := &DeployResult{
		Player:  int(player),
		Outcome: deployed.Outcome.String(),
	}
	switch deployed.Outcome {
	case engine.DeployOccupied:
		result.BlockedBy = &ship
		result.Message = fmt.Sprintf("Overlay with the ship %s, deploy aborted", deployed.Ship)
	case engine.DeploySuccess:
		result.Ship = &ship
		result.Message = fmt.Sprintf("Deployed %s as instructed", deployed.Ship)
		result.Events = []GameEvent{newEvent(EventDeployed, player, result.Message)}
		s.persist(sessionID, "deploy")
	}

	return result, nil
}

// Undeploy removes a ship from the player's own board
func (s *gameServiceImpl) Undeploy(ctx context.Context, sessionID string, player engine.PlayerID, shipName string) (*UndeployResult, error) {
	name, err := engine.ParseShipName(shipName)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	ship, err := sess.Engine.Undeploy(player, name)
	if err != nil {
		return nil, s.engineError(sessionID, err)
	}
	s.persist(sessionID, "undeploy")

	message := fmt.Sprintf("Undeployed %s as instructed.", ship)
	return &UndeployResult{
		Player:  int(player),
		Ship:    engine.NewShipState(ship),
		Message: message,
		Events:  []GameEvent{newEvent(EventUndeployed, player, message)},
	}, nil
}

// Shoot fires at the opponent of player
func (s *gameServiceImpl) Shoot(ctx context.Context, sessionID string, player engine.PlayerID, h, v int) (*ShotResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	report, err := sess.Engine.Shoot(player, h, v)
	if err != nil {
		return nil, s.engineError(sessionID, err)
	}
	s.persist(sessionID, "shoot")

	result := &ShotResult{
		Player:   int(player),
		Target:   int(report.Target),
		H:        h,
		V:        v,
		Outcome:  report.Outcome.String(),
		GameOver: report.GameOver,
	}
	if report.Ship != nil {
		result.ShipName = report.Ship.Name().String()
	}

	switch report.Outcome {
	case engine.ShotBlank:
		result.Message = "Nothing here"
	case engine.ShotDupeHit:
		result.Message = "Enough beating the dead horse"
	case engine.ShotNewHit:
		result.Message = "New hit"
	case engine.ShotSunk:
		sunk := engine.NewShipState(report.Ship)
		result.SunkShip = &sunk
		result.Message = fmt.Sprintf("Sunk: %s", report.Ship)
	}
	result.Events = append(result.Events, newEvent(EventShot, player,
		fmt.Sprintf("%s shot at %d,%d: %s", player, h, v, result.Message)))

	// Every finished player is reported, not just the target.
	finished := sess.Engine.FinishedPlayers()
	result.FinishedPlayers = playerInts(finished)
	for _, id := range finished {
		result.Events = append(result.Events, newEvent(EventGameOver, id, fmt.Sprintf("%s: *** GAME OVER ***", id)))
	}

	return result, nil
}

// GetBoards renders both boards as seen by player
func (s *gameServiceImpl) GetBoards(ctx context.Context, sessionID string, player engine.PlayerID) (*BoardsView, error) {
	if !player.Valid() {
		return nil, fmt.Errorf("%w: %d", engine.ErrInvalidPlayer, int(player))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	pair, err := render.ForPlayer(sess.Engine, player)
	if err != nil {
		return nil, s.engineError(sessionID, err)
	}

	return &BoardsView{
		Player:          int(player),
		Phase:           sess.Engine.Phase().String(),
		Ego:             pair.Ego.Rows(),
		Enemy:           pair.Enemy.Rows(),
		Text:            pair.String(),
		FinishedPlayers: playerInts(sess.Engine.FinishedPlayers()),
	}, nil
}

// GetFleet lists the ships on the player's own board
func (s *gameServiceImpl) GetFleet(ctx context.Context, sessionID string, player engine.PlayerID) (*FleetView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	ships, err := sess.Engine.Ships(player)
	if err != nil {
		return nil, err
	}

	view := &FleetView{
		Player: int(player),
		Ships:  make([]engine.ShipState, 0, len(ships)),
		Text:   render.Fleet(ships),
	}
	for _, ship := range ships {
		view.Ships = append(view.Ships, engine.NewShipState(ship))
	}
	return view, nil
}

// GetGameState returns the full engine snapshot
func (s *gameServiceImpl) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, err := s.touch(sessionID)
	if err != nil {
		return nil, err
	}

	return sess.Engine.Snapshot(), nil
}

func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	return s.configs.ListConfigs()
}

func (s *gameServiceImpl) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	return s.configs.LoadConfig(strings.TrimSuffix(configName, ".json"))
}

func (s *gameServiceImpl) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	return s.configs.SaveConfig(configName, config)
}
