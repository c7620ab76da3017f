package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	gorillaws "github.com/gorilla/websocket"

	"github.com/wricardo/grid-battle/game/config"
	"github.com/wricardo/grid-battle/game/engine"
	"github.com/wricardo/grid-battle/game/service"
	"github.com/wricardo/grid-battle/game/session"
	"github.com/wricardo/grid-battle/transport/websocket"
)

// MockGameService implements service.GameService for testing
type MockGameService struct {
	// Session Management
	CreateSessionFunc func(ctx context.Context, configName string) (*service.SessionInfo, error)
	GetSessionFunc    func(ctx context.Context, sessionID string) (*service.SessionInfo, error)
	ListSessionsFunc  func(ctx context.Context) ([]*service.SessionInfo, error)
	DeleteSessionFunc func(ctx context.Context, sessionID string) error

	// Game Operations
	AllocateFunc func(ctx context.Context, sessionID string, horizSize, vertSize int) (*service.AllocateResult, error)
	DeployFunc   func(ctx context.Context, sessionID string, player engine.PlayerID, req service.DeployRequest) (*service.DeployResult, error)
	UndeployFunc func(ctx context.Context, sessionID string, player engine.PlayerID, ship string) (*service.UndeployResult, error)
	ShootFunc    func(ctx context.Context, sessionID string, player engine.PlayerID, h, v int) (*service.ShotResult, error)

	// Game State
	GetBoardsFunc    func(ctx context.Context, sessionID string, player engine.PlayerID) (*service.BoardsView, error)
	GetFleetFunc     func(ctx context.Context, sessionID string, player engine.PlayerID) (*service.FleetView, error)
	GetGameStateFunc func(ctx context.Context, sessionID string) (*engine.GameState, error)

	// Configuration
	ListConfigsFunc func(ctx context.Context) ([]*service.ConfigInfo, error)
	LoadConfigFunc  func(ctx context.Context, configName string) (*engine.GameConfig, error)
	SaveConfigFunc  func(ctx context.Context, configName string, config *engine.GameConfig) error
}

// Session Management
func (m *MockGameService) CreateSession(ctx context.Context, configName string) (*service.SessionInfo, error) {
	if m.CreateSessionFunc != nil {
		return m.CreateSessionFunc(ctx, configName)
	}
	return &service.SessionInfo{ID: "test-session", ConfigName: configName, CreatedAt: time.Now()}, nil
}

func (m *MockGameService) GetSession(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
	if m.GetSessionFunc != nil {
		return m.GetSessionFunc(ctx, sessionID)
	}
	return &service.SessionInfo{ID: sessionID, ConfigName: "test"}, nil
}

func (m *MockGameService) ListSessions(ctx context.Context) ([]*service.SessionInfo, error) {
	if m.ListSessionsFunc != nil {
		return m.ListSessionsFunc(ctx)
	}
	return []*service.SessionInfo{}, nil
}

func (m *MockGameService) DeleteSession(ctx context.Context, sessionID string) error {
	if m.DeleteSessionFunc != nil {
		return m.DeleteSessionFunc(ctx, sessionID)
	}
	return nil
}

// Game Operations
func (m *MockGameService) Allocate(ctx context.Context, sessionID string, horizSize, vertSize int) (*service.AllocateResult, error) {
	if m.AllocateFunc != nil {
		return m.AllocateFunc(ctx, sessionID, horizSize, vertSize)
	}
	return &service.AllocateResult{HorizSize: horizSize, VertSize: vertSize, Phase: "init"}, nil
}

func (m *MockGameService) Deploy(ctx context.Context, sessionID string, player engine.PlayerID, req service.DeployRequest) (*service.DeployResult, error) {
	if m.DeployFunc != nil {
		return m.DeployFunc(ctx, sessionID, player, req)
	}
	return &service.DeployResult{Player: int(player), Outcome: "success"}, nil
}

func (m *MockGameService) Undeploy(ctx context.Context, sessionID string, player engine.PlayerID, ship string) (*service.UndeployResult, error) {
	if m.UndeployFunc != nil {
		return m.UndeployFunc(ctx, sessionID, player, ship)
	}
	return &service.UndeployResult{Player: int(player)}, nil
}

func (m *MockGameService) Shoot(ctx context.Context, sessionID string, player engine.PlayerID, h, v int) (*service.ShotResult, error) {
	if m.ShootFunc != nil {
		return m.ShootFunc(ctx, sessionID, player, h, v)
	}
	return &service.ShotResult{Player: int(player), Target: int(player.Opponent()), H: h, V: v, Outcome: "blank"}, nil
}

// Game State
func (m *MockGameService) GetBoards(ctx context.Context, sessionID string, player engine.PlayerID) (*service.BoardsView, error) {
	if m.GetBoardsFunc != nil {
		return m.GetBoardsFunc(ctx, sessionID, player)
	}
	return &service.BoardsView{Player: int(player), Phase: "init"}, nil
}

func (m *MockGameService) GetFleet(ctx context.Context, sessionID string, player engine.PlayerID) (*service.FleetView, error) {
	if m.GetFleetFunc != nil {
		return m.GetFleetFunc(ctx, sessionID, player)
	}
	return &service.FleetView{Player: int(player)}, nil
}

func (m *MockGameService) GetGameState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	if m.GetGameStateFunc != nil {
		return m.GetGameStateFunc(ctx, sessionID)
	}
	return &engine.GameState{Phase: "init"}, nil
}

// Configuration
func (m *MockGameService) ListConfigs(ctx context.Context) ([]*service.ConfigInfo, error) {
	if m.ListConfigsFunc != nil {
		return m.ListConfigsFunc(ctx)
	}
	return []*service.ConfigInfo{}, nil
}

func (m *MockGameService) LoadConfig(ctx context.Context, configName string) (*engine.GameConfig, error) {
	if m.LoadConfigFunc != nil {
		return m.LoadConfigFunc(ctx, configName)
	}
	return &engine.GameConfig{
		Name:        configName,
		Description: "Test config",
		HorizSize:   5,
		VertSize:    5,
	}, nil
}

func (m *MockGameService) SaveConfig(ctx context.Context, configName string, config *engine.GameConfig) error {
	if m.SaveConfigFunc != nil {
		return m.SaveConfigFunc(ctx, configName, config)
	}
	return nil
}

// Test helpers
func setupTestServer(mockService *MockGameService) *Server {
	return NewServer(mockService, nil)
}

func makeRequest(method, path string, body interface{}) *http.Request {
	var bodyBytes []byte
	if body != nil {
		bodyBytes, _ = json.Marshal(body)
	}
	req := httptest.NewRequest(method, path, bytes.NewBuffer(bodyBytes))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func parseResponse(t *testing.T, w *httptest.ResponseRecorder, target interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), target); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
}

type routeTest struct {
	name           string
	method         string
	path           string
	body           interface{}
	setupMock      func(*MockGameService)
	expectedStatus int
	validateResp   func(*testing.T, *httptest.ResponseRecorder)
}

func runRouteTests(t *testing.T, tests []routeTest) {
	t.Helper()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			server := setupTestServer(mockService)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, makeRequest(tt.method, tt.path, tt.body))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d (body: %s)", tt.expectedStatus, w.Code, w.Body.String())
			}

			if tt.validateResp != nil {
				tt.validateResp(t, w)
			}
		})
	}
}

func expectError(substr string) func(*testing.T, *httptest.ResponseRecorder) {
	return func(t *testing.T, w *httptest.ResponseRecorder) {
		var resp map[string]string
		parseResponse(t, w, &resp)
		if !strings.Contains(resp["error"], substr) {
			t.Errorf("Expected error containing %q, got %q", substr, resp["error"])
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err    error
		status int
	}{
		{service.ErrSessionNotFound, http.StatusNotFound},
		{fmt.Errorf("session not found: %w", service.ErrSessionNotFound), http.StatusNotFound},
		{config.ErrConfigNotFound, http.StatusNotFound},
		{engine.ErrIllegalPhase, http.StatusConflict},
		{engine.ErrNoBoards, http.StatusConflict},
		{engine.ErrOutOfBounds, http.StatusBadRequest},
		{engine.ErrInvalidShipName, http.StatusBadRequest},
		{engine.ErrAlreadyDeployed, http.StatusBadRequest},
		{fmt.Errorf("disk on fire"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			if got := statusFor(tt.err); got != tt.status {
				t.Errorf("Expected status %d, got %d", tt.status, got)
			}
		})
	}
}

// Session Management Tests

func TestCreateSession(t *testing.T) {
	runRouteTests(t, []routeTest{
		{
			name:   "Create session with default config",
			method: "POST",
			path:   "/api/sessions",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					if configName != "" {
						t.Errorf("Expected empty config name, got %s", configName)
					}
					return &service.SessionInfo{ID: "sess-123", ConfigName: "classic", CreatedAt: time.Now()}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "sess-123" {
					t.Errorf("Expected session ID sess-123, got %s", resp.ID)
				}
			},
		},
		{
			name:   "Create session with specific config",
			method: "POST",
			path:   "/api/sessions",
			body:   map[string]string{"config_id": "skirmish"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return &service.SessionInfo{ID: "sess-456", ConfigName: configName}, nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ConfigName != "skirmish" {
					t.Errorf("Expected config name 'skirmish', got %s", resp.ConfigName)
				}
			},
		},
		{
			name:           "Malformed body",
			method:         "POST",
			path:           "/api/sessions",
			body:           "not an object",
			expectedStatus: http.StatusBadRequest,
			validateResp:   expectError("Invalid request body"),
		},
		{
			name:   "Unknown config",
			method: "POST",
			path:   "/api/sessions",
			body:   map[string]string{"config_id": "nope"},
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("%w: '%s'", service.ErrConfigNotFound, configName)
				}
			},
			expectedStatus: http.StatusNotFound,
			validateResp:   expectError("nope"),
		},
		{
			name:   "Handle service error",
			method: "POST",
			path:   "/api/sessions",
			setupMock: func(m *MockGameService) {
				m.CreateSessionFunc = func(ctx context.Context, configName string) (*service.SessionInfo, error) {
					return nil, fmt.Errorf("service error")
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp:   expectError("service error"),
		},
	})
}

func TestListSessions(t *testing.T) {
	now := time.Now()
	sessions := func(ctx context.Context) ([]*service.SessionInfo, error) {
		return []*service.SessionInfo{
			{ID: "old", CreatedAt: now.Add(-3 * time.Hour), LastAccessedAt: now},
			{ID: "mid", CreatedAt: now.Add(-2 * time.Hour), LastAccessedAt: now.Add(-2 * time.Hour)},
			{ID: "new", CreatedAt: now.Add(-1 * time.Hour), LastAccessedAt: now.Add(-time.Hour)},
		}, nil
	}

	ids := func(t *testing.T, w *httptest.ResponseRecorder) []string {
		var resp struct {
			Count    int                    `json:"count"`
			Total    int                    `json:"total"`
			Sessions []*service.SessionInfo `json:"sessions"`
		}
		parseResponse(t, w, &resp)
		if resp.Total != 3 {
			t.Errorf("Expected total 3, got %d", resp.Total)
		}
		if resp.Count != len(resp.Sessions) {
			t.Errorf("Expected count %d, got %d", len(resp.Sessions), resp.Count)
		}
		out := make([]string, len(resp.Sessions))
		for i, s := range resp.Sessions {
			out[i] = s.ID
		}
		return out
	}

	expectOrder := func(want ...string) func(*testing.T, *httptest.ResponseRecorder) {
		return func(t *testing.T, w *httptest.ResponseRecorder) {
			got := strings.Join(ids(t, w), ",")
			if got != strings.Join(want, ",") {
				t.Errorf("Expected order %v, got %s", want, got)
			}
		}
	}

	mock := func(m *MockGameService) { m.ListSessionsFunc = sessions }

	runRouteTests(t, []routeTest{
		{
			name:           "Default sort by last access, newest first",
			method:         "GET",
			path:           "/api/sessions",
			setupMock:      mock,
			expectedStatus: http.StatusOK,
			validateResp:   expectOrder("old", "new", "mid"),
		},
		{
			name:           "Sort by creation ascending",
			method:         "GET",
			path:           "/api/sessions?sort=created&order=asc",
			setupMock:      mock,
			expectedStatus: http.StatusOK,
			validateResp:   expectOrder("old", "mid", "new"),
		},
		{
			name:           "Limit",
			method:         "GET",
			path:           "/api/sessions?sort=created&limit=1",
			setupMock:      mock,
			expectedStatus: http.StatusOK,
			validateResp:   expectOrder("new"),
		},
		{
			name:   "Service error",
			method: "GET",
			path:   "/api/sessions",
			setupMock: func(m *MockGameService) {
				m.ListSessionsFunc = func(ctx context.Context) ([]*service.SessionInfo, error) {
					return nil, fmt.Errorf("list failed")
				}
			},
			expectedStatus: http.StatusInternalServerError,
		},
	})
}

func TestGetAndDeleteSession(t *testing.T) {
	notFound := func(m *MockGameService) {
		m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
			return nil, fmt.Errorf("%w: %s", service.ErrSessionNotFound, sessionID)
		}
		m.DeleteSessionFunc = func(ctx context.Context, sessionID string) error {
			return service.ErrSessionNotFound
		}
		m.GetGameStateFunc = func(ctx context.Context, sessionID string) (*engine.GameState, error) {
			return nil, service.ErrSessionNotFound
		}
	}

	runRouteTests(t, []routeTest{
		{
			name:   "Get session",
			method: "GET",
			path:   "/api/sessions/abc",
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return &service.SessionInfo{
						ID:        sessionID,
						GameState: &engine.GameState{Phase: "started"},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.SessionInfo
				parseResponse(t, w, &resp)
				if resp.ID != "abc" || resp.GameState.Phase != "started" {
					t.Errorf("Unexpected session %+v", resp)
				}
			},
		},
		{
			name:           "Get missing session",
			method:         "GET",
			path:           "/api/sessions/missing",
			setupMock:      notFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "Delete session",
			method:         "DELETE",
			path:           "/api/sessions/abc",
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]string
				parseResponse(t, w, &resp)
				if resp["message"] != "Session abc deleted" {
					t.Errorf("Unexpected message %q", resp["message"])
				}
			},
		},
		{
			name:           "Delete missing session",
			method:         "DELETE",
			path:           "/api/sessions/missing",
			setupMock:      notFound,
			expectedStatus: http.StatusNotFound,
		},
		{
			name:           "State of missing session",
			method:         "GET",
			path:           "/api/sessions/missing/state",
			setupMock:      notFound,
			expectedStatus: http.StatusNotFound,
		},
	})
}

// Game Operation Tests

func TestAllocate(t *testing.T) {
	runRouteTests(t, []routeTest{
		{
			name:   "Allocate boards",
			method: "POST",
			path:   "/api/sessions/abc/allocate",
			body:   map[string]int{"horiz_size": 8, "vert_size": 6},
			setupMock: func(m *MockGameService) {
				m.AllocateFunc = func(ctx context.Context, sessionID string, h, v int) (*service.AllocateResult, error) {
					if h != 8 || v != 6 {
						t.Errorf("Expected 8x6, got %dx%d", h, v)
					}
					return &service.AllocateResult{HorizSize: h, VertSize: v, Phase: "init"}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "Invalid dimensions",
			method: "POST",
			path:   "/api/sessions/abc/allocate",
			body:   map[string]int{"horiz_size": 1, "vert_size": 6},
			setupMock: func(m *MockGameService) {
				m.AllocateFunc = func(ctx context.Context, sessionID string, h, v int) (*service.AllocateResult, error) {
					return nil, engine.ErrInvalidDimensions
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:           "Missing body",
			method:         "POST",
			path:           "/api/sessions/abc/allocate",
			expectedStatus: http.StatusBadRequest,
		},
	})
}

func TestDeploy(t *testing.T) {
	runRouteTests(t, []routeTest{
		{
			name:   "Deploy success",
			method: "POST",
			path:   "/api/sessions/abc/players/1/deploy",
			body:   service.DeployRequest{Ship: "A", Left: 1, Top: 2, Orientation: "V", Size: 3},
			setupMock: func(m *MockGameService) {
				m.DeployFunc = func(ctx context.Context, sessionID string, player engine.PlayerID, req service.DeployRequest) (*service.DeployResult, error) {
					if player != engine.PlayerTwo {
						t.Errorf("Expected player 1, got %d", player)
					}
					if req.Ship != "A" || req.Orientation != "V" || req.Size != 3 {
						t.Errorf("Unexpected request %+v", req)
					}
					return &service.DeployResult{
						Player:  int(player),
						Outcome: "success",
						Ship:    &engine.ShipState{Name: "A", Left: 1, Top: 2, Size: 3, Orientation: "V"},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.DeployResult
				parseResponse(t, w, &resp)
				if resp.Outcome != "success" || resp.Ship == nil || resp.Ship.Name != "A" {
					t.Errorf("Unexpected deploy result %+v", resp)
				}
			},
		},
		{
			name:   "Occupied is not an error",
			method: "POST",
			path:   "/api/sessions/abc/players/0/deploy",
			body:   service.DeployRequest{Ship: "B", Left: 0, Top: 0, Orientation: "H", Size: 2},
			setupMock: func(m *MockGameService) {
				m.DeployFunc = func(ctx context.Context, sessionID string, player engine.PlayerID, req service.DeployRequest) (*service.DeployResult, error) {
					return &service.DeployResult{
						Outcome:   "occupied",
						BlockedBy: &engine.ShipState{Name: "A"},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.DeployResult
				parseResponse(t, w, &resp)
				if resp.Outcome != "occupied" || resp.BlockedBy == nil || resp.BlockedBy.Name != "A" {
					t.Errorf("Unexpected deploy result %+v", resp)
				}
			},
		},
		{
			name:   "Deploy after game start",
			method: "POST",
			path:   "/api/sessions/abc/players/0/deploy",
			body:   service.DeployRequest{Ship: "B", Orientation: "H", Size: 2},
			setupMock: func(m *MockGameService) {
				m.DeployFunc = func(ctx context.Context, sessionID string, player engine.PlayerID, req service.DeployRequest) (*service.DeployResult, error) {
					return nil, engine.ErrIllegalPhase
				}
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:           "Player out of range",
			method:         "POST",
			path:           "/api/sessions/abc/players/2/deploy",
			body:           service.DeployRequest{Ship: "A", Orientation: "H", Size: 2},
			expectedStatus: http.StatusBadRequest,
			validateResp:   expectError("player"),
		},
		{
			name:           "Non-numeric player does not route",
			method:         "POST",
			path:           "/api/sessions/abc/players/x/deploy",
			expectedStatus: http.StatusNotFound,
		},
	})
}

func TestUndeploy(t *testing.T) {
	runRouteTests(t, []routeTest{
		{
			name:   "Undeploy ship",
			method: "DELETE",
			path:   "/api/sessions/abc/players/0/ships/C",
			setupMock: func(m *MockGameService) {
				m.UndeployFunc = func(ctx context.Context, sessionID string, player engine.PlayerID, ship string) (*service.UndeployResult, error) {
					if ship != "C" {
						t.Errorf("Expected ship C, got %s", ship)
					}
					return &service.UndeployResult{Ship: engine.ShipState{Name: "C"}, Message: "Undeployed C as instructed."}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "Ship not on the board",
			method: "DELETE",
			path:   "/api/sessions/abc/players/0/ships/D",
			setupMock: func(m *MockGameService) {
				m.UndeployFunc = func(ctx context.Context, sessionID string, player engine.PlayerID, ship string) (*service.UndeployResult, error) {
					return nil, engine.ErrNotDeployed
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
	})
}

func TestShoot(t *testing.T) {
	runRouteTests(t, []routeTest{
		{
			name:   "Sinking shot",
			method: "POST",
			path:   "/api/sessions/abc/players/0/shoot",
			body:   map[string]int{"h": 3, "v": 4},
			setupMock: func(m *MockGameService) {
				m.ShootFunc = func(ctx context.Context, sessionID string, player engine.PlayerID, h, v int) (*service.ShotResult, error) {
					if h != 3 || v != 4 {
						t.Errorf("Expected (3,4), got (%d,%d)", h, v)
					}
					return &service.ShotResult{
						Player:          0,
						Target:          1,
						H:               h,
						V:               v,
						Outcome:         "sunk",
						ShipName:        "E",
						SunkShip:        &engine.ShipState{Name: "E", Size: 1, Sunk: true},
						GameOver:        true,
						FinishedPlayers: []int{1},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.ShotResult
				parseResponse(t, w, &resp)
				if resp.Outcome != "sunk" || !resp.GameOver {
					t.Errorf("Unexpected shot result %+v", resp)
				}
				if len(resp.FinishedPlayers) != 1 || resp.FinishedPlayers[0] != 1 {
					t.Errorf("Expected finished players [1], got %v", resp.FinishedPlayers)
				}
			},
		},
		{
			name:   "Out of bounds",
			method: "POST",
			path:   "/api/sessions/abc/players/1/shoot",
			body:   map[string]int{"h": 30, "v": 0},
			setupMock: func(m *MockGameService) {
				m.ShootFunc = func(ctx context.Context, sessionID string, player engine.PlayerID, h, v int) (*service.ShotResult, error) {
					return nil, fmt.Errorf("%w: (%d,%d)", engine.ErrOutOfBounds, h, v)
				}
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:   "No boards yet",
			method: "POST",
			path:   "/api/sessions/abc/players/1/shoot",
			body:   map[string]int{"h": 0, "v": 0},
			setupMock: func(m *MockGameService) {
				m.ShootFunc = func(ctx context.Context, sessionID string, player engine.PlayerID, h, v int) (*service.ShotResult, error) {
					return nil, engine.ErrNoBoards
				}
			},
			expectedStatus: http.StatusConflict,
		},
		{
			name:   "Discarded session",
			method: "POST",
			path:   "/api/sessions/abc/players/1/shoot",
			body:   map[string]int{"h": 0, "v": 0},
			setupMock: func(m *MockGameService) {
				m.ShootFunc = func(ctx context.Context, sessionID string, player engine.PlayerID, h, v int) (*service.ShotResult, error) {
					return nil, fmt.Errorf("session %s was discarded: %w", sessionID, fmt.Errorf("board corrupted"))
				}
			},
			expectedStatus: http.StatusInternalServerError,
			validateResp:   expectError("discarded"),
		},
	})
}

func TestShoot_LogsIntent(t *testing.T) {
	mock := &MockGameService{
		ShootFunc: func(ctx context.Context, sessionID string, player engine.PlayerID, h, v int) (*service.ShotResult, error) {
			return &service.ShotResult{Player: int(player), Target: 1, H: h, V: v, Outcome: "blank"}, nil
		},
	}
	server := setupTestServer(mock)

	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	body := map[string]interface{}{"h": 1, "v": 2, "intent": "sweep row 2"}
	w := httptest.NewRecorder()
	server.ServeHTTP(w, makeRequest("POST", "/api/sessions/abc/players/0/shoot", body))

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if !strings.Contains(buf.String(), `intent="sweep row 2"`) {
		t.Errorf("Expected intent in shot log, got %q", buf.String())
	}
}

func TestGetBoards(t *testing.T) {
	boards := func(m *MockGameService) {
		m.GetBoardsFunc = func(ctx context.Context, sessionID string, player engine.PlayerID) (*service.BoardsView, error) {
			return &service.BoardsView{
				Player: int(player),
				Phase:  "started",
				Ego:    []string{"AA.", "..."},
				Enemy:  []string{"``*", "```"},
				Text:   " 012    012\n0AA.   0``*\n1...   1```\n",
			}, nil
		}
	}

	runRouteTests(t, []routeTest{
		{
			name:           "JSON view",
			method:         "GET",
			path:           "/api/sessions/abc/players/0/boards",
			setupMock:      boards,
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.BoardsView
				parseResponse(t, w, &resp)
				if len(resp.Ego) != 2 || resp.Ego[0] != "AA." {
					t.Errorf("Unexpected ego rows %v", resp.Ego)
				}
				if resp.Enemy[0] != "``*" {
					t.Errorf("Unexpected enemy rows %v", resp.Enemy)
				}
			},
		},
		{
			name:           "Text view",
			method:         "GET",
			path:           "/api/sessions/abc/players/0/boards?format=text",
			setupMock:      boards,
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				if ct := w.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
					t.Errorf("Expected text/plain, got %s", ct)
				}
				if !strings.HasPrefix(w.Body.String(), " 012    012\n") {
					t.Errorf("Unexpected text body %q", w.Body.String())
				}
			},
		},
		{
			name:   "Missing session",
			method: "GET",
			path:   "/api/sessions/abc/players/0/boards",
			setupMock: func(m *MockGameService) {
				m.GetBoardsFunc = func(ctx context.Context, sessionID string, player engine.PlayerID) (*service.BoardsView, error) {
					return nil, service.ErrSessionNotFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "Fleet",
			method: "GET",
			path:   "/api/sessions/abc/players/1/fleet",
			setupMock: func(m *MockGameService) {
				m.GetFleetFunc = func(ctx context.Context, sessionID string, player engine.PlayerID) (*service.FleetView, error) {
					return &service.FleetView{
						Player: int(player),
						Ships:  []engine.ShipState{{Name: "B", Size: 2, Health: "++"}},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp service.FleetView
				parseResponse(t, w, &resp)
				if resp.Player != 1 || len(resp.Ships) != 1 {
					t.Errorf("Unexpected fleet %+v", resp)
				}
			},
		},
	})
}

// Configuration Tests

func TestConfigs(t *testing.T) {
	runRouteTests(t, []routeTest{
		{
			name:   "List configs",
			method: "GET",
			path:   "/api/configs",
			setupMock: func(m *MockGameService) {
				m.ListConfigsFunc = func(ctx context.Context) ([]*service.ConfigInfo, error) {
					return []*service.ConfigInfo{
						{ConfigID: "classic", Name: "Classic", HorizSize: 10, VertSize: 10, Ships: 10},
						{ConfigID: "open", Name: "Open", HorizSize: 10, VertSize: 10},
					}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp []*service.ConfigInfo
				parseResponse(t, w, &resp)
				if len(resp) != 2 || resp[0].ConfigID != "classic" {
					t.Errorf("Unexpected configs %+v", resp)
				}
			},
		},
		{
			name:   "Get config strips extension",
			method: "GET",
			path:   "/api/configs/skirmish.json",
			setupMock: func(m *MockGameService) {
				m.LoadConfigFunc = func(ctx context.Context, configName string) (*engine.GameConfig, error) {
					if configName != "skirmish" {
						t.Errorf("Expected skirmish, got %s", configName)
					}
					return &engine.GameConfig{Name: "Skirmish", HorizSize: 6, VertSize: 6}, nil
				}
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:   "Get missing config",
			method: "GET",
			path:   "/api/configs/nope",
			setupMock: func(m *MockGameService) {
				m.LoadConfigFunc = func(ctx context.Context, configName string) (*engine.GameConfig, error) {
					return nil, config.ErrConfigNotFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name:   "Create config",
			method: "POST",
			path:   "/api/configs",
			body: map[string]interface{}{
				"config_id":   "tiny",
				"name":        "Tiny",
				"description": "Two by two",
				"horiz_size":  2,
				"vert_size":   2,
			},
			setupMock: func(m *MockGameService) {
				m.SaveConfigFunc = func(ctx context.Context, configName string, cfg *engine.GameConfig) error {
					if configName != "tiny" || cfg.HorizSize != 2 || cfg.Description != "Two by two" {
						t.Errorf("Unexpected save %s %+v", configName, cfg)
					}
					return nil
				}
			},
			expectedStatus: http.StatusCreated,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]interface{}
				parseResponse(t, w, &resp)
				if resp["config_id"] != "tiny" {
					t.Errorf("Expected config_id tiny, got %v", resp["config_id"])
				}
			},
		},
		{
			name:           "Create config without id",
			method:         "POST",
			path:           "/api/configs",
			body:           map[string]interface{}{"name": "Tiny"},
			expectedStatus: http.StatusBadRequest,
			validateResp:   expectError("config_id is required"),
		},
		{
			name:   "Create invalid config",
			method: "POST",
			path:   "/api/configs",
			body:   map[string]interface{}{"config_id": "bad", "horiz_size": 0},
			setupMock: func(m *MockGameService) {
				m.SaveConfigFunc = func(ctx context.Context, configName string, cfg *engine.GameConfig) error {
					return config.ErrInvalidConfig
				}
			},
			expectedStatus: http.StatusBadRequest,
			validateResp:   expectError("Failed to save config"),
		},
	})
}

func TestHealth(t *testing.T) {
	runRouteTests(t, []routeTest{
		{
			name:   "Healthy",
			method: "GET",
			path:   "/api/health",
			setupMock: func(m *MockGameService) {
				m.ListSessionsFunc = func(ctx context.Context) ([]*service.SessionInfo, error) {
					return []*service.SessionInfo{{ID: "a"}, {ID: "b"}}, nil
				}
			},
			expectedStatus: http.StatusOK,
			validateResp: func(t *testing.T, w *httptest.ResponseRecorder) {
				var resp map[string]interface{}
				parseResponse(t, w, &resp)
				if resp["status"] != "healthy" || resp["sessions"].(float64) != 2 {
					t.Errorf("Unexpected health response %v", resp)
				}
			},
		},
	})
}

func TestWebSocket(t *testing.T) {
	tests := []struct {
		name           string
		queryParams    string
		hub            bool
		setupMock      func(*MockGameService)
		expectedStatus int
	}{
		{
			name:           "Live updates disabled",
			queryParams:    "?session=abc",
			expectedStatus: http.StatusNotImplemented,
		},
		{
			name:           "Missing session parameter",
			hub:            true,
			expectedStatus: http.StatusBadRequest,
		},
		{
			name:        "Invalid session",
			queryParams: "?session=invalid",
			hub:         true,
			setupMock: func(m *MockGameService) {
				m.GetSessionFunc = func(ctx context.Context, sessionID string) (*service.SessionInfo, error) {
					return nil, service.ErrSessionNotFound
				}
			},
			expectedStatus: http.StatusNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockGameService{}
			if tt.setupMock != nil {
				tt.setupMock(mockService)
			}

			var hub *websocket.Hub
			if tt.hub {
				hub = websocket.NewHub()
			}
			server := NewServer(mockService, hub)
			w := httptest.NewRecorder()
			server.ServeHTTP(w, httptest.NewRequest("GET", "/ws"+tt.queryParams, nil))

			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
		})
	}
}

// TestEndToEnd drives a full game through the HTTP API with the real
// service, session and config managers, while a WebSocket client watches.
func TestEndToEnd(t *testing.T) {
	configs, err := config.NewManager("../configs")
	if err != nil {
		t.Fatalf("Failed to create config manager: %v", err)
	}
	gameService := service.NewGameService(session.NewManager(), configs)

	hub := websocket.NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	ts := httptest.NewServer(NewServer(gameService, hub))
	defer ts.Close()

	do := func(method, path string, body interface{}, wantStatus int, target interface{}) {
		t.Helper()
		var buf bytes.Buffer
		if body != nil {
			json.NewEncoder(&buf).Encode(body)
		}
		req, _ := http.NewRequest(method, ts.URL+path, &buf)
		req.Header.Set("Content-Type", "application/json")
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s failed: %v", method, path, err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != wantStatus {
			t.Fatalf("%s %s: expected status %d, got %d", method, path, wantStatus, resp.StatusCode)
		}
		if target != nil {
			if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
				t.Fatalf("Failed to decode %s %s: %v", method, path, err)
			}
		}
	}

	var created service.SessionInfo
	do("POST", "/api/sessions", map[string]string{"config_id": "open"}, http.StatusCreated, &created)
	if created.ConfigName != "open" {
		t.Errorf("Expected config open, got %s", created.ConfigName)
	}
	base := "/api/sessions/" + created.ID

	// Upper case IDs reach the same session and the same subscribers
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?session=" + strings.ToUpper(created.ID)
	conn, _, err := gorillaws.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("Failed to connect to WebSocket: %v", err)
	}
	defer conn.Close()

	readEvent := func() websocket.Message {
		t.Helper()
		conn.SetReadDeadline(time.Now().Add(2 * time.Second))
		var message websocket.Message
		if err := conn.ReadJSON(&message); err != nil {
			t.Fatalf("Failed to read WebSocket message: %v", err)
		}
		return message
	}
	if greeting := readEvent(); greeting.Event != websocket.EventConnected {
		t.Fatalf("Expected connected greeting, got %s", greeting.Event)
	}

	do("POST", base+"/allocate", map[string]int{"horiz_size": 4, "vert_size": 3}, http.StatusOK, nil)
	if msg := readEvent(); msg.Event != service.EventAllocated {
		t.Errorf("Expected %s event, got %s", service.EventAllocated, msg.Event)
	}

	var deployed service.DeployResult
	do("POST", base+"/players/1/deploy", service.DeployRequest{Ship: "A", Left: 1, Top: 1, Orientation: "H", Size: 2}, http.StatusOK, &deployed)
	if deployed.Outcome != "success" {
		t.Fatalf("Expected success, got %s", deployed.Outcome)
	}
	if msg := readEvent(); msg.Event != service.EventDeployed {
		t.Errorf("Expected %s event, got %s", service.EventDeployed, msg.Event)
	}

	do("POST", base+"/players/1/deploy", service.DeployRequest{Ship: "B", Left: 2, Top: 0, Orientation: "V", Size: 2}, http.StatusOK, &deployed)
	if deployed.Outcome != "occupied" || deployed.BlockedBy == nil || deployed.BlockedBy.Name != "A" {
		t.Errorf("Expected deploy blocked by A, got %+v", deployed)
	}

	var shot service.ShotResult
	do("POST", base+"/players/0/shoot", map[string]int{"h": 1, "v": 1}, http.StatusOK, &shot)
	if shot.Outcome != "new_hit" || shot.SunkShip != nil {
		t.Errorf("Expected undisclosed new hit, got %+v", shot)
	}
	if msg := readEvent(); msg.Event != service.EventShot {
		t.Errorf("Expected %s event, got %s", service.EventShot, msg.Event)
	}

	// Setup is over once the first shot lands
	do("POST", base+"/players/1/deploy", service.DeployRequest{Ship: "C", Left: 0, Top: 2, Orientation: "H", Size: 1}, http.StatusConflict, nil)

	do("POST", base+"/players/0/shoot", map[string]int{"h": 2, "v": 1}, http.StatusOK, &shot)
	if shot.Outcome != "sunk" || !shot.GameOver || shot.SunkShip == nil {
		t.Errorf("Expected game-ending sink, got %+v", shot)
	}

	var boards service.BoardsView
	do("GET", base+"/players/1/boards", nil, http.StatusOK, &boards)
	if boards.Ego[1] != ".aa." {
		t.Errorf("Expected busted ship on own board, got %q", boards.Ego[1])
	}

	do("POST", base+"/players/0/shoot", map[string]int{"h": 9, "v": 9}, http.StatusBadRequest, nil)
	do("DELETE", base, nil, http.StatusOK, nil)
	do("GET", base+"/state", nil, http.StatusNotFound, nil)
}
