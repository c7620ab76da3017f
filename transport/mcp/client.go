package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/grid-battle/game/engine"
	"github.com/wricardo/grid-battle/game/service"
)

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"Grid Battle",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`Grid Battle - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Two players (0 and 1) each hide a fleet on their own board, then take turns
shooting at the opponent's board. A player whose every ship is sunk is game over.

AVAILABLE TOOLS:
- create_session: Create a new game session from a preset
- get_session: Get session details
- list_sessions: List all active sessions
- allocate_boards: Give both players fresh empty boards
- deploy_ship: Place a ship on a player's own board (before the first shot)
- undeploy_ship: Take a ship back off the board (before the first shot)
- shoot: Fire at the opponent's board
- show_boards: Both boards as a player sees them
- show_fleet: A player's own ships and their health
- list_configs: List available presets
- game_rules: Rules, coordinates and board legend`),
	)

	c.registerTools()
}

func sessionIDProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID",
	}
}

func playerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"enum":        []int{0, 1},
		"description": description,
	}
}

func integerProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "integer",
		"description": description,
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "create_session",
		Description: "Create a new game session with optional preset selection",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Preset to start from, e.g. classic, skirmish, open (optional)",
				},
			},
		},
	}, c.handleCreateSession)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Setup
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "allocate_boards",
		Description: "Allocate fresh empty boards for both players. Discards all ships and shots and returns the game to setup.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"horiz_size": integerProperty("Number of columns (2-50)"),
				"vert_size":  integerProperty("Number of rows (2-50)"),
			},
			Required: []string{"session_id", "horiz_size", "vert_size"},
		},
	}, c.handleAllocate)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "deploy_ship",
		Description: "Place a ship on the player's own board. Only allowed before the first shot.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"player":     playerProperty("Player placing the ship"),
				"ship": map[string]interface{}{
					"type":        "string",
					"description": "Ship name, a single letter A-Z",
				},
				"left": integerProperty("Column of the ship's first segment"),
				"top":  integerProperty("Row of the ship's first segment"),
				"orientation": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"H", "V"},
					"description": "H extends to the right, V extends down",
				},
				"size": integerProperty("Number of segments"),
			},
			Required: []string{"session_id", "player", "ship", "left", "top", "orientation", "size"},
		},
	}, c.handleDeploy)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "undeploy_ship",
		Description: "Remove a ship from the player's own board. Only allowed before the first shot.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"player":     playerProperty("Player owning the ship"),
				"ship": map[string]interface{}{
					"type":        "string",
					"description": "Ship name, a single letter A-Z",
				},
			},
			Required: []string{"session_id", "player", "ship"},
		},
	}, c.handleUndeploy)

	// Play
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "shoot",
		Description: "Fire at a cell of the opponent's board. The first shot ends setup for both players.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"player":     playerProperty("Player firing the shot"),
				"h":          integerProperty("Column to fire at"),
				"v":          integerProperty("Row to fire at"),
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of why this cell (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"session_id", "player", "h", "v"},
		},
	}, c.handleShoot)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "show_boards",
		Description: "Show the player's own board next to what they know of the opponent's board",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"player":     playerProperty("Player whose point of view to render"),
			},
			Required: []string{"session_id", "player"},
		},
	}, c.handleShowBoards)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "show_fleet",
		Description: "List the ships on the player's own board",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionIDProperty(),
				"player":     playerProperty("Player whose fleet to list"),
			},
			Required: []string{"session_id", "player"},
		},
	}, c.handleShowFleet)

	// Configuration and help
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available game presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_rules",
		Description: "Get the game rules, coordinate system and board legend",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameRules)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// ServeStdio runs the MCP server over stdin/stdout until the input closes
func (c *Client) ServeStdio() error {
	return server.ServeStdio(c.mcpServer)
}

// Helper methods for API calls

func (c *Client) apiCall(ctx context.Context, method, path string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]string
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"]; ok {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}

	return nil
}

func arguments(request mcp.CallToolRequest) map[string]interface{} {
	args, _ := request.Params.Arguments.(map[string]interface{})
	if args == nil {
		return map[string]interface{}{}
	}
	return args
}

// intArg reads a required integer argument. JSON numbers arrive as float64.
func intArg(args map[string]interface{}, key string) (int, error) {
	switch v := args[key].(type) {
	case float64:
		if v != float64(int(v)) {
			return 0, fmt.Errorf("%s must be a whole number, got %v", key, v)
		}
		return int(v), nil
	case int:
		return v, nil
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%s must be a whole number, got %s", key, v)
		}
		return int(n), nil
	case nil:
		return 0, fmt.Errorf("%s is required", key)
	default:
		return 0, fmt.Errorf("%s must be a number, got %T", key, v)
	}
}

func stringArg(args map[string]interface{}, key string) (string, error) {
	s, _ := args[key].(string)
	if s == "" {
		return "", fmt.Errorf("%s is required", key)
	}
	return s, nil
}

// playerPath builds /api/sessions/{id}/players/{player} from the tool arguments.
func playerPath(args map[string]interface{}) (string, error) {
	sessionID, err := stringArg(args, "session_id")
	if err != nil {
		return "", err
	}
	player, err := intArg(args, "player")
	if err != nil {
		return "", err
	}
	if !engine.PlayerID(player).Valid() {
		return "", fmt.Errorf("player must be 0 or 1, got %d", player)
	}
	return fmt.Sprintf("/api/sessions/%s/players/%d", url.PathEscape(sessionID), player), nil
}

// Tool handlers

func (c *Client) handleCreateSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	configID, _ := args["config_id"].(string)

	body := map[string]string{}
	if configID != "" {
		body["config_id"] = configID
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "POST", "/api/sessions", body, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                    `json:"count"`
		Sessions []*service.SessionInfo `json:"sessions"`
	}

	if err := c.apiCall(ctx, "GET", "/api/sessions", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	if len(response.Sessions) == 0 {
		return mcp.NewToolResultText("No active sessions"), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active sessions (%d):\n", response.Count)
	for _, session := range response.Sessions {
		phase := "unallocated"
		if allocated(session.GameState) {
			phase = session.GameState.Phase
		}
		fmt.Fprintf(&b, "- %s (config: %s, phase: %s, last used %s)\n",
			session.ID, session.ConfigName, phase, session.LastAccessedAt.Format(time.RFC3339))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID, err := stringArg(arguments(request), "session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+url.PathEscape(sessionID), nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleAllocate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	sessionID, err := stringArg(args, "session_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	h, err := intArg(args, "horiz_size")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := intArg(args, "vert_size")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]int{"horiz_size": h, "vert_size": v}
	var result service.AllocateResult
	if err := c.apiCall(ctx, "POST", fmt.Sprintf("/api/sessions/%s/allocate", url.PathEscape(sessionID)), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s\nPhase: %s", result.Message, result.Phase)), nil
}

func (c *Client) handleDeploy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := playerPath(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	req := service.DeployRequest{}
	if req.Ship, err = stringArg(args, "ship"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if req.Orientation, err = stringArg(args, "orientation"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	for key, dst := range map[string]*int{"left": &req.Left, "top": &req.Top, "size": &req.Size} {
		if *dst, err = intArg(args, key); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	var result service.DeployResult
	if err := c.apiCall(ctx, "POST", path+"/deploy", req, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatDeployResult(&result)), nil
}

func (c *Client) handleUndeploy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := playerPath(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	ship, err := stringArg(args, "ship")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var result service.UndeployResult
	if err := c.apiCall(ctx, "DELETE", path+"/ships/"+url.PathEscape(ship), nil, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(result.Message), nil
}

func (c *Client) handleShoot(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := arguments(request)
	path, err := playerPath(args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	h, err := intArg(args, "h")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	v, err := intArg(args, "v")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	body := map[string]interface{}{"h": h, "v": v}
	if intent, _ := args["intent"].(string); intent != "" {
		body["intent"] = intent // ends up in the server's shot log
	}

	var result service.ShotResult
	if err := c.apiCall(ctx, "POST", path+"/shoot", body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatShotResult(&result)), nil
}

func (c *Client) handleShowBoards(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := playerPath(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var view service.BoardsView
	if err := c.apiCall(ctx, "GET", path+"/boards", nil, &view); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatBoards(&view)), nil
}

func (c *Client) handleShowFleet(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	path, err := playerPath(arguments(request))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var fleet service.FleetView
	if err := c.apiCall(ctx, "GET", path+"/fleet", nil, &fleet); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(fmt.Sprintf("%s fleet:\n%s", engine.PlayerID(fleet.Player), fleet.Text)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Board: %dx%d, Ships: %d\n\n",
			config.Name, config.ConfigID, config.Description, config.HorizSize, config.VertSize, config.Ships)
	}

	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameRules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(gameRules), nil
}

const gameRules = `Grid Battle - Rules

SETUP:
• allocate_boards gives both players an empty board of the same size (2-50 per side).
  Allocating again wipes both boards and starts setup over.
• Each player deploys ships on their own board with deploy_ship.
  A ship has a letter name (A-Z, one of each per player), a top-left cell,
  an orientation (H extends right, V extends down) and a size.
• A ship that would overlap another is not placed; the answer names the ship in the way.
• undeploy_ship takes a ship back off the board.

PLAY:
• shoot fires at a cell of the opponent's board.
• The first shot by either player ends setup: no more deploys or undeploys.
• Outcomes: blank (water), new_hit, dupe_hit (that segment was already hit), sunk.
• A player whose every ship is sunk is GAME OVER. Shooting is still allowed.
• A board without ships is never game over.

COORDINATES:
• h is the column, counted from 0 at the left.
• v is the row, counted from 0 at the top.

BOARD LEGEND (show_boards):
Your board (left):
  A-Z  healthy ship segment
  a-z  hit ship segment
  *    shot that landed in water
  .    untouched water
Opponent board (right):
  ` + "`" + `    unknown: untouched water or a healthy segment
  a-z  hit ship segment
  *    shot that landed in water

Row and column numbers around each board are the coordinates modulo 10.`

// allocated reports whether the snapshot carries boards. Boards is indexed by
// player and holds nil entries before allocation.
func allocated(state *engine.GameState) bool {
	if state == nil {
		return false
	}
	for _, board := range state.Boards {
		if board != nil {
			return true
		}
	}
	return false
}

func formatSessionInfo(session *service.SessionInfo) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Session: %s\nConfig: %s\n", session.ID, session.ConfigName)
	state := session.GameState
	if !allocated(state) {
		b.WriteString("Boards: not allocated\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Phase: %s\n", state.Phase)
	for _, board := range state.Boards {
		if board == nil {
			continue
		}
		status := fmt.Sprintf("%d ships", len(board.Ships))
		if board.GameOver {
			status += ", GAME OVER"
		}
		fmt.Fprintf(&b, "%s: %dx%d board, %s\n", engine.PlayerID(board.Player), board.HorizSize, board.VertSize, status)
	}
	return b.String()
}

func formatDeployResult(result *service.DeployResult) string {
	if result.Outcome == "occupied" && result.BlockedBy != nil {
		return fmt.Sprintf("✗ %s\nBlocked by %s at (%d,%d) %s size %d",
			result.Message, result.BlockedBy.Name, result.BlockedBy.Left, result.BlockedBy.Top,
			result.BlockedBy.Orientation, result.BlockedBy.Size)
	}
	return "✓ " + result.Message
}

func formatShotResult(result *service.ShotResult) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s shot at (%d,%d) on %s's board: %s\n",
		engine.PlayerID(result.Player), result.H, result.V, engine.PlayerID(result.Target), result.Message)
	fmt.Fprintf(&b, "Outcome: %s\n", result.Outcome)
	if result.SunkShip != nil {
		fmt.Fprintf(&b, "Sunk ship: %s at (%d,%d) %s size %d\n",
			result.SunkShip.Name, result.SunkShip.Left, result.SunkShip.Top,
			result.SunkShip.Orientation, result.SunkShip.Size)
	}
	for _, player := range result.FinishedPlayers {
		fmt.Fprintf(&b, "%s: *** GAME OVER ***\n", engine.PlayerID(player))
	}
	return b.String()
}

func formatBoards(view *service.BoardsView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (phase: %s)\nYour board on the left, opponent's on the right:\n\n",
		engine.PlayerID(view.Player), view.Phase)
	b.WriteString(view.Text)
	for _, player := range view.FinishedPlayers {
		fmt.Fprintf(&b, "\n%s: *** GAME OVER ***", engine.PlayerID(player))
	}
	return b.String()
}
