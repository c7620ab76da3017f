// Package mcp exposes the grid battle game to AI agents over the Model Context
// Protocol.
//
// The Client is a thin proxy: every tool call becomes a request against the
// REST API, and the JSON answer is turned into readable text for the agent.
//
// MCP Tools:
//   - create_session: Create a session, optionally from a preset (config_id)
//   - get_session: Session details and per-board summary
//   - list_sessions: List all active sessions
//   - allocate_boards: Fresh boards for both players
//   - deploy_ship: Place a ship on a player's own board
//   - undeploy_ship: Remove a ship from a player's own board
//   - shoot: Fire at the opponent's board
//   - show_boards: Side-by-side rendering of both boards for one player
//   - show_fleet: A player's ships with their health
//   - list_configs: Available presets
//   - game_rules: Rules and board legend
//
// Player-scoped tools take "player" (0 or 1) next to "session_id". Errors
// from the API are returned as tool errors, not protocol errors, so the
// agent sees the message.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	if err := client.ServeStdio(); err != nil {
//		log.Fatal(err)
//	}
//
// The same tools are served over HTTP at /mcp by the server command.
package mcp
