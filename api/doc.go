// Package api provides the HTTP REST API for the grid battle game.
//
// Endpoints:
//
// Session Management:
//   - POST /api/sessions - Create a session, body {"config_id": "classic"} (optional)
//   - GET /api/sessions - List sessions (?sort=created|accessed&order=asc|desc&limit=N)
//   - GET /api/sessions/{id} - Get a session with its game state
//   - DELETE /api/sessions/{id} - Delete a session
//   - GET /api/sessions/{id}/state - Get the raw game state
//
// Setup and Play:
//   - POST /api/sessions/{id}/allocate - New boards, body {"horiz_size": 10, "vert_size": 10}
//   - POST /api/sessions/{id}/players/{player}/deploy - Place a ship
//   - DELETE /api/sessions/{id}/players/{player}/ships/{name} - Remove a ship
//   - POST /api/sessions/{id}/players/{player}/shoot - Fire at the opponent, body {"h": 3, "v": 4}
//   - GET /api/sessions/{id}/players/{player}/boards - Both boards as the player sees them
//   - GET /api/sessions/{id}/players/{player}/fleet - The player's own ships
//
// {player} is 0 or 1. Deploy takes:
//
//	{"ship": "A", "left": 1, "top": 2, "orientation": "H", "size": 3}
//
// A deploy onto an occupied cell answers 200 with outcome "occupied" and the
// blocking ship in blocked_by. Boards accept ?format=text for the side-by-side
// console rendering.
//
// Configuration:
//   - GET /api/configs - List presets
//   - GET /api/configs/{name} - Get one preset
//   - POST /api/configs - Save a preset, body {"config_id": "mine", ...preset fields}
//
// Live updates:
//   - GET /ws?session={id} - WebSocket stream of game events for a session
//
// Errors are returned as JSON:
//
//	{"error": "session not found: abc123"}
//
// with status 404 for unknown sessions and presets, 400 for bad input, 409 for
// operations not allowed in the current phase or before allocation, and 500
// otherwise. A session whose board was found corrupted is discarded and the
// request answers 500.
//
// Usage:
//
//	server := api.NewServer(gameService, hub)
//	http.ListenAndServe(":8080", server)
package api
