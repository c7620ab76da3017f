// Package websocket pushes live game events to browser clients.
//
// A central Hub owns every connection. Clients subscribe to one session by
// connecting to /ws?session=<id>; the first frame they receive is a
// "connected" message carrying the current game state. After that the hub
// forwards whatever the API broadcasts for that session:
//
//	{"session_id": "3f2a9c1b", "event": "shot", "data": {"type": "shot", "player": 0, "message": "...", "timestamp": "..."}}
//
// Event names are the service event types (allocated, deployed, undeployed,
// shot, game_over) plus state_update. Each frame holds exactly one JSON
// document. Incoming frames are ignored.
//
// Usage:
//
//	hub := websocket.NewHub()
//	go hub.Run(ctx)
//
//	hub.BroadcastGameEvents(sessionID, result.Events)
//
// Broadcasting never blocks: when the hub's queue is full or the hub has
// stopped, the message is dropped. A client that cannot keep up is
// disconnected.
package websocket
