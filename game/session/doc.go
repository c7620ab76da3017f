// Package session provides session management for the grid battle game.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - Session ID generation
//   - Optional JSON file persistence
//   - Eviction of idle sessions
//
// Core Types:
//
// Manager holds the live sessions. Each session owns a game engine built from
// a board preset. FilePersistence stores one JSON file per session under the
// sessions directory, holding the engine snapshot (phase, board rows and
// ships with their segment health) plus the preset name.
//
// Session Identifiers:
//
// Generated IDs are the first 8 characters of a random UUID. Lookups are
// case-insensitive.
//
// Usage:
//
//	persistence, err := session.NewFilePersistence("sessions", configMgr)
//	if err != nil {
//		log.Fatal(err)
//	}
//	manager := session.NewManagerWithPersistence(persistence)
//	manager.LoadPersistedSessions()
//
//	sess, err := manager.Create("", "classic", configMgr.GetDefault())
//
// Sessions evicted by CleanupExpiredSessions stay on disk and are loaded back
// on the next Get.
package session
