// Package service provides the business logic layer for the grid battle game.
//
// The service package implements:
//   - Multi-session game management
//   - Setup and shooting operations on behalf of either player
//   - Per-player board and fleet views
//   - Configuration preset loading
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and persistence.
// ConfigManager manages board presets.
//
// Architecture:
//
// The service layer sits between the transports (HTTP/WebSocket/MCP) and the
// game engine. Each session owns its own engine. Mutating operations return
// the GameEvents they produced so transports can broadcast them, and save the
// session afterwards. An engine that reports a fault is discarded together
// with its session.
//
// Usage:
//
//	sessionMgr := session.NewManager()
//	configMgr := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr)
//
//	info, err := gameService.CreateSession(ctx, "classic")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	shot, err := gameService.Shoot(ctx, info.ID, engine.PlayerOne, 3, 4)
package service
