// Package engine provides the core game logic for the grid battle game.
//
// The engine package implements the game mechanics including:
//   - Ship placement with all-or-nothing collision detection
//   - Orientation-specific grid indexing
//   - Shot resolution (blank, new hit, duplicate hit, sunk)
//   - Win detection per board
//   - Init/Started phase gating for deploy and undeploy
//   - Snapshot and restore of the full game state
//
// Core Types:
//
// Ship, Fleet and Board model a single player's waters. GameEngine owns two
// players and the game phase and routes every operation to the right board:
// deploys go to the acting player's own board, shots go to the opponent's.
// DeployResult and ShootResult are tagged results; a collision on deploy is an
// expected outcome, not an error.
//
// Usage:
//
//	e := engine.NewEngine()
//	if err := e.Allocate(10, 10); err != nil {
//		log.Fatal(err)
//	}
//
//	res, err := e.Deploy(engine.PlayerOne, 'A', 0, 0, engine.Horizontal, 3)
//	if err != nil {
//		log.Fatal(err)
//	}
//	if res.Outcome == engine.DeployOccupied {
//		log.Printf("blocked by %s", res.Ship)
//	}
//
//	report, err := e.Shoot(engine.PlayerTwo, 0, 0)
//
// Errors:
//
// Validation failures wrap ErrInvalidInput and leave the engine untouched.
// ErrIllegalPhase rejects deploy and undeploy once shooting has started.
// A *FaultError means the grid and the fleet disagree; the engine refuses
// every later operation and the session should be discarded.
//
// Rendering:
//
// Board.Render drives a RenderContext over every cell in row-major order.
// The engine itself never produces text beyond debugging String methods.
package engine
