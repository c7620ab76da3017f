// Package console implements the line oriented command language of the grid
// battle game.
//
// Every line starts with a command letter:
//
//	aH,V        allocate both boards, H wide and V high
//	dNL,T,O,S   deploy ship N at L,T with orientation H or V and size S
//	uN          undeploy ship N
//	sH,V        shoot at the opponent's board
//	b           show both boards side by side
//	f           list the current player's fleet
//	pX          act as player X (0 or 1)
//	h           help
//	q           quit
//
// A Runner executes commands against a GameEngine for the current player.
// RunScript stops at the first error; RunInteractive prints the error and
// keeps prompting. After boards, fleet, undeploy and shoot commands the runner
// announces game over for every player whose fleet is sunk.
package console
