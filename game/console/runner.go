package console

import (
	"bufio"
	"errors"
	"fmt"
	"io"

	"github.com/wricardo/grid-battle/game/engine"
	"github.com/wricardo/grid-battle/game/render"
)

// Runner drives a GameEngine from text commands on behalf of the current
// player and writes human readable results to out.
type Runner struct {
	engine *engine.GameEngine
	player engine.PlayerID
	out    io.Writer
}

// NewRunner creates a runner acting as player one.
func NewRunner(e *engine.GameEngine, out io.Writer) *Runner {
	return &Runner{
		engine: e,
		player: engine.PlayerOne,
		out:    out,
	}
}

// Player returns the player commands currently act for.
func (r *Runner) Player() engine.PlayerID {
	return r.player
}

// Engine returns the engine being driven.
func (r *Runner) Engine() *engine.GameEngine {
	return r.engine
}

// Execute parses and performs one command line. It reports quit for the q
// command; nothing else ends the game.
func (r *Runner) Execute(line string) (quit bool, err error) {
	cmd, err := Parse(line)
	if err != nil {
		return false, err
	}
	if cmd.Kind == Quit {
		return true, nil
	}
	return false, r.perform(cmd)
}

func (r *Runner) perform(cmd Command) error {
	switch cmd.Kind {
	case Allocate:
		if err := r.engine.Allocate(cmd.H, cmd.V); err != nil {
			return fmt.Errorf("allocate command invalid, full command: %s: %w", cmd.Line, err)
		}
		r.printf("Allocated boards of %dx%d", cmd.H, cmd.V)
		return nil

	case Help:
		r.printf("%s", HelpText())
		return nil

	case SwitchPlayer:
		r.player = cmd.Player
		r.printf("Switched to player %d", int(cmd.Player))
		return nil
	}

	if !r.engine.Allocated() {
		return fmt.Errorf("please allocate the boards: %w", engine.ErrNoBoards)
	}

	switch cmd.Kind {
	case ShowBoards:
		pair, err := render.ForPlayer(r.engine, r.player)
		if err != nil {
			return err
		}
		r.printf("%s", pair)

	case ShowFleet:
		ships, err := r.engine.Ships(r.player)
		if err != nil {
			return err
		}
		r.printf("%s", render.Fleet(ships))

	case Deploy:
		result, err := r.engine.Deploy(r.player, cmd.Ship, cmd.Left, cmd.Top, cmd.Orientation, cmd.Size)
		if err != nil {
			return r.phaseError(cmd, err)
		}
		switch result.Outcome {
		case engine.DeployOccupied:
			r.printf("Overlay with the ship %s, deploy aborted", result.Ship)
		case engine.DeploySuccess:
			r.printf("Deployed %s as instructed", result.Ship)
		}
		// Deploy never finishes anyone, so no game over check here.
		return nil

	case Undeploy:
		ship, err := r.engine.Undeploy(r.player, cmd.Ship)
		if err != nil {
			return r.phaseError(cmd, err)
		}
		r.printf("Undeployed %s as instructed.", ship)

	case Shoot:
		report, err := r.engine.Shoot(r.player, cmd.H, cmd.V)
		if err != nil {
			return fmt.Errorf("command %s: %w", cmd.Line, err)
		}
		switch report.Outcome {
		case engine.ShotBlank:
			r.printf("Nothing here: %s", cmd.Line)
		case engine.ShotDupeHit:
			r.printf("Enough beating the dead horse; command: %s", cmd.Line)
		case engine.ShotNewHit:
			r.printf("New hit, command: %s", cmd.Line)
		case engine.ShotSunk:
			r.printf("Sunk: %s, command: %s", report.Ship, cmd.Line)
		}
	}

	r.reportGameOver()
	return nil
}

func (r *Runner) phaseError(cmd Command, err error) error {
	if errors.Is(err, engine.ErrIllegalPhase) {
		return fmt.Errorf("operation is only allowed before game start, command: %s: %w", cmd.Line, err)
	}
	return err
}

// reportGameOver announces every player whose fleet is gone, not only the
// one just shot at. Play continues regardless.
func (r *Runner) reportGameOver() {
	for _, player := range r.engine.FinishedPlayers() {
		r.printf("%s: *** GAME OVER ***", player)
	}
}

func (r *Runner) printf(format string, args ...any) {
	fmt.Fprintf(r.out, format+"\n", args...)
}

// RunScript executes commands from in until EOF or a q command. Blank lines
// are skipped. The first failing command stops the script.
func (r *Runner) RunScript(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		if isBlank(line) {
			continue
		}
		quit, err := r.Execute(line)
		if err != nil {
			return fmt.Errorf("script line %d: %w", lineNo, err)
		}
		if quit {
			return nil
		}
	}
	return scanner.Err()
}

// RunInteractive prompts for commands until EOF or q. Command errors are
// printed and play continues, except for consistency faults which end the
// session.
func (r *Runner) RunInteractive(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprintf(r.out, "Player [%d], Command (h for help, q to quit): ", int(r.player))
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		line := scanner.Text()
		if isBlank(line) {
			continue
		}

		quit, err := r.Execute(line)
		if err != nil {
			if engine.IsFault(err) {
				return err
			}
			r.printf("ERROR: %s", err)
			continue
		}
		if quit {
			return nil
		}
	}
}

func isBlank(line string) bool {
	for i := 0; i < len(line); i++ {
		if line[i] != ' ' && line[i] != '\t' && line[i] != '\r' {
			return false
		}
	}
	return true
}
