package console

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode"

	"github.com/wricardo/grid-battle/game/engine"
)

var (
	ErrUnknownCommand   = errors.New("unknown command")
	ErrMalformedCommand = fmt.Errorf("%w: malformed command", engine.ErrInvalidInput)
)

// Kind is the command selected by the first letter of a line.
type Kind int

const (
	Allocate Kind = iota
	ShowBoards
	Deploy
	Undeploy
	Shoot
	ShowFleet
	Help
	SwitchPlayer
	Quit
)

// kinds is the command table in help order.
var kinds = []struct {
	letter byte
	kind   Kind
	help   string
}{
	{'a', Allocate, "Allocate/reallocate boards: aH,V where H is horizontal size and V is vertical size, example: a10,10"},
	{'b', ShowBoards, "Show current state of the boards: b"},
	{'d', Deploy, "Deploy a ship on a board: dNL,T,O,S where N - name, L-left, T-top, O-orientation (V or H), S-size"},
	{'u', Undeploy, "Undeploy a ship: uN, where N is the ship's name"},
	{'s', Shoot, "Shoot at enemy's board location: sH,V, where H is horizontal coord, V is vertical; example: s6,9"},
	{'f', ShowFleet, "Show all the deployed ships on my board, a.k.a. fleet: f"},
	{'h', Help, "Show help: h"},
	{'p', SwitchPlayer, "Set current player index: pX, like p0 or p1"},
	{'q', Quit, "Quit: q"},
}

func (k Kind) String() string {
	for _, entry := range kinds {
		if entry.kind == k {
			return string(entry.letter)
		}
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Command is one parsed console line. Only the fields of its Kind are set.
type Command struct {
	Kind Kind
	Line string

	// Allocate: board size. Shoot: target coordinate.
	H, V int

	// Deploy and Undeploy.
	Ship        engine.ShipName
	Left, Top   int
	Orientation engine.Orientation
	Size        int

	// SwitchPlayer.
	Player engine.PlayerID
}

// Parse reads one command line. The first letter picks the command, case
// insensitive; the rest are its arguments.
func Parse(line string) (Command, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Command{}, fmt.Errorf("%w: empty line", ErrMalformedCommand)
	}

	cmd := Command{Line: line}
	letter := byte(unicode.ToLower(rune(line[0])))
	found := false
	for _, entry := range kinds {
		if entry.letter == letter {
			cmd.Kind = entry.kind
			found = true
			break
		}
	}
	if !found {
		return Command{}, fmt.Errorf("%w %q, h for help", ErrUnknownCommand, line)
	}

	args := line[1:]
	var err error
	switch cmd.Kind {
	case Allocate:
		cmd.H, cmd.V, err = parsePair(args)
		if err != nil {
			return Command{}, fmt.Errorf("allocate command invalid, expected format H,V (like 10,10) received instead: %s: %w", line, err)
		}
	case Shoot:
		cmd.H, cmd.V, err = parsePair(args)
		if err != nil {
			return Command{}, fmt.Errorf("shoot command invalid, expected format H,V (like 6,9) received instead: %s: %w", line, err)
		}
	case Deploy:
		if err := parseDeploy(&cmd, args); err != nil {
			return Command{}, fmt.Errorf("deploy command invalid, run h for help: %s: %w", line, err)
		}
	case Undeploy:
		cmd.Ship, err = engine.ParseShipName(strings.TrimSpace(args))
		if err != nil {
			return Command{}, fmt.Errorf("undeploy command invalid: %s: %w", line, err)
		}
	case SwitchPlayer:
		id, err := parseInt(args)
		if err != nil {
			return Command{}, fmt.Errorf("player command invalid: %s: %w", line, err)
		}
		cmd.Player = engine.PlayerID(id)
		if !cmd.Player.Valid() {
			return Command{}, fmt.Errorf("%w: invalid user id: %d", engine.ErrInvalidPlayer, id)
		}
	}

	return cmd, nil
}

func parseDeploy(cmd *Command, args string) error {
	if args == "" {
		return fmt.Errorf("%w: missing ship name", ErrMalformedCommand)
	}
	name, err := engine.ParseShipName(args[:1])
	if err != nil {
		return err
	}
	cmd.Ship = name

	fields := strings.Split(args[1:], ",")
	if len(fields) != 4 {
		return fmt.Errorf("%w: expected 4 fields after the name, got %d", ErrMalformedCommand, len(fields))
	}
	if cmd.Left, err = parseInt(fields[0]); err != nil {
		return err
	}
	if cmd.Top, err = parseInt(fields[1]); err != nil {
		return err
	}
	if cmd.Orientation, err = engine.ParseOrientation(strings.TrimSpace(fields[2])); err != nil {
		return err
	}
	if cmd.Size, err = parseInt(fields[3]); err != nil {
		return err
	}
	return nil
}

func parsePair(args string) (int, int, error) {
	fields := strings.Split(args, ",")
	if len(fields) != 2 {
		return 0, 0, fmt.Errorf("%w: expected 2 fields, got %d", ErrMalformedCommand, len(fields))
	}
	a, err := parseInt(fields[0])
	if err != nil {
		return 0, 0, err
	}
	b, err := parseInt(fields[1])
	if err != nil {
		return 0, 0, err
	}
	return a, b, nil
}

func parseInt(s string) (int, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not a number", ErrMalformedCommand, s)
	}
	return n, nil
}

// HelpText lists every command, one per line.
func HelpText() string {
	var sb strings.Builder
	sb.WriteString("Available commands:\n")
	for _, entry := range kinds {
		sb.WriteString("\n\t")
		sb.WriteString(entry.help)
	}
	return sb.String()
}
