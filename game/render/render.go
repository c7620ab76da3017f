package render

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/wricardo/grid-battle/game/engine"
)

// View selects what a board looks like to the viewer.
type View int

const (
	// Ego is the owner's view: every ship is visible.
	Ego View = iota
	// Enemy hides healthy segments and untouched water behind the mystery mark.
	Enemy
)

func (v View) String() string {
	switch v {
	case Ego:
		return "ego"
	case Enemy:
		return "enemy"
	}
	return fmt.Sprintf("View(%d)", int(v))
}

const (
	unhitCell   = '.'
	hitCell     = '*'
	mysteryCell = '`'

	boardsGutter = "  "
)

// BoardView is the text image of one board for one render pass. It
// implements engine.RenderContext.
type BoardView struct {
	view      View
	horizSize int
	vertSize  int
	cells     [][]byte
}

var _ engine.RenderContext = (*BoardView)(nil)

// NewBoardView creates a blank view; Board.Render fills it in.
func NewBoardView(view View, horizSize, vertSize int) *BoardView {
	cells := make([][]byte, vertSize)
	for v := range cells {
		cells[v] = []byte(strings.Repeat(" ", horizSize))
	}
	return &BoardView{
		view:      view,
		horizSize: horizSize,
		vertSize:  vertSize,
		cells:     cells,
	}
}

func (b *BoardView) View() View { return b.view }
func (b *BoardView) HorizSize() int { return b.horizSize }
func (b *BoardView) VertSize() int { return b.vertSize }

func (b *BoardView) ShipSegment(h, v int, ship *engine.Ship, segment int) {
	name := byte(ship.Name())
	switch {
	case !ship.IsHealthy(segment):
		b.cells[v][h] = byte(unicode.ToLower(rune(name)))
	case b.view == Enemy:
		b.cells[v][h] = mysteryCell
	default:
		b.cells[v][h] = name
	}
}

func (b *BoardView) HitCell(h, v int) {
	b.cells[v][h] = hitCell
}

func (b *BoardView) UnhitCell(h, v int) {
	if b.view == Enemy {
		b.cells[v][h] = mysteryCell
		return
	}
	b.cells[v][h] = unhitCell
}

// Rows returns the view one string per row.
func (b *BoardView) Rows() []string {
	rows := make([]string, len(b.cells))
	for v, row := range b.cells {
		rows[v] = string(row)
	}
	return rows
}

func (b *BoardView) String() string {
	return strings.Join(b.Rows(), "\n")
}

// RenderBoard runs one render pass of board into a fresh view. A board whose
// grid no longer matches its fleet yields the engine's *FaultError.
func RenderBoard(board *engine.Board, view View) (bv *BoardView, err error) {
	defer func() {
		if r := recover(); r != nil {
			fault, ok := r.(*engine.FaultError)
			if !ok {
				panic(r)
			}
			bv, err = nil, fault
		}
	}()

	bv = NewBoardView(view, board.HorizSize(), board.VertSize())
	board.Render(bv)
	return bv, nil
}

// BoardSource is anything that hands out a player's board; *engine.GameEngine
// satisfies it.
type BoardSource interface {
	Board(player engine.PlayerID) (*engine.Board, error)
}

// Pair is what one player sees: their own board and the opponent's.
type Pair struct {
	Player engine.PlayerID
	Ego    *BoardView
	Enemy  *BoardView
}

// ForPlayer renders both boards from the point of view of player.
func ForPlayer(src BoardSource, player engine.PlayerID) (*Pair, error) {
	own, err := src.Board(player)
	if err != nil {
		return nil, err
	}
	other, err := src.Board(player.Opponent())
	if err != nil {
		return nil, err
	}

	ego, err := RenderBoard(own, Ego)
	if err != nil {
		return nil, err
	}
	enemy, err := RenderBoard(other, Enemy)
	if err != nil {
		return nil, err
	}

	return &Pair{Player: player, Ego: ego, Enemy: enemy}, nil
}

// String lays the pair out side by side.
func (p *Pair) String() string {
	text, err := SideBySide(p.Ego, p.Enemy)
	if err != nil {
		return err.Error()
	}
	return text
}

// SideBySide draws two same-sized views next to each other with digit rulers
// (coordinates mod 10) above, below and on both sides of each board.
//
// For a board h wide the buffer is 2h+6 columns: label, left board, label,
// gutter, label, right board, label.
func SideBySide(left, right *BoardView) (string, error) {
	if left.horizSize != right.horizSize || left.vertSize != right.vertSize {
		return "", fmt.Errorf("boards differ in size: %dx%d vs %dx%d",
			left.horizSize, left.vertSize, right.horizSize, right.vertSize)
	}

	h, v := left.horizSize, left.vertSize
	width := 2*h + 4 + len(boardsGutter)
	height := v + 2
	rightStart := len(boardsGutter) + h + 3

	buffer := make([][]byte, height)
	for i := range buffer {
		buffer[i] = []byte(strings.Repeat(" ", width))
	}

	for col := 0; col < h; col++ {
		digit := ruler(col)
		buffer[0][1+col] = digit
		buffer[0][rightStart+col] = digit
		buffer[height-1][1+col] = digit
		buffer[height-1][rightStart+col] = digit
	}
	for row := 0; row < v; row++ {
		digit := ruler(row)
		line := buffer[1+row]
		line[0] = digit
		line[rightStart-len(boardsGutter)-2] = digit
		line[rightStart-1] = digit
		line[width-1] = digit

		copy(line[1:], left.cells[row])
		copy(line[rightStart:], right.cells[row])
	}

	lines := make([]string, height)
	for i, line := range buffer {
		lines[i] = strings.TrimRight(string(line), " ")
	}
	return strings.Join(lines, "\n"), nil
}

func ruler(ix int) byte {
	return byte('0' + ix%10)
}

// Fleet lists the ships one per line, or says there are none.
func Fleet(ships []*engine.Ship) string {
	if len(ships) == 0 {
		return "No ships on the board"
	}
	lines := make([]string, len(ships))
	for i, ship := range ships {
		lines[i] = "\t" + ship.String()
	}
	return strings.Join(lines, "\n")
}
