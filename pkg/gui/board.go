// Package gui draws an interactive chess board in the terminal with tview.
package gui

import (
	"github.com/notnil/chess"
	"github.com/rivo/tview"

	"github.com/qnkhuat/openingrush/pkg/trainer"
)

// Board is a tview table showing a position. A move is entered by selecting
// the origin square and then the destination square.
type Board struct {
	*tview.Table

	theme       Theme
	pieces      map[chess.Square]chess.Piece
	orientation trainer.Color
	viewOnly    bool
	turn        trainer.Color
	dests       trainer.Dests
	selected    string
	onMove      func(from, to string)
}

func NewBoard(theme Theme) *Board {
	b := &Board{
		Table:    tview.NewTable(),
		theme:    theme,
		pieces:   chess.StartingPosition().Board().SquareMap(),
		viewOnly: true,
	}
	b.SetSelectable(true, true)
	b.Select(0, 1)
	b.SetSelectedFunc(func(row, col int) {
		if row >= numrows || col < 1 {
			return
		}
		b.selectSquare(SquareAt(row, col-1, b.orientation))
	})
	b.render()
	return b
}

// SetPosition shows the position of fen. An invalid fen is ignored.
func (b *Board) SetPosition(fen string) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return
	}
	b.pieces = chess.NewGame(opt).Position().Board().SquareMap()
	b.selected = ""
	b.render()
}

func (b *Board) SetOrientation(c trainer.Color) {
	b.orientation = c
	b.render()
}

func (b *Board) Orientation() trainer.Color {
	return b.orientation
}

func (b *Board) SetViewOnly() {
	b.viewOnly = true
	b.dests = nil
	b.selected = ""
	b.render()
}

func (b *Board) SetMovable(turn trainer.Color, dests trainer.Dests) {
	b.viewOnly = false
	b.turn = turn
	b.dests = dests
	b.selected = ""
	b.render()
}

func (b *Board) OnMove(f func(from, to string)) {
	b.onMove = f
}

func (b *Board) ViewOnly() bool {
	return b.viewOnly
}

// Piece returns the piece shown on the named square.
func (b *Board) Piece(name string) chess.Piece {
	for sq, p := range b.pieces {
		if sq.String() == name {
			return p
		}
	}
	return chess.NoPiece
}

func (b *Board) selectSquare(name string) {
	if b.viewOnly {
		return
	}
	switch {
	case b.selected == "":
		if len(b.dests[name]) > 0 {
			b.selected = name
		}
	case name == b.selected:
		b.selected = ""
	case contains(b.dests[b.selected], name):
		from := b.selected
		b.selected = ""
		b.movePiece(from, name)
		b.render()
		if b.onMove != nil {
			b.onMove(from, name)
		}
		return
	case len(b.dests[name]) > 0:
		b.selected = name
	default:
		b.selected = ""
	}
	b.render()
}

// movePiece shows the gesture on the board until the next SetPosition.
func (b *Board) movePiece(from, to string) {
	var fromSq, toSq chess.Square
	for sq := chess.A1; sq <= chess.H8; sq++ {
		switch sq.String() {
		case from:
			fromSq = sq
		case to:
			toSq = sq
		}
	}
	b.pieces[toSq] = b.pieces[fromSq]
	delete(b.pieces, fromSq)
}
