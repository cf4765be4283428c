package gui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/notnil/chess"
	"github.com/rivo/tview"

	"github.com/qnkhuat/openingrush/pkg/trainer"
)

const (
	numrows = 8
	numcols = 8
)

func getSquare(f chess.File, r chess.Rank) chess.Square {
	return chess.Square((int(r) * 8) + int(f))
}

// square returns the square drawn at row, col (0-based, top left) of a board
// seen from orientation
func square(row, col int, orientation trainer.Color) chess.Square {
	if orientation == trainer.Black {
		return getSquare(chess.File(numcols-col-1), chess.Rank(row))
	}
	return getSquare(chess.File(col), chess.Rank(numrows-row-1))
}

// SquareAt names the square drawn at row, col of a board seen from
// orientation.
func SquareAt(row, col int, orientation trainer.Color) string {
	return square(row, col, orientation).String()
}

// squareBg returns the theme's color for an unhighlighted square
func squareBg(sq chess.Square, t Theme) tcell.Color {
	if (int(sq.File())+int(sq.Rank()))%2 == 0 {
		return t.SquareDark
	}
	return t.SquareLight
}

// stylePiece picks the piece foreground based upon its color
func stylePiece(p chess.Piece, t Theme) tcell.Color {
	if p.Color() == chess.White {
		return t.White
	}
	return t.Black
}

// render redraws every cell: ranks down the left column, files along the
// bottom row
func (b *Board) render() {
	for r := 0; r <= numrows; r++ {
		for f := 0; f <= numcols; f++ {
			switch {
			case r == numrows && f == 0:
				b.SetCell(r, f, tview.NewTableCell("").SetSelectable(false))
			case f == 0:
				rank := square(r, 0, b.orientation).Rank()
				b.SetCell(r, f, tview.NewTableCell(rank.String()).
					SetAlign(tview.AlignCenter).
					SetTextColor(b.theme.Rank).
					SetSelectable(false))
			case r == numrows:
				file := square(0, f-1, b.orientation).File()
				b.SetCell(r, f, tview.NewTableCell(fmt.Sprintf(" %s", file.String())).
					SetAlign(tview.AlignCenter).
					SetTextColor(b.theme.File).
					SetSelectable(false))
			default:
				b.SetCell(r, f, b.squareCell(square(r, f-1, b.orientation)))
			}
		}
	}
}

func (b *Board) squareCell(sq chess.Square) *tview.TableCell {
	bg := squareBg(sq, b.theme)
	name := sq.String()
	switch {
	case name == b.selected:
		bg = b.theme.SquareSelected
	case b.selected != "" && contains(b.dests[b.selected], name):
		bg = b.theme.SquareDest
	}

	text := "  "
	fg := b.theme.White
	if p, ok := b.pieces[sq]; ok && p != chess.NoPiece {
		text = fmt.Sprintf(" %s", p.String())
		fg = stylePiece(p, b.theme)
	}
	return tview.NewTableCell(text).
		SetAlign(tview.AlignCenter).
		SetTextColor(fg).
		SetBackgroundColor(bg)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
