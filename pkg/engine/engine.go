// Package engine implements the trainer's chess rules on top of
// github.com/notnil/chess.
package engine

import (
	"fmt"

	"github.com/notnil/chess"

	"github.com/qnkhuat/openingrush/pkg/pgn"
	"github.com/qnkhuat/openingrush/pkg/trainer"
)

type Engine struct {
	pos *chess.Position
}

func New() *Engine {
	e := &Engine{}
	e.Reset()
	return e
}

func (e *Engine) Reset() {
	e.pos = chess.StartingPosition()
}

func (e *Engine) Turn() trainer.Color {
	return color(e.pos.Turn())
}

func (e *Engine) FEN() string {
	return e.pos.String()
}

// Position exposes the underlying position for rendering.
func (e *Engine) Position() *chess.Position {
	return e.pos
}

func (e *Engine) Moves() []trainer.Move {
	valid := e.pos.ValidMoves()
	moves := make([]trainer.Move, 0, len(valid))
	for _, m := range valid {
		moves = append(moves, convert(e.pos, m))
	}
	return moves
}

func (e *Engine) MovesFrom(square string) []trainer.Move {
	var moves []trainer.Move
	for _, m := range e.pos.ValidMoves() {
		if m.S1().String() == square {
			moves = append(moves, convert(e.pos, m))
		}
	}
	return moves
}

func (e *Engine) Apply(m trainer.Move) error {
	for _, cm := range e.pos.ValidMoves() {
		if cm.S1().String() == m.From && cm.S2().String() == m.To && promotion(cm.Promo()) == m.Promotion {
			e.pos = e.pos.Update(cm)
			return nil
		}
	}
	return fmt.Errorf("illegal move %s%s%s in %s", m.From, m.To, m.Promotion, e.pos)
}

func (e *Engine) PlaySAN(san string) (trainer.Move, error) {
	cm, err := decode(e.pos, san)
	if err != nil {
		return trainer.Move{}, err
	}
	m := convert(e.pos, cm)
	e.pos = e.pos.Update(cm)
	return m, nil
}

// CheckLine replays every branch of line from the initial position and fails
// on the first move that is not legal where it stands.
func (e *Engine) CheckLine(line pgn.Line) error {
	return checkLine(chess.StartingPosition(), line, 0)
}

func checkLine(pos *chess.Position, line pgn.Line, ply int) error {
	for _, n := range line {
		for _, v := range n.Variations {
			if err := checkLine(pos, v.Moves, ply); err != nil {
				return err
			}
		}
		m, err := decode(pos, n.Move)
		if err != nil {
			return fmt.Errorf("%s: %w", pgn.Label(ply, n.Move), err)
		}
		pos = pos.Update(m)
		ply++
	}
	return nil
}

// decode finds the legal move written as san, tolerating check marks,
// annotation glyphs and zero-spelled castling.
func decode(pos *chess.Position, san string) (*chess.Move, error) {
	for _, m := range pos.ValidMoves() {
		if trainer.SameSAN(chess.AlgebraicNotation{}.Encode(pos, m), san) {
			return m, nil
		}
	}
	return nil, fmt.Errorf("%s is not legal in %s", san, pos)
}

func convert(pos *chess.Position, m *chess.Move) trainer.Move {
	return trainer.Move{
		From:      m.S1().String(),
		To:        m.S2().String(),
		SAN:       chess.AlgebraicNotation{}.Encode(pos, m),
		Promotion: promotion(m.Promo()),
	}
}

func promotion(p chess.PieceType) string {
	switch p {
	case chess.Queen:
		return "q"
	case chess.Rook:
		return "r"
	case chess.Bishop:
		return "b"
	case chess.Knight:
		return "n"
	default:
		return ""
	}
}

func color(c chess.Color) trainer.Color {
	if c == chess.Black {
		return trainer.Black
	}
	return trainer.White
}
