package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/qnkhuat/openingrush/pkg/pgn"
	"github.com/qnkhuat/openingrush/pkg/trainer"
)

const startFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func TestStartingPosition(t *testing.T) {
	e := New()
	assert.Equal(t, startFEN, e.FEN())
	assert.Equal(t, trainer.White, e.Turn())
	assert.Len(t, e.Moves(), 20)
	assert.Len(t, e.MovesFrom("g1"), 2)
	assert.Empty(t, e.MovesFrom("e4"))
}

func TestPlaySANAndReset(t *testing.T) {
	e := New()
	m, err := e.PlaySAN("e4")
	require.NoError(t, err)
	assert.Equal(t, trainer.Move{From: "e2", To: "e4", SAN: "e4"}, m)
	assert.Equal(t, trainer.Black, e.Turn())

	_, err = e.PlaySAN("Nf6!?")
	require.NoError(t, err)
	_, err = e.PlaySAN("Ke3")
	assert.Error(t, err)

	e.Reset()
	assert.Equal(t, startFEN, e.FEN())
}

func TestApply(t *testing.T) {
	e := New()
	require.NoError(t, e.Apply(trainer.Move{From: "g1", To: "f3"}))
	assert.Equal(t, trainer.Black, e.Turn())
	assert.Error(t, e.Apply(trainer.Move{From: "g1", To: "f3"}))
}

func TestCastlingSpellings(t *testing.T) {
	e := New()
	for _, san := range []string{"e4", "e5", "Nf3", "Nf6", "Bc4", "Bc5", "0-0"} {
		_, err := e.PlaySAN(san)
		require.NoError(t, err, san)
	}
	moves := e.MovesFrom("e8")
	var sans []string
	for _, m := range moves {
		sans = append(sans, m.SAN)
	}
	assert.Contains(t, sans, "O-O")
}

func TestPromotionMoves(t *testing.T) {
	e := New()
	for _, san := range []string{"h4", "g5", "hxg5", "Nf6", "g6", "Ng8", "gxh7", "a6"} {
		_, err := e.PlaySAN(san)
		require.NoError(t, err, san)
	}
	var promos []string
	for _, m := range e.MovesFrom("h7") {
		if m.To == "g8" {
			promos = append(promos, m.Promotion)
		}
	}
	assert.ElementsMatch(t, []string{"q", "r", "b", "n"}, promos)

	m, err := e.PlaySAN("hxg8=Q")
	require.NoError(t, err)
	assert.Equal(t, "q", m.Promotion)
}

func TestCheckLine(t *testing.T) {
	e := New()
	tests := []struct {
		name string
		pgn  string
		ok   bool
	}{
		{"mainline", "1. e4 e5 2. Nf3 Nc6 *", true},
		{"variations", "1. e4 e5 (1... c5 2. Nf3 (2. Nc3 Nc6) d6) 2. Nf3 *", true},
		{"illegal mainline", "1. e4 e5 2. Ke3 *", false},
		{"illegal in variation", "1. e4 e5 (1... Nf3) 2. Nf3 *", false},
		{"variation checked from its own position", "1. e4 (1. d4 d5) e5 *", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			games, err := pgn.Parse(tt.pgn)
			require.NoError(t, err)
			err = e.CheckLine(games[0].Moves)
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
	// checking never disturbs the live position
	assert.Equal(t, startFEN, e.FEN())
}

func TestCheckLineNamesTheMove(t *testing.T) {
	games, err := pgn.Parse("1. e4 e5 2. Nf3 Ke7 3. Ke3 *")
	require.NoError(t, err)
	err = New().CheckLine(games[0].Moves)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "3. Ke3")
}
