package pkg

import (
	"bytes"
	"context"
	"io"
	"strings"
	"testing"

	"github.com/notnil/chess"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qnkhuat/openingrush/pkg/config"
	"github.com/qnkhuat/openingrush/pkg/trainer"
)

type readWriter struct {
	io.Reader
	io.Writer
}

func newTestDrill(t *testing.T, input string) (*Drill, *bytes.Buffer) {
	t.Helper()
	cfg, err := config.Setup(config.New(), "")
	require.NoError(t, err)
	var out bytes.Buffer
	d := NewDrill(cfg, readWriter{strings.NewReader(input), &out}, false, zap.NewNop().Sugar())
	return d, &out
}

func TestParseCoordinates(t *testing.T) {
	tests := []struct {
		in       string
		from, to string
		ok       bool
	}{
		{"e2e4", "e2", "e4", true},
		{"g1-f3", "g1", "f3", true},
		{"e7e8q", "e7", "e8", true},
		{"e2e9", "", "", false},
		{"nf3", "", "", false},
		{"i2i4", "", "", false},
	}
	for _, tt := range tests {
		from, to, ok := parseCoordinates(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		assert.Equal(t, tt.from, from, tt.in)
		assert.Equal(t, tt.to, to, tt.in)
	}
}

func TestDrillCommands(t *testing.T) {
	d, out := newTestDrill(t, "")
	defer d.Clock.Pause()
	require.NoError(t, d.Load("1. e4 e5 2. Nf3 Nc6 *", trainer.White))
	require.NoError(t, d.Tracker.Start())

	assert.True(t, d.Exec("e2e4"))
	assert.Contains(t, out.String(), "1 correct")
	assert.Equal(t, chess.BlackPawn, d.board.pieces["e5"])

	out.Reset()
	d.Exec("e7e5")
	assert.Contains(t, out.String(), "not a legal move")

	out.Reset()
	d.Exec("hint")
	assert.Contains(t, out.String(), "Book: Nf3")

	out.Reset()
	d.Exec("castle please")
	assert.Contains(t, out.String(), "Unknown command")

	d.Exec("flip")
	assert.True(t, strings.HasPrefix(d.board.String(), labelColor.Sprintf(" %s ", "1")))

	assert.False(t, d.Exec("quit"))
}

func TestDrillRun(t *testing.T) {
	d, out := newTestDrill(t, "e2e4\nquit\ne7e5\n")
	require.NoError(t, d.Load("1. e4 e5 2. Nf3 *", trainer.White))
	require.NoError(t, d.Run(context.Background()))

	text := out.String()
	assert.Contains(t, text, drillHelp)
	assert.Contains(t, text, "1 correct")
	assert.NotContains(t, text, "not a legal move")
}

func TestDrillRunWithoutLine(t *testing.T) {
	d, _ := newTestDrill(t, "")
	assert.ErrorIs(t, d.Run(context.Background()), trainer.ErrNotLoaded)
}
