package pkg

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/qnkhuat/openingrush/pkg/config"
	"github.com/qnkhuat/openingrush/pkg/engine"
	"github.com/qnkhuat/openingrush/pkg/gui"
	"github.com/qnkhuat/openingrush/pkg/presets"
	"github.com/qnkhuat/openingrush/pkg/trainer"
)

func newTestServer(t *testing.T) (*WebServer, *httptest.Server) {
	t.Helper()
	cfg, err := config.Setup(config.New(), "")
	require.NoError(t, err)
	s := NewWebServer(cfg, presets.Builtin(), gui.ThemeBasic, zap.NewNop().Sugar())
	srv := httptest.NewServer(s.Router)
	t.Cleanup(func() {
		s.CloseAll()
		srv.Close()
	})
	return s, srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, m MessageInterface) {
	t.Helper()
	env, err := Encode(m)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(env))
}

// expect reads until a message of type T arrives.
func expect[T MessageInterface](t *testing.T, conn *websocket.Conn) T {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var env MessageTransport
		require.NoError(t, conn.ReadJSON(&env))
		m, err := Decode(env)
		require.NoError(t, err)
		if v, ok := m.(T); ok {
			return v
		}
	}
}

func waitForMatches(t *testing.T, s *WebServer, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return len(s.matches()) == n }, time.Second, 10*time.Millisecond)
}

func fenAfter(t *testing.T, sans ...string) string {
	t.Helper()
	e := engine.New()
	for _, san := range sans {
		_, err := e.PlaySAN(san)
		require.NoError(t, err)
	}
	return e.FEN()
}

func TestWebSessionPlaysALine(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dial(t, srv)

	hello := expect[*MessageConnect](t, conn)
	assert.NotEmpty(t, hello.Id)
	assert.NotEmpty(t, hello.Name)
	assert.Len(t, hello.Presets, len(presets.Builtin().All()))
	assert.Equal(t, "basic", hello.Theme.Name)

	board := expect[*MessageBoard](t, conn)
	assert.Equal(t, fenAfter(t), board.Fen)
	assert.True(t, board.ViewOnly)

	send(t, conn, MessageLoad{Pgn: "1. e4 e5 2. Nf3 *", Color: trainer.White})
	board = expect[*MessageBoard](t, conn)
	assert.True(t, board.ViewOnly)

	send(t, conn, MessageStart{})
	fb := expect[*MessageFeedback](t, conn)
	assert.Equal(t, trainer.NoticeStarting, fb.Kind)
	board = expect[*MessageBoard](t, conn)
	assert.False(t, board.ViewOnly)
	assert.Equal(t, trainer.White, board.TurnColor)
	assert.ElementsMatch(t, []string{"e3", "e4"}, board.Dests["e2"])

	send(t, conn, MessageMove{From: "e2", To: "e4"})
	fb = expect[*MessageFeedback](t, conn)
	assert.Equal(t, trainer.NoticeCorrect, fb.Kind)
	assert.Equal(t, 1, fb.Stats.Correct)
	board = expect[*MessageBoard](t, conn)
	assert.Equal(t, fenAfter(t, "e4", "e5"), board.Fen)

	send(t, conn, MessageMove{From: "d2", To: "d4"})
	fb = expect[*MessageFeedback](t, conn)
	assert.Equal(t, trainer.NoticeOffBook, fb.Kind)
}

func TestWebSessionShowsFinalMove(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dial(t, srv)
	expect[*MessageBoard](t, conn)

	send(t, conn, MessageLoad{Pgn: "1. e4 e5 2. Nf3 *", Color: trainer.White})
	expect[*MessageBoard](t, conn)
	send(t, conn, MessageStart{})
	expect[*MessageBoard](t, conn)
	send(t, conn, MessageMove{From: "e2", To: "e4"})
	expect[*MessageBoard](t, conn)

	send(t, conn, MessageMove{From: "g1", To: "f3"})
	board := expect[*MessageBoard](t, conn)
	assert.Equal(t, fenAfter(t, "e4", "e5", "Nf3"), board.Fen)
	assert.True(t, board.ViewOnly)
}

func TestWebSessionDropsMovesTheBoardDoesNotAllow(t *testing.T) {
	s, srv := newTestServer(t)
	conn := dial(t, srv)
	hello := expect[*MessageConnect](t, conn)
	expect[*MessageBoard](t, conn)

	send(t, conn, MessageLoad{Pgn: "1. e4 e5 2. Nf3 *", Color: trainer.Black})
	expect[*MessageBoard](t, conn)

	// before Start the board is view only
	send(t, conn, MessageMove{From: "e2", To: "e4"})
	board := expect[*MessageBoard](t, conn)
	assert.Equal(t, fenAfter(t), board.Fen)
	assert.True(t, board.ViewOnly)

	send(t, conn, MessageStart{})
	board = expect[*MessageBoard](t, conn)
	require.Equal(t, fenAfter(t, "e4"), board.Fen)

	// a white move and a destination outside Dests
	send(t, conn, MessageMove{From: "d2", To: "d4"})
	board = expect[*MessageBoard](t, conn)
	assert.Equal(t, fenAfter(t, "e4"), board.Fen)
	send(t, conn, MessageMove{From: "e7", To: "e4"})
	board = expect[*MessageBoard](t, conn)
	assert.Equal(t, fenAfter(t, "e4"), board.Fen)
	assert.False(t, board.ViewOnly)

	waitForMatches(t, s, 1)
	snap, err := s.matches()[0].Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, hello.Id, s.matches()[0].Id)
	assert.Equal(t, 0, snap.Stats.Correct)
	assert.Equal(t, 0, snap.Stats.OffBook)
	assert.Equal(t, []string{"e5"}, snap.Next)
}

func TestWebSessionErrors(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dial(t, srv)
	expect[*MessageBoard](t, conn)

	send(t, conn, MessageStart{})
	assert.NotEmpty(t, expect[*MessageError](t, conn).Message)

	send(t, conn, MessageLoad{Pgn: "not a pgn at all"})
	assert.Equal(t, invalidPGNText, expect[*MessageError](t, conn).Message)

	send(t, conn, MessagePreset{Name: "Bongcloud"})
	assert.Contains(t, expect[*MessageError](t, conn).Message, "Bongcloud")

	send(t, conn, MessageBoard{})
	assert.Contains(t, expect[*MessageError](t, conn).Message, "unexpected board")
}

func TestWebSessionPresetAsBlack(t *testing.T) {
	_, srv := newTestServer(t)
	conn := dial(t, srv)
	expect[*MessageBoard](t, conn)

	send(t, conn, MessagePreset{Name: "Caro-Kann"})
	board := expect[*MessageBoard](t, conn)
	assert.Equal(t, trainer.Black, board.Orientation)

	send(t, conn, MessageStart{})
	board = expect[*MessageBoard](t, conn)
	assert.Equal(t, fenAfter(t, "e4"), board.Fen)
	assert.Equal(t, trainer.Black, board.TurnColor)
}

func TestDebugMatches(t *testing.T) {
	s, srv := newTestServer(t)
	conn := dial(t, srv)
	hello := expect[*MessageConnect](t, conn)
	send(t, conn, MessageLoad{Pgn: "1. d4 d5 *", Color: trainer.Black})
	expect[*MessageBoard](t, conn)

	waitForMatches(t, s, 1)

	res, err := http.Get(srv.URL + "/debug/matches")
	require.NoError(t, err)
	defer res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)

	var infos []matchInfo
	require.NoError(t, json.NewDecoder(res.Body).Decode(&infos))
	require.Len(t, infos, 1)
	assert.Equal(t, hello.Id, infos[0].Id)
	assert.Equal(t, trainer.Black, infos[0].Snapshot.Player)
	assert.Equal(t, []string{"d4"}, infos[0].Snapshot.Next)
}

func TestPresetsEndpoint(t *testing.T) {
	_, srv := newTestServer(t)
	res, err := http.Get(srv.URL + "/presets")
	require.NoError(t, err)
	defer res.Body.Close()

	var list []presets.Preset
	require.NoError(t, json.NewDecoder(res.Body).Decode(&list))
	assert.Equal(t, presets.Builtin().All(), list)
}

func TestCleanIdleMatches(t *testing.T) {
	s, srv := newTestServer(t)
	conn := dial(t, srv)
	expect[*MessageBoard](t, conn)
	waitForMatches(t, s, 1)

	s.cfg.IdleTimeout = time.Nanosecond
	assert.Equal(t, 1, s.cleanIdle())
	assert.Empty(t, s.matches())

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		var env MessageTransport
		if err := conn.ReadJSON(&env); err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				t.Fatal("connection was not closed")
			}
			return
		}
	}
}
