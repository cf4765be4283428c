package pkg

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/qnkhuat/openingrush/pkg/config"
	"github.com/qnkhuat/openingrush/pkg/gui"
	"github.com/qnkhuat/openingrush/pkg/presets"
	"github.com/qnkhuat/openingrush/pkg/trainer"
)

const MessageQueueSize = 20

var ErrMatchClosed = errors.New("match closed")

type MatchOptions struct {
	Config  *config.Config
	Presets *presets.Catalog
	Theme   gui.Theme
	Log     *zap.SugaredLogger
}

// Match is the training session of one websocket player. The tracker, the
// board and the timers are only touched from the event loop started by
// NewMatch.
type Match struct {
	Id     string
	Name   string
	Player *Player

	tracker *trainer.LineTracker
	board   *wsBoard
	clock   *Clock
	catalog *presets.Catalog
	log     *zap.SugaredLogger

	events     chan func()
	done       chan struct{}
	stopped    chan struct{}
	closeOnce  sync.Once
	lastActive atomic.Int64
}

func NewMatch(p *Player, opts MatchOptions) *Match {
	m := &Match{
		Id:      p.Id,
		Name:    p.Name,
		Player:  p,
		board:   &wsBoard{},
		catalog: opts.Presets,
		log:     opts.Log.With("match", p.Id),
		events:  make(chan func(), MessageQueueSize),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	m.clock = NewClock(m.dispatch)
	m.tracker = NewTracker(opts.Config, m.board, m.clock, trainer.FeedbackFunc(m.feedback), m.log)
	m.touch()

	p.Send(MessageConnect{Id: m.Id, Name: m.Name, Presets: opts.Presets.All(), Theme: opts.Theme.Hex()})
	m.dispatch(m.tracker.Reset)
	go m.run()
	m.log.Infow("Match created", "name", m.Name)
	return m
}

func (m *Match) dispatch(f func()) {
	select {
	case m.events <- f:
	case <-m.done:
	}
}

func (m *Match) run() {
	defer close(m.stopped)
	for {
		select {
		case f := <-m.events:
			m.safely(f)
			if state, ok := m.board.flush(); ok {
				m.Player.Send(state)
			}
		case <-m.done:
			return
		}
	}
}

// safely keeps a tracker panic from taking the server down with it.
func (m *Match) safely(f func()) {
	defer func() {
		if r := recover(); r != nil {
			m.log.Errorw("Recovered from panic", "panic", r)
			m.Player.Send(MessageError{Message: fmt.Sprint(r)})
		}
	}()
	f()
}

// Deliver decodes a frame from the player and queues it on the event loop.
func (m *Match) Deliver(t MessageTransport) {
	m.touch()
	msg, err := Decode(t)
	if err != nil {
		m.log.Warnw("Bad message", "error", err)
		m.dispatch(func() { m.Player.Send(MessageError{Message: err.Error()}) })
		return
	}
	m.dispatch(func() { m.handle(msg) })
}

func (m *Match) handle(msg MessageInterface) {
	switch msg := msg.(type) {
	case *MessageLoad:
		m.load(msg.Pgn, msg.Color)
	case *MessagePreset:
		p, ok := m.catalog.Find(msg.Name)
		if !ok {
			m.Player.Send(MessageError{Message: fmt.Sprintf("unknown preset %q", msg.Name)})
			return
		}
		m.load(p.PGN, p.Player())
	case *MessageStart:
		if err := m.tracker.Start(); err != nil {
			m.Player.Send(MessageError{Message: LoadErrorText(err)})
		}
	case *MessageMove:
		m.board.move(msg.From, msg.To)
	default:
		m.Player.Send(MessageError{Message: fmt.Sprintf("unexpected %s message", msg.Type())})
	}
}

func (m *Match) load(pgn string, c trainer.Color) {
	prev := m.tracker.Player()
	m.tracker.SetPlayer(c)
	if err := m.tracker.Load(pgn); err != nil {
		m.tracker.SetPlayer(prev)
		m.log.Infow("Load failed", "error", err)
		m.Player.Send(MessageError{Message: LoadErrorText(err)})
	}
}

func (m *Match) feedback(n trainer.Notice) {
	m.Player.Send(MessageFeedback{Kind: n.Kind, Text: n.Text, Stats: m.tracker.Stats()})
}

// Snapshot asks the event loop for the tracker state.
func (m *Match) Snapshot(ctx context.Context) (trainer.Snapshot, error) {
	res := make(chan trainer.Snapshot, 1)
	select {
	case m.events <- func() { res <- m.tracker.Snapshot() }:
	case <-m.done:
		return trainer.Snapshot{}, ErrMatchClosed
	case <-ctx.Done():
		return trainer.Snapshot{}, ctx.Err()
	}
	select {
	case s := <-res:
		return s, nil
	case <-m.done:
		return trainer.Snapshot{}, ErrMatchClosed
	case <-ctx.Done():
		return trainer.Snapshot{}, ctx.Err()
	}
}

func (m *Match) touch() {
	m.lastActive.Store(time.Now().UnixNano())
}

// IdleFor is the time since the player last sent anything.
func (m *Match) IdleFor() time.Duration {
	return time.Since(time.Unix(0, m.lastActive.Load()))
}

// Close stops the event loop and the timers, then disconnects the player.
func (m *Match) Close() {
	m.closeOnce.Do(func() {
		m.clock.Pause()
		close(m.done)
		<-m.stopped
		m.Player.Disconnect()
		m.log.Infow("Match closed", "duration", m.clock.String())
	})
}

// wsBoard keeps the board state the browser should show. The event loop
// sends it after every event that changed it.
type wsBoard struct {
	state  MessageBoard
	dirty  bool
	onMove func(from, to string)
}

func (b *wsBoard) SetPosition(fen string) {
	b.state.Fen = fen
	b.dirty = true
}

func (b *wsBoard) SetOrientation(c trainer.Color) {
	b.state.Orientation = c
	b.dirty = true
}

func (b *wsBoard) SetViewOnly() {
	b.state.ViewOnly = true
	b.state.Dests = nil
	b.dirty = true
}

func (b *wsBoard) SetMovable(turn trainer.Color, dests trainer.Dests) {
	b.state.ViewOnly = false
	b.state.TurnColor = turn
	b.state.Dests = dests
	b.dirty = true
}

func (b *wsBoard) OnMove(f func(from, to string)) {
	b.onMove = f
}

// move drops gestures the browser board should not have allowed and sends
// the current state back.
func (b *wsBoard) move(from, to string) {
	if b.state.ViewOnly || !b.state.Dests.Allows(from, to) {
		b.dirty = true
		return
	}
	if b.onMove != nil {
		b.onMove(from, to)
	}
}

func (b *wsBoard) flush() (MessageBoard, bool) {
	if !b.dirty {
		return MessageBoard{}, false
	}
	b.dirty = false
	return b.state, true
}
