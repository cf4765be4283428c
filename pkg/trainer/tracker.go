package trainer

import (
	"fmt"
	"math/rand"
	"time"

	"go.uber.org/zap"

	"github.com/qnkhuat/openingrush/pkg/pgn"
)

const (
	DefaultRevertDelay  = 200 * time.Millisecond
	DefaultRestartDelay = 500 * time.Millisecond
)

type Options struct {
	Engine    Engine
	Board     Board
	Scheduler Scheduler
	Parser    Parser   // pgn.Parser when nil
	Feedback  Feedback // notices are dropped when nil
	Rand      Rand     // time seeded when nil
	Logger    *zap.SugaredLogger

	RevertDelay  time.Duration
	RestartDelay time.Duration

	// Lenient logs a board move the engine rejects and reverts the board
	// instead of panicking.
	Lenient bool
}

type Stats struct {
	Correct   int `json:"correct"`
	OffBook   int `json:"offBook"`
	Completed int `json:"completed"`
}

// LineTracker walks the player through a loaded opening tree: it validates
// each move against the book, answers with a random book reply and restarts
// once the line runs out.
//
// A LineTracker is not safe for concurrent use. Board callbacks and Scheduler
// callbacks must arrive on the goroutine that owns it.
type LineTracker struct {
	engine   Engine
	board    Board
	sched    Scheduler
	parser   Parser
	feedback Feedback
	rand     Rand
	log      *zap.SugaredLogger

	revertDelay  time.Duration
	restartDelay time.Duration
	lenient      bool

	player Color
	line   pgn.Line
	cursor pgn.Line
	busy   bool
	stats  Stats

	revert  *pending
	restart *pending
}

func New(opts Options) *LineTracker {
	if opts.Engine == nil || opts.Board == nil || opts.Scheduler == nil {
		panic("trainer: Engine, Board and Scheduler are required")
	}
	t := &LineTracker{
		engine:       opts.Engine,
		board:        opts.Board,
		sched:        opts.Scheduler,
		parser:       opts.Parser,
		feedback:     opts.Feedback,
		rand:         opts.Rand,
		log:          opts.Logger,
		revertDelay:  opts.RevertDelay,
		restartDelay: opts.RestartDelay,
		lenient:      opts.Lenient,
		player:       White,
	}
	if t.parser == nil {
		t.parser = pgn.Parser{}
	}
	if t.feedback == nil {
		t.feedback = FeedbackFunc(func(Notice) {})
	}
	if t.rand == nil {
		t.rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if t.log == nil {
		t.log = zap.NewNop().Sugar()
	}
	if t.revertDelay <= 0 {
		t.revertDelay = DefaultRevertDelay
	}
	if t.restartDelay <= 0 {
		t.restartDelay = DefaultRestartDelay
	}
	t.board.OnMove(t.HandleMove)
	return t
}

// Load parses text and keeps its first game as the line to train. A text
// missing its termination marker is retried with " *" appended. On error the
// previously loaded line stays in place.
func (t *LineTracker) Load(text string) error {
	games, err := t.parser.Parse(text)
	if err != nil {
		games, err = t.parser.Parse(text + " *")
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidPGN, err)
	}
	if len(games) == 0 {
		return fmt.Errorf("%w: no game found", ErrInvalidPGN)
	}
	line := games[0].Moves
	if len(line) == 0 {
		return ErrEmptyLine
	}
	if checker, ok := t.engine.(LineChecker); ok {
		if err := checker.CheckLine(line); err != nil {
			return fmt.Errorf("%w: %w", ErrIllegalLine, err)
		}
	}

	t.line = line
	t.stats = Stats{}
	t.log.Infow("Line loaded", "plies", len(line), "branches", line.Branches(), "nodes", line.Nodes())
	t.Reset()
	return nil
}

// SetPlayer sets the side the player trains. It takes effect on the next
// Reset or Start.
func (t *LineTracker) SetPlayer(c Color) {
	t.player = c
}

func (t *LineTracker) Player() Color {
	return t.player
}

// Reset puts the game back at the initial position with the whole tree ahead.
// Pending revert and restart callbacks are cancelled.
func (t *LineTracker) Reset() {
	t.revert.cancel()
	t.restart.cancel()
	t.revert, t.restart = nil, nil
	t.busy = false

	t.engine.Reset()
	t.board.SetPosition(t.engine.FEN())
	t.board.SetOrientation(t.player)
	t.board.SetViewOnly()
	t.cursor = t.line.Clone()
}

// Start begins a round. When the player trains black the book answers first.
func (t *LineTracker) Start() error {
	if t.line == nil {
		return ErrNotLoaded
	}
	t.notify(NoticeStarting, "starting")
	t.Reset()
	if t.player == Black && !t.playResponse() {
		return nil
	}
	if t.checkIfEndOfLine() {
		return nil
	}
	t.board.SetMovable(t.player, t.ValidDests())
	t.log.Debugw("Round started", "player", t.player, "fen", t.engine.FEN())
	return nil
}

// HandleMove is called by the board once the player completes a move.
func (t *LineTracker) HandleMove(from, to string) {
	if t.busy || len(t.cursor) == 0 || t.engine.Turn() != t.player {
		t.log.Debugw("Ignoring move", "from", from, "to", to, "busy", t.busy, "turn", t.engine.Turn())
		t.board.SetPosition(t.engine.FEN())
		return
	}
	t.revert.cancel()
	t.revert = nil

	mv, ok := t.resolve(from, to)
	if !ok {
		t.impossible(fmt.Errorf("%w: %s%s in %s", ErrImpossibleMove, from, to, t.engine.FEN()))
		return
	}

	if branch := t.match(mv.SAN); branch != nil {
		if err := t.engine.Apply(mv); err != nil {
			t.impossible(fmt.Errorf("%w: %s: %w", ErrImpossibleMove, mv.SAN, err))
			return
		}
		t.board.SetPosition(t.engine.FEN())
		t.cursor = branch[1:]
		t.stats.Correct++
		t.log.Debugw("Book move", "san", mv.SAN)
		t.notify(NoticeCorrect, "✅")
		if !t.playResponse() {
			return
		}
	} else {
		t.stats.OffBook++
		t.log.Debugw("Off-book move", "san", mv.SAN, "expected", t.expected())
		t.revert = t.schedule(t.revertDelay, func() {
			t.revert = nil
			t.board.SetPosition(t.engine.FEN())
		})
		t.notify(NoticeOffBook, "❌")
	}

	if !t.checkIfEndOfLine() {
		t.board.SetMovable(t.engine.Turn(), t.ValidDests())
	}
}

// ValidDests lists every legal destination per origin square in the current
// position.
func (t *LineTracker) ValidDests() Dests {
	dests := make(Dests)
	for _, m := range t.engine.Moves() {
		if !contains(dests[m.From], m.To) {
			dests[m.From] = append(dests[m.From], m.To)
		}
	}
	return dests
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// resolve maps a board gesture to a legal move, preferring the queen when the
// gesture is a promotion.
func (t *LineTracker) resolve(from, to string) (Move, bool) {
	var (
		found Move
		ok    bool
	)
	for _, m := range t.engine.MovesFrom(from) {
		if m.From != from || m.To != to {
			continue
		}
		if !ok || m.Promotion == "q" {
			found, ok = m, true
		}
	}
	return found, ok
}

// candidates returns the remaining mainline plus every variation branching at
// the cursor head. The first candidate is always the cursor itself.
func (t *LineTracker) candidates() []pgn.Line {
	candidates := []pgn.Line{t.cursor}
	for _, v := range t.cursor[0].Variations {
		candidates = append(candidates, v.Moves)
	}
	return candidates
}

func (t *LineTracker) match(san string) pgn.Line {
	for _, c := range t.candidates() {
		if SameSAN(c[0].Move, san) {
			return c
		}
	}
	return nil
}

func (t *LineTracker) expected() []string {
	var sans []string
	for _, c := range t.candidates() {
		sans = append(sans, c[0].Move)
	}
	return sans
}

// playResponse plays a random book reply. It reports false when the engine
// rejected the book move and the round was halted.
func (t *LineTracker) playResponse() bool {
	if len(t.cursor) == 0 {
		return true
	}
	candidates := t.candidates()
	chosen := candidates[t.rand.Intn(len(candidates))]
	if _, err := t.engine.PlaySAN(chosen[0].Move); err != nil {
		t.log.Errorw("Book move rejected", "san", chosen[0].Move, "fen", t.engine.FEN(), "error", err)
		t.busy = true
		t.board.SetViewOnly()
		t.notify(NoticeError, fmt.Sprintf("illegal book move %s", chosen[0].Move))
		return false
	}
	t.cursor = chosen[1:]
	t.board.SetPosition(t.engine.FEN())
	t.log.Debugw("Book reply", "san", chosen[0].Move, "candidates", len(candidates))
	return true
}

// checkIfEndOfLine schedules a restart once the cursor is exhausted.
func (t *LineTracker) checkIfEndOfLine() bool {
	if len(t.cursor) > 0 {
		return false
	}
	t.busy = true
	t.stats.Completed++
	t.board.SetViewOnly()
	t.notify(NoticeComplete, "🏁")
	t.restart = t.schedule(t.restartDelay, func() {
		t.restart = nil
		if err := t.Start(); err != nil {
			t.log.Errorw("Restart failed", "error", err)
		}
	})
	return true
}

func (t *LineTracker) impossible(err error) {
	if !t.lenient {
		panic(err)
	}
	t.log.Errorw("Rejected board move", "error", err)
	t.board.SetPosition(t.engine.FEN())
	t.board.SetMovable(t.engine.Turn(), t.ValidDests())
}

func (t *LineTracker) notify(kind NoticeKind, text string) {
	t.feedback.Notify(Notice{Kind: kind, Text: text})
}

func (t *LineTracker) Stats() Stats {
	return t.stats
}

// Loaded reports whether a line has been loaded.
func (t *LineTracker) Loaded() bool {
	return t.line != nil
}

// Snapshot is a read-only view of the tracker for debugging.
type Snapshot struct {
	Player Color    `json:"player"`
	Line   pgn.Line `json:"-"`
	Cursor pgn.Line `json:"-"`
	Next   []string `json:"next"`
	FEN    string   `json:"fen"`
	Busy   bool     `json:"busy"`
	Stats  Stats    `json:"stats"`
}

func (t *LineTracker) Snapshot() Snapshot {
	s := Snapshot{
		Player: t.player,
		Line:   t.line.Clone(),
		Cursor: t.cursor.Clone(),
		FEN:    t.engine.FEN(),
		Busy:   t.busy,
		Stats:  t.stats,
	}
	if len(t.cursor) > 0 {
		s.Next = t.expected()
	}
	return s
}

type pending struct {
	stop func()
	done bool
}

// schedule wraps Scheduler.AfterFunc so a cancelled callback never runs, even
// when the scheduler already queued it.
func (t *LineTracker) schedule(d time.Duration, f func()) *pending {
	p := &pending{}
	p.stop = t.sched.AfterFunc(d, func() {
		if p.done {
			return
		}
		p.done = true
		f()
	})
	return p
}

func (p *pending) cancel() {
	if p == nil || p.done {
		return
	}
	p.done = true
	if p.stop != nil {
		p.stop()
	}
}
