package pkg

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/notnil/chess"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/qnkhuat/openingrush/pkg/config"
	"github.com/qnkhuat/openingrush/pkg/gui"
	"github.com/qnkhuat/openingrush/pkg/trainer"
)

const drillHelp = "Type moves as e2e4. Other commands: hint, flip, restart, quit"

var (
	lightSquare = color.New(color.FgBlack, color.BgWhite)
	darkSquare  = color.New(color.FgBlack, color.BgGreen)
	labelColor  = color.New(color.FgHiBlack)

	noticeColors = map[trainer.NoticeKind]*color.Color{
		trainer.NoticeStarting: color.New(color.FgHiBlue),
		trainer.NoticeCorrect:  color.New(color.FgGreen),
		trainer.NoticeOffBook:  color.New(color.FgRed),
		trainer.NoticeComplete: color.New(color.FgCyan, color.Bold),
		trainer.NoticeError:    color.New(color.FgRed, color.Bold),
	}
)

type lineReader interface {
	ReadLine() (string, error)
}

type scanReader struct {
	*bufio.Scanner
}

func (r scanReader) ReadLine() (string, error) {
	if r.Scan() {
		return r.Text(), nil
	}
	if err := r.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

// Drill trains a line in a plain terminal. The board is printed after every
// change and moves are typed in coordinate notation.
type Drill struct {
	Tracker *trainer.LineTracker
	Clock   *Clock

	board  *textBoard
	in     lineReader
	out    io.Writer
	events chan func()
	done   chan struct{}
	log    *zap.SugaredLogger
}

// NewDrill reads commands from rw. An interactive rw must already be in raw
// mode and gets line editing from x/term.
func NewDrill(cfg *config.Config, rw io.ReadWriter, interactive bool, log *zap.SugaredLogger) *Drill {
	d := &Drill{
		board:  &textBoard{},
		events: make(chan func(), MessageQueueSize),
		done:   make(chan struct{}),
		log:    log,
	}
	if interactive {
		t := term.NewTerminal(rw, "> ")
		d.in, d.out = t, t
	} else {
		d.in, d.out = scanReader{bufio.NewScanner(rw)}, rw
	}
	d.Clock = NewClock(d.dispatch)
	d.Tracker = NewTracker(cfg, d.board, d.Clock, trainer.FeedbackFunc(d.feedback), log)
	return d
}

func (d *Drill) dispatch(f func()) {
	select {
	case d.events <- f:
	case <-d.done:
	}
}

// Load sets the line to train and the side the user plays.
func (d *Drill) Load(pgnText string, player trainer.Color) error {
	d.Tracker.SetPlayer(player)
	return d.Tracker.Load(pgnText)
}

// Run starts the loaded line and handles commands until quit, end of input
// or ctx is done.
func (d *Drill) Run(ctx context.Context) error {
	defer close(d.done)
	defer d.Clock.Pause()

	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		for {
			line, err := d.in.ReadLine()
			if err != nil {
				errc <- err
				return
			}
			select {
			case lines <- line:
			case <-d.done:
				return
			}
		}
	}()

	fmt.Fprintln(d.out, drillHelp)
	if err := d.Tracker.Start(); err != nil {
		return err
	}
	d.flush()
	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-errc:
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		case f := <-d.events:
			f()
		case line := <-lines:
			if !d.Exec(line) {
				return nil
			}
		}
		d.flush()
	}
}

// Exec runs one command and reports whether the session goes on.
func (d *Drill) Exec(line string) bool {
	cmd := strings.ToLower(strings.TrimSpace(line))
	switch cmd {
	case "":
	case "quit", "q", "exit":
		return false
	case "help", "?":
		fmt.Fprintln(d.out, drillHelp)
	case "flip":
		d.board.SetOrientation(d.board.orientation.Other())
	case "restart", "r":
		if err := d.Tracker.Start(); err != nil {
			fmt.Fprintln(d.out, LoadErrorText(err))
		}
	case "hint":
		next := d.Tracker.Snapshot().Next
		if len(next) == 0 {
			fmt.Fprintln(d.out, "Nothing left to play in this line")
		} else {
			fmt.Fprintf(d.out, "Book: %s\n", strings.Join(next, " or "))
		}
	default:
		from, to, ok := parseCoordinates(cmd)
		if !ok {
			fmt.Fprintf(d.out, "Unknown command %q. %s\n", line, drillHelp)
			return true
		}
		if err := d.board.gesture(from, to); err != nil {
			fmt.Fprintln(d.out, err)
		}
	}
	return true
}

func (d *Drill) feedback(n trainer.Notice) {
	c, ok := noticeColors[n.Kind]
	if !ok {
		c = color.New(color.Reset)
	}
	fmt.Fprintln(d.out, c.Sprint(FeedbackText(n, d.Tracker.Stats())))
}

func (d *Drill) flush() {
	if !d.board.dirty {
		return
	}
	d.board.dirty = false
	io.WriteString(d.out, d.board.String())
}

// parseCoordinates reads "e2e4", "e2-e4" or "e7e8q". The promotion piece is
// ignored, the trainer always promotes to a queen.
func parseCoordinates(s string) (from, to string, ok bool) {
	s = strings.ReplaceAll(s, "-", "")
	if len(s) != 4 && len(s) != 5 {
		return "", "", false
	}
	from, to = s[:2], s[2:4]
	if !isSquare(from) || !isSquare(to) {
		return "", "", false
	}
	return from, to, true
}

func isSquare(s string) bool {
	return len(s) == 2 && s[0] >= 'a' && s[0] <= 'h' && s[1] >= '1' && s[1] <= '8'
}

// textBoard is the trainer.Board of the drill command.
type textBoard struct {
	pieces      map[string]chess.Piece
	orientation trainer.Color
	viewOnly    bool
	turn        trainer.Color
	dests       trainer.Dests
	dirty       bool
	onMove      func(from, to string)
}

func (b *textBoard) SetPosition(fen string) {
	opt, err := chess.FEN(fen)
	if err != nil {
		return
	}
	b.pieces = make(map[string]chess.Piece)
	for sq, p := range chess.NewGame(opt).Position().Board().SquareMap() {
		b.pieces[sq.String()] = p
	}
	b.dirty = true
}

func (b *textBoard) SetOrientation(c trainer.Color) {
	b.orientation = c
	b.dirty = true
}

func (b *textBoard) SetViewOnly() {
	b.viewOnly = true
	b.dests = nil
}

func (b *textBoard) SetMovable(turn trainer.Color, dests trainer.Dests) {
	b.viewOnly = false
	b.turn = turn
	b.dests = dests
}

func (b *textBoard) OnMove(f func(from, to string)) {
	b.onMove = f
}

// gesture forwards a typed move when the board would have allowed it.
func (b *textBoard) gesture(from, to string) error {
	if b.viewOnly {
		return errors.New("the board is locked until the next round")
	}
	if !b.dests.Allows(from, to) {
		return fmt.Errorf("%s%s is not a legal move for %s", from, to, b.turn)
	}
	if b.onMove != nil {
		b.onMove(from, to)
	}
	return nil
}

func (b *textBoard) String() string {
	var sb strings.Builder
	for row := 0; row < 8; row++ {
		rank := gui.SquareAt(row, 0, b.orientation)[1:]
		sb.WriteString(labelColor.Sprintf(" %s ", rank))
		for col := 0; col < 8; col++ {
			name := gui.SquareAt(row, col, b.orientation)
			glyph := " "
			if p, ok := b.pieces[name]; ok && p != chess.NoPiece {
				glyph = p.String()
			}
			sq := darkSquare
			if (name[0]-'a'+name[1]-'1')%2 == 1 {
				sq = lightSquare
			}
			sb.WriteString(sq.Sprintf(" %s ", glyph))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("   ")
	for col := 0; col < 8; col++ {
		sb.WriteString(labelColor.Sprintf(" %s ", gui.SquareAt(7, col, b.orientation)[:1]))
	}
	sb.WriteString("\n")
	return sb.String()
}
