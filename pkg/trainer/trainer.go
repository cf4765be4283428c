// Package trainer tracks a player's progress through an opening tree. The
// chess rules, the board surface and the PGN parser are collaborators reached
// through the interfaces below.
package trainer

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/qnkhuat/openingrush/pkg/pgn"
)

var (
	ErrInvalidPGN     = errors.New("invalid PGN")
	ErrEmptyLine      = errors.New("PGN has no moves")
	ErrIllegalLine    = errors.New("line contains an illegal move")
	ErrImpossibleMove = errors.New("board offered a move the rules reject")
	ErrNotLoaded      = errors.New("no line loaded")
)

type Color int

const (
	White Color = iota
	Black
)

func (c Color) String() string {
	if c == Black {
		return "black"
	}
	return "white"
}

// Other returns the opposing side.
func (c Color) Other() Color {
	if c == Black {
		return White
	}
	return Black
}

func ParseColor(s string) (Color, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "white", "w":
		return White, nil
	case "black", "b":
		return Black, nil
	default:
		return White, fmt.Errorf("unknown color %q", s)
	}
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Move is a legal move as reported by the engine. Squares are lowercase
// algebraic ("e2"), Promotion is "", "q", "r", "b" or "n".
type Move struct {
	From      string
	To        string
	SAN       string
	Promotion string
}

// Dests maps an origin square to its legal destination squares.
type Dests map[string][]string

// Allows reports whether to is a destination of from.
func (d Dests) Allows(from, to string) bool {
	return contains(d[from], to)
}

// Engine owns the chess position.
type Engine interface {
	Reset()
	Turn() Color
	Moves() []Move
	MovesFrom(square string) []Move
	Apply(m Move) error
	PlaySAN(san string) (Move, error)
	FEN() string
}

// LineChecker is implemented by engines able to verify a whole move tree from
// the initial position.
type LineChecker interface {
	CheckLine(line pgn.Line) error
}

// Board is the surface showing the position to the player.
type Board interface {
	SetPosition(fen string)
	SetOrientation(c Color)
	// SetViewOnly makes the board non-interactive and clears destinations.
	SetViewOnly()
	// SetMovable lets the player move pieces of turn to the given destinations.
	SetMovable(turn Color, dests Dests)
	// OnMove registers the callback for a completed move gesture.
	OnMove(func(from, to string))
}

type Parser interface {
	Parse(text string) ([]pgn.Game, error)
}

type NoticeKind int

const (
	NoticeStarting NoticeKind = iota
	NoticeCorrect
	NoticeOffBook
	NoticeComplete
	NoticeError
)

func (k NoticeKind) String() string {
	switch k {
	case NoticeStarting:
		return "starting"
	case NoticeCorrect:
		return "correct"
	case NoticeOffBook:
		return "off-book"
	case NoticeComplete:
		return "complete"
	case NoticeError:
		return "error"
	default:
		return "unknown"
	}
}

func (k NoticeKind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

func (k *NoticeKind) UnmarshalText(text []byte) error {
	for kind := NoticeStarting; kind <= NoticeError; kind++ {
		if kind.String() == string(text) {
			*k = kind
			return nil
		}
	}
	return fmt.Errorf("unknown notice kind %q", text)
}

type Notice struct {
	Kind NoticeKind
	Text string
}

type Feedback interface {
	Notify(n Notice)
}

// FeedbackFunc adapts a function to Feedback.
type FeedbackFunc func(n Notice)

func (f FeedbackFunc) Notify(n Notice) {
	f(n)
}

// Scheduler runs f after d on the goroutine that owns the tracker. The
// returned function cancels a callback that has not run yet.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) (stop func())
}

// Rand picks candidate branches. *math/rand.Rand satisfies it.
type Rand interface {
	Intn(n int) int
}

// Squares lists every square from a1 to h8, rank by rank.
var Squares = func() []string {
	squares := make([]string, 0, 64)
	for rank := '1'; rank <= '8'; rank++ {
		for file := 'a'; file <= 'h'; file++ {
			squares = append(squares, string([]rune{file, rank}))
		}
	}
	return squares
}()

// SameSAN compares two SAN strings ignoring check marks, annotation glyphs,
// the promotion '=' and the zero spelling of castling.
func SameSAN(a, b string) bool {
	return normalizeSAN(a) == normalizeSAN(b)
}

func normalizeSAN(san string) string {
	san = strings.TrimRight(strings.TrimSpace(san), "+#!?")
	san = strings.ReplaceAll(san, "=", "")
	switch san {
	case "0-0":
		return "O-O"
	case "0-0-0":
		return "O-O-O"
	}
	return san
}
