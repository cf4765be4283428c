package pgn

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// ErrMissingResult is returned when a game's movetext is not closed by a game
// termination marker (1-0, 0-1, 1/2-1/2 or *).
var ErrMissingResult = errors.New("missing game termination marker")

// ParseError reports where in the input the movetext went wrong.
type ParseError struct {
	Line int
	Col  int
	Msg  string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("pgn: %d:%d: %s", e.Line, e.Col, e.Msg)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type tokenKind int

const (
	tokTag tokenKind = iota + 1
	tokComment
	tokEscape
	tokNAG
	tokOpen
	tokClose
	tokResult
	tokNumber
	tokMove
	tokSuffix
)

func (k tokenKind) String() string {
	switch k {
	case tokTag:
		return "tag"
	case tokComment:
		return "comment"
	case tokEscape:
		return "escape"
	case tokNAG:
		return "NAG"
	case tokOpen:
		return "("
	case tokClose:
		return ")"
	case tokResult:
		return "result"
	case tokNumber:
		return "move number"
	case tokMove:
		return "move"
	case tokSuffix:
		return "annotation"
	default:
		return "unknown"
	}
}

// Submatch groups are numbered in tokenKind order.
var tokenRegex = regexp.MustCompile(`(?m)` +
	`(\[\s*[A-Za-z0-9_]+\s+"(?:[^"\\]|\\.)*"\s*\])` +
	`|(\{[^}]*\}|;[^\n]*)` +
	`|(^%[^\n]*)` +
	`|(\$\d+)` +
	`|(\()` +
	`|(\))` +
	`|(1-0|0-1|1/2-1/2|\*)` +
	`|(\d+\.+)` +
	`|([NBKRQ]?[a-h]?[1-8]?x?[a-h][1-8](?:=?[NBRQ])?[+#]?|O-O(?:-O)?[+#]?|0-0(?:-0)?[+#]?|--)` +
	`|([?!]{1,2})`)

var tagRegex = regexp.MustCompile(`^\[\s*([A-Za-z0-9_]+)\s+"((?:[^"\\]|\\.)*)"\s*\]$`)

type token struct {
	kind tokenKind
	text string
	off  int
}

func lex(text string) ([]token, error) {
	var toks []token
	last := 0
	for _, m := range tokenRegex.FindAllStringSubmatchIndex(text, -1) {
		if err := checkGap(text, last, m[0]); err != nil {
			return nil, err
		}
		for g := 1; g <= int(tokSuffix); g++ {
			if m[2*g] >= 0 {
				toks = append(toks, token{kind: tokenKind(g), text: text[m[0]:m[1]], off: m[0]})
				break
			}
		}
		last = m[1]
	}
	if err := checkGap(text, last, len(text)); err != nil {
		return nil, err
	}
	return toks, nil
}

// checkGap fails when anything but whitespace sits between two tokens.
func checkGap(text string, from, to int) error {
	gap := text[from:to]
	i := strings.IndexFunc(gap, func(r rune) bool { return !unicode.IsSpace(r) })
	if i < 0 {
		return nil
	}
	word := strings.Fields(gap[i:])[0]
	return errorAt(text, from+i, fmt.Sprintf("unexpected %q", word), nil)
}

func errorAt(text string, off int, msg string, err error) *ParseError {
	line := 1 + strings.Count(text[:off], "\n")
	col := off - strings.LastIndex(text[:off], "\n")
	return &ParseError{Line: line, Col: col, Msg: msg, Err: err}
}

// Parse reads every game in text. An input without any tokens yields no games
// and no error.
func Parse(text string) ([]Game, error) {
	toks, err := lex(text)
	if err != nil {
		return nil, err
	}
	p := &parser{text: text, toks: toks}
	var games []Game
	for !p.done() {
		g, err := p.game()
		if err != nil {
			return nil, err
		}
		games = append(games, g)
	}
	return games, nil
}

// Parser adapts Parse to the interface the trainer consumes.
type Parser struct{}

func (Parser) Parse(text string) ([]Game, error) {
	return Parse(text)
}

type parser struct {
	text string
	toks []token
	i    int
}

func (p *parser) done() bool {
	return p.i >= len(p.toks)
}

func (p *parser) next() token {
	t := p.toks[p.i]
	p.i++
	return t
}

func (p *parser) errorf(t token, format string, args ...interface{}) error {
	return errorAt(p.text, t.off, fmt.Sprintf(format, args...), nil)
}

func (p *parser) game() (Game, error) {
	g := Game{Tags: make(map[string]string)}
	for !p.done() && p.toks[p.i].kind == tokTag {
		t := p.next()
		m := tagRegex.FindStringSubmatch(t.text)
		g.Tags[m[1]] = strings.ReplaceAll(m[2], `\"`, `"`)
	}
	moves, result, err := p.line(0)
	if err != nil {
		return Game{}, err
	}
	if result == "" {
		return Game{}, errorAt(p.text, len(p.text), ErrMissingResult.Error(), ErrMissingResult)
	}
	g.Moves = moves
	g.Result = result
	return g, nil
}

// line reads plies until the end of a variation (depth > 0), a game
// termination marker or the end of input.
func (p *parser) line(depth int) (Line, string, error) {
	var line Line
	number := 0
	for {
		if p.done() {
			if depth > 0 {
				return nil, "", errorAt(p.text, len(p.text), "unterminated variation", nil)
			}
			return line, "", nil
		}
		t := p.next()
		switch t.kind {
		case tokEscape:
		case tokComment:
			if len(line) > 0 {
				line[len(line)-1].Comments = append(line[len(line)-1].Comments, commentText(t.text))
			}
		case tokNAG, tokSuffix:
			if len(line) == 0 {
				return nil, "", p.errorf(t, "annotation %s before any move", t.text)
			}
			line[len(line)-1].Annotations = append(line[len(line)-1].Annotations, t.text)
		case tokNumber:
			number, _ = strconv.Atoi(strings.TrimRight(t.text, "."))
		case tokMove:
			line = append(line, MoveNode{Move: t.text, MoveNumber: number})
			number = 0
		case tokOpen:
			if len(line) == 0 {
				return nil, "", p.errorf(t, "variation before any move")
			}
			moves, result, err := p.line(depth + 1)
			if err != nil {
				return nil, "", err
			}
			if len(moves) == 0 {
				return nil, "", p.errorf(t, "empty variation")
			}
			last := &line[len(line)-1]
			last.Variations = append(last.Variations, Variation{Moves: moves, Result: result})
		case tokClose:
			if depth == 0 {
				return nil, "", p.errorf(t, "unbalanced )")
			}
			return line, "", nil
		case tokResult:
			if depth == 0 {
				return line, t.text, nil
			}
			if p.done() || p.toks[p.i].kind != tokClose {
				return nil, "", p.errorf(t, "result inside variation must close it")
			}
			p.i++
			return line, t.text, nil
		case tokTag:
			return nil, "", p.errorf(t, "tag inside movetext")
		}
	}
}

func commentText(raw string) string {
	if strings.HasPrefix(raw, ";") {
		return strings.TrimSpace(raw[1:])
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimPrefix(raw, "{"), "}"))
}
