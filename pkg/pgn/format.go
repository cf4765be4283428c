package pgn

import (
	"fmt"
	"strings"
)

// Label renders a move with the number PGN puts in front of it, counting plies
// from the initial position: "1. e4" for white, "1... e5" for black.
func Label(ply int, san string) string {
	if ply%2 == 0 {
		return fmt.Sprintf("%d. %s", ply/2+1, san)
	}
	return fmt.Sprintf("%d... %s", ply/2+1, san)
}

// Format renders the line back into PGN movetext, variations included.
func (l Line) Format() string {
	var b strings.Builder
	writeMovetext(&b, l, 0)
	return b.String()
}

func writeMovetext(b *strings.Builder, l Line, ply int) {
	number := true
	for _, n := range l {
		space(b)
		switch {
		case ply%2 == 0:
			fmt.Fprintf(b, "%d. ", ply/2+1)
		case number:
			fmt.Fprintf(b, "%d... ", ply/2+1)
		}
		b.WriteString(n.Move)
		for _, a := range n.Annotations {
			if strings.HasPrefix(a, "$") {
				b.WriteByte(' ')
			}
			b.WriteString(a)
		}
		for _, c := range n.Comments {
			fmt.Fprintf(b, " {%s}", c)
		}
		number = len(n.Comments) > 0
		for _, v := range n.Variations {
			b.WriteString(" (")
			writeMovetext(b, v.Moves, ply)
			if v.Result != "" {
				b.WriteString(" " + v.Result)
			}
			b.WriteByte(')')
			number = true
		}
		ply++
	}
}

func space(b *strings.Builder) {
	s := b.String()
	if len(s) > 0 && s[len(s)-1] != '(' {
		b.WriteByte(' ')
	}
}

// Tree renders the line one ply per row, each variation indented under the
// move it replaces.
func (l Line) Tree() string {
	var b strings.Builder
	writeTree(&b, l, 0, 0)
	return b.String()
}

func writeTree(b *strings.Builder, l Line, ply, depth int) {
	for _, n := range l {
		b.WriteString(strings.Repeat("  ", depth))
		b.WriteString(Label(ply, n.Move))
		b.WriteByte('\n')
		for _, v := range n.Variations {
			writeTree(b, v.Moves, ply, depth+1)
		}
		ply++
	}
}
