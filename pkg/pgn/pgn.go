// Package pgn reads chess games written in Portable Game Notation into a move
// tree: a mainline of moves where every move may carry recursive variations.
package pgn

// Game is one parsed PGN game.
type Game struct {
	Tags   map[string]string
	Moves  Line
	Result string
}

// MoveNode is a single ply.
type MoveNode struct {
	Move        string // SAN as written in the movetext
	MoveNumber  int    // 0 when the movetext had no number before this move
	Annotations []string
	Comments    []string
	Variations  []Variation // alternatives to this move, starting at its ply
}

// Variation is a branch replacing the move it is attached to.
type Variation struct {
	Moves  Line
	Result string
}

// Line is an ordered sequence of plies.
type Line []MoveNode

// Clone returns a deep copy of the line. Nothing in the copy shares memory
// with l.
func (l Line) Clone() Line {
	if l == nil {
		return nil
	}
	out := make(Line, len(l))
	for i, n := range l {
		out[i] = n.clone()
	}
	return out
}

func (n MoveNode) clone() MoveNode {
	c := n
	c.Annotations = append([]string(nil), n.Annotations...)
	c.Comments = append([]string(nil), n.Comments...)
	if n.Variations != nil {
		c.Variations = make([]Variation, len(n.Variations))
		for i, v := range n.Variations {
			c.Variations[i] = Variation{Moves: v.Moves.Clone(), Result: v.Result}
		}
	}
	return c
}

// SANs returns the moves of the line without annotations.
func (l Line) SANs() []string {
	sans := make([]string, len(l))
	for i, n := range l {
		sans[i] = n.Move
	}
	return sans
}

// Branches counts the distinct paths from the start of the line to a leaf.
func (l Line) Branches() int {
	if len(l) == 0 {
		return 0
	}
	// every variation replaces the rest of the line from its node onward
	count := 1
	for _, n := range l {
		for _, v := range n.Variations {
			if b := v.Moves.Branches(); b > 0 {
				count += b
			}
		}
	}
	return count
}

// Nodes counts every ply in the tree, variations included.
func (l Line) Nodes() int {
	count := 0
	for _, n := range l {
		count++
		for _, v := range n.Variations {
			count += v.Moves.Nodes()
		}
	}
	return count
}
