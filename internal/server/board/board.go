// Package board implements the Breakthrough rules engine on a 6x6 grid.
// Boards are values: every operation returns a new Board and leaves its
// receiver untouched, so earlier snapshots stay valid.
package board

import "fmt"

const Size = 6

// Cell is the content of one square
type Cell byte

const (
	Empty Cell = iota
	BlackPawn
	WhitePawn
)

// Side returns the owner of the cell, ok is false for Empty
func (c Cell) Side() (Side, bool) {
	switch c {
	case BlackPawn:
		return Black, true
	case WhitePawn:
		return White, true
	default:
		return 0, false
	}
}

// Swap exchanges pawn ownership, Empty is unchanged
func (c Cell) Swap() Cell {
	switch c {
	case BlackPawn:
		return WhitePawn
	case WhitePawn:
		return BlackPawn
	default:
		return Empty
	}
}

// Side is one of the two players
type Side byte

const (
	Black Side = iota + 1
	White
)

// Forward is the row delta of one step toward the opponent's home row
func (s Side) Forward() int {
	if s == Black {
		return 1
	}
	return -1
}

// GoalRow is the row a pawn of this side must reach to break through
func (s Side) GoalRow() int {
	if s == Black {
		return Size - 1
	}
	return 0
}

func (s Side) Opponent() Side {
	if s == Black {
		return White
	}
	return Black
}

func (s Side) Pawn() Cell {
	if s == Black {
		return BlackPawn
	}
	return WhitePawn
}

func (s Side) String() string {
	switch s {
	case Black:
		return "b"
	case White:
		return "w"
	default:
		return "-"
	}
}

func (s Side) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *Side) UnmarshalText(text []byte) error {
	side, ok := ParseSide(string(text))
	if !ok {
		return fmt.Errorf("invalid side %q", text)
	}
	*s = side
	return nil
}

// Name returns the capitalised side name for display
func (s Side) Name() string {
	switch s {
	case Black:
		return "Black"
	case White:
		return "White"
	default:
		return "None"
	}
}

// ParseSide accepts "b"/"w" and the full names
func ParseSide(s string) (Side, bool) {
	switch s {
	case "b", "B", "black", "Black":
		return Black, true
	case "w", "W", "white", "White":
		return White, true
	}
	return 0, false
}

// Outcome is the terminal status of a board snapshot
type Outcome int

const (
	InProgress Outcome = iota
	Over
)

func (o Outcome) String() string {
	if o == Over {
		return "over"
	}
	return "in progress"
}

// Board is the 6x6 grid indexed [row][col]. Row 0 is Black's home side.
type Board [Size][Size]Cell

// Initial returns the starting layout
func Initial() Board {
	var b Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			switch {
			case r < 2:
				b[r][c] = BlackPawn
			case r >= Size-2:
				b[r][c] = WhitePawn
			}
		}
	}
	return b
}

// At returns the cell at p, Empty when p is off the board
func (b Board) At(p Position) Cell {
	if !p.Valid() {
		return Empty
	}
	return b[p.Row][p.Col]
}

// Count returns the number of cells holding c
func (b Board) Count(c Cell) int {
	n := 0
	for r := 0; r < Size; r++ {
		for col := 0; col < Size; col++ {
			if b[r][col] == c {
				n++
			}
		}
	}
	return n
}

// LegalDestinations lists the squares the piece at from may move to, in
// left-to-right order. Empty or off-board origins have no moves.
func (b Board) LegalDestinations(from Position) []Position {
	if !from.Valid() {
		return nil
	}
	side, ok := b.At(from).Side()
	if !ok {
		return nil
	}

	own := side.Pawn()
	enemy := side.Opponent().Pawn()
	nr := from.Row + side.Forward()

	var dests []Position
	for dc := -1; dc <= 1; dc++ {
		to := Position{Row: nr, Col: from.Col + dc}
		if !to.Valid() {
			continue
		}
		target := b[to.Row][to.Col]
		if target == own {
			continue
		}
		// Straight moves never capture
		if dc == 0 && target == enemy {
			continue
		}
		dests = append(dests, to)
	}
	return dests
}

// LegalIndices is LegalDestinations in flattened index form
func (b Board) LegalIndices(from Position) []int {
	dests := b.LegalDestinations(from)
	idx := make([]int, len(dests))
	for i, p := range dests {
		idx[i] = p.Index()
	}
	return idx
}

// IsLegal reports whether m.To is a legal destination for the piece at m.From
func (b Board) IsLegal(m Move) bool {
	for _, p := range b.LegalDestinations(m.From) {
		if p == m.To {
			return true
		}
	}
	return false
}

// ApplyMove relocates the piece at from to to and empties from. Legality is
// the caller's concern; the result is always a well-formed board.
func (b Board) ApplyMove(from, to Position) Board {
	if !from.Valid() || !to.Valid() {
		return b
	}
	b[to.Row][to.Col] = b[from.Row][from.Col]
	b[from.Row][from.Col] = Empty
	return b
}

// Apply is ApplyMove for a Move value
func (b Board) Apply(m Move) Board {
	return b.ApplyMove(m.From, m.To)
}

// IsTerminal reports a breakthrough by either side or the elimination of one side
func (b Board) IsTerminal() bool {
	_, over := b.Winner()
	return over
}

func (b Board) Outcome() Outcome {
	if b.IsTerminal() {
		return Over
	}
	return InProgress
}

// Winner returns the side that has won, ok is false while the game is in
// progress. Breakthrough takes precedence over elimination.
func (b Board) Winner() (Side, bool) {
	var blacks, whites int
	whiteThrough, blackThrough := false, false

	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			switch b[r][c] {
			case BlackPawn:
				blacks++
				if r == Black.GoalRow() {
					blackThrough = true
				}
			case WhitePawn:
				whites++
				if r == White.GoalRow() {
					whiteThrough = true
				}
			}
		}
	}

	switch {
	case whiteThrough:
		return White, true
	case blackThrough:
		return Black, true
	case blacks == 0:
		return White, true
	case whites == 0:
		return Black, true
	}
	return 0, false
}

// Invert mirrors the board vertically and swaps pawn ownership
func (b Board) Invert() Board {
	var out Board
	for r := 0; r < Size; r++ {
		for c := 0; c < Size; c++ {
			out[Size-1-r][c] = b[r][c].Swap()
		}
	}
	return out
}
