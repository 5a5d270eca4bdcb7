package board

import (
	"fmt"
	"strings"
)

// Position addresses a square by row and column
type Position struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// FromIndex converts a flattened index row*6+col back to a Position
func FromIndex(i int) Position {
	if i < 0 {
		return Position{Row: -1, Col: -1}
	}
	return Position{Row: i / Size, Col: i % Size}
}

func (p Position) Index() int {
	return p.Row*Size + p.Col
}

func (p Position) Valid() bool {
	return p.Row >= 0 && p.Row < Size && p.Col >= 0 && p.Col < Size
}

// Inverted maps a position between the true frame and the inverted frame.
// The mapping is its own inverse.
func (p Position) Inverted() Position {
	return Position{Row: Size - 1 - p.Row, Col: p.Col}
}

// String renders the square as column letter and row index, e.g. "a4"
func (p Position) String() string {
	if !p.Valid() {
		return "??"
	}
	return fmt.Sprintf("%c%d", 'a'+p.Col, p.Row)
}

// ParsePosition reads the "a4" square notation
func ParsePosition(s string) (Position, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if len(s) != 2 {
		return Position{}, fmt.Errorf("invalid square %q: expected 2 characters", s)
	}
	if s[0] < 'a' || s[0] >= 'a'+Size {
		return Position{}, fmt.Errorf("invalid square %q: column must be a-f", s)
	}
	if s[1] < '0' || s[1] >= '0'+Size {
		return Position{}, fmt.Errorf("invalid square %q: row must be 0-5", s)
	}
	return Position{Row: int(s[1] - '0'), Col: int(s[0] - 'a')}, nil
}

// Move is an origin/destination pair. The mover is whatever sits at From.
type Move struct {
	From Position `json:"from"`
	To   Position `json:"to"`
}

// Inverted maps both ends of the move between frames
func (m Move) Inverted() Move {
	return Move{From: m.From.Inverted(), To: m.To.Inverted()}
}

func (m Move) Valid() bool {
	return m.From.Valid() && m.To.Valid()
}

func (m Move) String() string {
	return m.From.String() + m.To.String()
}

// ParseMove accepts "a4b3" and "a4-b3"
func ParseMove(s string) (Move, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.Replace(s, "-", "", 1)
	if len(s) != 4 {
		return Move{}, fmt.Errorf("invalid move %q: expected <from><to> like a4b3", s)
	}
	from, err := ParsePosition(s[:2])
	if err != nil {
		return Move{}, err
	}
	to, err := ParsePosition(s[2:])
	if err != nil {
		return Move{}, err
	}
	return Move{From: from, To: to}, nil
}
