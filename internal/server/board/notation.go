package board

import (
	"fmt"
	"strings"
)

// Cell markers shared with the agent wire format
const (
	MarkEmpty = '_'
	MarkBlack = 'B'
	MarkWhite = 'W'
)

func (c Cell) Mark() byte {
	switch c {
	case BlackPawn:
		return MarkBlack
	case WhitePawn:
		return MarkWhite
	default:
		return MarkEmpty
	}
}

func (c Cell) String() string {
	return string(c.Mark())
}

// ParseCell reads one marker. '.' is accepted as Empty for hand-typed boards.
func ParseCell(ch byte) (Cell, error) {
	switch ch {
	case MarkBlack, 'b':
		return BlackPawn, nil
	case MarkWhite, 'w':
		return WhitePawn, nil
	case MarkEmpty, '.':
		return Empty, nil
	}
	return Empty, fmt.Errorf("invalid cell marker %q", ch)
}

// Rows renders each row as a 6 character marker string, row 0 first
func (b Board) Rows() []string {
	rows := make([]string, Size)
	for r := 0; r < Size; r++ {
		var sb strings.Builder
		for c := 0; c < Size; c++ {
			sb.WriteByte(b[r][c].Mark())
		}
		rows[r] = sb.String()
	}
	return rows
}

// ParseRows builds a board from 6 marker strings
func ParseRows(rows []string) (Board, error) {
	var b Board
	if len(rows) != Size {
		return b, fmt.Errorf("invalid board: expected %d rows, got %d", Size, len(rows))
	}
	for r, row := range rows {
		if len(row) != Size {
			return b, fmt.Errorf("invalid board: row %d has %d cells", r, len(row))
		}
		for c := 0; c < Size; c++ {
			cell, err := ParseCell(row[c])
			if err != nil {
				return b, fmt.Errorf("invalid board: row %d col %d: %w", r, c, err)
			}
			b[r][c] = cell
		}
	}
	return b, nil
}

// Grid renders the board as a 6x6 matrix of single-character strings
func (b Board) Grid() [][]string {
	grid := make([][]string, Size)
	for r := 0; r < Size; r++ {
		grid[r] = make([]string, Size)
		for c := 0; c < Size; c++ {
			grid[r][c] = b[r][c].String()
		}
	}
	return grid
}

// ParseGrid is the inverse of Grid
func ParseGrid(grid [][]string) (Board, error) {
	var b Board
	if len(grid) != Size {
		return b, fmt.Errorf("invalid grid: expected %d rows, got %d", Size, len(grid))
	}
	for r, row := range grid {
		if len(row) != Size {
			return b, fmt.Errorf("invalid grid: row %d has %d cells", r, len(row))
		}
		for c, mark := range row {
			if len(mark) != 1 {
				return b, fmt.Errorf("invalid grid: row %d col %d: marker %q", r, c, mark)
			}
			cell, err := ParseCell(mark[0])
			if err != nil {
				return b, fmt.Errorf("invalid grid: row %d col %d: %w", r, c, err)
			}
			b[r][c] = cell
		}
	}
	return b, nil
}

// Encode packs the board into a single 36 character string for storage
func (b Board) Encode() string {
	return strings.Join(b.Rows(), "")
}

// Decode is the inverse of Encode
func Decode(s string) (Board, error) {
	if len(s) != Size*Size {
		return Board{}, fmt.Errorf("invalid encoded board: expected %d characters, got %d", Size*Size, len(s))
	}
	rows := make([]string, Size)
	for r := 0; r < Size; r++ {
		rows[r] = s[r*Size : (r+1)*Size]
	}
	return ParseRows(rows)
}

// ToASCII creates an ASCII representation of the board
func (b Board) ToASCII() string {
	var sb strings.Builder
	sb.WriteString("  a b c d e f\n")

	for r := 0; r < Size; r++ {
		sb.WriteString(fmt.Sprintf("%d ", r))
		for c := 0; c < Size; c++ {
			switch b[r][c] {
			case BlackPawn:
				sb.WriteString("B ")
			case WhitePawn:
				sb.WriteString("W ")
			default:
				sb.WriteString(". ")
			}
		}
		sb.WriteString(fmt.Sprintf(" %d\n", r))
	}
	sb.WriteString("  a b c d e f")

	return sb.String()
}
