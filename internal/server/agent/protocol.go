// Package agent talks to an external move-suggesting service over HTTP.
//
// The agent always plays the pawns marked "B" that advance toward row 5.
// When White is to move the board is sent inverted and the reply is mapped
// back with the same reflection.
package agent

import (
	"encoding/json"
	"fmt"

	"breakthrough/internal/server/board"
)

// Request is the agent-frame board, a 6x6 grid of "B", "W" or "_"
type Request [][]string

// Reply is [[fromRow, fromCol], [toRow, toCol]] in the agent frame
type Reply [][]int

// Query builds the request for side to move. inverted reports whether the
// board was flipped and the reply must be mapped back.
func Query(b board.Board, side board.Side) (req Request, inverted bool) {
	if side == board.White {
		return Request(b.Invert().Grid()), true
	}
	return Request(b.Grid()), false
}

// Move converts the reply into true-frame board coordinates
func (r Reply) Move(inverted bool) (board.Move, error) {
	if len(r) != 2 || len(r[0]) != 2 || len(r[1]) != 2 {
		return board.Move{}, fmt.Errorf("malformed agent reply: expected [[row,col],[row,col]], got %v", [][]int(r))
	}
	m := board.Move{
		From: board.Position{Row: r[0][0], Col: r[0][1]},
		To:   board.Position{Row: r[1][0], Col: r[1][1]},
	}
	if !m.Valid() {
		return board.Move{}, fmt.Errorf("agent reply out of range: %v", [][]int(r))
	}
	if inverted {
		m = m.Inverted()
	}
	return m, nil
}

// ReplyFor encodes a true-frame move the way an agent would answer it
func ReplyFor(m board.Move, inverted bool) Reply {
	if inverted {
		m = m.Inverted()
	}
	return Reply{{m.From.Row, m.From.Col}, {m.To.Row, m.To.Col}}
}

// DecodeReply parses a raw reply body
func DecodeReply(data []byte) (Reply, error) {
	var r Reply
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("malformed agent reply: %w", err)
	}
	return r, nil
}
