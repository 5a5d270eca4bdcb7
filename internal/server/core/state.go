package core

import "breakthrough/internal/server/board"

type State int

const (
	StateOngoing State = iota
	StatePending       // Agent is computing a move
	StateWhiteWins
	StateBlackWins
)

func (s State) String() string {
	switch s {
	case StatePending:
		return "pending"
	case StateWhiteWins:
		return "white wins"
	case StateBlackWins:
		return "black wins"
	case StateOngoing:
		return "ongoing"
	default:
		return "unknown"
	}
}

// IsOver reports a finished game
func (s State) IsOver() bool {
	return s == StateWhiteWins || s == StateBlackWins
}

// WinState maps a winning side to its terminal state
func WinState(winner board.Side) State {
	if winner == board.White {
		return StateWhiteWins
	}
	return StateBlackWins
}
