package game

import (
	"fmt"

	"breakthrough/internal/server/board"
	"breakthrough/internal/server/core"
)

// Snapshot is one immutable step of the game history
type Snapshot struct {
	Board        board.Board `json:"-"`
	PreviousMove string      `json:"previousMove"`
	NextTurn     board.Side  `json:"nextTurn"`
	PlayerID     string      `json:"playerId"` // ID of the player whose turn it is
}

// MoveResult tracks the outcome of a move
type MoveResult struct {
	Move       string     `json:"move"`
	PlayerSide board.Side `json:"playerSide"`
	GameState  core.State `json:"gameState"`
}

// Game holds the history of a single Breakthrough game. Every transition
// appends a snapshot, the current state is always the last one.
type Game struct {
	snapshots  []Snapshot
	players    map[board.Side]*core.Player
	state      core.State
	lastResult *MoveResult
	lastError  string
}

func New(initial board.Board, whitePlayer, blackPlayer *core.Player, startingTurn board.Side) *Game {
	g := &Game{
		players: map[board.Side]*core.Player{
			board.White: whitePlayer,
			board.Black: blackPlayer,
		},
		state: core.StateOngoing,
	}
	g.snapshots = []Snapshot{{
		Board:    initial,
		NextTurn: startingTurn,
		PlayerID: g.players[startingTurn].ID,
	}}
	return g
}

func (g *Game) SetLastResult(result *MoveResult) {
	g.lastResult = result
}

func (g *Game) LastResult() *MoveResult {
	return g.lastResult
}

// SetLastError records why the last agent query produced no move
func (g *Game) SetLastError(msg string) {
	g.lastError = msg
}

func (g *Game) LastError() string {
	return g.lastError
}

// CurrentSnapshot returns the latest game snapshot
func (g *Game) CurrentSnapshot() Snapshot {
	return g.snapshots[len(g.snapshots)-1]
}

func (g *Game) CurrentBoard() board.Board {
	return g.CurrentSnapshot().Board
}

func (g *Game) NextTurn() board.Side {
	return g.CurrentSnapshot().NextTurn
}

func (g *Game) NextPlayer() *core.Player {
	return g.players[g.NextTurn()]
}

func (g *Game) GetPlayer(side board.Side) *core.Player {
	return g.players[side]
}

// AddSnapshot appends a new position. An empty move marks a non-move
// transition such as an inversion or a forced turn switch.
func (g *Game) AddSnapshot(b board.Board, move string, nextTurn board.Side) {
	g.snapshots = append(g.snapshots, Snapshot{
		Board:        b,
		PreviousMove: move,
		NextTurn:     nextTurn,
		PlayerID:     g.players[nextTurn].ID,
	})
	g.lastError = ""
}

func (g *Game) UpdatePlayers(whitePlayer, blackPlayer *core.Player) {
	g.players[board.White] = whitePlayer
	g.players[board.Black] = blackPlayer

	// Update current snapshot's PlayerID to reflect new player
	currentSnap := &g.snapshots[len(g.snapshots)-1]
	currentSnap.PlayerID = g.players[currentSnap.NextTurn].ID
}

// UndoMoves drops the last count transitions
func (g *Game) UndoMoves(count int) error {
	if count < 1 {
		return fmt.Errorf("invalid undo count: %d", count)
	}

	available := len(g.snapshots) - 1
	if available < count {
		return fmt.Errorf("cannot undo %d moves: only %d moves available", count, available)
	}

	g.snapshots = g.snapshots[:len(g.snapshots)-count]
	g.state = core.StateOngoing
	g.lastResult = nil
	g.lastError = ""
	return nil
}

// Reset restores the starting layout with White to move
func (g *Game) Reset() {
	g.snapshots = []Snapshot{{
		Board:    board.Initial(),
		NextTurn: board.White,
		PlayerID: g.players[board.White].ID,
	}}
	g.state = core.StateOngoing
	g.lastResult = nil
	g.lastError = ""
}

// Moves lists the moves played, skipping non-move transitions
func (g *Game) Moves() []string {
	moves := []string{}
	for i := 1; i < len(g.snapshots); i++ {
		if g.snapshots[i].PreviousMove != "" {
			moves = append(moves, g.snapshots[i].PreviousMove)
		}
	}
	return moves
}

// Version counts every transition since the initial snapshot
func (g *Game) Version() int {
	return len(g.snapshots) - 1
}

func (g *Game) State() core.State {
	return g.state
}

func (g *Game) SetState(s core.State) {
	g.state = s
}
